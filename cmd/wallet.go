// ABOUTME: Wallet command for ridectl
// ABOUTME: Shows the account balance for riders and drivers

package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/markalston/ridectl/internal/models"
	"github.com/markalston/ridectl/internal/tui/styles"
)

var walletCmd = &cobra.Command{
	Use:   "wallet",
	Short: "Show the account balance",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return exitErr(runWallet(cmd.Context(), cmd.OutOrStdout()))
	},
}

func init() {
	requireAuth(walletCmd, models.RoleRider, models.RoleDriver)
	rootCmd.AddCommand(walletCmd)
}

// runWallet prints the balance and returns exit code
func runWallet(ctx context.Context, w io.Writer) int {
	e, err := openEnv(ctx, "/wallet", w)
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return exitUsage
	}
	defer e.Close()

	wallet, err := e.client.Wallet(ctx)
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return exitAPIError
	}

	if IsJSONOutput() {
		printJSON(w, wallet)
		return exitOK
	}
	fmt.Fprintln(w, styles.Field("Balance", fmt.Sprintf("%.2f %s", wallet.Balance, wallet.Currency)))
	return exitOK
}
