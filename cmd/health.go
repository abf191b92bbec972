// ABOUTME: Health command for ridectl
// ABOUTME: Checks backend connectivity

package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/markalston/ridectl/internal/client"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check backend connectivity",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return exitErr(runHealth(cmd.Context(), cmd.OutOrStdout()))
	},
}

func init() {
	rootCmd.AddCommand(healthCmd)
}

// runHealth executes the health check and returns exit code
func runHealth(ctx context.Context, w io.Writer) int {
	e, err := openEnv(ctx, "/health", w)
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return exitUsage
	}
	defer e.Close()

	resp, err := e.client.Health(ctx)
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return exitAPIError
	}

	if IsJSONOutput() {
		printJSON(w, map[string]string{
			"backend": e.client.BaseURL(),
			"status":  resp.Status,
			"version": resp.Version,
		})
		return exitOK
	}
	fmt.Fprintln(w, formatHealthHuman(e.client.BaseURL(), resp))
	return exitOK
}

// formatHealthHuman formats health response for human readability
func formatHealthHuman(url string, resp *client.HealthResponse) string {
	out := fmt.Sprintf("Backend: %s\nStatus:  %s", url, resp.Status)
	if resp.Version != "" {
		out += fmt.Sprintf("\nVersion: %s", resp.Version)
	}
	return out
}
