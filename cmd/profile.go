// ABOUTME: Profile commands for ridectl
// ABOUTME: Updates account details and keeps the stored subject in step

package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/markalston/ridectl/internal/models"
)

var profileUpdate models.ProfileUpdate

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Manage the signed-in account",
}

var profileUpdateCmd = &cobra.Command{
	Use:   "update",
	Short: "Update account details",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return exitErr(runProfileUpdate(cmd.Context(), cmd.OutOrStdout()))
	},
}

func init() {
	profileUpdateCmd.Flags().StringVar(&profileUpdate.Email, "email", "", "New email")
	profileUpdateCmd.Flags().StringVar(&profileUpdate.Name, "name", "", "New display name")
	profileUpdateCmd.Flags().StringVar(&profileUpdate.Phone, "phone", "", "New phone number")
	requireAuth(profileUpdateCmd)

	profileCmd.AddCommand(profileUpdateCmd)
	rootCmd.AddCommand(profileCmd)
}

// runProfileUpdate sends the changed fields and returns exit code
func runProfileUpdate(ctx context.Context, w io.Writer) int {
	if profileUpdate == (models.ProfileUpdate{}) {
		fmt.Fprintln(w, "Error: nothing to update; pass --email, --name or --phone")
		return exitUsage
	}

	e, err := openEnv(ctx, "/profile/update", w)
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return exitUsage
	}
	defer e.Close()

	profile, err := e.client.UpdateProfile(ctx, &profileUpdate)
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return exitAPIError
	}

	e.session.UpdateSubject(func(prev models.Subject) models.Subject {
		if profile.Email != "" {
			prev.Email = profile.Email
		}
		if profile.Role.Valid() {
			prev.Role = profile.Role
		}
		return prev
	})

	if IsJSONOutput() {
		printJSON(w, profile)
	} else {
		fmt.Fprintln(w, formatProfileHuman(profile))
	}
	return exitOK
}
