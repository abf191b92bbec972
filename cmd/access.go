// ABOUTME: Command-level access control
// ABOUTME: Reads role annotations and evaluates the guard before a command runs

package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/markalston/ridectl/internal/guard"
	"github.com/markalston/ridectl/internal/models"
)

// Command annotations
const (
	// annotationAuth marks a command that needs any signed-in subject
	annotationAuth = "ridectl.auth"
	// annotationRoles lists the roles allowed to run a command
	annotationRoles = "ridectl.roles"
)

// requireAuth marks cmd as needing a session, optionally limited to roles
func requireAuth(cmd *cobra.Command, roles ...models.Role) {
	if cmd.Annotations == nil {
		cmd.Annotations = map[string]string{}
	}
	cmd.Annotations[annotationAuth] = "required"
	if len(roles) > 0 {
		names := make([]string, len(roles))
		for i, r := range roles {
			names[i] = string(r)
		}
		cmd.Annotations[annotationRoles] = strings.Join(names, ",")
	}
}

// requirements returns whether cmd is protected and by which roles
func requirements(cmd *cobra.Command) (bool, []models.Role, error) {
	if cmd.Annotations == nil {
		return false, nil, nil
	}
	roles, err := models.ParseRoles(cmd.Annotations[annotationRoles])
	if err != nil {
		return false, nil, fmt.Errorf("command %q: %w", cmd.Name(), err)
	}
	protected := cmd.Annotations[annotationAuth] == "required" || len(roles) > 0
	return protected, roles, nil
}

// locationFor maps a command to a location, e.g. "ridectl orders list" to "/orders/list"
func locationFor(cmd *cobra.Command) string {
	parts := strings.Fields(cmd.CommandPath())
	if len(parts) <= 1 {
		return "/"
	}
	return "/" + strings.Join(parts[1:], "/")
}

// checkAccess evaluates the guard for cmd and returns an exit code
func checkAccess(ctx context.Context, cmd *cobra.Command) int {
	w := cmd.ErrOrStderr()
	protected, roles, err := requirements(cmd)
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return exitUsage
	}
	if !protected {
		return exitOK
	}

	e, err := openEnv(ctx, locationFor(cmd), w)
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return exitUsage
	}
	defer e.Close()

	d := guard.New(e.cfg.SignInPath, e.cfg.UnauthorizedPath).Evaluate(e.session, roles...)
	switch d.Outcome {
	case guard.Allow:
		return exitOK
	case guard.Wait:
		fmt.Fprintln(w, "Error: session is still loading")
		return exitAPIError
	case guard.RedirectUnauthorized:
		e.nav.Navigate(d.Target)
		fmt.Fprintf(w, "Requires role: %s\n", joinRoles(roles))
		return exitRedirect
	default:
		e.nav.Navigate(d.Target)
		return exitRedirect
	}
}

func joinRoles(roles []models.Role) string {
	names := make([]string, len(roles))
	for i, r := range roles {
		names[i] = string(r)
	}
	return strings.Join(names, " or ")
}
