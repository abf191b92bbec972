// ABOUTME: Sign-in, registration and sign-out commands
// ABOUTME: Establishes or ends the session shared by all ridectl processes

package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/markalston/ridectl/internal/models"
	"github.com/markalston/ridectl/internal/tui/loginform"
	"github.com/markalston/ridectl/internal/tui/styles"
)

var (
	authValues    loginform.Values
	passwordStdin bool
	accessible    bool

	stdin       io.Reader = os.Stdin
	interactive           = stdinIsTerminal
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in to the ride platform",
	Long: `Sign in with email and password. Missing fields are prompted for when
running in a terminal.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return exitErr(runLogin(cmd.Context(), cmd.OutOrStdout()))
	},
}

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create an account and sign in",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return exitErr(runRegister(cmd.Context(), cmd.OutOrStdout()))
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out of the ride platform",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return exitErr(runLogout(cmd.Context(), cmd.OutOrStdout()))
	},
}

var whoamiOffline bool

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in account",
	Long:  `Show the signed-in account, refreshed from the backend unless --offline is given.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return exitErr(runWhoami(cmd.Context(), cmd.OutOrStdout()))
	},
}

func init() {
	for _, c := range []*cobra.Command{loginCmd, registerCmd} {
		c.Flags().StringVar(&authValues.Email, "email", "", "Account email")
		c.Flags().StringVar(&authValues.Password, "password", "", "Account password (prefer --password-stdin)")
		c.Flags().BoolVar(&passwordStdin, "password-stdin", false, "Read the password from stdin")
		c.Flags().BoolVar(&accessible, "accessible", false, "Use plain prompts instead of the interactive form")
	}
	registerCmd.Flags().StringVar(&authValues.Name, "name", "", "Display name")
	registerCmd.Flags().StringVar(&authValues.Phone, "phone", "", "Phone number")
	registerCmd.Flags().StringVar(&authValues.Role, "role", "", "Account type: rider, driver or company")

	whoamiCmd.Flags().BoolVar(&whoamiOffline, "offline", false, "Show the stored session without calling the backend")
	requireAuth(whoamiCmd)

	rootCmd.AddCommand(loginCmd, registerCmd, logoutCmd, whoamiCmd)
}

// runLogin signs in and returns exit code
func runLogin(ctx context.Context, w io.Writer) int {
	if code := collect(ctx, w, loginform.NewLogin); code != exitOK {
		return code
	}

	e, err := openEnv(ctx, cfg.SignInPath, w)
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return exitUsage
	}
	defer e.Close()

	req := authValues.LoginRequest()
	resp, err := e.client.Login(ctx, req.Email, req.Password)
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return exitAPIError
	}
	return establish(w, e, resp)
}

// runRegister creates an account, signs in and returns exit code
func runRegister(ctx context.Context, w io.Writer) int {
	if authValues.Role == "" {
		authValues.Role = string(models.RoleRider)
	}
	if code := collect(ctx, w, loginform.NewRegister); code != exitOK {
		return code
	}
	req, err := authValues.RegisterRequest()
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return exitUsage
	}
	if req.Role == models.RoleAdmin {
		fmt.Fprintln(w, "Error: admin accounts cannot be self-registered")
		return exitUsage
	}

	e, err := openEnv(ctx, "/register", w)
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return exitUsage
	}
	defer e.Close()

	resp, err := e.client.Register(ctx, &req)
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return exitAPIError
	}
	return establish(w, e, resp)
}

// collect fills authValues from stdin or an interactive form
func collect(ctx context.Context, w io.Writer, form func(*loginform.Values) *huh.Form) int {
	if passwordStdin {
		pw, err := readPassword(stdin)
		if err != nil {
			fmt.Fprintf(w, "Error: %v\n", err)
			return exitUsage
		}
		authValues.Password = pw
	}
	if !authValues.Missing() {
		return exitOK
	}
	if !interactive() {
		fmt.Fprintln(w, "Error: --email and a password are required when not running in a terminal")
		return exitUsage
	}
	if err := loginform.Run(ctx, form(&authValues), stdin, w, accessible); err != nil {
		if errors.Is(err, loginform.ErrAborted) {
			fmt.Fprintln(w, "Cancelled.")
			return exitUsage
		}
		fmt.Fprintf(w, "Error: %v\n", err)
		return exitUsage
	}
	return exitOK
}

// establish stores a session from an auth response
func establish(w io.Writer, e *env, resp *models.AuthResponse) int {
	if resp.Token == "" || !resp.Profile.Role.Valid() {
		fmt.Fprintln(w, "Error: backend returned an incomplete session")
		return exitAPIError
	}
	e.session.Login(resp.Profile.Subject(), resp.Token)
	if !e.session.IsAuthenticated() {
		fmt.Fprintln(w, "Error: backend issued a credential that has already expired")
		return exitAPIError
	}

	if IsJSONOutput() {
		printJSON(w, resp.Profile)
		return exitOK
	}
	fmt.Fprintf(w, "Signed in as %s (%s)\n", styles.ValueStyle.Render(resp.Profile.Email), styles.RoleBadge(resp.Profile.Role))
	return exitOK
}

// runLogout ends the session and returns exit code
func runLogout(ctx context.Context, w io.Writer) int {
	e, err := openEnv(ctx, "/logout", w)
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return exitUsage
	}
	defer e.Close()

	subject, ok := e.session.Subject()
	e.session.Logout("")
	if ok {
		fmt.Fprintf(w, "Signed out of %s\n", subject.Email)
	} else {
		fmt.Fprintln(w, "Not signed in.")
	}
	return exitOK
}

// runWhoami prints the signed-in subject and returns exit code
func runWhoami(ctx context.Context, w io.Writer) int {
	e, err := openEnv(ctx, "/whoami", w)
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return exitUsage
	}
	defer e.Close()

	if whoamiOffline {
		subject, ok := e.session.Subject()
		if !ok {
			fmt.Fprintln(w, "Not signed in.")
			return exitRedirect
		}
		if IsJSONOutput() {
			printJSON(w, subject)
		} else {
			fmt.Fprintln(w, formatSubjectHuman(subject))
		}
		return exitOK
	}

	profile, err := e.client.Me(ctx)
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return exitAPIError
	}
	e.session.SetSubject(profile.Subject())

	if IsJSONOutput() {
		printJSON(w, profile)
	} else {
		fmt.Fprintln(w, formatProfileHuman(profile))
	}
	return exitOK
}

func formatSubjectHuman(s models.Subject) string {
	return strings.Join([]string{
		styles.Field("ID", s.ID),
		styles.Field("Email", s.Email),
		styles.Field("Role", styles.RoleBadge(s.Role)),
	}, "\n")
}

func formatProfileHuman(p *models.Profile) string {
	lines := []string{formatSubjectHuman(p.Subject())}
	if p.Name != "" {
		lines = append(lines, styles.Field("Name", p.Name))
	}
	if p.Phone != "" {
		lines = append(lines, styles.Field("Phone", p.Phone))
	}
	return strings.Join(lines, "\n")
}

// readPassword reads one line from r
func readPassword(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	pw := strings.TrimRight(line, "\r\n")
	if pw == "" {
		return "", errors.New("empty password on stdin")
	}
	return pw, nil
}

func stdinIsTerminal() bool {
	fi, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}
