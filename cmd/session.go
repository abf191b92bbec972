// ABOUTME: Session inspection commands for ridectl
// ABOUTME: Reports the stored session and follows changes made by other processes

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/markalston/ridectl/internal/session"
	"github.com/markalston/ridectl/internal/tui/styles"
	"github.com/markalston/ridectl/internal/tui/watchview"
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Inspect the shared session",
}

var sessionStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show session state and time to expiry",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return exitErr(runSessionStatus(cmd.Context(), cmd.OutOrStdout()))
	},
}

var sessionWatchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Follow the session until it ends",
	Long: `Follow the session as other ridectl processes sign in and out. Exits when
the session ends, either by expiry or by a sign-out elsewhere.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return exitErr(runSessionWatch(cmd.Context(), cmd.OutOrStdout()))
	},
}

func init() {
	requireAuth(sessionWatchCmd)
	sessionCmd.AddCommand(sessionStatusCmd, sessionWatchCmd)
	rootCmd.AddCommand(sessionCmd)
}

type sessionStatus struct {
	State       string `json:"state"`
	SubjectID   string `json:"subject_id,omitempty"`
	Email       string `json:"email,omitempty"`
	Role        string `json:"role,omitempty"`
	ExpiresInMS *int64 `json:"expires_in_ms,omitempty"`
	Store       string `json:"store"`
}

// runSessionStatus prints the hydrated session and returns exit code
func runSessionStatus(ctx context.Context, w io.Writer) int {
	e, err := openEnv(ctx, "/session/status", w)
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return exitUsage
	}
	defer e.Close()

	snap := e.session.Snapshot()
	status := sessionStatus{State: snap.State.String(), Store: e.cfg.Store}
	if snap.Subject != nil {
		status.SubjectID = snap.Subject.ID
		status.Email = snap.Subject.Email
		status.Role = string(snap.Subject.Role)
	}
	d, known := e.session.ExpiresIn()
	if known {
		ms := d.Milliseconds()
		status.ExpiresInMS = &ms
	}

	if IsJSONOutput() {
		printJSON(w, status)
		return exitOK
	}

	lines := []string{styles.Field("State", snap.State)}
	if snap.Subject != nil {
		lines = append(lines,
			styles.Field("Email", snap.Subject.Email),
			styles.Field("Role", styles.RoleBadge(snap.Subject.Role)),
			styles.Field("Expires in", styles.Expiry(d, known)),
		)
	}
	lines = append(lines, styles.Field("Store", e.cfg.Store))
	fmt.Fprintln(w, strings.Join(lines, "\n"))
	return exitOK
}

// runSessionWatch follows the session until it ends or ctx is cancelled
func runSessionWatch(ctx context.Context, w io.Writer) int {
	e, err := openEnv(ctx, "/session/watch", w)
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return exitUsage
	}
	defer e.Close()

	subject, ok := e.session.Subject()
	if !ok {
		fmt.Fprintln(w, "Not signed in.")
		return exitRedirect
	}

	if interactive() && !IsJSONOutput() {
		return watchInteractive(ctx, w, e)
	}

	ended := make(chan struct{}, 1)
	e.session.OnChange(func(s session.Snapshot) {
		if s.IsAuthenticated() && s.Subject != nil {
			fmt.Fprintf(w, "Session changed: %s (%s)\n", s.Subject.Email, s.Subject.Role)
			return
		}
		select {
		case ended <- struct{}{}:
		default:
		}
	})

	fmt.Fprintf(w, "Watching session for %s. Press Ctrl+C to stop.\n", subject.Email)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return e.session.Watch(gctx, e.watcher)
	})
	g.Go(func() error {
		select {
		case <-ended:
			fmt.Fprintln(w, "Session ended.")
			cancel()
		case <-gctx.Done():
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return exitAPIError
	}
	return exitOK
}

// watchInteractive renders the live view until the session ends or the user quits
func watchInteractive(ctx context.Context, w io.Writer, e *env) int {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)

	model := watchview.New(e.session.Snapshot(), e.session.ExpiresIn)
	p := tea.NewProgram(model, tea.WithContext(gctx), tea.WithInput(stdin), tea.WithOutput(w))
	e.session.OnChange(func(s session.Snapshot) {
		p.Send(watchview.SnapshotMsg(s))
	})

	g.Go(func() error {
		return e.session.Watch(gctx, e.watcher)
	})
	g.Go(func() error {
		defer cancel()
		if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
			return err
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return exitAPIError
	}
	return exitOK
}
