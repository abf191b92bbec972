// ABOUTME: Live terminal view for a followed session
// ABOUTME: Shows the subject and a countdown to expiry until the session ends

package watchview

import (
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/markalston/ridectl/internal/session"
	"github.com/markalston/ridectl/internal/tui/styles"
)

// snapshotMsg carries a session change into the program
type snapshotMsg struct {
	snap session.Snapshot
}

// tickMsg refreshes the expiry countdown
type tickMsg time.Time

// SnapshotMsg wraps a session change for tea.Program.Send
func SnapshotMsg(s session.Snapshot) tea.Msg {
	return snapshotMsg{snap: s}
}

// ExpiryFunc reports time left on the session
type ExpiryFunc func() (time.Duration, bool)

// Model is the bubbletea model for session watch
type Model struct {
	snap      session.Snapshot
	expiresIn ExpiryFunc
	spinner   spinner.Model
	remaining time.Duration
	known     bool
	ended     bool
}

// New creates a Model for the given starting session
func New(snap session.Snapshot, expiresIn ExpiryFunc) *Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = styles.KeyStyle

	m := &Model{snap: snap, expiresIn: expiresIn, spinner: s}
	m.remaining, m.known = expiresIn()
	return m
}

// Ended reports whether the session ended while watching
func (m *Model) Ended() bool {
	return m.ended
}

// Init implements tea.Model
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, tick())
}

func tick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Update implements tea.Model
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit
		}
	case snapshotMsg:
		m.snap = msg.snap
		if !msg.snap.IsAuthenticated() {
			m.ended = true
			return m, tea.Quit
		}
		m.remaining, m.known = m.expiresIn()
	case tickMsg:
		m.remaining, m.known = m.expiresIn()
		return m, tick()
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

// View implements tea.Model
func (m *Model) View() string {
	if m.ended {
		return styles.StatusCritical.Render("Session ended.") + "\n"
	}

	var b strings.Builder
	b.WriteString(m.spinner.View() + " " + styles.Title.Render("Watching session") + "\n\n")
	if s := m.snap.Subject; s != nil {
		b.WriteString(styles.Field("Email", s.Email) + "\n")
		b.WriteString(styles.Field("Role", styles.RoleBadge(s.Role)) + "\n")
	}
	b.WriteString(styles.Field("Expires in", styles.Expiry(m.remaining, m.known)) + "\n")
	b.WriteString("\n" + styles.Subtitle.Render("q to stop watching") + "\n")
	return b.String()
}
