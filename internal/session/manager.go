// ABOUTME: Session lifecycle: hydration, login/logout, expiry timer and cross-process sync
// ABOUTME: Owns the in-memory session; the store adapter owns the durable copy

package session

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/markalston/ridectl/internal/models"
	"github.com/markalston/ridectl/internal/store"
	"github.com/markalston/ridectl/internal/token"
)

// Logout reasons carried to the sign-in location
const (
	ReasonTokenExpired = "token_expired"
	ReasonUnauthorized = "unauthorized"
)

// State is the lifecycle state of a Manager
type State int

const (
	Hydrating State = iota
	Anonymous
	Authenticated
)

func (s State) String() string {
	switch s {
	case Hydrating:
		return "hydrating"
	case Anonymous:
		return "anonymous"
	case Authenticated:
		return "authenticated"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Navigator performs the location change that follows a logout
type Navigator interface {
	Location() string
	Navigate(to string)
}

// Snapshot is a point-in-time copy of the session
type Snapshot struct {
	State      State
	Credential string
	Subject    *models.Subject
}

// IsAuthenticated reports whether the snapshot holds a credential
func (s Snapshot) IsAuthenticated() bool {
	return s.Credential != ""
}

// Manager holds the current session. All methods are safe for concurrent
// use and never return errors caused by storage or navigation failures.
type Manager struct {
	store      *store.Adapter
	nav        Navigator
	clock      Clock
	logger     *slog.Logger
	signInPath string
	homePath   string
	ioTimeout  time.Duration

	mu         sync.Mutex
	state      State
	credential string
	subject    *models.Subject
	timer      Timer
	timerGen   uint64
	observers  []func(Snapshot)
}

// Option configures a Manager
type Option func(*Manager)

// WithNavigator sets the navigator used after logout
func WithNavigator(n Navigator) Option {
	return func(m *Manager) {
		m.nav = n
	}
}

// WithClock replaces the wall clock
func WithClock(c Clock) Option {
	return func(m *Manager) {
		m.clock = c
	}
}

// WithLogger sets the manager logger
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = l
	}
}

// WithPaths sets the sign-in and home locations used by logout navigation
func WithPaths(signIn, home string) Option {
	return func(m *Manager) {
		if signIn != "" {
			m.signInPath = signIn
		}
		if home != "" {
			m.homePath = home
		}
	}
}

// WithStoreTimeout bounds each storage operation
func WithStoreTimeout(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.ioTimeout = d
		}
	}
}

// New creates a Manager and synchronously hydrates it from the store
func New(adapter *store.Adapter, opts ...Option) *Manager {
	m := &Manager{
		store:      adapter,
		clock:      realClock{},
		logger:     slog.Default(),
		signInPath: "/login",
		homePath:   "/",
		ioTimeout:  5 * time.Second,
		state:      Hydrating,
	}
	for _, opt := range opts {
		opt(m)
	}

	if m.hydrate() {
		m.Logout(ReasonTokenExpired)
	}
	return m
}

// hydrate loads the persisted session. Returns true when the restored
// credential has already expired.
func (m *Manager) hydrate() bool {
	ctx, cancel := m.ioContext()
	defer cancel()

	m.mu.Lock()
	defer m.mu.Unlock()

	cred, credOK := m.store.LoadCredential(ctx)
	subject, subjectOK := m.store.LoadSubject(ctx)
	if !credOK || !subjectOK {
		m.state = Anonymous
		m.logger.Debug("Session hydrated", "state", m.state)
		return false
	}

	m.credential = cred
	m.subject = subject
	m.state = Authenticated
	m.logger.Debug("Session hydrated", "state", m.state, "subject", subject.ID)
	return m.scheduleLocked()
}

// Login stores a freshly authenticated session and schedules its expiry
func (m *Manager) Login(subject models.Subject, credential string) {
	if credential == "" {
		m.logger.Warn("Login ignored: empty credential", "subject", subject.ID)
		return
	}

	ctx, cancel := m.ioContext()
	defer cancel()

	m.mu.Lock()
	s := subject
	m.credential = credential
	m.subject = &s
	m.state = Authenticated
	m.store.Save(ctx, credential, &s)
	expireNow := m.scheduleLocked()
	snap := m.snapshotLocked()
	m.mu.Unlock()

	m.logger.Info("Signed in", "subject", s.ID, "role", s.Role)
	m.notify(snap)

	if expireNow {
		m.Logout(ReasonTokenExpired)
	}
}

// Logout clears the session in memory and in the store, cancels the expiry
// timer and navigates to the sign-in location. Navigation only happens when
// a session was actually ended.
func (m *Manager) Logout(reason string) {
	m.logout(reason, nil)
}

// logout ends the session. A non-nil gen makes the call conditional on the
// expiry timer generation still being current.
func (m *Manager) logout(reason string, gen *uint64) {
	ctx, cancel := m.ioContext()
	defer cancel()

	m.mu.Lock()
	if gen != nil && *gen != m.timerGen {
		m.mu.Unlock()
		return
	}
	wasAuthenticated := m.credential != ""
	m.clearLocked()
	m.store.Clear(ctx)
	snap := m.snapshotLocked()
	m.mu.Unlock()

	if !wasAuthenticated {
		return
	}

	m.logger.Info("Signed out", "reason", reason)
	m.notify(snap)
	m.navigateAfterLogout(reason)
}

// UpdateSubject replaces the subject with fn(previous) and persists only the
// subject. Returns false when there is no session to update.
func (m *Manager) UpdateSubject(fn func(models.Subject) models.Subject) bool {
	if fn == nil {
		return false
	}
	ctx, cancel := m.ioContext()
	defer cancel()

	m.mu.Lock()
	if m.credential == "" || m.subject == nil {
		m.mu.Unlock()
		return false
	}
	next := fn(*m.subject)
	m.subject = &next
	m.store.SaveSubject(ctx, &next)
	snap := m.snapshotLocked()
	m.mu.Unlock()

	m.notify(snap)
	return true
}

// SetSubject replaces the subject outright
func (m *Manager) SetSubject(subject models.Subject) bool {
	return m.UpdateSubject(func(models.Subject) models.Subject { return subject })
}

// HasRole reports whether the current subject holds any of roles
func (m *Manager) HasRole(roles ...models.Role) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.subject == nil {
		return false
	}
	for _, r := range roles {
		if m.subject.Role == r {
			return true
		}
	}
	return false
}

// IsAuthenticated reports whether a credential is held
func (m *Manager) IsAuthenticated() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.credential != ""
}

// State returns the lifecycle state
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Subject returns a copy of the current subject
func (m *Manager) Subject() (models.Subject, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.subject == nil {
		return models.Subject{}, false
	}
	return *m.subject, true
}

// Snapshot returns a copy of the whole session
func (m *Manager) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked()
}

// ExpiresIn returns the time left on the in-memory credential, if known
func (m *Manager) ExpiresIn() (time.Duration, bool) {
	m.mu.Lock()
	cred := m.credential
	m.mu.Unlock()
	if cred == "" {
		return 0, false
	}
	return token.UntilExpiry(cred, m.clock.Now())
}

// OnChange registers fn to be called after every session change
func (m *Manager) OnChange(fn func(Snapshot)) {
	m.mu.Lock()
	m.observers = append(m.observers, fn)
	m.mu.Unlock()
}

// Credential returns the persisted credential. It reads the store rather
// than memory so a credential rotated by another process is used at once.
func (m *Manager) Credential() string {
	ctx, cancel := m.ioContext()
	defer cancel()
	cred, _ := m.store.LoadCredential(ctx)
	return cred
}

// HandleUnauthorized ends the session after the backend rejected the credential
func (m *Manager) HandleUnauthorized(err error) {
	m.logger.Debug("Backend rejected credential", "error", err)
	m.Logout(ReasonUnauthorized)
}

// Watch follows changes made to the store by other processes until ctx is
// done. Sync never navigates; it only converges memory and the timer to the store.
func (m *Manager) Watch(ctx context.Context, w store.Watcher) error {
	changes, err := w.Watch(ctx)
	if err != nil {
		return fmt.Errorf("failed to watch session store: %w", err)
	}
	// catch changes made between hydration and subscription
	m.Resync()

	for {
		select {
		case <-ctx.Done():
			return nil
		case c, ok := <-changes:
			if !ok {
				return nil
			}
			if store.IsSessionKey(c.Key) {
				m.Resync()
			}
		}
	}
}

// Resync re-reads both keys and adopts what the store holds. A failed or
// corrupted read ends the in-memory session.
func (m *Manager) Resync() {
	ctx, cancel := m.ioContext()
	defer cancel()

	m.mu.Lock()
	before := m.snapshotLocked()
	expireNow := false

	snap, err := m.store.Load(ctx)
	switch {
	case err != nil:
		m.logger.Warn("Session sync failed, signing out locally", "error", err)
		m.clearLocked()
	case snap.Complete():
		m.credential = snap.Credential
		m.subject = snap.Subject
		m.state = Authenticated
		expireNow = m.scheduleLocked()
	default:
		m.clearLocked()
	}
	after := m.snapshotLocked()
	m.mu.Unlock()

	if !sameSnapshot(before, after) {
		m.logger.Debug("Session synced from store", "state", after.State)
		m.notify(after)
	}
	if expireNow {
		m.Logout(ReasonTokenExpired)
	}
}

// Close cancels the expiry timer
func (m *Manager) Close() {
	m.mu.Lock()
	m.cancelTimerLocked()
	m.mu.Unlock()
}

// scheduleLocked replaces any outstanding expiry timer. Returns true when the
// credential is already expired and must be ended immediately.
func (m *Manager) scheduleLocked() bool {
	m.cancelTimerLocked()
	if m.credential == "" {
		return false
	}
	d, ok := token.UntilExpiry(m.credential, m.clock.Now())
	if !ok {
		return false
	}
	if d <= 0 {
		return true
	}
	gen := m.timerGen
	m.timer = m.clock.AfterFunc(d, func() {
		m.logout(ReasonTokenExpired, &gen)
	})
	m.logger.Debug("Session expiry scheduled", "in", d)
	return false
}

// cancelTimerLocked stops the timer and invalidates any callback already in flight
func (m *Manager) cancelTimerLocked() {
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
	m.timerGen++
}

func (m *Manager) clearLocked() {
	m.cancelTimerLocked()
	m.credential = ""
	m.subject = nil
	m.state = Anonymous
}

func (m *Manager) snapshotLocked() Snapshot {
	snap := Snapshot{State: m.state, Credential: m.credential}
	if m.subject != nil {
		s := *m.subject
		snap.Subject = &s
	}
	return snap
}

func (m *Manager) notify(snap Snapshot) {
	m.mu.Lock()
	observers := append([]func(Snapshot){}, m.observers...)
	m.mu.Unlock()
	for _, fn := range observers {
		fn(snap)
	}
}

func (m *Manager) navigateAfterLogout(reason string) {
	if m.nav == nil {
		return
	}
	if locationPath(m.nav.Location()) == m.signInPath {
		m.nav.Navigate(m.homePath)
		return
	}
	target := m.signInPath
	if reason != "" {
		target += "?" + url.Values{"reason": {reason}}.Encode()
	}
	m.nav.Navigate(target)
}

func (m *Manager) ioContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), m.ioTimeout)
}

func locationPath(loc string) string {
	if u, err := url.Parse(loc); err == nil {
		return u.Path
	}
	if i := strings.IndexAny(loc, "?#"); i >= 0 {
		return loc[:i]
	}
	return loc
}

func sameSnapshot(a, b Snapshot) bool {
	if a.State != b.State || a.Credential != b.Credential {
		return false
	}
	if a.Subject == nil || b.Subject == nil {
		return a.Subject == b.Subject
	}
	return *a.Subject == *b.Subject
}
