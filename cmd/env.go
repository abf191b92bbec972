// ABOUTME: Per-invocation wiring of store, session and API client
// ABOUTME: Also provides the terminal navigator that reports session redirects

package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"sync"

	"github.com/redis/go-redis/v9"

	"github.com/markalston/ridectl/internal/client"
	"github.com/markalston/ridectl/internal/config"
	"github.com/markalston/ridectl/internal/session"
	"github.com/markalston/ridectl/internal/store"
)

// memoryKV is shared by every env in the process so that an in-memory
// session outlives the command that created it
var (
	memoryMu sync.Mutex
	memoryKV *store.MemoryKV
)

func processMemoryKV() *store.MemoryKV {
	memoryMu.Lock()
	defer memoryMu.Unlock()
	if memoryKV == nil {
		memoryKV = store.NewMemoryKV()
	}
	return memoryKV
}

// env bundles what a command needs to talk to the backend
type env struct {
	cfg     *config.Config
	kv      store.KV
	watcher store.Watcher
	session *session.Manager
	client  *client.Client
	nav     *terminalNavigator
	closers []func() error
}

// openEnv opens the configured store, hydrates the session and builds a
// client whose requests carry the session credential
func openEnv(ctx context.Context, location string, w io.Writer) (*env, error) {
	if cfg == nil {
		return nil, errors.New("configuration not loaded")
	}
	l := slog.Default()

	e := &env{cfg: cfg}
	if err := e.openStore(ctx); err != nil {
		return nil, err
	}

	e.nav = newTerminalNavigator(w, cfg, location)
	adapter := store.NewAdapter(e.kv, store.WithLogger(l))
	e.session = session.New(adapter,
		session.WithNavigator(e.nav),
		session.WithLogger(l),
		session.WithPaths(cfg.SignInPath, cfg.HomePath),
		session.WithStoreTimeout(cfg.RequestTimeout),
	)
	e.closers = append(e.closers, func() error {
		e.session.Close()
		return nil
	})

	e.client = client.New(cfg.APIURL,
		client.WithTimeout(cfg.RequestTimeout),
		client.WithRateLimit(cfg.RateLimit, cfg.RateBurst),
		client.WithLogger(l),
		client.WithAuthenticator(e.session),
	)
	return e, nil
}

func (e *env) openStore(ctx context.Context) error {
	switch e.cfg.Store {
	case config.StoreRedis:
		rdb := redis.NewClient(&redis.Options{
			Addr:     e.cfg.RedisAddr,
			Password: e.cfg.RedisPassword,
			DB:       e.cfg.RedisDB,
		})
		pingCtx, cancel := context.WithTimeout(ctx, e.cfg.RequestTimeout)
		defer cancel()
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			rdb.Close()
			return fmt.Errorf("cannot connect to redis at %s: %w", e.cfg.RedisAddr, err)
		}
		kv := store.NewRedisKV(rdb, e.cfg.RedisPrefix)
		e.kv, e.watcher = kv, kv
		e.closers = append(e.closers, rdb.Close)
	case config.StoreMemory:
		kv := processMemoryKV()
		e.kv, e.watcher = kv, kv
	default:
		kv := store.NewFileKV(e.cfg.StoreDir)
		e.kv, e.watcher = kv, kv
	}
	return nil
}

// Close releases the store connection and stops the expiry timer
func (e *env) Close() {
	for i := len(e.closers) - 1; i >= 0; i-- {
		if err := e.closers[i](); err != nil {
			slog.Debug("Close failed", "error", err)
		}
	}
}

// terminalNavigator turns session redirects into messages on the terminal
type terminalNavigator struct {
	w                io.Writer
	signInPath       string
	unauthorizedPath string

	mu      sync.Mutex
	loc     string
	visited []string
}

func newTerminalNavigator(w io.Writer, c *config.Config, location string) *terminalNavigator {
	return &terminalNavigator{
		w:                w,
		signInPath:       c.SignInPath,
		unauthorizedPath: c.UnauthorizedPath,
		loc:              location,
	}
}

func (n *terminalNavigator) Location() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.loc
}

func (n *terminalNavigator) Navigate(to string) {
	n.mu.Lock()
	n.loc = to
	n.visited = append(n.visited, to)
	n.mu.Unlock()

	if msg := n.message(to); msg != "" {
		fmt.Fprintln(n.w, msg)
	}
}

// Visited returns every location navigated to
func (n *terminalNavigator) Visited() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.visited...)
}

func (n *terminalNavigator) message(to string) string {
	u, err := url.Parse(to)
	if err != nil {
		return ""
	}
	switch u.Path {
	case n.signInPath:
		switch u.Query().Get("reason") {
		case session.ReasonTokenExpired:
			return "Session expired. Run `ridectl login` to sign in again."
		case session.ReasonUnauthorized:
			return "Session was rejected by the backend. Run `ridectl login` to sign in again."
		default:
			return "Not signed in. Run `ridectl login` to sign in."
		}
	case n.unauthorizedPath:
		return "You are not allowed to run this command."
	default:
		return ""
	}
}

// printJSON writes v as indented JSON
func printJSON(w io.Writer, v any) {
	data, _ := json.MarshalIndent(v, "", "  ")
	fmt.Fprintln(w, string(data))
}
