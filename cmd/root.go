// ABOUTME: Root command for ridectl
// ABOUTME: Handles global flags, configuration, logging and the access guard

package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/markalston/ridectl/internal/config"
	"github.com/markalston/ridectl/internal/logger"
)

// Exit codes
const (
	exitOK       = 0
	exitAPIError = 1
	exitUsage    = 2
	exitRedirect = 3
)

var (
	v          = config.New()
	cfg        *config.Config
	jsonOutput bool
)

// rootCmd is the base command
var rootCmd = &cobra.Command{
	Use:   "ridectl",
	Short: "Command-line client for the ride platform",
	Long: `ridectl signs in to the ride platform and calls its API on your behalf.

The session is shared by every ridectl process using the same store, so
signing in or out in one terminal is seen by all others.

Environment Variables:
  RIDECTL_API_URL     Backend API URL (default: http://localhost:8080)
  RIDECTL_STORE       Session store: file, redis, memory (default: file)
  RIDECTL_STORE_DIR   Directory for the file store and config.yaml
  RIDECTL_REDIS_ADDR  Redis address for the redis store
  RIDECTL_LOG_LEVEL   debug, info, warn, error (default: warn)`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := setup(); err != nil {
			return &ExitError{Code: exitUsage, Err: err}
		}
		return exitErr(checkAccess(cmd.Context(), cmd))
	},
}

// ExitError carries a process exit code out of a command
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("exit status %d", e.Code)
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

func exitErr(code int) error {
	if code == exitOK {
		return nil
	}
	return &ExitError{Code: code}
}

// ExitCode maps an Execute error to a process exit code
func ExitCode(err error) int {
	if err == nil {
		return exitOK
	}
	var ee *ExitError
	if errors.As(err, &ee) {
		return ee.Code
	}
	return exitAPIError
}

// Execute runs the root command
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.String("api-url", "", "Backend API URL (overrides RIDECTL_API_URL)")
	pf.String("config", "", "Config file (default: config.yaml in the store directory)")
	pf.String("store", "", "Session store: file, redis or memory")
	pf.String("store-dir", "", "Directory for the file session store")
	pf.String("redis-addr", "", "Redis address for the redis session store")
	pf.String("log-level", "", "Log level: debug, info, warn, error")
	pf.BoolVar(&jsonOutput, "json", false, "Output JSON instead of human-readable text")

	bindFlags(pf, map[string]string{
		config.KeyAPIURL:     "api-url",
		config.KeyConfigFile: "config",
		config.KeyStore:      "store",
		config.KeyStoreDir:   "store-dir",
		config.KeyRedisAddr:  "redis-addr",
		config.KeyLogLevel:   "log-level",
	})

	rootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return &ExitError{Code: exitUsage, Err: err}
	})
}

func bindFlags(fs *pflag.FlagSet, keys map[string]string) {
	for key, name := range keys {
		if err := v.BindPFlag(key, fs.Lookup(name)); err != nil {
			panic(fmt.Sprintf("bind flag %s: %v", name, err))
		}
	}
}

// setup loads configuration and initializes logging
func setup() error {
	if err := config.LoadDotEnv(""); err != nil {
		return err
	}
	c, err := config.Load(v)
	if err != nil {
		return err
	}
	cfg = c
	logger.Init(cfg.LogLevel, cfg.LogFormat)
	return nil
}

// IsJSONOutput returns whether JSON output is requested
func IsJSONOutput() bool {
	return jsonOutput
}
