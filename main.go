// ABOUTME: Entry point for ridectl
// ABOUTME: Command-line client for the ride platform with a shared session

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/markalston/ridectl/cmd"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := cmd.Execute(ctx)
	cancel()

	if err != nil {
		var ee *cmd.ExitError
		if !errors.As(err, &ee) || ee.Err != nil {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(cmd.ExitCode(err))
	}
}
