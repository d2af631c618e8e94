// Command wshd is the terminal-as-a-service daemon: it hosts named PTY
// sessions behind Unix domain sockets until told to create, attach to, or
// kill them (spec.md §1).
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dcosson/wshd/internal/config"
	"github.com/dcosson/wshd/internal/daemon"
	"github.com/dcosson/wshd/internal/socketdir"
	"github.com/dcosson/wshd/internal/wlog"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "wshd",
		Short: "Run the wshd terminal-session daemon",
		Long: `wshd hosts any number of named PTY sessions behind Unix domain
sockets so other processes (wsh, or any client speaking the wire protocol)
can create, attach to, and control them.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			level := slog.LevelInfo
			if verbose {
				level = slog.LevelDebug
			}
			log := wlog.New(os.Stderr, level)
			wlog.Default = log

			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			d, err := daemon.New(cfg, log)
			if err != nil {
				return err
			}

			ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()
			log.Info("wshd starting", "socket_dir", socketdir.Dir())
			return d.Serve(ctx)
		},
	}
	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	return cmd
}
