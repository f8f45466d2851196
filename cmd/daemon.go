// Package cmd implements the sessiond CLI commands.
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/grovetools/sessiond/cli"
	"github.com/grovetools/sessiond/internal/daemon/collector"
	"github.com/grovetools/sessiond/internal/daemon/engine"
	"github.com/grovetools/sessiond/internal/daemon/pidfile"
	"github.com/grovetools/sessiond/internal/daemon/server"
	"github.com/grovetools/sessiond/internal/daemon/store"
	"github.com/grovetools/sessiond/logging"
	"github.com/grovetools/sessiond/pkg/paths"
)

// NewDaemonCmd returns the daemon command with its subcommands.
func NewDaemonCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "daemon",
		Short: "Manage the sessiond indexing daemon",
		Long:  "The daemon keeps a live index of Claude Code sessions and serves it over a unix socket.",
	}

	cmd.AddCommand(newDaemonStartCmd())
	cmd.AddCommand(newDaemonStopCmd())
	cmd.AddCommand(newDaemonStatusCmd())

	return cmd
}

func newDaemonStartCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the daemon",
		Long:  "Start the sessiond daemon in foreground mode.",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := logging.NewLogger("sessiond")
			cfg, err := cli.LoadConfig(cmd)
			if err != nil {
				return err
			}
			pidPath := paths.PidFilePath()
			sockPath := paths.SocketPath()

			if err := pidfile.Acquire(pidPath); err != nil {
				return fmt.Errorf("failed to start: %w", err)
			}
			defer func() {
				if err := pidfile.Release(pidPath); err != nil {
					logger.Errorf("Failed to release pidfile: %v", err)
				}
			}()

			st := store.New()
			eng := engine.New(st, logger)

			scanner := collector.NewScanCollector(
				cfg.ClaudeDir,
				cfg.ScanInterval.Std(),
				logger,
			)
			eng.Register(scanner)
			eng.Register(collector.NewPointerWatcher(cfg.ClaudeDir, scanner.Nudge, logger))

			srv := server.New(cfg, cfg.ClaudeDir, logger)
			srv.SetEngine(eng)
			srv.SetRunningConfig(&server.RunningConfig{
				ClaudeDir:    cfg.ClaudeDir,
				ScanInterval: cfg.ScanInterval.Std(),
				ActiveWindow: cfg.ActiveWindow.Std(),
				StartedAt:    time.Now(),
			})

			ctx, cancel := context.WithCancel(context.Background())
			stop := make(chan os.Signal, 1)
			signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

			go func() {
				<-stop
				logger.Info("Received stop signal")
				cancel()

				shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer shutdownCancel()

				if err := srv.Shutdown(shutdownCtx); err != nil {
					logger.Errorf("Server shutdown error: %v", err)
				}

				_ = pidfile.Release(pidPath)
				os.Exit(0)
			}()

			go eng.Start(ctx)

			logger.WithField("pid", os.Getpid()).Info("Starting daemon")
			if err := srv.ListenAndServe(sockPath); err != nil {
				return fmt.Errorf("server error: %w", err)
			}
			return nil
		},
	}
}

func newDaemonStopCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop the running daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			pidPath := paths.PidFilePath()

			running, pid, err := pidfile.IsRunning(pidPath)
			if err != nil {
				return fmt.Errorf("error checking status: %w", err)
			}
			if !running {
				fmt.Println("Daemon is not running")
				return nil
			}

			process, err := os.FindProcess(pid)
			if err != nil {
				return fmt.Errorf("failed to find process %d: %w", pid, err)
			}
			if err := process.Signal(syscall.SIGTERM); err != nil {
				return fmt.Errorf("failed to send stop signal: %w", err)
			}

			fmt.Printf("Sent SIGTERM to process %d\n", pid)
			return nil
		},
	}
}

func newDaemonStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check daemon status",
		RunE: func(cmd *cobra.Command, args []string) error {
			pidPath := paths.PidFilePath()
			running, pid, err := pidfile.IsRunning(pidPath)
			if err != nil {
				return fmt.Errorf("error: %w", err)
			}

			if running {
				fmt.Printf("Running (PID: %d)\nSocket: %s\n", pid, paths.SocketPath())
			} else {
				fmt.Println("Stopped")
				os.Exit(1)
			}
			return nil
		},
	}
}
