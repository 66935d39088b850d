package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nodepoll/nodepoll"
	"github.com/nodepoll/nodepoll/config"
	"github.com/spf13/cobra"
)

const (
	shutdownTimeout = 10 * time.Second
)

// newLogger creates a JSON logger for CLI use.
func newLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
}

// serveCmd starts the nodepoll resource manager.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the resource manager",
	Long: `Start the nodepoll resource manager.

The manager will:
  - Load configuration from the specified YAML file
  - Start pulling resource reports from all configured node agents
  - Serve the cluster resource view and membership API on the configured port

The manager runs until interrupted (Ctrl+C) or receives SIGTERM.

Example:
  nodepoll serve -c config.yaml
  nodepoll serve --config /etc/nodepoll/config.yaml`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringP("config", "c", "", "path to config file (required)")
	_ = serveCmd.MarkFlagRequired("config")
}

func runServe(cmd *cobra.Command, args []string) error {
	logger := newLogger()

	configFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger.Info("config loaded",
		"nodes", len(cfg.Nodes),
	)
	logger.Info("starting manager",
		"port", cfg.Port,
		"poll_period", cfg.PollPeriod.Duration().String(),
		"max_concurrent_pulls", cfg.MaxConcurrentPulls,
	)

	// convert config to SDK nodes
	nodes, err := config.BuildNodes(cfg)
	if err != nil {
		return fmt.Errorf("failed to build nodes: %w", err)
	}

	// create the Poller with options
	opts := []nodepoll.Option{
		nodepoll.WithNodes(nodes...),
		nodepoll.WithPort(cfg.Port),
		nodepoll.WithPollPeriod(cfg.PollPeriod.Duration()),
		nodepoll.WithTickInterval(cfg.TickInterval.Duration()),
		nodepoll.WithMaxConcurrentPulls(cfg.MaxConcurrentPulls),
		nodepoll.WithRequestTimeout(cfg.RequestTimeout.Duration()),
		nodepoll.WithLogger(logger),
	}

	p, err := nodepoll.New(opts...)
	if err != nil {
		return fmt.Errorf("failed to create poller: %w", err)
	}

	// set up context with signal handling - cancel on SIGINT/SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// start the manager - blocks until context cancelled
	errChan := make(chan error, 1)
	go func() {
		errChan <- p.Start(ctx)
	}()

	// wait for the manager to finish
	select {
	case err := <-errChan:
		if err != nil {
			return fmt.Errorf("manager error: %w", err)
		}
		logger.Info("shutdown complete")
		return nil

	case <-ctx.Done():
		// signal received, wait for graceful shutdown with timeout
		select {
		case err := <-errChan:
			if err != nil {
				return fmt.Errorf("manager error: %w", err)
			}
			logger.Info("shutdown complete")
			return nil
		case <-time.After(shutdownTimeout):
			logger.Warn("shutdown timed out",
				"timeout", shutdownTimeout.String(),
				"action", "forcing exit",
			)
			return nil
		}
	}
}
