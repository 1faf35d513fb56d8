package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"namegrouper/internal/api"
	"namegrouper/internal/config"
	"namegrouper/internal/logging"
	"namegrouper/internal/store"
)

var (
	serveHost  string
	servePort  int
	serveDB    string
	serveWatch bool
)

// serveCmd runs the HTTP API server
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API server",
	Long: `Starts the grouping task API.

The server stores tasks in SQLite and exposes them under /api/grouping-tasks/.
Settings come from the config file; --host, --port and --db override it.

Example:
  namegrouper serve --port 8000`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveHost, "host", "", "Listen host (overrides config)")
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Listen port (overrides config)")
	serveCmd.Flags().StringVar(&serveDB, "db", "", "Task database path (overrides config)")
	serveCmd.Flags().BoolVar(&serveWatch, "watch-config", true, "Reload the log level when the config file changes")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if serveHost != "" {
		cfg.Server.Host = serveHost
	}
	if servePort != 0 {
		cfg.Server.Port = servePort
	}
	if serveDB != "" {
		cfg.Storage.DatabasePath = serveDB
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	// Category file logs per config; --verbose wins over the configured level.
	level := cfg.Logging.Level
	if verbose {
		level = "debug"
	}
	if err := logging.Configure(logging.Settings{
		Enabled:    cfg.Logging.Enabled,
		Directory:  cfg.Logging.Directory,
		Level:      level,
		Categories: cfg.Logging.Categories,
		JSONFormat: cfg.Logging.Format == "json",
	}); err != nil {
		return fmt.Errorf("failed to configure logging: %w", err)
	}
	defer logging.CloseAll()

	if cfg.Logging.Audit {
		if err := logging.InitAudit(); err != nil {
			logger.Warn("Audit log unavailable", zap.Error(err))
		}
		defer logging.CloseAudit()
	}

	logger.Info("Starting namegrouper",
		zap.String("address", cfg.Address()),
		zap.String("database", cfg.Storage.DatabasePath))
	logging.Boot("Starting namegrouper on %s (db=%s)", cfg.Address(), cfg.Storage.DatabasePath)

	taskStore, err := store.NewTaskStore(cfg.Storage.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to open task store: %w", err)
	}
	defer taskStore.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Pick up tasks a previous run left unprocessed.
	if n, err := taskStore.ProcessPendingTasks(ctx); err != nil {
		logger.Warn("Failed to process pending tasks", zap.Error(err))
	} else if n > 0 {
		logger.Info("Processed pending tasks", zap.Int("count", n))
	}

	// Watch the config file so the log level can change without a restart.
	if serveWatch {
		watcher, werr := config.NewWatcher(configPath, func(next *config.Config) {
			logging.SetLevel(next.Logging.Level)
			logger.Info("Reloaded logging settings", zap.String("level", next.Logging.Level))
		})
		if werr != nil {
			logger.Warn("Config watcher unavailable", zap.Error(werr))
		} else if werr := watcher.Start(ctx); werr != nil {
			logger.Warn("Config watcher failed to start", zap.Error(werr))
		} else {
			defer watcher.Stop()
		}
	}

	srv := api.NewServer(cfg, taskStore)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(srv.Start)
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.GetShutdownTimeout())
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	logger.Info("namegrouper ready", zap.String("address", cfg.Address()))
	if err := g.Wait(); err != nil {
		return fmt.Errorf("server error: %w", err)
	}

	logger.Info("namegrouper stopped")
	logging.Boot("namegrouper stopped")
	return nil
}
