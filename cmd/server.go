package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/KarmaCummunity/KC-MVP-server-sub001/internal/api"
	"github.com/KarmaCummunity/KC-MVP-server-sub001/internal/config"
	"github.com/KarmaCummunity/KC-MVP-server-sub001/internal/container"
	"github.com/KarmaCummunity/KC-MVP-server-sub001/internal/metrics"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// serverCmd represents the server command
var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the API server",
	Long: `Start the KC API server.
The server listens on the configured host and port and provides the
task management REST API.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath, _ := cmd.Flags().GetString("config")
		cfg, err := config.Load(configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		logger, err := api.NewLoggerFromConfig(&cfg.Log)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		api.SetDefaultLogger(logger)

		if cfg.Tracing.Enabled {
			if err := api.InitTracing("kc-server", cfg.Tracing.JaegerEndpoint); err != nil {
				return fmt.Errorf("failed to initialize tracing: %w", err)
			}
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := api.ShutdownTracing(ctx); err != nil {
					logger.WithError(err).Warn("tracing shutdown failed")
				}
			}()
		}

		ctr, err := container.NewContainer(cfg, logger)
		if err != nil {
			return fmt.Errorf("failed to initialize container: %w", err)
		}
		defer ctr.Close()

		collector := metrics.NewCollector(ctr.DB(), 15*time.Second)
		collector.Start()
		defer collector.Stop()

		// A file-backed config gets a watcher so the log level can be
		// adjusted without a restart.
		if configPath != "" {
			watcher := config.NewWatcher(cfg, configPath)
			watcher.OnChange(func(next *config.Config) {
				level, err := logrus.ParseLevel(next.Log.Level)
				if err != nil {
					logger.WithField("level", next.Log.Level).Warn("invalid log level in config, keeping current")
					return
				}
				api.SetLoggerLevel(level)
				logger.WithField("level", next.Log.Level).Info("log level updated")
			})
			if err := watcher.Start(); err != nil {
				logger.WithError(err).Warn("config watcher failed to start")
			} else {
				defer watcher.Stop()
			}
		}

		router := api.SetupRoutes(&api.RouterDeps{
			Config:      cfg,
			DB:          ctr.DB(),
			Cache:       ctr.Cache(),
			TaskService: ctr.TaskService(),
			UserService: ctr.UserService(),
			FeedService: ctr.FeedService(),
			Resolver:    ctr.Resolver(),
		})

		addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		srv := &http.Server{
			Addr:    addr,
			Handler: router,
		}

		go func() {
			logger.WithField("addr", addr).Info("server starting")
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.WithError(err).Fatal("failed to start server")
			}
		}()

		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit

		logger.Info("shutting down server")

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("server forced to shutdown: %w", err)
		}

		logger.Info("server exited")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)

	serverCmd.Flags().String("config", "", "Config file path (default: search in current directory, ./config, or $HOME/.kc-server)")
}
