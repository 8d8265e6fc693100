package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/workbridge/workbridge-server/internal/app"
	"github.com/workbridge/workbridge-server/internal/config"
	"github.com/workbridge/workbridge-server/internal/log"
)

func main() {
	var (
		configPath string
		overrides  config.Config
		logLevel   string
	)

	rootCmd := &cobra.Command{
		Use:          "workbridge-server",
		Short:        "Workbridge marketplace backend with realtime chat",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger := log.New(logLevel)

			cfg, path, err := config.Load(logger, configPath)
			if err != nil {
				return err
			}
			overrides.LogLevel = logLevel
			cfg.UpdateFrom(overrides)

			// Rebuild the logger in case the config changed the level.
			logger = log.New(cfg.LogLevel)
			logger.Info().Str("config", path).Str("addr", cfg.Addr).Msg("starting workbridge server")

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			application, err := app.New(&cfg, logger)
			if err != nil {
				return err
			}

			if err := application.Run(ctx); err != nil {
				return err
			}
			logger.Info().Msg("server stopped")
			return nil
		},
	}

	rootCmd.Flags().StringVar(&configPath, "config", "", "path to config file")
	rootCmd.Flags().StringVar(&overrides.Addr, "addr", "", "HTTP listen address")
	rootCmd.Flags().StringVar(&overrides.DatabasePath, "db", "", "path to SQLite database file")
	rootCmd.Flags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
