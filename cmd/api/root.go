package main

import (
	"log"

	"courier-portal/internal/core/config"
	"courier-portal/internal/core/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "courier-portal",
	Short: "Courier portal API",
	Long: `Serves package tracking, the operations admin API and realtime
event streams. Without a subcommand the API server is started.`,
	SilenceUsage: true,
	RunE:         runServe,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", ".", "directory holding the .env file")
}

// setup loads the configuration and initializes the global logger.
func setup() *config.AppConfig {
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := logger.Init(cfg.Environment, cfg.LogLevel); err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}

	logger.Get().Info("Application starting",
		zap.String("environment", cfg.Environment),
		zap.String("log_level", cfg.LogLevel),
	)
	return cfg
}
