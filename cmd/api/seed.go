package main

import (
	"encoding/json"

	"courier-portal/internal/core/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the demo accounts and package, then write the snapshot",
	Long: `Seeds the in-memory store exactly like POST /api/admin/seed and writes
the package snapshot to DATA_DIR. Running it twice changes nothing.`,
	RunE: runSeed,
}

func init() {
	rootCmd.AddCommand(seedCmd)
}

func runSeed(cmd *cobra.Command, _ []string) error {
	cfg := setup()
	defer logger.Sync()
	l := logger.Get()

	ctx := cmd.Context()
	app := newApplication(ctx, cfg)
	defer func() {
		if err := app.close(); err != nil {
			l.Error("Failed to release resources", zap.Error(err))
		}
	}()

	result, err := app.store.SeedInMemory(ctx)
	if err != nil {
		return err
	}
	app.tracker.Persist(ctx)

	l.Info("Seed finished",
		zap.Int("users_seeded", result.UsersSeeded),
		zap.Int("packages_seeded", result.PackagesSeeded),
		zap.Bool("sql_seed_file_present", result.SQLSeedFilePresent),
	)

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}
