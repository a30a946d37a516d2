package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/xtrntr/p2pdesk/internal/catalog"
	"github.com/xtrntr/p2pdesk/internal/config"
	"github.com/xtrntr/p2pdesk/internal/db"
	"github.com/xtrntr/p2pdesk/internal/logging"
)

// Seed the database with the starting traders and ads
func main() {
	var (
		configPath string
		migrations string
	)

	cmd := &cobra.Command{
		Use:           "p2pdesk-seed",
		Short:         "Apply migrations and load the starting ad catalog into postgres",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if cfg.Storage.Driver != "postgres" {
				return fmt.Errorf("seeding needs the postgres driver (set P2PDESK_STORAGE_DRIVER=postgres)")
			}
			log := logging.New(cfg.Log)
			ctx := context.Background()

			database, err := db.NewDB(ctx, cfg.Storage.PostgresURL)
			if err != nil {
				return fmt.Errorf("failed to connect to database: %w", err)
			}
			defer database.Close(ctx)

			if migrations == "" {
				migrations = cfg.Storage.Migrations
			}
			if err := database.Migrate(ctx, migrations); err != nil {
				return fmt.Errorf("failed to apply migrations: %w", err)
			}

			store := database.Catalog()
			ads, err := store.ListAds(ctx)
			if err != nil {
				return err
			}
			if len(ads) > 0 {
				log.Info().Int("ads", len(ads)).Msg("Database already has ads. No need to seed.")
				return nil
			}

			if err := catalog.Seed(ctx, store); err != nil {
				return err
			}
			log.Info().
				Int("traders", len(catalog.SeedTraders())).
				Int("ads", len(catalog.SeedAds())).
				Msg("Successfully seeded the database")
			return nil
		},
	}
	cmd.Flags().StringVar(&configPath, "config", "", "path to a YAML config file")
	cmd.Flags().StringVar(&migrations, "migrations", "", "migration file (default storage.migrations)")

	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
