package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"market-structure-lab/internal/storage/migrations"
	"market-structure-lab/internal/storage/postgres"
)

var migrateFlags struct {
	skipPostgres   bool
	skipClickhouse bool
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply embedded Postgres and ClickHouse migrations",
	Long: `Apply the embedded schema migrations. Statements are idempotent, so
running migrate twice is safe. Databases without a configured DSN are skipped.`,
	RunE: runMigrate,
}

func init() {
	migrateCmd.Flags().BoolVar(&migrateFlags.skipPostgres, "skip-postgres", false, "Skip Postgres migrations")
	migrateCmd.Flags().BoolVar(&migrateFlags.skipClickhouse, "skip-clickhouse", false, "Skip ClickHouse migrations")
}

func runMigrate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg := state.cfg
	applied := 0

	if !migrateFlags.skipPostgres && cfg.Postgres.DSN != "" {
		pool, err := postgres.NewPool(ctx, cfg.Postgres.DSN)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer pool.Close()
		files, err := migrations.RunPostgresMigrations(ctx, pool, state.logger)
		if err != nil {
			return err
		}
		applied += len(files)
	}

	if !migrateFlags.skipClickhouse && cfg.ClickHouse.DSN != "" {
		conn, files, err := migrations.RunClickhouseMigrations(ctx, cfg.ClickHouse.DSN, state.logger)
		if err != nil {
			return err
		}
		_ = conn.Close()
		applied += len(files)
	}

	if applied == 0 {
		state.logger.Warn().Msg("no database configured, nothing migrated")
		return nil
	}
	state.logger.Info().Int("files", applied).Msg("migrations applied")
	return nil
}
