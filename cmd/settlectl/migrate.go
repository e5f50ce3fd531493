package main

import (
	"fmt"

	"github.com/SscSPs/settlement_engine/internal/platform/config"
	"github.com/SscSPs/settlement_engine/pkg/database"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate [up|down]",
	Short: "Apply or roll back the PostgreSQL schema",
	Long: `Applies the schema migrations to PGSQL_URL. The migrations embedded in the
binary are used unless MIGRATIONS_DIR points at a directory of SQL files.`,
	Example: `  settlectl migrate up
  MIGRATIONS_DIR=./migrations settlectl migrate down`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{string(database.MigrateUp), string(database.MigrateDown)},
	RunE:      runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.StorageDriver != config.StorageDriverPostgres {
		return fmt.Errorf("migrations need STORAGE_DRIVER=%s, got %s", config.StorageDriverPostgres, cfg.StorageDriver)
	}

	direction := database.MigrationDirection(args[0])
	if direction != database.MigrateUp && direction != database.MigrateDown {
		return fmt.Errorf("unknown direction %q, want up or down", args[0])
	}
	return database.Migrate(cfg.DatabaseURL, cfg.MigrationsDir, direction, logger)
}
