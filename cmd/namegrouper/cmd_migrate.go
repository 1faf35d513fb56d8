package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"namegrouper/internal/store"
)

var (
	migrateDB    string
	migrateCheck bool
)

// migrateCmd upgrades a task database to the current schema
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Upgrade a task database to the current schema",
	Long: `Brings an older task database up to the current schema version.

A timestamped backup is written next to the database before anything is
changed. With --check the database is only inspected, never modified.

Example:
  namegrouper migrate --db data/namegrouper.db`,
	RunE: runMigrate,
}

func init() {
	migrateCmd.Flags().StringVar(&migrateDB, "db", "", "Task database path (default: from config)")
	migrateCmd.Flags().BoolVar(&migrateCheck, "check", false, "Only report whether a migration is needed")
}

func runMigrate(cmd *cobra.Command, args []string) error {
	dbPath := migrateDB
	if dbPath == "" {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		dbPath = cfg.Storage.DatabasePath
	}

	needed, fromVersion, err := store.CheckMigrationNeeded(dbPath)
	if err != nil {
		return fmt.Errorf("failed to inspect database: %w", err)
	}
	if !needed {
		fmt.Printf("Database %s is up to date (schema v%d)\n", dbPath, store.CurrentSchemaVersion)
		return nil
	}

	fmt.Printf("Database %s is at schema v%d, current is v%d\n",
		dbPath, fromVersion, store.CurrentSchemaVersion)
	if migrateCheck {
		fmt.Println("Run without --check to migrate.")
		return nil
	}

	logger.Info("Migrating task database",
		zap.String("path", dbPath),
		zap.Int("from", fromVersion),
		zap.Int("to", store.CurrentSchemaVersion))

	result, err := store.MigrateTaskDB(dbPath)
	if err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	fmt.Printf("Migrated v%d -> v%d (%d migrations, %s)\n",
		result.FromVersion, result.ToVersion, result.MigrationsRun, result.Duration)
	if result.BackupPath != "" {
		fmt.Printf("Backup: %s\n", result.BackupPath)
	}
	for _, warning := range result.Warnings {
		fmt.Printf("Warning: %s\n", warning)
	}
	return nil
}
