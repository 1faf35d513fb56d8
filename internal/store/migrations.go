package store

import (
	"database/sql"
	"fmt"
	"io"
	"os"
	"time"

	"namegrouper/internal/logging"
)

// Schema versions:
// v1: Basic grouping_tasks table (input, result, timestamps)
// v2: Added strategy column for selectable grouping algorithms
// v3: Added version column for optimistic concurrency control
const CurrentSchemaVersion = 3

// MigrationResult holds the result of a migration operation.
type MigrationResult struct {
	FromVersion   int
	ToVersion     int
	MigrationsRun int
	BackupPath    string
	Duration      time.Duration
	Warnings      []string
}

// Migration defines a database schema migration.
type Migration struct {
	Table  string
	Column string
	Def    string
}

// pendingMigrations lists all schema migrations to apply.
// These handle cases where tables exist but are missing newer columns.
var pendingMigrations = []Migration{
	// Grouping strategy column (added for trie-based grouping)
	{"grouping_tasks", "strategy", "TEXT NOT NULL DEFAULT 'prefix'"},
	// Optimistic locking column (added for concurrent move requests)
	{"grouping_tasks", "version", "INTEGER NOT NULL DEFAULT 1"},
}

// RunMigrations applies schema migrations for existing databases.
func RunMigrations(db *sql.DB) error {
	timer := logging.StartTimer(logging.CategoryStore, "RunMigrations")
	defer timer.Stop()

	logging.Store("Running schema migrations (%d pending)", len(pendingMigrations))

	appliedCount := 0
	skippedCount := 0

	for _, m := range pendingMigrations {
		logging.StoreDebug("Checking migration: %s.%s", m.Table, m.Column)

		// If the table doesn't exist in this DB, skip quietly.
		if !tableExists(db, m.Table) {
			logging.StoreDebug("Table missing, skipping migration: %s.%s", m.Table, m.Column)
			skippedCount++
			continue
		}

		if !columnExists(db, m.Table, m.Column) {
			query := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", m.Table, m.Column, m.Def)
			logging.StoreDebug("Executing migration: %s", query)

			if _, err := db.Exec(query); err != nil {
				logging.Get(logging.CategoryStore).Warn("Migration failed (may already exist): %s.%s: %v", m.Table, m.Column, err)
				// Don't fail on migration errors - column may already exist in a different form
				skippedCount++
			} else {
				logging.Store("Migration applied: added %s.%s", m.Table, m.Column)
				appliedCount++
			}
		} else {
			logging.StoreDebug("Column already exists, skipping: %s.%s", m.Table, m.Column)
			skippedCount++
		}
	}

	logging.Store("Schema migrations complete: applied=%d, skipped=%d", appliedCount, skippedCount)
	return nil
}

// columnExists checks if a column exists in a table using PRAGMA table_info.
func columnExists(db *sql.DB, table, column string) bool {
	query := fmt.Sprintf("PRAGMA table_info(%s)", table)
	rows, err := db.Query(query)
	if err != nil {
		logging.StoreDebug("PRAGMA table_info(%s) failed: %v", table, err)
		return false
	}
	defer rows.Close()

	for rows.Next() {
		var cid int
		var name, ctype string
		var notnull, pk int
		var dfltValue interface{}
		if err := rows.Scan(&cid, &name, &ctype, &notnull, &dfltValue, &pk); err != nil {
			continue
		}
		if name == column {
			logging.StoreDebug("Column exists: %s.%s (type=%s)", table, column, ctype)
			return true
		}
	}
	logging.StoreDebug("Column does not exist: %s.%s", table, column)
	return false
}

// tableExists checks if a table exists in the database.
func tableExists(db *sql.DB, table string) bool {
	var count int
	query := "SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?"
	if err := db.QueryRow(query, table).Scan(&count); err != nil {
		logging.StoreDebug("Table existence check failed for %s: %v", table, err)
		return false
	}
	exists := count > 0
	logging.StoreDebug("Table %s exists: %v", table, exists)
	return exists
}

// GetSchemaVersion returns the current schema version of a database.
// If no version table exists, it infers the version from table structure.
func GetSchemaVersion(db *sql.DB) int {
	logging.StoreDebug("Detecting schema version")

	// First, check if schema_versions table exists
	if tableExists(db, "schema_versions") {
		var version int
		query := "SELECT version FROM schema_versions ORDER BY applied_at DESC LIMIT 1"
		if err := db.QueryRow(query).Scan(&version); err == nil {
			logging.StoreDebug("Schema version from schema_versions table: %d", version)
			return version
		}
		logging.StoreDebug("schema_versions table exists but no version record found")
	}

	// Infer version from table structure
	version := inferSchemaVersion(db)
	logging.StoreDebug("Inferred schema version: %d", version)
	return version
}

// inferSchemaVersion determines schema version by examining table structure.
func inferSchemaVersion(db *sql.DB) int {
	logging.StoreDebug("Inferring schema version from table structure")

	// Check if grouping_tasks table exists
	if !tableExists(db, "grouping_tasks") {
		logging.StoreDebug("No grouping_tasks table - version 0")
		return 0
	}

	// Check for v3: version column
	if columnExists(db, "grouping_tasks", "version") {
		logging.StoreDebug("Found version column - version 3")
		return 3
	}

	// Check for v2: strategy column
	if columnExists(db, "grouping_tasks", "strategy") {
		logging.StoreDebug("Found strategy column - version 2")
		return 2
	}

	// v1: Basic table
	logging.StoreDebug("Basic table structure - version 1")
	return 1
}

// SetSchemaVersion records a new schema version in the database.
func SetSchemaVersion(db *sql.DB, version int) error {
	logging.StoreDebug("Setting schema version to %d", version)

	createTable := `
		CREATE TABLE IF NOT EXISTS schema_versions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			version INTEGER NOT NULL,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			description TEXT
		)
	`
	if _, err := db.Exec(createTable); err != nil {
		logging.Get(logging.CategoryStore).Error("Failed to create schema_versions table: %v", err)
		return fmt.Errorf("failed to create schema_versions table: %w", err)
	}
	logging.StoreDebug("schema_versions table ensured")

	desc := fmt.Sprintf("Migrated to schema version %d", version)
	_, err := db.Exec(
		"INSERT INTO schema_versions (version, description) VALUES (?, ?)",
		version, desc,
	)
	if err != nil {
		logging.Get(logging.CategoryStore).Error("Failed to record schema version %d: %v", version, err)
		return fmt.Errorf("failed to record schema version: %w", err)
	}

	logging.Store("Schema version set to %d", version)
	return nil
}

// MigrateV1ToV2 adds the strategy column for selectable grouping algorithms.
func MigrateV1ToV2(db *sql.DB) error {
	timer := logging.StartTimer(logging.CategoryStore, "MigrateV1ToV2")
	defer timer.Stop()

	logging.Store("Migrating v1 -> v2: Adding strategy column")

	if columnExists(db, "grouping_tasks", "strategy") {
		logging.Store("Strategy column already exists, skipping")
		return nil
	}

	query := "ALTER TABLE grouping_tasks ADD COLUMN strategy TEXT NOT NULL DEFAULT 'prefix'"
	logging.StoreDebug("Executing: %s", query)
	if _, err := db.Exec(query); err != nil {
		logging.Get(logging.CategoryStore).Error("Failed to add strategy column: %v", err)
		return fmt.Errorf("failed to add strategy column: %w", err)
	}

	logging.Store("Added strategy column to grouping_tasks")
	return nil
}

// MigrateV2ToV3 adds the version column for optimistic concurrency control.
func MigrateV2ToV3(db *sql.DB) error {
	timer := logging.StartTimer(logging.CategoryStore, "MigrateV2ToV3")
	defer timer.Stop()

	logging.Store("Migrating v2 -> v3: Adding version column")

	if columnExists(db, "grouping_tasks", "version") {
		logging.Store("Version column already exists, skipping")
		return nil
	}

	query := "ALTER TABLE grouping_tasks ADD COLUMN version INTEGER NOT NULL DEFAULT 1"
	logging.StoreDebug("Executing: %s", query)
	if _, err := db.Exec(query); err != nil {
		logging.Get(logging.CategoryStore).Error("Failed to add version column: %v", err)
		return fmt.Errorf("failed to add version column: %w", err)
	}

	logging.Store("Added version column to grouping_tasks")
	return nil
}

// CreateBackup creates a backup copy of the database file.
func CreateBackup(dbPath string) (string, error) {
	timer := logging.StartTimer(logging.CategoryStore, "CreateBackup")
	defer timer.Stop()

	timestamp := time.Now().Format("20060102_150405")
	backupPath := dbPath + fmt.Sprintf(".backup_%s", timestamp)

	logging.Store("Creating database backup: %s -> %s", dbPath, backupPath)

	src, err := os.Open(dbPath)
	if err != nil {
		logging.Get(logging.CategoryStore).Error("Failed to open source database for backup: %v", err)
		return "", fmt.Errorf("failed to open source database: %w", err)
	}
	defer src.Close()

	// Get source file size for logging
	srcInfo, _ := src.Stat()
	if srcInfo != nil {
		logging.StoreDebug("Source database size: %d bytes", srcInfo.Size())
	}

	dst, err := os.Create(backupPath)
	if err != nil {
		logging.Get(logging.CategoryStore).Error("Failed to create backup file: %v", err)
		return "", fmt.Errorf("failed to create backup file: %w", err)
	}
	defer dst.Close()

	bytesCopied, err := io.Copy(dst, src)
	if err != nil {
		logging.Get(logging.CategoryStore).Error("Failed to copy database to backup: %v", err)
		return "", fmt.Errorf("failed to copy database to backup: %w", err)
	}

	if err := dst.Sync(); err != nil {
		logging.Get(logging.CategoryStore).Error("Failed to sync backup to disk: %v", err)
		return "", fmt.Errorf("failed to sync backup to disk: %w", err)
	}

	logging.Store("Database backup created: %s (%d bytes)", backupPath, bytesCopied)
	return backupPath, nil
}

// RestoreBackup restores a database from a backup file.
func RestoreBackup(dbPath, backupPath string) error {
	timer := logging.StartTimer(logging.CategoryStore, "RestoreBackup")
	defer timer.Stop()

	logging.Store("Restoring database from backup: %s -> %s", backupPath, dbPath)

	src, err := os.Open(backupPath)
	if err != nil {
		logging.Get(logging.CategoryStore).Error("Failed to open backup file for restore: %v", err)
		return fmt.Errorf("failed to open backup file: %w", err)
	}
	defer src.Close()

	dst, err := os.Create(dbPath)
	if err != nil {
		logging.Get(logging.CategoryStore).Error("Failed to create database file during restore: %v", err)
		return fmt.Errorf("failed to create database file: %w", err)
	}
	defer dst.Close()

	bytesCopied, err := io.Copy(dst, src)
	if err != nil {
		logging.Get(logging.CategoryStore).Error("Failed to restore from backup: %v", err)
		return fmt.Errorf("failed to restore from backup: %w", err)
	}

	if err := dst.Sync(); err != nil {
		logging.Get(logging.CategoryStore).Error("Failed to sync restored database: %v", err)
		return fmt.Errorf("failed to sync restored database: %w", err)
	}

	logging.Store("Database restored from backup (%d bytes)", bytesCopied)
	return nil
}

// RunAllMigrations runs all necessary migrations to bring the database to the target version.
func RunAllMigrations(dbPath string, targetVersion int) (*MigrationResult, error) {
	timer := logging.StartTimer(logging.CategoryStore, "RunAllMigrations")
	defer timer.Stop()

	startTime := time.Now()
	result := &MigrationResult{
		Warnings: make([]string, 0),
	}

	logging.Store("Starting migration process for database: %s", dbPath)

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		logging.Get(logging.CategoryStore).Error("Failed to open database for migration: %v", err)
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	currentVersion := GetSchemaVersion(db)
	result.FromVersion = currentVersion
	result.ToVersion = targetVersion

	logging.Store("Database at version %d, target version %d", currentVersion, targetVersion)

	if currentVersion >= targetVersion {
		logging.Store("Database already at version %d, no migration needed", currentVersion)
		result.Duration = time.Since(startTime)
		return result, nil
	}

	// Create backup before migration
	logging.StoreDebug("Creating pre-migration backup")
	backupPath, err := CreateBackup(dbPath)
	if err != nil {
		logging.Get(logging.CategoryStore).Error("Failed to create backup before migration: %v", err)
		return nil, fmt.Errorf("failed to create backup: %w", err)
	}
	result.BackupPath = backupPath

	migrationSuccess := false
	defer func() {
		if !migrationSuccess {
			logging.Get(logging.CategoryStore).Warn("Migration failed, restoring from backup")
			if restoreErr := RestoreBackup(dbPath, backupPath); restoreErr != nil {
				logging.Get(logging.CategoryStore).Error("Failed to restore backup after migration failure: %v", restoreErr)
			} else {
				logging.Store("Database restored from backup after migration failure")
			}
		}
	}()

	// Run migrations sequentially
	for v := currentVersion; v < targetVersion; v++ {
		nextVersion := v + 1
		logging.Store("Running migration v%d -> v%d", v, nextVersion)

		var migrationErr error
		switch nextVersion {
		case 2:
			migrationErr = MigrateV1ToV2(db)
		case 3:
			migrationErr = MigrateV2ToV3(db)
		default:
			migrationErr = fmt.Errorf("unknown migration: v%d -> v%d", v, nextVersion)
		}

		if migrationErr != nil {
			logging.Get(logging.CategoryStore).Error("Migration v%d -> v%d failed: %v", v, nextVersion, migrationErr)
			return nil, fmt.Errorf("migration v%d -> v%d failed: %w", v, nextVersion, migrationErr)
		}

		logging.StoreDebug("Migration v%d -> v%d completed successfully", v, nextVersion)
		result.MigrationsRun++
	}

	migrationSuccess = true

	// Record schema version
	if err := SetSchemaVersion(db, targetVersion); err != nil {
		logging.Get(logging.CategoryStore).Warn("Failed to record schema version: %v", err)
		result.Warnings = append(result.Warnings, fmt.Sprintf("Failed to record schema version: %v", err))
	}

	result.Duration = time.Since(startTime)
	logging.Store("Migration complete: v%d -> v%d in %v (migrations=%d)",
		currentVersion, targetVersion, result.Duration, result.MigrationsRun)

	return result, nil
}

// MigrateTaskDB is the main entry point for migrating a task database.
func MigrateTaskDB(dbPath string) (*MigrationResult, error) {
	logging.Store("MigrateTaskDB called for: %s (target=v%d)", dbPath, CurrentSchemaVersion)
	return RunAllMigrations(dbPath, CurrentSchemaVersion)
}

// CheckMigrationNeeded returns true if the database needs migration.
func CheckMigrationNeeded(dbPath string) (bool, int, error) {
	logging.StoreDebug("Checking if migration needed for: %s", dbPath)

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		logging.StoreDebug("Database does not exist: %s", dbPath)
		return false, 0, nil
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		logging.Get(logging.CategoryStore).Error("Failed to open database for migration check: %v", err)
		return false, 0, fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	currentVersion := GetSchemaVersion(db)
	needed := currentVersion < CurrentSchemaVersion
	logging.StoreDebug("Migration check: current=v%d, target=v%d, needed=%v", currentVersion, CurrentSchemaVersion, needed)
	return needed, currentVersion, nil
}
