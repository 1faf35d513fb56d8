// Package store persists grouping tasks in SQLite.
// A task records the submitted names together with the grouping computed
// for them, and survives restarts so results stay addressable by ID.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "github.com/mattn/go-sqlite3"

	"namegrouper/internal/logging"
)

// TaskStore is the SQLite-backed persistence layer for grouping tasks.
// The connection pool is pinned to a single connection and all writes go
// through the mutex, so concurrent API requests serialize cleanly.
type TaskStore struct {
	db     *sql.DB
	mu     sync.RWMutex
	dbPath string
}

// NewTaskStore initializes the SQLite database at the given path.
func NewTaskStore(path string) (*TaskStore, error) {
	timer := logging.StartTimer(logging.CategoryStore, "NewTaskStore")
	defer timer.Stop()

	logging.Store("Initializing TaskStore at path: %s", path)

	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		logging.Get(logging.CategoryStore).Error("Failed to create directory %s: %v", dir, err)
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}
	logging.StoreDebug("Created directory: %s", dir)

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		logging.Get(logging.CategoryStore).Error("Failed to open database at %s: %v", path, err)
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		logging.StoreDebug("Failed to set sqlite busy_timeout: %v", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		logging.StoreDebug("Failed to set sqlite journal_mode=WAL: %v", err)
	}
	// WAL journaling already covers crash recovery at NORMAL.
	if _, err := db.Exec("PRAGMA synchronous = NORMAL"); err != nil {
		logging.StoreDebug("Failed to set sqlite synchronous=NORMAL: %v", err)
	}
	logging.StoreDebug("Opened SQLite database connection")

	store := &TaskStore{db: db, dbPath: path}
	if err := store.initialize(); err != nil {
		logging.Get(logging.CategoryStore).Error("Failed to initialize schema: %v", err)
		db.Close()
		return nil, err
	}
	logging.StoreDebug("Database schema initialized successfully")

	logging.Store("TaskStore initialization complete")
	return store, nil
}

// initialize creates the required tables.
func (s *TaskStore) initialize() error {
	tasksTable := `
	CREATE TABLE IF NOT EXISTS grouping_tasks (
		id TEXT PRIMARY KEY,
		input_names TEXT NOT NULL,
		delimiter TEXT NOT NULL DEFAULT '_',
		strategy TEXT NOT NULL DEFAULT 'prefix',
		result TEXT NOT NULL DEFAULT '{}',
		version INTEGER NOT NULL DEFAULT 1,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		completed_at DATETIME,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_tasks_created ON grouping_tasks(created_at);
	CREATE INDEX IF NOT EXISTS idx_tasks_completed ON grouping_tasks(completed_at);
	`

	if _, err := s.db.Exec(tasksTable); err != nil {
		return fmt.Errorf("failed to create grouping_tasks table: %w", err)
	}

	// Run schema migrations for databases created before the strategy and
	// version columns existed.
	if err := RunMigrations(s.db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

// Close closes the database connection.
func (s *TaskStore) Close() error {
	logging.Store("Closing TaskStore database connection")
	return s.db.Close()
}

// GetDB returns the underlying SQL database connection.
func (s *TaskStore) GetDB() *sql.DB {
	return s.db
}

// DBPath returns the path the store was opened with.
func (s *TaskStore) DBPath() string {
	return s.dbPath
}
