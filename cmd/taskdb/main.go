// taskdb is a read-only inspector for namegrouper task databases. It uses
// the pure-Go SQLite driver, so it builds without cgo and can poke at a db
// file on machines the server does not run on.
//
// Usage:
//
//	taskdb [db-path]            summarize the database
//	taskdb [db-path] [task-id]  dump one task
package main

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"

	_ "modernc.org/sqlite"
)

const defaultDBPath = "data/namegrouper.db"

func main() {
	dbPath := defaultDBPath
	if len(os.Args) > 1 {
		dbPath = os.Args[1]
	}
	if _, err := os.Stat(dbPath); err != nil {
		fmt.Printf("Cannot read %s: %v\n", dbPath, err)
		os.Exit(1)
	}

	if len(os.Args) > 2 {
		showTask(dbPath, os.Args[2])
		return
	}
	summarize(dbPath, 10)
}

func summarize(dbPath string, limit int) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		fmt.Printf("Error opening DB: %v\n", err)
		return
	}
	defer db.Close()

	// Tables present
	rows, err := db.Query("SELECT name FROM sqlite_master WHERE type='table'")
	if err != nil {
		fmt.Printf("Error querying tables: %v\n", err)
		return
	}
	var tables []string
	for rows.Next() {
		var name string
		rows.Scan(&name)
		tables = append(tables, name)
	}
	rows.Close()
	fmt.Printf("Tables: %v\n", tables)

	// Schema of the task table
	schemaRows, err := db.Query("PRAGMA table_info(grouping_tasks)")
	if err != nil {
		fmt.Printf("No grouping_tasks table\n")
		return
	}
	fmt.Printf("\nSchema:\n")
	for schemaRows.Next() {
		var cid int
		var name, typ string
		var notNull, pk int
		var dflt interface{}
		schemaRows.Scan(&cid, &name, &typ, &notNull, &dflt, &pk)
		fmt.Printf("  - %s (%s)\n", name, typ)
	}
	schemaRows.Close()

	var schemaVersion int
	db.QueryRow("SELECT version FROM schema_version LIMIT 1").Scan(&schemaVersion)
	fmt.Printf("\nSchema version: %d\n", schemaVersion)

	// Counts
	var total, pending int
	db.QueryRow("SELECT COUNT(*) FROM grouping_tasks").Scan(&total)
	db.QueryRow("SELECT COUNT(*) FROM grouping_tasks WHERE result = '{}' AND completed_at IS NULL").Scan(&pending)
	fmt.Printf("Tasks: %d total, %d pending, %d completed\n", total, pending, total-pending)

	// Newest tasks
	taskRows, err := db.Query(`
		SELECT id, delimiter, strategy, version, created_at, completed_at, result
		FROM grouping_tasks ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		fmt.Printf("Error querying tasks: %v\n", err)
		return
	}
	defer taskRows.Close()

	fmt.Printf("\nNewest tasks:\n")
	fmt.Println("─────────────────────────────────────────────────────────────")
	i := 0
	for taskRows.Next() {
		var id, delimiter, strategy, createdAt, result string
		var version int64
		var completedAt sql.NullString
		if err := taskRows.Scan(&id, &delimiter, &strategy, &version, &createdAt, &completedAt, &result); err != nil {
			fmt.Printf("Scan error: %v\n", err)
			continue
		}
		i++
		state := "completed"
		if !completedAt.Valid {
			state = "pending"
		}
		if len(result) > 80 {
			result = result[:80] + "..."
		}
		fmt.Printf("%d. %s  delimiter=%q strategy=%s v%d %s\n   %s\n",
			i, id, delimiter, strategy, version, state, result)
	}
	if i == 0 {
		fmt.Println("(no tasks)")
	}
}

func showTask(dbPath, taskID string) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		fmt.Printf("Error opening DB: %v\n", err)
		return
	}
	defer db.Close()

	var inputNames, delimiter, strategy, result, createdAt, updatedAt string
	var version int64
	var completedAt sql.NullString
	err = db.QueryRow(`
		SELECT input_names, delimiter, strategy, result, version, created_at, completed_at, updated_at
		FROM grouping_tasks WHERE id = ?`, taskID).
		Scan(&inputNames, &delimiter, &strategy, &result, &version, &createdAt, &completedAt, &updatedAt)
	if err == sql.ErrNoRows {
		fmt.Printf("No task with id %s\n", taskID)
		os.Exit(1)
	}
	if err != nil {
		fmt.Printf("Error loading task: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Task %s\n", taskID)
	fmt.Printf("  delimiter:    %q\n", delimiter)
	fmt.Printf("  strategy:     %s\n", strategy)
	fmt.Printf("  version:      %d\n", version)
	fmt.Printf("  created_at:   %s\n", createdAt)
	if completedAt.Valid {
		fmt.Printf("  completed_at: %s\n", completedAt.String)
	} else {
		fmt.Printf("  completed_at: (pending)\n")
	}
	fmt.Printf("  updated_at:   %s\n", updatedAt)

	fmt.Printf("\nInput names:\n%s\n", indentJSON(inputNames))
	fmt.Printf("\nResult:\n%s\n", indentJSON(result))
}

func indentJSON(raw string) string {
	var buf bytes.Buffer
	if err := json.Indent(&buf, []byte(raw), "  ", "  "); err != nil {
		return "  " + raw
	}
	return "  " + buf.String()
}
