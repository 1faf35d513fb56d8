package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"namegrouper/internal/logging"
	"namegrouper/internal/words"
)

// taskColumns is the column list every task query selects, in the order
// scanTask expects.
const taskColumns = `id, input_names, delimiter, strategy, result, version, created_at, completed_at, updated_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

// scanTask decodes one grouping_tasks row. Works for both sql.Row and
// sql.Rows as long as the query selected taskColumns.
func scanTask(row rowScanner) (*GroupingTask, error) {
	var (
		task        GroupingTask
		namesJSON   string
		resultJSON  string
		completedAt sql.NullTime
	)
	err := row.Scan(
		&task.ID,
		&namesJSON,
		&task.Input.Delimiter,
		&task.Input.Strategy,
		&resultJSON,
		&task.Version,
		&task.CreatedAt,
		&completedAt,
		&task.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(namesJSON), &task.Input.Names); err != nil {
		return nil, fmt.Errorf("failed to decode input names: %w", err)
	}
	if err := json.Unmarshal([]byte(resultJSON), &task.Result); err != nil {
		return nil, fmt.Errorf("failed to decode result: %w", err)
	}
	if completedAt.Valid {
		t := completedAt.Time
		task.CompletedAt = &t
	}
	return &task, nil
}

// fetchTask reads a single task row. Callers must hold s.mu.
func (s *TaskStore) fetchTask(ctx context.Context, id string) (*GroupingTask, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+taskColumns+" FROM grouping_tasks WHERE id = ?", id)
	task, err := scanTask(row)
	if err == sql.ErrNoRows {
		logging.StoreDebug("Task not found: %s", id)
		return nil, fmt.Errorf("%w: %s", ErrTaskNotFound, id)
	}
	if err != nil {
		logging.Get(logging.CategoryStore).Error("Failed to read task %s: %v", id, err)
		return nil, fmt.Errorf("failed to read task: %w", err)
	}
	return task, nil
}

// CreateTask stores a new grouping task and returns it. The result is
// left empty; ProcessTask fills it in.
func (s *TaskStore) CreateTask(ctx context.Context, input TaskInput) (*GroupingTask, error) {
	timer := logging.StartTimer(logging.CategoryStore, "CreateTask")
	defer timer.Stop()

	s.mu.Lock()
	defer s.mu.Unlock()

	if input.Delimiter == "" {
		input.Delimiter = words.DefaultDelimiter
	}
	if input.Strategy == "" {
		input.Strategy = words.StrategyPrefix
	}

	namesJSON, err := json.Marshal(input.Names)
	if err != nil {
		return nil, fmt.Errorf("failed to encode input names: %w", err)
	}

	now := time.Now().UTC()
	task := &GroupingTask{
		ID:        uuid.New().String(),
		Input:     input,
		Result:    words.NewGrouping(),
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}

	logging.StoreDebug("Creating grouping task %s (%d names, delimiter=%q, strategy=%s)",
		task.ID, len(input.Names), input.Delimiter, input.Strategy)

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO grouping_tasks (id, input_names, delimiter, strategy, result, version, created_at, updated_at)
		VALUES (?, ?, ?, ?, '{}', 1, ?, ?)`,
		task.ID, string(namesJSON), input.Delimiter, input.Strategy, now, now,
	)
	if err != nil {
		logging.Get(logging.CategoryStore).Error("Failed to insert grouping task: %v", err)
		return nil, fmt.Errorf("failed to insert grouping task: %w", err)
	}

	logging.Store("Created grouping task %s", task.ID)
	return task, nil
}

// GetTask returns the task with the given ID, or ErrTaskNotFound.
func (s *TaskStore) GetTask(ctx context.Context, id string) (*GroupingTask, error) {
	timer := logging.StartTimer(logging.CategoryStore, "GetTask")
	defer timer.Stop()

	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.fetchTask(ctx, id)
}

// ListTasks returns all stored tasks, newest first.
func (s *TaskStore) ListTasks(ctx context.Context) ([]*GroupingTask, error) {
	timer := logging.StartTimer(logging.CategoryStore, "ListTasks")
	defer timer.Stop()

	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT "+taskColumns+" FROM grouping_tasks ORDER BY created_at DESC")
	if err != nil {
		logging.Get(logging.CategoryStore).Error("Failed to list tasks: %v", err)
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	defer rows.Close()

	tasks := make([]*GroupingTask, 0)
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			logging.Get(logging.CategoryStore).Warn("Skipping unreadable task row: %v", err)
			continue
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate tasks: %w", err)
	}

	logging.StoreDebug("Listed %d grouping tasks", len(tasks))
	return tasks, nil
}

// CompleteTask records the computed grouping for a pending task. A task
// is only completed once: if the result was already written the stored
// task is returned unchanged, so repeated processing stays idempotent.
func (s *TaskStore) CompleteTask(ctx context.Context, id string, result words.Grouping) (*GroupingTask, error) {
	timer := logging.StartTimer(logging.CategoryStore, "CompleteTask")
	defer timer.Stop()

	s.mu.Lock()
	defer s.mu.Unlock()

	resultJSON, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("failed to encode result: %w", err)
	}

	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx, `
		UPDATE grouping_tasks
		SET result = ?, completed_at = ?, updated_at = ?, version = version + 1
		WHERE id = ? AND result = '{}' AND completed_at IS NULL`,
		string(resultJSON), now, now, id,
	)
	if err != nil {
		logging.Get(logging.CategoryStore).Error("Failed to complete task %s: %v", id, err)
		return nil, fmt.Errorf("failed to complete task: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to read rows affected: %w", err)
	}
	if affected == 0 {
		// Either the task is gone or it was already processed. The
		// re-read distinguishes the two.
		task, err := s.fetchTask(ctx, id)
		if err != nil {
			return nil, err
		}
		logging.StoreDebug("Task %s already completed, leaving result untouched", id)
		return task, nil
	}

	logging.Store("Completed grouping task %s (%d groups)", id, result.Len())
	return s.fetchTask(ctx, id)
}

// UpdateResult replaces the stored result of a task, guarded by an
// optimistic version check. Returns ErrVersionConflict when another
// writer got there first; the caller reloads and retries.
func (s *TaskStore) UpdateResult(ctx context.Context, id string, result words.Grouping, expectedVersion int64) (*GroupingTask, error) {
	timer := logging.StartTimer(logging.CategoryStore, "UpdateResult")
	defer timer.Stop()

	s.mu.Lock()
	defer s.mu.Unlock()

	resultJSON, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("failed to encode result: %w", err)
	}

	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx, `
		UPDATE grouping_tasks
		SET result = ?, updated_at = ?, version = version + 1
		WHERE id = ? AND version = ?`,
		string(resultJSON), now, id, expectedVersion,
	)
	if err != nil {
		logging.Get(logging.CategoryStore).Error("Failed to update result for task %s: %v", id, err)
		return nil, fmt.Errorf("failed to update result: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to read rows affected: %w", err)
	}
	if affected == 0 {
		if _, err := s.fetchTask(ctx, id); err != nil {
			return nil, err
		}
		logging.Get(logging.CategoryStore).Warn("Version conflict updating task %s (expected v%d)", id, expectedVersion)
		return nil, fmt.Errorf("%w: task %s at expected version %d", ErrVersionConflict, id, expectedVersion)
	}

	logging.StoreDebug("Updated result for task %s (v%d -> v%d)", id, expectedVersion, expectedVersion+1)
	return s.fetchTask(ctx, id)
}

// DeleteTask removes a task, or returns ErrTaskNotFound.
func (s *TaskStore) DeleteTask(ctx context.Context, id string) error {
	timer := logging.StartTimer(logging.CategoryStore, "DeleteTask")
	defer timer.Stop()

	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, "DELETE FROM grouping_tasks WHERE id = ?", id)
	if err != nil {
		logging.Get(logging.CategoryStore).Error("Failed to delete task %s: %v", id, err)
		return fmt.Errorf("failed to delete task: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s", ErrTaskNotFound, id)
	}

	logging.Store("Deleted grouping task %s", id)
	logging.TaskDeleted(id)
	return nil
}

// CountTasks returns the number of stored tasks.
func (s *TaskStore) CountTasks(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM grouping_tasks").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count tasks: %w", err)
	}
	return count, nil
}
