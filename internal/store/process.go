package store

import (
	"context"
	"fmt"
	"time"

	"namegrouper/internal/logging"
	"namegrouper/internal/words"
)

// ProcessTask computes the grouping for a pending task and stores the
// result. Processing runs synchronously; a task queue would slot in here
// if creation volume ever demanded one. Already-processed tasks are
// returned as stored, so duplicate deliveries are harmless.
func (s *TaskStore) ProcessTask(ctx context.Context, id string) (*GroupingTask, error) {
	timer := logging.StartTimer(logging.CategoryStore, "ProcessTask")
	defer timer.Stop()

	start := time.Now()

	task, err := s.GetTask(ctx, id)
	if err != nil {
		return nil, err
	}
	if task.Completed() {
		logging.StoreDebug("Task %s already processed, skipping", id)
		return task, nil
	}

	grouping, err := words.GroupWithStrategy(task.Input.Names, task.Input.Delimiter, task.Input.Strategy)
	if err != nil {
		logging.Get(logging.CategoryStore).Error("Failed to group names for task %s: %v", id, err)
		return nil, fmt.Errorf("failed to group names: %w", err)
	}

	completed, err := s.CompleteTask(ctx, id, grouping)
	if err != nil {
		return nil, err
	}

	logging.Store("Processed grouping task %s: %d names into %d groups",
		id, len(task.Input.Names), completed.Result.Len())
	logging.TaskProcessed(id, completed.Result.Len(), time.Since(start).Milliseconds())
	return completed, nil
}

// ProcessPendingTasks processes every stored task that has no result
// yet. Run at startup so tasks created just before an unclean shutdown
// still get their groupings.
func (s *TaskStore) ProcessPendingTasks(ctx context.Context) (int, error) {
	timer := logging.StartTimer(logging.CategoryStore, "ProcessPendingTasks")
	defer timer.Stop()

	s.mu.RLock()
	rows, err := s.db.QueryContext(ctx,
		"SELECT id FROM grouping_tasks WHERE result = '{}' AND completed_at IS NULL ORDER BY created_at")
	if err != nil {
		s.mu.RUnlock()
		return 0, fmt.Errorf("failed to query pending tasks: %w", err)
	}

	ids := make([]string, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			continue
		}
		ids = append(ids, id)
	}
	err = rows.Err()
	rows.Close()
	s.mu.RUnlock()
	if err != nil {
		return 0, fmt.Errorf("failed to iterate pending tasks: %w", err)
	}

	if len(ids) == 0 {
		logging.StoreDebug("No pending tasks to process")
		return 0, nil
	}

	logging.Store("Processing %d pending grouping tasks", len(ids))

	processed := 0
	for _, id := range ids {
		if ctx.Err() != nil {
			return processed, ctx.Err()
		}
		if _, err := s.ProcessTask(ctx, id); err != nil {
			logging.Get(logging.CategoryStore).Warn("Failed to process pending task %s: %v", id, err)
			continue
		}
		processed++
	}

	logging.Store("Pending task sweep complete: processed=%d, failed=%d", processed, len(ids)-processed)
	return processed, nil
}
