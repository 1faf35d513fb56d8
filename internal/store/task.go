package store

import (
	"time"

	"namegrouper/internal/words"
)

// TaskInput is the grouping request as submitted by the caller.
// Delimiter and Strategy are filled with defaults at creation time, so
// rows read back always carry the values that were actually used.
type TaskInput struct {
	Names     []string `json:"names"`
	Delimiter string   `json:"word_delimiter"`
	Strategy  string   `json:"strategy"`
}

// GroupingTask is a stored grouping request together with its computed
// result. A freshly created task has an empty Result and a nil
// CompletedAt; both are set exactly once when the task is processed.
type GroupingTask struct {
	ID          string         `json:"id"`
	Input       TaskInput      `json:"input_data"`
	Result      words.Grouping `json:"result"`
	Version     int64          `json:"version"`
	CreatedAt   time.Time      `json:"created_at"`
	CompletedAt *time.Time     `json:"completed_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// Completed reports whether the task has been processed.
func (t *GroupingTask) Completed() bool {
	return t.CompletedAt != nil
}

// Pending reports whether the task is still waiting for processing.
func (t *GroupingTask) Pending() bool {
	return t.CompletedAt == nil
}
