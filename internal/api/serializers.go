// Package api exposes grouping tasks over HTTP. Requests and responses are
// JSON; validation failures come back as a map from field name to messages,
// nested for object-valued fields, so clients can attach errors to the
// offending input.
package api

import (
	"fmt"
	"strconv"
	"time"
	"unicode/utf8"

	"namegrouper/internal/store"
	"namegrouper/internal/words"
)

// Validation messages. Worded like the framework the original API clients
// were written against, so error handling keeps working across the port.
const (
	msgFieldRequired    = "This field is required."
	msgFieldBlank       = "This field may not be blank."
	msgListEmpty        = "This list may not be empty."
	msgDelimiterTooLong = "Ensure this field has no more than 1 characters."
)

// FieldErrors maps a field name to its error messages, or to nested
// FieldErrors for object-valued fields. Marshals to the error body shape
// the handlers return with 400.
type FieldErrors map[string]interface{}

// fieldError builds a single-field error body.
func fieldError(field, message string) FieldErrors {
	return FieldErrors{field: []string{message}}
}

// taskIdentity is the list/create representation: only the resource URL.
type taskIdentity struct {
	URL string `json:"url"`
}

// taskDetail is the retrieve/move representation. The submitted names are
// not echoed back; delimiter and strategy are, so a client can tell how
// the result was computed.
type taskDetail struct {
	URL           string         `json:"url"`
	WordDelimiter string         `json:"word_delimiter"`
	Strategy      string         `json:"strategy"`
	Result        words.Grouping `json:"result"`
	CreatedAt     time.Time      `json:"created_at"`
	CompletedAt   *time.Time     `json:"completed_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

func newTaskDetail(task *store.GroupingTask, url string) taskDetail {
	return taskDetail{
		URL:           url,
		WordDelimiter: task.Input.Delimiter,
		Strategy:      task.Input.Strategy,
		Result:        task.Result,
		CreatedAt:     task.CreatedAt,
		CompletedAt:   task.CompletedAt,
		UpdatedAt:     task.UpdatedAt,
	}
}

// createTaskRequest is the create payload: the grouping input nested under
// input_data.
type createTaskRequest struct {
	InputData *createTaskInput `json:"input_data"`
}

type createTaskInput struct {
	Names         []string `json:"names"`
	WordDelimiter *string  `json:"word_delimiter"`
	Strategy      *string  `json:"strategy"`
}

// validate checks the create payload and resolves defaults. On success the
// returned TaskInput is ready for the store; on failure the FieldErrors
// carry every problem found, nested under input_data.
func (r *createTaskRequest) validate(defaultDelimiter, defaultStrategy string) (store.TaskInput, FieldErrors) {
	if r.InputData == nil {
		return store.TaskInput{}, fieldError("input_data", msgFieldRequired)
	}

	in := r.InputData
	inputErrs := FieldErrors{}

	switch {
	case in.Names == nil:
		inputErrs["names"] = []string{msgFieldRequired}
	case len(in.Names) == 0:
		inputErrs["names"] = []string{msgListEmpty}
	default:
		// Blank entries are reported by list index.
		itemErrs := FieldErrors{}
		for i, name := range in.Names {
			if name == "" {
				itemErrs[strconv.Itoa(i)] = []string{msgFieldBlank}
			}
		}
		if len(itemErrs) > 0 {
			inputErrs["names"] = itemErrs
		}
	}

	delimiter := defaultDelimiter
	if in.WordDelimiter != nil {
		switch {
		case *in.WordDelimiter == "":
			inputErrs["word_delimiter"] = []string{msgFieldBlank}
		case utf8.RuneCountInString(*in.WordDelimiter) > 1:
			inputErrs["word_delimiter"] = []string{msgDelimiterTooLong}
		default:
			delimiter = *in.WordDelimiter
		}
	}

	strategy := defaultStrategy
	if in.Strategy != nil {
		valid := false
		for _, s := range words.Strategies() {
			if *in.Strategy == s {
				valid = true
				break
			}
		}
		if valid {
			strategy = *in.Strategy
		} else {
			inputErrs["strategy"] = []string{fmt.Sprintf("%q is not a valid choice.", *in.Strategy)}
		}
	}

	if len(inputErrs) > 0 {
		return store.TaskInput{}, FieldErrors{"input_data": inputErrs}
	}
	return store.TaskInput{
		Names:     in.Names,
		Delimiter: delimiter,
		Strategy:  strategy,
	}, nil
}

// moveNameRequest is the move-name payload. Pointer fields distinguish a
// missing field from a blank one.
type moveNameRequest struct {
	Name        *string `json:"name"`
	SourceGroup *string `json:"source_group"`
	TargetGroup *string `json:"target_group"`
}

func (r *moveNameRequest) validate() FieldErrors {
	errs := FieldErrors{}
	requireFilled := func(field string, value *string) {
		switch {
		case value == nil:
			errs[field] = []string{msgFieldRequired}
		case *value == "":
			errs[field] = []string{msgFieldBlank}
		}
	}
	requireFilled("name", r.Name)
	requireFilled("source_group", r.SourceGroup)
	requireFilled("target_group", r.TargetGroup)

	if len(errs) > 0 {
		return errs
	}
	return nil
}
