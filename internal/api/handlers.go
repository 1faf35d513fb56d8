package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"

	"namegrouper/internal/logging"
	"namegrouper/internal/store"
	"namegrouper/internal/words"
)

// writeJSON writes body as a JSON response with the given status.
func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logging.APIError("Failed to encode response: %v", err)
	}
}

// writeDetail writes a single-message error body: {"detail": "..."}.
func writeDetail(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"detail": message})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleCreateTask stores a new grouping task, computes its result in the
// request (processing is synchronous in this service) and answers 201 with
// the resource URL.
func (s *Server) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	reqID := RequestID(r.Context())
	rlog := logging.WithRequestID(logging.CategoryAPI, reqID)

	var req createTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		rlog.Warn("Create rejected: malformed body: %v", err)
		writeDetail(w, http.StatusBadRequest, "JSON parse error.")
		return
	}

	input, fieldErrs := req.validate(s.cfg.Grouping.DefaultDelimiter, s.cfg.Grouping.DefaultStrategy)
	if fieldErrs != nil {
		rlog.Warn("Create rejected: invalid input_data")
		writeJSON(w, http.StatusBadRequest, fieldErrs)
		return
	}

	task, err := s.store.CreateTask(r.Context(), input)
	if err != nil {
		rlog.Error("Failed to create task: %v", err)
		writeDetail(w, http.StatusInternalServerError, "Internal server error.")
		return
	}
	logging.AuditWithRequest(reqID).TaskCreated(task.ID, len(input.Names), input.Delimiter, input.Strategy)

	// A task queue would take over here if processing ever became slow
	// enough to matter.
	if _, err := s.store.ProcessTask(r.Context(), task.ID); err != nil {
		rlog.Error("Failed to process task %s: %v", task.ID, err)
		writeDetail(w, http.StatusInternalServerError, "Internal server error.")
		return
	}

	rlog.Info("Created grouping task %s (%d names)", task.ID, len(input.Names))
	writeJSON(w, http.StatusCreated, taskIdentity{URL: s.taskURL(r, task.ID)})
}

func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request) {
	tasks, err := s.store.ListTasks(r.Context())
	if err != nil {
		logging.APIError("Failed to list tasks: %v", err)
		writeDetail(w, http.StatusInternalServerError, "Internal server error.")
		return
	}

	identities := make([]taskIdentity, 0, len(tasks))
	for _, task := range tasks {
		identities = append(identities, taskIdentity{URL: s.taskURL(r, task.ID)})
	}
	writeJSON(w, http.StatusOK, identities)
}

func (s *Server) handleGetTask(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	task, err := s.store.GetTask(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrTaskNotFound) {
			writeDetail(w, http.StatusNotFound, "Not found.")
			return
		}
		logging.APIError("Failed to load task %s: %v", id, err)
		writeDetail(w, http.StatusInternalServerError, "Internal server error.")
		return
	}

	writeJSON(w, http.StatusOK, newTaskDetail(task, s.taskURL(r, task.ID)))
}

// handleMoveName moves one name between two groups of a task's result. The
// update is guarded by the task version; losing the race against a
// concurrent move reloads and retries before giving up with 409.
func (s *Server) handleMoveName(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	reqID := RequestID(r.Context())
	rlog := logging.WithRequestID(logging.CategoryAPI, reqID)

	var req moveNameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		rlog.Warn("Move rejected: malformed body: %v", err)
		writeDetail(w, http.StatusBadRequest, "JSON parse error.")
		return
	}
	if fieldErrs := req.validate(); fieldErrs != nil {
		rlog.Warn("Move rejected: missing fields")
		writeJSON(w, http.StatusBadRequest, fieldErrs)
		return
	}
	name, source, target := *req.Name, *req.SourceGroup, *req.TargetGroup

	for attempt := 0; ; attempt++ {
		task, err := s.store.GetTask(r.Context(), id)
		if err != nil {
			if errors.Is(err, store.ErrTaskNotFound) {
				writeDetail(w, http.StatusNotFound, "Not found.")
				return
			}
			rlog.Error("Failed to load task %s: %v", id, err)
			writeDetail(w, http.StatusInternalServerError, "Internal server error.")
			return
		}

		moved, err := words.Move(task.Result, name, source, target)
		if err != nil {
			s.rejectMove(w, reqID, task.ID, name, source, err)
			return
		}

		updated, err := s.store.UpdateResult(r.Context(), task.ID, moved, task.Version)
		if err != nil {
			if errors.Is(err, store.ErrVersionConflict) && attempt < s.cfg.Grouping.MoveRetries {
				rlog.Warn("Move lost version race on task %s, retrying", task.ID)
				continue
			}
			switch {
			case errors.Is(err, store.ErrVersionConflict):
				writeDetail(w, http.StatusConflict,
					"The task was modified concurrently. Fetch the latest state and retry.")
			case errors.Is(err, store.ErrTaskNotFound):
				writeDetail(w, http.StatusNotFound, "Not found.")
			default:
				rlog.Error("Failed to store move on task %s: %v", task.ID, err)
				writeDetail(w, http.StatusInternalServerError, "Internal server error.")
			}
			return
		}

		rlog.Info("Moved %q from %q to %q on task %s", name, source, target, task.ID)
		logging.AuditWithRequest(reqID).NameMoved(task.ID, name, source, target)
		writeJSON(w, http.StatusOK, newTaskDetail(updated, s.taskURL(r, updated.ID)))
		return
	}
}

// rejectMove maps grouping edit failures to the 400 bodies clients key on:
// the message lands under the field that caused it.
func (s *Server) rejectMove(w http.ResponseWriter, reqID, taskID, name, source string, err error) {
	audit := logging.AuditWithRequest(reqID)
	switch {
	case errors.Is(err, words.ErrGroupNotFound):
		msg := fmt.Sprintf("Group not found: %s.", source)
		audit.MoveRejected(taskID, name, source, msg)
		writeJSON(w, http.StatusBadRequest, fieldError("source_group", msg))
	case errors.Is(err, words.ErrNameNotFound):
		msg := fmt.Sprintf("'%s' not found in group '%s'.", name, source)
		audit.MoveRejected(taskID, name, source, msg)
		writeJSON(w, http.StatusBadRequest, fieldError("name", msg))
	default:
		logging.APIError("Unexpected move failure on task %s: %v", taskID, err)
		writeDetail(w, http.StatusInternalServerError, "Internal server error.")
	}
}
