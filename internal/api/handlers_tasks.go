package api

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/vkrause09/web-to-do/internal/core"
)

type taskResponse struct {
	Name      string `json:"name"`
	Priority  string `json:"priority"`
	DateAdded string `json:"date_added"`
}

type completedTaskResponse struct {
	Name        string `json:"name"`
	Priority    string `json:"priority"`
	CompletedAt string `json:"completed_at"`
	Comment     string `json:"comment"`
	Status      string `json:"status"`
	Flagged     bool   `json:"flagged"`
}

type listingResponse struct {
	All       []taskResponse          `json:"all"`
	Completed []completedTaskResponse `json:"completed"`
}

type completeTaskRequest struct {
	Name    string `json:"name"`
	Comment string `json:"comment"`
	Status  string `json:"status"`
}

func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request) {
	listing, report := s.metrics.TaskListing(r.Context())
	s.logReport("list tasks", report)

	resp := listingResponse{
		All:       make([]taskResponse, 0, len(listing.All)),
		Completed: make([]completedTaskResponse, 0, len(listing.Completed)),
	}
	for _, t := range listing.All {
		resp.All = append(resp.All, taskResponse{
			Name:      t.Name,
			Priority:  t.Priority,
			DateAdded: t.DateAdded.Format(core.DateLayout),
		})
	}
	for _, t := range listing.Completed {
		resp.Completed = append(resp.Completed, completedTaskResponse{
			Name:        t.Name,
			Priority:    t.Priority,
			CompletedAt: t.CompletedAt.Format(core.DateLayout),
			Comment:     t.Comment,
			Status:      t.Status,
			Flagged:     t.Flagged,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCompleteTask(w http.ResponseWriter, r *http.Request) {
	var req completeTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid JSON payload")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "invalid_input", "name is required")
		return
	}

	outcome, err := s.lifecycle.Complete(r.Context(), req.Name, req.Comment, req.Status)
	if err != nil {
		s.logger.Error("complete task", "name", req.Name, "err", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to complete task")
		return
	}
	if outcome == core.CompleteNotFound {
		writeError(w, http.StatusNotFound, "not_found", "no open task with that name")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) logReport(op string, report *core.ScanReport) {
	if report.Err != nil {
		s.logger.Error(op+": degraded to empty result", "err", report.Err)
	}
	if skipped := report.Skipped(); skipped > 0 {
		s.logger.Warn(op+": skipped malformed rows", "skipped", skipped, "scanned", report.Scanned)
	}
}

func formatDate(t time.Time) string {
	return t.Format(core.DateLayout)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	payload := map[string]any{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
	}
	writeJSON(w, status, payload)
}
