package handler

import (
	"errors"
	"net/http"
	"time"

	choresdomain "household-app-go/internal/domain/chores"
)

type templateResultResponse struct {
	TemplateID  string     `json:"template_id"`
	HouseholdID string     `json:"household_id"`
	Status      string     `json:"status"`
	ChoreID     *string    `json:"chore_id"`
	AssignedTo  *string    `json:"assigned_to"`
	DueDate     *time.Time `json:"due_date"`
	Error       string     `json:"error,omitempty"`
}

type batchSummaryResponse struct {
	Total   int `json:"total"`
	Created int `json:"created"`
	Skipped int `json:"skipped"`
	Failed  int `json:"failed"`
}

type BatchReportResponse struct {
	RunID   string                   `json:"run_id"`
	Status  string                   `json:"status"`
	Summary batchSummaryResponse     `json:"summary"`
	Results []templateResultResponse `json:"results"`
}

// RunRecurringChores is called by the scheduler webhook. The secret is
// checked by middleware before this runs.
func (h *Handlers) RunRecurringChores(w http.ResponseWriter, r *http.Request) {
	report, err := h.Chores.ProcessDueTemplates(r.Context(), h.now().UTC())
	if err != nil {
		if errors.Is(err, choresdomain.ErrBatchInProgress) {
			h.log.BusinessError("recurring.webhook: batch already running", err)
			writeError(w, http.StatusConflict, "batch_in_progress", "recurring batch already running")
			return
		}
		h.log.InternalError("recurring.webhook: batch failed", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
		return
	}

	status := http.StatusOK
	if report.Status == choresdomain.BatchFailed {
		status = http.StatusInternalServerError
	}
	writeJSON(w, status, ToBatchReportResponse(report))
}

// ToBatchReportResponse is shared with the CLI so both print the same shape.
func ToBatchReportResponse(report *choresdomain.BatchReport) BatchReportResponse {
	results := make([]templateResultResponse, 0, len(report.Results))
	for _, result := range report.Results {
		results = append(results, templateResultResponse{
			TemplateID:  result.TemplateID,
			HouseholdID: result.HouseholdID,
			Status:      string(result.Status),
			ChoreID:     result.ChoreID,
			AssignedTo:  result.AssignedTo,
			DueDate:     result.DueDate,
			Error:       result.Error,
		})
	}
	return BatchReportResponse{
		RunID:  report.RunID,
		Status: string(report.Status),
		Summary: batchSummaryResponse{
			Total:   report.Summary.Total,
			Created: report.Summary.Created,
			Skipped: report.Summary.Skipped,
			Failed:  report.Summary.Failed,
		},
		Results: results,
	}
}
