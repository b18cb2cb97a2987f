package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	choresdomain "household-app-go/internal/domain/chores"
)

type createChoreRequest struct {
	Title       string  `json:"title"`
	Description *string `json:"description"`
	AssignedTo  *string `json:"assigned_to"`
	DueDate     *string `json:"due_date"`
}

type updateChoreRequest struct {
	Title         *string `json:"title"`
	Description   *string `json:"description"`
	AssignedTo    *string `json:"assigned_to"`
	ClearAssignee bool    `json:"clear_assignee"`
	DueDate       *string `json:"due_date"`
	ClearDueDate  bool    `json:"clear_due_date"`
}

type choreResponse struct {
	ID                  string     `json:"id"`
	Title               string     `json:"title"`
	Description         *string    `json:"description"`
	AssignedTo          *string    `json:"assigned_to"`
	DueDate             *time.Time `json:"due_date"`
	IsCompleted         bool       `json:"is_completed"`
	CompletedAt         *time.Time `json:"completed_at"`
	CompletedBy         *string    `json:"completed_by"`
	RecurringTemplateID *string    `json:"recurring_template_id"`
	CreatedBy           *string    `json:"created_by"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
}

func (h *Handlers) ListChores(w http.ResponseWriter, r *http.Request) {
	user, household, ok := h.currentHousehold(w, r, "chores.list")
	if !ok {
		return
	}

	query := r.URL.Query()
	completed, err := parseBoolParam(query.Get("completed"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid completed")
		return
	}
	limit, offset, err := parsePagination(query)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	assignedTo := strings.TrimSpace(query.Get("assigned_to"))
	if assignedTo == "me" {
		assignedTo = user.ID
	}

	filter := choresdomain.ListFilter{Completed: completed, Limit: limit, Offset: offset}
	if assignedTo != "" {
		filter.AssignedTo = &assignedTo
	}

	items, total, err := h.Chores.ListChores(r.Context(), household.ID, filter)
	if err != nil {
		h.log.InternalError("chores.list: list chores failed", err, "user_id", user.ID, "household_id", household.ID)
		writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
		return
	}

	writeJSON(w, http.StatusOK, listResponse[choreResponse]{Items: toChoreResponses(items), Total: total, Limit: limit, Offset: offset})
}

func (h *Handlers) ListOverdueChores(w http.ResponseWriter, r *http.Request) {
	user, household, ok := h.currentHousehold(w, r, "chores.overdue")
	if !ok {
		return
	}

	items, err := h.Chores.ListOverdue(r.Context(), household.ID)
	if err != nil {
		h.log.InternalError("chores.overdue: list overdue failed", err, "user_id", user.ID, "household_id", household.ID)
		writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
		return
	}

	writeJSON(w, http.StatusOK, toChoreResponses(items))
}

func (h *Handlers) CreateChore(w http.ResponseWriter, r *http.Request) {
	var req createChoreRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid json body")
		return
	}
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "title is required")
		return
	}
	var dueDate *time.Time
	if req.DueDate != nil {
		parsed, err := parseTimestamp(*req.DueDate)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request", "invalid due_date")
			return
		}
		dueDate = parsed
	}

	user, household, ok := h.currentHousehold(w, r, "chores.create")
	if !ok {
		return
	}

	result, err := h.Chores.CreateChore(r.Context(), choresdomain.CreateChoreInput{
		HouseholdID: household.ID,
		ActorID:     user.ID,
		Title:       req.Title,
		Description: req.Description,
		AssignedTo:  trimmedOrNil(req.AssignedTo),
		DueDate:     dueDate,
	})
	if err != nil {
		if errors.Is(err, choresdomain.ErrAssigneeNotMember) {
			h.log.BusinessError("chores.create: assignee not a member", err, "user_id", user.ID, "household_id", household.ID)
			writeError(w, http.StatusBadRequest, "assignee_not_member", "assignee is not a household member")
			return
		}
		h.log.InternalError("chores.create: create chore failed", err, "user_id", user.ID, "household_id", household.ID)
		writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
		return
	}

	writeJSON(w, http.StatusCreated, toChoreResponse(result))
}

func (h *Handlers) UpdateChore(w http.ResponseWriter, r *http.Request) {
	var req updateChoreRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid json body")
		return
	}
	if req.Title == nil && req.Description == nil && req.AssignedTo == nil && !req.ClearAssignee && req.DueDate == nil && !req.ClearDueDate {
		writeError(w, http.StatusBadRequest, "invalid_request", "no fields to update")
		return
	}
	if req.Title != nil && strings.TrimSpace(*req.Title) == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "title is required")
		return
	}
	var dueDate *time.Time
	if req.DueDate != nil {
		parsed, err := parseTimestamp(*req.DueDate)
		if err != nil || parsed == nil {
			writeError(w, http.StatusBadRequest, "invalid_request", "invalid due_date")
			return
		}
		dueDate = parsed
	}

	user, household, ok := h.currentHousehold(w, r, "chores.update")
	if !ok {
		return
	}
	choreID := chi.URLParam(r, "id")

	result, err := h.Chores.UpdateChore(r.Context(), choresdomain.UpdateChoreInput{
		ID:            choreID,
		HouseholdID:   household.ID,
		Title:         req.Title,
		Description:   req.Description,
		AssignedTo:    trimmedOrNil(req.AssignedTo),
		ClearAssignee: req.ClearAssignee,
		DueDate:       dueDate,
		ClearDueDate:  req.ClearDueDate,
	})
	if err != nil {
		if h.writeChoreError(w, "chores.update", err, user.ID, choreID) {
			return
		}
		h.log.InternalError("chores.update: update chore failed", err, "user_id", user.ID, "chore_id", choreID)
		writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
		return
	}

	writeJSON(w, http.StatusOK, toChoreResponse(result))
}

func (h *Handlers) CompleteChore(w http.ResponseWriter, r *http.Request) {
	h.setChoreCompleted(w, r, true)
}

func (h *Handlers) ReopenChore(w http.ResponseWriter, r *http.Request) {
	h.setChoreCompleted(w, r, false)
}

func (h *Handlers) setChoreCompleted(w http.ResponseWriter, r *http.Request, completed bool) {
	action := "chores.reopen"
	if completed {
		action = "chores.complete"
	}

	user, household, ok := h.currentHousehold(w, r, action)
	if !ok {
		return
	}
	choreID := chi.URLParam(r, "id")

	result, err := h.Chores.SetCompleted(r.Context(), household.ID, choreID, user.ID, completed)
	if err != nil {
		if h.writeChoreError(w, action, err, user.ID, choreID) {
			return
		}
		h.log.InternalError(action+": update chore failed", err, "user_id", user.ID, "chore_id", choreID)
		writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
		return
	}

	writeJSON(w, http.StatusOK, toChoreResponse(result))
}

func (h *Handlers) DeleteChore(w http.ResponseWriter, r *http.Request) {
	user, household, ok := h.currentHousehold(w, r, "chores.delete")
	if !ok {
		return
	}
	choreID := chi.URLParam(r, "id")

	if err := h.Chores.DeleteChore(r.Context(), household.ID, choreID); err != nil {
		if h.writeChoreError(w, "chores.delete", err, user.ID, choreID) {
			return
		}
		h.log.InternalError("chores.delete: delete chore failed", err, "user_id", user.ID, "chore_id", choreID)
		writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) writeChoreError(w http.ResponseWriter, action string, err error, userID, choreID string) bool {
	switch {
	case errors.Is(err, choresdomain.ErrChoreNotFound):
		h.log.BusinessError(action+": chore not found", err, "user_id", userID, "chore_id", choreID)
		writeError(w, http.StatusNotFound, "chore_not_found", "chore not found")
	case errors.Is(err, choresdomain.ErrAssigneeNotMember):
		h.log.BusinessError(action+": assignee not a member", err, "user_id", userID, "chore_id", choreID)
		writeError(w, http.StatusBadRequest, "assignee_not_member", "assignee is not a household member")
	default:
		return false
	}
	return true
}

func toChoreResponses(items []choresdomain.Chore) []choreResponse {
	response := make([]choreResponse, 0, len(items))
	for i := range items {
		response = append(response, toChoreResponse(&items[i]))
	}
	return response
}

func toChoreResponse(chore *choresdomain.Chore) choreResponse {
	return choreResponse{
		ID:                  chore.ID,
		Title:               chore.Title,
		Description:         chore.Description,
		AssignedTo:          chore.AssignedTo,
		DueDate:             chore.DueDate,
		IsCompleted:         chore.IsCompleted,
		CompletedAt:         chore.CompletedAt,
		CompletedBy:         chore.CompletedBy,
		RecurringTemplateID: chore.RecurringTemplateID,
		CreatedBy:           chore.CreatedBy,
		CreatedAt:           chore.CreatedAt,
		UpdatedAt:           chore.UpdatedAt,
	}
}
