package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	choresdomain "household-app-go/internal/domain/chores"
)

type createTemplateRequest struct {
	Title            string  `json:"title"`
	Description      *string `json:"description"`
	RecurrenceUnit   string  `json:"recurrence_unit"`
	Interval         int     `json:"interval"`
	NextCreationDate *string `json:"next_creation_date"`
	UseRotation      *bool   `json:"use_rotation"`
	FixedAssignee    *string `json:"fixed_assignee"`
}

type updateTemplateRequest struct {
	Title            *string `json:"title"`
	Description      *string `json:"description"`
	RecurrenceUnit   *string `json:"recurrence_unit"`
	Interval         *int    `json:"interval"`
	NextCreationDate *string `json:"next_creation_date"`
	IsActive         *bool   `json:"is_active"`
	UseRotation      *bool   `json:"use_rotation"`
	FixedAssignee    *string `json:"fixed_assignee"`
	ClearAssignee    bool    `json:"clear_assignee"`
}

type templateResponse struct {
	ID               string    `json:"id"`
	Title            string    `json:"title"`
	Description      *string   `json:"description"`
	RecurrenceUnit   string    `json:"recurrence_unit"`
	Interval         int       `json:"interval"`
	NextCreationDate time.Time `json:"next_creation_date"`
	IsActive         bool      `json:"is_active"`
	UseRotation      bool      `json:"use_rotation"`
	FixedAssignee    *string   `json:"fixed_assignee"`
	CreatedBy        string    `json:"created_by"`
	CreatedAt        time.Time `json:"created_at"`
}

type rotationPreviewResponse struct {
	TemplateID string   `json:"template_id"`
	Upcoming   []string `json:"upcoming"`
}

func (h *Handlers) ListTemplates(w http.ResponseWriter, r *http.Request) {
	user, household, ok := h.currentHousehold(w, r, "templates.list")
	if !ok {
		return
	}

	items, err := h.Chores.ListTemplates(r.Context(), household.ID)
	if err != nil {
		h.log.InternalError("templates.list: list templates failed", err, "user_id", user.ID, "household_id", household.ID)
		writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
		return
	}

	response := make([]templateResponse, 0, len(items))
	for i := range items {
		response = append(response, toTemplateResponse(&items[i]))
	}
	writeJSON(w, http.StatusOK, response)
}

func (h *Handlers) CreateTemplate(w http.ResponseWriter, r *http.Request) {
	var req createTemplateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid json body")
		return
	}
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "title is required")
		return
	}
	if req.Interval == 0 {
		req.Interval = 1
	}
	next, err := parseTimestamp(stringOrEmpty(req.NextCreationDate))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid next_creation_date")
		return
	}
	useRotation := true
	if req.UseRotation != nil {
		useRotation = *req.UseRotation
	}

	user, household, ok := h.currentHousehold(w, r, "templates.create")
	if !ok {
		return
	}

	result, err := h.Chores.CreateTemplate(r.Context(), choresdomain.CreateTemplateInput{
		HouseholdID:      household.ID,
		ActorID:          user.ID,
		Title:            req.Title,
		Description:      req.Description,
		RecurrenceUnit:   choresdomain.RecurrenceUnit(strings.ToLower(strings.TrimSpace(req.RecurrenceUnit))),
		Interval:         req.Interval,
		NextCreationDate: next,
		UseRotation:      useRotation,
		FixedAssignee:    trimmedOrNil(req.FixedAssignee),
	})
	if err != nil {
		if h.writeTemplateError(w, "templates.create", err, user.ID, "") {
			return
		}
		h.log.InternalError("templates.create: create template failed", err, "user_id", user.ID, "household_id", household.ID)
		writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
		return
	}

	writeJSON(w, http.StatusCreated, toTemplateResponse(result))
}

func (h *Handlers) UpdateTemplate(w http.ResponseWriter, r *http.Request) {
	var req updateTemplateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid json body")
		return
	}
	if req.Title != nil && strings.TrimSpace(*req.Title) == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "title is required")
		return
	}
	var next *time.Time
	if req.NextCreationDate != nil {
		parsed, err := parseTimestamp(*req.NextCreationDate)
		if err != nil || parsed == nil {
			writeError(w, http.StatusBadRequest, "invalid_request", "invalid next_creation_date")
			return
		}
		next = parsed
	}
	var unit *choresdomain.RecurrenceUnit
	if req.RecurrenceUnit != nil {
		value := choresdomain.RecurrenceUnit(strings.ToLower(strings.TrimSpace(*req.RecurrenceUnit)))
		unit = &value
	}

	user, household, ok := h.currentHousehold(w, r, "templates.update")
	if !ok {
		return
	}
	templateID := chi.URLParam(r, "id")

	result, err := h.Chores.UpdateTemplate(r.Context(), choresdomain.UpdateTemplateInput{
		ID:               templateID,
		HouseholdID:      household.ID,
		Title:            req.Title,
		Description:      req.Description,
		RecurrenceUnit:   unit,
		Interval:         req.Interval,
		NextCreationDate: next,
		IsActive:         req.IsActive,
		UseRotation:      req.UseRotation,
		FixedAssignee:    trimmedOrNil(req.FixedAssignee),
		ClearAssignee:    req.ClearAssignee,
	})
	if err != nil {
		if h.writeTemplateError(w, "templates.update", err, user.ID, templateID) {
			return
		}
		h.log.InternalError("templates.update: update template failed", err, "user_id", user.ID, "template_id", templateID)
		writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
		return
	}

	writeJSON(w, http.StatusOK, toTemplateResponse(result))
}

func (h *Handlers) DeleteTemplate(w http.ResponseWriter, r *http.Request) {
	user, household, ok := h.currentHousehold(w, r, "templates.delete")
	if !ok {
		return
	}
	templateID := chi.URLParam(r, "id")

	if err := h.Chores.DeleteTemplate(r.Context(), household.ID, templateID); err != nil {
		if h.writeTemplateError(w, "templates.delete", err, user.ID, templateID) {
			return
		}
		h.log.InternalError("templates.delete: delete template failed", err, "user_id", user.ID, "template_id", templateID)
		writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) PreviewTemplateRotation(w http.ResponseWriter, r *http.Request) {
	count, err := parseIntParam(r.URL.Query().Get("count"), 5)
	if err != nil || count < 1 || count > 50 {
		writeError(w, http.StatusBadRequest, "invalid_request", "count must be between 1 and 50")
		return
	}

	user, household, ok := h.currentHousehold(w, r, "templates.rotation")
	if !ok {
		return
	}
	templateID := chi.URLParam(r, "id")

	upcoming, err := h.Chores.PreviewRotation(r.Context(), household.ID, templateID, count)
	if err != nil {
		if h.writeTemplateError(w, "templates.rotation", err, user.ID, templateID) {
			return
		}
		h.log.InternalError("templates.rotation: preview failed", err, "user_id", user.ID, "template_id", templateID)
		writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
		return
	}

	writeJSON(w, http.StatusOK, rotationPreviewResponse{TemplateID: templateID, Upcoming: upcoming})
}

func (h *Handlers) writeTemplateError(w http.ResponseWriter, action string, err error, userID, templateID string) bool {
	switch {
	case errors.Is(err, choresdomain.ErrTemplateNotFound):
		h.log.BusinessError(action+": template not found", err, "user_id", userID, "template_id", templateID)
		writeError(w, http.StatusNotFound, "template_not_found", "recurring template not found")
	case errors.Is(err, choresdomain.ErrInvalidRecurrence):
		h.log.BusinessError(action+": invalid recurrence", err, "user_id", userID, "template_id", templateID)
		writeError(w, http.StatusBadRequest, "invalid_recurrence", err.Error())
	case errors.Is(err, choresdomain.ErrFixedAssigneeRequired):
		h.log.BusinessError(action+": fixed assignee required", err, "user_id", userID, "template_id", templateID)
		writeError(w, http.StatusBadRequest, "fixed_assignee_required", err.Error())
	case errors.Is(err, choresdomain.ErrAssigneeNotMember):
		h.log.BusinessError(action+": assignee not a member", err, "user_id", userID, "template_id", templateID)
		writeError(w, http.StatusBadRequest, "assignee_not_member", "assignee is not a household member")
	default:
		return false
	}
	return true
}

func toTemplateResponse(template *choresdomain.RecurringTemplate) templateResponse {
	return templateResponse{
		ID:               template.ID,
		Title:            template.Title,
		Description:      template.Description,
		RecurrenceUnit:   string(template.RecurrenceUnit),
		Interval:         template.Interval,
		NextCreationDate: template.NextCreationDate,
		IsActive:         template.IsActive,
		UseRotation:      template.UseRotation,
		FixedAssignee:    template.FixedAssignee,
		CreatedBy:        template.CreatedBy,
		CreatedAt:        template.CreatedAt,
	}
}

func stringOrEmpty(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
