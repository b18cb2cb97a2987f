package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	householddomain "household-app-go/internal/domain/household"
	"household-app-go/internal/transport/httpserver/middleware"
)

type createHouseholdRequest struct {
	Name     string  `json:"name"`
	Timezone *string `json:"timezone"`
}

type joinHouseholdRequest struct {
	Code string `json:"code"`
}

type updateHouseholdRequest struct {
	Name     *string `json:"name"`
	Timezone *string `json:"timezone"`
}

type transferOwnershipRequest struct {
	UserID string `json:"user_id"`
}

type availabilityRequest struct {
	IsAvailable *bool `json:"is_available"`
}

type rotationOrderRequest struct {
	MemberIDs []string `json:"member_ids"`
}

type householdResponse struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Code          string    `json:"code"`
	OwnerID       string    `json:"owner_id"`
	Timezone      string    `json:"timezone"`
	RotationOrder []string  `json:"rotation_order"`
	CreatedAt     time.Time `json:"created_at"`
}

type memberResponse struct {
	UserID      string    `json:"user_id"`
	Role        string    `json:"role"`
	IsAvailable bool      `json:"is_available"`
	JoinedAt    time.Time `json:"joined_at"`
	DisplayName *string   `json:"display_name"`
	Email       *string   `json:"email"`
	AvatarURL   *string   `json:"avatar_url"`
}

type rotationOrderResponse struct {
	Custom    bool     `json:"custom"`
	MemberIDs []string `json:"member_ids"`
}

func (h *Handlers) GetHouseholdMe(w http.ResponseWriter, r *http.Request) {
	_, household, ok := h.currentHousehold(w, r, "households.get_me")
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, toHouseholdResponse(household))
}

func (h *Handlers) CreateHousehold(w http.ResponseWriter, r *http.Request) {
	var req createHouseholdRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid json body")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "name is required")
		return
	}

	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}

	result, err := h.Households.CreateHousehold(r.Context(), user.ID, req.Name, trimmedOrNil(req.Timezone))
	if err != nil {
		switch {
		case errors.Is(err, householddomain.ErrAlreadyInHousehold):
			h.log.BusinessError("households.create: user already in household", err, "user_id", user.ID)
			writeError(w, http.StatusConflict, "already_in_household", "already in household")
		case errors.Is(err, householddomain.ErrInvalidTimezone):
			h.log.BusinessError("households.create: invalid timezone", err, "user_id", user.ID)
			writeError(w, http.StatusBadRequest, "invalid_timezone", "invalid timezone")
		default:
			h.log.InternalError("households.create: create household failed", err, "user_id", user.ID)
			writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
		}
		return
	}

	writeJSON(w, http.StatusCreated, toHouseholdResponse(result))
}

func (h *Handlers) JoinHousehold(w http.ResponseWriter, r *http.Request) {
	var req joinHouseholdRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid json body")
		return
	}
	req.Code = strings.TrimSpace(req.Code)
	if req.Code == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "code is required")
		return
	}

	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}

	result, err := h.Households.JoinHousehold(r.Context(), user.ID, req.Code)
	if err != nil {
		switch {
		case errors.Is(err, householddomain.ErrHouseholdCodeNotFound):
			h.log.BusinessError("households.join: household code not found", err, "user_id", user.ID, "code", req.Code)
			writeError(w, http.StatusNotFound, "household_code_not_found", "household code not found")
		case errors.Is(err, householddomain.ErrAlreadyInHousehold):
			h.log.BusinessError("households.join: user already in household", err, "user_id", user.ID)
			writeError(w, http.StatusConflict, "already_in_household", "already in household")
		default:
			h.log.InternalError("households.join: join household failed", err, "user_id", user.ID, "code", req.Code)
			writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
		}
		return
	}

	writeJSON(w, http.StatusOK, toHouseholdResponse(result))
}

func (h *Handlers) LeaveHousehold(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}

	if err := h.Households.LeaveHousehold(r.Context(), user.ID); err != nil {
		switch {
		case errors.Is(err, householddomain.ErrHouseholdNotFound):
			h.log.BusinessError("households.leave: household not found", err, "user_id", user.ID)
			writeError(w, http.StatusNotFound, "household_not_found", "household not found")
		case errors.Is(err, householddomain.ErrOwnerMustTransfer):
			h.log.BusinessError("households.leave: owner must transfer", err, "user_id", user.ID)
			writeError(w, http.StatusConflict, "owner_must_transfer", "transfer ownership before leaving")
		default:
			h.log.InternalError("households.leave: leave household failed", err, "user_id", user.ID)
			writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) UpdateHousehold(w http.ResponseWriter, r *http.Request) {
	var req updateHouseholdRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid json body")
		return
	}
	if req.Name == nil && req.Timezone == nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "no fields to update")
		return
	}
	if req.Name != nil && strings.TrimSpace(*req.Name) == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "name is required")
		return
	}

	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}

	result, err := h.Households.UpdateHousehold(r.Context(), user.ID, householddomain.UpdateInput{
		Name:     req.Name,
		Timezone: req.Timezone,
	})
	if err != nil {
		switch {
		case errors.Is(err, householddomain.ErrHouseholdNotFound):
			h.log.BusinessError("households.update: household not found", err, "user_id", user.ID)
			writeError(w, http.StatusNotFound, "household_not_found", "household not found")
		case errors.Is(err, householddomain.ErrInvalidTimezone):
			h.log.BusinessError("households.update: invalid timezone", err, "user_id", user.ID)
			writeError(w, http.StatusBadRequest, "invalid_timezone", "invalid timezone")
		default:
			h.log.InternalError("households.update: update household failed", err, "user_id", user.ID)
			writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
		}
		return
	}

	writeJSON(w, http.StatusOK, toHouseholdResponse(result))
}

func (h *Handlers) ListHouseholdMembers(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}

	members, err := h.Households.ListMembers(r.Context(), user.ID)
	if err != nil {
		if errors.Is(err, householddomain.ErrHouseholdNotFound) {
			h.log.BusinessError("households.list_members: household not found", err, "user_id", user.ID)
			writeError(w, http.StatusNotFound, "household_not_found", "household not found")
			return
		}
		h.log.InternalError("households.list_members: list members failed", err, "user_id", user.ID)
		writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
		return
	}

	response := make([]memberResponse, 0, len(members))
	for _, member := range members {
		response = append(response, memberResponse{
			UserID:      member.UserID,
			Role:        member.Role,
			IsAvailable: member.IsAvailable,
			JoinedAt:    member.JoinedAt,
			DisplayName: member.DisplayName,
			Email:       member.Email,
			AvatarURL:   member.AvatarURL,
		})
	}
	writeJSON(w, http.StatusOK, response)
}

func (h *Handlers) RemoveHouseholdMember(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}
	memberID := strings.TrimSpace(chi.URLParam(r, "user_id"))
	if memberID == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "user_id is required")
		return
	}

	if err := h.Households.RemoveMember(r.Context(), user.ID, memberID); err != nil {
		if h.writeMembershipError(w, "households.remove_member", err, user.ID, memberID) {
			return
		}
		h.log.InternalError("households.remove_member: remove member failed", err, "user_id", user.ID, "member_id", memberID)
		writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) TransferOwnership(w http.ResponseWriter, r *http.Request) {
	var req transferOwnershipRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid json body")
		return
	}
	req.UserID = strings.TrimSpace(req.UserID)
	if req.UserID == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "user_id is required")
		return
	}

	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}

	result, err := h.Households.TransferOwnership(r.Context(), user.ID, req.UserID)
	if err != nil {
		if h.writeMembershipError(w, "households.transfer_owner", err, user.ID, req.UserID) {
			return
		}
		h.log.InternalError("households.transfer_owner: transfer failed", err, "user_id", user.ID, "member_id", req.UserID)
		writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
		return
	}

	writeJSON(w, http.StatusOK, toHouseholdResponse(result))
}

func (h *Handlers) SetAvailability(w http.ResponseWriter, r *http.Request) {
	var req availabilityRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid json body")
		return
	}
	if req.IsAvailable == nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "is_available is required")
		return
	}

	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}

	member, err := h.Households.SetAvailability(r.Context(), user.ID, *req.IsAvailable)
	if err != nil {
		if errors.Is(err, householddomain.ErrHouseholdNotFound) {
			h.log.BusinessError("households.availability: household not found", err, "user_id", user.ID)
			writeError(w, http.StatusNotFound, "household_not_found", "household not found")
			return
		}
		h.log.InternalError("households.availability: update failed", err, "user_id", user.ID)
		writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"user_id":      member.UserID,
		"is_available": member.IsAvailable,
	})
}

func (h *Handlers) GetRotationOrder(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}

	order, err := h.Households.GetRotationOrder(r.Context(), user.ID)
	if err != nil {
		if errors.Is(err, householddomain.ErrHouseholdNotFound) {
			h.log.BusinessError("households.rotation_order: household not found", err, "user_id", user.ID)
			writeError(w, http.StatusNotFound, "household_not_found", "household not found")
			return
		}
		h.log.InternalError("households.rotation_order: get failed", err, "user_id", user.ID)
		writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
		return
	}

	writeJSON(w, http.StatusOK, toRotationOrderResponse(order))
}

func (h *Handlers) SetRotationOrder(w http.ResponseWriter, r *http.Request) {
	var req rotationOrderRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid json body")
		return
	}

	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}

	order, err := h.Households.SetRotationOrder(r.Context(), user.ID, req.MemberIDs)
	if err != nil {
		switch {
		case errors.Is(err, householddomain.ErrHouseholdNotFound):
			h.log.BusinessError("households.set_rotation_order: household not found", err, "user_id", user.ID)
			writeError(w, http.StatusNotFound, "household_not_found", "household not found")
		case errors.Is(err, householddomain.ErrInvalidRotationOrder):
			h.log.BusinessError("households.set_rotation_order: invalid order", err, "user_id", user.ID)
			writeError(w, http.StatusBadRequest, "invalid_rotation_order", err.Error())
		default:
			h.log.InternalError("households.set_rotation_order: update failed", err, "user_id", user.ID)
			writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
		}
		return
	}

	writeJSON(w, http.StatusOK, toRotationOrderResponse(order))
}

func (h *Handlers) writeMembershipError(w http.ResponseWriter, action string, err error, userID, memberID string) bool {
	switch {
	case errors.Is(err, householddomain.ErrHouseholdNotFound):
		h.log.BusinessError(action+": household not found", err, "user_id", userID)
		writeError(w, http.StatusNotFound, "household_not_found", "household not found")
	case errors.Is(err, householddomain.ErrMemberNotFound):
		h.log.BusinessError(action+": member not found", err, "user_id", userID, "member_id", memberID)
		writeError(w, http.StatusNotFound, "member_not_found", "member not found")
	case errors.Is(err, householddomain.ErrNotOwner):
		h.log.BusinessError(action+": not owner", err, "user_id", userID)
		writeError(w, http.StatusForbidden, "not_owner", "only the owner can do this")
	case errors.Is(err, householddomain.ErrCannotRemoveOwner):
		h.log.BusinessError(action+": cannot remove owner", err, "user_id", userID)
		writeError(w, http.StatusBadRequest, "cannot_remove_owner", "owner cannot be removed")
	default:
		return false
	}
	return true
}

func toHouseholdResponse(household *householddomain.Household) householdResponse {
	order := []string(household.RotationOrder)
	if order == nil {
		order = []string{}
	}
	return householdResponse{
		ID:            household.ID,
		Name:          household.Name,
		Code:          household.Code,
		OwnerID:       household.OwnerID,
		Timezone:      household.Timezone,
		RotationOrder: order,
		CreatedAt:     household.CreatedAt,
	}
}

func toRotationOrderResponse(order *householddomain.RotationOrder) rotationOrderResponse {
	ids := order.MemberIDs
	if ids == nil {
		ids = []string{}
	}
	return rotationOrderResponse{Custom: order.Custom, MemberIDs: ids}
}
