package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	balancesdomain "household-app-go/internal/domain/balances"
)

type settleRequest struct {
	FromMemberID string      `json:"from_member_id"`
	ToMemberID   string      `json:"to_member_id"`
	Amount       json.Number `json:"amount"`
	Note         string      `json:"note"`
}

type contributingSplitResponse struct {
	ID         string  `json:"id"`
	ExpenseID  string  `json:"expense_id"`
	AmountOwed float64 `json:"amount_owed"`
}

type balanceResponse struct {
	FromMemberID       string                      `json:"from_member_id"`
	FromName           string                      `json:"from_name"`
	ToMemberID         string                      `json:"to_member_id"`
	ToName             string                      `json:"to_name"`
	Amount             float64                     `json:"amount"`
	ContributingSplits []contributingSplitResponse `json:"contributing_splits"`
}

type memberSummaryResponse struct {
	MemberID string  `json:"member_id"`
	Name     string  `json:"name"`
	Owed     float64 `json:"owed"`
	Owes     float64 `json:"owes"`
	Net      float64 `json:"net"`
}

type settlementResponse struct {
	ID           string    `json:"id"`
	FromMemberID string    `json:"from_member_id"`
	ToMemberID   string    `json:"to_member_id"`
	Amount       float64   `json:"amount"`
	Note         *string   `json:"note"`
	CreatedBy    string    `json:"created_by"`
	CreatedAt    time.Time `json:"created_at"`
}

func (h *Handlers) GetBalances(w http.ResponseWriter, r *http.Request) {
	user, household, ok := h.currentHousehold(w, r, "balances.get")
	if !ok {
		return
	}

	balances, err := h.Balances.GetBalances(r.Context(), household.ID)
	if err != nil {
		h.log.InternalError("balances.get: compute balances failed", err, "user_id", user.ID, "household_id", household.ID)
		writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
		return
	}

	response := make([]balanceResponse, 0, len(balances))
	for _, balance := range balances {
		splits := make([]contributingSplitResponse, 0, len(balance.ContributingSplits))
		for _, split := range balance.ContributingSplits {
			splits = append(splits, contributingSplitResponse{
				ID:         split.ID,
				ExpenseID:  split.ExpenseID,
				AmountOwed: money(split.AmountOwed),
			})
		}
		response = append(response, balanceResponse{
			FromMemberID:       balance.FromMemberID,
			FromName:           balance.FromName,
			ToMemberID:         balance.ToMemberID,
			ToName:             balance.ToName,
			Amount:             money(balance.Amount),
			ContributingSplits: splits,
		})
	}
	writeJSON(w, http.StatusOK, response)
}

func (h *Handlers) GetBalanceSummary(w http.ResponseWriter, r *http.Request) {
	user, household, ok := h.currentHousehold(w, r, "balances.summary")
	if !ok {
		return
	}

	summary, err := h.Balances.Summary(r.Context(), household.ID)
	if err != nil {
		h.log.InternalError("balances.summary: compute summary failed", err, "user_id", user.ID, "household_id", household.ID)
		writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
		return
	}

	response := make([]memberSummaryResponse, 0, len(summary))
	for _, row := range summary {
		response = append(response, memberSummaryResponse{
			MemberID: row.MemberID,
			Name:     row.Name,
			Owed:     money(row.Owed),
			Owes:     money(row.Owes),
			Net:      money(row.Net),
		})
	}
	writeJSON(w, http.StatusOK, response)
}

func (h *Handlers) CreateSettlement(w http.ResponseWriter, r *http.Request) {
	var req settleRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid json body")
		return
	}
	amount, ok := parseMoney(req.Amount)
	if !ok || !amount.IsPositive() {
		writeError(w, http.StatusBadRequest, "invalid_amount", "amount must be positive with at most 2 decimals")
		return
	}
	req.ToMemberID = strings.TrimSpace(req.ToMemberID)
	if req.ToMemberID == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "to_member_id is required")
		return
	}

	user, household, ok := h.currentHousehold(w, r, "balances.settle")
	if !ok {
		return
	}
	from := strings.TrimSpace(req.FromMemberID)
	if from == "" {
		from = user.ID
	}

	record, err := h.Balances.Settle(r.Context(), balancesdomain.SettleInput{
		HouseholdID:  household.ID,
		ActorID:      user.ID,
		FromMemberID: from,
		ToMemberID:   req.ToMemberID,
		Amount:       amount,
		Note:         req.Note,
	})
	if err != nil {
		logArgs := []any{"user_id", user.ID, "household_id", household.ID, "from_member_id", from, "to_member_id", req.ToMemberID}
		switch {
		case errors.Is(err, balancesdomain.ErrInvalidSettlementAmount):
			h.log.BusinessError("balances.settle: invalid amount", err, logArgs...)
			writeError(w, http.StatusBadRequest, "invalid_amount", "amount must be positive")
		case errors.Is(err, balancesdomain.ErrSameMember):
			h.log.BusinessError("balances.settle: same member", err, logArgs...)
			writeError(w, http.StatusBadRequest, "invalid_request", "cannot settle with yourself")
		case errors.Is(err, balancesdomain.ErrBalanceNotFound):
			h.log.BusinessError("balances.settle: balance not found", err, logArgs...)
			writeError(w, http.StatusNotFound, "balance_not_found", "no outstanding balance between these members")
		case errors.Is(err, balancesdomain.ErrAmountExceedsBalance):
			h.log.BusinessError("balances.settle: amount exceeds balance", err, logArgs...)
			writeError(w, http.StatusBadRequest, "amount_exceeds_balance", "amount exceeds balance")
		case errors.Is(err, balancesdomain.ErrStaleBalance):
			h.log.BusinessError("balances.settle: stale balance", err, logArgs...)
			writeError(w, http.StatusConflict, "stale_balance", "balance changed, reload and retry")
		default:
			h.log.InternalError("balances.settle: settle failed", err, logArgs...)
			writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
		}
		return
	}

	writeJSON(w, http.StatusCreated, toSettlementResponse(record))
}

func (h *Handlers) ListSettlements(w http.ResponseWriter, r *http.Request) {
	user, household, ok := h.currentHousehold(w, r, "balances.list_settlements")
	if !ok {
		return
	}

	limit, offset, err := parsePagination(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	items, total, err := h.Balances.ListSettlements(r.Context(), household.ID, balancesdomain.ListFilter{Limit: limit, Offset: offset})
	if err != nil {
		h.log.InternalError("balances.list_settlements: list failed", err, "user_id", user.ID, "household_id", household.ID)
		writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
		return
	}

	response := make([]settlementResponse, 0, len(items))
	for i := range items {
		response = append(response, toSettlementResponse(&items[i]))
	}
	writeJSON(w, http.StatusOK, listResponse[settlementResponse]{Items: response, Total: total, Limit: limit, Offset: offset})
}

func toSettlementResponse(record *balancesdomain.Settlement) settlementResponse {
	return settlementResponse{
		ID:           record.ID,
		FromMemberID: record.FromMemberID,
		ToMemberID:   record.ToMemberID,
		Amount:       money(record.Amount),
		Note:         record.Note,
		CreatedBy:    record.CreatedBy,
		CreatedAt:    record.CreatedAt,
	}
}
