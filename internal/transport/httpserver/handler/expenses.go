package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	expensesdomain "household-app-go/internal/domain/expenses"
)

type shareRequest struct {
	UserID string      `json:"user_id"`
	Amount json.Number `json:"amount"`
}

type createExpenseRequest struct {
	PaidBy       string         `json:"paid_by"`
	Date         string         `json:"date"`
	Amount       json.Number    `json:"amount"`
	Currency     string         `json:"currency"`
	Title        string         `json:"title"`
	Category     *string        `json:"category"`
	SplitMode    string         `json:"split_mode"`
	Participants []string       `json:"participants"`
	Shares       []shareRequest `json:"shares"`
}

type updateExpenseRequest struct {
	Date          *string `json:"date"`
	Currency      *string `json:"currency"`
	Title         *string `json:"title"`
	Category      *string `json:"category"`
	ClearCategory bool    `json:"clear_category"`
}

type splitResponse struct {
	ID         string  `json:"id"`
	UserID     string  `json:"user_id"`
	AmountOwed float64 `json:"amount_owed"`
	IsSettled  bool    `json:"is_settled"`
}

type expenseResponse struct {
	ID        string          `json:"id"`
	PaidBy    string          `json:"paid_by"`
	Date      string          `json:"date"`
	Amount    float64         `json:"amount"`
	Currency  string          `json:"currency"`
	Title     string          `json:"title"`
	Category  *string         `json:"category"`
	CreatedBy string          `json:"created_by"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
	Splits    []splitResponse `json:"splits"`
}

func (h *Handlers) ListExpenses(w http.ResponseWriter, r *http.Request) {
	user, household, ok := h.currentHousehold(w, r, "expenses.list")
	if !ok {
		return
	}

	query := r.URL.Query()
	from, err := parseDateParam(query.Get("from"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid from date")
		return
	}
	to, err := parseDateParam(query.Get("to"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid to date")
		return
	}
	limit, offset, err := parsePagination(query)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	items, total, err := h.Expenses.ListExpenses(r.Context(), household.ID, expensesdomain.ListFilter{
		From:   from,
		To:     to,
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		h.log.InternalError("expenses.list: list expenses failed", err, "user_id", user.ID, "household_id", household.ID)
		writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
		return
	}

	response := make([]expenseResponse, 0, len(items))
	for i := range items {
		response = append(response, toExpenseResponse(&items[i]))
	}
	writeJSON(w, http.StatusOK, listResponse[expenseResponse]{Items: response, Total: total, Limit: limit, Offset: offset})
}

func (h *Handlers) GetExpense(w http.ResponseWriter, r *http.Request) {
	user, household, ok := h.currentHousehold(w, r, "expenses.get")
	if !ok {
		return
	}
	expenseID := chi.URLParam(r, "id")

	result, err := h.Expenses.GetExpense(r.Context(), household.ID, expenseID)
	if err != nil {
		if errors.Is(err, expensesdomain.ErrExpenseNotFound) {
			h.log.BusinessError("expenses.get: expense not found", err, "user_id", user.ID, "expense_id", expenseID)
			writeError(w, http.StatusNotFound, "expense_not_found", "expense not found")
			return
		}
		h.log.InternalError("expenses.get: get expense failed", err, "user_id", user.ID, "expense_id", expenseID)
		writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
		return
	}

	writeJSON(w, http.StatusOK, toExpenseResponse(result))
}

func (h *Handlers) CreateExpense(w http.ResponseWriter, r *http.Request) {
	var req createExpenseRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid json body")
		return
	}

	date, err := parseDateRequired(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid date")
		return
	}
	amount, ok := parseMoney(req.Amount)
	if !ok || !amount.IsPositive() {
		writeError(w, http.StatusBadRequest, "invalid_amount", "amount must be positive with at most 2 decimals")
		return
	}
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "title is required")
		return
	}
	req.Currency = strings.TrimSpace(req.Currency)
	if len(req.Currency) != 3 {
		writeError(w, http.StatusBadRequest, "invalid_request", "currency must be a 3-letter code")
		return
	}

	mode := expensesdomain.SplitMode(strings.TrimSpace(req.SplitMode))
	if mode == "" {
		mode = expensesdomain.SplitEqual
	}
	if mode != expensesdomain.SplitEqual && mode != expensesdomain.SplitCustom {
		writeError(w, http.StatusBadRequest, "invalid_request", "split_mode must be equal or custom")
		return
	}

	shares := make([]expensesdomain.Share, 0, len(req.Shares))
	for _, share := range req.Shares {
		value, ok := parseMoney(share.Amount)
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid_split", "invalid share amount")
			return
		}
		shares = append(shares, expensesdomain.Share{UserID: strings.TrimSpace(share.UserID), Amount: value})
	}

	user, household, ok := h.currentHousehold(w, r, "expenses.create")
	if !ok {
		return
	}

	paidBy := strings.TrimSpace(req.PaidBy)
	if paidBy == "" {
		paidBy = user.ID
	}

	participants := req.Participants
	if mode == expensesdomain.SplitEqual && len(participants) == 0 {
		members, err := h.Households.ListMembers(r.Context(), user.ID)
		if err != nil {
			h.log.InternalError("expenses.create: list members failed", err, "user_id", user.ID, "household_id", household.ID)
			writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
			return
		}
		for _, member := range members {
			participants = append(participants, member.UserID)
		}
	}

	result, err := h.Expenses.CreateExpense(r.Context(), expensesdomain.CreateExpenseInput{
		HouseholdID:  household.ID,
		ActorID:      user.ID,
		PaidBy:       paidBy,
		Date:         date,
		Amount:       amount,
		Currency:     req.Currency,
		Title:        req.Title,
		Category:     req.Category,
		Mode:         mode,
		Participants: participants,
		Shares:       shares,
	})
	if err != nil {
		switch {
		case errors.Is(err, expensesdomain.ErrInvalidAmount):
			h.log.BusinessError("expenses.create: invalid amount", err, "user_id", user.ID, "household_id", household.ID)
			writeError(w, http.StatusBadRequest, "invalid_amount", "amount must be positive with at most 2 decimals")
		case errors.Is(err, expensesdomain.ErrInvalidSplit):
			h.log.BusinessError("expenses.create: invalid split", err, "user_id", user.ID, "household_id", household.ID)
			writeError(w, http.StatusBadRequest, "invalid_split", err.Error())
		case errors.Is(err, expensesdomain.ErrNotHouseholdMember):
			h.log.BusinessError("expenses.create: participant not a member", err, "user_id", user.ID, "household_id", household.ID)
			writeError(w, http.StatusBadRequest, "not_household_member", err.Error())
		default:
			h.log.InternalError("expenses.create: create expense failed", err, "user_id", user.ID, "household_id", household.ID)
			writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
		}
		return
	}

	writeJSON(w, http.StatusCreated, toExpenseResponse(result))
}

func (h *Handlers) UpdateExpense(w http.ResponseWriter, r *http.Request) {
	var req updateExpenseRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid json body")
		return
	}
	if req.Date == nil && req.Currency == nil && req.Title == nil && req.Category == nil && !req.ClearCategory {
		writeError(w, http.StatusBadRequest, "invalid_request", "no fields to update")
		return
	}
	if req.Title != nil && strings.TrimSpace(*req.Title) == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "title is required")
		return
	}
	if req.Currency != nil && len(strings.TrimSpace(*req.Currency)) != 3 {
		writeError(w, http.StatusBadRequest, "invalid_request", "currency must be a 3-letter code")
		return
	}

	var date *time.Time
	if req.Date != nil {
		parsed, err := parseDateRequired(*req.Date)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request", "invalid date")
			return
		}
		date = &parsed
	}

	user, household, ok := h.currentHousehold(w, r, "expenses.update")
	if !ok {
		return
	}
	expenseID := chi.URLParam(r, "id")

	result, err := h.Expenses.UpdateExpense(r.Context(), expensesdomain.UpdateExpenseInput{
		ID:            expenseID,
		HouseholdID:   household.ID,
		Date:          date,
		Currency:      req.Currency,
		Title:         req.Title,
		Category:      req.Category,
		ClearCategory: req.ClearCategory,
	})
	if err != nil {
		if errors.Is(err, expensesdomain.ErrExpenseNotFound) {
			h.log.BusinessError("expenses.update: expense not found", err, "user_id", user.ID, "household_id", household.ID, "expense_id", expenseID)
			writeError(w, http.StatusNotFound, "expense_not_found", "expense not found")
			return
		}
		h.log.InternalError("expenses.update: update expense failed", err, "user_id", user.ID, "household_id", household.ID, "expense_id", expenseID)
		writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
		return
	}

	writeJSON(w, http.StatusOK, toExpenseResponse(result))
}

func (h *Handlers) DeleteExpense(w http.ResponseWriter, r *http.Request) {
	user, household, ok := h.currentHousehold(w, r, "expenses.delete")
	if !ok {
		return
	}
	expenseID := chi.URLParam(r, "id")

	if err := h.Expenses.DeleteExpense(r.Context(), household.ID, expenseID); err != nil {
		if errors.Is(err, expensesdomain.ErrExpenseNotFound) {
			h.log.BusinessError("expenses.delete: expense not found", err, "user_id", user.ID, "household_id", household.ID, "expense_id", expenseID)
			writeError(w, http.StatusNotFound, "expense_not_found", "expense not found")
			return
		}
		h.log.InternalError("expenses.delete: delete expense failed", err, "user_id", user.ID, "household_id", household.ID, "expense_id", expenseID)
		writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func toExpenseResponse(item *expensesdomain.ExpenseWithSplits) expenseResponse {
	splits := make([]splitResponse, 0, len(item.Splits))
	for _, split := range item.Splits {
		splits = append(splits, splitResponse{
			ID:         split.ID,
			UserID:     split.UserID,
			AmountOwed: money(split.AmountOwed),
			IsSettled:  split.IsSettled,
		})
	}
	return expenseResponse{
		ID:        item.ID,
		PaidBy:    item.PaidBy,
		Date:      item.Date.Format("2006-01-02"),
		Amount:    money(item.Amount),
		Currency:  item.Currency,
		Title:     item.Title,
		Category:  item.Category,
		CreatedBy: item.CreatedBy,
		CreatedAt: item.CreatedAt,
		UpdatedAt: item.UpdatedAt,
		Splits:    splits,
	}
}
