package expenses

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

type Service struct {
	repo    Repository
	members Members
}

func NewService(repo Repository, members Members) *Service {
	return &Service{repo: repo, members: members}
}

func (s *Service) ListExpenses(ctx context.Context, householdID string, filter ListFilter) ([]ExpenseWithSplits, int64, error) {
	if filter.Limit <= 0 {
		filter.Limit = defaultListLimit
	}
	if filter.Limit > maxListLimit {
		filter.Limit = maxListLimit
	}

	expenses, total, err := s.repo.ListExpenses(ctx, householdID, filter)
	if err != nil {
		return nil, 0, err
	}
	if len(expenses) == 0 {
		return []ExpenseWithSplits{}, total, nil
	}

	expenseIDs := make([]string, 0, len(expenses))
	for _, expense := range expenses {
		expenseIDs = append(expenseIDs, expense.ID)
	}

	splitsByExpense, err := s.repo.ListSplitsByExpenseIDs(ctx, expenseIDs)
	if err != nil {
		return nil, 0, err
	}

	items := make([]ExpenseWithSplits, 0, len(expenses))
	for _, expense := range expenses {
		splits := splitsByExpense[expense.ID]
		if splits == nil {
			splits = []Split{}
		}
		items = append(items, ExpenseWithSplits{Expense: expense, Splits: splits})
	}
	return items, total, nil
}

func (s *Service) GetExpense(ctx context.Context, householdID, expenseID string) (*ExpenseWithSplits, error) {
	expense, err := s.repo.GetExpenseByID(ctx, householdID, expenseID)
	if err != nil {
		return nil, err
	}
	splits, err := s.repo.ListSplitsByExpenseIDs(ctx, []string{expense.ID})
	if err != nil {
		return nil, err
	}
	result := ExpenseWithSplits{Expense: *expense, Splits: splits[expense.ID]}
	if result.Splits == nil {
		result.Splits = []Split{}
	}
	return &result, nil
}

// CreateExpense stores the expense with one split per participant. The
// payer's own split is stored settled.
func (s *Service) CreateExpense(ctx context.Context, input CreateExpenseInput) (*ExpenseWithSplits, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, fmt.Errorf("title is required")
	}
	currency := strings.ToUpper(strings.TrimSpace(input.Currency))
	if len(currency) != 3 {
		return nil, fmt.Errorf("currency must be a 3-letter code")
	}
	if !input.Amount.IsPositive() || !input.Amount.Equal(input.Amount.Round(2)) {
		return nil, ErrInvalidAmount
	}

	shares, err := s.buildShares(input)
	if err != nil {
		return nil, err
	}

	if err := s.ensureMember(ctx, input.HouseholdID, input.PaidBy); err != nil {
		return nil, err
	}
	for _, share := range shares {
		if err := s.ensureMember(ctx, input.HouseholdID, share.UserID); err != nil {
			return nil, err
		}
	}

	expense := Expense{
		ID:          uuid.NewString(),
		HouseholdID: input.HouseholdID,
		PaidBy:      input.PaidBy,
		Date:        input.Date,
		Amount:      input.Amount,
		Currency:    currency,
		Title:       title,
		Category:    trimOptional(input.Category),
		CreatedBy:   input.ActorID,
	}

	splits := make([]Split, 0, len(shares))
	for _, share := range shares {
		splits = append(splits, Split{
			ID:         uuid.NewString(),
			ExpenseID:  expense.ID,
			UserID:     share.UserID,
			AmountOwed: share.Amount,
			IsSettled:  share.UserID == input.PaidBy,
		})
	}

	err = s.repo.Transaction(ctx, func(tx Repository) error {
		if err := tx.CreateExpense(ctx, &expense); err != nil {
			return err
		}
		return tx.CreateSplits(ctx, splits)
	})
	if err != nil {
		return nil, err
	}

	return &ExpenseWithSplits{Expense: expense, Splits: splits}, nil
}

func (s *Service) UpdateExpense(ctx context.Context, input UpdateExpenseInput) (*ExpenseWithSplits, error) {
	if input.Date == nil && input.Currency == nil && input.Title == nil && input.Category == nil && !input.ClearCategory {
		return nil, fmt.Errorf("no fields to update")
	}

	expense, err := s.repo.GetExpenseByID(ctx, input.HouseholdID, input.ID)
	if err != nil {
		return nil, err
	}

	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			return nil, fmt.Errorf("title is required")
		}
		expense.Title = title
	}
	if input.Currency != nil {
		currency := strings.ToUpper(strings.TrimSpace(*input.Currency))
		if len(currency) != 3 {
			return nil, fmt.Errorf("currency must be a 3-letter code")
		}
		expense.Currency = currency
	}
	if input.Date != nil {
		expense.Date = *input.Date
	}
	switch {
	case input.ClearCategory:
		expense.Category = nil
	case input.Category != nil:
		expense.Category = trimOptional(input.Category)
	}
	expense.UpdatedAt = time.Now().UTC()

	if err := s.repo.UpdateExpense(ctx, expense); err != nil {
		return nil, err
	}
	return s.GetExpense(ctx, input.HouseholdID, input.ID)
}

func (s *Service) DeleteExpense(ctx context.Context, householdID, expenseID string) error {
	deleted, err := s.repo.DeleteExpense(ctx, householdID, expenseID)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrExpenseNotFound
	}
	return nil
}

func (s *Service) buildShares(input CreateExpenseInput) ([]Share, error) {
	switch input.Mode {
	case SplitEqual, "":
		participants := normalizeIDs(input.Participants)
		return EqualShares(input.Amount, participants)
	case SplitCustom:
		seen := make(map[string]bool, len(input.Shares))
		for _, share := range input.Shares {
			if share.UserID == "" || seen[share.UserID] {
				return nil, fmt.Errorf("%w: duplicate or empty participant", ErrInvalidSplit)
			}
			seen[share.UserID] = true
		}
		if err := ValidateShares(input.Amount, input.Shares); err != nil {
			return nil, err
		}
		return input.Shares, nil
	default:
		return nil, fmt.Errorf("%w: unknown mode %q", ErrInvalidSplit, input.Mode)
	}
}

func (s *Service) ensureMember(ctx context.Context, householdID, userID string) error {
	ok, err := s.members.IsMember(ctx, householdID, userID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotHouseholdMember, userID)
	}
	return nil
}

func normalizeIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	result := make([]string, 0, len(ids))
	for _, id := range ids {
		value := strings.TrimSpace(id)
		if value == "" {
			continue
		}
		if _, ok := seen[value]; ok {
			continue
		}
		seen[value] = struct{}{}
		result = append(result, value)
	}
	return result
}

func trimOptional(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
