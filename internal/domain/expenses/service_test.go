package expenses

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

type fakeExpensesRepo struct {
	expenses map[string]*Expense
	splits   map[string][]Split
	failOn   string
}

func newFakeExpensesRepo() *fakeExpensesRepo {
	return &fakeExpensesRepo{
		expenses: make(map[string]*Expense),
		splits:   make(map[string][]Split),
	}
}

func (r *fakeExpensesRepo) Transaction(ctx context.Context, fn func(Repository) error) error {
	expenses := make(map[string]*Expense, len(r.expenses))
	for id, expense := range r.expenses {
		expenses[id] = expense
	}
	splits := make(map[string][]Split, len(r.splits))
	for id, items := range r.splits {
		splits[id] = items
	}
	if err := fn(r); err != nil {
		r.expenses = expenses
		r.splits = splits
		return err
	}
	return nil
}

func (r *fakeExpensesRepo) ListExpenses(ctx context.Context, householdID string, filter ListFilter) ([]Expense, int64, error) {
	items := make([]Expense, 0)
	for _, expense := range r.expenses {
		if expense.HouseholdID != householdID {
			continue
		}
		if filter.From != nil && expense.Date.Before(*filter.From) {
			continue
		}
		if filter.To != nil && expense.Date.After(*filter.To) {
			continue
		}
		items = append(items, *expense)
	}

	sort.Slice(items, func(i, j int) bool {
		return items[i].Date.After(items[j].Date)
	})

	total := int64(len(items))
	if filter.Offset > 0 {
		if filter.Offset >= len(items) {
			return []Expense{}, total, nil
		}
		items = items[filter.Offset:]
	}
	if filter.Limit > 0 && filter.Limit < len(items) {
		items = items[:filter.Limit]
	}
	return items, total, nil
}

func (r *fakeExpensesRepo) GetExpenseByID(ctx context.Context, householdID, expenseID string) (*Expense, error) {
	expense, ok := r.expenses[expenseID]
	if !ok || expense.HouseholdID != householdID {
		return nil, ErrExpenseNotFound
	}
	clone := *expense
	return &clone, nil
}

func (r *fakeExpensesRepo) CreateExpense(ctx context.Context, expense *Expense) error {
	r.expenses[expense.ID] = expense
	return nil
}

func (r *fakeExpensesRepo) CreateSplits(ctx context.Context, splits []Split) error {
	for _, split := range splits {
		if split.UserID == r.failOn {
			return errors.New("insert failed")
		}
		r.splits[split.ExpenseID] = append(r.splits[split.ExpenseID], split)
	}
	return nil
}

func (r *fakeExpensesRepo) ListSplitsByExpenseIDs(ctx context.Context, expenseIDs []string) (map[string][]Split, error) {
	result := make(map[string][]Split, len(expenseIDs))
	for _, id := range expenseIDs {
		if items, ok := r.splits[id]; ok {
			result[id] = append([]Split{}, items...)
		}
	}
	return result, nil
}

func (r *fakeExpensesRepo) UpdateExpense(ctx context.Context, expense *Expense) error {
	if _, ok := r.expenses[expense.ID]; !ok {
		return ErrExpenseNotFound
	}
	r.expenses[expense.ID] = expense
	return nil
}

func (r *fakeExpensesRepo) DeleteExpense(ctx context.Context, householdID, expenseID string) (bool, error) {
	expense, ok := r.expenses[expenseID]
	if !ok || expense.HouseholdID != householdID {
		return false, nil
	}
	delete(r.expenses, expenseID)
	delete(r.splits, expenseID)
	return true, nil
}

type fakeMembers map[string]bool

func (m fakeMembers) IsMember(ctx context.Context, householdID, userID string) (bool, error) {
	return m[householdID+"/"+userID], nil
}

func newMembers(householdID string, userIDs ...string) fakeMembers {
	members := fakeMembers{}
	for _, id := range userIDs {
		members[householdID+"/"+id] = true
	}
	return members
}

func dec(value string) decimal.Decimal {
	return decimal.RequireFromString(value)
}

func TestCreateExpenseEqualSplit(t *testing.T) {
	repo := newFakeExpensesRepo()
	service := NewService(repo, newMembers("hh-1", "alice", "bob"))

	created, err := service.CreateExpense(context.Background(), CreateExpenseInput{
		HouseholdID:  "hh-1",
		ActorID:      "alice",
		PaidBy:       "alice",
		Date:         time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		Amount:       dec("100"),
		Currency:     "eur",
		Title:        "  Groceries ",
		Mode:         SplitEqual,
		Participants: []string{"alice", "bob"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created.Title != "Groceries" {
		t.Fatalf("expected trimmed title, got %q", created.Title)
	}
	if created.Currency != "EUR" {
		t.Fatalf("expected EUR, got %q", created.Currency)
	}
	if len(created.Splits) != 2 {
		t.Fatalf("expected 2 splits, got %d", len(created.Splits))
	}

	for _, split := range created.Splits {
		if !split.AmountOwed.Equal(dec("50")) {
			t.Fatalf("expected 50 owed by %s, got %s", split.UserID, split.AmountOwed)
		}
		if split.UserID == "alice" && !split.IsSettled {
			t.Fatalf("expected payer split to be settled")
		}
		if split.UserID == "bob" && split.IsSettled {
			t.Fatalf("expected bob's split to be unsettled")
		}
	}
	if len(repo.splits[created.ID]) != 2 {
		t.Fatalf("expected splits persisted, got %d", len(repo.splits[created.ID]))
	}
}

func TestEqualSharesRemainderGoesToEarliest(t *testing.T) {
	shares, err := EqualShares(dec("10"), []string{"a", "b", "c"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	expected := []string{"3.34", "3.33", "3.33"}
	sum := decimal.Zero
	for i, share := range shares {
		if !share.Amount.Equal(dec(expected[i])) {
			t.Fatalf("expected share %d to be %s, got %s", i, expected[i], share.Amount)
		}
		sum = sum.Add(share.Amount)
	}
	if !sum.Equal(dec("10")) {
		t.Fatalf("expected shares to sum to 10, got %s", sum)
	}
}

func TestEqualSharesRequiresParticipants(t *testing.T) {
	if _, err := EqualShares(dec("10"), nil); !errors.Is(err, ErrInvalidSplit) {
		t.Fatalf("expected ErrInvalidSplit, got %v", err)
	}
}

func TestCreateExpenseCustomSplit(t *testing.T) {
	repo := newFakeExpensesRepo()
	service := NewService(repo, newMembers("hh-1", "alice", "bob", "carol"))

	created, err := service.CreateExpense(context.Background(), CreateExpenseInput{
		HouseholdID: "hh-1",
		ActorID:     "bob",
		PaidBy:      "bob",
		Date:        time.Now(),
		Amount:      dec("30.50"),
		Currency:    "USD",
		Title:       "Pizza",
		Mode:        SplitCustom,
		Shares: []Share{
			{UserID: "alice", Amount: dec("10.25")},
			{UserID: "carol", Amount: dec("20.25")},
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, split := range created.Splits {
		if split.IsSettled {
			t.Fatalf("expected %s's split to be unsettled", split.UserID)
		}
	}
}

func TestCreateExpenseCustomSplitMustSum(t *testing.T) {
	service := NewService(newFakeExpensesRepo(), newMembers("hh-1", "alice", "bob"))

	_, err := service.CreateExpense(context.Background(), CreateExpenseInput{
		HouseholdID: "hh-1",
		PaidBy:      "alice",
		Amount:      dec("30"),
		Currency:    "USD",
		Title:       "Pizza",
		Mode:        SplitCustom,
		Shares: []Share{
			{UserID: "alice", Amount: dec("10")},
			{UserID: "bob", Amount: dec("10")},
		},
	})
	if !errors.Is(err, ErrInvalidSplit) {
		t.Fatalf("expected ErrInvalidSplit, got %v", err)
	}
}

func TestCreateExpenseRejectsBadAmounts(t *testing.T) {
	service := NewService(newFakeExpensesRepo(), newMembers("hh-1", "alice"))

	for _, amount := range []string{"0", "-5", "1.005"} {
		_, err := service.CreateExpense(context.Background(), CreateExpenseInput{
			HouseholdID:  "hh-1",
			PaidBy:       "alice",
			Amount:       dec(amount),
			Currency:     "USD",
			Title:        "Thing",
			Participants: []string{"alice"},
		})
		if !errors.Is(err, ErrInvalidAmount) {
			t.Fatalf("expected ErrInvalidAmount for %s, got %v", amount, err)
		}
	}
}

func TestCreateExpenseRejectsNonMember(t *testing.T) {
	service := NewService(newFakeExpensesRepo(), newMembers("hh-1", "alice"))

	_, err := service.CreateExpense(context.Background(), CreateExpenseInput{
		HouseholdID:  "hh-1",
		PaidBy:       "alice",
		Amount:       dec("20"),
		Currency:     "USD",
		Title:        "Thing",
		Participants: []string{"alice", "mallory"},
	})
	if !errors.Is(err, ErrNotHouseholdMember) {
		t.Fatalf("expected ErrNotHouseholdMember, got %v", err)
	}
}

func TestCreateExpenseRollsBackOnSplitFailure(t *testing.T) {
	repo := newFakeExpensesRepo()
	repo.failOn = "bob"
	service := NewService(repo, newMembers("hh-1", "alice", "bob"))

	_, err := service.CreateExpense(context.Background(), CreateExpenseInput{
		HouseholdID:  "hh-1",
		PaidBy:       "alice",
		Amount:       dec("20"),
		Currency:     "USD",
		Title:        "Thing",
		Participants: []string{"alice", "bob"},
	})
	if err == nil {
		t.Fatalf("expected error")
	}
	if len(repo.expenses) != 0 {
		t.Fatalf("expected no expenses after rollback, got %d", len(repo.expenses))
	}
}

func TestListExpensesAttachesSplits(t *testing.T) {
	repo := newFakeExpensesRepo()
	service := NewService(repo, newMembers("hh-1", "alice", "bob"))

	for i, title := range []string{"First", "Second"} {
		_, err := service.CreateExpense(context.Background(), CreateExpenseInput{
			HouseholdID:  "hh-1",
			PaidBy:       "alice",
			Date:         time.Date(2025, 1, i+1, 0, 0, 0, 0, time.UTC),
			Amount:       dec("10"),
			Currency:     "USD",
			Title:        title,
			Participants: []string{"alice", "bob"},
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	items, total, err := service.ListExpenses(context.Background(), "hh-1", ListFilter{Limit: 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 2 {
		t.Fatalf("expected total 2, got %d", total)
	}
	if len(items) != 1 || items[0].Title != "Second" {
		t.Fatalf("expected newest expense first, got %+v", items)
	}
	if len(items[0].Splits) != 2 {
		t.Fatalf("expected 2 splits, got %d", len(items[0].Splits))
	}
}

func TestUpdateExpenseClearsCategory(t *testing.T) {
	repo := newFakeExpensesRepo()
	service := NewService(repo, newMembers("hh-1", "alice"))
	category := "food"

	created, err := service.CreateExpense(context.Background(), CreateExpenseInput{
		HouseholdID:  "hh-1",
		PaidBy:       "alice",
		Amount:       dec("10"),
		Currency:     "USD",
		Title:        "Lunch",
		Category:     &category,
		Participants: []string{"alice"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	title := "Dinner"
	updated, err := service.UpdateExpense(context.Background(), UpdateExpenseInput{
		ID:            created.ID,
		HouseholdID:   "hh-1",
		Title:         &title,
		ClearCategory: true,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Title != "Dinner" || updated.Category != nil {
		t.Fatalf("unexpected expense after update: %+v", updated.Expense)
	}
}

func TestUpdateExpenseRequiresFields(t *testing.T) {
	service := NewService(newFakeExpensesRepo(), newMembers("hh-1"))
	if _, err := service.UpdateExpense(context.Background(), UpdateExpenseInput{ID: "x", HouseholdID: "hh-1"}); err == nil {
		t.Fatalf("expected error")
	}
}

func TestDeleteExpenseNotFound(t *testing.T) {
	service := NewService(newFakeExpensesRepo(), newMembers("hh-1"))
	if err := service.DeleteExpense(context.Background(), "hh-1", "missing"); !errors.Is(err, ErrExpenseNotFound) {
		t.Fatalf("expected ErrExpenseNotFound, got %v", err)
	}
}
