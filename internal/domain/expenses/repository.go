package expenses

import "context"

type Repository interface {
	Transaction(ctx context.Context, fn func(Repository) error) error
	ListExpenses(ctx context.Context, householdID string, filter ListFilter) ([]Expense, int64, error)
	GetExpenseByID(ctx context.Context, householdID, expenseID string) (*Expense, error)
	CreateExpense(ctx context.Context, expense *Expense) error
	CreateSplits(ctx context.Context, splits []Split) error
	ListSplitsByExpenseIDs(ctx context.Context, expenseIDs []string) (map[string][]Split, error)
	UpdateExpense(ctx context.Context, expense *Expense) error
	DeleteExpense(ctx context.Context, householdID, expenseID string) (bool, error)
}

type Members interface {
	IsMember(ctx context.Context, householdID, userID string) (bool, error)
}
