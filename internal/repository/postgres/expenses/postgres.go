package expenses

import (
	"context"
	"errors"

	"gorm.io/gorm"
	expensesdomain "household-app-go/internal/domain/expenses"
)

type PostgresRepository struct {
	db *gorm.DB
}

func NewPostgres(db *gorm.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Transaction(ctx context.Context, fn func(expensesdomain.Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&PostgresRepository{db: tx})
	})
}

func (r *PostgresRepository) ListExpenses(ctx context.Context, householdID string, filter expensesdomain.ListFilter) ([]expensesdomain.Expense, int64, error) {
	query := r.db.WithContext(ctx).Model(&expensesdomain.Expense{}).Where("household_id = ?", householdID)
	if filter.From != nil {
		query = query.Where("date >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("date <= ?", *filter.To)
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = query.Order("date desc, created_at desc")
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		query = query.Offset(filter.Offset)
	}

	var items []expensesdomain.Expense
	if err := query.Find(&items).Error; err != nil {
		return nil, 0, err
	}

	return items, total, nil
}

func (r *PostgresRepository) GetExpenseByID(ctx context.Context, householdID, expenseID string) (*expensesdomain.Expense, error) {
	var expense expensesdomain.Expense
	if err := r.db.WithContext(ctx).
		Where("household_id = ? AND id = ?", householdID, expenseID).
		First(&expense).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, expensesdomain.ErrExpenseNotFound
		}
		return nil, err
	}
	return &expense, nil
}

func (r *PostgresRepository) CreateExpense(ctx context.Context, expense *expensesdomain.Expense) error {
	return r.db.WithContext(ctx).Create(expense).Error
}

func (r *PostgresRepository) CreateSplits(ctx context.Context, splits []expensesdomain.Split) error {
	if len(splits) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&splits).Error
}

func (r *PostgresRepository) ListSplitsByExpenseIDs(ctx context.Context, expenseIDs []string) (map[string][]expensesdomain.Split, error) {
	result := make(map[string][]expensesdomain.Split, len(expenseIDs))
	if len(expenseIDs) == 0 {
		return result, nil
	}

	var rows []expensesdomain.Split
	if err := r.db.WithContext(ctx).
		Where("expense_id IN ?", expenseIDs).
		Order("created_at asc, user_id asc").
		Find(&rows).Error; err != nil {
		return nil, err
	}

	for _, row := range rows {
		result[row.ExpenseID] = append(result[row.ExpenseID], row)
	}
	return result, nil
}

func (r *PostgresRepository) UpdateExpense(ctx context.Context, expense *expensesdomain.Expense) error {
	return r.db.WithContext(ctx).
		Model(&expensesdomain.Expense{}).
		Where("id = ? AND household_id = ?", expense.ID, expense.HouseholdID).
		Updates(map[string]interface{}{
			"date":       expense.Date,
			"currency":   expense.Currency,
			"title":      expense.Title,
			"category":   expense.Category,
			"updated_at": expense.UpdatedAt,
		}).Error
}

func (r *PostgresRepository) DeleteExpense(ctx context.Context, householdID, expenseID string) (bool, error) {
	result := r.db.WithContext(ctx).Delete(&expensesdomain.Expense{}, "household_id = ? AND id = ?", householdID, expenseID)
	return result.RowsAffected > 0, result.Error
}
