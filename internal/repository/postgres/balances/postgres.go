package balances

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	balancesdomain "household-app-go/internal/domain/balances"
)

type PostgresRepository struct {
	db *gorm.DB
}

func NewPostgres(db *gorm.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Transaction(ctx context.Context, fn func(balancesdomain.Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&PostgresRepository{db: tx})
	})
}

// LockHousehold takes a transaction scoped advisory lock so concurrent
// settlements in one household apply one after another.
func (r *PostgresRepository) LockHousehold(ctx context.Context, householdID string) error {
	return r.db.WithContext(ctx).Exec("SELECT pg_advisory_xact_lock(hashtext(?))", "balances:"+householdID).Error
}

func (r *PostgresRepository) ListUnsettledSplits(ctx context.Context, householdID string) ([]balancesdomain.Split, error) {
	type splitRow struct {
		ID         string          `gorm:"column:id"`
		ExpenseID  string          `gorm:"column:expense_id"`
		PayerID    string          `gorm:"column:paid_by"`
		OwerID     string          `gorm:"column:user_id"`
		AmountOwed decimal.Decimal `gorm:"column:amount_owed"`
		IsSettled  bool            `gorm:"column:is_settled"`
		CreatedAt  time.Time       `gorm:"column:created_at"`
	}

	var rows []splitRow
	if err := r.db.WithContext(ctx).
		Table("expense_splits").
		Select("expense_splits.id, expense_splits.expense_id, expenses.paid_by, expense_splits.user_id, expense_splits.amount_owed, expense_splits.is_settled, expense_splits.created_at").
		Joins("join expenses on expenses.id = expense_splits.expense_id").
		Where("expenses.household_id = ? AND expense_splits.is_settled = ?", householdID, false).
		Order("expenses.date desc, expenses.created_at desc, expense_splits.id asc").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	splits := make([]balancesdomain.Split, 0, len(rows))
	for _, row := range rows {
		splits = append(splits, balancesdomain.Split{
			ID:         row.ID,
			ExpenseID:  row.ExpenseID,
			PayerID:    row.PayerID,
			OwerID:     row.OwerID,
			AmountOwed: row.AmountOwed,
			IsSettled:  row.IsSettled,
			CreatedAt:  row.CreatedAt,
		})
	}
	return splits, nil
}

func (r *PostgresRepository) ListMembers(ctx context.Context, householdID string) ([]balancesdomain.Member, error) {
	var rows []struct {
		ID   string `gorm:"column:id"`
		Name string `gorm:"column:name"`
	}
	if err := r.db.WithContext(ctx).
		Table("household_members").
		Select("household_members.user_id as id, COALESCE(user_profiles.display_name, user_profiles.email, household_members.user_id) as name").
		Joins("left join user_profiles on user_profiles.user_id = household_members.user_id").
		Where("household_members.household_id = ?", householdID).
		Order("household_members.joined_at asc").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	members := make([]balancesdomain.Member, 0, len(rows))
	for _, row := range rows {
		members = append(members, balancesdomain.Member{ID: row.ID, Name: row.Name})
	}
	return members, nil
}

func (r *PostgresRepository) SettleSplit(ctx context.Context, splitID string, expected decimal.Decimal) (bool, error) {
	result := r.db.WithContext(ctx).
		Table("expense_splits").
		Where("id = ? AND is_settled = ? AND amount_owed = ?", splitID, false, expected).
		Updates(map[string]interface{}{
			"is_settled": true,
			"updated_at": time.Now().UTC(),
		})
	return result.RowsAffected > 0, result.Error
}

func (r *PostgresRepository) ReduceSplit(ctx context.Context, splitID string, expected, amountOwed decimal.Decimal) (bool, error) {
	result := r.db.WithContext(ctx).
		Table("expense_splits").
		Where("id = ? AND is_settled = ? AND amount_owed = ?", splitID, false, expected).
		Updates(map[string]interface{}{
			"amount_owed": amountOwed,
			"updated_at":  time.Now().UTC(),
		})
	return result.RowsAffected > 0, result.Error
}

func (r *PostgresRepository) CreateSettlement(ctx context.Context, settlement *balancesdomain.Settlement) error {
	return r.db.WithContext(ctx).Create(settlement).Error
}

func (r *PostgresRepository) ListSettlements(ctx context.Context, householdID string, filter balancesdomain.ListFilter) ([]balancesdomain.Settlement, int64, error) {
	query := r.db.WithContext(ctx).Model(&balancesdomain.Settlement{}).Where("household_id = ?", householdID)

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = query.Order("created_at desc")
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		query = query.Offset(filter.Offset)
	}

	var items []balancesdomain.Settlement
	if err := query.Find(&items).Error; err != nil {
		return nil, 0, err
	}
	return items, total, nil
}
