package expenses

import (
	"time"

	"github.com/shopspring/decimal"
)

type SplitMode string

const (
	SplitEqual  SplitMode = "equal"
	SplitCustom SplitMode = "custom"
)

type Expense struct {
	ID          string          `gorm:"type:uuid;primaryKey"`
	HouseholdID string          `gorm:"type:uuid;index;not null"`
	PaidBy      string          `gorm:"not null"`
	Date        time.Time       `gorm:"not null"`
	Amount      decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	Currency    string          `gorm:"size:3;not null"`
	Title       string          `gorm:"not null"`
	Category    *string         `gorm:"type:text"`
	CreatedBy   string          `gorm:"not null"`
	CreatedAt   time.Time       `gorm:"autoCreateTime"`
	UpdatedAt   time.Time       `gorm:"autoUpdateTime"`
}

type Split struct {
	ID         string          `gorm:"type:uuid;primaryKey"`
	ExpenseID  string          `gorm:"type:uuid;index;not null"`
	UserID     string          `gorm:"not null"`
	AmountOwed decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	IsSettled  bool            `gorm:"not null"`
	CreatedAt  time.Time       `gorm:"autoCreateTime"`
	UpdatedAt  time.Time       `gorm:"autoUpdateTime"`
}

func (Split) TableName() string {
	return "expense_splits"
}

type ExpenseWithSplits struct {
	Expense
	Splits []Split
}

type Share struct {
	UserID string
	Amount decimal.Decimal
}

type ListFilter struct {
	From   *time.Time
	To     *time.Time
	Limit  int
	Offset int
}

type CreateExpenseInput struct {
	HouseholdID  string
	ActorID      string
	PaidBy       string
	Date         time.Time
	Amount       decimal.Decimal
	Currency     string
	Title        string
	Category     *string
	Mode         SplitMode
	Participants []string
	Shares       []Share
}

type UpdateExpenseInput struct {
	ID            string
	HouseholdID   string
	Date          *time.Time
	Currency      *string
	Title         *string
	Category      *string
	ClearCategory bool
}
