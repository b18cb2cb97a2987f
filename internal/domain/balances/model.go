package balances

import (
	"time"

	"github.com/shopspring/decimal"
)

// Split is one unsettled obligation of OwerID towards PayerID for a single
// expense.
type Split struct {
	ID         string
	ExpenseID  string
	PayerID    string
	OwerID     string
	AmountOwed decimal.Decimal
	IsSettled  bool
	CreatedAt  time.Time
}

type Member struct {
	ID   string
	Name string
}

// NetBalance is the single directional amount FromMemberID owes ToMemberID
// after mutual debts are netted.
type NetBalance struct {
	FromMemberID       string
	FromName           string
	ToMemberID         string
	ToName             string
	Amount             decimal.Decimal
	ContributingSplits []Split
}

// SplitUpdate describes the write needed for one split after a settlement.
// PreviousAmount is the value the row must still hold for the write to apply.
type SplitUpdate struct {
	SplitID        string
	PreviousAmount decimal.Decimal
	NewAmountOwed  decimal.Decimal
	Settled        bool
}

type Settlement struct {
	ID           string          `gorm:"type:uuid;primaryKey"`
	HouseholdID  string          `gorm:"type:uuid;index;not null"`
	FromMemberID string          `gorm:"not null"`
	ToMemberID   string          `gorm:"not null"`
	Amount       decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	Note         *string
	CreatedBy    string    `gorm:"not null"`
	CreatedAt    time.Time `gorm:"autoCreateTime"`
}

type SettlementResult struct {
	Updates []SplitUpdate
	Record  Settlement
}

type MemberSummary struct {
	MemberID string
	Name     string
	Owed     decimal.Decimal
	Owes     decimal.Decimal
	Net      decimal.Decimal
}

type SettleInput struct {
	HouseholdID  string
	ActorID      string
	FromMemberID string
	ToMemberID   string
	Amount       decimal.Decimal
	Note         string
}

type ListFilter struct {
	Limit  int
	Offset int
}
