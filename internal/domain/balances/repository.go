package balances

import (
	"context"

	"github.com/shopspring/decimal"
)

type Repository interface {
	Transaction(ctx context.Context, fn func(Repository) error) error
	LockHousehold(ctx context.Context, householdID string) error
	// ListUnsettledSplits returns unsettled splits joined with their expense
	// payer, most recent expense first.
	ListUnsettledSplits(ctx context.Context, householdID string) ([]Split, error)
	ListMembers(ctx context.Context, householdID string) ([]Member, error)
	// SettleSplit and ReduceSplit report false when the row no longer holds
	// expected or is already settled.
	SettleSplit(ctx context.Context, splitID string, expected decimal.Decimal) (bool, error)
	ReduceSplit(ctx context.Context, splitID string, expected, amountOwed decimal.Decimal) (bool, error)
	CreateSettlement(ctx context.Context, settlement *Settlement) error
	ListSettlements(ctx context.Context, householdID string, filter ListFilter) ([]Settlement, int64, error)
}

type Metrics interface {
	SettlementApplied(splitsTouched int)
	SettlementConflict()
}

type noopMetrics struct{}

func (noopMetrics) SettlementApplied(int) {}

func (noopMetrics) SettlementConflict() {}
