package balances

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"household-app-go/pkg/logger"
)

const (
	defaultSettlementsLimit = 50
	maxSettlementsLimit     = 200
)

type Service struct {
	repo    Repository
	metrics Metrics
	log     logger.Logger
	now     func() time.Time
}

func NewService(repo Repository, metrics Metrics, log logger.Logger) *Service {
	if metrics == nil {
		metrics = noopMetrics{}
	}
	return &Service{
		repo:    repo,
		metrics: metrics,
		log:     log,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (s *Service) GetBalances(ctx context.Context, householdID string) ([]NetBalance, error) {
	return s.computeBalances(ctx, s.repo, householdID)
}

func (s *Service) Summary(ctx context.Context, householdID string) ([]MemberSummary, error) {
	members, err := s.repo.ListMembers(ctx, householdID)
	if err != nil {
		return nil, err
	}
	splits, err := s.repo.ListUnsettledSplits(ctx, householdID)
	if err != nil {
		return nil, err
	}

	balances, skipped := ComputeNetBalances(splits, members)
	s.logSkipped(householdID, skipped)
	return Summarize(balances, members), nil
}

// Settle applies a payment from one member to another. The read, decompose
// and write sequence runs under a per-household lock and every split write is
// conditional on the amount read, so the settlement lands entirely or not at
// all.
func (s *Service) Settle(ctx context.Context, input SettleInput) (*Settlement, error) {
	if input.FromMemberID == input.ToMemberID {
		return nil, ErrSameMember
	}
	if input.Amount.Sign() <= 0 {
		return nil, ErrInvalidSettlementAmount
	}

	var record Settlement
	touched := 0
	err := s.repo.Transaction(ctx, func(tx Repository) error {
		if err := tx.LockHousehold(ctx, input.HouseholdID); err != nil {
			return err
		}

		balances, err := s.computeBalances(ctx, tx, input.HouseholdID)
		if err != nil {
			return err
		}

		balance, ok := FindBalance(balances, input.FromMemberID, input.ToMemberID)
		if !ok {
			return ErrBalanceNotFound
		}

		result, err := ApplySettlement(balance, input.Amount, input.Note)
		if err != nil {
			return err
		}

		for _, update := range result.Updates {
			var applied bool
			if update.Settled {
				applied, err = tx.SettleSplit(ctx, update.SplitID, update.PreviousAmount)
			} else {
				applied, err = tx.ReduceSplit(ctx, update.SplitID, update.PreviousAmount, update.NewAmountOwed)
			}
			if err != nil {
				return fmt.Errorf("update split %s: %w", update.SplitID, err)
			}
			if !applied {
				return fmt.Errorf("split %s: %w", update.SplitID, ErrStaleBalance)
			}
		}

		record = result.Record
		record.ID = uuid.NewString()
		record.HouseholdID = input.HouseholdID
		record.CreatedBy = input.ActorID
		record.CreatedAt = s.now()
		if err := tx.CreateSettlement(ctx, &record); err != nil {
			return fmt.Errorf("create settlement: %w", err)
		}

		touched = len(result.Updates)
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrStaleBalance) {
			s.metrics.SettlementConflict()
		}
		return nil, err
	}

	s.metrics.SettlementApplied(touched)
	s.log.Info("balances.settle: settlement recorded",
		"household_id", input.HouseholdID,
		"settlement_id", record.ID,
		"from_member_id", record.FromMemberID,
		"to_member_id", record.ToMemberID,
		"amount", record.Amount.StringFixed(2),
		"splits_touched", touched,
	)
	return &record, nil
}

func (s *Service) ListSettlements(ctx context.Context, householdID string, filter ListFilter) ([]Settlement, int64, error) {
	if filter.Limit <= 0 {
		filter.Limit = defaultSettlementsLimit
	}
	if filter.Limit > maxSettlementsLimit {
		filter.Limit = maxSettlementsLimit
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	return s.repo.ListSettlements(ctx, householdID, filter)
}

func (s *Service) computeBalances(ctx context.Context, repo Repository, householdID string) ([]NetBalance, error) {
	splits, err := repo.ListUnsettledSplits(ctx, householdID)
	if err != nil {
		return nil, err
	}
	members, err := repo.ListMembers(ctx, householdID)
	if err != nil {
		return nil, err
	}

	balances, skipped := ComputeNetBalances(splits, members)
	s.logSkipped(householdID, skipped)
	return balances, nil
}

func (s *Service) logSkipped(householdID string, skipped []Split) {
	for _, split := range skipped {
		s.log.Warn("balances.compute: split references unknown member",
			"household_id", householdID,
			"split_id", split.ID,
			"expense_id", split.ExpenseID,
			"payer_id", split.PayerID,
			"ower_id", split.OwerID,
		)
	}
}
