package balances

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// halfCent absorbs the gap between a rounded balance and the exact sum of
// its sub-cent contributing splits.
var halfCent = decimal.New(5, -3)

// ApplySettlement decomposes a payment against balance into split updates,
// consuming the largest contributing splits first.
func ApplySettlement(balance NetBalance, amount decimal.Decimal, note string) (SettlementResult, error) {
	if amount.Sign() <= 0 || !amount.Equal(amount.Round(2)) {
		return SettlementResult{}, ErrInvalidSettlementAmount
	}
	if amount.GreaterThan(balance.Amount) {
		return SettlementResult{}, ErrAmountExceedsBalance
	}

	ordered := append([]Split(nil), balance.ContributingSplits...)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].AmountOwed.GreaterThan(ordered[j].AmountOwed)
	})

	remaining := amount
	updates := make([]SplitUpdate, 0, len(ordered))
	for _, split := range ordered {
		if !remaining.IsPositive() {
			break
		}
		owed := split.AmountOwed
		if remaining.GreaterThanOrEqual(owed) {
			updates = append(updates, SplitUpdate{
				SplitID:        split.ID,
				PreviousAmount: owed,
				NewAmountOwed:  owed,
				Settled:        true,
			})
			remaining = remaining.Sub(owed)
			continue
		}
		updates = append(updates, SplitUpdate{
			SplitID:        split.ID,
			PreviousAmount: owed,
			NewAmountOwed:  owed.Sub(remaining),
		})
		remaining = decimal.Zero
	}
	if remaining.GreaterThan(halfCent) {
		return SettlementResult{}, fmt.Errorf("%w: contributing splits cover %s less", ErrAmountExceedsBalance, remaining.StringFixed(2))
	}

	record := Settlement{
		FromMemberID: balance.FromMemberID,
		ToMemberID:   balance.ToMemberID,
		Amount:       amount,
	}
	if trimmed := strings.TrimSpace(note); trimmed != "" {
		record.Note = &trimmed
	}

	return SettlementResult{Updates: updates, Record: record}, nil
}
