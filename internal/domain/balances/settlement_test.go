package balances

import (
	"errors"
	"fmt"
	"math/rand"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func balanceOf(splits ...Split) NetBalance {
	total := decimal.Zero
	for _, s := range splits {
		total = total.Add(s.AmountOwed)
	}
	return NetBalance{
		FromMemberID:       splits[0].OwerID,
		ToMemberID:         splits[0].PayerID,
		Amount:             total,
		ContributingSplits: splits,
	}
}

func TestApplySettlementPartialOnSingleSplit(t *testing.T) {
	balance := balanceOf(split("s2", "user-1", "user-2", "50"))

	result, err := ApplySettlement(balance, d("20"), "  cash  ")

	require.NoError(t, err)
	require.Len(t, result.Updates, 1)
	update := result.Updates[0]
	assert.Equal(t, "s2", update.SplitID)
	assert.False(t, update.Settled)
	assert.Equal(t, "30.00", update.NewAmountOwed.StringFixed(2))
	assert.Equal(t, "50.00", update.PreviousAmount.StringFixed(2))
	assert.Equal(t, "user-2", result.Record.FromMemberID)
	assert.Equal(t, "user-1", result.Record.ToMemberID)
	assert.Equal(t, "20.00", result.Record.Amount.StringFixed(2))
	require.NotNil(t, result.Record.Note)
	assert.Equal(t, "cash", *result.Record.Note)
}

func TestApplySettlementLargestFirst(t *testing.T) {
	balance := balanceOf(
		split("small", "user-1", "user-2", "5"),
		split("large", "user-1", "user-2", "40"),
		split("mid", "user-1", "user-2", "15"),
	)

	result, err := ApplySettlement(balance, d("50"), "")

	require.NoError(t, err)
	require.Len(t, result.Updates, 2)
	assert.Equal(t, "large", result.Updates[0].SplitID)
	assert.True(t, result.Updates[0].Settled)
	assert.Equal(t, "mid", result.Updates[1].SplitID)
	assert.False(t, result.Updates[1].Settled)
	assert.Equal(t, "5.00", result.Updates[1].NewAmountOwed.StringFixed(2))
	assert.Nil(t, result.Record.Note)
}

func TestApplySettlementExactSplitIsSettled(t *testing.T) {
	balance := balanceOf(
		split("a", "user-1", "user-2", "25"),
		split("b", "user-1", "user-2", "10"),
	)

	result, err := ApplySettlement(balance, d("25"), "")

	require.NoError(t, err)
	require.Len(t, result.Updates, 1)
	assert.Equal(t, "a", result.Updates[0].SplitID)
	assert.True(t, result.Updates[0].Settled)
}

func TestApplySettlementValidation(t *testing.T) {
	balance := balanceOf(split("a", "user-1", "user-2", "10"))

	cases := []struct {
		amount string
		want   error
	}{
		{amount: "0", want: ErrInvalidSettlementAmount},
		{amount: "-5", want: ErrInvalidSettlementAmount},
		{amount: "0.004", want: ErrInvalidSettlementAmount},
		{amount: "10.01", want: ErrAmountExceedsBalance},
	}
	for _, tc := range cases {
		t.Run(tc.amount, func(t *testing.T) {
			_, err := ApplySettlement(balance, d(tc.amount), "")
			assert.True(t, errors.Is(err, tc.want), "got %v", err)
		})
	}
}

func TestApplySettlementRejectsSubCentAmount(t *testing.T) {
	balance := balanceOf(split("a", "user-1", "user-2", "50"))

	for _, amount := range []string{"10.004", "20.005"} {
		_, err := ApplySettlement(balance, d(amount), "")
		assert.True(t, errors.Is(err, ErrInvalidSettlementAmount), "amount %s: got %v", amount, err)
	}
}

func TestApplySettlementKeepsRequestedAmount(t *testing.T) {
	balance := balanceOf(split("a", "user-1", "user-2", "50"))

	result, err := ApplySettlement(balance, d("20.01"), "")

	require.NoError(t, err)
	assert.True(t, result.Record.Amount.Equal(d("20.01")), "record %s", result.Record.Amount)
	assert.Equal(t, "29.99", result.Updates[0].NewAmountOwed.StringFixed(2))
}

func TestApplySettlementSubCentSplits(t *testing.T) {
	balances, _ := ComputeNetBalances([]Split{
		split("a", "user-1", "user-2", "10.005"),
		split("b", "user-1", "user-2", "10.005"),
	}, testMembers)
	require.Len(t, balances, 1)
	require.Equal(t, "20.01", balances[0].Amount.StringFixed(2))

	result, err := ApplySettlement(balances[0], balances[0].Amount, "")

	require.NoError(t, err)
	require.Len(t, result.Updates, 2)
	for _, update := range result.Updates {
		assert.True(t, update.Settled)
		assert.True(t, update.PreviousAmount.Equal(d("10.005")), "previous %s", update.PreviousAmount)
	}
	assert.True(t, result.Record.Amount.Equal(d("20.01")))
}

func TestApplySettlementAfterNettingScenario(t *testing.T) {
	payerSplit := split("s1", "user-1", "user-1", "50")
	payerSplit.IsSettled = true
	balances, _ := ComputeNetBalances([]Split{payerSplit, split("s2", "user-1", "user-2", "50")}, testMembers)
	require.Len(t, balances, 1)

	result, err := ApplySettlement(balances[0], d("20"), "")

	require.NoError(t, err)
	require.Len(t, result.Updates, 1)
	assert.Equal(t, "s2", result.Updates[0].SplitID)
	assert.Equal(t, "30.00", result.Updates[0].NewAmountOwed.StringFixed(2))
	assert.False(t, result.Updates[0].Settled)
}

func TestApplySettlementConservation(t *testing.T) {
	rng := rand.New(rand.NewSource(99))
	for iteration := 0; iteration < 500; iteration++ {
		var splits []Split
		count := 1 + rng.Intn(6)
		for i := 0; i < count; i++ {
			splits = append(splits, Split{
				ID:         fmt.Sprintf("s%d", i),
				PayerID:    "user-1",
				OwerID:     "user-2",
				AmountOwed: decimal.New(1+rng.Int63n(10000), -2),
			})
		}
		balance := balanceOf(splits...)
		total := balance.Amount.Shift(2).IntPart()
		paid := 1 + rng.Int63n(total)

		result, err := ApplySettlement(balance, decimal.New(paid, -2), "")
		require.NoError(t, err, "iteration %d", iteration)

		reduced := decimal.Zero
		for i, update := range result.Updates {
			if update.Settled {
				reduced = reduced.Add(update.PreviousAmount)
			} else {
				require.Equal(t, len(result.Updates)-1, i, "partial update must be last")
				reduced = reduced.Add(update.PreviousAmount.Sub(update.NewAmountOwed))
				require.True(t, update.NewAmountOwed.IsPositive())
			}
		}
		assert.True(t, decimal.New(paid, -2).Equal(reduced), "iteration %d: paid %d reduced %s", iteration, paid, reduced)
	}
}

func TestApplySettlementFullAmountSettlesEverything(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	for iteration := 0; iteration < 200; iteration++ {
		var splits []Split
		count := 1 + rng.Intn(6)
		for i := 0; i < count; i++ {
			splits = append(splits, Split{
				ID:         fmt.Sprintf("s%d", i),
				PayerID:    "user-1",
				OwerID:     "user-3",
				AmountOwed: decimal.New(1+rng.Int63n(10000), -2),
			})
		}
		balance := balanceOf(splits...)

		result, err := ApplySettlement(balance, balance.Amount, "")
		require.NoError(t, err)
		require.Len(t, result.Updates, len(splits))
		for _, update := range result.Updates {
			assert.True(t, update.Settled, "iteration %d split %s", iteration, update.SplitID)
		}
	}
}

func TestApplySettlementDoesNotMutateInput(t *testing.T) {
	splits := []Split{
		split("small", "user-1", "user-2", "5"),
		split("large", "user-1", "user-2", "40"),
	}
	balance := balanceOf(splits...)

	_, err := ApplySettlement(balance, d("10"), "")

	require.NoError(t, err)
	assert.Equal(t, "small", balance.ContributingSplits[0].ID)
}
