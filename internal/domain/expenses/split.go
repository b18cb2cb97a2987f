package expenses

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// EqualShares divides total between participants. Leftover cents go one at a
// time to the earliest participants.
func EqualShares(total decimal.Decimal, participants []string) ([]Share, error) {
	if len(participants) == 0 {
		return nil, fmt.Errorf("%w: at least one participant is required", ErrInvalidSplit)
	}

	cents := total.Shift(2).IntPart()
	n := int64(len(participants))
	base := cents / n
	remainder := cents % n

	shares := make([]Share, 0, len(participants))
	for i, userID := range participants {
		amount := base
		if int64(i) < remainder {
			amount++
		}
		shares = append(shares, Share{UserID: userID, Amount: decimal.New(amount, -2)})
	}
	return shares, nil
}

// ValidateShares checks custom shares against total.
func ValidateShares(total decimal.Decimal, shares []Share) error {
	if len(shares) == 0 {
		return fmt.Errorf("%w: at least one share is required", ErrInvalidSplit)
	}

	sum := decimal.Zero
	for _, share := range shares {
		if share.Amount.IsNegative() {
			return fmt.Errorf("%w: share for %s is negative", ErrInvalidSplit, share.UserID)
		}
		if !share.Amount.Equal(share.Amount.Round(2)) {
			return fmt.Errorf("%w: share for %s has more than 2 decimals", ErrInvalidSplit, share.UserID)
		}
		sum = sum.Add(share.Amount)
	}
	if !sum.Equal(total) {
		return fmt.Errorf("%w: shares sum to %s, expected %s", ErrInvalidSplit, sum.StringFixed(2), total.StringFixed(2))
	}
	return nil
}
