package balances

import "errors"

var (
	ErrInvalidSettlementAmount = errors.New("settlement amount must be positive")
	ErrAmountExceedsBalance    = errors.New("amount exceeds balance")
	ErrBalanceNotFound         = errors.New("balance not found")
	ErrStaleBalance            = errors.New("balance changed during settlement")
	ErrSameMember              = errors.New("cannot settle with yourself")
)
