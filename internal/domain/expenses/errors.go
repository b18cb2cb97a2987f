package expenses

import "errors"

var (
	ErrExpenseNotFound    = errors.New("expense not found")
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrInvalidSplit       = errors.New("invalid split")
	ErrNotHouseholdMember = errors.New("user is not a household member")
)
