package household

import "errors"

var (
	ErrHouseholdNotFound     = errors.New("household not found")
	ErrHouseholdCodeNotFound = errors.New("household code not found")
	ErrAlreadyInHousehold    = errors.New("already in household")
	ErrMemberNotFound        = errors.New("member not found")
	ErrNotOwner              = errors.New("not owner")
	ErrCannotRemoveOwner     = errors.New("cannot remove owner")
	ErrOwnerMustTransfer     = errors.New("owner must transfer ownership before leaving")
	ErrCodeGenerationFailed  = errors.New("household code generation failed")
	ErrInvalidTimezone       = errors.New("invalid timezone")
	ErrInvalidRotationOrder  = errors.New("invalid rotation order")
)
