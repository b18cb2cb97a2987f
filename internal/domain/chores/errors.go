package chores

import "errors"

var (
	ErrChoreNotFound         = errors.New("chore not found")
	ErrTemplateNotFound      = errors.New("recurring template not found")
	ErrInvalidRecurrence     = errors.New("invalid recurrence")
	ErrNoEligibleMember      = errors.New("no eligible member")
	ErrAssigneeNotMember     = errors.New("assignee is not a household member")
	ErrFixedAssigneeRequired = errors.New("fixed assignee is required when rotation is disabled")
	ErrBatchInProgress       = errors.New("recurring batch already running")
)
