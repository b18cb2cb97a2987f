package chores

import (
	"context"
	"time"
)

type Repository interface {
	Transaction(ctx context.Context, fn func(Repository) error) error
	LockTemplate(ctx context.Context, templateID string) error

	ListChores(ctx context.Context, householdID string, filter ListFilter) ([]Chore, int64, error)
	ListOverdue(ctx context.Context, householdID string, now time.Time) ([]Chore, error)
	GetChore(ctx context.Context, householdID, choreID string) (*Chore, error)
	CreateChore(ctx context.Context, chore *Chore) error
	UpdateChore(ctx context.Context, chore *Chore) error
	SoftDeleteChore(ctx context.Context, householdID, choreID string) (bool, error)
	LatestChoreCreatedAt(ctx context.Context, templateID string) (*time.Time, error)

	ListTemplates(ctx context.Context, householdID string) ([]RecurringTemplate, error)
	// ListDueTemplates returns active templates scheduled at or before cutoff.
	ListDueTemplates(ctx context.Context, cutoff time.Time) ([]RecurringTemplate, error)
	GetTemplate(ctx context.Context, householdID, templateID string) (*RecurringTemplate, error)
	CreateTemplate(ctx context.Context, template *RecurringTemplate) error
	// UpdateTemplate writes template settings. next_creation_date is only
	// changed through SetNextCreationDate.
	UpdateTemplate(ctx context.Context, template *RecurringTemplate) error
	SetNextCreationDate(ctx context.Context, templateID string, next time.Time) error
	DeleteTemplate(ctx context.Context, householdID, templateID string) (bool, error)

	// GetCursor returns nil when the template has never been assigned.
	GetCursor(ctx context.Context, templateID string) (*RotationCursor, error)
	SaveCursor(ctx context.Context, cursor *RotationCursor) error
}

// Households resolves the household data chores depend on.
type Households interface {
	Location(ctx context.Context, householdID string) (*time.Location, error)
	Rotation(ctx context.Context, householdID string) (ordered []string, available map[string]bool, err error)
	IsMember(ctx context.Context, householdID, userID string) (bool, error)
}

// BatchLocker serializes recurring batch runs across processes.
type BatchLocker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (string, bool, error)
	Release(ctx context.Context, key, token string) error
}

type Metrics interface {
	RecurringRun(status string, duration time.Duration)
	RecurringTemplate(status string)
}

type noopMetrics struct{}

func (noopMetrics) RecurringRun(string, time.Duration) {}

func (noopMetrics) RecurringTemplate(string) {}
