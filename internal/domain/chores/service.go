package chores

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"household-app-go/pkg/logger"
)

const (
	defaultListLimit    = 50
	maxListLimit        = 200
	maxPreviewCount     = 50
	defaultBatchLockTTL = 5 * time.Minute
)

type Options struct {
	Locker       BatchLocker
	BatchLockTTL time.Duration
	Metrics      Metrics
	Logger       logger.Logger
}

type Service struct {
	repo         Repository
	households   Households
	locker       BatchLocker
	batchLockTTL time.Duration
	metrics      Metrics
	log          logger.Logger
	now          func() time.Time
}

func NewService(repo Repository, households Households, opts Options) *Service {
	if opts.Metrics == nil {
		opts.Metrics = noopMetrics{}
	}
	if opts.Logger == nil {
		opts.Logger = logger.Nop()
	}
	if opts.BatchLockTTL <= 0 {
		opts.BatchLockTTL = defaultBatchLockTTL
	}
	return &Service{
		repo:         repo,
		households:   households,
		locker:       opts.Locker,
		batchLockTTL: opts.BatchLockTTL,
		metrics:      opts.Metrics,
		log:          opts.Logger,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

func (s *Service) ListChores(ctx context.Context, householdID string, filter ListFilter) ([]Chore, int64, error) {
	if filter.Limit <= 0 {
		filter.Limit = defaultListLimit
	}
	if filter.Limit > maxListLimit {
		filter.Limit = maxListLimit
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	return s.repo.ListChores(ctx, householdID, filter)
}

func (s *Service) ListOverdue(ctx context.Context, householdID string) ([]Chore, error) {
	return s.repo.ListOverdue(ctx, householdID, s.now())
}

func (s *Service) CreateChore(ctx context.Context, input CreateChoreInput) (*Chore, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, fmt.Errorf("title is required")
	}
	if err := s.ensureMember(ctx, input.HouseholdID, input.AssignedTo); err != nil {
		return nil, err
	}

	actor := input.ActorID
	chore := Chore{
		ID:          uuid.NewString(),
		HouseholdID: input.HouseholdID,
		Title:       title,
		Description: trimOptional(input.Description),
		AssignedTo:  input.AssignedTo,
		DueDate:     input.DueDate,
		CreatedBy:   &actor,
	}
	if err := s.repo.CreateChore(ctx, &chore); err != nil {
		return nil, err
	}
	return &chore, nil
}

func (s *Service) UpdateChore(ctx context.Context, input UpdateChoreInput) (*Chore, error) {
	if input.Title == nil && input.Description == nil && input.AssignedTo == nil && !input.ClearAssignee && input.DueDate == nil && !input.ClearDueDate {
		return nil, fmt.Errorf("no fields to update")
	}

	chore, err := s.repo.GetChore(ctx, input.HouseholdID, input.ID)
	if err != nil {
		return nil, err
	}

	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			return nil, fmt.Errorf("title is required")
		}
		chore.Title = title
	}
	if input.Description != nil {
		chore.Description = trimOptional(input.Description)
	}
	switch {
	case input.ClearAssignee:
		chore.AssignedTo = nil
	case input.AssignedTo != nil:
		if err := s.ensureMember(ctx, input.HouseholdID, input.AssignedTo); err != nil {
			return nil, err
		}
		chore.AssignedTo = input.AssignedTo
	}
	switch {
	case input.ClearDueDate:
		chore.DueDate = nil
	case input.DueDate != nil:
		chore.DueDate = input.DueDate
	}

	if err := s.repo.UpdateChore(ctx, chore); err != nil {
		return nil, err
	}
	return chore, nil
}

func (s *Service) SetCompleted(ctx context.Context, householdID, choreID, actorID string, completed bool) (*Chore, error) {
	chore, err := s.repo.GetChore(ctx, householdID, choreID)
	if err != nil {
		return nil, err
	}
	if chore.IsCompleted == completed {
		return chore, nil
	}

	chore.IsCompleted = completed
	if completed {
		now := s.now()
		actor := actorID
		chore.CompletedAt = &now
		chore.CompletedBy = &actor
	} else {
		chore.CompletedAt = nil
		chore.CompletedBy = nil
	}

	if err := s.repo.UpdateChore(ctx, chore); err != nil {
		return nil, err
	}
	return chore, nil
}

func (s *Service) DeleteChore(ctx context.Context, householdID, choreID string) error {
	deleted, err := s.repo.SoftDeleteChore(ctx, householdID, choreID)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrChoreNotFound
	}
	return nil
}

func (s *Service) ListTemplates(ctx context.Context, householdID string) ([]RecurringTemplate, error) {
	return s.repo.ListTemplates(ctx, householdID)
}

func (s *Service) CreateTemplate(ctx context.Context, input CreateTemplateInput) (*RecurringTemplate, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, fmt.Errorf("title is required")
	}
	if err := validateRecurrence(input.RecurrenceUnit, input.Interval); err != nil {
		return nil, err
	}
	if !input.UseRotation && input.FixedAssignee == nil {
		return nil, ErrFixedAssigneeRequired
	}
	if err := s.ensureMember(ctx, input.HouseholdID, input.FixedAssignee); err != nil {
		return nil, err
	}

	loc, err := s.households.Location(ctx, input.HouseholdID)
	if err != nil {
		return nil, err
	}
	next := s.now()
	if input.NextCreationDate != nil {
		next = *input.NextCreationDate
	}

	template := RecurringTemplate{
		ID:               uuid.NewString(),
		HouseholdID:      input.HouseholdID,
		Title:            title,
		Description:      trimOptional(input.Description),
		RecurrenceUnit:   input.RecurrenceUnit,
		Interval:         input.Interval,
		NextCreationDate: EndOfDay(next, loc),
		IsActive:         true,
		UseRotation:      input.UseRotation,
		FixedAssignee:    input.FixedAssignee,
		CreatedBy:        input.ActorID,
	}
	if err := s.repo.CreateTemplate(ctx, &template); err != nil {
		return nil, err
	}
	return &template, nil
}

// UpdateTemplate holds the template lock for the whole read-modify-write so
// it cannot overwrite a schedule advanced by a concurrent recurring run.
func (s *Service) UpdateTemplate(ctx context.Context, input UpdateTemplateInput) (*RecurringTemplate, error) {
	var title string
	if input.Title != nil {
		title = strings.TrimSpace(*input.Title)
		if title == "" {
			return nil, fmt.Errorf("title is required")
		}
	}
	if input.FixedAssignee != nil && !input.ClearAssignee {
		if err := s.ensureMember(ctx, input.HouseholdID, input.FixedAssignee); err != nil {
			return nil, err
		}
	}
	var next *time.Time
	if input.NextCreationDate != nil {
		loc, err := s.households.Location(ctx, input.HouseholdID)
		if err != nil {
			return nil, err
		}
		endOfDay := EndOfDay(*input.NextCreationDate, loc)
		next = &endOfDay
	}

	var updated *RecurringTemplate
	err := s.repo.Transaction(ctx, func(tx Repository) error {
		if err := tx.LockTemplate(ctx, input.ID); err != nil {
			return err
		}
		template, err := tx.GetTemplate(ctx, input.HouseholdID, input.ID)
		if err != nil {
			return err
		}

		if input.Title != nil {
			template.Title = title
		}
		if input.Description != nil {
			template.Description = trimOptional(input.Description)
		}
		if input.RecurrenceUnit != nil {
			template.RecurrenceUnit = *input.RecurrenceUnit
		}
		if input.Interval != nil {
			template.Interval = *input.Interval
		}
		if err := validateRecurrence(template.RecurrenceUnit, template.Interval); err != nil {
			return err
		}
		if input.IsActive != nil {
			template.IsActive = *input.IsActive
		}
		if input.UseRotation != nil {
			template.UseRotation = *input.UseRotation
		}
		switch {
		case input.ClearAssignee:
			template.FixedAssignee = nil
		case input.FixedAssignee != nil:
			template.FixedAssignee = input.FixedAssignee
		}
		if !template.UseRotation && template.FixedAssignee == nil {
			return ErrFixedAssigneeRequired
		}

		if err := tx.UpdateTemplate(ctx, template); err != nil {
			return err
		}
		if next != nil {
			if err := tx.SetNextCreationDate(ctx, template.ID, *next); err != nil {
				return err
			}
			template.NextCreationDate = *next
		}
		updated = template
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *Service) DeleteTemplate(ctx context.Context, householdID, templateID string) error {
	deleted, err := s.repo.DeleteTemplate(ctx, householdID, templateID)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrTemplateNotFound
	}
	return nil
}

// PreviewRotation lists who the template's next n chores would go to.
func (s *Service) PreviewRotation(ctx context.Context, householdID, templateID string, n int) ([]string, error) {
	if n <= 0 || n > maxPreviewCount {
		return nil, fmt.Errorf("count must be between 1 and %d", maxPreviewCount)
	}

	template, err := s.repo.GetTemplate(ctx, householdID, templateID)
	if err != nil {
		return nil, err
	}
	if !template.UseRotation {
		if template.FixedAssignee == nil {
			return []string{}, nil
		}
		result := make([]string, n)
		for i := range result {
			result[i] = *template.FixedAssignee
		}
		return result, nil
	}

	ordered, available, err := s.households.Rotation(ctx, householdID)
	if err != nil {
		return nil, err
	}
	cursor, err := s.repo.GetCursor(ctx, templateID)
	if err != nil {
		return nil, err
	}

	var last *string
	if cursor != nil {
		last = cursor.LastAssignedMemberID
	}
	return RotationPreview(ordered, available, last, n), nil
}

func (s *Service) ensureMember(ctx context.Context, householdID string, userID *string) error {
	if userID == nil {
		return nil
	}
	ok, err := s.households.IsMember(ctx, householdID, *userID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrAssigneeNotMember
	}
	return nil
}

func validateRecurrence(unit RecurrenceUnit, interval int) error {
	if !unit.Valid() {
		return fmt.Errorf("%w: unknown unit %q", ErrInvalidRecurrence, unit)
	}
	if interval < 1 {
		return fmt.Errorf("%w: interval must be at least 1", ErrInvalidRecurrence)
	}
	return nil
}

func trimOptional(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
