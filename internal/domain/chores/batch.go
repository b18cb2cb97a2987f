package chores

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const (
	batchLockKey = "household-app:recurring-chores:batch"
	// Templates are due by the end of their day in the household timezone,
	// which is never more than this far ahead of UTC now.
	dueLookahead = 48 * time.Hour
)

var errNotDue = errors.New("template no longer due")

// ProcessDueTemplates creates the next chore for every active template whose
// scheduled day has arrived. Each template is handled in its own transaction
// and a failing template never stops the rest of the run.
func (s *Service) ProcessDueTemplates(ctx context.Context, now time.Time) (*BatchReport, error) {
	started := time.Now()

	if s.locker != nil {
		token, ok, err := s.locker.TryLock(ctx, batchLockKey, s.batchLockTTL)
		if err != nil {
			return nil, fmt.Errorf("acquire batch lock: %w", err)
		}
		if !ok {
			s.metrics.RecurringRun("locked", time.Since(started))
			return nil, ErrBatchInProgress
		}
		defer func() {
			if err := s.locker.Release(context.WithoutCancel(ctx), batchLockKey, token); err != nil {
				s.log.Warn("chores.recurring: release batch lock failed", "err", err)
			}
		}()
	}

	templates, err := s.repo.ListDueTemplates(ctx, now.Add(dueLookahead))
	if err != nil {
		s.metrics.RecurringRun(string(BatchFailed), time.Since(started))
		return nil, fmt.Errorf("list due templates: %w", err)
	}

	report := BatchReport{
		RunID:   uuid.NewString(),
		Results: make([]TemplateResult, 0, len(templates)),
	}
	locations := make(map[string]*time.Location)

	for _, template := range templates {
		loc, ok := locations[template.HouseholdID]
		if !ok {
			loc, err = s.households.Location(ctx, template.HouseholdID)
			if err != nil {
				report.Results = append(report.Results, s.failed(template, fmt.Errorf("load household timezone: %w", err)))
				continue
			}
			locations[template.HouseholdID] = loc
		}
		if !IsDue(template, now, loc) {
			continue
		}

		report.Results = append(report.Results, s.processTemplate(ctx, template, now, loc))
	}

	for _, result := range report.Results {
		switch result.Status {
		case ResultCreated:
			report.Summary.Created++
		case ResultSkipped:
			report.Summary.Skipped++
		case ResultFailed:
			report.Summary.Failed++
		}
		s.metrics.RecurringTemplate(string(result.Status))
	}
	report.Summary.Total = len(report.Results)
	report.Status = batchStatus(report.Summary)

	s.metrics.RecurringRun(string(report.Status), time.Since(started))
	s.log.Info("chores.recurring: run finished",
		"run_id", report.RunID,
		"status", report.Status,
		"total", report.Summary.Total,
		"created", report.Summary.Created,
		"skipped", report.Summary.Skipped,
		"failed", report.Summary.Failed,
	)
	return &report, nil
}

func (s *Service) processTemplate(ctx context.Context, template RecurringTemplate, now time.Time, loc *time.Location) TemplateResult {
	var chore Chore
	err := s.repo.Transaction(ctx, func(tx Repository) error {
		if err := tx.LockTemplate(ctx, template.ID); err != nil {
			return err
		}

		current, err := tx.GetTemplate(ctx, template.HouseholdID, template.ID)
		if err != nil {
			return err
		}
		if !IsDue(*current, now, loc) {
			return errNotDue
		}

		lastCreated, err := tx.LatestChoreCreatedAt(ctx, current.ID)
		if err != nil {
			return err
		}

		assignee, cursor, err := s.pickAssignee(ctx, tx, current)
		if err != nil {
			return err
		}

		next, err := NextOccurrence(current.NextCreationDate, current.RecurrenceUnit, current.Interval, loc)
		if err != nil {
			return err
		}

		due := DueDateFor(now, lastCreated, loc)
		templateID := current.ID
		chore = Chore{
			ID:                  uuid.NewString(),
			HouseholdID:         current.HouseholdID,
			Title:               current.Title,
			Description:         current.Description,
			AssignedTo:          &assignee,
			DueDate:             &due,
			RecurringTemplateID: &templateID,
		}
		if err := tx.CreateChore(ctx, &chore); err != nil {
			return fmt.Errorf("create chore: %w", err)
		}

		if cursor != nil {
			cursor.LastAssignedMemberID = &assignee
			if err := tx.SaveCursor(ctx, cursor); err != nil {
				return fmt.Errorf("advance cursor: %w", err)
			}
		}

		if err := tx.SetNextCreationDate(ctx, current.ID, next); err != nil {
			return fmt.Errorf("advance template: %w", err)
		}
		return nil
	})

	switch {
	case err == nil:
		return TemplateResult{
			TemplateID:  template.ID,
			HouseholdID: template.HouseholdID,
			Status:      ResultCreated,
			ChoreID:     &chore.ID,
			AssignedTo:  chore.AssignedTo,
			DueDate:     chore.DueDate,
		}
	case errors.Is(err, ErrNoEligibleMember):
		s.log.Warn("chores.recurring: no eligible member", "template_id", template.ID, "household_id", template.HouseholdID)
		return TemplateResult{
			TemplateID:  template.ID,
			HouseholdID: template.HouseholdID,
			Status:      ResultSkipped,
			Error:       "no_eligible_member",
		}
	case errors.Is(err, errNotDue):
		return TemplateResult{
			TemplateID:  template.ID,
			HouseholdID: template.HouseholdID,
			Status:      ResultSkipped,
			Error:       "already_processed",
		}
	default:
		return s.failed(template, err)
	}
}

// pickAssignee returns the next assignee and, for rotating templates, the
// cursor to advance once the chore is stored.
func (s *Service) pickAssignee(ctx context.Context, tx Repository, template *RecurringTemplate) (string, *RotationCursor, error) {
	if !template.UseRotation {
		if template.FixedAssignee == nil {
			return "", nil, ErrNoEligibleMember
		}
		ok, err := s.households.IsMember(ctx, template.HouseholdID, *template.FixedAssignee)
		if err != nil {
			return "", nil, err
		}
		if !ok {
			return "", nil, ErrNoEligibleMember
		}
		return *template.FixedAssignee, nil, nil
	}

	ordered, available, err := s.households.Rotation(ctx, template.HouseholdID)
	if err != nil {
		return "", nil, fmt.Errorf("load rotation: %w", err)
	}

	cursor, err := tx.GetCursor(ctx, template.ID)
	if err != nil {
		return "", nil, fmt.Errorf("load cursor: %w", err)
	}
	if cursor == nil {
		cursor = &RotationCursor{TemplateID: template.ID, HouseholdID: template.HouseholdID}
	}

	next, ok := NextInRotation(ordered, available, cursor.LastAssignedMemberID)
	if !ok {
		return "", nil, ErrNoEligibleMember
	}
	return next, cursor, nil
}

func (s *Service) failed(template RecurringTemplate, err error) TemplateResult {
	s.log.InternalError("chores.recurring: template failed", err, "template_id", template.ID, "household_id", template.HouseholdID)
	return TemplateResult{
		TemplateID:  template.ID,
		HouseholdID: template.HouseholdID,
		Status:      ResultFailed,
		Error:       err.Error(),
	}
}

func batchStatus(summary BatchSummary) BatchStatus {
	switch {
	case summary.Failed == 0:
		return BatchSuccess
	case summary.Failed == summary.Total:
		return BatchFailed
	default:
		return BatchPartialSuccess
	}
}
