package chores

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	choresdomain "household-app-go/internal/domain/chores"
)

type PostgresRepository struct {
	db *gorm.DB
}

func NewPostgres(db *gorm.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Transaction(ctx context.Context, fn func(choresdomain.Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&PostgresRepository{db: tx})
	})
}

func (r *PostgresRepository) LockTemplate(ctx context.Context, templateID string) error {
	return r.db.WithContext(ctx).Exec("SELECT pg_advisory_xact_lock(hashtext(?))", "recurring:"+templateID).Error
}

func (r *PostgresRepository) ListChores(ctx context.Context, householdID string, filter choresdomain.ListFilter) ([]choresdomain.Chore, int64, error) {
	query := r.db.WithContext(ctx).Model(&choresdomain.Chore{}).Where("household_id = ?", householdID)
	if filter.AssignedTo != nil {
		query = query.Where("assigned_to = ?", *filter.AssignedTo)
	}
	if filter.Completed != nil {
		query = query.Where("is_completed = ?", *filter.Completed)
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = query.Order("is_completed asc, due_date asc nulls last, created_at desc")
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		query = query.Offset(filter.Offset)
	}

	var items []choresdomain.Chore
	if err := query.Find(&items).Error; err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (r *PostgresRepository) ListOverdue(ctx context.Context, householdID string, now time.Time) ([]choresdomain.Chore, error) {
	var items []choresdomain.Chore
	if err := r.db.WithContext(ctx).
		Where("household_id = ? AND is_completed = ? AND due_date < ?", householdID, false, now).
		Order("due_date asc").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *PostgresRepository) GetChore(ctx context.Context, householdID, choreID string) (*choresdomain.Chore, error) {
	var chore choresdomain.Chore
	if err := r.db.WithContext(ctx).
		Where("household_id = ? AND id = ?", householdID, choreID).
		First(&chore).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, choresdomain.ErrChoreNotFound
		}
		return nil, err
	}
	return &chore, nil
}

func (r *PostgresRepository) CreateChore(ctx context.Context, chore *choresdomain.Chore) error {
	return r.db.WithContext(ctx).Create(chore).Error
}

func (r *PostgresRepository) UpdateChore(ctx context.Context, chore *choresdomain.Chore) error {
	return r.db.WithContext(ctx).
		Model(&choresdomain.Chore{}).
		Where("id = ? AND household_id = ?", chore.ID, chore.HouseholdID).
		Updates(map[string]interface{}{
			"title":        chore.Title,
			"description":  chore.Description,
			"assigned_to":  chore.AssignedTo,
			"due_date":     chore.DueDate,
			"is_completed": chore.IsCompleted,
			"completed_at": chore.CompletedAt,
			"completed_by": chore.CompletedBy,
			"updated_at":   time.Now().UTC(),
		}).Error
}

func (r *PostgresRepository) SoftDeleteChore(ctx context.Context, householdID, choreID string) (bool, error) {
	result := r.db.WithContext(ctx).Delete(&choresdomain.Chore{}, "household_id = ? AND id = ?", householdID, choreID)
	return result.RowsAffected > 0, result.Error
}

// LatestChoreCreatedAt includes soft deleted chores so a removed instance
// still counts as generated.
func (r *PostgresRepository) LatestChoreCreatedAt(ctx context.Context, templateID string) (*time.Time, error) {
	var chore choresdomain.Chore
	err := r.db.WithContext(ctx).
		Unscoped().
		Select("created_at").
		Where("recurring_template_id = ?", templateID).
		Order("created_at desc").
		Limit(1).
		Take(&chore).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &chore.CreatedAt, nil
}

func (r *PostgresRepository) ListTemplates(ctx context.Context, householdID string) ([]choresdomain.RecurringTemplate, error) {
	var items []choresdomain.RecurringTemplate
	if err := r.db.WithContext(ctx).
		Where("household_id = ?", householdID).
		Order("created_at asc").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *PostgresRepository) ListDueTemplates(ctx context.Context, cutoff time.Time) ([]choresdomain.RecurringTemplate, error) {
	var items []choresdomain.RecurringTemplate
	if err := r.db.WithContext(ctx).
		Where("is_active = ? AND next_creation_date <= ?", true, cutoff).
		Order("next_creation_date asc, id asc").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *PostgresRepository) GetTemplate(ctx context.Context, householdID, templateID string) (*choresdomain.RecurringTemplate, error) {
	var template choresdomain.RecurringTemplate
	if err := r.db.WithContext(ctx).
		Where("household_id = ? AND id = ?", householdID, templateID).
		First(&template).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, choresdomain.ErrTemplateNotFound
		}
		return nil, err
	}
	return &template, nil
}

func (r *PostgresRepository) CreateTemplate(ctx context.Context, template *choresdomain.RecurringTemplate) error {
	return r.db.WithContext(ctx).Create(template).Error
}

func (r *PostgresRepository) UpdateTemplate(ctx context.Context, template *choresdomain.RecurringTemplate) error {
	return r.db.WithContext(ctx).
		Model(&choresdomain.RecurringTemplate{}).
		Where("id = ? AND household_id = ?", template.ID, template.HouseholdID).
		Updates(map[string]interface{}{
			"title":           template.Title,
			"description":     template.Description,
			"recurrence_unit": template.RecurrenceUnit,
			"interval_count":  template.Interval,
			"is_active":       template.IsActive,
			"use_rotation":    template.UseRotation,
			"fixed_assignee":  template.FixedAssignee,
			"updated_at":      time.Now().UTC(),
		}).Error
}

func (r *PostgresRepository) SetNextCreationDate(ctx context.Context, templateID string, next time.Time) error {
	return r.db.WithContext(ctx).
		Model(&choresdomain.RecurringTemplate{}).
		Where("id = ?", templateID).
		Updates(map[string]interface{}{
			"next_creation_date": next,
			"updated_at":         time.Now().UTC(),
		}).Error
}

func (r *PostgresRepository) DeleteTemplate(ctx context.Context, householdID, templateID string) (bool, error) {
	result := r.db.WithContext(ctx).Delete(&choresdomain.RecurringTemplate{}, "household_id = ? AND id = ?", householdID, templateID)
	return result.RowsAffected > 0, result.Error
}

func (r *PostgresRepository) GetCursor(ctx context.Context, templateID string) (*choresdomain.RotationCursor, error) {
	var cursor choresdomain.RotationCursor
	err := r.db.WithContext(ctx).Where("template_id = ?", templateID).First(&cursor).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &cursor, nil
}

func (r *PostgresRepository) SaveCursor(ctx context.Context, cursor *choresdomain.RotationCursor) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "template_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"last_assigned_member_id", "updated_at"}),
		}).
		Create(cursor).Error
}
