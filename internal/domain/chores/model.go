package chores

import (
	"time"

	"gorm.io/gorm"
)

type RecurrenceUnit string

const (
	RecurrenceDaily   RecurrenceUnit = "daily"
	RecurrenceWeekly  RecurrenceUnit = "weekly"
	RecurrenceMonthly RecurrenceUnit = "monthly"
)

func (u RecurrenceUnit) Valid() bool {
	switch u {
	case RecurrenceDaily, RecurrenceWeekly, RecurrenceMonthly:
		return true
	}
	return false
}

type Chore struct {
	ID                  string  `gorm:"type:uuid;primaryKey"`
	HouseholdID         string  `gorm:"type:uuid;index;not null"`
	Title               string  `gorm:"not null"`
	Description         *string `gorm:"type:text"`
	AssignedTo          *string
	DueDate             *time.Time
	IsCompleted         bool `gorm:"not null;default:false"`
	CompletedAt         *time.Time
	CompletedBy         *string
	RecurringTemplateID *string `gorm:"type:uuid"`
	CreatedBy           *string
	CreatedAt           time.Time      `gorm:"autoCreateTime"`
	UpdatedAt           time.Time      `gorm:"autoUpdateTime"`
	DeletedAt           gorm.DeletedAt `gorm:"index"`
}

type RecurringTemplate struct {
	ID               string         `gorm:"type:uuid;primaryKey"`
	HouseholdID      string         `gorm:"type:uuid;index;not null"`
	Title            string         `gorm:"not null"`
	Description      *string        `gorm:"type:text"`
	RecurrenceUnit   RecurrenceUnit `gorm:"type:varchar(16);not null"`
	Interval         int            `gorm:"column:interval_count;not null"`
	NextCreationDate time.Time      `gorm:"not null"`
	IsActive         bool           `gorm:"not null;default:true"`
	UseRotation      bool           `gorm:"not null;default:true"`
	FixedAssignee    *string
	CreatedBy        string    `gorm:"not null"`
	CreatedAt        time.Time `gorm:"autoCreateTime"`
	UpdatedAt        time.Time `gorm:"autoUpdateTime"`
}

func (RecurringTemplate) TableName() string {
	return "recurring_chore_templates"
}

type RotationCursor struct {
	TemplateID           string `gorm:"type:uuid;primaryKey"`
	HouseholdID          string `gorm:"type:uuid;not null"`
	LastAssignedMemberID *string
	UpdatedAt            time.Time `gorm:"autoUpdateTime"`
}

type ListFilter struct {
	AssignedTo *string
	Completed  *bool
	Limit      int
	Offset     int
}

type CreateChoreInput struct {
	HouseholdID string
	ActorID     string
	Title       string
	Description *string
	AssignedTo  *string
	DueDate     *time.Time
}

type UpdateChoreInput struct {
	ID            string
	HouseholdID   string
	Title         *string
	Description   *string
	AssignedTo    *string
	ClearAssignee bool
	DueDate       *time.Time
	ClearDueDate  bool
}

type CreateTemplateInput struct {
	HouseholdID      string
	ActorID          string
	Title            string
	Description      *string
	RecurrenceUnit   RecurrenceUnit
	Interval         int
	NextCreationDate *time.Time
	UseRotation      bool
	FixedAssignee    *string
}

type UpdateTemplateInput struct {
	ID               string
	HouseholdID      string
	Title            *string
	Description      *string
	RecurrenceUnit   *RecurrenceUnit
	Interval         *int
	NextCreationDate *time.Time
	IsActive         *bool
	UseRotation      *bool
	FixedAssignee    *string
	ClearAssignee    bool
}

type BatchStatus string

const (
	BatchSuccess        BatchStatus = "success"
	BatchPartialSuccess BatchStatus = "partial_success"
	BatchFailed         BatchStatus = "failed"
)

type ResultStatus string

const (
	ResultCreated ResultStatus = "created"
	ResultSkipped ResultStatus = "skipped"
	ResultFailed  ResultStatus = "failed"
)

type TemplateResult struct {
	TemplateID  string
	HouseholdID string
	Status      ResultStatus
	ChoreID     *string
	AssignedTo  *string
	DueDate     *time.Time
	Error       string
}

type BatchSummary struct {
	Total   int
	Created int
	Skipped int
	Failed  int
}

type BatchReport struct {
	RunID   string
	Status  BatchStatus
	Summary BatchSummary
	Results []TemplateResult
}
