package household

import (
	"time"

	"gorm.io/datatypes"
)

const (
	RoleOwner  = "owner"
	RoleMember = "member"
)

type Household struct {
	ID            string                      `gorm:"type:uuid;primaryKey"`
	Name          string                      `gorm:"not null"`
	Code          string                      `gorm:"size:6;not null;uniqueIndex"`
	OwnerID       string                      `gorm:"not null;index"`
	Timezone      string                      `gorm:"not null"`
	RotationOrder datatypes.JSONSlice[string] `gorm:"type:jsonb"`
	CreatedAt     time.Time                   `gorm:"autoCreateTime"`
	UpdatedAt     time.Time                   `gorm:"autoUpdateTime"`
}

type Member struct {
	HouseholdID string    `gorm:"type:uuid;primaryKey"`
	UserID      string    `gorm:"primaryKey;uniqueIndex"`
	Role        string    `gorm:"type:varchar(16);not null"`
	IsAvailable bool      `gorm:"not null"`
	JoinedAt    time.Time `gorm:"autoCreateTime"`
}

func (Member) TableName() string {
	return "household_members"
}

type MemberProfile struct {
	UserID      string
	Role        string
	IsAvailable bool
	JoinedAt    time.Time
	DisplayName *string
	Email       *string
	AvatarURL   *string
}

type UpdateInput struct {
	Name     *string
	Timezone *string
}

// RotationOrder is the effective member order used for chore rotation.
// Custom is false when the household falls back to join order.
type RotationOrder struct {
	Custom    bool
	MemberIDs []string
}
