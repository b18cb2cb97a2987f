package user

import "time"

type Profile struct {
	UserID      string  `gorm:"primaryKey"`
	DisplayName *string `gorm:"type:text"`
	Email       *string `gorm:"type:text"`
	AvatarURL   *string `gorm:"type:text"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (Profile) TableName() string {
	return "user_profiles"
}
