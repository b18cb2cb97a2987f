package household

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	householddomain "household-app-go/internal/domain/household"
)

type PostgresRepository struct {
	db *gorm.DB
}

func NewPostgres(db *gorm.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Transaction(ctx context.Context, fn func(householddomain.Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&PostgresRepository{db: tx})
	})
}

func (r *PostgresRepository) GetHouseholdByUser(ctx context.Context, userID string) (*householddomain.Household, error) {
	var household householddomain.Household
	err := r.db.WithContext(ctx).
		Table("households").
		Joins("join household_members on household_members.household_id = households.id").
		Where("household_members.user_id = ?", userID).
		Limit(1).
		First(&household).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, householddomain.ErrHouseholdNotFound
	}
	if err != nil {
		return nil, err
	}
	return &household, nil
}

func (r *PostgresRepository) GetHouseholdByID(ctx context.Context, householdID string) (*householddomain.Household, error) {
	var household householddomain.Household
	if err := r.db.WithContext(ctx).Where("id = ?", householdID).First(&household).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, householddomain.ErrHouseholdNotFound
		}
		return nil, err
	}
	return &household, nil
}

func (r *PostgresRepository) GetHouseholdByCode(ctx context.Context, code string) (*householddomain.Household, error) {
	var household householddomain.Household
	if err := r.db.WithContext(ctx).Where("code = ?", code).First(&household).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, householddomain.ErrHouseholdCodeNotFound
		}
		return nil, err
	}
	return &household, nil
}

func (r *PostgresRepository) GetMemberByUser(ctx context.Context, userID string) (*householddomain.Member, error) {
	var member householddomain.Member
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&member).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, householddomain.ErrHouseholdNotFound
		}
		return nil, err
	}
	return &member, nil
}

func (r *PostgresRepository) GetMember(ctx context.Context, householdID, userID string) (*householddomain.Member, error) {
	var member householddomain.Member
	if err := r.db.WithContext(ctx).Where("household_id = ? AND user_id = ?", householdID, userID).First(&member).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, householddomain.ErrMemberNotFound
		}
		return nil, err
	}
	return &member, nil
}

func (r *PostgresRepository) ListMembers(ctx context.Context, householdID string) ([]householddomain.Member, error) {
	var members []householddomain.Member
	if err := r.db.WithContext(ctx).
		Where("household_id = ?", householdID).
		Order("joined_at asc, user_id asc").
		Find(&members).Error; err != nil {
		return nil, err
	}
	return members, nil
}

func (r *PostgresRepository) ListMembersWithProfiles(ctx context.Context, householdID string) ([]householddomain.MemberProfile, error) {
	type memberRow struct {
		UserID      string    `gorm:"column:user_id"`
		Role        string    `gorm:"column:role"`
		IsAvailable bool      `gorm:"column:is_available"`
		JoinedAt    time.Time `gorm:"column:joined_at"`
		DisplayName *string   `gorm:"column:display_name"`
		Email       *string   `gorm:"column:email"`
		AvatarURL   *string   `gorm:"column:avatar_url"`
	}

	var rows []memberRow
	if err := r.db.WithContext(ctx).
		Table("household_members").
		Select("household_members.user_id, household_members.role, household_members.is_available, household_members.joined_at, user_profiles.display_name, user_profiles.email, user_profiles.avatar_url").
		Joins("left join user_profiles on user_profiles.user_id = household_members.user_id").
		Where("household_members.household_id = ?", householdID).
		Order("household_members.joined_at asc, household_members.user_id asc").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	members := make([]householddomain.MemberProfile, 0, len(rows))
	for _, row := range rows {
		members = append(members, householddomain.MemberProfile{
			UserID:      row.UserID,
			Role:        row.Role,
			IsAvailable: row.IsAvailable,
			JoinedAt:    row.JoinedAt,
			DisplayName: row.DisplayName,
			Email:       row.Email,
			AvatarURL:   row.AvatarURL,
		})
	}
	return members, nil
}

func (r *PostgresRepository) CreateHousehold(ctx context.Context, household *householddomain.Household) error {
	return r.db.WithContext(ctx).Create(household).Error
}

func (r *PostgresRepository) AddMember(ctx context.Context, member *householddomain.Member) error {
	return r.db.WithContext(ctx).Create(member).Error
}

func (r *PostgresRepository) UpdateHousehold(ctx context.Context, household *householddomain.Household) error {
	return r.db.WithContext(ctx).Model(&householddomain.Household{}).
		Where("id = ?", household.ID).
		Updates(map[string]interface{}{
			"name":           household.Name,
			"timezone":       household.Timezone,
			"rotation_order": household.RotationOrder,
			"updated_at":     time.Now().UTC(),
		}).Error
}

func (r *PostgresRepository) UpdateHouseholdOwner(ctx context.Context, householdID, ownerID string) error {
	return r.db.WithContext(ctx).Model(&householddomain.Household{}).Where("id = ?", householdID).Update("owner_id", ownerID).Error
}

func (r *PostgresRepository) UpdateMemberRole(ctx context.Context, householdID, userID, role string) error {
	return r.db.WithContext(ctx).Model(&householddomain.Member{}).
		Where("household_id = ? AND user_id = ?", householdID, userID).
		Update("role", role).Error
}

func (r *PostgresRepository) UpdateMemberAvailability(ctx context.Context, householdID, userID string, available bool) error {
	return r.db.WithContext(ctx).Model(&householddomain.Member{}).
		Where("household_id = ? AND user_id = ?", householdID, userID).
		Update("is_available", available).Error
}

func (r *PostgresRepository) DeleteHousehold(ctx context.Context, householdID string) error {
	return r.db.WithContext(ctx).Delete(&householddomain.Household{}, "id = ?", householdID).Error
}

func (r *PostgresRepository) DeleteMember(ctx context.Context, householdID, userID string) error {
	return r.db.WithContext(ctx).Delete(&householddomain.Member{}, "household_id = ? AND user_id = ?", householdID, userID).Error
}

func (r *PostgresRepository) CountMembers(ctx context.Context, householdID string) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&householddomain.Member{}).Where("household_id = ?", householdID).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *PostgresRepository) IsUserInHousehold(ctx context.Context, userID string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&householddomain.Member{}).Where("user_id = ?", userID).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *PostgresRepository) IsCodeTaken(ctx context.Context, code string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&householddomain.Household{}).Where("code = ?", code).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
