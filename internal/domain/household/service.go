package household

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	householdCodeLength   = 6
	householdCodeAttempts = 10
	defaultTimezone       = "UTC"
)

type Config struct {
	Cache           Cache
	CacheTTL        time.Duration
	DefaultTimezone string
}

type Service struct {
	repo            Repository
	cache           Cache
	cacheTTL        time.Duration
	defaultTimezone string
}

func NewService(repo Repository, cfg Config) *Service {
	if cfg.Cache == nil {
		cfg.Cache = noopCache{}
	}
	if cfg.DefaultTimezone == "" {
		cfg.DefaultTimezone = defaultTimezone
	}
	return &Service{
		repo:            repo,
		cache:           cfg.Cache,
		cacheTTL:        cfg.CacheTTL,
		defaultTimezone: cfg.DefaultTimezone,
	}
}

func (s *Service) GetHouseholdByUser(ctx context.Context, userID string) (*Household, error) {
	if cached, ok := s.cache.GetByUserID(userID); ok {
		return cached, nil
	}

	household, err := s.repo.GetHouseholdByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	s.cache.SetByUserID(userID, household, s.cacheTTL)
	return household, nil
}

func (s *Service) CreateHousehold(ctx context.Context, userID, name string, timezone *string) (*Household, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("name is required")
	}

	tz := s.defaultTimezone
	if timezone != nil && strings.TrimSpace(*timezone) != "" {
		tz = strings.TrimSpace(*timezone)
	}
	if err := validateTimezone(tz); err != nil {
		return nil, err
	}

	var result Household
	err := s.repo.Transaction(ctx, func(tx Repository) error {
		inHousehold, err := tx.IsUserInHousehold(ctx, userID)
		if err != nil {
			return err
		}
		if inHousehold {
			return ErrAlreadyInHousehold
		}

		code, err := generateUniqueCode(ctx, tx)
		if err != nil {
			return err
		}

		household := Household{
			ID:       uuid.NewString(),
			Name:     name,
			Code:     code,
			OwnerID:  userID,
			Timezone: tz,
		}
		if err := tx.CreateHousehold(ctx, &household); err != nil {
			return err
		}

		member := Member{
			HouseholdID: household.ID,
			UserID:      userID,
			Role:        RoleOwner,
			IsAvailable: true,
		}
		if err := tx.AddMember(ctx, &member); err != nil {
			return err
		}

		result = household
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.cache.DeleteByUserID(userID)
	return &result, nil
}

func (s *Service) JoinHousehold(ctx context.Context, userID, code string) (*Household, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return nil, fmt.Errorf("code is required")
	}

	var result Household
	err := s.repo.Transaction(ctx, func(tx Repository) error {
		inHousehold, err := tx.IsUserInHousehold(ctx, userID)
		if err != nil {
			return err
		}
		if inHousehold {
			return ErrAlreadyInHousehold
		}

		household, err := tx.GetHouseholdByCode(ctx, code)
		if err != nil {
			return err
		}

		member := Member{
			HouseholdID: household.ID,
			UserID:      userID,
			Role:        RoleMember,
			IsAvailable: true,
		}
		if err := tx.AddMember(ctx, &member); err != nil {
			return err
		}

		result = *household
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.cache.DeleteByUserID(userID)
	return &result, nil
}

// LeaveHousehold removes the user from their household. The last member
// leaving deletes the household; an owner with other members must hand over
// ownership first.
func (s *Service) LeaveHousehold(ctx context.Context, userID string) error {
	err := s.repo.Transaction(ctx, func(tx Repository) error {
		member, err := tx.GetMemberByUser(ctx, userID)
		if err != nil {
			return err
		}

		count, err := tx.CountMembers(ctx, member.HouseholdID)
		if err != nil {
			return err
		}
		if count <= 1 {
			return tx.DeleteHousehold(ctx, member.HouseholdID)
		}
		if member.Role == RoleOwner {
			return ErrOwnerMustTransfer
		}

		if err := tx.DeleteMember(ctx, member.HouseholdID, userID); err != nil {
			return err
		}
		return dropFromRotation(ctx, tx, member.HouseholdID, userID)
	})
	if err != nil {
		return err
	}

	s.cache.Clear()
	return nil
}

func (s *Service) UpdateHousehold(ctx context.Context, userID string, input UpdateInput) (*Household, error) {
	if input.Name == nil && input.Timezone == nil {
		return nil, fmt.Errorf("no fields to update")
	}

	household, err := s.repo.GetHouseholdByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, fmt.Errorf("name is required")
		}
		household.Name = name
	}
	if input.Timezone != nil {
		tz := strings.TrimSpace(*input.Timezone)
		if err := validateTimezone(tz); err != nil {
			return nil, err
		}
		household.Timezone = tz
	}

	if err := s.repo.UpdateHousehold(ctx, household); err != nil {
		return nil, err
	}

	s.cache.Clear()
	return household, nil
}

func (s *Service) ListMembers(ctx context.Context, userID string) ([]MemberProfile, error) {
	household, err := s.GetHouseholdByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.repo.ListMembersWithProfiles(ctx, household.ID)
}

func (s *Service) RemoveMember(ctx context.Context, actorID, memberID string) error {
	err := s.repo.Transaction(ctx, func(tx Repository) error {
		actor, err := tx.GetMemberByUser(ctx, actorID)
		if err != nil {
			return err
		}
		if actor.Role != RoleOwner {
			return ErrNotOwner
		}
		if memberID == actorID {
			return ErrCannotRemoveOwner
		}

		if _, err := tx.GetMember(ctx, actor.HouseholdID, memberID); err != nil {
			return err
		}
		if err := tx.DeleteMember(ctx, actor.HouseholdID, memberID); err != nil {
			return err
		}
		return dropFromRotation(ctx, tx, actor.HouseholdID, memberID)
	})
	if err != nil {
		return err
	}

	s.cache.Clear()
	return nil
}

func (s *Service) TransferOwnership(ctx context.Context, actorID, newOwnerID string) (*Household, error) {
	var result *Household
	err := s.repo.Transaction(ctx, func(tx Repository) error {
		actor, err := tx.GetMemberByUser(ctx, actorID)
		if err != nil {
			return err
		}
		if actor.Role != RoleOwner {
			return ErrNotOwner
		}
		if newOwnerID == actorID {
			return nil
		}
		if _, err := tx.GetMember(ctx, actor.HouseholdID, newOwnerID); err != nil {
			return err
		}

		if err := tx.UpdateMemberRole(ctx, actor.HouseholdID, actorID, RoleMember); err != nil {
			return err
		}
		if err := tx.UpdateMemberRole(ctx, actor.HouseholdID, newOwnerID, RoleOwner); err != nil {
			return err
		}
		if err := tx.UpdateHouseholdOwner(ctx, actor.HouseholdID, newOwnerID); err != nil {
			return err
		}

		result, err = tx.GetHouseholdByID(ctx, actor.HouseholdID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.cache.Clear()
	if result == nil {
		return s.GetHouseholdByUser(ctx, actorID)
	}
	return result, nil
}

func (s *Service) SetAvailability(ctx context.Context, userID string, available bool) (*Member, error) {
	member, err := s.repo.GetMemberByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := s.repo.UpdateMemberAvailability(ctx, member.HouseholdID, userID, available); err != nil {
		return nil, err
	}
	member.IsAvailable = available
	return member, nil
}

// SetRotationOrder stores a custom chore rotation order. An empty order
// restores join order.
func (s *Service) SetRotationOrder(ctx context.Context, userID string, order []string) (*RotationOrder, error) {
	household, err := s.repo.GetHouseholdByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	members, err := s.repo.ListMembers(ctx, household.ID)
	if err != nil {
		return nil, err
	}

	current := make(map[string]bool, len(members))
	for _, member := range members {
		current[member.UserID] = true
	}
	seen := make(map[string]bool, len(order))
	for _, id := range order {
		if !current[id] {
			return nil, fmt.Errorf("%w: %s is not a member", ErrInvalidRotationOrder, id)
		}
		if seen[id] {
			return nil, fmt.Errorf("%w: %s listed twice", ErrInvalidRotationOrder, id)
		}
		seen[id] = true
	}

	if len(order) == 0 {
		household.RotationOrder = nil
	} else {
		household.RotationOrder = datatypes.JSONSlice[string](order)
	}
	if err := s.repo.UpdateHousehold(ctx, household); err != nil {
		return nil, err
	}

	s.cache.Clear()
	return effectiveOrder(household, members), nil
}

func (s *Service) GetRotationOrder(ctx context.Context, userID string) (*RotationOrder, error) {
	household, err := s.GetHouseholdByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	members, err := s.repo.ListMembers(ctx, household.ID)
	if err != nil {
		return nil, err
	}
	return effectiveOrder(household, members), nil
}

// Rotation returns the ordered member ids and the set of members currently
// eligible for chores in householdID. Members left out of a custom order
// are not part of the rotation.
func (s *Service) Rotation(ctx context.Context, householdID string) ([]string, map[string]bool, error) {
	household, err := s.repo.GetHouseholdByID(ctx, householdID)
	if err != nil {
		return nil, nil, err
	}
	members, err := s.repo.ListMembers(ctx, householdID)
	if err != nil {
		return nil, nil, err
	}

	available := make(map[string]bool, len(members))
	for _, member := range members {
		if member.IsAvailable {
			available[member.UserID] = true
		}
	}
	return effectiveOrder(household, members).MemberIDs, available, nil
}

func (s *Service) Location(ctx context.Context, householdID string) (*time.Location, error) {
	household, err := s.repo.GetHouseholdByID(ctx, householdID)
	if err != nil {
		return nil, err
	}
	loc, err := time.LoadLocation(household.Timezone)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidTimezone, household.Timezone)
	}
	return loc, nil
}

func (s *Service) IsMember(ctx context.Context, householdID, userID string) (bool, error) {
	_, err := s.repo.GetMember(ctx, householdID, userID)
	if errors.Is(err, ErrMemberNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func effectiveOrder(household *Household, members []Member) *RotationOrder {
	if len(household.RotationOrder) > 0 {
		return &RotationOrder{Custom: true, MemberIDs: append([]string(nil), household.RotationOrder...)}
	}
	ids := make([]string, 0, len(members))
	for _, member := range members {
		ids = append(ids, member.UserID)
	}
	return &RotationOrder{MemberIDs: ids}
}

func dropFromRotation(ctx context.Context, tx Repository, householdID, userID string) error {
	household, err := tx.GetHouseholdByID(ctx, householdID)
	if err != nil {
		return err
	}
	if len(household.RotationOrder) == 0 {
		return nil
	}

	kept := make([]string, 0, len(household.RotationOrder))
	for _, id := range household.RotationOrder {
		if id != userID {
			kept = append(kept, id)
		}
	}
	if len(kept) == len(household.RotationOrder) {
		return nil
	}
	if len(kept) == 0 {
		household.RotationOrder = nil
	} else {
		household.RotationOrder = datatypes.JSONSlice[string](kept)
	}
	return tx.UpdateHousehold(ctx, household)
}

func validateTimezone(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty", ErrInvalidTimezone)
	}
	if _, err := time.LoadLocation(name); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidTimezone, name)
	}
	return nil
}

func generateUniqueCode(ctx context.Context, repo Repository) (string, error) {
	for i := 0; i < householdCodeAttempts; i++ {
		code, err := generateCode(householdCodeLength)
		if err != nil {
			return "", err
		}
		taken, err := repo.IsCodeTaken(ctx, code)
		if err != nil {
			return "", err
		}
		if !taken {
			return code, nil
		}
	}
	return "", ErrCodeGenerationFailed
}

func generateCode(length int) (string, error) {
	const alphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	max := big.NewInt(int64(len(alphabet)))

	var builder strings.Builder
	builder.Grow(length)

	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		builder.WriteByte(alphabet[n.Int64()])
	}

	return builder.String(), nil
}
