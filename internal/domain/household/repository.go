package household

import "context"

type Repository interface {
	Transaction(ctx context.Context, fn func(Repository) error) error
	GetHouseholdByUser(ctx context.Context, userID string) (*Household, error)
	GetHouseholdByID(ctx context.Context, householdID string) (*Household, error)
	GetHouseholdByCode(ctx context.Context, code string) (*Household, error)
	GetMemberByUser(ctx context.Context, userID string) (*Member, error)
	GetMember(ctx context.Context, householdID, userID string) (*Member, error)
	ListMembers(ctx context.Context, householdID string) ([]Member, error)
	ListMembersWithProfiles(ctx context.Context, householdID string) ([]MemberProfile, error)
	CreateHousehold(ctx context.Context, household *Household) error
	AddMember(ctx context.Context, member *Member) error
	UpdateHousehold(ctx context.Context, household *Household) error
	UpdateHouseholdOwner(ctx context.Context, householdID, ownerID string) error
	UpdateMemberRole(ctx context.Context, householdID, userID, role string) error
	UpdateMemberAvailability(ctx context.Context, householdID, userID string, available bool) error
	DeleteHousehold(ctx context.Context, householdID string) error
	DeleteMember(ctx context.Context, householdID, userID string) error
	CountMembers(ctx context.Context, householdID string) (int64, error)
	IsUserInHousehold(ctx context.Context, userID string) (bool, error)
	IsCodeTaken(ctx context.Context, code string) (bool, error)
}
