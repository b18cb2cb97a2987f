package user

import (
	"context"
	"testing"
)

type fakeUserRepo struct {
	upserted []Profile
}

func (r *fakeUserRepo) UpsertProfile(ctx context.Context, profile *Profile) error {
	r.upserted = append(r.upserted, *profile)
	return nil
}

func (r *fakeUserRepo) GetProfile(ctx context.Context, userID string) (*Profile, error) {
	for i := len(r.upserted) - 1; i >= 0; i-- {
		if r.upserted[i].UserID == userID {
			profile := r.upserted[i]
			return &profile, nil
		}
	}
	return nil, ErrProfileNotFound
}

func TestUpsertProfileSkipsBlankFields(t *testing.T) {
	repo := &fakeUserRepo{}
	svc := NewService(repo)

	if err := svc.UpsertProfile(context.Background(), "user-1", "  Alice ", "", " "); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(repo.upserted) != 1 {
		t.Fatalf("expected one upsert, got %d", len(repo.upserted))
	}
	profile := repo.upserted[0]
	if profile.DisplayName == nil || *profile.DisplayName != "Alice" {
		t.Fatalf("expected trimmed display name, got %v", profile.DisplayName)
	}
	if profile.Email != nil || profile.AvatarURL != nil {
		t.Fatalf("expected blank fields left nil, got %+v", profile)
	}
}

func TestUpsertProfileRequiresUserID(t *testing.T) {
	svc := NewService(&fakeUserRepo{})
	if err := svc.UpsertProfile(context.Background(), "", "", "", ""); err == nil {
		t.Fatalf("expected error for empty user id")
	}
}
