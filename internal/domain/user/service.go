package user

import (
	"context"
	"fmt"
	"strings"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// UpsertProfile records the identity details seen on an authenticated
// request. Empty values leave the stored ones untouched.
func (s *Service) UpsertProfile(ctx context.Context, userID, displayName, email, avatarURL string) error {
	if userID == "" {
		return fmt.Errorf("user id is required")
	}

	profile := Profile{UserID: userID}
	if value := strings.TrimSpace(displayName); value != "" {
		profile.DisplayName = &value
	}
	if value := strings.TrimSpace(email); value != "" {
		profile.Email = &value
	}
	if value := strings.TrimSpace(avatarURL); value != "" {
		profile.AvatarURL = &value
	}

	return s.repo.UpsertProfile(ctx, &profile)
}

func (s *Service) GetProfile(ctx context.Context, userID string) (*Profile, error) {
	return s.repo.GetProfile(ctx, userID)
}
