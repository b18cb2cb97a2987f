package household

import "time"

type Cache interface {
	GetByUserID(userID string) (*Household, bool)
	SetByUserID(userID string, household *Household, ttl time.Duration)
	DeleteByUserID(userID string)
	Clear()
}

type noopCache struct{}

func (noopCache) GetByUserID(string) (*Household, bool) {
	return nil, false
}

func (noopCache) SetByUserID(string, *Household, time.Duration) {}

func (noopCache) DeleteByUserID(string) {}

func (noopCache) Clear() {}
