package inmemory

import (
	"sync"
	"time"

	"gorm.io/datatypes"
	householddomain "household-app-go/internal/domain/household"
)

// HouseholdCache keeps the household lookup per user for a short TTL.
type HouseholdCache struct {
	mu    sync.RWMutex
	items map[string]householdItem
	now   func() time.Time
}

type householdItem struct {
	value     householddomain.Household
	expiresAt time.Time
}

func NewHouseholdCache() *HouseholdCache {
	return &HouseholdCache{
		items: make(map[string]householdItem),
		now:   time.Now,
	}
}

func (c *HouseholdCache) GetByUserID(userID string) (*householddomain.Household, bool) {
	now := c.now()

	c.mu.RLock()
	item, ok := c.items[userID]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}

	if !item.expiresAt.After(now) {
		c.mu.Lock()
		item, ok = c.items[userID]
		if ok && !item.expiresAt.After(now) {
			delete(c.items, userID)
		}
		c.mu.Unlock()
		return nil, false
	}

	value := clone(item.value)
	return &value, true
}

func (c *HouseholdCache) SetByUserID(userID string, household *householddomain.Household, ttl time.Duration) {
	if household == nil || ttl <= 0 {
		c.DeleteByUserID(userID)
		return
	}

	c.mu.Lock()
	c.items[userID] = householdItem{
		value:     clone(*household),
		expiresAt: c.now().Add(ttl),
	}
	c.mu.Unlock()
}

func (c *HouseholdCache) DeleteByUserID(userID string) {
	c.mu.Lock()
	delete(c.items, userID)
	c.mu.Unlock()
}

func (c *HouseholdCache) Clear() {
	c.mu.Lock()
	c.items = make(map[string]householdItem)
	c.mu.Unlock()
}

func clone(household householddomain.Household) householddomain.Household {
	if household.RotationOrder != nil {
		household.RotationOrder = append(datatypes.JSONSlice[string]{}, household.RotationOrder...)
	}
	return household
}
