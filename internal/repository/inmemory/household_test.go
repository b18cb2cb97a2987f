package inmemory

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	householddomain "household-app-go/internal/domain/household"
)

func TestHouseholdCacheExpires(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	cache := NewHouseholdCache()
	cache.now = func() time.Time { return now }

	cache.SetByUserID("alice", &householddomain.Household{ID: "hh-1", Name: "Flat"}, time.Minute)

	got, ok := cache.GetByUserID("alice")
	require.True(t, ok)
	assert.Equal(t, "Flat", got.Name)

	now = now.Add(time.Minute)
	_, ok = cache.GetByUserID("alice")
	assert.False(t, ok)
	assert.Empty(t, cache.items)
}

func TestHouseholdCacheReturnsCopies(t *testing.T) {
	cache := NewHouseholdCache()
	source := &householddomain.Household{ID: "hh-1", RotationOrder: datatypes.JSONSlice[string]{"a", "b"}}
	cache.SetByUserID("alice", source, time.Minute)

	source.RotationOrder[0] = "z"
	got, ok := cache.GetByUserID("alice")
	require.True(t, ok)
	assert.Equal(t, []string{"a", "b"}, []string(got.RotationOrder))

	got.Name = "changed"
	again, _ := cache.GetByUserID("alice")
	assert.Empty(t, again.Name)
}

func TestHouseholdCacheZeroTTLDeletes(t *testing.T) {
	cache := NewHouseholdCache()
	cache.SetByUserID("alice", &householddomain.Household{ID: "hh-1"}, time.Minute)
	cache.SetByUserID("alice", &householddomain.Household{ID: "hh-1"}, 0)

	_, ok := cache.GetByUserID("alice")
	assert.False(t, ok)
}

func TestHouseholdCacheClear(t *testing.T) {
	cache := NewHouseholdCache()
	cache.SetByUserID("alice", &householddomain.Household{ID: "hh-1"}, time.Minute)
	cache.SetByUserID("bob", &householddomain.Household{ID: "hh-1"}, time.Minute)
	cache.DeleteByUserID("alice")

	_, ok := cache.GetByUserID("alice")
	assert.False(t, ok)
	_, ok = cache.GetByUserID("bob")
	assert.True(t, ok)

	cache.Clear()
	_, ok = cache.GetByUserID("bob")
	assert.False(t, ok)
}
