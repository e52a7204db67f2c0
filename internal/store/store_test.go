package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// openTemp creates a store backed by a temporary database.
func openTemp(t *testing.T) *Store {
	t.Helper()
	s, err := Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

// ============================================================================
// User Tests
// ============================================================================

func TestUpsertGetUser(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()

	require.NoError(t, s.UpsertUser(ctx, &User{ID: "alex", Name: "Alex", Tier: TierBasic}))

	got, err := s.GetUser(ctx, "alex")
	require.NoError(t, err)
	assert.Equal(t, "alex", got.ID)
	assert.Equal(t, "Alex", got.Name)
	assert.Equal(t, TierBasic, got.Tier)
	assert.False(t, got.CreatedAt.IsZero())
}

func TestUpsertUser_UpdatesTier(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()

	require.NoError(t, s.UpsertUser(ctx, &User{ID: "alex", Name: "Alex", Tier: TierBasic}))
	require.NoError(t, s.UpsertUser(ctx, &User{ID: "alex", Name: "Alexandra", Tier: TierPremium}))

	got, err := s.GetUser(ctx, "alex")
	require.NoError(t, err)
	assert.Equal(t, "Alexandra", got.Name)
	assert.Equal(t, TierPremium, got.Tier)
}

func TestGetUser_NotFound(t *testing.T) {
	s := openTemp(t)

	_, err := s.GetUser(context.Background(), "ghost")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

// ============================================================================
// Tick Tests
// ============================================================================

func TestAddTick_AssignsID(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()

	require.NoError(t, s.UpsertUser(ctx, &User{ID: "alex", Name: "Alex", Tier: TierBasic}))

	tick := &Tick{UserID: "alex", Route: "Warmup Corner", Grade: "6a", Style: "onsight", Discipline: "sport"}
	require.NoError(t, s.AddTick(ctx, tick))
	assert.NotZero(t, tick.ID)
}

func TestRecentTicks_NewestFirst(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()

	require.NoError(t, s.UpsertUser(ctx, &User{ID: "alex", Name: "Alex", Tier: TierPremium}))

	base := time.Now().Add(-72 * time.Hour)
	for i, route := range []string{"oldest", "middle", "newest"} {
		err := s.AddTick(ctx, &Tick{
			UserID:     "alex",
			Route:      route,
			Grade:      "6c",
			Style:      "redpoint",
			Discipline: "sport",
			LoggedAt:   base.Add(time.Duration(i) * 24 * time.Hour),
		})
		require.NoError(t, err)
	}

	ticks, err := s.RecentTicks(ctx, "alex", 0)
	require.NoError(t, err)
	require.Len(t, ticks, 3)
	assert.Equal(t, "newest", ticks[0].Route)
	assert.Equal(t, "middle", ticks[1].Route)
	assert.Equal(t, "oldest", ticks[2].Route)
}

func TestRecentTicks_Limit(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()

	require.NoError(t, s.UpsertUser(ctx, &User{ID: "alex", Name: "Alex", Tier: TierPremium}))
	for i := 0; i < 5; i++ {
		err := s.AddTick(ctx, &Tick{
			UserID:     "alex",
			Route:      "lap",
			Grade:      "6b",
			Style:      "redpoint",
			Discipline: "sport",
			LoggedAt:   time.Now().Add(time.Duration(-i) * time.Hour),
		})
		require.NoError(t, err)
	}

	ticks, err := s.RecentTicks(ctx, "alex", 2)
	require.NoError(t, err)
	assert.Len(t, ticks, 2)
}

func TestRecentTicks_EmptyUser(t *testing.T) {
	s := openTemp(t)

	ticks, err := s.RecentTicks(context.Background(), "nobody", 10)
	require.NoError(t, err)
	assert.Empty(t, ticks)
}
