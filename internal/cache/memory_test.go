package cache

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/modcore/shop-backend/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemorySnapshotRoundTrip(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()
	userID := uuid.New()

	_, err := m.GetSnapshot(ctx, userID)
	assert.ErrorIs(t, err, ErrMiss)

	snap := &Snapshot{UserID: userID, Username: "player_one", Balance: decimal.RequireFromString("42.50")}
	require.NoError(t, m.PutSnapshot(ctx, snap))

	got, err := m.GetSnapshot(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, "player_one", got.Username)
	assert.True(t, got.Balance.Equal(decimal.RequireFromString("42.50")))

	// The store hands out copies, not aliases.
	got.Username = "mutated"
	again, err := m.GetSnapshot(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, "player_one", again.Username)

	require.NoError(t, m.DeleteSnapshot(ctx, userID))
	_, err = m.GetSnapshot(ctx, userID)
	assert.ErrorIs(t, err, ErrMiss)
}

func TestMemoryPurchasedSet(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()
	userID := uuid.New()

	ok, err := m.IsPurchased(ctx, userID, "aimbot-pro")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, m.MarkPurchased(ctx, userID, "aimbot-pro"))
	require.NoError(t, m.MarkPurchased(ctx, userID, "aimbot-pro"))
	require.NoError(t, m.MarkPurchased(ctx, userID, "wallhack-elite"))

	ok, err = m.IsPurchased(ctx, userID, "aimbot-pro")
	require.NoError(t, err)
	assert.True(t, ok)

	ids, err := m.PurchasedIDs(ctx, userID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"aimbot-pro", "wallhack-elite"}, ids, "marking twice stores once")

	other, err := m.PurchasedIDs(ctx, uuid.New())
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestMemoryRedeemedSet(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()
	userID := uuid.New()

	require.NoError(t, m.MarkRedeemed(ctx, userID, "WELCOME50"))

	codes, err := m.RedeemedCodes(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, []string{"WELCOME50"}, codes)
}

func TestMemoryLastUsernameChange(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()
	userID := uuid.New()

	_, err := m.LastUsernameChange(ctx, userID)
	assert.ErrorIs(t, err, ErrMiss)

	at := time.Now().Add(-time.Hour).Truncate(time.Second)
	require.NoError(t, m.SetLastUsernameChange(ctx, userID, at))

	got, err := m.LastUsernameChange(ctx, userID)
	require.NoError(t, err)
	assert.True(t, got.Equal(at))
}

func TestNewSnapshotCopiesProfile(t *testing.T) {
	now := time.Now()
	p := &models.Profile{
		ID:                 uuid.New(),
		Username:           "player_one",
		Email:              "player@example.com",
		Balance:            decimal.RequireFromString("12.34"),
		IsAdmin:            true,
		Banned:             false,
		LastUsernameChange: &now,
	}

	snap := NewSnapshot(p)
	assert.Equal(t, p.ID, snap.UserID)
	assert.Equal(t, p.Username, snap.Username)
	assert.True(t, snap.Balance.Equal(p.Balance))
	assert.True(t, snap.IsAdmin)
	assert.Equal(t, &now, snap.LastUsernameChange)
	assert.False(t, snap.RefreshedAt.IsZero())
}
