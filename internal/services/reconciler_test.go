package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/modcore/shop-backend/internal/cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRefreshOverwritesSnapshot(t *testing.T) {
	ctx := context.Background()
	user := testProfile("100.00")
	profiles := newFakeProfileStore(user)
	snaps := cache.NewMemoryStore()
	r := NewReconciler(profiles, snaps, time.Hour)

	// Optimistic snapshot that drifted from the remote row.
	drifted := cache.NewSnapshot(user)
	drifted.Balance = dec("20.01")
	require.NoError(t, snaps.PutSnapshot(ctx, drifted))

	require.NoError(t, r.Refresh(ctx, user.ID))

	snap, err := snaps.GetSnapshot(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, snap.Balance.Equal(dec("100.00")), "remote state wins")
}

func TestRefreshFailureKeepsOptimisticValue(t *testing.T) {
	ctx := context.Background()
	user := testProfile("100.00")
	profiles := newFakeProfileStore(user)
	snaps := cache.NewMemoryStore()
	r := NewReconciler(profiles, snaps, time.Hour)

	optimistic := cache.NewSnapshot(user)
	optimistic.Balance = dec("20.01")
	require.NoError(t, snaps.PutSnapshot(ctx, optimistic))

	profiles.getErr = errors.New("network down")
	require.Error(t, r.Refresh(ctx, user.ID))

	snap, err := snaps.GetSnapshot(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, snap.Balance.Equal(dec("20.01")), "a failed refresh never reverts the snapshot")
}

func TestAuthEventsDriveTracking(t *testing.T) {
	ctx := context.Background()
	user := testProfile("42.00")
	profiles := newFakeProfileStore(user)
	snaps := cache.NewMemoryStore()
	r := NewReconciler(profiles, snaps, time.Hour)

	r.HandleAuthEvent(AuthEvent{Type: AuthEventSignedIn, UserID: user.ID})

	// The sign-in refresh is async; wait for the snapshot to appear.
	require.Eventually(t, func() bool {
		_, err := snaps.GetSnapshot(ctx, user.ID)
		return err == nil
	}, time.Second, 10*time.Millisecond)

	r.mu.Lock()
	_, tracked := r.tracked[user.ID]
	r.mu.Unlock()
	assert.True(t, tracked)

	r.HandleAuthEvent(AuthEvent{Type: AuthEventSignedOut, UserID: user.ID})
	r.mu.Lock()
	_, tracked = r.tracked[user.ID]
	r.mu.Unlock()
	assert.False(t, tracked)
}

func TestPollingLoopRefreshesTrackedUsers(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	user := testProfile("77.00")
	profiles := newFakeProfileStore(user)
	snaps := cache.NewMemoryStore()
	r := NewReconciler(profiles, snaps, 10*time.Millisecond)
	r.Track(user.ID)

	go r.Start(ctx)

	require.Eventually(t, func() bool {
		snap, err := snaps.GetSnapshot(context.Background(), user.ID)
		return err == nil && snap.Balance.Equal(dec("77.00"))
	}, time.Second, 10*time.Millisecond)
}
