package services

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/modcore/shop-backend/internal/cache"
	"github.com/modcore/shop-backend/internal/store"
)

// Reconciler is the single convergence point for snapshot refreshes. The
// interval poller, sign-in events and post-settlement hooks all funnel into
// Refresh so there is exactly one piece of refresh logic. A failed refresh
// is logged and dropped; the optimistic snapshot stays in place until a
// later refresh succeeds.
type Reconciler struct {
	profiles store.ProfileStore
	snaps    cache.Store
	interval time.Duration

	mu      sync.Mutex
	tracked map[uuid.UUID]struct{}
}

func NewReconciler(profiles store.ProfileStore, snaps cache.Store, interval time.Duration) *Reconciler {
	return &Reconciler{
		profiles: profiles,
		snaps:    snaps,
		interval: interval,
		tracked:  make(map[uuid.UUID]struct{}),
	}
}

// Refresh overwrites the local snapshot with the remote profile row.
// Safe to call repeatedly; last write wins.
func (r *Reconciler) Refresh(ctx context.Context, userID uuid.UUID) error {
	profile, err := r.profiles.GetProfile(ctx, userID)
	if err != nil {
		slog.Warn("snapshot refresh failed", "user_id", userID.String(), "error", err)
		return err
	}
	if err := r.snaps.PutSnapshot(ctx, cache.NewSnapshot(profile)); err != nil {
		slog.Warn("snapshot write failed", "user_id", userID.String(), "error", err)
		return err
	}
	return nil
}

// RefreshAsync fires a best-effort background refresh. The caller never
// waits on the result and failures stay silent.
func (r *Reconciler) RefreshAsync(userID uuid.UUID) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = r.Refresh(ctx, userID)
	}()
}

// Track registers a user for interval refreshes.
func (r *Reconciler) Track(userID uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tracked[userID] = struct{}{}
}

func (r *Reconciler) Untrack(userID uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.tracked, userID)
}

// HandleAuthEvent keeps the tracked set in sync with session state and
// refreshes immediately on sign-in.
func (r *Reconciler) HandleAuthEvent(ev AuthEvent) {
	switch ev.Type {
	case AuthEventSignedIn:
		r.Track(ev.UserID)
		r.RefreshAsync(ev.UserID)
	case AuthEventSignedOut:
		r.Untrack(ev.UserID)
	}
}

// Start runs the polling loop until ctx is cancelled.
func (r *Reconciler) Start(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.refreshTracked(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (r *Reconciler) refreshTracked(ctx context.Context) {
	r.mu.Lock()
	ids := make([]uuid.UUID, 0, len(r.tracked))
	for id := range r.tracked {
		ids = append(ids, id)
	}
	r.mu.Unlock()

	for _, id := range ids {
		_ = r.Refresh(ctx, id)
	}
}
