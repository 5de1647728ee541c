package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/modcore/shop-backend/internal/cache"
	"github.com/modcore/shop-backend/internal/config"
	"github.com/modcore/shop-backend/internal/models"
	"github.com/modcore/shop-backend/internal/store"
)

var ErrUsernameChangedRecently = errors.New("username can only be changed once per window")

// ProfileService serves profile reads (snapshot-first) and the rare
// profile mutations a user can perform themselves.
type ProfileService struct {
	profiles  store.ProfileStore
	purchases store.PurchaseLedger
	snaps     cache.Store
	window    time.Duration
}

func NewProfileService(profiles store.ProfileStore, purchases store.PurchaseLedger, snaps cache.Store, cfg *config.Config) *ProfileService {
	return &ProfileService{
		profiles:  profiles,
		purchases: purchases,
		snaps:     snaps,
		window:    cfg.UsernameChangeWindow,
	}
}

// Me returns the cached snapshot when one exists, falling back to (and
// caching) the remote row on a miss.
func (s *ProfileService) Me(ctx context.Context, userID uuid.UUID) (*cache.Snapshot, error) {
	snap, err := s.snaps.GetSnapshot(ctx, userID)
	if err == nil {
		return snap, nil
	}
	if !errors.Is(err, cache.ErrMiss) {
		slog.Warn("snapshot read failed", "user_id", userID.String(), "error", err)
	}

	profile, err := s.profiles.GetProfile(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("load profile: %w", err)
	}
	snap = cache.NewSnapshot(profile)
	if err := s.snaps.PutSnapshot(ctx, snap); err != nil {
		slog.Warn("snapshot write failed", "user_id", userID.String(), "error", err)
	}
	return snap, nil
}

// ChangeUsername renames the user at most once per rolling window. The
// remote timestamp is authoritative; the cached timestamp is a fallback
// for profiles written before the column existed.
func (s *ProfileService) ChangeUsername(ctx context.Context, userID uuid.UUID, newUsername string) error {
	newUsername = strings.TrimSpace(newUsername)
	if len(newUsername) < 3 || len(newUsername) > 32 {
		return errors.New("username must be between 3 and 32 characters")
	}

	profile, err := s.profiles.GetProfile(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("load profile: %w", err)
	}
	if profile.Username == newUsername {
		return nil
	}

	lastChange := profile.LastUsernameChange
	if lastChange == nil {
		if cached, err := s.snaps.LastUsernameChange(ctx, userID); err == nil {
			lastChange = &cached
		}
	}
	if lastChange != nil && time.Since(*lastChange) < s.window {
		return ErrUsernameChangedRecently
	}

	if existing, err := s.profiles.GetProfileByUsername(ctx, newUsername); err == nil && existing.ID != userID {
		return ErrUsernameTaken
	}

	now := time.Now().UTC()
	update := store.ProfileUpdate{Username: &newUsername, LastUsernameChange: &now}
	if err := s.profiles.UpdateProfile(ctx, userID, update); err != nil {
		return fmt.Errorf("update username: %w", err)
	}

	if err := s.snaps.SetLastUsernameChange(ctx, userID, now); err != nil {
		slog.Warn("username-change cache write failed", "user_id", userID.String(), "error", err)
	}

	profile.Username = newUsername
	profile.LastUsernameChange = &now
	if err := s.snaps.PutSnapshot(ctx, cache.NewSnapshot(profile)); err != nil {
		slog.Warn("snapshot update failed after rename", "user_id", userID.String(), "error", err)
	}
	return nil
}

// Purchases lists the user's ledger rows, newest first.
func (s *ProfileService) Purchases(ctx context.Context, userID uuid.UUID) ([]models.Purchase, error) {
	return s.purchases.ListPurchases(ctx, userID)
}
