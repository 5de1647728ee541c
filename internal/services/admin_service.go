package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/modcore/shop-backend/internal/models"
	"github.com/modcore/shop-backend/internal/store"
	"github.com/shopspring/decimal"
)

var (
	ErrNegativeBalance   = errors.New("balance cannot go negative")
	ErrPromoCodeExists   = errors.New("promo code already exists")
	ErrInvalidPromoSetup = errors.New("promo amount must be positive")
)

// AdminService implements the role-gated tooling: balance edits, bans and
// promo-code administration. Role checks happen at the route boundary; this
// service assumes the caller was already authorized.
type AdminService struct {
	profiles   store.ProfileStore
	promos     store.PromoStore
	tokens     store.TokenStore
	reconciler *Reconciler
}

func NewAdminService(profiles store.ProfileStore, promos store.PromoStore, tokens store.TokenStore, reconciler *Reconciler) *AdminService {
	return &AdminService{
		profiles:   profiles,
		promos:     promos,
		tokens:     tokens,
		reconciler: reconciler,
	}
}

// SetBalance overwrites the target's balance outright.
func (s *AdminService) SetBalance(ctx context.Context, targetID uuid.UUID, amount decimal.Decimal) error {
	if amount.IsNegative() {
		return ErrNegativeBalance
	}
	if err := s.profiles.UpdateProfile(ctx, targetID, store.ProfileUpdate{Balance: &amount}); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("set balance: %w", err)
	}
	s.reconciler.RefreshAsync(targetID)
	return nil
}

// AdjustBalance applies a signed delta computed from a fresh remote read.
func (s *AdminService) AdjustBalance(ctx context.Context, targetID uuid.UUID, delta decimal.Decimal) (decimal.Decimal, error) {
	profile, err := s.profiles.GetProfile(ctx, targetID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return decimal.Zero, ErrUserNotFound
		}
		return decimal.Zero, fmt.Errorf("load profile: %w", err)
	}

	newBalance := profile.Balance.Add(delta)
	if newBalance.IsNegative() {
		return decimal.Zero, ErrNegativeBalance
	}
	if err := s.profiles.UpdateProfile(ctx, targetID, store.ProfileUpdate{Balance: &newBalance}); err != nil {
		return decimal.Zero, fmt.Errorf("adjust balance: %w", err)
	}
	s.reconciler.RefreshAsync(targetID)
	return newBalance, nil
}

// Ban soft-disables the account and force-terminates every session by
// revoking the user's refresh tokens.
func (s *AdminService) Ban(ctx context.Context, targetID uuid.UUID) error {
	banned := true
	if err := s.profiles.UpdateProfile(ctx, targetID, store.ProfileUpdate{Banned: &banned}); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("ban user: %w", err)
	}
	if err := s.tokens.RevokeUserTokens(ctx, targetID); err != nil {
		slog.Error("session revocation failed for banned user", "user_id", targetID.String(), "error", err)
	}
	s.reconciler.RefreshAsync(targetID)
	return nil
}

func (s *AdminService) Unban(ctx context.Context, targetID uuid.UUID) error {
	banned := false
	if err := s.profiles.UpdateProfile(ctx, targetID, store.ProfileUpdate{Banned: &banned}); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("unban user: %w", err)
	}
	s.reconciler.RefreshAsync(targetID)
	return nil
}

// SetAdmin grants or revokes the admin flag. Owner-only at the boundary.
func (s *AdminService) SetAdmin(ctx context.Context, targetID uuid.UUID, isAdmin bool) error {
	if err := s.profiles.UpdateProfile(ctx, targetID, store.ProfileUpdate{IsAdmin: &isAdmin}); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("set admin flag: %w", err)
	}
	s.reconciler.RefreshAsync(targetID)
	return nil
}

func (s *AdminService) CreatePromoCode(ctx context.Context, code string, amount decimal.Decimal, maxRedemptions int) (*models.PromoCode, error) {
	if !amount.IsPositive() {
		return nil, ErrInvalidPromoSetup
	}
	if maxRedemptions < 0 {
		maxRedemptions = 0
	}

	promo := &models.PromoCode{
		ID:             uuid.New(),
		Code:           code,
		Amount:         amount,
		MaxRedemptions: maxRedemptions,
		Active:         true,
	}
	if err := s.promos.CreatePromoCode(ctx, promo); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return nil, ErrPromoCodeExists
		}
		return nil, fmt.Errorf("create promo code: %w", err)
	}
	return promo, nil
}

func (s *AdminService) DeactivatePromoCode(ctx context.Context, code string) error {
	promo, err := s.promos.GetPromoCodeByCode(ctx, code)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrInvalidCode
		}
		return fmt.Errorf("promo lookup: %w", err)
	}
	inactive := false
	return s.promos.UpdatePromoCode(ctx, promo.ID, store.PromoCodeUpdate{Active: &inactive})
}

func (s *AdminService) ListPromoCodes(ctx context.Context) ([]models.PromoCode, error) {
	return s.promos.ListPromoCodes(ctx)
}

// FindProfile resolves a target by username for the admin panel.
func (s *AdminService) FindProfile(ctx context.Context, username string) (*models.Profile, error) {
	profile, err := s.profiles.GetProfileByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("find profile: %w", err)
	}
	return profile, nil
}
