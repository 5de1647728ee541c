// Package store defines the contracts for the hosted backend the
// storefront settles against: the profile store, the append-only purchase
// and promo ledgers, refresh-token persistence and the event outbox.
// The postgres subpackage is the shipped implementation; tests substitute
// in-process fakes.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/modcore/shop-backend/internal/models"
	"github.com/shopspring/decimal"
)

var (
	ErrNotFound = errors.New("record not found")
	ErrConflict = errors.New("record already exists")
)

// ProfileUpdate is a partial-field update. Nil fields are left untouched.
type ProfileUpdate struct {
	Username           *string
	Balance            *decimal.Decimal
	IsAdmin            *bool
	IsOwner            *bool
	Banned             *bool
	LastUsernameChange *time.Time
}

// PromoCodeUpdate is a partial-field update for a promo code row.
type PromoCodeUpdate struct {
	CurrentRedemptions *int
	Active             *bool
}

type ProfileStore interface {
	GetProfile(ctx context.Context, id uuid.UUID) (*models.Profile, error)
	GetProfileByUsername(ctx context.Context, username string) (*models.Profile, error)
	GetProfileByEmail(ctx context.Context, email string) (*models.Profile, error)
	InsertProfile(ctx context.Context, profile *models.Profile) error
	UpdateProfile(ctx context.Context, id uuid.UUID, update ProfileUpdate) error
}

type PurchaseLedger interface {
	InsertPurchase(ctx context.Context, purchase *models.Purchase) error
	// ListPurchases returns the user's purchases, newest first.
	ListPurchases(ctx context.Context, userID uuid.UUID) ([]models.Purchase, error)
}

type PromoStore interface {
	GetPromoCodeByCode(ctx context.Context, code string) (*models.PromoCode, error)
	CreatePromoCode(ctx context.Context, promo *models.PromoCode) error
	ListPromoCodes(ctx context.Context) ([]models.PromoCode, error)
	UpdatePromoCode(ctx context.Context, id uuid.UUID, update PromoCodeUpdate) error
	GetRedemption(ctx context.Context, userID, promoCodeID uuid.UUID) (*models.PromoRedemption, error)
	InsertRedemption(ctx context.Context, redemption *models.PromoRedemption) error
}

type TokenStore interface {
	InsertToken(ctx context.Context, token *models.RefreshToken) error
	// FindActiveToken returns the non-revoked token with the given hash.
	FindActiveToken(ctx context.Context, tokenHash string) (*models.RefreshToken, error)
	RevokeToken(ctx context.Context, id uuid.UUID) error
	// RevokeUserTokens force-terminates every session of the user.
	RevokeUserTokens(ctx context.Context, userID uuid.UUID) error
}

type OutboxStore interface {
	Enqueue(ctx context.Context, msg *models.OutboxMessage) error
	FetchPending(ctx context.Context, limit int) ([]models.OutboxMessage, error)
	MarkSent(ctx context.Context, id int64) error
	IncrementRetry(ctx context.Context, id int64) error
	MarkFailed(ctx context.Context, id int64) error
}
