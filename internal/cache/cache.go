// Package cache is the client-state layer: the optimistic user snapshot,
// the purchased-product-id set, the redeemed-code display cache and the
// username-change fallback timestamp. None of it is financial truth: the
// profile store stays authoritative and the reconciler overwrites the
// snapshot with remote state.
package cache

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/modcore/shop-backend/internal/models"
	"github.com/shopspring/decimal"
)

// ErrMiss is returned when no cached value exists for the key.
var ErrMiss = errors.New("cache miss")

// Snapshot is the locally cached view of a profile. It is rendered
// immediately and corrected by reconciliation.
type Snapshot struct {
	UserID             uuid.UUID       `json:"user_id"`
	Username           string          `json:"username"`
	Email              string          `json:"email"`
	Balance            decimal.Decimal `json:"balance"`
	IsAdmin            bool            `json:"is_admin"`
	IsOwner            bool            `json:"is_owner"`
	Banned             bool            `json:"banned"`
	LastUsernameChange *time.Time      `json:"last_username_change"`
	RefreshedAt        time.Time       `json:"refreshed_at"`
}

// NewSnapshot builds a snapshot from an authoritative profile row.
func NewSnapshot(p *models.Profile) *Snapshot {
	return &Snapshot{
		UserID:             p.ID,
		Username:           p.Username,
		Email:              p.Email,
		Balance:            p.Balance,
		IsAdmin:            p.IsAdmin,
		IsOwner:            p.IsOwner,
		Banned:             p.Banned,
		LastUsernameChange: p.LastUsernameChange,
		RefreshedAt:        time.Now().UTC(),
	}
}

type Store interface {
	GetSnapshot(ctx context.Context, userID uuid.UUID) (*Snapshot, error)
	PutSnapshot(ctx context.Context, snap *Snapshot) error
	DeleteSnapshot(ctx context.Context, userID uuid.UUID) error

	MarkPurchased(ctx context.Context, userID uuid.UUID, productID string) error
	IsPurchased(ctx context.Context, userID uuid.UUID, productID string) (bool, error)
	PurchasedIDs(ctx context.Context, userID uuid.UUID) ([]string, error)

	MarkRedeemed(ctx context.Context, userID uuid.UUID, code string) error
	RedeemedCodes(ctx context.Context, userID uuid.UUID) ([]string, error)

	SetLastUsernameChange(ctx context.Context, userID uuid.UUID, at time.Time) error
	LastUsernameChange(ctx context.Context, userID uuid.UUID) (time.Time, error)
}
