package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/modcore/shop-backend/internal/cache"
	"github.com/modcore/shop-backend/internal/models"
	"github.com/modcore/shop-backend/internal/store"
	"github.com/shopspring/decimal"
)

var (
	ErrInvalidCode     = errors.New("invalid promo code")
	ErrCodeExhausted   = errors.New("promo code exhausted")
	ErrAlreadyRedeemed = errors.New("promo code already redeemed")
)

// RedemptionResult reports a successful promo credit.
type RedemptionResult struct {
	Code       string          `json:"code"`
	Amount     decimal.Decimal `json:"amount"`
	NewBalance decimal.Decimal `json:"new_balance"`
}

// PromoService redeems promo codes. The remote redemption row is the real
// double-redeem guard; the cached redeemed-code list only short-circuits
// obviously repeated attempts.
type PromoService struct {
	profiles   store.ProfileStore
	promos     store.PromoStore
	outbox     store.OutboxStore
	snaps      cache.Store
	reconciler *Reconciler
	topic      string
}

func NewPromoService(
	profiles store.ProfileStore,
	promos store.PromoStore,
	outbox store.OutboxStore,
	snaps cache.Store,
	reconciler *Reconciler,
	redemptionTopic string,
) *PromoService {
	return &PromoService{
		profiles:   profiles,
		promos:     promos,
		outbox:     outbox,
		snaps:      snaps,
		reconciler: reconciler,
		topic:      redemptionTopic,
	}
}

// Redeem credits the user's balance with the code's amount. Each failure
// short-circuits with its own reason. The balance credit is the fatal step;
// the redemption row and the counter increment after it are best-effort,
// matching the settlement engine's policy that only the balance write can
// fail the operation once validation passed.
func (s *PromoService) Redeem(ctx context.Context, userID uuid.UUID, rawCode string) (*RedemptionResult, error) {
	code := strings.TrimSpace(rawCode)
	if code == "" {
		return nil, ErrInvalidCode
	}

	promo, err := s.promos.GetPromoCodeByCode(ctx, code)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrInvalidCode
		}
		return nil, fmt.Errorf("promo lookup: %w", err)
	}
	if !promo.Active {
		return nil, ErrInvalidCode
	}

	if promo.MaxRedemptions > 0 && promo.CurrentRedemptions >= promo.MaxRedemptions {
		// The cap was reached without the code deactivating itself;
		// repair the flag and reject.
		inactive := false
		if err := s.promos.UpdatePromoCode(ctx, promo.ID, store.PromoCodeUpdate{Active: &inactive}); err != nil {
			slog.Warn("promo deactivation failed", "code", promo.Code, "error", err)
		}
		return nil, ErrCodeExhausted
	}

	// The remote ledger, not the local cache, decides "already redeemed":
	// redemption state has to survive reloads and concurrent tabs.
	if _, err := s.promos.GetRedemption(ctx, userID, promo.ID); err == nil {
		return nil, ErrAlreadyRedeemed
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("redemption lookup: %w", err)
	}

	// Fresh remote read: the credit must be computed from the
	// authoritative balance, not from a possibly stale snapshot.
	profile, err := s.profiles.GetProfile(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}

	newBalance := profile.Balance.Add(promo.Amount)
	if err := s.profiles.UpdateProfile(ctx, userID, store.ProfileUpdate{Balance: &newBalance}); err != nil {
		slog.Error("balance credit failed", "user_id", userID.String(), "code", promo.Code, "error", err)
		return nil, fmt.Errorf("%w: %v", ErrTransactionFailed, err)
	}

	redemption := &models.PromoRedemption{
		ID:          uuid.New(),
		UserID:      userID,
		PromoCodeID: promo.ID,
		Amount:      promo.Amount,
	}
	if err := s.promos.InsertRedemption(ctx, redemption); err != nil {
		slog.Error("redemption record append failed", "user_id", userID.String(), "code", promo.Code, "error", err)
	}

	newCount := promo.CurrentRedemptions + 1
	update := store.PromoCodeUpdate{CurrentRedemptions: &newCount}
	if promo.MaxRedemptions > 0 && newCount >= promo.MaxRedemptions {
		inactive := false
		update.Active = &inactive
	}
	if err := s.promos.UpdatePromoCode(ctx, promo.ID, update); err != nil {
		slog.Error("redemption counter update failed", "code", promo.Code, "error", err)
	}

	snap := cache.NewSnapshot(profile)
	snap.Balance = newBalance
	if err := s.snaps.PutSnapshot(ctx, snap); err != nil {
		slog.Warn("snapshot update failed after redemption", "user_id", userID.String(), "error", err)
	}
	if err := s.snaps.MarkRedeemed(ctx, userID, promo.Code); err != nil {
		slog.Warn("redeemed-code cache update failed", "user_id", userID.String(), "error", err)
	}

	s.publishRedeemed(ctx, redemption, promo)
	s.reconciler.RefreshAsync(userID)

	return &RedemptionResult{
		Code:       promo.Code,
		Amount:     promo.Amount,
		NewBalance: newBalance,
	}, nil
}

// RedeemedCodes returns the display-only cache of codes the user redeemed.
func (s *PromoService) RedeemedCodes(ctx context.Context, userID uuid.UUID) []string {
	codes, err := s.snaps.RedeemedCodes(ctx, userID)
	if err != nil {
		slog.Warn("redeemed-code cache read failed", "user_id", userID.String(), "error", err)
		return nil
	}
	return codes
}

func (s *PromoService) publishRedeemed(ctx context.Context, redemption *models.PromoRedemption, promo *models.PromoCode) {
	if s.outbox == nil {
		return
	}

	payload, err := json.Marshal(map[string]interface{}{
		"redemption_id": redemption.ID.String(),
		"user_id":       redemption.UserID.String(),
		"code":          promo.Code,
		"amount":        promo.Amount.String(),
		"redeemed_at":   time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return
	}

	msg := &models.OutboxMessage{
		MessageKey: redemption.ID.String(),
		Topic:      s.topic,
		Payload:    string(payload),
		Status:     models.OutboxStatusPending,
	}
	if err := s.outbox.Enqueue(ctx, msg); err != nil {
		slog.Error("redemption event enqueue failed", "redemption_id", redemption.ID.String(), "error", err)
	}
}
