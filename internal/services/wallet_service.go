package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/modcore/shop-backend/internal/cache"
	"github.com/modcore/shop-backend/internal/catalog"
	"github.com/modcore/shop-backend/internal/models"
	"github.com/modcore/shop-backend/internal/store"
	"github.com/shopspring/decimal"
)

var (
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrTransactionFailed   = errors.New("transaction failed")
	ErrCartEmpty           = errors.New("cart is empty")
)

// Settlement states. A checkout walks Idle → Validating → Debiting →
// RecordingPurchases → Reconciling → Done. Failed is reachable from
// Validating and Debiting only; purchase-record failures are non-fatal and
// the settlement still completes.
const (
	SettlementIdle        = "IDLE"
	SettlementValidating  = "VALIDATING"
	SettlementDebiting    = "DEBITING"
	SettlementRecording   = "RECORDING_PURCHASES"
	SettlementReconciling = "RECONCILING"
	SettlementDone        = "DONE"
	SettlementFailed      = "FAILED"
)

// Download points the buyer at a purchased product's resource.
type Download struct {
	ProductID   string `json:"product_id"`
	ProductName string `json:"product_name"`
	URL         string `json:"url"`
}

// SettlementResult reports a completed checkout. NewBalance is the
// optimistic post-debit balance; reconciliation corrects any drift.
type SettlementResult struct {
	SettlementID uuid.UUID       `json:"settlement_id"`
	Total        decimal.Decimal `json:"total"`
	NewBalance   decimal.Decimal `json:"new_balance"`
	Downloads    []Download      `json:"downloads"`
}

// WalletService settles purchases against the remote profile store: it
// verifies the balance precondition, writes the debit, appends purchase
// records and keeps the local snapshot in step. The debit write is the
// financially authoritative action; everything after it is best-effort.
type WalletService struct {
	profiles   store.ProfileStore
	purchases  store.PurchaseLedger
	outbox     store.OutboxStore
	snaps      cache.Store
	catalog    *catalog.Catalog
	carts      *CartService
	reconciler *Reconciler
	topic      string
}

func NewWalletService(
	profiles store.ProfileStore,
	purchases store.PurchaseLedger,
	outbox store.OutboxStore,
	snaps cache.Store,
	cat *catalog.Catalog,
	carts *CartService,
	reconciler *Reconciler,
	purchaseTopic string,
) *WalletService {
	return &WalletService{
		profiles:   profiles,
		purchases:  purchases,
		outbox:     outbox,
		snaps:      snaps,
		catalog:    cat,
		carts:      carts,
		reconciler: reconciler,
		topic:      purchaseTopic,
	}
}

// PurchaseSingle settles one product. The balance precondition is checked
// against the local snapshot before any remote write; a failed debit aborts
// everything; a failed purchase-record append is logged and the settlement
// still succeeds because the debit already did.
func (s *WalletService) PurchaseSingle(ctx context.Context, userID uuid.UUID, productID string) (*SettlementResult, error) {
	settlementID := uuid.New()
	s.transition(settlementID, SettlementValidating)

	product, ok := s.catalog.Product(productID)
	if !ok {
		s.transition(settlementID, SettlementFailed)
		return nil, ErrProductNotFound
	}
	if !product.Purchasable() {
		s.transition(settlementID, SettlementFailed)
		return nil, ErrOutOfStock
	}

	snap, err := s.snapshotFor(ctx, userID)
	if err != nil {
		s.transition(settlementID, SettlementFailed)
		return nil, err
	}

	price := product.EffectivePrice()
	if snap.Balance.LessThan(price) {
		// Precondition failure: no remote write was attempted.
		s.transition(settlementID, SettlementFailed)
		return nil, ErrInsufficientBalance
	}

	newBalance := snap.Balance.Sub(price)

	s.transition(settlementID, SettlementDebiting)
	if err := s.profiles.UpdateProfile(ctx, userID, store.ProfileUpdate{Balance: &newBalance}); err != nil {
		slog.Error("balance debit failed", "user_id", userID.String(), "product_id", productID, "error", err)
		s.transition(settlementID, SettlementFailed)
		return nil, fmt.Errorf("%w: %v", ErrTransactionFailed, err)
	}

	s.transition(settlementID, SettlementRecording)
	s.recordPurchase(ctx, userID, product, price)

	// Optimistic local update: the UI sees the new balance immediately,
	// reconciliation corrects any drift afterwards.
	snap.Balance = newBalance
	if err := s.snaps.PutSnapshot(ctx, snap); err != nil {
		slog.Warn("snapshot update failed after settlement", "user_id", userID.String(), "error", err)
	}
	if err := s.snaps.MarkPurchased(ctx, userID, product.ID); err != nil {
		slog.Warn("purchased-set update failed", "user_id", userID.String(), "product_id", product.ID, "error", err)
	}

	s.publishSettled(ctx, settlementID, userID, []*catalog.Product{product}, price)

	s.transition(settlementID, SettlementReconciling)
	s.reconciler.RefreshAsync(userID)

	s.transition(settlementID, SettlementDone)
	return &SettlementResult{
		SettlementID: settlementID,
		Total:        price,
		NewBalance:   newBalance,
		Downloads: []Download{{
			ProductID:   product.ID,
			ProductName: product.Name,
			URL:         product.DownloadURL,
		}},
	}, nil
}

// PurchaseCart settles the whole cart with a single aggregate debit, so the
// balance check and the debit are atomic relative to the cart total.
// Purchase-record appends are per item and independent; one failing does
// not block the others. The cart is cleared only once the debit succeeded.
func (s *WalletService) PurchaseCart(ctx context.Context, userID uuid.UUID) (*SettlementResult, error) {
	settlementID := uuid.New()
	s.transition(settlementID, SettlementValidating)

	items := s.carts.Items(userID)
	if len(items) == 0 {
		s.transition(settlementID, SettlementFailed)
		return nil, ErrCartEmpty
	}

	snap, err := s.snapshotFor(ctx, userID)
	if err != nil {
		s.transition(settlementID, SettlementFailed)
		return nil, err
	}

	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.EffectivePrice())
	}
	if snap.Balance.LessThan(total) {
		s.transition(settlementID, SettlementFailed)
		return nil, ErrInsufficientBalance
	}

	newBalance := snap.Balance.Sub(total)

	s.transition(settlementID, SettlementDebiting)
	if err := s.profiles.UpdateProfile(ctx, userID, store.ProfileUpdate{Balance: &newBalance}); err != nil {
		slog.Error("cart debit failed", "user_id", userID.String(), "total", total.String(), "error", err)
		s.transition(settlementID, SettlementFailed)
		return nil, fmt.Errorf("%w: %v", ErrTransactionFailed, err)
	}

	s.transition(settlementID, SettlementRecording)
	downloads := make([]Download, 0, len(items))
	for _, item := range items {
		s.recordPurchase(ctx, userID, item, item.EffectivePrice())
		if err := s.snaps.MarkPurchased(ctx, userID, item.ID); err != nil {
			slog.Warn("purchased-set update failed", "user_id", userID.String(), "product_id", item.ID, "error", err)
		}
		downloads = append(downloads, Download{
			ProductID:   item.ID,
			ProductName: item.Name,
			URL:         item.DownloadURL,
		})
	}

	s.carts.Clear(userID)

	snap.Balance = newBalance
	if err := s.snaps.PutSnapshot(ctx, snap); err != nil {
		slog.Warn("snapshot update failed after settlement", "user_id", userID.String(), "error", err)
	}

	s.publishSettled(ctx, settlementID, userID, items, total)

	s.transition(settlementID, SettlementReconciling)
	s.reconciler.RefreshAsync(userID)

	s.transition(settlementID, SettlementDone)
	return &SettlementResult{
		SettlementID: settlementID,
		Total:        total,
		NewBalance:   newBalance,
		Downloads:    downloads,
	}, nil
}

// IsProductPurchased consults the local purchased-set. Display gating only;
// it is never an input to a financial decision.
func (s *WalletService) IsProductPurchased(ctx context.Context, userID uuid.UUID, productID string) bool {
	purchased, err := s.snaps.IsPurchased(ctx, userID, productID)
	if err != nil {
		slog.Warn("purchased-set read failed", "user_id", userID.String(), "error", err)
		return false
	}
	return purchased
}

// PurchasedIDs returns the locally cached purchased-product-id set.
func (s *WalletService) PurchasedIDs(ctx context.Context, userID uuid.UUID) []string {
	ids, err := s.snaps.PurchasedIDs(ctx, userID)
	if err != nil {
		slog.Warn("purchased-set read failed", "user_id", userID.String(), "error", err)
		return nil
	}
	return ids
}

// snapshotFor returns the cached snapshot, falling back to a remote read on
// a cache miss.
func (s *WalletService) snapshotFor(ctx context.Context, userID uuid.UUID) (*cache.Snapshot, error) {
	snap, err := s.snaps.GetSnapshot(ctx, userID)
	if err == nil {
		return snap, nil
	}
	if !errors.Is(err, cache.ErrMiss) {
		slog.Warn("snapshot read failed, falling back to remote", "user_id", userID.String(), "error", err)
	}

	profile, err := s.profiles.GetProfile(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}
	snap = cache.NewSnapshot(profile)
	if err := s.snaps.PutSnapshot(ctx, snap); err != nil {
		slog.Warn("snapshot write failed", "user_id", userID.String(), "error", err)
	}
	return snap, nil
}

// recordPurchase appends one ledger row. Failures are logged, never fatal:
// the debit already committed and is the authoritative action.
func (s *WalletService) recordPurchase(ctx context.Context, userID uuid.UUID, product *catalog.Product, amount decimal.Decimal) {
	purchase := &models.Purchase{
		ID:          uuid.New(),
		UserID:      userID,
		ProductID:   product.ID,
		ProductName: product.Name,
		Amount:      amount,
	}
	if err := s.purchases.InsertPurchase(ctx, purchase); err != nil {
		slog.Error("purchase record append failed",
			"user_id", userID.String(),
			"product_id", product.ID,
			"amount", amount.String(),
			"error", err)
	}
}

func (s *WalletService) publishSettled(ctx context.Context, settlementID, userID uuid.UUID, items []*catalog.Product, total decimal.Decimal) {
	if s.outbox == nil {
		return
	}

	ids := make([]string, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ID)
	}
	payload, err := json.Marshal(map[string]interface{}{
		"settlement_id": settlementID.String(),
		"user_id":       userID.String(),
		"product_ids":   ids,
		"total":         total.String(),
		"settled_at":    time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return
	}

	msg := &models.OutboxMessage{
		MessageKey: settlementID.String(),
		Topic:      s.topic,
		Payload:    string(payload),
		Status:     models.OutboxStatusPending,
	}
	if err := s.outbox.Enqueue(ctx, msg); err != nil {
		slog.Error("settlement event enqueue failed", "settlement_id", settlementID.String(), "error", err)
	}
}

func (s *WalletService) transition(settlementID uuid.UUID, state string) {
	slog.Debug("settlement state", "settlement_id", settlementID.String(), "state", state)
}
