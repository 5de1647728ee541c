package services

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/modcore/shop-backend/internal/catalog"
	"github.com/modcore/shop-backend/internal/models"
	"github.com/modcore/shop-backend/internal/store"
	"github.com/shopspring/decimal"
)

// In-process fakes for the store contracts. Error fields inject failures
// per call site.

type fakeProfileStore struct {
	mu       sync.Mutex
	profiles map[uuid.UUID]*models.Profile

	getErr    error
	updateErr error
	updates   int
}

func newFakeProfileStore(profiles ...*models.Profile) *fakeProfileStore {
	s := &fakeProfileStore{profiles: make(map[uuid.UUID]*models.Profile)}
	for _, p := range profiles {
		cp := *p
		s.profiles[p.ID] = &cp
	}
	return s
}

func (s *fakeProfileStore) GetProfile(_ context.Context, id uuid.UUID) (*models.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.getErr != nil {
		return nil, s.getErr
	}
	p, ok := s.profiles[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *fakeProfileStore) GetProfileByUsername(_ context.Context, username string) (*models.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.profiles {
		if p.Username == username {
			cp := *p
			return &cp, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *fakeProfileStore) GetProfileByEmail(_ context.Context, email string) (*models.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.profiles {
		if p.Email == email {
			cp := *p
			return &cp, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *fakeProfileStore) InsertProfile(_ context.Context, profile *models.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.profiles {
		if p.Username == profile.Username || p.Email == profile.Email {
			return store.ErrConflict
		}
	}
	cp := *profile
	s.profiles[profile.ID] = &cp
	return nil
}

func (s *fakeProfileStore) UpdateProfile(_ context.Context, id uuid.UUID, update store.ProfileUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.updateErr != nil {
		return s.updateErr
	}
	p, ok := s.profiles[id]
	if !ok {
		return store.ErrNotFound
	}
	s.updates++
	if update.Username != nil {
		p.Username = *update.Username
	}
	if update.Balance != nil {
		p.Balance = *update.Balance
	}
	if update.IsAdmin != nil {
		p.IsAdmin = *update.IsAdmin
	}
	if update.IsOwner != nil {
		p.IsOwner = *update.IsOwner
	}
	if update.Banned != nil {
		p.Banned = *update.Banned
	}
	if update.LastUsernameChange != nil {
		p.LastUsernameChange = update.LastUsernameChange
	}
	return nil
}

func (s *fakeProfileStore) balance(id uuid.UUID) decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.profiles[id].Balance
}

func (s *fakeProfileStore) updateCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updates
}

type fakePurchaseLedger struct {
	mu        sync.Mutex
	rows      []models.Purchase
	insertErr error
}

func (s *fakePurchaseLedger) InsertPurchase(_ context.Context, purchase *models.Purchase) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.insertErr != nil {
		return s.insertErr
	}
	purchase.CreatedAt = time.Now()
	s.rows = append(s.rows, *purchase)
	return nil
}

func (s *fakePurchaseLedger) ListPurchases(_ context.Context, userID uuid.UUID) ([]models.Purchase, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Purchase
	for i := len(s.rows) - 1; i >= 0; i-- {
		if s.rows[i].UserID == userID {
			out = append(out, s.rows[i])
		}
	}
	return out, nil
}

func (s *fakePurchaseLedger) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rows)
}

type redemptionKey struct {
	userID uuid.UUID
	codeID uuid.UUID
}

type fakePromoStore struct {
	mu          sync.Mutex
	codes       map[uuid.UUID]*models.PromoCode
	redemptions map[redemptionKey]*models.PromoRedemption

	insertRedemptionErr error
	updateErr           error
}

func newFakePromoStore(codes ...*models.PromoCode) *fakePromoStore {
	s := &fakePromoStore{
		codes:       make(map[uuid.UUID]*models.PromoCode),
		redemptions: make(map[redemptionKey]*models.PromoRedemption),
	}
	for _, c := range codes {
		cp := *c
		s.codes[c.ID] = &cp
	}
	return s
}

func (s *fakePromoStore) GetPromoCodeByCode(_ context.Context, code string) (*models.PromoCode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.codes {
		if c.Code == code {
			cp := *c
			return &cp, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *fakePromoStore) CreatePromoCode(_ context.Context, promo *models.PromoCode) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.codes {
		if c.Code == promo.Code {
			return store.ErrConflict
		}
	}
	cp := *promo
	s.codes[promo.ID] = &cp
	return nil
}

func (s *fakePromoStore) ListPromoCodes(_ context.Context) ([]models.PromoCode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.PromoCode, 0, len(s.codes))
	for _, c := range s.codes {
		out = append(out, *c)
	}
	return out, nil
}

func (s *fakePromoStore) UpdatePromoCode(_ context.Context, id uuid.UUID, update store.PromoCodeUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.updateErr != nil {
		return s.updateErr
	}
	c, ok := s.codes[id]
	if !ok {
		return store.ErrNotFound
	}
	if update.CurrentRedemptions != nil {
		c.CurrentRedemptions = *update.CurrentRedemptions
	}
	if update.Active != nil {
		c.Active = *update.Active
	}
	return nil
}

func (s *fakePromoStore) GetRedemption(_ context.Context, userID, promoCodeID uuid.UUID) (*models.PromoRedemption, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.redemptions[redemptionKey{userID, promoCodeID}]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (s *fakePromoStore) InsertRedemption(_ context.Context, redemption *models.PromoRedemption) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.insertRedemptionErr != nil {
		return s.insertRedemptionErr
	}
	key := redemptionKey{redemption.UserID, redemption.PromoCodeID}
	if _, dup := s.redemptions[key]; dup {
		return store.ErrConflict
	}
	cp := *redemption
	s.redemptions[key] = &cp
	return nil
}

func (s *fakePromoStore) code(id uuid.UUID) models.PromoCode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.codes[id]
}

type fakeTokenStore struct {
	mu     sync.Mutex
	tokens map[uuid.UUID]*models.RefreshToken
}

func newFakeTokenStore() *fakeTokenStore {
	return &fakeTokenStore{tokens: make(map[uuid.UUID]*models.RefreshToken)}
}

func (s *fakeTokenStore) InsertToken(_ context.Context, token *models.RefreshToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *token
	s.tokens[token.ID] = &cp
	return nil
}

func (s *fakeTokenStore) FindActiveToken(_ context.Context, tokenHash string) (*models.RefreshToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.tokens {
		if t.TokenHash == tokenHash && !t.Revoked {
			cp := *t
			return &cp, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *fakeTokenStore) RevokeToken(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tokens[id]
	if !ok {
		return store.ErrNotFound
	}
	t.Revoked = true
	return nil
}

func (s *fakeTokenStore) RevokeUserTokens(_ context.Context, userID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.tokens {
		if t.UserID == userID {
			t.Revoked = true
		}
	}
	return nil
}

func (s *fakeTokenStore) activeCount(userID uuid.UUID) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, t := range s.tokens {
		if t.UserID == userID && !t.Revoked {
			n++
		}
	}
	return n
}

type fakeOutbox struct {
	mu   sync.Mutex
	msgs []models.OutboxMessage
}

func (s *fakeOutbox) Enqueue(_ context.Context, msg *models.OutboxMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	msg.ID = int64(len(s.msgs) + 1)
	s.msgs = append(s.msgs, *msg)
	return nil
}

func (s *fakeOutbox) FetchPending(_ context.Context, limit int) ([]models.OutboxMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.OutboxMessage
	for _, m := range s.msgs {
		if m.Status == models.OutboxStatusPending {
			out = append(out, m)
			if len(out) >= limit {
				break
			}
		}
	}
	return out, nil
}

func (s *fakeOutbox) MarkSent(_ context.Context, id int64) error {
	return s.setStatus(id, models.OutboxStatusSent)
}

func (s *fakeOutbox) IncrementRetry(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.msgs {
		if s.msgs[i].ID == id {
			s.msgs[i].RetryCount++
			return nil
		}
	}
	return store.ErrNotFound
}

func (s *fakeOutbox) MarkFailed(_ context.Context, id int64) error {
	return s.setStatus(id, models.OutboxStatusFailed)
}

func (s *fakeOutbox) setStatus(id int64, status string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.msgs {
		if s.msgs[i].ID == id {
			s.msgs[i].Status = status
			return nil
		}
	}
	return store.ErrNotFound
}

func (s *fakeOutbox) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.msgs)
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func testCatalog() *catalog.Catalog {
	discounted := dec("69.99")
	return catalog.New([]catalog.Product{
		{ID: "aimbot-pro", Name: "Aimbot Pro", Price: dec("79.99"), Stock: 10, DownloadURL: "https://cdn.example/aimbot-pro.zip"},
		{ID: "wallhack-elite", Name: "Wallhack Elite", Price: dec("59.99"), Stock: 10, DownloadURL: "https://cdn.example/wallhack-elite.zip"},
		{ID: "radar-overlay", Name: "Radar Overlay", Price: dec("89.99"), DiscountedPrice: &discounted, Stock: 10, DownloadURL: "https://cdn.example/radar-overlay.zip"},
		{ID: "esp-bundle", Name: "ESP Bundle", Price: dec("99.99"), Stock: 0, DownloadURL: "https://cdn.example/esp-bundle.zip"},
	})
}

func testProfile(balance string) *models.Profile {
	return &models.Profile{
		ID:       uuid.New(),
		Username: "player_one",
		Email:    "player@example.com",
		Balance:  dec(balance),
	}
}
