package cache

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore keeps client state in process memory. Used when no Redis
// address is configured, and by tests.
type MemoryStore struct {
	mu        sync.RWMutex
	snapshots map[uuid.UUID]Snapshot
	purchased map[uuid.UUID]map[string]struct{}
	redeemed  map[uuid.UUID]map[string]struct{}
	unameAt   map[uuid.UUID]time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		snapshots: make(map[uuid.UUID]Snapshot),
		purchased: make(map[uuid.UUID]map[string]struct{}),
		redeemed:  make(map[uuid.UUID]map[string]struct{}),
		unameAt:   make(map[uuid.UUID]time.Time),
	}
}

func (m *MemoryStore) GetSnapshot(_ context.Context, userID uuid.UUID) (*Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	snap, ok := m.snapshots[userID]
	if !ok {
		return nil, ErrMiss
	}
	cpy := snap
	return &cpy, nil
}

func (m *MemoryStore) PutSnapshot(_ context.Context, snap *Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snapshots[snap.UserID] = *snap
	return nil
}

func (m *MemoryStore) DeleteSnapshot(_ context.Context, userID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.snapshots, userID)
	return nil
}

func (m *MemoryStore) MarkPurchased(_ context.Context, userID uuid.UUID, productID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.purchased[userID] == nil {
		m.purchased[userID] = make(map[string]struct{})
	}
	m.purchased[userID][productID] = struct{}{}
	return nil
}

func (m *MemoryStore) IsPurchased(_ context.Context, userID uuid.UUID, productID string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.purchased[userID][productID]
	return ok, nil
}

func (m *MemoryStore) PurchasedIDs(_ context.Context, userID uuid.UUID) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]string, 0, len(m.purchased[userID]))
	for id := range m.purchased[userID] {
		ids = append(ids, id)
	}
	return ids, nil
}

func (m *MemoryStore) MarkRedeemed(_ context.Context, userID uuid.UUID, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.redeemed[userID] == nil {
		m.redeemed[userID] = make(map[string]struct{})
	}
	m.redeemed[userID][code] = struct{}{}
	return nil
}

func (m *MemoryStore) RedeemedCodes(_ context.Context, userID uuid.UUID) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	codes := make([]string, 0, len(m.redeemed[userID]))
	for code := range m.redeemed[userID] {
		codes = append(codes, code)
	}
	return codes, nil
}

func (m *MemoryStore) SetLastUsernameChange(_ context.Context, userID uuid.UUID, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.unameAt[userID] = at
	return nil
}

func (m *MemoryStore) LastUsernameChange(_ context.Context, userID uuid.UUID) (time.Time, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	at, ok := m.unameAt[userID]
	if !ok {
		return time.Time{}, ErrMiss
	}
	return at, nil
}
