package services

import (
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/modcore/shop-backend/internal/catalog"
	"github.com/shopspring/decimal"
)

var (
	ErrProductNotFound = errors.New("product not found")
	ErrOutOfStock      = errors.New("product out of stock")
	ErrAlreadyInCart   = errors.New("product already in cart")
	ErrNotInCart       = errors.New("product not in cart")
)

// CartService holds per-user carts in memory. A cart is an ordered set of
// product references keyed by product id; adding a resident product is a
// no-op surfaced as ErrAlreadyInCart so the caller can notify.
type CartService struct {
	catalog *catalog.Catalog

	mu    sync.Mutex
	carts map[uuid.UUID][]string
}

func NewCartService(cat *catalog.Catalog) *CartService {
	return &CartService{
		catalog: cat,
		carts:   make(map[uuid.UUID][]string),
	}
}

func (s *CartService) Add(userID uuid.UUID, productID string) error {
	product, ok := s.catalog.Product(productID)
	if !ok {
		return ErrProductNotFound
	}
	if !product.Purchasable() {
		return ErrOutOfStock
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range s.carts[userID] {
		if id == productID {
			return ErrAlreadyInCart
		}
	}
	s.carts[userID] = append(s.carts[userID], productID)
	return nil
}

func (s *CartService) Remove(userID uuid.UUID, productID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	items := s.carts[userID]
	for i, id := range items {
		if id == productID {
			s.carts[userID] = append(items[:i], items[i+1:]...)
			return nil
		}
	}
	return ErrNotInCart
}

func (s *CartService) Clear(userID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.carts, userID)
}

// Items returns the cart's products in insertion order.
func (s *CartService) Items(userID uuid.UUID) []*catalog.Product {
	s.mu.Lock()
	ids := make([]string, len(s.carts[userID]))
	copy(ids, s.carts[userID])
	s.mu.Unlock()

	items := make([]*catalog.Product, 0, len(ids))
	for _, id := range ids {
		if p, ok := s.catalog.Product(id); ok {
			items = append(items, p)
		}
	}
	return items
}

func (s *CartService) Contains(userID uuid.UUID, productID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range s.carts[userID] {
		if id == productID {
			return true
		}
	}
	return false
}

func (s *CartService) Size(userID uuid.UUID) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.carts[userID])
}

// Total sums the effective price of every cart item.
func (s *CartService) Total(userID uuid.UUID) decimal.Decimal {
	total := decimal.Zero
	for _, item := range s.Items(userID) {
		total = total.Add(item.EffectivePrice())
	}
	return total
}
