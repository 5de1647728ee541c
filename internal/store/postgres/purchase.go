package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/modcore/shop-backend/internal/models"
)

func (s *Store) InsertPurchase(ctx context.Context, purchase *models.Purchase) error {
	if err := s.db.WithContext(ctx).Create(purchase).Error; err != nil {
		return fmt.Errorf("insert purchase: %w", err)
	}
	return nil
}

func (s *Store) ListPurchases(ctx context.Context, userID uuid.UUID) ([]models.Purchase, error) {
	var purchases []models.Purchase
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&purchases).Error
	if err != nil {
		return nil, fmt.Errorf("list purchases: %w", err)
	}
	return purchases, nil
}
