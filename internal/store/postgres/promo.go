package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/modcore/shop-backend/internal/models"
	"github.com/modcore/shop-backend/internal/store"
	"gorm.io/gorm"
)

func (s *Store) GetPromoCodeByCode(ctx context.Context, code string) (*models.PromoCode, error) {
	var promo models.PromoCode
	if err := s.db.WithContext(ctx).Where("code = ?", code).First(&promo).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("get promo code: %w", err)
	}
	return &promo, nil
}

func (s *Store) CreatePromoCode(ctx context.Context, promo *models.PromoCode) error {
	if err := s.db.WithContext(ctx).Create(promo).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return store.ErrConflict
		}
		return fmt.Errorf("create promo code: %w", err)
	}
	return nil
}

func (s *Store) ListPromoCodes(ctx context.Context) ([]models.PromoCode, error) {
	var promos []models.PromoCode
	if err := s.db.WithContext(ctx).Order("created_at DESC").Find(&promos).Error; err != nil {
		return nil, fmt.Errorf("list promo codes: %w", err)
	}
	return promos, nil
}

func (s *Store) UpdatePromoCode(ctx context.Context, id uuid.UUID, update store.PromoCodeUpdate) error {
	fields := map[string]interface{}{}
	if update.CurrentRedemptions != nil {
		fields["current_redemptions"] = *update.CurrentRedemptions
	}
	if update.Active != nil {
		fields["active"] = *update.Active
	}
	if len(fields) == 0 {
		return nil
	}

	result := s.db.WithContext(ctx).Model(&models.PromoCode{}).Where("id = ?", id).Updates(fields)
	if result.Error != nil {
		return fmt.Errorf("update promo code: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) GetRedemption(ctx context.Context, userID, promoCodeID uuid.UUID) (*models.PromoRedemption, error) {
	var redemption models.PromoRedemption
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND promo_code_id = ?", userID, promoCodeID).
		First(&redemption).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("get redemption: %w", err)
	}
	return &redemption, nil
}

func (s *Store) InsertRedemption(ctx context.Context, redemption *models.PromoRedemption) error {
	if err := s.db.WithContext(ctx).Create(redemption).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return store.ErrConflict
		}
		return fmt.Errorf("insert redemption: %w", err)
	}
	return nil
}
