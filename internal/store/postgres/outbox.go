package postgres

import (
	"context"
	"fmt"

	"github.com/modcore/shop-backend/internal/models"
	"gorm.io/gorm"
)

func (s *Store) Enqueue(ctx context.Context, msg *models.OutboxMessage) error {
	if err := s.db.WithContext(ctx).Create(msg).Error; err != nil {
		return fmt.Errorf("enqueue outbox message: %w", err)
	}
	return nil
}

func (s *Store) FetchPending(ctx context.Context, limit int) ([]models.OutboxMessage, error) {
	var msgs []models.OutboxMessage
	err := s.db.WithContext(ctx).
		Where("status = ?", models.OutboxStatusPending).
		Order("created_at ASC").
		Limit(limit).
		Find(&msgs).Error
	if err != nil {
		return nil, fmt.Errorf("fetch pending outbox messages: %w", err)
	}
	return msgs, nil
}

func (s *Store) MarkSent(ctx context.Context, id int64) error {
	return s.db.WithContext(ctx).
		Model(&models.OutboxMessage{}).
		Where("id = ?", id).
		Update("status", models.OutboxStatusSent).Error
}

func (s *Store) IncrementRetry(ctx context.Context, id int64) error {
	return s.db.WithContext(ctx).
		Model(&models.OutboxMessage{}).
		Where("id = ?", id).
		Update("retry_count", gorm.Expr("retry_count + 1")).Error
}

func (s *Store) MarkFailed(ctx context.Context, id int64) error {
	return s.db.WithContext(ctx).
		Model(&models.OutboxMessage{}).
		Where("id = ?", id).
		Update("status", models.OutboxStatusFailed).Error
}
