package services

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/modcore/shop-backend/internal/models"
	"gorm.io/gorm"
)

var ErrAnnouncementNotFound = errors.New("announcement not found")

type AnnouncementService struct {
	db *gorm.DB
}

func NewAnnouncementService(db *gorm.DB) *AnnouncementService {
	return &AnnouncementService{db: db}
}

// List returns announcements pinned-first, newest within each group.
func (s *AnnouncementService) List(limit int) ([]models.Announcement, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	var items []models.Announcement
	err := s.db.Order("pinned DESC, created_at DESC").Limit(limit).Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("list announcements: %w", err)
	}
	return items, nil
}

func (s *AnnouncementService) Create(authorID uuid.UUID, title, body string, pinned bool) (*models.Announcement, error) {
	if title == "" || body == "" {
		return nil, errors.New("title and body are required")
	}

	item := models.Announcement{
		ID:       uuid.New(),
		Title:    title,
		Body:     body,
		Pinned:   pinned,
		AuthorID: authorID,
	}
	if err := s.db.Create(&item).Error; err != nil {
		return nil, fmt.Errorf("create announcement: %w", err)
	}
	return &item, nil
}

func (s *AnnouncementService) Update(id uuid.UUID, title, body string, pinned bool) (*models.Announcement, error) {
	var item models.Announcement
	if err := s.db.First(&item, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAnnouncementNotFound
		}
		return nil, fmt.Errorf("load announcement: %w", err)
	}

	updates := map[string]interface{}{"pinned": pinned}
	if title != "" {
		updates["title"] = title
	}
	if body != "" {
		updates["body"] = body
	}
	if err := s.db.Model(&item).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("update announcement: %w", err)
	}
	return &item, nil
}

func (s *AnnouncementService) Delete(id uuid.UUID) error {
	result := s.db.Delete(&models.Announcement{}, "id = ?", id)
	if result.Error != nil {
		return fmt.Errorf("delete announcement: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrAnnouncementNotFound
	}
	return nil
}
