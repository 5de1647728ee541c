package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Profile is the authoritative user row. Balance lives here and nowhere
// else; every settlement and redemption writes back to this table.
type Profile struct {
	ID                 uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Username           string          `gorm:"size:32;not null;uniqueIndex" json:"username"`
	Email              string          `gorm:"size:255;not null;uniqueIndex" json:"email"`
	Password           string          `gorm:"not null" json:"-"`
	Balance            decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0" json:"balance"`
	IsAdmin            bool            `gorm:"not null;default:false" json:"is_admin"`
	IsOwner            bool            `gorm:"not null;default:false" json:"is_owner"`
	Banned             bool            `gorm:"not null;default:false" json:"banned"`
	LastUsernameChange *time.Time      `json:"last_username_change"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
	DeletedAt          gorm.DeletedAt  `gorm:"index" json:"-"`
}
