package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PromoCode is a balance-credit voucher. MaxRedemptions == 0 means
// unlimited; a capped code flips Active to false when the counter
// reaches the cap.
type PromoCode struct {
	ID                 uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Code               string          `gorm:"size:64;not null;uniqueIndex" json:"code"`
	Amount             decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"amount"`
	MaxRedemptions     int             `gorm:"not null;default:0" json:"max_redemptions"`
	CurrentRedemptions int             `gorm:"not null;default:0" json:"current_redemptions"`
	Active             bool            `gorm:"not null;default:true" json:"active"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
}

// PromoRedemption records that a user redeemed a code. The existence of a
// row for (user_id, promo_code_id) is the source of truth for "already
// redeemed"; the redemption engine checks this table, never a local cache.
type PromoRedemption struct {
	ID          uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID      uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_redemptions_user_code" json:"user_id"`
	PromoCodeID uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_redemptions_user_code" json:"promo_code_id"`
	Amount      decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"amount"`
	CreatedAt   time.Time       `gorm:"autoCreateTime" json:"created_at"`
}
