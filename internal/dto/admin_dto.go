package dto

import "github.com/shopspring/decimal"

type SetBalanceRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

type AdjustBalanceRequest struct {
	Delta decimal.Decimal `json:"delta"`
}

type SetAdminRequest struct {
	IsAdmin bool `json:"is_admin"`
}

type CreatePromoRequest struct {
	Code           string          `json:"code"`
	Amount         decimal.Decimal `json:"amount"`
	MaxRedemptions int             `json:"max_redemptions"`
}

type AnnouncementRequest struct {
	Title  string `json:"title"`
	Body   string `json:"body"`
	Pinned bool   `json:"pinned"`
}
