package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

type ProductResponse struct {
	ID              string           `json:"id"`
	Name            string           `json:"name"`
	Price           decimal.Decimal  `json:"price"`
	DiscountedPrice *decimal.Decimal `json:"discounted_price,omitempty"`
	EffectivePrice  decimal.Decimal  `json:"effective_price"`
	Stock           int              `json:"stock"`
	Category        string           `json:"category"`
	Purchased       bool             `json:"purchased"`
	InCart          bool             `json:"in_cart"`
}

type CartItemRequest struct {
	ProductID string `json:"product_id"`
}

type CartResponse struct {
	Items []ProductResponse `json:"items"`
	Total decimal.Decimal   `json:"total"`
}

type RedeemRequest struct {
	Code string `json:"code"`
}

type ChangeUsernameRequest struct {
	Username string `json:"username"`
}

type PurchaseResponse struct {
	ID          string          `json:"id"`
	ProductID   string          `json:"product_id"`
	ProductName string          `json:"product_name"`
	Amount      decimal.Decimal `json:"amount"`
	CreatedAt   time.Time       `json:"created_at"`
}
