package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/modcore/shop-backend/internal/catalog"
	"github.com/modcore/shop-backend/internal/dto"
	"github.com/modcore/shop-backend/internal/middleware"
	"github.com/modcore/shop-backend/internal/services"
)

type ShopHandler struct {
	catalog *catalog.Catalog
	wallet  *services.WalletService
	carts   *services.CartService
}

func NewShopHandler(cat *catalog.Catalog, wallet *services.WalletService, carts *services.CartService) *ShopHandler {
	return &ShopHandler{catalog: cat, wallet: wallet, carts: carts}
}

// ListProducts is public; purchased/in-cart flags are filled in only for
// authenticated callers.
func (h *ShopHandler) ListProducts(c *fiber.Ctx) error {
	products := h.catalog.Products()
	if category := c.Query("category"); category != "" {
		products = h.catalog.ByCategory(category)
	}

	userID, authErr := middleware.CurrentUserID(c)

	out := make([]dto.ProductResponse, 0, len(products))
	for _, p := range products {
		resp := productResponse(p)
		if authErr == nil {
			resp.Purchased = h.wallet.IsProductPurchased(c.UserContext(), userID, p.ID)
			resp.InCart = h.carts.Contains(userID, p.ID)
		}
		out = append(out, resp)
	}
	return c.JSON(out)
}

func (h *ShopHandler) GetProduct(c *fiber.Ctx) error {
	product, ok := h.catalog.Product(c.Params("id"))
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
			Error: true, Message: "Product not found",
		})
	}

	resp := productResponse(product)
	if userID, err := middleware.CurrentUserID(c); err == nil {
		resp.Purchased = h.wallet.IsProductPurchased(c.UserContext(), userID, product.ID)
		resp.InCart = h.carts.Contains(userID, product.ID)
	}
	return c.JSON(resp)
}

// BuyProduct settles a single product against the caller's balance.
func (h *ShopHandler) BuyProduct(c *fiber.Ctx) error {
	userID, err := middleware.CurrentUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Unauthorized",
		})
	}

	result, err := h.wallet.PurchaseSingle(c.UserContext(), userID, c.Params("id"))
	if err != nil {
		return settlementError(c, err)
	}
	return c.JSON(result)
}

func settlementError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrProductNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
			Error: true, Message: "Product not found",
		})
	case errors.Is(err, services.ErrOutOfStock):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{
			Error: true, Message: "Product is out of stock",
		})
	case errors.Is(err, services.ErrInsufficientBalance):
		return c.Status(fiber.StatusPaymentRequired).JSON(dto.ErrorResponse{
			Error: true, Message: "Insufficient balance",
		})
	case errors.Is(err, services.ErrCartEmpty):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Cart is empty",
		})
	case errors.Is(err, services.ErrTransactionFailed):
		return c.Status(fiber.StatusBadGateway).JSON(dto.ErrorResponse{
			Error: true, Message: "Transaction failed, please try again",
		})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Internal server error",
		})
	}
}

func productResponse(p *catalog.Product) dto.ProductResponse {
	return dto.ProductResponse{
		ID:              p.ID,
		Name:            p.Name,
		Price:           p.Price,
		DiscountedPrice: p.DiscountedPrice,
		EffectivePrice:  p.EffectivePrice(),
		Stock:           p.Stock,
		Category:        p.Category,
	}
}
