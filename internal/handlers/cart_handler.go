package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/modcore/shop-backend/internal/dto"
	"github.com/modcore/shop-backend/internal/middleware"
	"github.com/modcore/shop-backend/internal/services"
)

type CartHandler struct {
	carts  *services.CartService
	wallet *services.WalletService
}

func NewCartHandler(carts *services.CartService, wallet *services.WalletService) *CartHandler {
	return &CartHandler{carts: carts, wallet: wallet}
}

func (h *CartHandler) GetCart(c *fiber.Ctx) error {
	userID, err := middleware.CurrentUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	return c.JSON(h.cartResponse(c, userID))
}

func (h *CartHandler) AddItem(c *fiber.Ctx) error {
	userID, err := middleware.CurrentUserID(c)
	if err != nil {
		return unauthorized(c)
	}

	var req dto.CartItemRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid request body",
		})
	}

	if err := h.carts.Add(userID, req.ProductID); err != nil {
		switch {
		case errors.Is(err, services.ErrProductNotFound):
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
				Error: true, Message: "Product not found",
			})
		case errors.Is(err, services.ErrOutOfStock):
			return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{
				Error: true, Message: "Product is out of stock",
			})
		case errors.Is(err, services.ErrAlreadyInCart):
			// Adds are idempotent: report it, leave the cart unchanged.
			return c.Status(fiber.StatusOK).JSON(fiber.Map{
				"message": "Product is already in your cart",
				"cart":    h.cartResponse(c, userID),
			})
		default:
			return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
				Error: true, Message: "Internal server error",
			})
		}
	}

	return c.Status(fiber.StatusCreated).JSON(h.cartResponse(c, userID))
}

func (h *CartHandler) RemoveItem(c *fiber.Ctx) error {
	userID, err := middleware.CurrentUserID(c)
	if err != nil {
		return unauthorized(c)
	}

	if err := h.carts.Remove(userID, c.Params("id")); err != nil {
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
			Error: true, Message: "Product not in cart",
		})
	}
	return c.JSON(h.cartResponse(c, userID))
}

func (h *CartHandler) ClearCart(c *fiber.Ctx) error {
	userID, err := middleware.CurrentUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	h.carts.Clear(userID)
	return c.JSON(h.cartResponse(c, userID))
}

// Checkout settles the whole cart with one aggregate debit.
func (h *CartHandler) Checkout(c *fiber.Ctx) error {
	userID, err := middleware.CurrentUserID(c)
	if err != nil {
		return unauthorized(c)
	}

	result, err := h.wallet.PurchaseCart(c.UserContext(), userID)
	if err != nil {
		return settlementError(c, err)
	}
	return c.JSON(result)
}

func (h *CartHandler) cartResponse(c *fiber.Ctx, userID uuid.UUID) dto.CartResponse {
	items := h.carts.Items(userID)
	out := dto.CartResponse{
		Items: make([]dto.ProductResponse, 0, len(items)),
		Total: h.carts.Total(userID),
	}
	for _, p := range items {
		resp := productResponse(p)
		resp.InCart = true
		resp.Purchased = h.wallet.IsProductPurchased(c.UserContext(), userID, p.ID)
		out.Items = append(out.Items, resp)
	}
	return out
}

func unauthorized(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
		Error: true, Message: "Unauthorized",
	})
}
