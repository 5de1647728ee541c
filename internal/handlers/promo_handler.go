package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/modcore/shop-backend/internal/dto"
	"github.com/modcore/shop-backend/internal/middleware"
	"github.com/modcore/shop-backend/internal/services"
)

type PromoHandler struct {
	promoService *services.PromoService
}

func NewPromoHandler(promoService *services.PromoService) *PromoHandler {
	return &PromoHandler{promoService: promoService}
}

func (h *PromoHandler) Redeem(c *fiber.Ctx) error {
	userID, err := middleware.CurrentUserID(c)
	if err != nil {
		return unauthorized(c)
	}

	var req dto.RedeemRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid request body",
		})
	}

	result, err := h.promoService.Redeem(c.UserContext(), userID, req.Code)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidCode):
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
				Error: true, Message: "Invalid promo code",
			})
		case errors.Is(err, services.ErrCodeExhausted):
			return c.Status(fiber.StatusGone).JSON(dto.ErrorResponse{
				Error: true, Message: "Promo code has been fully redeemed",
			})
		case errors.Is(err, services.ErrAlreadyRedeemed):
			return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{
				Error: true, Message: "You already redeemed this code",
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

	return c.JSON(result)
}

// RedeemedCodes returns the display-only cache of the caller's redeemed codes.
func (h *PromoHandler) RedeemedCodes(c *fiber.Ctx) error {
	userID, err := middleware.CurrentUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	codes := h.promoService.RedeemedCodes(c.UserContext(), userID)
	if codes == nil {
		codes = []string{}
	}
	return c.JSON(fiber.Map{"codes": codes})
}
