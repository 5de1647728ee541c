package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/modcore/shop-backend/internal/dto"
	"github.com/modcore/shop-backend/internal/middleware"
	"github.com/modcore/shop-backend/internal/services"
)

type ProfileHandler struct {
	profileService *services.ProfileService
	reconciler     *services.Reconciler
	wallet         *services.WalletService
}

func NewProfileHandler(profileService *services.ProfileService, reconciler *services.Reconciler, wallet *services.WalletService) *ProfileHandler {
	return &ProfileHandler{profileService: profileService, reconciler: reconciler, wallet: wallet}
}

// Me serves the cached snapshot immediately and kicks a background refresh,
// so the response is fast but drift self-corrects.
func (h *ProfileHandler) Me(c *fiber.Ctx) error {
	userID, err := middleware.CurrentUserID(c)
	if err != nil {
		return unauthorized(c)
	}

	snap, err := h.profileService.Me(c.UserContext(), userID)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
				Error: true, Message: "Profile not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Internal server error",
		})
	}

	h.reconciler.RefreshAsync(userID)
	return c.JSON(snap)
}

// RefreshMe forces a synchronous reconciliation (the manual refresh button).
func (h *ProfileHandler) RefreshMe(c *fiber.Ctx) error {
	userID, err := middleware.CurrentUserID(c)
	if err != nil {
		return unauthorized(c)
	}

	if err := h.reconciler.Refresh(c.UserContext(), userID); err != nil {
		return c.Status(fiber.StatusBadGateway).JSON(dto.ErrorResponse{
			Error: true, Message: "Refresh failed",
		})
	}

	snap, err := h.profileService.Me(c.UserContext(), userID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Internal server error",
		})
	}
	return c.JSON(snap)
}

func (h *ProfileHandler) ChangeUsername(c *fiber.Ctx) error {
	userID, err := middleware.CurrentUserID(c)
	if err != nil {
		return unauthorized(c)
	}

	var req dto.ChangeUsernameRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid request body",
		})
	}

	if err := h.profileService.ChangeUsername(c.UserContext(), userID, req.Username); err != nil {
		switch {
		case errors.Is(err, services.ErrUsernameTaken):
			return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{
				Error: true, Message: "Username already taken",
			})
		case errors.Is(err, services.ErrUsernameChangedRecently):
			return c.Status(fiber.StatusTooManyRequests).JSON(dto.ErrorResponse{
				Error: true, Message: "Username was changed recently, try again later",
			})
		case errors.Is(err, services.ErrUserNotFound):
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
				Error: true, Message: "Profile not found",
			})
		default:
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
				Error: true, Message: err.Error(),
			})
		}
	}

	return c.JSON(fiber.Map{"message": "Username updated"})
}

// Purchases lists the caller's purchase history from the remote ledger.
func (h *ProfileHandler) Purchases(c *fiber.Ctx) error {
	userID, err := middleware.CurrentUserID(c)
	if err != nil {
		return unauthorized(c)
	}

	purchases, err := h.profileService.Purchases(c.UserContext(), userID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Internal server error",
		})
	}

	out := make([]dto.PurchaseResponse, 0, len(purchases))
	for _, p := range purchases {
		out = append(out, dto.PurchaseResponse{
			ID:          p.ID.String(),
			ProductID:   p.ProductID,
			ProductName: p.ProductName,
			Amount:      p.Amount,
			CreatedAt:   p.CreatedAt,
		})
	}
	return c.JSON(out)
}

// PurchasedIDs serves the locally cached purchased-set for download gating.
func (h *ProfileHandler) PurchasedIDs(c *fiber.Ctx) error {
	userID, err := middleware.CurrentUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	ids := h.wallet.PurchasedIDs(c.UserContext(), userID)
	if ids == nil {
		ids = []string{}
	}
	return c.JSON(fiber.Map{"product_ids": ids})
}
