package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/modcore/shop-backend/internal/dto"
	"github.com/modcore/shop-backend/internal/services"
)

type AdminHandler struct {
	adminService *services.AdminService
}

func NewAdminHandler(adminService *services.AdminService) *AdminHandler {
	return &AdminHandler{adminService: adminService}
}

func (h *AdminHandler) FindUser(c *fiber.Ctx) error {
	profile, err := h.adminService.FindProfile(c.UserContext(), c.Params("username"))
	if err != nil {
		return adminError(c, err)
	}
	return c.JSON(profile)
}

func (h *AdminHandler) SetBalance(c *fiber.Ctx) error {
	targetID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badID(c)
	}

	var req dto.SetBalanceRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}

	if err := h.adminService.SetBalance(c.UserContext(), targetID, req.Amount); err != nil {
		return adminError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Balance updated"})
}

func (h *AdminHandler) AdjustBalance(c *fiber.Ctx) error {
	targetID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badID(c)
	}

	var req dto.AdjustBalanceRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}

	newBalance, err := h.adminService.AdjustBalance(c.UserContext(), targetID, req.Delta)
	if err != nil {
		return adminError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Balance adjusted", "new_balance": newBalance})
}

func (h *AdminHandler) BanUser(c *fiber.Ctx) error {
	targetID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badID(c)
	}
	if err := h.adminService.Ban(c.UserContext(), targetID); err != nil {
		return adminError(c, err)
	}
	return c.JSON(fiber.Map{"message": "User banned"})
}

func (h *AdminHandler) UnbanUser(c *fiber.Ctx) error {
	targetID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badID(c)
	}
	if err := h.adminService.Unban(c.UserContext(), targetID); err != nil {
		return adminError(c, err)
	}
	return c.JSON(fiber.Map{"message": "User unbanned"})
}

func (h *AdminHandler) SetAdmin(c *fiber.Ctx) error {
	targetID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badID(c)
	}

	var req dto.SetAdminRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}

	if err := h.adminService.SetAdmin(c.UserContext(), targetID, req.IsAdmin); err != nil {
		return adminError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Role updated"})
}

func (h *AdminHandler) CreatePromoCode(c *fiber.Ctx) error {
	var req dto.CreatePromoRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}

	promo, err := h.adminService.CreatePromoCode(c.UserContext(), req.Code, req.Amount, req.MaxRedemptions)
	if err != nil {
		if errors.Is(err, services.ErrPromoCodeExists) {
			return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{
				Error: true, Message: err.Error(),
			})
		}
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: err.Error(),
		})
	}
	return c.Status(fiber.StatusCreated).JSON(promo)
}

func (h *AdminHandler) ListPromoCodes(c *fiber.Ctx) error {
	promos, err := h.adminService.ListPromoCodes(c.UserContext())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Internal server error",
		})
	}
	return c.JSON(promos)
}

func (h *AdminHandler) DeactivatePromoCode(c *fiber.Ctx) error {
	if err := h.adminService.DeactivatePromoCode(c.UserContext(), c.Params("code")); err != nil {
		return adminError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Promo code deactivated"})
}

func adminError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrUserNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
			Error: true, Message: "User not found",
		})
	case errors.Is(err, services.ErrInvalidCode):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
			Error: true, Message: "Promo code not found",
		})
	case errors.Is(err, services.ErrNegativeBalance):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Balance cannot go negative",
		})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Internal server error",
		})
	}
}

func badID(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
		Error: true, Message: "Invalid user id",
	})
}

func badBody(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
		Error: true, Message: "Invalid request body",
	})
}
