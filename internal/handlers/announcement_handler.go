package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/modcore/shop-backend/internal/dto"
	"github.com/modcore/shop-backend/internal/middleware"
	"github.com/modcore/shop-backend/internal/services"
)

type AnnouncementHandler struct {
	announcementService *services.AnnouncementService
}

func NewAnnouncementHandler(announcementService *services.AnnouncementService) *AnnouncementHandler {
	return &AnnouncementHandler{announcementService: announcementService}
}

func (h *AnnouncementHandler) List(c *fiber.Ctx) error {
	items, err := h.announcementService.List(c.QueryInt("limit"))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Internal server error",
		})
	}
	return c.JSON(items)
}

func (h *AnnouncementHandler) Create(c *fiber.Ctx) error {
	authorID, err := middleware.CurrentUserID(c)
	if err != nil {
		return unauthorized(c)
	}

	var req dto.AnnouncementRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}

	item, err := h.announcementService.Create(authorID, req.Title, req.Body, req.Pinned)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: err.Error(),
		})
	}
	return c.Status(fiber.StatusCreated).JSON(item)
}

func (h *AnnouncementHandler) Update(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid announcement id",
		})
	}

	var req dto.AnnouncementRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}

	item, err := h.announcementService.Update(id, req.Title, req.Body, req.Pinned)
	if err != nil {
		if errors.Is(err, services.ErrAnnouncementNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
				Error: true, Message: "Announcement not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Internal server error",
		})
	}
	return c.JSON(item)
}

func (h *AnnouncementHandler) Delete(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid announcement id",
		})
	}

	if err := h.announcementService.Delete(id); err != nil {
		if errors.Is(err, services.ErrAnnouncementNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
				Error: true, Message: "Announcement not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Internal server error",
		})
	}
	return c.JSON(fiber.Map{"message": "Announcement deleted"})
}
