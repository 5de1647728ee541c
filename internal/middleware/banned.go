package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/modcore/shop-backend/internal/dto"
	"github.com/modcore/shop-backend/internal/store"
)

// BannedCheck rejects requests from banned accounts. Bans are remote truth,
// so the profile store is consulted on every protected request.
func BannedCheck(profiles store.ProfileStore) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := CurrentUserID(c)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
				Error: true, Message: "Unauthorized",
			})
		}

		profile, err := profiles.GetProfile(c.UserContext(), userID)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
				Error: true, Message: "Unauthorized",
			})
		}

		if profile.Banned {
			return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
				Error: true, Message: "Account is banned",
			})
		}
		return c.Next()
	}
}
