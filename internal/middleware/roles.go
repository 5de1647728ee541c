package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/modcore/shop-backend/internal/dto"
	"github.com/modcore/shop-backend/internal/models"
	"github.com/modcore/shop-backend/internal/store"
)

// AdminRequired gates a route on the profile's is_admin (or is_owner) flag.
// Roles are read from the profile store on every request so a revoked flag
// takes effect without waiting for token expiry.
func AdminRequired(profiles store.ProfileStore) fiber.Handler {
	return requireRole(profiles, func(p *models.Profile) bool {
		return p.IsAdmin || p.IsOwner
	}, "Admin access required")
}

// OwnerRequired gates a route on the is_owner flag.
func OwnerRequired(profiles store.ProfileStore) fiber.Handler {
	return requireRole(profiles, func(p *models.Profile) bool {
		return p.IsOwner
	}, "Owner access required")
}

func requireRole(profiles store.ProfileStore, allowed func(*models.Profile) bool, message string) fiber.Handler {
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

		if !allowed(profile) {
			return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
				Error: true, Message: message,
			})
		}
		return c.Next()
	}
}
