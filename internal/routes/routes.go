package routes

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/modcore/shop-backend/internal/config"
	"github.com/modcore/shop-backend/internal/handlers"
	"github.com/modcore/shop-backend/internal/middleware"
	"github.com/modcore/shop-backend/internal/store"
)

func Setup(
	app *fiber.App,
	cfg *config.Config,
	profiles store.ProfileStore,
	authHandler *handlers.AuthHandler,
	healthHandler *handlers.HealthHandler,
	shopHandler *handlers.ShopHandler,
	cartHandler *handlers.CartHandler,
	promoHandler *handlers.PromoHandler,
	profileHandler *handlers.ProfileHandler,
	announcementHandler *handlers.AnnouncementHandler,
	adminHandler *handlers.AdminHandler,
) {
	api := app.Group("/api")

	// General API rate limiter: 60 req/min per IP
	api.Use(limiter.New(limiter.Config{
		Max:               60,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))

	api.Get("/health", healthHandler.Health)

	// Catalog and announcements are public. Product responses still carry
	// ownership flags when a valid token happens to be present.
	api.Get("/products", shopHandler.ListProducts)
	api.Get("/products/:id", shopHandler.GetProduct)
	api.Get("/announcements", announcementHandler.List)

	// Auth-specific rate limit: 10 req/min per IP (stricter)
	auth := api.Group("/auth")
	auth.Use(limiter.New(limiter.Config{
		Max:               10,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))
	auth.Post("/signup", authHandler.SignUp)
	auth.Post("/signin", authHandler.SignIn)
	auth.Post("/refresh", authHandler.Refresh)

	api.Post("/auth/signout", middleware.JWTProtected(cfg), authHandler.SignOut)

	// Everything below needs a session and an account in good standing.
	protected := api.Group("", middleware.JWTProtected(cfg), middleware.BannedCheck(profiles))

	protected.Get("/me", profileHandler.Me)
	protected.Post("/me/refresh", profileHandler.RefreshMe)
	protected.Put("/me/username", profileHandler.ChangeUsername)
	protected.Get("/me/purchases", profileHandler.Purchases)
	protected.Get("/me/purchases/ids", profileHandler.PurchasedIDs)

	protected.Post("/products/:id/buy", shopHandler.BuyProduct)

	protected.Get("/cart", cartHandler.GetCart)
	protected.Post("/cart/items", cartHandler.AddItem)
	protected.Delete("/cart/items/:id", cartHandler.RemoveItem)
	protected.Delete("/cart", cartHandler.ClearCart)
	protected.Post("/cart/checkout", cartHandler.Checkout)

	protected.Post("/promo/redeem", promoHandler.Redeem)
	protected.Get("/promo/redeemed", promoHandler.RedeemedCodes)

	// Admin panel (protected + admin required)
	admin := api.Group("/admin", middleware.JWTProtected(cfg), middleware.AdminRequired(profiles))
	admin.Get("/users/:username", adminHandler.FindUser)
	admin.Post("/users/:id/ban", adminHandler.BanUser)
	admin.Post("/users/:id/unban", adminHandler.UnbanUser)
	admin.Post("/promos", adminHandler.CreatePromoCode)
	admin.Get("/promos", adminHandler.ListPromoCodes)
	admin.Delete("/promos/:code", adminHandler.DeactivatePromoCode)
	admin.Post("/announcements", announcementHandler.Create)
	admin.Put("/announcements/:id", announcementHandler.Update)
	admin.Delete("/announcements/:id", announcementHandler.Delete)

	// Owner-only: balance edits and role grants
	owner := api.Group("/owner", middleware.JWTProtected(cfg), middleware.OwnerRequired(profiles))
	owner.Put("/users/:id/balance", adminHandler.SetBalance)
	owner.Post("/users/:id/balance/adjust", adminHandler.AdjustBalance)
	owner.Put("/users/:id/admin", adminHandler.SetAdmin)
}
