package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/tutorhive/payouts/configs"
	"github.com/tutorhive/payouts/handlers"
	"github.com/tutorhive/payouts/middleware"
)

// WebhookRoutes are unauthenticated; each handler verifies the provider's
// signature before touching the ledger. The internal credits endpoint is for
// the booking subsystem and requires an admin token.
func WebhookRoutes(app *fiber.App, cfg *configs.Config) {
	api := app.Group("/api/v1")

	api.Post("/webhooks/paystack", handlers.HandlePayStackWebhook)
	api.Post("/webhooks/stripe", handlers.HandleStripeWebhook)
	api.Post("/webhooks/paypal", handlers.HandlePayPalWebhook)

	internal := api.Group("/internal", middleware.Protected(cfg.JWTSecret), middleware.AdminRequired())
	internal.Post("/credits", handlers.RecordCredit)
}
