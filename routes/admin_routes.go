package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/tutorhive/payouts/configs"
	"github.com/tutorhive/payouts/handlers"
	"github.com/tutorhive/payouts/middleware"
)

func AdminRoutes(app *fiber.App, cfg *configs.Config) {
	admin := app.Group("/api/v1/admin", middleware.Protected(cfg.JWTSecret), middleware.AdminRequired())

	admin.Get("/payouts", handlers.ListPayoutRequests)
	admin.Post("/payouts/:id/process", handlers.ProcessPayoutRequest)
	admin.Post("/payouts/:id/verify", handlers.VerifyPayoutRequest)
	admin.Post("/payouts/:id/cancel", handlers.CancelPayoutRequest)

	admin.Post("/wallets/sync", handlers.SyncAllWallets)
	admin.Post("/wallets/:walletId/sync", handlers.SyncWallet)
}
