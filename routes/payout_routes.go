package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/tutorhive/payouts/configs"
	"github.com/tutorhive/payouts/handlers"
	"github.com/tutorhive/payouts/middleware"
)

func PayoutRoutes(app *fiber.App, cfg *configs.Config) {
	api := app.Group("/api/v1")

	teacher := api.Group("/payouts", middleware.Protected(cfg.JWTSecret), middleware.TeacherRequired())
	teacher.Post("/", handlers.RequestPayout)
	teacher.Get("/", handlers.GetMyPayoutRequests)
	teacher.Post("/:id/cancel", handlers.CancelMyPayout)
	teacher.Get("/banks/resolve", handlers.ResolveBankAccount)

	wallet := api.Group("/wallet", middleware.Protected(cfg.JWTSecret), middleware.TeacherRequired())
	wallet.Get("/", handlers.GetMyWallet)
	wallet.Get("/ledger", handlers.GetMyLedger)
}
