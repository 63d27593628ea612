package main

import (
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/tutorhive/payouts/cache"
	"github.com/tutorhive/payouts/configs"
	"github.com/tutorhive/payouts/database"
	"github.com/tutorhive/payouts/handlers"
	"github.com/tutorhive/payouts/jobs"
	"github.com/tutorhive/payouts/models"
	"github.com/tutorhive/payouts/notifications"
	"github.com/tutorhive/payouts/payments"
	"github.com/tutorhive/payouts/routes"
	"github.com/tutorhive/payouts/services"
)

func main() {
	cfg := configs.Load()

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	log := zerolog.New(os.Stdout).Level(level).With().Timestamp().Logger()
	if cfg.Env == "development" {
		log = log.Output(zerolog.ConsoleWriter{Out: os.Stdout})
	}

	database.ConnectDB(cfg)
	database.Migrate()
	notifications.InitEmailService(cfg)

	var cacheStore cache.Store
	if cfg.RedisURL != "" {
		redisStore, err := cache.NewRedis(cfg.RedisURL)
		if err != nil {
			log.Fatal().Err(err).Msg("🔥 Failed to connect to Redis")
		}
		cacheStore = redisStore
		log.Info().Msg("✅ Redis cache connected")
	} else {
		cacheStore = cache.NewMemory()
		log.Warn().Msg("⚠️ REDIS_URL not set, using in-memory cache")
	}

	paystack := payments.NewPayStackService(cfg, log)
	stripe := payments.NewStripeService(cfg, log)
	paypal := payments.NewPayPalService(cfg, cacheStore, log)

	adapters := map[string]payments.GatewayAdapter{
		models.PayoutMethodBankTransfer: paystack,
		models.PayoutMethodMobileMoney:  paystack,
		models.PayoutMethodPayPal:       paypal,
		models.PayoutMethodStripe:       stripe,
	}
	webhookGateways := map[string]payments.GatewayAdapter{
		paystack.Name(): paystack,
		stripe.Name():   stripe,
		paypal.Name():   paypal,
	}

	walletService := services.NewWalletService(database.DB, cfg.SettlementCurrency, log)
	currencyService := services.NewCurrencyService(database.DB, cacheStore, cfg, log)
	syncService := services.NewWalletSyncService(database.DB, log)
	payoutService := services.NewPayoutService(database.DB, walletService, currencyService, adapters, cfg, log)

	handlers.Init(cfg, payoutService, walletService, currencyService, syncService, paystack, webhookGateways, log)
	jobs.Init(cfg, payoutService, syncService, log)

	c := cron.New()
	c.AddFunc("0 * * * *", jobs.SyncStaleWallets)
	c.AddFunc("*/10 * * * *", jobs.VerifyStuckPayouts)
	go c.Start()
	log.Info().Msg("✅ Cron jobs scheduled successfully.")

	app := fiber.New(fiber.Config{
		AppName:      "TutorHive Payouts",
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			log.Error().Err(err).Str("path", c.Path()).Str("method", c.Method()).Msg("unhandled error")
			return c.Status(code).JSON(fiber.Map{
				"status":  "error",
				"code":    code,
				"message": err.Error(),
			})
		},
	})

	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, PUT, PATCH, DELETE, OPTIONS",
	}))
	app.Use(recover.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		TimeFormat: "2006-01-02 15:04:05",
		Format:     "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))

	routes.PayoutRoutes(app, cfg)
	routes.AdminRoutes(app, cfg)
	routes.WebhookRoutes(app, cfg)

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	log.Info().Str("port", cfg.Port).Msg("✅ Server is running")
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatal().Err(err).Msg("🔥 Server failed to start")
	}
}
