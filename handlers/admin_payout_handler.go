package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/tutorhive/payouts/database"
	"github.com/tutorhive/payouts/models"
	"github.com/tutorhive/payouts/payments"
	"github.com/tutorhive/payouts/services"
	"gorm.io/gorm"
)

func loadPayoutRequest(c *fiber.Ctx) (*models.PayoutRequest, error) {
	var request models.PayoutRequest
	if err := database.DB.First(&request, "id = ?", c.Params("id")).Error; err != nil {
		return nil, err
	}
	return &request, nil
}

func ListPayoutRequests(c *fiber.Ctx) error {
	query := database.DB.Order("created_at desc").Limit(c.QueryInt("limit", 50)).Offset(c.QueryInt("offset", 0))
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var requests []models.PayoutRequest
	if err := query.Find(&requests).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Database error"})
	}
	return c.JSON(requests)
}

// ProcessPayoutRequest retries initiation of a pending payout whose previous
// attempt failed or was rejected.
func ProcessPayoutRequest(c *fiber.Ctx) error {
	request, err := loadPayoutRequest(c)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Payout request not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Database error"})
	}

	result, err := payoutService.ProcessPayout(request)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrNotPending):
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Payout request is not pending"})
		case errors.Is(err, payments.ErrNotConfigured):
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "Payment gateway is not configured"})
		case errors.Is(err, services.ErrUnsupportedMethod):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Unsupported payment method"})
		}
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "Gateway call failed, payout left pending"})
	}

	return c.JSON(fiber.Map{"request": request, "result": result})
}

// VerifyPayoutRequest polls the gateway for the current transfer state, the
// fallback when a webhook was delayed or missed.
func VerifyPayoutRequest(c *fiber.Ctx) error {
	request, err := loadPayoutRequest(c)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Payout request not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Database error"})
	}

	result, err := payoutService.VerifyStatus(request)
	if err != nil {
		if errors.Is(err, payments.ErrNotConfigured) {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "Payment gateway is not configured"})
		}
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "Gateway verification failed"})
	}

	return c.JSON(fiber.Map{"result": result})
}

type CancelPayoutBody struct {
	Reason string `json:"reason" validate:"required"`
}

func CancelPayoutRequest(c *fiber.Ctx) error {
	request, err := loadPayoutRequest(c)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Payout request not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Database error"})
	}

	var body CancelPayoutBody
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	if err := payoutService.CancelPayout(request, body.Reason); err != nil {
		if errors.Is(err, services.ErrNotPending) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Only pending payout requests can be cancelled"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to cancel payout request"})
	}

	return c.JSON(fiber.Map{"message": "Payout request cancelled, funds returned to balance."})
}

func SyncAllWallets(c *fiber.Ctx) error {
	synced, failed := syncService.SyncAll(c.QueryInt("threshold_hours", cfg.WalletSyncThresholdHours))
	return c.JSON(fiber.Map{"synced": synced, "failed": failed})
}

func SyncWallet(c *fiber.Ctx) error {
	var wallet models.Wallet
	if err := database.DB.First(&wallet, "id = ?", c.Params("walletId")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Wallet not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Database error"})
	}

	if err := syncService.SyncWallet(wallet.ID); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Wallet sync failed"})
	}

	database.DB.First(&wallet, "id = ?", wallet.ID)
	return c.JSON(wallet)
}
