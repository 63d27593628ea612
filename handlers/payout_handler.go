package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tutorhive/payouts/database"
	"github.com/tutorhive/payouts/models"
	"github.com/tutorhive/payouts/payments"
	"github.com/tutorhive/payouts/services"
	"gorm.io/gorm"
)

func teacherIDFromClaims(c *fiber.Ctx) (uuid.UUID, error) {
	token := c.Locals("user").(*jwt.Token)
	claims := token.Claims.(jwt.MapClaims)
	return uuid.Parse(claims["user_id"].(string))
}

type WithdrawalRequest struct {
	Amount         string            `json:"amount" validate:"required"`
	Currency       string            `json:"currency" validate:"required,len=3"`
	PaymentMethod  string            `json:"payment_method" validate:"required,oneof=bank_transfer mobile_money paypal stripe"`
	PaymentDetails map[string]string `json:"payment_details" validate:"required"`
}

func RequestPayout(c *fiber.Ctx) error {
	teacherID, err := teacherIDFromClaims(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token subject"})
	}

	var req WithdrawalRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil || !amount.IsPositive() {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid amount"})
	}

	violations := payoutService.ValidateRequest(teacherID, amount, req.PaymentMethod, req.Currency, req.PaymentDetails)
	if len(violations) > 0 {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"errors": violations})
	}

	request, err := payoutService.CreatePayoutRequest(teacherID, amount, req.PaymentMethod, req.Currency, req.PaymentDetails)
	if err != nil {
		if errors.Is(err, services.ErrInsufficientBalance) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Insufficient balance for this payout request"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create payout request"})
	}

	// Initiation failures leave the request pending with funds reserved; an
	// operator retries or cancels.
	initiation := "initiated"
	if result, err := payoutService.ProcessPayout(request); err != nil {
		initiation = "deferred"
	} else if !result.Success {
		initiation = "rejected: " + result.Message
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message":    "Payout request submitted successfully.",
		"request":    request,
		"initiation": initiation,
	})
}

func GetMyWallet(c *fiber.Ctx) error {
	teacherID, err := teacherIDFromClaims(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token subject"})
	}

	wallet, err := walletService.GetOrCreateWallet(teacherID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to load wallet"})
	}
	return c.JSON(wallet)
}

func GetMyLedger(c *fiber.Ctx) error {
	teacherID, err := teacherIDFromClaims(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token subject"})
	}

	wallet, err := walletService.GetOrCreateWallet(teacherID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to load wallet"})
	}

	entries, err := walletService.ListEntries(wallet.ID, c.QueryInt("limit", 20), c.QueryInt("offset", 0))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to load ledger"})
	}
	return c.JSON(fiber.Map{"wallet": wallet, "entries": entries})
}

func GetMyPayoutRequests(c *fiber.Ctx) error {
	teacherID, err := teacherIDFromClaims(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token subject"})
	}

	var requests []models.PayoutRequest
	database.DB.Where("teacher_id = ?", teacherID).Order("created_at desc").Find(&requests)
	return c.JSON(requests)
}

func CancelMyPayout(c *fiber.Ctx) error {
	teacherID, err := teacherIDFromClaims(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token subject"})
	}

	requestID := c.Params("id")
	var request models.PayoutRequest
	if err := database.DB.First(&request, "id = ? AND teacher_id = ?", requestID, teacherID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Payout request not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Database error"})
	}

	if err := payoutService.CancelPayout(&request, "cancelled by teacher"); err != nil {
		if errors.Is(err, services.ErrNotPending) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Only pending payout requests can be cancelled"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to cancel payout request"})
	}

	return c.JSON(fiber.Map{"message": "Payout request cancelled, funds returned to balance."})
}

// ResolveBankAccount validates bank details against PayStack before the
// teacher submits a withdrawal.
func ResolveBankAccount(c *fiber.Ctx) error {
	accountNumber := c.Query("account_number")
	bankCode := c.Query("bank_code")
	if accountNumber == "" || bankCode == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "account_number and bank_code are required"})
	}

	accountName, err := paystackService.ResolveAccount(accountNumber, bankCode)
	if err != nil {
		if errors.Is(err, payments.ErrNotConfigured) {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "Bank verification is not available"})
		}
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Could not resolve account details"})
	}

	return c.JSON(fiber.Map{"account_number": accountNumber, "account_name": accountName})
}
