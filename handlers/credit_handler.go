package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tutorhive/payouts/services"
)

type CreditRequest struct {
	TeacherID   string `json:"teacher_id" validate:"required,uuid4"`
	Amount      string `json:"amount" validate:"required"`
	Currency    string `json:"currency" validate:"required,len=3"`
	Type        string `json:"type" validate:"required,oneof=session_payment bonus adjustment refund"`
	Description string `json:"description"`
	Reference   string `json:"reference"`
}

// RecordCredit is the booking subsystem's contract into the ledger: completed
// sessions (and bonuses, refunds, manual adjustments) arrive here as ledger
// entries in the settlement currency.
func RecordCredit(c *fiber.Ctx) error {
	var req CreditRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	teacherID, err := uuid.Parse(req.TeacherID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid teacher ID"})
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil || !amount.IsPositive() {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid amount"})
	}

	settled := currencyService.Convert(amount, req.Currency, cfg.SettlementCurrency).Round(2)

	var reference *string
	if req.Reference != "" {
		reference = &req.Reference
	}

	if err := walletService.Record(teacherID, req.Type, settled, req.Description, reference); err != nil {
		if errors.Is(err, services.ErrInsufficientBalance) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Refund exceeds wallet balance"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to record ledger entry"})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "Ledger entry recorded"})
}
