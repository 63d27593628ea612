package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/tutorhive/payouts/payments"
	"github.com/tutorhive/payouts/services"
)

func HandlePayStackWebhook(c *fiber.Ctx) error {
	return handleWebhook(c, "paystack", map[string]string{
		"x-paystack-signature": c.Get("x-paystack-signature"),
	})
}

func HandleStripeWebhook(c *fiber.Ctx) error {
	return handleWebhook(c, "stripe", map[string]string{
		"stripe-signature": c.Get("stripe-signature"),
	})
}

func HandlePayPalWebhook(c *fiber.Ctx) error {
	return handleWebhook(c, "paypal", map[string]string{
		"paypal-auth-algo":         c.Get("paypal-auth-algo"),
		"paypal-cert-url":          c.Get("paypal-cert-url"),
		"paypal-transmission-id":   c.Get("paypal-transmission-id"),
		"paypal-transmission-sig":  c.Get("paypal-transmission-sig"),
		"paypal-transmission-time": c.Get("paypal-transmission-time"),
	})
}

// handleWebhook verifies and applies a provider webhook. Signature failures
// are rejected without any ledger mutation; duplicate deliveries for settled
// payouts come back from the service as successful no-ops.
func handleWebhook(c *fiber.Ctx, gateway string, headers map[string]string) error {
	adapter, ok := webhookGateways[gateway]
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Unknown gateway"})
	}

	event, err := adapter.ParseWebhook(c.Body(), headers)
	if err != nil {
		if errors.Is(err, payments.ErrInvalidSignature) {
			log.Warn().Str("gateway", gateway).Str("ip", c.IP()).Msg("webhook signature verification failed")
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid signature"})
		}
		if errors.Is(err, payments.ErrNotConfigured) {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "Gateway not configured"})
		}
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse webhook payload"})
	}

	if err := payoutService.ApplyTransferEvent(event); err != nil {
		if errors.Is(err, services.ErrPayoutNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Payout request not found for reference"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to process webhook"})
	}

	return c.JSON(fiber.Map{"message": "Webhook processed successfully"})
}
