package payments

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/tutorhive/payouts/cache"
	"github.com/tutorhive/payouts/configs"
	"github.com/tutorhive/payouts/models"
)

// PayPalService settles payouts to a teacher's PayPal email through the
// Payouts API. Webhooks cannot be verified locally; PayPal requires a
// verify-webhook-signature API round-trip.
type PayPalService struct {
	baseURL   string
	webhookID string
	tokens    *paypalTokenProvider
	client    *http.Client
	log       zerolog.Logger
}

func NewPayPalService(cfg *configs.Config, cacheStore cache.Store, logger zerolog.Logger) *PayPalService {
	client := &http.Client{Timeout: 10 * time.Second}
	return &PayPalService{
		baseURL:   cfg.PayPalBaseURL,
		webhookID: cfg.PayPalWebhookID,
		client:    client,
		log:       logger.With().Str("gateway", "paypal").Logger(),
		tokens: &paypalTokenProvider{
			clientID:     cfg.PayPalClientID,
			clientSecret: cfg.PayPalClientSecret,
			baseURL:      cfg.PayPalBaseURL,
			cache:        cacheStore,
			client:       client,
		},
	}
}

func (s *PayPalService) Name() string { return "paypal" }

func (s *PayPalService) Configured() bool {
	return s.tokens.clientID != "" && s.tokens.clientSecret != ""
}

func (s *PayPalService) SupportsCurrency(currency string) bool {
	switch currency {
	case "USD", "EUR", "GBP", "CAD", "AUD", "JPY":
		return true
	}
	return false
}

type paypalBatchResponse struct {
	BatchHeader struct {
		PayoutBatchID string `json:"payout_batch_id"`
		BatchStatus   string `json:"batch_status"`
	} `json:"batch_header"`
	Items []struct {
		PayoutItemID      string `json:"payout_item_id"`
		TransactionID     string `json:"transaction_id"`
		TransactionStatus string `json:"transaction_status"`
		Errors            *struct {
			Message string `json:"message"`
		} `json:"errors"`
	} `json:"items"`
	Message string `json:"message"`
}

func (s *PayPalService) InitiateTransfer(req *models.PayoutRequest) (*TransferResult, error) {
	if !s.Configured() {
		return nil, ErrNotConfigured
	}

	var details map[string]string
	if err := json.Unmarshal(req.PaymentDetails, &details); err != nil {
		return nil, fmt.Errorf("invalid payment details: %w", err)
	}
	receiver := details["email"]
	if receiver == "" {
		return &TransferResult{Success: false, Message: "missing paypal email"}, nil
	}

	amount, currency := req.PayoutAmount()

	payload := map[string]interface{}{
		"sender_batch_header": map[string]string{
			"sender_batch_id": req.ID.String(),
			"email_subject":   "You have a payout from TutorHive",
		},
		"items": []map[string]interface{}{
			{
				"recipient_type": "EMAIL",
				"receiver":       receiver,
				"sender_item_id": req.ID.String(),
				"note":           "Tutor payout",
				"amount": map[string]string{
					"value":    amount.StringFixed(2),
					"currency": currency,
				},
			},
		},
	}

	var batch paypalBatchResponse
	status, err := s.call("POST", "/v1/payments/payouts", payload, &batch)
	if err != nil {
		return nil, err
	}
	if status != http.StatusCreated && status != http.StatusOK {
		s.log.Warn().Str("payout_id", req.ID.String()).Str("message", batch.Message).Msg("payout rejected")
		return &TransferResult{Success: false, Message: batch.Message}, nil
	}

	return &TransferResult{
		Success:   true,
		Reference: batch.BatchHeader.PayoutBatchID,
		Status:    batch.BatchHeader.BatchStatus,
	}, nil
}

func (s *PayPalService) VerifyTransfer(req *models.PayoutRequest) (*TransferResult, error) {
	if !s.Configured() {
		return nil, ErrNotConfigured
	}
	if req.ExternalReference == nil {
		return nil, fmt.Errorf("payout %s has no external reference", req.ID)
	}

	var batch paypalBatchResponse
	status, err := s.call("GET", "/v1/payments/payouts/"+*req.ExternalReference, nil, &batch)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return &TransferResult{Success: false, Message: batch.Message}, nil
	}

	result := &TransferResult{
		Reference: batch.BatchHeader.PayoutBatchID,
		Status:    batch.BatchHeader.BatchStatus,
	}
	if len(batch.Items) > 0 {
		item := batch.Items[0]
		result.TransferCode = item.PayoutItemID
		result.Status = item.TransactionStatus
		result.Success = item.TransactionStatus == "SUCCESS"
		if item.Errors != nil {
			result.Message = item.Errors.Message
		}
	}
	return result, nil
}

type paypalWebhookEvent struct {
	EventType string `json:"event_type"`
	Resource  struct {
		PayoutItemID  string `json:"payout_item_id"`
		PayoutBatchID string `json:"payout_batch_id"`
		Errors        *struct {
			Message string `json:"message"`
		} `json:"errors"`
	} `json:"resource"`
}

// ParseWebhook verifies the transmission signature headers via PayPal's
// verification API before trusting the event.
func (s *PayPalService) ParseWebhook(body []byte, headers map[string]string) (*TransferEvent, error) {
	if !s.Configured() || s.webhookID == "" {
		return nil, ErrNotConfigured
	}

	verified, err := s.verifySignature(body, headers)
	if err != nil {
		return nil, err
	}
	if !verified {
		return nil, ErrInvalidSignature
	}

	var event paypalWebhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return nil, fmt.Errorf("cannot parse paypal webhook: %w", err)
	}

	var kind string
	switch event.EventType {
	case "PAYMENT.PAYOUTS-ITEM.SUCCEEDED":
		kind = EventSuccess
	case "PAYMENT.PAYOUTS-ITEM.FAILED", "PAYMENT.PAYOUTS-ITEM.BLOCKED", "PAYMENT.PAYOUTS-ITEM.DENIED":
		kind = EventFailed
	case "PAYMENT.PAYOUTS-ITEM.CANCELED":
		kind = EventCancelled
	case "PAYMENT.PAYOUTS-ITEM.RETURNED", "PAYMENT.PAYOUTS-ITEM.REFUNDED":
		kind = EventReversed
	case "PAYMENT.PAYOUTS-ITEM.UNCLAIMED", "PAYMENT.PAYOUTS-ITEM.HELD":
		kind = EventUnclaimed
	default:
		kind = EventPending
	}

	var reason string
	if event.Resource.Errors != nil {
		reason = event.Resource.Errors.Message
	}

	return &TransferEvent{
		Provider:     s.Name(),
		Kind:         kind,
		Reference:    event.Resource.PayoutBatchID,
		TransferCode: event.Resource.PayoutItemID,
		Reason:       reason,
	}, nil
}

func (s *PayPalService) verifySignature(body []byte, headers map[string]string) (bool, error) {
	var rawEvent json.RawMessage = body
	payload := map[string]interface{}{
		"auth_algo":         headers["paypal-auth-algo"],
		"cert_url":          headers["paypal-cert-url"],
		"transmission_id":   headers["paypal-transmission-id"],
		"transmission_sig":  headers["paypal-transmission-sig"],
		"transmission_time": headers["paypal-transmission-time"],
		"webhook_id":        s.webhookID,
		"webhook_event":     rawEvent,
	}

	var result struct {
		VerificationStatus string `json:"verification_status"`
	}
	status, err := s.call("POST", "/v1/notifications/verify-webhook-signature", payload, &result)
	if err != nil {
		return false, err
	}
	if status != http.StatusOK {
		return false, nil
	}
	return result.VerificationStatus == "SUCCESS", nil
}

func (s *PayPalService) call(method, path string, payload interface{}, out interface{}) (int, error) {
	accessToken, err := s.tokens.getAccessToken()
	if err != nil {
		return 0, err
	}

	var reqBody io.Reader
	if payload != nil {
		body, err := json.Marshal(payload)
		if err != nil {
			return 0, err
		}
		reqBody = bytes.NewBuffer(body)
	}

	req, err := http.NewRequest(method, s.baseURL+path, reqBody)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := s.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("paypal request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, err
	}
	if len(respBody) > 0 {
		if err := json.Unmarshal(respBody, out); err != nil {
			return resp.StatusCode, fmt.Errorf("cannot parse paypal response: %s", string(respBody))
		}
	}
	return resp.StatusCode, nil
}
