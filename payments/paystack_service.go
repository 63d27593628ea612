package payments

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/tutorhive/payouts/configs"
	"github.com/tutorhive/payouts/models"
)

// PayStackService settles bank_transfer and mobile_money payouts over the
// PayStack transfer API. PayStack needs a transfer recipient created before
// the transfer itself, so initiation is two round-trips.
type PayStackService struct {
	secretKey string
	baseURL   string
	client    *http.Client
	log       zerolog.Logger
}

func NewPayStackService(cfg *configs.Config, logger zerolog.Logger) *PayStackService {
	return &PayStackService{
		secretKey: cfg.PayStackSecretKey,
		baseURL:   cfg.PayStackBaseURL,
		client:    &http.Client{Timeout: 10 * time.Second},
		log:       logger.With().Str("gateway", "paystack").Logger(),
	}
}

func (s *PayStackService) Name() string { return "paystack" }

func (s *PayStackService) Configured() bool { return s.secretKey != "" }

// PayStack transfers settle in naira only.
func (s *PayStackService) SupportsCurrency(currency string) bool { return currency == "NGN" }

type paystackEnvelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type paystackRecipientData struct {
	RecipientCode string `json:"recipient_code"`
}

type paystackTransferData struct {
	Reference    string `json:"reference"`
	TransferCode string `json:"transfer_code"`
	Status       string `json:"status"`
	Amount       int64  `json:"amount"`
	Currency     string `json:"currency"`
}

func (s *PayStackService) createRecipient(req *models.PayoutRequest) (string, error) {
	var details map[string]string
	if err := json.Unmarshal(req.PaymentDetails, &details); err != nil {
		return "", fmt.Errorf("invalid payment details: %w", err)
	}

	payload := map[string]string{
		"currency": "NGN",
		"name":     details["account_name"],
	}
	if req.PaymentMethod == models.PayoutMethodMobileMoney {
		payload["type"] = "mobile_money"
		payload["account_number"] = details["phone_number"]
		payload["bank_code"] = details["provider"]
	} else {
		payload["type"] = "nuban"
		payload["account_number"] = details["account_number"]
		payload["bank_code"] = details["bank_code"]
	}

	envelope, err := s.post("/transferrecipient", payload)
	if err != nil {
		return "", err
	}
	if !envelope.Status {
		return "", fmt.Errorf("paystack recipient rejected: %s", envelope.Message)
	}

	var data paystackRecipientData
	if err := json.Unmarshal(envelope.Data, &data); err != nil {
		return "", err
	}
	return data.RecipientCode, nil
}

func (s *PayStackService) InitiateTransfer(req *models.PayoutRequest) (*TransferResult, error) {
	if !s.Configured() {
		return nil, ErrNotConfigured
	}

	recipientCode, err := s.createRecipient(req)
	if err != nil {
		return nil, err
	}

	amount, currency := req.PayoutAmount()
	payload := map[string]interface{}{
		"source":    "balance",
		"amount":    ToSubunits(amount, currency),
		"currency":  currency,
		"recipient": recipientCode,
		"reference": req.ID.String(),
		"reason":    "Tutor payout",
	}

	envelope, err := s.post("/transfer", payload)
	if err != nil {
		return nil, err
	}
	if !envelope.Status {
		// Provider rejection (bad account, insufficient platform balance).
		s.log.Warn().Str("payout_id", req.ID.String()).Str("message", envelope.Message).Msg("transfer rejected")
		return &TransferResult{Success: false, Message: envelope.Message}, nil
	}

	var data paystackTransferData
	if err := json.Unmarshal(envelope.Data, &data); err != nil {
		return nil, err
	}

	return &TransferResult{
		Success:      true,
		Reference:    data.Reference,
		TransferCode: data.TransferCode,
		Status:       data.Status,
	}, nil
}

func (s *PayStackService) VerifyTransfer(req *models.PayoutRequest) (*TransferResult, error) {
	if !s.Configured() {
		return nil, ErrNotConfigured
	}
	if req.ExternalReference == nil {
		return nil, fmt.Errorf("payout %s has no external reference", req.ID)
	}

	envelope, err := s.get("/transfer/verify/" + *req.ExternalReference)
	if err != nil {
		return nil, err
	}
	if !envelope.Status {
		return &TransferResult{Success: false, Message: envelope.Message}, nil
	}

	var data paystackTransferData
	if err := json.Unmarshal(envelope.Data, &data); err != nil {
		return nil, err
	}
	return &TransferResult{
		Success:      data.Status == "success",
		Reference:    data.Reference,
		TransferCode: data.TransferCode,
		Status:       data.Status,
	}, nil
}

type paystackWebhook struct {
	Event string `json:"event"`
	Data  struct {
		Reference    string `json:"reference"`
		TransferCode string `json:"transfer_code"`
		Reason       string `json:"reason"`
		Message      string `json:"message"`
	} `json:"data"`
}

// ParseWebhook checks the HMAC-SHA512 signature PayStack sends in
// x-paystack-signature before trusting the payload.
func (s *PayStackService) ParseWebhook(body []byte, headers map[string]string) (*TransferEvent, error) {
	if !s.Configured() {
		return nil, ErrNotConfigured
	}

	mac := hmac.New(sha512.New, []byte(s.secretKey))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	if !hmac.Equal([]byte(expected), []byte(headers["x-paystack-signature"])) {
		return nil, ErrInvalidSignature
	}

	var payload paystackWebhook
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("cannot parse paystack webhook: %w", err)
	}

	var kind string
	switch payload.Event {
	case "transfer.success":
		kind = EventSuccess
	case "transfer.failed":
		kind = EventFailed
	case "transfer.reversed":
		kind = EventReversed
	default:
		kind = EventPending
	}

	reason := payload.Data.Message
	if reason == "" {
		reason = payload.Data.Reason
	}

	return &TransferEvent{
		Provider:     s.Name(),
		Kind:         kind,
		Reference:    payload.Data.Reference,
		TransferCode: payload.Data.TransferCode,
		Reason:       reason,
	}, nil
}

type paystackResolveData struct {
	AccountNumber string `json:"account_number"`
	AccountName   string `json:"account_name"`
}

// ResolveAccount looks up the account name for a bank account, used to
// validate bank payment details before a payout request is accepted.
func (s *PayStackService) ResolveAccount(accountNumber, bankCode string) (string, error) {
	if !s.Configured() {
		return "", ErrNotConfigured
	}

	path := fmt.Sprintf("/bank/resolve?account_number=%s&bank_code=%s", accountNumber, bankCode)
	envelope, err := s.get(path)
	if err != nil {
		return "", err
	}
	if !envelope.Status {
		return "", fmt.Errorf("could not resolve account: %s", envelope.Message)
	}

	var data paystackResolveData
	if err := json.Unmarshal(envelope.Data, &data); err != nil {
		return "", err
	}
	return data.AccountName, nil
}

func (s *PayStackService) post(path string, payload interface{}) (*paystackEnvelope, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequest("POST", s.baseURL+path, bytes.NewBuffer(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.secretKey)

	return s.do(req)
}

func (s *PayStackService) get(path string) (*paystackEnvelope, error) {
	req, err := http.NewRequest("GET", s.baseURL+path, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+s.secretKey)

	return s.do(req)
}

func (s *PayStackService) do(req *http.Request) (*paystackEnvelope, error) {
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("paystack request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var envelope paystackEnvelope
	if err := json.Unmarshal(respBody, &envelope); err != nil {
		return nil, fmt.Errorf("cannot parse paystack response: %s", string(respBody))
	}
	return &envelope, nil
}
