package payments

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/tutorhive/payouts/configs"
	"github.com/tutorhive/payouts/models"
)

const stripeSignatureTolerance = 5 * time.Minute

// StripeService settles payouts to teachers with connected Stripe accounts.
// Initiation is two calls: a transfer moves the funds from the platform
// balance to the connected account, then a payout on that account sends them
// to the teacher's bank.
type StripeService struct {
	secretKey     string
	webhookSecret string
	baseURL       string
	client        *http.Client
	log           zerolog.Logger
	now           func() time.Time
}

func NewStripeService(cfg *configs.Config, logger zerolog.Logger) *StripeService {
	return &StripeService{
		secretKey:     cfg.StripeSecretKey,
		webhookSecret: cfg.StripeWebhookSecret,
		baseURL:       cfg.StripeBaseURL,
		client:        &http.Client{Timeout: 10 * time.Second},
		log:           logger.With().Str("gateway", "stripe").Logger(),
		now:           time.Now,
	}
}

func (s *StripeService) Name() string { return "stripe" }

func (s *StripeService) Configured() bool { return s.secretKey != "" }

func (s *StripeService) SupportsCurrency(currency string) bool {
	switch currency {
	case "USD", "EUR", "GBP", "NGN", "KES", "JPY":
		return true
	}
	return false
}

type stripeObject struct {
	ID       string `json:"id"`
	Object   string `json:"object"`
	Status   string `json:"status"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Reversed bool   `json:"reversed"`
	Error    *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
	FailureMessage string `json:"failure_message"`
}

func (s *StripeService) InitiateTransfer(req *models.PayoutRequest) (*TransferResult, error) {
	if !s.Configured() {
		return nil, ErrNotConfigured
	}

	var details map[string]string
	if err := json.Unmarshal(req.PaymentDetails, &details); err != nil {
		return nil, fmt.Errorf("invalid payment details: %w", err)
	}
	accountID := details["account_id"]
	if accountID == "" {
		return &TransferResult{Success: false, Message: "missing stripe account id"}, nil
	}

	amount, payoutCurrency := req.PayoutAmount()
	subunits := strconv.FormatInt(ToSubunits(amount, payoutCurrency), 10)
	currency := strings.ToLower(payoutCurrency)

	transferForm := url.Values{}
	transferForm.Set("amount", subunits)
	transferForm.Set("currency", currency)
	transferForm.Set("destination", accountID)
	transferForm.Set("metadata[payout_request_id]", req.ID.String())

	transfer, err := s.post("/v1/transfers", transferForm, "")
	if err != nil {
		return nil, err
	}
	if transfer.Error != nil {
		s.log.Warn().Str("payout_id", req.ID.String()).Str("message", transfer.Error.Message).Msg("transfer rejected")
		return &TransferResult{Success: false, Message: transfer.Error.Message}, nil
	}

	payoutForm := url.Values{}
	payoutForm.Set("amount", subunits)
	payoutForm.Set("currency", currency)
	payoutForm.Set("metadata[payout_request_id]", req.ID.String())

	payout, err := s.post("/v1/payouts", payoutForm, accountID)
	if err != nil {
		return nil, err
	}
	if payout.Error != nil {
		return &TransferResult{Success: false, Message: payout.Error.Message}, nil
	}

	return &TransferResult{
		Success:      true,
		Reference:    payout.ID,
		TransferCode: transfer.ID,
		Status:       payout.Status,
	}, nil
}

func (s *StripeService) VerifyTransfer(req *models.PayoutRequest) (*TransferResult, error) {
	if !s.Configured() {
		return nil, ErrNotConfigured
	}
	if req.ExternalReference == nil {
		return nil, fmt.Errorf("payout %s has no external reference", req.ID)
	}

	var details map[string]string
	if err := json.Unmarshal(req.PaymentDetails, &details); err != nil {
		return nil, fmt.Errorf("invalid payment details: %w", err)
	}

	payout, err := s.get("/v1/payouts/"+*req.ExternalReference, details["account_id"])
	if err != nil {
		return nil, err
	}
	if payout.Error != nil {
		return &TransferResult{Success: false, Message: payout.Error.Message}, nil
	}

	return &TransferResult{
		Success:   payout.Status == "paid",
		Reference: payout.ID,
		Status:    payout.Status,
		Message:   payout.FailureMessage,
	}, nil
}

type stripeEvent struct {
	Type string `json:"type"`
	Data struct {
		Object stripeObject `json:"object"`
	} `json:"data"`
}

// ParseWebhook verifies the Stripe-Signature header: HMAC-SHA256 of
// "<timestamp>.<body>" with the endpoint secret, within a tolerance window.
func (s *StripeService) ParseWebhook(body []byte, headers map[string]string) (*TransferEvent, error) {
	if s.webhookSecret == "" {
		return nil, ErrNotConfigured
	}

	timestamp, signatures, err := parseStripeSignatureHeader(headers["stripe-signature"])
	if err != nil {
		return nil, ErrInvalidSignature
	}
	if s.now().Sub(time.Unix(timestamp, 0)) > stripeSignatureTolerance {
		return nil, ErrInvalidSignature
	}

	mac := hmac.New(sha256.New, []byte(s.webhookSecret))
	fmt.Fprintf(mac, "%d.%s", timestamp, body)
	expected := hex.EncodeToString(mac.Sum(nil))

	verified := false
	for _, signature := range signatures {
		if hmac.Equal([]byte(expected), []byte(signature)) {
			verified = true
			break
		}
	}
	if !verified {
		return nil, ErrInvalidSignature
	}

	var event stripeEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return nil, fmt.Errorf("cannot parse stripe webhook: %w", err)
	}

	var kind string
	switch event.Type {
	case "payout.paid":
		kind = EventSuccess
	case "payout.failed":
		kind = EventFailed
	case "payout.canceled":
		kind = EventCancelled
	case "transfer.reversed":
		kind = EventReversed
	default:
		kind = EventPending
	}

	return &TransferEvent{
		Provider:     s.Name(),
		Kind:         kind,
		Reference:    event.Data.Object.ID,
		TransferCode: event.Data.Object.ID,
		Reason:       event.Data.Object.FailureMessage,
	}, nil
}

func parseStripeSignatureHeader(header string) (int64, []string, error) {
	var timestamp int64
	var signatures []string
	for _, part := range strings.Split(header, ",") {
		pair := strings.SplitN(strings.TrimSpace(part), "=", 2)
		if len(pair) != 2 {
			continue
		}
		switch pair[0] {
		case "t":
			parsed, err := strconv.ParseInt(pair[1], 10, 64)
			if err != nil {
				return 0, nil, err
			}
			timestamp = parsed
		case "v1":
			signatures = append(signatures, pair[1])
		}
	}
	if timestamp == 0 || len(signatures) == 0 {
		return 0, nil, fmt.Errorf("malformed signature header")
	}
	return timestamp, signatures, nil
}

func (s *StripeService) post(path string, form url.Values, stripeAccount string) (*stripeObject, error) {
	req, err := http.NewRequest("POST", s.baseURL+path, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return s.do(req, stripeAccount)
}

func (s *StripeService) get(path, stripeAccount string) (*stripeObject, error) {
	req, err := http.NewRequest("GET", s.baseURL+path, nil)
	if err != nil {
		return nil, err
	}
	return s.do(req, stripeAccount)
}

func (s *StripeService) do(req *http.Request, stripeAccount string) (*stripeObject, error) {
	req.Header.Set("Authorization", "Bearer "+s.secretKey)
	if stripeAccount != "" {
		req.Header.Set("Stripe-Account", stripeAccount)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("stripe request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var object stripeObject
	if err := json.Unmarshal(respBody, &object); err != nil {
		return nil, fmt.Errorf("cannot parse stripe response: %s", string(respBody))
	}
	if object.Error == nil && resp.StatusCode >= 400 {
		return nil, fmt.Errorf("stripe returned status %d: %s", resp.StatusCode, string(respBody))
	}
	return &object, nil
}
