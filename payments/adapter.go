package payments

import (
	"errors"

	"github.com/tutorhive/payouts/models"
)

var (
	// ErrNotConfigured means the adapter is missing credentials. Surfaced
	// distinctly from provider errors so operators fix setup instead of
	// retrying.
	ErrNotConfigured = errors.New("payment gateway not configured")

	// ErrInvalidSignature means a webhook failed verification and must be
	// rejected without touching the ledger.
	ErrInvalidSignature = errors.New("invalid webhook signature")
)

// TransferResult is the uniform envelope every adapter call returns, so the
// orchestrator updates payout requests the same way regardless of provider.
// Success=false with a nil error is a provider rejection (bad account,
// insufficient platform balance); transport faults are returned as errors.
type TransferResult struct {
	Success      bool
	Reference    string
	TransferCode string
	Status       string
	Message      string
}

// Event kinds normalized across providers.
const (
	EventSuccess   = "success"
	EventFailed    = "failed"
	EventReversed  = "reversed"
	EventCancelled = "cancelled"
	EventUnclaimed = "unclaimed"
	EventPending   = "pending"
)

// TransferEvent is a verified, normalized webhook (or verification poll)
// outcome for a single transfer.
type TransferEvent struct {
	Provider     string
	Kind         string
	Reference    string
	TransferCode string
	Reason       string
}

// GatewayAdapter wraps one external settlement network behind the uniform
// initiate / verify / webhook contract.
type GatewayAdapter interface {
	Name() string
	Configured() bool
	SupportsCurrency(currency string) bool

	// InitiateTransfer calls the provider and returns its reference. It
	// never mutates wallet funds.
	InitiateTransfer(req *models.PayoutRequest) (*TransferResult, error)

	// VerifyTransfer is a read-only poll of the provider's current state,
	// used when webhooks are delayed or missed.
	VerifyTransfer(req *models.PayoutRequest) (*TransferResult, error)

	// ParseWebhook verifies the payload signature and normalizes the event.
	// Returns ErrInvalidSignature when the payload cannot be trusted.
	ParseWebhook(body []byte, headers map[string]string) (*TransferEvent, error)
}
