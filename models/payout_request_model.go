package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	PayoutMethodBankTransfer = "bank_transfer"
	PayoutMethodMobileMoney  = "mobile_money"
	PayoutMethodPayPal       = "paypal"
	PayoutMethodStripe       = "stripe"
)

const (
	PayoutStatusPending    = "pending"
	PayoutStatusProcessing = "processing"
	PayoutStatusCompleted  = "completed"
	PayoutStatusFailed     = "failed"
	PayoutStatusCancelled  = "cancelled"
	PayoutStatusReversed   = "reversed"
	PayoutStatusReturned   = "returned"
	PayoutStatusUnclaimed  = "unclaimed"
)

// PayoutRequest is a teacher withdrawal. Amount is the gross amount debited
// from the wallet, stored in the settlement currency; the provider pays out
// RequestedAmount minus FeeAmount and the difference is the platform fee.
// Failed and cancelled requests are kept as audit history.
type PayoutRequest struct {
	ID                   uuid.UUID       `gorm:"type:uuid;primary_key" json:"id"`
	TeacherID            uuid.UUID       `gorm:"type:uuid;not null;index" json:"teacher_id"`
	WalletID             uuid.UUID       `gorm:"type:uuid;not null;index" json:"wallet_id"`
	Amount               decimal.Decimal `gorm:"type:numeric(20,8);not null" json:"amount"`
	Currency             string          `gorm:"size:3;not null" json:"currency"`
	RequestedAmount      decimal.Decimal `gorm:"type:numeric(20,8);not null" json:"requested_amount"`
	RequestedCurrency    string          `gorm:"size:3;not null" json:"requested_currency"`
	ExchangeRateUsed     decimal.Decimal `gorm:"type:numeric(20,8);not null;default:1" json:"exchange_rate_used"`
	PaymentMethod        string          `gorm:"size:30;not null" json:"payment_method"`
	PaymentDetails       datatypes.JSON  `gorm:"not null" json:"payment_details"`
	FeeAmount            decimal.Decimal `gorm:"type:numeric(20,8);not null;default:0" json:"fee_amount"`
	FeeCurrency          string          `gorm:"size:3;not null" json:"fee_currency"`
	Status               string          `gorm:"size:20;not null;default:'pending';index" json:"status"`
	ExternalReference    *string         `gorm:"size:128;index" json:"external_reference,omitempty"`
	ExternalTransferCode *string         `gorm:"size:128;index" json:"external_transfer_code,omitempty"`
	FailureReason        *string         `gorm:"type:text" json:"failure_reason,omitempty"`
	ProcessedAt          *time.Time      `json:"processed_at,omitempty"`
	CompletedAt          *time.Time      `json:"completed_at,omitempty"`
	FailedAt             *time.Time      `json:"failed_at,omitempty"`
	CancelledAt          *time.Time      `json:"cancelled_at,omitempty"`
	ReturnedAt           *time.Time      `json:"returned_at,omitempty"`
	CreatedAt            time.Time       `json:"created_at"`
	UpdatedAt            time.Time       `json:"updated_at"`
}

func (p *PayoutRequest) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// PayoutAmount returns the net amount and currency actually sent to the
// provider: the gross requested amount minus the fee, in the currency the
// teacher asked for. The settlement-currency Amount is ledger bookkeeping.
func (p *PayoutRequest) PayoutAmount() (decimal.Decimal, string) {
	return p.RequestedAmount.Sub(p.FeeAmount), p.RequestedCurrency
}

// IsTerminal reports whether no further transition is permitted, with the one
// exception that a completed payout may still be reversed into returned.
func (p *PayoutRequest) IsTerminal() bool {
	switch p.Status {
	case PayoutStatusCompleted, PayoutStatusFailed, PayoutStatusCancelled,
		PayoutStatusReversed, PayoutStatusReturned, PayoutStatusUnclaimed:
		return true
	}
	return false
}
