package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	EntryTypeSessionPayment = "session_payment"
	EntryTypeWithdrawal     = "withdrawal"
	EntryTypeRefund         = "refund"
	EntryTypeBonus          = "bonus"
	EntryTypeAdjustment     = "adjustment"
)

const (
	EntryStatusPending   = "pending"
	EntryStatusCompleted = "completed"
	EntryStatusFailed    = "failed"
	EntryStatusCancelled = "cancelled"
	EntryStatusReversed  = "reversed"
)

// LedgerEntry is one money-movement event. Amount is always a positive
// magnitude; direction is implied by type (withdrawal and refund debit the
// wallet, everything else credits it). Entries are never deleted and
// transition from pending to a terminal status exactly once.
type LedgerEntry struct {
	ID                uuid.UUID       `gorm:"type:uuid;primary_key" json:"id"`
	WalletID          uuid.UUID       `gorm:"type:uuid;not null;index" json:"wallet_id"`
	PayoutRequestID   *uuid.UUID      `gorm:"type:uuid;index" json:"payout_request_id,omitempty"`
	Type              string          `gorm:"size:30;not null" json:"type"`
	Amount            decimal.Decimal `gorm:"type:numeric(20,8);not null" json:"amount"`
	Currency          string          `gorm:"size:3;not null" json:"currency"`
	Status            string          `gorm:"size:20;not null;default:'pending'" json:"status"`
	ExternalReference *string         `gorm:"size:128;index" json:"external_reference,omitempty"`
	Description       string          `gorm:"type:text" json:"description"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

func (e *LedgerEntry) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}

// IsDebit reports whether this entry type moves money out of the wallet.
func IsDebitType(entryType string) bool {
	return entryType == EntryTypeWithdrawal || entryType == EntryTypeRefund
}
