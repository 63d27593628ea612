package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Wallet holds the denormalized balance aggregates for one teacher. The
// invariant Balance = TotalEarned - TotalWithdrawn - PendingPayouts holds at
// every quiescent point; the sync service recomputes the fields from the
// ledger to correct transient drift.
type Wallet struct {
	ID             uuid.UUID       `gorm:"type:uuid;primary_key" json:"id"`
	TeacherID      uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex" json:"teacher_id"`
	Currency       string          `gorm:"size:3;not null;default:'NGN'" json:"currency"`
	Balance        decimal.Decimal `gorm:"type:numeric(20,8);not null;default:0" json:"balance"`
	TotalEarned    decimal.Decimal `gorm:"type:numeric(20,8);not null;default:0" json:"total_earned"`
	TotalWithdrawn decimal.Decimal `gorm:"type:numeric(20,8);not null;default:0" json:"total_withdrawn"`
	PendingPayouts decimal.Decimal `gorm:"type:numeric(20,8);not null;default:0" json:"pending_payouts"`
	LastSyncAt     *time.Time      `json:"last_sync_at"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

func (w *Wallet) BeforeCreate(tx *gorm.DB) error {
	if w.ID == uuid.Nil {
		w.ID = uuid.New()
	}
	return nil
}
