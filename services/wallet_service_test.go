package services

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tutorhive/payouts/models"
	"gorm.io/gorm"
)

func TestRecordCreditsWallet(t *testing.T) {
	db := newTestDB(t)
	wallets := newWalletService(t, db)
	teacherID := uuid.New()

	if err := wallets.Record(teacherID, models.EntryTypeSessionPayment, decimal.NewFromInt(5000), "Completed session", nil); err != nil {
		t.Fatalf("record failed: %v", err)
	}
	if err := wallets.Record(teacherID, models.EntryTypeBonus, decimal.NewFromInt(500), "Referral bonus", nil); err != nil {
		t.Fatalf("record failed: %v", err)
	}

	var wallet models.Wallet
	if err := db.First(&wallet, "teacher_id = ?", teacherID).Error; err != nil {
		t.Fatalf("wallet not created: %v", err)
	}
	assertDecimal(t, "balance", wallet.Balance, "5500")
	assertDecimal(t, "total_earned", wallet.TotalEarned, "5500")
	assertInvariant(t, &wallet)

	var entries []models.LedgerEntry
	db.Where("wallet_id = ?", wallet.ID).Find(&entries)
	if len(entries) != 2 {
		t.Fatalf("expected 2 ledger entries, got %d", len(entries))
	}
	for _, entry := range entries {
		if entry.Status != models.EntryStatusCompleted {
			t.Errorf("entry %s status = %s, want completed", entry.Type, entry.Status)
		}
	}
}

func TestRecordRefundDebitsWallet(t *testing.T) {
	db := newTestDB(t)
	wallets := newWalletService(t, db)
	teacherID := uuid.New()
	wallet := fundWallet(t, db, wallets, teacherID, "5000")

	if err := wallets.Record(teacherID, models.EntryTypeRefund, decimal.NewFromInt(2000), "Disputed session", nil); err != nil {
		t.Fatalf("refund failed: %v", err)
	}

	wallet = reloadWallet(t, db, wallet.ID)
	assertDecimal(t, "balance", wallet.Balance, "3000")
	assertDecimal(t, "total_earned", wallet.TotalEarned, "3000")
	assertInvariant(t, wallet)
}

func TestRecordRefundExceedingBalance(t *testing.T) {
	db := newTestDB(t)
	wallets := newWalletService(t, db)
	teacherID := uuid.New()
	fundWallet(t, db, wallets, teacherID, "1000")

	err := wallets.Record(teacherID, models.EntryTypeRefund, decimal.NewFromInt(2000), "Disputed session", nil)
	if !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance, got %v", err)
	}
}

func TestRecordRejectsWithdrawalType(t *testing.T) {
	db := newTestDB(t)
	wallets := newWalletService(t, db)

	err := wallets.Record(uuid.New(), models.EntryTypeWithdrawal, decimal.NewFromInt(100), "", nil)
	if !errors.Is(err, ErrInvalidEntryType) {
		t.Fatalf("expected ErrInvalidEntryType, got %v", err)
	}
}

func TestReserveAndRelease(t *testing.T) {
	db := newTestDB(t)
	wallets := newWalletService(t, db)
	teacherID := uuid.New()
	wallet := fundWallet(t, db, wallets, teacherID, "10000")
	payoutID := uuid.New()

	err := db.Transaction(func(tx *gorm.DB) error {
		return wallets.ReserveTx(tx, wallet.ID, decimal.NewFromInt(4000), payoutID)
	})
	if err != nil {
		t.Fatalf("reserve failed: %v", err)
	}

	wallet = reloadWallet(t, db, wallet.ID)
	assertDecimal(t, "balance", wallet.Balance, "6000")
	assertDecimal(t, "pending_payouts", wallet.PendingPayouts, "4000")
	assertInvariant(t, wallet)

	var entry models.LedgerEntry
	if err := db.First(&entry, "payout_request_id = ?", payoutID).Error; err != nil {
		t.Fatalf("withdrawal entry not created: %v", err)
	}
	if entry.Status != models.EntryStatusPending {
		t.Errorf("entry status = %s, want pending", entry.Status)
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		return wallets.ReleaseReservedTx(tx, wallet.ID, decimal.NewFromInt(4000), payoutID, models.EntryStatusFailed)
	})
	if err != nil {
		t.Fatalf("release failed: %v", err)
	}

	wallet = reloadWallet(t, db, wallet.ID)
	assertDecimal(t, "balance", wallet.Balance, "10000")
	assertDecimal(t, "pending_payouts", wallet.PendingPayouts, "0")
	assertInvariant(t, wallet)

	db.First(&entry, "payout_request_id = ?", payoutID)
	if entry.Status != models.EntryStatusFailed {
		t.Errorf("entry status = %s, want failed", entry.Status)
	}
}

func TestReserveInsufficientBalance(t *testing.T) {
	db := newTestDB(t)
	wallets := newWalletService(t, db)
	teacherID := uuid.New()
	wallet := fundWallet(t, db, wallets, teacherID, "1000")

	err := db.Transaction(func(tx *gorm.DB) error {
		return wallets.ReserveTx(tx, wallet.ID, decimal.NewFromInt(2000), uuid.New())
	})
	if !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance, got %v", err)
	}

	// The rollback must leave no trace.
	wallet = reloadWallet(t, db, wallet.ID)
	assertDecimal(t, "balance", wallet.Balance, "1000")
	var count int64
	db.Model(&models.LedgerEntry{}).Where("type = ?", models.EntryTypeWithdrawal).Count(&count)
	if count != 0 {
		t.Errorf("expected no withdrawal entries after rollback, got %d", count)
	}
}

func TestSettleWithdrawal(t *testing.T) {
	db := newTestDB(t)
	wallets := newWalletService(t, db)
	teacherID := uuid.New()
	wallet := fundWallet(t, db, wallets, teacherID, "10000")
	payoutID := uuid.New()
	reference := "TRF_abc123"

	err := db.Transaction(func(tx *gorm.DB) error {
		return wallets.ReserveTx(tx, wallet.ID, decimal.NewFromInt(4000), payoutID)
	})
	if err != nil {
		t.Fatalf("reserve failed: %v", err)
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		return wallets.SettleWithdrawalTx(tx, wallet.ID, decimal.NewFromInt(4000), payoutID, &reference)
	})
	if err != nil {
		t.Fatalf("settle failed: %v", err)
	}

	wallet = reloadWallet(t, db, wallet.ID)
	assertDecimal(t, "balance", wallet.Balance, "6000")
	assertDecimal(t, "pending_payouts", wallet.PendingPayouts, "0")
	assertDecimal(t, "total_withdrawn", wallet.TotalWithdrawn, "4000")
	assertInvariant(t, wallet)

	var entry models.LedgerEntry
	db.First(&entry, "payout_request_id = ?", payoutID)
	if entry.Status != models.EntryStatusCompleted {
		t.Errorf("entry status = %s, want completed", entry.Status)
	}
	if entry.ExternalReference == nil || *entry.ExternalReference != reference {
		t.Errorf("entry external_reference = %v, want %s", entry.ExternalReference, reference)
	}
}

func TestReturnSettledWithdrawal(t *testing.T) {
	db := newTestDB(t)
	wallets := newWalletService(t, db)
	teacherID := uuid.New()
	wallet := fundWallet(t, db, wallets, teacherID, "10000")
	payoutID := uuid.New()

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := wallets.ReserveTx(tx, wallet.ID, decimal.NewFromInt(4000), payoutID); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		t.Fatalf("reserve failed: %v", err)
	}
	err = db.Transaction(func(tx *gorm.DB) error {
		return wallets.SettleWithdrawalTx(tx, wallet.ID, decimal.NewFromInt(4000), payoutID, nil)
	})
	if err != nil {
		t.Fatalf("settle failed: %v", err)
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		return wallets.ReturnSettledTx(tx, wallet.ID, decimal.NewFromInt(4000), payoutID)
	})
	if err != nil {
		t.Fatalf("return failed: %v", err)
	}

	wallet = reloadWallet(t, db, wallet.ID)
	assertDecimal(t, "balance", wallet.Balance, "10000")
	assertDecimal(t, "total_withdrawn", wallet.TotalWithdrawn, "0")
	assertInvariant(t, wallet)

	var withdrawal models.LedgerEntry
	db.First(&withdrawal, "payout_request_id = ? AND type = ?", payoutID, models.EntryTypeWithdrawal)
	if withdrawal.Status != models.EntryStatusReversed {
		t.Errorf("withdrawal entry status = %s, want reversed", withdrawal.Status)
	}

	// The reversed withdrawal IS the return; any extra credit entry would
	// double-count once the wallet is recomputed from the ledger.
	var extra int64
	db.Model(&models.LedgerEntry{}).
		Where("payout_request_id = ? AND type != ?", payoutID, models.EntryTypeWithdrawal).
		Count(&extra)
	if extra != 0 {
		t.Errorf("expected no compensating entries, got %d", extra)
	}
}

func TestListEntriesNewestFirst(t *testing.T) {
	db := newTestDB(t)
	wallets := newWalletService(t, db)
	teacherID := uuid.New()
	wallet := fundWallet(t, db, wallets, teacherID, "1000")

	for i := 0; i < 3; i++ {
		if err := wallets.Record(teacherID, models.EntryTypeBonus, decimal.NewFromInt(10), "Bonus", nil); err != nil {
			t.Fatalf("record failed: %v", err)
		}
	}

	entries, err := wallets.ListEntries(wallet.ID, 2, 0)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
}
