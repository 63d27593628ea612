package services

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/tutorhive/payouts/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrInvalidEntryType    = errors.New("invalid ledger entry type")
)

// WalletService is the single reservation/release primitive. Every balance
// mutation in the system goes through here; adapters and webhook handlers
// never touch wallet fields directly. Each mutation locks the wallet row and
// records a ledger entry in the same transaction.
type WalletService struct {
	db                 *gorm.DB
	settlementCurrency string
	log                zerolog.Logger
}

func NewWalletService(db *gorm.DB, settlementCurrency string, logger zerolog.Logger) *WalletService {
	return &WalletService{
		db:                 db,
		settlementCurrency: settlementCurrency,
		log:                logger.With().Str("service", "wallet").Logger(),
	}
}

func (s *WalletService) GetOrCreateWallet(teacherID uuid.UUID) (*models.Wallet, error) {
	var wallet models.Wallet
	err := s.db.Where(models.Wallet{TeacherID: teacherID}).
		Attrs(models.Wallet{Currency: s.settlementCurrency}).
		FirstOrCreate(&wallet).Error
	if err != nil {
		return nil, err
	}
	return &wallet, nil
}

// lockWallet loads the wallet row FOR UPDATE. Callers must be inside a
// transaction and must not hold the lock across network calls.
func (s *WalletService) lockWallet(tx *gorm.DB, walletID uuid.UUID) (*models.Wallet, error) {
	var wallet models.Wallet
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&wallet, "id = ?", walletID).Error
	if err != nil {
		return nil, err
	}
	return &wallet, nil
}

// Record applies a non-withdrawal ledger event (session payment, bonus,
// adjustment, refund) in its own transaction. Withdrawals must go through
// the reserve/settle path instead.
func (s *WalletService) Record(teacherID uuid.UUID, entryType string, amount decimal.Decimal, description string, externalReference *string) error {
	if entryType == models.EntryTypeWithdrawal {
		return ErrInvalidEntryType
	}
	if !amount.IsPositive() {
		return fmt.Errorf("amount must be positive")
	}

	wallet, err := s.GetOrCreateWallet(teacherID)
	if err != nil {
		return err
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		locked, err := s.lockWallet(tx, wallet.ID)
		if err != nil {
			return err
		}

		updates := map[string]interface{}{}
		if models.IsDebitType(entryType) {
			if locked.Balance.LessThan(amount) {
				return ErrInsufficientBalance
			}
			updates["balance"] = locked.Balance.Sub(amount)
			updates["total_earned"] = locked.TotalEarned.Sub(amount)
		} else {
			updates["balance"] = locked.Balance.Add(amount)
			updates["total_earned"] = locked.TotalEarned.Add(amount)
		}
		if err := tx.Model(locked).Updates(updates).Error; err != nil {
			return err
		}

		entry := models.LedgerEntry{
			WalletID:          locked.ID,
			Type:              entryType,
			Amount:            amount,
			Currency:          locked.Currency,
			Status:            models.EntryStatusCompleted,
			Description:       description,
			ExternalReference: externalReference,
		}
		return tx.Create(&entry).Error
	})
}

// ReserveTx moves funds from balance into pending payouts and writes the
// pending withdrawal ledger entry. Must run inside the same transaction that
// creates the payout request.
func (s *WalletService) ReserveTx(tx *gorm.DB, walletID uuid.UUID, amount decimal.Decimal, payoutID uuid.UUID) error {
	wallet, err := s.lockWallet(tx, walletID)
	if err != nil {
		return err
	}
	if wallet.Balance.LessThan(amount) {
		return ErrInsufficientBalance
	}

	err = tx.Model(wallet).Updates(map[string]interface{}{
		"balance":         wallet.Balance.Sub(amount),
		"pending_payouts": wallet.PendingPayouts.Add(amount),
	}).Error
	if err != nil {
		return err
	}

	entry := models.LedgerEntry{
		WalletID:        wallet.ID,
		PayoutRequestID: &payoutID,
		Type:            models.EntryTypeWithdrawal,
		Amount:          amount,
		Currency:        wallet.Currency,
		Status:          models.EntryStatusPending,
		Description:     "Payout reservation",
	}
	return tx.Create(&entry).Error
}

// ReleaseReservedTx returns reserved funds to balance when a payout fails or
// is cancelled, and closes the withdrawal ledger entry with entryStatus.
func (s *WalletService) ReleaseReservedTx(tx *gorm.DB, walletID uuid.UUID, amount decimal.Decimal, payoutID uuid.UUID, entryStatus string) error {
	wallet, err := s.lockWallet(tx, walletID)
	if err != nil {
		return err
	}

	err = tx.Model(wallet).Updates(map[string]interface{}{
		"balance":         wallet.Balance.Add(amount),
		"pending_payouts": wallet.PendingPayouts.Sub(amount),
	}).Error
	if err != nil {
		return err
	}

	return s.closeWithdrawalEntry(tx, walletID, payoutID, entryStatus, nil)
}

// SettleWithdrawalTx finalizes a successful payout: reserved funds leave the
// wallet for good and the withdrawal ledger entry completes.
func (s *WalletService) SettleWithdrawalTx(tx *gorm.DB, walletID uuid.UUID, amount decimal.Decimal, payoutID uuid.UUID, externalReference *string) error {
	wallet, err := s.lockWallet(tx, walletID)
	if err != nil {
		return err
	}

	err = tx.Model(wallet).Updates(map[string]interface{}{
		"pending_payouts": wallet.PendingPayouts.Sub(amount),
		"total_withdrawn": wallet.TotalWithdrawn.Add(amount),
	}).Error
	if err != nil {
		return err
	}

	return s.closeWithdrawalEntry(tx, walletID, payoutID, models.EntryStatusCompleted, externalReference)
}

// ReturnSettledTx credits funds back after a completed payout is reversed by
// the provider. The return is exactly one ledger effect: the original
// withdrawal entry flips from completed to reversed, which removes it from
// the completed-withdrawn sum, and the wallet update mirrors that. No
// compensating entry is written; reconciliation would count it as extra
// earnings on top of the restored withdrawal.
func (s *WalletService) ReturnSettledTx(tx *gorm.DB, walletID uuid.UUID, amount decimal.Decimal, payoutID uuid.UUID) error {
	wallet, err := s.lockWallet(tx, walletID)
	if err != nil {
		return err
	}

	err = tx.Model(wallet).Updates(map[string]interface{}{
		"balance":         wallet.Balance.Add(amount),
		"total_withdrawn": wallet.TotalWithdrawn.Sub(amount),
	}).Error
	if err != nil {
		return err
	}

	return tx.Model(&models.LedgerEntry{}).
		Where("wallet_id = ? AND payout_request_id = ? AND type = ?", walletID, payoutID, models.EntryTypeWithdrawal).
		Update("status", models.EntryStatusReversed).Error
}

func (s *WalletService) closeWithdrawalEntry(tx *gorm.DB, walletID, payoutID uuid.UUID, status string, externalReference *string) error {
	updates := map[string]interface{}{"status": status}
	if externalReference != nil {
		updates["external_reference"] = *externalReference
	}
	return tx.Model(&models.LedgerEntry{}).
		Where("wallet_id = ? AND payout_request_id = ? AND type = ? AND status = ?",
			walletID, payoutID, models.EntryTypeWithdrawal, models.EntryStatusPending).
		Updates(updates).Error
}

// ListEntries returns a page of a wallet's ledger, newest first.
func (s *WalletService) ListEntries(walletID uuid.UUID, limit, offset int) ([]models.LedgerEntry, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	var entries []models.LedgerEntry
	err := s.db.Where("wallet_id = ?", walletID).
		Order("created_at desc").
		Limit(limit).Offset(offset).
		Find(&entries).Error
	return entries, err
}
