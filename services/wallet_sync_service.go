package services

import (
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/tutorhive/payouts/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// WalletSyncService recomputes a wallet's aggregate fields from its ledger
// entries. Reservation and release happen in separate transactions (request
// creation vs. webhook arrival), so the denormalized fields can drift after
// partial failures; periodic recomputation guarantees they never diverge from
// ledger truth permanently.
type WalletSyncService struct {
	db  *gorm.DB
	log zerolog.Logger
}

func NewWalletSyncService(db *gorm.DB, logger zerolog.Logger) *WalletSyncService {
	return &WalletSyncService{db: db, log: logger.With().Str("service", "wallet_sync").Logger()}
}

// NeedsSync reports whether a wallet has never been synced or was last synced
// more than thresholdHours ago.
func (s *WalletSyncService) NeedsSync(wallet *models.Wallet, thresholdHours int) bool {
	if wallet.LastSyncAt == nil {
		return true
	}
	return time.Since(*wallet.LastSyncAt) > time.Duration(thresholdHours)*time.Hour
}

// SyncWallet recomputes and overwrites the wallet's aggregates from the
// ledger, holding the wallet row lock so a concurrent webhook cannot
// interleave between the sums and the write.
func (s *WalletSyncService) SyncWallet(walletID uuid.UUID) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var wallet models.Wallet
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&wallet, "id = ?", walletID).Error; err != nil {
			return err
		}

		credits, err := s.sumEntries(tx, walletID, models.EntryStatusCompleted,
			[]string{models.EntryTypeSessionPayment, models.EntryTypeBonus, models.EntryTypeAdjustment})
		if err != nil {
			return err
		}
		refunds, err := s.sumEntries(tx, walletID, models.EntryStatusCompleted,
			[]string{models.EntryTypeRefund})
		if err != nil {
			return err
		}
		withdrawn, err := s.sumEntries(tx, walletID, models.EntryStatusCompleted,
			[]string{models.EntryTypeWithdrawal})
		if err != nil {
			return err
		}
		pending, err := s.sumEntries(tx, walletID, models.EntryStatusPending,
			[]string{models.EntryTypeWithdrawal})
		if err != nil {
			return err
		}

		totalEarned := credits.Sub(refunds)
		balance := totalEarned.Sub(withdrawn).Sub(pending)
		now := time.Now()

		drifted := !wallet.Balance.Equal(balance) ||
			!wallet.TotalEarned.Equal(totalEarned) ||
			!wallet.TotalWithdrawn.Equal(withdrawn) ||
			!wallet.PendingPayouts.Equal(pending)
		if drifted {
			s.log.Warn().
				Str("wallet_id", walletID.String()).
				Str("stored_balance", wallet.Balance.String()).
				Str("ledger_balance", balance.String()).
				Msg("wallet drifted from ledger, correcting")
		}

		return tx.Model(&wallet).Updates(map[string]interface{}{
			"balance":         balance,
			"total_earned":    totalEarned,
			"total_withdrawn": withdrawn,
			"pending_payouts": pending,
			"last_sync_at":    now,
		}).Error
	})
}

// SyncAll syncs every wallet past the threshold and reports how many
// succeeded and failed.
func (s *WalletSyncService) SyncAll(thresholdHours int) (synced, failed int) {
	cutoff := time.Now().Add(-time.Duration(thresholdHours) * time.Hour)

	var wallets []models.Wallet
	err := s.db.Where("last_sync_at IS NULL OR last_sync_at < ?", cutoff).Find(&wallets).Error
	if err != nil {
		s.log.Error().Err(err).Msg("could not list wallets for sync")
		return 0, 0
	}

	for _, wallet := range wallets {
		if err := s.SyncWallet(wallet.ID); err != nil {
			s.log.Error().Err(err).Str("wallet_id", wallet.ID.String()).Msg("wallet sync failed")
			failed++
			continue
		}
		synced++
	}
	return synced, failed
}

func (s *WalletSyncService) sumEntries(tx *gorm.DB, walletID uuid.UUID, status string, types []string) (decimal.Decimal, error) {
	var total decimal.NullDecimal
	err := tx.Model(&models.LedgerEntry{}).
		Where("wallet_id = ? AND status = ? AND type IN ?", walletID, status, types).
		Select("COALESCE(SUM(amount), 0)").
		Row().Scan(&total)
	if err != nil {
		return decimal.Zero, err
	}
	return total.Decimal, nil
}
