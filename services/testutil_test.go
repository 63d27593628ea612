package services

import (
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/tutorhive/payouts/cache"
	"github.com/tutorhive/payouts/configs"
	"github.com/tutorhive/payouts/models"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(t.TempDir()+"/payouts.db"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("sqlite open failed: %v", err)
	}
	err = db.AutoMigrate(
		&models.User{},
		&models.Wallet{},
		&models.LedgerEntry{},
		&models.PayoutRequest{},
		&models.ExchangeRate{},
	)
	if err != nil {
		t.Fatalf("migration failed: %v", err)
	}
	return db
}

func newTestConfig() *configs.Config {
	return &configs.Config{
		SettlementCurrency:     "NGN",
		MinWithdrawalAmount:    decimal.NewFromInt(1000),
		DailyWithdrawalLimit:   decimal.NewFromInt(500000),
		MonthlyWithdrawalLimit: decimal.NewFromInt(5000000),
		Fees: map[string]configs.FeeRule{
			"bank_transfer": {Flat: decimal.NewFromInt(100), Percent: decimal.Zero},
			"mobile_money":  {Flat: decimal.NewFromInt(50), Percent: decimal.Zero},
			"paypal":        {Flat: decimal.Zero, Percent: decimal.NewFromInt(2)},
			"stripe":        {Flat: decimal.Zero, Percent: decimal.RequireFromString("2.5")},
		},
		FallbackRates: map[string]decimal.Decimal{
			"USD:NGN": decimal.NewFromInt(1500),
		},
		WalletSyncThresholdHours: 24,
		PayoutVerifyAfterMinutes: 30,
	}
}

func newWalletService(t *testing.T, db *gorm.DB) *WalletService {
	t.Helper()
	return NewWalletService(db, "NGN", zerolog.Nop())
}

func newCurrencyServiceForTest(db *gorm.DB, cfg *configs.Config) *CurrencyService {
	svc := NewCurrencyService(db, cache.NewMemory(), cfg, zerolog.Nop())
	// Point at unreachable endpoints so no test ever leaves the machine.
	svc.primaryURL = "http://127.0.0.1:1"
	svc.secondaryURL = "http://127.0.0.1:1"
	return svc
}

func fundWallet(t *testing.T, db *gorm.DB, wallets *WalletService, teacherID uuid.UUID, amount string) *models.Wallet {
	t.Helper()
	if err := wallets.Record(teacherID, models.EntryTypeSessionPayment, decimal.RequireFromString(amount), "Completed session", nil); err != nil {
		t.Fatalf("funding wallet failed: %v", err)
	}
	var wallet models.Wallet
	if err := db.First(&wallet, "teacher_id = ?", teacherID).Error; err != nil {
		t.Fatalf("loading wallet failed: %v", err)
	}
	return &wallet
}

func reloadWallet(t *testing.T, db *gorm.DB, walletID uuid.UUID) *models.Wallet {
	t.Helper()
	var wallet models.Wallet
	if err := db.First(&wallet, "id = ?", walletID).Error; err != nil {
		t.Fatalf("loading wallet failed: %v", err)
	}
	return &wallet
}

func assertDecimal(t *testing.T, label string, got decimal.Decimal, want string) {
	t.Helper()
	if !got.Equal(decimal.RequireFromString(want)) {
		t.Errorf("%s = %s, want %s", label, got, want)
	}
}

// assertInvariant checks balance = total_earned - total_withdrawn - pending_payouts.
func assertInvariant(t *testing.T, wallet *models.Wallet) {
	t.Helper()
	expected := wallet.TotalEarned.Sub(wallet.TotalWithdrawn).Sub(wallet.PendingPayouts)
	if !wallet.Balance.Equal(expected) {
		t.Errorf("wallet invariant broken: balance=%s, earned-withdrawn-pending=%s", wallet.Balance, expected)
	}
}
