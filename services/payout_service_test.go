package services

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/tutorhive/payouts/models"
	"github.com/tutorhive/payouts/payments"
	"gorm.io/gorm"
)

type fakeAdapter struct {
	name         string
	configured   bool
	currencies   map[string]bool
	initResult   *payments.TransferResult
	initErr      error
	verifyResult *payments.TransferResult
	verifyErr    error
	initiated    int
}

func (f *fakeAdapter) Name() string     { return f.name }
func (f *fakeAdapter) Configured() bool { return f.configured }

func (f *fakeAdapter) SupportsCurrency(currency string) bool {
	if f.currencies == nil {
		return true
	}
	return f.currencies[currency]
}

func (f *fakeAdapter) InitiateTransfer(req *models.PayoutRequest) (*payments.TransferResult, error) {
	f.initiated++
	return f.initResult, f.initErr
}

func (f *fakeAdapter) VerifyTransfer(req *models.PayoutRequest) (*payments.TransferResult, error) {
	return f.verifyResult, f.verifyErr
}

func (f *fakeAdapter) ParseWebhook(body []byte, headers map[string]string) (*payments.TransferEvent, error) {
	return nil, fmt.Errorf("not implemented")
}

func newPayoutFixture(t *testing.T) (*gorm.DB, *PayoutService, *WalletService, *fakeAdapter) {
	t.Helper()
	db := newTestDB(t)
	cfg := newTestConfig()
	wallets := newWalletService(t, db)
	currency := newCurrencyServiceForTest(db, cfg)

	adapter := &fakeAdapter{
		name:       "paystack",
		configured: true,
		initResult: &payments.TransferResult{Success: true, Reference: "ref-1", TransferCode: "TRF_1", Status: "pending"},
	}
	adapters := map[string]payments.GatewayAdapter{
		models.PayoutMethodBankTransfer: adapter,
		models.PayoutMethodMobileMoney:  adapter,
	}
	svc := NewPayoutService(db, wallets, currency, adapters, cfg, zerolog.Nop())
	return db, svc, wallets, adapter
}

func bankDetails() map[string]string {
	return map[string]string{
		"account_number": "0123456789",
		"bank_code":      "058",
		"account_name":   "Ada Obi",
	}
}

func createBankPayout(t *testing.T, svc *PayoutService, teacherID uuid.UUID, amount string) *models.PayoutRequest {
	t.Helper()
	request, err := svc.CreatePayoutRequest(teacherID, decimal.RequireFromString(amount), models.PayoutMethodBankTransfer, "NGN", bankDetails())
	if err != nil {
		t.Fatalf("create payout failed: %v", err)
	}
	return request
}

func reloadRequest(t *testing.T, db *gorm.DB, id uuid.UUID) *models.PayoutRequest {
	t.Helper()
	var request models.PayoutRequest
	if err := db.First(&request, "id = ?", id).Error; err != nil {
		t.Fatalf("loading payout request failed: %v", err)
	}
	return &request
}

func TestCreatePayoutRequestReservesFunds(t *testing.T) {
	db, svc, wallets, _ := newPayoutFixture(t)
	teacherID := uuid.New()
	wallet := fundWallet(t, db, wallets, teacherID, "50000")

	request := createBankPayout(t, svc, teacherID, "20000")

	assertDecimal(t, "gross amount", request.Amount, "20000")
	assertDecimal(t, "fee", request.FeeAmount, "100")
	assertDecimal(t, "requested amount", request.RequestedAmount, "20000")
	if request.Status != models.PayoutStatusPending {
		t.Errorf("status = %s, want pending", request.Status)
	}
	payout, payoutCurrency := request.PayoutAmount()
	assertDecimal(t, "provider payout", payout, "19900")
	if payoutCurrency != "NGN" {
		t.Errorf("payout currency = %s, want NGN", payoutCurrency)
	}

	wallet = reloadWallet(t, db, wallet.ID)
	assertDecimal(t, "balance", wallet.Balance, "30000")
	assertDecimal(t, "pending_payouts", wallet.PendingPayouts, "20000")
	assertInvariant(t, wallet)
}

func TestCreatePayoutRequestInsufficientBalanceRollsBack(t *testing.T) {
	db, svc, wallets, _ := newPayoutFixture(t)
	teacherID := uuid.New()
	fundWallet(t, db, wallets, teacherID, "5000")

	_, err := svc.CreatePayoutRequest(teacherID, decimal.NewFromInt(20000), models.PayoutMethodBankTransfer, "NGN", bankDetails())
	if !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance, got %v", err)
	}

	// Neither the request row nor the reservation may survive the rollback.
	var count int64
	db.Model(&models.PayoutRequest{}).Count(&count)
	if count != 0 {
		t.Errorf("expected no payout requests after rollback, got %d", count)
	}
	var wallet models.Wallet
	db.First(&wallet, "teacher_id = ?", teacherID)
	assertDecimal(t, "balance", wallet.Balance, "5000")
	assertDecimal(t, "pending_payouts", wallet.PendingPayouts, "0")
}

func TestCreatePayoutRequestFeeExceedsAmount(t *testing.T) {
	_, svc, _, _ := newPayoutFixture(t)

	_, err := svc.CreatePayoutRequest(uuid.New(), decimal.NewFromInt(50), models.PayoutMethodBankTransfer, "NGN", bankDetails())
	if err == nil {
		t.Fatal("expected error when fee exceeds amount")
	}
}

func TestValidateRequestCollectsAllViolations(t *testing.T) {
	_, svc, _, adapter := newPayoutFixture(t)
	adapter.currencies = map[string]bool{"NGN": true}

	// 0.1 USD converts to 150 NGN at the fallback rate, well below the
	// 1000 NGN minimum, so below_minimum must fire alongside the rest.
	violations := svc.ValidateRequest(uuid.New(), decimal.RequireFromString("0.1"), models.PayoutMethodBankTransfer, "USD", map[string]string{})

	codes := map[string]bool{}
	for _, v := range violations {
		codes[v.Code] = true
	}
	for _, want := range []string{"unsupported_currency", "missing_account_number", "missing_bank_code", "missing_account_name", "below_minimum"} {
		if !codes[want] {
			t.Errorf("missing violation %q in %v", want, violations)
		}
	}
}

func TestValidateRequestUnsupportedMethod(t *testing.T) {
	_, svc, _, _ := newPayoutFixture(t)

	violations := svc.ValidateRequest(uuid.New(), decimal.NewFromInt(5000), "crypto", "NGN", nil)
	if len(violations) != 1 || violations[0].Code != "unsupported_method" {
		t.Fatalf("expected single unsupported_method violation, got %v", violations)
	}
}

func TestValidateRequestDailyLimit(t *testing.T) {
	db, svc, _, _ := newPayoutFixture(t)
	teacherID := uuid.New()

	now := time.Now()
	completed := models.PayoutRequest{
		TeacherID:         teacherID,
		WalletID:          uuid.New(),
		Amount:            decimal.NewFromInt(490000),
		Currency:          "NGN",
		RequestedAmount:   decimal.NewFromInt(490000),
		RequestedCurrency: "NGN",
		PaymentMethod:     models.PayoutMethodBankTransfer,
		PaymentDetails:    []byte(`{}`),
		FeeCurrency:       "NGN",
		Status:            models.PayoutStatusCompleted,
		CompletedAt:       &now,
	}
	if err := db.Create(&completed).Error; err != nil {
		t.Fatalf("seeding completed payout failed: %v", err)
	}

	violations := svc.ValidateRequest(teacherID, decimal.NewFromInt(20000), models.PayoutMethodBankTransfer, "NGN", bankDetails())
	found := false
	for _, v := range violations {
		if v.Code == "daily_limit" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected daily_limit violation, got %v", violations)
	}
}

func TestProcessPayoutMovesToProcessing(t *testing.T) {
	db, svc, wallets, _ := newPayoutFixture(t)
	teacherID := uuid.New()
	fundWallet(t, db, wallets, teacherID, "50000")
	request := createBankPayout(t, svc, teacherID, "20000")

	result, err := svc.ProcessPayout(request)
	if err != nil {
		t.Fatalf("process failed: %v", err)
	}
	if !result.Success {
		t.Fatalf("expected success, got %v", result)
	}

	stored := reloadRequest(t, db, request.ID)
	if stored.Status != models.PayoutStatusProcessing {
		t.Errorf("status = %s, want processing", stored.Status)
	}
	if stored.ExternalReference == nil || *stored.ExternalReference != "ref-1" {
		t.Errorf("external_reference = %v, want ref-1", stored.ExternalReference)
	}
	if stored.ExternalTransferCode == nil || *stored.ExternalTransferCode != "TRF_1" {
		t.Errorf("external_transfer_code = %v, want TRF_1", stored.ExternalTransferCode)
	}
	if stored.ProcessedAt == nil {
		t.Error("processed_at not set")
	}
}

func TestProcessPayoutTransportErrorLeavesPending(t *testing.T) {
	db, svc, wallets, adapter := newPayoutFixture(t)
	adapter.initErr = fmt.Errorf("connection reset")
	teacherID := uuid.New()
	wallet := fundWallet(t, db, wallets, teacherID, "50000")
	request := createBankPayout(t, svc, teacherID, "20000")

	if _, err := svc.ProcessPayout(request); err == nil {
		t.Fatal("expected transport error")
	}

	stored := reloadRequest(t, db, request.ID)
	if stored.Status != models.PayoutStatusPending {
		t.Errorf("status = %s, want pending", stored.Status)
	}
	// Funds stay reserved for the retry.
	wallet = reloadWallet(t, db, wallet.ID)
	assertDecimal(t, "pending_payouts", wallet.PendingPayouts, "20000")
}

func TestProcessPayoutProviderRejection(t *testing.T) {
	db, svc, wallets, adapter := newPayoutFixture(t)
	adapter.initResult = &payments.TransferResult{Success: false, Message: "Insufficient balance on platform account"}
	teacherID := uuid.New()
	fundWallet(t, db, wallets, teacherID, "50000")
	request := createBankPayout(t, svc, teacherID, "20000")

	result, err := svc.ProcessPayout(request)
	if err != nil {
		t.Fatalf("process returned error: %v", err)
	}
	if result.Success {
		t.Fatal("expected rejection result")
	}

	stored := reloadRequest(t, db, request.ID)
	if stored.Status != models.PayoutStatusPending {
		t.Errorf("status = %s, want pending", stored.Status)
	}
	if stored.FailureReason == nil || *stored.FailureReason == "" {
		t.Error("failure_reason not recorded")
	}
}

func TestProcessPayoutNotConfigured(t *testing.T) {
	db, svc, wallets, adapter := newPayoutFixture(t)
	adapter.configured = false
	teacherID := uuid.New()
	fundWallet(t, db, wallets, teacherID, "50000")
	request := createBankPayout(t, svc, teacherID, "20000")

	_, err := svc.ProcessPayout(request)
	if !errors.Is(err, payments.ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
	if adapter.initiated != 0 {
		t.Error("adapter must not be called when unconfigured")
	}
}

func TestProcessPayoutNotPending(t *testing.T) {
	db, svc, wallets, _ := newPayoutFixture(t)
	teacherID := uuid.New()
	fundWallet(t, db, wallets, teacherID, "50000")
	request := createBankPayout(t, svc, teacherID, "20000")

	if _, err := svc.ProcessPayout(request); err != nil {
		t.Fatalf("first process failed: %v", err)
	}
	if _, err := svc.ProcessPayout(request); !errors.Is(err, ErrNotPending) {
		t.Fatalf("expected ErrNotPending, got %v", err)
	}
}

func processToProcessing(t *testing.T, svc *PayoutService, request *models.PayoutRequest) {
	t.Helper()
	if _, err := svc.ProcessPayout(request); err != nil {
		t.Fatalf("process failed: %v", err)
	}
}

func successEvent(request *models.PayoutRequest) *payments.TransferEvent {
	return &payments.TransferEvent{
		Provider:  "paystack",
		Kind:      payments.EventSuccess,
		Reference: "ref-1",
	}
}

func TestApplyTransferEventSuccessSettles(t *testing.T) {
	db, svc, wallets, _ := newPayoutFixture(t)
	teacherID := uuid.New()
	wallet := fundWallet(t, db, wallets, teacherID, "50000")
	request := createBankPayout(t, svc, teacherID, "20000")
	processToProcessing(t, svc, request)

	if err := svc.ApplyTransferEvent(successEvent(request)); err != nil {
		t.Fatalf("apply event failed: %v", err)
	}

	stored := reloadRequest(t, db, request.ID)
	if stored.Status != models.PayoutStatusCompleted {
		t.Errorf("status = %s, want completed", stored.Status)
	}
	if stored.CompletedAt == nil {
		t.Error("completed_at not set")
	}

	wallet = reloadWallet(t, db, wallet.ID)
	assertDecimal(t, "balance", wallet.Balance, "30000")
	assertDecimal(t, "pending_payouts", wallet.PendingPayouts, "0")
	assertDecimal(t, "total_withdrawn", wallet.TotalWithdrawn, "20000")
	assertInvariant(t, wallet)
}

// At-least-once delivery: the second identical webhook must not settle twice.
func TestApplyTransferEventIdempotent(t *testing.T) {
	db, svc, wallets, _ := newPayoutFixture(t)
	teacherID := uuid.New()
	wallet := fundWallet(t, db, wallets, teacherID, "50000")
	request := createBankPayout(t, svc, teacherID, "20000")
	processToProcessing(t, svc, request)

	if err := svc.ApplyTransferEvent(successEvent(request)); err != nil {
		t.Fatalf("first event failed: %v", err)
	}
	if err := svc.ApplyTransferEvent(successEvent(request)); err != nil {
		t.Fatalf("duplicate event failed: %v", err)
	}

	wallet = reloadWallet(t, db, wallet.ID)
	assertDecimal(t, "total_withdrawn", wallet.TotalWithdrawn, "20000")
	assertInvariant(t, wallet)
}

// Simultaneous deliveries of the same success event race on the conditional
// status update; exactly one may settle the wallet.
func TestApplyTransferEventConcurrentDeliveries(t *testing.T) {
	db, svc, wallets, _ := newPayoutFixture(t)
	teacherID := uuid.New()
	wallet := fundWallet(t, db, wallets, teacherID, "50000")
	request := createBankPayout(t, svc, teacherID, "20000")
	processToProcessing(t, svc, request)

	const deliveries = 4
	errs := make(chan error, deliveries)
	var wg sync.WaitGroup
	for i := 0; i < deliveries; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- svc.ApplyTransferEvent(successEvent(request))
		}()
	}
	wg.Wait()
	close(errs)

	applied := 0
	for err := range errs {
		if err == nil {
			applied++
		}
	}
	if applied == 0 {
		t.Fatal("no delivery applied the event")
	}

	stored := reloadRequest(t, db, request.ID)
	if stored.Status != models.PayoutStatusCompleted {
		t.Errorf("status = %s, want completed", stored.Status)
	}

	wallet = reloadWallet(t, db, wallet.ID)
	assertDecimal(t, "balance", wallet.Balance, "30000")
	assertDecimal(t, "pending_payouts", wallet.PendingPayouts, "0")
	assertDecimal(t, "total_withdrawn", wallet.TotalWithdrawn, "20000")
	assertInvariant(t, wallet)

	var completed int64
	db.Model(&models.LedgerEntry{}).
		Where("payout_request_id = ? AND type = ? AND status = ?",
			request.ID, models.EntryTypeWithdrawal, models.EntryStatusCompleted).
		Count(&completed)
	if completed != 1 {
		t.Errorf("completed withdrawal entries = %d, want 1", completed)
	}
}

func TestApplyTransferEventFailedReleasesFunds(t *testing.T) {
	db, svc, wallets, _ := newPayoutFixture(t)
	teacherID := uuid.New()
	wallet := fundWallet(t, db, wallets, teacherID, "50000")
	request := createBankPayout(t, svc, teacherID, "20000")
	processToProcessing(t, svc, request)

	event := &payments.TransferEvent{
		Provider:  "paystack",
		Kind:      payments.EventFailed,
		Reference: "ref-1",
		Reason:    "Account resolution failed",
	}
	if err := svc.ApplyTransferEvent(event); err != nil {
		t.Fatalf("apply event failed: %v", err)
	}

	stored := reloadRequest(t, db, request.ID)
	if stored.Status != models.PayoutStatusFailed {
		t.Errorf("status = %s, want failed", stored.Status)
	}
	if stored.FailureReason == nil || *stored.FailureReason != "Account resolution failed" {
		t.Errorf("failure_reason = %v", stored.FailureReason)
	}

	// Money is conserved: everything reserved comes back.
	wallet = reloadWallet(t, db, wallet.ID)
	assertDecimal(t, "balance", wallet.Balance, "50000")
	assertDecimal(t, "pending_payouts", wallet.PendingPayouts, "0")
	assertDecimal(t, "total_withdrawn", wallet.TotalWithdrawn, "0")
	assertInvariant(t, wallet)
}

func TestApplyTransferEventUnclaimedSettles(t *testing.T) {
	db, svc, wallets, _ := newPayoutFixture(t)
	teacherID := uuid.New()
	wallet := fundWallet(t, db, wallets, teacherID, "50000")
	request := createBankPayout(t, svc, teacherID, "20000")
	processToProcessing(t, svc, request)

	event := &payments.TransferEvent{
		Provider:  "paystack",
		Kind:      payments.EventUnclaimed,
		Reference: "ref-1",
		Reason:    "Recipient has not claimed the payout",
	}
	if err := svc.ApplyTransferEvent(event); err != nil {
		t.Fatalf("apply event failed: %v", err)
	}

	stored := reloadRequest(t, db, request.ID)
	if stored.Status != models.PayoutStatusUnclaimed {
		t.Errorf("status = %s, want unclaimed", stored.Status)
	}

	// The funds left the platform, so they settle rather than release.
	wallet = reloadWallet(t, db, wallet.ID)
	assertDecimal(t, "pending_payouts", wallet.PendingPayouts, "0")
	assertDecimal(t, "total_withdrawn", wallet.TotalWithdrawn, "20000")
	assertInvariant(t, wallet)
}

func TestReversalAfterCompletionReturnsFunds(t *testing.T) {
	db, svc, wallets, _ := newPayoutFixture(t)
	teacherID := uuid.New()
	wallet := fundWallet(t, db, wallets, teacherID, "50000")
	request := createBankPayout(t, svc, teacherID, "20000")
	processToProcessing(t, svc, request)

	if err := svc.ApplyTransferEvent(successEvent(request)); err != nil {
		t.Fatalf("success event failed: %v", err)
	}

	reversal := &payments.TransferEvent{
		Provider:  "paystack",
		Kind:      payments.EventReversed,
		Reference: "ref-1",
		Reason:    "Transfer returned by receiving bank",
	}
	if err := svc.ApplyTransferEvent(reversal); err != nil {
		t.Fatalf("reversal event failed: %v", err)
	}

	stored := reloadRequest(t, db, request.ID)
	if stored.Status != models.PayoutStatusReturned {
		t.Errorf("status = %s, want returned", stored.Status)
	}
	if stored.ReturnedAt == nil {
		t.Error("returned_at not set")
	}

	wallet = reloadWallet(t, db, wallet.ID)
	assertDecimal(t, "balance", wallet.Balance, "50000")
	assertDecimal(t, "total_withdrawn", wallet.TotalWithdrawn, "0")
	assertInvariant(t, wallet)
}

func TestApplyTransferEventUnknownReference(t *testing.T) {
	_, svc, _, _ := newPayoutFixture(t)

	event := &payments.TransferEvent{Provider: "paystack", Kind: payments.EventSuccess, Reference: "no-such-ref"}
	if err := svc.ApplyTransferEvent(event); !errors.Is(err, ErrPayoutNotFound) {
		t.Fatalf("expected ErrPayoutNotFound, got %v", err)
	}
}

// Providers emit progress events for transfers outside this system (manual
// dashboard transfers, other products on the same account). Those must be
// dropped silently, not reported as unknown payouts.
func TestApplyTransferEventPendingForUntrackedTransfer(t *testing.T) {
	_, svc, _, _ := newPayoutFixture(t)

	event := &payments.TransferEvent{Provider: "paystack", Kind: payments.EventPending, Reference: "no-such-ref"}
	if err := svc.ApplyTransferEvent(event); err != nil {
		t.Fatalf("pending event must be ignored, got %v", err)
	}
}

func TestFindByPayoutIDReference(t *testing.T) {
	db, svc, wallets, _ := newPayoutFixture(t)
	teacherID := uuid.New()
	fundWallet(t, db, wallets, teacherID, "50000")
	request := createBankPayout(t, svc, teacherID, "20000")

	// Move to processing without external references, as when the webhook
	// races ahead of the initiation bookkeeping. PayStack echoes back the
	// payout id we used as the transfer reference.
	db.Model(request).Update("status", models.PayoutStatusProcessing)

	event := &payments.TransferEvent{
		Provider:  "paystack",
		Kind:      payments.EventSuccess,
		Reference: request.ID.String(),
	}
	if err := svc.ApplyTransferEvent(event); err != nil {
		t.Fatalf("apply event failed: %v", err)
	}

	stored := reloadRequest(t, db, request.ID)
	if stored.Status != models.PayoutStatusCompleted {
		t.Errorf("status = %s, want completed", stored.Status)
	}
}

func TestCancelPayout(t *testing.T) {
	db, svc, wallets, _ := newPayoutFixture(t)
	teacherID := uuid.New()
	wallet := fundWallet(t, db, wallets, teacherID, "50000")
	request := createBankPayout(t, svc, teacherID, "20000")

	if err := svc.CancelPayout(request, "cancelled by teacher"); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}

	stored := reloadRequest(t, db, request.ID)
	if stored.Status != models.PayoutStatusCancelled {
		t.Errorf("status = %s, want cancelled", stored.Status)
	}

	wallet = reloadWallet(t, db, wallet.ID)
	assertDecimal(t, "balance", wallet.Balance, "50000")
	assertDecimal(t, "pending_payouts", wallet.PendingPayouts, "0")
	assertInvariant(t, wallet)

	if err := svc.CancelPayout(stored, "again"); !errors.Is(err, ErrNotPending) {
		t.Fatalf("expected ErrNotPending on second cancel, got %v", err)
	}
}

func TestCancelProcessingPayoutRejected(t *testing.T) {
	db, svc, wallets, _ := newPayoutFixture(t)
	teacherID := uuid.New()
	fundWallet(t, db, wallets, teacherID, "50000")
	request := createBankPayout(t, svc, teacherID, "20000")
	processToProcessing(t, svc, request)

	if err := svc.CancelPayout(request, "too late"); !errors.Is(err, ErrNotPending) {
		t.Fatalf("expected ErrNotPending, got %v", err)
	}
}

func TestVerifyStatusAppliesTerminalOutcome(t *testing.T) {
	db, svc, wallets, adapter := newPayoutFixture(t)
	teacherID := uuid.New()
	wallet := fundWallet(t, db, wallets, teacherID, "50000")
	request := createBankPayout(t, svc, teacherID, "20000")
	processToProcessing(t, svc, request)

	adapter.verifyResult = &payments.TransferResult{Success: true, Reference: "ref-1", Status: "success"}
	if _, err := svc.VerifyStatus(reloadRequest(t, db, request.ID)); err != nil {
		t.Fatalf("verify failed: %v", err)
	}

	stored := reloadRequest(t, db, request.ID)
	if stored.Status != models.PayoutStatusCompleted {
		t.Errorf("status = %s, want completed", stored.Status)
	}
	wallet = reloadWallet(t, db, wallet.ID)
	assertDecimal(t, "total_withdrawn", wallet.TotalWithdrawn, "20000")
}

func TestVerifyStatusPendingIsNoOp(t *testing.T) {
	db, svc, wallets, adapter := newPayoutFixture(t)
	teacherID := uuid.New()
	fundWallet(t, db, wallets, teacherID, "50000")
	request := createBankPayout(t, svc, teacherID, "20000")
	processToProcessing(t, svc, request)

	adapter.verifyResult = &payments.TransferResult{Reference: "ref-1", Status: "otp"}
	if _, err := svc.VerifyStatus(reloadRequest(t, db, request.ID)); err != nil {
		t.Fatalf("verify failed: %v", err)
	}

	stored := reloadRequest(t, db, request.ID)
	if stored.Status != models.PayoutStatusProcessing {
		t.Errorf("status = %s, want processing", stored.Status)
	}
}
