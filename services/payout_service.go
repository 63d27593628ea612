package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/tutorhive/payouts/configs"
	"github.com/tutorhive/payouts/models"
	"github.com/tutorhive/payouts/notifications"
	"github.com/tutorhive/payouts/payments"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var (
	ErrUnsupportedMethod = errors.New("unsupported payment method")
	ErrNotPending        = errors.New("payout request is not pending")
	ErrPayoutNotFound    = errors.New("payout request not found")
)

// Violation is one human-readable reason a withdrawal request was rejected.
// Validation returns every violation at once so the caller can display all
// of them.
type Violation struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// PayoutService validates withdrawal requests, reserves funds, routes them to
// the right gateway adapter, and applies webhook/verification outcomes.
type PayoutService struct {
	db       *gorm.DB
	wallets  *WalletService
	currency *CurrencyService
	adapters map[string]payments.GatewayAdapter
	cfg      *configs.Config
	log      zerolog.Logger
}

// NewPayoutService wires the orchestrator. adapters maps a payment method to
// the adapter that settles it (bank_transfer and mobile_money both route to
// PayStack).
func NewPayoutService(db *gorm.DB, wallets *WalletService, currency *CurrencyService, adapters map[string]payments.GatewayAdapter, cfg *configs.Config, logger zerolog.Logger) *PayoutService {
	return &PayoutService{
		db:       db,
		wallets:  wallets,
		currency: currency,
		adapters: adapters,
		cfg:      cfg,
		log:      logger.With().Str("service", "payout").Logger(),
	}
}

// AdapterFor returns the adapter for a payment method, or nil.
func (s *PayoutService) AdapterFor(method string) payments.GatewayAdapter {
	return s.adapters[method]
}

var requiredDetails = map[string][]string{
	models.PayoutMethodBankTransfer: {"account_number", "bank_code", "account_name"},
	models.PayoutMethodMobileMoney:  {"phone_number", "provider"},
	models.PayoutMethodPayPal:       {"email"},
	models.PayoutMethodStripe:       {"account_id"},
}

// ValidateRequest checks a withdrawal before any fund reservation or external
// call: method and currency support, payment details, minimum amount, and the
// daily/monthly completed-withdrawal limits. Limits compare gross amounts
// converted to the settlement currency.
func (s *PayoutService) ValidateRequest(teacherID uuid.UUID, amount decimal.Decimal, method, currency string, details map[string]string) []Violation {
	var violations []Violation

	adapter := s.AdapterFor(method)
	if adapter == nil {
		violations = append(violations, Violation{Code: "unsupported_method",
			Message: fmt.Sprintf("payment method %q is not supported", method)})
		return violations
	}
	if !adapter.SupportsCurrency(currency) {
		violations = append(violations, Violation{Code: "unsupported_currency",
			Message: fmt.Sprintf("%s payouts are not available in %s", method, currency)})
	}

	for _, key := range requiredDetails[method] {
		if details[key] == "" {
			violations = append(violations, Violation{Code: "missing_" + key,
				Message: fmt.Sprintf("payment details are missing %s", key)})
		}
	}

	grossSettle := s.currency.Convert(amount, currency, s.cfg.SettlementCurrency).Round(2)

	if grossSettle.LessThan(s.cfg.MinWithdrawalAmount) {
		violations = append(violations, Violation{Code: "below_minimum",
			Message: fmt.Sprintf("minimum withdrawal is %s %s", s.cfg.MinWithdrawalAmount, s.cfg.SettlementCurrency)})
	}

	now := time.Now()
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	startOfMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())

	if s.completedSince(teacherID, startOfDay).Add(grossSettle).GreaterThan(s.cfg.DailyWithdrawalLimit) {
		violations = append(violations, Violation{Code: "daily_limit",
			Message: fmt.Sprintf("daily withdrawal limit of %s %s exceeded", s.cfg.DailyWithdrawalLimit, s.cfg.SettlementCurrency)})
	}
	if s.completedSince(teacherID, startOfMonth).Add(grossSettle).GreaterThan(s.cfg.MonthlyWithdrawalLimit) {
		violations = append(violations, Violation{Code: "monthly_limit",
			Message: fmt.Sprintf("monthly withdrawal limit of %s %s exceeded", s.cfg.MonthlyWithdrawalLimit, s.cfg.SettlementCurrency)})
	}

	return violations
}

func (s *PayoutService) completedSince(teacherID uuid.UUID, since time.Time) decimal.Decimal {
	var total decimal.NullDecimal
	err := s.db.Model(&models.PayoutRequest{}).
		Where("teacher_id = ? AND status = ? AND completed_at >= ?", teacherID, models.PayoutStatusCompleted, since).
		Select("COALESCE(SUM(amount), 0)").
		Row().Scan(&total)
	if err != nil {
		s.log.Error().Err(err).Str("teacher_id", teacherID.String()).Msg("could not sum completed withdrawals")
		return decimal.Zero
	}
	return total.Decimal
}

// CreatePayoutRequest computes the fee, converts to the settlement currency,
// and atomically creates the request row and reserves the gross amount.
// Either both happen or neither does. The wallet is debited the gross; the
// provider later pays out the net, and the difference is the platform fee.
func (s *PayoutService) CreatePayoutRequest(teacherID uuid.UUID, amount decimal.Decimal, method, currency string, details map[string]string) (*models.PayoutRequest, error) {
	if s.AdapterFor(method) == nil {
		return nil, ErrUnsupportedMethod
	}

	fee := s.currency.Fee(method, amount)
	if !amount.Sub(fee).IsPositive() {
		return nil, fmt.Errorf("amount does not cover the %s fee", method)
	}

	rate := s.currency.Rate(currency, s.cfg.SettlementCurrency)
	grossSettle := amount.Mul(rate).Round(2)

	detailsJSON, err := json.Marshal(details)
	if err != nil {
		return nil, err
	}

	wallet, err := s.wallets.GetOrCreateWallet(teacherID)
	if err != nil {
		return nil, err
	}

	request := &models.PayoutRequest{
		TeacherID:         teacherID,
		WalletID:          wallet.ID,
		Amount:            grossSettle,
		Currency:          s.cfg.SettlementCurrency,
		RequestedAmount:   amount,
		RequestedCurrency: currency,
		ExchangeRateUsed:  rate,
		PaymentMethod:     method,
		PaymentDetails:    datatypes.JSON(detailsJSON),
		FeeAmount:         fee,
		FeeCurrency:       currency,
		Status:            models.PayoutStatusPending,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(request).Error; err != nil {
			return err
		}
		return s.wallets.ReserveTx(tx, wallet.ID, grossSettle, request.ID)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Str("payout_id", request.ID.String()).
		Str("teacher_id", teacherID.String()).
		Str("method", method).
		Str("settlement_amount", grossSettle.String()).
		Msg("payout request created, funds reserved")

	return request, nil
}

// ProcessPayout routes a pending request to its gateway adapter. Adapter
// errors leave the request pending with funds still reserved; the operator
// retries or cancels. A successful initiation moves it to processing and
// records the provider references.
func (s *PayoutService) ProcessPayout(request *models.PayoutRequest) (*payments.TransferResult, error) {
	if request.Status != models.PayoutStatusPending {
		return nil, ErrNotPending
	}

	adapter := s.AdapterFor(request.PaymentMethod)
	if adapter == nil {
		return nil, ErrUnsupportedMethod
	}
	if !adapter.Configured() {
		s.log.Error().Str("payout_id", request.ID.String()).Str("gateway", adapter.Name()).Msg("gateway not configured")
		return nil, payments.ErrNotConfigured
	}

	result, err := adapter.InitiateTransfer(request)
	if err != nil {
		// Transport fault: the request stays pending with funds reserved.
		s.log.Error().Err(err).Str("payout_id", request.ID.String()).Str("gateway", adapter.Name()).Msg("transfer initiation failed")
		return nil, err
	}

	if !result.Success {
		s.log.Warn().Str("payout_id", request.ID.String()).Str("message", result.Message).Msg("transfer rejected by provider")
		s.db.Model(request).Where("status = ?", models.PayoutStatusPending).
			Update("failure_reason", result.Message)
		return result, nil
	}

	now := time.Now()
	updates := map[string]interface{}{
		"status":       models.PayoutStatusProcessing,
		"processed_at": now,
	}
	if result.Reference != "" {
		updates["external_reference"] = result.Reference
	}
	if result.TransferCode != "" {
		updates["external_transfer_code"] = result.TransferCode
	}

	res := s.db.Model(&models.PayoutRequest{}).
		Where("id = ? AND status = ?", request.ID, models.PayoutStatusPending).
		Updates(updates)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		s.log.Warn().Str("payout_id", request.ID.String()).Msg("payout left pending concurrently, skipping transition")
		return result, nil
	}

	request.Status = models.PayoutStatusProcessing
	request.ProcessedAt = &now
	if result.Reference != "" {
		request.ExternalReference = &result.Reference
	}
	if result.TransferCode != "" {
		request.ExternalTransferCode = &result.TransferCode
	}

	s.log.Info().
		Str("payout_id", request.ID.String()).
		Str("gateway", adapter.Name()).
		Str("reference", result.Reference).
		Msg("transfer initiated")

	return result, nil
}

// VerifyStatus polls the owning adapter for a processing request and applies
// the outcome if terminal. Fallback for delayed or missed webhooks.
func (s *PayoutService) VerifyStatus(request *models.PayoutRequest) (*payments.TransferResult, error) {
	adapter := s.AdapterFor(request.PaymentMethod)
	if adapter == nil {
		return nil, ErrUnsupportedMethod
	}

	result, err := adapter.VerifyTransfer(request)
	if err != nil {
		return nil, err
	}

	kind := normalizeVerifyStatus(result.Status)
	if kind == payments.EventPending {
		return result, nil
	}

	event := &payments.TransferEvent{
		Provider:     adapter.Name(),
		Kind:         kind,
		Reference:    deref(request.ExternalReference),
		TransferCode: deref(request.ExternalTransferCode),
		Reason:       result.Message,
	}
	if err := s.ApplyTransferEvent(event); err != nil {
		return result, err
	}
	return result, nil
}

// ApplyTransferEvent applies a verified provider outcome to the matching
// payout request. Idempotent under at-least-once delivery: an event for a
// request already in a terminal state is a no-op, except a reversal of a
// completed payout, which moves it to returned. The terminal transition and
// the wallet credit-back run in one transaction, guarded by a conditional
// update so a racing webhook and verify poll cannot both apply it.
func (s *PayoutService) ApplyTransferEvent(event *payments.TransferEvent) error {
	// Providers send non-terminal progress events for transfers we may not
	// even track; drop them before any lookup.
	if event.Kind == payments.EventPending {
		s.log.Info().
			Str("provider", event.Provider).
			Str("reference", event.Reference).
			Msg("non-terminal transfer event, ignoring")
		return nil
	}

	request, err := s.findByReference(event)
	if err != nil {
		return err
	}

	logger := s.log.With().
		Str("payout_id", request.ID.String()).
		Str("provider", event.Provider).
		Str("kind", event.Kind).Logger()

	if request.IsTerminal() {
		if request.Status == models.PayoutStatusCompleted && event.Kind == payments.EventReversed {
			return s.applyReturn(request, event, logger)
		}
		logger.Info().Str("status", request.Status).Msg("duplicate event for settled payout, no-op")
		return nil
	}

	now := time.Now()
	var newStatus string
	updates := map[string]interface{}{}

	switch event.Kind {
	case payments.EventSuccess:
		newStatus = models.PayoutStatusCompleted
		updates["completed_at"] = now
	case payments.EventFailed:
		newStatus = models.PayoutStatusFailed
		updates["failed_at"] = now
		updates["failure_reason"] = event.Reason
	case payments.EventCancelled:
		newStatus = models.PayoutStatusCancelled
		updates["cancelled_at"] = now
		updates["failure_reason"] = event.Reason
	case payments.EventReversed:
		newStatus = models.PayoutStatusReversed
		updates["failed_at"] = now
		updates["failure_reason"] = event.Reason
	case payments.EventUnclaimed:
		newStatus = models.PayoutStatusUnclaimed
		updates["failure_reason"] = event.Reason
	default:
		return fmt.Errorf("unknown transfer event kind %q", event.Kind)
	}
	updates["status"] = newStatus

	err = s.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.PayoutRequest{}).
			Where("id = ? AND status IN ?", request.ID,
				[]string{models.PayoutStatusPending, models.PayoutStatusProcessing}).
			Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			// A concurrent webhook or verify call won the race.
			logger.Info().Msg("payout already transitioned, no-op")
			return nil
		}

		switch event.Kind {
		case payments.EventSuccess:
			return s.wallets.SettleWithdrawalTx(tx, request.WalletID, request.Amount, request.ID, request.ExternalReference)
		case payments.EventUnclaimed:
			// The transfer left the platform; funds stay with the gateway.
			return s.wallets.SettleWithdrawalTx(tx, request.WalletID, request.Amount, request.ID, request.ExternalReference)
		case payments.EventFailed:
			return s.wallets.ReleaseReservedTx(tx, request.WalletID, request.Amount, request.ID, models.EntryStatusFailed)
		case payments.EventCancelled:
			return s.wallets.ReleaseReservedTx(tx, request.WalletID, request.Amount, request.ID, models.EntryStatusCancelled)
		case payments.EventReversed:
			return s.wallets.ReleaseReservedTx(tx, request.WalletID, request.Amount, request.ID, models.EntryStatusReversed)
		}
		return nil
	})
	if err != nil {
		logger.Error().Err(err).Msg("could not apply transfer event")
		return err
	}

	logger.Info().Str("status", newStatus).Msg("payout settled")

	request.Status = newStatus
	go s.notifyOutcome(request)
	return nil
}

// applyReturn handles the late reversal of an already-completed payout.
func (s *PayoutService) applyReturn(request *models.PayoutRequest, event *payments.TransferEvent, logger zerolog.Logger) error {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.PayoutRequest{}).
			Where("id = ? AND status = ?", request.ID, models.PayoutStatusCompleted).
			Updates(map[string]interface{}{
				"status":         models.PayoutStatusReturned,
				"returned_at":    time.Now(),
				"failure_reason": event.Reason,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			logger.Info().Msg("payout already returned, no-op")
			return nil
		}
		return s.wallets.ReturnSettledTx(tx, request.WalletID, request.Amount, request.ID)
	})
	if err != nil {
		logger.Error().Err(err).Msg("could not apply payout return")
		return err
	}
	logger.Info().Msg("completed payout returned, funds credited back")
	return nil
}

// CancelPayout cancels a still-pending request and releases the reserved
// funds. Processing requests cannot be cancelled; the provider owns them.
func (s *PayoutService) CancelPayout(request *models.PayoutRequest, reason string) error {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.PayoutRequest{}).
			Where("id = ? AND status = ?", request.ID, models.PayoutStatusPending).
			Updates(map[string]interface{}{
				"status":         models.PayoutStatusCancelled,
				"cancelled_at":   time.Now(),
				"failure_reason": reason,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotPending
		}
		return s.wallets.ReleaseReservedTx(tx, request.WalletID, request.Amount, request.ID, models.EntryStatusCancelled)
	})
	if err != nil {
		return err
	}

	s.log.Info().Str("payout_id", request.ID.String()).Str("reason", reason).Msg("payout cancelled, funds released")
	request.Status = models.PayoutStatusCancelled
	go s.notifyOutcome(request)
	return nil
}

func (s *PayoutService) findByReference(event *payments.TransferEvent) (*models.PayoutRequest, error) {
	var request models.PayoutRequest

	if event.Reference != "" {
		if err := s.db.Where("external_reference = ?", event.Reference).First(&request).Error; err == nil {
			return &request, nil
		}
	}
	if event.TransferCode != "" {
		if err := s.db.Where("external_transfer_code = ?", event.TransferCode).First(&request).Error; err == nil {
			return &request, nil
		}
	}
	// PayStack echoes back the reference we chose, which is the payout id.
	if event.Reference != "" {
		if id, err := uuid.Parse(event.Reference); err == nil {
			if err := s.db.First(&request, "id = ?", id).Error; err == nil {
				return &request, nil
			}
		}
	}

	s.log.Warn().
		Str("provider", event.Provider).
		Str("reference", event.Reference).
		Str("transfer_code", event.TransferCode).
		Msg("transfer event for unknown payout")
	return nil, ErrPayoutNotFound
}

// notifyOutcome emails the teacher about a settled payout. Best-effort: a
// notification failure never affects the financial transaction, which has
// already committed.
func (s *PayoutService) notifyOutcome(request *models.PayoutRequest) {
	var teacher models.User
	if err := s.db.First(&teacher, "id = ?", request.TeacherID).Error; err != nil {
		s.log.Warn().Err(err).Str("payout_id", request.ID.String()).Msg("cannot load teacher for notification")
		return
	}

	amount, currency := request.PayoutAmount()
	switch request.Status {
	case models.PayoutStatusCompleted:
		notifications.SendEmail(teacher.FullName, teacher.Email, "Your payout is on its way!",
			fmt.Sprintf("<h1>Payout Sent</h1><p>Your withdrawal of %s %s has been paid out successfully.</p>", amount.StringFixed(2), currency))
	case models.PayoutStatusFailed, models.PayoutStatusCancelled, models.PayoutStatusReversed, models.PayoutStatusReturned:
		notifications.SendEmail(teacher.FullName, teacher.Email, "Your payout could not be completed",
			fmt.Sprintf("<h1>Payout %s</h1><p>Your withdrawal of %s %s was not completed and the funds have been returned to your wallet balance.</p>", request.Status, amount.StringFixed(2), currency))
	}
}

func normalizeVerifyStatus(status string) string {
	switch status {
	case "success", "paid", "SUCCESS", "COMPLETED":
		return payments.EventSuccess
	case "failed", "FAILED", "DENIED", "BLOCKED":
		return payments.EventFailed
	case "reversed", "RETURNED", "REFUNDED":
		return payments.EventReversed
	case "canceled", "cancelled", "CANCELED":
		return payments.EventCancelled
	case "UNCLAIMED", "ONHOLD", "HELD":
		return payments.EventUnclaimed
	}
	return payments.EventPending
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
