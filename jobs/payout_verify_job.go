package jobs

import (
	"time"

	"github.com/tutorhive/payouts/database"
	"github.com/tutorhive/payouts/models"
)

// VerifyStuckPayouts polls the gateways for payouts that have been sitting in
// processing longer than expected, the safety net for missed webhooks.
func VerifyStuckPayouts() {
	log.Info().Msg("Running job: VerifyStuckPayouts...")

	cutoff := time.Now().Add(-time.Duration(cfg.PayoutVerifyAfterMinutes) * time.Minute)

	var stuck []models.PayoutRequest
	err := database.DB.
		Where("status = ? AND processed_at < ?", models.PayoutStatusProcessing, cutoff).
		Limit(100).
		Find(&stuck).Error
	if err != nil {
		log.Error().Err(err).Msg("🔥 failed to load stuck payouts")
		return
	}

	for i := range stuck {
		request := &stuck[i]
		if _, err := payoutService.VerifyStatus(request); err != nil {
			log.Warn().Err(err).Str("payout_id", request.ID.String()).Msg("⚠️ payout verification failed")
			continue
		}
		// VerifyStatus settles the row it loads itself, so reload before
		// checking whether the payout left processing.
		var updated models.PayoutRequest
		if err := database.DB.First(&updated, "id = ?", request.ID).Error; err != nil {
			log.Warn().Err(err).Str("payout_id", request.ID.String()).Msg("⚠️ could not reload payout after verification")
			continue
		}
		if updated.Status != models.PayoutStatusProcessing {
			log.Info().
				Str("payout_id", updated.ID.String()).
				Str("status", updated.Status).
				Msg("✅ stuck payout resolved by verification")
		}
	}
}
