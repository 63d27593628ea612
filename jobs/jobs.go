package jobs

import (
	"github.com/rs/zerolog"
	"github.com/tutorhive/payouts/configs"
	"github.com/tutorhive/payouts/services"
)

var (
	cfg           *configs.Config
	payoutService *services.PayoutService
	syncService   *services.WalletSyncService
	log           zerolog.Logger
)

// Init wires the jobs package. Called once from main before the cron
// scheduler starts.
func Init(config *configs.Config, payouts *services.PayoutService, sync *services.WalletSyncService, logger zerolog.Logger) {
	cfg = config
	payoutService = payouts
	syncService = sync
	log = logger.With().Str("component", "jobs").Logger()
}
