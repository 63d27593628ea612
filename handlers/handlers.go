package handlers

import (
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/tutorhive/payouts/configs"
	"github.com/tutorhive/payouts/payments"
	"github.com/tutorhive/payouts/services"
)

var validate = validator.New()

var (
	cfg             *configs.Config
	payoutService   *services.PayoutService
	walletService   *services.WalletService
	currencyService *services.CurrencyService
	syncService     *services.WalletSyncService
	paystackService *payments.PayStackService
	webhookGateways map[string]payments.GatewayAdapter
	log             zerolog.Logger
)

// Init wires the handler package. Called once from main before routes are
// registered.
func Init(
	config *configs.Config,
	payouts *services.PayoutService,
	wallets *services.WalletService,
	currency *services.CurrencyService,
	sync *services.WalletSyncService,
	paystack *payments.PayStackService,
	gateways map[string]payments.GatewayAdapter,
	logger zerolog.Logger,
) {
	cfg = config
	payoutService = payouts
	walletService = wallets
	currencyService = currency
	syncService = sync
	paystackService = paystack
	webhookGateways = gateways
	log = logger.With().Str("component", "handlers").Logger()
}
