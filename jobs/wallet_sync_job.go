package jobs

// SyncStaleWallets recomputes wallet aggregates from the ledger for wallets
// that have not been synced within the configured threshold.
func SyncStaleWallets() {
	log.Info().Msg("Running job: SyncStaleWallets...")

	synced, failed := syncService.SyncAll(cfg.WalletSyncThresholdHours)
	if failed > 0 {
		log.Warn().Int("synced", synced).Int("failed", failed).Msg("⚠️ wallet sync completed with failures")
		return
	}
	if synced > 0 {
		log.Info().Int("synced", synced).Msg("✅ wallet sync completed")
	}
}
