package services

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/tutorhive/payouts/cache"
	"github.com/tutorhive/payouts/configs"
	"github.com/tutorhive/payouts/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const rateCacheTTL = 5 * time.Minute

// CurrencyService computes withdrawal fees and currency conversions. Rate
// lookups fall through cache, two rate APIs, the last stored rate, and the
// configured fallback table, so a usable rate is always returned and the
// payout path never blocks on a rate provider outage.
type CurrencyService struct {
	db     *gorm.DB
	cache  cache.Store
	client *http.Client
	cfg    *configs.Config
	log    zerolog.Logger

	primaryURL   string
	secondaryURL string
}

func NewCurrencyService(db *gorm.DB, cacheStore cache.Store, cfg *configs.Config, logger zerolog.Logger) *CurrencyService {
	return &CurrencyService{
		db:           db,
		cache:        cacheStore,
		client:       &http.Client{Timeout: 5 * time.Second},
		cfg:          cfg,
		log:          logger.With().Str("service", "currency").Logger(),
		primaryURL:   "https://v6.exchangerate-api.com/v6",
		secondaryURL: "https://open.er-api.com/v6",
	}
}

// Fee returns the withdrawal fee for a payment method: the configured flat
// amount plus the configured percentage of the gross amount.
func (s *CurrencyService) Fee(method string, amount decimal.Decimal) decimal.Decimal {
	rule, ok := s.cfg.Fees[method]
	if !ok {
		return decimal.Zero
	}
	pctFee := amount.Mul(rule.Percent).Div(decimal.NewFromInt(100))
	return rule.Flat.Add(pctFee)
}

// NetAmount is the amount the teacher receives after the fee.
func (s *CurrencyService) NetAmount(method string, amount decimal.Decimal) decimal.Decimal {
	return amount.Sub(s.Fee(method, amount))
}

// Convert converts an amount between currencies using Rate.
func (s *CurrencyService) Convert(amount decimal.Decimal, from, to string) decimal.Decimal {
	return amount.Mul(s.Rate(from, to))
}

// Rate returns the exchange rate from one currency to another. It is total:
// when every source fails it falls back to the configured default table.
func (s *CurrencyService) Rate(from, to string) decimal.Decimal {
	if from == to {
		return decimal.NewFromInt(1)
	}

	cacheKey := fmt.Sprintf("fx:%s:%s", from, to)
	if cached, ok := s.cache.Get(cacheKey); ok {
		if rate, err := decimal.NewFromString(cached); err == nil && rate.IsPositive() {
			return rate
		}
	}

	if rate, err := s.fetchPrimary(from, to); err == nil && rate.IsPositive() {
		s.storeRate(cacheKey, from, to, rate)
		return rate
	} else if err != nil {
		s.log.Warn().Err(err).Str("pair", from+":"+to).Msg("primary rate API failed")
	}

	if rate, err := s.fetchSecondary(from, to); err == nil && rate.IsPositive() {
		s.storeRate(cacheKey, from, to, rate)
		return rate
	} else if err != nil {
		s.log.Warn().Err(err).Str("pair", from+":"+to).Msg("secondary rate API failed")
	}

	var stored models.ExchangeRate
	if err := s.db.Where("base = ? AND quote = ?", from, to).First(&stored).Error; err == nil && stored.Rate.IsPositive() {
		return stored.Rate
	}

	return s.fallbackRate(from, to)
}

type primaryRateResponse struct {
	Result          string             `json:"result"`
	ConversionRates map[string]float64 `json:"conversion_rates"`
}

func (s *CurrencyService) fetchPrimary(from, to string) (decimal.Decimal, error) {
	if s.cfg.ExchangeRateAPIKey == "" {
		return decimal.Zero, fmt.Errorf("exchange rate API key not configured")
	}

	url := fmt.Sprintf("%s/%s/latest/%s", s.primaryURL, s.cfg.ExchangeRateAPIKey, from)
	resp, err := s.client.Get(url)
	if err != nil {
		return decimal.Zero, err
	}
	defer resp.Body.Close()

	var data primaryRateResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return decimal.Zero, err
	}
	if data.Result != "success" {
		return decimal.Zero, fmt.Errorf("rate API returned an error")
	}

	rate, ok := data.ConversionRates[to]
	if !ok {
		return decimal.Zero, fmt.Errorf("%s rate not found in API response", to)
	}
	return decimal.NewFromFloat(rate), nil
}

type secondaryRateResponse struct {
	Result string             `json:"result"`
	Rates  map[string]float64 `json:"rates"`
}

func (s *CurrencyService) fetchSecondary(from, to string) (decimal.Decimal, error) {
	url := fmt.Sprintf("%s/latest/%s", s.secondaryURL, from)
	resp, err := s.client.Get(url)
	if err != nil {
		return decimal.Zero, err
	}
	defer resp.Body.Close()

	var data secondaryRateResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return decimal.Zero, err
	}
	if data.Result != "success" {
		return decimal.Zero, fmt.Errorf("rate API returned an error")
	}

	rate, ok := data.Rates[to]
	if !ok {
		return decimal.Zero, fmt.Errorf("%s rate not found in API response", to)
	}
	return decimal.NewFromFloat(rate), nil
}

func (s *CurrencyService) storeRate(cacheKey, from, to string, rate decimal.Decimal) {
	s.cache.Set(cacheKey, rate.String(), rateCacheTTL)

	stored := models.ExchangeRate{Base: from, Quote: to, Rate: rate, FetchedAt: time.Now()}
	err := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "base"}, {Name: "quote"}},
		DoUpdates: clause.AssignmentColumns([]string{"rate", "fetched_at"}),
	}).Create(&stored).Error
	if err != nil {
		s.log.Warn().Err(err).Str("pair", from+":"+to).Msg("could not persist exchange rate")
	}
}

func (s *CurrencyService) fallbackRate(from, to string) decimal.Decimal {
	if rate, ok := s.cfg.FallbackRates[from+":"+to]; ok && rate.IsPositive() {
		return rate
	}
	if inverse, ok := s.cfg.FallbackRates[to+":"+from]; ok && inverse.IsPositive() {
		return decimal.NewFromInt(1).Div(inverse)
	}
	s.log.Error().Str("pair", from+":"+to).Msg("no rate source available, using identity rate")
	return decimal.NewFromInt(1)
}
