package payments

import "github.com/shopspring/decimal"

// Currencies whose smallest unit is the whole unit. Providers expect these
// unscaled.
var zeroDecimalCurrencies = map[string]bool{
	"BIF": true, "CLP": true, "DJF": true, "GNF": true, "JPY": true,
	"KMF": true, "KRW": true, "MGA": true, "PYG": true, "RWF": true,
	"UGX": true, "VND": true, "VUV": true, "XAF": true, "XOF": true,
	"XPF": true,
}

var hundred = decimal.NewFromInt(100)

// ToSubunits converts an amount to the provider's smallest currency unit
// (kobo, cents), passing zero-decimal currencies through as whole units.
func ToSubunits(amount decimal.Decimal, currency string) int64 {
	if zeroDecimalCurrencies[currency] {
		return amount.Round(0).IntPart()
	}
	return amount.Mul(hundred).Round(0).IntPart()
}

// FromSubunits is the inverse of ToSubunits.
func FromSubunits(subunits int64, currency string) decimal.Decimal {
	amount := decimal.NewFromInt(subunits)
	if zeroDecimalCurrencies[currency] {
		return amount
	}
	return amount.Div(hundred)
}
