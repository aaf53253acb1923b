package enums

import "strings"

// Currency is an ISO 4217 code snapshotted onto wishlist items. Item snapshots
// store whatever the caller sent, so unknown codes are normalized rather than
// rejected.
type Currency string

const (
	CurrencyHKD Currency = "HKD"
	CurrencyUSD Currency = "USD"
	CurrencyCNY Currency = "CNY"
)

// String implements fmt.Stringer.
func (c Currency) String() string {
	return string(c)
}

// NormalizeCurrency upper-cases the raw code and falls back to def when blank.
func NormalizeCurrency(value string, def Currency) Currency {
	trimmed := strings.ToUpper(strings.TrimSpace(value))
	if trimmed == "" {
		return def
	}
	return Currency(trimmed)
}
