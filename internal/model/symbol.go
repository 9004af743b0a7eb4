package model

import (
	"strings"

	"main/internal/model/enum"
)

// Symbol is a canonical pair identifier: uppercase, no separator (BTCUSDT).
type Symbol string

// Known quote assets for display-form mapping. The mapping between canonical
// and display forms is total and reversible for these quotes only.
var quoteAssets = [...]string{"USDT", "BUSD", "FDUSD", "USDC"}

// ParseSymbol normalizes either form (BTCUSDT or btc/usdt) to canonical.
func ParseSymbol(s string) Symbol {
	return Symbol(strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(s), "/", "")))
}

func (s Symbol) Canonical() string {
	return string(s)
}

// Display inserts "/" before a known quote asset: BTCUSDT -> BTC/USDT.
// Symbols with an unrecognized quote are returned unchanged.
func (s Symbol) Display() string {
	up := string(s)
	for _, quote := range quoteAssets {
		if len(up) > len(quote) && strings.HasSuffix(up, quote) {
			return up[:len(up)-len(quote)] + "/" + quote
		}
	}
	return up
}

// StreamName builds the lowercase subscribe-frame stream name, e.g. btcusdt@trade.
func (s Symbol) StreamName(kind enum.StreamKind) string {
	return strings.ToLower(string(s)) + kind.Suffix()
}
