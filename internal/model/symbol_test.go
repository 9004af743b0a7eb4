package model

import (
	"testing"

	"main/internal/model/enum"
)

func TestSymbolDisplayRoundTrip(t *testing.T) {
	cases := []struct {
		canonical string
		display   string
	}{
		{"BTCUSDT", "BTC/USDT"},
		{"ETHBUSD", "ETH/BUSD"},
		{"SOLFDUSD", "SOL/FDUSD"},
		{"ARBUSDC", "ARB/USDC"},
	}
	for _, c := range cases {
		symbol := Symbol(c.canonical)
		if got := symbol.Display(); got != c.display {
			t.Fatalf("display mismatch for %s: got %s want %s", c.canonical, got, c.display)
		}
		if back := ParseSymbol(symbol.Display()); back != symbol {
			t.Fatalf("round trip mismatch: %s -> %s -> %s", c.canonical, symbol.Display(), back)
		}
	}
}

func TestSymbolDisplayUnknownQuote(t *testing.T) {
	if got := Symbol("BTCEUR").Display(); got != "BTCEUR" {
		t.Fatalf("unknown quote should stay unchanged, got %s", got)
	}
}

func TestParseSymbolNormalizes(t *testing.T) {
	cases := map[string]Symbol{
		"btcusdt":   "BTCUSDT",
		"BTC/USDT":  "BTCUSDT",
		" ethusdt ": "ETHUSDT",
		"sol/usdt":  "SOLUSDT",
	}
	for in, want := range cases {
		if got := ParseSymbol(in); got != want {
			t.Fatalf("parse %q: got %s want %s", in, got, want)
		}
	}
}

func TestStreamName(t *testing.T) {
	if got := Symbol("BTCUSDT").StreamName(enum.StreamTrade); got != "btcusdt@trade" {
		t.Fatalf("trade stream name mismatch: %s", got)
	}
	if got := Symbol("ETHUSDT").StreamName(enum.StreamTicker); got != "ethusdt@ticker" {
		t.Fatalf("ticker stream name mismatch: %s", got)
	}
}
