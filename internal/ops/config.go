package ops

import (
	"encoding/json"
	"os"
	"time"

	"github.com/shopspring/decimal"
	"github.com/yanun0323/errors"

	"main/internal/book"
	"main/internal/model"
	"main/internal/model/enum"
	"main/internal/stream"
)

var (
	ErrNoSymbols     = errors.New("ops: config has no symbols")
	ErrUnknownStream = errors.New("ops: unknown stream kind")
	ErrBadOrder      = errors.New("ops: invalid seed order")
)

// defaultSymbols matches the pairs the application subscribes to out of the box.
var defaultSymbols = []string{"BTCUSDT", "ETHUSDT", "BNBUSDT", "SOLUSDT", "SUIUSDT", "ARBUSDT"}

// FileConfig mirrors the JSON config layout.
type FileConfig struct {
	Endpoint  string          `json:"endpoint"`
	Symbols   []string        `json:"symbols"`
	Stream    string          `json:"stream"`
	Reconnect ReconnectConfig `json:"reconnect"`
	Book      BookConfig      `json:"book"`
	Hub       HubConfig       `json:"hub"`
	Archive   ArchiveConfig   `json:"archive"`
	Pyroscope PyroscopeConfig `json:"pyroscope"`
	Orders    []OrderConfig   `json:"orders"`
}

// OrderConfig describes an order placed at startup, mostly for paper runs.
type OrderConfig struct {
	Symbol string `json:"symbol"`
	Side   string `json:"side"`
	Type   string `json:"type"`
	Price  string `json:"price"`
	Qty    string `json:"qty"`
}

// ReconnectConfig tunes the backoff policy.
type ReconnectConfig struct {
	BaseMs int64   `json:"baseMs"`
	MaxMs  int64   `json:"maxMs"`
	Factor float64 `json:"factor"`
}

// BookConfig tunes the synthetic ladder.
type BookConfig struct {
	Levels   int   `json:"levels"`
	JitterMs int64 `json:"jitterMs"`
}

// HubConfig tunes subscriber buffers.
type HubConfig struct {
	BufferSize int `json:"bufferSize"`
}

// ArchiveConfig enables the optional order-history sink when DSN is set.
type ArchiveConfig struct {
	DSN string `json:"dsn"`
}

// PyroscopeConfig enables profiling when the server address is set.
type PyroscopeConfig struct {
	ServerAddress string `json:"serverAddress"`
}

// Loaded is the resolved configuration ready for use.
type Loaded struct {
	Endpoint        string
	Symbols         []model.Symbol
	Kind            enum.StreamKind
	ReconnectBase   time.Duration
	ReconnectMax    time.Duration
	ReconnectFactor float64
	Levels          int
	JitterInterval  time.Duration
	BufferSize      int
	ArchiveDSN      string
	PyroscopeAddr   string
	Orders          []OrderSpec
}

// OrderSpec is a resolved seed order.
type OrderSpec struct {
	Symbol model.Symbol
	Side   enum.Side
	Type   enum.OrderType
	Price  decimal.Decimal
	Qty    decimal.Decimal
}

// Default returns the resolved configuration with no file applied.
func Default() Loaded {
	loaded, _ := resolve(FileConfig{})
	return loaded
}

// Load reads a JSON config file and resolves defaults. An empty path yields
// the defaults.
func Load(path string) (Loaded, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Loaded{}, errors.Wrap(err, "read config")
	}
	var cfg FileConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Loaded{}, errors.Wrap(err, "parse config")
	}
	return resolve(cfg)
}

func resolve(cfg FileConfig) (Loaded, error) {
	loaded := Loaded{
		Endpoint:        cfg.Endpoint,
		Kind:            enum.StreamTrade,
		ReconnectBase:   time.Duration(cfg.Reconnect.BaseMs) * time.Millisecond,
		ReconnectMax:    time.Duration(cfg.Reconnect.MaxMs) * time.Millisecond,
		ReconnectFactor: cfg.Reconnect.Factor,
		Levels:          cfg.Book.Levels,
		JitterInterval:  time.Duration(cfg.Book.JitterMs) * time.Millisecond,
		BufferSize:      cfg.Hub.BufferSize,
		ArchiveDSN:      cfg.Archive.DSN,
		PyroscopeAddr:   cfg.Pyroscope.ServerAddress,
	}

	if loaded.Endpoint == "" {
		loaded.Endpoint = stream.DefaultEndpoint
	}
	if cfg.Stream != "" {
		kind, ok := enum.ParseStreamKind(cfg.Stream)
		if !ok {
			return Loaded{}, ErrUnknownStream
		}
		loaded.Kind = kind
	}

	symbols := cfg.Symbols
	if len(symbols) == 0 {
		symbols = defaultSymbols
	}
	for _, raw := range symbols {
		symbol := model.ParseSymbol(raw)
		if symbol == "" {
			continue
		}
		loaded.Symbols = append(loaded.Symbols, symbol)
	}
	if len(loaded.Symbols) == 0 {
		return Loaded{}, ErrNoSymbols
	}

	if loaded.ReconnectBase <= 0 {
		loaded.ReconnectBase = stream.DefaultReconnectBase
	}
	if loaded.ReconnectMax <= 0 {
		loaded.ReconnectMax = stream.DefaultReconnectMax
	}
	if loaded.ReconnectFactor < 1 {
		loaded.ReconnectFactor = stream.DefaultReconnectFactor
	}
	if loaded.Levels <= 0 {
		loaded.Levels = book.DefaultLevels
	}
	if loaded.JitterInterval <= 0 {
		loaded.JitterInterval = 500 * time.Millisecond
	}
	if loaded.BufferSize <= 0 {
		loaded.BufferSize = 64
	}

	for _, raw := range cfg.Orders {
		spec, err := resolveOrder(raw)
		if err != nil {
			return Loaded{}, err
		}
		loaded.Orders = append(loaded.Orders, spec)
	}
	return loaded, nil
}

func resolveOrder(cfg OrderConfig) (OrderSpec, error) {
	side, ok := enum.ParseSide(cfg.Side)
	if !ok {
		return OrderSpec{}, ErrBadOrder
	}
	typ, ok := enum.ParseOrderType(cfg.Type)
	if !ok {
		return OrderSpec{}, ErrBadOrder
	}
	price, err := decimal.NewFromString(cfg.Price)
	if err != nil {
		return OrderSpec{}, errors.Wrap(err, "parse order price")
	}
	qty, err := decimal.NewFromString(cfg.Qty)
	if err != nil {
		return OrderSpec{}, errors.Wrap(err, "parse order qty")
	}
	symbol := model.ParseSymbol(cfg.Symbol)
	if symbol == "" {
		return OrderSpec{}, ErrBadOrder
	}
	return OrderSpec{Symbol: symbol, Side: side, Type: typ, Price: price, Qty: qty}, nil
}
