package stream

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"main/internal/model"
)

// SubscribeRequest is the control message sent after the transport opens.
type SubscribeRequest struct {
	Method string   `json:"method"`
	Params []string `json:"params"`
	ID     int64    `json:"id"`
}

// frameClass tells the read loop what to do with a parsed frame.
type frameClass uint8

const (
	frameTick frameClass = iota
	frameAck
	frameDropped
)

// envelope covers both flat frames and the combined-stream wrapper.
// Result/Code stay raw so a literal null still counts as present.
type envelope struct {
	Stream string          `json:"stream"`
	Data   json.RawMessage `json:"data"`
	Result json.RawMessage `json:"result"`
	Code   json.RawMessage `json:"code"`
}

// tickPayload is the subset of trade/ticker stream fields the core consumes.
type tickPayload struct {
	Symbol        string `json:"s"`
	TradePrice    string `json:"p"`
	LastPrice     string `json:"c"`
	ChangePercent string `json:"P"`
	QuoteVolume   string `json:"q"`
	EventTime     int64  `json:"E"`
}

// parseFrame turns a raw payload into a tick event.
// Acknowledgment and error frames (result/code fields) are discarded without
// emitting a tick; anything else missing a symbol or price is dropped.
func parseFrame(raw []byte, recv time.Time) (model.TickEvent, frameClass) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return model.TickEvent{}, frameDropped
	}
	if env.Result != nil || env.Code != nil {
		return model.TickEvent{}, frameAck
	}

	payload := raw
	if len(env.Data) > 0 {
		payload = env.Data
	}

	var tick tickPayload
	if err := json.Unmarshal(payload, &tick); err != nil {
		return model.TickEvent{}, frameDropped
	}
	if tick.Symbol == "" {
		return model.TickEvent{}, frameDropped
	}

	priceStr := tick.TradePrice
	if priceStr == "" {
		priceStr = tick.LastPrice
	}
	if priceStr == "" {
		return model.TickEvent{}, frameDropped
	}
	price, err := decimal.NewFromString(priceStr)
	if err != nil {
		return model.TickEvent{}, frameDropped
	}

	event := model.TickEvent{
		Symbol:    model.ParseSymbol(tick.Symbol),
		Price:     price,
		EventTime: recv,
	}
	if tick.EventTime > 0 {
		event.EventTime = time.UnixMilli(tick.EventTime)
	}
	if tick.ChangePercent != "" {
		if pct, err := decimal.NewFromString(tick.ChangePercent); err == nil {
			event.HasStats = true
			event.ChangePercent = pct
		}
	}
	if tick.QuoteVolume != "" {
		if vol, err := decimal.NewFromString(tick.QuoteVolume); err == nil {
			event.QuoteVolume = vol
		}
	}
	return event, frameTick
}
