package model

import (
	"time"

	"github.com/shopspring/decimal"

	"main/internal/model/enum"
)

// Order is an immutable snapshot of one order in the ledger.
type Order struct {
	ID        int64
	Symbol    Symbol
	Price     decimal.Decimal
	Qty       decimal.Decimal
	Side      enum.Side
	Type      enum.OrderType
	Status    enum.OrderStatus
	CreatedAt time.Time
}
