package enum

type OrderType uint8

const (
	_order_type_beg OrderType = iota
	OrderTypeLimit
	OrderTypeMarket
	_order_type_end
)

func (t OrderType) IsAvailable() bool {
	return t > _order_type_beg && t < _order_type_end
}

func (t OrderType) String() string {
	switch t {
	case OrderTypeLimit:
		return "LIMIT"
	case OrderTypeMarket:
		return "MARKET"
	default:
		return "UNKNOWN"
	}
}

func ParseOrderType(s string) (OrderType, bool) {
	switch s {
	case "LIMIT", "limit":
		return OrderTypeLimit, true
	case "MARKET", "market":
		return OrderTypeMarket, true
	default:
		return 0, false
	}
}
