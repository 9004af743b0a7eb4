package enum

// StreamKind selects the upstream stream variant per symbol.
type StreamKind uint8

const (
	_stream_kind_beg StreamKind = iota
	StreamTrade
	StreamTicker
	_stream_kind_end
)

func (k StreamKind) IsAvailable() bool {
	return k > _stream_kind_beg && k < _stream_kind_end
}

// Suffix returns the stream name suffix sent in subscribe frames.
func (k StreamKind) Suffix() string {
	switch k {
	case StreamTicker:
		return "@ticker"
	default:
		return "@trade"
	}
}

func ParseStreamKind(s string) (StreamKind, bool) {
	switch s {
	case "trade":
		return StreamTrade, true
	case "ticker":
		return StreamTicker, true
	default:
		return 0, false
	}
}
