package enum

// ConnState tracks the lifecycle of a stream connection.
type ConnState uint8

const (
	ConnDisconnected ConnState = iota
	ConnConnecting
	ConnSubscribed
	ConnStreaming
	ConnClosing
	ConnFailed
)

func (s ConnState) String() string {
	switch s {
	case ConnDisconnected:
		return "DISCONNECTED"
	case ConnConnecting:
		return "CONNECTING"
	case ConnSubscribed:
		return "SUBSCRIBED"
	case ConnStreaming:
		return "STREAMING"
	case ConnClosing:
		return "CLOSING"
	case ConnFailed:
		return "FAILED"
	default:
		return "UNKNOWN"
	}
}
