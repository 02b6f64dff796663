package core

// Operation identifies one of the market-data retrieval calls.
type Operation int

const (
	// OpGetKlines retrieves candlestick history.
	OpGetKlines Operation = iota
	// OpGetTicker retrieves 24h rolling statistics for a symbol.
	OpGetTicker
	// OpGetDepth retrieves an order-book depth snapshot.
	OpGetDepth
	// OpGetTrades retrieves the most recent public trades.
	OpGetTrades
)

// Endpoint paths relative to the API base URL.
const (
	PathKlines = "/api/v1/market/kline"
	PathTicker = "/api/v1/market/ticker"
	PathDepth  = "/api/v1/market/depth"
	PathTrades = "/api/v1/market/trades"
)

// String returns the string representation of the operation.
func (o Operation) String() string {
	switch o {
	case OpGetKlines:
		return "GET_KLINES"
	case OpGetTicker:
		return "GET_TICKER"
	case OpGetDepth:
		return "GET_DEPTH"
	case OpGetTrades:
		return "GET_TRADES"
	default:
		return "UNKNOWN"
	}
}

// Path returns the fixed endpoint path of the operation.
func (o Operation) Path() string {
	switch o {
	case OpGetKlines:
		return PathKlines
	case OpGetTicker:
		return PathTicker
	case OpGetDepth:
		return PathDepth
	case OpGetTrades:
		return PathTrades
	default:
		return ""
	}
}

// ReturnsList reports whether the operation's payload is a JSON array.
func (o Operation) ReturnsList() bool {
	return o == OpGetKlines || o == OpGetTrades
}
