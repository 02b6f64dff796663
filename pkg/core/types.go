package core

import (
	"time"

	"github.com/cockroachdb/apd/v3"
)

// Side represents the aggressor side of a trade.
type Side int

// Side constants define the direction of a trade.
const (
	// SideBuy indicates the taker bought.
	SideBuy Side = iota
	// SideSell indicates the taker sold.
	SideSell
)

// String returns the string representation of the side ("BUY" or "SELL").
func (s Side) String() string {
	return [...]string{"BUY", "SELL"}[s]
}

// MarshalJSON implements json.Marshaler for Side.
func (s Side) MarshalJSON() ([]byte, error) {
	return []byte(`"` + s.String() + `"`), nil
}

// UnmarshalJSON implements json.Unmarshaler for Side.
// It accepts both uppercase and lowercase formats.
func (s *Side) UnmarshalJSON(data []byte) error {
	switch string(data) {
	case `"BUY"`, `"buy"`:
		*s = SideBuy
	case `"SELL"`, `"sell"`:
		*s = SideSell
	}
	return nil
}

// Kline represents a candlestick/OHLCV data point for a time period.
type Kline struct {
	// Symbol is the trading pair for this kline.
	Symbol string `json:"symbol"`
	// OpenTime is the start of the candlestick period.
	OpenTime time.Time `json:"open_time"`
	// Open is the price at the start of the period.
	Open apd.Decimal `json:"open"`
	// High is the highest price during the period.
	High apd.Decimal `json:"high"`
	// Low is the lowest price during the period.
	Low apd.Decimal `json:"low"`
	// Close is the price at the end of the period.
	Close apd.Decimal `json:"close"`
	// Volume is the total base volume during the period.
	Volume apd.Decimal `json:"volume"`
	// CloseTime is the end of the candlestick period.
	CloseTime time.Time `json:"close_time"`
	// QuoteVolume is the total value traded in quote currency.
	QuoteVolume apd.Decimal `json:"quote_volume"`
	// NumTrades is the number of trades executed during the period.
	NumTrades int64 `json:"num_trades"`
}

// Ticker holds 24-hour rolling statistics for a trading pair.
type Ticker struct {
	Symbol        string      `json:"symbol"`
	Last          apd.Decimal `json:"last"`
	Open          apd.Decimal `json:"open"`
	High          apd.Decimal `json:"high"`
	Low           apd.Decimal `json:"low"`
	Volume        apd.Decimal `json:"volume"`
	QuoteVolume   apd.Decimal `json:"quote_volume"`
	Change        apd.Decimal `json:"change"`
	ChangePercent apd.Decimal `json:"change_percent"`
	Bid           apd.Decimal `json:"bid"`
	Ask           apd.Decimal `json:"ask"`
	// Timestamp is the server time of the snapshot, zero when the server
	// omits it.
	Timestamp time.Time `json:"timestamp"`
}

// DepthLevel represents a single price level in the order book.
type DepthLevel struct {
	Price    apd.Decimal `json:"price"`
	Quantity apd.Decimal `json:"quantity"`
}

// Depth is an order-book snapshot. Asks and Bids are never nil, so an empty
// book serializes as {"asks":[],"bids":[]}.
type Depth struct {
	// Asks are sell levels as returned by the server, best first.
	Asks []DepthLevel `json:"asks"`
	// Bids are buy levels as returned by the server, best first.
	Bids []DepthLevel `json:"bids"`
	// LastUpdateID is the server's book sequence number, when provided.
	LastUpdateID int64 `json:"last_update_id,omitempty"`
}

// EmptyDepth returns the depth fallback with non-nil empty sides.
func EmptyDepth() Depth {
	return Depth{Asks: []DepthLevel{}, Bids: []DepthLevel{}}
}

// Trade represents a single public trade.
type Trade struct {
	ID            string      `json:"id"`
	Symbol        string      `json:"symbol"`
	Side          Side        `json:"side"`
	Price         apd.Decimal `json:"price"`
	Quantity      apd.Decimal `json:"quantity"`
	QuoteQuantity apd.Decimal `json:"quote_quantity"`
	Timestamp     time.Time   `json:"timestamp"`
}
