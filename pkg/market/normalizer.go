package market

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/cockroachdb/apd/v3"

	"signet/pkg/core"
)

// flexDecimal decodes a price or quantity sent either as a JSON string or a
// JSON number. Valid is false when the field was absent, null or "".
type flexDecimal struct {
	apd.Decimal
	Valid bool
}

func (d *flexDecimal) UnmarshalJSON(data []byte) error {
	s, err := scalarText(data)
	if err != nil {
		return err
	}
	if err := parseDecimal(&d.Decimal, s); err != nil {
		return err
	}
	d.Valid = s != ""
	return nil
}

// flexInt decodes an integer sent as a JSON number or a numeric string.
type flexInt struct {
	Value int64
	Valid bool
}

func (n *flexInt) UnmarshalJSON(data []byte) error {
	s, err := scalarText(data)
	if err != nil || s == "" {
		*n = flexInt{}
		return err
	}
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		*n = flexInt{Value: v, Valid: true}
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("parse integer %q: %w", s, err)
	}
	*n = flexInt{Value: int64(f), Valid: true}
	return nil
}

// flexString accepts a JSON string or number and keeps its text.
type flexString string

func (s *flexString) UnmarshalJSON(data []byte) error {
	text, err := scalarText(data)
	if err != nil {
		return err
	}
	*s = flexString(text)
	return nil
}

func scalarText(data []byte) (string, error) {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0, string(data) == "null":
		return "", nil
	case data[0] == '"':
		var s string
		if err := sonic.Unmarshal(data, &s); err != nil {
			return "", err
		}
		return strings.TrimSpace(s), nil
	case data[0] == '{', data[0] == '[':
		return "", fmt.Errorf("expected scalar, got %s", data[:1])
	default:
		return string(data), nil
	}
}

func parseDecimal(dest *apd.Decimal, s string) error {
	if s == "" {
		*dest = apd.Decimal{}
		return nil
	}

	_, _, err := apd.BaseContext.SetString(dest, s)
	if err != nil {
		return fmt.Errorf("set decimal from string: %w", err)
	}

	return nil
}

func millis(ms flexInt) time.Time {
	if !ms.Valid || ms.Value <= 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms.Value)
}

type wireKline struct {
	OpenTime    flexInt     `json:"openTime"`
	Open        flexDecimal `json:"open"`
	High        flexDecimal `json:"high"`
	Low         flexDecimal `json:"low"`
	Close       flexDecimal `json:"close"`
	Volume      flexDecimal `json:"volume"`
	CloseTime   flexInt     `json:"closeTime"`
	QuoteVolume flexDecimal `json:"quoteVolume"`
	Trades      flexInt     `json:"trades"`
}

// missing names the required fields the row did not carry.
func (w *wireKline) missing() []string {
	var names []string
	for _, f := range []struct {
		name  string
		valid bool
	}{
		{"openTime", w.OpenTime.Valid},
		{"open", w.Open.Valid},
		{"high", w.High.Valid},
		{"low", w.Low.Valid},
		{"close", w.Close.Valid},
		{"volume", w.Volume.Valid},
	} {
		if !f.valid {
			names = append(names, f.name)
		}
	}
	return names
}

type wireTicker struct {
	Symbol             string      `json:"symbol"`
	LastPrice          flexDecimal `json:"lastPrice"`
	OpenPrice          flexDecimal `json:"openPrice"`
	HighPrice          flexDecimal `json:"highPrice"`
	LowPrice           flexDecimal `json:"lowPrice"`
	Volume             flexDecimal `json:"volume"`
	QuoteVolume        flexDecimal `json:"quoteVolume"`
	PriceChange        flexDecimal `json:"priceChange"`
	PriceChangePercent flexDecimal `json:"priceChangePercent"`
	BidPrice           flexDecimal `json:"bidPrice"`
	AskPrice           flexDecimal `json:"askPrice"`
	Time               flexInt     `json:"time"`
}

// wireLevel decodes a depth level from [price, quantity] or
// {"price": ..., "quantity": ...}.
type wireLevel core.DepthLevel

func (l *wireLevel) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '{' {
		var obj struct {
			Price    flexDecimal `json:"price"`
			Quantity flexDecimal `json:"quantity"`
		}
		if err := sonic.Unmarshal(data, &obj); err != nil {
			return err
		}
		l.Price, l.Quantity = obj.Price.Decimal, obj.Quantity.Decimal
		return nil
	}

	var pair []flexDecimal
	if err := sonic.Unmarshal(data, &pair); err != nil {
		return err
	}
	if len(pair) < 2 {
		return fmt.Errorf("insufficient depth level elements: %d", len(pair))
	}
	l.Price, l.Quantity = pair[0].Decimal, pair[1].Decimal
	return nil
}

type wireDepth struct {
	LastUpdateID flexInt     `json:"lastUpdateId"`
	Asks         []wireLevel `json:"asks"`
	Bids         []wireLevel `json:"bids"`
}

type wireTrade struct {
	ID           flexString  `json:"id"`
	Price        flexDecimal `json:"price"`
	Qty          flexDecimal `json:"qty"`
	Quantity     flexDecimal `json:"quantity"`
	QuoteQty     flexDecimal `json:"quoteQty"`
	Time         flexInt     `json:"time"`
	Side         string      `json:"side"`
	IsBuyerMaker bool        `json:"isBuyerMaker"`
}

// Normalizer converts API payloads to canonical core types.
type Normalizer struct{}

// NewNormalizer creates a new Normalizer instance.
func NewNormalizer() *Normalizer {
	return &Normalizer{}
}

// NormalizeKlines decodes a K-line array whose rows are either positional
// arrays [openTime, open, high, low, close, volume, closeTime?, quoteVolume?,
// trades?] or objects.
func (n *Normalizer) NormalizeKlines(data []byte, symbol string) ([]core.Kline, error) {
	var rows []json.RawMessage
	if err := sonic.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("unmarshal klines: %w", err)
	}

	klines := make([]core.Kline, 0, len(rows))
	for i, row := range rows {
		kline, err := n.normalizeKline(row, symbol)
		if err != nil {
			return nil, fmt.Errorf("normalize kline %d: %w", i, err)
		}
		klines = append(klines, kline)
	}
	return klines, nil
}

func (n *Normalizer) normalizeKline(row json.RawMessage, symbol string) (core.Kline, error) {
	var w wireKline

	switch core.LeadingByte(row) {
	case '{':
		if err := sonic.Unmarshal(row, &w); err != nil {
			return core.Kline{}, err
		}
	case '[':
		var fields []json.RawMessage
		if err := sonic.Unmarshal(row, &fields); err != nil {
			return core.Kline{}, err
		}
		if len(fields) < 6 {
			return core.Kline{}, fmt.Errorf("insufficient kline data elements: %d", len(fields))
		}
		targets := []json.Unmarshaler{
			&w.OpenTime, &w.Open, &w.High, &w.Low, &w.Close, &w.Volume,
			&w.CloseTime, &w.QuoteVolume, &w.Trades,
		}
		for i, field := range fields {
			if i >= len(targets) {
				break
			}
			if err := targets[i].UnmarshalJSON(field); err != nil {
				return core.Kline{}, fmt.Errorf("element %d: %w", i, err)
			}
		}
	default:
		return core.Kline{}, fmt.Errorf("unexpected kline row: %.20s", row)
	}
	if missing := w.missing(); len(missing) > 0 {
		return core.Kline{}, fmt.Errorf("missing kline fields: %s", strings.Join(missing, ", "))
	}

	return core.Kline{
		Symbol:      symbol,
		OpenTime:    millis(w.OpenTime),
		Open:        w.Open.Decimal,
		High:        w.High.Decimal,
		Low:         w.Low.Decimal,
		Close:       w.Close.Decimal,
		Volume:      w.Volume.Decimal,
		CloseTime:   millis(w.CloseTime),
		QuoteVolume: w.QuoteVolume.Decimal,
		NumTrades:   w.Trades.Value,
	}, nil
}

// NormalizeTicker decodes a 24h ticker object. lastPrice is required. The
// requested symbol fills in when the payload omits it; a missing timestamp
// stays zero.
func (n *Normalizer) NormalizeTicker(data []byte, symbol string) (*core.Ticker, error) {
	var w wireTicker
	if err := sonic.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("unmarshal ticker: %w", err)
	}
	if !w.LastPrice.Valid {
		return nil, fmt.Errorf("missing ticker field: lastPrice")
	}

	ticker := &core.Ticker{
		Symbol:        w.Symbol,
		Last:          w.LastPrice.Decimal,
		Open:          w.OpenPrice.Decimal,
		High:          w.HighPrice.Decimal,
		Low:           w.LowPrice.Decimal,
		Volume:        w.Volume.Decimal,
		QuoteVolume:   w.QuoteVolume.Decimal,
		Change:        w.PriceChange.Decimal,
		ChangePercent: w.PriceChangePercent.Decimal,
		Bid:           w.BidPrice.Decimal,
		Ask:           w.AskPrice.Decimal,
		Timestamp:     millis(w.Time),
	}
	if ticker.Symbol == "" {
		ticker.Symbol = symbol
	}
	return ticker, nil
}

// NormalizeDepth decodes an order-book object. Missing sides become empty
// slices, never nil.
func (n *Normalizer) NormalizeDepth(data []byte) (core.Depth, error) {
	var w wireDepth
	if err := sonic.Unmarshal(data, &w); err != nil {
		return core.Depth{}, fmt.Errorf("unmarshal depth: %w", err)
	}

	depth := core.EmptyDepth()
	depth.LastUpdateID = w.LastUpdateID.Value
	for _, l := range w.Asks {
		depth.Asks = append(depth.Asks, core.DepthLevel(l))
	}
	for _, l := range w.Bids {
		depth.Bids = append(depth.Bids, core.DepthLevel(l))
	}
	return depth, nil
}

// NormalizeTrades decodes a trade array. An explicit side wins over
// isBuyerMaker; a buyer-maker trade was sold into.
func (n *Normalizer) NormalizeTrades(data []byte, symbol string) ([]core.Trade, error) {
	var rows []wireTrade
	if err := sonic.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("unmarshal trades: %w", err)
	}

	trades := make([]core.Trade, 0, len(rows))
	for _, w := range rows {
		qty := w.Qty.Decimal
		if !w.Qty.Valid {
			qty = w.Quantity.Decimal
		}
		trades = append(trades, core.Trade{
			ID:            string(w.ID),
			Symbol:        symbol,
			Side:          parseSide(w.Side, w.IsBuyerMaker),
			Price:         w.Price.Decimal,
			Quantity:      qty,
			QuoteQuantity: w.QuoteQty.Decimal,
			Timestamp:     millis(w.Time),
		})
	}
	return trades, nil
}

func parseSide(side string, isBuyerMaker bool) core.Side {
	switch strings.ToUpper(side) {
	case "BUY":
		return core.SideBuy
	case "SELL":
		return core.SideSell
	}
	if isBuyerMaker {
		return core.SideSell
	}
	return core.SideBuy
}
