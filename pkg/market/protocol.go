package market

import (
	"fmt"

	"github.com/go-playground/validator/v10"

	"signet/pkg/core"
)

// Limit bounds per endpoint. A limit of zero or less selects the default; a
// limit above the maximum is clamped.
const (
	DefaultKlineLimit = 500
	MaxKlineLimit     = 1000
	DefaultDepthLimit = 100
	MaxDepthLimit     = 1000
	DefaultTradeLimit = 20
	MaxTradeLimit     = 100
)

// Intervals lists the accepted K-line periods.
var Intervals = []string{"1m", "5m", "15m", "30m", "1h", "4h", "1d", "1w", "1M"}

// KlineQuery selects a K-line history window. From and To are milliseconds
// since epoch; zero leaves the bound to the server.
type KlineQuery struct {
	Symbol   string `validate:"required"`
	Interval string `validate:"required,oneof=1m 5m 15m 30m 1h 4h 1d 1w 1M"`
	From     int64  `validate:"min=0"`
	To       int64  `validate:"omitempty,min=0,gtefield=From"`
	Limit    int
}

// DepthQuery selects an order-book snapshot.
type DepthQuery struct {
	Symbol string `validate:"required"`
	Limit  int
}

// TradesQuery selects the most recent public trades.
type TradesQuery struct {
	Symbol string `validate:"required"`
	Limit  int
}

type tickerQuery struct {
	Symbol string `validate:"required"`
}

var validate = validator.New()

func clampLimit(limit, def, maxLimit int) int {
	switch {
	case limit <= 0:
		return def
	case limit > maxLimit:
		return maxLimit
	default:
		return limit
	}
}

func validateQuery(q any) error {
	if err := validate.Struct(q); err != nil {
		return fmt.Errorf("invalid query: %w", err)
	}
	return nil
}

func buildKlineParams(q KlineQuery) (core.Params, error) {
	if err := validateQuery(q); err != nil {
		return nil, err
	}
	params := core.Params{
		"symbol":   q.Symbol,
		"interval": q.Interval,
		"limit":    clampLimit(q.Limit, DefaultKlineLimit, MaxKlineLimit),
	}
	if q.From > 0 {
		params["from"] = q.From
	}
	if q.To > 0 {
		params["to"] = q.To
	}
	return params, nil
}

func buildTickerParams(symbol string) (core.Params, error) {
	if err := validateQuery(tickerQuery{Symbol: symbol}); err != nil {
		return nil, err
	}
	return core.Params{"symbol": symbol}, nil
}

func buildDepthParams(q DepthQuery) (core.Params, error) {
	if err := validateQuery(q); err != nil {
		return nil, err
	}
	return core.Params{
		"symbol": q.Symbol,
		"limit":  clampLimit(q.Limit, DefaultDepthLimit, MaxDepthLimit),
	}, nil
}

func buildTradesParams(q TradesQuery) (core.Params, error) {
	if err := validateQuery(q); err != nil {
		return nil, err
	}
	return core.Params{
		"symbol": q.Symbol,
		"limit":  clampLimit(q.Limit, DefaultTradeLimit, MaxTradeLimit),
	}, nil
}
