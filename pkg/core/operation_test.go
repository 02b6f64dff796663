package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOperation_String(t *testing.T) {
	tests := []struct {
		name string
		op   Operation
		want string
	}{
		{"get_klines", OpGetKlines, "GET_KLINES"},
		{"get_ticker", OpGetTicker, "GET_TICKER"},
		{"get_depth", OpGetDepth, "GET_DEPTH"},
		{"get_trades", OpGetTrades, "GET_TRADES"},
		{"unknown", Operation(42), "UNKNOWN"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.op.String())
		})
	}
}

func TestOperation_Path(t *testing.T) {
	tests := []struct {
		op       Operation
		path     string
		listKind bool
	}{
		{OpGetKlines, "/api/v1/market/kline", true},
		{OpGetTicker, "/api/v1/market/ticker", false},
		{OpGetDepth, "/api/v1/market/depth", false},
		{OpGetTrades, "/api/v1/market/trades", true},
	}

	for _, tt := range tests {
		t.Run(tt.op.String(), func(t *testing.T) {
			assert.Equal(t, tt.path, tt.op.Path())
			assert.Equal(t, tt.listKind, tt.op.ReturnsList())
		})
	}

	assert.Empty(t, Operation(42).Path())
}
