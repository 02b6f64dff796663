package market

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"signet/pkg/core"
)

func TestClampLimit(t *testing.T) {
	tests := []struct {
		name  string
		limit int
		want  int
	}{
		{"zero uses default", 0, 500},
		{"negative uses default", -5, 500},
		{"within range", 42, 42},
		{"at max", 1000, 1000},
		{"above max clamped", 1001, 1000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, clampLimit(tt.limit, DefaultKlineLimit, MaxKlineLimit))
		})
	}
}

func TestBuildKlineParams(t *testing.T) {
	params, err := buildKlineParams(KlineQuery{Symbol: "BTCUSDT", Interval: "1M", From: 1, To: 2, Limit: 5000})

	require.NoError(t, err)
	assert.Equal(t, core.Params{
		"symbol":   "BTCUSDT",
		"interval": "1M",
		"from":     int64(1),
		"to":       int64(2),
		"limit":    MaxKlineLimit,
	}, params)
}

func TestBuildKlineParams_Invalid(t *testing.T) {
	tests := []struct {
		name string
		q    KlineQuery
	}{
		{"empty symbol", KlineQuery{Interval: "1h"}},
		{"empty interval", KlineQuery{Symbol: "BTCUSDT"}},
		{"lowercase month", KlineQuery{Symbol: "BTCUSDT", Interval: "1mo"}},
		{"negative from", KlineQuery{Symbol: "BTCUSDT", Interval: "1h", From: -1}},
		{"to before from", KlineQuery{Symbol: "BTCUSDT", Interval: "1h", From: 10, To: 5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params, err := buildKlineParams(tt.q)

			assert.Error(t, err)
			assert.Nil(t, params)
		})
	}
}

func TestBuildTickerParams(t *testing.T) {
	params, err := buildTickerParams("BTCUSDT")
	require.NoError(t, err)
	assert.Equal(t, core.Params{"symbol": "BTCUSDT"}, params)

	_, err = buildTickerParams("")
	assert.Error(t, err)
}

func TestBuildDepthParams(t *testing.T) {
	params, err := buildDepthParams(DepthQuery{Symbol: "BTCUSDT"})
	require.NoError(t, err)
	assert.Equal(t, DefaultDepthLimit, params["limit"])

	params, err = buildDepthParams(DepthQuery{Symbol: "BTCUSDT", Limit: 5000})
	require.NoError(t, err)
	assert.Equal(t, MaxDepthLimit, params["limit"])
}

func TestBuildTradesParams(t *testing.T) {
	params, err := buildTradesParams(TradesQuery{Symbol: "BTCUSDT"})
	require.NoError(t, err)
	assert.Equal(t, DefaultTradeLimit, params["limit"])

	params, err = buildTradesParams(TradesQuery{Symbol: "BTCUSDT", Limit: 101})
	require.NoError(t, err)
	assert.Equal(t, MaxTradeLimit, params["limit"])

	_, err = buildTradesParams(TradesQuery{Limit: 10})
	assert.Error(t, err)
}
