package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewRequest(t *testing.T) {
	req := NewRequest("GET", "/api/v1/market/ticker")

	assert.Equal(t, "GET", req.Method)
	assert.Equal(t, "/api/v1/market/ticker", req.Path)
	assert.NotNil(t, req.Query)
	assert.NotNil(t, req.Headers)
}

func TestNewGetRequest(t *testing.T) {
	req := NewGetRequest(OpGetDepth)

	assert.Equal(t, "GET", req.Method)
	assert.Equal(t, PathDepth, req.Path)
	assert.Equal(t, OpGetDepth, req.Operation)
}

func TestRequest_SetHeader(t *testing.T) {
	req := &Request{}
	result := req.SetHeader("X-Custom", "value")

	assert.Equal(t, req, result)
	assert.Equal(t, "value", req.Headers["X-Custom"])
}

func TestRequest_SetRequestID(t *testing.T) {
	req := NewGetRequest(OpGetTicker).SetRequestID("req-1")

	assert.Equal(t, "req-1", req.RequestID)
	assert.Equal(t, "req-1", req.Headers[HeaderRequestID])
}

func TestRequest_SetQueryParams(t *testing.T) {
	req := &Request{}
	params := Params{
		"symbol":  "BTCUSDT",
		"limit":   100,
		"enabled": true,
	}
	result := req.SetQueryParams(params)

	assert.Equal(t, req, result)
	assert.Equal(t, "BTCUSDT", req.Query["symbol"])
	assert.Equal(t, 100, req.Query["limit"])
	assert.Equal(t, true, req.Query["enabled"])
}

func TestParams_Clone(t *testing.T) {
	params := Params{"symbol": "BTCUSDT"}
	clone := params.Clone()
	clone["limit"] = 10

	assert.NotContains(t, params, "limit")
	assert.Equal(t, "BTCUSDT", clone["symbol"])

	var nilParams Params
	assert.NotNil(t, nilParams.Clone())
}

func TestParams_Without(t *testing.T) {
	params := Params{"symbol": "BTCUSDT", "signature": "abc"}
	out := params.Without("signature")

	assert.Equal(t, Params{"symbol": "BTCUSDT"}, out)
	assert.Contains(t, params, "signature")
}
