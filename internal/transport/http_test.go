package transport

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"signet/pkg/core"
)

func newTestClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	client, err := NewClient(core.DefaultConfig(baseURL), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestNewClient(t *testing.T) {
	client, err := NewClient(core.DefaultConfig("https://api.example.com"), zerolog.Nop())

	require.NoError(t, err)
	assert.NotNil(t, client)
	assert.NoError(t, client.Close())
}

func TestNewClient_InvalidConfig(t *testing.T) {
	tests := []struct {
		name   string
		config *core.Config
	}{
		{"missing base url", core.DefaultConfig("")},
		{"invalid base url", core.DefaultConfig("not a url")},
		{"zero timeout", core.DefaultConfig("https://api.example.com").WithTimeout(0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := NewClient(tt.config, zerolog.Nop())

			assert.Error(t, err)
			assert.Nil(t, client)
		})
	}
}

func TestClient_Do_Get(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "GET", r.Method)
		assert.Equal(t, "/test", r.URL.Path)
		assert.Equal(t, "value", r.URL.Query().Get("key"))
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"result":"success"}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)

	req := core.NewRequest(http.MethodGet, "/test").SetQueryParams(core.Params{"key": "value"})

	resp, err := client.Do(context.Background(), req)

	require.NoError(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, 200, resp.StatusCode)
	assert.True(t, resp.IsSuccess())
	assert.JSONEq(t, `{"result":"success"}`, string(resp.Body))
}

func TestClient_Do_QueryAndHeaders(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "ETH/USDT", q.Get("symbol"))
		assert.Equal(t, "20", q.Get("limit"))
		assert.Equal(t, "1700000000000", q.Get("timestamp"))
		assert.Equal(t, "", q.Get("signature"))
		assert.True(t, q.Has("signature"))
		assert.False(t, q.Has("from"))
		assert.Equal(t, "req-1", r.Header.Get(core.HeaderRequestID))
		w.Header().Set("X-Server", "test")
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	req := core.NewGetRequest(core.OpGetTrades).
		SetQueryParams(core.Params{
			"symbol":    "ETH/USDT",
			"limit":     20,
			"timestamp": int64(1700000000000),
			"signature": "",
			"from":      nil,
		}).
		SetRequestID("req-1")

	resp, err := client.Do(context.Background(), req)

	require.NoError(t, err)
	assert.Equal(t, "test", resp.Headers["X-Server"])
}

func TestClient_Do_ErrorStatusIsNotAnError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("bad gateway"))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)

	resp, err := client.Do(context.Background(), core.NewRequest(http.MethodGet, "/test"))

	require.NoError(t, err)
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	assert.Equal(t, "bad gateway", string(resp.Body))
	assert.False(t, resp.IsSuccess())
}

func TestClient_Do_UnsupportedMethod(t *testing.T) {
	client := newTestClient(t, "https://api.example.com")

	_, err := client.Do(context.Background(), core.NewRequest("POST", "/test"))

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported http method")
}

func TestClient_Do_ContextCanceled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := client.Do(ctx, core.NewRequest(http.MethodGet, "/slow"))

	assert.Error(t, err)
}

func TestClient_Closed(t *testing.T) {
	client, err := NewClient(core.DefaultConfig("https://api.example.com"), zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, client.Close())
	require.NoError(t, client.Close())

	_, err = client.Do(context.Background(), core.NewGetRequest(core.OpGetTicker))

	assert.ErrorIs(t, err, core.ErrClientClosed)
}

func TestResponse_IsSuccess(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
		expected   bool
	}{
		{"200 OK", 200, true},
		{"201 Created", 201, true},
		{"204 No Content", 204, true},
		{"301 Redirect", 301, false},
		{"400 Bad Request", 400, false},
		{"500 Server Error", 500, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := &Response{StatusCode: tt.statusCode}
			assert.Equal(t, tt.expected, resp.IsSuccess())
		})
	}
}
