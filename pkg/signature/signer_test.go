package signature

import (
	"bytes"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"signet/pkg/core"
)

const fixedMillis int64 = 1700000000000

func fixedClock() time.Time {
	return time.UnixMilli(fixedMillis)
}

func newTestSigner() *Signer {
	return New(WithClock(fixedClock))
}

func TestCanonicalize_ReferenceVector(t *testing.T) {
	params := core.Params{
		"symbol":    "BTCUSDT",
		"interval":  "1h",
		"timestamp": fixedMillis,
	}

	assert.Equal(t, "interval=1h&symbol=BTCUSDT&timestamp=1700000000000", Canonicalize(params))
}

func TestStamp_ReferenceVector(t *testing.T) {
	s := newTestSigner()

	signed := s.Stamp(core.Params{"symbol": "BTCUSDT", "interval": "1h"}, core.PublicCredential("s3cr3t"))

	assert.Equal(t, fixedMillis, signed.Timestamp)
	assert.Equal(t, "8c343cbaa5d3a1ac654c92929e0f294c448fcec3318365058d67f51a313b01f5", signed.Signature)
	assert.Equal(t, signed.Signature, signed.Params[KeySignature])
	assert.Equal(t, fixedMillis, signed.Params[KeyTimestamp])
	assert.False(t, signed.Unsigned())
}

func TestCanonicalize_EncodesValuesOnly(t *testing.T) {
	params := core.Params{
		"symbol":    "ETH/USDT",
		"limit":     20,
		"timestamp": fixedMillis,
	}

	canonical := Canonicalize(params)

	assert.Equal(t, "limit=20&symbol=ETH%2FUSDT&timestamp=1700000000000", canonical)
	assert.Equal(t, "833a1322642a1a08d34fc3e0a4b2bf7036da992f0b9093e81b0643a5b12973af", HMAC(canonical, "s3cr3t"))
}

func TestCanonicalize_Empty(t *testing.T) {
	assert.Equal(t, "", Canonicalize(nil))
	assert.Equal(t, "", Canonicalize(core.Params{"a": nil}))
}

func TestCanonicalize_CodePointOrder(t *testing.T) {
	params := core.Params{
		"b":     1,
		"B":     2,
		"a":     3,
		"_":     4,
		"aa":    5,
		"Zebra": 6,
	}

	assert.Equal(t, "B=2&Zebra=6&_=4&a=3&aa=5&b=1", Canonicalize(params))
}

func TestSign_Deterministic(t *testing.T) {
	s := newTestSigner()
	cred := core.UserCredential("user-secret")
	params := core.Params{"symbol": "BTCUSDT", "limit": 100, "timestamp": fixedMillis}

	first := s.Sign(params, cred)
	second := s.Sign(params, cred)

	assert.Len(t, first, 64)
	assert.Equal(t, first, second)
}

func TestStamp_InsertionOrderIrrelevant(t *testing.T) {
	s := newTestSigner()
	cred := core.PublicCredential("s3cr3t")

	var forward, backward core.Params
	require.NoError(t, sonic.Unmarshal([]byte(`{"symbol":"BTCUSDT","interval":"1h","limit":500,"from":1,"to":2}`), &forward))
	require.NoError(t, sonic.Unmarshal([]byte(`{"to":2,"from":1,"limit":500,"interval":"1h","symbol":"BTCUSDT"}`), &backward))

	assert.Equal(t, s.Stamp(forward, cred).Signature, s.Stamp(backward, cred).Signature)
}

func TestSign_AbsentValuesFiltered(t *testing.T) {
	s := newTestSigner()
	cred := core.PublicCredential("s3cr3t")
	var nilPtr *int64

	base := core.Params{"symbol": "BTCUSDT", "timestamp": fixedMillis}
	withNil := core.Params{"symbol": "BTCUSDT", "timestamp": fixedMillis, "from": nil}
	withNilPtr := core.Params{"symbol": "BTCUSDT", "timestamp": fixedMillis, "to": nilPtr}

	assert.Equal(t, s.Sign(base, cred), s.Sign(withNil, cred))
	assert.Equal(t, s.Sign(base, cred), s.Sign(withNilPtr, cred))
}

func TestSign_EmptyAndZeroRetained(t *testing.T) {
	s := newTestSigner()
	cred := core.PublicCredential("s3cr3t")

	base := core.Params{"symbol": "BTCUSDT"}
	withEmpty := core.Params{"symbol": "BTCUSDT", "note": ""}
	withZero := core.Params{"symbol": "BTCUSDT", "limit": 0}

	assert.Equal(t, "note=&symbol=BTCUSDT", Canonicalize(withEmpty))
	assert.NotEqual(t, s.Sign(base, cred), s.Sign(withEmpty, cred))
	assert.NotEqual(t, s.Sign(base, cred), s.Sign(withZero, cred))
}

func TestSign_NoSecret(t *testing.T) {
	var buf bytes.Buffer
	s := New(WithClock(fixedClock), WithLogger(zerolog.New(&buf)))

	sig := s.Sign(core.Params{"symbol": "BTCUSDT"}, core.Credential{})

	assert.Empty(t, sig)
	assert.Contains(t, buf.String(), "unsigned request")
	assert.Contains(t, buf.String(), `"level":"warn"`)
}

func TestSign_SecretNeverLogged(t *testing.T) {
	var buf bytes.Buffer
	s := New(WithClock(fixedClock), WithLogger(zerolog.New(&buf).Level(zerolog.TraceLevel)))

	s.Sign(core.Params{"symbol": "BTCUSDT"}, core.UserCredential("very-secret-value"))
	s.Stamp(core.Params{"symbol": "BTCUSDT"}, core.UserCredential("very-secret-value"))

	assert.NotContains(t, buf.String(), "very-secret-value")
}

func TestStamp_NoSecret(t *testing.T) {
	s := newTestSigner()

	signed := s.Stamp(core.Params{"symbol": "BTCUSDT"}, core.Credential{})

	assert.True(t, signed.Unsigned())
	assert.Equal(t, "", signed.Params[KeySignature])
	assert.Equal(t, fixedMillis, signed.Params[KeyTimestamp])
}

func TestStamp_DoesNotMutateInput(t *testing.T) {
	s := newTestSigner()
	params := core.Params{"symbol": "BTCUSDT"}

	signed := s.Stamp(params, core.PublicCredential("s3cr3t"))

	assert.Equal(t, core.Params{"symbol": "BTCUSDT"}, params)
	assert.Len(t, signed.Params, 3)
}

func TestStamp_ReplacesStaleSignature(t *testing.T) {
	s := newTestSigner()
	cred := core.PublicCredential("s3cr3t")

	clean := s.Stamp(core.Params{"symbol": "BTCUSDT", "interval": "1h"}, cred)
	stale := s.Stamp(core.Params{"symbol": "BTCUSDT", "interval": "1h", "signature": "old"}, cred)

	assert.Equal(t, clean.Signature, stale.Signature)
}

func TestStamp_TimestampFromClock(t *testing.T) {
	calls := 0
	s := New(WithClock(func() time.Time {
		calls++
		return time.UnixMilli(fixedMillis + int64(calls))
	}))
	cred := core.PublicCredential("s3cr3t")

	first := s.Stamp(core.Params{"symbol": "BTCUSDT"}, cred)
	second := s.Stamp(core.Params{"symbol": "BTCUSDT"}, cred)

	assert.Equal(t, fixedMillis+1, first.Timestamp)
	assert.Equal(t, fixedMillis+2, second.Timestamp)
	assert.NotEqual(t, first.Signature, second.Signature)
}

func TestSignMessage(t *testing.T) {
	s := newTestSigner()
	cred := core.PublicCredential("s3cr3t")

	msg := core.Params{"symbol": "BTCUSDT", "interval": "1h"}
	signed := s.SignMessage(msg, cred)

	assert.Equal(t, "BTCUSDT", signed["symbol"])
	assert.Equal(t, fixedMillis, signed[KeyTimestamp])
	assert.Equal(t, "8c343cbaa5d3a1ac654c92929e0f294c448fcec3318365058d67f51a313b01f5", signed[KeySignature])
	assert.NotContains(t, msg, KeySignature)
}

func TestSignMessage_Nil(t *testing.T) {
	s := newTestSigner()

	assert.Nil(t, s.SignMessage(nil, core.PublicCredential("s3cr3t")))
}

func TestHMAC(t *testing.T) {
	assert.Equal(t,
		"8c343cbaa5d3a1ac654c92929e0f294c448fcec3318365058d67f51a313b01f5",
		HMAC("interval=1h&symbol=BTCUSDT&timestamp=1700000000000", "s3cr3t"))
}
