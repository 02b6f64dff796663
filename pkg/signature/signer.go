// Package signature implements the deterministic parameter canonicalization
// and HMAC-SHA256 signing shared by HTTP requests and socket messages, plus
// verification of signed payloads.
package signature

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"slices"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"signet/pkg/core"
)

// Parameter names injected into every signed set.
const (
	KeyTimestamp = "timestamp"
	KeySignature = "signature"
)

// Signer produces and checks signatures. It keeps no secret between calls and
// is safe for concurrent use.
type Signer struct {
	now    func() time.Time
	logger zerolog.Logger
}

// Option configures a Signer.
type Option func(*Signer)

// WithClock overrides the time source used for injected timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Signer) {
		s.now = now
	}
}

// WithLogger sets the logger used for signing diagnostics.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Signer) {
		s.logger = l
	}
}

// New creates a Signer using the wall clock and a no-op logger.
func New(opts ...Option) *Signer {
	s := &Signer{
		now:    time.Now,
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Signed is a parameter set ready to go on the wire.
type Signed struct {
	// Params holds the caller's parameters plus timestamp and signature.
	Params core.Params
	// Timestamp is the injected signing time in milliseconds since epoch.
	Timestamp int64
	// Signature is the hex digest, empty when no secret was available.
	Signature string
}

// Unsigned reports whether the set went out without a signature.
func (s Signed) Unsigned() bool {
	return s.Signature == ""
}

// Canonicalize serializes params as key=value pairs joined by '&', keys in
// ascending byte order, absent values dropped and values percent-encoded.
func Canonicalize(params core.Params) string {
	keys := make([]string, 0, len(params))
	for k, v := range params {
		if core.IsAbsent(v) {
			continue
		}
		keys = append(keys, k)
	}
	slices.Sort(keys)

	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(EncodeURIComponent(core.FormatValue(params[k])))
	}
	return b.String()
}

// HMAC returns the lowercase hex HMAC-SHA256 of message keyed with secret.
func HMAC(message, secret string) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write([]byte(message))
	return hex.EncodeToString(h.Sum(nil))
}

// Sign returns the signature of params under cred. Without a secret it
// returns an empty signature and logs a warning instead of failing.
func (s *Signer) Sign(params core.Params, cred core.Credential) string {
	if cred.IsZero() {
		s.logger.Warn().
			Str("tier", cred.Tier.String()).
			Err(core.ErrNoSecret).
			Msg("no signing secret available, sending unsigned request")
		return ""
	}
	return HMAC(Canonicalize(params), cred.Secret)
}

// Stamp copies params, injects the current timestamp, signs the result and
// attaches the signature. The input set is not modified.
func (s *Signer) Stamp(params core.Params, cred core.Credential) Signed {
	ts := s.now().UnixMilli()

	out := params.Without(KeySignature)
	out[KeyTimestamp] = ts

	sig := s.Sign(out, cred)
	out[KeySignature] = sig

	return Signed{
		Params:    out,
		Timestamp: ts,
		Signature: sig,
	}
}

// SignMessage stamps an outbound socket message the same way as a request.
// A nil message is returned unchanged.
func (s *Signer) SignMessage(msg core.Params, cred core.Credential) core.Params {
	if msg == nil {
		return nil
	}
	return s.Stamp(msg, cred).Params
}
