package signature

import (
	"crypto/hmac"

	"github.com/bytedance/sonic"

	"signet/pkg/core"
)

// Verify recomputes the signature of payload without its own signature field
// and compares it with claimed in constant time. Missing input yields false.
func (s *Signer) Verify(payload core.Params, claimed string, cred core.Credential) bool {
	if len(payload) == 0 || claimed == "" || cred.IsZero() {
		return false
	}
	expected := HMAC(Canonicalize(payload.Without(KeySignature)), cred.Secret)
	return hmac.Equal([]byte(expected), []byte(claimed))
}

// VerifyJSON checks a JSON object that carries its own signature field.
func (s *Signer) VerifyJSON(body []byte, cred core.Credential) bool {
	var payload core.Params
	if err := sonic.Unmarshal(body, &payload); err != nil {
		s.logger.Debug().Err(err).Msg("signed payload is not a json object")
		return false
	}
	claimed, _ := payload[KeySignature].(string)
	return s.Verify(payload, claimed, cred)
}
