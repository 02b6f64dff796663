package core

import "fmt"

// Tier tells which secret scope a credential belongs to.
type Tier int

const (
	// TierPublic is the shared secret used for anonymous access.
	TierPublic Tier = iota
	// TierUser is the per-user secret available after authentication.
	TierUser
)

// String returns the string representation of the tier.
func (t Tier) String() string {
	switch t {
	case TierPublic:
		return "public"
	case TierUser:
		return "user"
	default:
		return "unknown"
	}
}

// Credential is the secret used to sign a single call.
// It is passed by value into the signer and must not be retained or logged.
type Credential struct {
	Secret string `json:"-"`
	Tier   Tier   `json:"tier"`
}

// PublicCredential wraps the shared anonymous-tier secret.
func PublicCredential(secret string) Credential {
	return Credential{Secret: secret, Tier: TierPublic}
}

// UserCredential wraps a per-user secret.
func UserCredential(secret string) Credential {
	return Credential{Secret: secret, Tier: TierUser}
}

// IsZero reports whether no secret is available.
func (c Credential) IsZero() bool {
	return c.Secret == ""
}

// String masks the secret so credentials are safe to pass to loggers.
func (c Credential) String() string {
	return fmt.Sprintf("Credential{Tier:%s, Secret:%s}", c.Tier, maskSecret(c.Secret))
}

func maskSecret(secret string) string {
	if secret == "" {
		return "<none>"
	}
	if len(secret) <= 8 {
		return "****"
	}
	return secret[:2] + "****" + secret[len(secret)-2:]
}
