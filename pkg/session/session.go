// Package session holds the authentication state that decides which secret
// signs a call: the per-user secret after login, the shared public secret
// otherwise.
package session

import (
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"signet/pkg/core"
)

// CredentialProvider resolves the credential for a call at call time.
// Implementations must be safe for concurrent reads.
type CredentialProvider interface {
	Credential() core.Credential
}

// State represents the authentication state of a Session.
type State int

const (
	// StateAnonymous means calls are signed with the public secret.
	StateAnonymous State = iota
	// StateAuthenticated means calls are signed with the user's secret.
	StateAuthenticated
)

// String returns the string representation of the State.
func (s State) String() string {
	switch s {
	case StateAnonymous:
		return "ANONYMOUS"
	case StateAuthenticated:
		return "AUTHENTICATED"
	default:
		return "UNKNOWN"
	}
}

// ErrEmptySecret is returned by Login when no user secret is supplied.
var ErrEmptySecret = errors.New("user secret is required")

// Session tracks the current authentication state.
// Sessions are safe for concurrent use.
type Session struct {
	mu           sync.RWMutex
	publicSecret string
	userSecret   string
	state        State
	logger       zerolog.Logger
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the logger for state-change diagnostics.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Session) {
		s.logger = l
	}
}

// New creates an anonymous session. publicSecret may be empty, in which case
// anonymous calls go out unsigned.
func New(publicSecret string, opts ...Option) *Session {
	s := &Session{
		publicSecret: publicSecret,
		state:        StateAnonymous,
		logger:       zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// FromConfig creates an anonymous session using the configured public secret.
func FromConfig(config *core.Config, opts ...Option) *Session {
	return New(config.PublicSecret, opts...)
}

// Login switches the session to the user tier.
func (s *Session) Login(userSecret string) error {
	if userSecret == "" {
		return ErrEmptySecret
	}

	s.mu.Lock()
	s.userSecret = userSecret
	s.state = StateAuthenticated
	s.mu.Unlock()

	s.logger.Info().Msg("session authenticated")
	return nil
}

// Logout drops the user secret and returns to the public tier.
func (s *Session) Logout() {
	s.mu.Lock()
	wasAuthenticated := s.state == StateAuthenticated
	s.userSecret = ""
	s.state = StateAnonymous
	s.mu.Unlock()

	if wasAuthenticated {
		s.logger.Info().Msg("session logged out")
	}
}

// State returns the current authentication state.
func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// IsAuthenticated reports whether a user secret is active.
func (s *Session) IsAuthenticated() bool {
	return s.State() == StateAuthenticated
}

// Credential returns the user credential when authenticated and the public
// credential otherwise. The returned value may carry an empty secret.
func (s *Session) Credential() core.Credential {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.state == StateAuthenticated {
		return core.UserCredential(s.userSecret)
	}
	return core.PublicCredential(s.publicSecret)
}

// Static is a CredentialProvider that always returns the same credential.
type Static core.Credential

// Credential implements CredentialProvider.
func (s Static) Credential() core.Credential {
	return core.Credential(s)
}

// Anonymous is a provider with no secret at all.
var Anonymous CredentialProvider = Static(core.Credential{})
