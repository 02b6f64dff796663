// Package market implements the signed market-data client. Every retrieval
// returns a core.Result whose Value is either the decoded payload or the
// operation's fallback; failures are reported through Result.Err, logs and
// metrics, never as a separate error return.
package market

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"signet/internal/circuitbreaker"
	"signet/internal/ratelimit"
	"signet/internal/transport"
	"signet/pkg/core"
	"signet/pkg/session"
	"signet/pkg/signature"
)

// Transport issues a single HTTP request. Non-2xx statuses are responses,
// not errors.
type Transport interface {
	Do(ctx context.Context, req *core.Request) (*transport.Response, error)
}

// Client retrieves market data over signed HTTP GET requests.
// It is safe for concurrent use.
type Client struct {
	config         *core.Config
	transport      Transport
	creds          session.CredentialProvider
	signer         *signature.Signer
	rateLimiter    *ratelimit.Limiter
	nonBlocking    bool
	circuitBreaker *circuitbreaker.Breaker
	metrics        *metrics
	logger         zerolog.Logger
}

// Option is a functional option for configuring the Client.
type Option func(*Options)

// Options holds configuration options for the Client.
type Options struct {
	Transport   Transport
	Credentials session.CredentialProvider
	Signer      *signature.Signer
	Logger      zerolog.Logger
	Registerer  prometheus.Registerer

	// OperationLimits override the rate of individual operations.
	OperationLimits map[core.Operation]OperationLimit
	// NonBlocking makes a throttled call fall back at once instead of waiting.
	NonBlocking bool
}

// OperationLimit allows Requests calls per Period for one operation.
type OperationLimit struct {
	Requests int
	Period   time.Duration
}

// WithTransport replaces the HTTP transport built from the config.
func WithTransport(t Transport) Option {
	return func(o *Options) {
		o.Transport = t
	}
}

// WithCredentials sets the provider consulted for the signing secret on
// every call. Defaults to an anonymous session using Config.PublicSecret.
func WithCredentials(p session.CredentialProvider) Option {
	return func(o *Options) {
		o.Credentials = p
	}
}

// WithSigner replaces the default signer, typically to pin the clock in tests.
func WithSigner(s *signature.Signer) Option {
	return func(o *Options) {
		o.Signer = s
	}
}

// WithLogger returns an option that sets the logger for the client.
func WithLogger(l zerolog.Logger) Option {
	return func(o *Options) {
		o.Logger = l
	}
}

// WithRegisterer registers the client's metrics with r.
func WithRegisterer(r prometheus.Registerer) Option {
	return func(o *Options) {
		o.Registerer = r
	}
}

// WithOperationLimit throttles op to requests per period on top of the
// configured global rate. It enables rate limiting for op even when the
// global limit is disabled.
func WithOperationLimit(op core.Operation, requests int, period time.Duration) Option {
	return func(o *Options) {
		if o.OperationLimits == nil {
			o.OperationLimits = make(map[core.Operation]OperationLimit)
		}
		o.OperationLimits[op] = OperationLimit{Requests: requests, Period: period}
	}
}

// WithNonBlockingRateLimit makes a throttled call return its fallback with
// ErrorTypeRateLimit immediately rather than wait for a token.
func WithNonBlockingRateLimit() Option {
	return func(o *Options) {
		o.NonBlocking = true
	}
}

// New creates a Client from config. Rate limiting and the circuit breaker are
// enabled only when the config asks for them.
func New(config *core.Config, opts ...Option) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	options := &Options{
		Logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(options)
	}

	if options.Transport == nil {
		httpClient, err := transport.NewClient(config, options.Logger)
		if err != nil {
			return nil, fmt.Errorf("create http client: %w", err)
		}
		options.Transport = httpClient
	}

	if options.Credentials == nil {
		options.Credentials = session.FromConfig(config, session.WithLogger(options.Logger))
	}

	if options.Signer == nil {
		options.Signer = signature.New(signature.WithLogger(options.Logger))
	}

	m, err := newMetrics(options.Registerer)
	if err != nil {
		return nil, fmt.Errorf("register metrics: %w", err)
	}

	limiter := ratelimit.FromConfig(config)
	for op, l := range options.OperationLimits {
		if l.Requests <= 0 || l.Period <= 0 {
			return nil, fmt.Errorf("invalid rate limit for %s: %d per %s", op, l.Requests, l.Period)
		}
		if limiter == nil {
			limiter = ratelimit.Unlimited()
		}
		limiter.SetOperationLimit(op, l.Requests, l.Period)
	}

	var cb *circuitbreaker.Breaker
	if bc, ok := circuitbreaker.FromConfig("market", config); ok {
		cb = circuitbreaker.New(bc, circuitbreaker.WithLogger(options.Logger))
	}

	return &Client{
		config:         config,
		transport:      options.Transport,
		creds:          options.Credentials,
		signer:         options.Signer,
		rateLimiter:    limiter,
		nonBlocking:    options.NonBlocking,
		circuitBreaker: cb,
		metrics:        m,
		logger:         options.Logger,
	}, nil
}

// Credentials returns the provider the client signs with.
func (c *Client) Credentials() session.CredentialProvider {
	return c.creds
}

// Stats is a point-in-time view of the client's throttling state.
type Stats struct {
	RateLimit      ratelimit.Snapshot
	CircuitBreaker circuitbreaker.Snapshot
}

// Stats returns the rate limiter and circuit breaker counters. Disabled
// components report zero counters.
func (c *Client) Stats() Stats {
	return Stats{
		RateLimit:      c.rateLimiter.Stats(),
		CircuitBreaker: c.circuitBreaker.Stats(),
	}
}

// ResetCircuitBreaker closes the breaker so calls go out again. It does
// nothing when the breaker is disabled.
func (c *Client) ResetCircuitBreaker() {
	if c.circuitBreaker != nil {
		c.circuitBreaker.Reset()
	}
}

// Close releases the transport when it holds resources.
func (c *Client) Close() error {
	if closer, ok := c.transport.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
