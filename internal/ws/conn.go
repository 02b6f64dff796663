// Package ws provides a websocket connection that signs every outbound
// message with the current session credential.
package ws

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/lxzan/gws"
	"github.com/rs/zerolog"

	"signet/pkg/core"
	"signet/pkg/session"
	"signet/pkg/signature"
)

// Config holds configuration options for a signed connection.
type Config struct {
	// URL is the websocket server endpoint.
	URL string
	// PingInterval is the expected interval between server pings.
	PingInterval time.Duration
	// PongWait is how long past PingInterval the connection may stay silent.
	PongWait time.Duration
	// Header is sent with the upgrade request.
	Header http.Header
}

// Handler receives inbound message payloads. The slice is only valid for the
// duration of the call.
type Handler func(data []byte)

// Conn is a websocket connection whose outbound messages carry a timestamp
// and an HMAC signature.
type Conn struct {
	config  Config
	state   State
	conn    *gws.Conn
	events  *eventHandler
	signer  *signature.Signer
	creds   session.CredentialProvider
	handler Handler
	logger  zerolog.Logger

	mu        sync.RWMutex
	connected chan struct{}
	wg        sync.WaitGroup
}

// Option configures a Conn.
type Option func(*Conn)

func WithLogger(l zerolog.Logger) Option {
	return func(c *Conn) {
		c.logger = l
	}
}

func WithSigner(s *signature.Signer) Option {
	return func(c *Conn) {
		c.signer = s
	}
}

// WithHandler sets the callback for inbound messages.
func WithHandler(h Handler) Option {
	return func(c *Conn) {
		c.handler = h
	}
}

// New creates a disconnected Conn. The credential is resolved from creds on
// every send.
func New(config Config, creds session.CredentialProvider, opts ...Option) *Conn {
	if config.PingInterval == 0 {
		config.PingInterval = 10 * time.Second
	}
	if config.PongWait == 0 {
		config.PongWait = 20 * time.Second
	}
	if creds == nil {
		creds = session.Anonymous
	}

	c := &Conn{
		config:    config,
		creds:     creds,
		logger:    zerolog.Nop(),
		connected: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.signer == nil {
		c.signer = signature.New(signature.WithLogger(c.logger))
	}
	c.events = &eventHandler{conn: c}
	c.state.Store(StateDisconnected)
	return c
}

type eventHandler struct {
	conn *Conn
}

func (h *eventHandler) deadline() time.Time {
	return time.Now().Add(h.conn.config.PingInterval + h.conn.config.PongWait)
}

func (h *eventHandler) OnOpen(socket *gws.Conn) {
	h.conn.state.CompareAndSwap(StateConnecting, StateConnected)

	h.conn.mu.Lock()
	select {
	case <-h.conn.connected:
	default:
		close(h.conn.connected)
	}
	h.conn.mu.Unlock()

	h.conn.logger.Info().Str("url", h.conn.config.URL).Msg("websocket connected")
	_ = socket.SetDeadline(h.deadline())
}

func (h *eventHandler) OnClose(socket *gws.Conn, err error) {
	h.conn.state.CompareAndSwap(StateConnected, StateDisconnected)

	h.conn.mu.Lock()
	h.conn.connected = make(chan struct{})
	h.conn.mu.Unlock()

	h.conn.logger.Warn().Err(err).Str("url", h.conn.config.URL).Msg("websocket disconnected")
}

func (h *eventHandler) OnPing(socket *gws.Conn, payload []byte) {
	_ = socket.SetDeadline(h.deadline())
	_ = socket.WritePong(nil)
}

func (h *eventHandler) OnPong(socket *gws.Conn, payload []byte) {
	_ = socket.SetDeadline(h.deadline())
}

func (h *eventHandler) OnMessage(socket *gws.Conn, message *gws.Message) {
	defer message.Close()

	data := message.Bytes()
	if len(data) == 0 || h.conn.handler == nil {
		return
	}
	h.conn.logger.Debug().Int("size", len(data)).Msg("received websocket message")
	h.conn.handler(data)
}

// Connect dials the configured URL and blocks until the connection is open
// or ctx ends.
func (c *Conn) Connect(ctx context.Context) error {
	if !c.state.CompareAndSwap(StateDisconnected, StateConnecting) {
		current := c.state.Load()
		if current == StateConnected {
			return nil
		}
		return fmt.Errorf("invalid state for connect: %s", current)
	}

	socket, _, err := gws.NewClient(c.events, &gws.ClientOption{
		Addr:          c.config.URL,
		RequestHeader: c.config.Header,
	})
	if err != nil {
		c.state.Store(StateDisconnected)
		return fmt.Errorf("connect websocket: %w", err)
	}

	c.mu.Lock()
	c.conn = socket
	connected := c.connected
	c.mu.Unlock()

	c.wg.Go(func() {
		socket.ReadLoop()
	})

	select {
	case <-connected:
		return nil
	case <-ctx.Done():
		_ = socket.NetConn().Close()
		c.state.Store(StateDisconnected)
		return ctx.Err()
	}
}

// SendSigned signs msg with the current credential and writes it as JSON.
// The caller's map is not modified. Without a secret the message goes out
// with an empty signature.
func (c *Conn) SendSigned(msg core.Params) error {
	if msg == nil {
		return errors.New("nil message")
	}
	signed := c.signer.SignMessage(msg, c.creds.Credential())
	return c.SendJSON(signed)
}

// SendJSON marshals v with sonic and writes it as a text frame.
func (c *Conn) SendJSON(v any) error {
	data, err := sonic.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}
	return c.write(data)
}

func (c *Conn) write(data []byte) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.conn == nil || !c.IsConnected() {
		return core.ErrNotConnected
	}
	return c.conn.WriteMessage(gws.OpcodeText, data)
}

// Close shuts the connection down and waits for the read loop to exit.
func (c *Conn) Close() error {
	if c.state.Swap(StateClosed) == StateClosed {
		return nil
	}

	c.mu.Lock()
	if c.conn != nil {
		_ = c.conn.NetConn().Close()
	}
	c.mu.Unlock()

	c.wg.Wait()
	return nil
}

func (c *Conn) State() ConnState {
	return c.state.Load()
}

func (c *Conn) IsConnected() bool {
	return c.state.Load() == StateConnected
}
