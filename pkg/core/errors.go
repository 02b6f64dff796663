package core

import (
	"errors"
	"fmt"
	"time"
)

// ErrorType represents the category of a market-data failure.
type ErrorType int

// Error type constants categorize why a call degraded to its fallback.
const (
	// ErrorTypeNone marks a successful call.
	ErrorTypeNone ErrorType = iota
	// ErrorTypeUnknown indicates an unclassified error.
	ErrorTypeUnknown
	// ErrorTypeNetwork indicates a network connectivity issue.
	ErrorTypeNetwork
	// ErrorTypeTimeout indicates the request exceeded its deadline.
	ErrorTypeTimeout
	// ErrorTypeRateLimit indicates the client-side rate limiter refused the call.
	ErrorTypeRateLimit
	// ErrorTypeBadRequest indicates invalid call parameters.
	ErrorTypeBadRequest
	// ErrorTypeApplication indicates the envelope carried a non-200 code.
	ErrorTypeApplication
	// ErrorTypeServerError indicates a non-2xx HTTP status.
	ErrorTypeServerError
	// ErrorTypeDecode indicates the envelope or payload could not be interpreted.
	ErrorTypeDecode
	// ErrorTypeCircuitOpen indicates the circuit breaker rejected the call.
	ErrorTypeCircuitOpen
)

// String returns the string representation of the error type.
func (t ErrorType) String() string {
	names := [...]string{
		"NONE",
		"UNKNOWN",
		"NETWORK",
		"TIMEOUT",
		"RATE_LIMIT",
		"BAD_REQUEST",
		"APPLICATION",
		"SERVER_ERROR",
		"DECODE",
		"CIRCUIT_OPEN",
	}
	if int(t) < 0 || int(t) >= len(names) {
		return "UNKNOWN"
	}
	return names[t]
}

// Sentinel errors for common error conditions.
var (
	// ErrNoSecret is reported when no signing secret is available.
	ErrNoSecret = errors.New("no signing secret available")
	// ErrClientClosed is returned when attempting to use a closed client.
	ErrClientClosed = errors.New("client is closed")
	// ErrNotConnected is returned when the websocket is not connected.
	ErrNotConnected = errors.New("websocket not connected")
	// ErrCircuitOpen is returned when the circuit breaker is open.
	ErrCircuitOpen = errors.New("circuit breaker is open")
)

// MarketError describes why a retrieval degraded to its fallback value.
type MarketError struct {
	// Type categorizes the error for programmatic handling.
	Type ErrorType `json:"type"`
	// Operation is the call that failed.
	Operation Operation `json:"operation"`
	// HTTPStatus is the transport status code, zero when no response arrived.
	HTTPStatus int `json:"http_status,omitempty"`
	// Code is the envelope code for application errors.
	Code int `json:"code,omitempty"`
	// Message is the human-readable error description.
	Message string `json:"message"`
	// RequestID correlates the error with the outbound request and its log lines.
	RequestID string `json:"request_id,omitempty"`
	// Err is the underlying cause, if any.
	Err error `json:"-"`
	// Timestamp is when the error occurred.
	Timestamp time.Time `json:"timestamp"`
}

// Error returns a formatted string with operation, type, status codes and message.
func (e *MarketError) Error() string {
	msg := e.Message
	if e.Err != nil {
		if msg == "" {
			msg = e.Err.Error()
		} else {
			msg = msg + ": " + e.Err.Error()
		}
	}
	switch {
	case e.Code != 0:
		return fmt.Sprintf("[%s] %s (%d/%d): %s", e.Operation, e.Type, e.HTTPStatus, e.Code, msg)
	case e.HTTPStatus != 0:
		return fmt.Sprintf("[%s] %s (%d): %s", e.Operation, e.Type, e.HTTPStatus, msg)
	default:
		return fmt.Sprintf("[%s] %s: %s", e.Operation, e.Type, msg)
	}
}

func (e *MarketError) Unwrap() error {
	return e.Err
}

// NewMarketError creates a MarketError; the timestamp is set to the current time.
func NewMarketError(op Operation, errorType ErrorType, message string, cause error) *MarketError {
	return &MarketError{
		Type:      errorType,
		Operation: op,
		Message:   message,
		Err:       cause,
		Timestamp: time.Now(),
	}
}

// TypeOf extracts the error type from err; nil yields ErrorTypeNone.
func TypeOf(err error) ErrorType {
	if err == nil {
		return ErrorTypeNone
	}
	var me *MarketError
	if errors.As(err, &me) {
		return me.Type
	}
	return ErrorTypeUnknown
}

// IsNetworkError returns true if the error is a network connectivity issue.
func IsNetworkError(err error) bool {
	return TypeOf(err) == ErrorTypeNetwork
}

// IsTimeoutError returns true if the error is a timeout.
func IsTimeoutError(err error) bool {
	return TypeOf(err) == ErrorTypeTimeout
}

// IsApplicationError returns true if the server answered with a non-200 envelope code.
func IsApplicationError(err error) bool {
	return TypeOf(err) == ErrorTypeApplication
}

// IsDecodeError returns true if the response could not be interpreted.
func IsDecodeError(err error) bool {
	return TypeOf(err) == ErrorTypeDecode
}

// IsTransportError returns true for failures below the envelope layer.
func IsTransportError(err error) bool {
	switch TypeOf(err) {
	case ErrorTypeNetwork, ErrorTypeTimeout, ErrorTypeServerError:
		return true
	}
	return false
}
