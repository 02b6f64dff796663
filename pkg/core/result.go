package core

// Result is what a retrieval call hands back. Value always holds either the
// decoded payload or the operation's documented fallback, so display code can
// use it without checking Err. Stricter callers inspect Err and Unsigned.
type Result[T any] struct {
	Value T
	// Err is nil on success and a *MarketError otherwise.
	Err error
	// Unsigned is set when no secret was available and the request went out
	// without a signature.
	Unsigned bool
	// RequestID correlates the call with its diagnostics.
	RequestID string
}

// OK reports whether Value holds a payload returned by the server.
func (r Result[T]) OK() bool {
	return r.Err == nil
}

// Status returns the error category, ErrorTypeNone on success.
func (r Result[T]) Status() ErrorType {
	return TypeOf(r.Err)
}

// Succeed wraps a decoded payload.
func Succeed[T any](value T) Result[T] {
	return Result[T]{Value: value}
}

// Degrade wraps a fallback value together with the failure that caused it.
func Degrade[T any](fallback T, err error) Result[T] {
	return Result[T]{Value: fallback, Err: err}
}
