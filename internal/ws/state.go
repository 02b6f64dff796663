package ws

import "sync/atomic"

// ConnState represents the lifecycle state of a signed connection.
type ConnState int32

const (
	StateDisconnected ConnState = iota
	StateConnecting
	StateConnected
	// StateClosed is terminal; a closed Conn cannot reconnect.
	StateClosed
)

func (s ConnState) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// State provides atomic access to a ConnState value.
type State struct {
	state atomic.Int32
}

func (s *State) Load() ConnState {
	return ConnState(s.state.Load())
}

func (s *State) Store(state ConnState) {
	s.state.Store(int32(state))
}

// CompareAndSwap swaps to next only when the current state is old.
func (s *State) CompareAndSwap(old, next ConnState) bool {
	return s.state.CompareAndSwap(int32(old), int32(next))
}

// Swap stores next and returns the previous state.
func (s *State) Swap(next ConnState) ConnState {
	return ConnState(s.state.Swap(int32(next)))
}
