package chat

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// ExchangeState is the per-exchange machine: active until exactly one of the
// three terminal states is reached.
type ExchangeState int

const (
	ExchangeActive ExchangeState = iota
	ExchangeCompleted
	ExchangeCancelled
	ExchangeFailed
)

func (s ExchangeState) String() string {
	switch s {
	case ExchangeActive:
		return "active"
	case ExchangeCompleted:
		return "completed"
	case ExchangeCancelled:
		return "cancelled"
	case ExchangeFailed:
		return "failed"
	}
	return "unknown"
}

// Exchange owns one in-flight request/response cycle: its cancellation
// token, the buffer id of its assistant placeholder, the set of correlation
// ids already applied, and the state machine. Session-scoped state lives
// here rather than in closures so the decode loop can check liveness before
// every buffer mutation.
type Exchange struct {
	id     string
	cancel context.CancelFunc

	// turnID is the placeholder this exchange streams into. Set once in
	// Send before the decode goroutine starts.
	turnID int64

	mu    sync.Mutex
	state ExchangeState
	seen  map[string]struct{}
}

func newExchange(cancel context.CancelFunc) *Exchange {
	return &Exchange{
		id:     uuid.NewString(),
		cancel: cancel,
		state:  ExchangeActive,
		seen:   make(map[string]struct{}),
	}
}

// ID returns the client-assigned exchange id, used for debug logging.
func (e *Exchange) ID() string {
	return e.id
}

// State returns the current machine state.
func (e *Exchange) State() ExchangeState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// SeenDelta records a correlation id and reports whether it was already
// applied. Empty ids are never deduplicated.
func (e *Exchange) SeenDelta(correlationID string) bool {
	if correlationID == "" {
		return false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.seen[correlationID]; ok {
		return true
	}
	e.seen[correlationID] = struct{}{}
	return false
}

// finish moves the machine to a terminal state. It reports false when the
// exchange already terminated; terminal states never transition again.
func (e *Exchange) finish(state ExchangeState) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != ExchangeActive {
		return false
	}
	e.state = state
	return true
}

// Cancel marks the exchange cancelled and invokes its cancellation token.
// Safe to call more than once; only the first call transitions the state.
func (e *Exchange) Cancel() {
	e.finish(ExchangeCancelled)
	e.cancel()
}
