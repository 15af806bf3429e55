package chat

import (
	"context"
	"io"
	"sync"

	"github.com/cosmosinnovate/openchat-cli/internal/api"
	"github.com/cosmosinnovate/openchat-cli/internal/debuglog"
	"github.com/cosmosinnovate/openchat-cli/internal/history"
	"github.com/cosmosinnovate/openchat-cli/internal/session"
)

// Result is the terminal outcome of one exchange. Err is nil for completed
// and cancelled exchanges; cancellation is expected, not a failure.
type Result struct {
	State ExchangeState
	Err   error
}

// Controller owns the in-flight exchange for one session context. A new
// Send supersedes any active exchange (last request wins, no queueing).
// Deltas are applied under the controller mutex after a currentness check,
// and every mutation is addressed to the turn the exchange owns, so a
// superseded exchange's stray delta can never land in a newer
// conversation's buffer.
type Controller struct {
	client   *api.Client
	buffer   *Buffer
	history  *history.Store
	identity *session.Resolver
	log      *debuglog.Logger

	// onDelta observes each applied content fragment, for live display.
	onDelta func(text string)

	mu      sync.Mutex
	current *Exchange
}

// NewController wires the controller to its collaborators. history and
// identity may be nil for one-shot use without sidebar reconciliation.
func NewController(client *api.Client, buffer *Buffer, hist *history.Store, identity *session.Resolver, log *debuglog.Logger) *Controller {
	return &Controller{
		client:   client,
		buffer:   buffer,
		history:  hist,
		identity: identity,
		log:      log,
	}
}

// OnDelta registers the live-display observer. Must be set before Send.
func (c *Controller) OnDelta(fn func(text string)) {
	c.onDelta = fn
}

// Buffer returns the message buffer owned by this session context.
func (c *Controller) Buffer() *Buffer {
	return c.buffer
}

// Send issues a conversation turn. The user turn and an empty assistant
// placeholder are appended before any network activity; the returned channel
// delivers exactly one terminal Result. A prior active exchange is cancelled
// first.
func (c *Controller) Send(ctx context.Context, text, model string) <-chan Result {
	c.mu.Lock()
	if c.current != nil {
		c.current.Cancel()
	}
	exCtx, cancel := context.WithCancel(ctx)
	ex := newExchange(cancel)
	c.current = ex
	c.mu.Unlock()

	c.buffer.Append(NewUserTurn(text))
	turns := c.buffer.Wire()
	ex.turnID = c.buffer.Append(NewAssistantPlaceholder())

	c.log.Event("exchange_start", map[string]any{"exchange": ex.ID(), "model": model, "turns": len(turns)})

	done := make(chan Result, 1)
	go c.run(exCtx, ex, turns, model, done)
	return done
}

// Abort invokes the current exchange's cancellation token. Partial content
// already streamed is retained, never rolled back.
func (c *Controller) Abort() {
	c.mu.Lock()
	ex := c.current
	c.mu.Unlock()
	if ex != nil {
		ex.Cancel()
	}
}

// Active reports whether an exchange is currently in flight.
func (c *Controller) Active() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current != nil && c.current.State() == ExchangeActive
}

// Clear starts a fresh conversation: the in-flight exchange is cancelled and
// detached first, then the persisted id is erased and the buffer emptied, so
// a stale delta cannot be appended to a buffer cleared for a different
// conversation.
func (c *Controller) Clear(ctx context.Context) error {
	c.mu.Lock()
	ex := c.current
	c.current = nil
	c.mu.Unlock()
	if ex != nil {
		ex.Cancel()
	}
	if c.identity != nil {
		if err := c.identity.Clear(ctx); err != nil {
			return err
		}
	}
	c.buffer.Reset()
	return nil
}

func (c *Controller) run(ctx context.Context, ex *Exchange, turns []api.Turn, model string, done chan<- Result) {
	stream := c.client.OpenExchange(ctx, turns, model)
	defer stream.Close()

	for {
		event, err := stream.Recv()
		if err == io.EOF {
			c.complete(ex, done)
			return
		}
		if err != nil {
			c.fail(ex, err, done)
			return
		}

		switch event.Type {
		case api.EventDelta:
			if ex.SeenDelta(event.CorrelationID) {
				continue
			}
			applied, live := c.applyDelta(ex, event.Text)
			if !live {
				// Superseded; discard everything from here on.
				c.settleCancelled(ex, done)
				return
			}
			if applied && c.onDelta != nil {
				c.onDelta(event.Text)
			}
		case api.EventMalformed:
			// A single bad frame never aborts the exchange.
			c.log.Event("malformed_frame", map[string]any{"exchange": ex.ID(), "frame": event.Raw})
		case api.EventError:
			c.fail(ex, event.Err, done)
			return
		case api.EventDone:
			c.complete(ex, done)
			return
		}
	}
}

func (c *Controller) complete(ex *Exchange, done chan<- Result) {
	if !ex.finish(ExchangeCompleted) {
		c.settleCancelled(ex, done)
		return
	}
	c.buffer.FinishTurn(ex.turnID, StatusComplete)
	c.log.Event("exchange_done", map[string]any{"exchange": ex.ID(), "state": ex.State().String()})
	c.reconcileHistory()
	done <- Result{State: ExchangeCompleted}
}

func (c *Controller) fail(ex *Exchange, err error, done chan<- Result) {
	if api.IsAbort(err) || ex.State() == ExchangeCancelled {
		c.settleCancelled(ex, done)
		return
	}
	ex.finish(ExchangeFailed)
	c.buffer.FinishTurn(ex.turnID, StatusFailed)
	c.log.Event("exchange_failed", map[string]any{"exchange": ex.ID(), "error": err.Error()})
	done <- Result{State: ExchangeFailed, Err: err}
}

func (c *Controller) settleCancelled(ex *Exchange, done chan<- Result) {
	ex.finish(ExchangeCancelled)
	c.buffer.FinishTurn(ex.turnID, StatusCancelled)
	c.log.Event("exchange_cancelled", map[string]any{"exchange": ex.ID()})
	done <- Result{State: ExchangeCancelled}
}

// applyDelta attaches one content fragment to the exchange's placeholder.
// The currentness check and the append happen under the controller mutex so
// a superseding Send cannot slip between them; live reports whether the
// exchange should keep consuming its stream at all.
func (c *Controller) applyDelta(ex *Exchange, text string) (applied, live bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current != ex || ex.State() != ExchangeActive {
		return false, false
	}
	return c.buffer.AppendToTurn(ex.turnID, text), true
}

// reconcileHistory refreshes the history list after a completed exchange so
// the sidebar reflects any server-side title or creation change, and adopts
// the server-assigned id when this was the first exchange of a new
// conversation. A refresh failure is scoped to the history store and never
// fails the exchange.
func (c *Controller) reconcileHistory() {
	if c.history == nil {
		return
	}
	ctx := context.Background()
	if err := c.history.Fetch(ctx); err != nil {
		c.log.Event("history_refresh_failed", map[string]any{"error": err.Error()})
		return
	}
	if c.identity == nil || c.identity.Target().Kind != session.TargetNew {
		return
	}
	// The service orders history most recent first and creates the
	// conversation when its first exchange finishes streaming, so the new
	// conversation is the head entry.
	entries := c.history.Entries()
	if len(entries) == 0 {
		return
	}
	if err := c.identity.Adopt(ctx, entries[0].ID); err != nil {
		c.log.Event("adopt_failed", map[string]any{"id": entries[0].ID, "error": err.Error()})
	}
}
