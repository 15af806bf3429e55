package api

import (
	"context"
	"io"
)

// Stream delivers decoded exchange events in arrival order. Recv returns
// io.EOF once the stream is exhausted; Close cancels the producer.
type Stream interface {
	Recv() (Event, error)
	Close() error
}

// eventStream pumps a producer function through a buffered channel. The
// producer's terminal error is delivered in-band as EventError so the
// consumer observes every failure through the same Recv loop.
type eventStream struct {
	ctx    context.Context
	cancel context.CancelFunc
	ch     chan Event
}

func newEventStream(parent context.Context, run func(context.Context, chan<- Event) error) *eventStream {
	ctx, cancel := context.WithCancel(parent)
	s := &eventStream{ctx: ctx, cancel: cancel, ch: make(chan Event, 16)}
	go func() {
		defer close(s.ch)
		if err := run(ctx, s.ch); err != nil {
			s.ch <- Event{Type: EventError, Err: err}
		}
	}()
	return s
}

// Recv returns the next event. Buffered events win over cancellation: a
// terminal event that raced the context is delivered, not dropped.
func (s *eventStream) Recv() (Event, error) {
	select {
	case ev, ok := <-s.ch:
		if !ok {
			return Event{}, io.EOF
		}
		return ev, nil
	default:
	}

	select {
	case ev, ok := <-s.ch:
		if !ok {
			return Event{}, io.EOF
		}
		return ev, nil
	case <-s.ctx.Done():
		return Event{}, s.ctx.Err()
	}
}

func (s *eventStream) Close() error {
	s.cancel()
	return nil
}
