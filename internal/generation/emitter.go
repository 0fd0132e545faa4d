package generation

import (
	"context"
	"sync"

	"vidabot/internal/domain"
)

// Emitter is the single-producer ordered event stream of one job. The first
// terminal event closes the stream; later emits are dropped.
type Emitter struct {
	ch     chan domain.ProgressEvent
	mu     sync.Mutex
	closed bool
}

// NewEmitter returns an emitter holding at most one undelivered event.
func NewEmitter() *Emitter {
	return &Emitter{ch: make(chan domain.ProgressEvent, 1)}
}

// Events is the consumer side. It is closed after the terminal event.
func (e *Emitter) Events() <-chan domain.ProgressEvent {
	return e.ch
}

func (e *Emitter) Progress(ctx context.Context, message string) {
	e.emit(ctx, domain.ProgressEvent{Kind: domain.EventProgress, Message: message})
}

// Result emits the terminal success event.
func (e *Emitter) Result(ctx context.Context, message string, res *domain.Result) {
	e.emit(ctx, domain.ProgressEvent{Kind: domain.EventResult, Message: message, Payload: res})
}

// Error emits the terminal failure event.
func (e *Emitter) Error(ctx context.Context, message string, err error) {
	e.emit(ctx, domain.ProgressEvent{Kind: domain.EventError, Message: message, Err: err})
}

// StrategyError emits the terminal failure of the named strategy.
func (e *Emitter) StrategyError(ctx context.Context, strategy domain.StrategyKind, message string, err error) {
	e.emit(ctx, domain.ProgressEvent{Kind: domain.EventError, Message: message, Err: err, Strategy: strategy})
}

// Closed reports whether a terminal event has been emitted.
func (e *Emitter) Closed() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.closed
}

func (e *Emitter) emit(ctx context.Context, ev domain.ProgressEvent) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return false
	}
	terminal := ev.Kind.Terminal()
	if terminal {
		e.closed = true
		defer close(e.ch)
	}
	select {
	case e.ch <- ev:
		return true
	default:
	}
	select {
	case e.ch <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}
