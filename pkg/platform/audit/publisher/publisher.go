// Package publisher fans audit events out to the store and any configured
// sinks. Synchronous by default; an async buffer decouples emitters from
// storage latency when configured.
package publisher

import (
	"context"
	"log/slog"
	"sync"
	"time"

	audit "atelier/pkg/platform/audit"
)

type Publisher struct {
	store  audit.Store
	sinks  []audit.Sink
	logger *slog.Logger
	clock  func() time.Time

	inbox  chan audit.Event
	wg     sync.WaitGroup
	closed sync.Once
}

type Option func(*Publisher)

// WithAsyncBuffer switches Emit to a buffered channel drained by a background
// worker. Events are dropped (and logged) when the buffer is full so emitters
// never block on audit delivery.
func WithAsyncBuffer(size int) Option {
	return func(p *Publisher) {
		if size > 0 {
			p.inbox = make(chan audit.Event, size)
		}
	}
}

// WithSink adds an out-of-process delivery target alongside the store.
func WithSink(sink audit.Sink) Option {
	return func(p *Publisher) {
		if sink != nil {
			p.sinks = append(p.sinks, sink)
		}
	}
}

// WithLogger overrides the default logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		if logger != nil {
			p.logger = logger
		}
	}
}

func NewPublisher(store audit.Store, opts ...Option) *Publisher {
	p := &Publisher{
		store:  store,
		logger: slog.Default(),
		clock:  time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}
	if p.inbox != nil {
		p.wg.Add(1)
		go p.drain()
	}
	return p
}

// Emit records an event. In async mode delivery is best-effort; in sync mode
// a store failure propagates to the caller.
func (p *Publisher) Emit(ctx context.Context, event audit.Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = p.clock()
	}

	if p.inbox != nil {
		select {
		case p.inbox <- event:
		default:
			p.logger.Warn("audit buffer full, dropping event", "action", event.Action)
		}
		return nil
	}

	return p.deliver(ctx, event)
}

// List exposes the store's per-user view, mostly for tests and admin tooling.
func (p *Publisher) List(ctx context.Context, userID string) ([]audit.Event, error) {
	return p.store.ListByUser(ctx, userID)
}

// Close stops the background worker (if any), flushes pending events, and
// closes all sinks.
func (p *Publisher) Close() {
	p.closed.Do(func() {
		if p.inbox != nil {
			close(p.inbox)
			p.wg.Wait()
		}
		for _, sink := range p.sinks {
			if err := sink.Close(); err != nil {
				p.logger.Warn("audit sink close failed", "error", err)
			}
		}
	})
}

func (p *Publisher) drain() {
	defer p.wg.Done()
	for event := range p.inbox {
		if err := p.deliver(context.Background(), event); err != nil {
			p.logger.Warn("audit delivery failed", "action", event.Action, "error", err)
		}
	}
}

func (p *Publisher) deliver(ctx context.Context, event audit.Event) error {
	if err := p.store.Append(ctx, event); err != nil {
		return err
	}
	for _, sink := range p.sinks {
		if err := sink.Write(ctx, event); err != nil {
			// Sink failures must not fail the action being audited.
			p.logger.Warn("audit sink write failed", "action", event.Action, "error", err)
		}
	}
	return nil
}
