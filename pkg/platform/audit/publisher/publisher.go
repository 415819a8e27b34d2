// Package publisher delivers activity events to an audit.Store on a
// best-effort basis. Callers never roll back domain work because of an
// audit failure; they log it and move on.
package publisher

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	id "bloodlink/pkg/domain"
	audit "bloodlink/pkg/platform/audit"
	"bloodlink/pkg/platform/circuit"
)

var (
	// ErrBufferFull is returned by Emit in async mode when the buffer has no room.
	ErrBufferFull = errors.New("audit buffer full")
	// ErrCircuitOpen is returned while the store is considered unhealthy.
	ErrCircuitOpen = errors.New("audit store circuit open")
	// ErrClosed is returned by Emit after Close.
	ErrClosed = errors.New("audit publisher closed")
)

const persistTimeout = 5 * time.Second

// Publisher persists events synchronously, or through a bounded buffer
// drained by a single goroutine when WithAsyncBuffer is set.
type Publisher struct {
	store   audit.Store
	logger  *slog.Logger
	metrics *Metrics
	breaker *circuit.Breaker

	bufferSize int
	buffer     chan audit.Event
	wg         sync.WaitGroup

	mu     sync.RWMutex
	closed bool
}

type Option func(*Publisher)

// WithAsyncBuffer switches Emit to non-blocking mode with a buffer of n events.
func WithAsyncBuffer(n int) Option {
	return func(p *Publisher) {
		if n > 0 {
			p.bufferSize = n
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		p.logger = logger
	}
}

func WithMetrics(m *Metrics) Option {
	return func(p *Publisher) {
		p.metrics = m
	}
}

func WithCircuitBreaker(b *circuit.Breaker) Option {
	return func(p *Publisher) {
		p.breaker = b
	}
}

func NewPublisher(store audit.Store, opts ...Option) *Publisher {
	p := &Publisher{
		store:   store,
		logger:  slog.Default(),
		breaker: circuit.New("audit_store", circuit.WithFailureThreshold(5), circuit.WithCooldown(30*time.Second)),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.bufferSize > 0 {
		p.buffer = make(chan audit.Event, p.bufferSize)
		p.wg.Add(1)
		go p.drain()
	}
	return p
}

// Emit records an event. Timestamp defaults to now.
func (p *Publisher) Emit(ctx context.Context, event audit.Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrClosed
	}

	if p.buffer == nil {
		return p.persist(ctx, event)
	}

	select {
	case p.buffer <- event:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		p.metrics.IncDropped("buffer_full")
		return ErrBufferFull
	}
}

// List returns the actor's most recent events.
func (p *Publisher) List(ctx context.Context, actorID id.UserID) ([]audit.Event, error) {
	return p.store.ListByActor(ctx, actorID, 0)
}

// Close stops accepting events and waits for the buffer to drain.
func (p *Publisher) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	if p.buffer != nil {
		close(p.buffer)
	}
	p.mu.Unlock()
	p.wg.Wait()
}

func (p *Publisher) drain() {
	defer p.wg.Done()
	for event := range p.buffer {
		ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		if err := p.persist(ctx, event); err != nil {
			p.logger.Warn("failed to persist activity event",
				"action", event.Action,
				"error", err,
			)
		}
		cancel()
	}
}

func (p *Publisher) persist(ctx context.Context, event audit.Event) error {
	if !p.breaker.Allow() {
		p.metrics.IncDropped("circuit_open")
		return ErrCircuitOpen
	}

	start := time.Now()
	err := p.store.Append(ctx, event)
	p.metrics.ObservePersist(time.Since(start))
	if err != nil {
		p.metrics.IncFailure()
		if _, change := p.breaker.RecordFailure(); change.Opened {
			p.metrics.SetCircuitOpen(true)
			p.logger.Error("audit store circuit opened", "error", err)
		}
		return err
	}
	if _, change := p.breaker.RecordSuccess(); change.Closed {
		p.metrics.SetCircuitOpen(false)
		p.logger.Info("audit store circuit closed")
	}
	p.metrics.IncPersisted(event.Action)
	return nil
}
