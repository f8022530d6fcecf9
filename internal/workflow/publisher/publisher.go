// Package publisher forwards committed workflow events to downstream
// consumers (notification fan-out, dashboards). Delivery is best-effort
// and decoupled from the transition commit: the event log in postgres is
// the source of truth, the stream is a projection of it.
package publisher

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"crewops/internal/workflow"
	"crewops/internal/workflow/metrics"
)

const drainTimeout = 5 * time.Second

// Sink delivers a single event to a transport.
type Sink interface {
	Deliver(ctx context.Context, event workflow.Event) error
}

// Publisher buffers events and hands them to a Sink. With an async
// buffer, Publish never blocks the request path; Close drains whatever
// is queued before returning.
type Publisher struct {
	sink    Sink
	metrics *metrics.Metrics
	logger  *slog.Logger

	inbox chan workflow.Event
	done  chan struct{}
	once  sync.Once
}

type Option func(*Publisher)

// WithAsyncBuffer switches the publisher to asynchronous delivery with
// the given queue depth. Events beyond the depth are dropped rather than
// blocking a transition.
func WithAsyncBuffer(size int) Option {
	return func(p *Publisher) {
		p.inbox = make(chan workflow.Event, size)
	}
}

func NewPublisher(sink Sink, m *metrics.Metrics, logger *slog.Logger, opts ...Option) *Publisher {
	p := &Publisher{
		sink:    sink,
		metrics: m,
		logger:  logger,
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.inbox != nil {
		go p.run()
	} else {
		close(p.done)
	}
	return p
}

// Publish enqueues the event. In sync mode it delivers inline.
func (p *Publisher) Publish(ctx context.Context, event workflow.Event) {
	if p.inbox == nil {
		p.deliver(ctx, event)
		return
	}
	select {
	case p.inbox <- event:
	default:
		p.metrics.PublishError()
		p.logger.Warn("event publish queue full, dropping event",
			slog.String("process_id", event.ProcessID.String()),
			slog.String("action", string(event.Action)),
		)
	}
}

func (p *Publisher) run() {
	defer close(p.done)
	for event := range p.inbox {
		ctx, cancel := context.WithTimeout(context.Background(), drainTimeout)
		p.deliver(ctx, event)
		cancel()
	}
}

func (p *Publisher) deliver(ctx context.Context, event workflow.Event) {
	if err := p.sink.Deliver(ctx, event); err != nil {
		p.metrics.PublishError()
		p.logger.Error("event delivery failed",
			slog.String("process_id", event.ProcessID.String()),
			slog.String("action", string(event.Action)),
			slog.String("error", err.Error()),
		)
		return
	}
	p.metrics.EventPublished()
}

// Close stops accepting events and drains the queue.
func (p *Publisher) Close() {
	p.once.Do(func() {
		if p.inbox != nil {
			close(p.inbox)
		}
		select {
		case <-p.done:
		case <-time.After(drainTimeout):
			p.logger.Warn("event publisher close timed out before drain completed")
		}
	})
}
