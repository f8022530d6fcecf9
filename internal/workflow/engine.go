package workflow

import (
	"context"
	"hash/fnv"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"crewops/internal/workflow/metrics"
	"crewops/pkg/domain"
	dErrors "crewops/pkg/domain-errors"
	"crewops/pkg/requestcontext"
)

const lockShards = 128

// EventStore persists the append-only transition log. Append runs inside
// the same transaction as the entity state change (via pkg/platform/tx).
type EventStore interface {
	Append(ctx context.Context, event Event) error
	ListByProcess(ctx context.Context, processID domain.ProcessID) ([]Event, error)
}

// TxRunner scopes a function to a single database transaction. The
// transaction is carried in the context so the entity store and the
// event store commit atomically.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Publisher forwards committed events to downstream consumers
// (notifications, dashboards). Best-effort: publish failures never roll
// back the transition.
type Publisher interface {
	Publish(ctx context.Context, event Event)
}

// LoadFunc reads the process's current state. Called inside the
// per-process lock so concurrent transitions observe each other.
type LoadFunc func(ctx context.Context) (State, error)

// DecideFunc resolves a hook-gated rule: it returns the target state and
// any payload the decision produced. An error aborts the transition with
// no state change and no event.
type DecideFunc func(ctx context.Context) (State, Payload, error)

// ApplyFunc writes the new state onto the owning entity. Runs inside the
// commit transaction.
type ApplyFunc func(ctx context.Context, next State) error

// Request describes one transition attempt.
type Request struct {
	Definition *Definition
	ProcessID  domain.ProcessID
	Action     Action
	Actor      domain.Actor
	Payload    Payload

	Load  LoadFunc
	Apply ApplyFunc

	// Decide is required when the resolved rule carries a hook, ignored
	// otherwise.
	Decide DecideFunc
}

// Result reports a committed transition.
type Result struct {
	From  State
	To    State
	Event Event
}

// Engine executes transitions. Concurrent transitions on the same
// process are serialized through sharded locks; distinct processes
// proceed in parallel.
type Engine struct {
	events    EventStore
	tx        TxRunner
	publisher Publisher
	metrics   *metrics.Metrics
	logger    *slog.Logger
	tracer    trace.Tracer

	locks [lockShards]sync.Mutex
}

func NewEngine(events EventStore, tx TxRunner, publisher Publisher, m *metrics.Metrics, logger *slog.Logger) *Engine {
	return &Engine{
		events:    events,
		tx:        tx,
		publisher: publisher,
		metrics:   m,
		logger:    logger,
		tracer:    otel.Tracer("crewops/workflow"),
	}
}

func (e *Engine) lockFor(processID domain.ProcessID) *sync.Mutex {
	h := fnv.New32a()
	h.Write([]byte(processID.String()))
	return &e.locks[h.Sum32()%lockShards]
}

// Transition validates, authorizes, and commits one action. The sequence
// is: acquire the process lock, load current state, look up the rule,
// check the actor's role, run the decision hook if any, then commit the
// entity update and the audit event in one transaction.
func (e *Engine) Transition(ctx context.Context, req Request) (Result, error) {
	ctx, span := e.tracer.Start(ctx, "workflow.Transition",
		trace.WithAttributes(
			attribute.String("workflow.kind", string(req.Definition.Kind)),
			attribute.String("workflow.action", string(req.Action)),
		))
	defer span.End()

	start := time.Now()
	result, err := e.transition(ctx, req)
	e.metrics.ObserveTransition(string(req.Definition.Kind), string(req.Action), outcomeLabel(err), time.Since(start))
	if err != nil {
		return Result{}, err
	}

	e.logger.InfoContext(ctx, "workflow transition committed",
		slog.String("request_id", requestcontext.RequestID(ctx)),
		slog.String("process_id", req.ProcessID.String()),
		slog.String("kind", string(req.Definition.Kind)),
		slog.String("action", string(req.Action)),
		slog.String("from", string(result.From)),
		slog.String("to", string(result.To)),
		slog.String("actor_role", string(req.Actor.Role)),
	)
	if e.publisher != nil {
		e.publisher.Publish(ctx, result.Event)
	}
	return result, nil
}

func (e *Engine) transition(ctx context.Context, req Request) (Result, error) {
	mu := e.lockFor(req.ProcessID)
	mu.Lock()
	defer mu.Unlock()

	if err := ctx.Err(); err != nil {
		return Result{}, dErrors.Wrap(dErrors.CodeTimeout, "transition abandoned", err)
	}

	current, err := req.Load(ctx)
	if err != nil {
		return Result{}, err
	}

	rule, err := req.Definition.Resolve(current, req.Action)
	if err != nil {
		return Result{}, err
	}
	if err := req.Definition.Authorize(rule, req.Actor); err != nil {
		return Result{}, err
	}

	next := rule.Next
	payload := req.Payload
	if rule.Hook != "" {
		if req.Decide == nil {
			return Result{}, dErrors.Newf(dErrors.CodeInternal,
				"no decision hook supplied for %s/%s", current, req.Action)
		}
		hookNext, hookPayload, err := req.Decide(ctx)
		if err != nil {
			return Result{}, err
		}
		next = hookNext
		payload = payload.merge(hookPayload)
	}

	event := Event{
		ID:         uuid.New(),
		ProcessID:  req.ProcessID,
		Kind:       req.Definition.Kind,
		FromState:  current,
		ToState:    next,
		Action:     req.Action,
		ActorID:    req.Actor.ID,
		ActorRole:  req.Actor.Role,
		OccurredAt: requestcontext.Now(ctx),
		Payload:    payload,
	}

	err = e.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if err := req.Apply(txCtx, next); err != nil {
			return err
		}
		return e.events.Append(txCtx, event)
	})
	if err != nil {
		return Result{}, err
	}

	return Result{From: current, To: next, Event: event}, nil
}

// History returns the full transition log for a process, oldest first.
func (e *Engine) History(ctx context.Context, processID domain.ProcessID) ([]Event, error) {
	return e.events.ListByProcess(ctx, processID)
}

func outcomeLabel(err error) string {
	switch {
	case err == nil:
		return "committed"
	case dErrors.HasCode(err, dErrors.CodeInvalidTransition):
		return "invalid_transition"
	case dErrors.HasCode(err, dErrors.CodeUnauthorizedActor):
		return "unauthorized"
	default:
		return "failed"
	}
}
