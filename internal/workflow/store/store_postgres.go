// Package store persists the workflow event log. The log is insert-only:
// there is no update or delete path, by construction.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"crewops/internal/workflow"
	"crewops/pkg/domain"
	"crewops/pkg/platform/tx"
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Append(ctx context.Context, event workflow.Event) error {
	payload, err := json.Marshal(event.Payload)
	if err != nil {
		return fmt.Errorf("marshal event payload: %w", err)
	}

	const query = `
		INSERT INTO workflow_events (
			id, process_id, kind, from_state, to_state, action,
			actor_id, actor_role, occurred_at, payload
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	exec := tx.Resolve(ctx, s.db)
	_, err = exec.ExecContext(ctx, query,
		event.ID,
		event.ProcessID.String(),
		string(event.Kind),
		string(event.FromState),
		string(event.ToState),
		string(event.Action),
		event.ActorID.String(),
		string(event.ActorRole),
		event.OccurredAt.UTC(),
		payload,
	)
	if err != nil {
		return fmt.Errorf("insert workflow event: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListByProcess(ctx context.Context, processID domain.ProcessID) ([]workflow.Event, error) {
	const query = `
		SELECT id, process_id, kind, from_state, to_state, action,
		       actor_id, actor_role, occurred_at, payload
		FROM workflow_events
		WHERE process_id = $1
		ORDER BY occurred_at ASC, id ASC`

	exec := tx.Resolve(ctx, s.db)
	rows, err := exec.QueryContext(ctx, query, processID.String())
	if err != nil {
		return nil, fmt.Errorf("query workflow events: %w", err)
	}
	defer rows.Close()

	var events []workflow.Event
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate workflow events: %w", err)
	}
	return events, nil
}

func scanEvent(rows *sql.Rows) (workflow.Event, error) {
	var (
		event      workflow.Event
		processID  string
		kind       string
		fromState  string
		toState    string
		action     string
		actorID    uuid.UUID
		actorRole  string
		occurredAt time.Time
		payload    []byte
	)
	if err := rows.Scan(&event.ID, &processID, &kind, &fromState, &toState,
		&action, &actorID, &actorRole, &occurredAt, &payload); err != nil {
		return workflow.Event{}, fmt.Errorf("scan workflow event: %w", err)
	}

	parsed, err := domain.ParseProcessID(processID)
	if err != nil {
		return workflow.Event{}, fmt.Errorf("stored process id %q: %w", processID, err)
	}
	event.ProcessID = parsed
	event.Kind = workflow.ProcessKind(kind)
	event.FromState = workflow.State(fromState)
	event.ToState = workflow.State(toState)
	event.Action = workflow.Action(action)
	event.ActorID = domain.EmployeeID(actorID)
	event.ActorRole = domain.Role(actorRole)
	event.OccurredAt = occurredAt

	if err := json.Unmarshal(payload, &event.Payload); err != nil {
		return workflow.Event{}, fmt.Errorf("unmarshal event payload: %w", err)
	}
	return event, nil
}
