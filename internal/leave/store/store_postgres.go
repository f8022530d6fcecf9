// Package store persists leave requests. Status changes write through
// the transaction carried in the context so the request row and its
// workflow event commit together.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"crewops/internal/leave"
	"crewops/internal/orgdata"
	"crewops/internal/workflow"
	"crewops/pkg/domain"
	"crewops/pkg/platform/sentinel"
	"crewops/pkg/platform/tx"
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, req leave.Request) error {
	const query = `
		INSERT INTO leave_requests (
			id, employee_id, leave_type, start_date, end_date, days,
			status, conflict_severity, decision_notes, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	exec := tx.Resolve(ctx, s.db)
	_, err := exec.ExecContext(ctx, query,
		uuid.UUID(req.ID),
		uuid.UUID(req.EmployeeID),
		string(req.Type),
		req.Window.Start,
		req.Window.End,
		req.Days,
		string(req.Status),
		string(req.ConflictSeverity),
		req.DecisionNotes,
		req.CreatedAt.UTC(),
		req.UpdatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert leave request: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, id domain.LeaveID) (leave.Request, error) {
	const query = `
		SELECT id, employee_id, leave_type, start_date, end_date, days,
		       status, conflict_severity, alternate_id, decision_notes,
		       hr_reviewer, team_lead_reviewer, l6_reviewer,
		       created_at, updated_at
		FROM leave_requests
		WHERE id = $1`

	exec := tx.Resolve(ctx, s.db)
	req, err := scanRequest(exec.QueryRowContext(ctx, query, uuid.UUID(id)))
	if errors.Is(err, sql.ErrNoRows) {
		return leave.Request{}, fmt.Errorf("leave request %s: %w", id, sentinel.ErrNotFound)
	}
	if err != nil {
		return leave.Request{}, err
	}
	return req, nil
}

// Update writes the mutable decision fields. The immutable submission
// fields (employee, type, window) never change after Create.
func (s *PostgresStore) Update(ctx context.Context, req leave.Request) error {
	const query = `
		UPDATE leave_requests
		SET status = $2,
		    conflict_severity = $3,
		    alternate_id = $4,
		    decision_notes = $5,
		    hr_reviewer = $6,
		    team_lead_reviewer = $7,
		    l6_reviewer = $8,
		    updated_at = $9
		WHERE id = $1`

	exec := tx.Resolve(ctx, s.db)
	result, err := exec.ExecContext(ctx, query,
		uuid.UUID(req.ID),
		string(req.Status),
		string(req.ConflictSeverity),
		nullableID(req.Alternate),
		req.DecisionNotes,
		nullableID(req.HRReviewer),
		nullableID(req.TeamLeadReviewer),
		nullableID(req.L6Reviewer),
		req.UpdatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("update leave request: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update leave request: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("leave request %s: %w", req.ID, sentinel.ErrNotFound)
	}
	return nil
}

func (s *PostgresStore) ListByStatus(ctx context.Context, status workflow.State) ([]leave.Request, error) {
	const query = `
		SELECT id, employee_id, leave_type, start_date, end_date, days,
		       status, conflict_severity, alternate_id, decision_notes,
		       hr_reviewer, team_lead_reviewer, l6_reviewer,
		       created_at, updated_at
		FROM leave_requests
		WHERE status = $1
		ORDER BY created_at ASC`

	exec := tx.Resolve(ctx, s.db)
	rows, err := exec.QueryContext(ctx, query, string(status))
	if err != nil {
		return nil, fmt.Errorf("query leave requests: %w", err)
	}
	defer rows.Close()

	var requests []leave.Request
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		requests = append(requests, req)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate leave requests: %w", err)
	}
	return requests, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRequest(row rowScanner) (leave.Request, error) {
	var (
		req       leave.Request
		id        uuid.UUID
		employee  uuid.UUID
		leaveType string
		start     time.Time
		end       time.Time
		status    string
		severity  string
		alternate uuid.NullUUID
		hr        uuid.NullUUID
		lead      uuid.NullUUID
		l6        uuid.NullUUID
	)
	err := row.Scan(&id, &employee, &leaveType, &start, &end, &req.Days,
		&status, &severity, &alternate, &req.DecisionNotes,
		&hr, &lead, &l6, &req.CreatedAt, &req.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return leave.Request{}, err
		}
		return leave.Request{}, fmt.Errorf("scan leave request: %w", err)
	}

	req.ID = domain.LeaveID(id)
	req.EmployeeID = domain.EmployeeID(employee)
	req.Type = leave.Type(leaveType)
	req.Window = orgdata.DateRange{Start: start, End: end}
	req.Status = workflow.State(status)
	req.ConflictSeverity = leave.ConflictSeverity(severity)
	req.Alternate = employeeIDPtr(alternate)
	req.HRReviewer = employeeIDPtr(hr)
	req.TeamLeadReviewer = employeeIDPtr(lead)
	req.L6Reviewer = employeeIDPtr(l6)
	return req, nil
}

func nullableID(id *domain.EmployeeID) uuid.NullUUID {
	if id == nil {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: uuid.UUID(*id), Valid: true}
}

func employeeIDPtr(id uuid.NullUUID) *domain.EmployeeID {
	if !id.Valid {
		return nil
	}
	out := domain.EmployeeID(id.UUID)
	return &out
}
