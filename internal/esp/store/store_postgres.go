// Package store persists staffing packages and their simulation runs.
// Simulations are insert-only: a re-run adds a new row and never touches
// prior results.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"crewops/internal/esp"
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

func (s *PostgresStore) Create(ctx context.Context, pkg esp.Package) error {
	exec := tx.Resolve(ctx, s.db)

	const pkgQuery = `
		INSERT INTO esp_packages (
			id, project_id, team_id, created_by, title, status,
			decision_notes, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := exec.ExecContext(ctx, pkgQuery,
		uuid.UUID(pkg.ID),
		uuid.UUID(pkg.ProjectID),
		uuid.UUID(pkg.TeamID),
		uuid.UUID(pkg.CreatedBy),
		pkg.Title,
		string(pkg.Status),
		pkg.DecisionNotes,
		pkg.CreatedAt.UTC(),
		pkg.UpdatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert esp package: %w", err)
	}

	const itemQuery = `
		INSERT INTO esp_line_items (id, package_id, skill, positions, level, priority)
		VALUES ($1, $2, $3, $4, $5, $6)`
	for _, item := range pkg.LineItems {
		if _, err := exec.ExecContext(ctx, itemQuery,
			item.ID, uuid.UUID(pkg.ID), item.Skill, item.Positions, item.Level, item.Priority,
		); err != nil {
			return fmt.Errorf("insert esp line item: %w", err)
		}
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, id domain.PackageID) (esp.Package, error) {
	exec := tx.Resolve(ctx, s.db)

	const pkgQuery = `
		SELECT id, project_id, team_id, created_by, title, status,
		       decision_notes, latest_simulation_id, decision,
		       created_at, updated_at
		FROM esp_packages
		WHERE id = $1`

	var (
		pkg        esp.Package
		pkgID      uuid.UUID
		projectID  uuid.UUID
		teamID     uuid.UUID
		createdBy  uuid.UUID
		status     string
		simulation uuid.NullUUID
		decision   []byte
	)
	err := exec.QueryRowContext(ctx, pkgQuery, uuid.UUID(id)).Scan(
		&pkgID, &projectID, &teamID, &createdBy, &pkg.Title, &status,
		&pkg.DecisionNotes, &simulation, &decision,
		&pkg.CreatedAt, &pkg.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return esp.Package{}, fmt.Errorf("esp package %s: %w", id, sentinel.ErrNotFound)
	}
	if err != nil {
		return esp.Package{}, fmt.Errorf("scan esp package: %w", err)
	}

	pkg.ID = domain.PackageID(pkgID)
	pkg.ProjectID = domain.ProjectID(projectID)
	pkg.TeamID = domain.TeamID(teamID)
	pkg.CreatedBy = domain.EmployeeID(createdBy)
	pkg.Status = workflow.State(status)
	if simulation.Valid {
		latest := domain.SimulationID(simulation.UUID)
		pkg.LatestSimulation = &latest
	}
	if len(decision) > 0 {
		pkg.Decision = &esp.Decision{}
		if err := json.Unmarshal(decision, pkg.Decision); err != nil {
			return esp.Package{}, fmt.Errorf("unmarshal esp decision: %w", err)
		}
	}

	items, err := s.lineItems(ctx, id)
	if err != nil {
		return esp.Package{}, err
	}
	pkg.LineItems = items
	return pkg, nil
}

func (s *PostgresStore) lineItems(ctx context.Context, id domain.PackageID) ([]esp.LineItem, error) {
	const query = `
		SELECT id, skill, positions, level, priority
		FROM esp_line_items
		WHERE package_id = $1
		ORDER BY skill ASC`

	exec := tx.Resolve(ctx, s.db)
	rows, err := exec.QueryContext(ctx, query, uuid.UUID(id))
	if err != nil {
		return nil, fmt.Errorf("query esp line items: %w", err)
	}
	defer rows.Close()

	var items []esp.LineItem
	for rows.Next() {
		var item esp.LineItem
		if err := rows.Scan(&item.ID, &item.Skill, &item.Positions, &item.Level, &item.Priority); err != nil {
			return nil, fmt.Errorf("scan esp line item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate esp line items: %w", err)
	}
	return items, nil
}

// Update writes the mutable package fields. Line items are fixed at
// creation; only status, decision, and simulation linkage move.
func (s *PostgresStore) Update(ctx context.Context, pkg esp.Package) error {
	var decision []byte
	if pkg.Decision != nil {
		var err error
		decision, err = json.Marshal(pkg.Decision)
		if err != nil {
			return fmt.Errorf("marshal esp decision: %w", err)
		}
	}

	var simulation uuid.NullUUID
	if pkg.LatestSimulation != nil {
		simulation = uuid.NullUUID{UUID: uuid.UUID(*pkg.LatestSimulation), Valid: true}
	}

	const query = `
		UPDATE esp_packages
		SET status = $2,
		    decision_notes = $3,
		    latest_simulation_id = $4,
		    decision = $5,
		    updated_at = $6
		WHERE id = $1`

	exec := tx.Resolve(ctx, s.db)
	result, err := exec.ExecContext(ctx, query,
		uuid.UUID(pkg.ID),
		string(pkg.Status),
		pkg.DecisionNotes,
		simulation,
		decision,
		pkg.UpdatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("update esp package: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update esp package: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("esp package %s: %w", pkg.ID, sentinel.ErrNotFound)
	}
	return nil
}

func (s *PostgresStore) SaveSimulation(ctx context.Context, result esp.SimulationResult) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshal simulation result: %w", err)
	}

	const query = `
		INSERT INTO esp_simulations (id, package_id, project_id, result, created_at)
		VALUES ($1, $2, $3, $4, $5)`

	exec := tx.Resolve(ctx, s.db)
	_, err = exec.ExecContext(ctx, query,
		uuid.UUID(result.ID),
		uuid.UUID(result.PackageID),
		uuid.UUID(result.ProjectID),
		payload,
		result.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert simulation result: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetSimulation(ctx context.Context, id domain.SimulationID) (esp.SimulationResult, error) {
	const query = `SELECT result FROM esp_simulations WHERE id = $1`

	exec := tx.Resolve(ctx, s.db)
	var payload []byte
	err := exec.QueryRowContext(ctx, query, uuid.UUID(id)).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return esp.SimulationResult{}, fmt.Errorf("simulation %s: %w", id, sentinel.ErrNotFound)
	}
	if err != nil {
		return esp.SimulationResult{}, fmt.Errorf("scan simulation result: %w", err)
	}

	var result esp.SimulationResult
	if err := json.Unmarshal(payload, &result); err != nil {
		return esp.SimulationResult{}, fmt.Errorf("unmarshal simulation result: %w", err)
	}
	return result, nil
}

// CountSimulationsByProject reports how many runs exist for the project
// across all packages. Feeds the confidence score's history bonus.
func (s *PostgresStore) CountSimulationsByProject(ctx context.Context, projectID domain.ProjectID) (int, error) {
	const query = `SELECT COUNT(*) FROM esp_simulations WHERE project_id = $1`

	exec := tx.Resolve(ctx, s.db)
	var count int
	if err := exec.QueryRowContext(ctx, query, uuid.UUID(projectID)).Scan(&count); err != nil {
		return 0, fmt.Errorf("count simulations: %w", err)
	}
	return count, nil
}
