// Package store provides the PostgreSQL and in-memory implementations of
// the org-data read contract.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"crewops/internal/orgdata"
	"crewops/pkg/domain"
	"crewops/pkg/platform/sentinel"
	platformstrings "crewops/pkg/platform/strings"
)

// PostgresGateway reads organizational snapshots from PostgreSQL.
type PostgresGateway struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed org-data gateway.
func NewPostgres(db *sql.DB) *PostgresGateway {
	return &PostgresGateway{db: db}
}

func (g *PostgresGateway) EmployeeIncidents(ctx context.Context, employeeID domain.EmployeeID) ([]orgdata.Incident, error) {
	query := `
		SELECT severity, status
		FROM incidents
		WHERE assignee_id = $1 AND status <> 'resolved'
	`
	rows, err := g.db.QueryContext(ctx, query, uuid.UUID(employeeID))
	if err != nil {
		return nil, fmt.Errorf("query employee incidents: %w", err)
	}
	defer rows.Close()

	var incidents []orgdata.Incident
	for rows.Next() {
		var incident orgdata.Incident
		var severity string
		if err := rows.Scan(&severity, &incident.Status); err != nil {
			return nil, fmt.Errorf("scan incident: %w", err)
		}
		incident.Severity = orgdata.IncidentSeverity(severity)
		incidents = append(incidents, incident)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate incidents: %w", err)
	}
	return incidents, nil
}

func (g *PostgresGateway) EmployeeTasks(ctx context.Context, employeeID domain.EmployeeID, window orgdata.DateRange) ([]orgdata.Task, error) {
	query := `
		SELECT priority, status
		FROM tasks
		WHERE assignee_id = $1
		  AND status <> 'completed'
		  AND start_date <= $3
		  AND end_date >= $2
	`
	rows, err := g.db.QueryContext(ctx, query, uuid.UUID(employeeID), window.Start, window.End)
	if err != nil {
		return nil, fmt.Errorf("query employee tasks: %w", err)
	}
	defer rows.Close()

	var tasks []orgdata.Task
	for rows.Next() {
		var priority, status string
		if err := rows.Scan(&priority, &status); err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, orgdata.Task{
			Priority: orgdata.TaskPriority(priority),
			Status:   orgdata.TaskStatus(status),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tasks: %w", err)
	}
	return tasks, nil
}

func (g *PostgresGateway) EmployeeProfile(ctx context.Context, employeeID domain.EmployeeID) (orgdata.SkillProfile, error) {
	query := `
		SELECT skills, workload_percent
		FROM employees
		WHERE id = $1
	`
	var skillsRaw []byte
	profile := orgdata.SkillProfile{EmployeeID: employeeID}
	err := g.db.QueryRowContext(ctx, query, uuid.UUID(employeeID)).Scan(&skillsRaw, &profile.WorkloadPercent)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return orgdata.SkillProfile{}, sentinel.ErrNotFound
		}
		return orgdata.SkillProfile{}, fmt.Errorf("query employee profile: %w", err)
	}
	if err := json.Unmarshal(skillsRaw, &profile.Skills); err != nil {
		return orgdata.SkillProfile{}, fmt.Errorf("decode employee skills: %w", err)
	}
	// Skill tags arrive free-form from HR imports; duplicates would skew
	// the match ratio.
	profile.Skills = platformstrings.DedupeAndTrim(profile.Skills)
	return profile, nil
}

func (g *PostgresGateway) ProjectRequiredSkills(ctx context.Context, projectID domain.ProjectID) ([]orgdata.RequiredSkill, error) {
	query := `
		SELECT skill, hours_needed
		FROM project_required_skills
		WHERE project_id = $1
		ORDER BY skill
	`
	rows, err := g.db.QueryContext(ctx, query, uuid.UUID(projectID))
	if err != nil {
		return nil, fmt.Errorf("query project required skills: %w", err)
	}
	defer rows.Close()

	var skills []orgdata.RequiredSkill
	for rows.Next() {
		var skill orgdata.RequiredSkill
		if err := rows.Scan(&skill.Skill, &skill.HoursNeeded); err != nil {
			return nil, fmt.Errorf("scan required skill: %w", err)
		}
		skills = append(skills, skill)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate required skills: %w", err)
	}
	return skills, nil
}

func (g *PostgresGateway) TeamSnapshot(ctx context.Context, teamID domain.TeamID) ([]orgdata.TeamMember, error) {
	query := `
		SELECT id, skills, weekly_capacity, assigned_hours
		FROM employees
		WHERE team_id = $1 AND status = 'active'
		ORDER BY id
	`
	rows, err := g.db.QueryContext(ctx, query, uuid.UUID(teamID))
	if err != nil {
		return nil, fmt.Errorf("query team snapshot: %w", err)
	}
	defer rows.Close()

	var members []orgdata.TeamMember
	for rows.Next() {
		var member orgdata.TeamMember
		var memberID uuid.UUID
		var skillsRaw []byte
		if err := rows.Scan(&memberID, &skillsRaw, &member.WeeklyCapacity, &member.AssignedHours); err != nil {
			return nil, fmt.Errorf("scan team member: %w", err)
		}
		if err := json.Unmarshal(skillsRaw, &member.Skills); err != nil {
			return nil, fmt.Errorf("decode member skills: %w", err)
		}
		member.Skills = platformstrings.DedupeAndTrim(member.Skills)
		member.EmployeeID = domain.EmployeeID(memberID)
		members = append(members, member)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate team members: %w", err)
	}
	return members, nil
}

func (g *PostgresGateway) ActiveEmployees(ctx context.Context) ([]domain.EmployeeID, error) {
	query := `
		SELECT id
		FROM employees
		WHERE status = 'active'
		ORDER BY id
	`
	rows, err := g.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query active employees: %w", err)
	}
	defer rows.Close()

	return scanEmployeeIDs(rows)
}

func (g *PostgresGateway) EmployeesOutsideTeam(ctx context.Context, teamID domain.TeamID, skill string, maxWorkload float64) ([]domain.EmployeeID, error) {
	query := `
		SELECT id
		FROM employees
		WHERE (team_id IS DISTINCT FROM $1)
		  AND status = 'active'
		  AND workload_percent < $2
		  AND skills @> $3
		ORDER BY id
	`
	skillJSON, err := json.Marshal([]string{skill})
	if err != nil {
		return nil, fmt.Errorf("encode skill filter: %w", err)
	}
	rows, err := g.db.QueryContext(ctx, query, uuid.UUID(teamID), maxWorkload, skillJSON)
	if err != nil {
		return nil, fmt.Errorf("query employees outside team: %w", err)
	}
	defer rows.Close()

	return scanEmployeeIDs(rows)
}

func scanEmployeeIDs(rows *sql.Rows) ([]domain.EmployeeID, error) {
	var ids []domain.EmployeeID
	for rows.Next() {
		var employeeID uuid.UUID
		if err := rows.Scan(&employeeID); err != nil {
			return nil, fmt.Errorf("scan employee id: %w", err)
		}
		ids = append(ids, domain.EmployeeID(employeeID))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate employee ids: %w", err)
	}
	return ids, nil
}
