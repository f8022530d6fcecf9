// Package domain defines the typed identifiers shared across the core.
//
// Every entity reference is a distinct UUID-backed type so the compiler
// rejects cross-entity mixups (passing an EmployeeID where a ProjectID is
// expected). Parsing is centralized here and enforces the invariant that
// IDs are valid, non-nil UUIDs.
package domain

import (
	"github.com/google/uuid"

	dErrors "crewops/pkg/domain-errors"
)

type (
	// EmployeeID identifies a person in the employee directory.
	EmployeeID uuid.UUID

	// ProjectID identifies a project.
	ProjectID uuid.UUID

	// TeamID identifies a tech team.
	TeamID uuid.UUID

	// LeaveID identifies a leave request.
	LeaveID uuid.UUID

	// PackageID identifies an ESP staffing package.
	PackageID uuid.UUID

	// SimulationID identifies a single simulation run.
	SimulationID uuid.UUID

	// ProcessID identifies a workflow instance. Leave requests and ESP
	// packages share the workflow event log, so both LeaveID and PackageID
	// convert to ProcessID when talking to the engine.
	ProcessID uuid.UUID
)

func (id EmployeeID) String() string   { return uuid.UUID(id).String() }
func (id ProjectID) String() string    { return uuid.UUID(id).String() }
func (id TeamID) String() string       { return uuid.UUID(id).String() }
func (id LeaveID) String() string      { return uuid.UUID(id).String() }
func (id PackageID) String() string    { return uuid.UUID(id).String() }
func (id SimulationID) String() string { return uuid.UUID(id).String() }
func (id ProcessID) String() string    { return uuid.UUID(id).String() }

func (id EmployeeID) IsNil() bool   { return uuid.UUID(id) == uuid.Nil }
func (id ProjectID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }
func (id TeamID) IsNil() bool       { return uuid.UUID(id) == uuid.Nil }
func (id LeaveID) IsNil() bool      { return uuid.UUID(id) == uuid.Nil }
func (id PackageID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }
func (id SimulationID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id ProcessID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }

// Process converts a leave id to its workflow process id.
func (id LeaveID) Process() ProcessID { return ProcessID(id) }

// Process converts a package id to its workflow process id.
func (id PackageID) Process() ProcessID { return ProcessID(id) }

func parseUUID(raw string) (uuid.UUID, error) {
	if raw == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id must not be empty")
	}
	parsed, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id must be a valid UUID")
	}
	if parsed == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id must not be the nil UUID")
	}
	return parsed, nil
}

// ParseEmployeeID parses and validates an employee id.
func ParseEmployeeID(raw string) (EmployeeID, error) {
	parsed, err := parseUUID(raw)
	return EmployeeID(parsed), err
}

// ParseProjectID parses and validates a project id.
func ParseProjectID(raw string) (ProjectID, error) {
	parsed, err := parseUUID(raw)
	return ProjectID(parsed), err
}

// ParseTeamID parses and validates a team id.
func ParseTeamID(raw string) (TeamID, error) {
	parsed, err := parseUUID(raw)
	return TeamID(parsed), err
}

// ParseLeaveID parses and validates a leave request id.
func ParseLeaveID(raw string) (LeaveID, error) {
	parsed, err := parseUUID(raw)
	return LeaveID(parsed), err
}

// ParsePackageID parses and validates an ESP package id.
func ParsePackageID(raw string) (PackageID, error) {
	parsed, err := parseUUID(raw)
	return PackageID(parsed), err
}

// ParseProcessID parses and validates a workflow process id.
func ParseProcessID(raw string) (ProcessID, error) {
	parsed, err := parseUUID(raw)
	return ProcessID(parsed), err
}
