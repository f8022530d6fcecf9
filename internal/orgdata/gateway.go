package orgdata

import (
	"context"

	"crewops/pkg/domain"
)

// Gateway is the read contract the decision components consume. All
// methods are snapshot reads against external organizational state; the
// core never mutates through this interface.
//
// Implementations return missing rows as sentinel.ErrNotFound (wrapped)
// and pass transport failures through; callers map both into the
// data-source error taxonomy.
type Gateway interface {
	// EmployeeIncidents returns the employee's open incidents.
	EmployeeIncidents(ctx context.Context, employeeID domain.EmployeeID) ([]Incident, error)

	// EmployeeTasks returns the employee's non-completed tasks whose
	// window intersects the given range.
	EmployeeTasks(ctx context.Context, employeeID domain.EmployeeID, window DateRange) ([]Task, error)

	// EmployeeProfile returns the employee's skills and current workload.
	EmployeeProfile(ctx context.Context, employeeID domain.EmployeeID) (SkillProfile, error)

	// ProjectRequiredSkills returns the project's staffing demand.
	ProjectRequiredSkills(ctx context.Context, projectID domain.ProjectID) ([]RequiredSkill, error)

	// TeamSnapshot returns the team's member capacity rows.
	TeamSnapshot(ctx context.Context, teamID domain.TeamID) ([]TeamMember, error)

	// ActiveEmployees enumerates active employees, the candidate pool for
	// alternate search.
	ActiveEmployees(ctx context.Context) ([]domain.EmployeeID, error)

	// EmployeesOutsideTeam returns active employees not on the team who
	// list the skill and sit under the workload ceiling (percent).
	EmployeesOutsideTeam(ctx context.Context, teamID domain.TeamID, skill string, maxWorkload float64) ([]domain.EmployeeID, error)
}
