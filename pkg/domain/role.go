package domain

// Role tags an actor with their position in the approval hierarchy. The
// workflow transition tables are keyed on these values, so the set is
// closed: unknown roles never match a permitted-action entry.
type Role string

const (
	// RoleEmployee is any staff member acting on their own requests.
	RoleEmployee Role = "employee"

	// RoleHR reviews leave requests at the first stage.
	RoleHR Role = "hr"

	// RoleTeamLead (L7) owns the conflict-gated leave decision and drafts
	// ESP packages.
	RoleTeamLead Role = "team_lead"

	// RoleL6 is the principal level reviewing escalated leaves and ESP
	// packages.
	RoleL6 Role = "l6"

	// RoleProjectManager makes the final ESP call.
	RoleProjectManager Role = "project_manager"

	// RoleAdmin bypasses role gates for operational recovery. The
	// transition tables still apply; only the role check is waived.
	RoleAdmin Role = "admin"
)

// Valid reports whether the role is part of the closed set.
func (r Role) Valid() bool {
	switch r {
	case RoleEmployee, RoleHR, RoleTeamLead, RoleL6, RoleProjectManager, RoleAdmin:
		return true
	}
	return false
}

// Actor couples an employee identity with the role it acts under for a
// single workflow call.
type Actor struct {
	ID   EmployeeID
	Role Role
}
