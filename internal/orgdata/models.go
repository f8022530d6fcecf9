// Package orgdata exposes read-only organizational state to the decision
// components. It carries no business logic: the conflict rules and the
// staffing simulator interpret what these snapshots mean.
package orgdata

import (
	"time"

	"crewops/pkg/domain"
)

// IncidentSeverity is the closed severity set for incidents.
type IncidentSeverity string

const (
	IncidentLow      IncidentSeverity = "low"
	IncidentMedium   IncidentSeverity = "medium"
	IncidentHigh     IncidentSeverity = "high"
	IncidentCritical IncidentSeverity = "critical"
)

// Blocking reports whether the severity blocks leave approval outright.
func (s IncidentSeverity) Blocking() bool {
	return s == IncidentHigh || s == IncidentCritical
}

// Incident is an open incident assigned to an employee. Resolved
// incidents are filtered out at the gateway; everything returned here is
// still live.
type Incident struct {
	Severity IncidentSeverity
	Status   string
}

// TaskPriority is the closed priority set for tasks.
type TaskPriority string

const (
	TaskPriorityLow      TaskPriority = "low"
	TaskPriorityMedium   TaskPriority = "medium"
	TaskPriorityHigh     TaskPriority = "high"
	TaskPriorityCritical TaskPriority = "critical"
)

// TaskStatus is the closed status set for tasks.
type TaskStatus string

const (
	TaskStatusOpen      TaskStatus = "open"
	TaskStatusBlocked   TaskStatus = "blocked"
	TaskStatusActive    TaskStatus = "in_progress"
	TaskStatusCompleted TaskStatus = "completed"
)

// Pending reports whether the task still needs its assignee.
func (s TaskStatus) Pending() bool {
	return s == TaskStatusOpen || s == TaskStatusBlocked
}

// Task is a work item assigned to an employee within a date window.
type Task struct {
	Priority TaskPriority
	Status   TaskStatus
}

// DateRange is an inclusive calendar interval.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// Overlaps reports whether two inclusive ranges intersect.
func (r DateRange) Overlaps(other DateRange) bool {
	return !r.Start.After(other.End) && !other.Start.After(r.End)
}

// Days returns the inclusive day count of the range.
func (r DateRange) Days() int {
	return int(r.End.Sub(r.Start).Hours()/24) + 1
}

// SkillProfile is an employee's skills plus current load.
type SkillProfile struct {
	EmployeeID      domain.EmployeeID
	Skills          []string
	WorkloadPercent float64
}

// AvailabilityRatio is 1 minus the workload fraction, floored at 0.
func (p SkillProfile) AvailabilityRatio() float64 {
	ratio := 1 - p.WorkloadPercent/100
	if ratio < 0 {
		return 0
	}
	return ratio
}

// RequiredSkill is one entry of a project's staffing demand.
type RequiredSkill struct {
	Skill       string
	HoursNeeded float64
}

// TeamMember is one row of a team capacity snapshot.
type TeamMember struct {
	EmployeeID     domain.EmployeeID
	Skills         []string
	WeeklyCapacity float64
	AssignedHours  float64
}

// HasSkill reports whether the member lists the skill.
func (m TeamMember) HasSkill(skill string) bool {
	for _, s := range m.Skills {
		if s == skill {
			return true
		}
	}
	return false
}

// FreeHours is the member's unassigned weekly capacity, floored at 0.
func (m TeamMember) FreeHours() float64 {
	free := m.WeeklyCapacity - m.AssignedHours
	if free < 0 {
		return 0
	}
	return free
}
