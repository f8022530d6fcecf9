// Package leave implements the leave-request approval process: the
// state machine, the conflict classification rules, and the alternate
// coverage search that together decide whether a request auto-approves
// at the team-lead stage or escalates to L6.
package leave

import (
	"time"

	"crewops/internal/orgdata"
	"crewops/internal/workflow"
	"crewops/pkg/domain"
)

// Statuses of a leave request. Strictly forward-progressing: no state is
// revisited once left, except that cancelled is a sink reachable from
// the pre-approval states.
const (
	StatusPendingHR workflow.State = "pending_hr_review"
	StatusForwarded workflow.State = "forwarded_to_team_lead"
	StatusApproved  workflow.State = "approved"
	StatusEscalated workflow.State = "escalated_to_l6"
	StatusRejected  workflow.State = "rejected"
	StatusCancelled workflow.State = "cancelled"
)

// Actions on a leave request.
const (
	ActionHRApprove workflow.Action = "hr_approve"
	ActionReview    workflow.Action = "review"
	ActionApprove   workflow.Action = "approve"
	ActionReject    workflow.Action = "reject"
	ActionCancel    workflow.Action = "cancel"
)

// HookConflictReview names the decision hook on the team-lead review:
// the conflict detector, not the reviewer, selects the branch.
const HookConflictReview workflow.HookID = "conflict_review"

// Definition is the leave transition table. The team-lead review carries
// the conflict hook; everything else is static routing.
func Definition() *workflow.Definition {
	return workflow.Define(workflow.KindLeave, StatusPendingHR).
		Permit(StatusPendingHR, ActionHRApprove, workflow.Rule{
			Next:  StatusForwarded,
			Roles: []domain.Role{domain.RoleHR},
		}).
		Permit(StatusForwarded, ActionReview, workflow.Rule{
			Hook:  HookConflictReview,
			Roles: []domain.Role{domain.RoleTeamLead},
		}).
		Permit(StatusEscalated, ActionApprove, workflow.Rule{
			Next:  StatusApproved,
			Roles: []domain.Role{domain.RoleL6},
		}).
		Permit(StatusEscalated, ActionReject, workflow.Rule{
			Next:  StatusRejected,
			Roles: []domain.Role{domain.RoleL6},
		}).
		Permit(StatusPendingHR, ActionCancel, workflow.Rule{
			Next:  StatusCancelled,
			Roles: []domain.Role{domain.RoleEmployee},
		}).
		Permit(StatusForwarded, ActionCancel, workflow.Rule{
			Next:  StatusCancelled,
			Roles: []domain.Role{domain.RoleEmployee},
		}).
		Terminal(StatusApproved, StatusRejected, StatusCancelled)
}

// ConflictSeverity is the closed conflict classification set.
type ConflictSeverity string

const (
	SeverityNone     ConflictSeverity = "none"
	SeverityHigh     ConflictSeverity = "high"
	SeverityCritical ConflictSeverity = "critical"
)

// Type is the kind of leave requested.
type Type string

const (
	TypeVacation Type = "vacation"
	TypeSick     Type = "sick"
	TypeUnpaid   Type = "unpaid"
	TypePersonal Type = "personal"
)

func (t Type) Valid() bool {
	switch t {
	case TypeVacation, TypeSick, TypeUnpaid, TypePersonal:
		return true
	}
	return false
}

// Request is a leave request. Alternate may be set only by a successful
// conflict resolution; reviewer references record who acted at each
// stage.
type Request struct {
	ID               domain.LeaveID
	EmployeeID       domain.EmployeeID
	Type             Type
	Window           orgdata.DateRange
	Days             int
	Status           workflow.State
	ConflictSeverity ConflictSeverity
	Alternate        *domain.EmployeeID
	DecisionNotes    string
	HRReviewer       *domain.EmployeeID
	TeamLeadReviewer *domain.EmployeeID
	L6Reviewer       *domain.EmployeeID
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// AlternateCandidate is a scored coverage candidate. Ephemeral: computed
// during conflict detection, never persisted beyond the chosen id.
type AlternateCandidate struct {
	EmployeeID        domain.EmployeeID
	SkillMatchRatio   float64
	AvailabilityRatio float64
	IncidentFree      bool
}

// ConflictOutcome is the conflict detector's verdict for one request.
type ConflictOutcome struct {
	Severity  ConflictSeverity
	HardBlock bool
	Reason    string
	Alternate *AlternateCandidate
}

// Escalate reports whether the outcome routes the request to L6: a hard
// block always does, and so does a required-but-missing alternate.
func (o ConflictOutcome) Escalate() bool {
	if o.HardBlock {
		return true
	}
	return o.Severity != SeverityNone && o.Alternate == nil
}

// RiskLevel is the closed set for the read-only risk view.
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// RiskAssessment is the advisory risk view of a request. It never
// affects branch selection; reviewers use it to prioritize queues.
type RiskAssessment struct {
	Level             RiskLevel
	ExtendedAbsence   bool
	CriticalTaskCount int
	BlockingIncidents int
}
