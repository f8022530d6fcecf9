// Package esp implements the staffing-augmentation process ("ESP"): a
// package of per-skill staffing recommendations that travels through
// technical (L6) and managerial (PM) review, backed by a deterministic
// skill-gap simulation.
package esp

import (
	"time"

	"github.com/google/uuid"

	"crewops/internal/workflow"
	"crewops/pkg/domain"
)

// Statuses of a staffing package.
const (
	StatusDraft       workflow.State = "draft"
	StatusSubmitted   workflow.State = "submitted_to_l6"
	StatusL6Reviewing workflow.State = "l6_reviewing"
	StatusL6Approved  workflow.State = "l6_approved"
	StatusPMReviewing workflow.State = "pm_reviewing"
	StatusPMApproved  workflow.State = "pm_approved"
	StatusPMRejected  workflow.State = "pm_rejected"
	StatusPMModified  workflow.State = "pm_modified"
)

// Actions on a staffing package.
const (
	ActionSubmit        workflow.Action = "submit"
	ActionBeginReview   workflow.Action = "begin_review"
	ActionApprove       workflow.Action = "approve"
	ActionBeginPMReview workflow.Action = "begin_pm_review"
	ActionPMApprove     workflow.Action = "pm_approve"
	ActionPMReject      workflow.Action = "pm_reject"
	ActionPMModify      workflow.Action = "pm_modify"
)

// HookSimulationGate names the guard on L6 approval: the transition is
// refused unless a completed simulation exists for the package.
const HookSimulationGate workflow.HookID = "simulation_gate"

// Definition is the ESP transition table. Strictly sequential; the three
// PM verdicts are all first-class terminals.
func Definition() *workflow.Definition {
	return workflow.Define(workflow.KindESP, StatusDraft).
		Permit(StatusDraft, ActionSubmit, workflow.Rule{
			Next:  StatusSubmitted,
			Roles: []domain.Role{domain.RoleTeamLead},
		}).
		Permit(StatusSubmitted, ActionBeginReview, workflow.Rule{
			Next:  StatusL6Reviewing,
			Roles: []domain.Role{domain.RoleL6},
		}).
		Permit(StatusL6Reviewing, ActionApprove, workflow.Rule{
			Hook:  HookSimulationGate,
			Roles: []domain.Role{domain.RoleL6},
		}).
		Permit(StatusL6Approved, ActionBeginPMReview, workflow.Rule{
			Next:  StatusPMReviewing,
			Roles: []domain.Role{domain.RoleProjectManager},
		}).
		Permit(StatusPMReviewing, ActionPMApprove, workflow.Rule{
			Next:  StatusPMApproved,
			Roles: []domain.Role{domain.RoleProjectManager},
		}).
		Permit(StatusPMReviewing, ActionPMReject, workflow.Rule{
			Next:  StatusPMRejected,
			Roles: []domain.Role{domain.RoleProjectManager},
		}).
		Permit(StatusPMReviewing, ActionPMModify, workflow.Rule{
			Next:  StatusPMModified,
			Roles: []domain.Role{domain.RoleProjectManager},
		}).
		Terminal(StatusPMApproved, StatusPMRejected, StatusPMModified)
}

// LineItem is one per-skill recommendation row of a package. PM
// decisions reference line items by id.
type LineItem struct {
	ID        uuid.UUID
	Skill     string
	Positions int
	Level     string
	Priority  string
}

// Decision is the project manager's verdict: partial approval assigns
// every referenced line item to exactly one subset.
type Decision struct {
	ApprovedItems []uuid.UUID
	RejectedItems []uuid.UUID
	DeferredItems []uuid.UUID
}

// Package is a staffing-augmentation request.
type Package struct {
	ID               domain.PackageID
	ProjectID        domain.ProjectID
	TeamID           domain.TeamID
	CreatedBy        domain.EmployeeID
	Title            string
	Status           workflow.State
	LineItems        []LineItem
	LatestSimulation *domain.SimulationID
	Decision         *Decision
	DecisionNotes    string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// LineItem returns the item with the given id, if present.
func (p Package) LineItem(id uuid.UUID) (LineItem, bool) {
	for _, item := range p.LineItems {
		if item.ID == id {
			return item, true
		}
	}
	return LineItem{}, false
}
