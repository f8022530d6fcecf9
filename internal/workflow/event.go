package workflow

import (
	"time"

	"github.com/google/uuid"

	"crewops/pkg/domain"
)

// Event is one append-only audit record. Exactly one is written per
// committed transition, in the same database transaction as the entity
// state change.
type Event struct {
	ID         uuid.UUID         `json:"id"`
	ProcessID  domain.ProcessID  `json:"process_id"`
	Kind       ProcessKind       `json:"kind"`
	FromState  State             `json:"from_state"`
	ToState    State             `json:"to_state"`
	Action     Action            `json:"action"`
	ActorID    domain.EmployeeID `json:"actor_id"`
	ActorRole  domain.Role       `json:"actor_role"`
	OccurredAt time.Time         `json:"occurred_at"`
	Payload    Payload           `json:"payload"`
}

// Payload carries the transition-specific context an auditor needs to
// reconstruct why the process moved. Fields are populated per action;
// zero values are omitted on the wire.
type Payload struct {
	Notes        string          `json:"notes,omitempty"`
	Conflict     *ConflictRecord `json:"conflict,omitempty"`
	SimulationID string          `json:"simulation_id,omitempty"`
	Decision     *DecisionRecord `json:"decision,omitempty"`
}

// ConflictRecord is the conflict classification attached to a leave
// review transition.
type ConflictRecord struct {
	Severity    string `json:"severity"`
	HardBlock   bool   `json:"hard_block"`
	AlternateID string `json:"alternate_id,omitempty"`
	Reason      string `json:"reason,omitempty"`
}

// DecisionRecord captures a project manager's per-line-item verdict on a
// staffing package.
type DecisionRecord struct {
	ApprovedItems []string `json:"approved_items,omitempty"`
	RejectedItems []string `json:"rejected_items,omitempty"`
	DeferredItems []string `json:"deferred_items,omitempty"`
}

// merge overlays hook-produced fields onto the base payload from the
// request. Hook output wins where both are set.
func (p Payload) merge(hook Payload) Payload {
	out := p
	if hook.Notes != "" {
		out.Notes = hook.Notes
	}
	if hook.Conflict != nil {
		out.Conflict = hook.Conflict
	}
	if hook.SimulationID != "" {
		out.SimulationID = hook.SimulationID
	}
	if hook.Decision != nil {
		out.Decision = hook.Decision
	}
	return out
}
