// Package workflow drives the approval state machines. A process type
// declares its legal transitions in a static Definition; the Engine
// validates actions against it, enforces actor roles, serializes
// transitions per process, and appends exactly one audit event per
// committed transition.
//
// The tables are data, not code: branching decisions (conflict outcome,
// simulation guards) are expressed as named hooks whose resolution is
// supplied by the owning feature service. That keeps the machine pure and
// testable in isolation from I/O.
package workflow

import (
	"crewops/pkg/domain"
	dErrors "crewops/pkg/domain-errors"
)

// ProcessKind distinguishes the processes sharing the event log.
type ProcessKind string

const (
	KindLeave ProcessKind = "leave"
	KindESP   ProcessKind = "esp"
)

// State is a position in a process state graph.
type State string

// Action is a named operation an actor performs on a process.
type Action string

// HookID names a decision hook. Rules carrying a hook delegate target
// state selection to the feature service that owns the hook.
type HookID string

// Rule is one row of a transition table.
type Rule struct {
	// Next is the static target state. Ignored when Hook is set.
	Next State

	// Roles that may perform the action from this state. RoleAdmin is
	// always permitted.
	Roles []domain.Role

	// Hook, when set, resolves the target state at transition time.
	Hook HookID
}

func (r Rule) permits(role domain.Role) bool {
	if role == domain.RoleAdmin {
		return true
	}
	for _, allowed := range r.Roles {
		if allowed == role {
			return true
		}
	}
	return false
}

type transitionKey struct {
	From   State
	Action Action
}

// Definition is the static transition table for one process type.
type Definition struct {
	Kind     ProcessKind
	Initial  State
	rules    map[transitionKey]Rule
	terminal map[State]bool
}

// Define starts a new process definition at the given initial state.
func Define(kind ProcessKind, initial State) *Definition {
	return &Definition{
		Kind:     kind,
		Initial:  initial,
		rules:    make(map[transitionKey]Rule),
		terminal: make(map[State]bool),
	}
}

// Permit adds a transition rule. Rules are write-once: redefining a
// (state, action) pair panics, because a duplicate row means the table
// itself is wrong.
func (d *Definition) Permit(from State, action Action, rule Rule) *Definition {
	key := transitionKey{From: from, Action: action}
	if _, exists := d.rules[key]; exists {
		panic("workflow: duplicate transition rule for " + string(from) + "/" + string(action))
	}
	d.rules[key] = rule
	return d
}

// Terminal marks states that accept no further actions.
func (d *Definition) Terminal(states ...State) *Definition {
	for _, s := range states {
		d.terminal[s] = true
	}
	return d
}

// IsTerminal reports whether the state is a sink.
func (d *Definition) IsTerminal(s State) bool { return d.terminal[s] }

// Resolve returns the rule for (from, action), or an InvalidTransition
// error when the table has no such row.
func (d *Definition) Resolve(from State, action Action) (Rule, error) {
	rule, ok := d.rules[transitionKey{From: from, Action: action}]
	if !ok {
		return Rule{}, dErrors.Newf(dErrors.CodeInvalidTransition,
			"action %q is not legal from state %q", action, from)
	}
	return rule, nil
}

// Authorize checks the actor's role against the rule's permitted set.
// This duplicates the upstream permission layer on purpose: workflow
// integrity must hold even if that layer is bypassed.
func (d *Definition) Authorize(rule Rule, actor domain.Actor) error {
	if !rule.permits(actor.Role) {
		return dErrors.Newf(dErrors.CodeUnauthorizedActor,
			"role %q is not permitted to perform this action", actor.Role)
	}
	return nil
}

// Actions returns the actions legal from the given state for the given
// role. Used by read surfaces to render what an actor can do next.
func (d *Definition) Actions(from State, role domain.Role) []Action {
	var actions []Action
	for key, rule := range d.rules {
		if key.From == from && rule.permits(role) {
			actions = append(actions, key.Action)
		}
	}
	return actions
}
