package workflow

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crewops/pkg/domain"
	dErrors "crewops/pkg/domain-errors"
)

func testDefinition() *Definition {
	return Define(KindLeave, "draft").
		Permit("draft", "submit", Rule{Next: "in_review", Roles: []domain.Role{domain.RoleEmployee}}).
		Permit("in_review", "decide", Rule{Hook: "decision", Roles: []domain.Role{domain.RoleTeamLead}}).
		Terminal("closed")
}

func TestDefinition_Resolve(t *testing.T) {
	def := testDefinition()

	t.Run("known transition", func(t *testing.T) {
		rule, err := def.Resolve("draft", "submit")
		require.NoError(t, err)
		assert.Equal(t, State("in_review"), rule.Next)
	})

	t.Run("unknown action from state", func(t *testing.T) {
		_, err := def.Resolve("draft", "decide")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidTransition))
	})

	t.Run("unknown state", func(t *testing.T) {
		_, err := def.Resolve("nonsense", "submit")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidTransition))
	})

	t.Run("terminal state accepts nothing", func(t *testing.T) {
		_, err := def.Resolve("closed", "submit")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidTransition))
		assert.True(t, def.IsTerminal("closed"))
	})
}

func TestDefinition_Authorize(t *testing.T) {
	def := testDefinition()
	rule, err := def.Resolve("draft", "submit")
	require.NoError(t, err)

	employee := domain.Actor{ID: domain.EmployeeID(uuid.New()), Role: domain.RoleEmployee}
	lead := domain.Actor{ID: domain.EmployeeID(uuid.New()), Role: domain.RoleTeamLead}
	admin := domain.Actor{ID: domain.EmployeeID(uuid.New()), Role: domain.RoleAdmin}

	assert.NoError(t, def.Authorize(rule, employee))
	assert.NoError(t, def.Authorize(rule, admin), "admin bypasses the role check")

	err = def.Authorize(rule, lead)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorizedActor))
}

func TestDefinition_AdminCannotInventTransitions(t *testing.T) {
	def := testDefinition()
	admin := domain.Actor{ID: domain.EmployeeID(uuid.New()), Role: domain.RoleAdmin}

	// Admin bypasses role checks, not table legality.
	_, err := def.Resolve("draft", "decide")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidTransition))
	_ = admin
}

func TestDefinition_Actions(t *testing.T) {
	def := testDefinition()

	assert.ElementsMatch(t, []Action{"submit"}, def.Actions("draft", domain.RoleEmployee))
	assert.Empty(t, def.Actions("draft", domain.RoleTeamLead))
	assert.ElementsMatch(t, []Action{"submit"}, def.Actions("draft", domain.RoleAdmin))
}

func TestDefinition_DuplicateRulePanics(t *testing.T) {
	assert.Panics(t, func() {
		Define(KindESP, "a").
			Permit("a", "go", Rule{Next: "b"}).
			Permit("a", "go", Rule{Next: "c"})
	})
}
