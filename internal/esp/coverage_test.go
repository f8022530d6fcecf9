package esp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crewops/internal/orgdata"
)

func TestAnalyzeCoverage(t *testing.T) {
	required := []orgdata.RequiredSkill{
		{Skill: "react", HoursNeeded: 100},
		{Skill: "python", HoursNeeded: 50},
		{Skill: "go", HoursNeeded: 80},
		{Skill: "rust", HoursNeeded: 40},
	}
	team := []orgdata.TeamMember{
		member([]string{"react", "go"}, 40, 10),
		member([]string{"react"}, 40, 20),
		member([]string{"python"}, 40, 40), // no spare capacity
	}

	coverage := AnalyzeCoverage(required, team)
	require.Len(t, coverage, 4)

	byCoverageSkill := make(map[string]SkillCoverage)
	for _, c := range coverage {
		byCoverageSkill[c.Skill] = c
	}

	react := byCoverageSkill["react"]
	assert.Equal(t, 100, react.CoveragePercent)
	assert.False(t, react.SinglePoint)

	python := byCoverageSkill["python"]
	assert.Equal(t, 25, python.CoveragePercent, "single overloaded holder")
	assert.True(t, python.SinglePoint)

	goSkill := byCoverageSkill["go"]
	assert.Equal(t, 50, goSkill.CoveragePercent, "single holder with spare capacity")
	assert.True(t, goSkill.SinglePoint)

	rust := byCoverageSkill["rust"]
	assert.Equal(t, 0, rust.CoveragePercent)
	assert.Equal(t, 0, rust.HolderCount)
}

func TestDefinition_Shape(t *testing.T) {
	def := Definition()

	assert.Equal(t, StatusDraft, def.Initial)
	assert.True(t, def.IsTerminal(StatusPMApproved))
	assert.True(t, def.IsTerminal(StatusPMRejected))
	assert.True(t, def.IsTerminal(StatusPMModified))

	rule, err := def.Resolve(StatusL6Reviewing, ActionApprove)
	require.NoError(t, err)
	assert.Equal(t, HookSimulationGate, rule.Hook)

	// Strictly sequential: no skipping PM intake.
	_, err = def.Resolve(StatusL6Approved, ActionPMApprove)
	assert.Error(t, err)
}
