package leave

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crewops/internal/orgdata"
	"crewops/pkg/domain"
)

func TestClassifyConflict(t *testing.T) {
	tests := []struct {
		name      string
		incidents []orgdata.Incident
		tasks     []orgdata.Task
		severity  ConflictSeverity
		hardBlock bool
	}{
		{
			name:     "no load at all",
			severity: SeverityNone,
		},
		{
			name: "critical incident hard-blocks regardless of tasks",
			incidents: []orgdata.Incident{
				{Severity: orgdata.IncidentCritical, Status: "open"},
			},
			tasks: []orgdata.Task{
				{Priority: orgdata.TaskPriorityLow, Status: orgdata.TaskStatusActive},
			},
			severity:  SeverityCritical,
			hardBlock: true,
		},
		{
			name: "high incident hard-blocks",
			incidents: []orgdata.Incident{
				{Severity: orgdata.IncidentHigh, Status: "open"},
			},
			severity:  SeverityCritical,
			hardBlock: true,
		},
		{
			name: "low incident does not block",
			incidents: []orgdata.Incident{
				{Severity: orgdata.IncidentLow, Status: "open"},
			},
			severity: SeverityNone,
		},
		{
			name: "critical task overlap",
			tasks: []orgdata.Task{
				{Priority: orgdata.TaskPriorityCritical, Status: orgdata.TaskStatusActive},
			},
			severity: SeverityHigh,
		},
		{
			name: "pending task overlap",
			tasks: []orgdata.Task{
				{Priority: orgdata.TaskPriorityMedium, Status: orgdata.TaskStatusOpen},
			},
			severity: SeverityHigh,
		},
		{
			name: "blocked task overlap",
			tasks: []orgdata.Task{
				{Priority: orgdata.TaskPriorityLow, Status: orgdata.TaskStatusBlocked},
			},
			severity: SeverityHigh,
		},
		{
			name: "in-progress non-critical task is not a conflict",
			tasks: []orgdata.Task{
				{Priority: orgdata.TaskPriorityHigh, Status: orgdata.TaskStatusActive},
			},
			severity: SeverityNone,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			outcome := ClassifyConflict(tt.incidents, tt.tasks)
			assert.Equal(t, tt.severity, outcome.Severity)
			assert.Equal(t, tt.hardBlock, outcome.HardBlock)
			if tt.hardBlock {
				assert.Nil(t, outcome.Alternate, "hard block never carries an alternate")
			}
		})
	}
}

func TestScoreCandidate(t *testing.T) {
	required := []string{"go", "postgres", "kubernetes", "terraform", "kafka"}

	profile := orgdata.SkillProfile{
		EmployeeID:      domain.EmployeeID(uuid.New()),
		Skills:          []string{"go", "postgres", "kubernetes", "terraform"},
		WorkloadPercent: 60,
	}
	candidate := ScoreCandidate(required, profile, true)

	assert.InDelta(t, 0.80, candidate.SkillMatchRatio, 1e-9)
	assert.InDelta(t, 0.40, candidate.AvailabilityRatio, 1e-9)
	assert.True(t, candidate.Qualifies())
}

func TestAlternateCandidate_Qualifies(t *testing.T) {
	base := AlternateCandidate{SkillMatchRatio: 0.85, AvailabilityRatio: 0.40, IncidentFree: true}
	assert.True(t, base.Qualifies())

	lowSkill := base
	lowSkill.SkillMatchRatio = 0.79
	assert.False(t, lowSkill.Qualifies())

	lowAvailability := base
	lowAvailability.AvailabilityRatio = 0.29
	assert.False(t, lowAvailability.Qualifies())

	withIncident := base
	withIncident.IncidentFree = false
	assert.False(t, withIncident.Qualifies())

	// Boundary values qualify.
	boundary := AlternateCandidate{SkillMatchRatio: 0.80, AvailabilityRatio: 0.30, IncidentFree: true}
	assert.True(t, boundary.Qualifies())
}

func TestSelectAlternate(t *testing.T) {
	idA := domain.EmployeeID(uuid.MustParse("00000000-0000-0000-0000-00000000000a"))
	idB := domain.EmployeeID(uuid.MustParse("00000000-0000-0000-0000-00000000000b"))
	idC := domain.EmployeeID(uuid.MustParse("00000000-0000-0000-0000-00000000000c"))

	t.Run("highest skill match wins", func(t *testing.T) {
		best, found := SelectAlternate([]AlternateCandidate{
			{EmployeeID: idA, SkillMatchRatio: 0.85, AvailabilityRatio: 0.90, IncidentFree: true},
			{EmployeeID: idB, SkillMatchRatio: 0.95, AvailabilityRatio: 0.35, IncidentFree: true},
		})
		require.True(t, found)
		assert.Equal(t, idB, best.EmployeeID)
	})

	t.Run("availability breaks skill tie", func(t *testing.T) {
		best, found := SelectAlternate([]AlternateCandidate{
			{EmployeeID: idA, SkillMatchRatio: 0.90, AvailabilityRatio: 0.40, IncidentFree: true},
			{EmployeeID: idB, SkillMatchRatio: 0.90, AvailabilityRatio: 0.60, IncidentFree: true},
		})
		require.True(t, found)
		assert.Equal(t, idB, best.EmployeeID)
	})

	t.Run("lowest id breaks full tie", func(t *testing.T) {
		candidates := []AlternateCandidate{
			{EmployeeID: idC, SkillMatchRatio: 0.90, AvailabilityRatio: 0.50, IncidentFree: true},
			{EmployeeID: idA, SkillMatchRatio: 0.90, AvailabilityRatio: 0.50, IncidentFree: true},
			{EmployeeID: idB, SkillMatchRatio: 0.90, AvailabilityRatio: 0.50, IncidentFree: true},
		}
		best, found := SelectAlternate(candidates)
		require.True(t, found)
		assert.Equal(t, idA, best.EmployeeID)

		// Selection is idempotent across repeated runs on identical input.
		for range 5 {
			again, _ := SelectAlternate(candidates)
			assert.Equal(t, best.EmployeeID, again.EmployeeID)
		}
	})

	t.Run("non-qualifying candidates are never selected", func(t *testing.T) {
		_, found := SelectAlternate([]AlternateCandidate{
			{EmployeeID: idA, SkillMatchRatio: 0.99, AvailabilityRatio: 0.10, IncidentFree: true},
			{EmployeeID: idB, SkillMatchRatio: 0.99, AvailabilityRatio: 0.90, IncidentFree: false},
		})
		assert.False(t, found)
	})

	t.Run("empty input", func(t *testing.T) {
		_, found := SelectAlternate(nil)
		assert.False(t, found)
	})
}

func TestConflictOutcome_Escalate(t *testing.T) {
	alternate := &AlternateCandidate{EmployeeID: domain.EmployeeID(uuid.New())}

	assert.True(t, ConflictOutcome{Severity: SeverityCritical, HardBlock: true}.Escalate())
	assert.True(t, ConflictOutcome{Severity: SeverityHigh}.Escalate(), "required alternate missing")
	assert.False(t, ConflictOutcome{Severity: SeverityHigh, Alternate: alternate}.Escalate())
	assert.False(t, ConflictOutcome{Severity: SeverityNone}.Escalate())
}

func TestAssessRisk(t *testing.T) {
	day := func(d int) time.Time { return time.Date(2026, 9, d, 0, 0, 0, 0, time.UTC) }
	makeReq := func(days int) Request {
		return Request{
			Days:   days,
			Window: orgdata.DateRange{Start: day(1), End: day(days)},
		}
	}

	t.Run("short quiet absence is low", func(t *testing.T) {
		risk := AssessRisk(makeReq(2), nil, nil)
		assert.Equal(t, RiskLow, risk.Level)
	})

	t.Run("extended absence is medium", func(t *testing.T) {
		risk := AssessRisk(makeReq(5), nil, nil)
		assert.Equal(t, RiskMedium, risk.Level)
		assert.True(t, risk.ExtendedAbsence)
	})

	t.Run("blocking incident is high", func(t *testing.T) {
		risk := AssessRisk(makeReq(2), []orgdata.Incident{{Severity: orgdata.IncidentCritical}}, nil)
		assert.Equal(t, RiskHigh, risk.Level)
		assert.Equal(t, 1, risk.BlockingIncidents)
	})

	t.Run("critical tasks alone cap at medium", func(t *testing.T) {
		tasks := []orgdata.Task{
			{Priority: orgdata.TaskPriorityCritical},
			{Priority: orgdata.TaskPriorityCritical},
		}
		risk := AssessRisk(makeReq(2), nil, tasks)
		assert.Equal(t, RiskMedium, risk.Level)
		assert.Equal(t, 2, risk.CriticalTaskCount)
	})

	t.Run("incident outranks task count", func(t *testing.T) {
		incidents := []orgdata.Incident{{Severity: orgdata.IncidentCritical}}
		tasks := []orgdata.Task{{Priority: orgdata.TaskPriorityCritical}}
		risk := AssessRisk(makeReq(2), incidents, tasks)
		assert.Equal(t, RiskHigh, risk.Level)
	})
}

func TestDefinition_Shape(t *testing.T) {
	def := Definition()

	assert.Equal(t, StatusPendingHR, def.Initial)
	assert.True(t, def.IsTerminal(StatusApproved))
	assert.True(t, def.IsTerminal(StatusRejected))
	assert.True(t, def.IsTerminal(StatusCancelled))

	rule, err := def.Resolve(StatusForwarded, ActionReview)
	require.NoError(t, err)
	assert.Equal(t, HookConflictReview, rule.Hook, "branch selection belongs to the detector")

	// Cancellation only before a decision.
	_, err = def.Resolve(StatusEscalated, ActionCancel)
	assert.Error(t, err, "no cancellation once escalated")
	_, err = def.Resolve(StatusApproved, ActionCancel)
	assert.Error(t, err)
}
