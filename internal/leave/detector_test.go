package leave

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crewops/internal/orgdata"
	orgstore "crewops/internal/orgdata/store"
	"crewops/pkg/domain"
	dErrors "crewops/pkg/domain-errors"
)

var testWindow = orgdata.DateRange{
	Start: time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC),
	End:   time.Date(2026, 9, 11, 0, 0, 0, 0, time.UTC),
}

func seedEmployee(g *orgstore.MemoryGateway, skills []string, workload float64) domain.EmployeeID {
	id := domain.EmployeeID(uuid.New())
	g.SetEmployee(orgdata.SkillProfile{
		EmployeeID:      id,
		Skills:          skills,
		WorkloadPercent: workload,
	}, domain.TeamID(uuid.New()))
	return id
}

func TestDetector_HardBlock(t *testing.T) {
	gateway := orgstore.NewMemory()
	employee := seedEmployee(gateway, []string{"go", "postgres"}, 50)
	gateway.AddIncident(employee, orgdata.Incident{Severity: orgdata.IncidentCritical, Status: "open"})
	gateway.AddTask(employee, orgdata.Task{Priority: orgdata.TaskPriorityCritical, Status: orgdata.TaskStatusActive}, testWindow)

	detector := NewDetector(gateway)
	outcome, err := detector.Detect(context.Background(), Request{EmployeeID: employee, Window: testWindow})
	require.NoError(t, err)

	assert.True(t, outcome.HardBlock)
	assert.Equal(t, SeverityCritical, outcome.Severity)
	assert.Nil(t, outcome.Alternate, "no alternate search on hard block")
}

func TestDetector_NoConflict(t *testing.T) {
	gateway := orgstore.NewMemory()
	employee := seedEmployee(gateway, []string{"go"}, 50)

	detector := NewDetector(gateway)
	outcome, err := detector.Detect(context.Background(), Request{EmployeeID: employee, Window: testWindow})
	require.NoError(t, err)

	assert.Equal(t, SeverityNone, outcome.Severity)
	assert.False(t, outcome.Escalate())
}

func TestDetector_PendingTasksWithQualifyingCandidate(t *testing.T) {
	// Zero incidents, zero critical tasks, two pending tasks in the
	// window: severity high, and the qualifying candidate resolves the
	// conflict.
	gateway := orgstore.NewMemory()
	employee := seedEmployee(gateway, []string{"go", "postgres", "kafka", "redis", "kubernetes"}, 50)
	gateway.AddTask(employee, orgdata.Task{Priority: orgdata.TaskPriorityMedium, Status: orgdata.TaskStatusOpen}, testWindow)
	gateway.AddTask(employee, orgdata.Task{Priority: orgdata.TaskPriorityLow, Status: orgdata.TaskStatusBlocked}, testWindow)

	// 4/5 skills shared, workload 60 -> availability 0.40, incident-free.
	candidate := seedEmployee(gateway, []string{"go", "postgres", "kafka", "redis"}, 60)

	detector := NewDetector(gateway)
	outcome, err := detector.Detect(context.Background(), Request{EmployeeID: employee, Window: testWindow})
	require.NoError(t, err)

	assert.Equal(t, SeverityHigh, outcome.Severity)
	assert.False(t, outcome.HardBlock)
	require.NotNil(t, outcome.Alternate)
	assert.Equal(t, candidate, outcome.Alternate.EmployeeID)
	assert.InDelta(t, 0.80, outcome.Alternate.SkillMatchRatio, 1e-9)
	assert.False(t, outcome.Escalate())
}

func TestDetector_NoQualifyingCandidateEscalates(t *testing.T) {
	gateway := orgstore.NewMemory()
	employee := seedEmployee(gateway, []string{"go", "postgres"}, 50)
	gateway.AddTask(employee, orgdata.Task{Priority: orgdata.TaskPriorityCritical, Status: orgdata.TaskStatusActive}, testWindow)

	// Skill overlap 1/2 = 0.50, below the bar.
	seedEmployee(gateway, []string{"go"}, 10)
	// Full skill overlap but overloaded.
	seedEmployee(gateway, []string{"go", "postgres"}, 90)

	detector := NewDetector(gateway)
	outcome, err := detector.Detect(context.Background(), Request{EmployeeID: employee, Window: testWindow})
	require.NoError(t, err)

	assert.Equal(t, SeverityHigh, outcome.Severity)
	assert.Nil(t, outcome.Alternate)
	assert.True(t, outcome.Escalate())
}

func TestDetector_CandidateWithBlockingIncidentSkipped(t *testing.T) {
	gateway := orgstore.NewMemory()
	employee := seedEmployee(gateway, []string{"go", "postgres"}, 50)
	gateway.AddTask(employee, orgdata.Task{Priority: orgdata.TaskPriorityCritical, Status: orgdata.TaskStatusActive}, testWindow)

	firefighter := seedEmployee(gateway, []string{"go", "postgres"}, 20)
	gateway.AddIncident(firefighter, orgdata.Incident{Severity: orgdata.IncidentHigh, Status: "open"})

	detector := NewDetector(gateway)
	outcome, err := detector.Detect(context.Background(), Request{EmployeeID: employee, Window: testWindow})
	require.NoError(t, err)

	assert.Nil(t, outcome.Alternate)
	assert.True(t, outcome.Escalate())
}

func TestDetector_TaskOutsideWindowIgnored(t *testing.T) {
	gateway := orgstore.NewMemory()
	employee := seedEmployee(gateway, []string{"go"}, 50)
	elsewhere := orgdata.DateRange{
		Start: time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2026, 10, 5, 0, 0, 0, 0, time.UTC),
	}
	gateway.AddTask(employee, orgdata.Task{Priority: orgdata.TaskPriorityCritical, Status: orgdata.TaskStatusActive}, elsewhere)

	detector := NewDetector(gateway)
	outcome, err := detector.Detect(context.Background(), Request{EmployeeID: employee, Window: testWindow})
	require.NoError(t, err)
	assert.Equal(t, SeverityNone, outcome.Severity)
}

type failingGateway struct {
	orgdata.Gateway
}

func (failingGateway) EmployeeIncidents(context.Context, domain.EmployeeID) ([]orgdata.Incident, error) {
	return nil, assert.AnError
}

func (failingGateway) EmployeeTasks(context.Context, domain.EmployeeID, orgdata.DateRange) ([]orgdata.Task, error) {
	return nil, nil
}

func TestDetector_GatewayFailureIsUnavailable(t *testing.T) {
	detector := NewDetector(failingGateway{})
	_, err := detector.Detect(context.Background(), Request{EmployeeID: domain.EmployeeID(uuid.New()), Window: testWindow})
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnavailable))
}
