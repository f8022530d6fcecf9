package service

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"crewops/internal/esp"
	espstore "crewops/internal/esp/store"
	"crewops/internal/orgdata"
	orgstore "crewops/internal/orgdata/store"
	"crewops/internal/workflow"
	wfstore "crewops/internal/workflow/store"
	"crewops/pkg/domain"
	dErrors "crewops/pkg/domain-errors"
)

type EspServiceSuite struct {
	suite.Suite

	gateway *orgstore.MemoryGateway
	events  *wfstore.MemoryStore
	service *Service

	projectID domain.ProjectID
	teamID    domain.TeamID

	lead  domain.Actor
	l6    domain.Actor
	pm    domain.Actor
	admin domain.Actor
}

func (s *EspServiceSuite) SetupTest() {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.gateway = orgstore.NewMemory()
	s.events = wfstore.NewMemoryStore()

	engine := workflow.NewEngine(s.events, wfstore.NopTxRunner{}, nil, nil, logger)
	s.service = NewService(espstore.NewMemoryStore(), engine, s.gateway, nil, logger)

	s.projectID = domain.ProjectID(uuid.New())
	s.teamID = domain.TeamID(uuid.New())

	s.lead = domain.Actor{ID: domain.EmployeeID(uuid.New()), Role: domain.RoleTeamLead}
	s.l6 = domain.Actor{ID: domain.EmployeeID(uuid.New()), Role: domain.RoleL6}
	s.pm = domain.Actor{ID: domain.EmployeeID(uuid.New()), Role: domain.RoleProjectManager}
	s.admin = domain.Actor{ID: domain.EmployeeID(uuid.New()), Role: domain.RoleAdmin}

	s.gateway.SetProjectSkills(s.projectID, []orgdata.RequiredSkill{
		{Skill: "react", HoursNeeded: 200},
		{Skill: "python", HoursNeeded: 80},
	})
	s.gateway.SetTeam(s.teamID, []orgdata.TeamMember{
		{EmployeeID: domain.EmployeeID(uuid.New()), Skills: []string{"react"}, WeeklyCapacity: 160, AssignedHours: 40},
		{EmployeeID: domain.EmployeeID(uuid.New()), Skills: []string{"python"}, WeeklyCapacity: 120, AssignedHours: 40},
	})
}

func (s *EspServiceSuite) draft() esp.Package {
	pkg, err := s.service.Create(context.Background(), s.lead, CreateInput{
		ProjectID: s.projectID,
		TeamID:    s.teamID,
		Title:     "frontend capacity for Q4",
		Items: []LineItemInput{
			{Skill: "react", Positions: 3, Level: "senior", Priority: "high"},
			{Skill: "python", Positions: 1, Level: "mid", Priority: "low"},
		},
	})
	s.Require().NoError(err)
	return pkg
}

func (s *EspServiceSuite) advanceToL6Reviewing(id domain.PackageID) {
	ctx := context.Background()
	_, err := s.service.Transition(ctx, id, esp.ActionSubmit, s.lead, "", nil)
	s.Require().NoError(err)
	_, err = s.service.Transition(ctx, id, esp.ActionBeginReview, s.l6, "", nil)
	s.Require().NoError(err)
}

func (s *EspServiceSuite) TestCreate() {
	pkg := s.draft()

	s.Equal(esp.StatusDraft, pkg.Status)
	s.Len(pkg.LineItems, 2)
	s.Equal(s.lead.ID, pkg.CreatedBy)
	s.Nil(pkg.LatestSimulation)
}

func (s *EspServiceSuite) TestCreate_EmployeeForbidden() {
	employee := domain.Actor{ID: domain.EmployeeID(uuid.New()), Role: domain.RoleEmployee}
	_, err := s.service.Create(context.Background(), employee, CreateInput{
		ProjectID: s.projectID,
		TeamID:    s.teamID,
		Title:     "x",
		Items:     []LineItemInput{{Skill: "go", Positions: 1}},
	})
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorizedActor))
}

func (s *EspServiceSuite) TestApprovalBlockedWithoutSimulation() {
	pkg := s.draft()
	s.advanceToL6Reviewing(pkg.ID)

	_, err := s.service.Transition(context.Background(), pkg.ID, esp.ActionApprove, s.l6, "", nil)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeMissingSimulation))

	current, err := s.service.Get(context.Background(), pkg.ID)
	s.Require().NoError(err)
	s.Equal(esp.StatusL6Reviewing, current.Package.Status, "refused gate leaves state untouched")
}

func (s *EspServiceSuite) TestApprovalSucceedsAfterSimulation() {
	pkg := s.draft()
	s.advanceToL6Reviewing(pkg.ID)
	ctx := context.Background()

	result, err := s.service.Simulate(ctx, pkg.ID, s.l6)
	s.Require().NoError(err)
	s.Equal(3, result.TotalPositions, "react gap of 80h needs 3 positions")

	updated, err := s.service.Transition(ctx, pkg.ID, esp.ActionApprove, s.l6, "", nil)
	s.Require().NoError(err)
	s.Equal(esp.StatusL6Approved, updated.Status)

	history, err := s.service.History(ctx, pkg.ID)
	s.Require().NoError(err)
	last := history[len(history)-1]
	s.Equal(result.ID.String(), last.Payload.SimulationID, "audit event records the gating simulation")
}

func (s *EspServiceSuite) TestResimulationKeepsPriorResults() {
	pkg := s.draft()
	ctx := context.Background()

	first, err := s.service.Simulate(ctx, pkg.ID, s.lead)
	s.Require().NoError(err)
	second, err := s.service.Simulate(ctx, pkg.ID, s.lead)
	s.Require().NoError(err)
	s.NotEqual(first.ID, second.ID)
	s.True(second.ConfidenceScore > first.ConfidenceScore, "history bonus applies on the second run")

	details, err := s.service.Get(ctx, pkg.ID)
	s.Require().NoError(err)
	s.Require().NotNil(details.Simulation)
	s.Equal(second.ID, details.Simulation.ID, "latest run is linked")
}

func (s *EspServiceSuite) TestFullLifecycleWithPartialApproval() {
	pkg := s.draft()
	s.advanceToL6Reviewing(pkg.ID)
	ctx := context.Background()

	_, err := s.service.Simulate(ctx, pkg.ID, s.l6)
	s.Require().NoError(err)
	_, err = s.service.Transition(ctx, pkg.ID, esp.ActionApprove, s.l6, "", nil)
	s.Require().NoError(err)
	_, err = s.service.Transition(ctx, pkg.ID, esp.ActionBeginPMReview, s.pm, "", nil)
	s.Require().NoError(err)

	decision := &esp.Decision{
		ApprovedItems: []uuid.UUID{pkg.LineItems[0].ID},
		DeferredItems: []uuid.UUID{pkg.LineItems[1].ID},
	}
	updated, err := s.service.Transition(ctx, pkg.ID, esp.ActionPMModify, s.pm, "defer python hire to Q1", decision)
	s.Require().NoError(err)

	s.Equal(esp.StatusPMModified, updated.Status)
	s.Require().NotNil(updated.Decision)
	s.Equal(decision.ApprovedItems, updated.Decision.ApprovedItems)
	s.Equal("defer python hire to Q1", updated.DecisionNotes)
}

func (s *EspServiceSuite) TestPMApproveDefaultsToAllItems() {
	pkg := s.draft()
	s.advanceToL6Reviewing(pkg.ID)
	ctx := context.Background()

	_, err := s.service.Simulate(ctx, pkg.ID, s.l6)
	s.Require().NoError(err)
	_, err = s.service.Transition(ctx, pkg.ID, esp.ActionApprove, s.l6, "", nil)
	s.Require().NoError(err)
	_, err = s.service.Transition(ctx, pkg.ID, esp.ActionBeginPMReview, s.pm, "", nil)
	s.Require().NoError(err)

	updated, err := s.service.Transition(ctx, pkg.ID, esp.ActionPMApprove, s.pm, "", nil)
	s.Require().NoError(err)
	s.Equal(esp.StatusPMApproved, updated.Status)
	s.Require().NotNil(updated.Decision)
	s.Len(updated.Decision.ApprovedItems, 2)
}

func (s *EspServiceSuite) TestPMModifyValidatesLineItems() {
	pkg := s.draft()
	s.advanceToL6Reviewing(pkg.ID)
	ctx := context.Background()

	_, err := s.service.Simulate(ctx, pkg.ID, s.l6)
	s.Require().NoError(err)
	_, err = s.service.Transition(ctx, pkg.ID, esp.ActionApprove, s.l6, "", nil)
	s.Require().NoError(err)
	_, err = s.service.Transition(ctx, pkg.ID, esp.ActionBeginPMReview, s.pm, "", nil)
	s.Require().NoError(err)

	s.Run("unknown item", func() {
		_, err := s.service.Transition(ctx, pkg.ID, esp.ActionPMModify, s.pm, "", &esp.Decision{
			ApprovedItems: []uuid.UUID{uuid.New()},
		})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	s.Run("item in two subsets", func() {
		_, err := s.service.Transition(ctx, pkg.ID, esp.ActionPMModify, s.pm, "", &esp.Decision{
			ApprovedItems: []uuid.UUID{pkg.LineItems[0].ID},
			RejectedItems: []uuid.UUID{pkg.LineItems[0].ID},
		})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	s.Run("empty modification", func() {
		_, err := s.service.Transition(ctx, pkg.ID, esp.ActionPMModify, s.pm, "", nil)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})
}

func (s *EspServiceSuite) TestSimulateRefusedOnClosedPackage() {
	pkg := s.draft()
	s.advanceToL6Reviewing(pkg.ID)
	ctx := context.Background()

	_, err := s.service.Simulate(ctx, pkg.ID, s.l6)
	s.Require().NoError(err)
	_, err = s.service.Transition(ctx, pkg.ID, esp.ActionApprove, s.l6, "", nil)
	s.Require().NoError(err)
	_, err = s.service.Transition(ctx, pkg.ID, esp.ActionBeginPMReview, s.pm, "", nil)
	s.Require().NoError(err)
	_, err = s.service.Transition(ctx, pkg.ID, esp.ActionPMReject, s.pm, "", nil)
	s.Require().NoError(err)

	_, err = s.service.Simulate(ctx, pkg.ID, s.l6)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidTransition))
}

func (s *EspServiceSuite) TestRoleGates() {
	pkg := s.draft()

	// Only the team lead submits.
	_, err := s.service.Transition(context.Background(), pkg.ID, esp.ActionSubmit, s.pm, "", nil)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorizedActor))

	// Admin bypasses the role gate but not table legality.
	_, err = s.service.Transition(context.Background(), pkg.ID, esp.ActionPMApprove, s.admin, "", nil)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidTransition))
}

func (s *EspServiceSuite) TestCoverage() {
	coverage, err := s.service.Coverage(context.Background(), s.projectID, s.teamID)
	s.Require().NoError(err)
	s.Require().Len(coverage, 2)
	for _, skill := range coverage {
		s.True(skill.SinglePoint, "each skill has exactly one holder in the fixture team")
	}
}

func TestEspServiceSuite(t *testing.T) {
	suite.Run(t, new(EspServiceSuite))
}
