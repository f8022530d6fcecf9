// Package service coordinates the staffing-package process: drafting,
// the L6/PM review transitions, simulation runs, and the coverage view.
package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"crewops/internal/esp"
	"crewops/internal/esp/metrics"
	"crewops/internal/orgdata"
	"crewops/internal/workflow"
	"crewops/pkg/domain"
	dErrors "crewops/pkg/domain-errors"
	"crewops/pkg/requestcontext"
)

// reallocationWorkloadCeiling is the workload percent above which an
// outside-team employee is not considered for internal reallocation.
const reallocationWorkloadCeiling = 70.0

// Store persists packages and simulation runs.
type Store interface {
	Create(ctx context.Context, pkg esp.Package) error
	Get(ctx context.Context, id domain.PackageID) (esp.Package, error)
	Update(ctx context.Context, pkg esp.Package) error
	SaveSimulation(ctx context.Context, result esp.SimulationResult) error
	GetSimulation(ctx context.Context, id domain.SimulationID) (esp.SimulationResult, error)
	CountSimulationsByProject(ctx context.Context, projectID domain.ProjectID) (int, error)
}

type Service struct {
	store      Store
	engine     *workflow.Engine
	definition *workflow.Definition
	gateway    orgdata.Gateway
	metrics    *metrics.Metrics
	logger     *slog.Logger
}

func NewService(store Store, engine *workflow.Engine, gateway orgdata.Gateway, m *metrics.Metrics, logger *slog.Logger) *Service {
	return &Service{
		store:      store,
		engine:     engine,
		definition: esp.Definition(),
		gateway:    gateway,
		metrics:    m,
		logger:     logger,
	}
}

// LineItemInput is one recommendation row of a new package.
type LineItemInput struct {
	Skill     string
	Positions int
	Level     string
	Priority  string
}

// CreateInput is a new package draft.
type CreateInput struct {
	ProjectID domain.ProjectID
	TeamID    domain.TeamID
	Title     string
	Items     []LineItemInput
}

func (in CreateInput) validate() error {
	if in.ProjectID.IsNil() || in.TeamID.IsNil() {
		return dErrors.New(dErrors.CodeInvalidInput, "project_id and team_id are required")
	}
	if in.Title == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "title is required")
	}
	if len(in.Items) == 0 {
		return dErrors.New(dErrors.CodeInvalidInput, "at least one line item is required")
	}
	for _, item := range in.Items {
		if item.Skill == "" {
			return dErrors.New(dErrors.CodeInvalidInput, "line item skill is required")
		}
		if item.Positions <= 0 {
			return dErrors.New(dErrors.CodeInvalidInput, "line item positions must be positive")
		}
	}
	return nil
}

// Create drafts a new package. Only team leads open staffing requests.
func (s *Service) Create(ctx context.Context, actor domain.Actor, input CreateInput) (esp.Package, error) {
	if actor.Role != domain.RoleTeamLead && actor.Role != domain.RoleAdmin {
		return esp.Package{}, dErrors.Newf(dErrors.CodeUnauthorizedActor, "role %q may not draft staffing packages", actor.Role)
	}
	if err := input.validate(); err != nil {
		return esp.Package{}, err
	}

	now := requestcontext.Now(ctx)
	pkg := esp.Package{
		ID:        domain.PackageID(uuid.New()),
		ProjectID: input.ProjectID,
		TeamID:    input.TeamID,
		CreatedBy: actor.ID,
		Title:     input.Title,
		Status:    s.definition.Initial,
		CreatedAt: now,
		UpdatedAt: now,
	}
	for _, item := range input.Items {
		pkg.LineItems = append(pkg.LineItems, esp.LineItem{
			ID:        uuid.New(),
			Skill:     item.Skill,
			Positions: item.Positions,
			Level:     item.Level,
			Priority:  item.Priority,
		})
	}

	if err := s.store.Create(ctx, pkg); err != nil {
		return esp.Package{}, translateStoreErr(err)
	}

	s.metrics.PackageCreated()
	s.logger.InfoContext(ctx, "staffing package drafted",
		slog.String("request_id", requestcontext.RequestID(ctx)),
		slog.String("package_id", pkg.ID.String()),
		slog.String("project_id", pkg.ProjectID.String()),
		slog.Int("line_items", len(pkg.LineItems)),
	)
	return pkg, nil
}

// Transition performs one action on a package. PM verdicts carry the
// line-item decision; the L6 approval is gated on a completed
// simulation.
func (s *Service) Transition(ctx context.Context, id domain.PackageID, action workflow.Action, actor domain.Actor, notes string, decision *esp.Decision) (esp.Package, error) {
	var current esp.Package

	req := workflow.Request{
		Definition: s.definition,
		ProcessID:  id.Process(),
		Action:     action,
		Actor:      actor,
		Payload:    workflow.Payload{Notes: notes},
		Load: func(ctx context.Context) (workflow.State, error) {
			loaded, err := s.store.Get(ctx, id)
			if err != nil {
				return "", translateStoreErr(err)
			}
			current = loaded
			return loaded.Status, nil
		},
		Decide: func(ctx context.Context) (workflow.State, workflow.Payload, error) {
			// Simulation gate on L6 approval.
			if current.LatestSimulation == nil {
				s.metrics.MissingSimulation()
				return "", workflow.Payload{}, dErrors.New(dErrors.CodeMissingSimulation,
					"a completed simulation is required before approval")
			}
			return esp.StatusL6Approved, workflow.Payload{
				SimulationID: current.LatestSimulation.String(),
			}, nil
		},
		Apply: func(ctx context.Context, next workflow.State) error {
			current.Status = next
			current.UpdatedAt = requestcontext.Now(ctx)
			if notes != "" {
				current.DecisionNotes = notes
			}
			return s.store.Update(ctx, current)
		},
	}

	// PM verdict validation runs against the freshly loaded package,
	// inside the engine's per-process lock.
	if isPMVerdict(action) {
		req.Apply = func(ctx context.Context, next workflow.State) error {
			verdict, err := normalizeDecision(current, action, decision)
			if err != nil {
				return err
			}
			current.Status = next
			current.UpdatedAt = requestcontext.Now(ctx)
			if notes != "" {
				current.DecisionNotes = notes
			}
			current.Decision = verdict
			return s.store.Update(ctx, current)
		}
		req.Payload.Decision = decisionRecord(decision)
	}

	if _, err := s.engine.Transition(ctx, req); err != nil {
		return esp.Package{}, err
	}
	return current, nil
}

func isPMVerdict(action workflow.Action) bool {
	return action == esp.ActionPMApprove || action == esp.ActionPMReject || action == esp.ActionPMModify
}

// normalizeDecision resolves the PM's line-item verdict. Full approval
// and full rejection default to all items; a modification must name its
// subsets explicitly, every referenced item must exist, and no item may
// appear in two subsets.
func normalizeDecision(pkg esp.Package, action workflow.Action, decision *esp.Decision) (*esp.Decision, error) {
	allItems := func() []uuid.UUID {
		ids := make([]uuid.UUID, 0, len(pkg.LineItems))
		for _, item := range pkg.LineItems {
			ids = append(ids, item.ID)
		}
		return ids
	}

	if decision == nil {
		switch action {
		case esp.ActionPMApprove:
			return &esp.Decision{ApprovedItems: allItems()}, nil
		case esp.ActionPMReject:
			return &esp.Decision{RejectedItems: allItems()}, nil
		default:
			return nil, dErrors.New(dErrors.CodeInvalidInput,
				"a modification verdict must name approved, rejected, or deferred line items")
		}
	}

	seen := make(map[uuid.UUID]bool)
	referenced := 0
	for _, subset := range [][]uuid.UUID{decision.ApprovedItems, decision.RejectedItems, decision.DeferredItems} {
		for _, itemID := range subset {
			if _, ok := pkg.LineItem(itemID); !ok {
				return nil, dErrors.Newf(dErrors.CodeInvalidInput, "unknown line item %s", itemID)
			}
			if seen[itemID] {
				return nil, dErrors.Newf(dErrors.CodeInvalidInput, "line item %s appears in more than one subset", itemID)
			}
			seen[itemID] = true
			referenced++
		}
	}
	if referenced == 0 {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "decision references no line items")
	}
	return decision, nil
}

func decisionRecord(decision *esp.Decision) *workflow.DecisionRecord {
	if decision == nil {
		return nil
	}
	toStrings := func(ids []uuid.UUID) []string {
		out := make([]string, 0, len(ids))
		for _, id := range ids {
			out = append(out, id.String())
		}
		return out
	}
	return &workflow.DecisionRecord{
		ApprovedItems: toStrings(decision.ApprovedItems),
		RejectedItems: toStrings(decision.RejectedItems),
		DeferredItems: toStrings(decision.DeferredItems),
	}
}

// Simulate runs a fresh simulation for the package and links it as the
// latest run. Prior results stay untouched.
func (s *Service) Simulate(ctx context.Context, id domain.PackageID, actor domain.Actor) (esp.SimulationResult, error) {
	switch actor.Role {
	case domain.RoleTeamLead, domain.RoleL6, domain.RoleProjectManager, domain.RoleAdmin:
	default:
		return esp.SimulationResult{}, dErrors.Newf(dErrors.CodeUnauthorizedActor, "role %q may not run simulations", actor.Role)
	}

	pkg, err := s.store.Get(ctx, id)
	if err != nil {
		return esp.SimulationResult{}, translateStoreErr(err)
	}
	if s.definition.IsTerminal(pkg.Status) {
		return esp.SimulationResult{}, dErrors.New(dErrors.CodeInvalidTransition, "package review is already closed")
	}

	start := time.Now()
	input, err := s.gatherSimulationInput(ctx, pkg)
	if err != nil {
		return esp.SimulationResult{}, err
	}

	result := esp.Simulate(input)
	result.ID = domain.SimulationID(uuid.New())
	result.PackageID = pkg.ID
	result.ProjectID = pkg.ProjectID
	result.TeamID = pkg.TeamID
	result.CreatedAt = requestcontext.Now(ctx)

	if err := s.store.SaveSimulation(ctx, result); err != nil {
		return esp.SimulationResult{}, translateStoreErr(err)
	}

	latest := result.ID
	pkg.LatestSimulation = &latest
	pkg.UpdatedAt = requestcontext.Now(ctx)
	if err := s.store.Update(ctx, pkg); err != nil {
		return esp.SimulationResult{}, translateStoreErr(err)
	}

	s.metrics.SimulationRun(string(result.RiskLevel), time.Since(start))
	s.logger.InfoContext(ctx, "simulation completed",
		slog.String("request_id", requestcontext.RequestID(ctx)),
		slog.String("package_id", pkg.ID.String()),
		slog.String("simulation_id", result.ID.String()),
		slog.String("risk_level", string(result.RiskLevel)),
		slog.Int("total_positions", result.TotalPositions),
	)
	return result, nil
}

// gatherSimulationInput assembles the org snapshot the pure simulation
// consumes: demand, team capacity, reallocation candidates per gap
// skill, and the history flag.
func (s *Service) gatherSimulationInput(ctx context.Context, pkg esp.Package) (esp.SimulationInput, error) {
	var (
		input        esp.SimulationInput
		historyCount int
	)

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		input.RequiredSkills, err = s.gateway.ProjectRequiredSkills(gCtx, pkg.ProjectID)
		return err
	})
	g.Go(func() error {
		var err error
		input.Team, err = s.gateway.TeamSnapshot(gCtx, pkg.TeamID)
		return err
	})
	g.Go(func() error {
		var err error
		historyCount, err = s.store.CountSimulationsByProject(gCtx, pkg.ProjectID)
		return err
	})
	if err := g.Wait(); err != nil {
		return esp.SimulationInput{}, dErrors.Wrap(dErrors.CodeUnavailable, "simulation snapshot fetch failed", err)
	}
	input.HasHistory = historyCount > 0

	input.ReallocationCandidates = make(map[string][]domain.EmployeeID, len(input.RequiredSkills))
	for _, required := range input.RequiredSkills {
		candidates, err := s.gateway.EmployeesOutsideTeam(ctx, pkg.TeamID, required.Skill, reallocationWorkloadCeiling)
		if err != nil {
			return esp.SimulationInput{}, dErrors.Wrap(dErrors.CodeUnavailable, "reallocation candidate fetch failed", err)
		}
		input.ReallocationCandidates[required.Skill] = candidates
	}
	return input, nil
}

// Details is the package read view: the package plus its latest
// simulation, when one exists.
type Details struct {
	Package    esp.Package
	Simulation *esp.SimulationResult
}

func (s *Service) Get(ctx context.Context, id domain.PackageID) (Details, error) {
	pkg, err := s.store.Get(ctx, id)
	if err != nil {
		return Details{}, translateStoreErr(err)
	}

	details := Details{Package: pkg}
	if pkg.LatestSimulation != nil {
		result, err := s.store.GetSimulation(ctx, *pkg.LatestSimulation)
		if err != nil {
			return Details{}, translateStoreErr(err)
		}
		details.Simulation = &result
	}
	return details, nil
}

// Coverage computes the per-skill coverage view for a project against a
// team snapshot.
func (s *Service) Coverage(ctx context.Context, projectID domain.ProjectID, teamID domain.TeamID) ([]esp.SkillCoverage, error) {
	var (
		required []orgdata.RequiredSkill
		team     []orgdata.TeamMember
	)
	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		required, err = s.gateway.ProjectRequiredSkills(gCtx, projectID)
		return err
	})
	g.Go(func() error {
		var err error
		team, err = s.gateway.TeamSnapshot(gCtx, teamID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, dErrors.Wrap(dErrors.CodeUnavailable, "coverage snapshot fetch failed", err)
	}

	return esp.AnalyzeCoverage(required, team), nil
}

// History returns the package's transition log.
func (s *Service) History(ctx context.Context, id domain.PackageID) ([]workflow.Event, error) {
	if _, err := s.store.Get(ctx, id); err != nil {
		return nil, translateStoreErr(err)
	}
	return s.engine.History(ctx, id.Process())
}
