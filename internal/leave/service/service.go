// Package service coordinates the leave process: request intake, the
// role-gated transitions through the workflow engine, and the read
// surfaces (pending queues, risk view, history).
package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"crewops/internal/leave"
	"crewops/internal/leave/metrics"
	"crewops/internal/orgdata"
	"crewops/internal/workflow"
	"crewops/pkg/domain"
	dErrors "crewops/pkg/domain-errors"
	"crewops/pkg/requestcontext"
)

// Store persists leave requests.
type Store interface {
	Create(ctx context.Context, req leave.Request) error
	Get(ctx context.Context, id domain.LeaveID) (leave.Request, error)
	Update(ctx context.Context, req leave.Request) error
	ListByStatus(ctx context.Context, status workflow.State) ([]leave.Request, error)
}

// ConflictDetector classifies a request and proposes coverage.
type ConflictDetector interface {
	Detect(ctx context.Context, req leave.Request) (leave.ConflictOutcome, error)
}

type Service struct {
	store      Store
	detector   ConflictDetector
	engine     *workflow.Engine
	definition *workflow.Definition
	gateway    orgdata.Gateway
	metrics    *metrics.Metrics
	logger     *slog.Logger
}

func NewService(store Store, detector ConflictDetector, engine *workflow.Engine, gateway orgdata.Gateway, m *metrics.Metrics, logger *slog.Logger) *Service {
	return &Service{
		store:      store,
		detector:   detector,
		engine:     engine,
		definition: leave.Definition(),
		gateway:    gateway,
		metrics:    m,
		logger:     logger,
	}
}

// CreateInput is a new leave filing. Employees file for themselves; the
// employee reference comes from the authenticated actor, not the body.
type CreateInput struct {
	Type  leave.Type
	Start time.Time
	End   time.Time
	Notes string
}

func (in CreateInput) validate() error {
	if !in.Type.Valid() {
		return dErrors.Newf(dErrors.CodeInvalidInput, "unknown leave type %q", in.Type)
	}
	if in.Start.IsZero() || in.End.IsZero() {
		return dErrors.New(dErrors.CodeInvalidInput, "start and end dates are required")
	}
	if in.End.Before(in.Start) {
		return dErrors.New(dErrors.CodeInvalidInput, "end date precedes start date")
	}
	return nil
}

// Create files a new request at the initial workflow state.
func (s *Service) Create(ctx context.Context, actor domain.Actor, input CreateInput) (leave.Request, error) {
	if err := input.validate(); err != nil {
		return leave.Request{}, err
	}

	now := requestcontext.Now(ctx)
	window := orgdata.DateRange{Start: input.Start, End: input.End}
	req := leave.Request{
		ID:               domain.LeaveID(uuid.New()),
		EmployeeID:       actor.ID,
		Type:             input.Type,
		Window:           window,
		Days:             window.Days(),
		Status:           s.definition.Initial,
		ConflictSeverity: leave.SeverityNone,
		DecisionNotes:    input.Notes,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if err := s.store.Create(ctx, req); err != nil {
		return leave.Request{}, dErrors.Wrap(dErrors.CodeInternal, "create leave request", err)
	}

	s.metrics.RequestCreated()
	s.logger.InfoContext(ctx, "leave request filed",
		slog.String("request_id", requestcontext.RequestID(ctx)),
		slog.String("leave_id", req.ID.String()),
		slog.String("leave_type", string(req.Type)),
		slog.Int("days", req.Days),
	)
	return req, nil
}

// TransitionResult is the outcome of one leave action: the updated
// request, plus the conflict verdict when the action triggered the
// detector.
type TransitionResult struct {
	Request  leave.Request
	Conflict *leave.ConflictOutcome
}

// Transition performs one action on a request. The workflow engine owns
// legality, role checks, per-process serialization, and the atomic
// commit of the request update with its audit event; this service
// supplies the conflict decision hook and the entity mutation.
func (s *Service) Transition(ctx context.Context, id domain.LeaveID, action workflow.Action, actor domain.Actor, notes string) (TransitionResult, error) {
	var (
		current leave.Request
		outcome *leave.ConflictOutcome
	)

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
			if action == leave.ActionCancel && loaded.EmployeeID != actor.ID && actor.Role != domain.RoleAdmin {
				return "", dErrors.New(dErrors.CodeUnauthorizedActor, "only the requesting employee may cancel")
			}
			current = loaded
			return loaded.Status, nil
		},
		Decide: func(ctx context.Context) (workflow.State, workflow.Payload, error) {
			detected, err := s.detector.Detect(ctx, current)
			if err != nil {
				return "", workflow.Payload{}, err
			}
			outcome = &detected
			s.metrics.ConflictDetected(string(detected.Severity))

			record := &workflow.ConflictRecord{
				Severity:  string(detected.Severity),
				HardBlock: detected.HardBlock,
				Reason:    detected.Reason,
			}
			if detected.Escalate() {
				s.metrics.Escalated()
				return leave.StatusEscalated, workflow.Payload{Conflict: record}, nil
			}
			if detected.Alternate != nil {
				record.AlternateID = detected.Alternate.EmployeeID.String()
				s.metrics.AlternateAssigned()
			}
			return leave.StatusApproved, workflow.Payload{Conflict: record}, nil
		},
		Apply: func(ctx context.Context, next workflow.State) error {
			current.Status = next
			current.UpdatedAt = requestcontext.Now(ctx)
			if notes != "" {
				current.DecisionNotes = notes
			}
			applyReviewer(&current, action, actor)
			if outcome != nil {
				current.ConflictSeverity = outcome.Severity
				if !outcome.Escalate() && outcome.Alternate != nil {
					alternate := outcome.Alternate.EmployeeID
					current.Alternate = &alternate
				}
			}
			return s.store.Update(ctx, current)
		},
	}

	if _, err := s.engine.Transition(ctx, req); err != nil {
		return TransitionResult{}, err
	}
	return TransitionResult{Request: current, Conflict: outcome}, nil
}

func applyReviewer(req *leave.Request, action workflow.Action, actor domain.Actor) {
	reviewer := actor.ID
	switch action {
	case leave.ActionHRApprove:
		req.HRReviewer = &reviewer
	case leave.ActionReview:
		req.TeamLeadReviewer = &reviewer
	case leave.ActionApprove, leave.ActionReject:
		req.L6Reviewer = &reviewer
	}
}

// Get returns one request.
func (s *Service) Get(ctx context.Context, id domain.LeaveID) (leave.Request, error) {
	req, err := s.store.Get(ctx, id)
	if err != nil {
		return leave.Request{}, translateStoreErr(err)
	}
	return req, nil
}

// Pending returns the review queue for the actor's role: HR sees new
// filings, team leads the forwarded ones, L6 the escalations. Admin sees
// all three.
func (s *Service) Pending(ctx context.Context, actor domain.Actor) ([]leave.Request, error) {
	var statuses []workflow.State
	switch actor.Role {
	case domain.RoleHR:
		statuses = []workflow.State{leave.StatusPendingHR}
	case domain.RoleTeamLead:
		statuses = []workflow.State{leave.StatusForwarded}
	case domain.RoleL6:
		statuses = []workflow.State{leave.StatusEscalated}
	case domain.RoleAdmin:
		statuses = []workflow.State{leave.StatusPendingHR, leave.StatusForwarded, leave.StatusEscalated}
	default:
		return nil, dErrors.Newf(dErrors.CodeUnauthorizedActor, "role %q has no review queue", actor.Role)
	}

	var queue []leave.Request
	for _, status := range statuses {
		batch, err := s.store.ListByStatus(ctx, status)
		if err != nil {
			return nil, dErrors.Wrap(dErrors.CodeInternal, "list pending leave requests", err)
		}
		queue = append(queue, batch...)
	}
	return queue, nil
}

// Risk computes the advisory risk view for a request from the live
// incident and task snapshot.
func (s *Service) Risk(ctx context.Context, id domain.LeaveID) (leave.RiskAssessment, error) {
	req, err := s.store.Get(ctx, id)
	if err != nil {
		return leave.RiskAssessment{}, translateStoreErr(err)
	}

	var (
		incidents []orgdata.Incident
		tasks     []orgdata.Task
	)
	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		incidents, err = s.gateway.EmployeeIncidents(gCtx, req.EmployeeID)
		return err
	})
	g.Go(func() error {
		var err error
		tasks, err = s.gateway.EmployeeTasks(gCtx, req.EmployeeID, req.Window)
		return err
	})
	if err := g.Wait(); err != nil {
		return leave.RiskAssessment{}, dErrors.Wrap(dErrors.CodeUnavailable, "risk evidence fetch failed", err)
	}

	return leave.AssessRisk(req, incidents, tasks), nil
}

// History returns the request's transition log.
func (s *Service) History(ctx context.Context, id domain.LeaveID) ([]workflow.Event, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	return s.engine.History(ctx, id.Process())
}
