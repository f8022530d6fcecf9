// Package handler exposes the staffing-package process over HTTP.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"crewops/internal/esp"
	espService "crewops/internal/esp/service"
	"crewops/internal/workflow"
	"crewops/pkg/domain"
	dErrors "crewops/pkg/domain-errors"
	"crewops/pkg/platform/httputil"
	"crewops/pkg/requestcontext"
)

// Service is the staffing operations surface the handler consumes.
type Service interface {
	Create(ctx context.Context, actor domain.Actor, input espService.CreateInput) (esp.Package, error)
	Transition(ctx context.Context, id domain.PackageID, action workflow.Action, actor domain.Actor, notes string, decision *esp.Decision) (esp.Package, error)
	Simulate(ctx context.Context, id domain.PackageID, actor domain.Actor) (esp.SimulationResult, error)
	Get(ctx context.Context, id domain.PackageID) (espService.Details, error)
	Coverage(ctx context.Context, projectID domain.ProjectID, teamID domain.TeamID) ([]esp.SkillCoverage, error)
	History(ctx context.Context, id domain.PackageID) ([]workflow.Event, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the staffing routes. Auth middleware is applied by the
// caller.
func (h *Handler) Register(r chi.Router) {
	r.Post("/esp/packages", h.handleCreate)
	r.Get("/esp/packages/{packageID}", h.handleGet)
	r.Post("/esp/packages/{packageID}/transitions", h.handleTransition)
	r.Post("/esp/packages/{packageID}/simulate", h.handleSimulate)
	r.Get("/esp/packages/{packageID}/history", h.handleHistory)
	r.Get("/projects/{projectID}/skill-coverage", h.handleCoverage)
}

type lineItemRequest struct {
	Skill     string `json:"skill"`
	Positions int    `json:"positions"`
	Level     string `json:"level,omitempty"`
	Priority  string `json:"priority,omitempty"`
}

type createRequest struct {
	ProjectID string            `json:"project_id"`
	TeamID    string            `json:"team_id"`
	Title     string            `json:"title"`
	Items     []lineItemRequest `json:"line_items"`
}

func (req createRequest) Validate() error {
	if req.ProjectID == "" || req.TeamID == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "project_id and team_id are required")
	}
	if len(req.Items) == 0 {
		return dErrors.New(dErrors.CodeInvalidInput, "line_items must not be empty")
	}
	return nil
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	actor := requestcontext.Actor(ctx)
	if actor.ID.IsNil() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	body, ok := httputil.DecodeAndPrepare[createRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	projectID, err := domain.ParseProjectID(body.ProjectID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	teamID, err := domain.ParseTeamID(body.TeamID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	input := espService.CreateInput{
		ProjectID: projectID,
		TeamID:    teamID,
		Title:     body.Title,
	}
	for _, item := range body.Items {
		input.Items = append(input.Items, espService.LineItemInput{
			Skill:     item.Skill,
			Positions: item.Positions,
			Level:     item.Level,
			Priority:  item.Priority,
		})
	}

	created, err := h.service.Create(ctx, actor, input)
	if err != nil {
		h.logger.WarnContext(ctx, "package create rejected",
			"request_id", requestID,
			"error", err.Error(),
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toPackageResponse(created))
}

type transitionRequest struct {
	Action        string   `json:"action"`
	Notes         string   `json:"notes,omitempty"`
	ApprovedItems []string `json:"approved_items,omitempty"`
	RejectedItems []string `json:"rejected_items,omitempty"`
	DeferredItems []string `json:"deferred_items,omitempty"`
}

func (req transitionRequest) Validate() error {
	if req.Action == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "action is required")
	}
	return nil
}

func (req transitionRequest) decision() (*esp.Decision, error) {
	if len(req.ApprovedItems) == 0 && len(req.RejectedItems) == 0 && len(req.DeferredItems) == 0 {
		return nil, nil
	}

	parse := func(raw []string) ([]uuid.UUID, error) {
		if len(raw) == 0 {
			return nil, nil
		}
		out := make([]uuid.UUID, 0, len(raw))
		for _, item := range raw {
			id, err := uuid.Parse(item)
			if err != nil {
				return nil, dErrors.Newf(dErrors.CodeInvalidInput, "invalid line item id %q", item)
			}
			out = append(out, id)
		}
		return out, nil
	}

	decision := &esp.Decision{}
	var err error
	if decision.ApprovedItems, err = parse(req.ApprovedItems); err != nil {
		return nil, err
	}
	if decision.RejectedItems, err = parse(req.RejectedItems); err != nil {
		return nil, err
	}
	if decision.DeferredItems, err = parse(req.DeferredItems); err != nil {
		return nil, err
	}
	return decision, nil
}

func (h *Handler) handleTransition(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	actor := requestcontext.Actor(ctx)
	if actor.ID.IsNil() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	packageID, err := domain.ParsePackageID(chi.URLParam(r, "packageID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	body, ok := httputil.DecodeAndPrepare[transitionRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	decision, err := body.decision()
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	updated, err := h.service.Transition(ctx, packageID, workflow.Action(body.Action), actor, body.Notes, decision)
	if err != nil {
		h.logger.WarnContext(ctx, "package transition rejected",
			"request_id", requestID,
			"package_id", packageID.String(),
			"action", body.Action,
			"error", err.Error(),
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toPackageResponse(updated))
}

func (h *Handler) handleSimulate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor := requestcontext.Actor(ctx)
	if actor.ID.IsNil() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	packageID, err := domain.ParsePackageID(chi.URLParam(r, "packageID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	result, err := h.service.Simulate(ctx, packageID, actor)
	if err != nil {
		h.logger.WarnContext(ctx, "simulation rejected",
			"request_id", requestcontext.RequestID(ctx),
			"package_id", packageID.String(),
			"error", err.Error(),
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	packageID, err := domain.ParsePackageID(chi.URLParam(r, "packageID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	ctx := r.Context()
	details, err := h.service.Get(ctx, packageID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	actor := requestcontext.Actor(ctx)
	httputil.WriteJSON(w, http.StatusOK, toDetailsResponse(details, actor))
}

func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	packageID, err := domain.ParsePackageID(chi.URLParam(r, "packageID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	events, err := h.service.History(r.Context(), packageID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"events": events})
}

func (h *Handler) handleCoverage(w http.ResponseWriter, r *http.Request) {
	projectID, err := domain.ParseProjectID(chi.URLParam(r, "projectID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	teamID, err := domain.ParseTeamID(r.URL.Query().Get("team_id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	coverage, err := h.service.Coverage(r.Context(), projectID, teamID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"skills": coverage})
}
