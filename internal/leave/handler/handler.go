// Package handler exposes the leave process over HTTP.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"crewops/internal/leave"
	leaveService "crewops/internal/leave/service"
	"crewops/internal/workflow"
	"crewops/pkg/domain"
	dErrors "crewops/pkg/domain-errors"
	"crewops/pkg/platform/httputil"
	"crewops/pkg/requestcontext"
)

// Service is the leave operations surface the handler consumes.
type Service interface {
	Create(ctx context.Context, actor domain.Actor, input leaveService.CreateInput) (leave.Request, error)
	Transition(ctx context.Context, id domain.LeaveID, action workflow.Action, actor domain.Actor, notes string) (leaveService.TransitionResult, error)
	Get(ctx context.Context, id domain.LeaveID) (leave.Request, error)
	Pending(ctx context.Context, actor domain.Actor) ([]leave.Request, error)
	Risk(ctx context.Context, id domain.LeaveID) (leave.RiskAssessment, error)
	History(ctx context.Context, id domain.LeaveID) ([]workflow.Event, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the leave routes. Auth middleware is applied by the
// caller; every route here assumes an authenticated actor in context.
func (h *Handler) Register(r chi.Router) {
	r.Post("/leaves", h.handleCreate)
	r.Get("/leaves/pending", h.handlePending)
	r.Get("/leaves/{leaveID}", h.handleGet)
	r.Post("/leaves/{leaveID}/transitions", h.handleTransition)
	r.Get("/leaves/{leaveID}/risk", h.handleRisk)
	r.Get("/leaves/{leaveID}/history", h.handleHistory)
}

type createRequest struct {
	LeaveType string `json:"leave_type"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	Notes     string `json:"notes,omitempty"`
}

func (req createRequest) Validate() error {
	if req.LeaveType == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "leave_type is required")
	}
	if req.StartDate == "" || req.EndDate == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "start_date and end_date are required")
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

	start, err := parseDate(body.StartDate)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	end, err := parseDate(body.EndDate)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	created, err := h.service.Create(ctx, actor, leaveService.CreateInput{
		Type:  leave.Type(body.LeaveType),
		Start: start,
		End:   end,
		Notes: body.Notes,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "leave create rejected",
			"request_id", requestID,
			"error", err.Error(),
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, toLeaveResponse(created))
}

type transitionRequest struct {
	Action string `json:"action"`
	Notes  string `json:"notes,omitempty"`
}

func (req transitionRequest) Validate() error {
	if req.Action == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "action is required")
	}
	return nil
}

func (h *Handler) handleTransition(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	actor := requestcontext.Actor(ctx)
	if actor.ID.IsNil() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	leaveID, err := domain.ParseLeaveID(chi.URLParam(r, "leaveID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	body, ok := httputil.DecodeAndPrepare[transitionRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	result, err := h.service.Transition(ctx, leaveID, workflow.Action(body.Action), actor, body.Notes)
	if err != nil {
		h.logger.WarnContext(ctx, "leave transition rejected",
			"request_id", requestID,
			"leave_id", leaveID.String(),
			"action", body.Action,
			"error", err.Error(),
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, toTransitionResponse(result))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	leaveID, err := domain.ParseLeaveID(chi.URLParam(r, "leaveID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	ctx := r.Context()
	req, err := h.service.Get(ctx, leaveID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	actor := requestcontext.Actor(ctx)
	httputil.WriteJSON(w, http.StatusOK, toDetailResponse(req, actor))
}

func (h *Handler) handlePending(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor := requestcontext.Actor(ctx)
	if actor.ID.IsNil() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	queue, err := h.service.Pending(ctx, actor)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	out := make([]leaveResponse, 0, len(queue))
	for _, req := range queue {
		out = append(out, toLeaveResponse(req))
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"requests": out})
}

func (h *Handler) handleRisk(w http.ResponseWriter, r *http.Request) {
	leaveID, err := domain.ParseLeaveID(chi.URLParam(r, "leaveID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	risk, err := h.service.Risk(r.Context(), leaveID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, riskResponse{
		Level:             string(risk.Level),
		ExtendedAbsence:   risk.ExtendedAbsence,
		CriticalTaskCount: risk.CriticalTaskCount,
		BlockingIncidents: risk.BlockingIncidents,
	})
}

func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	leaveID, err := domain.ParseLeaveID(chi.URLParam(r, "leaveID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	events, err := h.service.History(r.Context(), leaveID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"events": events})
}

func parseDate(raw string) (time.Time, error) {
	parsed, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, dErrors.Newf(dErrors.CodeInvalidInput, "invalid date %q, expected YYYY-MM-DD", raw)
	}
	return parsed, nil
}
