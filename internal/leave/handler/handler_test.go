package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"crewops/internal/leave"
	"crewops/internal/leave/handler/mocks"
	leaveService "crewops/internal/leave/service"
	"crewops/internal/orgdata"
	"crewops/pkg/domain"
	dErrors "crewops/pkg/domain-errors"
	"crewops/pkg/requestcontext"
)

//go:generate mockgen -source=handler.go -destination=mocks/leave-mocks.go -package=mocks Service
type LeaveHandlerSuite struct {
	suite.Suite
	ctx context.Context
}

func (s *LeaveHandlerSuite) SetupSuite() {
	s.ctx = context.Background()
}

func TestLeaveHandlerSuite(t *testing.T) {
	suite.Run(t, new(LeaveHandlerSuite))
}

func newTestRouter(t *testing.T) (chi.Router, *mocks.MockService) {
	t.Helper()
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)
	mockService := mocks.NewMockService(ctrl)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	r := chi.NewRouter()
	New(mockService, logger).Register(r)
	return r, mockService
}

func asActor(req *http.Request, actor domain.Actor) *http.Request {
	return req.WithContext(requestcontext.WithActor(req.Context(), actor))
}

func sampleRequest(employee domain.EmployeeID) leave.Request {
	now := time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC)
	return leave.Request{
		ID:         domain.LeaveID(uuid.New()),
		EmployeeID: employee,
		Type:       leave.TypeVacation,
		Window: orgdata.DateRange{
			Start: time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC),
			End:   time.Date(2026, 9, 11, 0, 0, 0, 0, time.UTC),
		},
		Days:             5,
		Status:           leave.StatusPendingHR,
		ConflictSeverity: leave.SeverityNone,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

func (s *LeaveHandlerSuite) TestCreate() {
	router, mockService := newTestRouter(s.T())
	employee := domain.EmployeeID(uuid.New())
	actor := domain.Actor{ID: employee, Role: domain.RoleEmployee}
	created := sampleRequest(employee)

	mockService.EXPECT().Create(
		gomock.Any(),
		actor,
		leaveService.CreateInput{
			Type:  leave.TypeVacation,
			Start: created.Window.Start,
			End:   created.Window.End,
			Notes: "family trip",
		},
	).Return(created, nil)

	body := bytes.NewBufferString(`{"leave_type":"vacation","start_date":"2026-09-07","end_date":"2026-09-11","notes":"family trip"}`)
	req := asActor(httptest.NewRequest(http.MethodPost, "/leaves", body), actor)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(s.T(), http.StatusCreated, rec.Code)

	var resp map[string]any
	require.NoError(s.T(), json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(s.T(), created.ID.String(), resp["id"])
	assert.Equal(s.T(), "pending_hr_review", resp["status"])
	assert.Equal(s.T(), "2026-09-07", resp["start_date"])
	assert.Equal(s.T(), float64(5), resp["days"])
}

func (s *LeaveHandlerSuite) TestCreate_Unauthenticated() {
	router, _ := newTestRouter(s.T())

	body := bytes.NewBufferString(`{"leave_type":"vacation","start_date":"2026-09-07","end_date":"2026-09-11"}`)
	req := httptest.NewRequest(http.MethodPost, "/leaves", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(s.T(), http.StatusUnauthorized, rec.Code)
}

func (s *LeaveHandlerSuite) TestCreate_ValidationErrors() {
	cases := []struct {
		name string
		body string
	}{
		{"missing leave_type", `{"start_date":"2026-09-07","end_date":"2026-09-11"}`},
		{"missing dates", `{"leave_type":"vacation"}`},
		{"bad date format", `{"leave_type":"vacation","start_date":"07/09/2026","end_date":"2026-09-11"}`},
		{"unknown field", `{"leave_type":"vacation","start_date":"2026-09-07","end_date":"2026-09-11","surprise":true}`},
	}

	actor := domain.Actor{ID: domain.EmployeeID(uuid.New()), Role: domain.RoleEmployee}
	for _, tc := range cases {
		s.Run(tc.name, func() {
			router, _ := newTestRouter(s.T())
			req := asActor(httptest.NewRequest(http.MethodPost, "/leaves", bytes.NewBufferString(tc.body)), actor)
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)
			assert.Equal(s.T(), http.StatusBadRequest, rec.Code)
		})
	}
}

func (s *LeaveHandlerSuite) TestTransition() {
	router, mockService := newTestRouter(s.T())
	employee := domain.EmployeeID(uuid.New())
	actor := domain.Actor{ID: domain.EmployeeID(uuid.New()), Role: domain.RoleTeamLead}

	updated := sampleRequest(employee)
	updated.Status = leave.StatusApproved
	alternate := domain.EmployeeID(uuid.New())
	result := leaveService.TransitionResult{
		Request: updated,
		Conflict: &leave.ConflictOutcome{
			Severity:  leave.SeverityHigh,
			HardBlock: false,
			Reason:    "pending task overlaps leave window",
			Alternate: &leave.AlternateCandidate{EmployeeID: alternate, SkillMatchRatio: 0.8, AvailabilityRatio: 0.4, IncidentFree: true},
		},
	}

	mockService.EXPECT().Transition(
		gomock.Any(),
		updated.ID,
		leave.ActionReview,
		actor,
		"looks fine",
	).Return(result, nil)

	body := bytes.NewBufferString(`{"action":"review","notes":"looks fine"}`)
	req := asActor(httptest.NewRequest(http.MethodPost, "/leaves/"+updated.ID.String()+"/transitions", body), actor)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(s.T(), http.StatusOK, rec.Code)

	var resp struct {
		Request struct {
			Status string `json:"status"`
		} `json:"request"`
		Conflict struct {
			Severity    string  `json:"severity"`
			HardBlock   bool    `json:"hard_block"`
			AlternateID *string `json:"alternate_id"`
		} `json:"conflict"`
	}
	require.NoError(s.T(), json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(s.T(), "approved", resp.Request.Status)
	assert.Equal(s.T(), "high", resp.Conflict.Severity)
	assert.False(s.T(), resp.Conflict.HardBlock)
	require.NotNil(s.T(), resp.Conflict.AlternateID)
	assert.Equal(s.T(), alternate.String(), *resp.Conflict.AlternateID)
}

func (s *LeaveHandlerSuite) TestTransition_InvalidAction() {
	router, mockService := newTestRouter(s.T())
	actor := domain.Actor{ID: domain.EmployeeID(uuid.New()), Role: domain.RoleHR}
	leaveID := domain.LeaveID(uuid.New())

	mockService.EXPECT().Transition(gomock.Any(), leaveID, gomock.Any(), actor, gomock.Any()).
		Return(leaveService.TransitionResult{}, dErrors.New(dErrors.CodeInvalidTransition, "action approve is not permitted from pending_hr_review"))

	body := bytes.NewBufferString(`{"action":"approve"}`)
	req := asActor(httptest.NewRequest(http.MethodPost, "/leaves/"+leaveID.String()+"/transitions", body), actor)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(s.T(), http.StatusConflict, rec.Code)

	var resp map[string]string
	require.NoError(s.T(), json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(s.T(), "invalid_transition", resp["error"])
}

func (s *LeaveHandlerSuite) TestTransition_BadLeaveID() {
	router, _ := newTestRouter(s.T())
	actor := domain.Actor{ID: domain.EmployeeID(uuid.New()), Role: domain.RoleHR}

	body := bytes.NewBufferString(`{"action":"hr_approve"}`)
	req := asActor(httptest.NewRequest(http.MethodPost, "/leaves/not-a-uuid/transitions", body), actor)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(s.T(), http.StatusBadRequest, rec.Code)
}

func (s *LeaveHandlerSuite) TestGet_AvailableActions() {
	router, mockService := newTestRouter(s.T())
	employee := domain.EmployeeID(uuid.New())
	stored := sampleRequest(employee)

	mockService.EXPECT().Get(gomock.Any(), stored.ID).Return(stored, nil)

	actor := domain.Actor{ID: employee, Role: domain.RoleEmployee}
	req := asActor(httptest.NewRequest(http.MethodGet, "/leaves/"+stored.ID.String(), nil), actor)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(s.T(), http.StatusOK, rec.Code)

	var resp struct {
		Status           string   `json:"status"`
		AvailableActions []string `json:"available_actions"`
	}
	require.NoError(s.T(), json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(s.T(), "pending_hr_review", resp.Status)
	assert.Equal(s.T(), []string{"cancel"}, resp.AvailableActions,
		"an employee can only cancel before HR approves")
}

func (s *LeaveHandlerSuite) TestGet_NotFound() {
	router, mockService := newTestRouter(s.T())
	leaveID := domain.LeaveID(uuid.New())

	mockService.EXPECT().Get(gomock.Any(), leaveID).
		Return(leave.Request{}, dErrors.New(dErrors.CodeNotFound, "leave request not found"))

	req := httptest.NewRequest(http.MethodGet, "/leaves/"+leaveID.String(), nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(s.T(), http.StatusNotFound, rec.Code)
}

func (s *LeaveHandlerSuite) TestPending() {
	router, mockService := newTestRouter(s.T())
	actor := domain.Actor{ID: domain.EmployeeID(uuid.New()), Role: domain.RoleHR}
	queue := []leave.Request{sampleRequest(domain.EmployeeID(uuid.New())), sampleRequest(domain.EmployeeID(uuid.New()))}

	mockService.EXPECT().Pending(gomock.Any(), actor).Return(queue, nil)

	req := asActor(httptest.NewRequest(http.MethodGet, "/leaves/pending", nil), actor)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(s.T(), http.StatusOK, rec.Code)

	var resp struct {
		Requests []json.RawMessage `json:"requests"`
	}
	require.NoError(s.T(), json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(s.T(), resp.Requests, 2)
}

func (s *LeaveHandlerSuite) TestRisk() {
	router, mockService := newTestRouter(s.T())
	leaveID := domain.LeaveID(uuid.New())

	mockService.EXPECT().Risk(gomock.Any(), leaveID).Return(leave.RiskAssessment{
		Level:             leave.RiskMedium,
		ExtendedAbsence:   true,
		CriticalTaskCount: 1,
		BlockingIncidents: 0,
	}, nil)

	req := httptest.NewRequest(http.MethodGet, "/leaves/"+leaveID.String()+"/risk", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(s.T(), http.StatusOK, rec.Code)

	var resp riskResponse
	require.NoError(s.T(), json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(s.T(), "medium", resp.Level)
	assert.True(s.T(), resp.ExtendedAbsence)
	assert.Equal(s.T(), 1, resp.CriticalTaskCount)
}
