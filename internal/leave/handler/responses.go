package handler

import (
	"sort"
	"time"

	"crewops/internal/leave"
	leaveService "crewops/internal/leave/service"
	"crewops/pkg/domain"
)

type leaveResponse struct {
	ID               string  `json:"id"`
	EmployeeID       string  `json:"employee_id"`
	LeaveType        string  `json:"leave_type"`
	StartDate        string  `json:"start_date"`
	EndDate          string  `json:"end_date"`
	Days             int     `json:"days"`
	Status           string  `json:"status"`
	ConflictSeverity string  `json:"conflict_severity"`
	AlternateID      *string `json:"alternate_id,omitempty"`
	DecisionNotes    string  `json:"decision_notes,omitempty"`
	CreatedAt        string  `json:"created_at"`
	UpdatedAt        string  `json:"updated_at"`
}

func toLeaveResponse(req leave.Request) leaveResponse {
	resp := leaveResponse{
		ID:               req.ID.String(),
		EmployeeID:       req.EmployeeID.String(),
		LeaveType:        string(req.Type),
		StartDate:        req.Window.Start.Format("2006-01-02"),
		EndDate:          req.Window.End.Format("2006-01-02"),
		Days:             req.Days,
		Status:           string(req.Status),
		ConflictSeverity: string(req.ConflictSeverity),
		DecisionNotes:    req.DecisionNotes,
		CreatedAt:        req.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:        req.UpdatedAt.UTC().Format(time.RFC3339),
	}
	if req.Alternate != nil {
		alternate := req.Alternate.String()
		resp.AlternateID = &alternate
	}
	return resp
}

type detailResponse struct {
	leaveResponse
	AvailableActions []string `json:"available_actions"`
}

// toDetailResponse augments the base view with the actions the calling
// actor may take from the request's current state.
func toDetailResponse(req leave.Request, actor domain.Actor) detailResponse {
	actions := leave.Definition().Actions(req.Status, actor.Role)
	available := make([]string, 0, len(actions))
	for _, action := range actions {
		available = append(available, string(action))
	}
	sort.Strings(available)
	return detailResponse{
		leaveResponse:    toLeaveResponse(req),
		AvailableActions: available,
	}
}

type conflictResponse struct {
	Severity    string  `json:"severity"`
	HardBlock   bool    `json:"hard_block"`
	Reason      string  `json:"reason,omitempty"`
	AlternateID *string `json:"alternate_id,omitempty"`
}

type transitionResponse struct {
	Request  leaveResponse     `json:"request"`
	Conflict *conflictResponse `json:"conflict,omitempty"`
}

func toTransitionResponse(result leaveService.TransitionResult) transitionResponse {
	resp := transitionResponse{Request: toLeaveResponse(result.Request)}
	if result.Conflict != nil {
		conflict := &conflictResponse{
			Severity:  string(result.Conflict.Severity),
			HardBlock: result.Conflict.HardBlock,
			Reason:    result.Conflict.Reason,
		}
		if result.Conflict.Alternate != nil {
			alternate := result.Conflict.Alternate.EmployeeID.String()
			conflict.AlternateID = &alternate
		}
		resp.Conflict = conflict
	}
	return resp
}

type riskResponse struct {
	Level             string `json:"level"`
	ExtendedAbsence   bool   `json:"extended_absence"`
	CriticalTaskCount int    `json:"critical_task_count"`
	BlockingIncidents int    `json:"blocking_incidents"`
}
