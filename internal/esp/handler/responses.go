package handler

import (
	"sort"
	"time"

	"crewops/internal/esp"
	espService "crewops/internal/esp/service"
	"crewops/pkg/domain"
)

type lineItemResponse struct {
	ID        string `json:"id"`
	Skill     string `json:"skill"`
	Positions int    `json:"positions"`
	Level     string `json:"level,omitempty"`
	Priority  string `json:"priority,omitempty"`
}

type decisionResponse struct {
	ApprovedItems []string `json:"approved_items"`
	RejectedItems []string `json:"rejected_items"`
	DeferredItems []string `json:"deferred_items"`
}

type packageResponse struct {
	ID                 string             `json:"id"`
	ProjectID          string             `json:"project_id"`
	TeamID             string             `json:"team_id"`
	CreatedBy          string             `json:"created_by"`
	Title              string             `json:"title"`
	Status             string             `json:"status"`
	LineItems          []lineItemResponse `json:"line_items"`
	LatestSimulationID *string            `json:"latest_simulation_id,omitempty"`
	Decision           *decisionResponse  `json:"decision,omitempty"`
	DecisionNotes      string             `json:"decision_notes,omitempty"`
	CreatedAt          string             `json:"created_at"`
	UpdatedAt          string             `json:"updated_at"`
}

func toPackageResponse(pkg esp.Package) packageResponse {
	resp := packageResponse{
		ID:            pkg.ID.String(),
		ProjectID:     pkg.ProjectID.String(),
		TeamID:        pkg.TeamID.String(),
		CreatedBy:     pkg.CreatedBy.String(),
		Title:         pkg.Title,
		Status:        string(pkg.Status),
		DecisionNotes: pkg.DecisionNotes,
		CreatedAt:     pkg.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:     pkg.UpdatedAt.UTC().Format(time.RFC3339),
	}
	for _, item := range pkg.LineItems {
		resp.LineItems = append(resp.LineItems, lineItemResponse{
			ID:        item.ID.String(),
			Skill:     item.Skill,
			Positions: item.Positions,
			Level:     item.Level,
			Priority:  item.Priority,
		})
	}
	if pkg.LatestSimulation != nil {
		latest := pkg.LatestSimulation.String()
		resp.LatestSimulationID = &latest
	}
	if pkg.Decision != nil {
		decision := &decisionResponse{
			ApprovedItems: []string{},
			RejectedItems: []string{},
			DeferredItems: []string{},
		}
		for _, id := range pkg.Decision.ApprovedItems {
			decision.ApprovedItems = append(decision.ApprovedItems, id.String())
		}
		for _, id := range pkg.Decision.RejectedItems {
			decision.RejectedItems = append(decision.RejectedItems, id.String())
		}
		for _, id := range pkg.Decision.DeferredItems {
			decision.DeferredItems = append(decision.DeferredItems, id.String())
		}
		resp.Decision = decision
	}
	return resp
}

type detailsResponse struct {
	Package          packageResponse       `json:"package"`
	Simulation       *esp.SimulationResult `json:"latest_simulation,omitempty"`
	AvailableActions []string              `json:"available_actions"`
}

func toDetailsResponse(details espService.Details, actor domain.Actor) detailsResponse {
	actions := esp.Definition().Actions(details.Package.Status, actor.Role)
	available := make([]string, 0, len(actions))
	for _, action := range actions {
		available = append(available, string(action))
	}
	sort.Strings(available)
	return detailsResponse{
		Package:          toPackageResponse(details.Package),
		Simulation:       details.Simulation,
		AvailableActions: available,
	}
}
