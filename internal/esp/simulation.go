package esp

import (
	"time"

	"crewops/pkg/domain"
)

// RiskLevel is the closed risk set for simulation results.
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

// AlternativeKind is the closed set of staffing alternatives.
type AlternativeKind string

const (
	AlternativeReallocation AlternativeKind = "internal_reallocation"
	AlternativeContract     AlternativeKind = "contract_staffing"
	AlternativeDeferral     AlternativeKind = "feature_deferral"
)

// SkillGap is the simulated shortfall for one required skill.
type SkillGap struct {
	Skill           string  `json:"skill"`
	HoursNeeded     float64 `json:"hours_needed"`
	AvailableHours  float64 `json:"available_hours"`
	GapHours        float64 `json:"gap_hours"`
	PositionsNeeded int     `json:"positions_needed"`
}

// Alternative is one ranked staffing option with its estimated monthly
// savings against the hire-everyone baseline.
type Alternative struct {
	Kind            AlternativeKind     `json:"kind"`
	Description     string              `json:"description"`
	MonthlySavings  float64             `json:"monthly_savings"`
	Candidates      []domain.EmployeeID `json:"candidates,omitempty"`
	PositionsNeeded int                 `json:"positions_needed"`
}

// SimulationResult is one immutable simulation run. Re-simulation
// produces a new result; prior results are never overwritten.
type SimulationResult struct {
	ID              domain.SimulationID `json:"id"`
	PackageID       domain.PackageID    `json:"package_id"`
	ProjectID       domain.ProjectID    `json:"project_id"`
	TeamID          domain.TeamID       `json:"team_id"`
	Gaps            []SkillGap          `json:"gaps"`
	TotalPositions  int                 `json:"total_positions"`
	Utilization     float64             `json:"utilization"`
	RiskLevel       RiskLevel           `json:"risk_level"`
	Alternatives    []Alternative       `json:"alternatives"`
	ConfidenceScore float64             `json:"confidence_score"`
	MonthlyCost     float64             `json:"monthly_cost"`
	CreatedAt       time.Time           `json:"created_at"`
}

// GapCount reports how many skills have a non-zero shortfall.
func (r SimulationResult) GapCount() int {
	count := 0
	for _, gap := range r.Gaps {
		if gap.GapHours > 0 {
			count++
		}
	}
	return count
}

// SkillCoverage is the read-only coverage view of one required skill: a
// percentage in {0, 25, 50, 100} plus a single-point-of-failure flag.
type SkillCoverage struct {
	Skill           string `json:"skill"`
	CoveragePercent int    `json:"coverage_percent"`
	HolderCount     int    `json:"holder_count"`
	SinglePoint     bool   `json:"single_point_of_failure"`
}
