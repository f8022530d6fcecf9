package esp

import (
	"fmt"
	"math"
	"sort"

	"crewops/internal/orgdata"
	"crewops/pkg/domain"
)

// Simulation tuning constants. productiveHoursPerPosition is the assumed
// productive output of one hired position per week; any fractional gap
// rounds up to a whole position.
const (
	productiveHoursPerPosition = 28.0
	monthlyCostPerPosition     = 9000.0

	reallocationSavingsShare = 0.30
	contractSavingsShare     = 0.20
	deferralHeadcountCut     = 0.30
)

// SimulationInput is the full snapshot a simulation run consumes. The
// service gathers it; Simulate itself does no I/O, so identical inputs
// always reproduce the identical result.
type SimulationInput struct {
	RequiredSkills []orgdata.RequiredSkill
	Team           []orgdata.TeamMember

	// ReallocationCandidates maps each skill to outside-team employees
	// under the reallocation workload ceiling.
	ReallocationCandidates map[string][]domain.EmployeeID

	// HasHistory is true when prior simulation runs exist for the project.
	HasHistory bool
}

// Simulate computes skill gaps, utilization risk, alternatives, and the
// confidence score for one package.
// This is pure domain logic - no I/O, no side effects.
func Simulate(input SimulationInput) SimulationResult {
	result := SimulationResult{
		Gaps: make([]SkillGap, 0, len(input.RequiredSkills)),
	}

	for _, required := range input.RequiredSkills {
		available := availableCapacity(required.Skill, input.Team)
		gap := required.HoursNeeded - available
		if gap < 0 {
			gap = 0
		}
		positions := int(math.Ceil(gap / productiveHoursPerPosition))
		result.Gaps = append(result.Gaps, SkillGap{
			Skill:           required.Skill,
			HoursNeeded:     required.HoursNeeded,
			AvailableHours:  available,
			GapHours:        gap,
			PositionsNeeded: positions,
		})
		result.TotalPositions += positions
	}

	result.Utilization = teamUtilization(input.Team)
	result.RiskLevel = classifyRisk(result.Utilization, result.GapCount())
	result.MonthlyCost = float64(result.TotalPositions) * monthlyCostPerPosition
	result.Alternatives = buildAlternatives(result, input)
	result.ConfidenceScore = confidenceScore(input)
	return result
}

// availableCapacity sums the free hours of team members listing the
// skill. A member's free hours count toward every skill they hold; the
// simulation does not solve the assignment problem, it estimates.
func availableCapacity(skill string, team []orgdata.TeamMember) float64 {
	total := 0.0
	for _, member := range team {
		if member.HasSkill(skill) {
			total += member.FreeHours()
		}
	}
	return total
}

func teamUtilization(team []orgdata.TeamMember) float64 {
	assigned, capacity := 0.0, 0.0
	for _, member := range team {
		assigned += member.AssignedHours
		capacity += member.WeeklyCapacity
	}
	if capacity == 0 {
		return 0
	}
	return assigned / capacity
}

// classifyRisk evaluates thresholds in descending severity; first match
// wins.
func classifyRisk(utilization float64, gapCount int) RiskLevel {
	switch {
	case utilization > 0.95 || gapCount >= 5:
		return RiskCritical
	case utilization > 0.85 || gapCount >= 3:
		return RiskHigh
	case utilization > 0.70 || gapCount >= 1:
		return RiskMedium
	default:
		return RiskLow
	}
}

// buildAlternatives generates the staffing options, ranked by monthly
// savings descending. Reallocation and contract staffing are always
// offered; deferral only when a gap exists.
func buildAlternatives(result SimulationResult, input SimulationInput) []Alternative {
	alternatives := []Alternative{
		reallocationAlternative(result, input),
		contractAlternative(result),
	}
	if result.GapCount() > 0 {
		alternatives = append(alternatives, deferralAlternative(result))
	}

	sort.SliceStable(alternatives, func(i, j int) bool {
		return alternatives[i].MonthlySavings > alternatives[j].MonthlySavings
	})
	return alternatives
}

func reallocationAlternative(result SimulationResult, input SimulationInput) Alternative {
	var candidates []domain.EmployeeID
	seen := make(map[domain.EmployeeID]bool)
	for _, gap := range result.Gaps {
		if gap.GapHours == 0 {
			continue
		}
		for _, id := range input.ReallocationCandidates[gap.Skill] {
			if !seen[id] {
				seen[id] = true
				candidates = append(candidates, id)
			}
		}
	}
	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].String() < candidates[j].String()
	})

	return Alternative{
		Kind:            AlternativeReallocation,
		Description:     fmt.Sprintf("reallocate %d internal candidates with matching skills", len(candidates)),
		MonthlySavings:  result.MonthlyCost * reallocationSavingsShare,
		Candidates:      candidates,
		PositionsNeeded: result.TotalPositions,
	}
}

func contractAlternative(result SimulationResult) Alternative {
	return Alternative{
		Kind:            AlternativeContract,
		Description:     fmt.Sprintf("fixed-term contract staffing for %d positions", result.TotalPositions),
		MonthlySavings:  result.MonthlyCost * contractSavingsShare,
		PositionsNeeded: result.TotalPositions,
	}
}

func deferralAlternative(result SimulationResult) Alternative {
	// Floor so the cut lands even on small packages; ceil would leave a
	// 3-position package uncut.
	reduced := int(math.Floor(float64(result.TotalPositions) * (1 - deferralHeadcountCut)))
	saved := float64(result.TotalPositions-reduced) * monthlyCostPerPosition
	return Alternative{
		Kind:            AlternativeDeferral,
		Description:     fmt.Sprintf("defer scope to cut required headcount from %d to %d", result.TotalPositions, reduced),
		MonthlySavings:  saved,
		PositionsNeeded: reduced,
	}
}

// confidenceScore starts at 0.5 and rewards richer inputs, capped at 1.
func confidenceScore(input SimulationInput) float64 {
	score := 0.5
	if len(input.Team) >= 5 {
		score += 0.2
	}
	if len(input.RequiredSkills) >= 3 {
		score += 0.2
	}
	if input.HasHistory {
		score += 0.1
	}
	if score > 1.0 {
		score = 1.0
	}
	return score
}
