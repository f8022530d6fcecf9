package esp

import "crewops/internal/orgdata"

// Coverage levels: a skill no one holds scores 0; a single overloaded
// holder 25; a single holder with spare capacity 50; two or more
// holders 100. A single holder is flagged as a single point of failure
// either way.
const (
	coverageNone             = 0
	coverageSingleOverloaded = 25
	coverageSingle           = 50
	coverageFull             = 100
)

// AnalyzeCoverage computes the per-skill coverage view for a project's
// required skills against a team snapshot.
// This is pure domain logic - no I/O, no side effects.
func AnalyzeCoverage(required []orgdata.RequiredSkill, team []orgdata.TeamMember) []SkillCoverage {
	out := make([]SkillCoverage, 0, len(required))
	for _, req := range required {
		coverage := SkillCoverage{Skill: req.Skill}
		var holders []orgdata.TeamMember
		for _, member := range team {
			if member.HasSkill(req.Skill) {
				holders = append(holders, member)
			}
		}
		coverage.HolderCount = len(holders)

		switch {
		case len(holders) == 0:
			coverage.CoveragePercent = coverageNone
		case len(holders) == 1:
			coverage.SinglePoint = true
			if holders[0].FreeHours() == 0 {
				coverage.CoveragePercent = coverageSingleOverloaded
			} else {
				coverage.CoveragePercent = coverageSingle
			}
		default:
			coverage.CoveragePercent = coverageFull
		}
		out = append(out, coverage)
	}
	return out
}
