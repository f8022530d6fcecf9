package leave

import (
	"sort"
	"strings"

	"crewops/internal/orgdata"
)

// Qualification thresholds for coverage candidates.
const (
	minSkillMatchRatio   = 0.80
	minAvailabilityRatio = 0.30
)

const extendedAbsenceDays = 3

// ClassifyConflict applies the conflict rule chain to a snapshot of the
// employee's incidents and overlapping tasks.
// This is pure domain logic - no I/O, no side effects.
// Rule priority (short-circuiting):
//  1. Open high/critical incident assigned to the employee - hard block,
//     overrides everything, no alternate search
//  2. Critical task overlapping the requested range - high severity,
//     alternate required
//  3. Pending/blocked task overlapping the range - high severity,
//     alternate required
//  4. Otherwise no conflict
func ClassifyConflict(incidents []orgdata.Incident, tasks []orgdata.Task) ConflictOutcome {
	// Rule 1: blocking incident - hard block, no alternate search
	for _, incident := range incidents {
		if incident.Severity.Blocking() {
			return ConflictOutcome{
				Severity:  SeverityCritical,
				HardBlock: true,
				Reason:    "employee is assigned an open high or critical incident",
			}
		}
	}

	// Rule 2: critical task in the window
	for _, task := range tasks {
		if task.Priority == orgdata.TaskPriorityCritical {
			return ConflictOutcome{
				Severity: SeverityHigh,
				Reason:   "critical task overlaps the requested dates",
			}
		}
	}

	// Rule 3: unfinished work in the window
	for _, task := range tasks {
		if task.Status.Pending() {
			return ConflictOutcome{
				Severity: SeverityHigh,
				Reason:   "pending or blocked tasks overlap the requested dates",
			}
		}
	}

	return ConflictOutcome{Severity: SeverityNone}
}

// ScoreCandidate computes a candidate's match against the departing
// employee's skill set. Required is the departing employee's skills; the
// ratio is the overlap divided by the required count.
func ScoreCandidate(required []string, profile orgdata.SkillProfile, incidentFree bool) AlternateCandidate {
	overlap := 0
	for _, skill := range required {
		for _, have := range profile.Skills {
			if have == skill {
				overlap++
				break
			}
		}
	}

	ratio := 0.0
	if len(required) > 0 {
		ratio = float64(overlap) / float64(len(required))
	}

	return AlternateCandidate{
		EmployeeID:        profile.EmployeeID,
		SkillMatchRatio:   ratio,
		AvailabilityRatio: profile.AvailabilityRatio(),
		IncidentFree:      incidentFree,
	}
}

// Qualifies reports whether the candidate clears all three bars.
func (c AlternateCandidate) Qualifies() bool {
	return c.SkillMatchRatio >= minSkillMatchRatio &&
		c.AvailabilityRatio >= minAvailabilityRatio &&
		c.IncidentFree
}

// SelectAlternate picks the best qualifying candidate: highest skill
// match, then highest availability, then lowest employee id. The sort is
// total, so repeated runs on identical input pick the same candidate.
func SelectAlternate(candidates []AlternateCandidate) (AlternateCandidate, bool) {
	qualifying := candidates[:0:0]
	for _, c := range candidates {
		if c.Qualifies() {
			qualifying = append(qualifying, c)
		}
	}
	if len(qualifying) == 0 {
		return AlternateCandidate{}, false
	}

	sort.Slice(qualifying, func(i, j int) bool {
		a, b := qualifying[i], qualifying[j]
		if a.SkillMatchRatio != b.SkillMatchRatio {
			return a.SkillMatchRatio > b.SkillMatchRatio
		}
		if a.AvailabilityRatio != b.AvailabilityRatio {
			return a.AvailabilityRatio > b.AvailabilityRatio
		}
		return strings.Compare(a.EmployeeID.String(), b.EmployeeID.String()) < 0
	})
	return qualifying[0], true
}

// AssessRisk produces the advisory risk view of a request from the same
// snapshot the conflict rules consume.
func AssessRisk(req Request, incidents []orgdata.Incident, tasks []orgdata.Task) RiskAssessment {
	assessment := RiskAssessment{
		ExtendedAbsence: req.Days > extendedAbsenceDays,
	}
	for _, incident := range incidents {
		if incident.Severity.Blocking() {
			assessment.BlockingIncidents++
		}
	}
	for _, task := range tasks {
		if task.Priority == orgdata.TaskPriorityCritical {
			assessment.CriticalTaskCount++
		}
	}

	// Open blocking incidents are the only high signal; critical tasks
	// and long absences flag medium on their own, however many.
	switch {
	case assessment.BlockingIncidents > 0:
		assessment.Level = RiskHigh
	case assessment.CriticalTaskCount >= 1 || assessment.ExtendedAbsence:
		assessment.Level = RiskMedium
	default:
		assessment.Level = RiskLow
	}
	return assessment
}
