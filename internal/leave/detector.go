package leave

import (
	"context"

	"golang.org/x/sync/errgroup"

	"crewops/internal/orgdata"
	dErrors "crewops/pkg/domain-errors"
)

// candidateFetchLimit bounds concurrent profile reads during alternate
// search so a large employee pool cannot stampede the org data source.
const candidateFetchLimit = 8

// Detector evaluates a leave request against the employee's current
// incident and task load, and proposes coverage when the rules require
// it. All reads are snapshots; any gateway failure aborts detection with
// a data-source error so the in-flight transition rolls back cleanly.
type Detector struct {
	gateway orgdata.Gateway
}

func NewDetector(gateway orgdata.Gateway) *Detector {
	return &Detector{gateway: gateway}
}

// Detect runs the conflict rule chain for the request. Incidents and
// tasks are fetched in parallel; the alternate search only runs when the
// classification demands one.
func (d *Detector) Detect(ctx context.Context, req Request) (ConflictOutcome, error) {
	var (
		incidents []orgdata.Incident
		tasks     []orgdata.Task
	)

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		incidents, err = d.gateway.EmployeeIncidents(gCtx, req.EmployeeID)
		return err
	})
	g.Go(func() error {
		var err error
		tasks, err = d.gateway.EmployeeTasks(gCtx, req.EmployeeID, req.Window)
		return err
	})
	if err := g.Wait(); err != nil {
		return ConflictOutcome{}, dErrors.Wrap(dErrors.CodeUnavailable, "conflict evidence fetch failed", err)
	}

	outcome := ClassifyConflict(incidents, tasks)
	if outcome.HardBlock || outcome.Severity == SeverityNone {
		return outcome, nil
	}

	alternate, found, err := d.findAlternate(ctx, req)
	if err != nil {
		return ConflictOutcome{}, err
	}
	if found {
		outcome.Alternate = &alternate
	}
	return outcome, nil
}

// findAlternate scores every active employee except the one departing
// against the departing employee's skill set.
func (d *Detector) findAlternate(ctx context.Context, req Request) (AlternateCandidate, bool, error) {
	departing, err := d.gateway.EmployeeProfile(ctx, req.EmployeeID)
	if err != nil {
		return AlternateCandidate{}, false, dErrors.Wrap(dErrors.CodeUnavailable, "departing profile fetch failed", err)
	}
	if len(departing.Skills) == 0 {
		return AlternateCandidate{}, false, nil
	}

	pool, err := d.gateway.ActiveEmployees(ctx)
	if err != nil {
		return AlternateCandidate{}, false, dErrors.Wrap(dErrors.CodeUnavailable, "candidate pool fetch failed", err)
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(candidateFetchLimit)
	candidates := make([]*AlternateCandidate, len(pool))

	for i, candidateID := range pool {
		if candidateID == req.EmployeeID {
			continue
		}
		g.Go(func() error {
			profile, err := d.gateway.EmployeeProfile(gCtx, candidateID)
			if err != nil {
				return err
			}
			incidents, err := d.gateway.EmployeeIncidents(gCtx, candidateID)
			if err != nil {
				return err
			}
			incidentFree := true
			for _, incident := range incidents {
				if incident.Severity.Blocking() {
					incidentFree = false
					break
				}
			}

			scored := ScoreCandidate(departing.Skills, profile, incidentFree)
			if scored.SkillMatchRatio > 0 {
				candidates[i] = &scored
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return AlternateCandidate{}, false, dErrors.Wrap(dErrors.CodeUnavailable, "candidate scoring failed", err)
	}

	scored := make([]AlternateCandidate, 0, len(candidates))
	for _, c := range candidates {
		if c != nil {
			scored = append(scored, *c)
		}
	}
	best, found := SelectAlternate(scored)
	return best, found, nil
}
