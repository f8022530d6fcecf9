package service

import (
	"errors"

	dErrors "crewops/pkg/domain-errors"
	"crewops/pkg/platform/sentinel"
)

// translateStoreErr maps storage sentinels onto the domain error
// taxonomy at the service boundary.
func translateStoreErr(err error) error {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.Wrap(dErrors.CodeNotFound, "staffing package not found", err)
	case errors.Is(err, sentinel.ErrConflict):
		return dErrors.Wrap(dErrors.CodeConflict, "staffing package already exists", err)
	default:
		return dErrors.Wrap(dErrors.CodeInternal, "staffing store failure", err)
	}
}
