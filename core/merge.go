package core

import (
	"errors"
	"fmt"

	"github.com/signalsfoundry/groundstation-visibility/model"
)

// ConstellationResult holds the reports computed for one constellation.
type ConstellationResult struct {
	Constellation model.Constellation
	Reports       []*Report
}

// MergedResult is the union of several constellations' reports.
//
// Coverage is nil when the reports do not share one epoch grid; CoverageErr
// then says why. Per-link reports stay usable either way.
type MergedResult struct {
	Constellations []model.Constellation
	Results        []ConstellationResult
	Reports        []*Report
	Coverage       *CoverageSeries
	CoverageErr    error
}

// Merge concatenates results in the given order and computes their combined
// coverage. Any number of constellations is accepted; an empty input or a
// result set with no reports fails with ErrEmptySeries. Misaligned series do
// not fail the merge: they leave Coverage nil and set CoverageErr.
func Merge(results []ConstellationResult) (*MergedResult, error) {
	out := &MergedResult{Results: results}
	for _, r := range results {
		out.Constellations = append(out.Constellations, r.Constellation)
		out.Reports = append(out.Reports, r.Reports...)
	}
	if len(out.Reports) == 0 {
		return nil, ErrEmptySeries
	}

	cov, err := Coverage(out.Reports)
	switch {
	case errors.Is(err, ErrMisalignedSeries):
		out.CoverageErr = err
	case err != nil:
		return nil, fmt.Errorf("merge %d constellations: %w", len(results), err)
	default:
		out.Coverage = cov
	}
	return out, nil
}
