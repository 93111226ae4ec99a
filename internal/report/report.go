// Package report turns analysis results into the per-epoch and windows
// tables handed to downstream consumers.
package report

import (
	"errors"
	"strings"
	"time"

	"github.com/signalsfoundry/groundstation-visibility/core"
	"github.com/signalsfoundry/groundstation-visibility/model"
)

// EpochRow is one line of the per-epoch table.
type EpochRow struct {
	Epoch        float64   `json:"epoch"`
	CalendarTime time.Time `json:"calendar_time"`
	ElevationDeg float64   `json:"elevation_deg"`
	Visible      bool      `json:"visible"`
}

// WindowRow is one line of the windows table. DurationSeconds is nil when
// the sampling step is undefined.
type WindowRow struct {
	WindowID        int      `json:"window_id"`
	Visible         bool     `json:"visible"`
	StartEpoch      float64  `json:"start_epoch"`
	LengthInSamples int      `json:"length_in_samples"`
	DurationSeconds *float64 `json:"duration_seconds"`
	PartialStart    bool     `json:"partial_start"`
	PartialEnd      bool     `json:"partial_end"`
}

// Link is the report for one satellite seen from one station.
type Link struct {
	Satellite       string      `json:"satellite"`
	Constellation   string      `json:"constellation"`
	Station         string      `json:"station"`
	MinElevationDeg float64     `json:"min_elevation_deg"`
	Epochs          []EpochRow  `json:"epochs"`
	Windows         []WindowRow `json:"windows"`
}

// CoverageRow is one epoch of the combined coverage table.
type CoverageRow struct {
	Epoch        float64   `json:"epoch"`
	CalendarTime time.Time `json:"calendar_time"`
	VisibleCount int       `json:"visible_count"`
	AnyVisible   bool      `json:"any_visible"`
}

// Document is the full output of a run.
type Document struct {
	RunID          string        `json:"run_id"`
	Caption        string        `json:"caption"`
	Constellations []string      `json:"constellations"`
	StepSeconds    *float64      `json:"step_seconds"`
	Links          []Link        `json:"links"`
	Coverage       []CoverageRow `json:"coverage"`
	CoverageWindow []WindowRow   `json:"coverage_windows"`
	CoverageError  string        `json:"coverage_error,omitempty"`
}

// Caption joins constellation display names with spaces, in order.
func Caption(constellations []model.Constellation) string {
	return joinNames(constellations, " ", model.Constellation.DisplayName)
}

// Slug joins constellation names with underscores, for file names.
func Slug(constellations []model.Constellation) string {
	return joinNames(constellations, "_", func(c model.Constellation) string { return c.Name })
}

func joinNames(constellations []model.Constellation, sep string, name func(model.Constellation) string) string {
	parts := make([]string, 0, len(constellations))
	for _, c := range constellations {
		if n := name(c); n != "" {
			parts = append(parts, n)
		}
	}
	return strings.Join(parts, sep)
}

// Build converts merged analysis results into a Document. Each link
// carries the name of the constellation whose result produced it. When
// coverage is unavailable the coverage tables are empty and CoverageError
// says why.
func Build(runID string, merged *core.MergedResult) (*Document, error) {
	if merged == nil || len(merged.Reports) == 0 {
		return nil, errors.New("report: nothing to build")
	}

	names := make([]string, 0, len(merged.Constellations))
	for _, c := range merged.Constellations {
		names = append(names, c.Name)
	}

	doc := &Document{
		RunID:          runID,
		Caption:        Caption(merged.Constellations),
		Constellations: names,
		Links:          make([]Link, 0, len(merged.Reports)),
	}

	for _, res := range merged.Results {
		for _, r := range res.Reports {
			doc.Links = append(doc.Links, newLink(res.Constellation.Name, r))
		}
	}
	if len(merged.Results) == 0 {
		for _, r := range merged.Reports {
			doc.Links = append(doc.Links, newLink("", r))
		}
	}

	cov := merged.Coverage
	if cov == nil {
		if merged.CoverageErr != nil {
			doc.CoverageError = merged.CoverageErr.Error()
		} else {
			doc.CoverageError = "coverage not computed"
		}
		doc.Coverage = []CoverageRow{}
		doc.CoverageWindow = []WindowRow{}
		return doc, nil
	}

	if step, err := cov.Windows.StepSeconds(); err == nil {
		doc.StepSeconds = &step
	}
	times := merged.Reports[0].Series.Times
	doc.Coverage = make([]CoverageRow, len(cov.Epochs))
	for i := range cov.Epochs {
		doc.Coverage[i] = CoverageRow{
			Epoch:        cov.Epochs[i],
			VisibleCount: cov.VisibleCount[i],
			AnyVisible:   cov.AnyVisible[i],
		}
		if i < len(times) {
			doc.Coverage[i].CalendarTime = times[i]
		}
	}
	doc.CoverageWindow = WindowRows(cov.Windows)
	return doc, nil
}

func newLink(constellation string, r *core.Report) Link {
	return Link{
		Satellite:       r.SatelliteID,
		Constellation:   constellation,
		Station:         r.Station.Name,
		MinElevationDeg: r.Station.MinElevationDeg,
		Epochs:          EpochRows(r.Series),
		Windows:         WindowRows(r.Windows),
	}
}

// EpochRows converts a visibility series to table rows.
func EpochRows(s *core.VisibilitySeries) []EpochRow {
	rows := s.Rows()
	out := make([]EpochRow, len(rows))
	for i, r := range rows {
		out[i] = EpochRow(r)
	}
	return out
}

// WindowRows converts a windows table to rows.
func WindowRows(t *core.WindowTable) []WindowRow {
	out := make([]WindowRow, len(t.Windows))
	for i, w := range t.Windows {
		out[i] = WindowRow{
			WindowID:        w.ID,
			Visible:         w.Visible,
			StartEpoch:      w.StartEpoch,
			LengthInSamples: w.Length,
			PartialStart:    w.PartialStart,
			PartialEnd:      w.PartialEnd,
		}
		if d, err := w.DurationSeconds(); err == nil {
			out[i].DurationSeconds = &d
		}
	}
	return out
}
