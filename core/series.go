package core

import "time"

// VisibilitySeries is the per-epoch output of an analysis. All slices are
// index-aligned with the ephemeris the series was computed from.
type VisibilitySeries struct {
	Epochs          []float64
	Times           []time.Time
	ElevationDeg    []float64
	Visible         []bool
	MinElevationDeg float64
}

// EpochRow is one line of the per-epoch table.
type EpochRow struct {
	Epoch        float64
	CalendarTime time.Time
	ElevationDeg float64
	Visible      bool
}

// Len returns the number of samples.
func (s *VisibilitySeries) Len() int { return len(s.Epochs) }

// Rows flattens the series into table rows.
func (s *VisibilitySeries) Rows() []EpochRow {
	rows := make([]EpochRow, s.Len())
	for i := range rows {
		rows[i] = EpochRow{
			Epoch:        s.Epochs[i],
			ElevationDeg: s.ElevationDeg[i],
			Visible:      s.Visible[i],
		}
		if i < len(s.Times) {
			rows[i].CalendarTime = s.Times[i]
		}
	}
	return rows
}

// MaxElevation returns the highest elevation and its index, or (-90, -1)
// for an empty series.
func (s *VisibilitySeries) MaxElevation() (float64, int) {
	best, idx := -90.0, -1
	for i, el := range s.ElevationDeg {
		if idx < 0 || el > best {
			best, idx = el, i
		}
	}
	return best, idx
}
