package core

import "math"

// WindowStats summarises the windows of one visibility state.
type WindowStats struct {
	Visible bool

	// Complete windows start and end inside the sampled interval.
	Count        int
	TotalSeconds float64
	MeanSeconds  float64
	MinSeconds   float64
	MaxSeconds   float64

	// Partial windows touch the series edges and are excluded from the
	// duration figures above.
	Partial int
}

// Summarize computes duration statistics over table's windows with the given
// visibility. It fails with ErrUndefinedStepSize when the table has no step.
func Summarize(table *WindowTable, visible bool) (WindowStats, error) {
	stats := WindowStats{Visible: visible}
	if table == nil {
		return stats, ErrEmptySeries
	}
	if _, err := table.StepSeconds(); err != nil {
		return stats, err
	}

	stats.MinSeconds = math.Inf(1)
	for _, w := range table.Filter(visible) {
		if w.Partial() {
			stats.Partial++
			continue
		}
		d, err := w.DurationSeconds()
		if err != nil {
			return stats, err
		}
		stats.Count++
		stats.TotalSeconds += d
		stats.MinSeconds = math.Min(stats.MinSeconds, d)
		stats.MaxSeconds = math.Max(stats.MaxSeconds, d)
	}
	if stats.Count == 0 {
		stats.MinSeconds = 0
		return stats, nil
	}
	stats.MeanSeconds = stats.TotalSeconds / float64(stats.Count)
	return stats, nil
}
