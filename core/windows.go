package core

import "fmt"

// Window is a maximal run of consecutive samples sharing one visibility
// value.
type Window struct {
	ID         int // 0-based, assigned in time order
	Visible    bool
	StartIndex int
	StartEpoch float64
	Length     int // samples

	// PartialStart/PartialEnd mark windows touching the first/last sample of
	// the series: their true extent may lie outside the sampled interval.
	PartialStart bool
	PartialEnd   bool

	step        float64
	stepDefined bool
}

// EndIndex returns the index of the window's last sample (inclusive).
func (w Window) EndIndex() int { return w.StartIndex + w.Length - 1 }

// Partial reports whether either edge of the window is truncated.
func (w Window) Partial() bool { return w.PartialStart || w.PartialEnd }

// ElapsedSeconds returns the running time-since-window-start for each of the
// window's samples: k*step for k = 1..Length. It uses the nominal step, not
// measured epoch deltas.
func (w Window) ElapsedSeconds() ([]float64, error) {
	if !w.stepDefined {
		return nil, ErrUndefinedStepSize
	}
	out := make([]float64, w.Length)
	for k := 1; k <= w.Length; k++ {
		out[k-1] = float64(k) * w.step
	}
	return out, nil
}

// DurationSeconds returns Length*step.
func (w Window) DurationSeconds() (float64, error) {
	if !w.stepDefined {
		return 0, ErrUndefinedStepSize
	}
	return float64(w.Length) * w.step, nil
}

// WindowTable is the run-length encoding of a visibility series.
type WindowTable struct {
	Windows []Window
	Samples int

	step        float64
	stepDefined bool
}

// StepSeconds returns the nominal sampling step used for elapsed times.
func (t *WindowTable) StepSeconds() (float64, error) {
	if !t.stepDefined {
		return 0, ErrUndefinedStepSize
	}
	return t.step, nil
}

// Filter returns the windows with the given visibility, in time order.
func (t *WindowTable) Filter(visible bool) []Window {
	var out []Window
	for _, w := range t.Windows {
		if w.Visible == visible {
			out = append(out, w)
		}
	}
	return out
}

// Segment run-length encodes visible over epochs, deriving the step from
// the first two epochs.
func Segment(epochs []float64, visible []bool) (*WindowTable, error) {
	return SegmentWithStep(epochs, visible, 0)
}

// SegmentWithStep is Segment with an explicit nominal step in seconds. A
// step <= 0 falls back to epochs[1]-epochs[0]; with a single sample the step
// stays undefined and elapsed-time accessors fail with ErrUndefinedStepSize.
//
// Equality is exact: no hysteresis or debouncing is applied, so a
// single-sample flicker produces its own window.
func SegmentWithStep(epochs []float64, visible []bool, step float64) (*WindowTable, error) {
	n := len(visible)
	if len(epochs) != n {
		return nil, fmt.Errorf("%w: %d epochs, %d visibility samples", ErrMisalignedSeries, len(epochs), n)
	}
	if n == 0 {
		return nil, ErrEmptySeries
	}
	for i := 1; i < n; i++ {
		if !(epochs[i] > epochs[i-1]) {
			return nil, fmt.Errorf("%w: epoch[%d]=%v follows epoch[%d]=%v", ErrUnorderedSeries, i, epochs[i], i-1, epochs[i-1])
		}
	}

	table := &WindowTable{Samples: n}
	switch {
	case step > 0:
		table.step, table.stepDefined = step, true
	case n > 1:
		table.step, table.stepDefined = epochs[1]-epochs[0], true
	}

	closeRun := func(id, start, end int, value bool) Window {
		return Window{
			ID:           id,
			Visible:      value,
			StartIndex:   start,
			StartEpoch:   epochs[start],
			Length:       end - start,
			PartialStart: start == 0,
			PartialEnd:   end == n,
			step:         table.step,
			stepDefined:  table.stepDefined,
		}
	}

	currentID := 0
	current := visible[0]
	runStart := 0
	for i := 1; i < n; i++ {
		if visible[i] == current {
			continue
		}
		table.Windows = append(table.Windows, closeRun(currentID, runStart, i, current))
		currentID++
		runStart = i
		current = visible[i]
	}
	table.Windows = append(table.Windows, closeRun(currentID, runStart, n, current))

	return table, nil
}
