// Package timectrl defines the sampling grid that ephemerides, visibility
// series and window tables share.
package timectrl

import (
	"fmt"
	"math"
	"time"
)

// J2000 is the reference instant epochs are counted from unless a grid
// overrides it.
var J2000 = time.Date(2000, time.January, 1, 12, 0, 0, 0, time.UTC)

// SampleGrid is a uniform sampling of [Start, End] every Step. Both ends are
// included when End-Start is a multiple of Step.
type SampleGrid struct {
	Reference time.Time // zero means J2000
	Start     time.Time
	End       time.Time
	Step      time.Duration
}

// Validate checks that the grid yields at least one sample.
func (g SampleGrid) Validate() error {
	if g.Step <= 0 {
		return fmt.Errorf("sample grid: step must be positive, got %s", g.Step)
	}
	if g.Start.IsZero() {
		return fmt.Errorf("sample grid: start time is unset")
	}
	if g.End.Before(g.Start) {
		return fmt.Errorf("sample grid: end %s is before start %s", g.End.Format(time.RFC3339), g.Start.Format(time.RFC3339))
	}
	return nil
}

// ReferenceTime returns the epoch origin.
func (g SampleGrid) ReferenceTime() time.Time {
	if g.Reference.IsZero() {
		return J2000
	}
	return g.Reference
}

// Len returns the number of samples on the grid.
func (g SampleGrid) Len() int {
	if g.Step <= 0 || g.End.Before(g.Start) {
		return 0
	}
	return int(g.End.Sub(g.Start)/g.Step) + 1
}

// StepSeconds returns the nominal step in seconds.
func (g SampleGrid) StepSeconds() float64 { return g.Step.Seconds() }

// TimeAt converts an epoch (seconds since the reference) to calendar time.
func (g SampleGrid) TimeAt(epoch float64) time.Time {
	whole, frac := math.Modf(epoch)
	return g.ReferenceTime().
		Add(time.Duration(whole) * time.Second).
		Add(time.Duration(math.Round(frac * float64(time.Second))))
}

// EpochOf converts a calendar time to seconds since the reference.
func (g SampleGrid) EpochOf(t time.Time) float64 {
	return t.Sub(g.ReferenceTime()).Seconds()
}

// Epochs returns every sample epoch in seconds since the reference.
func (g SampleGrid) Epochs() []float64 {
	out := make([]float64, 0, g.Len())
	g.Walk(func(_ int, epoch float64, _ time.Time) {
		out = append(out, epoch)
	})
	return out
}

// Times returns every sample as calendar time.
func (g SampleGrid) Times() []time.Time {
	out := make([]time.Time, 0, g.Len())
	g.Walk(func(_ int, _ float64, t time.Time) {
		out = append(out, t)
	})
	return out
}

// Walk calls fn for every sample in order.
func (g SampleGrid) Walk(fn func(i int, epoch float64, t time.Time)) {
	n := g.Len()
	for i := 0; i < n; i++ {
		t := g.Start.Add(time.Duration(i) * g.Step)
		fn(i, g.EpochOf(t), t)
	}
}
