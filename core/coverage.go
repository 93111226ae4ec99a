package core

import "fmt"

// CoverageSeries counts, per epoch, how many analysed links are visible.
type CoverageSeries struct {
	Epochs       []float64
	VisibleCount []int // sum of visible links at each epoch
	AnyVisible   []bool
	Links        int

	// Windows segments AnyVisible: a visible window is an interval during
	// which at least one link is up.
	Windows *WindowTable
}

// MinVisible returns the smallest per-epoch visible count.
func (c *CoverageSeries) MinVisible() int {
	if len(c.VisibleCount) == 0 {
		return 0
	}
	lo := c.VisibleCount[0]
	for _, v := range c.VisibleCount[1:] {
		lo = min(lo, v)
	}
	return lo
}

// Fraction returns the share of epochs with at least one visible link.
func (c *CoverageSeries) Fraction() float64 {
	if len(c.AnyVisible) == 0 {
		return 0
	}
	n := 0
	for _, v := range c.AnyVisible {
		if v {
			n++
		}
	}
	return float64(n) / float64(len(c.AnyVisible))
}

// Coverage combines reports sampled on the same epochs. Reports whose epoch
// grids differ in length or value fail with ErrMisalignedSeries.
func Coverage(reports []*Report) (*CoverageSeries, error) {
	if len(reports) == 0 {
		return nil, ErrEmptySeries
	}
	ref := reports[0].Series
	n := ref.Len()

	out := &CoverageSeries{
		Epochs:       append([]float64(nil), ref.Epochs...),
		VisibleCount: make([]int, n),
		AnyVisible:   make([]bool, n),
		Links:        len(reports),
	}
	step := 0.0
	for i, r := range reports {
		s := r.Series
		if s.Len() != n {
			return nil, fmt.Errorf("%w: report %d (%s/%s) has %d samples, want %d",
				ErrMisalignedSeries, i, r.SatelliteID, r.Station.Name, s.Len(), n)
		}
		for k, e := range s.Epochs {
			if e != ref.Epochs[k] {
				return nil, fmt.Errorf("%w: report %d (%s/%s) epoch[%d]=%v, want %v",
					ErrMisalignedSeries, i, r.SatelliteID, r.Station.Name, k, e, ref.Epochs[k])
			}
			if s.Visible[k] {
				out.VisibleCount[k]++
			}
		}
		if step == 0 && r.Windows != nil {
			if st, err := r.Windows.StepSeconds(); err == nil {
				step = st
			}
		}
	}
	for k, c := range out.VisibleCount {
		out.AnyVisible[k] = c > 0
	}

	table, err := SegmentWithStep(out.Epochs, out.AnyVisible, step)
	if err != nil {
		return nil, err
	}
	out.Windows = table
	return out, nil
}
