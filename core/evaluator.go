package core

import (
	"context"
	"runtime"
	"sync"

	"github.com/signalsfoundry/groundstation-visibility/internal/geodesy"
	"github.com/signalsfoundry/groundstation-visibility/model"
)

// ParallelThreshold is the sample count below which Evaluate runs inline.
const ParallelThreshold = 4096

// ctxCheckInterval controls how often workers poll for cancellation.
const ctxCheckInterval = 1024

// GeodeticTransform converts a geodetic location to Earth-fixed metres.
type GeodeticTransform interface {
	ToECF(lonDeg, latDeg, altM float64) (x, y, z float64)
}

// Evaluation is the per-sample output of the geometry stage. All slices are
// index-aligned with the positions passed to Evaluate.
type Evaluation struct {
	StationECF   Vec3
	ElevationDeg []float64
	Visible      []bool
}

// Evaluator computes station-to-satellite elevation angles over a whole
// ephemeris at once.
type Evaluator struct {
	Transform GeodeticTransform
	Workers   int // <= 0 means runtime.NumCPU()
}

// NewEvaluator returns an Evaluator backed by the WGS-84 transform.
func NewEvaluator() *Evaluator {
	return &Evaluator{Transform: geodesy.WGS84{}}
}

// StationECF converts the station's geodetic location to ECF metres.
func (e *Evaluator) StationECF(station model.Station) Vec3 {
	tr := e.Transform
	if tr == nil {
		tr = geodesy.WGS84{}
	}
	x, y, z := tr.ToECF(station.LongitudeDeg, station.LatitudeDeg, station.AltitudeM)
	return Vec3{X: x, Y: y, Z: z}
}

// Evaluate returns the elevation of every position as seen from station and
// whether it clears the station's minimum elevation.
//
// A line of sight shorter than DegenerateRangeM fails the whole batch with a
// *DegenerateGeometryError naming the lowest offending index.
func (e *Evaluator) Evaluate(ctx context.Context, positions []Vec3, station model.Station) (*Evaluation, error) {
	stationECF := e.StationECF(station)
	r := stationECF.Norm()
	if !usableRange(r) {
		return nil, &DegenerateGeometryError{Index: -1, RangeM: r}
	}
	zenith := stationECF.Scale(1 / r)

	n := len(positions)
	out := &Evaluation{
		StationECF:   stationECF,
		ElevationDeg: make([]float64, n),
		Visible:      make([]bool, n),
	}

	workers := e.workers()
	if n < ParallelThreshold || workers == 1 {
		if err := evaluateRange(ctx, zenith, stationECF, positions, out.ElevationDeg, 0); err != nil {
			return nil, err
		}
	} else if err := e.evaluateParallel(ctx, workers, zenith, stationECF, positions, out.ElevationDeg); err != nil {
		return nil, err
	}

	threshold(out.ElevationDeg, station.MinElevationDeg, out.Visible)
	return out, nil
}

func (e *Evaluator) workers() int {
	if e.Workers > 0 {
		return e.Workers
	}
	return runtime.NumCPU()
}

// evaluateParallel splits the batch into contiguous chunks, one per worker.
// Chunks are independent; the lowest failing index wins so the error does
// not depend on scheduling.
func (e *Evaluator) evaluateParallel(ctx context.Context, workers int, zenith, stationECF Vec3, positions []Vec3, elev []float64) error {
	n := len(positions)
	chunk := (n + workers - 1) / workers

	errs := make([]error, workers)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		lo := w * chunk
		if lo >= n {
			break
		}
		hi := min(lo+chunk, n)

		wg.Add(1)
		go func(w, lo, hi int) {
			defer wg.Done()
			errs[w] = evaluateRange(ctx, zenith, stationECF, positions[lo:hi], elev[lo:hi], lo)
		}(w, lo, hi)
	}
	wg.Wait()

	// Chunks are ordered by index, so the first non-nil error is the lowest.
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

func evaluateRange(ctx context.Context, zenith, stationECF Vec3, positions []Vec3, elev []float64, offset int) error {
	for i, pos := range positions {
		if i%ctxCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		el, err := elevationFromZenith(zenith, stationECF, pos)
		if err != nil {
			return &DegenerateGeometryError{Index: offset + i, RangeM: pos.DistanceTo(stationECF)}
		}
		elev[i] = el
	}
	return nil
}

// Threshold derives visibility from elevation: visible[i] is true when
// elevation[i] >= minElevationDeg.
func Threshold(elevationDeg []float64, minElevationDeg float64) []bool {
	out := make([]bool, len(elevationDeg))
	threshold(elevationDeg, minElevationDeg, out)
	return out
}

func threshold(elevationDeg []float64, minElevationDeg float64, out []bool) {
	for i, el := range elevationDeg {
		out[i] = el >= minElevationDeg
	}
}
