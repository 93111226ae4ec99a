package core

import (
	"errors"
	"fmt"
)

// Precondition failures. None of these are recoverable inside the package:
// they always mean an upstream collaborator handed over invalid input.
var (
	ErrDegenerateGeometry = errors.New("degenerate geometry: zero-length or non-finite line of sight")
	ErrEmptySeries        = errors.New("empty series")
	ErrUndefinedStepSize  = errors.New("step size undefined for a single-sample series")
	ErrMisalignedSeries   = errors.New("misaligned series")
	ErrUnorderedSeries    = errors.New("epochs are not strictly increasing")
)

// DegenerateGeometryError reports the sample whose line of sight collapsed
// or contained NaN/Inf. Index is the sample's position in the batch, and -1
// when the station position itself is degenerate.
type DegenerateGeometryError struct {
	Index  int
	RangeM float64
}

func (e *DegenerateGeometryError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("%v: station position norm %.3g m", ErrDegenerateGeometry, e.RangeM)
	}
	return fmt.Sprintf("%v: sample %d range %.3g m", ErrDegenerateGeometry, e.Index, e.RangeM)
}

func (e *DegenerateGeometryError) Unwrap() error { return ErrDegenerateGeometry }
