package core

import "math"

// DegenerateRangeM is the shortest line of sight, in metres, for which an
// elevation angle is still computed.
const DegenerateRangeM = 1e-3

// Vec3 is an Earth-fixed Cartesian vector in metres.
type Vec3 struct {
	X, Y, Z float64
}

// DistanceTo returns the straight-line distance between two points.
func (v Vec3) DistanceTo(other Vec3) float64 {
	return v.Sub(other).Norm()
}

// Norm returns the Euclidean norm of the vector.
func (v Vec3) Norm() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

// Sub returns v - other.
func (v Vec3) Sub(other Vec3) Vec3 {
	return Vec3{X: v.X - other.X, Y: v.Y - other.Y, Z: v.Z - other.Z}
}

// Dot returns the dot product of two vectors.
func (v Vec3) Dot(other Vec3) float64 {
	return v.X*other.X + v.Y*other.Y + v.Z*other.Z
}

// Scale returns v * k.
func (v Vec3) Scale(k float64) Vec3 {
	return Vec3{X: v.X * k, Y: v.Y * k, Z: v.Z * k}
}

// ElevationDegrees returns the elevation angle of the target as seen from
// the observer, in degrees. 0° = geometric horizon, 90° = overhead.
//
// The local zenith is the observer's normalised geocentric position, not the
// ellipsoid normal, so results differ from a topocentric SEZ rotation by up
// to ~0.2° at mid latitudes.
//
// A failure is reported as a *DegenerateGeometryError with Index 0, the
// target being treated as a one-sample batch, or Index -1 when the observer
// itself is unusable.
func ElevationDegrees(observer, target Vec3) (float64, error) {
	r := observer.Norm()
	if !usableRange(r) {
		return 0, &DegenerateGeometryError{Index: -1, RangeM: r}
	}
	zenith := observer.Scale(1 / r)

	el, err := elevationFromZenith(zenith, observer, target)
	if err != nil {
		return 0, &DegenerateGeometryError{Index: 0, RangeM: target.DistanceTo(observer)}
	}
	return el, nil
}

// IsFinite reports whether every component is neither NaN nor infinite.
func (v Vec3) IsFinite() bool {
	return !math.IsNaN(v.X) && !math.IsInf(v.X, 0) &&
		!math.IsNaN(v.Y) && !math.IsInf(v.Y, 0) &&
		!math.IsNaN(v.Z) && !math.IsInf(v.Z, 0)
}

// usableRange rejects NaN and ±Inf along with ranges below DegenerateRangeM.
func usableRange(r float64) bool {
	return r >= DegenerateRangeM && !math.IsInf(r, 1)
}

// elevationFromZenith is the per-sample kernel shared with the batch
// evaluator; zenith must already be a unit vector.
func elevationFromZenith(zenith, observer, target Vec3) (float64, error) {
	if !target.IsFinite() {
		return 0, ErrDegenerateGeometry
	}
	// Vector from observer to target.
	v := target.Sub(observer)
	vNorm := v.Norm()
	if !usableRange(vNorm) {
		return 0, ErrDegenerateGeometry
	}

	// Angle between v and zenith; the dot product of two unit vectors can
	// overshoot [-1, 1] by an ulp.
	cosGamma := v.Dot(zenith) / vNorm
	if cosGamma > 1 {
		cosGamma = 1
	} else if cosGamma < -1 {
		cosGamma = -1
	}
	gammaDeg := math.Acos(cosGamma) * 180.0 / math.Pi

	// Elevation is measured from local horizon (90° − zenith angle).
	return 90.0 - gammaDeg, nil
}
