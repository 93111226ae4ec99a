// Package geodesy converts between geodetic coordinates on the WGS-84
// ellipsoid and Earth-centred, Earth-fixed Cartesian coordinates.
//
// Positions are in metres, angles in degrees.
package geodesy

import "math"

// WGS-84 ellipsoid parameters.
const (
	SemiMajorAxisM = 6378137.0
	Flattening     = 1.0 / 298.257223563
	eccentricitySq = Flattening * (2 - Flattening)
)

const degToRad = math.Pi / 180.0

// Point is a geodetic position.
type Point struct {
	LatDeg, LonDeg, AltM float64
}

// WGS84 implements the geodetic <-> ECF transform. The zero value is ready
// to use.
type WGS84 struct{}

// ToECF converts longitude/latitude (degrees) and altitude above the
// ellipsoid (metres) to ECF metres.
func (WGS84) ToECF(lonDeg, latDeg, altM float64) (x, y, z float64) {
	lat := latDeg * degToRad
	lon := lonDeg * degToRad

	sinLat := math.Sin(lat)
	cosLat := math.Cos(lat)

	// Radius of curvature in the prime vertical.
	n := SemiMajorAxisM / math.Sqrt(1-eccentricitySq*sinLat*sinLat)

	x = (n + altM) * cosLat * math.Cos(lon)
	y = (n + altM) * cosLat * math.Sin(lon)
	z = (n*(1-eccentricitySq) + altM) * sinLat
	return x, y, z
}

// ToGeodetic converts ECF metres back to geodetic coordinates using
// Bowring's iteration. Five iterations converge well below a millimetre for
// anything between the surface and GEO.
func (WGS84) ToGeodetic(x, y, z float64) Point {
	lon := math.Atan2(y, x)
	p := math.Sqrt(x*x + y*y)

	lat := math.Atan2(z, p*(1-eccentricitySq))
	for i := 0; i < 5; i++ {
		sinLat := math.Sin(lat)
		n := SemiMajorAxisM / math.Sqrt(1-eccentricitySq*sinLat*sinLat)
		lat = math.Atan2(z+eccentricitySq*n*sinLat, p)
	}

	sinLat := math.Sin(lat)
	cosLat := math.Cos(lat)
	n := SemiMajorAxisM / math.Sqrt(1-eccentricitySq*sinLat*sinLat)

	var alt float64
	if math.Abs(cosLat) > 1e-10 {
		alt = p/cosLat - n
	} else {
		// Near the poles p/cosLat is ill-conditioned.
		alt = math.Abs(z)/math.Abs(sinLat) - n*(1-eccentricitySq)
	}

	return Point{
		LatDeg: lat / degToRad,
		LonDeg: lon / degToRad,
		AltM:   alt,
	}
}
