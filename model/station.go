package model

import "fmt"

// Station describes a fixed ground station. Values are immutable once
// loaded into a catalog; pass by value.
type Station struct {
	Name string

	LongitudeDeg float64
	LatitudeDeg  float64
	AltitudeM    float64 // above the WGS-84 ellipsoid

	// MinElevationDeg is the visibility threshold: a satellite is visible
	// when its elevation is >= this value.
	MinElevationDeg float64
}

// Validate checks that the station's coordinates are in range.
func (s Station) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("station name is empty")
	}
	if s.LatitudeDeg < -90 || s.LatitudeDeg > 90 {
		return fmt.Errorf("station %q: latitude %.6f out of range [-90, 90]", s.Name, s.LatitudeDeg)
	}
	if s.LongitudeDeg < -180 || s.LongitudeDeg > 360 {
		return fmt.Errorf("station %q: longitude %.6f out of range [-180, 360]", s.Name, s.LongitudeDeg)
	}
	if s.MinElevationDeg < -90 || s.MinElevationDeg > 90 {
		return fmt.Errorf("station %q: minimum elevation %.3f out of range [-90, 90]", s.Name, s.MinElevationDeg)
	}
	return nil
}
