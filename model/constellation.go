package model

// EphemerisKind selects which collaborator produces a satellite's samples.
type EphemerisKind int

const (
	EphemerisUnknown EphemerisKind = iota
	EphemerisTLE                   // SGP4 propagation from a two-line element set
	EphemerisCSV                   // pre-computed Earth-fixed samples on disk
)

// SatelliteSource names a satellite and where its ephemeris comes from.
type SatelliteSource struct {
	ID   string
	Kind EphemerisKind

	TLELine1 string
	TLELine2 string

	// CSVPath points at an "epoch,x,y,z" file when Kind == EphemerisCSV.
	CSVPath string
}

// Constellation groups satellites that are analysed and reported together
// (e.g. "GPS", "Galileo").
type Constellation struct {
	Name       string
	Label      string // human-readable; defaults to Name
	Satellites []SatelliteSource
}

// DisplayName returns Label, falling back to Name.
func (c Constellation) DisplayName() string {
	if c.Label != "" {
		return c.Label
	}
	return c.Name
}
