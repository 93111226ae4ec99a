package core

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	satellite "github.com/joshuaferrara/go-satellite"

	"github.com/signalsfoundry/groundstation-visibility/timectrl"
)

// EphemerisSample is one satellite position at one epoch.
type EphemerisSample struct {
	Epoch    float64   // seconds since the grid reference
	Time     time.Time // calendar time of Epoch
	Position Vec3      // Earth-fixed, metres
}

// Ephemeris is an ordered position stream for one satellite.
type Ephemeris struct {
	SatelliteID string
	// StepSeconds is the nominal sampling step; 0 lets the segmenter derive
	// it from the first two epochs.
	StepSeconds float64
	Samples     []EphemerisSample
}

// Validate checks that epochs are strictly increasing.
func (e Ephemeris) Validate() error {
	for i := 1; i < len(e.Samples); i++ {
		if !(e.Samples[i].Epoch > e.Samples[i-1].Epoch) {
			return fmt.Errorf("ephemeris %q: %w at sample %d", e.SatelliteID, ErrUnorderedSeries, i)
		}
	}
	return nil
}

// Positions returns the sample positions in order.
func (e Ephemeris) Positions() []Vec3 {
	out := make([]Vec3, len(e.Samples))
	for i, s := range e.Samples {
		out[i] = s.Position
	}
	return out
}

// Epochs returns the sample epochs in order.
func (e Ephemeris) Epochs() []float64 {
	out := make([]float64, len(e.Samples))
	for i, s := range e.Samples {
		out[i] = s.Epoch
	}
	return out
}

// Times returns the sample calendar times in order.
func (e Ephemeris) Times() []time.Time {
	out := make([]time.Time, len(e.Samples))
	for i, s := range e.Samples {
		out[i] = s.Time
	}
	return out
}

// EphemerisSource produces a satellite's samples on a grid.
type EphemerisSource interface {
	Ephemeris(ctx context.Context, grid timectrl.SampleGrid) (Ephemeris, error)
}

// SGP4Source propagates a TLE with SGP4 and rotates the result into the
// Earth-fixed frame using GMST only (no polar motion).
type SGP4Source struct {
	ID  string
	sat satellite.Satellite
}

// NewSGP4Source parses the two TLE lines.
func NewSGP4Source(id, line1, line2 string) (*SGP4Source, error) {
	line1 = strings.TrimRight(line1, " \r\n")
	line2 = strings.TrimRight(line2, " \r\n")
	if err := validateTLELine(line1, '1'); err != nil {
		return nil, fmt.Errorf("satellite %q: %w", id, err)
	}
	if err := validateTLELine(line2, '2'); err != nil {
		return nil, fmt.Errorf("satellite %q: %w", id, err)
	}
	sat := satellite.TLEToSat(line1, line2, satellite.GravityWGS72)
	return &SGP4Source{ID: id, sat: sat}, nil
}

// Ephemeris propagates to every grid sample. go-satellite resolves time to
// whole seconds, so sub-second grid offsets are truncated.
func (s *SGP4Source) Ephemeris(ctx context.Context, grid timectrl.SampleGrid) (Ephemeris, error) {
	if err := grid.Validate(); err != nil {
		return Ephemeris{}, err
	}

	out := Ephemeris{
		SatelliteID: s.ID,
		StepSeconds: grid.StepSeconds(),
		Samples:     make([]EphemerisSample, 0, grid.Len()),
	}

	var walkErr error
	grid.Walk(func(i int, epoch float64, t time.Time) {
		if walkErr != nil {
			return
		}
		if i%ctxCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				walkErr = err
				return
			}
		}
		pos, err := s.positionAt(t)
		if err != nil {
			walkErr = fmt.Errorf("satellite %q at %s: %w", s.ID, t.Format(time.RFC3339), err)
			return
		}
		out.Samples = append(out.Samples, EphemerisSample{Epoch: epoch, Time: t, Position: pos})
	})
	if walkErr != nil {
		return Ephemeris{}, walkErr
	}
	return out, nil
}

// positionAt returns the ECF position in metres; go-satellite works in km.
func (s *SGP4Source) positionAt(t time.Time) (Vec3, error) {
	t = t.UTC()
	year, month, day := t.Date()
	hour, min, sec := t.Clock()

	posECI, _ := satellite.Propagate(s.sat, year, int(month), day, hour, min, sec)
	jd := satellite.JDay(year, int(month), day, hour, min, sec)
	gmst := satellite.ThetaG_JD(jd)
	posECEF := satellite.ECIToECEF(posECI, gmst)

	const kmToM = 1000.0
	pos := Vec3{X: posECEF.X * kmToM, Y: posECEF.Y * kmToM, Z: posECEF.Z * kmToM}
	if math.IsNaN(pos.X) || math.IsNaN(pos.Y) || math.IsNaN(pos.Z) || pos.Norm() == 0 {
		return Vec3{}, errors.New("sgp4 propagation diverged")
	}
	return pos, nil
}

func validateTLELine(line string, number byte) error {
	if len(line) != 69 {
		return fmt.Errorf("TLE line %c: length %d, want 69", number, len(line))
	}
	if line[0] != number || line[1] != ' ' {
		return fmt.Errorf("TLE line %c: bad line number prefix %q", number, line[:2])
	}
	sum := 0
	for _, c := range line[:68] {
		switch {
		case c >= '0' && c <= '9':
			sum += int(c - '0')
		case c == '-':
			sum++
		}
	}
	if want := int(line[68] - '0'); sum%10 != want {
		return fmt.Errorf("TLE line %c: checksum %d, want %d", number, sum%10, want)
	}
	return nil
}

// CSVSource reads a pre-computed ephemeris from disk through ReadEphemerisCSV.
type CSVSource struct {
	ID   string
	Open func() (io.ReadCloser, error)
}

// Ephemeris implements EphemerisSource. The grid supplies only the epoch
// reference; samples are not resampled onto it.
func (s *CSVSource) Ephemeris(ctx context.Context, grid timectrl.SampleGrid) (Ephemeris, error) {
	if err := ctx.Err(); err != nil {
		return Ephemeris{}, err
	}
	rc, err := s.Open()
	if err != nil {
		return Ephemeris{}, fmt.Errorf("satellite %q: open ephemeris: %w", s.ID, err)
	}
	defer rc.Close()
	return ReadEphemerisCSV(rc, s.ID, grid)
}

// ReadEphemerisCSV parses "epoch,x,y,z" rows: epoch in seconds since the
// grid reference, position in Earth-fixed metres. A non-numeric first row is
// treated as a header. NaN and infinite values are rejected. The step is
// left to the segmenter, which derives it from the file's own spacing.
func ReadEphemerisCSV(r io.Reader, satelliteID string, grid timectrl.SampleGrid) (Ephemeris, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = 4
	cr.TrimLeadingSpace = true
	cr.Comment = '#'

	out := Ephemeris{SatelliteID: satelliteID}

	for row := 0; ; row++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return Ephemeris{}, fmt.Errorf("ephemeris %q: %w", satelliteID, err)
		}

		vals, err := parseFloats(rec)
		if err != nil {
			if row == 0 && !errors.Is(err, errNonFinite) {
				continue
			}
			line, _ := cr.FieldPos(0)
			return Ephemeris{}, fmt.Errorf("ephemeris %q line %d: %w", satelliteID, line, err)
		}
		out.Samples = append(out.Samples, EphemerisSample{
			Epoch:    vals[0],
			Time:     grid.TimeAt(vals[0]),
			Position: Vec3{X: vals[1], Y: vals[2], Z: vals[3]},
		})
	}

	if err := out.Validate(); err != nil {
		return Ephemeris{}, err
	}
	return out, nil
}

var errNonFinite = errors.New("non-finite value")

func parseFloats(rec []string) ([]float64, error) {
	out := make([]float64, len(rec))
	for i, field := range rec {
		v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
		if err != nil {
			return nil, err
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("%w %q in column %d", errNonFinite, field, i+1)
		}
		out[i] = v
	}
	return out, nil
}
