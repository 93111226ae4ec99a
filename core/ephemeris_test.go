package core

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/signalsfoundry/groundstation-visibility/timectrl"
)

const (
	issLine1 = "1 25544U 98067A   08264.51782528 -.00002182  00000-0 -11606-4 0  2927"
	issLine2 = "2 25544  51.6416 247.4627 0006703 130.5360 325.0288 15.72125391563537"
)

func TestSGP4Source_ProducesLEOPositions(t *testing.T) {
	src, err := NewSGP4Source("ISS", issLine1, issLine2)
	if err != nil {
		t.Fatalf("NewSGP4Source: %v", err)
	}

	start := time.Date(2008, time.September, 20, 12, 0, 0, 0, time.UTC)
	grid := timectrl.SampleGrid{Start: start, End: start.Add(10 * time.Minute), Step: time.Minute}

	eph, err := src.Ephemeris(context.Background(), grid)
	if err != nil {
		t.Fatalf("Ephemeris: %v", err)
	}
	if eph.SatelliteID != "ISS" || len(eph.Samples) != 11 || eph.StepSeconds != 60 {
		t.Fatalf("unexpected ephemeris shape: id=%q samples=%d step=%v", eph.SatelliteID, len(eph.Samples), eph.StepSeconds)
	}
	for i, s := range eph.Samples {
		// ISS orbited at roughly 330-360 km in 2008.
		if r := s.Position.Norm(); r < 6.6e6 || r > 6.9e6 {
			t.Fatalf("sample %d radius %.0f m outside LEO band", i, r)
		}
		if !s.Time.Equal(start.Add(time.Duration(i) * time.Minute)) {
			t.Fatalf("sample %d time %s", i, s.Time)
		}
	}
	if err := eph.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if eph.Samples[0].Epoch != grid.EpochOf(start) {
		t.Fatalf("first epoch %v, want %v", eph.Samples[0].Epoch, grid.EpochOf(start))
	}
}

func TestNewSGP4Source_RejectsBadTLE(t *testing.T) {
	bad := issLine1[:68] + "0"
	tests := []struct{ name, l1, l2 string }{
		{"checksum", bad, issLine2},
		{"short", issLine1[:40], issLine2},
		{"swapped", issLine2, issLine1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewSGP4Source("ISS", tt.l1, tt.l2); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestReadEphemerisCSV(t *testing.T) {
	in := strings.Join([]string{
		"epoch,x,y,z",
		"# generated offline",
		"0, 7000000, 0, 0",
		"60, 6990000, 350000, 0",
		"120, 6960000, 700000, 0",
	}, "\n")

	grid := timectrl.SampleGrid{Step: time.Minute}
	eph, err := ReadEphemerisCSV(strings.NewReader(in), "sat-1", grid)
	if err != nil {
		t.Fatalf("ReadEphemerisCSV: %v", err)
	}
	if len(eph.Samples) != 3 || eph.StepSeconds != 0 {
		t.Fatalf("samples=%d step=%v, want 3 samples and a derived step", len(eph.Samples), eph.StepSeconds)
	}
	if eph.Samples[1].Position != (Vec3{X: 6990000, Y: 350000}) {
		t.Fatalf("sample 1 position %+v", eph.Samples[1].Position)
	}
	if want := timectrl.J2000.Add(2 * time.Minute); !eph.Samples[2].Time.Equal(want) {
		t.Fatalf("sample 2 time %s, want %s", eph.Samples[2].Time, want)
	}
}

func TestReadEphemerisCSV_Errors(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want error
	}{
		{"bad number", "0,1,2,3\n10,1,x,3\n", nil},
		{"wrong field count", "0,1,2\n", nil},
		{"unordered", "0,1,2,3\n0,1,2,3\n", ErrUnorderedSeries},
		{"NaN position", "0,1,2,3\n10,NaN,2,3\n", errNonFinite},
		{"infinite epoch", "0,1,2,3\n+Inf,1,2,3\n", errNonFinite},
		{"NaN in first row", "0,1,nan,3\n10,1,2,3\n", errNonFinite},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadEphemerisCSV(strings.NewReader(tt.in), "sat", timectrl.SampleGrid{})
			if err == nil {
				t.Fatalf("expected error")
			}
			if tt.want != nil && !errors.Is(err, tt.want) {
				t.Fatalf("error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestReadEphemerisCSV_StepFromFileSpacing(t *testing.T) {
	// A 10 s file under a 60 s grid: windows are timed by the file.
	in := "0,7000000,0,0\n10,7000000,0,0\n20,7000000,0,0\n"
	grid := timectrl.SampleGrid{Step: time.Minute}
	eph, err := ReadEphemerisCSV(strings.NewReader(in), "sat-10s", grid)
	if err != nil {
		t.Fatalf("ReadEphemerisCSV: %v", err)
	}

	report, err := NewAnalyzer().Analyze(context.Background(), eph, equatorStation)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if len(report.Windows.Windows) != 1 {
		t.Fatalf("windows = %+v", report.Windows.Windows)
	}
	d, err := report.Windows.Windows[0].DurationSeconds()
	if err != nil || d != 30 {
		t.Fatalf("DurationSeconds = %v, %v; want 30", d, err)
	}
}

func TestCSVSource(t *testing.T) {
	src := &CSVSource{ID: "sat-2", Open: func() (io.ReadCloser, error) {
		return io.NopCloser(strings.NewReader("0,7000000,0,0\n30,7000000,1000,0\n")), nil
	}}
	eph, err := src.Ephemeris(context.Background(), timectrl.SampleGrid{})
	if err != nil {
		t.Fatalf("Ephemeris: %v", err)
	}
	if eph.SatelliteID != "sat-2" || len(eph.Samples) != 2 || eph.StepSeconds != 0 {
		t.Fatalf("unexpected ephemeris %+v", eph)
	}

	failing := &CSVSource{ID: "sat-3", Open: func() (io.ReadCloser, error) { return nil, io.ErrUnexpectedEOF }}
	if _, err := failing.Ephemeris(context.Background(), timectrl.SampleGrid{}); !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Fatalf("expected open error, got %v", err)
	}
}
