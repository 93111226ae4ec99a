package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/signalsfoundry/groundstation-visibility/core"
	"github.com/signalsfoundry/groundstation-visibility/internal/geodesy"
	"github.com/signalsfoundry/groundstation-visibility/internal/logging"
	"github.com/signalsfoundry/groundstation-visibility/model"
	"github.com/signalsfoundry/groundstation-visibility/timectrl"
)

func ephemerisSource(sat model.SatelliteSource) (core.EphemerisSource, error) {
	switch sat.Kind {
	case model.EphemerisTLE:
		return core.NewSGP4Source(sat.ID, sat.TLELine1, sat.TLELine2)
	case model.EphemerisCSV:
		path := sat.CSVPath
		return &core.CSVSource{
			ID:   sat.ID,
			Open: func() (io.ReadCloser, error) { return os.Open(path) },
		}, nil
	default:
		return nil, fmt.Errorf("satellite %q: no ephemeris source", sat.ID)
	}
}

func buildEphemerides(ctx context.Context, c model.Constellation, grid timectrl.SampleGrid, log logging.Logger) ([]core.Ephemeris, error) {
	out := make([]core.Ephemeris, 0, len(c.Satellites))
	for _, sat := range c.Satellites {
		src, err := ephemerisSource(sat)
		if err != nil {
			return nil, fmt.Errorf("constellation %q: %w", c.Name, err)
		}
		eph, err := src.Ephemeris(ctx, grid)
		if err != nil {
			return nil, fmt.Errorf("constellation %q: %w", c.Name, err)
		}
		if len(eph.Samples) > 0 {
			p := eph.Samples[0].Position
			ssp := geodesy.WGS84{}.ToGeodetic(p.X, p.Y, p.Z)
			log.Debug(ctx, "ephemeris loaded",
				logging.String("constellation", c.Name),
				logging.String("satellite", sat.ID),
				logging.Int("samples", len(eph.Samples)),
				logging.Float("first_lat_deg", ssp.LatDeg),
				logging.Float("first_lon_deg", ssp.LonDeg),
				logging.Float("first_alt_km", ssp.AltM/1000),
			)
		}
		out = append(out, eph)
	}
	return out, nil
}
