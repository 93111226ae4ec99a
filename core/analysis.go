package core

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/signalsfoundry/groundstation-visibility/internal/logging"
	"github.com/signalsfoundry/groundstation-visibility/model"
)

const tracerName = "github.com/signalsfoundry/groundstation-visibility/core"

// AnalysisRecorder receives one observation per analysed
// (satellite, station) pair.
type AnalysisRecorder interface {
	RecordAnalysis(station, satellite string, samples, visibleWindows, hiddenWindows int, elapsed time.Duration, err error)
}

// Report is the result of analysing one ephemeris against one station.
type Report struct {
	SatelliteID string
	Station     model.Station
	Series      *VisibilitySeries
	Windows     *WindowTable
}

// Analyzer chains geometry evaluation and window segmentation.
type Analyzer struct {
	evaluator *Evaluator
	recorder  AnalysisRecorder
	log       logging.Logger
	tracer    trace.Tracer
}

// AnalyzerOption configures an Analyzer.
type AnalyzerOption func(*Analyzer)

// WithEvaluator replaces the default WGS-84 evaluator.
func WithEvaluator(e *Evaluator) AnalyzerOption {
	return func(a *Analyzer) {
		if e != nil {
			a.evaluator = e
		}
	}
}

// WithRecorder sets the metrics sink.
func WithRecorder(r AnalysisRecorder) AnalyzerOption {
	return func(a *Analyzer) { a.recorder = r }
}

// WithLogger sets the fallback logger used when the context carries none.
func WithLogger(l logging.Logger) AnalyzerOption {
	return func(a *Analyzer) {
		if l != nil {
			a.log = l
		}
	}
}

// NewAnalyzer builds an Analyzer.
func NewAnalyzer(opts ...AnalyzerOption) *Analyzer {
	a := &Analyzer{
		evaluator: NewEvaluator(),
		log:       logging.Noop(),
		tracer:    otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Analyze evaluates eph against station and segments the resulting
// visibility series. The ephemeris' nominal step, when set, drives the
// windows' elapsed-time counters.
func (a *Analyzer) Analyze(ctx context.Context, eph Ephemeris, station model.Station) (report *Report, err error) {
	ctx, span := a.tracer.Start(ctx, "visibility.Analyze", trace.WithAttributes(
		attribute.String("station", station.Name),
		attribute.String("satellite", eph.SatelliteID),
		attribute.Int("samples", len(eph.Samples)),
	))
	defer span.End()

	log := a.logger(ctx).With(
		logging.String("station", station.Name),
		logging.String("satellite", eph.SatelliteID),
	)
	start := time.Now()
	defer func() {
		a.record(station.Name, eph, report, time.Since(start), err)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			log.Warn(ctx, "visibility analysis failed", logging.Err(err))
		}
	}()

	if err := eph.Validate(); err != nil {
		return nil, err
	}

	eval, err := a.evaluator.Evaluate(ctx, eph.Positions(), station)
	if err != nil {
		return nil, fmt.Errorf("evaluate %q from %q: %w", eph.SatelliteID, station.Name, err)
	}

	epochs := eph.Epochs()
	windows, err := SegmentWithStep(epochs, eval.Visible, eph.StepSeconds)
	if err != nil {
		return nil, fmt.Errorf("segment %q from %q: %w", eph.SatelliteID, station.Name, err)
	}

	report = &Report{
		SatelliteID: eph.SatelliteID,
		Station:     station,
		Series: &VisibilitySeries{
			Epochs:          epochs,
			Times:           eph.Times(),
			ElevationDeg:    eval.ElevationDeg,
			Visible:         eval.Visible,
			MinElevationDeg: station.MinElevationDeg,
		},
		Windows: windows,
	}

	visible := len(windows.Filter(true))
	span.SetAttributes(
		attribute.Int("windows.visible", visible),
		attribute.Int("windows.hidden", len(windows.Windows)-visible),
	)
	log.Debug(ctx, "visibility analysis complete",
		logging.Int("samples", len(epochs)),
		logging.Int("windows", len(windows.Windows)),
		logging.Int("visible_windows", visible),
	)
	return report, nil
}

// AnalyzeAll analyses every ephemeris against every station. Reports are
// ordered by ephemeris, then station, matching the input order.
func (a *Analyzer) AnalyzeAll(ctx context.Context, ephemerides []Ephemeris, stations []model.Station) ([]*Report, error) {
	reports := make([]*Report, 0, len(ephemerides)*len(stations))
	for _, eph := range ephemerides {
		for _, st := range stations {
			r, err := a.Analyze(ctx, eph, st)
			if err != nil {
				return nil, err
			}
			reports = append(reports, r)
		}
	}
	return reports, nil
}

func (a *Analyzer) logger(ctx context.Context) logging.Logger {
	if l := logging.LoggerFromContext(ctx); l != nil {
		return l
	}
	return a.log
}

func (a *Analyzer) record(station string, eph Ephemeris, report *Report, elapsed time.Duration, err error) {
	if a.recorder == nil {
		return
	}
	var visible, hidden int
	if report != nil {
		visible = len(report.Windows.Filter(true))
		hidden = len(report.Windows.Windows) - visible
	}
	a.recorder.RecordAnalysis(station, eph.SatelliteID, len(eph.Samples), visible, hidden, elapsed, err)
}
