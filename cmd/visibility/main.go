// Command visibility computes ground-station visibility windows for the
// satellites and stations named in a YAML run file.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/signalsfoundry/groundstation-visibility/core"
	"github.com/signalsfoundry/groundstation-visibility/internal/config"
	"github.com/signalsfoundry/groundstation-visibility/internal/geodesy"
	"github.com/signalsfoundry/groundstation-visibility/internal/logging"
	"github.com/signalsfoundry/groundstation-visibility/internal/observability"
	"github.com/signalsfoundry/groundstation-visibility/internal/report"
	"github.com/signalsfoundry/groundstation-visibility/kb"
	"github.com/signalsfoundry/groundstation-visibility/model"
)

type options struct {
	out         string
	format      string
	compress    bool
	workers     int
	metricsFile string

	// traceWriter receives stdout-exporter spans; nil means stderr.
	traceWriter io.Writer
}

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "warning: failed to load .env: %v\n", err)
	}

	configPath := flag.String("config", "configs/visibility.yaml", "Path to the YAML run file")
	var opts options
	flag.StringVar(&opts.out, "out", "", "Output path prefix (overrides output.path)")
	flag.StringVar(&opts.format, "format", "", "Report format: json or csv (overrides output.format)")
	flag.BoolVar(&opts.compress, "compress", false, "zstd-compress report files")
	flag.IntVar(&opts.workers, "workers", 0, "Geometry workers per analysis (0 = config or NumCPU)")
	flag.StringVar(&opts.metricsFile, "metrics-file", "", "Write Prometheus metrics to this textfile on exit")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logging.NewFromEnv().Error(ctx, "failed to load config", logging.String("path", *configPath), logging.Err(err))
		os.Exit(1)
	}

	log := logging.New(loggingConfig(logging.ConfigFromEnv(), cfg.Logging))
	if err := run(ctx, cfg, opts, log, os.Stdout); err != nil {
		log.Error(ctx, "visibility run failed", logging.Err(err))
		stop()
		os.Exit(1)
	}
}

// loggingConfig layers the run file's logging section over LOG_* defaults.
func loggingConfig(base logging.Config, c config.LoggingConfig) logging.Config {
	if c.Level != "" {
		base.Level = c.Level
	}
	if c.Format != "" {
		base.Format = c.Format
	}
	if c.File != "" {
		base.File = c.File
	}
	base.MaxSizeMB = c.MaxSizeMB
	base.MaxBackups = c.MaxBackups
	base.MaxAgeDays = c.MaxAgeDays
	return base
}

// tracingConfig layers the run file's tracing section over VIS_TRACING_*
// defaults.
func tracingConfig(base observability.TracingConfig, c config.TracingConfig) observability.TracingConfig {
	if c.Enabled != nil {
		base.Enabled = *c.Enabled
	}
	if c.Exporter != "" {
		base.Exporter = c.Exporter
	}
	if c.Endpoint != "" {
		base.Endpoint = c.Endpoint
	}
	if c.ServiceName != "" {
		base.ServiceName = c.ServiceName
	}
	if c.SampleRatio != nil {
		base.SampleRatio = *c.SampleRatio
	}
	return base
}

func run(ctx context.Context, cfg *config.Config, opts options, log logging.Logger, stdout io.Writer) error {
	started := time.Now()
	ctx, log = logging.WithRunLogger(ctx, log)
	runID := logging.RunIDFromContext(ctx)

	tcfg := tracingConfig(observability.TracingConfigFromEnv(), cfg.Tracing)
	tcfg.Writer = opts.traceWriter
	shutdown, err := observability.InitTracing(ctx, tcfg, log)
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer observability.ShutdownWithTimeout(context.Background(), shutdown, log)

	collector, err := observability.NewAnalysisCollector(prometheus.NewRegistry())
	if err != nil {
		return fmt.Errorf("init metrics: %w", err)
	}

	stations, err := loadStations(ctx, cfg, log)
	if err != nil {
		return err
	}
	grid, err := cfg.SampleGrid()
	if err != nil {
		return err
	}

	// Ended before the deferred shutdown flushes the exporter.
	ctx, span := observability.StartRun(ctx, observability.RunInfo{
		RunID:          runID,
		Stations:       len(stations),
		Constellations: len(cfg.Constellations),
		Samples:        grid.Len(),
	})
	defer span.End()

	workers := cfg.Workers
	if opts.workers > 0 {
		workers = opts.workers
	}
	analyzer := core.NewAnalyzer(
		core.WithEvaluator(&core.Evaluator{Transform: geodesy.WGS84{}, Workers: workers}),
		core.WithRecorder(collector),
		core.WithLogger(log),
	)

	log.Info(ctx, "starting visibility run",
		logging.Int("stations", len(stations)),
		logging.Int("samples", grid.Len()),
		logging.String("start", grid.Start.Format(time.RFC3339)),
		logging.String("end", grid.End.Format(time.RFC3339)),
	)

	constellations := cfg.ConstellationModels()
	results := make([]core.ConstellationResult, 0, len(constellations))
	for _, c := range constellations {
		ephs, err := buildEphemerides(ctx, c, grid, log)
		if err != nil {
			return err
		}
		reports, err := analyzer.AnalyzeAll(ctx, ephs, stations)
		if err != nil {
			return fmt.Errorf("constellation %q: %w", c.Name, err)
		}
		results = append(results, core.ConstellationResult{Constellation: c, Reports: reports})
	}

	merged, err := core.Merge(results)
	if err != nil {
		return err
	}
	if merged.CoverageErr != nil {
		log.Warn(ctx, "coverage unavailable; writing per-link reports only", logging.Err(merged.CoverageErr))
	} else {
		logCoverage(ctx, log, merged.Coverage)
	}

	doc, err := report.Build(runID, merged)
	if err != nil {
		return err
	}

	format := cfg.Output.Format
	if opts.format != "" {
		format = opts.format
	}
	files, err := report.WriteFiles(outputBase(cfg, opts, merged.Constellations), format, cfg.Output.Compress || opts.compress, doc)
	if err != nil {
		return err
	}

	if opts.metricsFile != "" {
		if err := collector.WriteTextfile(opts.metricsFile); err != nil {
			return err
		}
	}
	return report.WriteSummary(stdout, doc, files, time.Since(started))
}

func loadStations(ctx context.Context, cfg *config.Config, log logging.Logger) ([]model.Station, error) {
	path := cfg.Resolve(cfg.StationsFile)
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open station catalog: %w", err)
	}
	defer f.Close()

	catalog := kb.NewCatalog()
	unsubscribe := catalog.Subscribe(func(e kb.Event) {
		log.Debug(ctx, "station loaded",
			logging.String("station", e.Station.Name),
			logging.Float("latitude_deg", e.Station.LatitudeDeg),
			logging.Float("longitude_deg", e.Station.LongitudeDeg),
			logging.Float("min_elevation_deg", e.Station.MinElevationDeg),
		)
	})
	defer unsubscribe()
	if err := catalog.Load(f); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if len(cfg.Stations) > 0 {
		return catalog.Lookup(cfg.Stations...)
	}
	stations := catalog.ListStations()
	if len(stations) == 0 {
		return nil, fmt.Errorf("%s: no stations defined", path)
	}
	return stations, nil
}

func outputBase(cfg *config.Config, opts options, constellations []model.Constellation) string {
	switch {
	case opts.out != "":
		return opts.out
	case cfg.Output.Path != "":
		return cfg.Resolve(cfg.Output.Path)
	}
	slug := report.Slug(constellations)
	if slug == "" {
		slug = "visibility"
	}
	return filepath.Join("out", slug)
}

func logCoverage(ctx context.Context, log logging.Logger, cov *core.CoverageSeries) {
	gaps, err := core.Summarize(cov.Windows, false)
	if errors.Is(err, core.ErrUndefinedStepSize) {
		log.Info(ctx, "coverage computed", logging.Float("fraction", cov.Fraction()))
		return
	}
	if err != nil {
		log.Warn(ctx, "coverage statistics unavailable", logging.Err(err))
		return
	}
	log.Info(ctx, "coverage computed",
		logging.Float("fraction", cov.Fraction()),
		logging.Int("min_visible", cov.MinVisible()),
		logging.Int("gaps", gaps.Count),
		logging.Int("partial_gaps", gaps.Partial),
		logging.Float("max_gap_seconds", gaps.MaxSeconds),
		logging.Float("mean_gap_seconds", gaps.MeanSeconds),
	)
}
