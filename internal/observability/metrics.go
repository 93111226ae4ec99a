package observability

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// AnalysisCollector bundles Prometheus metrics for visibility analyses.
type AnalysisCollector struct {
	gatherer prometheus.Gatherer

	Analyses         *prometheus.CounterVec
	AnalysisDuration *prometheus.HistogramVec
	SamplesEvaluated *prometheus.CounterVec
	Windows          *prometheus.GaugeVec
}

// NewAnalysisCollector registers analysis metrics against the provided
// registerer, defaulting to the global Prometheus registry when nil.
func NewAnalysisCollector(reg prometheus.Registerer) (*AnalysisCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	analyses, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "visibility_analyses_total",
		Help: "Completed station/satellite visibility analyses, labeled by station and outcome.",
	}, []string{"station", "status"}), "visibility_analyses_total")
	if err != nil {
		return nil, err
	}

	duration, err := registerHistogramVec(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "visibility_analysis_duration_seconds",
		Help:    "Wall time of one station/satellite analysis in seconds.",
		Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30},
	}, []string{"station"}), "visibility_analysis_duration_seconds")
	if err != nil {
		return nil, err
	}

	samples, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "visibility_samples_evaluated_total",
		Help: "Ephemeris samples passed through the geometry evaluator.",
	}, []string{"station"}), "visibility_samples_evaluated_total")
	if err != nil {
		return nil, err
	}

	windows, err := registerGaugeVec(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "visibility_windows",
		Help: "Windows produced by the most recent analysis, labeled by station, satellite and state.",
	}, []string{"station", "satellite", "state"}), "visibility_windows")
	if err != nil {
		return nil, err
	}

	return &AnalysisCollector{
		gatherer:         gatherer,
		Analyses:         analyses,
		AnalysisDuration: duration,
		SamplesEvaluated: samples,
		Windows:          windows,
	}, nil
}

// RecordAnalysis satisfies core.AnalysisRecorder.
func (c *AnalysisCollector) RecordAnalysis(station, satellite string, samples, visibleWindows, hiddenWindows int, elapsed time.Duration, err error) {
	if c == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	if c.Analyses != nil {
		c.Analyses.WithLabelValues(station, status).Inc()
	}
	if c.AnalysisDuration != nil {
		c.AnalysisDuration.WithLabelValues(station).Observe(elapsed.Seconds())
	}
	if err != nil {
		return
	}
	if c.SamplesEvaluated != nil {
		c.SamplesEvaluated.WithLabelValues(station).Add(float64(samples))
	}
	if c.Windows != nil {
		c.Windows.WithLabelValues(station, satellite, "visible").Set(float64(visibleWindows))
		c.Windows.WithLabelValues(station, satellite, "hidden").Set(float64(hiddenWindows))
	}
}

// WriteTextfile dumps the current metrics in text exposition format, for the
// node_exporter textfile collector.
func (c *AnalysisCollector) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, c.gathererOrDefault()); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}

func (c *AnalysisCollector) gathererOrDefault() prometheus.Gatherer {
	if c == nil || c.gatherer == nil {
		return prometheus.DefaultGatherer
	}
	return c.gatherer
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerHistogramVec(reg prometheus.Registerer, vec *prometheus.HistogramVec, name string) (*prometheus.HistogramVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.HistogramVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerGaugeVec(reg prometheus.Registerer, vec *prometheus.GaugeVec, name string) (*prometheus.GaugeVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.GaugeVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}
