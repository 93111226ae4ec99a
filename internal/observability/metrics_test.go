package observability

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
)

func TestRecordAnalysisSuccess(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector, err := NewAnalysisCollector(reg)
	if err != nil {
		t.Fatalf("NewAnalysisCollector: %v", err)
	}

	collector.RecordAnalysis("toulouse", "ISS", 1440, 4, 5, 20*time.Millisecond, nil)

	if got := testutil.ToFloat64(collector.Analyses.WithLabelValues("toulouse", "ok")); got != 1 {
		t.Fatalf("visibility_analyses_total{status=ok} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(collector.SamplesEvaluated.WithLabelValues("toulouse")); got != 1440 {
		t.Fatalf("visibility_samples_evaluated_total = %v, want 1440", got)
	}
	if got := testutil.ToFloat64(collector.Windows.WithLabelValues("toulouse", "ISS", "visible")); got != 4 {
		t.Fatalf("visibility_windows{state=visible} = %v, want 4", got)
	}
	if got := testutil.ToFloat64(collector.Windows.WithLabelValues("toulouse", "ISS", "hidden")); got != 5 {
		t.Fatalf("visibility_windows{state=hidden} = %v, want 5", got)
	}
	if count := histogramSampleCount(t, reg, "visibility_analysis_duration_seconds", map[string]string{
		"station": "toulouse",
	}); count != 1 {
		t.Fatalf("visibility_analysis_duration_seconds sample_count = %d, want 1", count)
	}
}

func TestRecordAnalysisError(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector, err := NewAnalysisCollector(reg)
	if err != nil {
		t.Fatalf("NewAnalysisCollector: %v", err)
	}

	collector.RecordAnalysis("kiruna", "ISS", 10, 0, 0, time.Millisecond, errors.New("degenerate"))

	if got := testutil.ToFloat64(collector.Analyses.WithLabelValues("kiruna", "error")); got != 1 {
		t.Fatalf("visibility_analyses_total{status=error} = %v, want 1", got)
	}
	if got := testutil.CollectAndCount(collector.SamplesEvaluated); got != 0 {
		t.Fatalf("failed analysis should not count samples, got %d series", got)
	}
}

func TestNewAnalysisCollectorReusesRegistered(t *testing.T) {
	reg := prometheus.NewRegistry()
	first, err := NewAnalysisCollector(reg)
	if err != nil {
		t.Fatalf("first NewAnalysisCollector: %v", err)
	}
	second, err := NewAnalysisCollector(reg)
	if err != nil {
		t.Fatalf("second NewAnalysisCollector: %v", err)
	}
	if first.Analyses != second.Analyses {
		t.Fatalf("expected second collector to reuse the registered counter")
	}

	var nilCollector *AnalysisCollector
	nilCollector.RecordAnalysis("x", "y", 1, 1, 1, time.Second, nil)
}

func TestWriteTextfileExposesMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector, err := NewAnalysisCollector(reg)
	if err != nil {
		t.Fatalf("NewAnalysisCollector: %v", err)
	}
	collector.RecordAnalysis("toulouse", "ISS", 3, 1, 1, time.Millisecond, nil)

	path := filepath.Join(t.TempDir(), "visibility.prom")
	if err := collector.WriteTextfile(path); err != nil {
		t.Fatalf("WriteTextfile: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read textfile: %v", err)
	}

	body := string(data)
	for _, metric := range []string{
		"visibility_analyses_total",
		"visibility_analysis_duration_seconds",
		"visibility_samples_evaluated_total",
		"visibility_windows",
	} {
		if !strings.Contains(body, metric) {
			t.Fatalf("expected %q in metrics textfile", metric)
		}
	}
}

func histogramSampleCount(t *testing.T, gatherer prometheus.Gatherer, name string, labels map[string]string) uint64 {
	t.Helper()

	metrics, err := gatherer.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	for _, mf := range metrics {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.Metric {
			if matchLabels(m.GetLabel(), labels) && m.GetHistogram() != nil {
				return m.GetHistogram().GetSampleCount()
			}
		}
	}
	return 0
}

func matchLabels(got []*dto.LabelPair, want map[string]string) bool {
	if len(got) < len(want) {
		return false
	}
	matched := 0
	for _, lp := range got {
		if val, ok := want[lp.GetName()]; ok && val == lp.GetValue() {
			matched++
		}
	}
	return matched == len(want)
}
