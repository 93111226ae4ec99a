package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/signalsfoundry/groundstation-visibility/model"
)

const sampleConfig = `
grid:
  start: 2008-09-20T12:00:00Z
  end: 2008-09-20T13:00:00Z
  step: 30s
stations_file: stations.yaml
stations: [toulouse, kourou]
workers: 4
constellations:
  - name: iss
    label: ISS
    satellites:
      - id: "25544"
        tle1: "1 25544U 98067A   08264.51782528 -.00002182  00000-0 -11606-4 0  2927"
        tle2: "2 25544  51.6416 247.4627 0006703 130.5360 325.0288 15.72125391563537"
  - name: demo
    satellites:
      - id: demo-1
        csv: ephemeris/demo-1.csv
logging:
  level: debug
output:
  path: out/report
  format: csv
  compress: true
`

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "run.yaml")
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	grid, err := cfg.SampleGrid()
	if err != nil {
		t.Fatalf("SampleGrid: %v", err)
	}
	if grid.Step != 30*time.Second || grid.Len() != 121 {
		t.Fatalf("grid step %s len %d", grid.Step, grid.Len())
	}
	if !grid.Reference.IsZero() {
		t.Fatalf("reference should default to zero (J2000), got %s", grid.Reference)
	}
	if cfg.Workers != 4 || cfg.Logging.Level != "debug" {
		t.Fatalf("workers=%d level=%q", cfg.Workers, cfg.Logging.Level)
	}
	if cfg.Output.Format != FormatCSV || !cfg.Output.Compress || cfg.Output.Path != "out/report" {
		t.Fatalf("output = %+v", cfg.Output)
	}
	if got := cfg.Resolve(cfg.StationsFile); got != filepath.Join(dir, "stations.yaml") {
		t.Fatalf("Resolve(stations_file) = %q", got)
	}
	if got := cfg.Resolve("/abs/path"); got != "/abs/path" {
		t.Fatalf("absolute path rewritten to %q", got)
	}

	models := cfg.ConstellationModels()
	if len(models) != 2 {
		t.Fatalf("got %d constellations", len(models))
	}
	if models[0].DisplayName() != "ISS" || models[0].Satellites[0].Kind != model.EphemerisTLE {
		t.Fatalf("iss = %+v", models[0])
	}
	csvSat := models[1].Satellites[0]
	if csvSat.Kind != model.EphemerisCSV || csvSat.CSVPath != filepath.Join(dir, "ephemeris/demo-1.csv") {
		t.Fatalf("demo satellite = %+v", csvSat)
	}
	if models[1].DisplayName() != "demo" {
		t.Fatalf("DisplayName fallback = %q", models[1].DisplayName())
	}
}

func TestParseDefaultsFormat(t *testing.T) {
	in := strings.Replace(sampleConfig, "  format: csv\n", "", 1)
	cfg, err := Parse([]byte(in))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.Output.Format != FormatJSON {
		t.Fatalf("default format = %q, want json", cfg.Output.Format)
	}
}

func TestValidateErrors(t *testing.T) {
	tests := map[string]struct {
		old, new string
		want     string
	}{
		"bad step":         {"step: 30s", "step: soon", "TimeDuration"},
		"zero step":        {"step: 30s", "step: 0s", "step must be positive"},
		"end before start": {"end: 2008-09-20T13:00:00Z", "end: 2008-09-20T11:00:00Z", "before start"},
		"no stations file": {"stations_file: stations.yaml", "", "stations_file"},
		"bad format":       {"format: csv", "format: xml", "output.format"},
		"negative workers": {"workers: 4", "workers: -1", "workers"},
		"no source":        {"        csv: ephemeris/demo-1.csv\n", "", "no ephemeris source"},
		"both sources":     {"        csv: ephemeris/demo-1.csv\n", "        csv: x.csv\n        tle1: a\n        tle2: b\n", "both tle and csv"},
		"duplicate id":     {"id: demo-1", `id: "25544"`, "listed in both"},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			in := strings.Replace(sampleConfig, tt.old, tt.new, 1)
			_, err := Parse([]byte(in))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("error = %v, want containing %q", err, tt.want)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestParseTracingSection(t *testing.T) {
	cfg, err := Parse([]byte(sampleConfig))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.Tracing.Enabled != nil || cfg.Tracing.SampleRatio != nil {
		t.Fatalf("absent tracing section should leave pointers nil: %+v", cfg.Tracing)
	}

	in := sampleConfig + `
tracing:
  enabled: false
  exporter: otlp
  endpoint: collector:4317
  sample_ratio: 0.5
`
	cfg, err = Parse([]byte(in))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	tr := cfg.Tracing
	if tr.Enabled == nil || *tr.Enabled || tr.Exporter != "otlp" || tr.Endpoint != "collector:4317" {
		t.Fatalf("tracing = %+v", tr)
	}
	if tr.SampleRatio == nil || *tr.SampleRatio != 0.5 {
		t.Fatalf("sample_ratio = %v", tr.SampleRatio)
	}

	for _, bad := range []string{"tracing:\n  exporter: zipkin\n", "tracing:\n  sample_ratio: 2\n"} {
		if _, err := Parse([]byte(sampleConfig + bad)); err == nil || !strings.Contains(err.Error(), "tracing.") {
			t.Fatalf("Parse(%q) error = %v", bad, err)
		}
	}
}
