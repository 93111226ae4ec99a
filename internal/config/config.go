// Package config loads the YAML run file for a visibility analysis.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/signalsfoundry/groundstation-visibility/model"
	"github.com/signalsfoundry/groundstation-visibility/timectrl"
)

// Report formats.
const (
	FormatJSON = "json"
	FormatCSV  = "csv"
)

// Config is the root of a run file.
type Config struct {
	Grid           GridConfig            `yaml:"grid"`
	StationsFile   string                `yaml:"stations_file"`
	Stations       []string              `yaml:"stations"`
	Constellations []ConstellationConfig `yaml:"constellations"`
	Workers        int                   `yaml:"workers"`
	Logging        LoggingConfig         `yaml:"logging"`
	Tracing        TracingConfig         `yaml:"tracing"`
	Output         OutputConfig          `yaml:"output"`

	// dir is the run file's directory; relative paths resolve against it.
	dir string
}

// GridConfig describes the sampling grid.
type GridConfig struct {
	Reference time.Time    `yaml:"reference"`
	Start     time.Time    `yaml:"start"`
	End       time.Time    `yaml:"end"`
	Step      TimeDuration `yaml:"step"`
}

// ConstellationConfig lists one constellation's satellites.
type ConstellationConfig struct {
	Name       string            `yaml:"name"`
	Label      string            `yaml:"label"`
	Satellites []SatelliteConfig `yaml:"satellites"`
}

// SatelliteConfig names an ephemeris source: either two TLE lines or a CSV
// file of ECF positions.
type SatelliteConfig struct {
	ID   string `yaml:"id"`
	TLE1 string `yaml:"tle1"`
	TLE2 string `yaml:"tle2"`
	CSV  string `yaml:"csv"`
}

// LoggingConfig overrides LOG_* environment defaults when set.
type LoggingConfig struct {
	Level      string `yaml:"level"`
	Format     string `yaml:"format"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

// TracingConfig overrides VIS_TRACING_* environment defaults. Pointer
// fields distinguish "unset" from an explicit false or zero.
type TracingConfig struct {
	Enabled     *bool    `yaml:"enabled"`
	Exporter    string   `yaml:"exporter"`
	Endpoint    string   `yaml:"endpoint"`
	ServiceName string   `yaml:"service_name"`
	SampleRatio *float64 `yaml:"sample_ratio"`
}

// OutputConfig controls report writing.
type OutputConfig struct {
	Path     string `yaml:"path"`
	Format   string `yaml:"format"`
	Compress bool   `yaml:"compress"`
}

// TimeDuration decodes Go duration strings such as "30s" or "1m".
type TimeDuration time.Duration

func (d *TimeDuration) UnmarshalYAML(value *yaml.Node) error {
	duration, err := time.ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("config.TimeDuration: failed to parse %q: %w", value.Value, err)
	}
	*d = TimeDuration(duration)
	return nil
}

func (d TimeDuration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Load reads, decodes and validates the run file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	cfg.dir = filepath.Dir(path)
	return cfg, nil
}

// Parse decodes and validates a run file held in memory. Relative paths are
// left relative to the working directory.
func Parse(data []byte) (*Config, error) {
	cfg := &Config{
		Output: OutputConfig{Format: FormatJSON},
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// Validate checks required fields and value ranges.
func (c *Config) Validate() error {
	if _, err := c.SampleGrid(); err != nil {
		return err
	}
	if c.StationsFile == "" {
		return fmt.Errorf("stations_file is required")
	}
	if len(c.Constellations) == 0 {
		return fmt.Errorf("at least one constellation is required")
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must not be negative")
	}
	switch c.Tracing.Exporter {
	case "", "stdout", "otlp":
	default:
		return fmt.Errorf("tracing.exporter %q is not one of stdout, otlp", c.Tracing.Exporter)
	}
	if r := c.Tracing.SampleRatio; r != nil && (*r < 0 || *r > 1) {
		return fmt.Errorf("tracing.sample_ratio %v out of range [0, 1]", *r)
	}
	switch c.Output.Format {
	case FormatJSON, FormatCSV:
	default:
		return fmt.Errorf("output.format %q is not one of json, csv", c.Output.Format)
	}

	seen := make(map[string]string)
	for i, cc := range c.Constellations {
		if cc.Name == "" {
			return fmt.Errorf("constellations[%d].name is required", i)
		}
		if len(cc.Satellites) == 0 {
			return fmt.Errorf("constellation %q has no satellites", cc.Name)
		}
		for j, sc := range cc.Satellites {
			if sc.ID == "" {
				return fmt.Errorf("constellation %q satellites[%d].id is required", cc.Name, j)
			}
			if prev, dup := seen[sc.ID]; dup {
				return fmt.Errorf("satellite %q listed in both %q and %q", sc.ID, prev, cc.Name)
			}
			seen[sc.ID] = cc.Name
			if _, err := sc.Kind(); err != nil {
				return fmt.Errorf("constellation %q: %w", cc.Name, err)
			}
		}
	}
	return nil
}

// SampleGrid returns the validated sampling grid.
func (c *Config) SampleGrid() (timectrl.SampleGrid, error) {
	g := timectrl.SampleGrid{
		Reference: c.Grid.Reference,
		Start:     c.Grid.Start,
		End:       c.Grid.End,
		Step:      time.Duration(c.Grid.Step),
	}
	if err := g.Validate(); err != nil {
		return timectrl.SampleGrid{}, fmt.Errorf("grid: %w", err)
	}
	return g, nil
}

// Resolve returns p relative to the run file's directory unless it is
// absolute.
func (c *Config) Resolve(p string) string {
	if p == "" || filepath.IsAbs(p) || c.dir == "" {
		return p
	}
	return filepath.Join(c.dir, p)
}

// ConstellationModels converts the configured constellations to model
// descriptors, resolving CSV paths.
func (c *Config) ConstellationModels() []model.Constellation {
	out := make([]model.Constellation, 0, len(c.Constellations))
	for _, cc := range c.Constellations {
		mc := model.Constellation{Name: cc.Name, Label: cc.Label}
		for _, sc := range cc.Satellites {
			kind, _ := sc.Kind()
			mc.Satellites = append(mc.Satellites, model.SatelliteSource{
				ID:       sc.ID,
				Kind:     kind,
				TLELine1: sc.TLE1,
				TLELine2: sc.TLE2,
				CSVPath:  c.Resolve(sc.CSV),
			})
		}
		out = append(out, mc)
	}
	return out
}

// Kind reports which ephemeris source the satellite uses.
func (s SatelliteConfig) Kind() (model.EphemerisKind, error) {
	hasTLE := s.TLE1 != "" || s.TLE2 != ""
	switch {
	case hasTLE && s.CSV != "":
		return model.EphemerisUnknown, fmt.Errorf("satellite %q sets both tle and csv", s.ID)
	case hasTLE:
		if s.TLE1 == "" || s.TLE2 == "" {
			return model.EphemerisUnknown, fmt.Errorf("satellite %q needs both tle1 and tle2", s.ID)
		}
		return model.EphemerisTLE, nil
	case s.CSV != "":
		return model.EphemerisCSV, nil
	default:
		return model.EphemerisUnknown, fmt.Errorf("satellite %q has no ephemeris source", s.ID)
	}
}
