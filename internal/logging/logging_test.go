package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestJSONLoggerWritesFields(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(Config{Level: "debug", Format: "json"}, &buf)

	log.With(String("station", "toulouse")).Info(context.Background(), "analysis complete",
		Int("windows", 3),
		Float("max_elevation_deg", 72.5),
		Bool("partial", true),
		Err(errors.New("boom")),
	)

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("decode log line %q: %v", buf.String(), err)
	}
	if rec["msg"] != "analysis complete" {
		t.Fatalf("msg = %v, want %q", rec["msg"], "analysis complete")
	}
	if rec["station"] != "toulouse" {
		t.Fatalf("station = %v, want toulouse", rec["station"])
	}
	if rec["windows"] != float64(3) {
		t.Fatalf("windows = %v, want 3", rec["windows"])
	}
	if rec["partial"] != true {
		t.Fatalf("partial = %v, want true", rec["partial"])
	}
	if rec["error"] != "boom" {
		t.Fatalf("error = %v, want boom", rec["error"])
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(Config{Level: "warn"}, &buf)

	log.Info(context.Background(), "hidden")
	log.Warn(context.Background(), "shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("info line should be filtered at warn level: %q", out)
	}
	if !strings.Contains(out, "shown") {
		t.Fatalf("warn line missing: %q", out)
	}
}

func TestWithRunLoggerStoresIDAndLogger(t *testing.T) {
	var buf bytes.Buffer
	base := NewWithWriter(Config{Format: "json"}, &buf)

	ctx, log := WithRunLogger(context.Background(), base)
	id := RunIDFromContext(ctx)
	if id == "" {
		t.Fatalf("expected run id on context")
	}
	if LoggerFromContext(ctx) == nil {
		t.Fatalf("expected logger on context")
	}

	// A second call keeps the existing ID.
	ctx2, _ := WithRunLogger(ctx, base)
	if got := RunIDFromContext(ctx2); got != id {
		t.Fatalf("run id changed from %q to %q", id, got)
	}

	log.Info(ctx, "hello")
	if !strings.Contains(buf.String(), id) {
		t.Fatalf("log line missing run id %q: %q", id, buf.String())
	}
}

func TestNoopAndNilContext(t *testing.T) {
	Noop().With(String("k", "v")).Error(context.Background(), "dropped")

	//nolint:staticcheck // nil context is part of the contract
	if LoggerFromContext(nil) != nil {
		t.Fatalf("LoggerFromContext(nil) should be nil")
	}
	//nolint:staticcheck
	if RunIDFromContext(nil) != "" {
		t.Fatalf("RunIDFromContext(nil) should be empty")
	}
}
