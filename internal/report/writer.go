package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/klauspost/compress/zstd"
)

// Formats accepted by WriteFiles.
const (
	FormatJSON = "json"
	FormatCSV  = "csv"
)

const compressedExt = ".zst"

// File describes one file written by WriteFiles.
type File struct {
	Path  string
	Bytes int64
}

// WriteJSON encodes doc as indented JSON.
func WriteJSON(w io.Writer, doc *Document) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	return nil
}

// WriteEpochsCSV writes every link's per-epoch rows.
func WriteEpochsCSV(w io.Writer, doc *Document) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"satellite", "station", "epoch", "calendar_time", "elevation_deg", "visible"}); err != nil {
		return err
	}
	for _, l := range doc.Links {
		for _, r := range l.Epochs {
			rec := []string{
				l.Satellite,
				l.Station,
				formatFloat(r.Epoch),
				r.CalendarTime.UTC().Format("2006-01-02T15:04:05.000Z07:00"),
				formatFloat(r.ElevationDeg),
				strconv.FormatBool(r.Visible),
			}
			if err := cw.Write(rec); err != nil {
				return err
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteWindowsCSV writes every link's windows, followed by the coverage
// windows under the satellite name "*".
func WriteWindowsCSV(w io.Writer, doc *Document) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{
		"satellite", "station", "window_id", "visible", "start_epoch",
		"length_in_samples", "duration_seconds", "partial_start", "partial_end",
	}); err != nil {
		return err
	}
	write := func(sat, station string, rows []WindowRow) error {
		for _, r := range rows {
			duration := ""
			if r.DurationSeconds != nil {
				duration = formatFloat(*r.DurationSeconds)
			}
			rec := []string{
				sat,
				station,
				strconv.Itoa(r.WindowID),
				strconv.FormatBool(r.Visible),
				formatFloat(r.StartEpoch),
				strconv.Itoa(r.LengthInSamples),
				duration,
				strconv.FormatBool(r.PartialStart),
				strconv.FormatBool(r.PartialEnd),
			}
			if err := cw.Write(rec); err != nil {
				return err
			}
		}
		return nil
	}
	for _, l := range doc.Links {
		if err := write(l.Satellite, l.Station, l.Windows); err != nil {
			return err
		}
	}
	if err := write("*", "*", doc.CoverageWindow); err != nil {
		return err
	}
	cw.Flush()
	return cw.Error()
}

// WriteFiles writes doc next to base in the requested format. JSON yields
// base.json; CSV yields base_epochs.csv and base_windows.csv. With compress
// every file is zstd-encoded and gains a .zst suffix.
func WriteFiles(base, format string, compress bool, doc *Document) ([]File, error) {
	type target struct {
		suffix string
		write  func(io.Writer, *Document) error
	}
	var targets []target
	switch format {
	case FormatJSON:
		targets = []target{{".json", WriteJSON}}
	case FormatCSV:
		targets = []target{{"_epochs.csv", WriteEpochsCSV}, {"_windows.csv", WriteWindowsCSV}}
	default:
		return nil, fmt.Errorf("unsupported report format %q", format)
	}

	if dir := filepath.Dir(base); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create report directory: %w", err)
		}
	}

	files := make([]File, 0, len(targets))
	for _, t := range targets {
		path := base + t.suffix
		if compress {
			path += compressedExt
		}
		n, err := writeFile(path, compress, func(w io.Writer) error { return t.write(w, doc) })
		if err != nil {
			return files, err
		}
		files = append(files, File{Path: path, Bytes: n})
	}
	return files, nil
}

func writeFile(path string, compress bool, fn func(io.Writer) error) (int64, error) {
	f, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	counter := &countingWriter{w: f}
	var w io.Writer = counter
	var enc *zstd.Encoder
	if compress {
		enc, err = zstd.NewWriter(counter, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if err != nil {
			return 0, fmt.Errorf("failed to create encoder: %w", err)
		}
		w = enc
	}

	if err := fn(w); err != nil {
		if enc != nil {
			_ = enc.Close()
		}
		return 0, fmt.Errorf("write %s: %w", path, err)
	}
	if enc != nil {
		if err := enc.Close(); err != nil {
			return 0, fmt.Errorf("flush %s: %w", path, err)
		}
	}
	if err := f.Close(); err != nil {
		return 0, fmt.Errorf("close %s: %w", path, err)
	}
	return counter.n, nil
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
