package report

import (
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"
)

// WriteSummary prints a short human-readable overview of doc and the files
// written for it.
func WriteSummary(w io.Writer, doc *Document, files []File, elapsed time.Duration) error {
	samples := 0
	visibleWindows := 0
	for _, l := range doc.Links {
		samples += len(l.Epochs)
		for _, win := range l.Windows {
			if win.Visible {
				visibleWindows++
			}
		}
	}

	covered := 0
	for _, c := range doc.Coverage {
		if c.AnyVisible {
			covered++
		}
	}
	pct := 0.0
	if len(doc.Coverage) > 0 {
		pct = 100 * float64(covered) / float64(len(doc.Coverage))
	}

	caption := doc.Caption
	if caption == "" {
		caption = "(unnamed)"
	}
	if _, err := fmt.Fprintf(w, "run %s: %s\n", doc.RunID, caption); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "  %s links, %s samples, %s visibility windows in %s\n",
		humanize.Comma(int64(len(doc.Links))),
		humanize.Comma(int64(samples)),
		humanize.Comma(int64(visibleWindows)),
		elapsed.Round(time.Millisecond),
	); err != nil {
		return err
	}
	if doc.CoverageError != "" {
		if _, err := fmt.Fprintf(w, "  coverage: unavailable (%s)\n", doc.CoverageError); err != nil {
			return err
		}
	} else if _, err := fmt.Fprintf(w, "  coverage: %s of %s epochs (%s%%)\n",
		humanize.Comma(int64(covered)),
		humanize.Comma(int64(len(doc.Coverage))),
		humanize.FtoaWithDigits(pct, 1),
	); err != nil {
		return err
	}
	for _, f := range files {
		if _, err := fmt.Fprintf(w, "  wrote %s (%s)\n", f.Path, humanize.Bytes(uint64(f.Bytes))); err != nil {
			return err
		}
	}
	return nil
}
