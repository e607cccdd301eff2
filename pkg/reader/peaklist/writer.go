package peaklist

import (
	"bufio"
	"fmt"
	"io"
	"strconv"

	"github.com/ChrisMcGann/ftmspeaks/pkg/core"
)

// Writer writes entries in the format read by Reader
type Writer struct {
	w     *bufio.Writer
	count int
}

// NewWriter creates a new peak list writer
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: bufio.NewWriter(w)}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// Write appends one entry
func (w *Writer) Write(e *Entry) error {
	if err := e.Raw.Validate(); err != nil {
		return fmt.Errorf("failed to write scan %d: %w", e.Params.ScanNumber, err)
	}

	if w.count > 0 {
		fmt.Fprintln(w.w)
	}
	w.count++

	p := e.Params
	fmt.Fprintf(w.w, "Scan: %d\n", p.ScanNumber)
	if p.RetentionTime != nil {
		fmt.Fprintf(w.w, "RT: %s\n", formatFloat(*p.RetentionTime))
	}
	fmt.Fprintf(w.w, "Polarity: %d\n", p.Polarity)
	if p.Label != "" {
		fmt.Fprintf(w.w, "Label: %s\n", p.Label)
	}
	fmt.Fprintf(w.w, "Type: %s\n", e.Raw.Kind)

	for _, term := range []struct {
		key string
		v   *float64
	}{
		{"Aterm", p.Calibration.A},
		{"Bterm", p.Calibration.B},
		{"Cterm", p.Calibration.C},
		{"BaselineNoise", p.BaselineNoise},
		{"BaselineNoiseStd", p.BaselineNoiseStd},
	} {
		if term.v != nil {
			fmt.Fprintf(w.w, "%s: %s\n", term.key, formatFloat(*term.v))
		}
	}
	for _, meta := range []struct{ key, v string }{
		{"Analyzer", p.Analyzer},
		{"Instrument", p.InstrumentLabel},
		{"Sample", p.SampleName},
	} {
		if meta.v != "" {
			fmt.Fprintf(w.w, "%s: %s\n", meta.key, meta.v)
		}
	}

	raw := e.Raw
	fmt.Fprintf(w.w, "Num points: %d\n", len(raw.X))
	for i := range raw.X {
		fmt.Fprintf(w.w, "%s\t%s", formatFloat(raw.X[i]), formatFloat(raw.Y[i]))
		if raw.Kind == core.KindCentroid {
			fmt.Fprintf(w.w, "\t%s", formatFloat(raw.ResolvingPower[i]))
			if len(raw.SignalToNoise) > 0 {
				fmt.Fprintf(w.w, "\t%s", formatFloat(raw.SignalToNoise[i]))
			}
		}
		fmt.Fprintln(w.w)
	}
	return nil
}

// Flush writes any buffered data
func (w *Writer) Flush() error {
	return w.w.Flush()
}
