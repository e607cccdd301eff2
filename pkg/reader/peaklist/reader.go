// Package peaklist provides a streaming reader for plain-text scan lists.
//
// Each entry is a block of "Key: value" header lines followed by
// "Num points: N" and N whitespace separated rows. Frequency and profile rows
// hold two columns (x, y); centroid rows hold m/z, abundance, resolving power
// and an optional S/N. Entries are separated by blank lines and lines
// starting with '#' are ignored.
package peaklist

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/ChrisMcGann/ftmspeaks/pkg/calibration"
	"github.com/ChrisMcGann/ftmspeaks/pkg/core"
)

// Entry is a single scan read from a peak list
type Entry struct {
	Raw    core.RawData
	Params core.Params
}

// Reader provides streaming access to peak list files
type Reader struct {
	scanner  *bufio.Scanner
	filename string
	lineNum  int
	current  *Entry
	err      error
}

// NewReader creates a new peak list reader. filename is recorded in the params of every entry.
func NewReader(r io.Reader, filename string) *Reader {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)
	return &Reader{
		scanner:  scanner,
		filename: filename,
	}
}

// Next advances to the next entry. Returns false when no more entries or error.
func (r *Reader) Next() bool {
	r.current = nil

	entry, err := r.readEntry()
	if err != nil {
		if err != io.EOF {
			r.err = err
		}
		return false
	}

	r.current = entry
	return true
}

// Entry returns the current entry
func (r *Reader) Entry() *Entry {
	return r.current
}

// Err returns any error encountered during reading
func (r *Reader) Err() error {
	return r.err
}

// readEntry reads a single entry from the peak list
func (r *Reader) readEntry() (*Entry, error) {
	entry := &Entry{
		Raw:    core.RawData{Kind: core.KindCentroid},
		Params: core.Params{Polarity: 1, Filename: r.filename},
	}

	started := false
	numPoints := -1
	pointsRead := 0

	for r.scanner.Scan() {
		r.lineNum++
		line := strings.TrimSpace(r.scanner.Text())

		if strings.HasPrefix(line, "#") {
			continue
		}
		if line == "" {
			if !started {
				continue
			}
			if numPoints < 0 {
				return nil, fmt.Errorf("line %d: entry ended before Num points", r.lineNum)
			}
			break
		}
		started = true

		if numPoints < 0 {
			key, value, ok := strings.Cut(line, ":")
			if !ok {
				return nil, fmt.Errorf("line %d: invalid header line %q", r.lineNum, line)
			}
			value = strings.TrimSpace(value)

			if key == "Num points" {
				n, err := strconv.Atoi(value)
				if err != nil {
					return nil, fmt.Errorf("line %d: invalid num points: %w", r.lineNum, err)
				}
				numPoints = n
				if n == 0 {
					break
				}
				continue
			}
			if err := parseHeader(entry, key, value); err != nil {
				return nil, fmt.Errorf("line %d: %w", r.lineNum, err)
			}
			continue
		}

		if err := parsePoint(&entry.Raw, line); err != nil {
			return nil, fmt.Errorf("line %d: %w", r.lineNum, err)
		}
		pointsRead++
		if pointsRead >= numPoints {
			break
		}
	}

	if err := r.scanner.Err(); err != nil {
		return nil, err
	}
	if !started {
		return nil, io.EOF
	}
	if numPoints < 0 {
		return nil, fmt.Errorf("line %d: entry without Num points", r.lineNum)
	}
	if pointsRead != numPoints {
		return nil, fmt.Errorf("line %d: expected %d points, read %d", r.lineNum, numPoints, pointsRead)
	}
	if err := entry.Raw.Validate(); err != nil {
		return nil, fmt.Errorf("scan %d: %w", entry.Params.ScanNumber, err)
	}
	return entry, nil
}

func parseFloat(key, value string) (float64, error) {
	v, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}

// parseHeader sets the params field named by key
func parseHeader(e *Entry, key, value string) error {
	switch key {
	case "Scan":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid scan: %w", err)
		}
		e.Params.ScanNumber = n

	case "RT":
		rt, err := parseFloat(key, value)
		if err != nil {
			return err
		}
		e.Params.RetentionTime = &rt

	case "Polarity":
		switch value {
		case "1", "+1", "+", "positive":
			e.Params.Polarity = 1
		case "-1", "-", "negative":
			e.Params.Polarity = -1
		default:
			return fmt.Errorf("invalid polarity %q", value)
		}

	case "Label":
		e.Params.Label = value

	case "Type":
		kind, err := core.ParseKind(value)
		if err != nil {
			return err
		}
		e.Raw.Kind = kind

	case "Aterm", "Bterm", "Cterm":
		v, err := parseFloat(key, value)
		if err != nil {
			return err
		}
		setTerm(&e.Params.Calibration, key, v)

	case "Analyzer":
		e.Params.Analyzer = value
	case "Instrument":
		e.Params.InstrumentLabel = value
	case "Sample":
		e.Params.SampleName = value

	case "BaselineNoise":
		v, err := parseFloat(key, value)
		if err != nil {
			return err
		}
		e.Params.BaselineNoise = &v

	case "BaselineNoiseStd":
		v, err := parseFloat(key, value)
		if err != nil {
			return err
		}
		e.Params.BaselineNoiseStd = &v
	}
	// Unknown keys are ignored
	return nil
}

func setTerm(t *calibration.Terms, key string, v float64) {
	switch key {
	case "Aterm":
		t.A = &v
	case "Bterm":
		t.B = &v
	case "Cterm":
		t.C = &v
	}
}

// parsePoint appends one data row to raw
func parsePoint(raw *core.RawData, line string) error {
	fields := strings.Fields(line)

	want := 2
	if raw.Kind == core.KindCentroid {
		want = 3
	}
	if len(fields) < want {
		return fmt.Errorf("invalid point format, expected at least %d fields", want)
	}

	values := make([]float64, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return fmt.Errorf("invalid value in column %d: %w", i+1, err)
		}
		values[i] = v
	}

	raw.X = append(raw.X, values[0])
	raw.Y = append(raw.Y, values[1])
	if raw.Kind != core.KindCentroid {
		return nil
	}
	raw.ResolvingPower = append(raw.ResolvingPower, values[2])
	if len(values) >= 4 {
		raw.SignalToNoise = append(raw.SignalToNoise, values[3])
	}
	return nil
}
