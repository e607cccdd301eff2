package calibration

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
)

// Reference is a named calibrant ion
type Reference struct {
	Name string
	Mz   float64
}

// ReferenceList stores calibrant m/z values by name
type ReferenceList struct {
	refs map[string]float64 // name -> m/z
}

// NewReferenceList creates an empty reference list
func NewReferenceList() *ReferenceList {
	return &ReferenceList{
		refs: make(map[string]float64),
	}
}

// LoadFromCSV loads calibrants from comma-separated lines (format: name,mz).
// A line holding only a number is a calibrant named after its m/z. Blank lines,
// lines starting with '#' and a non-numeric header line are skipped.
func (l *ReferenceList) LoadFromCSV(r io.Reader) error {
	scanner := bufio.NewScanner(r)

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.Split(line, ",")
		name := strings.TrimSpace(parts[0])
		mzStr := name
		if len(parts) >= 2 {
			mzStr = strings.TrimSpace(parts[1])
		}

		mz, err := strconv.ParseFloat(mzStr, 64)
		if err != nil {
			if lineNum == 1 {
				continue // header
			}
			return fmt.Errorf("line %d: invalid m/z value '%s': %w", lineNum, mzStr, err)
		}
		if mz <= 0 {
			return fmt.Errorf("line %d: m/z must be positive, got %g", lineNum, mz)
		}

		l.refs[name] = mz
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("error reading CSV: %w", err)
	}

	return nil
}

// Get returns the m/z of a named calibrant
func (l *ReferenceList) Get(name string) (float64, bool) {
	mz, ok := l.refs[name]
	return mz, ok
}

// Add adds or updates a calibrant
func (l *ReferenceList) Add(name string, mz float64) {
	l.refs[name] = mz
}

// Len returns the number of calibrants
func (l *ReferenceList) Len() int {
	return len(l.refs)
}

// References returns the calibrants sorted by m/z
func (l *ReferenceList) References() []Reference {
	out := make([]Reference, 0, len(l.refs))
	for name, mz := range l.refs {
		out = append(out, Reference{Name: name, Mz: mz})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Mz != out[j].Mz {
			return out[i].Mz < out[j].Mz
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// Masses returns the calibrant m/z values in ascending order
func (l *ReferenceList) Masses() []float64 {
	refs := l.References()
	out := make([]float64, len(refs))
	for i, r := range refs {
		out[i] = r.Mz
	}
	return out
}

// ParseReferences parses a list like "C8H5O4-;165.0193;Cl-" into m/z values,
// resolving names against the list
func (l *ReferenceList) ParseReferences(s string) ([]float64, error) {
	if s == "" {
		return nil, nil
	}

	var out []float64
	for _, part := range strings.Split(s, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		// Try to parse as a number first (direct m/z)
		mz, err := strconv.ParseFloat(part, 64)
		if err != nil {
			var ok bool
			mz, ok = l.Get(part)
			if !ok {
				return nil, fmt.Errorf("unknown calibrant '%s'", part)
			}
		}
		out = append(out, mz)
	}
	sort.Float64s(out)
	return out, nil
}
