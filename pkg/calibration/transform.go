// Package calibration converts FT-MS frequencies to m/z and fits m/z recalibration functions
package calibration

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidCalibration is returned when a calibration term required by the
// data source is missing or the terms cannot produce an m/z axis
var ErrInvalidCalibration = errors.New("invalid calibration")

// LabelBrukerFrequency is the data-source label selecting the Bruker formula
const LabelBrukerFrequency = "Bruker_Frequency"

// Terms holds the instrument calibration constants. Nil means absent.
type Terms struct {
	A *float64
	B *float64
	C *float64
}

// NewTerms returns Terms with all three constants present
func NewTerms(a, b, c float64) Terms {
	return Terms{A: &a, B: &b, C: &c}
}

// Complete reports whether A, B and C are all present
func (t Terms) Complete() bool {
	return t.A != nil && t.B != nil && t.C != nil
}

func value(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}

func require(name string, p *float64) error {
	if p == nil {
		return fmt.Errorf("%w: %s term is missing", ErrInvalidCalibration, name)
	}
	if math.IsNaN(*p) || math.IsInf(*p, 0) {
		return fmt.Errorf("%w: %s term is not finite", ErrInvalidCalibration, name)
	}
	return nil
}

// FrequencyToMz converts frequencies (Hz) to m/z with
//
//	m/z = A/f + B/f^2 + C/f^3
//
// A is required, B and C default to zero when absent.
func FrequencyToMz(freq []float64, t Terms) ([]float64, error) {
	if err := require("A", t.A); err != nil {
		return nil, err
	}
	a, b, c := *t.A, value(t.B), value(t.C)

	mz := make([]float64, len(freq))
	for i, f := range freq {
		// Horner form in 1/f keeps every intermediate near the magnitude of m/z
		inv := 1 / f
		mz[i] = ((c*inv+b)*inv + a) * inv
	}
	return mz, nil
}

// FrequencyToMzBruker converts frequencies (Hz) to m/z with the Bruker
// calibration function. A, B and C (ML1, ML2, ML3) are all required.
//
//	C == 0, B == 0: m/z = A/f
//	C == 0:         m/z = A/(f+B)
//	otherwise:      m/z = 2C/(-A + sqrt(A^2 - 4C(B-f)))
func FrequencyToMzBruker(freq []float64, t Terms) ([]float64, error) {
	for _, term := range []struct {
		name string
		p    *float64
	}{{"A", t.A}, {"B", t.B}, {"C", t.C}} {
		if err := require(term.name, term.p); err != nil {
			return nil, err
		}
	}
	a, b, c := *t.A, *t.B, *t.C

	mz := make([]float64, len(freq))
	for i, f := range freq {
		switch {
		case c == 0 && b == 0:
			mz[i] = a / f
		case c == 0:
			mz[i] = a / (f + b)
		default:
			// rationalized: 2C/(-A+sqrt(D)) == (A+sqrt(D))/(2(f-B))
			d := a*a - 4*c*(b-f)
			mz[i] = (a + math.Sqrt(d)) / (2 * (f - b))
		}
	}
	return mz, nil
}

// ToMz selects the calibration function for the data-source label
func ToMz(label string, freq []float64, t Terms) ([]float64, error) {
	if label == LabelBrukerFrequency {
		return FrequencyToMzBruker(freq, t)
	}
	return FrequencyToMz(freq, t)
}
