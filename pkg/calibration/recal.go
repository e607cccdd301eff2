package calibration

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize"
	"gonum.org/v1/gonum/stat"
)

// ErrTooFewCalibrants is returned when a fit has fewer matched calibrants than parameters
var ErrTooFewCalibrants = errors.New("too few calibrants")

// Model is an m/z recalibration function
type Model int

const (
	ModelOffset Model = iota
	ModelLinear
	ModelQuadratic
	ModelFTICR
	ModelOrbitrap
)

// String returns the name of the model
func (m Model) String() string {
	switch m {
	case ModelOffset:
		return "offset"
	case ModelLinear:
		return "linear"
	case ModelQuadratic:
		return "quadratic"
	case ModelFTICR:
		return "fticr"
	case ModelOrbitrap:
		return "orbitrap"
	default:
		return fmt.Sprintf("Model(%d)", int(m))
	}
}

// ParseModel converts a model name to a Model
func ParseModel(s string) (Model, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "offset":
		return ModelOffset, nil
	case "linear", "poly1":
		return ModelLinear, nil
	case "quadratic", "poly2":
		return ModelQuadratic, nil
	case "fticr":
		return ModelFTICR, nil
	case "orbitrap":
		return ModelOrbitrap, nil
	default:
		return 0, fmt.Errorf("unknown recalibration model %q", s)
	}
}

// NumParams returns the number of coefficients of the model
func (m Model) NumParams() int {
	switch m {
	case ModelOffset:
		return 1
	case ModelQuadratic:
		return 3
	default:
		return 2
	}
}

// Coefficients is a fitted recalibration function
type Coefficients struct {
	Model Model
	P     []float64
}

// At returns the recalibrated m/z for a measured m/z
func (c Coefficients) At(mz float64) float64 {
	return recal(c.Model, c.P, mz)
}

// Apply recalibrates every value of mz into a new slice
func (c Coefficients) Apply(mz []float64) []float64 {
	out := make([]float64, len(mz))
	for i, m := range mz {
		out[i] = c.At(m)
	}
	return out
}

func recal(m Model, p []float64, mz float64) float64 {
	switch m {
	case ModelOffset:
		return mz + p[0]
	case ModelLinear:
		return p[0] + p[1]*mz
	case ModelQuadratic:
		return p[0] + p[1]*mz + p[2]*mz*mz
	case ModelFTICR:
		// mzCalib = Ca/((1/mzMeas)-Cb)
		return p[1] / ((1 / mz) - p[0])
	case ModelOrbitrap:
		// mzCalib = A/((f-B)^2), f = 1/sqrt(mzMeas)
		fb := 1/math.Sqrt(mz) - p[0]
		return p[1] / (fb * fb)
	default:
		return mz
	}
}

// Fit finds the coefficients of m that map measured onto reference m/z values.
// A linearized least-squares solution seeds a Nelder-Mead minimization of the
// residual norm; the seed is kept when the minimizer does not improve on it.
func Fit(measured, reference []float64, m Model) (Coefficients, error) {
	if len(measured) != len(reference) {
		return Coefficients{}, fmt.Errorf("measured (%d) and reference (%d) sizes differ",
			len(measured), len(reference))
	}
	if len(measured) < m.NumParams() {
		return Coefficients{}, fmt.Errorf("%w: %s needs %d, got %d",
			ErrTooFewCalibrants, m, m.NumParams(), len(measured))
	}

	seed, err := linearSeed(measured, reference, m)
	if err != nil {
		return Coefficients{}, err
	}

	residual := func(p []float64) float64 {
		var sum float64
		for i, mz := range measured {
			diff := recal(m, p, mz) - reference[i]
			sum += diff * diff
		}
		return math.Sqrt(sum)
	}

	best := Coefficients{Model: m, P: seed}
	seedF := residual(seed)
	if seedF == 0 || math.IsNaN(seedF) {
		return best, nil
	}

	problem := optimize.Problem{Func: residual}
	result, err := optimize.Minimize(problem, append([]float64(nil), seed...), nil, nil)
	if err == nil && result != nil && result.F < seedF {
		best.P = result.X
	}
	return best, nil
}

// linearSeed solves the model in a space where it is linear in its parameters
func linearSeed(measured, reference []float64, m Model) ([]float64, error) {
	n := len(measured)
	x := make([]float64, n)
	y := make([]float64, n)

	switch m {
	case ModelOffset:
		var sum float64
		for i := range measured {
			sum += reference[i] - measured[i]
		}
		return []float64{sum / float64(n)}, nil

	case ModelLinear, ModelQuadratic:
		return polySeed(measured, reference, m.NumParams()-1)

	case ModelFTICR:
		// 1/ref = q0 + q1/meas  =>  Ca = 1/q1, Cb = -q0/q1
		for i := range measured {
			x[i] = 1 / measured[i]
			y[i] = 1 / reference[i]
		}
		q0, q1 := stat.LinearRegression(x, y, nil, false)
		if q1 == 0 {
			return nil, fmt.Errorf("%w: degenerate FTICR fit", ErrInvalidCalibration)
		}
		return []float64{-q0 / q1, 1 / q1}, nil

	case ModelOrbitrap:
		// 1/sqrt(ref) = (f - B)/sqrt(A)
		for i := range measured {
			x[i] = 1 / math.Sqrt(measured[i])
			y[i] = 1 / math.Sqrt(reference[i])
		}
		alpha, beta := stat.LinearRegression(x, y, nil, false)
		if beta == 0 {
			return nil, fmt.Errorf("%w: degenerate Orbitrap fit", ErrInvalidCalibration)
		}
		return []float64{-alpha / beta, 1 / (beta * beta)}, nil

	default:
		return nil, fmt.Errorf("unknown recalibration model %s", m)
	}
}

// polySeed solves the Vandermonde system of the given degree by least squares
func polySeed(measured, reference []float64, degree int) ([]float64, error) {
	a := mat.NewDense(len(measured), degree+1, nil)
	for i, mz := range measured {
		pow := 1.0
		for j := 0; j <= degree; j++ {
			a.Set(i, j, pow)
			pow *= mz
		}
	}

	var p mat.VecDense
	if err := p.SolveVec(a, mat.NewVecDense(len(reference), append([]float64(nil), reference...))); err != nil {
		return nil, fmt.Errorf("%w: polynomial fit: %v", ErrInvalidCalibration, err)
	}
	return mat.Col(nil, 0, &p), nil
}

// MatchReferences pairs every reference m/z with the nearest measured m/z
// within tolPPM. Unmatched references are dropped. The pairs are returned in
// ascending reference order.
func MatchReferences(measured, references []float64, tolPPM float64) (meas, ref []float64) {
	if len(measured) == 0 {
		return nil, nil
	}

	sorted := append([]float64(nil), measured...)
	sort.Float64s(sorted)
	refs := append([]float64(nil), references...)
	sort.Float64s(refs)

	for _, r := range refs {
		i := sort.SearchFloat64s(sorted, r)
		best := math.NaN()
		for _, j := range []int{i - 1, i} {
			if j < 0 || j >= len(sorted) {
				continue
			}
			if math.IsNaN(best) || math.Abs(sorted[j]-r) < math.Abs(best-r) {
				best = sorted[j]
			}
		}
		if math.IsNaN(best) {
			continue
		}
		if math.Abs(best-r)/r*1e6 <= tolPPM {
			meas = append(meas, best)
			ref = append(ref, r)
		}
	}
	return meas, ref
}
