package noise

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/integrate"
	"gonum.org/v1/gonum/stat"
)

// ErrNoSamples is returned by a StdEstimator given no valley intensities
var ErrNoSamples = errors.New("no noise samples")

// StdEstimator derives the noise standard deviation from valley intensities.
// Valleys are passed as measured, before doubling.
type StdEstimator interface {
	EstimateStd(valleys []float64) (float64, error)
}

// PopulationStd is the population standard deviation of the doubled valleys
type PopulationStd struct{}

// EstimateStd implements StdEstimator
func (PopulationStd) EstimateStd(valleys []float64) (float64, error) {
	if len(valleys) == 0 {
		return 0, ErrNoSamples
	}
	_, std := stat.PopMeanStdDev(valleys, nil)
	return 2 * std, nil
}

const defaultGridPoints = 2001

// HalfNormalPosterior models the valleys as half-normal with a scale that has a
// uniform prior on [min(valleys), max(valleys)] and returns the posterior mean
// of the scale. The posterior is integrated on a fixed grid, so the result is
// deterministic.
type HalfNormalPosterior struct {
	GridPoints int
}

// EstimateStd implements StdEstimator
func (h HalfNormalPosterior) EstimateStd(valleys []float64) (float64, error) {
	if len(valleys) == 0 {
		return 0, ErrNoSamples
	}

	lower, upper := floats.Min(valleys), floats.Max(valleys)
	if upper <= 0 || math.IsNaN(upper) {
		return 0, errors.New("half-normal scale needs positive samples")
	}
	if lower <= 0 {
		lower = upper * 1e-6
	}
	if upper-lower <= upper*1e-12 {
		return upper, nil
	}

	n := h.GridPoints
	if n < 3 {
		n = defaultGridPoints
	}

	count := float64(len(valleys))
	sumSq := floats.Dot(valleys, valleys) / 2

	sigma := make([]float64, n)
	logp := make([]float64, n)
	floats.Span(sigma, lower, upper)
	for i, s := range sigma {
		logp[i] = -count*math.Log(s) - sumSq/(s*s)
	}

	top := floats.Max(logp)
	density := make([]float64, n)
	moment := make([]float64, n)
	for i, lp := range logp {
		density[i] = math.Exp(lp - top)
		moment[i] = density[i] * sigma[i]
	}

	z := integrate.Trapezoidal(sigma, density)
	if z <= 0 || math.IsNaN(z) {
		return 0, errors.New("half-normal posterior is not normalizable")
	}
	return integrate.Trapezoidal(sigma, moment) / z, nil
}
