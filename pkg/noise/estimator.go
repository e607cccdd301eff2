package noise

import (
	"log/slog"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

const (
	// DefaultChunkSize is the number of centroid abundances per noise chunk
	DefaultChunkSize = 50
	// DefaultWindowHalfWidth is the half width (m/z) of the automatic noise window
	DefaultWindowHalfWidth = 100.0
	// DefaultValleyFraction is the largest valley intensity, relative to the
	// window maximum, still treated as noise
	DefaultValleyFraction = 0.05
)

// Baseline holds the estimated noise level of a spectrum.
// Degenerate is set when no estimate could be made; Noise and Std are zero then.
type Baseline struct {
	Noise      float64
	Std        float64
	Degenerate bool
}

// Window selects the m/z region used for profile noise estimation
type Window struct {
	Auto bool
	Min  float64
	Max  float64
}

// AutoWindow centers the noise window on the weight-average molecular weight
func AutoWindow() Window {
	return Window{Auto: true}
}

// FixedWindow uses a configured [min, max] m/z window
func FixedWindow(min, max float64) Window {
	return Window{Min: min, Max: max}
}

// Estimator computes baseline noise for centroid and profile data.
// The zero value is usable; unset fields fall back to the package defaults.
type Estimator struct {
	ChunkSize       int
	WindowHalfWidth float64
	ValleyFraction  float64

	// Refine replaces the population standard deviation when a Bayesian
	// estimate is requested. Nil disables refinement.
	Refine StdEstimator

	Logger *slog.Logger
}

// NewEstimator returns an Estimator with default parameters and a
// half-normal posterior refinement
func NewEstimator() *Estimator {
	return &Estimator{
		ChunkSize:       DefaultChunkSize,
		WindowHalfWidth: DefaultWindowHalfWidth,
		ValleyFraction:  DefaultValleyFraction,
		Refine:          HalfNormalPosterior{},
	}
}

func (e *Estimator) logger() *slog.Logger {
	if e.Logger != nil {
		return e.Logger
	}
	return slog.Default()
}

func (e *Estimator) degenerate(reason string, args ...any) Baseline {
	e.logger().Warn("noise baseline and std could not be determined, defaulting to 0,0",
		append([]any{"reason", reason}, args...)...)
	return Baseline{Degenerate: true}
}

// Centroid estimates noise from centroid abundances. The abundances are split
// into chunks in the given order, the minimum of every chunk is taken, and the
// baseline is the mean and population standard deviation of those minima.
func (e *Estimator) Centroid(abundance []float64) Baseline {
	size := e.ChunkSize
	if size <= 0 {
		size = DefaultChunkSize
	}

	minima := ChunkMinima(abundance, size)
	if len(minima) == 0 {
		return e.degenerate("no centroid abundances")
	}

	mean, std := stat.PopMeanStdDev(minima, nil)
	if math.IsNaN(mean) || math.IsNaN(std) {
		return e.degenerate("chunk minima are not finite", "chunks", len(minima))
	}

	e.logger().Debug("centroid noise estimated", "chunks", len(minima), "noise", mean, "std", std)
	return Baseline{Noise: mean, Std: std}
}

// ChunkMinima returns the minimum of each consecutive chunk of values.
// The last chunk may be shorter than size.
func ChunkMinima(values []float64, size int) []float64 {
	if size <= 0 || len(values) == 0 {
		return nil
	}

	minima := make([]float64, 0, (len(values)+size-1)/size)
	for start := 0; start < len(values); start += size {
		end := min(start+size, len(values))
		minima = append(minima, floats.Min(values[start:end]))
	}
	return minima
}

// Profile estimates noise from a profile trace. The trace is restricted to the
// noise window, valley minima are collected, and the baseline is the mean of
// the doubled valley intensities. The standard deviation is the population
// standard deviation of the doubled valleys unless bayes is set and a
// refinement estimator is configured.
func (e *Estimator) Profile(mz, abundance []float64, w Window, bayes bool) Baseline {
	if len(mz) == 0 || len(mz) != len(abundance) {
		return e.degenerate("profile arrays are empty or mismatched",
			"mz", len(mz), "abundance", len(abundance))
	}

	lo, hi := e.windowBounds(mz, abundance, w)
	region := NoiseRegion(mz, abundance, lo, hi)

	fraction := e.ValleyFraction
	if fraction <= 0 {
		fraction = DefaultValleyFraction
	}
	valleys := ValleyMinima(region, fraction)
	if len(valleys) == 0 {
		return e.degenerate("no valleys in noise window", "min_mz", lo, "max_mz", hi, "points", len(region))
	}

	doubled := make([]float64, len(valleys))
	floats.ScaleTo(doubled, 2, valleys)
	mean := stat.Mean(doubled, nil)

	std, err := PopulationStd{}.EstimateStd(valleys)
	if bayes {
		if e.Refine == nil {
			e.logger().Debug("bayesian noise refinement requested but not configured")
		} else if refined, rerr := e.Refine.EstimateStd(valleys); rerr != nil {
			e.logger().Warn("bayesian noise refinement failed, using population std", "error", rerr)
		} else {
			std = refined
		}
	}
	if err != nil || math.IsNaN(mean) || math.IsNaN(std) {
		return e.degenerate("valley statistics are not finite", "valleys", len(valleys))
	}

	e.logger().Debug("profile noise estimated",
		"min_mz", lo, "max_mz", hi, "valleys", len(valleys), "noise", mean, "std", std)
	return Baseline{Noise: mean, Std: std}
}

// windowBounds resolves w against the m/z range of the trace
func (e *Estimator) windowBounds(mz, abundance []float64, w Window) (float64, float64) {
	lo, hi := floats.Min(mz), floats.Max(mz)
	if !w.Auto {
		return w.Min, w.Max
	}

	center := WeightAverageMolecularWeight(mz, abundance)
	if math.IsNaN(center) || math.IsInf(center, 0) {
		return lo, hi
	}

	half := e.WindowHalfWidth
	if half <= 0 {
		half = DefaultWindowHalfWidth
	}
	return math.Max(center-half, lo), math.Min(center+half, hi)
}

// NoiseRegion returns the abundances whose m/z lies strictly inside (lo, hi),
// keeping the order of the trace
func NoiseRegion(mz, abundance []float64, lo, hi float64) []float64 {
	region := make([]float64, 0, len(abundance))
	for i, m := range mz {
		if m > lo && m < hi {
			region = append(region, abundance[i])
		}
	}
	return region
}

// ValleyMinima returns the intensities of strict local minima that are at most
// fraction times the maximum intensity. Points next to a NaN are skipped.
func ValleyMinima(intensity []float64, fraction float64) []float64 {
	if len(intensity) < 3 {
		return nil
	}

	maximum := math.Inf(-1)
	for _, v := range intensity {
		if v > maximum {
			maximum = v
		}
	}
	limit := maximum * fraction

	var valleys []float64
	for i := 1; i < len(intensity)-1; i++ {
		prev, cur, next := intensity[i-1], intensity[i], intensity[i+1]
		if math.IsNaN(prev) || math.IsNaN(cur) || math.IsNaN(next) {
			continue
		}
		if cur < prev && cur < next && cur <= limit {
			valleys = append(valleys, cur)
		}
	}
	return valleys
}

// WeightAverageMolecularWeight returns sum(a*m^2)/sum(a*m)
func WeightAverageMolecularWeight(mz, abundance []float64) float64 {
	weighted := make([]float64, len(mz))
	floats.MulTo(weighted, mz, abundance)
	return floats.Dot(weighted, mz) / floats.Sum(weighted)
}

// NumberAverageMolecularWeight returns sum(a*m)/sum(a)
func NumberAverageMolecularWeight(mz, abundance []float64) float64 {
	return floats.Dot(mz, abundance) / floats.Sum(abundance)
}
