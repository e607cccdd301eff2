package noise

import (
	"fmt"
)

// Policy holds the tuning values of the threshold methods
type Policy struct {
	NoiseThresholdStd float64 // multiplier k for MethodAuto
	SignalToNoise     float64 // target S/N for MethodSignalNoise
	RelativeAbundance float64 // percentage (0-100) for MethodRelativeAbundance
}

// CutoffInput carries the spectrum values a cutoff is computed from
type CutoffInput struct {
	MinMz            float64
	MaxMz            float64
	MaxAbundance     float64
	MaxSignalToNoise float64

	// Baseline is nil when noise has not been estimated
	Baseline *Baseline

	// RequireBaseline makes every method degrade to a zero cutoff when the
	// baseline is missing, as profile spectra do
	RequireBaseline bool
}

// Cutoff is an abundance threshold applied over an m/z range
type Cutoff struct {
	MinMz      float64
	MaxMz      float64
	Threshold  float64
	Degenerate bool
}

// Range returns the (min, max) m/z pair of the cutoff line
func (c Cutoff) Range() (float64, float64) {
	return c.MinMz, c.MaxMz
}

// Levels returns the (threshold, threshold) pair of the cutoff line
func (c Cutoff) Levels() (float64, float64) {
	return c.Threshold, c.Threshold
}

func hasBaseline(b *Baseline) bool {
	return b != nil && !b.Degenerate && b.Noise != 0 && b.Std != 0
}

// Cutoff converts the baseline and spectrum maxima into an abundance threshold
func (e *Estimator) Cutoff(m Method, in CutoffInput, p Policy) (Cutoff, error) {
	if !m.Valid() {
		return Cutoff{}, fmt.Errorf("%w: %s", ErrUnsupportedThresholdMethod, m)
	}

	if in.RequireBaseline && !hasBaseline(in.Baseline) {
		return e.degenerateCutoff(m, "noise baseline not set, run noise estimation first"), nil
	}

	c := Cutoff{MinMz: in.MinMz, MaxMz: in.MaxMz}

	switch m {
	case MethodAuto:
		if in.Baseline == nil || in.Baseline.Std == 0 {
			return e.degenerateCutoff(m, "noise std not set"), nil
		}
		std := in.Baseline.Std
		c.Threshold = std + p.NoiseThresholdStd*std

	case MethodSignalNoise:
		if in.MaxSignalToNoise <= 0 {
			return e.degenerateCutoff(m, "maximum signal to noise is not positive"), nil
		}
		c.Threshold = in.MaxAbundance * p.SignalToNoise / in.MaxSignalToNoise

	case MethodRelativeAbundance:
		c.Threshold = (in.MaxAbundance / 100) * p.RelativeAbundance
	}

	e.logger().Debug("noise cutoff computed", "method", m.String(), "threshold", c.Threshold,
		"min_mz", c.MinMz, "max_mz", c.MaxMz)
	return c, nil
}

func (e *Estimator) degenerateCutoff(m Method, reason string) Cutoff {
	e.logger().Warn("noise cutoff defaulting to 0,0", "method", m.String(), "reason", reason)
	return Cutoff{Degenerate: true}
}
