package core

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/ChrisMcGann/ftmspeaks/pkg/calibration"
)

// viewCache memoizes attribute arrays of the active view for one generation
type viewCache struct {
	generation uint64
	values     map[string][]float64
}

// view returns the attribute array of the active view, computing it once per
// generation. The returned slice is shared and must not be modified.
func (s *spectrum) view(name string, attr func(*Peak) float64) ([]float64, error) {
	if len(s.peaks) == 0 {
		return nil, ErrEmptyPeakSet
	}
	if s.cache.values == nil || s.cache.generation != s.generation {
		s.cache = viewCache{generation: s.generation, values: make(map[string][]float64)}
	}
	if v, ok := s.cache.values[name]; ok {
		return v, nil
	}

	v := make([]float64, len(s.peaks))
	for i, p := range s.peaks {
		v[i] = attr(p)
	}
	s.cache.values[name] = v
	return v, nil
}

// Mz returns calibrated m/z when calibration was applied, experimental m/z otherwise
func (s *spectrum) Mz() ([]float64, error) {
	return s.view("mz", (*Peak).Mz)
}

// MzExp returns the experimental m/z of the active peaks
func (s *spectrum) MzExp() ([]float64, error) {
	return s.view("mz_exp", func(p *Peak) float64 { return p.MzExp })
}

// MzCalibrated returns the calibrated m/z of the active peaks, NaN where none was applied
func (s *spectrum) MzCalibrated() ([]float64, error) {
	return s.view("mz_cal", func(p *Peak) float64 {
		if v, ok := p.MzCal(); ok {
			return v
		}
		return math.NaN()
	})
}

func (s *spectrum) Abundance() ([]float64, error) {
	return s.view("abundance", func(p *Peak) float64 { return p.Abundance })
}

func (s *spectrum) SignalToNoise() ([]float64, error) {
	return s.view("s2n", func(p *Peak) float64 { return p.SignalToNoise })
}

func (s *spectrum) ResolvingPower() ([]float64, error) {
	return s.view("resolving_power", func(p *Peak) float64 { return p.ResolvingPower })
}

// KendrickMass returns the Kendrick mass of the active peaks for the configured base
func (s *spectrum) KendrickMass() ([]float64, error) {
	return s.view("kendrick_mass", func(p *Peak) float64 { return p.KendrickMass(s.kendrick) })
}

// KMD returns the Kendrick mass defect of the active peaks for the configured base
func (s *spectrum) KMD() ([]float64, error) {
	return s.view("kmd", func(p *Peak) float64 { return p.KMD(s.kendrick) })
}

// Frequency returns the apex frequency of the active peaks, NaN for peaks not
// picked from frequency-domain data
func (s *spectrum) Frequency() ([]float64, error) {
	return s.view("freq", func(p *Peak) float64 {
		if p.FreqExp == nil {
			return math.NaN()
		}
		return *p.FreqExp
	})
}

func (s *spectrum) MaxAbundance() (float64, error) {
	v, err := s.Abundance()
	if err != nil {
		return 0, err
	}
	return floats.Max(v), nil
}

func (s *spectrum) MaxSignalToNoise() (float64, error) {
	v, err := s.SignalToNoise()
	if err != nil {
		return 0, err
	}
	return floats.Max(v), nil
}

// MinMz returns the lowest experimental m/z of the active view
func (s *spectrum) MinMz() (float64, error) {
	v, err := s.MzExp()
	if err != nil {
		return 0, err
	}
	return floats.Min(v), nil
}

// MaxMz returns the highest experimental m/z of the active view
func (s *spectrum) MaxMz() (float64, error) {
	v, err := s.MzExp()
	if err != nil {
		return 0, err
	}
	return floats.Max(v), nil
}

// MostAbundantPeak returns the first active peak with the highest abundance
func (s *spectrum) MostAbundantPeak() (*Peak, error) {
	v, err := s.Abundance()
	if err != nil {
		return nil, err
	}
	return s.peaks[floats.MaxIdx(v)], nil
}

// Recalibrate matches the reference masses against the experimental m/z of
// every picked peak, fits the model and applies the recalibrated m/z
func (s *spectrum) Recalibrate(references []float64, model calibration.Model, tolPPM float64) (calibration.Coefficients, error) {
	if len(s.allPeaks) == 0 {
		return calibration.Coefficients{}, ErrEmptyPeakSet
	}

	measured := make([]float64, len(s.allPeaks))
	for i, p := range s.allPeaks {
		measured[i] = p.MzExp
	}

	meas, ref := calibration.MatchReferences(measured, references, tolPPM)
	coef, err := calibration.Fit(meas, ref, model)
	if err != nil {
		return calibration.Coefficients{}, fmt.Errorf("failed to fit %s recalibration: %w", model, err)
	}
	if err := s.ApplyCalibration(coef.Apply(measured)); err != nil {
		return calibration.Coefficients{}, err
	}

	s.logger.Info("spectrum recalibrated", "model", model.String(), "calibrants", len(meas), "coefficients", coef.P)
	return coef, nil
}
