package core

import (
	"fmt"
	"slices"

	"gonum.org/v1/gonum/floats"

	"github.com/ChrisMcGann/ftmspeaks/pkg/calibration"
	"github.com/ChrisMcGann/ftmspeaks/pkg/noise"
	"github.com/ChrisMcGann/ftmspeaks/pkg/picking"
	"github.com/ChrisMcGann/ftmspeaks/pkg/settings"
)

// ProfileSpectrum is a spectrum built from a continuous trace, either in the
// m/z domain or converted from the frequency domain
type ProfileSpectrum struct {
	*spectrum
}

// NewProfileSpectrum builds a spectrum from a profile m/z trace
func NewProfileSpectrum(mz, abundance []float64, params Params, set settings.Settings, opts ...Option) (*ProfileSpectrum, error) {
	if err := (RawData{Kind: KindProfile, X: mz, Y: abundance}).Validate(); err != nil {
		return nil, err
	}
	base, err := newSpectrum(KindProfile, params, set, opts)
	if err != nil {
		return nil, err
	}
	base.mzProfile = slices.Clone(mz)
	base.abundanceProfile = slices.Clone(abundance)
	return &ProfileSpectrum{spectrum: base}, nil
}

// NewFrequencySpectrum builds a spectrum from a frequency-domain trace. The
// m/z axis is computed with the calibration function selected by the label.
func NewFrequencySpectrum(freq, magnitude []float64, params Params, set settings.Settings, opts ...Option) (*ProfileSpectrum, error) {
	if err := (RawData{Kind: KindFrequency, X: freq, Y: magnitude}).Validate(); err != nil {
		return nil, err
	}
	mz, err := calibration.ToMz(params.Label, freq, params.Calibration)
	if err != nil {
		return nil, fmt.Errorf("failed to convert frequency to m/z: %w", err)
	}
	base, err := newSpectrum(KindFrequency, params, set, opts)
	if err != nil {
		return nil, err
	}
	base.freqProfile = slices.Clone(freq)
	base.mzProfile = mz
	base.abundanceProfile = slices.Clone(magnitude)
	return &ProfileSpectrum{spectrum: base}, nil
}

// FreqProfile returns the raw frequency array of frequency-domain spectra
func (s *ProfileSpectrum) FreqProfile() []float64 { return s.freqProfile }

// TIC returns the summed abundance of the profile trace
func (s *ProfileSpectrum) TIC() float64 {
	return floats.Sum(s.abundanceProfile)
}

// Process estimates noise, picks peaks and resets the active view
func (s *ProfileSpectrum) Process(opts ProcessOptions) error {
	return s.process(s, opts)
}

// EstimateNoise sets the baseline noise from valley minima of the trace.
// auto selects the window around the weight-average molecular weight, bayes
// the configured std refinement.
func (s *ProfileSpectrum) EstimateNoise(auto, bayes bool) error {
	if s.discarded {
		return ErrProfileDiscarded
	}
	if b, ok := s.presetBaseline(); ok {
		s.setBaseline(b)
		return nil
	}

	w := noise.FixedWindow(s.settings.MinNoiseMz, s.settings.MaxNoiseMz)
	if auto {
		w = noise.AutoWindow()
	}
	s.setBaseline(s.estimator.Profile(s.mzProfile, s.abundanceProfile, w, bayes))
	return nil
}

// NoiseCutoff computes the picking threshold over the m/z range of the trace
func (s *ProfileSpectrum) NoiseCutoff() (noise.Cutoff, error) {
	in := noise.CutoffInput{
		Baseline:        s.baseline,
		RequireBaseline: true,
	}
	if !s.discarded && len(s.mzProfile) > 0 {
		in.MinMz = floats.Min(s.mzProfile)
		in.MaxMz = floats.Max(s.mzProfile)
		in.MaxAbundance = floats.Max(s.abundanceProfile)
		if s.baseline != nil && s.baseline.Std > 0 {
			in.MaxSignalToNoise = in.MaxAbundance / s.baseline.Std
		}
	} else if len(s.peaks) > 0 {
		in.MinMz, _ = s.MinMz()
		in.MaxMz, _ = s.MaxMz()
		in.MaxAbundance, _ = s.MaxAbundance()
		in.MaxSignalToNoise, _ = s.MaxSignalToNoise()
	}
	return s.estimator.Cutoff(s.settings.ThresholdMethod, in, s.settings.Policy())
}

// PickPeaks replaces the picked peaks with the candidates found above the
// noise cutoff. The active view is cleared until the next reset.
func (s *ProfileSpectrum) PickPeaks() error {
	if s.discarded {
		return ErrProfileDiscarded
	}
	if s.baseline == nil {
		return ErrNoiseNotEstimated
	}
	cutoff, err := s.NoiseCutoff()
	if err != nil {
		return err
	}

	candidates := s.picker.Pick(picking.Input{
		Mz:        s.mzProfile,
		Abundance: s.abundanceProfile,
		Threshold: cutoff.Threshold,
		NoiseStd:  s.baseline.Std,
		MinMz:     s.settings.MinPickingMz,
		MaxMz:     s.settings.MaxPickingMz,
	})

	peaks := make([]*Peak, 0, len(candidates))
	for _, c := range candidates {
		p := &Peak{
			MzExp:          c.Mz,
			Abundance:      c.Abundance,
			ResolvingPower: c.ResolvingPower,
			SignalToNoise:  c.SignalToNoise,
			IonCharge:      s.params.Polarity,
			ScanIndex:      c.ScanIndex,
		}
		if c.ScanIndex >= 0 && c.ScanIndex < len(s.freqProfile) {
			f := s.freqProfile[c.ScanIndex]
			p.FreqExp = &f
		}
		peaks = append(peaks, p)
	}
	s.replacePeaks(peaks)

	s.logger.Debug("profile peaks picked", "peaks", len(peaks), "threshold", cutoff.Threshold)
	return nil
}

// ResetCalibrationTerms recomputes the m/z axis of a frequency-domain
// spectrum from new calibration terms. Picked spectra are re-picked and
// their active view reset.
func (s *ProfileSpectrum) ResetCalibrationTerms(terms calibration.Terms) error {
	if s.kind != KindFrequency {
		return fmt.Errorf("%w: calibration terms apply to frequency-domain spectra only", calibration.ErrInvalidCalibration)
	}
	if s.discarded {
		return ErrProfileDiscarded
	}
	mz, err := calibration.ToMz(s.params.Label, s.freqProfile, terms)
	if err != nil {
		return err
	}
	s.params.Calibration = terms
	s.mzProfile = mz

	if s.state < StatePicked {
		return nil
	}
	if err := s.PickPeaks(); err != nil {
		return err
	}
	s.ResetActiveView()
	return nil
}
