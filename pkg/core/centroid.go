package core

import (
	"slices"

	"gonum.org/v1/gonum/floats"

	"github.com/ChrisMcGann/ftmspeaks/pkg/noise"
	"github.com/ChrisMcGann/ftmspeaks/pkg/settings"
)

// CentroidSpectrum is a spectrum built from instrument-centroided peaks
type CentroidSpectrum struct {
	*spectrum

	resolvingPower []float64
	signalToNoise  []float64
}

// NewCentroidSpectrum builds a spectrum from parallel centroid arrays
func NewCentroidSpectrum(raw RawData, params Params, set settings.Settings, opts ...Option) (*CentroidSpectrum, error) {
	raw.Kind = KindCentroid
	if err := raw.Validate(); err != nil {
		return nil, err
	}
	base, err := newSpectrum(KindCentroid, params, set, opts)
	if err != nil {
		return nil, err
	}
	base.mzProfile = slices.Clone(raw.X)
	base.abundanceProfile = slices.Clone(raw.Y)

	return &CentroidSpectrum{
		spectrum:       base,
		resolvingPower: slices.Clone(raw.ResolvingPower),
		signalToNoise:  slices.Clone(raw.SignalToNoise),
	}, nil
}

// TIC returns the summed abundance of the active peaks
func (s *CentroidSpectrum) TIC() float64 {
	var sum float64
	for _, p := range s.peaks {
		sum += p.Abundance
	}
	return sum
}

// Process estimates noise, ingests the centroids and resets the active view
func (s *CentroidSpectrum) Process(opts ProcessOptions) error {
	return s.process(s, opts)
}

// EstimateNoise sets the baseline noise from the minima of consecutive
// abundance chunks. Labels with a preset baseline keep it. auto and bayes do
// not apply to centroid data.
func (s *CentroidSpectrum) EstimateNoise(auto, bayes bool) error {
	if s.discarded {
		return ErrProfileDiscarded
	}
	if b, ok := s.presetBaseline(); ok {
		s.setBaseline(b)
		return nil
	}
	s.setBaseline(s.estimator.Centroid(s.abundanceProfile))
	return nil
}

// NoiseCutoff computes the abundance threshold over the m/z range of the centroids
func (s *CentroidSpectrum) NoiseCutoff() (noise.Cutoff, error) {
	in := noise.CutoffInput{Baseline: s.baseline}

	switch {
	case len(s.peaks) > 0:
		in.MinMz, _ = s.MinMz()
		in.MaxMz, _ = s.MaxMz()
		in.MaxAbundance, _ = s.MaxAbundance()
		in.MaxSignalToNoise, _ = s.MaxSignalToNoise()
	case !s.discarded && len(s.mzProfile) > 0:
		in.MinMz = floats.Min(s.mzProfile)
		in.MaxMz = floats.Max(s.mzProfile)
		in.MaxAbundance = floats.Max(s.abundanceProfile)
		if len(s.signalToNoise) > 0 {
			in.MaxSignalToNoise = floats.Max(s.signalToNoise)
		} else if s.baseline != nil && s.baseline.Std > 0 {
			in.MaxSignalToNoise = in.MaxAbundance / s.baseline.Std
		}
	}
	return s.estimator.Cutoff(s.settings.ThresholdMethod, in, s.settings.Policy())
}

// PickPeaks turns every centroid entry into a peak. Entries without S/N get
// abundance over the noise std, or MissingSignalToNoise when no std is known.
func (s *CentroidSpectrum) PickPeaks() error {
	if s.discarded {
		return ErrProfileDiscarded
	}
	std := 0.0
	if s.baseline != nil {
		std = s.baseline.Std
	}

	peaks := make([]*Peak, len(s.mzProfile))
	for i, mz := range s.mzProfile {
		p := &Peak{
			MzExp:          mz,
			Abundance:      s.abundanceProfile[i],
			ResolvingPower: s.resolvingPower[i],
			IonCharge:      s.params.Polarity,
			ScanIndex:      i,
		}
		switch {
		case len(s.signalToNoise) > 0:
			p.SignalToNoise = s.signalToNoise[i]
		case std > 0:
			p.SignalToNoise = p.Abundance / std
		default:
			p.SignalToNoise = MissingSignalToNoise
		}
		peaks[i] = p
	}
	s.replacePeaks(peaks)

	s.logger.Debug("centroid peaks ingested", "peaks", len(peaks))
	return nil
}

func (s *CentroidSpectrum) discardProfile() {
	s.spectrum.discardProfile()
	floats.Scale(0, s.resolvingPower)
	floats.Scale(0, s.signalToNoise)
}
