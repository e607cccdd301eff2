// Package core provides the peak and spectrum models of an FT-MS mass spectrum:
// noise estimation, peak picking, the active peak view with its filters, and
// the nominal-mass index.
package core

import (
	"fmt"
	"log/slog"

	"github.com/ChrisMcGann/ftmspeaks/pkg/calibration"
	"github.com/ChrisMcGann/ftmspeaks/pkg/noise"
	"github.com/ChrisMcGann/ftmspeaks/pkg/picking"
	"github.com/ChrisMcGann/ftmspeaks/pkg/settings"
	"gonum.org/v1/gonum/floats"
)

// State is the processing stage of a spectrum
type State int

const (
	StateRaw State = iota
	StateNoiseEstimated
	StatePicked
	StateIndexed
)

// String returns the name of the state
func (s State) String() string {
	switch s {
	case StateRaw:
		return "raw"
	case StateNoiseEstimated:
		return "noise_estimated"
	case StatePicked:
		return "picked"
	case StateIndexed:
		return "indexed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// ProcessOptions controls Process
type ProcessOptions struct {
	// KeepProfile retains the raw arrays after picking. Without it the arrays
	// keep their length but are zeroed, and noise estimation and picking
	// return ErrProfileDiscarded.
	KeepProfile bool
	// AutoNoise centers the profile noise window on the weight-average
	// molecular weight instead of the configured window
	AutoNoise bool
	// BayesianNoise refines the profile noise std with the configured StdEstimator
	BayesianNoise bool
}

// DefaultProcessOptions keeps the profile and uses the automatic noise window
func DefaultProcessOptions() ProcessOptions {
	return ProcessOptions{KeepProfile: true, AutoNoise: true}
}

// PeakManager is the peak-management contract shared by every spectrum variant.
// Implementations are not safe for concurrent use.
type PeakManager interface {
	Len() int
	Peaks() []*Peak
	AllPeaks() []*Peak
	Peak(position int) (*Peak, error)

	ResetActiveView()
	SetActiveView(positions []int) error
	ExcludePositions(positions []int) error
	FilterByRange(sel Selector, min, max float64) error
	FilterByMz(min, max float64) error
	FilterBySignalToNoise(min, max float64) error
	FilterByAbundance(min, max float64) error
	FilterByResolvingPower(b, t float64, bound Bound) error

	NominalMassPositions(nominalMass int) (start, end int, err error)
	NominalMasses() ([]int, error)
	PeaksByNominalMass(nominalMass int) ([]*Peak, error)
	MassCountByNominalMass() map[int]int

	Mz() ([]float64, error)
	MzExp() ([]float64, error)
	MzCalibrated() ([]float64, error)
	Abundance() ([]float64, error)
	SignalToNoise() ([]float64, error)
	ResolvingPower() ([]float64, error)
	KendrickMass() ([]float64, error)
	KMD() ([]float64, error)
	Frequency() ([]float64, error)

	MaxAbundance() (float64, error)
	MaxSignalToNoise() (float64, error)
	MinMz() (float64, error)
	MaxMz() (float64, error)
	MostAbundantPeak() (*Peak, error)
	SortedByMz() []*Peak
	SortedByAbundance(descending bool) []*Peak

	ApplyCalibration(mz []float64) error
	Recalibrate(references []float64, model calibration.Model, tolPPM float64) (calibration.Coefficients, error)
	IsCalibrated() bool
	ClearFormulas()
	RemoveAssignments(positions []int) error

	State() State
	Generation() uint64
}

// Spectrum is a processed or processable mass spectrum
type Spectrum interface {
	PeakManager

	Kind() Kind
	Params() Params
	Settings() settings.Settings
	Baseline() (noise.Baseline, bool)
	ProfileMz() []float64
	ProfileAbundance() []float64
	TIC() float64

	Process(opts ProcessOptions) error
	EstimateNoise(auto, bayes bool) error
	PickPeaks() error
	NoiseCutoff() (noise.Cutoff, error)
}

// Option configures a spectrum at construction
type Option func(*spectrum)

// WithPicker replaces the local-maxima peak picker of profile spectra
func WithPicker(p picking.Picker) Option {
	return func(s *spectrum) {
		s.picker = p
	}
}

// WithStdEstimator replaces the Bayesian noise std refinement
func WithStdEstimator(e noise.StdEstimator) Option {
	return func(s *spectrum) {
		s.estimator.Refine = e
	}
}

// WithLogger sets the logger of the spectrum and its noise estimator
func WithLogger(l *slog.Logger) Option {
	return func(s *spectrum) {
		s.logger = l
	}
}

// spectrum holds the state shared by the profile and centroid variants
type spectrum struct {
	kind     Kind
	params   Params
	settings settings.Settings

	estimator *noise.Estimator
	picker    picking.Picker
	logger    *slog.Logger
	kendrick  float64

	freqProfile      []float64
	mzProfile        []float64
	abundanceProfile []float64
	discarded        bool

	baseline *noise.Baseline

	allPeaks []*Peak
	active   []int // positions into allPeaks
	peaks    []*Peak
	nominal  nominalIndex

	calibrated bool
	state      State
	generation uint64
	cache      viewCache
}

func newSpectrum(kind Kind, params Params, set settings.Settings, opts []Option) (*spectrum, error) {
	set = set.Clone()
	if err := set.Validate(); err != nil {
		return nil, fmt.Errorf("invalid settings: %w", err)
	}
	factor, err := KendrickFactor(set.KendrickBase)
	if err != nil {
		return nil, err
	}

	s := &spectrum{
		kind:      kind,
		params:    params,
		settings:  set,
		estimator: set.Estimator(),
		kendrick:  factor,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	s.logger = s.logger.With("scan", params.ScanNumber, "kind", kind.String())
	s.estimator.Logger = s.logger
	if s.picker == nil {
		s.picker = picking.LocalMaxima{Logger: s.logger}
	}
	return s, nil
}

// Kind returns the domain of the raw data the spectrum was built from
func (s *spectrum) Kind() Kind { return s.kind }

// Params returns the scan parameters
func (s *spectrum) Params() Params { return s.params }

// Settings returns a copy of the spectrum settings
func (s *spectrum) Settings() settings.Settings { return s.settings.Clone() }

// State returns the processing stage
func (s *spectrum) State() State { return s.state }

// Generation is incremented whenever the active view or the peak m/z values change
func (s *spectrum) Generation() uint64 { return s.generation }

// IsCalibrated reports whether calibrated m/z values were applied to the picked peaks
func (s *spectrum) IsCalibrated() bool { return s.calibrated }

// Baseline returns the estimated noise and whether noise was estimated
func (s *spectrum) Baseline() (noise.Baseline, bool) {
	if s.baseline == nil {
		return noise.Baseline{}, false
	}
	return *s.baseline, true
}

// ProfileMz returns the raw m/z array, zeroed once discarded by Process
func (s *spectrum) ProfileMz() []float64 { return s.mzProfile }

// ProfileAbundance returns the raw abundance array, zeroed once discarded by Process
func (s *spectrum) ProfileAbundance() []float64 { return s.abundanceProfile }

func (s *spectrum) setBaseline(b noise.Baseline) {
	s.baseline = &b
	if s.state < StateNoiseEstimated {
		s.state = StateNoiseEstimated
	}
}

// presetBaseline returns the fixed baseline carried by the label or params, if any
func (s *spectrum) presetBaseline() (noise.Baseline, bool) {
	if s.params.Label == LabelSimulatedProfile {
		return noise.Baseline{Noise: 0.1, Std: 1}, true
	}
	if s.params.Label == LabelThermoCentroid && s.params.BaselineNoise != nil && s.params.BaselineNoiseStd != nil {
		return noise.Baseline{Noise: *s.params.BaselineNoise, Std: *s.params.BaselineNoiseStd}, true
	}
	return noise.Baseline{}, false
}

// replacePeaks discards the picked peaks and the active view
func (s *spectrum) replacePeaks(peaks []*Peak) {
	s.allPeaks = peaks
	s.active = nil
	s.peaks = nil
	s.nominal = nil
	s.calibrated = false
	s.state = StatePicked
	s.generation++
}

func (s *spectrum) discardProfile() {
	floats.Scale(0, s.freqProfile)
	floats.Scale(0, s.mzProfile)
	floats.Scale(0, s.abundanceProfile)
	s.discarded = true
}

// processor is the variant-specific part of Process
type processor interface {
	EstimateNoise(auto, bayes bool) error
	PickPeaks() error
	discardProfile()
}

func (s *spectrum) process(p processor, opts ProcessOptions) error {
	if err := p.EstimateNoise(opts.AutoNoise, opts.BayesianNoise); err != nil {
		return fmt.Errorf("failed to estimate noise: %w", err)
	}
	if err := p.PickPeaks(); err != nil {
		return fmt.Errorf("failed to pick peaks: %w", err)
	}
	s.ResetActiveView()

	if !opts.KeepProfile {
		p.discardProfile()
	}

	s.logger.Debug("spectrum processed", "peaks", len(s.peaks), "keep_profile", opts.KeepProfile)
	return nil
}

// New builds the spectrum variant matching the kind of the raw data
func New(raw RawData, params Params, set settings.Settings, opts ...Option) (Spectrum, error) {
	if err := raw.Validate(); err != nil {
		return nil, err
	}

	var (
		spec Spectrum
		err  error
	)
	switch raw.Kind {
	case KindFrequency:
		var p *ProfileSpectrum
		p, err = NewFrequencySpectrum(raw.X, raw.Y, params, set, opts...)
		spec = p
	case KindProfile:
		var p *ProfileSpectrum
		p, err = NewProfileSpectrum(raw.X, raw.Y, params, set, opts...)
		spec = p
	case KindCentroid:
		var c *CentroidSpectrum
		c, err = NewCentroidSpectrum(raw, params, set, opts...)
		spec = c
	default:
		return nil, fmt.Errorf("unsupported data kind %s", raw.Kind)
	}
	if err != nil {
		return nil, err
	}
	return spec, nil
}
