// Package settings holds the processing configuration of a mass spectrum
package settings

import (
	"fmt"
	"maps"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ChrisMcGann/ftmspeaks/pkg/noise"
)

// Settings configures noise estimation, thresholding and peak picking.
// A Spectrum keeps its own copy; changing a Settings value after the spectrum
// is built has no effect on it.
type Settings struct {
	ThresholdMethod            noise.Method `yaml:"threshold_method"`
	NoiseThresholdStd          float64      `yaml:"noise_threshold_std"`
	SignalToNoiseThreshold     float64      `yaml:"s2n_threshold"`
	RelativeAbundanceThreshold float64      `yaml:"relative_abundance_threshold"` // 1-100

	MinNoiseMz           float64 `yaml:"min_noise_mz"`
	MaxNoiseMz           float64 `yaml:"max_noise_mz"`
	NoiseWindowHalfWidth float64 `yaml:"noise_window_half_width"`
	NoiseChunkSize       int     `yaml:"noise_chunk_size"`
	ValleyFraction       float64 `yaml:"valley_fraction"`

	MinPickingMz float64 `yaml:"min_picking_mz"`
	MaxPickingMz float64 `yaml:"max_picking_mz"`

	KendrickBase map[string]int `yaml:"kendrick_base"`
}

// Default returns the standard processing settings
func Default() Settings {
	return Settings{
		ThresholdMethod:            noise.MethodAuto,
		NoiseThresholdStd:          6,
		SignalToNoiseThreshold:     4,
		RelativeAbundanceThreshold: 6,

		MinNoiseMz:           100,
		MaxNoiseMz:           1200,
		NoiseWindowHalfWidth: noise.DefaultWindowHalfWidth,
		NoiseChunkSize:       noise.DefaultChunkSize,
		ValleyFraction:       noise.DefaultValleyFraction,

		MinPickingMz: 100,
		MaxPickingMz: 1200,

		KendrickBase: map[string]int{"C": 1, "H": 2},
	}
}

// ValidationError lists every invalid field of a Settings value
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error in %s: %s", e.Field, e.Message)
}

// Validate checks that the settings can drive processing
func (s Settings) Validate() error {
	var errs []string

	if !s.ThresholdMethod.Valid() {
		errs = append(errs, fmt.Sprintf("threshold method %s is not implemented", s.ThresholdMethod))
	}
	if s.NoiseThresholdStd < 0 {
		errs = append(errs, "noise threshold std must be non-negative")
	}
	if s.SignalToNoiseThreshold < 0 {
		errs = append(errs, "s2n threshold must be non-negative")
	}
	if s.RelativeAbundanceThreshold < 0 || s.RelativeAbundanceThreshold > 100 {
		errs = append(errs, "relative abundance threshold must be within 0-100")
	}
	if s.MinNoiseMz >= s.MaxNoiseMz {
		errs = append(errs, "min noise m/z must be below max noise m/z")
	}
	if s.MinPickingMz >= s.MaxPickingMz {
		errs = append(errs, "min picking m/z must be below max picking m/z")
	}
	if s.NoiseChunkSize <= 0 {
		errs = append(errs, "noise chunk size must be positive")
	}
	if s.NoiseWindowHalfWidth <= 0 {
		errs = append(errs, "noise window half width must be positive")
	}
	if s.ValleyFraction <= 0 || s.ValleyFraction > 1 {
		errs = append(errs, "valley fraction must be within (0, 1]")
	}
	if len(s.KendrickBase) == 0 {
		errs = append(errs, "kendrick base is required")
	}

	if len(errs) > 0 {
		return &ValidationError{
			Field:   "Settings",
			Message: strings.Join(errs, "; "),
		}
	}
	return nil
}

// Clone returns a deep copy
func (s Settings) Clone() Settings {
	c := s
	c.KendrickBase = maps.Clone(s.KendrickBase)
	return c
}

// Policy returns the threshold values used by noise.Estimator.Cutoff
func (s Settings) Policy() noise.Policy {
	return noise.Policy{
		NoiseThresholdStd: s.NoiseThresholdStd,
		SignalToNoise:     s.SignalToNoiseThreshold,
		RelativeAbundance: s.RelativeAbundanceThreshold,
	}
}

// Estimator returns a noise estimator configured from the settings
func (s Settings) Estimator() *noise.Estimator {
	e := noise.NewEstimator()
	e.ChunkSize = s.NoiseChunkSize
	e.WindowHalfWidth = s.NoiseWindowHalfWidth
	e.ValleyFraction = s.ValleyFraction
	return e
}

// KendrickBaseString formats the Kendrick base as a formula, e.g. "C1 H2"
func (s Settings) KendrickBaseString() string {
	atoms := make([]string, 0, len(s.KendrickBase))
	for atom := range s.KendrickBase {
		atoms = append(atoms, atom)
	}
	sort.Strings(atoms)

	parts := make([]string, len(atoms))
	for i, atom := range atoms {
		parts[i] = fmt.Sprintf("%s%d", atom, s.KendrickBase[atom])
	}
	return strings.Join(parts, " ")
}

// Parse reads YAML settings. Fields absent from the document keep their defaults.
func Parse(data []byte) (Settings, error) {
	s := Default()
	if err := yaml.Unmarshal(data, &s); err != nil {
		return Settings{}, fmt.Errorf("failed to parse settings: %w", err)
	}
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// Load reads YAML settings from a file
func Load(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, fmt.Errorf("failed to read settings file: %w", err)
	}
	return Parse(data)
}
