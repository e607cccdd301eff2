package core

import (
	"fmt"
	"strings"

	"github.com/ChrisMcGann/ftmspeaks/pkg/calibration"
)

// Data-source labels
const (
	LabelBrukerFrequency  = calibration.LabelBrukerFrequency
	LabelMidasFrequency   = "Midas_Frequency"
	LabelBrukerProfile    = "Bruker_Profile"
	LabelThermoProfile    = "Thermo_Profile"
	LabelThermoCentroid   = "Thermo_Centroid"
	LabelSimulatedProfile = "Simulated Profile"
	LabelCentroid         = "Centroid"
)

// MissingSignalToNoise marks a centroid without S/N when no noise std is known
const MissingSignalToNoise = -999.0

// Kind is the domain of the raw data
type Kind int

const (
	KindFrequency Kind = iota
	KindProfile
	KindCentroid
)

// String returns the name of the kind
func (k Kind) String() string {
	switch k {
	case KindFrequency:
		return "frequency"
	case KindProfile:
		return "profile"
	case KindCentroid:
		return "centroid"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// ParseKind converts a kind name to a Kind
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "frequency", "freq":
		return KindFrequency, nil
	case "profile":
		return KindProfile, nil
	case "centroid":
		return KindCentroid, nil
	default:
		return 0, fmt.Errorf("unknown data kind %q", s)
	}
}

// Params is the reader-provided description of a scan
type Params struct {
	Polarity      int // +1 or -1
	Calibration   calibration.Terms
	ScanNumber    int
	RetentionTime *float64
	Label         string

	// Optional metadata
	Analyzer        string
	InstrumentLabel string
	SampleName      string
	Filename        string

	// Preset noise, used by Thermo centroid data
	BaselineNoise    *float64
	BaselineNoiseStd *float64
}

// RawData is the unprocessed signal of a scan. X is frequency (Hz) or m/z,
// Y is magnitude or abundance. ResolvingPower and SignalToNoise are only read
// for centroid data; SignalToNoise may be empty.
type RawData struct {
	Kind           Kind
	X              []float64
	Y              []float64
	ResolvingPower []float64
	SignalToNoise  []float64
}

// Validate checks the array lengths of the raw data
func (r RawData) Validate() error {
	if len(r.X) != len(r.Y) {
		return fmt.Errorf("%w: %d x values and %d y values", ErrSizeMismatch, len(r.X), len(r.Y))
	}
	if r.Kind != KindCentroid {
		return nil
	}
	if len(r.ResolvingPower) != len(r.X) {
		return fmt.Errorf("%w: %d centroids and %d resolving power values",
			ErrSizeMismatch, len(r.X), len(r.ResolvingPower))
	}
	if len(r.SignalToNoise) != 0 && len(r.SignalToNoise) != len(r.X) {
		return fmt.Errorf("%w: %d centroids and %d signal to noise values",
			ErrSizeMismatch, len(r.X), len(r.SignalToNoise))
	}
	return nil
}
