// Package noise estimates the baseline noise of FT-MS spectra and converts it
// into an abundance cutoff for peak picking
package noise

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnsupportedThresholdMethod is returned for threshold methods that are not implemented
var ErrUnsupportedThresholdMethod = errors.New("unsupported threshold method")

// Method selects how the abundance cutoff is derived
type Method int

const (
	// MethodAuto uses the baseline noise standard deviation
	MethodAuto Method = iota
	// MethodSignalNoise rescales a target S/N ratio into abundance units
	MethodSignalNoise
	// MethodRelativeAbundance uses a percentage of the most abundant peak
	MethodRelativeAbundance
)

// String returns the configuration name of the method
func (m Method) String() string {
	switch m {
	case MethodAuto:
		return "auto"
	case MethodSignalNoise:
		return "signal_noise"
	case MethodRelativeAbundance:
		return "relative_abundance"
	default:
		return fmt.Sprintf("Method(%d)", int(m))
	}
}

// Valid reports whether m is one of the implemented methods
func (m Method) Valid() bool {
	return m >= MethodAuto && m <= MethodRelativeAbundance
}

// ParseMethod converts a configuration name to a Method
func ParseMethod(s string) (Method, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "auto":
		return MethodAuto, nil
	case "signal_noise", "s2n":
		return MethodSignalNoise, nil
	case "relative_abundance", "relative":
		return MethodRelativeAbundance, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnsupportedThresholdMethod, s)
	}
}

// MarshalYAML implements yaml.Marshaler for Method
func (m Method) MarshalYAML() (interface{}, error) {
	return m.String(), nil
}

// UnmarshalYAML implements yaml.Unmarshaler for Method
func (m *Method) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}

	method, err := ParseMethod(s)
	if err != nil {
		return err
	}

	*m = method
	return nil
}
