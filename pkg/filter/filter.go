// Package filter provides declarative peak filtering over the active view of a spectrum
package filter

import (
	"fmt"
	"math"
	"strings"

	"github.com/ChrisMcGann/ftmspeaks/pkg/core"
)

// ResolvingPower configures the theoretical resolving power envelope filter
type ResolvingPower struct {
	FieldStrength float64 // B, tesla
	Transient     float64 // T, seconds
	Bound         core.Bound
}

// Config holds filtering configuration. Zero values disable a filter.
type Config struct {
	MinMz            float64
	MaxMz            float64
	MinSignalToNoise float64
	MaxSignalToNoise float64
	MinAbundance     float64
	MaxAbundance     float64
	IntensityCutoff  float64 // Keep only peaks at or above this % of the most abundant peak
	TopN             int     // Keep only the N most abundant peaks

	ResolvingPower *ResolvingPower

	// FormulaPrefixes keeps only peaks with an assigned formula starting with one of the prefixes
	FormulaPrefixes []string
}

// Enabled reports whether any filter is configured
func (c *Config) Enabled() bool {
	return c.MinMz != 0 || c.MaxMz != 0 ||
		c.MinSignalToNoise != 0 || c.MaxSignalToNoise != 0 ||
		c.MinAbundance != 0 || c.MaxAbundance != 0 ||
		c.IntensityCutoff > 0 || c.TopN > 0 ||
		c.ResolvingPower != nil || len(c.FormulaPrefixes) > 0
}

// Apply applies all configured filters to the active view of a spectrum.
// Every filter narrows the view left by the previous one.
func (c *Config) Apply(spec core.PeakManager) error {
	if spec.Len() == 0 {
		return nil
	}

	if c.MinMz != 0 || c.MaxMz != 0 {
		if err := spec.FilterByMz(bounds(c.MinMz, c.MaxMz)); err != nil {
			return fmt.Errorf("failed to filter by m/z: %w", err)
		}
	}

	if c.MinSignalToNoise != 0 || c.MaxSignalToNoise != 0 {
		if err := spec.FilterBySignalToNoise(bounds(c.MinSignalToNoise, c.MaxSignalToNoise)); err != nil {
			return fmt.Errorf("failed to filter by signal to noise: %w", err)
		}
	}

	if c.MinAbundance != 0 || c.MaxAbundance != 0 {
		if err := spec.FilterByAbundance(bounds(c.MinAbundance, c.MaxAbundance)); err != nil {
			return fmt.Errorf("failed to filter by abundance: %w", err)
		}
	}

	if c.IntensityCutoff > 0 {
		if err := c.filterByIntensity(spec); err != nil {
			return err
		}
	}

	if rp := c.ResolvingPower; rp != nil {
		if err := spec.FilterByResolvingPower(rp.FieldStrength, rp.Transient, rp.Bound); err != nil {
			return fmt.Errorf("failed to filter by resolving power: %w", err)
		}
	}

	if len(c.FormulaPrefixes) > 0 {
		if err := c.filterByFormula(spec); err != nil {
			return err
		}
	}

	if c.TopN > 0 {
		if err := c.filterTopN(spec); err != nil {
			return err
		}
	}

	return nil
}

// bounds maps an unset (zero) max to +Inf
func bounds(min, max float64) (float64, float64) {
	if max == 0 {
		max = math.Inf(1)
	}
	return min, max
}

// filterByIntensity removes peaks below the intensity cutoff percentage
func (c *Config) filterByIntensity(spec core.PeakManager) error {
	if spec.Len() == 0 {
		return nil
	}
	maxAbundance, err := spec.MaxAbundance()
	if err != nil {
		return err
	}

	threshold := (c.IntensityCutoff / 100.0) * maxAbundance
	if err := spec.FilterByAbundance(threshold, math.Inf(1)); err != nil {
		return fmt.Errorf("failed to apply intensity cutoff: %w", err)
	}
	return nil
}

// filterByFormula keeps only peaks with a matching assigned formula
func (c *Config) filterByFormula(spec core.PeakManager) error {
	var remove []int
	for i, peak := range spec.Peaks() {
		if !matchesFormula(peak.Formulas, c.FormulaPrefixes) {
			remove = append(remove, i)
		}
	}
	return spec.ExcludePositions(remove)
}

// matchesFormula checks if any assigned formula starts with one of the prefixes
func matchesFormula(formulas []string, prefixes []string) bool {
	for _, f := range formulas {
		for _, prefix := range prefixes {
			if strings.HasPrefix(f, prefix) {
				return true
			}
		}
	}
	return false
}

// filterTopN keeps only the N most abundant peaks, in their current order
func (c *Config) filterTopN(spec core.PeakManager) error {
	if spec.Len() <= c.TopN {
		return nil
	}

	sorted := spec.SortedByAbundance(true)
	remove := make([]int, 0, len(sorted)-c.TopN)
	for _, peak := range sorted[c.TopN:] {
		remove = append(remove, peak.Index())
	}
	return spec.ExcludePositions(remove)
}

// RemoveZeroAbundancePeaks removes peaks with zero or negative abundance
func RemoveZeroAbundancePeaks(spec core.PeakManager) error {
	var remove []int
	for i, peak := range spec.Peaks() {
		if peak.Abundance <= 0 {
			remove = append(remove, i)
		}
	}
	return spec.ExcludePositions(remove)
}
