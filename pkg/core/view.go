package core

import (
	"cmp"
	"fmt"
	"slices"
)

// Selector reads the attribute a range filter applies to
type Selector func(*Peak) float64

// Selectors for the built-in range filters
var (
	SelectMz            Selector = func(p *Peak) float64 { return p.Mz() }
	SelectSignalToNoise Selector = func(p *Peak) float64 { return p.SignalToNoise }
	SelectAbundance     Selector = func(p *Peak) float64 { return p.Abundance }
)

// Bound is the side of the theoretical resolving power envelope a filter removes
type Bound int

const (
	// UpperBound removes peaks with resolving power at or above the envelope
	UpperBound Bound = iota
	// LowerBound removes peaks with resolving power at or below the envelope
	LowerBound
)

// String returns the name of the bound
func (b Bound) String() string {
	switch b {
	case UpperBound:
		return "upper"
	case LowerBound:
		return "lower"
	default:
		return fmt.Sprintf("Bound(%d)", int(b))
	}
}

// TheoreticalResolvingPower returns the FT-ICR resolving power envelope for a
// peak at m/z m with charge z, field b (tesla) and transient length t (s)
func TheoreticalResolvingPower(m float64, z int, b, t float64) float64 {
	zf := float64(z)
	if zf == 0 {
		zf = 1
	}
	return (1.274e7 * zf * b * t) / (m * zf)
}

// Len returns the number of peaks in the active view
func (s *spectrum) Len() int { return len(s.peaks) }

// Peaks returns the active view. The slice is shared with the spectrum.
func (s *spectrum) Peaks() []*Peak { return s.peaks }

// AllPeaks returns every picked peak regardless of the active view
func (s *spectrum) AllPeaks() []*Peak { return s.allPeaks }

// Peak returns the peak at a position of the active view
func (s *spectrum) Peak(position int) (*Peak, error) {
	if position < 0 || position >= len(s.peaks) {
		return nil, fmt.Errorf("%w: %d of %d active peaks", ErrPositionOutOfRange, position, len(s.peaks))
	}
	return s.peaks[position], nil
}

// ResetActiveView makes every picked peak active
func (s *spectrum) ResetActiveView() {
	positions := make([]int, len(s.allPeaks))
	for i := range positions {
		positions[i] = i
	}
	s.activate(positions)
}

// SetActiveView restricts the active view to the given positions of AllPeaks,
// in the given order. Each position may appear once.
func (s *spectrum) SetActiveView(positions []int) error {
	seen := make(map[int]bool, len(positions))
	for _, p := range positions {
		if p < 0 || p >= len(s.allPeaks) {
			return fmt.Errorf("%w: %d of %d picked peaks", ErrPositionOutOfRange, p, len(s.allPeaks))
		}
		if seen[p] {
			return fmt.Errorf("%w: duplicate position %d", ErrPositionOutOfRange, p)
		}
		seen[p] = true
	}
	s.activate(slices.Clone(positions))
	return nil
}

func (s *spectrum) activate(positions []int) {
	s.active = positions
	s.peaks = make([]*Peak, len(positions))
	for i, p := range positions {
		peak := s.allPeaks[p]
		peak.index = i
		s.peaks[i] = peak
	}
	s.nominal = buildNominalIndex(s.peaks)
	if s.state >= StatePicked {
		s.state = StateIndexed
	}
	s.generation++
}

// ExcludePositions removes the given positions of the active view from it
func (s *spectrum) ExcludePositions(positions []int) error {
	if len(positions) == 0 {
		s.activate(s.active)
		return nil
	}

	exclude := make(map[int]struct{}, len(positions))
	for _, p := range positions {
		if p < 0 || p >= len(s.peaks) {
			return fmt.Errorf("%w: %d of %d active peaks", ErrPositionOutOfRange, p, len(s.peaks))
		}
		exclude[p] = struct{}{}
	}

	keep := make([]int, 0, len(s.active)-len(exclude))
	for i, p := range s.active {
		if _, ok := exclude[i]; !ok {
			keep = append(keep, p)
		}
	}
	s.activate(keep)
	return nil
}

// FilterByRange keeps the active peaks whose selected attribute lies in
// [min, max]. The complement is handed to ExcludePositions.
func (s *spectrum) FilterByRange(sel Selector, min, max float64) error {
	if len(s.peaks) == 0 {
		s.logger.Warn("active peak set is empty, continuing without filtering data")
		return nil
	}

	var outside []int
	for i, p := range s.peaks {
		v := sel(p)
		if !(v >= min && v <= max) {
			outside = append(outside, i)
		}
	}
	return s.ExcludePositions(outside)
}

// FilterByMz keeps peaks with min <= m/z <= max
func (s *spectrum) FilterByMz(min, max float64) error {
	return s.FilterByRange(SelectMz, min, max)
}

// FilterBySignalToNoise keeps peaks with min <= S/N <= max
func (s *spectrum) FilterBySignalToNoise(min, max float64) error {
	return s.FilterByRange(SelectSignalToNoise, min, max)
}

// FilterByAbundance keeps peaks with min <= abundance <= max
func (s *spectrum) FilterByAbundance(min, max float64) error {
	return s.FilterByRange(SelectAbundance, min, max)
}

// FilterByResolvingPower removes peaks on the given side of the theoretical
// resolving power envelope for field b (tesla) and transient length t (s)
func (s *spectrum) FilterByResolvingPower(b, t float64, bound Bound) error {
	if len(s.peaks) == 0 {
		s.logger.Warn("active peak set is empty, continuing without filtering data")
		return nil
	}

	var remove []int
	for i, p := range s.peaks {
		rpe := TheoreticalResolvingPower(p.MzExp, p.IonCharge, b, t)
		switch bound {
		case UpperBound:
			if p.ResolvingPower >= rpe {
				remove = append(remove, i)
			}
		case LowerBound:
			if p.ResolvingPower <= rpe {
				remove = append(remove, i)
			}
		default:
			return fmt.Errorf("unknown resolving power bound %s", bound)
		}
	}
	return s.ExcludePositions(remove)
}

// ApplyCalibration assigns one calibrated m/z per picked peak, by position in AllPeaks
func (s *spectrum) ApplyCalibration(mz []float64) error {
	if s.state < StatePicked {
		return fmt.Errorf("cannot apply calibration in state %s: %w", s.state, ErrNotPicked)
	}
	if len(mz) != len(s.allPeaks) {
		return fmt.Errorf("%w: %d calibrated values for %d peaks", ErrSizeMismatch, len(mz), len(s.allPeaks))
	}
	for i, p := range s.allPeaks {
		p.setMzCal(mz[i])
	}
	s.calibrated = true
	if s.nominal != nil {
		s.nominal = buildNominalIndex(s.peaks)
	}
	s.generation++
	return nil
}

// ClearFormulas removes the formula assignments of every picked peak
func (s *spectrum) ClearFormulas() {
	for _, p := range s.allPeaks {
		p.ClearFormulas()
	}
}

// RemoveAssignments removes the formula assignments of the given active positions
func (s *spectrum) RemoveAssignments(positions []int) error {
	for _, i := range positions {
		if i < 0 || i >= len(s.peaks) {
			return fmt.Errorf("%w: %d of %d active peaks", ErrPositionOutOfRange, i, len(s.peaks))
		}
	}
	for _, i := range positions {
		s.peaks[i].ClearFormulas()
	}
	return nil
}

// SortedByMz returns a copy of the active view ordered by experimental m/z
func (s *spectrum) SortedByMz() []*Peak {
	sorted := slices.Clone(s.peaks)
	slices.SortStableFunc(sorted, func(a, b *Peak) int {
		return cmp.Compare(a.MzExp, b.MzExp)
	})
	return sorted
}

// SortedByAbundance returns a copy of the active view ordered by abundance
func (s *spectrum) SortedByAbundance(descending bool) []*Peak {
	sorted := slices.Clone(s.peaks)
	slices.SortStableFunc(sorted, func(a, b *Peak) int {
		if descending {
			return cmp.Compare(b.Abundance, a.Abundance)
		}
		return cmp.Compare(a.Abundance, b.Abundance)
	})
	return sorted
}
