package core

import (
	"fmt"
	"sort"
)

// nominalRange holds the first and last active-view position of a nominal mass
type nominalRange struct {
	first int
	last  int
}

// nominalIndex maps floor(m/z) to the positions of its peaks. Nil means not built.
type nominalIndex map[int]nominalRange

// buildNominalIndex scans peaks in position order. The recorded positions
// bound the first and last occurrence; peaks in between need not share the
// nominal mass when the view is not sorted by m/z.
func buildNominalIndex(peaks []*Peak) nominalIndex {
	idx := make(nominalIndex)
	for i, p := range peaks {
		nm := p.NominalMz()
		r, ok := idx[nm]
		if !ok {
			r.first = i
		}
		r.last = i
		idx[nm] = r
	}
	return idx
}

// NominalMassPositions returns the half-open position range [start, end) of
// the nominal mass in the active view. A nominal mass without peaks returns
// (0, 0) and no error.
func (s *spectrum) NominalMassPositions(nominalMass int) (int, int, error) {
	if s.nominal == nil {
		return 0, 0, ErrIndexNotBuilt
	}
	r, ok := s.nominal[nominalMass]
	if !ok {
		return 0, 0, nil
	}
	return r.first, r.last + 1, nil
}

// NominalMasses returns the indexed nominal masses in ascending order
func (s *spectrum) NominalMasses() ([]int, error) {
	if s.nominal == nil {
		return nil, ErrIndexNotBuilt
	}
	masses := make([]int, 0, len(s.nominal))
	for nm := range s.nominal {
		masses = append(masses, nm)
	}
	sort.Ints(masses)
	return masses, nil
}

// PeaksByNominalMass returns the active peaks between the first and last
// position of the nominal mass
func (s *spectrum) PeaksByNominalMass(nominalMass int) ([]*Peak, error) {
	start, end, err := s.NominalMassPositions(nominalMass)
	if err != nil {
		return nil, fmt.Errorf("failed to look up nominal mass %d: %w", nominalMass, err)
	}
	return s.peaks[start:end], nil
}

// nominalOverlap widens every nominal mass window on both sides when counting
const nominalOverlap = 0.1

// MassCountByNominalMass counts, for every nominal mass present in the active
// view, the peaks with m/z inside [nm-0.1, nm+1.1]. Neighbouring windows
// overlap, so a peak may be counted twice.
func (s *spectrum) MassCountByNominalMass() map[int]int {
	mz := make([]float64, len(s.peaks))
	counts := make(map[int]int)
	for i, p := range s.peaks {
		mz[i] = p.Mz()
		counts[p.NominalMz()] = 0
	}
	sort.Float64s(mz)

	for nm := range counts {
		lo := sort.SearchFloat64s(mz, float64(nm)-nominalOverlap)
		hi := sort.Search(len(mz), func(i int) bool {
			return mz[i] > float64(nm)+1+nominalOverlap
		})
		counts[nm] = hi - lo
	}
	return counts
}
