package core

import "math"

// Peak is a single centroided signal of a spectrum
type Peak struct {
	MzExp          float64
	Abundance      float64
	ResolvingPower float64
	SignalToNoise  float64
	IonCharge      int
	ScanIndex      int      // position in the raw scan the peak was built from
	FreqExp        *float64 // set for peaks picked from frequency-domain data

	// Formulas holds the molecular formulas assigned by a formula search
	Formulas []string

	mzCal *float64
	index int
}

// Index returns the position of the peak in the active view it was last numbered in
func (p *Peak) Index() int {
	return p.index
}

// Mz returns the calibrated m/z when present, the experimental m/z otherwise
func (p *Peak) Mz() float64 {
	if p.mzCal != nil {
		return *p.mzCal
	}
	return p.MzExp
}

// MzCal returns the calibrated m/z and whether one was applied
func (p *Peak) MzCal() (float64, bool) {
	if p.mzCal == nil {
		return 0, false
	}
	return *p.mzCal, true
}

// NominalMz returns the integer part of Mz
func (p *Peak) NominalMz() int {
	return int(math.Floor(p.Mz()))
}

// KendrickMass scales Mz by a Kendrick factor (see KendrickFactor)
func (p *Peak) KendrickMass(factor float64) float64 {
	return p.Mz() * factor
}

// KMD returns the Kendrick mass defect, nominal Kendrick mass minus Kendrick mass
func (p *Peak) KMD(factor float64) float64 {
	km := p.KendrickMass(factor)
	return math.Floor(km) - km
}

// IsAssigned reports whether a molecular formula was assigned
func (p *Peak) IsAssigned() bool {
	return len(p.Formulas) > 0
}

// ClearFormulas removes every assigned formula
func (p *Peak) ClearFormulas() {
	p.Formulas = nil
}

func (p *Peak) setMzCal(v float64) {
	p.mzCal = &v
}
