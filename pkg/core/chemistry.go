package core

import (
	"fmt"
	"math"
	"sort"
)

// Atomic masses (monoisotopic)
const (
	MassH  = 1.0078250321
	MassC  = 12.0000000000
	MassN  = 14.0030740052
	MassO  = 15.9949146221
	MassS  = 31.9720706900
	MassP  = 30.9737615100
	MassNa = 22.9897692809
	MassCl = 34.968852682
	MassK  = 38.96370668

	// Proton mass for charge calculations
	ProtonMass = 1.00727646688
)

// AtomicMasses maps element symbols to monoisotopic masses
var AtomicMasses = map[string]float64{
	"H":  MassH,
	"C":  MassC,
	"N":  MassN,
	"O":  MassO,
	"S":  MassS,
	"P":  MassP,
	"Na": MassNa,
	"Cl": MassCl,
	"K":  MassK,
}

// FormulaMass computes the monoisotopic mass of an elemental composition
func FormulaMass(composition map[string]int) (float64, error) {
	atoms := make([]string, 0, len(composition))
	for atom := range composition {
		atoms = append(atoms, atom)
	}
	sort.Strings(atoms)

	mass := 0.0
	for _, atom := range atoms {
		m, ok := AtomicMasses[atom]
		if !ok {
			return 0, fmt.Errorf("unknown element %q", atom)
		}
		mass += m * float64(composition[atom])
	}
	return mass, nil
}

// KendrickFactor returns nominal/exact mass of the Kendrick base, e.g. 14/14.01565 for CH2
func KendrickFactor(base map[string]int) (float64, error) {
	mass, err := FormulaMass(base)
	if err != nil {
		return 0, fmt.Errorf("failed to compute kendrick base mass: %w", err)
	}
	if mass <= 0 {
		return 0, fmt.Errorf("kendrick base mass must be positive, got %f", mass)
	}
	return math.Trunc(mass) / mass, nil
}

// RoundFloat rounds a float to n decimal places
func RoundFloat(val float64, precision int) float64 {
	ratio := math.Pow(10, float64(precision))
	return math.Round(val*ratio) / ratio
}
