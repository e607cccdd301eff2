package calibration

import (
	"errors"
	"math"
	"testing"
)

var calibrantMz = []float64{
	200.0519, 265.1479, 311.1686, 387.1810, 444.1127, 518.1315, 592.1503, 666.1691, 740.1879,
}

func distort(m Model, p []float64, ref []float64) []float64 {
	// invert the model numerically by bisection so that recal(measured) == ref
	out := make([]float64, len(ref))
	for i, r := range ref {
		lo, hi := r*0.99, r*1.01
		for k := 0; k < 200; k++ {
			mid := (lo + hi) / 2
			if recal(m, p, mid) < r {
				lo = mid
			} else {
				hi = mid
			}
		}
		out[i] = (lo + hi) / 2
	}
	return out
}

func TestFitRecoversDistortion(t *testing.T) {
	tests := []struct {
		model Model
		p     []float64
	}{
		{ModelOffset, []float64{0.0021}},
		{ModelLinear, []float64{0.001, 1.000004}},
		{ModelQuadratic, []float64{0.001, 1.000004, 1e-9}},
		{ModelFTICR, []float64{2e-9, 1.000003}},
		{ModelOrbitrap, []float64{1e-7, 1.000002}},
	}

	for _, tt := range tests {
		t.Run(tt.model.String(), func(t *testing.T) {
			measured := distort(tt.model, tt.p, calibrantMz)

			coef, err := Fit(measured, calibrantMz, tt.model)
			if err != nil {
				t.Fatalf("Fit() error = %v", err)
			}
			if len(coef.P) != tt.model.NumParams() {
				t.Fatalf("expected %d parameters, got %d", tt.model.NumParams(), len(coef.P))
			}

			got := coef.Apply(measured)
			for i, want := range calibrantMz {
				ppm := (got[i] - want) / want * 1e6
				if math.Abs(ppm) > 0.05 {
					t.Errorf("calibrant %f: residual %.4f ppm after recalibration", want, ppm)
				}
			}
		})
	}
}

func TestFitTooFewCalibrants(t *testing.T) {
	_, err := Fit([]float64{100, 200}, []float64{100, 200}, ModelQuadratic)
	if !errors.Is(err, ErrTooFewCalibrants) {
		t.Errorf("expected ErrTooFewCalibrants, got %v", err)
	}

	if _, err := Fit([]float64{100}, []float64{100, 200}, ModelOffset); err == nil {
		t.Error("expected error for mismatched sizes")
	}
}

func TestMatchReferences(t *testing.T) {
	measured := []float64{500.0010, 300.0003, 100.5, 700.2}
	refs := []float64{700.0, 300.0, 500.0}

	meas, ref := MatchReferences(measured, refs, 5)

	if len(meas) != 2 || len(ref) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(meas))
	}
	if ref[0] != 300.0 || meas[0] != 300.0003 {
		t.Errorf("unexpected first pair (%f, %f)", meas[0], ref[0])
	}
	if ref[1] != 500.0 || meas[1] != 500.0010 {
		t.Errorf("unexpected second pair (%f, %f)", meas[1], ref[1])
	}
}

func TestParseModel(t *testing.T) {
	for _, m := range []Model{ModelOffset, ModelLinear, ModelQuadratic, ModelFTICR, ModelOrbitrap} {
		got, err := ParseModel(m.String())
		if err != nil || got != m {
			t.Errorf("ParseModel(%q) = %v, %v", m.String(), got, err)
		}
	}
	if _, err := ParseModel("poly7"); err == nil {
		t.Error("expected error for unknown model")
	}
}
