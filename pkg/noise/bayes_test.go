package noise

import (
	"errors"
	"math"
	"testing"
)

func TestPopulationStd(t *testing.T) {
	got, err := PopulationStd{}.EstimateStd([]float64{1, 2, 3})
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	if want := 2 * math.Sqrt(2.0/3.0); math.Abs(got-want) > 1e-12 {
		t.Errorf("expected %f, got %f", want, got)
	}

	if _, err := (PopulationStd{}).EstimateStd(nil); !errors.Is(err, ErrNoSamples) {
		t.Errorf("expected ErrNoSamples, got %v", err)
	}
}

func TestHalfNormalPosteriorWithinPrior(t *testing.T) {
	valleys := []float64{0.8, 1.1, 1.9, 2.4, 3.0, 0.6, 1.4}

	got, err := HalfNormalPosterior{}.EstimateStd(valleys)
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	if got < 0.6 || got > 3.0 {
		t.Errorf("posterior mean %f outside prior bounds [0.6, 3.0]", got)
	}
}

func TestHalfNormalPosteriorConcentratesOnMLE(t *testing.T) {
	// many samples spread over [0.2, 4]: the posterior collapses near the
	// maximum likelihood scale sqrt(mean(x^2))
	var valleys []float64
	for i := 0; i < 400; i++ {
		valleys = append(valleys, 0.2+3.8*float64(i%20)/19)
	}
	var ss float64
	for _, v := range valleys {
		ss += v * v
	}
	mle := math.Sqrt(ss / float64(len(valleys)))

	got, err := HalfNormalPosterior{GridPoints: 4001}.EstimateStd(valleys)
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	if math.Abs(got-mle)/mle > 0.02 {
		t.Errorf("expected posterior mean near %f, got %f", mle, got)
	}
}

func TestHalfNormalPosteriorEdgeCases(t *testing.T) {
	if got, err := (HalfNormalPosterior{}).EstimateStd([]float64{2, 2, 2}); err != nil || got != 2 {
		t.Errorf("expected 2 for constant samples, got %f (%v)", got, err)
	}
	if _, err := (HalfNormalPosterior{}).EstimateStd(nil); !errors.Is(err, ErrNoSamples) {
		t.Errorf("expected ErrNoSamples, got %v", err)
	}
	if _, err := (HalfNormalPosterior{}).EstimateStd([]float64{0, 0}); err == nil {
		t.Error("expected error for all-zero samples")
	}
}
