package core

import (
	"errors"
	"math"
	"testing"

	"github.com/ChrisMcGann/ftmspeaks/pkg/calibration"
	"github.com/ChrisMcGann/ftmspeaks/pkg/noise"
	"github.com/ChrisMcGann/ftmspeaks/pkg/settings"
)

// syntheticTrace returns a profile with Gaussian peaks on a deterministic,
// strictly positive noise floor
func syntheticTrace(from, to, step float64, centers ...float64) ([]float64, []float64) {
	n := int(math.Round((to-from)/step)) + 1
	mz := make([]float64, n)
	ab := make([]float64, n)
	for i := range mz {
		x := from + float64(i)*step
		y := 20 + 10*math.Sin(0.7*float64(i)) + 5*math.Sin(1.3*float64(i))
		for _, c := range centers {
			d := (x - c) / 0.004
			y += 1e5 * math.Exp(-0.5*d*d)
		}
		mz[i] = x
		ab[i] = y
	}
	return mz, ab
}

func relativeOnePercent(set *settings.Settings) {
	set.ThresholdMethod = noise.MethodRelativeAbundance
	set.RelativeAbundanceThreshold = 1
}

func newProfile(t *testing.T, mz, ab []float64, opts ...Option) *ProfileSpectrum {
	t.Helper()
	set := settings.Default()
	relativeOnePercent(&set)
	s, err := NewProfileSpectrum(mz, ab, Params{Polarity: -1, Label: LabelThermoProfile}, set, append([]Option{quiet}, opts...)...)
	if err != nil {
		t.Fatalf("NewProfileSpectrum() error = %v", err)
	}
	return s
}

func TestProfileProcess(t *testing.T) {
	centers := []float64{480, 500, 520}
	mz, ab := syntheticTrace(450, 550, 0.002, centers...)
	s := newProfile(t, mz, ab)

	for _, auto := range []bool{true, false} {
		if err := s.Process(ProcessOptions{KeepProfile: true, AutoNoise: auto}); err != nil {
			t.Fatalf("Process(auto=%v) error = %v", auto, err)
		}

		b, ok := s.Baseline()
		if !ok || b.Degenerate || b.Noise <= 0 || b.Std <= 0 {
			t.Fatalf("expected a positive baseline, got %+v", b)
		}
		if s.State() != StateIndexed {
			t.Errorf("expected state %s, got %s", StateIndexed, s.State())
		}
		if s.Len() != len(centers) {
			t.Fatalf("expected %d peaks, got %d", len(centers), s.Len())
		}

		for i, p := range s.SortedByMz() {
			if math.Abs(p.MzExp-centers[i]) > 1e-3 {
				t.Errorf("peak %d: expected m/z near %f, got %f", i, centers[i], p.MzExp)
			}
			if p.ResolvingPower <= 0 {
				t.Errorf("peak %d: expected positive resolving power", i)
			}
			if math.Abs(p.SignalToNoise-p.Abundance/b.Std) > 1e-9 {
				t.Errorf("peak %d: S/N %f is not abundance over noise std", i, p.SignalToNoise)
			}
			if p.IonCharge != -1 {
				t.Errorf("peak %d: expected ion charge -1, got %d", i, p.IonCharge)
			}
		}
	}
}

func TestProfilePickRequiresNoise(t *testing.T) {
	mz, ab := syntheticTrace(450, 460, 0.002, 455)
	s := newProfile(t, mz, ab)

	if err := s.PickPeaks(); !errors.Is(err, ErrNoiseNotEstimated) {
		t.Errorf("expected ErrNoiseNotEstimated, got %v", err)
	}
}

func TestProfileDegenerateNoise(t *testing.T) {
	mz := []float64{400, 400.1, 400.2, 400.3, 400.4}
	ab := []float64{3, 3, 3, 3, 3}
	s := newProfile(t, mz, ab)

	if err := s.Process(DefaultProcessOptions()); err != nil {
		t.Fatalf("degenerate noise must not fail processing: %v", err)
	}
	b, ok := s.Baseline()
	if !ok || !b.Degenerate || b.Noise != 0 || b.Std != 0 {
		t.Errorf("expected degenerate zero baseline, got %+v", b)
	}
	cutoff, err := s.NoiseCutoff()
	if err != nil {
		t.Fatalf("NoiseCutoff() error = %v", err)
	}
	if !cutoff.Degenerate || cutoff.Threshold != 0 {
		t.Errorf("expected degenerate zero cutoff, got %+v", cutoff)
	}
}

type fixedStd float64

func (f fixedStd) EstimateStd([]float64) (float64, error) { return float64(f), nil }

func TestProfileBayesianNoise(t *testing.T) {
	mz, ab := syntheticTrace(450, 550, 0.002, 500)
	s := newProfile(t, mz, ab, WithStdEstimator(fixedStd(42)))

	if err := s.Process(ProcessOptions{KeepProfile: true, AutoNoise: true, BayesianNoise: true}); err != nil {
		t.Fatal(err)
	}
	if b, _ := s.Baseline(); b.Std != 42 {
		t.Errorf("expected injected std 42, got %f", b.Std)
	}

	if err := s.Process(DefaultProcessOptions()); err != nil {
		t.Fatal(err)
	}
	if b, _ := s.Baseline(); b.Std == 42 {
		t.Error("population std expected without bayes")
	}
}

func TestProfileTIC(t *testing.T) {
	s := newProfile(t, []float64{1, 2, 3}, []float64{4, 5, 6})
	if tic := s.TIC(); tic != 15 {
		t.Errorf("expected TIC 15, got %f", tic)
	}
}

func frequencyTrace(a float64, centers ...float64) ([]float64, []float64) {
	mz, ab := syntheticTrace(480, 520, 0.002, centers...)
	// ascending frequency is descending m/z
	n := len(mz)
	freq := make([]float64, n)
	mag := make([]float64, n)
	for i := range mz {
		freq[i] = a / mz[n-1-i]
		mag[i] = ab[n-1-i]
	}
	return freq, mag
}

func TestFrequencySpectrum(t *testing.T) {
	a := 1e8
	freq, mag := frequencyTrace(a, 490, 510)

	set := settings.Default()
	relativeOnePercent(&set)
	params := Params{
		Polarity:    -1,
		Label:       LabelBrukerFrequency,
		Calibration: calibration.NewTerms(a, 0, 0),
	}
	s, err := NewFrequencySpectrum(freq, mag, params, set, quiet)
	if err != nil {
		t.Fatalf("NewFrequencySpectrum() error = %v", err)
	}
	processed(t, s)

	if s.Len() != 2 {
		t.Fatalf("expected 2 peaks, got %d", s.Len())
	}
	f, err := s.Frequency()
	if err != nil {
		t.Fatal(err)
	}
	for i, p := range s.Peaks() {
		if math.IsNaN(f[i]) {
			t.Fatalf("peak %d has no frequency", i)
		}
		if math.Abs(f[i]*p.MzExp-a)/a > 1e-5 {
			t.Errorf("peak %d: frequency %f does not match m/z %f", i, f[i], p.MzExp)
		}
	}

	if err := s.ResetCalibrationTerms(calibration.NewTerms(2*a, 0, 0)); err != nil {
		t.Fatalf("ResetCalibrationTerms() error = %v", err)
	}
	sorted := s.SortedByMz()
	if len(sorted) != 2 {
		t.Fatalf("expected 2 peaks after recalibration, got %d", len(sorted))
	}
	for i, want := range []float64{980, 1020} {
		if math.Abs(sorted[i].MzExp-want) > 5e-3 {
			t.Errorf("expected peak near %f, got %f", want, sorted[i].MzExp)
		}
	}
	if s.State() != StateIndexed {
		t.Errorf("expected state %s, got %s", StateIndexed, s.State())
	}
}

func TestFrequencySpectrumErrors(t *testing.T) {
	set := settings.Default()

	_, err := NewFrequencySpectrum([]float64{1e5}, []float64{1}, Params{Label: LabelBrukerFrequency}, set, quiet)
	if !errors.Is(err, calibration.ErrInvalidCalibration) {
		t.Errorf("expected ErrInvalidCalibration, got %v", err)
	}

	profile := newProfile(t, []float64{1, 2, 3}, []float64{1, 2, 3})
	if err := profile.ResetCalibrationTerms(calibration.NewTerms(1, 0, 0)); !errors.Is(err, calibration.ErrInvalidCalibration) {
		t.Errorf("expected ErrInvalidCalibration for m/z profile, got %v", err)
	}
}
