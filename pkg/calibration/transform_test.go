package calibration

import (
	"errors"
	"math"
	"testing"
)

func ptr(v float64) *float64 { return &v }

func TestFrequencyToMz(t *testing.T) {
	freq := []float64{1e5, 2.5e5, 1e6}

	tests := []struct {
		name  string
		terms Terms
		want  func(f float64) float64
	}{
		{
			name:  "A only",
			terms: Terms{A: ptr(1.5e8)},
			want:  func(f float64) float64 { return 1.5e8 / f },
		},
		{
			name:  "A and B",
			terms: Terms{A: ptr(1.5e8), B: ptr(-2.0e8)},
			want:  func(f float64) float64 { return 1.5e8/f - 2.0e8/(f*f) },
		},
		{
			name:  "A, B and C",
			terms: NewTerms(1.5e8, -2.0e8, 3.0e9),
			want:  func(f float64) float64 { return 1.5e8/f - 2.0e8/(f*f) + 3.0e9/(f*f*f) },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FrequencyToMz(freq, tt.terms)
			if err != nil {
				t.Fatalf("FrequencyToMz() error = %v", err)
			}
			for i, f := range freq {
				want := tt.want(f)
				if math.Abs(got[i]-want)/want > 1e-12 {
					t.Errorf("f=%g: expected %.9f, got %.9f", f, want, got[i])
				}
			}
		})
	}
}

func TestFrequencyToMzBruker(t *testing.T) {
	freq := []float64{1.2e5, 3.0e5, 9.0e5}
	a, b, c := 1.5e8, 2.5, -0.05

	got, err := FrequencyToMzBruker(freq, NewTerms(a, b, c))
	if err != nil {
		t.Fatalf("FrequencyToMzBruker() error = %v", err)
	}
	// the Bruker function is the inverse of f = B + A/mz + C/mz^2
	for i, f := range freq {
		mz := got[i]
		back := b + a/mz + c/(mz*mz)
		if math.Abs(back-f)/f > 1e-12 {
			t.Errorf("f=%g: m/z %.9f maps back to %.9f", f, mz, back)
		}
	}

	got, err = FrequencyToMzBruker(freq, NewTerms(a, b, 0))
	if err != nil {
		t.Fatalf("FrequencyToMzBruker() error = %v", err)
	}
	if want := a / (freq[0] + b); got[0] != want {
		t.Errorf("expected %f with C=0, got %f", want, got[0])
	}

	got, err = FrequencyToMzBruker(freq, NewTerms(a, 0, 0))
	if err != nil {
		t.Fatalf("FrequencyToMzBruker() error = %v", err)
	}
	if want := a / freq[0]; got[0] != want {
		t.Errorf("expected %f with B=C=0, got %f", want, got[0])
	}
}

func TestBrukerSmallCIsStable(t *testing.T) {
	// with C tiny the textbook form loses all digits to cancellation; the
	// result has to approach A/(f-B)
	a, b, c := 1.5e8, 3.0, 1e-12
	freq := []float64{2.0e5}

	got, err := FrequencyToMzBruker(freq, NewTerms(a, b, c))
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	want := a / (freq[0] - b)
	if math.Abs(got[0]-want)/want > 1e-9 {
		t.Errorf("expected %.9f, got %.9f", want, got[0])
	}
}

func TestMissingTerms(t *testing.T) {
	freq := []float64{1e5}

	if _, err := FrequencyToMz(freq, Terms{B: ptr(1)}); !errors.Is(err, ErrInvalidCalibration) {
		t.Errorf("expected ErrInvalidCalibration without A, got %v", err)
	}
	if _, err := FrequencyToMzBruker(freq, Terms{A: ptr(1), B: ptr(1)}); !errors.Is(err, ErrInvalidCalibration) {
		t.Errorf("expected ErrInvalidCalibration without C, got %v", err)
	}
	if _, err := FrequencyToMz(freq, Terms{A: ptr(math.NaN())}); !errors.Is(err, ErrInvalidCalibration) {
		t.Errorf("expected ErrInvalidCalibration for NaN A, got %v", err)
	}
}

func TestToMzSelectsFormula(t *testing.T) {
	freq := []float64{2e5}
	terms := NewTerms(1.5e8, 4, 0)

	bruker, err := ToMz(LabelBrukerFrequency, freq, terms)
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	standard, err := ToMz("Midas_Frequency", freq, terms)
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}

	if bruker[0] != 1.5e8/(2e5+4) {
		t.Errorf("unexpected Bruker m/z %f", bruker[0])
	}
	if want := 1.5e8/2e5 + 4/(2e5*2e5); math.Abs(standard[0]-want)/want > 1e-12 {
		t.Errorf("expected standard m/z %f, got %f", want, standard[0])
	}

	if _, err := ToMz(LabelBrukerFrequency, freq, Terms{A: ptr(1.5e8)}); !errors.Is(err, ErrInvalidCalibration) {
		t.Errorf("expected ErrInvalidCalibration for incomplete Bruker terms, got %v", err)
	}
}
