package noise

import (
	"errors"
	"math"
	"testing"
)

var defaultPolicy = Policy{NoiseThresholdStd: 6, SignalToNoise: 4, RelativeAbundance: 6}

func TestCutoffMethods(t *testing.T) {
	baseline := &Baseline{Noise: 2, Std: 3}

	tests := []struct {
		name   string
		method Method
		in     CutoffInput
		policy Policy
		want   float64
	}{
		{
			name:   "auto",
			method: MethodAuto,
			in:     CutoffInput{MaxAbundance: 1000, Baseline: baseline},
			policy: defaultPolicy,
			want:   3 + 6*3,
		},
		{
			name:   "signal noise",
			method: MethodSignalNoise,
			in:     CutoffInput{MaxAbundance: 1000, MaxSignalToNoise: 200, Baseline: baseline},
			policy: defaultPolicy,
			want:   1000 * 4 / 200.0,
		},
		{
			name:   "relative abundance",
			method: MethodRelativeAbundance,
			in:     CutoffInput{MaxAbundance: 1000},
			policy: defaultPolicy,
			want:   60,
		},
		{
			name:   "relative abundance scenario",
			method: MethodRelativeAbundance,
			in:     CutoffInput{MaxAbundance: 100},
			policy: Policy{RelativeAbundance: 10},
			want:   10,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := quietEstimator().Cutoff(tt.method, tt.in, tt.policy)
			if err != nil {
				t.Fatalf("Cutoff() error = %v", err)
			}
			if math.Abs(got.Threshold-tt.want) > 1e-12 {
				t.Errorf("expected threshold %f, got %f", tt.want, got.Threshold)
			}
			lo, hi := got.Levels()
			if lo != hi {
				t.Errorf("expected equal levels, got (%f, %f)", lo, hi)
			}
		})
	}
}

func TestCutoffIsPositive(t *testing.T) {
	in := CutoffInput{
		MinMz:            150,
		MaxMz:            900,
		MaxAbundance:     5e6,
		MaxSignalToNoise: 1250,
		Baseline:         &Baseline{Noise: 10, Std: 4},
		RequireBaseline:  true,
	}

	for _, m := range []Method{MethodAuto, MethodSignalNoise, MethodRelativeAbundance} {
		got, err := quietEstimator().Cutoff(m, in, defaultPolicy)
		if err != nil {
			t.Fatalf("%s: unexpected error %v", m, err)
		}
		if got.Threshold <= 0 {
			t.Errorf("%s: expected positive threshold, got %f", m, got.Threshold)
		}
		if lo, hi := got.Range(); lo != 150 || hi != 900 {
			t.Errorf("%s: expected range (150, 900), got (%f, %f)", m, lo, hi)
		}
	}
}

func TestCutoffUnsupportedMethod(t *testing.T) {
	_, err := quietEstimator().Cutoff(Method(42), CutoffInput{MaxAbundance: 1}, defaultPolicy)
	if !errors.Is(err, ErrUnsupportedThresholdMethod) {
		t.Errorf("expected ErrUnsupportedThresholdMethod, got %v", err)
	}
}

func TestCutoffDegenerate(t *testing.T) {
	tests := []struct {
		name   string
		method Method
		in     CutoffInput
	}{
		{"profile without baseline", MethodRelativeAbundance, CutoffInput{MaxAbundance: 100, RequireBaseline: true}},
		{"profile with zero baseline", MethodAuto, CutoffInput{MaxAbundance: 100, Baseline: &Baseline{}, RequireBaseline: true}},
		{"auto without std", MethodAuto, CutoffInput{MaxAbundance: 100}},
		{"signal noise without s2n", MethodSignalNoise, CutoffInput{MaxAbundance: 100, MaxSignalToNoise: -999}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := quietEstimator().Cutoff(tt.method, tt.in, defaultPolicy)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if !got.Degenerate || got.Threshold != 0 || got.MinMz != 0 || got.MaxMz != 0 {
				t.Errorf("expected all-zero degenerate cutoff, got %+v", got)
			}
		})
	}
}

func TestParseMethod(t *testing.T) {
	tests := []struct {
		in      string
		want    Method
		wantErr bool
	}{
		{"auto", MethodAuto, false},
		{"signal_noise", MethodSignalNoise, false},
		{"Relative_Abundance", MethodRelativeAbundance, false},
		{"log", 0, true},
	}

	for _, tt := range tests {
		got, err := ParseMethod(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseMethod(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if err != nil && !errors.Is(err, ErrUnsupportedThresholdMethod) {
			t.Errorf("ParseMethod(%q) expected ErrUnsupportedThresholdMethod, got %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("ParseMethod(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}
