package noise

import (
	"errors"
	"io"
	"log/slog"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func quietEstimator() *Estimator {
	e := NewEstimator()
	e.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	return e
}

// referenceCentroid is a direct transcription of the chunk-minimum rule
func referenceCentroid(values []float64, size int) (float64, float64, int) {
	var minima []float64
	for i := 0; i < len(values); i += size {
		m := math.Inf(1)
		for j := i; j < i+size && j < len(values); j++ {
			m = math.Min(m, values[j])
		}
		minima = append(minima, m)
	}
	var sum float64
	for _, m := range minima {
		sum += m
	}
	mean := sum / float64(len(minima))
	var ss float64
	for _, m := range minima {
		ss += (m - mean) * (m - mean)
	}
	return mean, math.Sqrt(ss / float64(len(minima))), len(minima)
}

func TestChunkMinima(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		size   int
		want   []float64
	}{
		{"exact chunks", []float64{3, 1, 4, 1, 5, 9}, 2, []float64{1, 1, 5}},
		{"short last chunk", []float64{3, 1, 4, 1, 5}, 2, []float64{1, 1, 5}},
		{"chunk larger than input", []float64{7, 2, 9}, 50, []float64{2}},
		{"empty", nil, 50, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ChunkMinima(tt.values, tt.size)
			if diff := cmp.Diff(tt.want, got, cmpopts.EquateEmpty()); diff != "" {
				t.Errorf("ChunkMinima() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestCentroidChunkCount(t *testing.T) {
	for _, n := range []int{1, 49, 50, 51, 100, 149, 333} {
		values := make([]float64, n)
		for i := range values {
			values[i] = float64((i*37)%101) + 1
		}
		minima := ChunkMinima(values, DefaultChunkSize)
		want := (n + DefaultChunkSize - 1) / DefaultChunkSize
		if len(minima) != want {
			t.Errorf("length %d: expected %d chunks, got %d", n, want, len(minima))
		}

		got := quietEstimator().Centroid(values)
		wantMean, wantStd, _ := referenceCentroid(values, DefaultChunkSize)
		if math.Abs(got.Noise-wantMean) > 1e-9 || math.Abs(got.Std-wantStd) > 1e-9 {
			t.Errorf("length %d: got (%f, %f), want (%f, %f)", n, got.Noise, got.Std, wantMean, wantStd)
		}
	}
}

func TestCentroidIsOrderDependent(t *testing.T) {
	e := quietEstimator()
	e.ChunkSize = 2

	ordered := e.Centroid([]float64{1, 9, 2, 8})
	shuffled := e.Centroid([]float64{1, 2, 9, 8})

	if ordered.Noise != 1.5 {
		t.Errorf("expected noise 1.5 for ordered input, got %f", ordered.Noise)
	}
	if shuffled.Noise != 4.5 {
		t.Errorf("expected noise 4.5 for shuffled input, got %f", shuffled.Noise)
	}
}

func TestCentroidScenario(t *testing.T) {
	e := quietEstimator()
	e.ChunkSize = 1
	abundance := []float64{10, 5, 100, 8, 6}

	got := e.Centroid(abundance)
	wantMean, wantStd, chunks := referenceCentroid(abundance, 1)
	if chunks != 5 {
		t.Fatalf("expected 5 chunks, got %d", chunks)
	}
	if math.Abs(got.Noise-wantMean) > 1e-12 {
		t.Errorf("expected noise %f, got %f", wantMean, got.Noise)
	}
	if math.Abs(got.Std-wantStd) > 1e-12 {
		t.Errorf("expected std %f, got %f", wantStd, got.Std)
	}
}

func TestCentroidEmptyIsDegenerate(t *testing.T) {
	got := quietEstimator().Centroid(nil)
	if !got.Degenerate || got.Noise != 0 || got.Std != 0 {
		t.Errorf("expected degenerate zero baseline, got %+v", got)
	}
}

func TestValleyMinima(t *testing.T) {
	tests := []struct {
		name     string
		in       []float64
		fraction float64
		want     []float64
	}{
		{
			name:     "valleys below five percent",
			in:       []float64{10, 1, 10, 2, 10, 50, 100, 40, 3, 30},
			fraction: 0.05,
			want:     []float64{1, 2, 3},
		},
		{
			name:     "valley above limit is a peak flank",
			in:       []float64{100, 20, 100, 1, 100},
			fraction: 0.05,
			want:     []float64{1},
		},
		{
			name:     "plateau is not a strict minimum",
			in:       []float64{5, 1, 1, 5},
			fraction: 1,
			want:     nil,
		},
		{
			name:     "NaN neighbours are skipped",
			in:       []float64{5, 1, math.NaN(), 0.5, 5},
			fraction: 1,
			want:     nil,
		},
		{
			name:     "too short",
			in:       []float64{1, 2},
			fraction: 1,
			want:     nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ValleyMinima(tt.in, tt.fraction)
			if diff := cmp.Diff(tt.want, got, cmpopts.EquateEmpty()); diff != "" {
				t.Errorf("ValleyMinima() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func profileFixture() ([]float64, []float64) {
	abundance := []float64{10, 1, 10, 2, 10, 50, 100, 40, 3, 30}
	mz := make([]float64, len(abundance))
	for i := range mz {
		mz[i] = 100 + float64(i)
	}
	return mz, abundance
}

func TestProfileFixedWindow(t *testing.T) {
	mz, abundance := profileFixture()
	got := quietEstimator().Profile(mz, abundance, FixedWindow(99, 110), false)

	// valleys 1, 2, 3 doubled to 2, 4, 6
	if got.Degenerate {
		t.Fatal("unexpected degenerate baseline")
	}
	if math.Abs(got.Noise-4) > 1e-12 {
		t.Errorf("expected noise 4, got %f", got.Noise)
	}
	if want := math.Sqrt(8.0 / 3.0); math.Abs(got.Std-want) > 1e-12 {
		t.Errorf("expected std %f, got %f", want, got.Std)
	}
}

func TestProfileAutoWindowClipsToRange(t *testing.T) {
	mz, abundance := profileFixture()
	e := quietEstimator()

	lo, hi := e.windowBounds(mz, abundance, AutoWindow())
	if lo != 100 || hi != 109 {
		t.Errorf("expected window clipped to [100, 109], got [%f, %f]", lo, hi)
	}

	e.WindowHalfWidth = 1
	lo, hi = e.windowBounds(mz, abundance, AutoWindow())
	center := WeightAverageMolecularWeight(mz, abundance)
	if math.Abs(lo-(center-1)) > 1e-9 || math.Abs(hi-(center+1)) > 1e-9 {
		t.Errorf("expected window centred on %f, got [%f, %f]", center, lo, hi)
	}
}

func TestProfileDegenerate(t *testing.T) {
	mz, abundance := profileFixture()
	e := quietEstimator()

	tests := []struct {
		name string
		mz   []float64
		ab   []float64
		w    Window
	}{
		{"empty", nil, nil, AutoWindow()},
		{"mismatched", mz, abundance[:3], AutoWindow()},
		{"window outside data", mz, abundance, FixedWindow(500, 600)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := e.Profile(tt.mz, tt.ab, tt.w, false)
			if !got.Degenerate || got.Noise != 0 || got.Std != 0 {
				t.Errorf("expected degenerate zero baseline, got %+v", got)
			}
		})
	}
}

type fixedStd struct {
	value float64
	err   error
}

func (f fixedStd) EstimateStd([]float64) (float64, error) { return f.value, f.err }

func TestProfileBayesianRefinement(t *testing.T) {
	mz, abundance := profileFixture()
	population := math.Sqrt(8.0 / 3.0)

	tests := []struct {
		name   string
		refine StdEstimator
		bayes  bool
		want   float64
	}{
		{"refinement not requested", fixedStd{value: 42}, false, population},
		{"refinement requested", fixedStd{value: 42}, true, 42},
		{"refinement not configured", nil, true, population},
		{"refinement fails", fixedStd{err: errors.New("boom")}, true, population},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := quietEstimator()
			e.Refine = tt.refine
			got := e.Profile(mz, abundance, FixedWindow(99, 110), tt.bayes)
			if math.Abs(got.Std-tt.want) > 1e-12 {
				t.Errorf("expected std %f, got %f", tt.want, got.Std)
			}
			if math.Abs(got.Noise-4) > 1e-12 {
				t.Errorf("expected noise 4, got %f", got.Noise)
			}
		})
	}
}

func TestMolecularWeights(t *testing.T) {
	mz := []float64{100, 200}
	abundance := []float64{1, 1}

	if got := NumberAverageMolecularWeight(mz, abundance); got != 150 {
		t.Errorf("expected number average 150, got %f", got)
	}
	// (100^2 + 200^2) / (100 + 200)
	if got := WeightAverageMolecularWeight(mz, abundance); math.Abs(got-50000.0/300.0) > 1e-9 {
		t.Errorf("expected weight average %f, got %f", 50000.0/300.0, got)
	}
}
