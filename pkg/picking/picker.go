// Package picking finds peaks in profile mass spectra
package picking

import (
	"log/slog"
	"math"
)

// Input is a profile trace plus the limits a picker has to respect
type Input struct {
	Mz        []float64
	Abundance []float64

	// Threshold is the minimum apex abundance of a peak
	Threshold float64
	// NoiseStd converts apex abundance to signal to noise. Zero leaves S/N at 0.
	NoiseStd float64

	// MinMz and MaxMz bound the apex m/z. Both zero disables the bound.
	MinMz float64
	MaxMz float64
}

// Candidate is a picked peak before it becomes part of a spectrum
type Candidate struct {
	Mz             float64
	Abundance      float64
	ResolvingPower float64
	SignalToNoise  float64
	ScanIndex      int // position of the apex sample in the trace
}

// Picker turns a profile trace into peak candidates
type Picker interface {
	Pick(in Input) []Candidate
}

// LocalMaxima picks every local maximum above the threshold. The apex is
// refined by parabolic interpolation over the three samples around it and
// resolving power is m/z over the full width at half maximum.
type LocalMaxima struct {
	Logger *slog.Logger
}

// Pick implements Picker
func (p LocalMaxima) Pick(in Input) []Candidate {
	mz, ab := in.Mz, in.Abundance
	if len(mz) < 3 || len(mz) != len(ab) {
		return nil
	}
	bounded := in.MaxMz > in.MinMz

	var peaks []Candidate
	for i := 1; i < len(ab)-1; i++ {
		if !(ab[i] > ab[i-1] && ab[i] >= ab[i+1]) {
			continue
		}
		if ab[i] < in.Threshold {
			continue
		}

		apexMz, apexAb := refineApex(mz, ab, i)
		if bounded && (apexMz < in.MinMz || apexMz > in.MaxMz) {
			continue
		}

		c := Candidate{
			Mz:        apexMz,
			Abundance: apexAb,
			ScanIndex: i,
		}
		if fwhm := fullWidthHalfMax(mz, ab, i, apexAb/2); fwhm > 0 {
			c.ResolvingPower = apexMz / fwhm
		}
		if in.NoiseStd > 0 {
			c.SignalToNoise = apexAb / in.NoiseStd
		}
		peaks = append(peaks, c)
	}

	p.logger().Debug("peaks picked", "candidates", len(peaks), "threshold", in.Threshold)
	return peaks
}

func (p LocalMaxima) logger() *slog.Logger {
	if p.Logger != nil {
		return p.Logger
	}
	return slog.Default()
}

// refineApex fits a parabola through samples i-1, i, i+1 in index space and
// maps the fractional offset back onto the m/z axis
func refineApex(mz, ab []float64, i int) (float64, float64) {
	y1, y2, y3 := ab[i-1], ab[i], ab[i+1]

	denom := 2.0 * (2.0*y2 - y1 - y3)
	if math.Abs(denom) < 1e-12 {
		return mz[i], y2
	}
	offset := (y3 - y1) / denom

	a := 0.5 * (y1 - 2.0*y2 + y3)
	b := 0.5 * (y3 - y1)
	apexAb := y2 + a*offset*offset + b*offset

	var apexMz float64
	if offset >= 0 {
		apexMz = mz[i] + offset*(mz[i+1]-mz[i])
	} else {
		apexMz = mz[i] + offset*(mz[i]-mz[i-1])
	}
	return apexMz, apexAb
}

// fullWidthHalfMax walks out from the apex until the trace drops below half
// and interpolates the crossing on each side. It returns 0 when a side never
// crosses.
func fullWidthHalfMax(mz, ab []float64, apex int, half float64) float64 {
	left := apex
	for left > 0 && ab[left] > half {
		left--
	}
	if ab[left] > half {
		return 0
	}
	right := apex
	for right < len(ab)-1 && ab[right] > half {
		right++
	}
	if ab[right] > half {
		return 0
	}

	xl := crossing(mz[left], ab[left], mz[left+1], ab[left+1], half)
	xr := crossing(mz[right-1], ab[right-1], mz[right], ab[right], half)
	return math.Abs(xr - xl)
}

func crossing(x0, y0, x1, y1, level float64) float64 {
	if y1 == y0 {
		return x0
	}
	return x0 + (level-y0)*(x1-x0)/(y1-y0)
}
