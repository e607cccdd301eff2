// Package batch processes many scans concurrently.
//
// Each scan gets its own spectrum; spectra are never shared between workers.
// A failing scan is reported in its Result and does not stop the others.
package batch

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ChrisMcGann/ftmspeaks/pkg/calibration"
	"github.com/ChrisMcGann/ftmspeaks/pkg/core"
	"github.com/ChrisMcGann/ftmspeaks/pkg/filter"
	"github.com/ChrisMcGann/ftmspeaks/pkg/settings"
)

// Job is one scan to process
type Job struct {
	Raw    core.RawData
	Params core.Params
}

// Recalibration configures the optional reference-mass recalibration step
type Recalibration struct {
	References   []float64
	Model        calibration.Model
	TolerancePPM float64
}

// Options controls Run
type Options struct {
	// Workers caps concurrent scans; zero or less means runtime.NumCPU()
	Workers  int
	Settings settings.Settings
	Process  core.ProcessOptions
	// Filter is applied to the active view after processing
	Filter        *filter.Config
	Recalibration *Recalibration
	// SpectrumOptions are passed to every spectrum constructor
	SpectrumOptions []core.Option
	Logger          *slog.Logger
}

// Result is the outcome of one job. Index is the job position.
type Result struct {
	Index       int
	Spectrum    core.Spectrum
	Calibration *calibration.Coefficients
	Duration    time.Duration
	Err         error
}

// Run processes jobs with up to opts.Workers goroutines. Results are returned
// in job order. The returned error is non-nil only when ctx is cancelled;
// per-scan failures are in Result.Err.
func Run(ctx context.Context, jobs []Job, opts Options) ([]Result, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if err := opts.Settings.Validate(); err != nil {
		return nil, err
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	results := make([]Result, len(jobs))
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, job := range jobs {
		if err := gCtx.Err(); err != nil {
			results[i] = Result{Index: i, Err: err}
			continue
		}
		i, job := i, job
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				results[i] = Result{Index: i, Err: err}
				return nil
			}

			start := time.Now()
			res := processJob(job, opts, logger)
			res.Index = i
			res.Duration = time.Since(start)
			results[i] = res

			if res.Err != nil {
				logger.Warn("scan failed", "scan", job.Params.ScanNumber, "error", res.Err)
			} else {
				logger.Debug("scan processed", "scan", job.Params.ScanNumber,
					"peaks", res.Spectrum.Len(), "duration", res.Duration)
			}
			return nil
		})
	}

	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return results, err
	}
	return results, nil
}

func processJob(job Job, opts Options, logger *slog.Logger) Result {
	spec, err := core.New(job.Raw, job.Params, opts.Settings,
		append([]core.Option{core.WithLogger(logger)}, opts.SpectrumOptions...)...)
	if err != nil {
		return Result{Err: fmt.Errorf("scan %d: %w", job.Params.ScanNumber, err)}
	}

	if err := spec.Process(opts.Process); err != nil {
		return Result{Spectrum: spec, Err: fmt.Errorf("scan %d: %w", job.Params.ScanNumber, err)}
	}

	res := Result{Spectrum: spec}
	if r := opts.Recalibration; r != nil {
		coef, err := spec.Recalibrate(r.References, r.Model, r.TolerancePPM)
		if err != nil {
			res.Err = fmt.Errorf("scan %d: recalibration: %w", job.Params.ScanNumber, err)
			return res
		}
		res.Calibration = &coef
	}

	if opts.Filter != nil && opts.Filter.Enabled() {
		if err := opts.Filter.Apply(spec); err != nil {
			res.Err = fmt.Errorf("scan %d: %w", job.Params.ScanNumber, err)
		}
	}
	return res
}

// Summary counts results
type Summary struct {
	Processed int
	Failed    int
	Peaks     int
}

// Summarize counts processed and failed results and the active peaks of the processed ones
func Summarize(results []Result) Summary {
	var s Summary
	for _, r := range results {
		if r.Err != nil || r.Spectrum == nil {
			s.Failed++
			continue
		}
		s.Processed++
		s.Peaks += r.Spectrum.Len()
	}
	return s
}
