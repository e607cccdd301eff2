package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ChrisMcGann/ftmspeaks/pkg/batch"
	"github.com/ChrisMcGann/ftmspeaks/pkg/calibration"
	"github.com/ChrisMcGann/ftmspeaks/pkg/core"
	"github.com/ChrisMcGann/ftmspeaks/pkg/filter"
	"github.com/ChrisMcGann/ftmspeaks/pkg/settings"
	"github.com/ChrisMcGann/ftmspeaks/pkg/writer/sqlite"
)

var processCmd = &cobra.Command{
	Use:   "process",
	Short: "Process scans and export peak lists to a SQLite database",
	Long: `Estimate noise, pick peaks and filter every scan of a peak list, then
write the active peaks to a SQLite database.

Examples:
  # Process with default settings
  ftmspeaks process --in scans.txt --out peaks.db

  # Signal to noise threshold and top-N filtering
  ftmspeaks process --in scans.txt --out peaks.db --threshold-method signal_noise --s2n 10 --top-n 500

  # Recalibrate against reference masses
  ftmspeaks process --in scans.txt --out peaks.db --recal-refs calibrants.csv --recal-model fticr --recal-tol 2`,
	RunE: runProcess,
}

func runProcess(cmd *cobra.Command, args []string) error {
	set, err := loadSettings(cmd)
	if err != nil {
		return err
	}

	jobs, err := readJobs(inputFile)
	if err != nil {
		return err
	}
	logger.Info("read scans", "file", inputFile, "scans", len(jobs))

	opts := batch.Options{
		Workers:  threads,
		Settings: set,
		Process: core.ProcessOptions{
			KeepProfile:   keepProfile,
			AutoNoise:     autoNoise,
			BayesianNoise: bayesNoise,
		},
		Filter: buildFilter(),
		Logger: logger,
	}
	if recalRefs != "" {
		recal, err := loadRecalibration()
		if err != nil {
			return err
		}
		opts.Recalibration = recal
	}

	start := time.Now()
	results, err := batch.Run(context.Background(), jobs, opts)
	if err != nil {
		return err
	}

	writer, err := sqlite.NewWriter(outputFile, describe(set))
	if err != nil {
		return fmt.Errorf("failed to create output database: %w", err)
	}
	defer writer.Close()

	for _, r := range results {
		if r.Err != nil {
			continue
		}
		if err := writer.WriteSpectrum(r.Spectrum); err != nil {
			return fmt.Errorf("failed to write scan %d: %w", r.Spectrum.Params().ScanNumber, err)
		}
	}

	summary := batch.Summarize(results)
	fmt.Printf("Processed %d scans (%d failed), %d peaks in %s\n",
		summary.Processed, summary.Failed, summary.Peaks, time.Since(start).Round(time.Millisecond))
	fmt.Printf("Output: %s (run %s)\n", outputFile, writer.RunID())
	return nil
}

// buildFilter maps the filter flags to a filter configuration
func buildFilter() *filter.Config {
	c := &filter.Config{
		MinMz:            minMz,
		MaxMz:            maxMz,
		MinSignalToNoise: minS2N,
		MinAbundance:     minAbundance,
		IntensityCutoff:  cutoffPercent,
		TopN:             topN,
		FormulaPrefixes:  formulaFilters,
	}
	if fieldStrength > 0 && transientTime > 0 {
		c.ResolvingPower = &filter.ResolvingPower{
			FieldStrength: fieldStrength,
			Transient:     transientTime,
			Bound:         core.UpperBound,
		}
	}
	return c
}

// loadRecalibration reads the calibrant list and resolves the --recal-ions selection
func loadRecalibration() (*batch.Recalibration, error) {
	model, err := calibration.ParseModel(recalModel)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(recalRefs)
	if err != nil {
		return nil, fmt.Errorf("failed to open reference file: %w", err)
	}
	defer f.Close()

	refs := calibration.NewReferenceList()
	if err := refs.LoadFromCSV(f); err != nil {
		return nil, fmt.Errorf("failed to load reference file: %w", err)
	}

	masses := refs.Masses()
	if recalIons != "" {
		masses, err = refs.ParseReferences(recalIons)
		if err != nil {
			return nil, err
		}
	}

	logger.Info("loaded reference masses", "file", recalRefs, "count", len(masses), "model", model.String())
	return &batch.Recalibration{References: masses, Model: model, TolerancePPM: recalTol}, nil
}

func describe(set settings.Settings) string {
	return fmt.Sprintf("threshold_method=%s noise_threshold_std=%g s2n_threshold=%g relative_abundance_threshold=%g kendrick_base=%s",
		set.ThresholdMethod, set.NoiseThresholdStd, set.SignalToNoiseThreshold,
		set.RelativeAbundanceThreshold, set.KendrickBaseString())
}
