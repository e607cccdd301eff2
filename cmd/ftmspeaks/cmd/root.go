// Package cmd provides CLI command implementations
package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/ChrisMcGann/ftmspeaks/pkg/batch"
	"github.com/ChrisMcGann/ftmspeaks/pkg/noise"
	"github.com/ChrisMcGann/ftmspeaks/pkg/reader/peaklist"
	"github.com/ChrisMcGann/ftmspeaks/pkg/settings"
)

var (
	// Global flags
	configFile string
	verbose    bool

	// Processing flags
	inputFile       string
	outputFile      string
	thresholdMethod string
	noiseStd        float64
	s2nThreshold    float64
	relThreshold    float64
	keepProfile     bool
	autoNoise       bool
	bayesNoise      bool
	threads         int

	// Filter flags
	minMz          float64
	maxMz          float64
	minS2N         float64
	minAbundance   float64
	cutoffPercent  float64
	topN           int
	fieldStrength  float64
	transientTime  float64
	formulaFilters []string

	// Recalibration flags
	recalRefs  string
	recalIons  string
	recalModel string
	recalTol   float64
)

var logger = slog.Default()

var rootCmd = &cobra.Command{
	Use:   "ftmspeaks",
	Short: "ftmspeaks - FT-MS noise thresholding and peak processing tool",
	Long: `ftmspeaks estimates the noise baseline of FT-MS scans, applies a
signal-intensity threshold, picks peaks and exports the processed peak lists
to SQLite databases.

Supported input:
- Frequency-domain transients with Bruker or standard calibration terms
- Profile m/z spectra
- Centroid peak lists with optional reader-supplied S/N`,
	Version: "0.1.0",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
		slog.SetDefault(logger)
		return nil
	},
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "YAML settings file (defaults are used if not specified)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(processCmd)
	rootCmd.AddCommand(noiseCmd)
	rootCmd.AddCommand(summarizeCmd)
	rootCmd.AddCommand(validateCmd)

	for _, c := range []*cobra.Command{processCmd, noiseCmd, summarizeCmd} {
		c.Flags().StringVarP(&inputFile, "in", "i", "", "Input peak list (required)")
		c.Flags().StringVar(&thresholdMethod, "threshold-method", "", "Threshold method: auto, signal_noise, relative_abundance")
		c.Flags().Float64Var(&noiseStd, "noise-std", 0, "Noise threshold in standard deviations (auto method)")
		c.Flags().Float64Var(&s2nThreshold, "s2n", 0, "Signal to noise threshold (signal_noise method)")
		c.Flags().Float64Var(&relThreshold, "relative", 0, "Relative abundance threshold in % of the base peak (relative_abundance method)")
		c.Flags().BoolVar(&autoNoise, "auto-noise", true, "Center the noise window on the weight-average m/z")
		c.Flags().BoolVar(&bayesNoise, "bayes", false, "Refine the noise std with the half-normal posterior")
		c.Flags().IntVar(&threads, "threads", 0, "Number of worker threads (0 = number of CPUs)")
		c.MarkFlagRequired("in")
	}

	// Process command flags
	processCmd.Flags().StringVarP(&outputFile, "out", "o", "", "Output database file (required)")
	processCmd.Flags().BoolVar(&keepProfile, "keep-profile", false, "Keep the profile arrays after picking")
	processCmd.Flags().Float64Var(&minMz, "min-mz", 0, "Keep peaks at or above this m/z")
	processCmd.Flags().Float64Var(&maxMz, "max-mz", 0, "Keep peaks at or below this m/z (0 = no limit)")
	processCmd.Flags().Float64Var(&minS2N, "min-s2n", 0, "Keep peaks at or above this S/N")
	processCmd.Flags().Float64Var(&minAbundance, "min-abundance", 0, "Keep peaks at or above this abundance")
	processCmd.Flags().Float64Var(&cutoffPercent, "cutoff", 0, "Intensity cutoff as % of base peak (0 = no cutoff)")
	processCmd.Flags().IntVar(&topN, "top-n", 0, "Keep only top N most intense peaks (0 = no limit)")
	processCmd.Flags().Float64Var(&fieldStrength, "field-strength", 0, "Magnetic field in tesla for the resolving-power filter")
	processCmd.Flags().Float64Var(&transientTime, "transient", 0, "Transient length in seconds for the resolving-power filter")
	processCmd.Flags().StringSliceVar(&formulaFilters, "formula", nil, "Keep only peaks with a formula starting with one of these prefixes")
	processCmd.Flags().StringVar(&recalRefs, "recal-refs", "", "Calibrant CSV file (name,mz) for recalibration")
	processCmd.Flags().StringVar(&recalIons, "recal-ions", "", "Semicolon-separated calibrant names or m/z values to use (default: every calibrant)")
	processCmd.Flags().StringVar(&recalModel, "recal-model", "linear", "Recalibration model: offset, linear, quadratic, fticr, orbitrap")
	processCmd.Flags().Float64Var(&recalTol, "recal-tol", 5, "Reference matching tolerance in ppm")
	processCmd.MarkFlagRequired("out")
}

// loadSettings reads the settings file and applies command-line overrides
func loadSettings(cmd *cobra.Command) (settings.Settings, error) {
	set := settings.Default()
	if configFile != "" {
		var err error
		set, err = settings.Load(configFile)
		if err != nil {
			return settings.Settings{}, err
		}
	}

	flags := cmd.Flags()
	if flags.Changed("threshold-method") {
		m, err := noise.ParseMethod(thresholdMethod)
		if err != nil {
			return settings.Settings{}, err
		}
		set.ThresholdMethod = m
	}
	if flags.Changed("noise-std") {
		set.NoiseThresholdStd = noiseStd
	}
	if flags.Changed("s2n") {
		set.SignalToNoiseThreshold = s2nThreshold
	}
	if flags.Changed("relative") {
		set.RelativeAbundanceThreshold = relThreshold
	}

	if err := set.Validate(); err != nil {
		return settings.Settings{}, err
	}
	return set, nil
}

// readJobs reads every scan of a peak list
func readJobs(path string) ([]batch.Job, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open input file: %w", err)
	}
	defer f.Close()

	var jobs []batch.Job
	r := peaklist.NewReader(f, path)
	for r.Next() {
		e := r.Entry()
		jobs = append(jobs, batch.Job{Raw: e.Raw, Params: e.Params})
	}
	if err := r.Err(); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return jobs, nil
}
