package cmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ChrisMcGann/ftmspeaks/pkg/batch"
	"github.com/ChrisMcGann/ftmspeaks/pkg/core"
)

var noiseCmd = &cobra.Command{
	Use:   "noise",
	Short: "Print the noise baseline and abundance cutoff of every scan",
	Long: `Estimate the baseline noise of every scan and print the noise level,
its standard deviation and the abundance cutoff of the threshold method.

Examples:
  ftmspeaks noise --in scans.txt
  ftmspeaks noise --in scans.txt --threshold-method relative_abundance --relative 2`,
	RunE: runNoise,
}

func runNoise(cmd *cobra.Command, args []string) error {
	set, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	jobs, err := readJobs(inputFile)
	if err != nil {
		return err
	}

	results, err := batch.Run(context.Background(), jobs, batch.Options{
		Workers:  threads,
		Settings: set,
		Process:  core.ProcessOptions{AutoNoise: autoNoise, BayesianNoise: bayesNoise},
		Logger:   logger,
	})
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SCAN\tKIND\tNOISE\tSTD\tMETHOD\tTHRESHOLD\tMIN M/Z\tMAX M/Z\tPEAKS")
	for _, r := range results {
		if r.Err != nil {
			fmt.Fprintf(tw, "%d\terror: %v\n", jobs[r.Index].Params.ScanNumber, r.Err)
			continue
		}
		spec := r.Spectrum
		b, _ := spec.Baseline()
		cutoff, err := spec.NoiseCutoff()
		if err != nil {
			return fmt.Errorf("scan %d: %w", spec.Params().ScanNumber, err)
		}
		threshold := fmt.Sprintf("%.4g", cutoff.Threshold)
		if cutoff.Degenerate {
			threshold += " (degenerate)"
		}
		fmt.Fprintf(tw, "%d\t%s\t%.4g\t%.4g\t%s\t%s\t%.4f\t%.4f\t%d\n",
			spec.Params().ScanNumber, spec.Kind(), b.Noise, b.Std, set.ThresholdMethod,
			threshold, cutoff.MinMz, cutoff.MaxMz, spec.Len())
	}
	return tw.Flush()
}
