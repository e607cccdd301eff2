package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ChrisMcGann/ftmspeaks/pkg/batch"
	"github.com/ChrisMcGann/ftmspeaks/pkg/core"
)

var summarizeCmd = &cobra.Command{
	Use:   "summarize",
	Short: "Summarize the picked peaks of every scan",
	Long:  `Process every scan and print peak counts, m/z ranges, TIC and nominal-mass coverage.`,
	RunE:  runSummarize,
}

func runSummarize(cmd *cobra.Command, args []string) error {
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

	for _, r := range results {
		scan := jobs[r.Index].Params.ScanNumber
		if r.Err != nil {
			fmt.Printf("Scan %d: %v\n", scan, r.Err)
			continue
		}
		printSummary(scan, r.Spectrum)
	}

	s := batch.Summarize(results)
	fmt.Printf("\nTotal: %d scans, %d failed, %d peaks\n", s.Processed+s.Failed, s.Failed, s.Peaks)
	return nil
}

func printSummary(scan int, spec core.Spectrum) {
	fmt.Printf("Scan %d (%s, %s)\n", scan, spec.Kind(), spec.State())
	fmt.Printf("  Peaks: %d of %d\n", spec.Len(), len(spec.AllPeaks()))
	fmt.Printf("  TIC: %.6g\n", spec.TIC())
	if spec.Len() == 0 {
		return
	}

	minMz, _ := spec.MinMz()
	maxMz, _ := spec.MaxMz()
	fmt.Printf("  m/z range: %.4f - %.4f\n", minMz, maxMz)

	if p, err := spec.MostAbundantPeak(); err == nil {
		fmt.Printf("  Base peak: %.4f (abundance %.4g, S/N %.4g)\n", p.Mz(), p.Abundance, p.SignalToNoise)
	}

	nominal, err := spec.NominalMasses()
	if err != nil {
		return
	}
	counts := spec.MassCountByNominalMass()
	busiest, most := 0, 0
	for _, nm := range nominal {
		if counts[nm] > most {
			busiest, most = nm, counts[nm]
		}
	}
	fmt.Printf("  Nominal masses: %d (busiest %d with %d peaks)\n", len(nominal), busiest, most)
}
