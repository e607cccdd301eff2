package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate [file]",
	Short: "Validate settings and input file format",
	Long: `Validate the settings (defaults, --config file) and check that an input
peak list is properly formatted.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		set, err := loadSettings(cmd)
		if err != nil {
			return err
		}
		fmt.Printf("Settings: ok (threshold method %s)\n", set.ThresholdMethod)

		jobs, err := readJobs(args[0])
		if err != nil {
			return err
		}
		points := 0
		for _, j := range jobs {
			points += len(j.Raw.X)
		}
		fmt.Printf("%s: ok (%d scans, %d points)\n", args[0], len(jobs), points)
		return nil
	},
}
