// ftmspeaks - FT-MS noise thresholding and peak processing tool
package main

import (
	"fmt"
	"os"

	"github.com/ChrisMcGann/ftmspeaks/cmd/ftmspeaks/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
