// Command musicanalysis serves the audio analysis API and analyzes local
// files from the command line.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
