package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// set by the build process with -ldflags
var (
	// Version the build version
	Version = "v0.1.0"
	// CommitSHA the build commit sha
	CommitSHA = "unknown"
)

func init() {
	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Printf("spindly %v/%v\n", Version, CommitSHA)
		},
	})
}
