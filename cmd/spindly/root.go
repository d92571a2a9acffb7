package main

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "spindly",
	Short: "spindly evaluates JavaScript expressions and prints the result as JSON.",
	Run: func(cmd *cobra.Command, args []string) {
		_ = cmd.Help()
	},
}
