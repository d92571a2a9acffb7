package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"github.com/spindly-dev/spindly"
	"gopkg.in/yaml.v3"
)

var (
	scriptPath string
	paramsPath string
	outputPath string
	timeoutArg time.Duration
	debugMode  bool
)

var runCmd = &cobra.Command{
	Use:   "run [expression]",
	Short: "evaluate a JavaScript expression",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		source, err := readSource(args)
		if err != nil {
			return err
		}
		params, err := readParams(paramsPath)
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), timeoutArg)
		defer cancel()
		ctx = spindly.WithLogger(ctx, newLogger(debugMode))

		value, err := spindly.Run(ctx, spindly.Expr{Source: source, Params: params})
		if err != nil {
			return err
		}
		return outputJSON(value)
	},
}

func readSource(args []string) (string, error) {
	if len(args) == 1 && args[0] != "" {
		return args[0], nil
	}
	if scriptPath == "" {
		return "", errors.New("no expression given")
	}
	if scriptPath == "-" {
		bytes, err := io.ReadAll(os.Stdin)
		return string(bytes), err
	}
	bytes, err := os.ReadFile(scriptPath)
	return string(bytes), err
}

func readParams(path string) (map[string]any, error) {
	if path == "" {
		return nil, nil
	}
	bytes, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var params map[string]any
	if err = yaml.Unmarshal(bytes, &params); err != nil {
		return nil, err
	}
	return params, nil
}

func outputJSON(data any) error {
	bytes, err := json.MarshalIndent(data, "", "\t")
	if err != nil {
		return err
	}

	if outputPath == "" {
		fmt.Println(string(bytes)) //nolint:forbidigo
		return nil
	}

	if filepath.Ext(outputPath) == "" {
		outputPath += ".json"
	}
	return os.WriteFile(outputPath, bytes, 0o600)
}

func init() {
	runCmd.Flags().StringVarP(&scriptPath, "script", "s", "", "expression file path, - for stdin")
	runCmd.Flags().StringVarP(&paramsPath, "params", "p", "", "params yml/yaml file path")
	runCmd.Flags().DurationVarP(&timeoutArg, "timeout", "t", spindly.DefaultTimeout, "evaluate timeout")
	runCmd.Flags().StringVarP(&outputPath, "output", "o", "", "write to file instead of stdout")
	runCmd.Flags().BoolVarP(&debugMode, "debug", "d", false, "output the debug log")
	rootCmd.AddCommand(runCmd)
}
