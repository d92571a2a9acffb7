package main

import (
	"github.com/spf13/cobra"
	"github.com/spindly-dev/spindly"
	"github.com/spindly-dev/spindly/api"
)

var (
	configPath string
	serveDebug bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "start the evaluate api server",
	RunE: func(_ *cobra.Command, _ []string) error {
		cfg, err := ReadConfig(configPath)
		if err != nil {
			return err
		}

		spindly.SetScheduler(spindly.NewScheduler(cfg.JS))

		opt := cfg.API
		opt.Logger = newLogger(serveDebug)
		if opt.Address == "" {
			opt.Address = api.DefaultAddress
		}
		return api.Server(opt).Start(opt.Address)
	},
}

func init() {
	serveCmd.Flags().StringVar(&configPath, "config", "~/.config/spindly/config.yml", "config file path")
	serveCmd.Flags().BoolVarP(&serveDebug, "debug", "d", false, "output the debug log")
	rootCmd.AddCommand(serveCmd)
}
