package main

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spindly-dev/spindly"
	"github.com/spindly-dev/spindly/api"
	"gopkg.in/yaml.v3"
)

// Config the spindly configuration
type Config struct {
	// Api
	API api.Options `yaml:"api"`

	// JS
	JS spindly.Options `yaml:"js"`
}

// DefaultConfig the default configuration
func DefaultConfig() Config {
	return Config{
		API: api.Options{
			Timeout: api.DefaultTimeout,
			Address: api.DefaultAddress,
		},
		JS: spindly.Options{
			InitialVMs:         2,
			MaxVMs:             uint(runtime.GOMAXPROCS(0)),
			MaxRetriesGetVM:    spindly.DefaultMaxRetriesGetVM,
			MaxTimeToWaitGetVM: spindly.DefaultMaxTimeToWaitGetVM,
		},
	}
}

// ReadConfig reads the configuration from the file.
// If the configuration file is not existing then create it with the
// default configuration.
func ReadConfig(path string) (config Config, err error) {
	file, err := expandPath(path)
	if err != nil {
		return
	}

	config = DefaultConfig()
	if _, err = os.Stat(file); errors.Is(err, os.ErrNotExist) {
		if err = os.MkdirAll(filepath.Dir(file), 0o755); err != nil {
			return
		}
		var bytes []byte
		if bytes, err = yaml.Marshal(config); err != nil {
			return
		}
		err = os.WriteFile(file, bytes, 0o600)
		return
	}

	bytes, err := os.ReadFile(file)
	if err != nil {
		return
	}
	err = yaml.Unmarshal(bytes, &config)
	return
}

// expandPath expands path "." or "~"
func expandPath(path string) (string, error) {
	if strings.HasPrefix(path, ".") {
		cwd, err := os.Getwd()
		if err != nil {
			return "", err
		}
		return filepath.Join(cwd, path[1:]), nil
	}
	if strings.HasPrefix(path, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, path[1:]), nil
	}
	return path, nil
}
