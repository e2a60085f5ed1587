package config

import (
	"os"

	"github.com/pkg/errors"
	"go.uber.org/fx"
)

var Module = fx.Module("config", fx.Provide(
	// Function attempts to load the configuration from mach.yaml (or
	// $MACH_CONFIG) if it exists. Returns nil if the file doesn't exist, since
	// every value in the file is optional.
	func() (*Config, error) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, errors.Wrap(err, "failed to get current working directory")
		}

		path := Path(cwd, os.Getenv)
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return nil, nil
		}

		return LoadConfigFile(path)
	},
))
