package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"oddsctl/internal/env"
)

// For mocking in tests
var osUserHomeDir = os.UserHomeDir
var osGetwd = os.Getwd

const (
	userConfigDir    = ".config/oddsctl"
	projectConfigDir = ".oddsctl"
	configFileName   = "config.yaml"
)

// fileConfig mirrors the YAML layout. Optional fields use pointers so
// an absent key can be distinguished from an explicit zero.
type fileConfig struct {
	Environment         string              `yaml:"environment"`
	HealthCheckInterval *int                `yaml:"healthCheckInterval"`
	MetricsInterval     *int                `yaml:"metricsInterval"`
	Services            []fileServiceConfig `yaml:"services"`
}

type fileServiceConfig struct {
	Name         string `yaml:"name"`
	Enabled      *bool  `yaml:"enabled"`
	PollInterval *int   `yaml:"pollInterval"`
	MaxRetries   *int   `yaml:"maxRetries"`
}

// Load builds the runner configuration by layering defaults, the user
// config (~/.config/oddsctl/config.yaml), and the project config
// (./.oddsctl/config.yaml). Both files are optional.
func Load() (RunnerConfig, error) {
	config := Defaults()

	userConfigPath, err := getUserConfigPath()
	if err != nil {
		// User config is optional; a missing home dir is not fatal.
		fmt.Fprintf(os.Stderr, "Warning: Could not determine user config path: %v\n", err)
	} else {
		if _, err := os.Stat(userConfigPath); !os.IsNotExist(err) {
			config, err = applyFile(config, userConfigPath)
			if err != nil {
				return RunnerConfig{}, fmt.Errorf("error loading user config from %s: %w", userConfigPath, err)
			}
		}
	}

	projectConfigPath, err := getProjectConfigPath()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Could not determine project config path: %v\n", err)
	} else {
		if _, err := os.Stat(projectConfigPath); !os.IsNotExist(err) {
			config, err = applyFile(config, projectConfigPath)
			if err != nil {
				return RunnerConfig{}, fmt.Errorf("error loading project config from %s: %w", projectConfigPath, err)
			}
		}
	}

	return config, nil
}

// LoadFile reads a single YAML config file on top of the defaults.
func LoadFile(path string) (RunnerConfig, error) {
	return applyFile(Defaults(), path)
}

var getUserConfigPath = func() (string, error) {
	homeDir, err := osUserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, userConfigDir, configFileName), nil
}

var getProjectConfigPath = func() (string, error) {
	wd, err := osGetwd()
	if err != nil {
		return "", err
	}
	return filepath.Join(wd, projectConfigDir, configFileName), nil
}

// applyFile overlays the YAML file at path onto base.
func applyFile(base RunnerConfig, path string) (RunnerConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return RunnerConfig{}, err
	}
	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return RunnerConfig{}, err
	}
	return mergeConfig(base, fc)
}

// mergeConfig merges the parsed file onto base. An invalid environment
// string is caller misuse and propagates.
func mergeConfig(base RunnerConfig, fc fileConfig) (RunnerConfig, error) {
	if fc.Environment != "" {
		e, err := env.Parse(fc.Environment)
		if err != nil {
			return RunnerConfig{}, err
		}
		base.Environment = e
	}
	if fc.HealthCheckInterval != nil {
		base.HealthCheckInterval = *fc.HealthCheckInterval
	}
	if fc.MetricsInterval != nil {
		base.MetricsInterval = *fc.MetricsInterval
	}
	for _, fsc := range fc.Services {
		if fsc.Name == "" {
			return RunnerConfig{}, fmt.Errorf("service entry missing name")
		}
		sc := NewServiceConfig(fsc.Name)
		if existing, ok := base.Services[fsc.Name]; ok {
			sc = existing
		}
		if fsc.Enabled != nil {
			sc.Enabled = *fsc.Enabled
		}
		if fsc.PollInterval != nil {
			sc.PollInterval = *fsc.PollInterval
		}
		if fsc.MaxRetries != nil {
			sc.MaxRetries = *fsc.MaxRetries
		}
		base.AddService(sc)
	}
	return base, nil
}
