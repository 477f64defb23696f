package config

import (
	"oddsctl/internal/env"
)

// ServiceConfig holds the static, per-service supervisor settings.
//
// Interval and retry fields are deliberately not validated at
// construction; the supervisor clamps intervals at the point of use.
type ServiceConfig struct {
	// Name uniquely identifies the service within one supervisor.
	Name string `yaml:"name"`

	// Enabled controls whether the supervisor starts and health-checks
	// the service. Disabled services always report empty stats.
	Enabled bool `yaml:"enabled"`

	// PollInterval is the worker's own polling cadence in seconds.
	// Informational for the supervisor; the worker reads it.
	PollInterval int `yaml:"pollInterval"`

	// MaxRetries is the number of consecutive health-check failures
	// before the supervisor attempts an automatic restart.
	MaxRetries int `yaml:"maxRetries"`
}

// NewServiceConfig returns a ServiceConfig with defaults applied:
// enabled, 30s poll interval, 3 retries before restart.
func NewServiceConfig(name string) ServiceConfig {
	return ServiceConfig{
		Name:         name,
		Enabled:      true,
		PollInterval: 30,
		MaxRetries:   3,
	}
}

// RunnerConfig holds the supervisor-wide settings.
type RunnerConfig struct {
	// Environment selects the credential naming convention.
	Environment env.Environment `yaml:"environment"`

	// HealthCheckInterval is the health loop cadence in seconds.
	// Zero or negative values are accepted here; the supervisor
	// clamps them to a safe floor when the loop runs.
	HealthCheckInterval int `yaml:"healthCheckInterval"`

	// MetricsInterval is the metrics loop cadence in seconds, with
	// the same laxity as HealthCheckInterval.
	MetricsInterval int `yaml:"metricsInterval"`

	// Services maps service names to their configs. Normally built
	// incrementally via AddService rather than supplied whole.
	Services map[string]ServiceConfig `yaml:"services"`
}

// AddService records a per-service config, replacing any previous
// entry with the same name.
func (c *RunnerConfig) AddService(sc ServiceConfig) {
	if c.Services == nil {
		c.Services = make(map[string]ServiceConfig)
	}
	c.Services[sc.Name] = sc
}

// Defaults returns the baseline runner configuration.
func Defaults() RunnerConfig {
	return RunnerConfig{
		Environment:         env.Development,
		HealthCheckInterval: 30,
		MetricsInterval:     60,
		Services:            make(map[string]ServiceConfig),
	}
}
