package cmd

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"oddsctl/internal/config"
	"oddsctl/internal/env"
)

var (
	statusConfigPath  string
	statusEnvironment string
)

func newStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the resolved configuration and credential availability",
		Args:  cobra.NoArgs,
		RunE:  runStatus,
	}

	cmd.Flags().StringVar(&statusConfigPath, "config", "", "path to a runner config file (default: layered user/project config)")
	cmd.Flags().StringVar(&statusEnvironment, "environment", "", "deployment environment (dev, test, staging, prod)")

	return cmd
}

func runStatus(cmd *cobra.Command, args []string) error {
	_ = godotenv.Load()

	var cfg config.RunnerConfig
	var err error
	if statusConfigPath != "" {
		cfg, err = config.LoadFile(statusConfigPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return err
	}

	if statusEnvironment != "" {
		e, err := env.Parse(statusEnvironment)
		if err != nil {
			return fmt.Errorf("invalid --environment: %w", err)
		}
		cfg.Environment = e
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "environment:          %s (prefix %s)\n", cfg.Environment, cfg.Environment.CredentialPrefix())
	fmt.Fprintf(out, "market credentials:   %t\n", cfg.Environment.HasMarketCredentials())
	fmt.Fprintf(out, "health interval:      %ds\n", cfg.HealthCheckInterval)
	fmt.Fprintf(out, "metrics interval:     %ds\n", cfg.MetricsInterval)
	fmt.Fprintf(out, "configured services:  %d\n", len(cfg.Services))
	for name, sc := range cfg.Services {
		fmt.Fprintf(out, "  - %s (enabled=%t, pollInterval=%ds, maxRetries=%d)\n",
			name, sc.Enabled, sc.PollInterval, sc.MaxRetries)
	}
	return nil
}
