package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"oddsctl/internal/config"
	"oddsctl/internal/env"
	"oddsctl/internal/services/marketdata"
	"oddsctl/internal/services/marketstream"
	"oddsctl/internal/services/sportsfeed"
	"oddsctl/internal/supervisor"
	"oddsctl/pkg/logging"
)

const (
	defaultSportsEndpoint = "https://api.the-odds-api.com/v4/sports/upcoming/scores"
	defaultMarketEndpoint = "https://clob.polymarket.com"
	defaultStreamURL      = "wss://ws-subscriptions-clob.polymarket.com/ws/market"
)

var (
	runConfigPath  string
	runEnvironment string
	runDebug       bool

	runSportsEndpoint string
	runMarketEndpoint string
	runStreamURL      string
	runMarkets        []string
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start the supervised trading services",
		Long: `Starts the configured workers under the service supervisor and keeps
them running until interrupted.

The sports feed always runs. Market workers (REST poller and WebSocket
stream) are only registered when market credentials are available for
the active environment ({PREFIX}_API_KEY and {PREFIX}_PRIVATE_KEY_PATH
with an existing key file).`,
		Args: cobra.NoArgs,
		RunE: runRun,
	}

	cmd.Flags().StringVar(&runConfigPath, "config", "", "path to a runner config file (default: layered user/project config)")
	cmd.Flags().StringVar(&runEnvironment, "environment", "", "deployment environment (dev, test, staging, prod)")
	cmd.Flags().BoolVar(&runDebug, "debug", false, "enable debug logging")
	cmd.Flags().StringVar(&runSportsEndpoint, "sports-endpoint", defaultSportsEndpoint, "sports scores REST endpoint")
	cmd.Flags().StringVar(&runMarketEndpoint, "market-endpoint", defaultMarketEndpoint, "market API base URL")
	cmd.Flags().StringVar(&runStreamURL, "stream-url", defaultStreamURL, "market WebSocket URL")
	cmd.Flags().StringSliceVar(&runMarkets, "market", nil, "market/condition id to track (repeatable)")

	return cmd
}

func runRun(cmd *cobra.Command, args []string) error {
	// Credentials commonly live in a local .env file; a missing file is
	// not an error.
	_ = godotenv.Load()

	level := logging.LevelInfo
	if runDebug {
		level = logging.LevelDebug
	}
	logging.Init(level, os.Stderr)

	cfg, err := loadRunnerConfig()
	if err != nil {
		return err
	}

	sup := supervisor.New(cfg)
	sup.RegisterAlertCallback(func(name, message string, alertCtx map[string]any) error {
		logging.Error("Alert", nil, "service %s: %s (context: %v)", name, message, alertCtx)
		return nil
	})

	registerWorkers(sup, cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sup.StartAll(ctx)
	logging.Info("Runner", "supervisor started in %s environment with %d services",
		cfg.Environment, sup.ServicesTotal())

	<-ctx.Done()
	logging.Info("Runner", "shutdown requested after %.0fs uptime", sup.UptimeSeconds())

	sup.StopAll(context.Background())
	return nil
}

func loadRunnerConfig() (config.RunnerConfig, error) {
	var cfg config.RunnerConfig
	var err error

	if runConfigPath != "" {
		cfg, err = config.LoadFile(runConfigPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return config.RunnerConfig{}, err
	}

	if runEnvironment != "" {
		e, err := env.Parse(runEnvironment)
		if err != nil {
			return config.RunnerConfig{}, fmt.Errorf("invalid --environment: %w", err)
		}
		cfg.Environment = e
	}

	return cfg, nil
}

// serviceConfig returns the configured entry for name, or defaults.
func serviceConfig(cfg config.RunnerConfig, name string) config.ServiceConfig {
	if sc, ok := cfg.Services[name]; ok {
		return sc
	}
	return config.NewServiceConfig(name)
}

// registerWorkers wires the concrete workers into the supervisor. The
// market workers need credentials; without them only the sports feed
// runs.
func registerWorkers(sup *supervisor.Supervisor, cfg config.RunnerConfig) {
	sportsCfg := serviceConfig(cfg, "sports-feed")
	sup.AddService("sports-feed", sportsfeed.New(sportsfeed.Config{
		Endpoint:     runSportsEndpoint,
		PollInterval: time.Duration(sportsCfg.PollInterval) * time.Second,
	}), sportsCfg)

	if !cfg.Environment.HasMarketCredentials() {
		logging.Warn("Runner", "no market credentials for %s (set %s and %s); market workers disabled",
			cfg.Environment, cfg.Environment.APIKeyVar(), cfg.Environment.PrivateKeyPathVar())
		return
	}

	mdCfg := serviceConfig(cfg, "market-data")
	sup.AddService("market-data", marketdata.New(marketdata.Config{
		Endpoint:     runMarketEndpoint,
		Markets:      runMarkets,
		APIKey:       cfg.Environment.APIKey(),
		PollInterval: time.Duration(mdCfg.PollInterval) * time.Second,
	}), mdCfg)

	msCfg := serviceConfig(cfg, "market-stream")
	sup.AddService("market-stream", marketstream.New(marketstream.Config{
		URL:      runStreamURL,
		Channels: runMarkets,
	}), msCfg)
}
