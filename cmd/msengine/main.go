// Command msengine computes market-structure features over OHLC bar series.
//
// Usage:
//
//	msengine run     --input bars.csv --features core --output-dir out
//	msengine verify  --input bars.csv --features all
//	msengine ingest  --input bars.csv --symbol EURUSD --timeframe M15
//	msengine migrate
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"market-structure-lab/internal/config"
	"market-structure-lab/internal/logging"
	"market-structure-lab/internal/observability"
	"market-structure-lab/internal/orchestrator"
)

// app is the state shared by every subcommand, built in PersistentPreRunE.
type app struct {
	cfg       *config.Config
	logger    zerolog.Logger
	logCloser io.Closer
	registry  *prometheus.Registry
	metrics   *observability.Metrics
}

var (
	configPath string
	logLevel   string
	state      app
)

var rootCmd = &cobra.Command{
	Use:   "msengine",
	Short: "Causal market-structure feature engine",
	Long: `msengine derives market-structure features (pivots, BOS/MSS events,
follow-through, liquidity reactions, structural volatility and trend regime)
from OHLC bar series. Every feature at bar i depends only on bars 0..i.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if state.logCloser != nil {
			return state.logCloser.Close()
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to YAML config (defaults when empty)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Override log level (trace, debug, info, warn, error)")

	rootCmd.AddCommand(runCmd, verifyCmd, ingestCmd, migrateCmd)
}

func setup(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadWithEnv(configPath)
	if err != nil {
		return err
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	logger, closer, err := logging.New(cfg.Log)
	if err != nil {
		return err
	}

	state = app{
		cfg:       cfg,
		logger:    logger.With().Str("cmd", cmd.Name()).Logger(),
		logCloser: closer,
		registry:  prometheus.NewRegistry(),
	}
	state.metrics = observability.NewMetrics(cfg.Metrics.Namespace, state.registry)
	return nil
}

// newEngine builds the orchestrator from the loaded engine config.
func newEngine() (*orchestrator.Orchestrator, error) {
	engineCfg := state.cfg.Engine
	return orchestrator.New(orchestrator.Options{
		Config:  &engineCfg,
		Logger:  &state.logger,
		Metrics: state.metrics,
	})
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
