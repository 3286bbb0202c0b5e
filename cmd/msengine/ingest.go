package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"market-structure-lab/internal/config"
	"market-structure-lab/internal/normalization"
	"market-structure-lab/internal/storage/postgres"
)

var ingestFlags struct {
	inputs    []string
	symbol    string
	timeframe string
}

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Load CSV bars into the Postgres bar store",
	Long: `Normalize CSV bar files and insert them into the bars table.
A file whose bars already exist fails as a whole.`,
	Example: `  MSE_POSTGRES_DSN=postgres://... msengine ingest --input EURUSD.csv,XAUUSD.csv --timeframe M15`,
	RunE:    runIngest,
}

func init() {
	f := ingestCmd.Flags()
	f.StringSliceVar(&ingestFlags.inputs, "input", nil, "CSV bar files")
	f.StringVar(&ingestFlags.symbol, "symbol", "", "Symbol for a single file (file name when empty)")
	f.StringVar(&ingestFlags.timeframe, "timeframe", "H1", "Bar timeframe label")
	_ = ingestCmd.MarkFlagRequired("input")
}

func runIngest(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if state.cfg.Postgres.DSN == "" {
		return fmt.Errorf("postgres dsn is required (config postgres.dsn or %s)", config.EnvPostgresDSN)
	}
	if ingestFlags.symbol != "" && len(ingestFlags.inputs) > 1 {
		return fmt.Errorf("--symbol applies to a single --input only")
	}

	pool, err := postgres.NewPool(ctx, state.cfg.Postgres.DSN, postgres.WithMetrics(state.metrics))
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer pool.Close()

	runner := normalization.NewRunner(postgres.NewBarStore(pool))
	for _, in := range ingestFlags.inputs {
		n, err := runner.IngestFile(ctx, in, ingestFlags.symbol, ingestFlags.timeframe)
		if err != nil {
			return err
		}
		state.logger.Info().Str("file", in).Int("bars", n).Msg("bars ingested")
	}
	return nil
}
