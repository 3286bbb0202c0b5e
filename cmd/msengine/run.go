package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"market-structure-lab/internal/orchestrator"
	"market-structure-lab/internal/pipeline"
	"market-structure-lab/internal/sink"
	"market-structure-lab/internal/storage"
	chstore "market-structure-lab/internal/storage/clickhouse"
	"market-structure-lab/internal/storage/memory"
	"market-structure-lab/internal/storage/postgres"
)

var runFlags struct {
	inputs     []string
	symbols    []string
	timeframe  string
	features   string
	pivotRange int
	outputDir  string
	workers    int
	startMs    int64
	endMs      int64
	fixtures   int
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Compute features for one or more series",
	Long: `Compute features and write them to every configured sink.

Bars come from CSV files (--input, one job per file) or from the Postgres bar
store (--symbol, one job per symbol; every stored symbol when omitted).
Outputs: <output-dir>/<symbol>_<timeframe>.csv always; engine_runs in
Postgres and feature_values in ClickHouse when their DSNs are set; one Kafka
message per bar when brokers are set.`,
	Example: `  msengine run --input data/EURUSD.csv --timeframe M15
  msengine run --symbol EURUSD,XAUUSD --timeframe H1 --features all --workers 8
  msengine run --fixtures 500 --timeframe H1`,
	RunE: runRun,
}

func init() {
	f := runCmd.Flags()
	f.StringSliceVar(&runFlags.inputs, "input", nil, "CSV bar files")
	f.StringSliceVar(&runFlags.symbols, "symbol", nil, "Symbols (symbol override for a single --input)")
	f.StringVar(&runFlags.timeframe, "timeframe", "H1", "Bar timeframe label")
	f.StringVar(&runFlags.features, "features", "", "Comma separated features, 'core' or 'all' (config default when empty)")
	f.IntVar(&runFlags.pivotRange, "pivot-range", 0, "Override pivot range")
	f.StringVar(&runFlags.outputDir, "output-dir", "", "Output directory (config default when empty)")
	f.IntVar(&runFlags.workers, "workers", 0, "Parallel jobs (config default when 0)")
	f.Int64Var(&runFlags.startMs, "start", 0, "Store load start (Unix ms)")
	f.Int64Var(&runFlags.endMs, "end", 0, "Store load end (Unix ms), 0 loads everything")
	f.IntVar(&runFlags.fixtures, "fixtures", 0, "Use N generated bars per fixture symbol instead of Postgres")
}

func runRun(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg := state.cfg
	log := state.logger

	featureList := cfg.Features
	if runFlags.features != "" {
		featureList = runFlags.features
	}
	features, err := orchestrator.ParseFeatures(featureList)
	if err != nil {
		return err
	}
	outputDir := cfg.Pipeline.OutputDir
	if runFlags.outputDir != "" {
		outputDir = runFlags.outputDir
	}
	workers := cfg.Pipeline.Workers
	if runFlags.workers > 0 {
		workers = runFlags.workers
	}

	stopMetrics := startMetricsServer()
	defer stopMetrics()

	engine, err := newEngine()
	if err != nil {
		return err
	}

	var cleanup []func()
	defer func() {
		for i := len(cleanup) - 1; i >= 0; i-- {
			cleanup[i]()
		}
	}()

	// Bar source
	var bars storage.BarStore
	var pool *postgres.Pool
	if cfg.Postgres.DSN != "" {
		pool, err = postgres.NewPool(ctx, cfg.Postgres.DSN, postgres.WithMetrics(state.metrics))
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		cleanup = append(cleanup, pool.Close)
		bars = postgres.NewBarStore(pool)
	}
	if runFlags.fixtures > 0 {
		mem := memory.NewBarStore()
		if err := pipeline.LoadFixtures(ctx, mem, runFlags.timeframe, runFlags.fixtures); err != nil {
			return err
		}
		bars = mem
	}

	// Sinks
	csvSink, err := sink.NewCSVSink(outputDir, cfg.Pipeline.Summary)
	if err != nil {
		return err
	}
	sinks := []sink.Sink{csvSink}
	if pool != nil {
		var featureStore storage.FeatureStore
		if cfg.ClickHouse.DSN != "" {
			conn, err := chstore.NewConn(ctx, cfg.ClickHouse.DSN)
			if err != nil {
				return fmt.Errorf("connect clickhouse: %w", err)
			}
			conn.WithMetrics(state.metrics)
			cleanup = append(cleanup, func() { _ = conn.Close() })
			featureStore = chstore.NewFeatureStore(conn, cfg.ClickHouse.BatchSize)
		}
		sinks = append(sinks, sink.NewStoreSink(postgres.NewRunStore(pool), featureStore))
	} else if cfg.ClickHouse.DSN != "" {
		log.Warn().Msg("clickhouse feature store needs the postgres run store, skipping")
	}
	if len(cfg.Kafka.Brokers) > 0 {
		ks, err := sink.NewKafkaSink(sink.KafkaOptions{
			Brokers:      cfg.Kafka.Brokers,
			Topic:        cfg.Kafka.Topic,
			BatchSize:    cfg.Kafka.BatchSize,
			WriteTimeout: cfg.Kafka.WriteTimeout,
			RequiredAcks: cfg.Kafka.RequiredAcks,
		})
		if err != nil {
			return err
		}
		sinks = append(sinks, ks)
	}
	defer func() {
		if err := sink.CloseAll(sinks); err != nil {
			log.Error().Err(err).Msg("close sinks")
		}
	}()

	jobs, err := buildJobs(ctx, bars, features)
	if err != nil {
		return err
	}
	if len(jobs) == 0 {
		return fmt.Errorf("nothing to run: pass --input, --symbol or --fixtures")
	}

	runner, err := pipeline.New(pipeline.Options{
		Engine:  engine,
		Bars:    bars,
		Sinks:   sinks,
		Workers: workers,
		Logger:  &log,
		Metrics: state.metrics,
	})
	if err != nil {
		return err
	}

	log.Info().Int("jobs", len(jobs)).Int("workers", workers).Strs("features", orchestrator.Strings(features)).Msg("run started")
	results, runErr := runner.Run(ctx, jobs)
	printResults(results)
	return runErr
}

func buildJobs(ctx context.Context, bars storage.BarStore, features []orchestrator.Feature) ([]pipeline.Job, error) {
	base := pipeline.Job{Timeframe: runFlags.timeframe, Features: features, PivotRange: runFlags.pivotRange}

	if len(runFlags.inputs) > 0 {
		if len(runFlags.symbols) > 0 && len(runFlags.inputs) > 1 {
			return nil, fmt.Errorf("--symbol applies to a single --input only")
		}
		var jobs []pipeline.Job
		for _, in := range runFlags.inputs {
			j := base
			j.Input = in
			if len(runFlags.symbols) == 1 {
				j.Symbol = runFlags.symbols[0]
			}
			jobs = append(jobs, j)
		}
		return jobs, nil
	}

	if bars == nil {
		return nil, nil
	}
	symbols := runFlags.symbols
	if len(symbols) == 0 {
		var err error
		if symbols, err = bars.ListSymbols(ctx, runFlags.timeframe); err != nil {
			return nil, fmt.Errorf("list symbols: %w", err)
		}
	}
	jobs := make([]pipeline.Job, 0, len(symbols))
	for _, s := range symbols {
		j := base
		j.Symbol = s
		j.StartMs, j.EndMs = runFlags.startMs, runFlags.endMs
		jobs = append(jobs, j)
	}
	return jobs, nil
}

func printResults(results []pipeline.JobResult) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SYMBOL\tTIMEFRAME\tBARS\tRUN_ID\tSTATUS")
	for _, r := range results {
		status, bars, runID := "ok", "-", "-"
		if r.Err != nil {
			status = r.Err.Error()
		}
		if r.Run != nil {
			bars = fmt.Sprint(r.Run.BarCount)
			runID = r.Run.RunID[:16]
		}
		symbol := r.Job.Symbol
		if symbol == "" {
			symbol = r.Job.Input
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", symbol, r.Job.Timeframe, bars, runID, status)
	}
	_ = w.Flush()
}
