// Command fabbench runs one benchmark evaluation against a finance agent:
// it generates temporally locked tasks, collects submissions, scores and
// debates them, and persists the run results.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"fabbench/adapters/agenthttp"
	"fabbench/adapters/excel"
	"fabbench/adapters/postgres"
	"fabbench/adapters/providers/memory"
	"fabbench/adapters/reports"
	"fabbench/app"
	"fabbench/domain/core"
	"fabbench/internal"
	"fabbench/internal/alpha"
	"fabbench/internal/config"
	"fabbench/internal/debate"
	"fabbench/internal/rng"
	"fabbench/internal/scoring"
	"fabbench/internal/templates"
	"fabbench/internal/temporal"
	"fabbench/internal/testkit"
	"fabbench/ports"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fabbench: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// .env is optional; real deployments configure through the environment.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := internal.DefaultLogger

	registry, err := templates.Builtin()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	providers, closeProviders, err := buildProviders(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeProviders()
	lock := temporal.NewLockManager(providers)
	rngPort := rng.NewSource()

	var sink ports.ReportSink
	if cfg.Database.URL != "" {
		pgSink, err := postgres.NewReportSink(cfg.Database.URL)
		if err != nil {
			return err
		}
		defer pgSink.Close()
		sink = pgSink
	} else {
		logger.Warn("[Main] DATABASE_URL not set, results stay in memory")
		sink = reports.NewMemorySink()
	}

	generator := app.NewGenerateService(registry, lock, rngPort)
	transport := agenthttp.NewClient(cfg.Agent.Endpoint, cfg.Agent.RequestRetries)
	engine := scoring.NewEngine(cfg.RoleWeights())
	debates := debate.NewEngine(transport, cfg.Agent.DebateTimeout)
	aggregator := alpha.NewAggregator(alpha.Config{
		ReferenceCostUSD: cfg.Scoring.ReferenceCostUSD,
		ReferenceTokens:  cfg.Scoring.ReferenceTokens,
	})
	runner := app.NewRunService(generator, transport, engine, debates, aggregator, sink, rngPort)

	summary, err := runner.Run(ctx, app.RunRequest{
		AgentID:        core.AgentID(cfg.Agent.Endpoint),
		Ticker:         cfg.Run.Ticker,
		AsOf:           core.NewSimClock(cfg.Run.AsOf),
		Seed:           cfg.Run.Seed,
		NumTasks:       cfg.Run.NumTasks,
		TaskTimeout:    cfg.Agent.TaskTimeout,
		DebateEnabled:  cfg.Run.DebateEnabled,
		MaxConcurrency: cfg.Run.MaxConcurrency,
	})
	if err != nil {
		return err
	}

	if cfg.Paths.ExcelFile != "" {
		taskReports, err := sink.ListReports(ctx, summary.RunID)
		if err != nil {
			return err
		}
		if err := excel.NewWriter(cfg.Paths.ExcelFile).Write(*summary, taskReports); err != nil {
			return err
		}
		logger.Info("[Main] workbook written to %s", cfg.Paths.ExcelFile)
	}

	fmt.Printf("run %s: %d/%d tasks scored, mean alpha %.2f\n",
		summary.RunID, summary.TasksScored, summary.TasksTotal, summary.MeanAlpha)
	return nil
}

// buildProviders selects the market record source. The in-memory synthetic
// universe is the default; RECORD_SOURCE=postgres serves records from the
// market_records table instead, optionally seeded from the same universe.
func buildProviders(ctx context.Context, cfg *config.Config, logger *internal.Logger) (ports.ProviderSet, func(), error) {
	if cfg.Database.RecordSource != "postgres" {
		return memory.DefaultSet(cfg.Run.Ticker, cfg.Run.AsOf, cfg.Run.Seed), func() {}, nil
	}

	store, err := postgres.OpenRecordStore(cfg.Database.URL)
	if err != nil {
		return nil, nil, err
	}
	if cfg.Database.SeedRecords {
		if err := store.Store(ctx, testkit.Universe(cfg.Run.Ticker, cfg.Run.AsOf, cfg.Run.Seed)); err != nil {
			store.Close()
			return nil, nil, err
		}
		logger.Info("[Main] seeded synthetic universe into record store")
	}
	return memory.NewSet(store.Providers()...), func() { store.Close() }, nil
}
