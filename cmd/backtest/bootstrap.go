package main

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"llm-hedge-fund/internal/advisors"
	"llm-hedge-fund/internal/advisors/advisorobs"
	"llm-hedge-fund/internal/backtest"
	"llm-hedge-fund/internal/backtest/backtestobs"
	"llm-hedge-fund/internal/interfaces"
	"llm-hedge-fund/internal/logger"
	"llm-hedge-fund/internal/marketdata"
	"llm-hedge-fund/internal/marketdata/marketdataobs"
	"llm-hedge-fund/internal/report"
	"llm-hedge-fund/internal/report/reportobs"
	"llm-hedge-fund/internal/store"
	"llm-hedge-fund/internal/tradelog"
	"llm-hedge-fund/internal/types"
)

// initializeSystem loads .env and initializes logger and tracer
func initializeSystem() error {
	_ = godotenv.Load()

	if err := logger.Init(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	return nil
}

// loadConfig loads the configuration and applies command-line date overrides
func loadConfig(ctx context.Context, path, start, end string) (*store.Config, error) {
	cfg, err := store.LoadConfig(path)
	if err != nil {
		logger.ErrorWithErr(ctx, "Failed to load config", err, "path", path)
		return nil, err
	}
	if start == "" && end == "" {
		return cfg, nil
	}
	if start != "" {
		cfg.Backtest.StartDate = start
	}
	if end != "" {
		cfg.Backtest.EndDate = end
	}
	if err := cfg.Validate(); err != nil {
		logger.ErrorWithErr(ctx, "Invalid date override", err, "start", start, "end", end)
		return nil, err
	}
	return cfg, nil
}

// initializeMarketData loads candles for the universe from the configured source
func initializeMarketData(ctx context.Context, cfg *store.Config) (interfaces.MarketData, error) {
	end, _ := cfg.End()
	// history before the first simulated day feeds indicators and the risk lookback
	from, err := cfg.LoadFrom()
	if err != nil {
		return nil, err
	}

	var series *marketdata.Series
	switch cfg.DataSource {
	case "CSV":
		logger.Info(ctx, "Loading CSV candles", "dir", cfg.DataDir)
		series, err = marketdata.LoadCSVDir(cfg.DataDir, cfg.UniverseStatic)
	case "KITE":
		apiKey, token := os.Getenv(cfg.Kite.APIKeyEnv), os.Getenv(cfg.Kite.AccessTokenEnv)
		if apiKey == "" || token == "" {
			return nil, &types.ConfigurationError{Field: "kite", Reason: fmt.Sprintf("%s and %s must be set", cfg.Kite.APIKeyEnv, cfg.Kite.AccessTokenEnv)}
		}
		logger.Info(ctx, "Loading candles from Zerodha Kite", "from", from.Format(store.DateLayout), "to", end.Format(store.DateLayout))
		series, err = marketdata.NewKiteLoader(apiKey, token, cfg.Kite.Instruments).Load(ctx, cfg.UniverseStatic, from, end)
	default:
		logger.Warn(ctx, "Using SYNTHETIC candle data", "seed", cfg.Synthetic.Seed)
		series = marketdata.Synthetic(marketdata.SyntheticParams{
			Seed:       cfg.Synthetic.Seed,
			BasePrice:  cfg.Synthetic.BasePrice,
			Drift:      cfg.Synthetic.Drift,
			Volatility: cfg.Synthetic.Volatility,
		}, cfg.UniverseStatic, from, end)
	}
	if err != nil {
		return nil, err
	}
	return marketdataobs.Wrap(marketdata.NewFeed(series)), nil
}

// initializeAdvisors builds the configured advisors with observability
func initializeAdvisors(ctx context.Context, cfg *store.Config) ([]interfaces.Advisor, error) {
	advs, err := advisors.FromConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	for i, a := range advs {
		advs[i] = advisorobs.Wrap(a)
	}
	return advs, nil
}

// initializeRunner wires the backtester, its journal and observability
func initializeRunner(cfg *store.Config, data interfaces.MarketData, advs []interfaces.Advisor) (interfaces.Runner, string, *tradelog.Journal, error) {
	runID := uuid.NewString()
	journal, err := tradelog.Open(cfg.Report.Dir, runID)
	if err != nil {
		return nil, "", nil, fmt.Errorf("open journal: %w", err)
	}
	bt, err := backtest.FromConfig(cfg, data, advs, backtest.WithRunID(runID), backtest.WithObserver(journal))
	if err != nil {
		_ = journal.Close()
		return nil, "", nil, err
	}
	return backtestobs.Wrap(bt), runID, journal, nil
}

// initializeReporter returns the report writer with observability
func initializeReporter(cfg *store.Config) interfaces.Reporter {
	return reportobs.Wrap(report.New(cfg.Report.Dir))
}

// compressOldJournals gzips journals past the configured retention
func compressOldJournals(ctx context.Context, cfg *store.Config) {
	if err := tradelog.CompressOlder(cfg.Report.Dir, cfg.Report.RetentionDays); err != nil {
		logger.Warn(ctx, "Failed to compress old journals", "error", err)
	}
}
