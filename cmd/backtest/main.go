package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"llm-hedge-fund/internal/interfaces"
	"llm-hedge-fund/internal/logger"
	"llm-hedge-fund/internal/types"
)

const (
	exitOK = iota
	exitFailure
	exitConfig
	exitInvariant
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "config.yaml", "path to YAML config")
	start := flag.String("start", "", "override backtest.start_date (YYYY-MM-DD)")
	end := flag.String("end", "", "override backtest.end_date (YYYY-MM-DD)")
	flag.Parse()

	if err := initializeSystem(); err != nil {
		fmt.Fprintf(os.Stderr, "init: %v\n", err)
		return exitFailure
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	defer func() { _ = logger.Shutdown(context.Background()) }()

	cfg, err := loadConfig(ctx, *configPath, *start, *end)
	if err != nil {
		return exitCode(err)
	}

	feed, err := initializeMarketData(ctx, cfg)
	if err != nil {
		logger.ErrorWithErr(ctx, "Failed to load market data", err)
		return exitCode(err)
	}

	advs, err := initializeAdvisors(ctx, cfg)
	if err != nil {
		logger.ErrorWithErr(ctx, "Failed to build advisors", err)
		return exitCode(err)
	}

	runner, runID, journal, err := initializeRunner(cfg, feed, advs)
	if err != nil {
		logger.ErrorWithErr(ctx, "Failed to build backtester", err)
		return exitCode(err)
	}

	res, err := runner.Run(ctx)
	if cerr := journal.Close(); cerr != nil {
		logger.Warn(ctx, "Failed to close journal", "error", cerr)
	}
	if err != nil {
		logger.ErrorWithErr(ctx, "Backtest aborted", err, "run_id", runID)
		return exitCode(err)
	}

	paths, err := initializeReporter(cfg).Report(ctx, res, journal.Path())
	if err != nil {
		logger.ErrorWithErr(ctx, "Failed to write reports", err, "run_id", runID)
	}
	compressOldJournals(ctx, cfg)

	printSummary(res, paths)
	return exitOK
}

func printSummary(res *types.Result, paths interfaces.ReportPaths) {
	out := struct {
		RunID   string                 `json:"run_id"`
		Summary types.Summary          `json:"summary"`
		Reports interfaces.ReportPaths `json:"reports"`
	}{res.RunID, res.Summary, paths}
	// the daily series lives in the equity curve report
	out.Summary.DailyReturns = nil
	b, _ := json.MarshalIndent(out, "", "  ")
	fmt.Println(string(b))
}

func exitCode(err error) int {
	var ce *types.ConfigurationError
	var iv *types.InvariantViolation
	switch {
	case errors.As(err, &ce):
		return exitConfig
	case errors.As(err, &iv):
		return exitInvariant
	default:
		return exitFailure
	}
}
