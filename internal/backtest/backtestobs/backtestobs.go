package backtestobs

import (
	"context"
	"time"

	"llm-hedge-fund/internal/interfaces"
	"llm-hedge-fund/internal/logger"
	"llm-hedge-fund/internal/trace"
	"llm-hedge-fund/internal/types"
)

type observableRunner struct {
	runner interfaces.Runner
}

var _ interfaces.Runner = (*observableRunner)(nil)

func Wrap(r interfaces.Runner) interfaces.Runner {
	return &observableRunner{
		runner: r,
	}
}

func (o *observableRunner) Run(ctx context.Context) (*types.Result, error) {
	ctx, span := trace.StartSpan(ctx, "backtest.Run")
	defer span.End()

	start := time.Now()
	logger.InfoSkip(ctx, 1, "Starting backtest run")

	result, err := o.runner.Run(ctx)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Backtest run failed", err,
			"duration_ms", time.Since(start).Milliseconds(),
		)
		return nil, err
	}

	logger.InfoSkip(ctx, 1, "Backtest run completed",
		"run_id", result.RunID,
		"days", len(result.Snapshots),
		"fills", len(result.Fills),
		"final_value", result.Summary.FinalValue,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return result, nil
}
