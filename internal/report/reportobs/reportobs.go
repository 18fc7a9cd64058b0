package reportobs

import (
	"context"

	"llm-hedge-fund/internal/interfaces"
	"llm-hedge-fund/internal/logger"
	"llm-hedge-fund/internal/trace"
	"llm-hedge-fund/internal/types"
)

type observableReporter struct {
	reporter interfaces.Reporter
}

var _ interfaces.Reporter = (*observableReporter)(nil)

func Wrap(reporter interfaces.Reporter) interfaces.Reporter {
	return &observableReporter{
		reporter: reporter,
	}
}

func (o *observableReporter) Report(ctx context.Context, res *types.Result, journalPath string) (interfaces.ReportPaths, error) {
	ctx, span := trace.StartSpan(ctx, "report.Report")
	defer span.End()

	logger.InfoSkip(ctx, 1, "Writing run reports", "run_id", res.RunID, "journal", journalPath)

	paths, err := o.reporter.Report(ctx, res, journalPath)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Report generation failed", err, "run_id", res.RunID)
		return paths, err
	}

	if paths.Trades == "" {
		logger.InfoSkip(ctx, 1, "No trades found for trade summary", "run_id", res.RunID)
	}
	logger.InfoSkip(ctx, 1, "Reports generated successfully",
		"run_id", res.RunID,
		"equity_curve", paths.EquityCurve,
		"trades", paths.Trades,
		"summary", paths.Summary,
	)
	return paths, nil
}
