package interfaces

import (
	"context"

	"llm-hedge-fund/internal/types"
)

// ReportPaths lists the files written for one run. Trades is empty when the
// run produced no fills.
type ReportPaths struct {
	EquityCurve string `json:"equity_curve"`
	Trades      string `json:"trades,omitempty"`
	Summary     string `json:"summary"`
}

// Reporter renders a finished run to files.
type Reporter interface {
	Report(ctx context.Context, res *types.Result, journalPath string) (ReportPaths, error)
}
