package interfaces

import (
	"context"

	"llm-hedge-fund/internal/types"
)

type Runner interface {
	Run(ctx context.Context) (*types.Result, error)
}

// DayObserver receives each equity snapshot as soon as its day completes.
type DayObserver interface {
	OnDay(ctx context.Context, snap types.EquitySnapshot, fills []types.Fill)
}
