package interfaces

import (
	"context"
	"time"

	"llm-hedge-fund/internal/types"
)

// AdvisorInput is the already-resolved data an advisor may look at for one instrument.
// History holds only candles strictly before AsOf.
type AdvisorInput struct {
	Symbol  string
	AsOf    time.Time
	Price   float64
	History []types.Candle
}

// Advisor produces directional opinions. A returned error means the advisor is
// absent from aggregation for that round.
type Advisor interface {
	Name() string
	Signals(ctx context.Context, in AdvisorInput) ([]types.Signal, error)
}
