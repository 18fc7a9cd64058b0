package advisors

import (
	"context"

	"llm-hedge-fund/internal/interfaces"
	"llm-hedge-fund/internal/logger"
	"llm-hedge-fund/internal/types"
)

// Noop is a fallback advisor used when no model is configured. It never
// expresses an opinion.
type Noop struct {
	name string
}

var _ interfaces.Advisor = (*Noop)(nil)

func NewNoop(name string) *Noop {
	if name == "" {
		name = "noop"
	}
	return &Noop{name: name}
}

func (n *Noop) Name() string { return n.name }

func (n *Noop) Signals(ctx context.Context, in interfaces.AdvisorInput) ([]types.Signal, error) {
	logger.Debug(ctx, "Noop advisor called - no signal", "advisor", n.name, "symbol", in.Symbol)
	return nil, nil
}
