package advisorobs

import (
	"context"

	"llm-hedge-fund/internal/interfaces"
	"llm-hedge-fund/internal/logger"
	"llm-hedge-fund/internal/trace"
	"llm-hedge-fund/internal/types"
)

// observableAdvisor wraps an Advisor with logging and tracing
type observableAdvisor struct {
	advisor interfaces.Advisor
}

// Compile-time interface check
var _ interfaces.Advisor = (*observableAdvisor)(nil)

// Wrap wraps an advisor with observability middleware
func Wrap(advisor interfaces.Advisor) interfaces.Advisor {
	return &observableAdvisor{advisor: advisor}
}

func (oa *observableAdvisor) Name() string { return oa.advisor.Name() }

// Signals requests signals with observability
func (oa *observableAdvisor) Signals(ctx context.Context, in interfaces.AdvisorInput) ([]types.Signal, error) {
	ctx, span := trace.StartSpan(ctx, "advisor.Signals")
	defer span.End()

	logger.DebugSkip(ctx, 1, "Requesting signals",
		"advisor", oa.advisor.Name(),
		"symbol", in.Symbol,
		"price", in.Price,
		"history", len(in.History),
	)

	sigs, err := oa.advisor.Signals(ctx, in)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Advisor failed", err,
			"advisor", oa.advisor.Name(),
			"symbol", in.Symbol,
		)
		return nil, err
	}

	for _, s := range sigs {
		logger.DebugSkip(ctx, 1, "Signal received",
			"advisor", oa.advisor.Name(),
			"symbol", s.Symbol,
			"direction", s.Direction,
			"confidence", s.Confidence,
			"reasoning", s.Reasoning,
		)
	}
	return sigs, nil
}
