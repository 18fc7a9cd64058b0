package advisors

import (
	"context"

	"golang.org/x/sync/errgroup"

	"llm-hedge-fund/internal/interfaces"
	"llm-hedge-fund/internal/logger"
	"llm-hedge-fund/internal/signals"
	"llm-hedge-fund/internal/types"
)

// GatherSignals asks every advisor about one instrument concurrently. Signals
// come back in advisor order. An advisor that errors or returns a malformed
// signal is left out of the round and counted in failures.
func GatherSignals(ctx context.Context, advisors []interfaces.Advisor, in interfaces.AdvisorInput) (sigs []types.Signal, failures int) {
	results := make([][]types.Signal, len(advisors))
	failed := make([]bool, len(advisors))

	var g errgroup.Group
	for i, a := range advisors {
		g.Go(func() error {
			out, err := a.Signals(ctx, in)
			if err == nil {
				out, err = normalize(in.Symbol, a.Name(), out)
			}
			if err != nil {
				logger.Warn(ctx, "Advisor dropped for this round", "advisor", a.Name(), "symbol", in.Symbol, "error", err)
				failed[i] = true
				return nil
			}
			results[i] = out
			return nil
		})
	}
	_ = g.Wait()

	for i := range advisors {
		if failed[i] {
			failures++
			continue
		}
		sigs = append(sigs, results[i]...)
	}
	return sigs, failures
}

func normalize(symbol, source string, in []types.Signal) ([]types.Signal, error) {
	out := make([]types.Signal, 0, len(in))
	for _, s := range in {
		if s.Source == "" {
			s.Source = source
		}
		v, err := signals.New(symbol, s.Source, s.Direction, s.Confidence)
		if err != nil {
			return nil, err
		}
		v.Reasoning = s.Reasoning
		out = append(out, v)
	}
	return out, nil
}
