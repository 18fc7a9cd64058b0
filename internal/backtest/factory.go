package backtest

import (
	"fmt"

	"llm-hedge-fund/internal/interfaces"
	"llm-hedge-fund/internal/portfolio"
	"llm-hedge-fund/internal/risk"
	"llm-hedge-fund/internal/store"
)

// ConfigFromStore maps the loaded configuration onto a run configuration.
func ConfigFromStore(cfg *store.Config) (Config, error) {
	start, err := cfg.Start()
	if err != nil {
		return Config{}, fmt.Errorf("start date: %w", err)
	}
	end, err := cfg.End()
	if err != nil {
		return Config{}, fmt.Errorf("end date: %w", err)
	}

	return Config{
		Symbols:      cfg.UniverseStatic,
		Start:        start,
		End:          end,
		InitialCash:  cfg.Backtest.InitialCash,
		RiskFreeRate: cfg.Backtest.RiskFreeRate,
		HistoryDays:  cfg.HistoryDays(),
		Concurrency:  cfg.Backtest.Concurrency,
	}, nil
}

func NewAssessor(cfg *store.Config) *risk.Assessor {
	return risk.NewAssessor(risk.Config{
		MaxPositionPct:     cfg.Risk.MaxPositionPct,
		MinPositionPct:     cfg.Risk.MinPositionPct,
		LookbackDays:       cfg.Risk.LookbackDays,
		VolatilityTarget:   cfg.Risk.VolatilityTarget,
		DefaultMarginRatio: cfg.Margin.DefaultRatio,
		MarginRatios:       cfg.Margin.PerSymbol,
	})
}

func NewManager(cfg *store.Config) *portfolio.Manager {
	return portfolio.NewManager(portfolio.Config{
		ActionThreshold: cfg.Decision.ActionThreshold,
		FullConfidence:  cfg.Decision.FullConfidence,
	})
}

// FromConfig wires a Backtester from configuration.
func FromConfig(cfg *store.Config, data interfaces.MarketData, advs []interfaces.Advisor, opts ...Option) (*Backtester, error) {
	bc, err := ConfigFromStore(cfg)
	if err != nil {
		return nil, err
	}
	return New(bc, data, advs, NewAssessor(cfg), NewManager(cfg), opts...), nil
}
