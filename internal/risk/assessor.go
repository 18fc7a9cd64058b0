package risk

import (
	"context"
	"math"

	"llm-hedge-fund/internal/logger"
	"llm-hedge-fund/internal/ta"
	"llm-hedge-fund/internal/types"
)

// Config controls position ceilings.
type Config struct {
	// MaxPositionPct is the per-instrument ceiling as a fraction of total equity.
	MaxPositionPct float64
	// MinPositionPct is the conservative ceiling used when history is too short.
	MinPositionPct float64
	// LookbackDays is the number of daily returns needed for a volatility estimate.
	// Zero disables the history requirement.
	LookbackDays int
	// VolatilityTarget, when positive, shrinks the ceiling for instruments whose
	// annualized volatility exceeds it.
	VolatilityTarget float64
	// DefaultMarginRatio applies to symbols missing from MarginRatios.
	DefaultMarginRatio float64
	MarginRatios       map[string]float64
}

// Assessor turns equity and price history into per-instrument position ceilings.
type Assessor struct {
	cfg Config
}

func NewAssessor(cfg Config) *Assessor {
	if cfg.MinPositionPct > cfg.MaxPositionPct {
		cfg.MinPositionPct = cfg.MaxPositionPct
	}
	return &Assessor{cfg: cfg}
}

func (a *Assessor) marginRatio(symbol string) float64 {
	if r, ok := a.cfg.MarginRatios[symbol]; ok {
		return r
	}
	return a.cfg.DefaultMarginRatio
}

// Assess never fails: short history degrades the ceiling instead of blocking the pipeline.
func (a *Assessor) Assess(ctx context.Context, symbol string, equity, price float64, history []types.Candle) types.RiskAssessment {
	ra := types.RiskAssessment{
		Symbol:       symbol,
		CurrentPrice: price,
		MarginRatio:  a.marginRatio(symbol),
	}
	if equity <= 0 {
		return ra
	}

	if a.cfg.LookbackDays > 0 && len(history) < a.cfg.LookbackDays+1 {
		ra.MaxPositionValue = equity * a.cfg.MinPositionPct
		ra.Degraded = true
		logger.Risk(ctx, symbol, "INSUFFICIENT_HISTORY",
			"have", len(history),
			"need", a.cfg.LookbackDays+1,
			"ceiling", ra.MaxPositionValue,
		)
		return ra
	}

	ceiling := equity * a.cfg.MaxPositionPct
	if a.cfg.VolatilityTarget > 0 && a.cfg.LookbackDays > 0 {
		closes, _, _ := ta.Closes(history)
		vol := ta.AnnualizedVolatility(closes, a.cfg.LookbackDays)
		switch {
		case math.IsNaN(vol):
			ceiling = equity * a.cfg.MinPositionPct
			ra.Degraded = true
		case vol > a.cfg.VolatilityTarget:
			ceiling *= a.cfg.VolatilityTarget / vol
			logger.Debug(ctx, "Ceiling scaled for volatility", "symbol", symbol, "volatility", vol, "target", a.cfg.VolatilityTarget)
		}
		if floor := equity * a.cfg.MinPositionPct; ceiling < floor {
			ceiling = floor
		}
	}

	ra.MaxPositionValue = ceiling
	return ra
}
