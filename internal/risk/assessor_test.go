package risk

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"llm-hedge-fund/internal/types"
)

func candles(closes ...float64) []types.Candle {
	cs := make([]types.Candle, len(closes))
	for i, c := range closes {
		cs[i] = types.Candle{Ts: int64(i) * 86400, Open: c, High: c, Low: c, Close: c}
	}
	return cs
}

func flat(n int, price float64) []types.Candle {
	closes := make([]float64, n)
	for i := range closes {
		closes[i] = price
	}
	return candles(closes...)
}

func TestAssessCeilingIsFractionOfEquity(t *testing.T) {
	a := NewAssessor(Config{MaxPositionPct: 0.20, MinPositionPct: 0.05})
	ra := a.Assess(context.Background(), "AAPL", 100000, 100, nil)

	assert.InDelta(t, 20000.0, ra.MaxPositionValue, 1e-9)
	assert.Equal(t, 100.0, ra.CurrentPrice)
	assert.False(t, ra.Degraded)
}

func TestAssessDegradesOnShortHistory(t *testing.T) {
	a := NewAssessor(Config{MaxPositionPct: 0.20, MinPositionPct: 0.05, LookbackDays: 20})
	ra := a.Assess(context.Background(), "AAPL", 100000, 100, flat(5, 100))

	assert.True(t, ra.Degraded)
	assert.InDelta(t, 5000.0, ra.MaxPositionValue, 1e-9)
}

func TestAssessMarginRatios(t *testing.T) {
	a := NewAssessor(Config{
		MaxPositionPct:     0.2,
		DefaultMarginRatio: 0.5,
		MarginRatios:       map[string]float64{"TSLA": 1},
	})
	assert.Equal(t, 0.5, a.Assess(context.Background(), "AAPL", 1000, 10, nil).MarginRatio)
	assert.Equal(t, 1.0, a.Assess(context.Background(), "TSLA", 1000, 10, nil).MarginRatio)
}

func TestAssessScalesDownVolatileInstruments(t *testing.T) {
	closes := make([]float64, 30)
	for i := range closes {
		closes[i] = 100
		if i%2 == 1 {
			closes[i] = 110
		}
	}
	a := NewAssessor(Config{MaxPositionPct: 0.20, MinPositionPct: 0.01, LookbackDays: 20, VolatilityTarget: 0.30})
	ra := a.Assess(context.Background(), "X", 100000, 100, candles(closes...))

	assert.Less(t, ra.MaxPositionValue, 20000.0)
	assert.GreaterOrEqual(t, ra.MaxPositionValue, 1000.0)
	assert.False(t, math.IsNaN(ra.MaxPositionValue))
}

func TestAssessCalmInstrumentKeepsFullCeiling(t *testing.T) {
	a := NewAssessor(Config{MaxPositionPct: 0.20, MinPositionPct: 0.05, LookbackDays: 20, VolatilityTarget: 0.30})
	ra := a.Assess(context.Background(), "X", 50000, 100, flat(25, 100))
	assert.InDelta(t, 10000.0, ra.MaxPositionValue, 1e-9)
}

func TestAssessZeroEquity(t *testing.T) {
	a := NewAssessor(Config{MaxPositionPct: 0.20})
	assert.Zero(t, a.Assess(context.Background(), "X", 0, 100, nil).MaxPositionValue)
}
