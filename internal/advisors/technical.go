package advisors

import (
	"context"
	"fmt"
	"math"
	"sort"

	"llm-hedge-fund/internal/interfaces"
	"llm-hedge-fund/internal/signals"
	"llm-hedge-fund/internal/ta"
	"llm-hedge-fund/internal/types"
)

const (
	StrategyTrend         = "trend"
	StrategyMeanReversion = "mean_reversion"
	StrategyBollinger     = "bollinger"
)

// Technical is a deterministic indicator-driven advisor.
type Technical struct {
	name     string
	strategy string
	params   ta.IndicatorParams
}

var _ interfaces.Advisor = (*Technical)(nil)

func NewTechnical(name, strategy string, p ta.IndicatorParams) (*Technical, error) {
	switch strategy {
	case StrategyTrend, StrategyMeanReversion, StrategyBollinger:
	default:
		return nil, fmt.Errorf("unknown technical strategy %q", strategy)
	}
	if name == "" {
		name = strategy
	}
	return &Technical{name: name, strategy: strategy, params: p}, nil
}

func (t *Technical) Name() string { return t.name }

// Signals evaluates the strategy on history plus the as-of close. Too little
// history yields no signal.
func (t *Technical) Signals(ctx context.Context, in interfaces.AdvisorInput) ([]types.Signal, error) {
	closes, _, _ := ta.Closes(in.History)
	closes = append(closes, in.Price)

	var (
		dir  types.Direction
		conf float64
		why  string
	)
	switch t.strategy {
	case StrategyTrend:
		dir, conf, why = t.trend(closes)
	case StrategyMeanReversion:
		dir, conf, why = t.meanReversion(closes)
	case StrategyBollinger:
		dir, conf, why = t.bollinger(closes, in.Price)
	}
	if dir == "" {
		return nil, nil
	}

	sig, err := signals.New(in.Symbol, t.name, dir, clamp(conf, 0, 100))
	if err != nil {
		return nil, err
	}
	sig.Reasoning = why
	return []types.Signal{sig}, nil
}

// trend compares the fastest and slowest configured SMA. A 5% spread is full confidence.
func (t *Technical) trend(closes []float64) (types.Direction, float64, string) {
	w := append([]int(nil), t.params.SMAWindows...)
	if len(w) < 2 {
		return "", 0, ""
	}
	sort.Ints(w)
	fast, slow := ta.SMA(closes, w[0]), ta.SMA(closes, w[len(w)-1])
	if math.IsNaN(fast) || math.IsNaN(slow) || slow == 0 {
		return "", 0, ""
	}
	spread := fast/slow - 1
	why := fmt.Sprintf("SMA%d=%.2f SMA%d=%.2f", w[0], fast, w[len(w)-1], slow)
	switch {
	case spread > 0:
		return types.Bullish, spread * 2000, why
	case spread < 0:
		return types.Bearish, -spread * 2000, why
	default:
		return types.Neutral, 0, why
	}
}

// meanReversion fades RSI extremes outside 30/70.
func (t *Technical) meanReversion(closes []float64) (types.Direction, float64, string) {
	rsi := ta.RSI(closes, t.params.RSIPeriod)
	if math.IsNaN(rsi) {
		return "", 0, ""
	}
	why := fmt.Sprintf("RSI%d=%.1f", t.params.RSIPeriod, rsi)
	switch {
	case rsi < 30:
		return types.Bullish, 50 + (30-rsi)/30*50, why
	case rsi > 70:
		return types.Bearish, 50 + (rsi-70)/30*50, why
	default:
		return types.Neutral, 0, why
	}
}

// bollinger fades closes outside the bands. One band width beyond is full confidence.
func (t *Technical) bollinger(closes []float64, price float64) (types.Direction, float64, string) {
	mid, up, low := ta.Bollinger(closes, t.params.BBWindow, t.params.BBStdDev)
	if math.IsNaN(mid) || up == mid {
		return "", 0, ""
	}
	z := (price - mid) / (up - mid)
	why := fmt.Sprintf("close=%.2f bands=[%.2f, %.2f]", price, low, up)
	switch {
	case z <= -1:
		return types.Bullish, -z * 50, why
	case z >= 1:
		return types.Bearish, z * 50, why
	default:
		return types.Neutral, 0, why
	}
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
