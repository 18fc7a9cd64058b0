package backtest

import (
	"math"
	"time"

	"gonum.org/v1/gonum/stat"

	"llm-hedge-fund/internal/ta"
	"llm-hedge-fund/internal/types"
)

// Summarize derives return statistics from the equity curve. The curve starts
// at initial so the first day's move counts.
func Summarize(snaps []types.EquitySnapshot, initial, riskFreeRate float64) types.Summary {
	s := types.Summary{InitialValue: initial, FinalValue: initial}
	if len(snaps) == 0 {
		return s
	}

	values := make([]float64, 0, len(snaps)+1)
	dates := make([]time.Time, 0, len(snaps)+1)
	values = append(values, initial)
	dates = append(dates, snaps[0].Date)
	for _, sn := range snaps {
		values = append(values, sn.TotalValue)
		dates = append(dates, sn.Date)
	}

	s.FinalValue = values[len(values)-1]
	if initial > 0 {
		s.TotalReturn = s.FinalValue/initial - 1
	}
	s.DailyReturns = ta.Returns(values)
	s.SharpeRatio = Sharpe(s.DailyReturns, riskFreeRate)
	s.SortinoRatio = Sortino(s.DailyReturns, riskFreeRate)

	dd, at := MaxDrawdown(values)
	s.MaxDrawdown = dd
	if at >= 0 {
		s.MaxDrawdownDate = dates[at]
	}
	return s
}

func excessReturns(returns []float64, riskFreeRate float64) []float64 {
	daily := riskFreeRate / ta.TradingDaysPerYear
	out := make([]float64, len(returns))
	for i, r := range returns {
		out[i] = r - daily
	}
	return out
}

// Sharpe is the annualized mean excess daily return over its standard
// deviation, or 0 when the deviation is 0.
func Sharpe(returns []float64, riskFreeRate float64) float64 {
	if len(returns) < 2 {
		return 0
	}
	mean, std := stat.MeanStdDev(excessReturns(returns, riskFreeRate), nil)
	if std == 0 || math.IsNaN(std) {
		return 0
	}
	return mean / std * math.Sqrt(ta.TradingDaysPerYear)
}

// Sortino is Sharpe with only below-zero excess returns in the denominator.
func Sortino(returns []float64, riskFreeRate float64) float64 {
	if len(returns) < 2 {
		return 0
	}
	excess := excessReturns(returns, riskFreeRate)
	downside := make([]float64, len(excess))
	for i, r := range excess {
		downside[i] = math.Min(0, r)
	}
	dd := math.Sqrt(stat.Mean(squares(downside), nil))
	if dd == 0 {
		return 0
	}
	return stat.Mean(excess, nil) / dd * math.Sqrt(ta.TradingDaysPerYear)
}

func squares(v []float64) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = x * x
	}
	return out
}

// MaxDrawdown returns the largest peak-to-trough decline as a fraction of the
// peak and the index of the trough, or -1 when the series never declines.
func MaxDrawdown(values []float64) (float64, int) {
	peak := math.Inf(-1)
	worst, at := 0.0, -1
	for i, v := range values {
		if v > peak {
			peak = v
			continue
		}
		if peak <= 0 {
			continue
		}
		if dd := (peak - v) / peak; dd > worst {
			worst, at = dd, i
		}
	}
	return worst, at
}
