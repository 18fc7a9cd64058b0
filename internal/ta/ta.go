package ta

import (
	"math"

	"llm-hedge-fund/internal/types"
)

// TradingDaysPerYear annualizes daily statistics.
const TradingDaysPerYear = 252

func SMA(closes []float64, n int) float64 {
	if len(closes) < n || n <= 0 {
		return math.NaN()
	}
	sum := 0.0
	for i := len(closes) - n; i < len(closes); i++ {
		sum += closes[i]
	}
	return sum / float64(n)
}

func RSI(closes []float64, period int) float64 {
	if len(closes) < period+1 || period <= 0 {
		return math.NaN()
	}
	gain, loss := 0.0, 0.0
	for i := len(closes) - period; i < len(closes); i++ {
		d := closes[i] - closes[i-1]
		if d > 0 {
			gain += d
		} else {
			loss -= d
		}
	}
	if loss == 0 {
		return 100.0
	}
	rs := (gain / float64(period)) / (loss / float64(period))
	return 100.0 - (100.0 / (1.0 + rs))
}

func StdDev(vals []float64, n int) float64 {
	if len(vals) < n || n <= 0 {
		return math.NaN()
	}
	m := SMA(vals, n)
	s := 0.0
	for i := len(vals) - n; i < len(vals); i++ {
		d := vals[i] - m
		s += d * d
	}
	return math.Sqrt(s / float64(n))
}

func Bollinger(closes []float64, n int, k float64) (mid, up, low float64) {
	mid = SMA(closes, n)
	sd := StdDev(closes, n)
	up = mid + k*sd
	low = mid - k*sd
	return
}

func ATR(highs, lows, closes []float64, period int) float64 {
	if len(highs) != len(lows) || len(lows) != len(closes) {
		return math.NaN()
	}
	if len(closes) < period+1 || period <= 0 {
		return math.NaN()
	}
	sum := 0.0
	for i := len(closes) - period; i < len(closes); i++ {
		tr := math.Max(highs[i]-lows[i], math.Max(math.Abs(highs[i]-closes[i-1]), math.Abs(lows[i]-closes[i-1])))
		sum += tr
	}
	return sum / float64(period)
}

// Returns converts a price series into simple period returns. Non-positive
// prices break the chain and are skipped.
func Returns(closes []float64) []float64 {
	if len(closes) < 2 {
		return nil
	}
	out := make([]float64, 0, len(closes)-1)
	for i := 1; i < len(closes); i++ {
		if closes[i-1] <= 0 {
			continue
		}
		out = append(out, closes[i]/closes[i-1]-1)
	}
	return out
}

// AnnualizedVolatility is the population stddev of the last n daily returns scaled by sqrt(252).
func AnnualizedVolatility(closes []float64, n int) float64 {
	rets := Returns(closes)
	sd := StdDev(rets, n)
	if math.IsNaN(sd) {
		return math.NaN()
	}
	return sd * math.Sqrt(TradingDaysPerYear)
}

// Closes extracts close, high and low columns from candles.
func Closes(cs []types.Candle) (closes, highs, lows []float64) {
	closes = make([]float64, len(cs))
	highs = make([]float64, len(cs))
	lows = make([]float64, len(cs))
	for i, c := range cs {
		closes[i] = c.Close
		highs[i] = c.High
		lows[i] = c.Low
	}
	return
}

// IndicatorParams configures Calculate.
type IndicatorParams struct {
	SMAWindows []int
	RSIPeriod  int
	BBWindow   int
	BBStdDev   float64
	ATRPeriod  int
}

// Calculate computes the configured indicator set over candles.
func Calculate(cs []types.Candle, p IndicatorParams) types.Indicators {
	cl, h, l := Closes(cs)
	inds := types.Indicators{SMA: map[int]float64{}}
	for _, w := range p.SMAWindows {
		inds.SMA[w] = SMA(cl, w)
	}
	inds.RSI = RSI(cl, p.RSIPeriod)
	inds.BB.Middle, inds.BB.Upper, inds.BB.Lower = Bollinger(cl, p.BBWindow, p.BBStdDev)
	inds.ATR = ATR(h, l, cl, p.ATRPeriod)
	return inds
}
