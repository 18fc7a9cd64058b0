package marketdata

import (
	"hash/fnv"
	"math"
	"math/rand"
	"time"

	"llm-hedge-fund/internal/types"
)

type SyntheticParams struct {
	Seed       int64
	BasePrice  float64
	Drift      float64 // mean daily log return
	Volatility float64 // daily log return stddev
}

// Synthetic builds a reproducible random-walk series on weekdays in [from, to].
// Each symbol gets its own stream derived from Seed and the symbol name.
func Synthetic(p SyntheticParams, symbols []string, from, to time.Time) *Series {
	s := NewSeries()
	for _, sym := range symbols {
		h := fnv.New64a()
		_, _ = h.Write([]byte(sym))
		rng := rand.New(rand.NewSource(p.Seed ^ int64(h.Sum64())))

		price := p.BasePrice * (0.5 + rng.Float64())
		var cs []types.Candle
		for d := Day(from); !d.After(Day(to)); d = d.AddDate(0, 0, 1) {
			if d.Weekday() == time.Saturday || d.Weekday() == time.Sunday {
				continue
			}
			open := price
			price *= math.Exp(p.Drift + p.Volatility*rng.NormFloat64())
			spread := math.Abs(price-open) + price*p.Volatility*rng.Float64()
			cs = append(cs, types.Candle{
				Ts:    d.Unix(),
				Open:  open,
				High:  math.Max(open, price) + spread/2,
				Low:   math.Max(0.01, math.Min(open, price)-spread/2),
				Close: price,
				Vol:   float64(100000 + rng.Intn(900000)),
			})
		}
		s.Add(sym, cs...)
	}
	return s
}
