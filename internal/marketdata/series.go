package marketdata

import (
	"sort"
	"sync"
	"time"

	"llm-hedge-fund/internal/types"
)

// Day normalizes t to midnight UTC of its own calendar date, so exchange-local
// timestamps keep their trading date.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Series holds daily candles per symbol, sorted by day with one candle per day.
type Series struct {
	mu      sync.RWMutex
	candles map[string][]types.Candle
}

func NewSeries() *Series {
	return &Series{candles: make(map[string][]types.Candle)}
}

// Add merges candles for symbol. A later candle for the same day replaces the earlier one.
func (s *Series) Add(symbol string, cs ...types.Candle) {
	s.mu.Lock()
	defer s.mu.Unlock()

	byDay := make(map[int64]types.Candle, len(s.candles[symbol])+len(cs))
	for _, c := range s.candles[symbol] {
		byDay[c.Ts] = c
	}
	for _, c := range cs {
		c.Ts = Day(time.Unix(c.Ts, 0).UTC()).Unix()
		byDay[c.Ts] = c
	}

	merged := make([]types.Candle, 0, len(byDay))
	for _, c := range byDay {
		merged = append(merged, c)
	}
	sort.Slice(merged, func(i, j int) bool { return merged[i].Ts < merged[j].Ts })
	s.candles[symbol] = merged
}

// Candles returns a copy of all candles for symbol.
func (s *Series) Candles(symbol string) []types.Candle {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]types.Candle(nil), s.candles[symbol]...)
}

func (s *Series) Symbols() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]string, 0, len(s.candles))
	for sym := range s.candles {
		out = append(out, sym)
	}
	sort.Strings(out)
	return out
}

// at returns the candle on day and whether it exists.
func (s *Series) at(symbol string, day time.Time) (types.Candle, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cs := s.candles[symbol]
	ts := day.Unix()
	i := sort.Search(len(cs), func(i int) bool { return cs[i].Ts >= ts })
	if i < len(cs) && cs[i].Ts == ts {
		return cs[i], true
	}
	return types.Candle{}, false
}

// before returns up to n candles strictly earlier than day.
func (s *Series) before(symbol string, day time.Time, n int) ([]types.Candle, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cs, ok := s.candles[symbol]
	if !ok {
		return nil, false
	}
	ts := day.Unix()
	end := sort.Search(len(cs), func(i int) bool { return cs[i].Ts >= ts })
	start := end - n
	if start < 0 {
		start = 0
	}
	return append([]types.Candle(nil), cs[start:end]...), true
}
