package marketdata

import (
	"context"
	"sort"
	"time"

	"llm-hedge-fund/internal/interfaces"
	"llm-hedge-fund/internal/types"
)

// Feed serves a Series and never returns data dated after the requested day.
type Feed struct {
	series *Series
}

var _ interfaces.MarketData = (*Feed)(nil)

func NewFeed(s *Series) *Feed {
	return &Feed{series: s}
}

func (f *Feed) Close(ctx context.Context, symbol string, date time.Time) (float64, error) {
	day := Day(date)
	c, ok := f.series.at(symbol, day)
	if !ok {
		return 0, &types.DataGapError{Symbol: symbol, Date: day, Reason: "no candle"}
	}
	if c.Close <= 0 {
		return 0, &types.DataGapError{Symbol: symbol, Date: day, Reason: "non-positive close"}
	}
	return c.Close, nil
}

func (f *Feed) History(ctx context.Context, symbol string, before time.Time, n int) ([]types.Candle, error) {
	day := Day(before)
	if n <= 0 {
		return nil, nil
	}
	cs, ok := f.series.before(symbol, day, n)
	if !ok {
		return nil, &types.DataGapError{Symbol: symbol, Date: day, Reason: "unknown symbol"}
	}
	return cs, nil
}

func (f *Feed) TradingDays(ctx context.Context, start, end time.Time) ([]time.Time, error) {
	from, to := Day(start).Unix(), Day(end).Unix()
	seen := map[int64]bool{}
	for _, sym := range f.series.Symbols() {
		for _, c := range f.series.Candles(sym) {
			if c.Ts >= from && c.Ts <= to {
				seen[c.Ts] = true
			}
		}
	}

	days := make([]time.Time, 0, len(seen))
	for ts := range seen {
		days = append(days, time.Unix(ts, 0).UTC())
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })
	return days, nil
}
