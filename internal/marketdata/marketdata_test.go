package marketdata

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	kiteconnect "github.com/zerodha/gokiteconnect/v4"
	"github.com/zerodha/gokiteconnect/v4/models"

	"llm-hedge-fund/internal/types"
)

func date(s string) time.Time {
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return d
}

func candleOn(s string, close float64) types.Candle {
	return types.Candle{Ts: date(s).Unix(), Open: close, High: close, Low: close, Close: close}
}

func TestFeedNeverLooksAhead(t *testing.T) {
	s := NewSeries()
	s.Add("AAPL", candleOn("2024-01-02", 10), candleOn("2024-01-03", 11), candleOn("2024-01-04", 12))
	f := NewFeed(s)
	ctx := context.Background()

	hist, err := f.History(ctx, "AAPL", date("2024-01-03"), 10)
	require.NoError(t, err)
	require.Len(t, hist, 1)
	assert.Equal(t, 10.0, hist[0].Close)

	price, err := f.Close(ctx, "AAPL", date("2024-01-03").Add(15*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 11.0, price)
}

func TestFeedHistoryLimit(t *testing.T) {
	s := NewSeries()
	s.Add("AAPL", candleOn("2024-01-02", 10), candleOn("2024-01-03", 11), candleOn("2024-01-04", 12))
	hist, err := NewFeed(s).History(context.Background(), "AAPL", date("2024-01-05"), 2)
	require.NoError(t, err)
	require.Len(t, hist, 2)
	assert.Equal(t, 11.0, hist[0].Close)
	assert.Equal(t, 12.0, hist[1].Close)
}

func TestFeedReportsDataGaps(t *testing.T) {
	s := NewSeries()
	s.Add("AAPL", candleOn("2024-01-02", 10), candleOn("2024-01-04", 0))
	f := NewFeed(s)

	for _, d := range []string{"2024-01-03", "2024-01-04"} {
		_, err := f.Close(context.Background(), "AAPL", date(d))
		var gap *types.DataGapError
		require.True(t, errors.As(err, &gap), d)
		assert.Equal(t, "AAPL", gap.Symbol)
	}

	_, err := f.History(context.Background(), "MSFT", date("2024-01-03"), 5)
	var gap *types.DataGapError
	assert.True(t, errors.As(err, &gap))
}

func TestTradingDaysIsSortedUnion(t *testing.T) {
	s := NewSeries()
	s.Add("AAPL", candleOn("2024-01-04", 1), candleOn("2024-01-02", 1))
	s.Add("MSFT", candleOn("2024-01-03", 1), candleOn("2024-01-10", 1))

	days, err := NewFeed(s).TradingDays(context.Background(), date("2024-01-02"), date("2024-01-05"))
	require.NoError(t, err)
	assert.Equal(t, []time.Time{date("2024-01-02"), date("2024-01-03"), date("2024-01-04")}, days)
}

func TestSeriesAddReplacesSameDay(t *testing.T) {
	s := NewSeries()
	s.Add("AAPL", candleOn("2024-01-02", 10))
	s.Add("AAPL", candleOn("2024-01-02", 15))
	cs := s.Candles("AAPL")
	require.Len(t, cs, 1)
	assert.Equal(t, 15.0, cs[0].Close)
}

func TestLoadCSVDir(t *testing.T) {
	dir := t.TempDir()
	content := "date,open,high,low,close,volume\n2024-01-03,10,11,9,10.5,1000\n2024-01-02,9,10,8,9.5,900\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "AAPL.csv"), []byte(content), 0o644))

	s, err := LoadCSVDir(dir, []string{"AAPL"})
	require.NoError(t, err)

	cs := s.Candles("AAPL")
	require.Len(t, cs, 2)
	assert.Equal(t, 9.5, cs[0].Close)
	assert.Equal(t, 1000.0, cs[1].Vol)

	_, err = LoadCSVDir(dir, []string{"MSFT"})
	assert.Error(t, err)
}

func TestSyntheticIsDeterministic(t *testing.T) {
	p := SyntheticParams{Seed: 1, BasePrice: 100, Volatility: 0.02}
	a := Synthetic(p, []string{"AAPL"}, date("2024-01-01"), date("2024-02-01"))
	b := Synthetic(p, []string{"AAPL"}, date("2024-01-01"), date("2024-02-01"))
	assert.Equal(t, a.Candles("AAPL"), b.Candles("AAPL"))

	for _, c := range a.Candles("AAPL") {
		wd := c.Time().Weekday()
		assert.NotEqual(t, time.Saturday, wd)
		assert.NotEqual(t, time.Sunday, wd)
		assert.Greater(t, c.Close, 0.0)
		assert.GreaterOrEqual(t, c.High, c.Low)
	}
}

type fakeKite struct {
	calls int
	ist   *time.Location
}

func (f *fakeKite) GetHistoricalData(token int, interval string, from, to time.Time, continuous, oi bool) ([]kiteconnect.HistoricalData, error) {
	f.calls++
	var out []kiteconnect.HistoricalData
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		local := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, f.ist)
		out = append(out, kiteconnect.HistoricalData{Date: models.Time{Time: local}, Open: 1, High: 2, Low: 1, Close: float64(token), Volume: 10})
	}
	return out, nil
}

func TestKiteLoaderKeepsExchangeDate(t *testing.T) {
	fk := &fakeKite{ist: time.FixedZone("IST", 19800)}
	l := NewKiteLoaderWithClient(fk, map[string]int{"INFY": 408065})

	s, err := l.Load(context.Background(), []string{"INFY"}, date("2024-01-01"), date("2024-01-03"))
	require.NoError(t, err)

	cs := s.Candles("INFY")
	require.Len(t, cs, 3)
	assert.Equal(t, date("2024-01-01"), cs[0].Time())
	assert.Equal(t, 408065.0, cs[0].Close)
	assert.Equal(t, 1, fk.calls)

	_, err = l.Load(context.Background(), []string{"TCS"}, date("2024-01-01"), date("2024-01-03"))
	assert.Error(t, err)
}

func TestKiteLoaderChunksLongRanges(t *testing.T) {
	fk := &fakeKite{ist: time.UTC}
	l := NewKiteLoaderWithClient(fk, map[string]int{"INFY": 1})

	_, err := l.Load(context.Background(), []string{"INFY"}, date("2015-01-01"), date("2024-01-01"))
	require.NoError(t, err)
	assert.Equal(t, 2, fk.calls)
}
