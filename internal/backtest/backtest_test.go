package backtest

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"llm-hedge-fund/internal/interfaces"
	"llm-hedge-fund/internal/marketdata"
	"llm-hedge-fund/internal/portfolio"
	"llm-hedge-fund/internal/risk"
	"llm-hedge-fund/internal/types"
)

func day(n int) time.Time {
	return time.Date(2024, 1, 1+n, 0, 0, 0, 0, time.UTC)
}

func feed(prices map[string][]float64) *marketdata.Feed {
	s := marketdata.NewSeries()
	for sym, ps := range prices {
		for i, p := range ps {
			s.Add(sym, types.Candle{Ts: day(i).Unix(), Open: p, High: p, Low: p, Close: p})
		}
	}
	return marketdata.NewFeed(s)
}

// scripted emits a fixed signal per instrument and day and checks that no
// history at or after the as-of date is ever passed in.
type scripted struct {
	mu        sync.Mutex
	name      string
	script    map[string]map[int]types.Signal
	lookAhead bool
}

func (s *scripted) Name() string { return s.name }

func (s *scripted) Signals(ctx context.Context, in interfaces.AdvisorInput) ([]types.Signal, error) {
	for _, c := range in.History {
		if !c.Time().Before(in.AsOf) {
			s.mu.Lock()
			s.lookAhead = true
			s.mu.Unlock()
		}
	}
	n := int(in.AsOf.Sub(day(0)).Hours() / 24)
	sig, ok := s.script[in.Symbol][n]
	if !ok {
		return nil, nil
	}
	return []types.Signal{sig}, nil
}

type failing struct{}

func (failing) Name() string { return "failing" }
func (failing) Signals(ctx context.Context, in interfaces.AdvisorInput) ([]types.Signal, error) {
	return nil, errors.New("model unavailable")
}

type recorder struct {
	days  []types.EquitySnapshot
	fills int
}

func (r *recorder) OnDay(ctx context.Context, snap types.EquitySnapshot, fills []types.Fill) {
	r.days = append(r.days, snap)
	r.fills += len(fills)
}

func newBacktester(symbols []string, days int, data interfaces.MarketData, maxPct float64, advs []interfaces.Advisor, opts ...Option) *Backtester {
	cfg := Config{
		Symbols:     symbols,
		Start:       day(0),
		End:         day(days - 1),
		InitialCash: 100000,
		HistoryDays: 30,
		Concurrency: 2,
	}
	assessor := risk.NewAssessor(risk.Config{MaxPositionPct: maxPct, MinPositionPct: 0.05, DefaultMarginRatio: 0.5})
	manager := portfolio.NewManager(portfolio.Config{ActionThreshold: 50, FullConfidence: 80})
	return New(cfg, data, advs, assessor, manager, opts...)
}

func TestBuyThenSellScenario(t *testing.T) {
	adv := &scripted{name: "persona", script: map[string]map[int]types.Signal{
		"AAPL": {
			0: {Direction: types.Bullish, Confidence: 85},
			1: {Direction: types.Bearish, Confidence: 90},
		},
	}}
	rec := &recorder{}
	bt := newBacktester([]string{"AAPL"}, 2, feed(map[string][]float64{"AAPL": {100, 110}}), 0.20,
		[]interfaces.Advisor{adv}, WithObserver(rec), WithRunID("run-1"))

	res, err := bt.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "run-1", res.RunID)
	assert.False(t, adv.lookAhead)

	require.Len(t, res.Fills, 2)
	assert.Equal(t, types.Buy, res.Fills[0].Action)
	assert.Equal(t, 200, res.Fills[0].Quantity)
	assert.InDelta(t, 80000.0, res.Fills[0].CashAfter, 1e-9)
	assert.Equal(t, 85.0, res.Fills[0].Confidence)

	assert.Equal(t, types.Sell, res.Fills[1].Action)
	assert.Equal(t, 200, res.Fills[1].Quantity)
	assert.InDelta(t, 102000.0, res.Final.Cash, 1e-9)
	assert.InDelta(t, 2000.0, res.Final.RealizedGains, 1e-9)
	assert.Zero(t, res.Final.Positions["AAPL"].LongShares)

	require.Len(t, res.Snapshots, 2)
	assert.InDelta(t, 100000.0, res.Snapshots[0].TotalValue, 1e-9)
	assert.InDelta(t, 20000.0, res.Snapshots[0].LongExposure, 1e-9)
	assert.InDelta(t, 102000.0, res.Snapshots[1].TotalValue, 1e-9)

	assert.Len(t, rec.days, 2)
	assert.Equal(t, 2, rec.fills)
	assert.Equal(t, 2, res.Summary.Trades)
	assert.InDelta(t, 0.02, res.Summary.TotalReturn, 1e-12)
	assert.InDelta(t, 2000.0, res.Summary.RealizedGains, 1e-9)
}

func TestShortScenarioCommitsMargin(t *testing.T) {
	adv := &scripted{name: "bear", script: map[string]map[int]types.Signal{
		"MSFT": {0: {Direction: types.Bearish, Confidence: 85}},
	}}
	bt := newBacktester([]string{"MSFT"}, 1, feed(map[string][]float64{"MSFT": {50}}), 0.10, []interfaces.Advisor{adv})

	res, err := bt.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, res.Fills, 1)
	assert.Equal(t, types.Short, res.Fills[0].Action)
	assert.Equal(t, 200, res.Fills[0].Quantity)

	assert.InDelta(t, 110000.0, res.Final.Cash, 1e-9)
	assert.InDelta(t, 5000.0, res.Final.MarginUsed, 1e-9)
	assert.InDelta(t, 105000.0, res.Final.BuyingPower(), 1e-9)
	assert.InDelta(t, 100000.0, res.Snapshots[0].TotalValue, 1e-9)
	assert.InDelta(t, 10000.0, res.Snapshots[0].ShortExposure, 1e-9)
}

func TestDataGapForcesHoldAndIsCounted(t *testing.T) {
	s := marketdata.NewSeries()
	s.Add("AAPL", types.Candle{Ts: day(0).Unix(), Close: 100}, types.Candle{Ts: day(2).Unix(), Close: 100})
	s.Add("MSFT", types.Candle{Ts: day(0).Unix(), Close: 10}, types.Candle{Ts: day(1).Unix(), Close: 10}, types.Candle{Ts: day(2).Unix(), Close: 10})

	adv := &scripted{name: "bull", script: map[string]map[int]types.Signal{
		"AAPL": {0: {Direction: types.Bullish, Confidence: 80}, 1: {Direction: types.Bullish, Confidence: 80}},
	}}
	bt := newBacktester([]string{"AAPL", "MSFT"}, 3, marketdata.NewFeed(s), 0.10, []interfaces.Advisor{adv, failing{}})

	res, err := bt.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, res.Snapshots, 3)

	require.Len(t, res.DataGaps, 1)
	assert.Equal(t, "AAPL", res.DataGaps[0].Symbol)
	assert.Equal(t, day(1), res.DataGaps[0].Date)
	assert.Equal(t, 1, res.Summary.DataGaps)

	// Only the day-0 buy; day 1 is a gap and day 2 has no signal.
	require.Len(t, res.Fills, 1)
	assert.Equal(t, 100, res.Fills[0].Quantity)
	// Gap day is marked at the last known close.
	assert.InDelta(t, 100000.0, res.Snapshots[1].TotalValue, 1e-9)

	// failing is dropped once per priced instrument-day: 2 + 1 + 2.
	assert.Equal(t, 5, res.Summary.AdvisorFailures)
}

// oversell holds until symbol trades at atPrice, then sells shares that were
// never bought.
type oversell struct {
	symbol  string
	atPrice float64
}

func (o oversell) Decide(v types.Verdict, ra types.RiskAssessment, pf types.PortfolioSnapshot) types.Order {
	if ra.Symbol == o.symbol && ra.CurrentPrice >= o.atPrice {
		return types.Order{Symbol: ra.Symbol, Action: types.Sell, Quantity: 10}
	}
	return types.HoldOrder(ra.Symbol)
}

func TestRunAbortsOnInvariantViolation(t *testing.T) {
	data := feed(map[string][]float64{"AAPL": {100, 101, 102}, "MSFT": {50, 51, 52}})
	cfg := Config{Symbols: []string{"AAPL", "MSFT"}, Start: day(0), End: day(2), InitialCash: 100000, HistoryDays: 5}
	assessor := risk.NewAssessor(risk.Config{MaxPositionPct: 0.2})
	rec := &recorder{}

	_, err := New(cfg, data, nil, assessor, oversell{symbol: "MSFT", atPrice: 51}, WithObserver(rec)).Run(context.Background())
	require.Error(t, err)

	var iv *types.InvariantViolation
	require.True(t, errors.As(err, &iv), "expected InvariantViolation, got %v", err)
	assert.Equal(t, "MSFT", iv.Symbol)
	assert.Equal(t, day(1), iv.Date)
	assert.Equal(t, types.Order{Symbol: "MSFT", Action: types.Sell, Quantity: 10}, iv.Order)

	// day 0 completed, day 1 aborted before its snapshot
	assert.Len(t, rec.days, 1)
}

func TestRunRejectsBadConfig(t *testing.T) {
	data := feed(map[string][]float64{"AAPL": {100}})
	assessor := risk.NewAssessor(risk.Config{MaxPositionPct: 0.2})
	manager := portfolio.NewManager(portfolio.Config{ActionThreshold: 50, FullConfidence: 80})

	tests := []struct {
		name  string
		cfg   Config
		field string
	}{
		{"no cash", Config{Symbols: []string{"AAPL"}, Start: day(0), End: day(1)}, "initial_cash"},
		{"reversed", Config{Symbols: []string{"AAPL"}, Start: day(2), End: day(1), InitialCash: 1}, "date_range"},
		{"no symbols", Config{Start: day(0), End: day(1), InitialCash: 1}, "symbols"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.cfg, data, nil, assessor, manager).Run(context.Background())
			var ce *types.ConfigurationError
			require.True(t, errors.As(err, &ce))
			assert.Equal(t, tt.field, ce.Field)
		})
	}
}

func TestRunWithoutTradingDays(t *testing.T) {
	bt := newBacktester([]string{"AAPL"}, 1, feed(map[string][]float64{}), 0.2, nil)
	_, err := bt.Run(context.Background())
	assert.Error(t, err)
}

func TestMaxDrawdown(t *testing.T) {
	dd, at := MaxDrawdown([]float64{100, 120, 90, 130})
	assert.InDelta(t, 0.25, dd, 1e-12)
	assert.Equal(t, 2, at)

	dd, at = MaxDrawdown([]float64{1, 2, 3})
	assert.Zero(t, dd)
	assert.Equal(t, -1, at)
}

func TestSharpeAndSortino(t *testing.T) {
	assert.Zero(t, Sharpe([]float64{0.01, 0.01, 0.01}, 0))
	assert.Zero(t, Sortino([]float64{0.01, 0.02, 0.03}, 0))

	rets := []float64{0.01, -0.02, 0.03, 0.00}
	assert.Greater(t, Sharpe(rets, 0), 0.0)
	assert.Greater(t, Sortino(rets, 0), Sharpe(rets, 0))
	assert.Less(t, Sharpe(rets, 10), 0.0)
}

func TestSummarize(t *testing.T) {
	snaps := []types.EquitySnapshot{
		{Date: day(0), TotalValue: 120},
		{Date: day(1), TotalValue: 90},
		{Date: day(2), TotalValue: 130},
	}
	s := Summarize(snaps, 100, 0)
	assert.InDelta(t, 0.3, s.TotalReturn, 1e-12)
	assert.Len(t, s.DailyReturns, 3)
	assert.InDelta(t, 0.2, s.DailyReturns[0], 1e-12)
	assert.InDelta(t, 0.25, s.MaxDrawdown, 1e-12)
	assert.Equal(t, day(1), s.MaxDrawdownDate)

	empty := Summarize(nil, 100, 0)
	assert.Equal(t, 100.0, empty.FinalValue)
	assert.Zero(t, empty.SharpeRatio)
}
