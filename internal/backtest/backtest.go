package backtest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"llm-hedge-fund/internal/advisors"
	"llm-hedge-fund/internal/interfaces"
	"llm-hedge-fund/internal/ledger"
	"llm-hedge-fund/internal/logger"
	"llm-hedge-fund/internal/risk"
	"llm-hedge-fund/internal/signals"
	"llm-hedge-fund/internal/types"
)

type Config struct {
	Symbols      []string
	Start, End   time.Time
	InitialCash  float64
	RiskFreeRate float64
	// HistoryDays is how many prior candles advisors and the risk assessor see.
	HistoryDays int
	// Concurrency bounds how many instruments gather signals at once.
	Concurrency int
}

// Validate reports the first setting that would make a run meaningless.
func (c Config) Validate() error {
	switch {
	case len(c.Symbols) == 0:
		return &types.ConfigurationError{Field: "symbols", Reason: "cannot be empty"}
	case c.InitialCash <= 0:
		return &types.ConfigurationError{Field: "initial_cash", Reason: fmt.Sprintf("must be positive, got %.2f", c.InitialCash)}
	case c.Start.IsZero() || c.End.IsZero():
		return &types.ConfigurationError{Field: "date_range", Reason: "start and end are required"}
	case c.End.Before(c.Start):
		return &types.ConfigurationError{Field: "date_range", Reason: fmt.Sprintf("end %s before start %s", c.End.Format("2006-01-02"), c.Start.Format("2006-01-02"))}
	}
	return nil
}

type Option func(*Backtester)

// WithObserver registers an observer notified after every trading day.
func WithObserver(o interfaces.DayObserver) Option {
	return func(b *Backtester) { b.observers = append(b.observers, o) }
}

// WithRunID fixes the run id instead of generating one.
func WithRunID(id string) Option {
	return func(b *Backtester) { b.runID = id }
}

// Backtester replays trading days through the decision pipeline against a
// ledger it owns for the duration of one run.
type Backtester struct {
	cfg       Config
	data      interfaces.MarketData
	advisors  []interfaces.Advisor
	assessor  *risk.Assessor
	manager   interfaces.Decider
	observers []interfaces.DayObserver
	runID     string
}

var _ interfaces.Runner = (*Backtester)(nil)

func New(cfg Config, data interfaces.MarketData, advs []interfaces.Advisor, assessor *risk.Assessor, manager interfaces.Decider, opts ...Option) *Backtester {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	b := &Backtester{cfg: cfg, data: data, advisors: advs, assessor: assessor, manager: manager}
	for _, o := range opts {
		o(b)
	}
	if b.runID == "" {
		b.runID = uuid.NewString()
	}
	return b
}

// instrumentDay is the resolved input for one instrument on one day.
type instrumentDay struct {
	symbol   string
	price    float64
	history  []types.Candle
	gap      bool
	signals  []types.Signal
	failures int
}

// Run simulates every trading day in [Start, End]. Data gaps are absorbed and
// counted; an invariant violation aborts the run.
func (b *Backtester) Run(ctx context.Context) (*types.Result, error) {
	if err := b.cfg.Validate(); err != nil {
		return nil, err
	}

	days, err := b.data.TradingDays(ctx, b.cfg.Start, b.cfg.End)
	if err != nil {
		return nil, fmt.Errorf("trading days: %w", err)
	}
	if len(days) == 0 {
		return nil, fmt.Errorf("no trading days between %s and %s", b.cfg.Start.Format("2006-01-02"), b.cfg.End.Format("2006-01-02"))
	}

	logger.Info(ctx, "Backtest starting",
		"run_id", b.runID,
		"symbols", b.cfg.Symbols,
		"days", len(days),
		"initial_cash", b.cfg.InitialCash,
		"advisors", len(b.advisors),
	)

	l := ledger.New(b.cfg.InitialCash)
	res := &types.Result{RunID: b.runID}
	lastPrice := map[string]float64{}
	advisorFailures := 0

	for _, day := range days {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		inputs, err := b.resolve(ctx, day)
		if err != nil {
			return nil, err
		}
		for _, in := range inputs {
			if in.gap {
				res.DataGaps = append(res.DataGaps, types.DataGap{Date: day, Symbol: in.symbol, Reason: "no close"})
				continue
			}
			lastPrice[in.symbol] = in.price
		}
		equity := l.Value(lastPrice).Total

		if err := b.gather(ctx, day, inputs); err != nil {
			return nil, err
		}

		var fills []types.Fill
		for _, in := range inputs {
			advisorFailures += in.failures
			if in.gap {
				continue
			}
			fill, err := b.step(ctx, l, day, equity, in)
			if err != nil {
				return nil, err
			}
			if fill != nil {
				fills = append(fills, *fill)
			}
		}
		res.Fills = append(res.Fills, fills...)

		val := l.Value(lastPrice)
		snap := types.EquitySnapshot{
			Date:           day,
			Cash:           val.Cash,
			PositionsValue: val.Total - val.Cash,
			TotalValue:     val.Total,
			LongExposure:   val.LongExposure,
			ShortExposure:  val.ShortExposure,
			MarginUsed:     l.MarginUsed(),
		}
		res.Snapshots = append(res.Snapshots, snap)
		for _, o := range b.observers {
			o.OnDay(ctx, snap, fills)
		}
	}

	res.Final = l.Snapshot()
	res.Summary = Summarize(res.Snapshots, b.cfg.InitialCash, b.cfg.RiskFreeRate)
	res.Summary.Trades = len(res.Fills)
	res.Summary.RealizedGains = l.RealizedGains()
	res.Summary.DataGaps = len(res.DataGaps)
	res.Summary.AdvisorFailures = advisorFailures

	logger.Info(ctx, "Backtest finished",
		"run_id", b.runID,
		"final_value", res.Summary.FinalValue,
		"total_return", res.Summary.TotalReturn,
		"sharpe", res.Summary.SharpeRatio,
		"max_drawdown", res.Summary.MaxDrawdown,
		"trades", res.Summary.Trades,
		"data_gaps", res.Summary.DataGaps,
	)
	return res, nil
}

// resolve fetches the close and trailing history of every instrument for day,
// in instrument order. A missing close marks the instrument as a gap.
func (b *Backtester) resolve(ctx context.Context, day time.Time) ([]*instrumentDay, error) {
	out := make([]*instrumentDay, 0, len(b.cfg.Symbols))
	for _, sym := range b.cfg.Symbols {
		in := &instrumentDay{symbol: sym}
		out = append(out, in)

		price, err := b.data.Close(ctx, sym, day)
		if err != nil {
			if isGap(err) {
				in.gap = true
				logger.Risk(ctx, sym, "DATA_GAP", "date", day.Format("2006-01-02"), "error", err)
				continue
			}
			return nil, fmt.Errorf("close %s on %s: %w", sym, day.Format("2006-01-02"), err)
		}
		in.price = price

		hist, err := b.data.History(ctx, sym, day, b.cfg.HistoryDays)
		if err != nil && !isGap(err) {
			return nil, fmt.Errorf("history %s before %s: %w", sym, day.Format("2006-01-02"), err)
		}
		in.history = hist
	}
	return out, nil
}

// gather fans signal generation out across instruments. Results land on each
// input so the ledger phase still runs in instrument order.
func (b *Backtester) gather(ctx context.Context, day time.Time, inputs []*instrumentDay) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.cfg.Concurrency)
	for _, in := range inputs {
		if in.gap {
			continue
		}
		g.Go(func() error {
			in.signals, in.failures = advisors.GatherSignals(gctx, b.advisors, interfaces.AdvisorInput{
				Symbol:  in.symbol,
				AsOf:    day,
				Price:   in.price,
				History: in.history,
			})
			return nil
		})
	}
	return g.Wait()
}

// step runs risk, aggregation, decision and ledger for one instrument.
func (b *Backtester) step(ctx context.Context, l *ledger.Ledger, day time.Time, equity float64, in *instrumentDay) (*types.Fill, error) {
	ra := b.assessor.Assess(ctx, in.symbol, equity, in.price, in.history)
	verdict := signals.Aggregate(in.signals)
	order := b.manager.Decide(verdict, ra, l.Snapshot())

	logger.Decision(ctx, in.symbol, string(order.Action), verdict.Confidence, string(verdict.Direction),
		"date", day.Format("2006-01-02"),
		"quantity", order.Quantity,
		"price", in.price,
		"ceiling", ra.MaxPositionValue,
		"signals", verdict.Signals,
	)

	fill, err := l.Apply(ctx, day, order, in.price, ra.MarginRatio)
	if err != nil {
		return nil, fmt.Errorf("apply %s %s: %w", order.Action, in.symbol, err)
	}
	if fill != nil {
		fill.Confidence = verdict.Confidence
	}
	return fill, nil
}

func isGap(err error) bool {
	var gap *types.DataGapError
	return errors.As(err, &gap)
}
