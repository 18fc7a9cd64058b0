package marketdataobs

import (
	"context"
	"errors"
	"time"

	"llm-hedge-fund/internal/interfaces"
	"llm-hedge-fund/internal/logger"
	"llm-hedge-fund/internal/trace"
	"llm-hedge-fund/internal/types"
)

// observableFeed wraps a MarketData feed with observability (logging & tracing)
type observableFeed struct {
	feed interfaces.MarketData
}

// Compile-time interface check
var _ interfaces.MarketData = (*observableFeed)(nil)

// Wrap wraps a feed with observability middleware
func Wrap(feed interfaces.MarketData) interfaces.MarketData {
	return &observableFeed{feed: feed}
}

func (of *observableFeed) Close(ctx context.Context, symbol string, date time.Time) (float64, error) {
	ctx, span := trace.StartSpan(ctx, "marketdata.Close")
	defer span.End()

	price, err := of.feed.Close(ctx, symbol, date)
	if err != nil {
		var gap *types.DataGapError
		if errors.As(err, &gap) {
			logger.DebugSkip(ctx, 1, "Close price missing", "symbol", symbol, "date", date.Format("2006-01-02"), "reason", gap.Reason)
		} else {
			logger.ErrorWithErrSkip(ctx, 1, "Failed to fetch close price", err, "symbol", symbol, "date", date.Format("2006-01-02"))
		}
		return 0, err
	}

	logger.DebugSkip(ctx, 1, "Close price fetched", "symbol", symbol, "date", date.Format("2006-01-02"), "price", price)
	return price, nil
}

func (of *observableFeed) History(ctx context.Context, symbol string, before time.Time, n int) ([]types.Candle, error) {
	ctx, span := trace.StartSpan(ctx, "marketdata.History")
	defer span.End()

	cs, err := of.feed.History(ctx, symbol, before, n)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Failed to fetch history", err, "symbol", symbol, "before", before.Format("2006-01-02"), "count", n)
		return nil, err
	}

	logger.DebugSkip(ctx, 1, "History fetched", "symbol", symbol, "requested", n, "received", len(cs))
	return cs, nil
}

func (of *observableFeed) TradingDays(ctx context.Context, start, end time.Time) ([]time.Time, error) {
	ctx, span := trace.StartSpan(ctx, "marketdata.TradingDays")
	defer span.End()

	days, err := of.feed.TradingDays(ctx, start, end)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Failed to list trading days", err)
		return nil, err
	}

	logger.InfoSkip(ctx, 1, "Trading calendar resolved",
		"start", start.Format("2006-01-02"),
		"end", end.Format("2006-01-02"),
		"days", len(days),
	)
	return days, nil
}
