package interfaces

import (
	"context"
	"time"

	"llm-hedge-fund/internal/types"
)

type MarketData interface {
	// Close returns the closing price on date, or a *types.DataGapError.
	Close(ctx context.Context, symbol string, date time.Time) (float64, error)

	// History returns up to n candles strictly before the given time, oldest first.
	History(ctx context.Context, symbol string, before time.Time, n int) ([]types.Candle, error)

	// TradingDays returns the sorted dates with data between start and end inclusive.
	TradingDays(ctx context.Context, start, end time.Time) ([]time.Time, error)
}
