package marketdata

import (
	"context"
	"fmt"
	"time"

	kiteconnect "github.com/zerodha/gokiteconnect/v4"

	"llm-hedge-fund/internal/logger"
	"llm-hedge-fund/internal/types"
)

// maxDaysPerRequest stays under Kite's 2000-day limit for the "day" interval.
const maxDaysPerRequest = 1800

// HistoricalClient is the part of kiteconnect.Client the loader needs.
type HistoricalClient interface {
	GetHistoricalData(instrumentToken int, interval string, fromDate time.Time, toDate time.Time, continuous bool, OI bool) ([]kiteconnect.HistoricalData, error)
}

// KiteLoader downloads daily candles from Zerodha Kite Connect.
type KiteLoader struct {
	client HistoricalClient
	tokens map[string]int
}

func NewKiteLoader(apiKey, accessToken string, tokens map[string]int) *KiteLoader {
	kc := kiteconnect.New(apiKey)
	kc.SetAccessToken(accessToken)
	return &KiteLoader{client: kc, tokens: tokens}
}

// NewKiteLoaderWithClient is used when the client is built elsewhere.
func NewKiteLoaderWithClient(client HistoricalClient, tokens map[string]int) *KiteLoader {
	return &KiteLoader{client: client, tokens: tokens}
}

// Load fetches [from, to] for every symbol, chunking long ranges.
func (k *KiteLoader) Load(ctx context.Context, symbols []string, from, to time.Time) (*Series, error) {
	s := NewSeries()
	for _, sym := range symbols {
		token, ok := k.tokens[sym]
		if !ok {
			return nil, fmt.Errorf("no instrument token for %s", sym)
		}

		for chunkStart := from; !chunkStart.After(to); chunkStart = chunkStart.AddDate(0, 0, maxDaysPerRequest+1) {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			chunkEnd := chunkStart.AddDate(0, 0, maxDaysPerRequest)
			if chunkEnd.After(to) {
				chunkEnd = to
			}

			data, err := k.client.GetHistoricalData(token, "day", chunkStart, chunkEnd, false, false)
			if err != nil {
				return nil, fmt.Errorf("kite historical %s [%s..%s]: %w", sym,
					chunkStart.Format("2006-01-02"), chunkEnd.Format("2006-01-02"), err)
			}
			s.Add(sym, fromHistorical(data)...)
			logger.Debug(ctx, "Fetched Kite candles", "symbol", sym, "count", len(data), "from", chunkStart, "to", chunkEnd)
		}
	}
	return s, nil
}

func fromHistorical(data []kiteconnect.HistoricalData) []types.Candle {
	out := make([]types.Candle, 0, len(data))
	for _, d := range data {
		out = append(out, types.Candle{
			Ts:    Day(d.Date.Time).Unix(),
			Open:  d.Open,
			High:  d.High,
			Low:   d.Low,
			Close: d.Close,
			Vol:   float64(d.Volume),
		})
	}
	return out
}
