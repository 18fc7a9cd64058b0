package report

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"llm-hedge-fund/internal/tradelog"
	"llm-hedge-fund/internal/types"
)

func fills() []tradelog.Entry {
	return []tradelog.Entry{
		{Kind: tradelog.KindFill, Symbol: "MSFT", Action: "short", Qty: 200, Price: 50},
		{Kind: tradelog.KindFill, Symbol: "AAPL", Action: "buy", Qty: 100, Price: 100},
		{Kind: tradelog.KindFill, Symbol: "AAPL", Action: "buy", Qty: 100, Price: 110},
		{Kind: tradelog.KindEquity, Cash: 1, TotalValue: 1},
		{Kind: tradelog.KindFill, Symbol: "AAPL", Action: "sell", Qty: 200, Price: 120, RealizedGain: 3000},
		{Kind: tradelog.KindFill, Symbol: "MSFT", Action: "cover", Qty: 200, Price: 40, RealizedGain: 2000},
	}
}

func TestAggregate(t *testing.T) {
	rows := Aggregate(fills())
	require.Len(t, rows, 3)

	aapl := rows[0]
	assert.Equal(t, "AAPL", aapl.Symbol)
	assert.Equal(t, 200, aapl.BuyQty)
	assert.InDelta(t, 105.0, aapl.BuyAvg, 1e-9)
	assert.Equal(t, 200, aapl.SellQty)
	assert.InDelta(t, 3000.0, aapl.RealizedPnL, 1e-9)

	msft := rows[1]
	assert.Equal(t, "MSFT", msft.Symbol)
	assert.Equal(t, 200, msft.ShortQty)
	assert.InDelta(t, 40.0, msft.CoverAvg, 1e-9)
	assert.InDelta(t, 8000.0, msft.GrossBuy, 1e-9)
	assert.InDelta(t, 10000.0, msft.GrossSell, 1e-9)

	total := rows[2]
	assert.Equal(t, "TOTAL", total.Symbol)
	assert.InDelta(t, 5000.0, total.RealizedPnL, 1e-9)

	assert.Nil(t, Aggregate([]tradelog.Entry{{Kind: tradelog.KindEquity}}))
}

func TestWriterProducesAllReports(t *testing.T) {
	dir := t.TempDir()
	j, err := tradelog.Open(filepath.Join(dir, "journal"), "run-7")
	require.NoError(t, err)
	require.NoError(t, j.Append(fills()...))
	require.NoError(t, j.Close())

	d := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	res := &types.Result{
		RunID:     "run-7",
		Snapshots: []types.EquitySnapshot{{Date: d, Cash: 90000, PositionsValue: 10000, TotalValue: 100000}},
		Summary:   types.Summary{InitialValue: 100000, FinalValue: 100000, Trades: 5},
	}

	paths, err := New(dir).Report(context.Background(), res, j.Path())
	require.NoError(t, err)

	f, err := os.Open(paths.EquityCurve)
	require.NoError(t, err)
	defer f.Close()
	var curve []*equityRow
	require.NoError(t, gocsv.UnmarshalFile(f, &curve))
	require.Len(t, curve, 1)
	assert.Equal(t, "2024-01-02", curve[0].Date)
	assert.InDelta(t, 100000.0, curve[0].TotalValue, 1e-9)

	tf, err := os.Open(paths.Trades)
	require.NoError(t, err)
	defer tf.Close()
	var trades []*SymbolRow
	require.NoError(t, gocsv.UnmarshalFile(tf, &trades))
	require.Len(t, trades, 3)
	assert.Equal(t, "TOTAL", trades[2].Symbol)

	b, err := os.ReadFile(paths.Summary)
	require.NoError(t, err)
	var doc summaryDoc
	require.NoError(t, json.Unmarshal(b, &doc))
	assert.Equal(t, "run-7", doc.RunID)
	assert.Equal(t, 5, doc.Summary.Trades)
}

func TestSummarizeJournalWithoutFills(t *testing.T) {
	dir := t.TempDir()
	j, err := tradelog.Open(dir, "quiet")
	require.NoError(t, err)
	require.NoError(t, j.Append(tradelog.Entry{Kind: tradelog.KindEquity, Cash: 1}))
	require.NoError(t, j.Close())

	out, err := SummarizeJournal(j.Path(), filepath.Join(dir, "quiet-trades.csv"))
	require.NoError(t, err)
	assert.Empty(t, out)
}
