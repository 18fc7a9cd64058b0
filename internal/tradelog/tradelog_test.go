package tradelog

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"llm-hedge-fund/internal/types"
)

func TestJournalRecordsDays(t *testing.T) {
	dir := t.TempDir()
	j, err := Open(dir, "run-1")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "run-1.jsonl"), j.Path())

	d := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	j.OnDay(context.Background(),
		types.EquitySnapshot{Date: d, Cash: 80000, TotalValue: 100000},
		[]types.Fill{{ID: "f1", Date: d, Symbol: "AAPL", Action: types.Buy, Quantity: 200, Price: 100, CashAfter: 80000, Confidence: 85}},
	)
	require.NoError(t, j.Close())

	entries, err := Read(j.Path())
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, KindFill, entries[0].Kind)
	assert.Equal(t, "2024-03-01", entries[0].Date)
	assert.Equal(t, 200, entries[0].Qty)
	assert.Equal(t, "buy", entries[0].Action)
	assert.Equal(t, KindEquity, entries[1].Kind)
	assert.Equal(t, 100000.0, entries[1].TotalValue)
}

func TestCompressOlder(t *testing.T) {
	dir := t.TempDir()
	j, err := Open(dir, "old")
	require.NoError(t, err)
	require.NoError(t, j.Append(Entry{Kind: KindEquity, Date: "2024-01-01", Cash: 1, TotalValue: 1}))
	require.NoError(t, j.Close())

	fresh, err := Open(dir, "fresh")
	require.NoError(t, err)
	require.NoError(t, fresh.Close())

	past := time.Now().AddDate(0, 0, -10)
	require.NoError(t, os.Chtimes(j.Path(), past, past))

	require.NoError(t, CompressOlder(dir, 5))

	_, err = os.Stat(j.Path())
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(fresh.Path())
	assert.NoError(t, err)

	entries, err := Read(j.Path() + ".gz")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, 1.0, entries[0].TotalValue)
}

func TestCompressOlderDisabled(t *testing.T) {
	assert.NoError(t, CompressOlder(t.TempDir(), 0))
}
