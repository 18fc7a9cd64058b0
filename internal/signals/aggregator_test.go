package signals

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"llm-hedge-fund/internal/types"
)

func sig(dir types.Direction, conf float64) types.Signal {
	return types.Signal{Symbol: "AAPL", Direction: dir, Confidence: conf, Source: "test"}
}

func TestAggregateOpposingEqualSignalsAreNeutral(t *testing.T) {
	v := Aggregate([]types.Signal{sig(types.Bullish, 70), sig(types.Bearish, 70)})
	assert.Equal(t, types.Neutral, v.Direction)
	assert.Zero(t, v.Confidence)
}

func TestAggregateNoSignals(t *testing.T) {
	v := Aggregate(nil)
	assert.Equal(t, types.Neutral, v.Direction)
	assert.Zero(t, v.Confidence)
	assert.Zero(t, v.Signals)
}

func TestAggregateAllNeutral(t *testing.T) {
	v := Aggregate([]types.Signal{sig(types.Neutral, 90), sig(types.Neutral, 40)})
	assert.Equal(t, types.Neutral, v.Direction)
	assert.Equal(t, 2, v.Signals)
}

func TestAggregateNeutralsDoNotDilute(t *testing.T) {
	v := Aggregate([]types.Signal{sig(types.Bullish, 80), sig(types.Neutral, 100), sig(types.Neutral, 100)})
	assert.Equal(t, types.Bullish, v.Direction)
	assert.InDelta(t, 80.0, v.Confidence, 1e-9)
}

func TestAggregateConfidentContrarianWins(t *testing.T) {
	v := Aggregate([]types.Signal{
		sig(types.Bullish, 20),
		sig(types.Bullish, 20),
		sig(types.Bullish, 20),
		sig(types.Bearish, 95),
	})
	// (60 - 95) / 4
	assert.Equal(t, types.Bearish, v.Direction)
	assert.InDelta(t, 8.75, v.Confidence, 1e-9)
}

func TestParseDirection(t *testing.T) {
	d, err := ParseDirection(" Bullish ")
	require.NoError(t, err)
	assert.Equal(t, types.Bullish, d)

	_, err = ParseDirection("moon")
	assert.Error(t, err)
}

func TestNewValidatesConfidence(t *testing.T) {
	_, err := New("AAPL", "x", types.Bullish, 101)
	assert.Error(t, err)

	s, err := New("AAPL", "x", types.Bearish, 55)
	require.NoError(t, err)
	assert.Equal(t, types.Bearish, s.Direction)
}
