package signals

import (
	"fmt"
	"math"
	"strings"

	"llm-hedge-fund/internal/types"
)

// ParseDirection accepts only the closed set of directions.
func ParseDirection(s string) (types.Direction, error) {
	switch d := types.Direction(strings.ToLower(strings.TrimSpace(s))); d {
	case types.Bullish, types.Bearish, types.Neutral:
		return d, nil
	default:
		return "", fmt.Errorf("unknown signal direction %q", s)
	}
}

// New builds a validated signal. Confidence must lie within [0,100].
func New(symbol, source string, dir types.Direction, confidence float64) (types.Signal, error) {
	if _, err := ParseDirection(string(dir)); err != nil {
		return types.Signal{}, err
	}
	if math.IsNaN(confidence) || confidence < 0 || confidence > 100 {
		return types.Signal{}, fmt.Errorf("confidence %.2f outside [0,100]", confidence)
	}
	return types.Signal{Symbol: symbol, Direction: dir, Confidence: confidence, Source: source}, nil
}

// Aggregate nets one round of signals for one instrument. Each signal weighs
// confidence*sign(direction); the sum is divided by the number of non-neutral
// signals. No signals at all is a neutral verdict.
func Aggregate(sigs []types.Signal) types.Verdict {
	sum := 0.0
	directional := 0
	for _, s := range sigs {
		sign := s.Direction.Sign()
		if sign == 0 {
			continue
		}
		sum += s.Confidence * sign
		directional++
	}

	div := float64(directional)
	if div == 0 {
		div = 1
	}
	score := sum / div

	v := types.Verdict{Direction: types.Neutral, Confidence: math.Abs(score), Signals: len(sigs)}
	switch {
	case score > 0:
		v.Direction = types.Bullish
	case score < 0:
		v.Direction = types.Bearish
	default:
		v.Confidence = 0
	}
	return v
}
