package advisors

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	"llm-hedge-fund/internal/interfaces"
	"llm-hedge-fund/internal/signals"
	"llm-hedge-fund/internal/ta"
	"llm-hedge-fund/internal/trace"
	"llm-hedge-fund/internal/types"
)

// Completer sends one system+user exchange to a model and returns its text reply.
type Completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

const defaultSchema = `{"signal":"bullish|bearish|neutral","confidence":"number 0-100","reasoning":"string"}`

// recentCloses is how many trailing closes go into the prompt.
const recentCloses = 20

// LLM asks a model, primed with an investor persona, for one signal per instrument.
type LLM struct {
	name      string
	system    string
	schema    string
	params    ta.IndicatorParams
	completer Completer
}

var _ interfaces.Advisor = (*LLM)(nil)

func NewLLM(name, system, schema string, p ta.IndicatorParams, c Completer) *LLM {
	if schema == "" {
		schema = defaultSchema
	}
	return &LLM{name: name, system: system, schema: schema, params: p, completer: c}
}

func (l *LLM) Name() string { return l.name }

func (l *LLM) Signals(ctx context.Context, in interfaces.AdvisorInput) ([]types.Signal, error) {
	ctx, span := trace.StartSpan(ctx, "llm-advisor-call")
	defer span.End()

	state, err := buildState(in, l.params)
	if err != nil {
		return nil, err
	}
	user := fmt.Sprintf("You will receive state as JSON. Respond ONLY with compact JSON matching the schema.\nSchema:%s\nState:%s", l.schema, state)

	text, err := l.completer.Complete(ctx, l.system, user)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", l.name, err)
	}
	sig, err := ParseSignal(text)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", l.name, err)
	}
	sig.Symbol = in.Symbol
	sig.Source = l.name
	return []types.Signal{sig}, nil
}

// buildState renders the model input. Undefined indicators are omitted since
// JSON has no NaN.
func buildState(in interfaces.AdvisorInput, p ta.IndicatorParams) (string, error) {
	candles := append(append([]types.Candle(nil), in.History...), types.Candle{Ts: in.AsOf.Unix(), Open: in.Price, High: in.Price, Low: in.Price, Close: in.Price})
	inds := ta.Calculate(candles, p)

	indicators := map[string]float64{}
	put := func(k string, v float64) {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			indicators[k] = round2(v)
		}
	}
	for w, v := range inds.SMA {
		put(fmt.Sprintf("sma_%d", w), v)
	}
	put("rsi", inds.RSI)
	put("bb_middle", inds.BB.Middle)
	put("bb_upper", inds.BB.Upper)
	put("bb_lower", inds.BB.Lower)
	put("atr", inds.ATR)

	closes, _, _ := ta.Closes(in.History)
	if len(closes) > recentCloses {
		closes = closes[len(closes)-recentCloses:]
	}
	for i := range closes {
		closes[i] = round2(closes[i])
	}

	state := map[string]any{
		"symbol":        in.Symbol,
		"as_of":         in.AsOf.Format("2006-01-02"),
		"price":         in.Price,
		"indicators":    indicators,
		"recent_closes": closes,
	}
	b, err := json.Marshal(state)
	if err != nil {
		return "", fmt.Errorf("marshal advisor state: %w", err)
	}
	return string(b), nil
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }

type rawSignal struct {
	Signal     string   `json:"signal"`
	Confidence *float64 `json:"confidence"`
	Reasoning  string   `json:"reasoning"`
}

// ParseSignal extracts {signal, confidence, reasoning} from model output. The
// object may be wrapped in prose or a code fence; anything else is an error.
func ParseSignal(text string) (types.Signal, error) {
	t := strings.TrimSpace(text)
	start := strings.Index(t, "{")
	end := strings.LastIndex(t, "}")
	if start < 0 || end <= start {
		return types.Signal{}, errors.New("no JSON object in model output")
	}

	var raw rawSignal
	dec := json.NewDecoder(strings.NewReader(t[start : end+1]))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&raw); err != nil {
		return types.Signal{}, fmt.Errorf("invalid model output: %w", err)
	}
	if raw.Confidence == nil {
		return types.Signal{}, errors.New("model output missing confidence")
	}
	dir, err := signals.ParseDirection(raw.Signal)
	if err != nil {
		return types.Signal{}, err
	}
	sig, err := signals.New("", "", dir, *raw.Confidence)
	if err != nil {
		return types.Signal{}, err
	}
	sig.Reasoning = raw.Reasoning
	return sig, nil
}
