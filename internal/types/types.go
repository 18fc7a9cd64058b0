package types

import "time"

type Candle struct {
	Ts                          int64
	Open, High, Low, Close, Vol float64
}

// Time returns the candle timestamp in UTC.
func (c Candle) Time() time.Time { return time.Unix(c.Ts, 0).UTC() }

type Indicators struct {
	SMA map[int]float64
	RSI float64
	BB  struct{ Middle, Upper, Lower float64 }
	ATR float64
}

// Direction is the closed set of opinions an advisor may hold about an instrument.
type Direction string

const (
	Bullish Direction = "bullish"
	Bearish Direction = "bearish"
	Neutral Direction = "neutral"
)

// Sign maps a direction onto +1, -1 or 0.
func (d Direction) Sign() float64 {
	switch d {
	case Bullish:
		return 1
	case Bearish:
		return -1
	default:
		return 0
	}
}

// Signal is one advisor's opinion about one instrument for one round.
type Signal struct {
	Symbol     string    `json:"symbol"`
	Direction  Direction `json:"direction"`
	Confidence float64   `json:"confidence"`
	Source     string    `json:"source"`
	Reasoning  string    `json:"reasoning,omitempty"`
}

// Verdict is the cross-advisor aggregate for one instrument.
type Verdict struct {
	Direction  Direction `json:"direction"`
	Confidence float64   `json:"confidence"`
	Signals    int       `json:"signals"`
}

type RiskAssessment struct {
	Symbol           string  `json:"symbol"`
	MaxPositionValue float64 `json:"max_position_value"`
	CurrentPrice     float64 `json:"current_price"`
	MarginRatio      float64 `json:"margin_ratio"`
	Degraded         bool    `json:"degraded,omitempty"`
}

type Action string

const (
	Buy   Action = "buy"
	Sell  Action = "sell"
	Short Action = "short"
	Cover Action = "cover"
	Hold  Action = "hold"
)

type Order struct {
	Symbol   string `json:"symbol"`
	Action   Action `json:"action"`
	Quantity int    `json:"quantity"`
}

// HoldOrder is the no-op order for symbol.
func HoldOrder(symbol string) Order { return Order{Symbol: symbol, Action: Hold} }

type Position struct {
	LongShares     int     `json:"long_shares"`
	LongCostBasis  float64 `json:"long_cost_basis"`
	ShortShares    int     `json:"short_shares"`
	ShortCostBasis float64 `json:"short_cost_basis"`
	MarginUsed     float64 `json:"margin_used"`
	RealizedGains  float64 `json:"realized_gains"`
}

// PortfolioSnapshot is a read-only copy of the ledger handed to the decision pipeline.
type PortfolioSnapshot struct {
	Cash          float64             `json:"cash"`
	MarginUsed    float64             `json:"margin_used"`
	RealizedGains float64             `json:"realized_gains"`
	Positions     map[string]Position `json:"positions"`
}

// BuyingPower is cash not committed as short margin.
func (p PortfolioSnapshot) BuyingPower() float64 {
	bp := p.Cash - p.MarginUsed
	if bp < 0 {
		return 0
	}
	return bp
}

// Fill records one applied order.
type Fill struct {
	ID           string    `json:"id"`
	Date         time.Time `json:"date"`
	Symbol       string    `json:"symbol"`
	Action       Action    `json:"action"`
	Quantity     int       `json:"quantity"`
	Price        float64   `json:"price"`
	RealizedGain float64   `json:"realized_gain"`
	CashAfter    float64   `json:"cash_after"`
	Confidence   float64   `json:"confidence"`
}

type EquitySnapshot struct {
	Date           time.Time `json:"date"`
	Cash           float64   `json:"cash"`
	PositionsValue float64   `json:"positions_value"`
	TotalValue     float64   `json:"total_value"`
	LongExposure   float64   `json:"long_exposure"`
	ShortExposure  float64   `json:"short_exposure"`
	MarginUsed     float64   `json:"margin_used"`
}

type DataGap struct {
	Date   time.Time `json:"date"`
	Symbol string    `json:"symbol"`
	Reason string    `json:"reason"`
}

type Summary struct {
	InitialValue    float64   `json:"initial_value"`
	FinalValue      float64   `json:"final_value"`
	TotalReturn     float64   `json:"total_return"`
	DailyReturns    []float64 `json:"daily_returns"`
	SharpeRatio     float64   `json:"sharpe_ratio"`
	SortinoRatio    float64   `json:"sortino_ratio"`
	MaxDrawdown     float64   `json:"max_drawdown"`
	MaxDrawdownDate time.Time `json:"max_drawdown_date,omitempty"`
	Trades          int       `json:"trades"`
	RealizedGains   float64   `json:"realized_gains"`
	DataGaps        int       `json:"data_gaps"`
	AdvisorFailures int       `json:"advisor_failures"`
}

// Result is everything a finished run exposes for rendering.
type Result struct {
	RunID     string            `json:"run_id"`
	Snapshots []EquitySnapshot  `json:"snapshots"`
	Fills     []Fill            `json:"fills"`
	DataGaps  []DataGap         `json:"data_gaps"`
	Final     PortfolioSnapshot `json:"final"`
	Summary   Summary           `json:"summary"`
}
