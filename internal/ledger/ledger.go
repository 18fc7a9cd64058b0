package ledger

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"llm-hedge-fund/internal/logger"
	"llm-hedge-fund/internal/types"
)

// epsilon absorbs floating point residue when checking cash constraints.
const epsilon = 1e-6

// Ledger is the mutable account for one simulation run. It is not safe for
// concurrent use; the simulator owns it exclusively.
type Ledger struct {
	cash       float64
	marginUsed float64
	realized   float64
	positions  map[string]*types.Position
}

func New(initialCash float64) *Ledger {
	return &Ledger{
		cash:      initialCash,
		positions: make(map[string]*types.Position),
	}
}

func (l *Ledger) Cash() float64          { return l.cash }
func (l *Ledger) MarginUsed() float64    { return l.marginUsed }
func (l *Ledger) RealizedGains() float64 { return l.realized }

// Position returns a copy of the holdings for symbol.
func (l *Ledger) Position(symbol string) types.Position {
	if p := l.positions[symbol]; p != nil {
		return *p
	}
	return types.Position{}
}

// Symbols lists instruments that have ever been traded, sorted.
func (l *Ledger) Symbols() []string {
	out := make([]string, 0, len(l.positions))
	for s := range l.positions {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// Snapshot returns a deep copy for read-only consumers.
func (l *Ledger) Snapshot() types.PortfolioSnapshot {
	pos := make(map[string]types.Position, len(l.positions))
	for s, p := range l.positions {
		pos[s] = *p
	}
	return types.PortfolioSnapshot{
		Cash:          l.cash,
		MarginUsed:    l.marginUsed,
		RealizedGains: l.realized,
		Positions:     pos,
	}
}

// Valuation is a mark-to-market breakdown of the ledger.
type Valuation struct {
	Cash          float64
	LongExposure  float64
	ShortExposure float64
	Total         float64
}

// Value marks every position at prices. Short proceeds already sit in cash, so
// each short contributes -notional at cost plus its unrealized P&L. Symbols
// without a price are carried at cost.
func (l *Ledger) Value(prices map[string]float64) Valuation {
	v := Valuation{Cash: l.cash, Total: l.cash}
	for s, p := range l.positions {
		price, ok := prices[s]
		if p.LongShares > 0 {
			lp := price
			if !ok || lp <= 0 {
				lp = p.LongCostBasis
			}
			long := float64(p.LongShares) * lp
			v.LongExposure += long
			v.Total += long
		}
		if p.ShortShares > 0 {
			sp := price
			if !ok || sp <= 0 {
				sp = p.ShortCostBasis
			}
			shares := float64(p.ShortShares)
			v.ShortExposure += shares * sp
			v.Total += -shares*p.ShortCostBasis + shares*(p.ShortCostBasis-sp)
		}
	}
	return v
}

func (l *Ledger) violation(date time.Time, o types.Order, format string, args ...any) error {
	return &types.InvariantViolation{Symbol: o.Symbol, Date: date, Order: o, Detail: fmt.Sprintf(format, args...)}
}

// Apply executes an order at price. The order is either applied in full or the
// ledger is left untouched and a *types.InvariantViolation is returned. A hold
// returns a nil fill.
func (l *Ledger) Apply(ctx context.Context, date time.Time, o types.Order, price, marginRatio float64) (*types.Fill, error) {
	if o.Action == types.Hold {
		return nil, nil
	}
	if o.Quantity <= 0 {
		return nil, l.violation(date, o, "non-positive quantity")
	}
	if price <= 0 {
		return nil, l.violation(date, o, "non-positive price %.4f", price)
	}
	if marginRatio < 0 || marginRatio > 1 {
		return nil, l.violation(date, o, "margin ratio %.4f outside [0,1]", marginRatio)
	}

	cur := l.Position(o.Symbol)
	next := cur
	cash := l.cash
	margin := l.marginUsed
	gain := 0.0
	q := float64(o.Quantity)
	notional := q * price

	switch o.Action {
	case types.Buy:
		if notional > cash-margin+epsilon {
			return nil, l.violation(date, o, "cost %.2f exceeds buying power %.2f", notional, cash-margin)
		}
		cash -= notional
		next.LongCostBasis = (float64(cur.LongShares)*cur.LongCostBasis + notional) / float64(cur.LongShares+o.Quantity)
		next.LongShares += o.Quantity

	case types.Sell:
		if o.Quantity > cur.LongShares {
			return nil, l.violation(date, o, "selling %d of %d long shares", o.Quantity, cur.LongShares)
		}
		cash += notional
		gain = q * (price - cur.LongCostBasis)
		next.LongShares -= o.Quantity
		if next.LongShares == 0 {
			next.LongCostBasis = 0
		}

	case types.Short:
		required := notional * marginRatio
		cash += notional
		margin += required
		next.MarginUsed += required
		next.ShortCostBasis = (float64(cur.ShortShares)*cur.ShortCostBasis + notional) / float64(cur.ShortShares+o.Quantity)
		next.ShortShares += o.Quantity

	case types.Cover:
		if o.Quantity > cur.ShortShares {
			return nil, l.violation(date, o, "covering %d of %d short shares", o.Quantity, cur.ShortShares)
		}
		release := cur.MarginUsed * q / float64(cur.ShortShares)
		cash -= notional
		gain = q * (cur.ShortCostBasis - price)
		margin -= release
		next.MarginUsed -= release
		next.ShortShares -= o.Quantity
		if next.ShortShares == 0 {
			next.ShortCostBasis = 0
			margin -= next.MarginUsed
			next.MarginUsed = 0
		}

	default:
		return nil, l.violation(date, o, "unknown action %q", o.Action)
	}

	if cash < -epsilon {
		return nil, l.violation(date, o, "cash would go negative (%.2f)", cash)
	}
	if next.LongShares < 0 || next.ShortShares < 0 {
		return nil, l.violation(date, o, "negative share count")
	}
	if cash < 0 {
		cash = 0
	}
	if margin < epsilon {
		margin = 0
	}
	if next.MarginUsed < epsilon {
		next.MarginUsed = 0
	}
	next.RealizedGains += gain

	l.cash = cash
	l.marginUsed = margin
	l.realized += gain
	l.positions[o.Symbol] = &next

	fill := &types.Fill{
		ID:           uuid.NewString(),
		Date:         date,
		Symbol:       o.Symbol,
		Action:       o.Action,
		Quantity:     o.Quantity,
		Price:        price,
		RealizedGain: gain,
		CashAfter:    l.cash,
	}
	logger.Trade(ctx, o.Symbol, string(o.Action), o.Quantity, price, fill.ID,
		"cash_after", l.cash,
		"realized_gain", gain,
		"margin_used", l.marginUsed,
	)
	return fill, nil
}
