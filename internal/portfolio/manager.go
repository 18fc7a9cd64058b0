package portfolio

import (
	"math"

	"llm-hedge-fund/internal/interfaces"
	"llm-hedge-fund/internal/types"
)

type Config struct {
	// ActionThreshold is the minimum net confidence that triggers a trade.
	ActionThreshold float64
	// FullConfidence is the confidence at which desired size reaches the ceiling.
	FullConfidence float64
}

// Manager turns a net verdict and a risk ceiling into one order. It only reads
// the snapshot it is given.
type Manager struct {
	cfg Config
}

var _ interfaces.Decider = (*Manager)(nil)

func NewManager(cfg Config) *Manager {
	if cfg.FullConfidence <= 0 {
		cfg.FullConfidence = 100
	}
	return &Manager{cfg: cfg}
}

// scale maps confidence onto (0,1]; higher confidence sits closer to the cap.
func (m *Manager) scale(confidence float64) float64 {
	s := confidence / m.cfg.FullConfidence
	if s > 1 {
		return 1
	}
	if s < 0 {
		return 0
	}
	return s
}

// affordable is the largest whole quantity whose cost per share unit fits in budget.
func affordable(budget, unitCost float64) int {
	if unitCost <= 0 || budget <= 0 {
		return 0
	}
	q := int(math.Floor(budget / unitCost))
	for q > 0 && float64(q)*unitCost > budget {
		q--
	}
	return q
}

// coverable bounds a cover so that committed margin stays within cash. Each
// covered share costs price and releases its proportional slice of margin.
func coverable(pf types.PortfolioSnapshot, pos types.Position, price float64) int {
	if pos.ShortShares <= 0 {
		return 0
	}
	perShare := pos.MarginUsed / float64(pos.ShortShares)
	headroom := pf.Cash - pf.MarginUsed
	if price <= perShare {
		if headroom < 0 {
			return 0
		}
		return pos.ShortShares
	}
	return affordable(headroom, price-perShare)
}

func minInt(vals ...int) int {
	m := vals[0]
	for _, v := range vals[1:] {
		if v < m {
			m = v
		}
	}
	return m
}

// Decide evaluates the decision table in priority order: hold, then
// cover/buy for bullish verdicts, then sell/short for bearish ones.
func (m *Manager) Decide(v types.Verdict, ra types.RiskAssessment, pf types.PortfolioSnapshot) types.Order {
	symbol := ra.Symbol
	price := ra.CurrentPrice
	if v.Direction == types.Neutral || v.Confidence < m.cfg.ActionThreshold || price <= 0 {
		return types.HoldOrder(symbol)
	}

	pos := pf.Positions[symbol]
	scale := m.scale(v.Confidence)
	order := types.Order{Symbol: symbol}

	switch v.Direction {
	case types.Bullish:
		if pos.ShortShares > 0 {
			order.Action = types.Cover
			desired := int(math.Ceil(float64(pos.ShortShares) * scale))
			order.Quantity = minInt(pos.ShortShares, desired, affordable(pf.Cash, price), coverable(pf, pos, price))
		} else {
			order.Action = types.Buy
			room := ra.MaxPositionValue - float64(pos.LongShares)*price
			desired := int(math.Floor(float64(affordable(room, price)) * scale))
			order.Quantity = minInt(desired, affordable(pf.BuyingPower(), price))
		}
	case types.Bearish:
		if pos.LongShares > 0 {
			order.Action = types.Sell
			desired := int(math.Ceil(float64(pos.LongShares) * scale))
			order.Quantity = minInt(pos.LongShares, desired)
		} else {
			order.Action = types.Short
			room := ra.MaxPositionValue - float64(pos.ShortShares)*price
			desired := int(math.Floor(float64(affordable(room, price)) * scale))
			if ra.MarginRatio > 0 {
				desired = minInt(desired, affordable(pf.BuyingPower(), price*ra.MarginRatio))
			}
			order.Quantity = desired
		}
	}

	if order.Quantity <= 0 {
		return types.HoldOrder(symbol)
	}
	return order
}
