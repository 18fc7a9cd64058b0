package interfaces

import "llm-hedge-fund/internal/types"

// Decider turns one instrument's verdict and risk ceiling into an order.
type Decider interface {
	Decide(v types.Verdict, ra types.RiskAssessment, pf types.PortfolioSnapshot) types.Order
}
