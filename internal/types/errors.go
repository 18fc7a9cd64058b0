package types

import (
	"fmt"
	"time"
)

// DataGapError reports a missing price or history for an instrument on a day.
// The simulator skips the instrument for that day and keeps going.
type DataGapError struct {
	Symbol string
	Date   time.Time
	Reason string
}

func (e *DataGapError) Error() string {
	return fmt.Sprintf("data gap for %s on %s: %s", e.Symbol, e.Date.Format("2006-01-02"), e.Reason)
}

// InvariantViolation means an order would corrupt the ledger after clipping already ran.
// It aborts the run.
type InvariantViolation struct {
	Symbol string
	Date   time.Time
	Order  Order
	Detail string
}

func (e *InvariantViolation) Error() string {
	return fmt.Sprintf("ledger invariant violated for %s on %s (%s %d): %s",
		e.Symbol, e.Date.Format("2006-01-02"), e.Order.Action, e.Order.Quantity, e.Detail)
}

// ConfigurationError is raised before any simulation starts.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid configuration %s: %s", e.Field, e.Reason)
}
