package papertrade

import (
	"testing"
	"time"
)

// USD is a helper for test to create money from const
func USD(v float64) Money { return M(v) }

// testClock returns a clock starting at a fixed instant and moving one
// minute forward on every call.
func testClock() func() time.Time {
	now := time.Date(2025, time.March, 1, 12, 0, 0, 0, time.UTC)
	return func() time.Time {
		now = now.Add(time.Minute)
		return now
	}
}

// newTestSystem creates an accounting system backed by a fixed price list.
func newTestSystem(method CostBasisMethod, quotes map[string]float64) (*AccountingSystem, *Prices) {
	prices := NewPrices(nil)
	for s, p := range quotes {
		prices.Set(s, USD(p))
	}
	as := NewAccountingSystem(prices, method)
	as.Now = testClock()
	return as, prices
}

// funded returns a new ledger holding amount of cash.
func funded(t *testing.T, amount float64) *Ledger {
	t.Helper()
	l := NewLedger("test", "alice", time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC))
	if err := l.ApplyDeposit(USD(amount)); err != nil {
		t.Fatalf("ApplyDeposit(%v) failed: %v", amount, err)
	}
	return l
}

// checkInvariants fails the test if the ledger breaks any invariant.
func checkInvariants(t *testing.T, l *Ledger) {
	t.Helper()
	if err := l.Check(); err != nil {
		t.Fatalf("ledger invariants broken: %v", err)
	}
}

// must panics if err is not nil.
func must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}
