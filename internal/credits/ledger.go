// Package credits implements the optimistic credit ledger: a client-local
// cache of the authoritative server-side balance. Debits and refunds are
// applied speculatively around dispatch and reconciled with the server via
// Resync once it has confirmed an operation.
package credits

import "sync"

// Ledger holds the optimistic credit balance. All mutations are atomic with
// respect to interleaved dispatches and poll callbacks.
type Ledger struct {
	mu      sync.Mutex
	balance int
}

// NewLedger creates a ledger seeded with the given balance. Negative seeds
// are clamped to zero.
func NewLedger(balance int) *Ledger {
	if balance < 0 {
		balance = 0
	}
	return &Ledger{balance: balance}
}

// Balance returns the current optimistic balance.
func (l *Ledger) Balance() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balance
}

// CanAfford reports whether the balance covers the given cost.
func (l *Ledger) CanAfford(cost int) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balance >= cost
}

// Debit subtracts cost from the balance. A debit that would underflow is
// rejected and reported as a normal outcome, not an error; callers must not
// dispatch on a false return.
func (l *Ledger) Debit(cost int) bool {
	if cost < 0 {
		return false
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.balance < cost {
		return false
	}
	l.balance -= cost
	return true
}

// Refund adds cost back to the balance. Issued exactly once per failed
// request that was previously debited.
func (l *Ledger) Refund(cost int) {
	if cost < 0 {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.balance += cost
}

// Resync overwrites the balance with the authoritative server value.
func (l *Ledger) Resync(serverBalance int) {
	if serverBalance < 0 {
		serverBalance = 0
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.balance = serverBalance
}
