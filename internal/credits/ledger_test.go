package credits

import (
	"sync"
	"testing"
)

func TestDebitRejectsUnderflow(t *testing.T) {
	l := NewLedger(100)
	if l.Debit(150) {
		t.Fatalf("debit of 150 against 100 must fail")
	}
	if got := l.Balance(); got != 100 {
		t.Fatalf("balance = %d, want 100 after rejected debit", got)
	}
	if !l.Debit(100) {
		t.Fatalf("debit of full balance must succeed")
	}
	if got := l.Balance(); got != 0 {
		t.Fatalf("balance = %d, want 0", got)
	}
	if l.Debit(1) {
		t.Fatalf("debit against empty ledger must fail")
	}
}

func TestRefundAndResync(t *testing.T) {
	l := NewLedger(50)
	if !l.Debit(30) {
		t.Fatalf("debit failed")
	}
	l.Refund(30)
	if got := l.Balance(); got != 50 {
		t.Fatalf("balance = %d, want 50 after refund", got)
	}
	l.Resync(500)
	if got := l.Balance(); got != 500 {
		t.Fatalf("balance = %d, want 500 after resync", got)
	}
	l.Resync(-3)
	if got := l.Balance(); got != 0 {
		t.Fatalf("balance = %d, want 0 after negative resync clamp", got)
	}
}

func TestCanAfford(t *testing.T) {
	l := NewLedger(10)
	if !l.CanAfford(10) {
		t.Fatalf("10 credits must afford cost 10")
	}
	if l.CanAfford(11) {
		t.Fatalf("10 credits must not afford cost 11")
	}
}

// Concurrent debits and refunds must conserve the balance and never lose an
// update: successes minus refunds accounts for the final value exactly.
func TestConcurrentDebitRefundConservation(t *testing.T) {
	const workers = 32
	const perWorker = 100

	l := NewLedger(workers * perWorker / 2)
	start := l.Balance()

	var wg sync.WaitGroup
	var mu sync.Mutex
	debits, refunds := 0, 0

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				if l.Debit(1) {
					mu.Lock()
					debits++
					mu.Unlock()
					if i%2 == 0 {
						l.Refund(1)
						mu.Lock()
						refunds++
						mu.Unlock()
					}
				}
			}
		}(w)
	}
	wg.Wait()

	want := start - debits + refunds
	if got := l.Balance(); got != want {
		t.Fatalf("balance = %d, want %d (start %d, debits %d, refunds %d)", got, want, start, debits, refunds)
	}
	if l.Balance() < 0 {
		t.Fatalf("balance must never be negative")
	}
}
