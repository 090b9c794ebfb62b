package orders

import (
	"sync"
	"testing"

	"github.com/google/uuid"
)

func TestTradeLocks_SerializesOneTrade(t *testing.T) {
	locks := newTradeLocks()
	id := uuid.New()

	var (
		wg      sync.WaitGroup
		inside  int
		maxSeen int
		mu      sync.Mutex
	)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := locks.lock(id)
			mu.Lock()
			inside++
			if inside > maxSeen {
				maxSeen = inside
			}
			mu.Unlock()

			mu.Lock()
			inside--
			mu.Unlock()
			unlock()
		}()
	}
	wg.Wait()

	if maxSeen != 1 {
		t.Fatalf("expected at most one holder, got=%d", maxSeen)
	}
	if locks.size() != 0 {
		t.Fatalf("expected lock entries to be released, got=%d", locks.size())
	}
}

func TestTradeLocks_DifferentTradesDoNotBlock(t *testing.T) {
	locks := newTradeLocks()
	unlockA := locks.lock(uuid.New())
	unlockB := locks.lock(uuid.New())

	if locks.size() != 2 {
		t.Fatalf("expected two entries, got=%d", locks.size())
	}
	unlockA()
	unlockB()
}
