package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestLocalOrderLockerSerializesSameOrder(t *testing.T) {
	locker := NewLocalOrderLocker(50 * time.Millisecond)
	ctx := context.Background()

	unlock, err := locker.Lock(ctx, 1)
	if err != nil {
		t.Fatalf("lock failed: %v", err)
	}
	if _, err := locker.Lock(ctx, 1); !errors.Is(err, ErrConcurrentModification) {
		t.Fatalf("expected ErrConcurrentModification, got %v", err)
	}
	other, err := locker.Lock(ctx, 2)
	if err != nil {
		t.Fatalf("lock on other order failed: %v", err)
	}
	other()
	unlock()

	again, err := locker.Lock(ctx, 1)
	if err != nil {
		t.Fatalf("relock failed: %v", err)
	}
	again()
	if len(locker.slots) != 0 {
		t.Fatalf("expected slots to be released, got %d", len(locker.slots))
	}
}

func TestLocalOrderLockerMutualExclusion(t *testing.T) {
	locker := NewLocalOrderLocker(5 * time.Second)
	ctx := context.Background()
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		inside  int
		maxSeen int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := locker.Lock(ctx, 7)
			if err != nil {
				t.Errorf("lock failed: %v", err)
				return
			}
			mu.Lock()
			inside++
			if inside > maxSeen {
				maxSeen = inside
			}
			mu.Unlock()
			time.Sleep(2 * time.Millisecond)
			mu.Lock()
			inside--
			mu.Unlock()
			unlock()
		}()
	}
	wg.Wait()
	if maxSeen != 1 {
		t.Fatalf("expected at most one holder, saw %d", maxSeen)
	}
}

func TestLocalOrderLockerHonoursContext(t *testing.T) {
	locker := NewLocalOrderLocker(time.Second)
	unlock, err := locker.Lock(context.Background(), 3)
	if err != nil {
		t.Fatalf("lock failed: %v", err)
	}
	defer unlock()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = locker.Lock(ctx, 3)
	if !errors.Is(err, ErrLockFailed) || !errors.Is(err, context.Canceled) {
		t.Fatalf("expected ErrLockFailed wrapping context.Canceled, got %v", err)
	}
	if kind := KindOf(err); kind != KindDependencyFailure {
		t.Fatalf("cancelled lock wait kind want %s got %s", KindDependencyFailure, kind)
	}
}
