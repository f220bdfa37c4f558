package workerpool

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestDoRunsFunction(t *testing.T) {
	p := New(2)
	var ran bool
	err := p.Do(context.Background(), func() error {
		ran = true
		return nil
	})
	if err != nil {
		t.Fatalf("Do returned error: %v", err)
	}
	if !ran {
		t.Fatalf("fn did not run")
	}
}

func TestDoBoundsConcurrency(t *testing.T) {
	p := New(2)
	var current, max int32
	var wg sync.WaitGroup

	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p.Do(context.Background(), func() error {
				n := atomic.AddInt32(&current, 1)
				for {
					m := atomic.LoadInt32(&max)
					if n <= m || atomic.CompareAndSwapInt32(&max, m, n) {
						break
					}
				}
				time.Sleep(10 * time.Millisecond)
				atomic.AddInt32(&current, -1)
				return nil
			})
		}()
	}
	wg.Wait()

	if max > 2 {
		t.Fatalf("observed concurrency %d, want <= 2", max)
	}
}

func TestDoRespectsCancelledContext(t *testing.T) {
	p := New(1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := p.Do(ctx, func() error {
		t.Fatalf("fn should not run with a cancelled context")
		return nil
	})
	if err == nil {
		t.Fatalf("expected error from cancelled context")
	}
}
