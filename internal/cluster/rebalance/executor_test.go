package rebalance

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestPoolRunsJobs(t *testing.T) {
	p := NewPool(2, 8, nil)
	defer p.Close()

	var count atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		p.Submit(func() {
			defer wg.Done()
			count.Add(1)
		})
	}
	wg.Wait()

	if got := count.Load(); got != 20 {
		t.Errorf("jobs run = %d, want 20", got)
	}
}

func TestPoolDefaults(t *testing.T) {
	p := NewPool(0, 0, nil)
	defer p.Close()

	done := make(chan struct{})
	p.Submit(func() { close(done) })

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("job did not run with defaulted pool configuration")
	}
}

func TestPoolSurvivesPanickingJob(t *testing.T) {
	p := NewPool(1, 4, nil)
	defer p.Close()

	p.Submit(func() { panic("boom") })

	done := make(chan struct{})
	p.Submit(func() { close(done) })

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("worker died after a panicking job")
	}
}

func TestPoolCloseIsIdempotent(t *testing.T) {
	p := NewPool(1, 4, nil)
	p.Close()
	p.Close()

	// Submitting after close must not block or panic
	p.Submit(func() { t.Error("job ran after close") })
}
