package lifecycle

import (
	"sync/atomic"
	"testing"
)

func TestSyncRunsBeforeReturning(t *testing.T) {
	q := NewSerialQueue()
	defer q.Stop()

	var n int64
	q.Sync(func() { atomic.AddInt64(&n, 1) })
	if atomic.LoadInt64(&n) != 1 {
		t.Fatalf("n = %d, want 1", n)
	}
}

func TestAsyncOrdering(t *testing.T) {
	q := NewSerialQueue()
	defer q.Stop()

	var order []int
	done := make(chan struct{})
	for i := 0; i < 5; i++ {
		i := i
		q.Async(func() { order = append(order, i) })
	}
	q.Async(func() { close(done) })
	<-done

	for i, v := range order {
		if v != i {
			t.Fatalf("order = %v, want 0..4 in sequence", order)
		}
	}
}

func TestStopIsIdempotent(t *testing.T) {
	q := NewSerialQueue()
	q.Stop()
	q.Stop()
}
