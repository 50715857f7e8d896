// Package lifecycle provides the serial-queue primitive used by every
// stateful component (watchdog, update poller, clipboard bridge) to
// serialize mutation of their state through a single owning goroutine.
//
// Grounded on the single-mutex-guarded-struct pattern used throughout
// IntuitionEngine's coprocessor_manager.go and video_compositor.go,
// expressed here as an explicit run loop over a channel of closures instead
// of ad hoc locking, so a component's state machine is provably
// single-threaded without auditing every method for correct lock
// acquisition order.
package lifecycle

// SerialQueue runs submitted functions one at a time, in submission order,
// on a single dedicated goroutine.
type SerialQueue struct {
	work chan func()
	done chan struct{}
}

// NewSerialQueue starts a queue's run loop and returns it ready for use.
func NewSerialQueue() *SerialQueue {
	q := &SerialQueue{
		work: make(chan func(), 64),
		done: make(chan struct{}),
	}
	go q.loop()
	return q
}

func (q *SerialQueue) loop() {
	for {
		select {
		case fn, ok := <-q.work:
			if !ok {
				close(q.done)
				return
			}
			fn()
		}
	}
}

// Async submits fn to run on the queue's goroutine and returns immediately.
// Submitting to a stopped queue is a silent no-op: callers that need to
// observe completion should use Sync instead.
func (q *SerialQueue) Async(fn func()) {
	defer func() { recover() }()
	q.work <- fn
}

// Sync submits fn and blocks until it has run.
func (q *SerialQueue) Sync(fn func()) {
	done := make(chan struct{})
	q.Async(func() {
		fn()
		close(done)
	})
	<-done
}

// Stop closes the queue. Pending work already submitted still runs; no new
// work is accepted afterward. Stop is idempotent.
func (q *SerialQueue) Stop() {
	defer func() { recover() }()
	close(q.work)
}
