package driver

import "sync/atomic"

const (
	lifecycleNew int32 = iota
	lifecycleReady
	lifecycleClosed
)

// Lifecycle tracks a client's position in the init -> ready -> closed
// progression with a single atomic state word. Clients consult Ready before
// every data operation and answer StatusBadRequest when the client is not
// initialized.
type Lifecycle struct {
	state int32
}

// Start moves the client from new to ready. It returns false when the client
// was already started or closed, letting callers treat a repeated Init as a
// warning rather than an error.
func (l *Lifecycle) Start() bool {
	return atomic.CompareAndSwapInt32(&l.state, lifecycleNew, lifecycleReady)
}

// Ready reports whether the client accepts data operations.
func (l *Lifecycle) Ready() bool {
	return atomic.LoadInt32(&l.state) == lifecycleReady
}

// Stop moves the client from ready to closed. It returns false when the
// client was never started or is already closed.
func (l *Lifecycle) Stop() bool {
	return atomic.CompareAndSwapInt32(&l.state, lifecycleReady, lifecycleClosed)
}

// Abort moves the client from ready straight to closed when Init fails after
// Start succeeded. The client never becomes usable, data operations answer
// StatusBadRequest, and a later Cleanup is a no-op rather than a release of
// resources that were never acquired.
func (l *Lifecycle) Abort() {
	atomic.CompareAndSwapInt32(&l.state, lifecycleReady, lifecycleClosed)
}

// Closed reports whether the client has been cleaned up.
func (l *Lifecycle) Closed() bool {
	return atomic.LoadInt32(&l.state) == lifecycleClosed
}
