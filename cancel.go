package gomatch

import (
	"context"
	"iter"
	"sync/atomic"
)

// CancelFlag is a cooperative stop signal. Any owner may set it; workers
// poll it at safe points, typically between loop iterations. Setting it never
// interrupts a worker in the middle of a step.
type CancelFlag struct {
	cancelled atomic.Bool
}

// Cancel sets the flag. It is safe to call more than once.
func (f *CancelFlag) Cancel() {
	f.cancelled.Store(true)
}

// Cancelled reports whether Cancel has been called.
func (f *CancelFlag) Cancelled() bool {
	return f.cancelled.Load()
}

// Watch sets the flag when ctx is done. The returned function detaches the
// watcher and must be called once the flag is no longer needed.
func (f *CancelFlag) Watch(ctx context.Context) (release func()) {
	stop := context.AfterFunc(ctx, f.Cancel)
	return func() { stop() }
}

// RunUntilCancelled folds step over seq, checking flag before each element.
// A completed run returns (result, true). A cancelled run returns the zero
// value and false: it has no result, which is different from failing.
func RunUntilCancelled[T, R any](flag *CancelFlag, seq iter.Seq[T], init R, step func(acc R, item T) R) (R, bool) {
	acc := init
	for item := range seq {
		if flag.Cancelled() {
			var zero R
			return zero, false
		}
		acc = step(acc, item)
	}
	if flag.Cancelled() {
		var zero R
		return zero, false
	}
	return acc, true
}
