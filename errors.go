package gomatch

import "github.com/pkg/errors"

var (
	// ErrInvalidConfiguration is returned by constructors when the batch size
	// is not a positive integer. No queue is created in that case.
	ErrInvalidConfiguration = errors.New("gomatch: invalid configuration")

	// ErrLockPoisoned is returned when a previous holder of the queue lock
	// panicked inside the critical section. The waiting list is no longer
	// trusted and the queue refuses further work.
	ErrLockPoisoned = errors.New("gomatch: lock poisoned")

	// ErrStopped is returned by Matcher.Join after the matcher has stopped.
	ErrStopped = errors.New("gomatch: matcher stopped")
)
