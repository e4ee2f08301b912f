package gomatch

import (
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// ParticipantID identifies a waiting participant. The queue treats it as
// opaque and never checks it for uniqueness.
type ParticipantID uint64

// Batch is a group of exactly BatchSize participants released together, in
// the order they joined. Ownership passes to the caller that received it.
type Batch[T any] []T

// Joiner is implemented by anything that accepts participants and releases
// complete batches. Both Queue and Matcher are Joiners.
type Joiner[T any] interface {
	// Join adds a participant. It returns a non-nil Batch only to the one
	// caller whose join completed the batch.
	Join(participant T) (Batch[T], error)

	// Len is an advisory count of waiting participants.
	Len() int
}

// Queue is a matchmaking queue guarded by a single lock. Every Join appends
// under the lock and, if the waiting list reached the batch size, extracts
// the whole list before the lock is released. No caller can ever observe a
// full but unreleased waiting list.
type Queue[T any] struct {
	g         guard
	waiting   []T
	batchSize int
	logger    logrus.FieldLogger
}

// ParticipantQueue is the Queue used by the matchmaking service.
type ParticipantQueue = Queue[ParticipantID]

// QueueOption is a functional option for configuring a Queue
type QueueOption[T any] func(*Queue[T])

// WithQueueLogger sets the logger used to report releases.
func WithQueueLogger[T any](logger logrus.FieldLogger) QueueOption[T] {
	return func(q *Queue[T]) {
		q.logger = logger
	}
}

// NewQueue creates a queue that releases a batch every batchSize joins.
// A batchSize below 1 returns ErrInvalidConfiguration.
//
// Examples:
//
//	q, err := NewQueue[ParticipantID](8)
//
//	q, err := NewQueue[ParticipantID](2, WithQueueLogger[ParticipantID](logger))
func NewQueue[T any](batchSize int, opts ...QueueOption[T]) (*Queue[T], error) {
	if batchSize < 1 {
		return nil, errors.Wrapf(ErrInvalidConfiguration, "batch size must be positive, got %d", batchSize)
	}
	q := &Queue[T]{
		batchSize: batchSize,
		waiting:   make([]T, 0, batchSize),
		logger:    logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(q)
	}
	return q, nil
}

// BatchSize returns the release threshold fixed at construction.
func (q *Queue[T]) BatchSize() int {
	return q.batchSize
}

// Join appends participant to the waiting list. When the append fills the
// list, the full list is removed and returned; the queue keeps no reference
// to it. Otherwise Join returns a nil Batch.
func (q *Queue[T]) Join(participant T) (Batch[T], error) {
	var released Batch[T]
	err := q.g.do(func() {
		q.waiting = append(q.waiting, participant)
		if len(q.waiting) == q.batchSize {
			released = q.waiting
			q.waiting = make([]T, 0, q.batchSize)
		}
	})
	if err != nil {
		return nil, err
	}
	if released != nil {
		q.logger.WithField("component", "queue").WithField("size", len(released)).Debug("batch released")
	}
	return released, nil
}

// Len returns the number of waiting participants at the time of the call.
// A poisoned queue also reports 0; check Poisoned before treating 0 as an
// empty queue.
func (q *Queue[T]) Len() int {
	n := 0
	q.g.do(func() {
		n = len(q.waiting)
	})
	return n
}

// Poisoned reports whether a previous Join failed inside the critical section.
func (q *Queue[T]) Poisoned() bool {
	return q.g.poisoned()
}
