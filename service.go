package gomatch

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// ErrAlreadyStarted is returned when a source is added to a running Service.
var ErrAlreadyStarted = errors.New("gomatch: service already started")

// SessionStarter receives every released batch. What it does with the
// batch (starting a game, notifying players) is up to the implementation;
// it is always called outside the queue's critical section.
type SessionStarter[T any] interface {
	StartSession(ctx context.Context, batch Batch[T]) error
}

// SessionStarterFunc adapts a function to SessionStarter.
type SessionStarterFunc[T any] func(ctx context.Context, batch Batch[T]) error

func (f SessionStarterFunc[T]) StartSession(ctx context.Context, batch Batch[T]) error {
	return f(ctx, batch)
}

// LogStarter returns a SessionStarter that assigns each batch a session id
// and logs it.
func LogStarter[T any](logger logrus.FieldLogger) SessionStarter[T] {
	return SessionStarterFunc[T](func(_ context.Context, batch Batch[T]) error {
		logger.WithFields(logrus.Fields{
			"session": uuid.NewString(),
			"members": batch,
		}).Info("session started")
		return nil
	})
}

// Service feeds participants arriving on one or more sources into a Joiner
// from a pool of worker goroutines, and hands released batches to a
// SessionStarter.
//
// A Join error is fatal: the service records it, cancels itself, and Wait
// returns it. A SessionStarter error is only logged, since the batch has
// already left the queue.
type Service[T any] struct {
	joiner  Joiner[T]
	starter SessionStarter[T]
	stats   *Stats
	workers int
	logger  logrus.FieldLogger

	flag     CancelFlag
	arrivals *FanIn[T]
	block    *Block

	mu        sync.Mutex
	started   bool
	cancel    context.CancelFunc
	release   func()
	sourcesWG sync.WaitGroup
	workerWG  sync.WaitGroup
	drained   chan struct{}
	done      chan struct{}

	errOnce sync.Once
	err     error
}

// ServiceOption is a functional option for configuring a Service
type ServiceOption[T any] func(*Service[T])

// WithWorkers sets how many goroutines call Join concurrently.
func WithWorkers[T any](n int) ServiceOption[T] {
	return func(s *Service[T]) {
		s.workers = n
	}
}

// WithStats makes the service record into stats instead of its own counters.
func WithStats[T any](stats *Stats) ServiceOption[T] {
	return func(s *Service[T]) {
		s.stats = stats
	}
}

// WithServiceLogger sets the logger for the service and its FanIn.
func WithServiceLogger[T any](logger logrus.FieldLogger) ServiceOption[T] {
	return func(s *Service[T]) {
		s.logger = logger
	}
}

// NewService creates a service around joiner and starter. It does not start
// any goroutines until Start is called.
func NewService[T any](joiner Joiner[T], starter SessionStarter[T], opts ...ServiceOption[T]) (*Service[T], error) {
	if joiner == nil || starter == nil {
		return nil, errors.Wrap(ErrInvalidConfiguration, "joiner and session starter are required")
	}
	s := &Service[T]{
		joiner:  joiner,
		starter: starter,
		workers: 1,
		logger:  logrus.StandardLogger(),
		drained: make(chan struct{}),
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.workers < 1 {
		return nil, errors.Wrapf(ErrInvalidConfiguration, "worker count must be positive, got %d", s.workers)
	}
	if s.stats == nil {
		s.stats = &Stats{}
	}
	s.logger = s.logger.WithField("component", "service")
	s.arrivals = NewFanIn(
		WithFanInLogger[T](s.logger),
		WithOnChannelRemoved(func(*FanIn[T], <-chan T) {
			s.sourcesWG.Done()
		}))
	s.block = NewBlock("service")
	s.block.Add(s.arrivals)
	return s, nil
}

// AddSource registers a channel of arriving participants. The source is
// exhausted once the channel is closed. Sources must be added before Start.
func (s *Service[T]) AddSource(ch <-chan T) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return ErrAlreadyStarted
	}
	s.sourcesWG.Add(1)
	s.arrivals.Add(ch)
	return nil
}

// AddReader registers a Reader as a source. Messages carrying an error are
// dropped; the Reader is stopped together with the service.
func (s *Service[T]) AddReader(r *Reader[T]) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return ErrAlreadyStarted
	}
	ch := make(chan T)
	unwrap := Unwrap(r.OutputChan(), ch, WithMapperOnDone(func(*Mapper[Message[T], T]) {
		close(ch)
	}))
	s.block.Add(unwrap)
	s.block.Add(r)
	s.sourcesWG.Add(1)
	s.arrivals.Add(ch)
	return nil
}

// Start launches the workers. They run until every source is exhausted,
// ctx is cancelled, Stop is called, or a Join fails.
func (s *Service[T]) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return
	}
	s.started = true

	ctx, s.cancel = context.WithCancel(ctx)
	s.release = s.flag.Watch(ctx)

	go func() {
		s.sourcesWG.Wait()
		close(s.drained)
	}()

	s.workerWG.Add(s.workers)
	for i := range s.workers {
		go s.worker(ctx, i)
	}
	go func() {
		s.workerWG.Wait()
		close(s.done)
	}()
	s.logger.WithField("workers", s.workers).Info("service started")
}

// Wait blocks until all workers have exited and returns the fatal Join
// error, if any.
func (s *Service[T]) Wait() error {
	<-s.done
	return s.err
}

// Stop cancels the workers, stops every source, and waits for the workers.
func (s *Service[T]) Stop() error {
	s.mu.Lock()
	started, cancel, release := s.started, s.cancel, s.release
	s.mu.Unlock()

	s.flag.Cancel()
	if cancel != nil {
		cancel()
	}
	err := s.block.Stop()
	if started {
		<-s.done
		release()
	}
	return err
}

// IsRunning returns true while any worker or source is still active.
func (s *Service[T]) IsRunning() bool {
	select {
	case <-s.done:
		return false
	default:
		return s.block.IsRunning()
	}
}

// Stats returns the service's counters.
func (s *Service[T]) Stats() StatsSnapshot {
	return s.stats.Snapshot()
}

// Len is the joiner's advisory waiting count.
func (s *Service[T]) Len() int {
	return s.joiner.Len()
}

func (s *Service[T]) worker(ctx context.Context, id int) {
	defer s.workerWG.Done()
	log := s.logger.WithField("worker", id)
	arrivals := s.arrivals.RecvChan()

	for !s.flag.Cancelled() {
		select {
		case <-ctx.Done():
			return
		case <-s.drained:
			return
		case p, ok := <-arrivals:
			if !ok {
				return
			}
			if err := s.handle(ctx, log, p); err != nil {
				s.fail(err)
				return
			}
		}
	}
}

func (s *Service[T]) handle(ctx context.Context, log logrus.FieldLogger, p T) error {
	batch, err := s.joiner.Join(p)
	if err != nil {
		s.stats.RecordFailure()
		return errors.Wrapf(err, "join %v", p)
	}
	s.stats.RecordJoin(len(batch))
	if batch == nil {
		return nil
	}
	if err := s.starter.StartSession(ctx, batch); err != nil {
		log.WithError(err).WithField("members", batch).Warn("session start failed")
	}
	return nil
}

func (s *Service[T]) fail(err error) {
	s.errOnce.Do(func() {
		s.err = err
		s.logger.WithError(err).Error("join failed, stopping service")
		s.flag.Cancel()
		s.cancel()
	})
}
