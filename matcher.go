package gomatch

import (
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

type matcherCmd[T any] struct {
	Name        string
	Participant T
	JoinReply   chan joinResult[T]
	LenReply    chan int
}

type joinResult[T any] struct {
	Batch Batch[T]
	Err   error
}

// Matcher is the single-writer counterpart of Queue. One goroutine owns the
// waiting list and serves Join requests sent over a channel, so no lock is
// shared between callers. The contract is the same as Queue.Join: the caller
// whose request completes a batch receives it, and nobody else does.
//
// If a batch output channel is configured, each released batch is also
// published there after the triggering caller has been answered.
type Matcher[T any] struct {
	RunnerBase[matcherCmd[T]]
	batchSize  int
	pending    Batch[T]
	held       []matcherCmd[T]
	outputChan chan Batch[T]
	logger     logrus.FieldLogger
}

// MatcherOption is a functional option for configuring a Matcher
type MatcherOption[T any] func(*Matcher[T])

// WithBatchOutput publishes every released batch on ch as well. The caller
// keeps ownership of ch and must keep draining it while the Matcher runs.
func WithBatchOutput[T any](ch chan Batch[T]) MatcherOption[T] {
	return func(m *Matcher[T]) {
		m.outputChan = ch
	}
}

// WithMatcherLogger sets the logger used to report releases.
func WithMatcherLogger[T any](logger logrus.FieldLogger) MatcherOption[T] {
	return func(m *Matcher[T]) {
		m.logger = logger
	}
}

// NewMatcher creates and starts a Matcher that releases a batch every
// batchSize joins. A batchSize below 1 returns ErrInvalidConfiguration and
// no goroutine is started.
func NewMatcher[T any](batchSize int, opts ...MatcherOption[T]) (*Matcher[T], error) {
	if batchSize < 1 {
		return nil, errors.Wrapf(ErrInvalidConfiguration, "batch size must be positive, got %d", batchSize)
	}
	out := &Matcher[T]{
		RunnerBase: NewRunnerBase(matcherCmd[T]{Name: "stop"}),
		batchSize:  batchSize,
		pending:    make(Batch[T], 0, batchSize),
		logger:     logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(out)
	}
	out.start()
	return out, nil
}

// BatchSize returns the release threshold fixed at construction.
func (m *Matcher[T]) BatchSize() int {
	return m.batchSize
}

// Join sends participant to the matcher goroutine and waits for the answer.
// It returns ErrStopped if the matcher is no longer running.
func (m *Matcher[T]) Join(participant T) (Batch[T], error) {
	reply := make(chan joinResult[T], 1)
	if !m.send(matcherCmd[T]{Name: "join", Participant: participant, JoinReply: reply}) {
		return nil, ErrStopped
	}
	res := <-reply
	return res.Batch, res.Err
}

// Len returns the number of waiting participants, or 0 once stopped.
func (m *Matcher[T]) Len() int {
	reply := make(chan int, 1)
	if !m.send(matcherCmd[T]{Name: "len", LenReply: reply}) {
		return 0
	}
	return <-reply
}

// RecvChan returns the channel batches are published on, or nil if no batch
// output was configured.
func (m *Matcher[T]) RecvChan() <-chan Batch[T] {
	return m.outputChan
}

func (m *Matcher[T]) send(cmd matcherCmd[T]) bool {
	select {
	case m.controlChan <- cmd:
		return true
	case <-m.done:
		return false
	}
}

func (m *Matcher[T]) start() {
	m.RunnerBase.start()
	go func() {
		defer m.cleanup()
		for {
			var cmd matcherCmd[T]
			if len(m.held) > 0 {
				cmd, m.held = m.held[0], m.held[1:]
			} else {
				cmd = <-m.controlChan
			}
			switch cmd.Name {
			case "stop":
				return
			case "len":
				cmd.LenReply <- len(m.pending)
			case "join":
				batch, full := m.collect(cmd.Participant)
				// the output gets its own copy, taken before the joiner
				// owns the batch
				var published Batch[T]
				if full && m.outputChan != nil {
					published = append(Batch[T](nil), batch...)
				}
				cmd.JoinReply <- joinResult[T]{Batch: batch}
				if published != nil && !m.publish(published) {
					return
				}
			}
		}
	}()
}

func (m *Matcher[T]) cleanup() {
	for _, cmd := range m.held {
		if cmd.JoinReply != nil {
			cmd.JoinReply <- joinResult[T]{Err: ErrStopped}
		}
	}
	m.held = nil
	if len(m.pending) > 0 {
		m.logger.WithField("component", "matcher").WithField("waiting", len(m.pending)).Info("stopped with participants still waiting")
	}
	m.RunnerBase.cleanup(nil)
}

// collect appends p and, when the waiting list is full, hands it off.
func (m *Matcher[T]) collect(p T) (Batch[T], bool) {
	m.pending = append(m.pending, p)
	if len(m.pending) < m.batchSize {
		return nil, false
	}
	batch := m.pending
	m.pending = make(Batch[T], 0, m.batchSize)
	m.logger.WithField("component", "matcher").WithField("size", len(batch)).Debug("batch released")
	return batch, true
}

// publish returns false if a stop arrived while the output was blocked.
func (m *Matcher[T]) publish(batch Batch[T]) bool {
	for {
		select {
		case m.outputChan <- batch:
			return true
		case cmd := <-m.controlChan:
			switch cmd.Name {
			case "stop":
				return false
			case "len":
				cmd.LenReply <- len(m.pending)
			default:
				// joins wait until the output drains so batches stay in order
				m.held = append(m.held, cmd)
			}
		}
	}
}
