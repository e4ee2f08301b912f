package gomatch

import (
	"io"
	"iter"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// ReaderFunc is the type of the reader method used by the Reader goroutine primitive.
// Returning io.EOF ends the stream cleanly.
type ReaderFunc[R any] func() (msg R, err error)

// Reader is a typed Reader goroutine which calls a Read method to return data
// over a channel. It continuously calls the reader function and sends results
// to a channel wrapped in Message structs, until the source is exhausted, the
// source fails, or the consumer stops the Reader.
type Reader[R any] struct {
	RunnerBase[string]
	msgChannel chan Message[R]
	Read       ReaderFunc[R]
	OnDone     func(r *Reader[R])
	release    func()
	logger     logrus.FieldLogger
}

// ReaderOption is a functional option for configuring a Reader
type ReaderOption[R any] func(*Reader[R])

// WithOutputBuffer sets the buffer size for the output channel
func WithOutputBuffer[R any](size int) ReaderOption[R] {
	return func(r *Reader[R]) {
		r.msgChannel = make(chan Message[R], size)
	}
}

// WithOnDone sets the callback to be called when the reader finishes
func WithOnDone[R any](fn func(*Reader[R])) ReaderOption[R] {
	return func(r *Reader[R]) {
		r.OnDone = fn
	}
}

// WithReaderLogger sets the logger used to report read failures.
func WithReaderLogger[R any](logger logrus.FieldLogger) ReaderOption[R] {
	return func(r *Reader[R]) {
		r.logger = logger
	}
}

// NewReader creates a new reader instance with functional options.
// The reader function is required as the first parameter, with optional
// configuration via functional options.
//
// Examples:
//
//	// Simple usage
//	reader := NewReader(myReaderFunc)
//
//	// With a bounded output channel
//	reader := NewReader(myReaderFunc, WithOutputBuffer[ParticipantID](16))
func NewReader[R any](read ReaderFunc[R], opts ...ReaderOption[R]) *Reader[R] {
	out := newReader(read, opts)
	out.start()
	return out
}

// NewSeqReader streams the values of seq over the Reader's output channel.
// The sequence is pulled lazily, one value per send, so stopping the Reader
// also stops the sequence.
func NewSeqReader[R any](seq iter.Seq[R], opts ...ReaderOption[R]) *Reader[R] {
	next, stop := iter.Pull(seq)
	out := newReader(func() (R, error) {
		v, ok := next()
		if !ok {
			return v, io.EOF
		}
		return v, nil
	}, opts)
	out.release = stop
	out.start()
	return out
}

func newReader[R any](read ReaderFunc[R], opts []ReaderOption[R]) *Reader[R] {
	out := &Reader[R]{
		RunnerBase: NewRunnerBase("stop"),
		Read:       read,
		msgChannel: make(chan Message[R]), // default unbuffered
		logger:     logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(out)
	}
	return out
}

// OutputChan returns the channel on which messages can be received. It is
// closed when the reader finishes.
func (r *Reader[R]) OutputChan() <-chan Message[R] {
	return r.msgChannel
}

func (r *Reader[R]) start() {
	r.RunnerBase.start()
	go func() {
		var readErr error
		defer func() { r.cleanup(readErr) }()

		for {
			select {
			case <-r.controlChan:
				return
			default:
			}

			value, err := r.Read()
			if errors.Is(err, io.EOF) {
				return
			}

			// the consumer may have gone away while we were reading
			select {
			case <-r.controlChan:
				return
			case r.msgChannel <- Message[R]{Value: value, Error: err}:
			}

			if err != nil {
				r.logger.WithField("component", "reader").WithError(err).Debug("read failed")
				readErr = err
				return
			}
		}
	}()
}

func (r *Reader[R]) cleanup(err error) {
	if r.release != nil {
		r.release()
	}
	if r.OnDone != nil {
		r.OnDone(r)
	}
	close(r.msgChannel)
	r.RunnerBase.cleanup(err)
}
