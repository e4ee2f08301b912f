package gomatch

import "sync/atomic"

// RunnerBase holds the lifecycle state shared by every goroutine-backed
// component in this package: a control channel for commands, a running flag,
// and a closed channel that reports how the goroutine finished.
type RunnerBase[C any] struct {
	controlChan chan C
	stopCmd     C
	isRunning   atomic.Bool
	closedChan  chan error
	done        chan struct{}
}

// NewRunnerBase creates a runner whose Stop method sends stopCmd on the
// control channel.
func NewRunnerBase[C any](stopCmd C) RunnerBase[C] {
	return RunnerBase[C]{
		controlChan: make(chan C),
		stopCmd:     stopCmd,
		closedChan:  make(chan error, 1),
		done:        make(chan struct{}),
	}
}

// IsRunning returns true until the runner goroutine has finished cleanup.
func (r *RunnerBase[C]) IsRunning() bool {
	return r.isRunning.Load()
}

// ClosedChan receives the error (if any) the runner finished with and is
// closed once the runner is done. A clean shutdown closes it without a value.
func (r *RunnerBase[C]) ClosedChan() <-chan error {
	return r.closedChan
}

// Stop asks the runner to stop and waits until it has cleaned up.
// Stopping a runner that already finished is a no-op.
func (r *RunnerBase[C]) Stop() error {
	select {
	case r.controlChan <- r.stopCmd:
	case <-r.done:
	}
	<-r.done
	return nil
}

func (r *RunnerBase[C]) start() {
	r.isRunning.Store(true)
}

// cleanup must be called exactly once, from the runner goroutine, as its
// last action.
func (r *RunnerBase[C]) cleanup(err error) {
	r.isRunning.Store(false)
	if err != nil {
		r.closedChan <- err
	}
	close(r.closedChan)
	close(r.done)
}
