package gomatch

import "github.com/sirupsen/logrus"

type fanInCmd[T any] struct {
	Name           string
	AddedChannel   <-chan T
	RemovedChannel <-chan T
	CountReply     chan int
}

// FanIn merges multiple input channels into a single output channel.
// Arrival streams from several sources are combined into one stream this way
// before they reach the matchmaking workers.
type FanIn[T any] struct {
	RunnerBase[fanInCmd[T]]
	// OnChannelRemoved is called from the FanIn goroutine when a channel is
	// removed: explicitly, because it was closed, or because the FanIn stopped.
	// Set it with WithOnChannelRemoved, or before the first Add.
	OnChannelRemoved func(fi *FanIn[T], inchan <-chan T)

	inputs     []*Mapper[T, T]
	pipeDone   chan *Mapper[T, T]
	quit       chan struct{}
	selfOwnOut bool
	outChan    chan T
	logger     logrus.FieldLogger
}

// FanInOption is a functional option for configuring a FanIn
type FanInOption[T any] func(*FanIn[T])

// WithFanInOutput sets the channel merged values are written to. The caller
// keeps ownership of it and the FanIn will not close it.
func WithFanInOutput[T any](ch chan T) FanInOption[T] {
	return func(fi *FanIn[T]) {
		fi.outChan = ch
		fi.selfOwnOut = false
	}
}

// WithOnChannelRemoved sets the OnChannelRemoved callback.
func WithOnChannelRemoved[T any](fn func(fi *FanIn[T], inchan <-chan T)) FanInOption[T] {
	return func(fi *FanIn[T]) {
		fi.OnChannelRemoved = fn
	}
}

// WithFanInLogger sets the logger used to report input changes.
func WithFanInLogger[T any](logger logrus.FieldLogger) FanInOption[T] {
	return func(fi *FanIn[T]) {
		fi.logger = logger
	}
}

// NewFanIn creates a new FanIn. Unless WithFanInOutput is given, the FanIn
// creates and owns its output channel and closes it when it stops.
// The FanIn starts running immediately upon creation.
func NewFanIn[T any](opts ...FanInOption[T]) *FanIn[T] {
	out := &FanIn[T]{
		RunnerBase: NewRunnerBase(fanInCmd[T]{Name: "stop"}),
		pipeDone:   make(chan *Mapper[T, T]),
		quit:       make(chan struct{}),
		selfOwnOut: true,
		logger:     logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(out)
	}
	if out.outChan == nil {
		out.outChan = make(chan T)
	}
	out.start()
	return out
}

// RecvChan returns the channel on which merged output can be received.
func (fi *FanIn[T]) RecvChan() <-chan T {
	return fi.outChan
}

// OutputChan is an alias for RecvChan.
func (fi *FanIn[T]) OutputChan() <-chan T {
	return fi.outChan
}

// Add adds one or more input channels to the FanIn.
// Panics if any input channel is nil.
func (fi *FanIn[T]) Add(inputs ...<-chan T) {
	for _, input := range inputs {
		if input == nil {
			panic("Cannot add nil channels")
		}
		fi.send(fanInCmd[T]{Name: "add", AddedChannel: input})
	}
}

// Remove removes an input channel from the FanIn's monitor list.
// The channel will no longer contribute to the merged output.
func (fi *FanIn[T]) Remove(target <-chan T) {
	fi.send(fanInCmd[T]{Name: "remove", RemovedChannel: target})
}

// Count returns the number of input channels currently being monitored.
// A stopped FanIn monitors nothing.
func (fi *FanIn[T]) Count() int {
	reply := make(chan int, 1)
	if !fi.send(fanInCmd[T]{Name: "count", CountReply: reply}) {
		return 0
	}
	return <-reply
}

func (fi *FanIn[T]) send(cmd fanInCmd[T]) bool {
	select {
	case fi.controlChan <- cmd:
		return true
	case <-fi.done:
		return false
	}
}

func (fi *FanIn[T]) start() {
	fi.RunnerBase.start()
	go func() {
		defer fi.cleanup()
		for {
			select {
			case cmd := <-fi.controlChan:
				switch cmd.Name {
				case "stop":
					return
				case "add":
					input := NewPipe(cmd.AddedChannel, fi.outChan, WithMapperOnDone(fi.pipeClosed))
					fi.inputs = append(fi.inputs, input)
				case "remove":
					fi.logger.WithField("component", "fanin").Debug("removing input channel")
					fi.remove(cmd.RemovedChannel)
				case "count":
					cmd.CountReply <- len(fi.inputs)
				}
			case p := <-fi.pipeDone:
				// the pipe has already exited, so only forget it
				fi.dropPipe(p)
			}
		}
	}()
}

// pipeClosed runs on the pipe's own goroutine once its input is drained.
func (fi *FanIn[T]) pipeClosed(p *Mapper[T, T]) {
	select {
	case fi.pipeDone <- p:
	case <-fi.quit:
	}
}

func (fi *FanIn[T]) cleanup() {
	close(fi.quit)
	for len(fi.inputs) > 0 {
		fi.inputs[0].Stop()
		fi.dropAt(0)
	}
	if fi.selfOwnOut {
		close(fi.outChan)
	}
	fi.RunnerBase.cleanup(nil)
}

func (fi *FanIn[T]) dropAt(index int) {
	inchan := fi.inputs[index].input
	fi.inputs[index] = fi.inputs[len(fi.inputs)-1]
	fi.inputs = fi.inputs[:len(fi.inputs)-1]
	if fi.OnChannelRemoved != nil {
		fi.OnChannelRemoved(fi, inchan)
	}
}

func (fi *FanIn[T]) dropPipe(p *Mapper[T, T]) {
	for index, input := range fi.inputs {
		if input == p {
			fi.dropAt(index)
			return
		}
	}
}

func (fi *FanIn[T]) remove(inchan <-chan T) {
	for index, input := range fi.inputs {
		if input.input != inchan {
			continue
		}
		// the pipe reports itself on pipeDone while stopping, so keep
		// serving pipeDone until it is gone
		stopped := make(chan struct{})
		go func() {
			input.Stop()
			close(stopped)
		}()
		var exited []*Mapper[T, T]
		for waiting := true; waiting; {
			select {
			case <-stopped:
				waiting = false
			case p := <-fi.pipeDone:
				if p != input {
					exited = append(exited, p)
				}
			}
		}
		fi.dropAt(index)
		for _, p := range exited {
			fi.dropPipe(p)
		}
		return
	}
}
