package gomatch

func idMapperFunc[T any](input T) (output T, skip bool, stop bool) {
	output = input
	return
}

// Mapper connects an input and output channel applying transforms between them.
// It reads from the input channel, applies a transformation function, and writes
// the result to the output channel.
type Mapper[I any, O any] struct {
	RunnerBase[string]
	input  <-chan I
	output chan<- O

	// MapFunc is applied to each value in the input channel
	// and returns a tuple of 3 things - outval, skip, stop
	// if skip is false, outval is sent to the output channel
	// if stop is true, then the entire mapper stops processing any further elements.
	MapFunc func(I) (O, bool, bool)

	// OnDone runs on the mapper goroutine just before it exits. The goroutine
	// may exit before the constructor returns, so set it with WithMapperOnDone.
	OnDone func(p *Mapper[I, O])
}

// MapperOption is a functional option for configuring a Mapper
type MapperOption[I any, O any] func(*Mapper[I, O])

// WithMapperOnDone sets the callback invoked when the mapper goroutine exits.
func WithMapperOnDone[I any, O any](fn func(*Mapper[I, O])) MapperOption[I, O] {
	return func(m *Mapper[I, O]) {
		m.OnDone = fn
	}
}

// NewMapper creates a new mapper between an input and output channel.
// The ownership of the channels is by the caller and not the Mapper, so they
// will not be closed when the mapper stops.
func NewMapper[T any, U any](input <-chan T, output chan<- U, mapper func(T) (U, bool, bool), opts ...MapperOption[T, U]) *Mapper[T, U] {
	out := &Mapper[T, U]{
		RunnerBase: NewRunnerBase("stop"),
		input:      input,
		output:     output,
		MapFunc:    mapper,
	}
	for _, opt := range opts {
		opt(out)
	}
	out.start()
	return out
}

// NewPipe creates a mapper with the identity function, so it simply forwards
// all values from input to output without transformation.
func NewPipe[T any](input <-chan T, output chan<- T, opts ...MapperOption[T, T]) *Mapper[T, T] {
	return NewMapper(input, output, idMapperFunc[T], opts...)
}

// Unwrap creates a mapper that forwards the values of a Reader's messages and
// drops the ones carrying an error.
func Unwrap[T any](input <-chan Message[T], output chan<- T, opts ...MapperOption[Message[T], T]) *Mapper[Message[T], T] {
	return NewMapper(input, output, func(m Message[T]) (T, bool, bool) {
		return m.Value, m.Error != nil, false
	}, opts...)
}

func (m *Mapper[I, O]) start() {
	m.RunnerBase.start()
	go func() {
		defer m.cleanup()
		for {
			select {
			case <-m.controlChan:
				return
			case value, ok := <-m.input:
				if !ok {
					// no more inputs
					return
				}
				outval, skip, stop := m.MapFunc(value)
				if !skip {
					select {
					case <-m.controlChan:
						return
					case m.output <- outval:
					}
				}
				if stop {
					return
				}
			}
		}
	}()
}

func (m *Mapper[I, O]) cleanup() {
	if m.OnDone != nil {
		m.OnDone(m)
	}
	m.RunnerBase.cleanup(nil)
}
