package gomatch

import (
	"sync"

	"github.com/pkg/errors"
)

// guard is a mutex that remembers whether a holder failed while inside the
// critical section. Once poisoned it never runs another critical section.
type guard struct {
	mu       sync.Mutex
	poison   bool
	panicVal any
}

// do runs fn while holding the lock. If the guard is already poisoned fn is
// not run and ErrLockPoisoned is returned. If fn panics (or exits the
// goroutine) the guard is poisoned, the lock is released and the panic
// continues in the calling goroutine.
func (g *guard) do(fn func()) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.poison {
		return g.poisonedErr()
	}

	completed := false
	defer func() {
		if completed {
			return
		}
		g.poison = true
		if r := recover(); r != nil {
			g.panicVal = r
			panic(r)
		}
	}()
	fn()
	completed = true
	return nil
}

func (g *guard) poisoned() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.poison
}

// must be called with mu held
func (g *guard) poisonedErr() error {
	if g.panicVal == nil {
		return errors.Wrap(ErrLockPoisoned, "previous holder exited inside critical section")
	}
	return errors.Wrapf(ErrLockPoisoned, "previous holder panicked: %v", g.panicVal)
}
