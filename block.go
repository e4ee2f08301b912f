package gomatch

import (
	"sync"

	"github.com/pkg/errors"
)

// Component represents any building block that can be part of a Block.
// Reader, Mapper, FanIn, Matcher and Service all implement it.
type Component interface {
	// Stop stops the component and cleans up resources
	Stop() error

	// IsRunning returns true if the component is currently running
	IsRunning() bool
}

// Block groups components that share a lifetime. Components are stopped in
// reverse order of registration so downstream consumers added first outlive
// the producers feeding them.
type Block struct {
	name       string
	components []Component
	mu         sync.RWMutex
}

// NewBlock creates a new block with the given name
func NewBlock(name string) *Block {
	return &Block{
		name:       name,
		components: make([]Component, 0),
	}
}

// Add adds a component to this block
func (b *Block) Add(component Component) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.components = append(b.components, component)
}

// Stop stops all components in this block in reverse order. Every component
// is stopped even if an earlier one fails; the first failure is returned.
func (b *Block) Stop() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	var first error
	for i := len(b.components) - 1; i >= 0; i-- {
		if err := b.components[i].Stop(); err != nil && first == nil {
			first = errors.Wrapf(err, "block %s: failed to stop component %d", b.name, i)
		}
	}
	return first
}

// IsRunning returns true if any component in the block is running
func (b *Block) IsRunning() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, comp := range b.components {
		if comp.IsRunning() {
			return true
		}
	}
	return false
}

// Name returns the block's name
func (b *Block) Name() string {
	return b.name
}

// Count returns the number of components in this block
func (b *Block) Count() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.components)
}
