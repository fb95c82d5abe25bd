package schema

import (
	"slices"
	"strings"
	"sync"

	"github.com/wippyai/handler-system/errors"
)

// Context records the systems defined so far. A name can be defined once.
type Context struct {
	systems map[string]*System
	mu      sync.RWMutex
}

// NewContext creates an empty context.
func NewContext() *Context {
	return &Context{systems: make(map[string]*System)}
}

// Define validates sys and registers it under its name.
func (c *Context) Define(sys *System) error {
	if sys == nil {
		return errors.Empty(errors.PhaseDefine, nil, "nil system")
	}
	if err := sys.Validate(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.systems[sys.Name]; exists {
		return errors.Duplicate(errors.PhaseDefine, "system", sys.Name)
	}
	c.systems[sys.Name] = sys
	return nil
}

// Lookup returns the system registered under name.
func (c *Context) Lookup(name string) (*System, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	sys, ok := c.systems[name]
	return sys, ok
}

// Systems returns every registered system sorted by name.
func (c *Context) Systems() []*System {
	c.mu.RLock()
	out := make([]*System, 0, len(c.systems))
	for _, sys := range c.systems {
		out = append(out, sys)
	}
	c.mu.RUnlock()

	slices.SortFunc(out, func(a, b *System) int {
		return strings.Compare(a.Name, b.Name)
	})
	return out
}
