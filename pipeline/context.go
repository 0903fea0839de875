package pipeline

import (
	"math/big"
	"sync"
)

// Context is the mutable key/value state accumulated across a run's steps.
// Each step may read what earlier steps stored and store values for later
// steps. It is safe for concurrent use; Cancel discards it wholesale.
type Context struct {
	mu     sync.RWMutex
	values map[string]any
}

// NewContext returns an empty run context.
func NewContext() *Context {
	return &Context{values: make(map[string]any)}
}

// Set stores a value under key, replacing any previous value.
func (c *Context) Set(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values[key] = value
}

// Value returns the value stored under key.
func (c *Context) Value(key string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.values[key]
	return v, ok
}

// Bool returns the bool stored under key, or false.
func (c *Context) Bool(key string) bool {
	v, ok := c.Value(key)
	if !ok {
		return false
	}
	b, _ := v.(bool)
	return b
}

// String returns the string stored under key, or "".
func (c *Context) String(key string) string {
	v, ok := c.Value(key)
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}

// BigInt returns the *big.Int stored under key, or nil.
func (c *Context) BigInt(key string) *big.Int {
	v, ok := c.Value(key)
	if !ok {
		return nil
	}
	n, _ := v.(*big.Int)
	return n
}
