// Package oncecell provides a mutex-guarded write-once cell.
//
// A Cell starts empty and accepts exactly one value. Unlike sync.Once, the
// initialiser may decline (report "not yet"), in which case the cell stays
// empty and a later caller tries again. Once set, the value never changes.
package oncecell

import "sync"

// Cell holds at most one value of T. The zero value is an empty cell.
type Cell[T any] struct {
	mu    sync.Mutex
	value T
	set   bool
}

// Get returns the value and whether the cell is set.
func (c *Cell[T]) Get() (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.value, c.set
}

// Set stores v if the cell is still empty. Returns true if v was stored.
func (c *Cell[T]) Set(v T) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.set {
		return false
	}
	c.value, c.set = v, true
	return true
}

// GetOrInit returns the stored value, or runs init while holding the lock and
// stores its result when init reports ok. init must not block.
func (c *Cell[T]) GetOrInit(init func() (T, bool)) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.set {
		return c.value, true
	}
	v, ok := init()
	if !ok {
		var zero T
		return zero, false
	}
	c.value, c.set = v, true
	return v, true
}

// IsSet reports whether the cell holds a value.
func (c *Cell[T]) IsSet() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.set
}
