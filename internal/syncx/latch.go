// Package syncx provides extended synchronization primitives
package syncx

import "sync"

// Latch is a write-once cell. The first Set wins; later writes are ignored.
// Readers can block on Done until a value has been stored.
type Latch[T any] struct {
	mu    sync.RWMutex
	set   bool
	value T
	done  chan struct{}
}

// NewLatch creates an unset latch.
func NewLatch[T any]() *Latch[T] {
	return &Latch[T]{done: make(chan struct{})}
}

// Set stores v if the latch is still open and reports whether it did.
func (l *Latch[T]) Set(v T) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.set {
		return false
	}
	l.set = true
	l.value = v
	close(l.done)
	return true
}

// Get returns the stored value and whether one has been set.
func (l *Latch[T]) Get() (T, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.value, l.set
}

// IsSet reports whether a value has been stored.
func (l *Latch[T]) IsSet() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.set
}

// Done is closed once a value has been stored.
func (l *Latch[T]) Done() <-chan struct{} { return l.done }
