// Package notify provides the subscription registry shared by domains and the
// reference property implementation. Handles are opaque, never reused, and
// teardown never depends on garbage collection.
package notify

import (
	"sort"
	"sync"
)

// Handle identifies one subscription in a Registry. The zero Handle is never
// issued.
type Handle uint64

// Func receives one notification payload.
type Func[E any] func(E)

// Registry stores callbacks keyed by handle and dispatches to them in
// subscription order.
type Registry[E any] struct {
	mu        sync.RWMutex
	next      Handle
	observers map[Handle]Func[E]
}

// NewRegistry constructs an empty registry.
func NewRegistry[E any]() *Registry[E] {
	return &Registry[E]{observers: make(map[Handle]Func[E])}
}

// Add registers fn and returns its handle. A nil fn yields the zero handle.
func (r *Registry[E]) Add(fn Func[E]) Handle {
	if fn == nil {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.observers == nil {
		r.observers = make(map[Handle]Func[E])
	}
	r.next++
	r.observers[r.next] = fn
	return r.next
}

// Remove drops the subscription for h. It reports whether h was registered.
func (r *Registry[E]) Remove(h Handle) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.observers[h]; !ok {
		return false
	}
	delete(r.observers, h)
	return true
}

// Len returns the number of live subscriptions.
func (r *Registry[E]) Len() int {
	if r == nil {
		return 0
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.observers)
}

// Clear drops every subscription.
func (r *Registry[E]) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.observers = make(map[Handle]Func[E])
}

// Notify calls every subscriber synchronously. The subscriber set is
// snapshotted first so callbacks may add or remove subscriptions; a callback
// removed during dispatch is not invoked afterwards.
func (r *Registry[E]) Notify(event E) {
	if r == nil {
		return
	}
	for _, h := range r.handles() {
		r.mu.RLock()
		fn, ok := r.observers[h]
		r.mu.RUnlock()
		if !ok {
			continue
		}
		fn(event)
	}
}

func (r *Registry[E]) handles() []Handle {
	r.mu.RLock()
	defer r.mu.RUnlock()
	handles := make([]Handle, 0, len(r.observers))
	for h := range r.observers {
		handles = append(handles, h)
	}
	sort.Slice(handles, func(i, j int) bool { return handles[i] < handles[j] })
	return handles
}
