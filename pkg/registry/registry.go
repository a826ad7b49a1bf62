// Package registry provides the in-memory concurrent maps that hold sessions
// and element handles for the lifetime of the process.
package registry

import (
	"container/list"
	"sync"
	"time"
)

// Options bounds a registry. The zero value is unbounded with no expiry.
type Options struct {
	// MaxEntries evicts the least recently written entry once exceeded. <= 0 means unbounded.
	MaxEntries int
	// TTL hides entries older than this on Get. Expired entries are dropped
	// on the next Put or Purge. 0 means never.
	TTL time.Duration
	// Clock is injectable for tests. Defaults to time.Now.
	Clock func() time.Time
}

type entry[V any] struct {
	key      string
	value    V
	storedAt time.Time
	elem     *list.Element
}

// Registry is a string-keyed map safe for concurrent use.
// Last writer wins per key; Remove is visible to every subsequent Get.
type Registry[V any] struct {
	mu      sync.RWMutex
	entries map[string]*entry[V]
	order   *list.List // insertion order, oldest at front
	opts    Options
}

// New creates an empty registry.
func New[V any](opts Options) *Registry[V] {
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	return &Registry[V]{
		entries: make(map[string]*entry[V]),
		order:   list.New(),
		opts:    opts,
	}
}

// Put stores value under id, replacing any previous value.
func (r *Registry[V]) Put(id string, value V) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.opts.Clock()
	r.dropExpiredLocked(now)

	if e, ok := r.entries[id]; ok {
		e.value = value
		e.storedAt = now
		r.order.MoveToBack(e.elem)
		return
	}

	e := &entry[V]{key: id, value: value, storedAt: now}
	e.elem = r.order.PushBack(e)
	r.entries[id] = e

	if r.opts.MaxEntries > 0 {
		for len(r.entries) > r.opts.MaxEntries {
			r.removeLocked(r.order.Front().Value.(*entry[V]))
		}
	}
}

// Get returns the value stored under id.
func (r *Registry[V]) Get(id string) (V, bool) {
	var (
		value   V
		expired bool
	)
	r.mu.RLock()
	e, ok := r.entries[id]
	if ok {
		value = e.value
		expired = r.expired(e)
	}
	r.mu.RUnlock()

	var zero V
	if !ok {
		return zero, false
	}
	if expired {
		r.mu.Lock()
		// Re-check: a concurrent Put may have refreshed the entry.
		if cur, still := r.entries[id]; still && r.expired(cur) {
			r.removeLocked(cur)
		}
		r.mu.Unlock()
		return zero, false
	}
	return value, true
}

// Remove deletes id. Returns true if it was present and not expired.
func (r *Registry[V]) Remove(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[id]
	if !ok {
		return false
	}
	live := !r.expired(e)
	r.removeLocked(e)
	return live
}

// Len returns the number of stored entries, including expired ones not yet purged.
func (r *Registry[V]) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Purge drops every expired entry and returns how many were removed.
func (r *Registry[V]) Purge() int {
	if r.opts.TTL <= 0 {
		return 0
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for el := r.order.Front(); el != nil; {
		next := el.Next()
		e := el.Value.(*entry[V])
		if r.expired(e) {
			r.removeLocked(e)
			removed++
		}
		el = next
	}
	return removed
}

// dropExpiredLocked removes expired entries from the front of the write
// order. Every write moves its entry to the back, so the front is oldest.
func (r *Registry[V]) dropExpiredLocked(now time.Time) {
	if r.opts.TTL <= 0 {
		return
	}
	for el := r.order.Front(); el != nil; el = r.order.Front() {
		e := el.Value.(*entry[V])
		if now.Sub(e.storedAt) <= r.opts.TTL {
			return
		}
		r.removeLocked(e)
	}
}

func (r *Registry[V]) expired(e *entry[V]) bool {
	return r.opts.TTL > 0 && r.opts.Clock().Sub(e.storedAt) > r.opts.TTL
}

func (r *Registry[V]) removeLocked(e *entry[V]) {
	r.order.Remove(e.elem)
	delete(r.entries, e.key)
}
