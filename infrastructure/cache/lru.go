package cache

import "container/list"

// LRU is a fixed-capacity least-recently-used map. It is not safe for
// concurrent use; callers hold their own lock.
type LRU[V any] struct {
	capacity int
	order    *list.List
	items    map[string]*list.Element
}

type lruEntry[V any] struct {
	key   string
	value V
}

// NewLRU creates an LRU holding at most capacity entries. A non-positive
// capacity is treated as 1.
func NewLRU[V any](capacity int) *LRU[V] {
	return &LRU[V]{
		capacity: max(capacity, 1),
		order:    list.New(),
		items:    make(map[string]*list.Element),
	}
}

// Get returns the value under key and marks it most recently used.
func (l *LRU[V]) Get(key string) (V, bool) {
	el, ok := l.items[key]
	if !ok {
		var zero V
		return zero, false
	}
	l.order.MoveToFront(el)
	return el.Value.(*lruEntry[V]).value, true
}

// Add stores value under key, evicting the least recently used entry when
// the map is full.
func (l *LRU[V]) Add(key string, value V) {
	if el, ok := l.items[key]; ok {
		el.Value.(*lruEntry[V]).value = value
		l.order.MoveToFront(el)
		return
	}
	l.items[key] = l.order.PushFront(&lruEntry[V]{key: key, value: value})
	for l.order.Len() > l.capacity {
		l.removeElement(l.order.Back())
	}
}

// Remove deletes key if present.
func (l *LRU[V]) Remove(key string) {
	if el, ok := l.items[key]; ok {
		l.removeElement(el)
	}
}

// Purge drops every entry.
func (l *LRU[V]) Purge() {
	l.order.Init()
	l.items = make(map[string]*list.Element)
}

// Len returns the number of entries.
func (l *LRU[V]) Len() int { return l.order.Len() }

// Cap returns the entry limit.
func (l *LRU[V]) Cap() int { return l.capacity }

func (l *LRU[V]) removeElement(el *list.Element) {
	l.order.Remove(el)
	delete(l.items, el.Value.(*lruEntry[V]).key)
}
