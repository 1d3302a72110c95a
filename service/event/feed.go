// Package event provides a small fan-out feed used to observe state changes
// without coupling producers to their consumers.
package event

import (
	"sync"
	"sync/atomic"
)

// Feed delivers published values to every live subscription. Publish never
// blocks: a subscriber whose buffer is full misses the value.
type Feed[T any] struct {
	mu      sync.RWMutex
	subs    map[*subscription[T]]struct{}
	dropped atomic.Uint64
}

// Subscription is the handle returned by Subscribe.
type Subscription interface {
	// Cancel stops delivery and closes the channel. Safe to call more than once.
	Cancel()
}

type subscription[T any] struct {
	feed *Feed[T]
	ch   chan T
	once sync.Once
}

func (s *subscription[T]) Cancel() {
	s.once.Do(func() {
		s.feed.mu.Lock()
		delete(s.feed.subs, s)
		s.feed.mu.Unlock()
		close(s.ch)
	})
}

func (f *Feed[T]) Subscribe(buffer int) (<-chan T, Subscription) {
	if buffer < 1 {
		buffer = 1
	}
	s := &subscription[T]{feed: f, ch: make(chan T, buffer)}

	f.mu.Lock()
	if f.subs == nil {
		f.subs = make(map[*subscription[T]]struct{})
	}
	f.subs[s] = struct{}{}
	f.mu.Unlock()

	return s.ch, s
}

// Publish returns the number of subscribers that received v.
func (f *Feed[T]) Publish(v T) int {
	f.mu.RLock()
	defer f.mu.RUnlock()

	delivered := 0
	for s := range f.subs {
		select {
		case s.ch <- v:
			delivered++
		default:
			f.dropped.Add(1)
		}
	}
	return delivered
}

func (f *Feed[T]) Len() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.subs)
}

func (f *Feed[T]) Dropped() uint64 {
	return f.dropped.Load()
}
