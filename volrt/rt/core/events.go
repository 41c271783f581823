package core

import (
	"sync"

	"github.com/google/uuid"
)

// Signal is a typed multi-subscriber notification. Handlers run
// synchronously on the emitting goroutine, in subscription order.
type Signal[T any] struct {
	mu       sync.Mutex
	handlers []*Subscription[T]
}

// Subscription is the handle returned by Subscribe. It can be paused and
// resumed any number of times and cancelled once.
type Subscription[T any] struct {
	id     uuid.UUID
	fn     func(T)
	signal *Signal[T]

	mu        sync.Mutex
	paused    bool
	cancelled bool
}

func (s *Signal[T]) Subscribe(fn func(T)) *Subscription[T] {
	sub := &Subscription[T]{id: uuid.New(), fn: fn, signal: s}
	s.mu.Lock()
	s.handlers = append(s.handlers, sub)
	s.mu.Unlock()
	return sub
}

// Emit calls every active handler with v.
func (s *Signal[T]) Emit(v T) {
	s.mu.Lock()
	handlers := append([]*Subscription[T](nil), s.handlers...)
	s.mu.Unlock()

	for _, h := range handlers {
		if h.Active() {
			h.fn(v)
		}
	}
}

// Len reports the number of live subscriptions, paused ones included.
func (s *Signal[T]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.handlers)
}

func (s *Signal[T]) remove(sub *Subscription[T]) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, h := range s.handlers {
		if h == sub {
			s.handlers = append(s.handlers[:i], s.handlers[i+1:]...)
			return
		}
	}
}

func (sub *Subscription[T]) ID() uuid.UUID { return sub.id }

// Active is true while the subscription is neither paused nor cancelled.
func (sub *Subscription[T]) Active() bool {
	sub.mu.Lock()
	defer sub.mu.Unlock()
	return !sub.paused && !sub.cancelled
}

func (sub *Subscription[T]) Pause() {
	sub.mu.Lock()
	sub.paused = true
	sub.mu.Unlock()
}

func (sub *Subscription[T]) Resume() {
	sub.mu.Lock()
	sub.paused = false
	sub.mu.Unlock()
}

func (sub *Subscription[T]) Cancel() {
	sub.mu.Lock()
	if sub.cancelled {
		sub.mu.Unlock()
		return
	}
	sub.cancelled = true
	sub.mu.Unlock()
	sub.signal.remove(sub)
}
