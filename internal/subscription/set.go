// Package subscription manages a keyed set of long-lived event streams.
//
// A Set is recomposed from a list of Specs after every state change. Streams
// whose key is already running are left untouched, so recomposing the same
// list any number of times never registers a second listener or delivers an
// event twice. Streams whose key disappears are cancelled.
package subscription

import (
	"context"
	"log/slog"
	"sync"
)

// Spec describes one subscription.
type Spec[T any] struct {
	// Key identifies the subscription across recompositions.
	Key string
	// Start opens the stream. It must close the channel once ctx is done.
	Start func(ctx context.Context) <-chan T
}

// Set runs subscriptions and merges their events into one channel.
type Set[T any] struct {
	mu      sync.Mutex
	parent  context.Context
	running map[string]context.CancelFunc
	events  chan T
	wg      sync.WaitGroup
	logger  *slog.Logger
	closed  bool
}

// NewSet creates a Set whose subscriptions live at most as long as ctx.
func NewSet[T any](ctx context.Context, buffer int, logger *slog.Logger) *Set[T] {
	if logger == nil {
		logger = slog.Default()
	}
	return &Set[T]{
		parent:  ctx,
		running: make(map[string]context.CancelFunc),
		events:  make(chan T, buffer),
		logger:  logger,
	}
}

// Events returns the merged event channel. Events of one subscription keep
// their order; there is no ordering between subscriptions.
func (s *Set[T]) Events() <-chan T {
	return s.events
}

// Recompose makes the running set match specs.
// It returns how many subscriptions were started and stopped.
func (s *Set[T]) Recompose(specs []Spec[T]) (started, stopped int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0, 0
	}

	wanted := make(map[string]Spec[T], len(specs))
	for _, spec := range specs {
		wanted[spec.Key] = spec
	}

	for key, cancel := range s.running {
		if _, ok := wanted[key]; ok {
			continue
		}
		cancel()
		delete(s.running, key)
		stopped++
		s.logger.Debug("subscription stopped", "key", key)
	}

	for key, spec := range wanted {
		if _, ok := s.running[key]; ok {
			continue
		}
		ctx, cancel := context.WithCancel(s.parent)
		s.running[key] = cancel
		s.wg.Add(1)
		go s.forward(ctx, spec.Start(ctx))
		started++
		s.logger.Debug("subscription started", "key", key)
	}

	return started, stopped
}

// Keys returns the keys of the running subscriptions.
func (s *Set[T]) Keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	keys := make([]string, 0, len(s.running))
	for key := range s.running {
		keys = append(keys, key)
	}
	return keys
}

// Close cancels every subscription and waits until each stream has closed.
func (s *Set[T]) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	for key, cancel := range s.running {
		cancel()
		delete(s.running, key)
	}
	s.mu.Unlock()

	s.wg.Wait()
}

// forward copies src into the merged channel until ctx ends, then drains src
// so the producer can finish its cleanup.
func (s *Set[T]) forward(ctx context.Context, src <-chan T) {
	defer s.wg.Done()

	for v := range src {
		if ctx.Err() != nil {
			continue
		}
		select {
		case s.events <- v:
		case <-ctx.Done():
		}
	}
}
