// Package state holds the versioned interaction state of one room and
// announces every change on the event bus.
package state

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/zeusync/vectorlab/internal/core/events/bus"
	"github.com/zeusync/vectorlab/internal/core/scene"
)

// EventChanged is the event type published after every accepted change.
const EventChanged = "state.changed"

// Change describes one accepted transition.
type Change struct {
	Version  uint64
	Previous scene.State
	Current  scene.State
	Source   string
	At       time.Time
}

// Changed reports whether the transition produced a new state.
func (c Change) Changed() bool {
	return c.Previous != c.Current
}

// Store is a mutex guarded scene.State with a monotonically increasing
// version.
type Store struct {
	mu      sync.RWMutex
	value   scene.State
	version atomic.Uint64

	topic string
	bus   bus.EventBus
}

// Option configures a Store.
type Option func(*Store)

// WithBus publishes EventChanged on topic for every accepted change.
func WithBus(b bus.EventBus, topic string) Option {
	return func(s *Store) {
		s.bus = b
		s.topic = topic
	}
}

// NewStore starts at version 1 holding initial.
func NewStore(initial scene.State, opts ...Option) *Store {
	s := &Store{value: initial}
	s.version.Store(1)
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get returns the current state and its version.
func (s *Store) Get() (scene.State, uint64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.value, s.version.Load()
}

// Version returns the current version.
func (s *Store) Version() uint64 {
	return s.version.Load()
}

// Apply runs fn against the current state. A rejected transition leaves the
// store untouched and returns fn's error. A transition yielding an equal
// state returns a Change with the unchanged version and publishes nothing.
func (s *Store) Apply(source string, fn func(scene.State) (scene.State, error)) (Change, error) {
	s.mu.Lock()
	prev := s.value
	next, err := fn(prev)
	if err != nil {
		s.mu.Unlock()
		return Change{}, err
	}

	change := Change{Previous: prev, Current: next, Source: source, At: time.Now()}
	if prev == next {
		change.Version = s.version.Load()
		s.mu.Unlock()
		return change, nil
	}

	s.value = next
	change.Version = s.version.Add(1)
	s.mu.Unlock()

	if s.bus != nil {
		if err = s.bus.PublishToTopic(s.topic, bus.NewEvent(EventChanged, source, change)); err != nil {
			return change, err
		}
	}
	return change, nil
}
