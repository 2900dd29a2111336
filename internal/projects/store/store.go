package store

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/popcodeorg/playground-backend/internal/platform/logger"
	"github.com/popcodeorg/playground-backend/internal/projects/event"
)

// Journal records dispatched events before they are applied.
type Journal interface {
	Append(ctx context.Context, stream string, env event.Envelope) error
}

// Store holds the state of one session. Writers are serialized; readers get
// the latest complete state without locking.
type Store struct {
	stream  string
	journal Journal
	log     *logger.Logger

	mu    sync.Mutex
	state atomic.Pointer[State]
}

// Option configures a Store.
type Option func(*Store)

// WithJournal makes the store append every dispatched event to j under
// stream before applying it.
func WithJournal(j Journal, stream string) Option {
	return func(s *Store) {
		s.journal = j
		s.stream = stream
	}
}

func WithLogger(l *logger.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.log = l
		}
	}
}

// New returns a store starting at initial.
func New(initial State, opts ...Option) *Store {
	s := &Store{log: logger.Nop()}
	for _, opt := range opts {
		opt(s)
	}
	if initial.Projects.m == nil {
		initial.Projects = NewCollection()
	}
	s.state.Store(&initial)
	return s
}

// State returns the current state.
func (s *Store) State() State {
	return *s.state.Load()
}

// Dispatch applies e and returns the previous and the new state. When a
// journal is configured and the append fails, nothing is applied.
func (s *Store) Dispatch(ctx context.Context, e event.Event) (prev, next State, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := time.Now()
	prev = *s.state.Load()

	if s.journal != nil {
		env, err := event.Encode(e)
		if err != nil {
			return prev, prev, err
		}
		if err := s.journal.Append(ctx, s.stream, env); err != nil {
			return prev, prev, fmt.Errorf("journal %s: %w", e.Type(), err)
		}
	}

	next = ReduceRoot(prev, e)
	s.state.Store(&next)

	s.log.Debug("event reduced",
		"type", e.Type(),
		"stream", s.stream,
		"projects", next.Projects.Len(),
		"changed", !next.Projects.Same(prev.Projects) || next.CurrentProjectKey != prev.CurrentProjectKey,
		"duration", time.Since(start),
	)
	return prev, next, nil
}

// replayDecoder has no clock: journaled events keep exactly the timestamp
// they were dispatched with, zero included.
var replayDecoder = event.Decoder{}

// Replay folds envelopes into a state without journaling them again.
func Replay(initial State, envs []event.Envelope) (State, error) {
	state := initial
	if state.Projects.m == nil {
		state.Projects = NewCollection()
	}
	for i, env := range envs {
		e, err := replayDecoder.Decode(env)
		if err != nil {
			return state, fmt.Errorf("replay entry %d: %w", i, err)
		}
		state = ReduceRoot(state, e)
	}
	return state, nil
}
