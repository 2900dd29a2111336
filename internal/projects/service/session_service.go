package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/popcodeorg/playground-backend/internal/platform/logger"
	"github.com/popcodeorg/playground-backend/internal/projects/domain"
	"github.com/popcodeorg/playground-backend/internal/projects/event"
	"github.com/popcodeorg/playground-backend/internal/projects/repository"
	"github.com/popcodeorg/playground-backend/internal/projects/selector"
	"github.com/popcodeorg/playground-backend/internal/projects/store"
)

// ProjectRepository is the durable project storage.
type ProjectRepository interface {
	ListByUser(ctx context.Context, userID string) ([]domain.ProjectData, error)
	UpsertMany(ctx context.Context, userID string, projects []domain.Project) error
	DeleteByKeys(ctx context.Context, userID string, projectKeys []string) (int64, error)
}

// LastSessionRepository remembers the project a user was last editing.
type LastSessionRepository interface {
	SaveLastSession(ctx context.Context, userID string, p domain.Project) error
	LoadLastSession(ctx context.Context, userID string) (domain.ProjectData, error)
	ClearLastSession(ctx context.Context, userID string) error
}

// EventJournal is the journal with the maintenance operations the session
// service needs on top of appending.
type EventJournal interface {
	store.Journal
	Truncate(ctx context.Context, stream string) error
}

// SessionService keeps one project store per signed-in user and persists
// what changes in them.
type SessionService struct {
	projects ProjectRepository
	sessions LastSessionRepository
	journal  EventJournal
	log      *logger.Logger
	now      func() time.Time

	mu   sync.Mutex
	open map[string]*session
}

type session struct {
	store *store.Store

	// ready is closed once loading finished; loadErr is set before that.
	ready   chan struct{}
	loadErr error

	// Dispatches hold gate shared. Closing holds it exclusively to mark the
	// session closed, so no event lands between the final flush and the
	// session leaving the open map. closing is closed when that is over.
	gate    sync.RWMutex
	closed  bool
	closing chan struct{}

	// flushMu keeps one flush per session at a time, so a failed flush has
	// re-marked its keys before the next one takes them.
	flushMu sync.Mutex

	mu       sync.Mutex
	changed  map[string]struct{}
	removed  map[string]struct{}
	lastUsed time.Time
}

// SessionOption configures a SessionService.
type SessionOption func(*SessionService)

// WithJournal records every event dispatched to a session.
func WithJournal(j EventJournal) SessionOption {
	return func(s *SessionService) { s.journal = j }
}

// WithClock replaces the wall clock, for tests.
func WithClock(now func() time.Time) SessionOption {
	return func(s *SessionService) { s.now = now }
}

// NewSessionService creates a new SessionService. lastSessions may be nil
// when no cache is configured.
func NewSessionService(projects ProjectRepository, lastSessions LastSessionRepository, log *logger.Logger, opts ...SessionOption) *SessionService {
	if log == nil {
		log = logger.Nop()
	}
	s := &SessionService{
		projects: projects,
		sessions: lastSessions,
		log:      log,
		now:      time.Now,
		open:     make(map[string]*session),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// session returns the open session of userID, loading it on first use.
// Loading runs outside s.mu; concurrent callers for the same user wait for
// the first one.
func (s *SessionService) session(ctx context.Context, userID string) (*session, error) {
	if userID == "" {
		return nil, fmt.Errorf("user id required")
	}

	for {
		s.mu.Lock()
		sess, ok := s.open[userID]
		if !ok {
			sess = s.newSession(userID)
			s.open[userID] = sess
		}
		s.mu.Unlock()

		if !ok {
			if err := s.load(ctx, userID, sess); err != nil {
				sess.loadErr = err
				s.mu.Lock()
				if s.open[userID] == sess {
					delete(s.open, userID)
				}
				s.mu.Unlock()
				close(sess.ready)
				return nil, err
			}
			close(sess.ready)
			return sess, nil
		}

		select {
		case <-sess.ready:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		if sess.loadErr != nil {
			// The loader gave up with its own error; try again as loader.
			continue
		}
		sess.touch(s.now())
		return sess, nil
	}
}

func (s *SessionService) newSession(userID string) *session {
	opts := []store.Option{store.WithLogger(s.log.With("user_id", userID))}
	if s.journal != nil {
		opts = append(opts, store.WithJournal(s.journal, userID))
	}
	return &session{
		store:    store.New(store.NewState(), opts...),
		ready:    make(chan struct{}),
		changed:  make(map[string]struct{}),
		removed:  make(map[string]struct{}),
		lastUsed: s.now(),
	}
}

// load fills a fresh session from the project repository and the last
// session cache.
func (s *SessionService) load(ctx context.Context, userID string, sess *session) error {
	loaded, err := s.projects.ListByUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("load projects: %w", err)
	}
	if _, _, err := sess.store.Dispatch(ctx, event.ProjectsLoaded{Projects: loaded}); err != nil {
		return err
	}

	if s.sessions != nil {
		last, err := s.sessions.LoadLastSession(ctx, userID)
		switch {
		case err == nil:
			if _, _, err := sess.store.Dispatch(ctx, event.ProjectRestoredFromLastSession{Project: last}); err != nil {
				return err
			}
		case errors.Is(err, repository.ErrSessionNotFound):
		default:
			s.log.Warn("last session unavailable", "user_id", userID, "error", err)
		}
	}

	s.log.Info("session opened", "user_id", userID, "projects", len(loaded))
	return nil
}

// State returns the current state of the user's session.
func (s *SessionService) State(ctx context.Context, userID string) (store.State, error) {
	sess, err := s.session(ctx, userID)
	if err != nil {
		return store.State{}, err
	}
	return sess.store.State(), nil
}

// Dispatch applies e to the user's session and returns the new state. An
// event that races with the session being closed waits for the close and
// goes to the reopened session.
func (s *SessionService) Dispatch(ctx context.Context, userID string, e event.Event) (store.State, error) {
	for {
		sess, err := s.session(ctx, userID)
		if err != nil {
			return store.State{}, err
		}

		sess.gate.RLock()
		if sess.closed {
			wait := sess.closing
			sess.gate.RUnlock()
			select {
			case <-wait:
			case <-ctx.Done():
				return store.State{}, ctx.Err()
			}
			continue
		}
		next, err := s.apply(ctx, sess, e)
		sess.gate.RUnlock()
		return next, err
	}
}

func (s *SessionService) apply(ctx context.Context, sess *session, e event.Event) (store.State, error) {
	prev, next, err := sess.store.Dispatch(ctx, e)
	if err != nil {
		return prev, err
	}

	changed, removed := store.Diff(prev.Projects, next.Projects)
	if _, loggedOut := e.(event.UserLoggedOut); loggedOut {
		// Logging out only forgets projects locally.
		removed = nil
	}
	sess.mark(changed, removed)
	return next, nil
}

// Flush writes the user's pending changes to the project repository and
// saves the current project as the last session.
func (s *SessionService) Flush(ctx context.Context, userID string) error {
	s.mu.Lock()
	sess, ok := s.open[userID]
	s.mu.Unlock()
	if !ok || !sess.loaded() {
		return nil
	}
	return s.flush(ctx, userID, sess)
}

func (s *SessionService) flush(ctx context.Context, userID string, sess *session) error {
	sess.flushMu.Lock()
	defer sess.flushMu.Unlock()

	changed, removed := sess.take()
	state := sess.store.State()

	upserts := make([]domain.Project, 0, len(changed))
	for _, key := range changed {
		if p, ok := state.Projects.Get(key); ok {
			upserts = append(upserts, p)
		}
	}

	if err := s.projects.UpsertMany(ctx, userID, upserts); err != nil {
		sess.mark(changed, removed)
		return fmt.Errorf("save projects: %w", err)
	}
	if _, err := s.projects.DeleteByKeys(ctx, userID, removed); err != nil {
		sess.mark(nil, removed)
		return fmt.Errorf("delete projects: %w", err)
	}

	if s.sessions != nil && len(changed) > 0 {
		if current, err := selector.CurrentProject(state); err == nil {
			if err := s.sessions.SaveLastSession(ctx, userID, current); err != nil {
				s.log.Warn("failed to save last session", "user_id", userID, "error", err)
			}
		}
	}

	if len(upserts) > 0 || len(removed) > 0 {
		s.log.Debug("session flushed", "user_id", userID, "saved", len(upserts), "deleted", len(removed))
	}
	return nil
}

// FlushAll flushes every open session and returns the first error.
func (s *SessionService) FlushAll(ctx context.Context) error {
	var firstErr error
	for userID, sess := range s.snapshot() {
		if err := s.flush(ctx, userID, sess); err != nil {
			s.log.Error("flush failed", "user_id", userID, "error", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

// EvictIdle flushes and closes sessions unused for longer than idle.
func (s *SessionService) EvictIdle(ctx context.Context, idle time.Duration) int {
	cutoff := s.now().Add(-idle)
	evicted := 0
	for userID, sess := range s.snapshot() {
		dropped, err := s.drop(ctx, userID, sess, func() bool { return sess.idleSince(cutoff) })
		if err != nil {
			s.log.Error("flush before eviction failed", "user_id", userID, "error", err)
			continue
		}
		if dropped {
			evicted++
		}
	}
	return evicted
}

// Close logs the user out: the session keeps only its current project,
// is flushed and then dropped.
func (s *SessionService) Close(ctx context.Context, userID string) error {
	s.mu.Lock()
	_, ok := s.open[userID]
	s.mu.Unlock()
	if !ok {
		return nil
	}

	state, err := s.Dispatch(ctx, userID, event.UserLoggedOut{})
	if err != nil {
		return err
	}
	// The event may have gone to a session reopened after an eviction.
	s.mu.Lock()
	sess, ok := s.open[userID]
	s.mu.Unlock()
	if ok {
		if _, err := s.drop(ctx, userID, sess, nil); err != nil {
			return err
		}
	}

	if s.sessions != nil && state.CurrentProjectKey == "" {
		if err := s.sessions.ClearLastSession(ctx, userID); err != nil {
			s.log.Warn("failed to clear last session", "user_id", userID, "error", err)
		}
	}
	if s.journal != nil {
		if err := s.journal.Truncate(ctx, userID); err != nil {
			s.log.Warn("failed to truncate journal", "user_id", userID, "error", err)
		}
	}
	s.log.Info("session closed", "user_id", userID)
	return nil
}

// drop closes sess: it stops new events, flushes what is pending and removes
// the session from the open map. When shouldDrop is set and reports false,
// or the flush fails, the session stays open.
func (s *SessionService) drop(ctx context.Context, userID string, sess *session, shouldDrop func() bool) (bool, error) {
	sess.gate.Lock()
	if sess.closed || (shouldDrop != nil && !shouldDrop()) {
		sess.gate.Unlock()
		return false, nil
	}
	sess.closed = true
	sess.closing = make(chan struct{})
	done := sess.closing
	sess.gate.Unlock()
	defer close(done)

	if err := s.flush(ctx, userID, sess); err != nil {
		sess.gate.Lock()
		sess.closed = false
		sess.gate.Unlock()
		return false, err
	}

	s.mu.Lock()
	if s.open[userID] == sess {
		delete(s.open, userID)
	}
	s.mu.Unlock()
	return true, nil
}

// OpenSessions lists the users with an open session.
func (s *SessionService) OpenSessions() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.open))
	for userID := range s.open {
		out = append(out, userID)
	}
	sort.Strings(out)
	return out
}

// snapshot copies the loaded sessions.
func (s *SessionService) snapshot() map[string]*session {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]*session, len(s.open))
	for k, v := range s.open {
		if v.loaded() {
			out[k] = v
		}
	}
	return out
}

func (sess *session) loaded() bool {
	select {
	case <-sess.ready:
		return sess.loadErr == nil
	default:
		return false
	}
}

func (sess *session) touch(now time.Time) {
	sess.mu.Lock()
	sess.lastUsed = now
	sess.mu.Unlock()
}

func (sess *session) idleSince(cutoff time.Time) bool {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.lastUsed.Before(cutoff)
}

func (sess *session) mark(changed, removed []string) {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	for _, k := range changed {
		sess.changed[k] = struct{}{}
		delete(sess.removed, k)
	}
	for _, k := range removed {
		sess.removed[k] = struct{}{}
		delete(sess.changed, k)
	}
}

func (sess *session) take() (changed, removed []string) {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	for k := range sess.changed {
		changed = append(changed, k)
	}
	for k := range sess.removed {
		removed = append(removed, k)
	}
	sort.Strings(changed)
	sort.Strings(removed)
	sess.changed = make(map[string]struct{})
	sess.removed = make(map[string]struct{})
	return changed, removed
}
