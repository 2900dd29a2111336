package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/popcodeorg/playground-backend/internal/clients/github"
	"github.com/popcodeorg/playground-backend/internal/projects/domain"
	"github.com/popcodeorg/playground-backend/internal/projects/event"
	"github.com/popcodeorg/playground-backend/internal/projects/gist"
	"github.com/popcodeorg/playground-backend/internal/projects/repository"
)

type fakeProjects struct {
	mu        sync.Mutex
	rows      map[string]map[string]domain.ProjectData
	upserts   [][]string
	deletes   [][]string
	failWrite error
}

func newFakeProjects() *fakeProjects {
	return &fakeProjects{rows: make(map[string]map[string]domain.ProjectData)}
}

func (f *fakeProjects) seed(userID string, projects ...domain.ProjectData) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.rows[userID] == nil {
		f.rows[userID] = make(map[string]domain.ProjectData)
	}
	for _, p := range projects {
		f.rows[userID][p.ProjectKey] = p
	}
}

func (f *fakeProjects) keys(userID string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.rows[userID]))
	for k := range f.rows[userID] {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func (f *fakeProjects) ListByUser(_ context.Context, userID string) ([]domain.ProjectData, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.ProjectData, 0, len(f.rows[userID]))
	for _, p := range f.rows[userID] {
		out = append(out, p)
	}
	return out, nil
}

func (f *fakeProjects) UpsertMany(_ context.Context, userID string, projects []domain.Project) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(projects) == 0 {
		return nil
	}
	if f.failWrite != nil {
		return f.failWrite
	}
	if f.rows[userID] == nil {
		f.rows[userID] = make(map[string]domain.ProjectData)
	}
	keys := make([]string, 0, len(projects))
	for _, p := range projects {
		f.rows[userID][p.ProjectKey] = p.Data()
		keys = append(keys, p.ProjectKey)
	}
	f.upserts = append(f.upserts, keys)
	return nil
}

func (f *fakeProjects) DeleteByKeys(_ context.Context, userID string, projectKeys []string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(projectKeys) == 0 {
		return 0, nil
	}
	var n int64
	for _, k := range projectKeys {
		if _, ok := f.rows[userID][k]; ok {
			delete(f.rows[userID], k)
			n++
		}
	}
	f.deletes = append(f.deletes, projectKeys)
	return n, nil
}

type fakeLastSessions struct {
	mu   sync.Mutex
	last map[string]domain.ProjectData
}

func newFakeLastSessions() *fakeLastSessions {
	return &fakeLastSessions{last: make(map[string]domain.ProjectData)}
}

func (f *fakeLastSessions) SaveLastSession(_ context.Context, userID string, p domain.Project) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.last[userID] = p.Data()
	return nil
}

func (f *fakeLastSessions) ClearLastSession(_ context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.last, userID)
	return nil
}

func (f *fakeLastSessions) LoadLastSession(_ context.Context, userID string) (domain.ProjectData, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.last[userID]
	if !ok {
		return domain.ProjectData{}, repository.ErrSessionNotFound
	}
	return p, nil
}

type fakeJournal struct {
	mu        sync.Mutex
	streams   map[string][]event.Envelope
	truncated []string
}

func newFakeJournal() *fakeJournal {
	return &fakeJournal{streams: make(map[string][]event.Envelope)}
}

func (f *fakeJournal) Append(_ context.Context, stream string, env event.Envelope) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.streams[stream] = append(f.streams[stream], env)
	return nil
}

func (f *fakeJournal) Truncate(_ context.Context, stream string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.streams, stream)
	f.truncated = append(f.truncated, stream)
	return nil
}

func (f *fakeJournal) len(stream string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.streams[stream])
}

type fakeGitHub struct {
	gist     github.Gist
	repo     github.Repo
	gistData gist.Data
	err      error

	exported []domain.Project
}

func (f *fakeGitHub) CreateGist(_ context.Context, _ string, p domain.Project) (github.Gist, error) {
	f.exported = append(f.exported, p)
	return f.gist, f.err
}

func (f *fakeGitHub) GetGist(_ context.Context, _, _ string) (gist.Data, error) {
	return f.gistData, f.err
}

func (f *fakeGitHub) CreateOrUpdateRepo(_ context.Context, _ string, p domain.Project) (github.Repo, error) {
	f.exported = append(f.exported, p)
	return f.repo, f.err
}

type fakeSnapshots struct {
	saved map[string]domain.ProjectData
	err   error
	next  int
}

func newFakeSnapshots() *fakeSnapshots {
	return &fakeSnapshots{saved: make(map[string]domain.ProjectData)}
}

func (f *fakeSnapshots) CreateSnapshot(_ context.Context, p domain.Project) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.next++
	key := "snap-" + string(rune('0'+f.next))
	f.saved[key] = p.Data()
	return key, nil
}

func (f *fakeSnapshots) LoadSnapshot(_ context.Context, key string) (domain.ProjectData, error) {
	p, ok := f.saved[key]
	if !ok {
		return domain.ProjectData{}, errSnapshotMissing
	}
	return p, nil
}

var errSnapshotMissing = errors.New("snapshot missing")

// clock is a manually advanced time source.
type clock struct {
	mu  sync.Mutex
	now time.Time
}

func newClock() *clock {
	return &clock{now: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}
