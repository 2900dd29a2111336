package firebase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/db"
	"github.com/google/uuid"

	"github.com/popcodeorg/playground-backend/internal/projects/domain"
)

const snapshotsPath = "snapshots"

var ErrSnapshotNotFound = errors.New("snapshot not found")

// SnapshotStore keeps immutable copies of projects in the Firebase Realtime
// Database so they can be shared by key.
type SnapshotStore struct {
	client *db.Client
}

// NewSnapshotStore opens the Realtime Database of app. The app must have
// been created with a DatabaseURL.
func NewSnapshotStore(ctx context.Context, app *firebase.App) (*SnapshotStore, error) {
	client, err := app.Database(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get Database client: %w", err)
	}
	return &SnapshotStore{client: client}, nil
}

// CreateSnapshot stores p under a new key and returns the key.
func (s *SnapshotStore) CreateSnapshot(ctx context.Context, p domain.Project) (string, error) {
	key := uuid.New().String()
	if err := s.client.NewRef(snapshotPath(key)).Set(ctx, p.Data()); err != nil {
		return "", fmt.Errorf("failed to create snapshot: %w", err)
	}
	return key, nil
}

// LoadSnapshot returns the project stored under key.
func (s *SnapshotStore) LoadSnapshot(ctx context.Context, key string) (domain.ProjectData, error) {
	if strings.TrimSpace(key) == "" || strings.ContainsAny(key, "/.#$[]") {
		return domain.ProjectData{}, ErrSnapshotNotFound
	}

	var p *domain.ProjectData
	if err := s.client.NewRef(snapshotPath(key)).Get(ctx, &p); err != nil {
		return domain.ProjectData{}, fmt.Errorf("failed to load snapshot: %w", err)
	}
	if p == nil {
		return domain.ProjectData{}, ErrSnapshotNotFound
	}
	return *p, nil
}

func snapshotPath(key string) string {
	return snapshotsPath + "/" + key
}
