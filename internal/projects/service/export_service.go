package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/google/uuid"

	"github.com/popcodeorg/playground-backend/internal/clients/classroom"
	"github.com/popcodeorg/playground-backend/internal/clients/github"
	"github.com/popcodeorg/playground-backend/internal/platform/logger"
	"github.com/popcodeorg/playground-backend/internal/projects/domain"
	"github.com/popcodeorg/playground-backend/internal/projects/event"
	"github.com/popcodeorg/playground-backend/internal/projects/gist"
	"github.com/popcodeorg/playground-backend/internal/projects/preview"
	"github.com/popcodeorg/playground-backend/internal/projects/selector"
	"github.com/popcodeorg/playground-backend/internal/projects/store"
)

var (
	ErrUnknownExportType = errors.New("unknown export type")
	ErrTokenRequired     = errors.New("github token required")
	ErrSnapshotsDisabled = errors.New("snapshots are not configured")
)

// ExportError reports a failed export to an outside service.
type ExportError struct {
	ExportType string
	Err        error
}

func (e *ExportError) Error() string { return fmt.Sprintf("export %s: %v", e.ExportType, e.Err) }

func (e *ExportError) Unwrap() error { return e.Err }

// GitHub is the part of the GitHub client used for exports and imports.
type GitHub interface {
	CreateGist(ctx context.Context, token string, p domain.Project) (github.Gist, error)
	GetGist(ctx context.Context, token, gistID string) (gist.Data, error)
	CreateOrUpdateRepo(ctx context.Context, token string, p domain.Project) (github.Repo, error)
}

// Snapshots stores shareable copies of projects.
type Snapshots interface {
	CreateSnapshot(ctx context.Context, p domain.Project) (string, error)
	LoadSnapshot(ctx context.Context, key string) (domain.ProjectData, error)
}

// ExportService runs exports and imports against the outside world and
// reports their outcome to the user's session as events.
type ExportService struct {
	sessions  *SessionService
	github    GitHub
	snapshots Snapshots
	publicURL string
	log       *logger.Logger
	newKey    func() string
}

// NewExportService creates a new ExportService. publicURL is the address of
// the playground front end that opens shared snapshots. snapshots may be nil
// when the Realtime Database is not configured.
func NewExportService(sessions *SessionService, gh GitHub, snapshots Snapshots, publicURL string, log *logger.Logger) *ExportService {
	if log == nil {
		log = logger.Nop()
	}
	return &ExportService{
		sessions:  sessions,
		github:    gh,
		snapshots: snapshots,
		publicURL: strings.TrimRight(publicURL, "/"),
		log:       log,
		newKey:    func() string { return uuid.New().String() },
	}
}

// Export sends the user's current project to exportType and returns the
// resulting URL.
func (s *ExportService) Export(ctx context.Context, userID, exportType, token string) (string, error) {
	state, err := s.sessions.State(ctx, userID)
	if err != nil {
		return "", err
	}
	project, err := selector.CurrentProject(state)
	if err != nil {
		return "", err
	}

	var (
		exportURL string
		data      event.ExportData
	)
	switch exportType {
	case event.ExportGist:
		if token == "" {
			return "", ErrTokenRequired
		}
		var g github.Gist
		g, err = s.github.CreateGist(ctx, token, project)
		exportURL = g.HTMLURL
	case event.ExportRepo:
		if token == "" {
			return "", ErrTokenRequired
		}
		var r github.Repo
		r, err = s.github.CreateOrUpdateRepo(ctx, token, project)
		exportURL, data.Name = r.URL, r.Name
	case event.ExportClassroom:
		if s.snapshots == nil {
			return "", ErrSnapshotsDisabled
		}
		var key string
		key, err = s.snapshots.CreateSnapshot(ctx, project)
		if err == nil {
			exportURL = classroom.ShareURL(s.SnapshotURL(key), preview.Title(project))
		}
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownExportType, exportType)
	}

	if err != nil {
		s.log.Warn("export failed", "user_id", userID, "export_type", exportType, "error", err)
		if _, dErr := s.sessions.Dispatch(ctx, userID, event.ProjectExportError{ExportType: exportType}); dErr != nil {
			s.log.Error("failed to record export error", "user_id", userID, "error", dErr)
		}
		return "", &ExportError{ExportType: exportType, Err: err}
	}

	_, err = s.sessions.Dispatch(ctx, userID, event.ProjectExported{
		URL:        exportURL,
		ExportType: exportType,
		ProjectKey: project.ProjectKey,
		ExportData: data,
		Timestamp:  s.sessions.now().UnixMilli(),
	})
	if err != nil {
		return "", err
	}
	s.log.Info("project exported", "user_id", userID, "export_type", exportType, "project_key", project.ProjectKey)
	return exportURL, nil
}

// CreateSnapshot stores the user's current project as a snapshot and
// returns its key.
func (s *ExportService) CreateSnapshot(ctx context.Context, userID string) (string, error) {
	state, err := s.sessions.State(ctx, userID)
	if err != nil {
		return "", err
	}
	project, err := selector.CurrentProject(state)
	if err != nil {
		return "", err
	}
	if s.snapshots == nil {
		return "", ErrSnapshotsDisabled
	}

	key, err := s.snapshots.CreateSnapshot(ctx, project)
	if err != nil {
		if _, dErr := s.sessions.Dispatch(ctx, userID, event.SnapshotExportError{Message: err.Error()}); dErr != nil {
			s.log.Error("failed to record snapshot error", "user_id", userID, "error", dErr)
		}
		return "", err
	}
	if _, err := s.sessions.Dispatch(ctx, userID, event.SnapshotCreated{SnapshotKey: key}); err != nil {
		return "", err
	}
	return key, nil
}

// ImportSnapshot copies the snapshot at snapshotKey into a new project of
// the user and makes it current.
func (s *ExportService) ImportSnapshot(ctx context.Context, userID, snapshotKey string) (store.State, error) {
	if s.snapshots == nil {
		return store.State{}, ErrSnapshotsDisabled
	}
	data, err := s.snapshots.LoadSnapshot(ctx, snapshotKey)
	if err != nil {
		return store.State{}, err
	}
	return s.sessions.Dispatch(ctx, userID, event.SnapshotImported{
		ProjectKey: s.newKey(),
		Project:    data,
	})
}

// ImportGist copies a gist into a new project of the user and makes it
// current. token may be empty for public gists.
func (s *ExportService) ImportGist(ctx context.Context, userID, gistID, token string) (store.State, error) {
	data, err := s.github.GetGist(ctx, token, gistID)
	if err != nil {
		return store.State{}, err
	}
	if _, err := gist.ParseManifest(data); err != nil {
		return store.State{}, err
	}
	return s.sessions.Dispatch(ctx, userID, event.GistImported{
		ProjectKey: s.newKey(),
		GistData:   data,
	})
}

// SnapshotURL is the front end link that opens a snapshot.
func (s *ExportService) SnapshotURL(key string) string {
	return s.publicURL + "/?snapshot=" + url.QueryEscape(key)
}
