package http

import (
	"context"

	"github.com/popcodeorg/playground-backend/internal/platform/logger"
	"github.com/popcodeorg/playground-backend/internal/projects/event"
	"github.com/popcodeorg/playground-backend/internal/projects/store"
)

// Sessions is the per-user project store.
type Sessions interface {
	State(ctx context.Context, userID string) (store.State, error)
	Dispatch(ctx context.Context, userID string, e event.Event) (store.State, error)
	Close(ctx context.Context, userID string) error
}

// Exports runs exports and imports for a user's session.
type Exports interface {
	Export(ctx context.Context, userID, exportType, token string) (string, error)
	CreateSnapshot(ctx context.Context, userID string) (string, error)
	SnapshotURL(key string) string
	ImportSnapshot(ctx context.Context, userID, snapshotKey string) (store.State, error)
	ImportGist(ctx context.Context, userID, gistID, token string) (store.State, error)
}

// Handler bundles the dependencies for playground HTTP endpoints.
type Handler struct {
	sessions Sessions
	exports  Exports
	decoder  event.Decoder
	log      *logger.Logger
}

func New(sessions Sessions, exports Exports, log *logger.Logger) *Handler {
	if log == nil {
		log = logger.Nop()
	}
	return &Handler{
		sessions: sessions,
		exports:  exports,
		decoder:  event.Decoder{Now: nowFunc},
		log:      log,
	}
}

type exportReq struct {
	ExportType string `json:"export_type"`
}

const githubTokenHeader = "X-Github-Token"
