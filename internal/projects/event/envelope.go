package event

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/popcodeorg/playground-backend/internal/projects/domain"
	"github.com/popcodeorg/playground-backend/internal/projects/gist"
)

var (
	ErrUnknownType       = errors.New("unknown event type")
	ErrInvalidPayload    = errors.New("invalid event payload")
	ErrMissingProjectKey = errors.New("event is missing a project key")
)

// Meta is delivery metadata attached to every event.
type Meta struct {
	Timestamp int64 `json:"timestamp,omitempty"`
}

// Envelope is the wire and journal form of an event.
type Envelope struct {
	Type    Type            `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
	Meta    Meta            `json:"meta"`
}

// Types lists every event type the decoder understands.
var Types = []Type{
	TypeProjectsLoaded,
	TypeAccountMigrationComplete,
	TypeUpdateProjectSource,
	TypeProjectBeautified,
	TypeUpdateProjectInstructions,
	TypeProjectCreated,
	TypeChangeCurrentProject,
	TypeSnapshotImported,
	TypeGistImported,
	TypeProjectRestoredFromLastSession,
	TypeToggleLibrary,
	TypeHideComponent,
	TypeUnhideComponent,
	TypeToggleComponent,
	TypeStartEditingInstructions,
	TypeProjectExported,
	TypeProjectExportError,
	TypeSnapshotCreated,
	TypeSnapshotExportError,
	TypeArchiveProject,
	TypeUserLoggedOut,
	TypeFocusLine,
}

// Decoder turns envelopes into typed events. Now stamps timestamped events
// that arrive without meta.timestamp.
type Decoder struct {
	Now func() time.Time
}

var defaultDecoder = Decoder{Now: time.Now}

// Decode decodes env with the wall clock as fallback timestamp source.
func Decode(env Envelope) (Event, error) {
	return defaultDecoder.Decode(env)
}

func (d Decoder) Decode(env Envelope) (Event, error) {
	ts := env.Meta.Timestamp
	if ts == 0 && d.Now != nil {
		ts = d.Now().UnixMilli()
	}
	raw := env.Payload

	var (
		ev  Event
		err error
	)
	switch env.Type {
	case TypeProjectsLoaded:
		var projects []domain.ProjectData
		err = unmarshalPayload(raw, &projects)
		ev = ProjectsLoaded{Projects: projects}
	case TypeAccountMigrationComplete:
		ev, err = decodeInto[AccountMigrationComplete](raw)
	case TypeUpdateProjectSource:
		var e UpdateProjectSource
		if e, err = decodeInto[UpdateProjectSource](raw); err == nil {
			e.Language, err = domain.ParseLanguage(string(e.Language))
		}
		e.Timestamp = ts
		ev = e
	case TypeProjectBeautified:
		var e ProjectBeautified
		e, err = decodeInto[ProjectBeautified](raw)
		e.Timestamp = ts
		ev = e
	case TypeUpdateProjectInstructions:
		var e UpdateProjectInstructions
		e, err = decodeInto[UpdateProjectInstructions](raw)
		e.Timestamp = ts
		ev = e
	case TypeProjectCreated:
		ev, err = decodeInto[ProjectCreated](raw)
	case TypeChangeCurrentProject:
		ev, err = decodeInto[ChangeCurrentProject](raw)
	case TypeSnapshotImported:
		ev, err = decodeInto[SnapshotImported](raw)
	case TypeGistImported:
		var e GistImported
		if e, err = decodeInto[GistImported](raw); err == nil {
			_, err = gist.ParseManifest(e.GistData)
		}
		ev = e
	case TypeProjectRestoredFromLastSession:
		var project domain.ProjectData
		err = unmarshalPayload(raw, &project)
		ev = ProjectRestoredFromLastSession{Project: project}
	case TypeToggleLibrary:
		var e ToggleLibrary
		e, err = decodeInto[ToggleLibrary](raw)
		e.Timestamp = ts
		ev = e
	case TypeHideComponent:
		var e HideComponent
		e, err = decodeInto[HideComponent](raw)
		e.Timestamp = ts
		ev = e
	case TypeUnhideComponent:
		var e UnhideComponent
		e, err = decodeInto[UnhideComponent](raw)
		e.Timestamp = ts
		ev = e
	case TypeToggleComponent:
		var e ToggleComponent
		e, err = decodeInto[ToggleComponent](raw)
		e.Timestamp = ts
		ev = e
	case TypeStartEditingInstructions:
		var e StartEditingInstructions
		e, err = decodeInto[StartEditingInstructions](raw)
		e.Timestamp = ts
		ev = e
	case TypeProjectExported:
		var e ProjectExported
		e, err = decodeInto[ProjectExported](raw)
		e.Timestamp = ts
		ev = e
	case TypeProjectExportError:
		ev, err = decodeInto[ProjectExportError](raw)
	case TypeSnapshotCreated:
		ev, err = decodeInto[SnapshotCreated](raw)
	case TypeSnapshotExportError:
		ev, err = decodeInto[SnapshotExportError](raw)
	case TypeArchiveProject:
		ev, err = decodeInto[ArchiveProject](raw)
	case TypeUserLoggedOut:
		ev = UserLoggedOut{}
	case TypeFocusLine:
		var e FocusLine
		e, err = decodeInto[FocusLine](raw)
		e.Timestamp = ts
		ev = e
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, env.Type)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", env.Type, err)
	}
	if err := validate(ev); err != nil {
		return nil, fmt.Errorf("decode %s: %w", env.Type, err)
	}
	return ev, nil
}

// Encode converts e into its envelope form. Encode(Decode(env)) is stable.
func Encode(e Event) (Envelope, error) {
	var payload any = e
	switch e := e.(type) {
	case ProjectsLoaded:
		payload = e.Projects
	case ProjectRestoredFromLastSession:
		payload = e.Project
	case UserLoggedOut:
		payload = nil
	}

	env := Envelope{Type: e.Type()}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return Envelope{}, fmt.Errorf("encode %s: %w", e.Type(), err)
		}
		env.Payload = raw
	}
	if t, ok := e.(Timestamped); ok {
		env.Meta.Timestamp = t.At()
	}
	return env, nil
}

func validate(ev Event) error {
	if k, ok := ev.(Keyed); ok && strings.TrimSpace(k.Key()) == "" {
		return ErrMissingProjectKey
	}
	switch e := ev.(type) {
	case ProjectsLoaded:
		return validateRecords(e.Projects)
	case AccountMigrationComplete:
		return validateRecords(e.Projects)
	case ProjectRestoredFromLastSession:
		return validateRecords([]domain.ProjectData{e.Project})
	case HideComponent:
		return requireField("componentName", e.ComponentName)
	case UnhideComponent:
		return requireField("componentName", e.ComponentName)
	case ToggleComponent:
		return requireField("componentName", e.ComponentName)
	case ToggleLibrary:
		return requireField("libraryKey", e.LibraryKey)
	case FocusLine:
		return requireField("component", e.Component)
	}
	return nil
}

func validateRecords(projects []domain.ProjectData) error {
	for i, p := range projects {
		if strings.TrimSpace(p.ProjectKey) == "" {
			return fmt.Errorf("project %d: %w", i, ErrMissingProjectKey)
		}
	}
	return nil
}

func requireField(name, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%w: %s is required", ErrInvalidPayload, name)
	}
	return nil
}

func decodeInto[T Event](raw json.RawMessage) (T, error) {
	var v T
	err := unmarshalPayload(raw, &v)
	return v, err
}

func unmarshalPayload(raw json.RawMessage, v any) error {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	return nil
}
