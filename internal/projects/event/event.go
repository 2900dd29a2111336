// Package event defines the closed set of events the project store reduces.
package event

import (
	"github.com/popcodeorg/playground-backend/internal/projects/domain"
	"github.com/popcodeorg/playground-backend/internal/projects/gist"
)

// Type identifies the kind of an event on the wire.
type Type string

// Project collection events.
const (
	TypeProjectsLoaded                 Type = "PROJECTS_LOADED"
	TypeAccountMigrationComplete       Type = "ACCOUNT_MIGRATION_COMPLETE"
	TypeProjectCreated                 Type = "PROJECT_CREATED"
	TypeChangeCurrentProject           Type = "CHANGE_CURRENT_PROJECT"
	TypeProjectRestoredFromLastSession Type = "PROJECT_RESTORED_FROM_LAST_SESSION"
	TypeArchiveProject                 Type = "ARCHIVE_PROJECT"
	TypeUserLoggedOut                  Type = "USER_LOGGED_OUT"
)

// Editing events. All of them carry a timestamp.
const (
	TypeUpdateProjectSource       Type = "UPDATE_PROJECT_SOURCE"
	TypeProjectBeautified         Type = "PROJECT_BEAUTIFIED"
	TypeUpdateProjectInstructions Type = "UPDATE_PROJECT_INSTRUCTIONS"
	TypeToggleLibrary             Type = "TOGGLE_LIBRARY"
	TypeHideComponent             Type = "HIDE_COMPONENT"
	TypeUnhideComponent           Type = "UNHIDE_COMPONENT"
	TypeToggleComponent           Type = "TOGGLE_COMPONENT"
	TypeStartEditingInstructions  Type = "START_EDITING_INSTRUCTIONS"
	TypeFocusLine                 Type = "FOCUS_LINE"
)

// Collaborator completions. Events report facts that already happened
// outside the store, success or failure.
const (
	TypeSnapshotImported    Type = "SNAPSHOT_IMPORTED"
	TypeGistImported        Type = "GIST_IMPORTED"
	TypeProjectExported     Type = "PROJECT_EXPORTED"
	TypeProjectExportError  Type = "PROJECT_EXPORT_ERROR"
	TypeSnapshotCreated     Type = "SNAPSHOT_CREATED"
	TypeSnapshotExportError Type = "SNAPSHOT_EXPORT_ERROR"
)

// Export targets.
const (
	ExportGist      = "gist"
	ExportRepo      = "repo"
	ExportClassroom = "classroom"
)

// Event is implemented only by the types in this package.
type Event interface {
	Type() Type
	sealed()
}

// Timestamped is implemented by events that record when the user acted.
type Timestamped interface {
	Event
	At() int64
}

// Keyed is implemented by events addressed to a single project.
type Keyed interface {
	Event
	Key() string
}

type ProjectsLoaded struct {
	Projects []domain.ProjectData
}

type AccountMigrationComplete struct {
	Projects []domain.ProjectData `json:"projects"`
}

type UpdateProjectSource struct {
	ProjectKey string          `json:"projectKey"`
	Language   domain.Language `json:"language"`
	NewValue   string          `json:"newValue"`
	Timestamp  int64           `json:"-"`
}

type ProjectBeautified struct {
	ProjectKey     string         `json:"projectKey"`
	ProjectSources domain.Sources `json:"projectSources"`
	Timestamp      int64          `json:"-"`
}

type UpdateProjectInstructions struct {
	ProjectKey string `json:"projectKey"`
	NewValue   string `json:"newValue"`
	Timestamp  int64  `json:"-"`
}

type ProjectCreated struct {
	ProjectKey string `json:"projectKey"`
}

type ChangeCurrentProject struct {
	ProjectKey string `json:"projectKey"`
}

type SnapshotImported struct {
	ProjectKey string             `json:"projectKey"`
	Project    domain.ProjectData `json:"project"`
}

type GistImported struct {
	ProjectKey string    `json:"projectKey"`
	GistData   gist.Data `json:"gistData"`
}

type ProjectRestoredFromLastSession struct {
	Project domain.ProjectData
}

type ToggleLibrary struct {
	ProjectKey string `json:"projectKey"`
	LibraryKey string `json:"libraryKey"`
	Timestamp  int64  `json:"-"`
}

type HideComponent struct {
	ProjectKey    string `json:"projectKey"`
	ComponentName string `json:"componentName"`
	Timestamp     int64  `json:"-"`
}

type UnhideComponent struct {
	ProjectKey    string `json:"projectKey"`
	ComponentName string `json:"componentName"`
	Timestamp     int64  `json:"-"`
}

type ToggleComponent struct {
	ProjectKey    string `json:"projectKey"`
	ComponentName string `json:"componentName"`
	Timestamp     int64  `json:"-"`
}

type StartEditingInstructions struct {
	ProjectKey string `json:"projectKey"`
	Timestamp  int64  `json:"-"`
}

// ExportData carries target-specific results of an export.
type ExportData struct {
	Name string `json:"name,omitempty"`
}

type ProjectExported struct {
	URL        string     `json:"url"`
	ExportType string     `json:"exportType"`
	ProjectKey string     `json:"projectKey"`
	ExportData ExportData `json:"exportData"`
	Timestamp  int64      `json:"-"`
}

type ProjectExportError struct {
	ExportType string `json:"exportType"`
}

type SnapshotCreated struct {
	SnapshotKey string `json:"snapshotKey"`
}

type SnapshotExportError struct {
	Message string `json:"message"`
}

type ArchiveProject struct {
	ProjectKey string `json:"projectKey"`
}

type UserLoggedOut struct{}

// FocusLine moves editor focus to a line of a component, which makes the
// component visible on the current project.
type FocusLine struct {
	Component string `json:"component"`
	Line      int    `json:"line"`
	Column    int    `json:"column"`
	Timestamp int64  `json:"-"`
}

func (ProjectsLoaded) Type() Type                 { return TypeProjectsLoaded }
func (AccountMigrationComplete) Type() Type       { return TypeAccountMigrationComplete }
func (UpdateProjectSource) Type() Type            { return TypeUpdateProjectSource }
func (ProjectBeautified) Type() Type              { return TypeProjectBeautified }
func (UpdateProjectInstructions) Type() Type      { return TypeUpdateProjectInstructions }
func (ProjectCreated) Type() Type                 { return TypeProjectCreated }
func (ChangeCurrentProject) Type() Type           { return TypeChangeCurrentProject }
func (SnapshotImported) Type() Type               { return TypeSnapshotImported }
func (GistImported) Type() Type                   { return TypeGistImported }
func (ProjectRestoredFromLastSession) Type() Type { return TypeProjectRestoredFromLastSession }
func (ToggleLibrary) Type() Type                  { return TypeToggleLibrary }
func (HideComponent) Type() Type                  { return TypeHideComponent }
func (UnhideComponent) Type() Type                { return TypeUnhideComponent }
func (ToggleComponent) Type() Type                { return TypeToggleComponent }
func (StartEditingInstructions) Type() Type       { return TypeStartEditingInstructions }
func (ProjectExported) Type() Type                { return TypeProjectExported }
func (ProjectExportError) Type() Type             { return TypeProjectExportError }
func (SnapshotCreated) Type() Type                { return TypeSnapshotCreated }
func (SnapshotExportError) Type() Type            { return TypeSnapshotExportError }
func (ArchiveProject) Type() Type                 { return TypeArchiveProject }
func (UserLoggedOut) Type() Type                  { return TypeUserLoggedOut }
func (FocusLine) Type() Type                      { return TypeFocusLine }

func (ProjectsLoaded) sealed()                 {}
func (AccountMigrationComplete) sealed()       {}
func (UpdateProjectSource) sealed()            {}
func (ProjectBeautified) sealed()              {}
func (UpdateProjectInstructions) sealed()      {}
func (ProjectCreated) sealed()                 {}
func (ChangeCurrentProject) sealed()           {}
func (SnapshotImported) sealed()               {}
func (GistImported) sealed()                   {}
func (ProjectRestoredFromLastSession) sealed() {}
func (ToggleLibrary) sealed()                  {}
func (HideComponent) sealed()                  {}
func (UnhideComponent) sealed()                {}
func (ToggleComponent) sealed()                {}
func (StartEditingInstructions) sealed()       {}
func (ProjectExported) sealed()                {}
func (ProjectExportError) sealed()             {}
func (SnapshotCreated) sealed()                {}
func (SnapshotExportError) sealed()            {}
func (ArchiveProject) sealed()                 {}
func (UserLoggedOut) sealed()                  {}
func (FocusLine) sealed()                      {}

func (e UpdateProjectSource) At() int64       { return e.Timestamp }
func (e ProjectBeautified) At() int64         { return e.Timestamp }
func (e UpdateProjectInstructions) At() int64 { return e.Timestamp }
func (e ToggleLibrary) At() int64             { return e.Timestamp }
func (e HideComponent) At() int64             { return e.Timestamp }
func (e UnhideComponent) At() int64           { return e.Timestamp }
func (e ToggleComponent) At() int64           { return e.Timestamp }
func (e StartEditingInstructions) At() int64  { return e.Timestamp }
func (e ProjectExported) At() int64           { return e.Timestamp }
func (e FocusLine) At() int64                 { return e.Timestamp }

func (e UpdateProjectSource) Key() string       { return e.ProjectKey }
func (e ProjectBeautified) Key() string         { return e.ProjectKey }
func (e UpdateProjectInstructions) Key() string { return e.ProjectKey }
func (e ProjectCreated) Key() string            { return e.ProjectKey }
func (e ChangeCurrentProject) Key() string      { return e.ProjectKey }
func (e SnapshotImported) Key() string          { return e.ProjectKey }
func (e GistImported) Key() string              { return e.ProjectKey }
func (e ToggleLibrary) Key() string             { return e.ProjectKey }
func (e HideComponent) Key() string             { return e.ProjectKey }
func (e UnhideComponent) Key() string           { return e.ProjectKey }
func (e ToggleComponent) Key() string           { return e.ProjectKey }
func (e StartEditingInstructions) Key() string  { return e.ProjectKey }
func (e ProjectExported) Key() string           { return e.ProjectKey }
func (e ArchiveProject) Key() string            { return e.ProjectKey }
