package store

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/popcodeorg/playground-backend/internal/projects/domain"
	"github.com/popcodeorg/playground-backend/internal/projects/event"
)

func TestReduceRoot_UserLoggedOut(t *testing.T) {
	projects := NewCollection(modified("1", 1), modified("2", 2))

	t.Run("keeps only the current project", func(t *testing.T) {
		next := ReduceRoot(State{CurrentProjectKey: "1", Projects: projects}, event.UserLoggedOut{})

		assert.Equal(t, []string{"1"}, next.Projects.Keys())
		assert.Equal(t, "1", next.CurrentProjectKey)
	})

	t.Run("clears without a current project", func(t *testing.T) {
		next := ReduceRoot(State{Projects: projects}, event.UserLoggedOut{})

		assert.Equal(t, 0, next.Projects.Len())
	})

	t.Run("clears when the current project is gone", func(t *testing.T) {
		next := ReduceRoot(State{CurrentProjectKey: "9", Projects: projects}, event.UserLoggedOut{})

		assert.Equal(t, 0, next.Projects.Len())
	})

	t.Run("single current project is unchanged", func(t *testing.T) {
		only := NewCollection(modified("1", 1))
		next := ReduceRoot(State{CurrentProjectKey: "1", Projects: only}, event.UserLoggedOut{})

		assert.True(t, next.Projects.Same(only))
	})
}

func TestReduceRoot_FocusLine(t *testing.T) {
	projects := NewCollection(domain.New("1"))

	t.Run("unhides the component on the current project", func(t *testing.T) {
		next := ReduceRoot(State{CurrentProjectKey: "1", Projects: projects},
			event.FocusLine{Component: domain.ComponentConsole, Line: 2, Timestamp: 8})

		p := mustGet(t, next.Projects, "1")
		assert.False(t, p.HiddenUIComponents.Has(domain.ComponentConsole))
		assert.Equal(t, int64(8), *p.UpdatedAt)
	})

	t.Run("no current project", func(t *testing.T) {
		next := ReduceRoot(State{Projects: projects},
			event.FocusLine{Component: domain.ComponentConsole, Timestamp: 8})

		assert.True(t, next.Projects.Same(projects))
	})
}

func TestReduceRoot_CurrentProjectKey(t *testing.T) {
	tests := []struct {
		name  string
		event event.Event
		want  string
	}{
		{"created", event.ProjectCreated{ProjectKey: "new"}, "new"},
		{"changed", event.ChangeCurrentProject{ProjectKey: "other"}, "other"},
		{"snapshot", event.SnapshotImported{ProjectKey: "snap", Project: domain.ProjectData{ProjectKey: "x"}}, "snap"},
		{"restored", event.ProjectRestoredFromLastSession{Project: domain.ProjectData{ProjectKey: "last"}}, "last"},
		{"edit keeps current", event.ToggleLibrary{ProjectKey: "1", LibraryKey: "jquery", Timestamp: 1}, "1"},
		{"archive keeps current", event.ArchiveProject{ProjectKey: "1"}, "1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next := ReduceRoot(State{CurrentProjectKey: "1", Projects: NewCollection(modified("1", 1))}, tt.event)
			assert.Equal(t, tt.want, next.CurrentProjectKey)
		})
	}
}

func TestState_JSON(t *testing.T) {
	s := State{CurrentProjectKey: "1", Projects: NewCollection(modified("1", 4))}

	data, err := json.Marshal(s)
	require.NoError(t, err)

	var back State
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, "1", back.CurrentProjectKey)
	assert.True(t, back.Projects.Equal(s.Projects))
}
