package selector

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/popcodeorg/playground-backend/internal/projects/domain"
	"github.com/popcodeorg/playground-backend/internal/projects/store"
)

func keys(ps []domain.Project) []string {
	out := make([]string, 0, len(ps))
	for _, p := range ps {
		out = append(out, p.ProjectKey)
	}
	return out
}

func TestCurrentProject(t *testing.T) {
	s := store.State{CurrentProjectKey: "a", Projects: store.NewCollection(domain.New("a"))}

	p, err := CurrentProject(s)
	require.NoError(t, err)
	assert.Equal(t, "a", p.ProjectKey)

	_, err = CurrentProject(store.NewState())
	assert.True(t, errors.Is(err, domain.ErrNoCurrentProject))

	s.CurrentProjectKey = "gone"
	_, err = CurrentProject(s)
	assert.True(t, errors.Is(err, domain.ErrProjectNotFound))
}

func TestActiveAndArchivedProjects(t *testing.T) {
	archived := domain.New("old").Touch(1)
	archived.IsArchived = true

	s := store.State{Projects: store.NewCollection(
		domain.New("fresh-b"),
		domain.New("fresh-a"),
		domain.New("recent").Touch(30),
		domain.New("older").Touch(10),
		archived,
	)}

	assert.Equal(t, []string{"recent", "older", "fresh-a", "fresh-b"}, keys(ActiveProjects(s)))
	assert.Equal(t, []string{"old"}, keys(ArchivedProjects(s)))
}

func TestIsComponentVisible(t *testing.T) {
	p := domain.New("a")
	assert.False(t, IsComponentVisible(p, domain.ComponentConsole))
	assert.True(t, IsComponentVisible(p, domain.ComponentOutput))
}
