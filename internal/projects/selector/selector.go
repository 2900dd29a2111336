// Package selector derives read-only views from a session state.
package selector

import (
	"sort"

	"github.com/popcodeorg/playground-backend/internal/projects/domain"
	"github.com/popcodeorg/playground-backend/internal/projects/store"
)

// CurrentProject returns the project the session is editing.
func CurrentProject(s store.State) (domain.Project, error) {
	if s.CurrentProjectKey == "" {
		return domain.Project{}, domain.ErrNoCurrentProject
	}
	p, ok := s.Projects.Get(s.CurrentProjectKey)
	if !ok {
		return domain.Project{}, domain.ErrProjectNotFound
	}
	return p, nil
}

// Project returns the project stored under projectKey.
func Project(s store.State, projectKey string) (domain.Project, error) {
	p, ok := s.Projects.Get(projectKey)
	if !ok {
		return domain.Project{}, domain.ErrProjectNotFound
	}
	return p, nil
}

// ActiveProjects lists non-archived projects, most recently modified first.
// Never-modified projects sort last, ties break on key.
func ActiveProjects(s store.State) []domain.Project {
	return sorted(s, func(p domain.Project) bool { return !p.IsArchived })
}

// ArchivedProjects lists archived projects in the same order.
func ArchivedProjects(s store.State) []domain.Project {
	return sorted(s, func(p domain.Project) bool { return p.IsArchived })
}

func sorted(s store.State, keep func(domain.Project) bool) []domain.Project {
	out := make([]domain.Project, 0, s.Projects.Len())
	for _, p := range s.Projects.Projects() {
		if keep(p) {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].UpdatedAt, out[j].UpdatedAt
		switch {
		case a == nil && b == nil:
			return out[i].ProjectKey < out[j].ProjectKey
		case a == nil:
			return false
		case b == nil:
			return true
		case *a != *b:
			return *a > *b
		}
		return out[i].ProjectKey < out[j].ProjectKey
	})
	return out
}

// IsComponentVisible reports whether component is shown for the project.
func IsComponentVisible(p domain.Project, component string) bool {
	return !p.HiddenUIComponents.Has(component)
}
