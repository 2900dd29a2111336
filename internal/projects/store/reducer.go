package store

import (
	"github.com/popcodeorg/playground-backend/internal/projects/domain"
	"github.com/popcodeorg/playground-backend/internal/projects/event"
	"github.com/popcodeorg/playground-backend/internal/projects/gist"
)

// Reduce applies e to the project collection and returns the resulting
// collection. It is pure and total: events addressed to a missing project,
// and events the collection does not react to, return c itself.
func Reduce(c Collection, e event.Event) Collection {
	switch e := e.(type) {
	case event.ProjectsLoaded:
		return addProjects(c, e.Projects)

	case event.AccountMigrationComplete:
		return addProjects(c, e.Projects)

	case event.UpdateProjectSource:
		return touch(c, e.ProjectKey, e.Timestamp, func(p domain.Project) domain.Project {
			p.Sources = p.Sources.With(e.Language, e.NewValue)
			return p
		})

	case event.ProjectBeautified:
		return touch(c, e.ProjectKey, e.Timestamp, func(p domain.Project) domain.Project {
			p.Sources = e.ProjectSources
			return p
		})

	case event.UpdateProjectInstructions:
		return touch(c, e.ProjectKey, e.Timestamp, func(p domain.Project) domain.Project {
			p.Instructions = e.NewValue
			return p
		})

	case event.ProjectCreated:
		return removePristineExcept(c, e.ProjectKey).Set(domain.New(e.ProjectKey))

	case event.ChangeCurrentProject:
		return removePristineExcept(c, e.ProjectKey).Update(e.ProjectKey, func(p domain.Project) domain.Project {
			p.IsArchived = false
			return p
		})

	case event.SnapshotImported:
		data := e.Project
		data.ProjectKey = e.ProjectKey
		data.UpdatedAt = nil
		return addProject(c, data)

	case event.GistImported:
		// The decoder rejects malformed manifests; one that still slips
		// through is imported without its settings.
		data, _ := gist.Parse(e.ProjectKey, e.GistData)
		return addProject(c, data)

	case event.ProjectRestoredFromLastSession:
		return addProject(c, e.Project)

	case event.ToggleLibrary:
		return touch(c, e.ProjectKey, e.Timestamp, func(p domain.Project) domain.Project {
			p.EnabledLibraries = p.EnabledLibraries.Toggle(e.LibraryKey)
			return p
		})

	case event.HideComponent:
		return touch(c, e.ProjectKey, e.Timestamp, func(p domain.Project) domain.Project {
			p.HiddenUIComponents = p.HiddenUIComponents.Add(e.ComponentName)
			return p
		})

	case event.UnhideComponent:
		return unhideComponent(c, e.ProjectKey, e.ComponentName, e.Timestamp)

	case event.ToggleComponent:
		return touch(c, e.ProjectKey, e.Timestamp, func(p domain.Project) domain.Project {
			p.HiddenUIComponents = p.HiddenUIComponents.Toggle(e.ComponentName)
			return p
		})

	case event.StartEditingInstructions:
		return unhideComponent(c, e.ProjectKey, domain.ComponentInstructions, e.Timestamp)

	case event.ProjectExported:
		if e.ExportType != event.ExportRepo || e.ExportData.Name == "" {
			return c
		}
		return touch(c, e.ProjectKey, e.Timestamp, func(p domain.Project) domain.Project {
			p.ExternalLocations.GithubRepoName = e.ExportData.Name
			return p
		})

	case event.ArchiveProject:
		return c.Update(e.ProjectKey, func(p domain.Project) domain.Project {
			p.IsArchived = true
			return p
		})
	}
	return c
}

func addProject(c Collection, data domain.ProjectData) Collection {
	return c.Set(domain.FromData(data))
}

func addProjects(c Collection, records []domain.ProjectData) Collection {
	for _, data := range records {
		c = addProject(c, data)
	}
	return c
}

// removePristineExcept drops every untouched project other than keep, so
// scratch projects do not pile up as the user moves between projects.
func removePristineExcept(c Collection, keep string) Collection {
	return c.Filter(func(p domain.Project) bool {
		return p.ProjectKey == keep || !domain.IsPristine(p)
	})
}

func unhideComponent(c Collection, projectKey, component string, ts int64) Collection {
	return touch(c, projectKey, ts, func(p domain.Project) domain.Project {
		p.HiddenUIComponents = p.HiddenUIComponents.Delete(component)
		return p
	})
}

// touch applies fn to the project and records ts as its modification time.
func touch(c Collection, projectKey string, ts int64, fn func(domain.Project) domain.Project) Collection {
	return c.Update(projectKey, func(p domain.Project) domain.Project {
		return fn(p).Touch(ts)
	})
}
