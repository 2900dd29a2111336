package store

import (
	"encoding/json"

	"github.com/popcodeorg/playground-backend/internal/projects/event"
)

// State is the root state of one editing session.
type State struct {
	CurrentProjectKey string
	Projects          Collection
}

// NewState returns a state with no projects and no current project.
func NewState() State {
	return State{Projects: NewCollection()}
}

type stateJSON struct {
	CurrentProjectKey string     `json:"currentProjectKey,omitempty"`
	Projects          Collection `json:"projects"`
}

func (s State) MarshalJSON() ([]byte, error) {
	return json.Marshal(stateJSON{CurrentProjectKey: s.CurrentProjectKey, Projects: s.Projects})
}

func (s *State) UnmarshalJSON(data []byte) error {
	var in stateJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	s.CurrentProjectKey = in.CurrentProjectKey
	s.Projects = in.Projects
	return nil
}

// ReduceRoot applies e to the whole session state: first the transitions
// that need the current project, then Reduce on the collection, then the
// current-project bookkeeping.
func ReduceRoot(s State, e event.Event) State {
	projects := reduceWithCurrent(s.Projects, s.CurrentProjectKey, e)
	return State{
		CurrentProjectKey: reduceCurrentProjectKey(s.CurrentProjectKey, e),
		Projects:          Reduce(projects, e),
	}
}

func reduceWithCurrent(c Collection, currentKey string, e event.Event) Collection {
	switch e := e.(type) {
	case event.UserLoggedOut:
		if currentKey == "" {
			if c.Len() == 0 {
				return c
			}
			return NewCollection()
		}
		current, ok := c.Get(currentKey)
		if !ok {
			return NewCollection()
		}
		if c.Len() == 1 {
			return c
		}
		return NewCollection(current)

	case event.FocusLine:
		if currentKey == "" {
			return c
		}
		return unhideComponent(c, currentKey, e.Component, e.Timestamp)
	}
	return c
}

func reduceCurrentProjectKey(currentKey string, e event.Event) string {
	switch e := e.(type) {
	case event.ProjectCreated:
		return e.ProjectKey
	case event.ChangeCurrentProject:
		return e.ProjectKey
	case event.SnapshotImported:
		return e.ProjectKey
	case event.GistImported:
		return e.ProjectKey
	case event.ProjectRestoredFromLastSession:
		return e.Project.ProjectKey
	}
	return currentKey
}
