package domain

import "fmt"

// Language tags a source buffer of a project.
type Language string

const (
	LanguageHTML       Language = "html"
	LanguageCSS        Language = "css"
	LanguageJavaScript Language = "javascript"
)

// Languages lists every source language in editor order.
var Languages = []Language{LanguageHTML, LanguageCSS, LanguageJavaScript}

// ParseLanguage validates a language tag coming from the wire.
func ParseLanguage(s string) (Language, error) {
	switch Language(s) {
	case LanguageHTML, LanguageCSS, LanguageJavaScript:
		return Language(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownLanguage, s)
}

// UI component tags that can be hidden on a project.
const (
	ComponentConsole      = "console"
	ComponentOutput       = "output"
	ComponentInstructions = "instructions"
)

// Sources holds the text of each editor buffer.
type Sources struct {
	HTML       string `json:"html"`
	CSS        string `json:"css"`
	JavaScript string `json:"javascript"`
}

func (s Sources) Get(lang Language) string {
	switch lang {
	case LanguageHTML:
		return s.HTML
	case LanguageCSS:
		return s.CSS
	case LanguageJavaScript:
		return s.JavaScript
	}
	return ""
}

// With returns a copy of s with the buffer for lang replaced.
func (s Sources) With(lang Language, text string) Sources {
	switch lang {
	case LanguageHTML:
		s.HTML = text
	case LanguageCSS:
		s.CSS = text
	case LanguageJavaScript:
		s.JavaScript = text
	}
	return s
}

// ExternalLocations records where a project has been exported to.
type ExternalLocations struct {
	GithubRepoName string `json:"githubRepoName,omitempty"`
}

// Project is one playground project. Values are treated as immutable: the
// reducer replaces a project with a modified copy instead of mutating it.
type Project struct {
	ProjectKey         string            `json:"projectKey"`
	Sources            Sources           `json:"sources"`
	Instructions       string            `json:"instructions"`
	EnabledLibraries   Set               `json:"enabledLibraries"`
	HiddenUIComponents Set               `json:"hiddenUIComponents"`
	ExternalLocations  ExternalLocations `json:"externalLocations"`
	IsArchived         bool              `json:"isArchived"`
	// UpdatedAt is the last user modification in epoch milliseconds; nil
	// means the project was never modified.
	UpdatedAt *int64 `json:"updatedAt"`
}

// ProjectData is a full or partial project record as delivered by loaders,
// snapshot imports and session restores. Zero values mean "use the default".
type ProjectData struct {
	ProjectKey         string            `json:"projectKey"`
	Sources            Sources           `json:"sources"`
	Instructions       string            `json:"instructions,omitempty"`
	EnabledLibraries   []string          `json:"enabledLibraries,omitempty"`
	HiddenUIComponents []string          `json:"hiddenUIComponents,omitempty"`
	ExternalLocations  ExternalLocations `json:"externalLocations"`
	IsArchived         bool              `json:"isArchived,omitempty"`
	UpdatedAt          *int64            `json:"updatedAt"`
}

// New returns a freshly created project with default field values.
func New(projectKey string) Project {
	return Project{
		ProjectKey:         projectKey,
		HiddenUIComponents: NewSet(ComponentConsole),
	}
}

// FromData builds a project from a record, applying defaults for missing
// fields. The console is always hidden on load.
func FromData(data ProjectData) Project {
	return Project{
		ProjectKey:         data.ProjectKey,
		Sources:            data.Sources,
		Instructions:       data.Instructions,
		EnabledLibraries:   NewSet(data.EnabledLibraries...),
		HiddenUIComponents: NewSet(data.HiddenUIComponents...).Add(ComponentConsole),
		ExternalLocations:  data.ExternalLocations,
		IsArchived:         data.IsArchived,
		UpdatedAt:          copyTimestamp(data.UpdatedAt),
	}
}

// Data converts p back into its record form.
func (p Project) Data() ProjectData {
	return ProjectData{
		ProjectKey:         p.ProjectKey,
		Sources:            p.Sources,
		Instructions:       p.Instructions,
		EnabledLibraries:   p.EnabledLibraries.Slice(),
		HiddenUIComponents: p.HiddenUIComponents.Slice(),
		ExternalLocations:  p.ExternalLocations,
		IsArchived:         p.IsArchived,
		UpdatedAt:          copyTimestamp(p.UpdatedAt),
	}
}

// Touch returns p with UpdatedAt set to ts.
func (p Project) Touch(ts int64) Project {
	p.UpdatedAt = &ts
	return p
}

// IsPristine reports whether p still holds exactly the defaults of a freshly
// created project and was never modified.
func IsPristine(p Project) bool {
	fresh := New(p.ProjectKey)
	return p.UpdatedAt == nil &&
		p.Sources == fresh.Sources &&
		p.Instructions == fresh.Instructions &&
		p.EnabledLibraries.Equal(fresh.EnabledLibraries) &&
		p.HiddenUIComponents.Equal(fresh.HiddenUIComponents)
}

func copyTimestamp(ts *int64) *int64 {
	if ts == nil {
		return nil
	}
	v := *ts
	return &v
}
