// Package gist converts between GitHub gists and playground projects.
package gist

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/popcodeorg/playground-backend/internal/projects/domain"
)

// ManifestFilename is the gist file carrying project settings that have no
// source buffer of their own.
const ManifestFilename = "popcode.json"

// Gist languages as reported by GitHub.
const (
	LanguageHTML       = "HTML"
	LanguageCSS        = "CSS"
	LanguageJavaScript = "JavaScript"
	LanguageMarkdown   = "Markdown"
	LanguageJSON       = "JSON"
)

var ErrMalformedManifest = errors.New("malformed " + ManifestFilename)

// File is a single gist file. Filename may be empty when the file is stored
// under its name in Data.Files.
type File struct {
	Filename string `json:"filename,omitempty"`
	Language string `json:"language"`
	Content  string `json:"content"`
}

// Data is the subset of a gist the importer consumes.
type Data struct {
	ID      string          `json:"id,omitempty"`
	HTMLURL string          `json:"html_url,omitempty"`
	Files   map[string]File `json:"files"`
}

// Manifest is the decoded content of popcode.json.
type Manifest struct {
	EnabledLibraries   []string `json:"enabledLibraries,omitempty"`
	HiddenUIComponents []string `json:"hiddenUIComponents,omitempty"`
}

// sortedFiles returns the files ordered by filename with Filename filled in.
func (d Data) sortedFiles() []File {
	files := make([]File, 0, len(d.Files))
	for name, f := range d.Files {
		if f.Filename == "" {
			f.Filename = name
		}
		files = append(files, f)
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Filename < files[j].Filename })
	return files
}

// ParseManifest decodes popcode.json. A gist without the file, or with an
// empty one, yields the zero Manifest.
func ParseManifest(d Data) (Manifest, error) {
	var m Manifest
	for _, f := range d.sortedFiles() {
		if f.Filename != ManifestFilename {
			continue
		}
		if strings.TrimSpace(f.Content) == "" {
			return m, nil
		}
		if err := json.Unmarshal([]byte(f.Content), &m); err != nil {
			return Manifest{}, fmt.Errorf("%w: %v", ErrMalformedManifest, err)
		}
		return m, nil
	}
	return m, nil
}

// Parse builds the project record for a gist import. When the manifest is
// malformed the record is still built, without manifest settings, and the
// manifest error is returned alongside it.
func Parse(projectKey string, d Data) (domain.ProjectData, error) {
	files := d.sortedFiles()
	manifest, err := ParseManifest(d)

	html := ""
	for _, f := range files {
		if f.Language == LanguageHTML {
			html = f.Content
			break
		}
	}

	return domain.ProjectData{
		ProjectKey: projectKey,
		Sources: domain.Sources{
			HTML:       html,
			CSS:        contentForLanguage(files, LanguageCSS),
			JavaScript: contentForLanguage(files, LanguageJavaScript),
		},
		EnabledLibraries:   manifest.EnabledLibraries,
		HiddenUIComponents: manifest.HiddenUIComponents,
		Instructions:       contentForLanguage(files, LanguageMarkdown),
	}, err
}

func contentForLanguage(files []File, language string) string {
	parts := make([]string, 0, len(files))
	for _, f := range files {
		if f.Language == language {
			parts = append(parts, f.Content)
		}
	}
	return strings.Join(parts, "\n\n")
}

// FilesFromProject renders p as gist files. Empty buffers are left out since
// GitHub rejects empty gist files; the manifest is always present.
func FilesFromProject(p domain.Project) (Data, error) {
	manifest, err := json.Marshal(Manifest{
		EnabledLibraries:   p.EnabledLibraries.Slice(),
		HiddenUIComponents: p.HiddenUIComponents.Slice(),
	})
	if err != nil {
		return Data{}, fmt.Errorf("encode manifest: %w", err)
	}

	files := map[string]File{
		ManifestFilename: {Filename: ManifestFilename, Language: LanguageJSON, Content: string(manifest)},
	}
	add := func(name, language, content string) {
		if strings.TrimSpace(content) == "" {
			return
		}
		files[name] = File{Filename: name, Language: language, Content: content}
	}
	add("index.html", LanguageHTML, p.Sources.HTML)
	add("styles.css", LanguageCSS, p.Sources.CSS)
	add("script.js", LanguageJavaScript, p.Sources.JavaScript)
	add("README.md", LanguageMarkdown, p.Instructions)

	return Data{Files: files}, nil
}
