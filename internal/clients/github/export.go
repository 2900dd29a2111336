package github

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"unicode"

	"github.com/popcodeorg/playground-backend/internal/projects/domain"
	"github.com/popcodeorg/playground-backend/internal/projects/gist"
	"github.com/popcodeorg/playground-backend/internal/projects/preview"
)

// Gist is a created gist.
type Gist struct {
	ID      string `json:"id"`
	HTMLURL string `json:"html_url"`
}

// Repo is a created or updated repository.
type Repo struct {
	Name string
	URL  string
}

type gistFileBody struct {
	Content string `json:"content"`
}

type createGistBody struct {
	Description string                  `json:"description"`
	Public      bool                    `json:"public"`
	Files       map[string]gistFileBody `json:"files"`
}

// CreateGist exports p as a public gist.
func (c *Client) CreateGist(ctx context.Context, token string, p domain.Project) (Gist, error) {
	data, err := gist.FilesFromProject(p)
	if err != nil {
		return Gist{}, err
	}

	body := createGistBody{
		Description: preview.Title(p),
		Public:      true,
		Files:       make(map[string]gistFileBody, len(data.Files)),
	}
	for name, f := range data.Files {
		body.Files[name] = gistFileBody{Content: f.Content}
	}

	var out Gist
	if err := c.do(ctx, token, http.MethodPost, "/gists", body, &out); err != nil {
		return Gist{}, err
	}
	return out, nil
}

// GetGist fetches a gist for import. token may be empty for public gists.
func (c *Client) GetGist(ctx context.Context, token, gistID string) (gist.Data, error) {
	var out gist.Data
	if err := c.do(ctx, token, http.MethodGet, "/gists/"+url.PathEscape(gistID), nil, &out); err != nil {
		return gist.Data{}, err
	}
	return out, nil
}

type user struct {
	Login string `json:"login"`
}

type repository struct {
	Name    string `json:"name"`
	HTMLURL string `json:"html_url"`
}

type createRepoBody struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	AutoInit    bool   `json:"auto_init"`
}

type contentsBody struct {
	Message string `json:"message"`
	Content string `json:"content"`
	SHA     string `json:"sha,omitempty"`
}

type contentsFile struct {
	SHA string `json:"sha"`
}

// CreateOrUpdateRepo pushes p to the repository recorded in its external
// locations, creating a new repository when there is none or it was removed
// on GitHub.
func (c *Client) CreateOrUpdateRepo(ctx context.Context, token string, p domain.Project) (Repo, error) {
	var me user
	if err := c.do(ctx, token, http.MethodGet, "/user", nil, &me); err != nil {
		return Repo{}, err
	}

	var repo repository
	if name := p.ExternalLocations.GithubRepoName; name != "" {
		err := c.do(ctx, token, http.MethodGet, repoPath(me.Login, name), nil, &repo)
		if err != nil && !errors.Is(err, ErrNotFound) {
			return Repo{}, err
		}
	}
	if repo.Name == "" {
		body := createRepoBody{Name: RepoName(p), Description: preview.Title(p), AutoInit: true}
		if err := c.do(ctx, token, http.MethodPost, "/user/repos", body, &repo); err != nil {
			return Repo{}, err
		}
	}

	data, err := gist.FilesFromProject(p)
	if err != nil {
		return Repo{}, err
	}
	names := make([]string, 0, len(data.Files))
	for name := range data.Files {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if err := c.putFile(ctx, token, me.Login, repo.Name, name, data.Files[name].Content); err != nil {
			return Repo{}, fmt.Errorf("push %s: %w", name, err)
		}
	}
	return Repo{Name: repo.Name, URL: repo.HTMLURL}, nil
}

func (c *Client) putFile(ctx context.Context, token, owner, repo, path, content string) error {
	filePath := repoPath(owner, repo) + "/contents/" + url.PathEscape(path)

	var existing contentsFile
	err := c.do(ctx, token, http.MethodGet, filePath, nil, &existing)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}

	body := contentsBody{
		Message: "Update " + path,
		Content: base64.StdEncoding.EncodeToString([]byte(content)),
		SHA:     existing.SHA,
	}
	return c.do(ctx, token, http.MethodPut, filePath, body, nil)
}

func repoPath(owner, repo string) string {
	return "/repos/" + url.PathEscape(owner) + "/" + url.PathEscape(repo)
}

// RepoName derives a repository name from the project title and key, e.g.
// "Page-Title-abc123".
func RepoName(p domain.Project) string {
	var b strings.Builder
	dash := false
	for _, r := range preview.Title(p) {
		if isASCIIAlnum(r) {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	slug := strings.Trim(b.String(), "-")
	if slug == "" {
		slug = "Project"
	}

	key := strings.Map(func(r rune) rune {
		if isASCIIAlnum(r) {
			return r
		}
		return -1
	}, p.ProjectKey)
	if len(key) > 6 {
		key = key[:6]
	}
	if key == "" {
		return slug
	}
	return slug + "-" + key
}

func isASCIIAlnum(r rune) bool {
	return r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r))
}
