package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/popcodeorg/playground-backend/internal/auth"
	"github.com/popcodeorg/playground-backend/internal/clients/github"
	"github.com/popcodeorg/playground-backend/internal/projects/domain"
	"github.com/popcodeorg/playground-backend/internal/projects/gist"
	"github.com/popcodeorg/playground-backend/internal/projects/service"
	"github.com/popcodeorg/playground-backend/internal/projects/store"
)

type memProjects struct {
	rows map[string][]domain.ProjectData
}

func (m *memProjects) ListByUser(_ context.Context, userID string) ([]domain.ProjectData, error) {
	return m.rows[userID], nil
}

func (m *memProjects) UpsertMany(context.Context, string, []domain.Project) error { return nil }

func (m *memProjects) DeleteByKeys(context.Context, string, []string) (int64, error) {
	return 0, nil
}

type fakeExports struct {
	url       string
	err       error
	state     store.State
	gotType   string
	gotToken  string
	gotGistID string
}

func (f *fakeExports) Export(_ context.Context, _ string, exportType, token string) (string, error) {
	f.gotType, f.gotToken = exportType, token
	return f.url, f.err
}

func (f *fakeExports) CreateSnapshot(context.Context, string) (string, error) {
	return "snap-1", f.err
}

func (f *fakeExports) SnapshotURL(key string) string { return "https://popcode.test/?snapshot=" + key }

func (f *fakeExports) ImportSnapshot(context.Context, string, string) (store.State, error) {
	return f.state, f.err
}

func (f *fakeExports) ImportGist(_ context.Context, _, gistID, token string) (store.State, error) {
	f.gotGistID, f.gotToken = gistID, token
	return f.state, f.err
}

func setupRouter(t *testing.T, exports *fakeExports, seed ...domain.ProjectData) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	repo := &memProjects{rows: map[string][]domain.ProjectData{"u1": seed}}
	sessions := service.NewSessionService(repo, nil, nil)

	r := gin.New()
	g := r.Group("/playground", auth.OptionalUser())
	New(sessions, exports, nil).Register(g)
	return r
}

func do(r http.Handler, method, path string, body any, headers ...string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-Id", "u1")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

type stateResp struct {
	OK    bool        `json:"ok"`
	State store.State `json:"state"`
	Error string      `json:"error"`
}

func decodeState(t *testing.T, w *httptest.ResponseRecorder) stateResp {
	t.Helper()
	var resp stateResp
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestPostEvent(t *testing.T) {
	r := setupRouter(t, &fakeExports{})

	w := do(r, http.MethodPost, "/playground/events", map[string]any{
		"type":    "PROJECT_CREATED",
		"payload": map[string]any{"projectKey": "p1"},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = do(r, http.MethodPost, "/playground/events", map[string]any{
		"type":    "UPDATE_PROJECT_SOURCE",
		"payload": map[string]any{"projectKey": "p1", "language": "html", "newValue": "<p>hi</p>"},
		"meta":    map[string]any{"timestamp": 1234},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	resp := decodeState(t, w)
	assert.True(t, resp.OK)
	assert.Equal(t, "p1", resp.State.CurrentProjectKey)
	p, ok := resp.State.Projects.Get("p1")
	require.True(t, ok)
	assert.Equal(t, "<p>hi</p>", p.Sources.HTML)
	require.NotNil(t, p.UpdatedAt)
	assert.Equal(t, int64(1234), *p.UpdatedAt)

	t.Run("rejects bad events", func(t *testing.T) {
		cases := []struct {
			name string
			body any
		}{
			{"not json", "nope"},
			{"unknown type", map[string]any{"type": "LAUNCH_ROCKET"}},
			{"missing key", map[string]any{"type": "ARCHIVE_PROJECT", "payload": map[string]any{}}},
			{"bad language", map[string]any{
				"type":    "UPDATE_PROJECT_SOURCE",
				"payload": map[string]any{"projectKey": "p1", "language": "python", "newValue": "x"},
			}},
		}
		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				w := do(r, http.MethodPost, "/playground/events", tc.body)
				assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
			})
		}
	})
}

func TestListAndGetProjects(t *testing.T) {
	r := setupRouter(t, &fakeExports{},
		domain.ProjectData{ProjectKey: "a", Sources: domain.Sources{HTML: "a"}, UpdatedAt: ptr(1)},
		domain.ProjectData{ProjectKey: "b", Sources: domain.Sources{HTML: "b"}, UpdatedAt: ptr(2)},
		domain.ProjectData{ProjectKey: "c", IsArchived: true, UpdatedAt: ptr(3)},
	)

	w := do(r, http.MethodGet, "/playground/projects", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var list struct {
		Projects []domain.Project `json:"projects"`
		Archived []domain.Project `json:"archived"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list.Projects, 2)
	assert.Equal(t, "b", list.Projects[0].ProjectKey)
	assert.Equal(t, "a", list.Projects[1].ProjectKey)
	require.Len(t, list.Archived, 1)
	assert.Equal(t, "c", list.Archived[0].ProjectKey)

	w = do(r, http.MethodGet, "/playground/projects/a", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(r, http.MethodGet, "/playground/projects/zzz", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestLogout(t *testing.T) {
	r := setupRouter(t, &fakeExports{},
		domain.ProjectData{ProjectKey: "a", Sources: domain.Sources{HTML: "a"}, UpdatedAt: ptr(1)},
	)

	w := do(r, http.MethodGet, "/playground/state", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = do(r, http.MethodPost, "/playground/logout", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestExport(t *testing.T) {
	t.Run("passes type and token", func(t *testing.T) {
		exports := &fakeExports{url: "https://gist.github.com/g1"}
		r := setupRouter(t, exports)

		w := do(r, http.MethodPost, "/playground/exports", map[string]string{"export_type": "gist"}, githubTokenHeader, "tok")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "gist", exports.gotType)
		assert.Equal(t, "tok", exports.gotToken)
		assert.Contains(t, w.Body.String(), "https://gist.github.com/g1")
	})

	t.Run("missing type", func(t *testing.T) {
		r := setupRouter(t, &fakeExports{})
		w := do(r, http.MethodPost, "/playground/exports", map[string]string{})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	statuses := []struct {
		name string
		err  error
		want int
	}{
		{"no current project", domain.ErrNoCurrentProject, http.StatusConflict},
		{"token required", service.ErrTokenRequired, http.StatusUnauthorized},
		{"unknown type", service.ErrUnknownExportType, http.StatusBadRequest},
		{"upstream failure", &service.ExportError{ExportType: "repo", Err: &github.APIError{StatusCode: 500}}, http.StatusBadGateway},
		{"snapshots disabled", service.ErrSnapshotsDisabled, http.StatusServiceUnavailable},
	}
	for _, tc := range statuses {
		t.Run(tc.name, func(t *testing.T) {
			r := setupRouter(t, &fakeExports{err: tc.err})
			w := do(r, http.MethodPost, "/playground/exports", map[string]string{"export_type": "repo"})
			assert.Equal(t, tc.want, w.Code)
		})
	}
}

func TestSnapshotsAndImports(t *testing.T) {
	exports := &fakeExports{state: store.NewState()}
	r := setupRouter(t, exports)

	w := do(r, http.MethodPost, "/playground/snapshots", nil)
	require.Equal(t, http.StatusCreated, w.Code)
	var created struct {
		SnapshotKey string `json:"snapshot_key"`
		URL         string `json:"url"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, "snap-1", created.SnapshotKey)
	assert.Equal(t, "https://popcode.test/?snapshot=snap-1", created.URL)

	w = do(r, http.MethodPost, "/playground/snapshots/snap-1/import", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(r, http.MethodPost, "/playground/gists/abc/import", nil, githubTokenHeader, "tok")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "abc", exports.gotGistID)
	assert.Equal(t, "tok", exports.gotToken)

	t.Run("malformed gist", func(t *testing.T) {
		r := setupRouter(t, &fakeExports{err: gist.ErrMalformedManifest})
		w := do(r, http.MethodPost, "/playground/gists/abc/import", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("missing gist", func(t *testing.T) {
		r := setupRouter(t, &fakeExports{err: github.ErrNotFound})
		w := do(r, http.MethodPost, "/playground/gists/abc/import", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func ptr(v int64) *int64 { return &v }
