package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/popcodeorg/playground-backend/internal/auth"
	"github.com/popcodeorg/playground-backend/internal/clients/firebase"
	"github.com/popcodeorg/playground-backend/internal/clients/github"
	"github.com/popcodeorg/playground-backend/internal/projects/service"
)

func (h *Handler) export(c *gin.Context) {
	var req exportReq
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.ExportType) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid body"})
		return
	}

	userID := auth.UserFirebaseUID(c)
	token := strings.TrimSpace(c.GetHeader(githubTokenHeader))
	url, err := h.exports.Export(c.Request.Context(), userID, strings.TrimSpace(req.ExportType), token)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "url": url})
}

func (h *Handler) createSnapshot(c *gin.Context) {
	userID := auth.UserFirebaseUID(c)
	key, err := h.exports.CreateSnapshot(c.Request.Context(), userID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"ok": true, "snapshot_key": key, "url": h.exports.SnapshotURL(key)})
}

func (h *Handler) importSnapshot(c *gin.Context) {
	key := strings.TrimSpace(c.Param("key"))
	if key == "" {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "missing snapshot key"})
		return
	}

	userID := auth.UserFirebaseUID(c)
	state, err := h.exports.ImportSnapshot(c.Request.Context(), userID, key)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "state": state})
}

func (h *Handler) importGist(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "missing gist id"})
		return
	}

	userID := auth.UserFirebaseUID(c)
	token := strings.TrimSpace(c.GetHeader(githubTokenHeader))
	state, err := h.exports.ImportGist(c.Request.Context(), userID, id, token)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "state": state})
}

func exportStatus(err error) (int, bool) {
	var (
		apiErr    *github.APIError
		exportErr *service.ExportError
	)
	switch {
	case errors.As(err, &exportErr):
		return http.StatusBadGateway, true
	case errors.Is(err, firebase.ErrSnapshotNotFound), errors.Is(err, github.ErrNotFound):
		return http.StatusNotFound, true
	case errors.As(err, &apiErr):
		return http.StatusBadGateway, true
	case errors.Is(err, service.ErrUnknownExportType):
		return http.StatusBadRequest, true
	case errors.Is(err, service.ErrTokenRequired):
		return http.StatusUnauthorized, true
	case errors.Is(err, service.ErrSnapshotsDisabled):
		return http.StatusServiceUnavailable, true
	}
	return 0, false
}
