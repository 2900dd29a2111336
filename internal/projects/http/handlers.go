package http

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/popcodeorg/playground-backend/internal/auth"
	"github.com/popcodeorg/playground-backend/internal/projects/domain"
	"github.com/popcodeorg/playground-backend/internal/projects/event"
	"github.com/popcodeorg/playground-backend/internal/projects/gist"
	"github.com/popcodeorg/playground-backend/internal/projects/selector"
)

var nowFunc = time.Now

func (h *Handler) getState(c *gin.Context) {
	userID := auth.UserFirebaseUID(c)
	state, err := h.sessions.State(c.Request.Context(), userID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "state": state})
}

func (h *Handler) postEvent(c *gin.Context) {
	var env event.Envelope
	if err := c.ShouldBindJSON(&env); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid body"})
		return
	}

	e, err := h.decoder.Decode(env)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": err.Error()})
		return
	}

	userID := auth.UserFirebaseUID(c)
	state, err := h.sessions.Dispatch(c.Request.Context(), userID, e)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "state": state})
}

func (h *Handler) listProjects(c *gin.Context) {
	userID := auth.UserFirebaseUID(c)
	state, err := h.sessions.State(c.Request.Context(), userID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"ok":                  true,
		"current_project_key": state.CurrentProjectKey,
		"projects":            selector.ActiveProjects(state),
		"archived":            selector.ArchivedProjects(state),
	})
}

func (h *Handler) getProject(c *gin.Context) {
	key := strings.TrimSpace(c.Param("key"))
	userID := auth.UserFirebaseUID(c)

	state, err := h.sessions.State(c.Request.Context(), userID)
	if err != nil {
		h.fail(c, err)
		return
	}
	p, err := selector.Project(state, key)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "project": p})
}

func (h *Handler) logout(c *gin.Context) {
	userID := auth.UserFirebaseUID(c)
	if err := h.sessions.Close(c.Request.Context(), userID); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// fail maps service errors to responses.
func (h *Handler) fail(c *gin.Context, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.log.Error("request failed", "path", c.FullPath(), "error", err)
	}
	c.JSON(status, gin.H{"ok": false, "error": err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrProjectNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrNoCurrentProject):
		return http.StatusConflict
	case errors.Is(err, event.ErrUnknownType),
		errors.Is(err, event.ErrInvalidPayload),
		errors.Is(err, event.ErrMissingProjectKey),
		errors.Is(err, domain.ErrUnknownLanguage),
		errors.Is(err, gist.ErrMalformedManifest):
		return http.StatusBadRequest
	}
	if status, ok := exportStatus(err); ok {
		return status
	}
	return http.StatusInternalServerError
}
