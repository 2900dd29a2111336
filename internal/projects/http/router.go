package http

import "github.com/gin-gonic/gin"

// Register attaches playground routes to the given router group.
func (h *Handler) Register(rg *gin.RouterGroup) {
	rg.GET("/state", h.getState)
	rg.POST("/events", h.postEvent)
	rg.GET("/projects", h.listProjects)
	rg.GET("/projects/:key", h.getProject)
	rg.POST("/exports", h.export)
	rg.POST("/snapshots", h.createSnapshot)
	rg.POST("/snapshots/:key/import", h.importSnapshot)
	rg.POST("/gists/:id/import", h.importGist)
	rg.POST("/logout", h.logout)
}
