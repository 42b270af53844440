package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/unrealsaint/lucera2missionparser/editor"
	"github.com/unrealsaint/lucera2missionparser/scheduler"
)

// AdminHandler handles admin-only REST endpoints.
// Routes should be protected by AdminAuth middleware.
type AdminHandler struct {
	svc   *editor.Service
	sched *scheduler.Scheduler
}

// NewAdminHandler creates an AdminHandler.
func NewAdminHandler(svc *editor.Service, sched *scheduler.Scheduler) *AdminHandler {
	return &AdminHandler{svc: svc, sched: sched}
}

// Metrics returns a summary of catalog state.
// GET /api/admin/metrics
func (h *AdminHandler) Metrics(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"catalog_size":    h.svc.Len(),
		"revision":        h.svc.Revision(),
		"scheduler_tasks": h.sched.ListTickers(),
	})
}

// ListSchedulerTasks describes every registered background task.
// GET /api/admin/scheduler
func (h *AdminHandler) ListSchedulerTasks(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"tasks": h.sched.List()})
}

// RunExport writes both formats into the export directory now.
// POST /api/admin/export
func (h *AdminHandler) RunExport(c *gin.Context) {
	ok, err := h.svc.ExportFiles(c.Request.Context(), "")
	if err != nil {
		respondError(c, err)
		return
	}
	if !ok {
		c.JSON(http.StatusConflict, gin.H{"error": "export already running"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"exported": h.svc.Len()})
}

// AdminAuth returns a middleware that checks the X-Admin-Key header.
// If adminKey is empty all admin endpoints answer 503.
func AdminAuth(adminKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if adminKey == "" {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable,
				gin.H{"error": "admin endpoints disabled: set server.admin_key in config"})
			return
		}
		if c.GetHeader("X-Admin-Key") != adminKey {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		c.Next()
	}
}
