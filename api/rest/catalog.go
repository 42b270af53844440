package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/unrealsaint/lucera2missionparser/editor"
	"github.com/unrealsaint/lucera2missionparser/reward"
)

// maxImportBytes caps uploaded documents.
const maxImportBytes = 32 << 20

// CatalogHandler serves whole-catalog file, export and snapshot operations.
type CatalogHandler struct {
	svc *editor.Service
}

// NewCatalogHandler creates a CatalogHandler.
func NewCatalogHandler(svc *editor.Service) *CatalogHandler {
	return &CatalogHandler{svc: svc}
}

// fileRequest names a server-side file relative to the export directory.
// An empty path uses the configured catalog file.
type fileRequest struct {
	Format string `json:"format" binding:"required"`
	Path   string `json:"path"`
}

func (h *CatalogHandler) bindFile(c *gin.Context) (reward.Format, string, bool) {
	var req fileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return "", "", false
	}
	format, err := reward.ParseFormat(req.Format)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return "", "", false
	}
	path, err := h.svc.ClientPath(req.Path)
	if err != nil {
		respondError(c, err)
		return "", "", false
	}
	return format, path, true
}

func queryFormat(c *gin.Context) (reward.Format, bool) {
	format, err := reward.ParseFormat(c.DefaultQuery("format", string(reward.FormatMarkup)))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return "", false
	}
	return format, true
}

// Load handles POST /api/catalog/load. Markup replaces the catalog,
// flat text is overlaid onto it.
func (h *CatalogHandler) Load(c *gin.Context) {
	format, path, ok := h.bindFile(c)
	if !ok {
		return
	}
	var res editor.ImportResult
	var err error
	if format == reward.FormatMarkup {
		res, err = h.svc.LoadMarkup(c.Request.Context(), path)
	} else {
		res, err = h.svc.LoadFlatText(c.Request.Context(), path)
	}
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"result": res, "size": h.svc.Len(), "revision": h.svc.Revision()})
}

// Save handles POST /api/catalog/save.
func (h *CatalogHandler) Save(c *gin.Context) {
	format, path, ok := h.bindFile(c)
	if !ok {
		return
	}
	var err error
	if format == reward.FormatMarkup {
		err = h.svc.SaveMarkup(c.Request.Context(), path)
	} else {
		err = h.svc.SaveFlatText(c.Request.Context(), path)
	}
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"saved": h.svc.Len(), "format": format})
}

// Export handles GET /api/catalog/export?format=markup|flat.
func (h *CatalogHandler) Export(c *gin.Context) {
	format, ok := queryFormat(c)
	if !ok {
		return
	}
	data, err := h.svc.Export(c.Request.Context(), format)
	if err != nil {
		respondError(c, err)
		return
	}
	contentType, name := "application/xml; charset=utf-8", editor.MarkupFileName
	if format == reward.FormatFlat {
		contentType, name = "text/plain; charset=utf-8", editor.FlatTextFileName
	}
	c.Header("Content-Disposition", `attachment; filename="`+name+`"`)
	c.Data(http.StatusOK, contentType, data)
}

// Import handles POST /api/catalog/import?format=. The body is the raw document.
func (h *CatalogHandler) Import(c *gin.Context) {
	format, ok := queryFormat(c)
	if !ok {
		return
	}
	body := http.MaxBytesReader(c.Writer, c.Request.Body, maxImportBytes)
	res, err := h.svc.Import(c.Request.Context(), format, body)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"result": res, "size": h.svc.Len(), "revision": h.svc.Revision()})
}

// Snapshot handles POST /api/catalog/snapshot.
func (h *CatalogHandler) Snapshot(c *gin.Context) {
	n, err := h.svc.SaveSnapshot(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"rows": n})
}

// Restore handles POST /api/catalog/restore.
func (h *CatalogHandler) Restore(c *gin.Context) {
	n, err := h.svc.LoadSnapshot(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"size": n, "revision": h.svc.Revision()})
}
