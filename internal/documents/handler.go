package documents

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"documind-backend/internal/extraction"
	"documind-backend/internal/shared/server/respond"
)

const (
	defaultListLimit = 50
	maxListLimit     = 200
	xlsxContentType  = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// FieldExtractor derives structured fields from archived text.
type FieldExtractor interface {
	Extract(ctx context.Context, text, category string) extraction.Result
}

// Handler wires HTTP handlers to the archive.
type Handler struct {
	Svc    *Service
	Fields FieldExtractor
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service, fields FieldExtractor) *Handler {
	return &Handler{Svc: svc, Fields: fields}
}

// RegisterRoutes attaches archive routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/documents", h.list)
	rg.GET("/documents/export.xlsx", h.export)
	rg.GET("/documents/:id", h.get)
	rg.GET("/documents/:id/file", h.file)
	rg.DELETE("/documents", h.deleteMany)
	rg.DELETE("/documents/:id", h.deleteOne)
	rg.GET("/analytics", h.analytics)
}

func (h *Handler) list(c *gin.Context) {
	f := filterFromQuery(c)

	recs, err := h.Svc.List(c.Request.Context(), f)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "storage_error", "failed to list documents", nil)
		return
	}

	resp := make([]HistoryItem, 0, len(recs))
	for _, rec := range recs {
		resp = append(resp, ToHistoryItem(rec))
	}
	respond.OK(c, resp)
}

func (h *Handler) get(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	rec, err := h.Svc.Get(c.Request.Context(), id)
	if err != nil {
		writeLookupError(c, err)
		return
	}
	c.Set("documentId", rec.ID)
	c.Set("category", rec.Category)

	var fields extraction.Result
	if h.Fields != nil {
		fields = h.Fields.Extract(c.Request.Context(), rec.ExtractedText, rec.Category)
	}
	respond.OK(c, toDocumentResponse(rec, fields))
}

func (h *Handler) file(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	url, err := h.Svc.FileURL(c.Request.Context(), id)
	if err != nil {
		writeLookupError(c, err)
		return
	}
	if url != "" {
		c.Redirect(http.StatusTemporaryRedirect, url)
		return
	}

	rec, rc, err := h.Svc.OpenFile(c.Request.Context(), id)
	if err != nil {
		writeLookupError(c, err)
		return
	}
	defer rc.Close()

	contentType := rec.MimeType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.Header("Content-Disposition", fmt.Sprintf("inline; filename=%q", rec.FileName))
	c.DataFromReader(http.StatusOK, rec.SizeBytes, contentType, rc, nil)
}

func (h *Handler) deleteMany(c *gin.Context) {
	var req deleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	if len(req.IDs) == 0 {
		respond.Error(c, http.StatusBadRequest, "validation_error", "ids are required", nil)
		return
	}
	h.delete(c, req.IDs)
}

func (h *Handler) deleteOne(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	h.delete(c, []int64{id})
}

func (h *Handler) delete(c *gin.Context, ids []int64) {
	n, err := h.Svc.Delete(c.Request.Context(), ids)
	if err != nil {
		_ = c.Error(err)
		respond.JSON(c, http.StatusInternalServerError, deleteResponse{Success: false, Error: "failed to delete documents"})
		return
	}
	respond.OK(c, deleteResponse{Success: true, Deleted: n})
}

func (h *Handler) export(c *gin.Context) {
	f := Filter{Category: c.Query("category")}

	data, err := h.Svc.Export(c.Request.Context(), f)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "storage_error", "failed to export history", nil)
		return
	}
	respond.Attachment(c, "history.xlsx", xlsxContentType, data)
}

func (h *Handler) analytics(c *gin.Context) {
	out, err := h.Svc.Analytics(c.Request.Context())
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "storage_error", "failed to load analytics", nil)
		return
	}
	respond.OK(c, out)
}

func filterFromQuery(c *gin.Context) Filter {
	limit := defaultListLimit
	offset := 0

	if v := c.Query("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			limit = parsed
		}
	}
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}

	if v := c.Query("offset"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			offset = parsed
		}
	}
	if offset < 0 {
		offset = 0
	}

	return Filter{Category: c.Query("category"), Limit: limit, Offset: offset}
}

func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid document id", nil)
		return 0, false
	}
	return id, true
}

func writeLookupError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "document not found", nil)
	case errors.Is(err, ErrInvalidInput):
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid document id", nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "storage_error", "failed to load document", nil)
	}
}
