package analysis

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"documind-backend/internal/shared/server/middleware"
	"documind-backend/internal/shared/server/respond"
)

const (
	defaultMaxUpload = 20 << 20
	// multipart framing on top of the file itself
	multipartOverhead = 1 << 20
)

// Handler exposes the pipeline over HTTP.
type Handler struct {
	Proc *Processor
	// UploadLimiter guards the upload route; nil means unlimited.
	UploadLimiter gin.HandlerFunc
}

// NewHandler constructs a Handler.
func NewHandler(proc *Processor, uploadLimiter gin.HandlerFunc) *Handler {
	return &Handler{Proc: proc, UploadLimiter: uploadLimiter}
}

// RegisterRoutes attaches the analyze route to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	if h.UploadLimiter != nil {
		rg.POST("/documents", h.UploadLimiter, h.analyze)
		return
	}
	rg.POST("/documents", h.analyze)
}

func (h *Handler) analyze(c *gin.Context) {
	maxBytes := h.Proc.MaxUploadBytes
	if maxBytes <= 0 {
		maxBytes = defaultMaxUpload
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes+multipartOverhead)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respond.Error(c, http.StatusRequestEntityTooLarge, string(KindInvalidInput), "file too large", nil)
			return
		}
		respond.Error(c, http.StatusBadRequest, string(KindInvalidInput), "file is required", nil)
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		respond.Error(c, http.StatusBadRequest, string(KindInvalidInput), "unable to read file", nil)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		respond.Error(c, http.StatusBadRequest, string(KindInvalidInput), "unable to read file", nil)
		return
	}

	ctx := WithRequestID(c.Request.Context(), middleware.RequestIDFromContext(c))
	out, err := h.Proc.Process(ctx, Upload{
		FileName: fileHeader.Filename,
		MimeType: fileHeader.Header.Get("Content-Type"),
		Data:     data,
	})
	if err != nil {
		kind := KindOf(err)
		respond.Error(c, statusFor(kind), string(kind), sanitizeError(err), nil)
		return
	}

	c.Set("documentId", out.Record.ID)
	c.Set("category", out.Record.Category)
	respond.Created(c, ToResponse(out))
}

func statusFor(kind Kind) int {
	switch kind {
	case KindInvalidInput:
		return http.StatusBadRequest
	case KindNoTextFound, KindExtractionFailed:
		return http.StatusUnprocessableEntity
	case KindModelUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
