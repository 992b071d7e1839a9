package cheques

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"cheques-backend/internal/ingest"
	"cheques-backend/internal/llm"
	"cheques-backend/internal/shared/server/respond"
)

// Handler wires the upload endpoint to the pipeline.
type Handler struct {
	Pipeline       *Pipeline
	MaxUploadBytes int64
	MaxPDFPages    int
}

// NewHandler constructs a Handler.
func NewHandler(pipeline *Pipeline, maxUploadBytes int64, maxPDFPages int) *Handler {
	return &Handler{Pipeline: pipeline, MaxUploadBytes: maxUploadBytes, MaxPDFPages: maxPDFPages}
}

// RegisterRoutes attaches pipeline routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/upload", h.Upload)
}

// Upload accepts a multipart document and runs it through the pipeline.
func (h *Handler) Upload(c *gin.Context) {
	if h.MaxUploadBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.MaxUploadBytes)
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "file is required", nil)
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "unable to read file", nil)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "unable to read file", nil)
		return
	}

	payload, err := ingest.NewPayload(data, fileHeader.Filename, fileHeader.Header.Get("Content-Type"), ingest.Limits{
		MaxBytes:    h.MaxUploadBytes,
		MaxPDFPages: h.MaxPDFPages,
	})
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
		return
	}

	result, err := h.Pipeline.Run(c.Request.Context(), payload)
	if err != nil {
		var stageErr *StageError
		if errors.As(err, &stageErr) {
			c.Set("failedStage", string(stageErr.Stage))
			status, code := statusForStage(stageErr)
			respond.Error(c, status, code, stageErr.Reason, gin.H{"stage": stageErr.Stage})
			return
		}
		respond.Error(c, http.StatusInternalServerError, "internal_error", "pipeline failed", nil)
		return
	}

	c.Set("documentKind", string(result.TipoDocumento))
	c.Set("recordCount", result.Cantidad)
	respond.OK(c, result)
}

func statusForStage(err *StageError) (int, string) {
	switch err.Stage {
	case StageExtraction:
		if errors.Is(err, llm.ErrTimeout) {
			return http.StatusGatewayTimeout, "extraction_timeout"
		}
		return http.StatusBadGateway, "extraction_failed"
	case StageNormalization:
		return http.StatusUnprocessableEntity, "no_records_detected"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}
