package records

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"cheques-backend/internal/shared/server/respond"
)

// Handler wires HTTP handlers to the service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches record routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/process", h.process)
}

type processRequest struct {
	TipoDocumento string         `json:"tipo_documento"`
	Datos         map[string]any `json:"datos"`
	UsuarioID     string         `json:"usuario_id"`
}

type processResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	DataID  string `json:"data_id"`
}

func (h *Handler) process(c *gin.Context) {
	var req processRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}

	record, err := h.Svc.Confirm(c.Request.Context(), req.TipoDocumento, req.Datos, req.UsuarioID)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidInput):
			respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to store record", nil)
		}
		return
	}

	respond.Created(c, processResponse{
		Success: true,
		Message: "Datos de " + record.TipoDocumento + " procesados correctamente",
		DataID:  record.ID,
	})
}
