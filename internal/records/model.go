package records

import "time"

// ConfirmedRecord is a user-confirmed document submission, persisted after
// the review step. Datos carries the confirmed field set verbatim.
type ConfirmedRecord struct {
	ID            string         `json:"data_id"`
	TipoDocumento string         `json:"tipo_documento"`
	Datos         map[string]any `json:"datos"`
	UsuarioID     string         `json:"usuario_id,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
}
