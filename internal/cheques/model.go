// Package cheques implements the extraction-and-validation pipeline for
// cheque documents: vision-model extraction, normalization into canonical
// records, multi-cheque splitting and credit-bureau validation.
package cheques

import (
	"github.com/shopspring/decimal"

	"cheques-backend/internal/bureau"
	"cheques-backend/internal/llm"
)

// ChequeRecord is the canonical validated cheque entity. It is created by
// normalization, mutated once when the bureau verdict is attached, and
// immutable thereafter.
type ChequeRecord struct {
	TipoDocumento     string          `json:"tipo_documento"`
	CUITLibrador      string          `json:"cuit_librador"`
	Banco             string          `json:"banco"`
	FechaEmision      string          `json:"fecha_emision"`
	FechaPago         string          `json:"fecha_pago"`
	Importe           decimal.Decimal `json:"importe"`
	NumeroCheque      string          `json:"numero_cheque"`
	CBUBeneficiario   string          `json:"cbu_beneficiario,omitempty"`
	EstadoBCRA        string          `json:"estado_bcra"`
	ChequesRechazados int             `json:"cheques_rechazados"`
	RiesgoCrediticio  string          `json:"riesgo_crediticio"`
}

// attachVerdict populates the three credit fields from a bureau verdict.
func (r *ChequeRecord) attachVerdict(v bureau.Verdict) {
	r.EstadoBCRA = v.Estado
	r.ChequesRechazados = v.ChequesRechazados
	r.RiesgoCrediticio = string(v.Riesgo)
}

// GenericDocumentRecord is the fallback entity for non-cheque documents.
// The bureau never touches it.
type GenericDocumentRecord struct {
	TipoDocumento      string         `json:"tipo_documento"`
	Contenido          string         `json:"contenido"`
	DatosEstructurados map[string]any `json:"datos_estructurados"`
}

// SkippedCheque records why one extracted sub-structure was excluded from the
// final sequence. Position is the zero-based index in extraction order.
type SkippedCheque struct {
	Position int    `json:"position"`
	Reason   string `json:"reason"`
}

// PipelineResult is the terminal output of one pipeline run. For cheque
// documents Cheques holds the ordered records; for anything else Documento
// holds the generic fallback.
type PipelineResult struct {
	Success       bool                   `json:"success"`
	TipoDocumento llm.DocumentKind       `json:"tipo_documento"`
	Cantidad      int                    `json:"cantidad"`
	Cheques       []ChequeRecord         `json:"data,omitempty"`
	Documento     *GenericDocumentRecord `json:"documento,omitempty"`
	Descartados   []SkippedCheque        `json:"descartados,omitempty"`
	Filename      string                 `json:"filename"`
}
