package llm

import (
	"context"
	"encoding/json"
	"errors"
)

// DocumentKind tags which extraction path a document follows.
type DocumentKind string

const (
	KindCheque    DocumentKind = "cheque"
	KindDocumento DocumentKind = "documento"
)

// FieldType enumerates the types a schema field may declare.
type FieldType string

const (
	FieldString  FieldType = "string"
	FieldDecimal FieldType = "decimal"
	FieldDate    FieldType = "date"
	FieldEnum    FieldType = "enum"
)

// Field declares one extraction target within a schema.
type Field struct {
	Name        string
	Type        FieldType
	Required    bool
	Description string
	Enum        []string
}

// Schema is the declarative contract handed to the vision model: the target
// document kind and the field set it must extract.
type Schema struct {
	Kind          DocumentKind
	AllowMultiple bool
	Fields        []Field
}

// ExtractInput carries one document payload into an extraction call.
type ExtractInput struct {
	Data     []byte
	MimeType string
	Schema   Schema
}

// Result is the model's structured output before any normalization. Payload
// holds the untrusted JSON envelope; DetectedKind is the model's own verdict
// on what kind of document it saw.
type Result struct {
	DetectedKind DocumentKind
	Payload      json.RawMessage
	Reasoning    string
	Model        string
}

// Client abstracts the vision-capable extraction provider.
type Client interface {
	Extract(ctx context.Context, input ExtractInput) (Result, error)
}

// Extraction failure modes. Callers match with errors.Is; the concrete error
// carries provider detail via wrapping.
var (
	ErrTimeout            = errors.New("extraction timeout")
	ErrServiceUnavailable = errors.New("extraction service unavailable")
	ErrMalformedOutput    = errors.New("extraction output malformed")
)

// ChequeSchema returns the extraction contract for Argentine cheques.
func ChequeSchema() Schema {
	return Schema{
		Kind:          KindCheque,
		AllowMultiple: true,
		Fields: []Field{
			{Name: "cuit_librador", Type: FieldString, Required: true, Description: "CUIT del librador, normalizado a XX-XXXXXXXX-X"},
			{Name: "banco", Type: FieldString, Description: "Nombre completo del banco emisor"},
			{Name: "fecha_emision", Type: FieldDate, Description: "Fecha de emisión en formato YYYY-MM-DD"},
			{Name: "fecha_pago", Type: FieldDate, Description: "Fecha de pago o vencimiento en formato YYYY-MM-DD"},
			{Name: "importe", Type: FieldDecimal, Required: true, Description: "Importe en números, validado contra el importe en letras"},
			{Name: "numero_cheque", Type: FieldString, Required: true, Description: "Número único del cheque"},
			{Name: "cbu_beneficiario", Type: FieldString, Description: "CBU o CUIT del beneficiario si aparece"},
		},
	}
}

// DocumentSchema returns the fallback contract for non-cheque documents.
func DocumentSchema() Schema {
	return Schema{
		Kind: KindDocumento,
		Fields: []Field{
			{Name: "contenido", Type: FieldString, Required: true, Description: "Texto completo extraído del documento"},
		},
	}
}
