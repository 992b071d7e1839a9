package gemini

import (
	"fmt"
	"strings"

	"cheques-backend/internal/llm"
)

const chequePreamble = `Eres un experto en análisis de cheques argentinos.
Analiza esta imagen o documento y razona sobre su estructura para extraer la información con precisión.

PROCESO:
1. Identifica primero el TIPO de documento. Si no es un cheque, trátalo como documento genérico.
2. Si es un cheque, identifica las secciones: encabezado (banco, logo), datos del librador,
   datos del beneficiario, montos en números y en letras, fechas y número de cheque.
3. El documento puede contener MÁS DE UN cheque. Extrae cada uno por separado,
   en orden de lectura (de arriba hacia abajo, de izquierda a derecha).
4. Valida consistencia: el importe en números debe coincidir con el de letras,
   fecha_pago no puede ser anterior a fecha_emision, el CUIT debe tener 11 dígitos.`

const documentoPreamble = `Eres un analizador de documentos.
Analiza esta imagen o documento y extrae su contenido de texto de la manera más completa posible.`

const chequeEnvelope = `Responde ÚNICAMENTE con JSON válido, sin markdown ni texto adicional, con esta forma:
{
  "tipo_documento": "cheque" o "documento",
  "cheques": [ { %s } ],
  "contenido": "texto completo si tipo_documento es documento, sino cadena vacía",
  "razonamiento": "breve explicación del análisis (máximo 200 caracteres)"
}

REGLAS ESTRICTAS:
- "cheques" es una lista con un objeto por cada cheque detectado; si hay uno solo, una lista de un elemento.
- Si el documento no contiene ningún cheque, "cheques" es una lista vacía.
- Si un campo no se puede determinar, usa "" para textos o 0 para números. Nunca inventes valores.`

const documentoEnvelope = `Responde ÚNICAMENTE con JSON válido, sin markdown ni texto adicional, con esta forma:
{
  "tipo_documento": "documento",
  "contenido": "texto completo extraído",
  "razonamiento": "breve explicación del análisis (máximo 200 caracteres)"
}`

// BuildPrompt renders the schema contract into the extraction instruction.
func BuildPrompt(schema llm.Schema) string {
	var b strings.Builder
	switch schema.Kind {
	case llm.KindCheque:
		b.WriteString(chequePreamble)
		b.WriteString("\n\n")
		b.WriteString(fmt.Sprintf(chequeEnvelope, fieldList(schema.Fields)))
	default:
		b.WriteString(documentoPreamble)
		b.WriteString("\n\n")
		b.WriteString(documentoEnvelope)
	}
	return b.String()
}

// fieldList renders schema fields as the per-record JSON shape shown to the model.
func fieldList(fields []llm.Field) string {
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		desc := f.Description
		if desc == "" {
			desc = string(f.Type)
		}
		if len(f.Enum) > 0 {
			desc = fmt.Sprintf("%s (uno de: %s)", desc, strings.Join(f.Enum, ", "))
		}
		parts = append(parts, fmt.Sprintf("%q: %q", f.Name, desc))
	}
	return strings.Join(parts, ", ")
}
