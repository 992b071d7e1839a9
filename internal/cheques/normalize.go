package cheques

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"cheques-backend/internal/llm"
)

// Per-record exclusion reasons. These invalidate one record without touching
// its siblings.
var (
	errMissingCUIT   = errors.New("cuit_librador faltante o inválido")
	errMissingAmount = errors.New("importe faltante o no positivo")
	errMissingNumber = errors.New("numero_cheque faltante")
)

// rawCheque is the untrusted per-record shape as the model returned it.
// Numeric fields stay raw because the model may emit them as numbers or
// strings interchangeably.
type rawCheque struct {
	CUITLibrador    string          `json:"cuit_librador"`
	Banco           string          `json:"banco"`
	FechaEmision    string          `json:"fecha_emision"`
	FechaPago       string          `json:"fecha_pago"`
	Importe         json.RawMessage `json:"importe"`
	NumeroCheque    json.RawMessage `json:"numero_cheque"`
	CBUBeneficiario string          `json:"cbu_beneficiario"`
}

// Normalize coerces the split raw field sets into canonical ChequeRecords.
// Invalid records are excluded with their reason retained; valid siblings are
// unaffected. Order follows the input sequence.
func Normalize(rawRecords []json.RawMessage) ([]ChequeRecord, []SkippedCheque) {
	records := make([]ChequeRecord, 0, len(rawRecords))
	var skipped []SkippedCheque
	for i, raw := range rawRecords {
		record, err := normalizeOne(raw)
		if err != nil {
			skipped = append(skipped, SkippedCheque{Position: i, Reason: err.Error()})
			continue
		}
		records = append(records, record)
	}
	return records, skipped
}

func normalizeOne(raw json.RawMessage) (ChequeRecord, error) {
	var rc rawCheque
	if err := json.Unmarshal(raw, &rc); err != nil {
		return ChequeRecord{}, fmt.Errorf("estructura ilegible: %v", err)
	}

	cuit, err := NormalizeCUIT(rc.CUITLibrador)
	if err != nil {
		return ChequeRecord{}, errMissingCUIT
	}

	importe, err := parseAmountRaw(rc.Importe)
	if err != nil || !importe.IsPositive() {
		return ChequeRecord{}, errMissingAmount
	}

	numero := rawString(rc.NumeroCheque)
	if numero == "" {
		return ChequeRecord{}, errMissingNumber
	}

	// Optional fields default rather than fail; an unparsable date is blanked.
	fechaEmision, err := NormalizeDate(rc.FechaEmision)
	if err != nil {
		fechaEmision = ""
	}
	fechaPago, err := NormalizeDate(rc.FechaPago)
	if err != nil {
		fechaPago = ""
	}

	return ChequeRecord{
		TipoDocumento:   string(llm.KindCheque),
		CUITLibrador:    cuit,
		Banco:           strings.TrimSpace(rc.Banco),
		FechaEmision:    fechaEmision,
		FechaPago:       fechaPago,
		Importe:         importe,
		NumeroCheque:    numero,
		CBUBeneficiario: strings.TrimSpace(rc.CBUBeneficiario),
	}, nil
}

var cuitNonDigits = regexp.MustCompile(`\D`)

// NormalizeCUIT coerces a CUIT in any common notation (plain digits, dots,
// hyphens, spaces) into the canonical NN-NNNNNNNN-N form.
func NormalizeCUIT(raw string) (string, error) {
	digits := cuitNonDigits.ReplaceAllString(strings.TrimSpace(raw), "")
	if len(digits) != 11 {
		return "", fmt.Errorf("cuit must have 11 digits, got %d", len(digits))
	}
	return fmt.Sprintf("%s-%s-%s", digits[:2], digits[2:10], digits[10:]), nil
}

// ParseAmount coerces a currency string into a decimal, accepting both the
// Argentine convention ("50.000,00") and the plain one ("50000.00").
func ParseAmount(raw string) (decimal.Decimal, error) {
	cleaned := strings.Map(func(r rune) rune {
		switch {
		case r >= '0' && r <= '9', r == ',', r == '.', r == '-':
			return r
		default:
			return -1
		}
	}, raw)
	if cleaned == "" {
		return decimal.Zero, fmt.Errorf("empty amount %q", raw)
	}

	hasComma := strings.Contains(cleaned, ",")
	hasDot := strings.Contains(cleaned, ".")
	switch {
	case hasComma && hasDot:
		// The rightmost separator is the decimal one; the other is grouping.
		if strings.LastIndex(cleaned, ",") > strings.LastIndex(cleaned, ".") {
			cleaned = strings.ReplaceAll(cleaned, ".", "")
			cleaned = strings.Replace(cleaned, ",", ".", 1)
		} else {
			cleaned = strings.ReplaceAll(cleaned, ",", "")
		}
	case hasComma:
		cleaned = normalizeSingleSeparator(cleaned, ",")
	case hasDot:
		cleaned = normalizeSingleSeparator(cleaned, ".")
	}

	return decimal.NewFromString(cleaned)
}

// normalizeSingleSeparator decides whether a lone separator kind is decimal
// or grouping: one occurrence followed by at most two digits reads as a
// decimal point, anything else as thousands grouping.
func normalizeSingleSeparator(s, sep string) string {
	if strings.Count(s, sep) == 1 {
		if tail := s[strings.Index(s, sep)+1:]; len(tail) <= 2 {
			return strings.Replace(s, sep, ".", 1)
		}
	}
	return strings.ReplaceAll(s, sep, "")
}

// parseAmountRaw accepts the amount as a JSON number or string.
func parseAmountRaw(raw json.RawMessage) (decimal.Decimal, error) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return decimal.Zero, errors.New("missing amount")
	}
	if strings.HasPrefix(trimmed, `"`) {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return decimal.Zero, err
		}
		return ParseAmount(s)
	}
	return decimal.NewFromString(trimmed)
}

var dateLayouts = []string{
	"2006-01-02",
	"02/01/2006",
	"2/1/2006",
	"02-01-2006",
}

// NormalizeDate coerces a date string into canonical ISO form. Day-first
// layouts are the local convention; ISO input passes through.
func NormalizeDate(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, trimmed); err == nil {
			return t.Format("2006-01-02"), nil
		}
	}
	return "", fmt.Errorf("unrecognized date %q", raw)
}

// rawString renders a JSON scalar that may arrive as string or number.
func rawString(raw json.RawMessage) string {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return ""
	}
	if strings.HasPrefix(trimmed, `"`) {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return ""
		}
		return strings.TrimSpace(s)
	}
	return trimmed
}
