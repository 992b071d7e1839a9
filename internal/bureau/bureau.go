// Package bureau queries the credit standing of a cheque drawer by CUIT,
// either against the live BCRA Central de Deudores API or a deterministic
// stand-in for environments without credentials.
package bureau

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// RiskTier is the fixed risk classification vocabulary.
type RiskTier string

const (
	RiskLow      RiskTier = "A"
	RiskElevated RiskTier = "B"
	RiskHigh     RiskTier = "C"
	RiskUnknown  RiskTier = "N/A"
)

// Status labels returned on a verdict.
const (
	StatusClean       = "Sin registros"
	StatusUnknown     = "Desconocido"
	StatusUnavailable = "No disponible"
)

// Verdict is the credit-status result for one CUIT.
type Verdict struct {
	Estado            string   `json:"estado_bcra"`
	ChequesRechazados int      `json:"cheques_rechazados"`
	Riesgo            RiskTier `json:"riesgo_crediticio"`
	Mocked            bool     `json:"-"`
}

// Validator answers credit-status queries for a drawer's CUIT.
type Validator interface {
	Check(ctx context.Context, cuit string) (Verdict, error)
}

// Validation failure modes.
var (
	ErrTimeout            = errors.New("bureau timeout")
	ErrServiceUnavailable = errors.New("bureau service unavailable")
	ErrInvalidCUIT        = errors.New("invalid cuit")
)

// UnavailableVerdict is the sentinel attached to a record when the bureau
// could not be reached. A cheque with unknown credit status is still a
// deliverable result.
func UnavailableVerdict() Verdict {
	return Verdict{
		Estado: StatusUnavailable,
		Riesgo: RiskUnknown,
	}
}

var nonDigits = regexp.MustCompile(`\D`)

// cuitDigits strips separators and validates the 11-digit shape expected by
// the bureau. Returns ErrInvalidCUIT before any call is attempted.
func cuitDigits(cuit string) (string, error) {
	digits := nonDigits.ReplaceAllString(strings.TrimSpace(cuit), "")
	if len(digits) != 11 {
		return "", fmt.Errorf("%w: %q", ErrInvalidCUIT, cuit)
	}
	return digits, nil
}

// riskForCount maps a rejected-cheque count onto the risk vocabulary.
func riskForCount(count int) RiskTier {
	switch {
	case count == 0:
		return RiskLow
	case count < 5:
		return RiskElevated
	default:
		return RiskHigh
	}
}

// statusForCount renders the user-facing status label for a count.
func statusForCount(count int) string {
	if count == 0 {
		return StatusClean
	}
	return fmt.Sprintf("Con %d cheque(s) rechazado(s)", count)
}
