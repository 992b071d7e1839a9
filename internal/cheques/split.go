package cheques

import (
	"bytes"
	"encoding/json"
	"fmt"

	"cheques-backend/internal/shared/telemetry"
)

// Split turns the raw extraction payload into an ordered sequence of
// per-cheque field sets. A single object and an array of N objects are
// treated uniformly, so downstream normalization never special-cases the
// singular document. Order follows the extraction output, which follows
// document reading order.
func Split(payload json.RawMessage, limit int) ([]json.RawMessage, error) {
	var env struct {
		Cheques json.RawMessage `json:"cheques"`
	}
	if err := json.Unmarshal(payload, &env); err != nil {
		return nil, fmt.Errorf("split payload: %w", err)
	}

	candidate := bytes.TrimSpace(env.Cheques)
	if len(candidate) == 0 || bytes.Equal(candidate, []byte("null")) {
		// Older envelope shape: the cheque fields sit at the top level.
		if looksChequeLike(payload) {
			return []json.RawMessage{payload}, nil
		}
		return nil, nil
	}

	var records []json.RawMessage
	switch candidate[0] {
	case '[':
		if err := json.Unmarshal(candidate, &records); err != nil {
			return nil, fmt.Errorf("split cheque list: %w", err)
		}
	case '{':
		records = []json.RawMessage{candidate}
	default:
		return nil, fmt.Errorf("split: unexpected cheques shape %q", candidate[0])
	}

	// Safety cap: an extraction claiming implausibly many cheques is treated
	// as noise beyond the limit rather than fanned out to the bureau.
	if limit > 0 && len(records) > limit {
		telemetry.Warn("split.truncated", map[string]any{
			"detected": len(records),
			"limit":    limit,
		})
		records = records[:limit]
	}
	return records, nil
}

// looksChequeLike reports whether a top-level object carries cheque fields.
func looksChequeLike(payload json.RawMessage) bool {
	var probe struct {
		CUITLibrador json.RawMessage `json:"cuit_librador"`
		NumeroCheque json.RawMessage `json:"numero_cheque"`
		Importe      json.RawMessage `json:"importe"`
	}
	if err := json.Unmarshal(payload, &probe); err != nil {
		return false
	}
	return len(probe.CUITLibrador) > 0 || len(probe.NumeroCheque) > 0 || len(probe.Importe) > 0
}
