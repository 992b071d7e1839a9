package cheques

import (
	"encoding/json"
	"fmt"
	"testing"
)

func TestSplitSingleObject(t *testing.T) {
	payload := json.RawMessage(`{"tipo_documento": "cheque", "cheques": {"numero_cheque": "1"}}`)

	records, err := Split(payload, 10)
	if err != nil {
		t.Fatalf("Split: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
}

func TestSplitArrayPreservesOrder(t *testing.T) {
	payload := json.RawMessage(`{"cheques": [
		{"numero_cheque": "a"},
		{"numero_cheque": "b"},
		{"numero_cheque": "c"}
	]}`)

	records, err := Split(payload, 10)
	if err != nil {
		t.Fatalf("Split: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(records))
	}
	for i, want := range []string{"a", "b", "c"} {
		var rec struct {
			NumeroCheque string `json:"numero_cheque"`
		}
		if err := json.Unmarshal(records[i], &rec); err != nil {
			t.Fatalf("record %d: %v", i, err)
		}
		if rec.NumeroCheque != want {
			t.Fatalf("record %d = %q, want %q", i, rec.NumeroCheque, want)
		}
	}
}

func TestSplitEmptyArray(t *testing.T) {
	records, err := Split(json.RawMessage(`{"cheques": []}`), 10)
	if err != nil {
		t.Fatalf("Split: %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("expected no records, got %d", len(records))
	}
}

func TestSplitTopLevelChequeFallback(t *testing.T) {
	payload := json.RawMessage(`{"tipo_documento": "cheque", "cuit_librador": "20123456789", "importe": 100, "numero_cheque": "9"}`)

	records, err := Split(payload, 10)
	if err != nil {
		t.Fatalf("Split: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected fallback single record, got %d", len(records))
	}
}

func TestSplitNoChequeFields(t *testing.T) {
	records, err := Split(json.RawMessage(`{"tipo_documento": "documento", "contenido": "texto"}`), 10)
	if err != nil {
		t.Fatalf("Split: %v", err)
	}
	if records != nil {
		t.Fatalf("expected nil, got %d records", len(records))
	}
}

func TestSplitTruncatesAtLimit(t *testing.T) {
	items := ""
	for i := 0; i < 15; i++ {
		if i > 0 {
			items += ","
		}
		items += fmt.Sprintf(`{"numero_cheque": "%d"}`, i)
	}
	payload := json.RawMessage(`{"cheques": [` + items + `]}`)

	records, err := Split(payload, 10)
	if err != nil {
		t.Fatalf("Split: %v", err)
	}
	if len(records) != 10 {
		t.Fatalf("expected truncation to 10, got %d", len(records))
	}
}

func TestSplitMalformedPayload(t *testing.T) {
	if _, err := Split(json.RawMessage(`not json`), 10); err == nil {
		t.Fatalf("expected error")
	}
	if _, err := Split(json.RawMessage(`{"cheques": "texto"}`), 10); err == nil {
		t.Fatalf("expected error for scalar cheques")
	}
}
