package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"cheques-backend/internal/llm"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, func()) {
	t.Helper()
	srv := httptest.NewServer(handler)
	c, err := NewClient("test-key", "test-model")
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	c.baseURL = srv.URL
	return c, srv.Close
}

func geminiBody(text string) string {
	resp := map[string]any{
		"candidates": []map[string]any{
			{"content": map[string]any{"parts": []map[string]string{{"text": text}}}},
		},
	}
	raw, _ := json.Marshal(resp)
	return string(raw)
}

func testInput() llm.ExtractInput {
	return llm.ExtractInput{
		Data:     []byte("imagen"),
		MimeType: "image/jpeg",
		Schema:   llm.ChequeSchema(),
	}
}

func TestNewClientRequiresKeyAndModel(t *testing.T) {
	if _, err := NewClient("", "model"); err == nil {
		t.Fatalf("expected error for missing key")
	}
	if _, err := NewClient("key", " "); err == nil {
		t.Fatalf("expected error for missing model")
	}
}

func TestExtractChequeEnvelope(t *testing.T) {
	payload := `{"tipo_documento": "cheque", "razonamiento": "un cheque", "cheques": [{"numero_cheque": "1"}]}`
	c, done := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/models/test-model:generateContent" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if r.Header.Get("x-goog-api-key") != "test-key" {
			t.Errorf("missing api key header")
		}
		var req generateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if len(req.Contents) != 1 || len(req.Contents[0].Parts) != 2 {
			t.Errorf("unexpected request shape: %+v", req)
		}
		if req.GenerationConfig.ResponseMIMEType != "application/json" {
			t.Errorf("responseMimeType = %q", req.GenerationConfig.ResponseMIMEType)
		}
		_, _ = w.Write([]byte(geminiBody(payload)))
	})
	defer done()

	result, err := c.Extract(context.Background(), testInput())
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if result.DetectedKind != llm.KindCheque {
		t.Fatalf("kind = %q", result.DetectedKind)
	}
	if result.Reasoning != "un cheque" {
		t.Fatalf("reasoning = %q", result.Reasoning)
	}
	if result.Model != "test-model" {
		t.Fatalf("model = %q", result.Model)
	}
	if !strings.Contains(string(result.Payload), `"numero_cheque"`) {
		t.Fatalf("payload = %s", result.Payload)
	}
}

func TestExtractRepairsFencedJSON(t *testing.T) {
	fenced := "```json\n{\"tipo_documento\": \"cheque\", \"cheques\": []}\n```"
	c, done := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(geminiBody(fenced)))
	})
	defer done()

	result, err := c.Extract(context.Background(), testInput())
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if result.DetectedKind != llm.KindCheque {
		t.Fatalf("kind = %q", result.DetectedKind)
	}
	if !json.Valid(result.Payload) {
		t.Fatalf("payload not valid json: %s", result.Payload)
	}
}

func TestExtractUnknownKindFallsBack(t *testing.T) {
	c, done := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(geminiBody(`{"tipo_documento": "factura", "contenido": "Factura A"}`)))
	})
	defer done()

	result, err := c.Extract(context.Background(), testInput())
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if result.DetectedKind != llm.KindDocumento {
		t.Fatalf("kind = %q, want documento fallback", result.DetectedKind)
	}
}

func TestExtractMalformedOutput(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{name: "non json text", body: geminiBody("no pude analizar la imagen")},
		{name: "missing tipo", body: geminiBody(`{"cheques": []}`)},
		{name: "no candidates", body: `{"candidates": []}`},
		{name: "blocked prompt", body: `{"promptFeedback": {"blockReason": "SAFETY"}}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c, done := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(tc.body))
			})
			defer done()

			if _, err := c.Extract(context.Background(), testInput()); !errors.Is(err, llm.ErrMalformedOutput) {
				t.Fatalf("expected ErrMalformedOutput, got %v", err)
			}
		})
	}
}

func TestExtractServiceUnavailable(t *testing.T) {
	c, done := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	defer done()

	if _, err := c.Extract(context.Background(), testInput()); !errors.Is(err, llm.ErrServiceUnavailable) {
		t.Fatalf("expected ErrServiceUnavailable, got %v", err)
	}
}

func TestExtractTimeout(t *testing.T) {
	c, done := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	})
	defer done()
	c.httpClient.Timeout = 20 * time.Millisecond

	if _, err := c.Extract(context.Background(), testInput()); !errors.Is(err, llm.ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
}

func TestExtractEmptyPayload(t *testing.T) {
	c, err := NewClient("test-key", "test-model")
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	if _, err := c.Extract(context.Background(), llm.ExtractInput{MimeType: "image/jpeg"}); !errors.Is(err, llm.ErrMalformedOutput) {
		t.Fatalf("expected ErrMalformedOutput, got %v", err)
	}
}

func TestRepairJSON(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{name: "clean", in: `{"a": 1}`, want: `{"a": 1}`},
		{name: "fenced", in: "```json\n{\"a\": 1}\n```", want: `{"a": 1}`},
		{name: "bare fence", in: "```\n{\"a\": 1}\n```", want: `{"a": 1}`},
		{name: "prose around", in: "Claro, aquí está: {\"a\": 1} espero que sirva", want: `{"a": 1}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := string(repairJSON(tc.in))
			if got != tc.want {
				t.Fatalf("repairJSON(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestBuildPromptChequeContract(t *testing.T) {
	prompt := BuildPrompt(llm.ChequeSchema())
	for _, want := range []string{"tipo_documento", "cuit_librador", "numero_cheque", "cheques"} {
		if !strings.Contains(prompt, want) {
			t.Fatalf("prompt missing %q", want)
		}
	}
}
