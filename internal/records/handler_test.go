package records

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func newTestRouter(t *testing.T) (*gin.Engine, *MemoryRepo) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	repo := NewMemoryRepo()
	h := NewHandler(&Service{Repo: repo})
	r := gin.New()
	h.RegisterRoutes(r.Group("/api/v1"))
	return r, repo
}

func TestProcessStoresRecord(t *testing.T) {
	r, repo := newTestRouter(t)

	body := `{"tipo_documento": "cheque", "datos": {"numero_cheque": "777", "importe": 50000}, "usuario_id": "user-1"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/process", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp processResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !resp.Success || resp.DataID == "" {
		t.Fatalf("resp = %+v", resp)
	}

	stored, err := repo.Get(req.Context(), resp.DataID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if stored.Datos["numero_cheque"] != "777" {
		t.Fatalf("stored datos = %+v", stored.Datos)
	}
}

func TestProcessRejectsBadInput(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{name: "not json", body: "no es json"},
		{name: "unknown kind", body: `{"tipo_documento": "factura", "datos": {"a": 1}}`},
		{name: "missing datos", body: `{"tipo_documento": "cheque"}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r, _ := newTestRouter(t)

			req := httptest.NewRequest(http.MethodPost, "/api/v1/process", bytes.NewBufferString(tc.body))
			req.Header.Set("Content-Type", "application/json")
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)

			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
			}
		})
	}
}
