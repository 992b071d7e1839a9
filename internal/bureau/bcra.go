package bureau

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"cheques-backend/internal/shared/telemetry"
)

const chequesRechazadosPath = "/centraldedeudores/v1.0/Deudas/ChequesRechazados"

// BCRAClient implements Validator against the official BCRA Central de
// Deudores rejected-cheques endpoint.
type BCRAClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewBCRAClient constructs a live bureau client.
func NewBCRAClient(baseURL string, timeout time.Duration) *BCRAClient {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = "https://api.bcra.gob.ar"
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &BCRAClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// bcraResponse mirrors the Central de Deudores payload. Rejected cheques are
// nested per rejection cause and reporting entity.
type bcraResponse struct {
	Status  int `json:"status"`
	Results *struct {
		Identificacion int64  `json:"identificacion"`
		Denominacion   string `json:"denominacion"`
		Causales       []struct {
			Causal    string `json:"causal"`
			Entidades []struct {
				Entidad int `json:"entidad"`
				Detalle []struct {
					NroCheque    int64   `json:"nroCheque"`
					FechaRechazo string  `json:"fechaRechazo"`
					Monto        float64 `json:"monto"`
					FechaPago    string  `json:"fechaPago"`
				} `json:"detalle"`
			} `json:"entidades"`
		} `json:"causales"`
	} `json:"results"`
}

// Check queries the bureau for one CUIT and maps the response onto the fixed
// status and risk vocabulary. Unrecognized bureau states come back as a
// conservative unknown/elevated-risk verdict rather than an error.
func (c *BCRAClient) Check(ctx context.Context, cuit string) (Verdict, error) {
	digits, err := cuitDigits(cuit)
	if err != nil {
		return Verdict{}, err
	}

	url := fmt.Sprintf("%s%s/%s", c.baseURL, chequesRechazadosPath, digits)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Verdict{}, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Verdict{}, classifyBureauError(err)
	}
	defer resp.Body.Close()

	// 404 means the CUIT has no rejected-cheque records at all.
	if resp.StatusCode == http.StatusNotFound {
		return Verdict{
			Estado: StatusClean,
			Riesgo: RiskLow,
		}, nil
	}
	if resp.StatusCode != http.StatusOK {
		return Verdict{}, fmt.Errorf("%w: bcra http status %d", ErrServiceUnavailable, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Verdict{}, fmt.Errorf("%w: read response: %v", ErrServiceUnavailable, err)
	}

	var parsed bcraResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		telemetry.Warn("bureau.unparsable_response", map[string]any{
			"cuit": digits,
			"err":  err.Error(),
		})
		return Verdict{
			Estado: StatusUnknown,
			Riesgo: RiskElevated,
		}, nil
	}

	count := countActiveRejected(parsed)
	return Verdict{
		Estado:            statusForCount(count),
		ChequesRechazados: count,
		Riesgo:            riskForCount(count),
	}, nil
}

// countActiveRejected counts rejected cheques that have not been settled.
// A cheque with a non-empty fechaPago was paid after rejection and no longer
// counts against the drawer, matching what the BCRA site displays.
func countActiveRejected(resp bcraResponse) int {
	if resp.Results == nil {
		return 0
	}
	count := 0
	for _, causal := range resp.Results.Causales {
		for _, entidad := range causal.Entidades {
			for _, cheque := range entidad.Detalle {
				if strings.TrimSpace(cheque.FechaPago) == "" {
					count++
				}
			}
		}
	}
	return count
}

func classifyBureauError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	if strings.Contains(err.Error(), "Client.Timeout") {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	return fmt.Errorf("%w: %v", ErrServiceUnavailable, err)
}
