package gemini

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"cheques-backend/internal/llm"
)

const defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// Client implements llm.Client using the Gemini generateContent REST API.
type Client struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
}

// NewClient constructs a new Gemini client.
func NewClient(apiKey, model string) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is required")
	}
	if strings.TrimSpace(model) == "" {
		return nil, fmt.Errorf("GEMINI_MODEL is required")
	}
	timeout := 90 * time.Second
	if raw := strings.TrimSpace(os.Getenv("GEMINI_TIMEOUT_SECONDS")); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			timeout = time.Duration(parsed) * time.Second
		}
	}
	return &Client{
		apiKey:  apiKey,
		model:   model,
		baseURL: defaultBaseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

type generatePart struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inline_data,omitempty"`
}

type inlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

type generateContent struct {
	Parts []generatePart `json:"parts"`
}

type generationConfig struct {
	Temperature      float32 `json:"temperature"`
	TopP             float32 `json:"topP,omitempty"`
	ResponseMIMEType string  `json:"responseMimeType,omitempty"`
}

type generateRequest struct {
	Contents         []generateContent `json:"contents"`
	GenerationConfig generationConfig  `json:"generationConfig"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
		FinishReason string `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback *struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback,omitempty"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error,omitempty"`
}

// envelope is the minimal shape the contract obliges the model to return.
// The payload beyond tipo_documento stays raw for the normalizer.
type envelope struct {
	TipoDocumento string          `json:"tipo_documento"`
	Razonamiento  string          `json:"razonamiento"`
	Cheques       json.RawMessage `json:"cheques"`
	Contenido     string          `json:"contenido"`
}

// Extract sends the document with the schema prompt and returns the raw
// structured output. The call is single-shot; callers decide about retries.
func (c *Client) Extract(ctx context.Context, input llm.ExtractInput) (llm.Result, error) {
	if len(input.Data) == 0 {
		return llm.Result{}, fmt.Errorf("%w: empty payload", llm.ErrMalformedOutput)
	}

	reqBody := generateRequest{
		Contents: []generateContent{{
			Parts: []generatePart{
				{Text: BuildPrompt(input.Schema)},
				{InlineData: &inlineData{
					MimeType: input.MimeType,
					Data:     base64.StdEncoding.EncodeToString(input.Data),
				}},
			},
		}},
		GenerationConfig: generationConfig{
			Temperature:      0.1,
			TopP:             0.95,
			ResponseMIMEType: "application/json",
		},
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return llm.Result{}, err
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", c.baseURL, c.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return llm.Result{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return llm.Result{}, classifyTransportError(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return llm.Result{}, fmt.Errorf("%w: read response: %v", llm.ErrServiceUnavailable, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return llm.Result{}, fmt.Errorf("%w: gemini http status %d", llm.ErrServiceUnavailable, resp.StatusCode)
	}

	var parsed generateResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return llm.Result{}, fmt.Errorf("%w: gemini response parse: %v", llm.ErrMalformedOutput, err)
	}
	if parsed.Error != nil {
		return llm.Result{}, fmt.Errorf("%w: gemini error: %s (%s)", llm.ErrServiceUnavailable, parsed.Error.Message, parsed.Error.Status)
	}
	if parsed.PromptFeedback != nil && parsed.PromptFeedback.BlockReason != "" {
		return llm.Result{}, fmt.Errorf("%w: prompt blocked: %s", llm.ErrMalformedOutput, parsed.PromptFeedback.BlockReason)
	}
	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return llm.Result{}, fmt.Errorf("%w: gemini response missing candidates", llm.ErrMalformedOutput)
	}

	text := strings.TrimSpace(parsed.Candidates[0].Content.Parts[0].Text)
	if text == "" {
		return llm.Result{}, fmt.Errorf("%w: gemini response empty content", llm.ErrMalformedOutput)
	}

	raw := repairJSON(text)
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return llm.Result{}, fmt.Errorf("%w: %v", llm.ErrMalformedOutput, err)
	}

	kind := llm.DocumentKind(strings.ToLower(strings.TrimSpace(env.TipoDocumento)))
	switch kind {
	case llm.KindCheque, llm.KindDocumento:
	case "":
		return llm.Result{}, fmt.Errorf("%w: missing tipo_documento", llm.ErrMalformedOutput)
	default:
		// Anything the model labels outside the vocabulary is a generic document.
		kind = llm.KindDocumento
	}

	return llm.Result{
		DetectedKind: kind,
		Payload:      raw,
		Reasoning:    env.Razonamiento,
		Model:        c.model,
	}, nil
}

// repairJSON strips markdown fences and surrounding prose, keeping the
// outermost JSON object. Models occasionally wrap output despite the contract.
func repairJSON(text string) json.RawMessage {
	trimmed := strings.TrimSpace(text)
	if strings.HasPrefix(trimmed, "```") {
		trimmed = strings.TrimPrefix(trimmed, "```json")
		trimmed = strings.TrimPrefix(trimmed, "```")
		if idx := strings.LastIndex(trimmed, "```"); idx >= 0 {
			trimmed = trimmed[:idx]
		}
		trimmed = strings.TrimSpace(trimmed)
	}
	if json.Valid([]byte(trimmed)) {
		return json.RawMessage(trimmed)
	}
	start := strings.Index(trimmed, "{")
	end := strings.LastIndex(trimmed, "}")
	if start >= 0 && end > start {
		candidate := trimmed[start : end+1]
		if json.Valid([]byte(candidate)) {
			return json.RawMessage(candidate)
		}
	}
	return json.RawMessage(trimmed)
}

func classifyTransportError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", llm.ErrTimeout, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %v", llm.ErrTimeout, err)
	}
	if strings.Contains(err.Error(), "Client.Timeout") {
		return fmt.Errorf("%w: %v", llm.ErrTimeout, err)
	}
	return fmt.Errorf("%w: %v", llm.ErrServiceUnavailable, err)
}
