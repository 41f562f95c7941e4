package telephony

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"voice-campaigns/internal/config"
)

// APIError is a non-2xx answer from the calling API.
type APIError struct {
	Op      string
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s failed (%d): %s", e.Op, e.Status, e.Message)
}

// Friendly returns an operator-facing message for well-known statuses.
func (e *APIError) Friendly() string {
	switch e.Status {
	case http.StatusUnauthorized:
		return "Invalid VAPI API key - check configuration"
	case http.StatusTooManyRequests:
		return "Rate limit exceeded - please try again later"
	case http.StatusBadRequest:
		return "Invalid request: " + e.Message
	}
	return e.Error()
}

// FriendlyError renders err for operators, using Friendly for API errors.
func FriendlyError(err error) string {
	var ae *APIError
	if errors.As(err, &ae) {
		return ae.Friendly()
	}
	return err.Error()
}

// VapiClient talks to a Vapi-compatible REST API with a bearer key.
type VapiClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewVapiClient creates a client from config. A zero HTTPTimeout means no client timeout.
func NewVapiClient(cfg config.VapiConfig) *VapiClient {
	return &VapiClient{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		httpClient: &http.Client{
			Timeout: cfg.HTTPTimeout,
		},
	}
}

func (c *VapiClient) Name() string { return "vapi" }

// HealthCheck lists a single call to confirm the key is accepted.
func (c *VapiClient) HealthCheck(ctx context.Context) error {
	return c.do(ctx, "Health check", http.MethodGet, "/call?limit=1", nil, nil)
}

type idResponse struct {
	ID string `json:"id"`
}

func (c *VapiClient) CreateAssistant(ctx context.Context, req AssistantRequest) (string, error) {
	var out idResponse
	if err := c.do(ctx, "Assistant creation", http.MethodPost, "/assistant", req, &out); err != nil {
		return "", err
	}
	if out.ID == "" {
		return "", fmt.Errorf("assistant creation: response has no id")
	}
	return out.ID, nil
}

func (c *VapiClient) StartCall(ctx context.Context, req StartCallRequest) (CallDetail, error) {
	var out CallDetail
	if err := c.do(ctx, "Call", http.MethodPost, "/call", req, &out); err != nil {
		return CallDetail{}, err
	}
	if out.ID == "" {
		return CallDetail{}, fmt.Errorf("call: response has no id")
	}
	return out, nil
}

func (c *VapiClient) GetCall(ctx context.Context, callID string) (CallDetail, error) {
	var out CallDetail
	if err := c.do(ctx, "Call lookup", http.MethodGet, "/call/"+url.PathEscape(callID), nil, &out); err != nil {
		return CallDetail{}, err
	}
	return out, nil
}

// ListCalls returns all calls. A non-array body is treated as no calls.
func (c *VapiClient) ListCalls(ctx context.Context) ([]CallDetail, error) {
	var raw json.RawMessage
	if err := c.do(ctx, "Call listing", http.MethodGet, "/call", nil, &raw); err != nil {
		return nil, err
	}
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return []CallDetail{}, nil
	}
	var out []CallDetail
	if err := json.Unmarshal(trimmed, &out); err != nil {
		return nil, fmt.Errorf("decoding call list: %w", err)
	}
	return out, nil
}

func (c *VapiClient) do(ctx context.Context, op, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", strings.ToLower(op), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		return &APIError{Op: op, Status: resp.StatusCode, Message: errorMessage(raw, resp)}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding %s response: %w", strings.ToLower(op), err)
	}
	return nil
}

// errorMessage picks the JSON "message" or "error" field, then the raw body, then the status text.
func errorMessage(raw []byte, resp *http.Response) string {
	var payload struct {
		Message any `json:"message"`
		Error   any `json:"error"`
	}
	if err := json.Unmarshal(raw, &payload); err == nil {
		if s := stringify(payload.Message); s != "" {
			return s
		}
		if s := stringify(payload.Error); s != "" {
			return s
		}
	}
	if s := strings.TrimSpace(string(raw)); s != "" {
		return s
	}
	if t := http.StatusText(resp.StatusCode); t != "" {
		return t
	}
	return resp.Status
}

// stringify handles message fields that are strings or arrays of strings.
func stringify(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case []any:
		parts := make([]string, 0, len(t))
		for _, p := range t {
			if s, ok := p.(string); ok && s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, "; ")
	}
	return ""
}
