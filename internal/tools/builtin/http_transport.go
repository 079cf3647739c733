// Package builtin implements the Transport boundary for the pantry
// domain's own tools (inventory CRUD, menu generation, recipe lookup,
// conversational fallback). Each Transport here is the "sole
// suspension point" per spec §5 — a thin JSON-over-HTTP client against
// an out-of-scope backend service, never embedding domain logic the
// core itself owns.
package builtin

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"pantry/internal/toolregistry"
)

// wireResponse is the uniform tool-transport response shape of spec
// §6: `{success: true, data: ...}` or `{success: false, error: ...}`.
type wireResponse struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

// HTTPTransport posts {tool_name, arguments} to a backend service and
// decodes its uniform success/data/error envelope into a ToolResult.
type HTTPTransport struct {
	BaseURL string
	Client  *http.Client
}

// NewHTTPTransport builds a transport bound to baseURL with timeout as
// its per-call budget.
func NewHTTPTransport(baseURL string, timeout time.Duration) *HTTPTransport {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPTransport{BaseURL: baseURL, Client: &http.Client{Timeout: timeout}}
}

func (t *HTTPTransport) Invoke(ctx context.Context, toolName string, arguments map[string]any) (*toolregistry.ToolResult, error) {
	payload, err := json.Marshal(map[string]any{"tool_name": toolName, "arguments": arguments})
	if err != nil {
		return nil, fmt.Errorf("encode request for %s: %w", toolName, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.BaseURL+"/invoke", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var wire wireResponse
	if err := json.NewDecoder(resp.Body).Decode(&wire); err != nil {
		return nil, fmt.Errorf("decode response for %s: %w", toolName, err)
	}

	if !wire.Success {
		return &toolregistry.ToolResult{Err: fmt.Errorf("%s", wire.Error)}, nil
	}

	var data any
	if len(wire.Data) > 0 {
		if err := json.Unmarshal(wire.Data, &data); err != nil {
			return nil, fmt.Errorf("decode data for %s: %w", toolName, err)
		}
	}
	return &toolregistry.ToolResult{Data: data}, nil
}
