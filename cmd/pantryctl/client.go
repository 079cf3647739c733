package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// apiClient is a thin REST client for pantryd's chat surface.
type apiClient struct {
	baseURL string
	token   string
	http    *http.Client
}

func newAPIClient(baseURL, token string) *apiClient {
	return &apiClient{baseURL: baseURL, token: token, http: &http.Client{Timeout: 60 * time.Second}}
}

type chatResponse struct {
	Response             string                 `json:"response"`
	Success              bool                   `json:"success"`
	ModelUsed            string                 `json:"model_used"`
	UserID               string                 `json:"user_id"`
	SessionID            string                 `json:"session_id"`
	ConfirmationRequired bool                   `json:"confirmation_required"`
	ConfirmationContext  map[string]any         `json:"confirmation_context"`
	Menus                []map[string]any       `json:"menus"`
}

func (c *apiClient) chat(ctx context.Context, message, sseSessionID string) (*chatResponse, error) {
	return c.post(ctx, "/chat", map[string]any{"message": message, "sse_session_id": sseSessionID})
}

func (c *apiClient) confirm(ctx context.Context, message string) (*chatResponse, error) {
	return c.post(ctx, "/chat/confirm", map[string]any{"message": message})
}

func (c *apiClient) post(ctx context.Context, path string, body any) (*chatResponse, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("pantryd returned status %d", resp.StatusCode)
	}

	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode chat response: %w", err)
	}
	return &out, nil
}

// get issues a bearer-authed GET and returns the decoded body as a
// generic map, for the operational session/status endpoint whose
// shape isn't a chatResponse.
func (c *apiClient) get(ctx context.Context, path string) (map[string]any, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("pantryd returned status %d", resp.StatusCode)
	}
	var out map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return out, nil
}

// postRaw posts body (or no body) to path and returns the decoded
// response as a generic map, for operational endpoints like
// /session/clear whose response isn't a chatResponse.
func (c *apiClient) postRaw(ctx context.Context, path string, body any) (map[string]any, error) {
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("pantryd returned status %d", resp.StatusCode)
	}
	var out map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return out, nil
}

func (c *apiClient) streamURL(sessionID string) string {
	wsBase := "ws" + trimHTTPScheme(c.baseURL)
	return fmt.Sprintf("%s/chat/stream/ws/%s", wsBase, sessionID)
}

func trimHTTPScheme(baseURL string) string {
	switch {
	case len(baseURL) >= 5 && baseURL[:5] == "https":
		return baseURL[5:]
	case len(baseURL) >= 4 && baseURL[:4] == "http":
		return baseURL[4:]
	default:
		return baseURL
	}
}
