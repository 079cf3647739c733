package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"pantry/internal/compose"
	"pantry/internal/config"
	"pantry/internal/domain/session"
	"pantry/internal/planner"
	"pantry/internal/progressstream"
	"pantry/internal/sessionstore"
	"pantry/internal/toolregistry"
)

type scriptedLLM struct {
	planJSON string
}

func (f *scriptedLLM) Plan(context.Context, string) (string, error)    { return f.planJSON, nil }
func (f *scriptedLLM) Compose(context.Context, string) (string, error) { return "", nil }

type okTransport struct{}

func (okTransport) Invoke(ctx context.Context, toolName string, args map[string]any) (*toolregistry.ToolResult, error) {
	return &toolregistry.ToolResult{Data: map[string]any{"ok": true}}, nil
}

func newTestServer(t *testing.T, planJSON string) (*Server, *sessionstore.Store) {
	t.Helper()
	registry := toolregistry.NewRegistry("default")
	require.NoError(t, registry.Register(&toolregistry.Route{
		Definition: toolregistry.ToolDefinition{Name: "inventory_add", Description: "add an item"},
		Transport:  okTransport{},
	}))
	require.NoError(t, registry.Register(&toolregistry.Route{
		Definition: toolregistry.ToolDefinition{Name: "inventory_delete_by_name", Description: "delete by name"},
		Transport:  okTransport{},
	}))

	llm := &scriptedLLM{planJSON: planJSON}
	plnr := planner.New(llm, registry, nil, nil)
	composer := compose.New(llm)
	store := sessionstore.NewStore()
	hub := progressstream.NewHub()
	cfg := &config.Config{ConfirmationTimeout: 5 * time.Minute, LLM: config.LLM{Model: "test-model"}}

	srv := New(cfg, store, registry, plnr, composer, hub, TokenIsUserResolver{})
	return srv, store
}

func doRequest(t *testing.T, srv *Server, method, path, token string, body any) map[string]any {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	var out map[string]any
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	}
	return out
}

func TestHealthzIsPublic(t *testing.T) {
	srv, _ := newTestServer(t, `{"tasks":[]}`)
	req := httptest.NewRequest("GET", "/healthz", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	require.Equal(t, 200, rec.Code)
}

func TestChatWithoutBearerIsUnauthorized(t *testing.T) {
	srv, _ := newTestServer(t, `{"tasks":[]}`)
	req := httptest.NewRequest("POST", "/chat", bytes.NewBufferString(`{"message":"hi"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	require.Equal(t, 401, rec.Code)
}

func TestChatGreetingIsConversational(t *testing.T) {
	srv, _ := newTestServer(t, `{"tasks":[]}`)
	out := doRequest(t, srv, "POST", "/chat", "user-1", ChatRequest{Message: "hello"})
	require.Equal(t, true, out["success"])
	require.NotEmpty(t, out["response"])
	require.Empty(t, out["confirmation_required"])
}

func TestChatSingleWriteCompletes(t *testing.T) {
	planJSON := `{"tasks":[{"description":"add milk","tool":"inventory_add","parameters":{"item_name":"milk","quantity":1},"dependencies":[],"priority":0}]}`
	srv, _ := newTestServer(t, planJSON)
	out := doRequest(t, srv, "POST", "/chat", "user-2", ChatRequest{Message: "I bought one carton of milk"})
	require.Equal(t, true, out["success"])
	require.Equal(t, "user-2", out["user_id"])
}

func TestChatAmbiguousDeleteSuspendsThenResolves(t *testing.T) {
	planJSON := `{"tasks":[{"description":"delete milk","tool":"inventory_delete_by_name","parameters":{"item_name":"milk"},"dependencies":[],"priority":0}]}`
	srv, store := newTestServer(t, planJSON)

	recorder := &recordingTransport{}
	require.NoError(t, srv.registry.Register(&toolregistry.Route{
		Definition: toolregistry.ToolDefinition{Name: "inventory_delete_by_name_oldest"},
		Transport:  recorder,
	}))

	sess := store.GetOrCreate("user-3", "tok")
	now := time.Now()
	sess.SetInventory([]session.InventoryRecord{
		{ID: "milk-1", Name: "milk", CreatedAt: now.Add(-2 * time.Hour)},
		{ID: "milk-2", Name: "milk", CreatedAt: now.Add(-1 * time.Hour)},
	})

	out := doRequest(t, srv, "POST", "/chat", "user-3", ChatRequest{Message: "delete the milk"})
	require.Equal(t, true, out["confirmation_required"])

	confirmOut := doRequest(t, srv, "POST", "/chat/confirm", "user-3", ConfirmRequest{Message: "delete the old one"})
	require.Equal(t, true, confirmOut["success"])
	require.Empty(t, confirmOut["confirmation_required"])
	require.Equal(t, 1, recorder.calls)
}

// recordingTransport counts invocations, for asserting a confirmed
// task's resumed dispatch actually reaches the tool layer instead of
// re-suspending or silently dropping the call.
type recordingTransport struct {
	calls int
}

func (r *recordingTransport) Invoke(ctx context.Context, toolName string, args map[string]any) (*toolregistry.ToolResult, error) {
	r.calls++
	return &toolregistry.ToolResult{Data: map[string]any{"ok": true}}, nil
}

func TestChatConfirmCancelMarksAcknowledged(t *testing.T) {
	planJSON := `{"tasks":[{"description":"delete milk","tool":"inventory_delete_by_name","parameters":{"item_name":"milk"},"dependencies":[],"priority":0}]}`
	srv, store := newTestServer(t, planJSON)

	sess := store.GetOrCreate("user-4", "tok")
	sess.SetInventory([]session.InventoryRecord{
		{ID: "milk-1", Name: "milk", CreatedAt: time.Now()},
		{ID: "milk-2", Name: "milk", CreatedAt: time.Now()},
	})

	doRequest(t, srv, "POST", "/chat", "user-4", ChatRequest{Message: "delete the milk"})
	out := doRequest(t, srv, "POST", "/chat/confirm", "user-4", ConfirmRequest{Message: "cancel"})
	require.Equal(t, true, out["success"])
	require.Contains(t, out["response"], "cancelled")
}

func TestChatParallelMenuProposalsRenderSideBySide(t *testing.T) {
	planJSON := `{"tasks":[
		{"description":"llm menu","tool":"menu_llm","parameters":{},"dependencies":[],"priority":0},
		{"description":"retrieval menu","tool":"menu_retrieval","parameters":{},"dependencies":[],"priority":0}
	]}`
	srv, _ := newTestServer(t, planJSON)
	require.NoError(t, srv.registry.Register(&toolregistry.Route{
		Definition: toolregistry.ToolDefinition{Name: "menu_llm", Description: "llm menu"},
		Transport:  menuTransport{title: "Pasta night", url: "https://example.com/pasta"},
	}))
	require.NoError(t, srv.registry.Register(&toolregistry.Route{
		Definition: toolregistry.ToolDefinition{Name: "menu_retrieval", Description: "retrieval menu"},
		Transport:  menuTransport{title: "Stir fry", url: "https://example.com/stirfry"},
	}))

	out := doRequest(t, srv, "POST", "/chat", "user-6", ChatRequest{Message: "recipes for what I have in stock"})
	require.Equal(t, true, out["success"])
	menus, ok := out["menus"].([]any)
	require.True(t, ok)
	require.Len(t, menus, 2)
}

type menuTransport struct {
	title string
	url   string
}

func (m menuTransport) Invoke(ctx context.Context, toolName string, args map[string]any) (*toolregistry.ToolResult, error) {
	return &toolregistry.ToolResult{Data: map[string]any{"title": m.title, "recipe_urls": []any{m.url}}}, nil
}

func TestSessionStatusReflectsNoSession(t *testing.T) {
	srv, _ := newTestServer(t, `{"tasks":[]}`)
	out := doRequest(t, srv, "GET", "/session/status", "fresh-user", nil)
	require.Equal(t, "fresh-user", out["user_id"])
}

func TestSessionClearAllEmptiesStore(t *testing.T) {
	srv, store := newTestServer(t, `{"tasks":[]}`)
	store.GetOrCreate("user-5", "tok")
	out := doRequest(t, srv, "POST", "/session/clear-all", "user-5", nil)
	require.Equal(t, true, out["cleared"])
	require.Empty(t, store.All())
}
