package builtin

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestHTTPTransportDecodesSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "inventory_add", body["tool_name"])
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"success": true, "data": map[string]any{"id": "item-1"}})
	}))
	defer srv.Close()

	transport := NewHTTPTransport(srv.URL, time.Second)
	result, err := transport.Invoke(t.Context(), "inventory_add", map[string]any{"item_name": "milk"})
	require.NoError(t, err)
	require.Nil(t, result.Err)
	data, ok := result.Data.(map[string]any)
	require.True(t, ok)
	require.Equal(t, "item-1", data["id"])
}

func TestHTTPTransportSurfacesDomainError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"success": false, "error": "item not found"})
	}))
	defer srv.Close()

	transport := NewHTTPTransport(srv.URL, time.Second)
	result, err := transport.Invoke(t.Context(), "inventory_delete_by_id", map[string]any{"item_id": "ghost"})
	require.NoError(t, err)
	require.Error(t, result.Err)
	require.Contains(t, result.Err.Error(), "item not found")
}
