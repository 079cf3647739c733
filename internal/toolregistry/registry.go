// Package toolregistry implements the Tool Registry (C1): a uniform
// view over heterogeneous backend tools, routed by a deterministic
// name convention to their transport, with per-tool retry and circuit
// breaking layered on top of each transport call.
package toolregistry

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"pantry/internal/logging"
	"pantry/internal/taskerrors"
)

// ToolDefinition is what list_tools() exposes to the Planner.
type ToolDefinition struct {
	Name        string
	Description string
	InputSchema map[string]any
}

// ToolResult is the uniform outcome of invoke(): either Data is set, or
// Err classifies why the call failed.
type ToolResult struct {
	Data any
	Err  error
}

// Transport is a backend a family of tool names routes to (e.g. the
// inventory CRUD service, the recipe search service). Invoke is the
// only network-touching call the core makes; the registry treats it as
// the sole suspension point for a task's unit of work (spec §5).
type Transport interface {
	Invoke(ctx context.Context, toolName string, arguments map[string]any) (*ToolResult, error)
}

// DummyTokenSentinel is the placeholder auth value tests may pass; the
// registry replaces it with a process-wide credential, per spec §4.1.
const DummyTokenSentinel = "__dummy_token__"

// Route binds a tool definition to the transport and token field name
// used to invoke it.
type Route struct {
	Definition    ToolDefinition
	Transport     Transport
	TokenArgName  string
	MaxRetries    int
	RetryConfig   taskerrors.RetryConfig
}

// Registry is the process-wide tool catalogue. It is read-mostly after
// startup (spec §5): Register calls happen during boot, Invoke calls
// happen concurrently from many executor dispatch goroutines.
type Registry struct {
	mu     sync.RWMutex
	routes map[string]*Route

	schemaCache *lru.Cache[string, ToolDefinition]
	breakers    *taskerrors.CircuitBreakerManager
	defaultName string
	credential  string
	logger      logging.Logger
}

// NewRegistry builds an empty registry. defaultTransportName, if set,
// names the route unknown tool names fall back to (spec §4.1: "unknown
// names → configured default").
func NewRegistry(defaultTransportName string) *Registry {
	cache, _ := lru.New[string, ToolDefinition](256)
	return &Registry{
		routes:      make(map[string]*Route),
		schemaCache: cache,
		breakers:    taskerrors.NewCircuitBreakerManager(taskerrors.DefaultCircuitBreakerConfig()),
		defaultName: defaultTransportName,
		logger:      logging.NewNamed("ToolRegistry"),
	}
}

// Register adds a tool to the catalogue, introspected once at startup
// and cached for the process lifetime.
func (r *Registry) Register(route *Route) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	name := route.Definition.Name
	if _, exists := r.routes[name]; exists {
		return fmt.Errorf("tool already registered: %s", name)
	}
	if route.RetryConfig == (taskerrors.RetryConfig{}) {
		route.RetryConfig = taskerrors.DefaultRetryConfig()
	}
	r.routes[name] = route
	r.schemaCache.Add(name, route.Definition)
	return nil
}

// List returns every registered tool's name, description and input
// schema, sorted by name for deterministic prompt assembly.
func (r *Registry) List() []ToolDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]ToolDefinition, 0, len(r.routes))
	for _, route := range r.routes {
		out = append(out, route.Definition)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// resolve finds the route for a tool name. A FIFO-sensitive variant
// name (the confirmation processor's own "_oldest"/"_latest" rewrite,
// spec §4.5) routes to the same transport as its base name, since the
// suffix is meaningful only to the external tool boundary, never to
// the registry. Failing that, it falls back to the default transport's
// route when no route is registered under that exact name.
func (r *Registry) resolve(name string) (*Route, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if route, ok := r.routes[name]; ok {
		return route, nil
	}
	if isFIFO, _ := FIFOVariant(name); isFIFO {
		base := strings.TrimSuffix(strings.TrimSuffix(name, "_oldest"), "_latest")
		if route, ok := r.routes[base]; ok {
			return route, nil
		}
	}
	if r.defaultName != "" {
		if route, ok := r.routes[r.defaultName]; ok {
			return route, nil
		}
	}
	return nil, fmt.Errorf("tool not found: %s", name)
}

// Invoke routes a tool name to its transport, injecting the session's
// auth token and applying retry + circuit-breaker protection. It is
// asynchronous from the core's perspective: callers that want
// concurrency invoke it from their own goroutine.
func (r *Registry) Invoke(ctx context.Context, toolName string, arguments map[string]any, authToken string) (*ToolResult, error) {
	route, err := r.resolve(toolName)
	if err != nil {
		return nil, err
	}

	args := make(map[string]any, len(arguments)+1)
	for k, v := range arguments {
		args[k] = v
	}
	tokenField := route.TokenArgName
	if tokenField == "" {
		tokenField = "auth_token"
	}
	if authToken == "" || authToken == DummyTokenSentinel {
		authToken = r.processCredential()
	}
	args[tokenField] = authToken

	breaker := r.breakers.Get(toolName)
	var result *ToolResult
	invokeErr := breaker.Execute(ctx, func(ctx context.Context) error {
		return taskerrors.RetryWithLog(ctx, route.RetryConfig, func(ctx context.Context) error {
			res, err := route.Transport.Invoke(ctx, toolName, args)
			if err != nil {
				result = nil
				return &taskerrors.ToolTransportError{Tool: toolName, Err: err}
			}
			if res.Err != nil {
				result = res
				return &taskerrors.ToolDomainError{Tool: toolName, Message: res.Err.Error()}
			}
			result = res
			return nil
		}, r.logger)
	})

	if invokeErr != nil {
		return result, invokeErr
	}
	return result, nil
}

// processCredential is the process-wide credential substituted for the
// dummy-token sentinel in test scenarios, per spec §4.1.
func (r *Registry) processCredential() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.credential != "" {
		return r.credential
	}
	return "process-credential"
}

// SetProcessCredential wires the real credential used in place of the
// dummy-token sentinel; the pantry server configures it at boot from
// internal/config.
func (r *Registry) SetProcessCredential(token string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.credential = token
}
