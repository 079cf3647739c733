package builtin

import (
	"context"
	"fmt"

	"pantry/internal/planner"
	"pantry/internal/toolregistry"
)

// LLMChatTransport backs the "llm_chat" tool the planner's heuristic
// fallback and conversational utterances route to: a free-form reply
// with no structured side effects, using the same LLMClient the
// planner and composer already depend on.
type LLMChatTransport struct {
	LLM planner.LLMClient
}

// NewLLMChatTransport builds a transport around an existing LLMClient.
func NewLLMChatTransport(llm planner.LLMClient) *LLMChatTransport {
	return &LLMChatTransport{LLM: llm}
}

func (t *LLMChatTransport) Invoke(ctx context.Context, toolName string, arguments map[string]any) (*toolregistry.ToolResult, error) {
	utterance, _ := arguments["utterance"].(string)
	if utterance == "" {
		return &toolregistry.ToolResult{Err: fmt.Errorf("llm_chat: missing utterance parameter")}, nil
	}

	reply, err := t.LLM.Compose(ctx, utterance)
	if err != nil {
		return &toolregistry.ToolResult{Err: fmt.Errorf("llm_chat: %w", err)}, nil
	}
	return &toolregistry.ToolResult{Data: map[string]any{"reply": reply}}, nil
}
