package builtin

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

type fakeComposeLLM struct {
	reply string
	err   error
}

func (f *fakeComposeLLM) Plan(context.Context, string) (string, error) { return "", nil }
func (f *fakeComposeLLM) Compose(context.Context, string) (string, error) {
	return f.reply, f.err
}

func TestLLMChatTransportReturnsReply(t *testing.T) {
	transport := NewLLMChatTransport(&fakeComposeLLM{reply: "sure, happy to help"})
	result, err := transport.Invoke(t.Context(), "llm_chat", map[string]any{"utterance": "thanks!"})
	require.NoError(t, err)
	require.Nil(t, result.Err)
	require.Equal(t, "sure, happy to help", result.Data.(map[string]any)["reply"])
}

func TestLLMChatTransportRejectsEmptyUtterance(t *testing.T) {
	transport := NewLLMChatTransport(&fakeComposeLLM{})
	result, err := transport.Invoke(t.Context(), "llm_chat", map[string]any{})
	require.NoError(t, err)
	require.Error(t, result.Err)
}
