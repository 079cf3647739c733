package planner

import (
	"strings"

	"github.com/pkoukk/tiktoken-go"

	"pantry/internal/logging"
)

// PromptBudget trims an assembled prompt down to a token ceiling before
// it is sent to the model, dropping whole "- " list lines (inventory
// summary and tool-catalogue entries) from the tail rather than
// truncating mid-token.
type PromptBudget struct {
	MaxTokens int
	enc       *tiktoken.Tiktoken
	logger    logging.Logger
}

// NewPromptBudget builds a budget using the named tiktoken encoding
// (e.g. "cl100k_base"). Falls back to an untrimmed pass-through if the
// encoding cannot be loaded, rather than failing the whole plan.
func NewPromptBudget(maxTokens int, encodingName string) *PromptBudget {
	enc, err := tiktoken.GetEncoding(encodingName)
	logger := logging.NewNamed("PromptBudget")
	if err != nil {
		logger.Warn("tiktoken encoding %q unavailable, budget disabled: %v", encodingName, err)
		enc = nil
	}
	return &PromptBudget{MaxTokens: maxTokens, enc: enc, logger: logger}
}

// Trim drops "- " list lines starting from the last one (the inventory
// summary follows the tool catalogue, so its lines go first, then tool
// entries from the end of the catalogue) until the prompt fits MaxTokens.
func (b *PromptBudget) Trim(prompt string) string {
	if b.enc == nil || b.MaxTokens <= 0 {
		return prompt
	}
	tokens := b.enc.Encode(prompt, nil, nil)
	if len(tokens) <= b.MaxTokens {
		return prompt
	}

	lines := strings.Split(prompt, "\n")
	for len(lines) > 1 {
		lines = dropOneToolLine(lines)
		candidate := strings.Join(lines, "\n")
		if len(b.enc.Encode(candidate, nil, nil)) <= b.MaxTokens {
			b.logger.Warn("prompt trimmed to fit %d token budget", b.MaxTokens)
			return candidate
		}
	}
	return strings.Join(lines, "\n")
}

// dropOneToolLine removes the last line that starts with "- " (a
// catalogue entry or an inventory summary line), leaving the other
// instruction lines intact.
func dropOneToolLine(lines []string) []string {
	for i := len(lines) - 1; i >= 0; i-- {
		if strings.HasPrefix(lines[i], "- ") {
			return append(lines[:i], lines[i+1:]...)
		}
	}
	// nothing left to drop; shrink from the end as a last resort.
	return lines[:len(lines)-1]
}
