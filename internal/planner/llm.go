package planner

import "context"

// LLMClient is the small interface the planner and composer depend on,
// per spec §9: "Module-level LLM clients are replaced by a small
// LLMClient interface with two methods (plan, compose); tests
// substitute a scripted fake."
type LLMClient interface {
	// Plan asks the model to turn an utterance plus context into a
	// structured plan response (raw JSON, possibly fenced).
	Plan(ctx context.Context, prompt string) (string, error)
	// Compose asks the model to render a natural-language reply from a
	// prompt describing the completed plan's results.
	Compose(ctx context.Context, prompt string) (string, error)
}
