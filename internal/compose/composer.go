// Package compose implements the Response Composer (C9): renders a
// terminal plan's collected task results into a user-facing reply, per
// spec §4.9.
package compose

import (
	"context"
	"fmt"
	"strings"

	"pantry/internal/domain/task"
	"pantry/internal/planner"
	"pantry/internal/taskerrors"
)

// Composer turns a terminal Plan into a reply string.
type Composer struct {
	llm planner.LLMClient
}

// New builds a Composer backed by llm for natural-language rendering of
// non-trivial plans.
func New(llm planner.LLMClient) *Composer {
	return &Composer{llm: llm}
}

// Result is what the composer hands back to the HTTP turn handler.
type Result struct {
	Message string
	Menus   []MenuProposal
}

// MenuProposal is one side-by-side menu option surfaced for S7's
// parallel-proposal scenario: an LLM-authored path and a
// retrieval-based path, each linked to its own recipe URLs.
type MenuProposal struct {
	Source      string
	Title       string
	RecipeURLs  []string
}

// Compose renders plan's outcome. Cancelled plans (empty or not) get a
// cancellation acknowledgement; other empty plans get a short
// greeting-style reply, written by the LLM when one is configured and a
// fixed greeting otherwise; failures render a friendly apology via
// taskerrors.FormatForUser, never a raw error.
func (c *Composer) Compose(ctx context.Context, utterance string, plan *task.Plan, cancelled bool) Result {
	if cancelled {
		return Result{Message: "Okay, I've cancelled that — nothing further will happen."}
	}
	if plan.IsEmpty() {
		return Result{Message: c.conversationalReply(utterance)}
	}

	if proposals := extractMenuProposals(plan); len(proposals) >= 2 {
		return Result{Message: renderSideBySide(proposals), Menus: proposals}
	}

	if failed := firstFailure(plan); failed != nil {
		return Result{Message: taskerrors.FormatForUser(failed.Error)}
	}

	return Result{Message: c.simpleConfirmation(ctx, plan)}
}

func (c *Composer) conversationalReply(utterance string) string {
	if c.llm == nil {
		return "Hi! How can I help with your pantry today?"
	}
	reply, err := c.llm.Compose(context.Background(), "Reply briefly and warmly to: "+utterance)
	if err != nil || reply == "" {
		return "Hi! How can I help with your pantry today?"
	}
	return reply
}

// simpleConfirmation produces a short natural-language confirmation for
// single read/write plans, per spec §4.9.
func (c *Composer) simpleConfirmation(ctx context.Context, plan *task.Plan) string {
	completed := 0
	for _, t := range plan.Tasks {
		if t.Status == task.StatusCompleted {
			completed++
		}
	}
	if c.llm == nil || len(plan.Tasks) <= 1 {
		return fmt.Sprintf("Done — %d of %d step(s) completed.", completed, len(plan.Tasks))
	}

	var sb strings.Builder
	sb.WriteString("Summarise the results of these completed pantry assistant steps for the user:\n")
	for _, t := range plan.Tasks {
		fmt.Fprintf(&sb, "- %s: %s (%s)\n", t.ID, t.Description, t.Status)
	}
	reply, err := c.llm.Compose(ctx, sb.String())
	if err != nil || reply == "" {
		return fmt.Sprintf("Done — %d of %d step(s) completed.", completed, len(plan.Tasks))
	}
	return reply
}

func firstFailure(plan *task.Plan) *task.Task {
	for _, t := range plan.Tasks {
		if t.Status == task.StatusFailed {
			return t
		}
	}
	return nil
}

// extractMenuProposals recognises tasks whose tool name marks them as a
// menu-proposal source ("menu_llm", "menu_retrieval", ...), per S7.
func extractMenuProposals(plan *task.Plan) []MenuProposal {
	var proposals []MenuProposal
	for _, t := range plan.Tasks {
		if t.Status != task.StatusCompleted {
			continue
		}
		if !strings.HasPrefix(t.Tool, "menu_") || t.Tool == "menu_generate" || t.Tool == "menu_fallback" {
			continue
		}
		data, ok := t.Result.(map[string]any)
		if !ok {
			continue
		}
		title, _ := data["title"].(string)
		proposals = append(proposals, MenuProposal{
			Source:     t.Tool,
			Title:      title,
			RecipeURLs: stringSlice(data["recipe_urls"]),
		})
	}
	return proposals
}

func stringSlice(v any) []string {
	items, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func renderSideBySide(proposals []MenuProposal) string {
	var sb strings.Builder
	sb.WriteString("Here are two menu ideas based on what you have:\n")
	for _, p := range proposals {
		fmt.Fprintf(&sb, "\n[%s] %s\n", p.Source, p.Title)
		for _, url := range p.RecipeURLs {
			fmt.Fprintf(&sb, "  - %s\n", url)
		}
	}
	return sb.String()
}
