// Package confirmation implements the Confirmation Processor (C5):
// turns an ambiguity.Info into a user-facing prompt and option set, and
// parses the user's reply back into a rewritten TaskExecutionPlan.
package confirmation

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"pantry/internal/ambiguity"
	"pantry/internal/domain/session"
	"pantry/internal/domain/task"
)

// DefaultTimeout is how long a ConfirmationContext survives unanswered,
// per spec §5.
const DefaultTimeout = 5 * time.Minute

// ClarifyToolSentinel is the non-existent tool name spec §9's second
// Open Question calls for: the handler must intercept a task bearing
// this tool and re-prompt, never route it through the Tool Registry.
const ClarifyToolSentinel = "clarify_confirmation"

// Prompt is the rendered confirmation message plus its option set.
type Prompt struct {
	Message string
	Options []string
}

// BuildPrompt renders the ambiguity into a user-facing prompt, per
// spec §4.5: action verb, item name, match count, a compact listing of
// up to three matches, the remaining plan steps, and the option set.
func BuildPrompt(info *ambiguity.Info, remaining []*task.Task) Prompt {
	verb := actionVerb(info)
	var sb strings.Builder
	fmt.Fprintf(&sb, "I found %d item(s) named %q to %s. ", len(info.Items), info.ItemName, verb)

	sorted := append([]session.InventoryRecord(nil), info.Items...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].CreatedAt.Before(sorted[j].CreatedAt) })
	if len(sorted) > 0 && len(sorted) <= 3 {
		for _, rec := range sorted {
			fmt.Fprintf(&sb, "[%s created %s] ", shortID(rec.ID), rec.CreatedAt.Format(time.RFC3339))
		}
	}

	if len(remaining) > 0 {
		sb.WriteString("After this, the following will also run: ")
		for i, t := range remaining {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(t.Description)
		}
		sb.WriteString(". ")
	}

	options := OptionsFor(info.Type)
	fmt.Fprintf(&sb, "Choose one of: %s.", strings.Join(options, ", "))
	return Prompt{Message: sb.String(), Options: options}
}

// BuildPromptFromContext renders a prompt directly from a parked
// ConfirmationContext, for the HTTP layer resuming a suspended turn
// without holding on to the original ambiguity.Info.
func BuildPromptFromContext(ctx *session.ConfirmationContext) Prompt {
	verb := strings.ReplaceAll(toolregistryBaseAction(ctx.OriginalTask.Tool), "_", " ")
	var sb strings.Builder
	fmt.Fprintf(&sb, "I found %d item(s) named %q to %s. ", len(ctx.CandidateItems), ctx.ItemName, verb)

	sorted := append([]session.InventoryRecord(nil), ctx.CandidateItems...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].CreatedAt.Before(sorted[j].CreatedAt) })
	if len(sorted) > 0 && len(sorted) <= 3 {
		for _, rec := range sorted {
			fmt.Fprintf(&sb, "[%s created %s] ", shortID(rec.ID), rec.CreatedAt.Format(time.RFC3339))
		}
	}

	if len(ctx.RemainingTaskChain) > 0 {
		sb.WriteString("After this, the following will also run: ")
		for i, t := range ctx.RemainingTaskChain {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(t.Description)
		}
		sb.WriteString(". ")
	}

	options := ctx.Options
	if len(options) == 0 {
		options = OptionsFor(ambiguity.Kind(ctx.Type))
	}
	fmt.Fprintf(&sb, "Choose one of: %s.", strings.Join(options, ", "))
	return Prompt{Message: sb.String(), Options: options}
}

func actionVerb(info *ambiguity.Info) string {
	return strings.ReplaceAll(toolregistryBaseAction(info.OriginalTask.Tool), "_", " ")
}

func shortID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}

// OptionsFor returns the option set offered to the user for an
// ambiguity of the given kind, per spec §4.5.
func OptionsFor(kind ambiguity.Kind) []string {
	switch kind {
	case ambiguity.KindMultiTarget:
		return []string{"oldest", "latest", "all", "cancel"}
	case ambiguity.KindFIFOOldest, ambiguity.KindFIFOLatest:
		return []string{"confirm", "cancel"}
	default:
		return []string{"cancel"}
	}
}

// Outcome is the parsed result of a confirmation reply.
type Outcome struct {
	Plan      *task.Plan
	Cancelled bool
}

// Resolve parses the user's reply keyword class and produces the
// rewritten TaskExecutionPlan per spec §4.5. ctx.RemainingTaskChain
// already has dependency edges on the original task stripped.
func Resolve(ctx *session.ConfirmationContext, reply string) Outcome {
	class := classify(reply)
	original := ctx.OriginalTask

	switch class {
	case classCancel:
		return Outcome{Plan: &task.Plan{Tasks: append([]*task.Task(nil), ctx.ExecutedTasks...)}, Cancelled: true}

	case classOldest:
		head := rewriteVariant(original, "oldest")
		head.ConfirmedScope = true
		return Outcome{Plan: planWithHead(ctx.ExecutedTasks, head, ctx.RemainingTaskChain)}

	case classLatest:
		head := rewriteVariant(original, "latest")
		head.ConfirmedScope = true
		return Outcome{Plan: planWithHead(ctx.ExecutedTasks, head, ctx.RemainingTaskChain)}

	case classAll:
		head := original.Clone()
		head.ConfirmedScope = true
		return Outcome{Plan: planWithHead(ctx.ExecutedTasks, head, ctx.RemainingTaskChain)}

	case classConfirm:
		head := original.Clone()
		head.ConfirmedScope = true
		return Outcome{Plan: planWithHead(ctx.ExecutedTasks, head, ctx.RemainingTaskChain)}

	default:
		clarify := &task.Task{
			ID:     original.ID,
			Tool:   ClarifyToolSentinel,
			Status: task.StatusPending,
			Parameters: map[string]task.Param{
				"options": task.LiteralParam(ctx.Options),
			},
		}
		return Outcome{Plan: planWithHead(ctx.ExecutedTasks, clarify, ctx.RemainingTaskChain)}
	}
}

func rewriteVariant(t *task.Task, variant string) *task.Task {
	head := t.Clone()
	base := strings.TrimSuffix(strings.TrimSuffix(t.Tool, "_oldest"), "_latest")
	head.Tool = base + "_" + variant
	return head
}

// planWithHead rebuilds the resumed plan as EXECUTED (untouched) +
// head (the confirmed task) + REMAINING, per spec §4.6 Resumption, so
// a remaining task's result reference into an already-completed task
// still resolves against the executor's dotted-path lookup.
func planWithHead(executed []*task.Task, head *task.Task, remaining []*task.Task) *task.Plan {
	tasks := make([]*task.Task, 0, len(executed)+len(remaining)+1)
	tasks = append(tasks, executed...)
	tasks = append(tasks, head)
	tasks = append(tasks, remaining...)
	return &task.Plan{Tasks: tasks}
}

type replyClass int

const (
	classCancel replyClass = iota
	classOldest
	classLatest
	classAll
	classConfirm
	classUnknown
)

var keywordClasses = []struct {
	class    replyClass
	keywords []string
}{
	{classCancel, []string{"cancel", "stop", "never mind", "nevermind"}},
	{classOldest, []string{"old", "oldest", "first"}},
	{classLatest, []string{"new", "newest", "latest", "last"}},
	{classAll, []string{"all", "every", "both"}},
	{classConfirm, []string{"confirm", "yes", "ok", "okay", "sure"}},
}

func classify(reply string) replyClass {
	lower := strings.ToLower(strings.TrimSpace(reply))
	for _, kc := range keywordClasses {
		for _, kw := range kc.keywords {
			if strings.Contains(lower, kw) {
				return kc.class
			}
		}
	}
	return classUnknown
}

// toolregistryBaseAction avoids importing toolregistry's Family helper
// set just for this cosmetic string; kept local so confirmation stays
// decoupled from routing internals it does not otherwise need.
func toolregistryBaseAction(toolName string) string {
	name := strings.TrimSuffix(strings.TrimSuffix(toolName, "_oldest"), "_latest")
	switch {
	case strings.Contains(name, "delete"):
		return "delete"
	case strings.Contains(name, "update"):
		return "update"
	default:
		return name
	}
}
