// Package planner implements the Planner (C3): turns a natural-language
// utterance plus the tool catalogue and inventory snapshot into a
// validated Task[], or an empty plan for pure conversation.
package planner

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/kaptinlin/jsonrepair"

	"pantry/internal/domain/session"
	"pantry/internal/domain/task"
	"pantry/internal/logging"
	"pantry/internal/toolregistry"
)

// rawTask mirrors the planner's structured LLM output shape:
// {tasks: [{description, tool, parameters, dependencies, priority}]}.
type rawTask struct {
	Description  string         `json:"description"`
	Tool         string         `json:"tool"`
	Parameters   map[string]any `json:"parameters"`
	Dependencies []string       `json:"dependencies"`
	Priority     int            `json:"priority"`
}

type rawPlanResponse struct {
	Tasks []rawTask `json:"tasks"`
}

// synonyms folds common parameter-name variants to their canonical form,
// per spec §4.3's "item → item_name" example.
var synonyms = map[string]string{
	"item": "item_name",
	"name": "item_name",
	"qty":  "quantity",
}

// Planner is the language-model-backed task planner.
type Planner struct {
	llm      LLMClient
	registry *toolregistry.Registry
	relevant ToolRelevancePredicate
	budget   *PromptBudget
	logger   logging.Logger
}

// New builds a Planner.
func New(llm LLMClient, registry *toolregistry.Registry, relevant ToolRelevancePredicate, budget *PromptBudget) *Planner {
	if relevant == nil {
		relevant = PassAllTools
	}
	return &Planner{llm: llm, registry: registry, relevant: relevant, budget: budget, logger: logging.NewNamed("Planner")}
}

// CreatePlan produces either an empty plan (pure conversation) or a
// validated task list for the utterance.
func (p *Planner) CreatePlan(ctx context.Context, utterance string, inventory []session.InventoryRecord) (*task.Plan, error) {
	tools := p.relevant(utterance, p.registry.List())
	prompt := p.buildPrompt(utterance, tools, inventory)
	if p.budget != nil {
		prompt = p.budget.Trim(prompt)
	}

	raw, err := p.llm.Plan(ctx, prompt)
	if err != nil {
		return p.heuristicFallback(utterance), nil
	}

	parsed, parseErr := parsePlanResponse(raw)
	if parseErr != nil {
		p.logger.Warn("plan response failed to parse even after repair: %v", parseErr)
		return p.heuristicFallback(utterance), nil
	}

	tasks, err := buildTasks(parsed)
	if err != nil {
		return &task.Plan{}, err
	}

	plan := &task.Plan{Tasks: tasks}
	if err := ResolveDependencies(plan); err != nil {
		return &task.Plan{}, err
	}
	if err := task.ValidateDAG(plan); err != nil {
		return &task.Plan{}, err
	}

	if tripped, reason := sanityGateTripped(utterance, plan, inventory); tripped {
		p.logger.Warn("sanity gate tripped, discarding plan: %s", reason)
		return &task.Plan{}, nil
	}

	return plan, nil
}

// buildPrompt enumerates every tool's name/description/schema plus a
// concise inventory summary keyed by item name, per spec §4.3.
func (p *Planner) buildPrompt(utterance string, tools []toolregistry.ToolDefinition, inventory []session.InventoryRecord) string {
	var sb strings.Builder
	sb.WriteString("You are the planning stage of a smart pantry assistant.\n")
	sb.WriteString("Utterance: ")
	sb.WriteString(utterance)
	sb.WriteString("\n\nAvailable tools:\n")
	for _, t := range tools {
		fmt.Fprintf(&sb, "- %s: %s\n", t.Name, t.Description)
	}
	sb.WriteString("\nCurrent inventory:\n")
	counts := map[string]int{}
	for _, rec := range inventory {
		counts[rec.Name]++
	}
	for name, count := range counts {
		fmt.Fprintf(&sb, "- %s x%d\n", name, count)
	}
	sb.WriteString("\nRespond with JSON: {\"tasks\": [{\"description\":...,\"tool\":...,\"parameters\":{...},\"dependencies\":[...],\"priority\":N}]}\n")
	return sb.String()
}

// parsePlanResponse strips surrounding markup (fenced code blocks) and
// tolerates structurally-broken JSON via jsonrepair before falling
// through to the heuristic fallback.
func parsePlanResponse(raw string) (*rawPlanResponse, error) {
	cleaned := stripFences(raw)

	var parsed rawPlanResponse
	if err := json.Unmarshal([]byte(cleaned), &parsed); err == nil {
		return &parsed, nil
	}

	repaired, err := jsonrepair.JSONRepair(cleaned)
	if err != nil {
		return nil, fmt.Errorf("jsonrepair: %w", err)
	}
	if err := json.Unmarshal([]byte(repaired), &parsed); err != nil {
		return nil, fmt.Errorf("unmarshal after repair: %w", err)
	}
	return &parsed, nil
}

func stripFences(raw string) string {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// buildTasks converts the raw planner response into typed Task objects,
// auto-incrementing ids and folding parameter synonyms.
func buildTasks(parsed *rawPlanResponse) ([]*task.Task, error) {
	tasks := make([]*task.Task, 0, len(parsed.Tasks))
	for i, rt := range parsed.Tasks {
		id := fmt.Sprintf("task_%d", i+1)
		params := make(map[string]task.Param, len(rt.Parameters))
		for k, v := range rt.Parameters {
			canon := k
			if folded, ok := synonyms[k]; ok {
				canon = folded
			}
			if ref, ok := asResultRef(v); ok {
				params[canon] = task.RefParam(ref.FromTask, ref.Path)
			} else {
				params[canon] = task.LiteralParam(v)
			}
		}
		tasks = append(tasks, &task.Task{
			ID:           id,
			Description:  rt.Description,
			Tool:         rt.Tool,
			Parameters:   params,
			Dependencies: append([]string(nil), rt.Dependencies...),
			Priority:     rt.Priority,
			DeclOrder:    i,
			Status:       task.StatusPending,
		})
	}
	return tasks, nil
}

// asResultRef recognises a parameter value shaped like
// {"from_task": "...", "path": "..."} emitted by the planner for
// cross-task references.
func asResultRef(v any) (*task.ResultRef, bool) {
	m, ok := v.(map[string]any)
	if !ok {
		return nil, false
	}
	fromTask, okF := m["from_task"].(string)
	path, okP := m["path"].(string)
	if !okF || !okP || fromTask == "" {
		return nil, false
	}
	return &task.ResultRef{FromTask: fromTask, Path: path}, true
}

// heuristicFallback synthesises a single task on model-output parse
// failure, matching the original action_planner.py's two-branch
// heuristic: an inventory-list keyword maps to the list tool; a
// deletion keyword returns an empty plan rather than guessing a
// destructive action; anything else becomes a conversational task.
func (p *Planner) heuristicFallback(utterance string) *task.Plan {
	lower := strings.ToLower(utterance)

	deletionKeywords := []string{"delete", "remove", "削除", "消して"}
	for _, kw := range deletionKeywords {
		if strings.Contains(lower, kw) {
			p.logger.Warn("fallback: deletion requested under parse failure, returning empty plan")
			return &task.Plan{}
		}
	}

	listKeywords := []string{"inventory", "what do i have", "在庫", "一覧"}
	for _, kw := range listKeywords {
		if strings.Contains(lower, kw) {
			return &task.Plan{Tasks: []*task.Task{{
				ID:         "task_1",
				Tool:       "inventory_list",
				Status:     task.StatusPending,
				Parameters: map[string]task.Param{},
			}}}
		}
	}

	return &task.Plan{Tasks: []*task.Task{{
		ID:         "task_1",
		Tool:       "llm_chat",
		Status:     task.StatusPending,
		Parameters: map[string]task.Param{"utterance": task.LiteralParam(utterance)},
	}}}
}

// sanityGateTripped implements spec §4.3's three rejection rules.
func sanityGateTripped(utterance string, plan *task.Plan, inventory []session.InventoryRecord) (bool, string) {
	if isConversational(utterance) && hasWriteTask(plan) {
		return true, "conversational utterance paired with write tasks"
	}
	if utf8.RuneCountInString(strings.TrimSpace(utterance)) < 10 && len(plan.Tasks) > 2 {
		return true, "short utterance yielded too many tasks"
	}
	known := make(map[string]bool, len(inventory))
	for _, rec := range inventory {
		known[rec.ID] = true
		known[strings.ToLower(rec.Name)] = true
	}
	for _, t := range plan.Tasks {
		if strings.Contains(t.Tool, "add") {
			// An add task introduces a record that by definition isn't
			// in the snapshot yet; only tasks that refer back to an
			// existing record can hallucinate one.
			continue
		}
		for _, key := range []string{"item_id", "item_name"} {
			p, ok := t.Parameters[key]
			if !ok || p.IsRef() {
				continue
			}
			s, ok := p.Literal.(string)
			if !ok || s == "" {
				continue
			}
			if !known[s] && !known[strings.ToLower(s)] {
				return true, fmt.Sprintf("task references unknown record %q", s)
			}
		}
	}
	return false, ""
}

var conversationalWords = []string{"hello", "hi", "hey", "thanks", "thank you", "こんにちは", "ありがとう"}

func isConversational(utterance string) bool {
	lower := strings.ToLower(strings.TrimSpace(utterance))
	for _, w := range conversationalWords {
		if strings.Contains(lower, w) {
			return true
		}
	}
	return false
}

func hasWriteTask(plan *task.Plan) bool {
	for _, t := range plan.Tasks {
		if strings.Contains(t.Tool, "add") || strings.Contains(t.Tool, "update") || strings.Contains(t.Tool, "delete") {
			return true
		}
	}
	return false
}
