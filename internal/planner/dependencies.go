package planner

import (
	"fmt"
	"strings"

	"pantry/internal/domain/task"
)

// ResolveDependencies rewrites each task's free-form dependency entries
// into canonical sibling task ids. The planner's LLM sometimes emits a
// human description ("the listed eggs") instead of the sibling's id; we
// match against sibling descriptions to recover the intended edge. An
// entry that matches neither an id nor a description is dropped rather
// than left dangling, since ValidateDAG would otherwise reject the
// whole plan for one hallucinated reference.
func ResolveDependencies(plan *task.Plan) error {
	for _, t := range plan.Tasks {
		resolved := make([]string, 0, len(t.Dependencies))
		for _, dep := range t.Dependencies {
			if plan.ByID(dep) != nil {
				resolved = append(resolved, dep)
				continue
			}
			if sib := findByDescription(plan, t.ID, dep); sib != nil {
				resolved = append(resolved, sib.ID)
				continue
			}
			// drop: unresolved human-description dependency
		}
		t.Dependencies = resolved
	}

	for _, t := range plan.Tasks {
		for _, p := range t.Parameters {
			if !p.IsRef() {
				continue
			}
			if plan.ByID(p.Ref.FromTask) == nil {
				return fmt.Errorf("task %s references unknown upstream task %q", t.ID, p.Ref.FromTask)
			}
		}
	}
	return nil
}

func findByDescription(plan *task.Plan, excludeID, needle string) *task.Task {
	needle = strings.ToLower(strings.TrimSpace(needle))
	if needle == "" {
		return nil
	}
	for _, t := range plan.Tasks {
		if t.ID == excludeID {
			continue
		}
		if strings.Contains(strings.ToLower(t.Description), needle) || strings.Contains(needle, strings.ToLower(t.Description)) {
			return t
		}
	}
	return nil
}
