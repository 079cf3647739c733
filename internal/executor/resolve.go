package executor

import (
	"strconv"
	"strings"

	"pantry/internal/domain/task"
	"pantry/internal/taskerrors"
)

// resolveParameters replaces every result-reference parameter with the
// referenced field of the upstream task's committed result, per
// spec §4.6's "Parameter resolution at dispatch". A missing or null
// reference is a fatal ParameterResolutionError for the dependent task.
func resolveParameters(t *task.Task, plan *task.Plan) (map[string]any, error) {
	args := make(map[string]any, len(t.Parameters))
	for name, p := range t.Parameters {
		if !p.IsRef() {
			args[name] = p.Literal
			continue
		}
		upstream := plan.ByID(p.Ref.FromTask)
		if upstream == nil || upstream.Status != task.StatusCompleted {
			return nil, &taskerrors.ParameterResolutionError{
				TaskID: t.ID, ParamName: name, FromTask: p.Ref.FromTask, Path: p.Ref.Path,
			}
		}
		value, ok := lookupPath(upstream.Result, p.Ref.Path)
		if !ok || value == nil {
			return nil, &taskerrors.ParameterResolutionError{
				TaskID: t.ID, ParamName: name, FromTask: p.Ref.FromTask, Path: p.Ref.Path,
			}
		}
		args[name] = value
	}
	return args, nil
}

// lookupPath walks a dotted path (optionally indexing arrays with a
// bare integer segment) through a result value built from decoded JSON
// (map[string]any / []any / scalars).
func lookupPath(v any, path string) (any, bool) {
	if path == "" {
		return v, true
	}
	cur := v
	for _, seg := range strings.Split(path, ".") {
		switch node := cur.(type) {
		case map[string]any:
			next, ok := node[seg]
			if !ok {
				return nil, false
			}
			cur = next
		case []any:
			idx, err := strconv.Atoi(seg)
			if err != nil || idx < 0 || idx >= len(node) {
				return nil, false
			}
			cur = node[idx]
		default:
			return nil, false
		}
	}
	return cur, true
}
