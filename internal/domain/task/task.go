// Package task defines the task-graph domain model: the Task and Plan
// types the planner produces and the executor drives to completion.
package task

import "time"

// Status is the lifecycle state of a single task within a plan.
type Status string

const (
	StatusPending    Status = "pending"
	StatusReady      Status = "ready"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
	StatusSkipped    Status = "skipped"
)

// IsTerminal reports whether the status is a final state for a task.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusSkipped:
		return true
	default:
		return false
	}
}

// ResultRef is a placeholder in a task's parameters that resolves to a
// field of an upstream task's committed result at dispatch time.
type ResultRef struct {
	FromTask string `json:"from_task"`
	Path     string `json:"path"`
}

// Param is a tagged variant: either a literal value or a ResultRef to be
// resolved against an upstream task's result at dispatch.
type Param struct {
	Literal any
	Ref     *ResultRef
}

// LiteralParam wraps a plain value as a Param.
func LiteralParam(v any) Param { return Param{Literal: v} }

// RefParam wraps a result reference as a Param.
func RefParam(fromTask, path string) Param {
	return Param{Ref: &ResultRef{FromTask: fromTask, Path: path}}
}

// IsRef reports whether this parameter is a result reference.
func (p Param) IsRef() bool { return p.Ref != nil }

// Task is one unit of work bound to a single tool invocation. It is
// immutable once scheduled except for Status, Result and Error.
type Task struct {
	ID           string
	Description  string
	Tool         string
	Parameters   map[string]Param
	Dependencies []string
	Priority     int

	// DeclOrder is the task's position in the plan as declared by the
	// planner; used as the tie-break for equal-priority ready tasks.
	DeclOrder int

	Status Status
	Result any
	Error  error

	MaxRetries   int
	FallbackTool string

	// ConfirmedScope marks a task whose target scope (which item, which
	// variant) was already resolved by the Confirmation Processor. The
	// Ambiguity Detector must not re-suspend on it even though its tool
	// name still matches a FIFO-sensitive or multi-target convention.
	ConfirmedScope bool
}

// Clone returns a deep-enough copy for safe mutation during confirmation
// rewrites (dependencies and parameters are copied; Result/Error are not,
// since a cloned task has not executed yet).
func (t *Task) Clone() *Task {
	deps := make([]string, len(t.Dependencies))
	copy(deps, t.Dependencies)
	params := make(map[string]Param, len(t.Parameters))
	for k, v := range t.Parameters {
		params[k] = v
	}
	c := *t
	c.Dependencies = deps
	c.Parameters = params
	c.Result = nil
	c.Error = nil
	return &c
}

// RemoveDependency strips dep from the task's dependency list, if present.
func (t *Task) RemoveDependency(dep string) {
	out := t.Dependencies[:0]
	for _, d := range t.Dependencies {
		if d != dep {
			out = append(out, d)
		}
	}
	t.Dependencies = out
}

// Plan is the ordered list of tasks produced for one user utterance. Its
// lifetime is a single user turn, which may span multiple HTTP requests
// when suspended for confirmation.
type Plan struct {
	Generation int
	Tasks      []*Task
	CreatedAt  time.Time
}

// ByID returns the task with the given id, or nil.
func (p *Plan) ByID(id string) *Task {
	for _, t := range p.Tasks {
		if t.ID == id {
			return t
		}
	}
	return nil
}

// IsEmpty reports whether the plan carries no tasks (pure conversation).
func (p *Plan) IsEmpty() bool { return len(p.Tasks) == 0 }
