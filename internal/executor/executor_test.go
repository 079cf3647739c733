package executor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"pantry/internal/domain/session"
	"pantry/internal/domain/task"
	"pantry/internal/taskerrors"
	"pantry/internal/toolregistry"
)

type scriptedTransport struct {
	mu         sync.Mutex
	results    map[string]*toolregistry.ToolResult
	errs       map[string]error
	domainErrs map[string]string
	calls      map[string]int
}

func newScriptedTransport() *scriptedTransport {
	return &scriptedTransport{
		results:    map[string]*toolregistry.ToolResult{},
		errs:       map[string]error{},
		domainErrs: map[string]string{},
		calls:      map[string]int{},
	}
}

// Invoke simulates two distinct failure conventions a real transport can
// use: a Go error (transport-level, e.g. connection refused) or a
// success:false envelope surfaced as ToolResult.Err (domain-level,
// e.g. the HTTP transport's wireResponse).
func (s *scriptedTransport) Invoke(ctx context.Context, toolName string, args map[string]any) (*toolregistry.ToolResult, error) {
	s.mu.Lock()
	s.calls[toolName]++
	err, hasErr := s.errs[toolName]
	domainMsg, hasDomainErr := s.domainErrs[toolName]
	res, hasRes := s.results[toolName]
	s.mu.Unlock()
	if hasErr {
		return nil, err
	}
	if hasDomainErr {
		return &toolregistry.ToolResult{Err: fmt.Errorf("%s", domainMsg)}, nil
	}
	if hasRes {
		return res, nil
	}
	return &toolregistry.ToolResult{Data: map[string]any{}}, nil
}

func newTestRegistry(transport *scriptedTransport) *toolregistry.Registry {
	reg := toolregistry.NewRegistry("")
	for _, name := range []string{"inventory_add", "inventory_list", "menu_generate", "menu_fallback"} {
		_ = reg.Register(&toolregistry.Route{
			Definition:  toolregistry.ToolDefinition{Name: name},
			Transport:   transport,
			RetryConfig: taskerrors.RetryConfig{MaxAttempts: 0},
		})
	}
	return reg
}

type recordingReporter struct {
	completed []string
	failed    []string
	skipped   []string
}

func (r *recordingReporter) TaskStarted(t *task.Task)   {}
func (r *recordingReporter) TaskCompleted(t *task.Task) { r.completed = append(r.completed, t.ID) }
func (r *recordingReporter) TaskFailed(t *task.Task, err error) {
	r.failed = append(r.failed, t.ID)
}
func (r *recordingReporter) TaskSkipped(t *task.Task) { r.skipped = append(r.skipped, t.ID) }
func (r *recordingReporter) SystemError(err error)    {}

func TestRunCompletesLinearChain(t *testing.T) {
	transport := newScriptedTransport()
	transport.results["inventory_list"] = &toolregistry.ToolResult{Data: map[string]any{"items": []any{"milk"}}}
	reg := newTestRegistry(transport)
	exec := New(reg, 2)

	plan := &task.Plan{Tasks: []*task.Task{
		{ID: "task_1", Tool: "inventory_add", Status: task.StatusPending, Parameters: map[string]task.Param{}},
		{ID: "task_2", Tool: "inventory_list", Status: task.StatusPending, Dependencies: []string{"task_1"}, Parameters: map[string]task.Param{}},
	}}

	reporter := &recordingReporter{}
	out := exec.Run(context.Background(), plan, nil, "tok", reporter)

	require.Equal(t, OutcomeCompleted, out.Status)
	require.Equal(t, task.StatusCompleted, plan.Tasks[0].Status)
	require.Equal(t, task.StatusCompleted, plan.Tasks[1].Status)
	require.ElementsMatch(t, []string{"task_1", "task_2"}, reporter.completed)
}

func TestRunDispatchesIndependentTasksInParallel(t *testing.T) {
	transport := newScriptedTransport()
	reg := newTestRegistry(transport)
	exec := New(reg, 4)

	plan := &task.Plan{Tasks: []*task.Task{
		{ID: "task_1", Tool: "inventory_add", Status: task.StatusPending, Parameters: map[string]task.Param{}},
		{ID: "task_2", Tool: "inventory_add", Status: task.StatusPending, Parameters: map[string]task.Param{}},
	}}

	out := exec.Run(context.Background(), plan, nil, "tok", nil)
	require.Equal(t, OutcomeCompleted, out.Status)
	require.Equal(t, 2, transport.calls["inventory_add"])
	require.Equal(t, task.StatusCompleted, plan.Tasks[0].Status)
	require.Equal(t, task.StatusCompleted, plan.Tasks[1].Status)
}

func TestRunResolvesUpstreamResultReference(t *testing.T) {
	transport := newScriptedTransport()
	transport.results["inventory_add"] = &toolregistry.ToolResult{Data: map[string]any{"item_id": "milk-9"}}
	reg := newTestRegistry(transport)
	exec := New(reg, 2)

	plan := &task.Plan{Tasks: []*task.Task{
		{ID: "task_1", Tool: "inventory_add", Status: task.StatusPending, Parameters: map[string]task.Param{}},
		{ID: "task_2", Tool: "menu_generate", Status: task.StatusPending, Dependencies: []string{"task_1"},
			Parameters: map[string]task.Param{"item_id": task.RefParam("task_1", "item_id")}},
	}}

	out := exec.Run(context.Background(), plan, nil, "tok", nil)
	require.Equal(t, OutcomeCompleted, out.Status)
	require.Equal(t, task.StatusCompleted, plan.Tasks[1].Status)
}

func TestRunFallbackToolAbsorbsPrimaryFailure(t *testing.T) {
	transport := newScriptedTransport()
	transport.errs["menu_generate"] = &taskerrors.ToolDomainError{Tool: "menu_generate", Message: "no menu available"}
	transport.results["menu_fallback"] = &toolregistry.ToolResult{Data: map[string]any{"menu": "fallback menu"}}
	reg := newTestRegistry(transport)
	exec := New(reg, 2)

	plan := &task.Plan{Tasks: []*task.Task{
		{ID: "task_1", Tool: "menu_generate", FallbackTool: "menu_fallback", MaxRetries: 0, Status: task.StatusPending, Parameters: map[string]task.Param{}},
	}}

	out := exec.Run(context.Background(), plan, nil, "tok", nil)
	require.Equal(t, OutcomeCompleted, out.Status)
	require.Equal(t, task.StatusCompleted, plan.Tasks[0].Status)
	require.Nil(t, out.SystemErr)
}

// TestRunFallbackToolAbsorbsDomainFailure covers the success:false
// convention real transports use (toolregistry.ToolResult.Err, not a Go
// error), matching internal/tools/builtin/http_transport.go's
// wireResponse decoding.
func TestRunFallbackToolAbsorbsDomainFailure(t *testing.T) {
	transport := newScriptedTransport()
	transport.domainErrs["menu_generate"] = "no menu available"
	transport.results["menu_fallback"] = &toolregistry.ToolResult{Data: map[string]any{"menu": "fallback menu"}}
	reg := newTestRegistry(transport)
	exec := New(reg, 2)

	plan := &task.Plan{Tasks: []*task.Task{
		{ID: "task_1", Tool: "menu_generate", FallbackTool: "menu_fallback", MaxRetries: 0, Status: task.StatusPending, Parameters: map[string]task.Param{}},
	}}

	out := exec.Run(context.Background(), plan, nil, "tok", nil)
	require.Equal(t, OutcomeCompleted, out.Status)
	require.Equal(t, task.StatusCompleted, plan.Tasks[0].Status)
	require.Equal(t, map[string]any{"menu": "fallback menu"}, plan.Tasks[0].Result)
	require.Nil(t, out.SystemErr)
}

// TestRunRecordsTaskFailedOnDomainFailureWithoutFallback ensures a
// success:false result with no fallback tool still fails the task
// (and surfaces the verbatim domain message) instead of silently
// completing with a nil result.
func TestRunRecordsTaskFailedOnDomainFailureWithoutFallback(t *testing.T) {
	transport := newScriptedTransport()
	transport.domainErrs["menu_generate"] = "no menu available"
	reg := newTestRegistry(transport)
	exec := New(reg, 2)

	plan := &task.Plan{Tasks: []*task.Task{
		{ID: "task_1", Tool: "menu_generate", MaxRetries: 0, Status: task.StatusPending, Parameters: map[string]task.Param{}},
	}}

	out := exec.Run(context.Background(), plan, nil, "tok", nil)
	require.Equal(t, OutcomeCompleted, out.Status)
	require.Equal(t, task.StatusFailed, plan.Tasks[0].Status)
	require.ErrorContains(t, plan.Tasks[0].Error, "no menu available")
}

func TestRunSuspendsOnAmbiguousMultiTargetTask(t *testing.T) {
	transport := newScriptedTransport()
	reg := newTestRegistry(transport)
	_ = reg.Register(&toolregistry.Route{Definition: toolregistry.ToolDefinition{Name: "inventory_delete_by_name"}, Transport: transport})
	exec := New(reg, 2)

	plan := &task.Plan{Tasks: []*task.Task{
		{ID: "task_1", Tool: "inventory_delete_by_name", Status: task.StatusPending, Parameters: map[string]task.Param{"item_name": task.LiteralParam("milk")}},
		{ID: "task_2", Tool: "inventory_list", Status: task.StatusPending, Dependencies: []string{"task_1"}, Parameters: map[string]task.Param{}},
	}}

	out := exec.Run(context.Background(), plan, []session.InventoryRecord{{ID: "milk-1", Name: "milk"}}, "tok", nil)
	require.Equal(t, OutcomeSuspended, out.Status)
	require.NotNil(t, out.Confirmation)
	require.Equal(t, "task_1", out.Confirmation.OriginalTask.ID)
	require.Len(t, out.Confirmation.RemainingTaskChain, 1)
	require.Empty(t, out.Confirmation.RemainingTaskChain[0].Dependencies)
}

func TestRunMarksStuckPlanTasksSkippedOnBrokenDependency(t *testing.T) {
	transport := newScriptedTransport()
	reg := newTestRegistry(transport)
	exec := New(reg, 2)

	plan := &task.Plan{Tasks: []*task.Task{
		{ID: "task_1", Tool: "inventory_add", Status: task.StatusPending, Dependencies: []string{"task_2"}, Parameters: map[string]task.Param{}},
		{ID: "task_2", Tool: "inventory_add", Status: task.StatusPending, Dependencies: []string{"task_1"}, Parameters: map[string]task.Param{}},
	}}

	out := exec.Run(context.Background(), plan, nil, "tok", nil)
	require.Error(t, out.SystemErr)
	var sysErr *taskerrors.SystemError
	require.True(t, errors.As(out.SystemErr, &sysErr))
	require.Equal(t, task.StatusSkipped, plan.Tasks[0].Status)
	require.Equal(t, task.StatusSkipped, plan.Tasks[1].Status)
}
