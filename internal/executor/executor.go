// Package executor implements the Task Graph Executor (C6): the
// ready-queue scheduler that drives a Plan to completion or suspends it
// for user confirmation, per spec §4.6.
package executor

import (
	"context"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"pantry/internal/ambiguity"
	"pantry/internal/confirmation"
	"pantry/internal/domain/session"
	"pantry/internal/domain/task"
	"pantry/internal/logging"
	"pantry/internal/taskerrors"
	"pantry/internal/toolregistry"
)

// DefaultConcurrency bounds how many ready tasks dispatch at once within
// a single plan's turn, per spec §5 ("bounded by an implementation-
// chosen limit; there is no per-tool throttling in the core").
const DefaultConcurrency = 4

// DefaultRetryBackoff is the short pause between a task's own retry
// attempts (distinct from the Tool Registry's transport-level retry).
const DefaultRetryBackoff = 500 * time.Millisecond

// OutcomeStatus is the executor's DispatchOutcome per spec §9's design
// note: Running is internal to the loop and never escapes Run.
type OutcomeStatus int

const (
	// OutcomeCompleted means every task reached a terminal state and no
	// ambiguity interrupted the run.
	OutcomeCompleted OutcomeStatus = iota
	// OutcomeSuspended means the plan paused on a confirmation.
	OutcomeSuspended
)

// Outcome is what Run returns to the turn handler.
type Outcome struct {
	Status       OutcomeStatus
	Plan         *task.Plan
	Confirmation *session.ConfirmationContext
	SystemErr    error
}

// Reporter observes task transitions so the Task Chain Manager (C7) can
// translate them into progress events without the executor knowing
// anything about the Progress Stream Hub.
type Reporter interface {
	TaskStarted(t *task.Task)
	TaskCompleted(t *task.Task)
	TaskFailed(t *task.Task, err error)
	TaskSkipped(t *task.Task)
	SystemError(err error)
}

// NopReporter discards every transition; useful for tests.
type NopReporter struct{}

func (NopReporter) TaskStarted(*task.Task)          {}
func (NopReporter) TaskCompleted(*task.Task)        {}
func (NopReporter) TaskFailed(*task.Task, error)    {}
func (NopReporter) TaskSkipped(*task.Task)          {}
func (NopReporter) SystemError(error)               {}

// Executor drives one plan's dispatch loop.
type Executor struct {
	registry    *toolregistry.Registry
	concurrency int
	logger      logging.Logger
}

// New builds an Executor bound to registry, with concurrency ready
// tasks dispatched at once (DefaultConcurrency if <= 0).
func New(registry *toolregistry.Registry, concurrency int) *Executor {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	return &Executor{registry: registry, concurrency: concurrency, logger: logging.NewNamed("Executor")}
}

// Run drives plan to a terminal outcome: every task reaches {completed,
// failed, skipped}, or the loop suspends on an ambiguous ready task.
func (e *Executor) Run(ctx context.Context, plan *task.Plan, inventory []session.InventoryRecord, authToken string, reporter Reporter) Outcome {
	if reporter == nil {
		reporter = NopReporter{}
	}

	for {
		ready := readySet(plan)
		if len(ready) == 0 {
			if anyPending(plan) {
				err := &taskerrors.SystemError{Err: taskErrStuckPlan{}}
				e.logger.Error("plan stuck: ready set empty with pending tasks remaining")
				skipPending(plan, reporter)
				reporter.SystemError(err)
				return Outcome{Status: OutcomeCompleted, Plan: plan, SystemErr: err}
			}
			return Outcome{Status: OutcomeCompleted, Plan: plan}
		}

		sortReady(ready)

		for _, t := range ready {
			if info := ambiguity.Detect(t, inventory); info != nil {
				return e.suspend(plan, t, info)
			}
		}

		if err := e.dispatchAll(ctx, plan, ready, authToken, reporter); err != nil {
			reporter.SystemError(err)
			return Outcome{Status: OutcomeCompleted, Plan: plan, SystemErr: err}
		}
	}
}

// readySet returns pending tasks whose dependencies are all completed.
func readySet(plan *task.Plan) []*task.Task {
	var ready []*task.Task
	for _, t := range plan.Tasks {
		if t.Status != task.StatusPending {
			continue
		}
		if allDepsCompleted(plan, t) {
			ready = append(ready, t)
		}
	}
	return ready
}

func allDepsCompleted(plan *task.Plan, t *task.Task) bool {
	for _, depID := range t.Dependencies {
		dep := plan.ByID(depID)
		if dep == nil || dep.Status != task.StatusCompleted {
			return false
		}
	}
	return true
}

func anyPending(plan *task.Plan) bool {
	for _, t := range plan.Tasks {
		if t.Status == task.StatusPending {
			return true
		}
	}
	return false
}

func sortReady(ready []*task.Task) {
	sort.SliceStable(ready, func(i, j int) bool {
		if ready[i].Priority != ready[j].Priority {
			return ready[i].Priority < ready[j].Priority
		}
		return ready[i].DeclOrder < ready[j].DeclOrder
	})
}

// suspend partitions the plan into EXECUTED and REMAINING and builds the
// ConfirmationContext, per spec §4.6's Suspension bullet.
func (e *Executor) suspend(plan *task.Plan, ambiguous *task.Task, info *ambiguity.Info) Outcome {
	var executed, remaining []*task.Task
	for _, t := range plan.Tasks {
		if t.Status == task.StatusCompleted {
			executed = append(executed, t)
			continue
		}
		if t.Status.IsTerminal() {
			continue
		}
		if t.ID == ambiguous.ID {
			continue
		}
		clone := t.Clone()
		clone.RemoveDependency(ambiguous.ID)
		remaining = append(remaining, clone)
	}

	ctx := &session.ConfirmationContext{
		OriginalTask:       ambiguous,
		Type:               string(info.Type),
		ItemName:           info.ItemName,
		CandidateItems:     info.Items,
		ExecutedTasks:      executed,
		RemainingTaskChain: remaining,
		Options:            confirmation.OptionsFor(info.Type),
		IssuedAt:           time.Now(),
	}
	return Outcome{Status: OutcomeSuspended, Plan: plan, Confirmation: ctx}
}

// dispatchAll runs every ready task concurrently, bounded by
// e.concurrency, and applies each task's retry/fallback policy on
// failure before recording its terminal status.
func (e *Executor) dispatchAll(ctx context.Context, plan *task.Plan, ready []*task.Task, authToken string, reporter Reporter) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)

	for _, t := range ready {
		t.Status = task.StatusInProgress
		reporter.TaskStarted(t)
		t := t
		g.Go(func() error {
			e.runOne(gctx, plan, t, authToken, reporter)
			return nil
		})
	}
	return g.Wait()
}

// runOne resolves parameters, invokes the tool with retry/fallback, and
// records the task's terminal state. It never returns an error itself;
// fatal per-task conditions are recorded on the task, not propagated,
// so one task's failure cannot abort independent siblings (spec §7
// "individual task failures do NOT abort the plan").
func (e *Executor) runOne(ctx context.Context, plan *task.Plan, t *task.Task, authToken string, reporter Reporter) {
	args, err := resolveParameters(t, plan)
	if err != nil {
		t.Status = task.StatusFailed
		t.Error = err
		reporter.TaskFailed(t, err)
		return
	}

	result, err := e.invokeWithRetryAndFallback(ctx, t, args, authToken)
	if err != nil {
		t.Status = task.StatusFailed
		t.Error = err
		reporter.TaskFailed(t, err)
		return
	}

	t.Status = task.StatusCompleted
	t.Result = result
	reporter.TaskCompleted(t)
}

func (e *Executor) invokeWithRetryAndFallback(ctx context.Context, t *task.Task, args map[string]any, authToken string) (any, error) {
	attempt := func(ctx context.Context, toolName string) (any, error) {
		res, err := e.registry.Invoke(ctx, toolName, args, authToken)
		if err != nil {
			return nil, err
		}
		return res.Data, nil
	}

	var lastErr error
	for n := 0; n <= t.MaxRetries; n++ {
		data, err := attempt(ctx, t.Tool)
		if err == nil {
			return data, nil
		}
		lastErr = err
		if !taskerrors.IsTransient(err) {
			break
		}
		if n < t.MaxRetries {
			select {
			case <-time.After(DefaultRetryBackoff):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}

	if t.FallbackTool != "" {
		e.logger.Warn("task %s: primary tool %q exhausted, trying fallback %q", t.ID, t.Tool, t.FallbackTool)
		if data, err := attempt(ctx, t.FallbackTool); err == nil {
			return data, nil
		}
	}
	return nil, lastErr
}

// skipPending marks every still-pending task skipped, used both for
// stuck-plan recovery and for cancellation after suspension.
func skipPending(plan *task.Plan, reporter Reporter) {
	for _, t := range plan.Tasks {
		if t.Status == task.StatusPending || t.Status == task.StatusReady {
			t.Status = task.StatusSkipped
			reporter.TaskSkipped(t)
		}
	}
}

// Skip marks every remaining (non-terminal) task in plan skipped, for
// the cancellation path driven from outside the dispatch loop (spec
// §4.6 Resumption: "the remainder is marked skipped").
func Skip(plan *task.Plan, reporter Reporter) {
	if reporter == nil {
		reporter = NopReporter{}
	}
	skipPending(plan, reporter)
}

type taskErrStuckPlan struct{}

func (taskErrStuckPlan) Error() string {
	return "ready set empty but pending tasks remain: circular or broken dependency passed validation"
}
