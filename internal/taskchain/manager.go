// Package taskchain implements the Task Chain Manager (C7): a
// bookkeeping façade over the executor's task transitions that
// maintains progress counters and translates them into ProgressEvents
// for the Progress Stream Hub (C8).
package taskchain

import (
	"sync"
	"time"

	"pantry/internal/domain/events"
	"pantry/internal/domain/task"
)

// Publisher is the narrow interface the manager needs from the
// Progress Stream Hub; decoupling it this way keeps C7 ignorant of
// subscriber fan-out and backpressure.
type Publisher interface {
	Publish(sessionID string, event events.ProgressEvent)
}

// Manager tracks one plan's progress and emits events as tasks
// transition, per spec §4.7.
type Manager struct {
	mu         sync.Mutex
	sessionID  string
	publisher  Publisher
	total      int
	completed  int
	paused     bool
	completedOnce bool
	clock      func() time.Time
}

// New builds a Manager bound to sessionID, publishing through pub.
func New(sessionID string, pub Publisher) *Manager {
	return &Manager{sessionID: sessionID, publisher: pub, clock: time.Now}
}

// SetTaskChain initialises counters for a freshly (re)started plan and
// emits the "start" event.
func (m *Manager) SetTaskChain(plan *task.Plan) {
	m.mu.Lock()
	m.total = len(plan.Tasks)
	m.completed = countStatus(plan, task.StatusCompleted)
	m.paused = false
	m.completedOnce = false
	snapshot := m.snapshotLocked(plan, "")
	m.mu.Unlock()

	m.publisher.Publish(m.sessionID, events.ProgressEvent{
		Type:      events.KindStart,
		SessionID: m.sessionID,
		Timestamp: m.clock(),
		Progress:  &snapshot,
		Message:   "starting plan execution",
	})
}

// TaskStarted implements executor.Reporter.
func (m *Manager) TaskStarted(t *task.Task) {
	m.emitProgress(t.ID, nil, "")
}

// TaskCompleted implements executor.Reporter.
func (m *Manager) TaskCompleted(t *task.Task) {
	m.mu.Lock()
	m.completed++
	m.mu.Unlock()
	m.emitProgress(t.ID, nil, "")
}

// TaskFailed implements executor.Reporter.
func (m *Manager) TaskFailed(t *task.Task, err error) {
	m.emitProgress(t.ID, err, "task failed")
}

// TaskSkipped implements executor.Reporter.
func (m *Manager) TaskSkipped(t *task.Task) {
	m.emitProgress(t.ID, nil, "")
}

// SystemError implements executor.Reporter by reporting a non-task
// failure under the "system" pseudo-id.
func (m *Manager) SystemError(err error) {
	m.UpdateTaskProgress("system", "error", err)
}

// UpdateTaskProgress handles the special pseudo-id "system" with status
// error for non-task failures, per spec §4.7.
func (m *Manager) UpdateTaskProgress(taskID string, status task.Status, err error) {
	if taskID == "system" && status == "error" {
		m.mu.Lock()
		snapshot := events.Progress{TotalTasks: m.total, CompletedTasks: m.completed, ProgressPercentage: events.Percentage(m.completed, m.total)}
		m.mu.Unlock()
		m.publisher.Publish(m.sessionID, events.ProgressEvent{
			Type:      events.KindError,
			SessionID: m.sessionID,
			Timestamp: m.clock(),
			Progress:  &snapshot,
			Error:     &events.ErrorDetail{Code: "system", Message: errString(err)},
		})
		return
	}
	m.emitProgress(taskID, err, "")
}

// GetProgressInfo returns the current progress snapshot.
func (m *Manager) GetProgressInfo(plan *task.Plan) events.Progress {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked(plan, "")
}

// PauseForConfirmation flips the paused flag while the plan awaits a
// user reply.
func (m *Manager) PauseForConfirmation() {
	m.mu.Lock()
	m.paused = true
	m.mu.Unlock()
}

// ResumeAfterConfirmation clears the paused flag.
func (m *Manager) ResumeAfterConfirmation() {
	m.mu.Lock()
	m.paused = false
	m.mu.Unlock()
}

// Paused reports whether the manager currently considers the chain
// paused for confirmation.
func (m *Manager) Paused() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.paused
}

// MarkComplete emits the "complete" event exactly once per plan run.
func (m *Manager) MarkComplete(plan *task.Plan, message string) {
	m.mu.Lock()
	if m.completedOnce {
		m.mu.Unlock()
		return
	}
	m.completedOnce = true
	snapshot := m.snapshotLocked(plan, "")
	snapshot.IsComplete = true
	m.mu.Unlock()

	m.publisher.Publish(m.sessionID, events.ProgressEvent{
		Type:      events.KindComplete,
		SessionID: m.sessionID,
		Timestamp: m.clock(),
		Progress:  &snapshot,
		Message:   message,
	})
}

func (m *Manager) emitProgress(currentTaskID string, err error, message string) {
	m.mu.Lock()
	snapshot := events.Progress{
		TotalTasks:         m.total,
		CompletedTasks:     m.completed,
		ProgressPercentage: events.Percentage(m.completed, m.total),
		CurrentTask:        currentTaskID,
	}
	m.mu.Unlock()

	evt := events.ProgressEvent{
		Type:      events.KindProgress,
		SessionID: m.sessionID,
		Timestamp: m.clock(),
		Progress:  &snapshot,
		Message:   message,
	}
	if err != nil {
		evt.Type = events.KindError
		evt.Error = &events.ErrorDetail{Code: "task_failed", Message: errString(err)}
	}
	m.publisher.Publish(m.sessionID, evt)
}

func (m *Manager) snapshotLocked(plan *task.Plan, currentTaskID string) events.Progress {
	total := m.total
	if plan != nil {
		total = len(plan.Tasks)
	}
	remaining := remainingIDs(plan)
	return events.Progress{
		TotalTasks:         total,
		CompletedTasks:     m.completed,
		ProgressPercentage: events.Percentage(m.completed, total),
		CurrentTask:        currentTaskID,
		RemainingTasks:     remaining,
	}
}

func remainingIDs(plan *task.Plan) []string {
	if plan == nil {
		return nil
	}
	var out []string
	for _, t := range plan.Tasks {
		if !t.Status.IsTerminal() {
			out = append(out, t.ID)
		}
	}
	return out
}

func countStatus(plan *task.Plan, status task.Status) int {
	n := 0
	for _, t := range plan.Tasks {
		if t.Status == status {
			n++
		}
	}
	return n
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
