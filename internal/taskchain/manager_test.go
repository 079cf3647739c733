package taskchain

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"pantry/internal/domain/events"
	"pantry/internal/domain/task"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.ProgressEvent
}

func (p *recordingPublisher) Publish(sessionID string, event events.ProgressEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
}

func TestSetTaskChainEmitsStart(t *testing.T) {
	pub := &recordingPublisher{}
	m := New("sess-1", pub)
	plan := &task.Plan{Tasks: []*task.Task{{ID: "task_1"}, {ID: "task_2"}}}

	m.SetTaskChain(plan)

	require.Len(t, pub.events, 1)
	require.Equal(t, events.KindStart, pub.events[0].Type)
	require.Equal(t, 2, pub.events[0].Progress.TotalTasks)
}

func TestTaskCompletedIncrementsCompletedCount(t *testing.T) {
	pub := &recordingPublisher{}
	m := New("sess-1", pub)
	plan := &task.Plan{Tasks: []*task.Task{{ID: "task_1"}, {ID: "task_2"}}}
	m.SetTaskChain(plan)

	m.TaskCompleted(plan.Tasks[0])

	last := pub.events[len(pub.events)-1]
	require.Equal(t, 1, last.Progress.CompletedTasks)
	require.Equal(t, 50, last.Progress.ProgressPercentage)
}

func TestProgressIsMonotoneNonDecreasing(t *testing.T) {
	pub := &recordingPublisher{}
	m := New("sess-1", pub)
	plan := &task.Plan{Tasks: []*task.Task{{ID: "task_1"}, {ID: "task_2"}, {ID: "task_3"}}}
	m.SetTaskChain(plan)

	m.TaskCompleted(plan.Tasks[0])
	m.TaskCompleted(plan.Tasks[1])
	m.TaskCompleted(plan.Tasks[2])

	last := 0
	for _, evt := range pub.events {
		require.GreaterOrEqual(t, evt.Progress.CompletedTasks, last)
		require.LessOrEqual(t, evt.Progress.CompletedTasks, evt.Progress.TotalTasks)
		last = evt.Progress.CompletedTasks
	}
}

func TestMarkCompleteOnlyEmitsOnce(t *testing.T) {
	pub := &recordingPublisher{}
	m := New("sess-1", pub)
	plan := &task.Plan{Tasks: []*task.Task{{ID: "task_1", Status: task.StatusCompleted}}}
	m.SetTaskChain(plan)

	m.MarkComplete(plan, "done")
	m.MarkComplete(plan, "done again")

	completeCount := 0
	for _, evt := range pub.events {
		if evt.Type == events.KindComplete {
			completeCount++
		}
	}
	require.Equal(t, 1, completeCount)
}

func TestUpdateTaskProgressSystemPseudoID(t *testing.T) {
	pub := &recordingPublisher{}
	m := New("sess-1", pub)
	plan := &task.Plan{Tasks: []*task.Task{{ID: "task_1"}}}
	m.SetTaskChain(plan)

	m.UpdateTaskProgress("system", "error", errBoom)

	last := pub.events[len(pub.events)-1]
	require.Equal(t, events.KindError, last.Type)
	require.Equal(t, "system", last.Error.Code)
}

func TestPauseResumeToggle(t *testing.T) {
	m := New("sess-1", &recordingPublisher{})
	require.False(t, m.Paused())
	m.PauseForConfirmation()
	require.True(t, m.Paused())
	m.ResumeAfterConfirmation()
	require.False(t, m.Paused())
}

var errBoom = &boomErr{}

type boomErr struct{}

func (*boomErr) Error() string { return "boom" }
