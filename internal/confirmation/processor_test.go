package confirmation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"pantry/internal/ambiguity"
	"pantry/internal/domain/session"
	"pantry/internal/domain/task"
)

func sampleInfo() *ambiguity.Info {
	now := time.Now()
	return &ambiguity.Info{
		Type:     ambiguity.KindMultiTarget,
		ItemName: "milk",
		Items: []session.InventoryRecord{
			{ID: "milk-1", Name: "milk", CreatedAt: now.Add(-2 * time.Hour)},
			{ID: "milk-2", Name: "milk", CreatedAt: now.Add(-1 * time.Hour)},
		},
		OriginalTask: &task.Task{ID: "task_1", Tool: "inventory_delete_by_name", Parameters: map[string]task.Param{"item_name": task.LiteralParam("milk")}},
	}
}

func TestBuildPromptMultiTargetOptionSet(t *testing.T) {
	prompt := BuildPrompt(sampleInfo(), nil)
	require.Equal(t, []string{"oldest", "latest", "all", "cancel"}, prompt.Options)
	require.Contains(t, prompt.Message, "milk")
	require.Contains(t, prompt.Message, "2")
}

func TestBuildPromptListsRemainingSteps(t *testing.T) {
	remaining := []*task.Task{{ID: "task_2", Description: "suggest a menu"}}
	prompt := BuildPrompt(sampleInfo(), remaining)
	require.Contains(t, prompt.Message, "suggest a menu")
}

func TestResolveOldestRewritesToVariant(t *testing.T) {
	ctx := &session.ConfirmationContext{
		OriginalTask: sampleInfo().OriginalTask,
		Options:      []string{"oldest", "latest", "all", "cancel"},
	}
	out := Resolve(ctx, "delete the old one")
	require.False(t, out.Cancelled)
	require.Equal(t, "inventory_delete_by_name_oldest", out.Plan.Tasks[0].Tool)
}

func TestResolveLatestRewritesToVariant(t *testing.T) {
	ctx := &session.ConfirmationContext{OriginalTask: sampleInfo().OriginalTask}
	out := Resolve(ctx, "the newest one please")
	require.Equal(t, "inventory_delete_by_name_latest", out.Plan.Tasks[0].Tool)
}

func TestResolveCancelProducesEmptyPlan(t *testing.T) {
	ctx := &session.ConfirmationContext{OriginalTask: sampleInfo().OriginalTask}
	out := Resolve(ctx, "cancel")
	require.True(t, out.Cancelled)
	require.True(t, out.Plan.IsEmpty())
}

func TestResolveAllKeepsOriginalTool(t *testing.T) {
	ctx := &session.ConfirmationContext{OriginalTask: sampleInfo().OriginalTask}
	out := Resolve(ctx, "just do all of them")
	require.Equal(t, "inventory_delete_by_name", out.Plan.Tasks[0].Tool)
}

func TestResolveUnrecognisedReplyProducesClarifySentinel(t *testing.T) {
	ctx := &session.ConfirmationContext{OriginalTask: sampleInfo().OriginalTask, Options: []string{"oldest", "latest", "all", "cancel"}}
	out := Resolve(ctx, "banana")
	require.False(t, out.Cancelled)
	require.Equal(t, ClarifyToolSentinel, out.Plan.Tasks[0].Tool)
}

func TestResolvePreservesRemainingChain(t *testing.T) {
	ctx := &session.ConfirmationContext{
		OriginalTask:       sampleInfo().OriginalTask,
		RemainingTaskChain: []*task.Task{{ID: "task_2"}, {ID: "task_3"}},
	}
	out := Resolve(ctx, "confirm")
	require.Len(t, out.Plan.Tasks, 3)
	require.Equal(t, "task_2", out.Plan.Tasks[1].ID)
}

func TestResolveMarksRewrittenHeadConfirmed(t *testing.T) {
	ctx := &session.ConfirmationContext{OriginalTask: sampleInfo().OriginalTask}
	out := Resolve(ctx, "delete the old one")
	require.True(t, out.Plan.Tasks[0].ConfirmedScope)
}

func TestResolveKeepsExecutedTasksAheadOfHead(t *testing.T) {
	executed := &task.Task{ID: "task_0", Status: task.StatusCompleted, Result: map[string]any{"id": "milk-1"}}
	ctx := &session.ConfirmationContext{
		OriginalTask:       sampleInfo().OriginalTask,
		ExecutedTasks:      []*task.Task{executed},
		RemainingTaskChain: []*task.Task{{ID: "task_2"}},
	}
	out := Resolve(ctx, "confirm")
	require.Len(t, out.Plan.Tasks, 3)
	require.Equal(t, "task_0", out.Plan.Tasks[0].ID)
	require.Equal(t, task.StatusCompleted, out.Plan.Tasks[0].Status)
	require.True(t, out.Plan.Tasks[1].ConfirmedScope)
	require.Equal(t, "task_2", out.Plan.Tasks[2].ID)
}
