package planner

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"pantry/internal/domain/session"
	"pantry/internal/toolregistry"
)

type fakeLLM struct {
	planResponse string
	planErr      error
}

func (f *fakeLLM) Plan(ctx context.Context, prompt string) (string, error) {
	return f.planResponse, f.planErr
}

func (f *fakeLLM) Compose(ctx context.Context, prompt string) (string, error) {
	return "ok", nil
}

func newTestRegistry() *toolregistry.Registry {
	reg := toolregistry.NewRegistry("")
	_ = reg.Register(&toolregistry.Route{
		Definition: toolregistry.ToolDefinition{Name: "inventory_add", Description: "add an item to inventory"},
	})
	_ = reg.Register(&toolregistry.Route{
		Definition: toolregistry.ToolDefinition{Name: "inventory_list", Description: "list inventory items"},
	})
	_ = reg.Register(&toolregistry.Route{
		Definition: toolregistry.ToolDefinition{Name: "llm_chat", Description: "free-form conversation"},
	})
	return reg
}

func TestCreatePlanParsesWellFormedJSON(t *testing.T) {
	llm := &fakeLLM{planResponse: `{"tasks": [{"description": "add milk", "tool": "inventory_add", "parameters": {"item": "milk", "quantity": 1}, "dependencies": [], "priority": 1}]}`}
	p := New(llm, newTestRegistry(), nil, nil)

	plan, err := p.CreatePlan(context.Background(), "add a carton of milk", nil)
	require.NoError(t, err)
	require.Len(t, plan.Tasks, 1)
	require.Equal(t, "inventory_add", plan.Tasks[0].Tool)
	require.Equal(t, "milk", plan.Tasks[0].Parameters["item_name"].Literal)
}

func TestCreatePlanRepairsMalformedJSON(t *testing.T) {
	llm := &fakeLLM{planResponse: "```json\n{tasks: [{description: 'list it', tool: 'inventory_list', parameters: {}, dependencies: [], priority: 1}]}\n```"}
	p := New(llm, newTestRegistry(), nil, nil)

	plan, err := p.CreatePlan(context.Background(), "what's in my pantry", nil)
	require.NoError(t, err)
	require.Len(t, plan.Tasks, 1)
	require.Equal(t, "inventory_list", plan.Tasks[0].Tool)
}

func TestCreatePlanFallsBackOnLLMError(t *testing.T) {
	llm := &fakeLLM{planErr: context.DeadlineExceeded}
	p := New(llm, newTestRegistry(), nil, nil)

	plan, err := p.CreatePlan(context.Background(), "what do I have", nil)
	require.NoError(t, err)
	require.Len(t, plan.Tasks, 1)
	require.Equal(t, "inventory_list", plan.Tasks[0].Tool)
}

func TestCreatePlanFallbackOnDeletionKeywordReturnsEmptyPlan(t *testing.T) {
	llm := &fakeLLM{planResponse: "not json at all"}
	p := New(llm, newTestRegistry(), nil, nil)

	plan, err := p.CreatePlan(context.Background(), "delete everything", nil)
	require.NoError(t, err)
	require.True(t, plan.IsEmpty())
}

func TestCreatePlanResolvesSiblingDescriptionDependency(t *testing.T) {
	llm := &fakeLLM{planResponse: `{"tasks": [
		{"description": "list eggs", "tool": "inventory_list", "parameters": {}, "dependencies": [], "priority": 1},
		{"description": "add the listed eggs to recipe", "tool": "inventory_add", "parameters": {"item": "eggs"}, "dependencies": ["list eggs"], "priority": 2}
	]}`}
	p := New(llm, newTestRegistry(), nil, nil)

	plan, err := p.CreatePlan(context.Background(), "check and add eggs to my pantry list please", nil)
	require.NoError(t, err)
	require.Len(t, plan.Tasks, 2)
	require.Equal(t, []string{"task_1"}, plan.Tasks[1].Dependencies)
}

func TestCreatePlanSanityGateRejectsConversationalWriteCombo(t *testing.T) {
	llm := &fakeLLM{planResponse: `{"tasks": [{"description": "add greeting", "tool": "inventory_add", "parameters": {"item": "hello"}, "dependencies": [], "priority": 1}]}`}
	p := New(llm, newTestRegistry(), nil, nil)

	plan, err := p.CreatePlan(context.Background(), "hey thanks", nil)
	require.NoError(t, err)
	require.True(t, plan.IsEmpty())
}

func TestCreatePlanSanityGateRejectsHallucinatedInventoryReference(t *testing.T) {
	llm := &fakeLLM{planResponse: `{"tasks": [{"description": "remove ghost item", "tool": "inventory_delete_by_id", "parameters": {"item_id": "does-not-exist"}, "dependencies": [], "priority": 1}]}`}
	p := New(llm, newTestRegistry(), nil, nil)

	plan, err := p.CreatePlan(context.Background(), "update my ghost pantry item please now", []session.InventoryRecord{{ID: "milk-1", Name: "milk"}})
	require.NoError(t, err)
	require.True(t, plan.IsEmpty())
}

func TestCreatePlanDoesNotTreatNewAddedItemAsHallucination(t *testing.T) {
	llm := &fakeLLM{planResponse: `{"tasks": [{"description": "add milk", "tool": "inventory_add", "parameters": {"item_name": "milk"}, "dependencies": [], "priority": 1}]}`}
	p := New(llm, newTestRegistry(), nil, nil)

	plan, err := p.CreatePlan(context.Background(), "add a carton of milk to the fridge please", nil)
	require.NoError(t, err)
	require.False(t, plan.IsEmpty())
}
