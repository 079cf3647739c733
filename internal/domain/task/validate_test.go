package task

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func plan(tasks ...*Task) *Plan { return &Plan{Tasks: tasks} }

func TestValidateDAGAcceptsLinearChain(t *testing.T) {
	p := plan(
		&Task{ID: "a"},
		&Task{ID: "b", Dependencies: []string{"a"}},
		&Task{ID: "c", Dependencies: []string{"b"}},
	)
	require.NoError(t, ValidateDAG(p))
}

func TestValidateDAGRejectsCycle(t *testing.T) {
	p := plan(
		&Task{ID: "a", Dependencies: []string{"b"}},
		&Task{ID: "b", Dependencies: []string{"a"}},
	)
	err := ValidateDAG(p)
	require.Error(t, err)
	require.Contains(t, err.Error(), "cycle")
}

func TestValidateDAGRejectsUnknownDependency(t *testing.T) {
	p := plan(&Task{ID: "a", Dependencies: []string{"ghost"}})
	err := ValidateDAG(p)
	require.Error(t, err)
	require.Contains(t, err.Error(), "unknown task")
}

func TestValidateDAGRejectsDuplicateID(t *testing.T) {
	p := plan(&Task{ID: "a"}, &Task{ID: "a"})
	err := ValidateDAG(p)
	require.Error(t, err)
	require.Contains(t, err.Error(), "duplicate")
}

func TestValidateDAGAcceptsDiamond(t *testing.T) {
	p := plan(
		&Task{ID: "a"},
		&Task{ID: "b", Dependencies: []string{"a"}},
		&Task{ID: "c", Dependencies: []string{"a"}},
		&Task{ID: "d", Dependencies: []string{"b", "c"}},
	)
	require.NoError(t, ValidateDAG(p))
}
