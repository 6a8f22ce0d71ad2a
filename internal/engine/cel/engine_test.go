package cel

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"optimus-coordinator/internal/domain"
)

const testModel = `{
  "parameters": ["load"],
  "variables": [{"name": "x", "min": 0, "max": 10, "step": 1}],
  "objectives": {"cost": "load - x"}
}`

func TestEngineSolveMaximisesObjective(t *testing.T) {
	e := New()
	require.NoError(t, e.LoadProblem(context.Background(), "p.mod", testModel))
	require.NoError(t, e.SetParameter("load", domain.DoubleValue(4)))
	require.NoError(t, e.EnableObjective("cost"))

	require.NoError(t, e.Solve(context.Background()))

	objVal, err := e.ObjectiveValue("cost")
	require.NoError(t, err)
	require.Equal(t, domain.ValueKindDouble, objVal.Kind)
	require.InDelta(t, 4.0, objVal.Dbl, 1e-6)

	varVal, err := e.VariableValue("x")
	require.NoError(t, err)
	require.InDelta(t, 0.0, varVal.Dbl, 1e-6)
}

func TestEngineUnknownObjectiveRejected(t *testing.T) {
	e := New()
	require.NoError(t, e.LoadProblem(context.Background(), "p.mod", testModel))
	err := e.EnableObjective("latency")
	require.Error(t, err)
}

func TestEngineLoadDataUpdatesParameters(t *testing.T) {
	e := New()
	require.NoError(t, e.LoadProblem(context.Background(), "p.mod", testModel))
	require.NoError(t, e.LoadData(context.Background(), "d.data", `{"load": 9}`))
	require.NoError(t, e.EnableObjective("cost"))
	require.NoError(t, e.Solve(context.Background()))

	objVal, err := e.ObjectiveValue("cost")
	require.NoError(t, err)
	require.InDelta(t, 9.0, objVal.Dbl, 1e-6)
}
