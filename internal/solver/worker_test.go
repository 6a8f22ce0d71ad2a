package solver

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"optimus-coordinator/internal/domain"
	"optimus-coordinator/internal/engine/cel"
)

const worker_testModel = `{
  "parameters": ["load"],
  "variables": [{"name": "x", "min": 0, "max": 5, "step": 1}],
  "objectives": {"cost": "load - x", "latency": "x * 2.0"}
}`

func newTestWorker(t *testing.T) (*Worker, chan *domain.Solution) {
	t.Helper()
	results := make(chan *domain.Solution, 4)
	w := NewWorker("w1", cel.New(), func(_ context.Context, _ domain.WorkerAddress, sol *domain.Solution) {
		results <- sol
	})
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go w.Run(ctx)
	return w, results
}

func TestWorkerHappyPath(t *testing.T) {
	w, results := newTestWorker(t)
	ctx := context.Background()

	err := w.DefineProblem(ctx, &domain.ProblemDefinition{
		ProblemFile:              "p.mod",
		ProblemDescription:       worker_testModel,
		DefaultObjectiveFunction: "cost",
	})
	require.NoError(t, err)
	require.Equal(t, domain.WorkerIdle, w.State())

	require.NoError(t, w.Solve(ctx, &domain.ExecContextRequest{
		Timestamp:      2000,
		Metrics:        map[string]domain.Value{"load": domain.DoubleValue(4)},
		DeploySolution: true,
	}))

	select {
	case sol := <-results:
		require.NotNil(t, sol)
		require.Equal(t, "cost", sol.ObjectiveFunction)
		require.Contains(t, sol.ObjectiveValues, "cost")
		require.Contains(t, sol.VariableValues, "x")
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for solution")
	}

	require.Eventually(t, func() bool { return w.State() == domain.WorkerIdle }, time.Second, 5*time.Millisecond)
}

func TestWorkerSolveDroppedWithoutProblem(t *testing.T) {
	w, results := newTestWorker(t)
	require.NoError(t, w.Solve(context.Background(), &domain.ExecContextRequest{Timestamp: 1}))

	select {
	case <-results:
		t.Fatal("solve should have been silently dropped")
	case <-time.After(100 * time.Millisecond):
	}
	require.Equal(t, domain.WorkerUndefined, w.State())
}

func TestWorkerUnknownObjectiveReturnsToIdle(t *testing.T) {
	w, results := newTestWorker(t)
	ctx := context.Background()

	require.NoError(t, w.DefineProblem(ctx, &domain.ProblemDefinition{
		ProblemFile:              "p.mod",
		ProblemDescription:       worker_testModel,
		DefaultObjectiveFunction: "cost",
	}))

	badObjective := "unknown"
	require.NoError(t, w.Solve(ctx, &domain.ExecContextRequest{
		Timestamp:         1,
		ObjectiveFunction: &badObjective,
		Metrics:           map[string]domain.Value{"load": domain.DoubleValue(1)},
	}))

	var mu sync.Mutex
	var got *domain.Solution
	got = nil
	select {
	case sol := <-results:
		mu.Lock()
		got = sol
		mu.Unlock()
	case <-time.After(time.Second):
	}
	require.Nil(t, got)
	require.Eventually(t, func() bool { return w.State() == domain.WorkerIdle }, time.Second, 5*time.Millisecond)
}

func TestWorkerMalformedProblemRejected(t *testing.T) {
	w, _ := newTestWorker(t)
	err := w.DefineProblem(context.Background(), &domain.ProblemDefinition{})
	require.Error(t, err)
	require.Equal(t, domain.WorkerUndefined, w.State())
}
