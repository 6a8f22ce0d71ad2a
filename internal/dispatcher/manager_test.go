package dispatcher

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"optimus-coordinator/internal/domain"
	"optimus-coordinator/internal/engine/cel"
	"optimus-coordinator/internal/messaging"
	"optimus-coordinator/internal/messaging/inprocess"
	"optimus-coordinator/internal/solver"
)

const dispatcher_testModel = `{
  "parameters": ["load"],
  "variables": [{"name": "x", "min": 0, "max": 3, "step": 1}],
  "objectives": {"cost": "load - x"}
}`

func TestManagerDispatchesSingleWorkerInTimeOrder(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bus := inprocess.NewBus()
	defer bus.Close()

	solutions := make(chan []byte, 4)
	_, err := bus.Subscribe(ctx, messaging.TopicSolution, func(_ context.Context, msg messaging.Message) {
		solutions <- msg.Payload
	})
	require.NoError(t, err)

	mgr := NewManager(bus)
	w := solver.NewWorker("w1", cel.New(), mgr.OnSolution)
	mgr.AddWorker(ctx, w)
	require.NoError(t, w.DefineProblem(ctx, &domain.ProblemDefinition{
		ProblemFile:              "p.mod",
		ProblemDescription:       dispatcher_testModel,
		DefaultObjectiveFunction: "cost",
	}))

	require.NoError(t, mgr.Enqueue(ctx, &domain.ExecContextRequest{
		Timestamp: 1000,
		Metrics:   map[string]domain.Value{"load": domain.DoubleValue(4)},
		ContextID: "first",
	}))
	require.NoError(t, mgr.Enqueue(ctx, &domain.ExecContextRequest{
		Timestamp: 2000,
		Metrics:   map[string]domain.Value{"load": domain.DoubleValue(9)},
		ContextID: "second",
	}))

	idle, busy, pending := mgr.Snapshot()
	_ = idle
	require.LessOrEqual(t, len(busy), 1)
	_ = pending

	var timestamps []domain.Timestamp
	for i := 0; i < 2; i++ {
		select {
		case payload := <-solutions:
			var sol solutionWire
			require.NoError(t, json.Unmarshal(payload, &sol))
			timestamps = append(timestamps, sol.Timestamp)
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for solution %d", i)
		}
	}

	require.Equal(t, []domain.Timestamp{1000, 2000}, timestamps)

	idle, busy, pending = mgr.Snapshot()
	require.Len(t, idle, 1)
	require.Len(t, busy, 0)
	require.Equal(t, 0, pending)
}

func TestManagerRejectsDuplicateContextID(t *testing.T) {
	ctx := context.Background()
	bus := inprocess.NewBus()
	defer bus.Close()
	mgr := NewManager(bus)

	require.NoError(t, mgr.Enqueue(ctx, &domain.ExecContextRequest{Timestamp: 1, ContextID: "dup"}))
	err := mgr.Enqueue(ctx, &domain.ExecContextRequest{Timestamp: 2, ContextID: "dup"})
	require.Error(t, err)
}
