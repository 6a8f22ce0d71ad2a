package metricupdater

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"optimus-coordinator/internal/domain"
	"optimus-coordinator/internal/messaging"
	"optimus-coordinator/internal/messaging/inprocess"
)

type fakeDispatcher struct {
	requests chan *domain.ExecContextRequest
	err      error
}

func newFakeDispatcher() *fakeDispatcher {
	return &fakeDispatcher{requests: make(chan *domain.ExecContextRequest, 4)}
}

func (f *fakeDispatcher) Enqueue(_ context.Context, req *domain.ExecContextRequest) error {
	if f.err != nil {
		return f.err
	}
	f.requests <- req
	return nil
}

func publish(t *testing.T, ctx context.Context, bus *inprocess.Bus, topic string, v interface{}) {
	t.Helper()
	payload, err := json.Marshal(v)
	require.NoError(t, err)
	require.NoError(t, bus.Publish(ctx, topic, payload))
	time.Sleep(10 * time.Millisecond)
}

func TestUpdaterTracksMetricListAndValues(t *testing.T) {
	ctx := context.Background()
	bus := inprocess.NewBus()
	defer bus.Close()
	disp := newFakeDispatcher()
	u := NewUpdater(bus, disp)
	require.NoError(t, u.Start(ctx))
	defer u.Stop()

	publish(t, ctx, bus, messaging.TopicMetricList, metricListWire{Metrics: []string{"load", "latency"}})
	require.ElementsMatch(t, []string{"load", "latency"}, u.Registry().Names())
	require.False(t, u.Registry().AllValuesSet())

	publish(t, ctx, bus, messaging.TopicMetricValuePrefix+"load", metricValueWire{
		Value:     domain.DoubleValue(4.2),
		Timestamp: 100,
	})
	snap := u.Registry().Snapshot()
	require.Equal(t, domain.DoubleValue(4.2), snap["load"])
	require.False(t, u.Registry().ScanAllValuesSet())

	publish(t, ctx, bus, messaging.TopicMetricValuePrefix+"latency", metricValueWire{
		Value:     domain.DoubleValue(9),
		Timestamp: 200,
	})
	require.True(t, u.Registry().ScanAllValuesSet())

	publish(t, ctx, bus, messaging.TopicMetricList, metricListWire{Metrics: []string{"load"}})
	require.ElementsMatch(t, []string{"load"}, u.Registry().Names())
}

func TestUpdaterHonoursSLOViolationOnlyWhenRunningAndComplete(t *testing.T) {
	ctx := context.Background()
	bus := inprocess.NewBus()
	defer bus.Close()
	disp := newFakeDispatcher()
	u := NewUpdater(bus, disp)
	require.NoError(t, u.Start(ctx))
	defer u.Stop()

	publish(t, ctx, bus, messaging.TopicSLOViolation, sloViolationWire{DeploySolution: true})
	select {
	case <-disp.requests:
		t.Fatal("SLO violation honoured while lifecycle was never Running")
	default:
	}

	publish(t, ctx, bus, messaging.TopicAppLifecycle, appLifecycleWire{State: "RUNNING"})
	publish(t, ctx, bus, messaging.TopicSLOViolation, sloViolationWire{DeploySolution: true})
	select {
	case <-disp.requests:
		t.Fatal("SLO violation honoured with an empty registry")
	default:
	}

	publish(t, ctx, bus, messaging.TopicMetricList, metricListWire{Metrics: []string{"load"}})
	publish(t, ctx, bus, messaging.TopicSLOViolation, sloViolationWire{DeploySolution: true})
	select {
	case <-disp.requests:
		t.Fatal("SLO violation honoured with a null metric record")
	default:
	}

	publish(t, ctx, bus, messaging.TopicMetricValuePrefix+"load", metricValueWire{
		Value:     domain.DoubleValue(7),
		Timestamp: 50,
	})
	publish(t, ctx, bus, messaging.TopicSLOViolation, sloViolationWire{DeploySolution: true, ContextID: "slo-1"})

	select {
	case req := <-disp.requests:
		require.Equal(t, "slo-1", req.ContextID)
		require.Equal(t, domain.DoubleValue(7), req.Metrics["load"])
		require.Equal(t, domain.AppStateDeploying, u.Lifecycle())
	case <-time.After(time.Second):
		t.Fatal("expected a synthesized exec-context request")
	}
}
