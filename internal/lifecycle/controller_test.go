package lifecycle

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"optimus-coordinator/internal/messaging"
	"optimus-coordinator/internal/messaging/inprocess"
	"optimus-coordinator/internal/statuspub"
)

func TestControllerStopWakesWaiters(t *testing.T) {
	ctx := context.Background()
	bus := inprocess.NewBus()
	defer bus.Close()

	c := NewController(bus, statuspub.NewRecorder(bus))
	require.NoError(t, c.Start(ctx))
	require.True(t, c.Running())

	waited := make(chan struct{})
	go func() {
		c.WaitUntilStopped(ctx)
		close(waited)
	}()

	c.Stop(ctx)

	select {
	case <-waited:
	case <-time.After(time.Second):
		t.Fatal("WaitUntilStopped did not return after Stop")
	}
	require.False(t, c.Running())
}

func TestControllerStopTopicTriggersStop(t *testing.T) {
	ctx := context.Background()
	bus := inprocess.NewBus()
	defer bus.Close()

	c := NewController(bus, nil)
	require.NoError(t, c.Start(ctx))

	require.NoError(t, bus.Publish(ctx, messaging.TopicStop, nil))

	require.Eventually(t, func() bool {
		return !c.Running()
	}, time.Second, 10*time.Millisecond)
}

func TestControllerWaitUntilStoppedRespectsContextCancellation(t *testing.T) {
	bus := inprocess.NewBus()
	defer bus.Close()
	c := NewController(bus, nil)

	ctx, cancel := context.WithCancel(context.Background())
	waited := make(chan struct{})
	go func() {
		c.WaitUntilStopped(ctx)
		close(waited)
	}()

	cancel()

	select {
	case <-waited:
	case <-time.After(time.Second):
		t.Fatal("WaitUntilStopped did not honour context cancellation")
	}
}
