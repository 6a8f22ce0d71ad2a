package inprocess

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"optimus-coordinator/internal/messaging"
)

func TestBusDeliversExactTopic(t *testing.T) {
	bus := NewBus()
	defer bus.Close()

	var mu sync.Mutex
	var got []string
	unsub, err := bus.Subscribe(context.Background(), "status", func(_ context.Context, msg messaging.Message) {
		mu.Lock()
		got = append(got, string(msg.Payload))
		mu.Unlock()
	})
	require.NoError(t, err)
	defer unsub()

	require.NoError(t, bus.Publish(context.Background(), "status", []byte("hello")))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 1 && got[0] == "hello"
	}, time.Second, 5*time.Millisecond)
}

func TestBusWildcardSubscription(t *testing.T) {
	bus := NewBus()
	defer bus.Close()

	received := make(chan string, 1)
	unsub, err := bus.Subscribe(context.Background(), "metric-value.*", func(_ context.Context, msg messaging.Message) {
		received <- msg.Topic
	})
	require.NoError(t, err)
	defer unsub()

	require.NoError(t, bus.Publish(context.Background(), "metric-value.load", []byte("4.0")))

	select {
	case topic := <-received:
		require.Equal(t, "metric-value.load", topic)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for wildcard delivery")
	}
}

func TestBusCloseStopsDelivery(t *testing.T) {
	bus := NewBus()
	received := make(chan struct{}, 1)
	_, err := bus.Subscribe(context.Background(), "stop", func(context.Context, messaging.Message) {
		received <- struct{}{}
	})
	require.NoError(t, err)

	require.NoError(t, bus.Close())
	require.NoError(t, bus.Publish(context.Background(), "stop", nil))

	select {
	case <-received:
		t.Fatal("handler ran after bus was closed")
	case <-time.After(50 * time.Millisecond):
	}
}
