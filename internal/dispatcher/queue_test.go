package dispatcher

import (
	"testing"

	"github.com/stretchr/testify/require"

	"optimus-coordinator/internal/domain"
)

func TestQueueOrdersByTimestampThenArrival(t *testing.T) {
	q := NewQueue()
	require.NoError(t, q.Enqueue(&domain.ExecContextRequest{Timestamp: 2000, ContextID: "b"}))
	require.NoError(t, q.Enqueue(&domain.ExecContextRequest{Timestamp: 1000, ContextID: "a"}))
	require.NoError(t, q.Enqueue(&domain.ExecContextRequest{Timestamp: 1000, ContextID: "c"}))

	first, ok := q.PopEarliest()
	require.True(t, ok)
	require.Equal(t, "a", first.ContextID)

	second, ok := q.PopEarliest()
	require.True(t, ok)
	require.Equal(t, "c", second.ContextID)

	third, ok := q.PopEarliest()
	require.True(t, ok)
	require.Equal(t, "b", third.ContextID)

	_, ok = q.PopEarliest()
	require.False(t, ok)
}

func TestQueueRejectsDuplicateContextID(t *testing.T) {
	q := NewQueue()
	require.NoError(t, q.Enqueue(&domain.ExecContextRequest{Timestamp: 1, ContextID: "x"}))
	err := q.Enqueue(&domain.ExecContextRequest{Timestamp: 2, ContextID: "x"})
	require.Error(t, err)
	require.Equal(t, 1, q.Len())
}
