package dispatcher

import (
	"sort"
	"sync"
	"time"

	"optimus-coordinator/internal/common"
	"optimus-coordinator/internal/domain"
	"optimus-coordinator/internal/observability"
)

// entry pairs a request with its arrival sequence number. Ties on
// Timestamp break by arrival order (spec.md §3, §4.2 guarantee (iv))
// because Enqueue appends and then sorts stably; seq is not consulted.
// enqueuedAt is wall-clock, used only for the dispatch-latency metric.
type entry struct {
	request    *domain.ExecContextRequest
	seq        uint64
	enqueuedAt time.Time
}

// Queue is the time-ordered multi-sequence of pending requests spec.md
// §3/§9 describes: a sorted container with stable insertion order. It
// has no teacher analogue (the teacher's coordination/manager.go is a
// TTL status cache, not an ordered queue) and is written fresh to the
// spec's exact ordering semantics.
type Queue struct {
	mu      sync.Mutex
	entries []entry
	nextSeq uint64
	ids     map[string]struct{}
}

func NewQueue() *Queue {
	return &Queue{ids: make(map[string]struct{})}
}

// Enqueue appends req in time order. A duplicate ContextID is rejected
// rather than merged (spec.md §9 open question (c)).
func (q *Queue) Enqueue(req *domain.ExecContextRequest) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if req.ContextID != "" {
		if _, exists := q.ids[req.ContextID]; exists {
			return common.DuplicateContextIDError("context id already pending", req.ContextID)
		}
		q.ids[req.ContextID] = struct{}{}
	}

	q.entries = append(q.entries, entry{request: req, seq: q.nextSeq, enqueuedAt: time.Now()})
	q.nextSeq++
	sort.SliceStable(q.entries, func(i, j int) bool {
		return q.entries[i].request.Timestamp < q.entries[j].request.Timestamp
	})
	observability.QueueDepth.Set(float64(len(q.entries)))
	return nil
}

// PopEarliest removes and returns the earliest-timestamp, earliest
// arrival-order request, or (nil, false) if the queue is empty.
func (q *Queue) PopEarliest() (*domain.ExecContextRequest, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.entries) == 0 {
		return nil, false
	}
	e := q.entries[0]
	q.entries = q.entries[1:]
	if e.request.ContextID != "" {
		delete(q.ids, e.request.ContextID)
	}
	observability.QueueDepth.Set(float64(len(q.entries)))
	observability.DispatchLatency.Observe(time.Since(e.enqueuedAt).Seconds())
	return e.request, true
}

func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.entries)
}
