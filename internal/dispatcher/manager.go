package dispatcher

import (
	"context"
	"log"
	"sync"

	"optimus-coordinator/internal/domain"
	"optimus-coordinator/internal/messaging"
	"optimus-coordinator/internal/solver"
)

// Manager is C3: it owns the pool of solver workers, the time-ordered
// request queue, and the idle/busy address sets (spec.md §4.2). The
// mutex-guarded-map discipline is grounded on the teacher's
// coordination.Manager, generalized from a read-through status cache to
// the dispatcher's own idle/busy bookkeeping — spec.md requires the set
// mutation to happen only inside this component, which a single mutex
// gives for free.
type Manager struct {
	mu      sync.Mutex
	idle    map[domain.WorkerAddress]*solver.Worker
	busy    map[domain.WorkerAddress]*solver.Worker
	queue   *Queue
	broker  messaging.Broker
}

func NewManager(broker messaging.Broker) *Manager {
	return &Manager{
		idle:   make(map[domain.WorkerAddress]*solver.Worker),
		busy:   make(map[domain.WorkerAddress]*solver.Worker),
		queue:  NewQueue(),
		broker: broker,
	}
}

// AddWorker registers w as idle and starts its mailbox loop. Workers are
// static for the process lifetime (spec.md §3 "full worker pool").
func (m *Manager) AddWorker(ctx context.Context, w *solver.Worker) {
	m.mu.Lock()
	m.idle[w.Address] = w
	m.mu.Unlock()
	go w.Run(ctx)
}

// Enqueue is C3's Enqueue operation: append then immediately try to
// dispatch (spec.md §4.2).
func (m *Manager) Enqueue(ctx context.Context, req *domain.ExecContextRequest) error {
	if err := m.queue.Enqueue(req); err != nil {
		return err
	}
	m.TryDispatch(ctx)
	return nil
}

// TryDispatch drains the queue against idle workers while both are
// non-empty (spec.md §4.2 guarantee (iii)).
func (m *Manager) TryDispatch(ctx context.Context) {
	for {
		m.mu.Lock()
		if len(m.idle) == 0 {
			m.mu.Unlock()
			return
		}
		var addr domain.WorkerAddress
		var w *solver.Worker
		for a, worker := range m.idle {
			addr, w = a, worker
			break
		}
		req, ok := m.queue.PopEarliest()
		if !ok {
			m.mu.Unlock()
			return
		}
		delete(m.idle, addr)
		m.busy[addr] = w
		m.mu.Unlock()

		if err := w.Solve(ctx, req); err != nil {
			log.Printf("dispatcher: failed to hand request to worker %s: %v", addr, err)
			m.mu.Lock()
			delete(m.busy, addr)
			m.idle[addr] = w
			m.mu.Unlock()
			return
		}
	}
}

// OnSolution is C3's callback from a worker (solver.ResultHandler):
// publish the solution if present, move the worker back to idle, and
// drain any remaining queue (spec.md §4.2).
func (m *Manager) OnSolution(ctx context.Context, addr domain.WorkerAddress, sol *domain.Solution) {
	m.mu.Lock()
	if w, ok := m.busy[addr]; ok {
		delete(m.busy, addr)
		m.idle[addr] = w
	}
	m.mu.Unlock()

	if sol != nil {
		payload, err := encodeSolution(sol)
		if err != nil {
			log.Printf("dispatcher: failed to encode solution from %s: %v", addr, err)
		} else if err := m.broker.Publish(ctx, messaging.TopicSolution, payload); err != nil {
			log.Printf("dispatcher: failed to publish solution from %s: %v", addr, err)
		}
	}

	m.TryDispatch(ctx)
}

// Snapshot reports the current idle/busy address sets, used by the
// status HTTP endpoint (SPEC_FULL.md worker health introspection).
func (m *Manager) Snapshot() (idle, busy []domain.WorkerAddress, pending int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for a := range m.idle {
		idle = append(idle, a)
	}
	for a := range m.busy {
		busy = append(busy, a)
	}
	return idle, busy, m.queue.Len()
}
