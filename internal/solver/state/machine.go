package state

import (
	"fmt"
	"sync"

	"optimus-coordinator/internal/domain"
)

// transitionMatrix enumerates every (state, event) pair the worker
// accepts, grounded on the teacher's state.EventDispatcher
// buildTransitionMatrix pattern. A worker is single-threaded (spec.md
// §4.5), so unlike the teacher's per-node state machine this one never
// needs OnEnter/OnExit side effects against an external resource —
// transitions are pure bookkeeping the worker applies around its own
// Define-Problem/Data-File-Update/Solve-Problem handling.
func buildTransitionMatrix() map[domain.WorkerState]map[Event]domain.WorkerState {
	return map[domain.WorkerState]map[Event]domain.WorkerState{
		domain.WorkerUndefined: {
			EventDefineProblemSucceeded: domain.WorkerIdle,
			EventDefineProblemFailed:    domain.WorkerUndefined,
		},
		domain.WorkerIdle: {
			EventDefineProblemSucceeded: domain.WorkerIdle,
			EventDefineProblemFailed:    domain.WorkerUndefined,
			EventDataFileUpdated:        domain.WorkerIdle,
			EventSolveAccepted:          domain.WorkerWorking,
		},
		domain.WorkerWorking: {
			EventSolveCompleted: domain.WorkerIdle,
			EventSolveFailed:    domain.WorkerIdle,
		},
	}
}

// Machine is a mutex-guarded worker state machine. Workers only ever
// have one goroutine driving it, but the current state is also read
// through Worker.State from other goroutines, so it still needs the
// guard.
type Machine struct {
	mu     sync.RWMutex
	state  domain.WorkerState
	matrix map[domain.WorkerState]map[Event]domain.WorkerState
}

func NewMachine() *Machine {
	return &Machine{
		state:  domain.WorkerUndefined,
		matrix: buildTransitionMatrix(),
	}
}

func (m *Machine) Current() domain.WorkerState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// Apply validates event against the current state and transitions if
// valid. It returns an error naming the invalid transition rather than
// panicking, since a worker must never crash on a data/ordering error
// (spec.md §7 propagation policy).
func (m *Machine) Apply(event Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	transitions, ok := m.matrix[m.state]
	if !ok {
		return fmt.Errorf("no transitions defined for worker state %s", m.state)
	}
	next, ok := transitions[event]
	if !ok {
		return fmt.Errorf("event %s is not valid for worker state %s", event, m.state)
	}
	m.state = next
	return nil
}
