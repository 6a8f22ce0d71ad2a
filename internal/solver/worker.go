package solver

import (
	"context"
	"log"
	"time"

	"optimus-coordinator/internal/common"
	"optimus-coordinator/internal/domain"
	"optimus-coordinator/internal/engine"
	"optimus-coordinator/internal/observability"
	"optimus-coordinator/internal/solver/state"
)

// ResultHandler is invoked once per Solve-Problem request the worker
// accepts, successful or not, so the dispatcher (C3) learns the worker is
// idle again. sol is nil when the solve failed. It is not invoked for a
// request dropped because no problem is defined, nor for one the state
// machine refuses.
type ResultHandler func(ctx context.Context, worker domain.WorkerAddress, sol *domain.Solution)

type defineProblemMsg struct {
	problem *domain.ProblemDefinition
	done    chan error
}

type dataUpdateMsg struct {
	update domain.DataUpdate
	done   chan error
}

type solveMsg struct {
	request *domain.ExecContextRequest
}

// Worker is C2: it owns one optimisation model and handles
// Define-Problem, Data-File-Update, Solve-Problem (spec.md §4.1), one
// message at a time, mirroring the teacher's per-node mailbox goroutine
// in component/queue/node_queue.go generalized from "per node" to "per
// worker".
type Worker struct {
	Address domain.WorkerAddress

	engine engine.Engine
	sm     *state.Machine

	mailbox chan interface{}

	problem        *domain.ProblemDefinition
	problemDefined bool

	onResult ResultHandler
}

func NewWorker(address domain.WorkerAddress, eng engine.Engine, onResult ResultHandler) *Worker {
	return &Worker{
		Address:  address,
		engine:   eng,
		sm:       state.NewMachine(),
		mailbox:  make(chan interface{}, 32),
		onResult: onResult,
	}
}

func (w *Worker) State() domain.WorkerState { return w.sm.Current() }

// Run drains the mailbox until ctx is cancelled, one message at a time.
func (w *Worker) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-w.mailbox:
			w.handle(ctx, msg)
		}
	}
}

func (w *Worker) handle(ctx context.Context, msg interface{}) {
	switch m := msg.(type) {
	case defineProblemMsg:
		err := w.defineProblem(ctx, m.problem)
		if m.done != nil {
			m.done <- err
		}
	case dataUpdateMsg:
		err := w.dataUpdate(ctx, m.update)
		if m.done != nil {
			m.done <- err
		}
	case solveMsg:
		w.solve(ctx, m.request)
	}
}

// DefineProblem enqueues a Define-Problem operation and waits for it to
// be processed, so callers (tests, the problem-definition topic
// handler) observe the outcome synchronously even though the worker
// itself is single-threaded.
func (w *Worker) DefineProblem(ctx context.Context, p *domain.ProblemDefinition) error {
	done := make(chan error, 1)
	select {
	case w.mailbox <- defineProblemMsg{problem: p, done: done}:
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (w *Worker) DataFileUpdate(ctx context.Context, u domain.DataUpdate) error {
	done := make(chan error, 1)
	select {
	case w.mailbox <- dataUpdateMsg{update: u, done: done}:
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Solve dispatches a Solve-Problem request. It does not block for the
// result; the worker reports the outcome through onResult, matching
// spec.md §5's "solve may block the owning worker task for seconds or
// minutes" — a caller waiting synchronously here would itself block for
// as long.
func (w *Worker) Solve(ctx context.Context, req *domain.ExecContextRequest) error {
	select {
	case w.mailbox <- solveMsg{request: req}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (w *Worker) defineProblem(ctx context.Context, p *domain.ProblemDefinition) error {
	if err := p.Validate(); err != nil {
		_ = w.sm.Apply(state.EventDefineProblemFailed)
		w.problemDefined = false
		return err
	}

	if err := w.engine.LoadProblem(ctx, p.ProblemFile, p.ProblemDescription); err != nil {
		_ = w.sm.Apply(state.EventDefineProblemFailed)
		w.problemDefined = false
		w.problem = nil
		return common.ModelInvalidError("engine rejected problem "+p.ProblemFile, p, err)
	}

	if p.HasInitialData() {
		if err := w.engine.LoadData(ctx, p.DataFile, p.NewData); err != nil {
			_ = w.sm.Apply(state.EventDefineProblemFailed)
			w.problemDefined = false
			w.problem = nil
			return common.DataInvalidError("engine rejected initial data for "+p.ProblemFile, p, err)
		}
	}

	for name, binding := range p.Constants {
		if err := w.engine.SetParameter(name, binding.Value); err != nil {
			log.Printf("solver worker %s: failed to seed constant %s: %v", w.Address, name, err)
		}
	}

	w.problem = p
	w.problemDefined = true
	return w.sm.Apply(state.EventDefineProblemSucceeded)
}

func (w *Worker) dataUpdate(ctx context.Context, u domain.DataUpdate) error {
	if err := w.engine.LoadData(ctx, u.DataFile, u.Body); err != nil {
		return common.DataInvalidError("engine rejected data update "+u.DataFile, u, err)
	}
	return nil
}

func (w *Worker) solve(ctx context.Context, req *domain.ExecContextRequest) {
	if !w.problemDefined {
		// Silently dropped: SLO violations can race with problem
		// redefinition and must not crash the worker (spec.md §4.1.3).
		log.Printf("solver worker %s: dropping solve request, no problem defined", w.Address)
		return
	}

	if err := w.sm.Apply(state.EventSolveAccepted); err != nil {
		log.Printf("solver worker %s: %v", w.Address, err)
		return
	}

	start := time.Now()
	sol, err := w.runSolve(ctx, req)
	if err != nil {
		code, _ := common.TaxonomyCodeOf(err)
		observability.ObserveSolve(start, code)
		log.Printf("solver worker %s: solve failed: %v", w.Address, err)
		_ = w.sm.Apply(state.EventSolveFailed)
		w.onResult(ctx, w.Address, nil)
		return
	}
	observability.ObserveSolve(start, "")

	_ = w.sm.Apply(state.EventSolveCompleted)
	w.onResult(ctx, w.Address, sol)
}

func (w *Worker) runSolve(ctx context.Context, req *domain.ExecContextRequest) (*domain.Solution, error) {
	for name, v := range req.Metrics {
		if err := domain.ValidateKind(v.Kind); err != nil {
			return nil, err
		}
		if err := w.engine.SetParameter(name, v); err != nil {
			return nil, err
		}
	}

	objective := w.problem.DefaultObjectiveFunction
	if req.ObjectiveFunction != nil && *req.ObjectiveFunction != "" {
		objective = *req.ObjectiveFunction
	}
	if objective == "" {
		return nil, common.NoObjectiveSelectedError("no objective selected for solve", req)
	}

	found := false
	for _, name := range w.engine.Objectives() {
		if name == objective {
			found = true
		}
	}
	if !found {
		return nil, common.UnknownObjectiveError("objective not declared by problem", objective)
	}
	for _, name := range w.engine.Objectives() {
		if name != objective {
			if err := w.engine.DisableObjective(name); err != nil {
				return nil, err
			}
		}
	}
	if err := w.engine.EnableObjective(objective); err != nil {
		return nil, err
	}

	if err := w.engine.Solve(ctx); err != nil {
		return nil, common.SolveFailedError("engine solve failed", req, err)
	}

	objValues := make(map[string]domain.Value)
	for _, name := range w.engine.Objectives() {
		v, err := w.engine.ObjectiveValue(name)
		if err != nil {
			continue
		}
		objValues[name] = v
	}

	varValues := make(map[string]domain.Value)
	for _, name := range w.engine.Variables() {
		v, err := w.engine.VariableValue(name)
		if err != nil {
			continue
		}
		varValues[name] = v
	}

	if req.DeploySolution {
		for constParamName, binding := range w.problem.Constants {
			if v, ok := varValues[binding.Variable]; ok {
				if err := w.engine.SetParameter(constParamName, v); err != nil {
					log.Printf("solver worker %s: failed to feed back constant %s: %v", w.Address, constParamName, err)
				}
			}
		}
	}

	return &domain.Solution{
		Timestamp:         req.Timestamp,
		ObjectiveFunction: objective,
		ObjectiveValues:   objValues,
		VariableValues:    varValues,
		DeploySolution:    req.DeploySolution,
	}, nil
}
