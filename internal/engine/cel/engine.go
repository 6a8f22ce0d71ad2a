package cel

import (
	"context"
	"sync"

	"github.com/google/cel-go/cel"

	"optimus-coordinator/internal/common"
	"optimus-coordinator/internal/domain"
	"optimus-coordinator/internal/engine"
)

// maxGridEvaluations bounds the exhaustive grid search so a careless
// variable domain (a huge range with a tiny step) cannot hang a worker
// forever; it fails the solve instead, the same as any other engine
// rejecting a model it cannot handle.
const maxGridEvaluations = 200000

// Engine is the CEL-expression reference implementation of
// engine.Engine. Register adds it to an engine.Factory under the "cel"
// algorithm name, which is also cmd/app's default engine.algorithm.
type Engine struct {
	mu sync.Mutex

	doc  *modelDoc
	env  *cel.Env
	progs map[string]cel.Program

	params       map[string]float64
	stringParams map[string]string

	active string

	solvedVars map[string]domain.Value
	solvedObjs map[string]domain.Value
}

// New returns an Engine with no problem loaded.
func New() *Engine {
	return &Engine{
		params:       make(map[string]float64),
		stringParams: make(map[string]string),
	}
}

// Register adds the "cel" constructor to f.
func Register(f *engine.Factory) {
	f.Register("cel", func(string) (engine.Engine, error) {
		return New(), nil
	})
}

func (e *Engine) LoadProblem(_ context.Context, fileName, body string) error {
	doc, err := parseModelDoc(body)
	if err != nil {
		return err
	}

	var vars []cel.EnvOption
	for _, p := range doc.Parameters {
		vars = append(vars, cel.Variable(p, cel.DoubleType))
	}
	for _, v := range doc.Variables {
		vars = append(vars, cel.Variable(v.Name, cel.DoubleType))
	}

	env, err := cel.NewEnv(vars...)
	if err != nil {
		return common.ModelInvalidError("failed to build CEL environment for "+fileName, doc, err)
	}

	progs := make(map[string]cel.Program, len(doc.Objectives))
	for name, expr := range doc.Objectives {
		ast, issues := env.Compile(expr)
		if issues != nil && issues.Err() != nil {
			return common.ModelInvalidError("failed to compile objective "+name, expr, issues.Err())
		}
		prog, err := env.Program(ast)
		if err != nil {
			return common.ModelInvalidError("failed to build program for objective "+name, expr, err)
		}
		progs[name] = prog
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.doc = doc
	e.env = env
	e.progs = progs
	e.params = make(map[string]float64)
	e.stringParams = make(map[string]string)
	e.active = ""
	e.solvedVars = nil
	e.solvedObjs = nil
	return nil
}

func (e *Engine) LoadData(_ context.Context, fileName, body string) error {
	var assignments map[string]domain.Value
	if err := unmarshalAssignments(body, &assignments); err != nil {
		return common.DataInvalidError("data file "+fileName+" is not a valid assignment document", body, err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	for name, v := range assignments {
		e.setParameterLocked(name, v)
	}
	return nil
}

func (e *Engine) SetParameter(name string, value domain.Value) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.setParameterLocked(name, value)
	return nil
}

func (e *Engine) setParameterLocked(name string, value domain.Value) {
	if value.Kind == domain.ValueKindString {
		e.stringParams[name] = value.Str
		return
	}
	f, err := value.AsFloat64()
	if err != nil {
		// Unsupported kinds are rejected earlier, at the C2 coercion
		// step; a value reaching here with no numeric coercion is kept
		// out of the CEL environment rather than crashing the worker.
		return
	}
	e.params[name] = f
}

func (e *Engine) Objectives() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	names := make([]string, 0, len(e.progs))
	for name := range e.progs {
		names = append(names, name)
	}
	return names
}

func (e *Engine) EnableObjective(name string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.progs[name]; !ok {
		return common.UnknownObjectiveError("objective not declared by model", name)
	}
	e.active = name
	return nil
}

func (e *Engine) DisableObjective(name string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.active == name {
		e.active = ""
	}
	return nil
}

func (e *Engine) ObjectiveValue(name string) (domain.Value, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	v, ok := e.solvedObjs[name]
	if !ok {
		return domain.Value{}, common.NotFoundError("objective %s has no solved value", name)
	}
	return v, nil
}

func (e *Engine) Variables() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	names := make([]string, 0, len(e.doc.Variables))
	for _, v := range e.doc.Variables {
		names = append(names, v.Name)
	}
	return names
}

func (e *Engine) VariableValue(name string) (domain.Value, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	v, ok := e.solvedVars[name]
	if !ok {
		return domain.Value{}, common.NotFoundError("variable %s has no solved value", name)
	}
	return v, nil
}

func (e *Engine) Solve(ctx context.Context) error {
	e.mu.Lock()
	doc := e.doc
	active := e.active
	prog, ok := e.progs[active]
	e.mu.Unlock()

	if doc == nil {
		return common.ModelInvalidError("solve requested before a problem was loaded", nil, nil)
	}
	if !ok {
		return common.NoObjectiveSelectedError("no objective enabled for solve", active)
	}

	best, bestObjs, bestVars, err := e.search(ctx, doc, prog)
	if err != nil {
		return err
	}
	_ = best

	e.mu.Lock()
	e.solvedVars = bestVars
	e.solvedObjs = bestObjs
	e.mu.Unlock()
	return nil
}
