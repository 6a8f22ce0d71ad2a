package cel

import (
	"context"
	"math"

	"github.com/google/cel-go/cel"

	"optimus-coordinator/internal/common"
	"optimus-coordinator/internal/domain"
)

// search performs an exhaustive grid search over every declared
// variable's domain, maximising prog, and returns the best objective
// value found, every objective's value at that point, and the winning
// variable assignment.
func (e *Engine) search(ctx context.Context, doc *modelDoc, prog cel.Program) (float64, map[string]domain.Value, map[string]domain.Value, error) {
	domains := make([][]float64, len(doc.Variables))
	total := 1
	for i, v := range doc.Variables {
		var vals []float64
		for x := v.Min; x <= v.Max+1e-9; x += v.Step {
			vals = append(vals, x)
		}
		if len(vals) == 0 {
			vals = []float64{v.Min}
		}
		domains[i] = vals
		total *= len(vals)
		if total > maxGridEvaluations {
			return 0, nil, nil, common.SolveFailedError("variable search space exceeds the reference engine's grid limit", doc.Variables, nil)
		}
	}

	e.mu.Lock()
	baseParams := make(map[string]float64, len(e.params))
	for k, v := range e.params {
		baseParams[k] = v
	}
	e.mu.Unlock()

	best := math.Inf(-1)
	var bestAssignment map[string]float64
	assignment := make(map[string]float64, len(doc.Variables))

	var recurse func(idx int) error
	recurse = func(idx int) error {
		if idx == len(doc.Variables) {
			if err := ctx.Err(); err != nil {
				return err
			}
			activation := make(map[string]interface{}, len(baseParams)+len(assignment))
			for k, v := range baseParams {
				activation[k] = v
			}
			for k, v := range assignment {
				activation[k] = v
			}
			out, _, err := prog.Eval(activation)
			if err != nil {
				return common.SolveFailedError("objective expression failed to evaluate", activation, err)
			}
			val, ok := out.Value().(float64)
			if !ok {
				if iv, ok := out.Value().(int64); ok {
					val = float64(iv)
				} else {
					return common.SolveFailedError("objective expression did not return a numeric value", out.Value(), nil)
				}
			}
			if val > best {
				best = val
				bestAssignment = make(map[string]float64, len(assignment))
				for k, v := range assignment {
					bestAssignment[k] = v
				}
			}
			return nil
		}
		v := doc.Variables[idx]
		for _, x := range domains[idx] {
			assignment[v.Name] = x
			if err := recurse(idx + 1); err != nil {
				return err
			}
		}
		return nil
	}

	if err := recurse(0); err != nil {
		return 0, nil, nil, err
	}

	if bestAssignment == nil {
		bestAssignment = map[string]float64{}
	}

	activation := make(map[string]interface{}, len(baseParams)+len(bestAssignment))
	for k, v := range baseParams {
		activation[k] = v
	}
	for k, v := range bestAssignment {
		activation[k] = v
	}

	objs := make(map[string]domain.Value, len(e.progs))
	for name, p := range e.progs {
		out, _, err := p.Eval(activation)
		if err != nil {
			return 0, nil, nil, common.SolveFailedError("objective "+name+" failed to evaluate at the chosen point", activation, err)
		}
		if f, ok := out.Value().(float64); ok {
			objs[name] = domain.DoubleValue(f)
		} else if i, ok := out.Value().(int64); ok {
			objs[name] = domain.IntValue(i)
		}
	}

	vars := make(map[string]domain.Value, len(bestAssignment))
	for name, v := range bestAssignment {
		vars[name] = domain.DoubleValue(v)
	}

	return best, objs, vars, nil
}
