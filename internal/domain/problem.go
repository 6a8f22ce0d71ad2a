package domain

import "optimus-coordinator/internal/common"

// ConstantBinding names a decision variable whose just-solved value should
// be fed back into a parameter as the baseline for the worker's next solve.
type ConstantBinding struct {
	Variable string
	Value    Value
}

// ProblemDefinition is the immutable optimisation model a C2 worker holds
// until replaced by a later Define-Problem. Per spec.md §3 it is either
// fully absent or fully defined; there is no partially-defined state.
type ProblemDefinition struct {
	ProblemFile              string
	ProblemDescription       string
	DefaultObjectiveFunction string
	DataFile                 string
	NewData                  string
	// Constants maps constant-parameter name -> the decision variable whose
	// solved value feeds it, plus its initial value before any solve runs.
	Constants map[string]ConstantBinding
}

// Validate enforces the mandatory-field invariant spec.md §4.1.1 requires
// before a problem is allowed to replace the worker's held model.
func (p *ProblemDefinition) Validate() error {
	if p.ProblemFile == "" || p.ProblemDescription == "" {
		return common.MalformedProblemError("problem file name and body are both required", p)
	}
	if p.DefaultObjectiveFunction == "" {
		return common.MalformedProblemError("default objective function name is required", p)
	}
	return nil
}

// HasInitialData reports whether this problem carries a data file to be
// ingested immediately after the model loads, per spec.md §4.1.1.
func (p *ProblemDefinition) HasInitialData() bool {
	return p.DataFile != "" || p.NewData != ""
}

// DataUpdate is the payload of a Data-File-Update operation: a named DSL
// body of parameter assignments applied to the worker's held model.
type DataUpdate struct {
	DataFile string
	Body     string
}
