package dispatcher

import (
	"encoding/json"

	"optimus-coordinator/internal/domain"
)

// execContextWire is the exec-context payload shape spec.md §6 names:
// {Timestamp, ObjectiveFunction?, ExecutionContext, DeploySolution}.
type execContextWire struct {
	Timestamp         domain.Timestamp         `json:"Timestamp"`
	ObjectiveFunction *string                  `json:"ObjectiveFunction,omitempty"`
	ExecutionContext  map[string]domain.Value  `json:"ExecutionContext"`
	DeploySolution    bool                     `json:"DeploySolution"`
	ContextID         string                   `json:"ContextId,omitempty"`
}

func decodeExecContext(payload []byte) (*domain.ExecContextRequest, error) {
	var wire execContextWire
	if err := json.Unmarshal(payload, &wire); err != nil {
		return nil, err
	}
	return &domain.ExecContextRequest{
		Timestamp:         wire.Timestamp,
		ObjectiveFunction: wire.ObjectiveFunction,
		Metrics:           wire.ExecutionContext,
		DeploySolution:    wire.DeploySolution,
		ContextID:         wire.ContextID,
	}, nil
}

func encodeExecContext(req *domain.ExecContextRequest) ([]byte, error) {
	wire := execContextWire{
		Timestamp:         req.Timestamp,
		ObjectiveFunction: req.ObjectiveFunction,
		ExecutionContext:  req.Metrics,
		DeploySolution:    req.DeploySolution,
		ContextID:         req.ContextID,
	}
	return json.Marshal(wire)
}

// solutionWire is the solution payload shape spec.md §6 names.
type solutionWire struct {
	Timestamp         domain.Timestamp           `json:"Timestamp"`
	ObjectiveFunction string                     `json:"ObjectiveFunction"`
	ObjectiveValues   map[string]domain.Value    `json:"ObjectiveValues"`
	VariableValues    map[string]domain.Value    `json:"VariableValues"`
	DeploySolution    bool                       `json:"DeploySolution"`
}

func encodeSolution(sol *domain.Solution) ([]byte, error) {
	wire := solutionWire{
		Timestamp:         sol.Timestamp,
		ObjectiveFunction: sol.ObjectiveFunction,
		ObjectiveValues:   sol.ObjectiveValues,
		VariableValues:    sol.VariableValues,
		DeploySolution:    sol.DeploySolution,
	}
	return json.Marshal(wire)
}
