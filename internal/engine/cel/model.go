package cel

import (
	"encoding/json"

	"optimus-coordinator/internal/common"
)

// variableDoc declares one decision variable's search domain.
type variableDoc struct {
	Name string  `json:"name"`
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
	Step float64 `json:"step"`
}

// modelDoc is the reference engine's problem DSL: a JSON document naming
// parameters, decision variables and one CEL expression per objective.
type modelDoc struct {
	Parameters []string          `json:"parameters"`
	Variables  []variableDoc     `json:"variables"`
	Objectives map[string]string `json:"objectives"`
}

func parseModelDoc(body string) (*modelDoc, error) {
	var doc modelDoc
	if err := json.Unmarshal([]byte(body), &doc); err != nil {
		return nil, common.ModelInvalidError("problem body is not a valid model document", body, err)
	}
	if len(doc.Objectives) == 0 {
		return nil, common.ModelInvalidError("model document declares no objectives", body, nil)
	}
	for i := range doc.Variables {
		if doc.Variables[i].Step <= 0 {
			doc.Variables[i].Step = 1
		}
		if doc.Variables[i].Max < doc.Variables[i].Min {
			return nil, common.ModelInvalidError("variable max below min", doc.Variables[i], nil)
		}
	}
	return &doc, nil
}
