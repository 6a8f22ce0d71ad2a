package cel

import (
	"encoding/json"

	"optimus-coordinator/internal/domain"
)

func unmarshalAssignments(body string, out *map[string]domain.Value) error {
	return json.Unmarshal([]byte(body), out)
}
