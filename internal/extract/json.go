package extract

import (
	"encoding/json"
	"fmt"
)

func extractJSON(content []byte) ([]Row, error) {
	var rows []Row
	if err := json.Unmarshal(content, &rows); err == nil {
		return rows, nil
	}
	var wrapped struct {
		Records []Row `json:"records"`
	}
	if err := json.Unmarshal(content, &wrapped); err != nil {
		return nil, fmt.Errorf("decode JSON: %w", err)
	}
	if wrapped.Records == nil {
		return nil, fmt.Errorf("decode JSON: expected an array of objects or a records array")
	}
	return wrapped.Records, nil
}
