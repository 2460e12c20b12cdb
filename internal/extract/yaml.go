package extract

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

func extractYAML(content []byte) ([]Row, error) {
	var rows []Row
	if err := yaml.Unmarshal(content, &rows); err == nil {
		return rows, nil
	}
	var wrapped struct {
		Records []Row `yaml:"records"`
	}
	if err := yaml.Unmarshal(content, &wrapped); err != nil {
		return nil, fmt.Errorf("decode YAML: %w", err)
	}
	if wrapped.Records == nil {
		return nil, fmt.Errorf("decode YAML: expected a list of maps or a records list")
	}
	return wrapped.Records, nil
}
