package profile

import (
	"encoding/json"
	"fmt"
	"os"
)

// TargetSpec is one assignment target: a named spec with a free-text
// description and the capability tags it requires.
type TargetSpec struct {
	Name         string   `json:"name"`
	Description  string   `json:"description,omitempty"`
	RequiredTags []string `json:"required_tags,omitempty"`
}

type targetsFile struct {
	Targets []*TargetSpec `json:"targets"`
}

// LoadTargets reads target specifications from a JSON file of the shape
// {"targets": [...]}.
func LoadTargets(path string) ([]*TargetSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading targets from %q: %w", path, err)
	}

	var parsed targetsFile
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("parsing targets from %q: %w", path, err)
	}

	return parsed.Targets, nil
}
