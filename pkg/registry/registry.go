// pkg/registry/registry.go
package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

func LoadRegistry(path string) (*ActivityRegistry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var reg ActivityRegistry
	if err := json.Unmarshal(data, &reg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &reg, nil
}

// Find returns the activity bound to taskType, or nil.
func (r *ActivityRegistry) Find(taskType string) *Activity {
	for i := range r.Activities {
		if r.Activities[i].TaskType == taskType {
			return &r.Activities[i]
		}
	}
	return nil
}

// Validate checks that ids and task types are unique and timeouts parse.
func (r *ActivityRegistry) Validate() error {
	ids := make(map[string]bool, len(r.Activities))
	taskTypes := make(map[string]bool, len(r.Activities))
	for _, a := range r.Activities {
		if a.ID == "" || a.TaskType == "" {
			return fmt.Errorf("activity %q: id and taskType are required", a.DisplayName)
		}
		if ids[a.ID] {
			return fmt.Errorf("duplicate activity id %q", a.ID)
		}
		if taskTypes[a.TaskType] {
			return fmt.Errorf("task type %q registered twice", a.TaskType)
		}
		ids[a.ID] = true
		taskTypes[a.TaskType] = true

		if a.Timeout != "" {
			if _, err := time.ParseDuration(a.Timeout); err != nil {
				return fmt.Errorf("activity %q: invalid timeout %q", a.ID, a.Timeout)
			}
		}
		if a.Retries < 0 {
			return fmt.Errorf("activity %q: retries must not be negative", a.ID)
		}
	}
	return nil
}
