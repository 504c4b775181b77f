package planner

import "fmt"

// ValidationError reports malformed planner input. It is raised synchronously
// before any simulation starts; planning-time infeasibility is returned as
// data inside the PlanResult instead.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}
