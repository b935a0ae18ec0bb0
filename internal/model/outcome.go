package model

//
// Outcomes
//

import "time"

// Outcome is the tri-state classification of a scenario.
type Outcome int

const (
	// Success means both processes exited with [ExitSuccess].
	Success Outcome = iota

	// Failure means the scenario was attempted and something broke.
	Failure

	// Unimplemented means at least one backend declared it does not
	// support the scenario by exiting with [ExitUnimplemented].
	Unimplemented
)

// String implements fmt.Stringer.
func (o Outcome) String() string {
	switch o {
	case Success:
		return "success"
	case Failure:
		return "failure"
	case Unimplemented:
		return "unimplemented"
	default:
		return "unknown"
	}
}

// Marker returns the human readable marker used in the results table.
func (o Outcome) Marker() string {
	switch o {
	case Success:
		return "🥳"
	case Unimplemented:
		return "🚧"
	default:
		return "💔"
	}
}

// Result is the outcome of running a [ScenarioSpec].
type Result struct {
	// Spec is the scenario that produced this result.
	Spec ScenarioSpec

	// Outcome is the classification of the scenario.
	Outcome Outcome

	// Elapsed is the time it took to run the scenario.
	Elapsed time.Duration
}
