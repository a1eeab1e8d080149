package reaper

import "fmt"

// Phase is one step of the purge cycle state machine. Transitions are
// strictly sequential; Failed is reachable from any phase on a fatal error.
type Phase string

const (
	PhaseInit             Phase = "init"
	PhaseAuthAcquired     Phase = "auth_acquired"
	PhaseJobsEnumerated   Phase = "jobs_enumerated"
	PhaseClassified       Phase = "classified"
	PhaseJobsPurged       Phase = "jobs_purged"
	PhaseDirectoriesSwept Phase = "directories_swept"
	PhaseDone             Phase = "done"
	PhaseFailed           Phase = "failed"
)

// validTransitions maps each phase to the phases it may advance to.
var validTransitions = map[Phase]map[Phase]bool{
	PhaseInit:             {PhaseAuthAcquired: true, PhaseFailed: true},
	PhaseAuthAcquired:     {PhaseJobsEnumerated: true, PhaseFailed: true},
	PhaseJobsEnumerated:   {PhaseClassified: true, PhaseFailed: true},
	PhaseClassified:       {PhaseJobsPurged: true, PhaseFailed: true},
	PhaseJobsPurged:       {PhaseDirectoriesSwept: true, PhaseFailed: true},
	PhaseDirectoriesSwept: {PhaseDone: true, PhaseFailed: true},
	// Terminal phases
	PhaseDone:   {},
	PhaseFailed: {},
}

// ValidateTransition checks whether a cycle may move from one phase to the next.
func ValidateTransition(from, to Phase) error {
	allowed, exists := validTransitions[from]
	if !exists {
		return fmt.Errorf("unknown cycle phase: %s", from)
	}
	if !allowed[to] {
		return fmt.Errorf("invalid cycle transition from %s to %s", from, to)
	}
	return nil
}
