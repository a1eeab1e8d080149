package models

// SessionState is the lifecycle state reported by the compute-session API.
type SessionState string

const (
	StateRunning   SessionState = "running"
	StatePending   SessionState = "pending"
	StateIdle      SessionState = "idle"
	StateCanceled  SessionState = "canceled"
	StateError     SessionState = "error"
	StateFailed    SessionState = "failed"
	StateWarning   SessionState = "warning"
	StateCompleted SessionState = "completed"
)

// recognizedStates lists every state the classifier has an explicit ruling
// for. Anything else is treated as unrecognized and reclaimed conservatively.
var recognizedStates = map[SessionState]bool{
	StateRunning:   true,
	StatePending:   true,
	StateIdle:      true,
	StateCanceled:  true,
	StateError:     true,
	StateFailed:    true,
	StateWarning:   true,
	StateCompleted: true,
}

// IsRecognized returns true if the state is part of the known session lifecycle.
func (s SessionState) IsRecognized() bool {
	return recognizedStates[s]
}

// IsTerminal returns true if the session can make no further progress.
func (s SessionState) IsTerminal() bool {
	switch s {
	case StateCanceled, StateError, StateFailed, StateWarning, StateCompleted:
		return true
	}
	return false
}

// ComputeSession is a live or terminal remote execution session, owned by the
// compute-session service. The reaper only ever reads it.
type ComputeSession struct {
	ID    string       `json:"id"`
	State SessionState `json:"state"`
}
