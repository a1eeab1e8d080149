package models

import "sort"

// Disposition is the classification outcome for one serverID in one cycle.
type Disposition string

const (
	DispositionActive Disposition = "active"
	DispositionZombie Disposition = "zombie"
)

// Classification pairs a job with its disposition and the evidence behind it.
// Derived per cycle, never stored.
type Classification struct {
	JobName      string       `json:"job_name"`
	ServerID     string       `json:"server_id"`
	Owner        string       `json:"owner"`
	ContextName  string       `json:"context_name,omitempty"`
	Disposition  Disposition  `json:"disposition"`
	Reason       string       `json:"reason"`
	NeedsReview  bool         `json:"needs_review,omitempty"`
	RuntimeHours int          `json:"runtime_hours"`
	SessionID    string       `json:"session_id,omitempty"`
	SessionState SessionState `json:"session_state,omitempty"`
	HasSession   bool         `json:"has_session"`
}

// ActiveSet is the set of serverIDs classified Active in the current cycle.
// It is the sole retention criterion for the directory sweep.
type ActiveSet map[string]struct{}

// NewActiveSet builds a set from the given serverIDs.
func NewActiveSet(ids ...string) ActiveSet {
	s := make(ActiveSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

// Contains reports whether serverID is retained this cycle.
func (s ActiveSet) Contains(serverID string) bool {
	_, ok := s[serverID]
	return ok
}

// IDs returns the members in sorted order, for stable logs and reports.
func (s ActiveSet) IDs() []string {
	ids := make([]string, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
