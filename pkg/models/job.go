package models

import (
	"fmt"
	"time"
)

// JobNamePrefix is the default name filter for compute-server jobs in the
// orchestration layer. Job names follow sas-compute-server-<serverID>.
const JobNamePrefix = "sas-compute-server-"

// OwnerUnknown is used when a job carries no owner label.
const OwnerUnknown = "unknown"

// ComputeJob is a scheduled compute-server job as seen by the orchestration
// API. ServerID and ContextID are derived from the job's launch command.
type ComputeJob struct {
	Name        string    `json:"name"`
	ServerID    string    `json:"server_id"`
	ContextID   string    `json:"context_id,omitempty"`
	ContextName string    `json:"context_name,omitempty"`
	Owner       string    `json:"owner"`
	StartTime   time.Time `json:"start_time"`
}

// RuntimeHours returns the whole hours elapsed since the job started.
// A zero start time or a start time in the future is a derivation error;
// callers skip the job rather than abort the cycle.
func (j *ComputeJob) RuntimeHours(now time.Time) (int, error) {
	if j.StartTime.IsZero() {
		return 0, fmt.Errorf("job %s has no start time", j.Name)
	}
	hours := int(now.Sub(j.StartTime).Hours())
	if hours < 0 {
		return 0, fmt.Errorf("job %s start time %s is in the future", j.Name, j.StartTime.Format(time.RFC3339))
	}
	return hours, nil
}
