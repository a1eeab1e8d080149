// Package correlate matches orchestration jobs to compute sessions.
//
// A compute-server job embeds its serverID and context in the launch command
// as "-serverID <value>" and "-context <value>". Session ids are prefixed by
// the serverID of the job that owns them; matching is by prefix, not by
// substring, so a serverID that happens to appear inside an unrelated session
// id never correlates.
package correlate

import (
	"fmt"
	"strings"

	"github.com/psantana5/compute-reaper/pkg/models"
)

// FlagValue extracts the value following flag in a launch-command argument
// list. The extraction rule is deliberately narrow: the flag must be present
// exactly as given and must be followed by a non-flag value. A malformed or
// reordered command is an error for that item, never fatal to the cycle.
func FlagValue(args []string, flag string) (string, error) {
	for i, arg := range args {
		if arg != flag {
			continue
		}
		if i+1 >= len(args) {
			return "", fmt.Errorf("flag %s has no value in launch command", flag)
		}
		value := args[i+1]
		if value == "" || strings.HasPrefix(value, "-") {
			return "", fmt.Errorf("flag %s is followed by %q, not a value", flag, value)
		}
		return value, nil
	}
	return "", fmt.Errorf("flag %s not found in launch command", flag)
}

// MatchSession finds the session belonging to job by prefix-matching session
// ids against the job's serverID. The first match in listing order wins;
// extra matches are returned so the caller can log the ambiguity. A miss is
// a valid observation: the job is an orphan.
func MatchSession(job *models.ComputeJob, sessions []models.ComputeSession) (match *models.ComputeSession, extra int) {
	if job.ServerID == "" {
		return nil, 0
	}
	for i := range sessions {
		if strings.HasPrefix(sessions[i].ID, job.ServerID) {
			if match == nil {
				match = &sessions[i]
			} else {
				extra++
			}
		}
	}
	return match, extra
}
