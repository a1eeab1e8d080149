// Package classify decides the disposition of each compute-server job.
//
// The policy is an explicit table over two axes: the session state and the
// job's age relative to the configured time limit. Every terminal or
// unrecognized state is zombie regardless of age, since such sessions cannot
// make further progress. A running session is never reclaimed, even past the
// limit; it is flagged for operator review instead. A job with no session at
// all is always zombie: the handle is orphaned and cannot be revived.
package classify

import (
	"fmt"

	"github.com/psantana5/compute-reaper/pkg/models"
)

// ruling holds the dispositions for a session state below and at-or-above
// the age limit.
type ruling struct {
	young models.Disposition
	old   models.Disposition
}

// decisionTable enumerates every recognized session state. States absent
// from the table fall through to the conservative default (zombie at any age).
var decisionTable = map[models.SessionState]ruling{
	models.StateRunning:   {young: models.DispositionActive, old: models.DispositionActive},
	models.StatePending:   {young: models.DispositionActive, old: models.DispositionZombie},
	models.StateIdle:      {young: models.DispositionActive, old: models.DispositionZombie},
	models.StateCanceled:  {young: models.DispositionZombie, old: models.DispositionZombie},
	models.StateError:     {young: models.DispositionZombie, old: models.DispositionZombie},
	models.StateFailed:    {young: models.DispositionZombie, old: models.DispositionZombie},
	models.StateWarning:   {young: models.DispositionZombie, old: models.DispositionZombie},
	models.StateCompleted: {young: models.DispositionZombie, old: models.DispositionZombie},
}

// Classify assigns a disposition to one job given its correlated session (nil
// for an orphan), its derived runtime, and the configured age limit in hours.
func Classify(job *models.ComputeJob, session *models.ComputeSession, runtimeHours, timeLimitHours int) models.Classification {
	c := models.Classification{
		JobName:      job.Name,
		ServerID:     job.ServerID,
		Owner:        job.Owner,
		ContextName:  job.ContextName,
		RuntimeHours: runtimeHours,
	}

	if session == nil {
		c.Disposition = models.DispositionZombie
		c.Reason = "no session found for serverID"
		return c
	}

	c.HasSession = true
	c.SessionID = session.ID
	c.SessionState = session.State

	old := runtimeHours >= timeLimitHours

	if !session.State.IsRecognized() {
		c.Disposition = models.DispositionZombie
		c.Reason = fmt.Sprintf("unrecognized session state %q", session.State)
		return c
	}
	rule := decisionTable[session.State]

	if old {
		c.Disposition = rule.old
	} else {
		c.Disposition = rule.young
	}

	switch {
	case session.State == models.StateRunning && old:
		// Never auto-delete live work; surface it for a human instead.
		c.NeedsReview = true
		c.Reason = fmt.Sprintf("running %dh, past the %dh limit, flagged for manual review", runtimeHours, timeLimitHours)
	case session.State == models.StateRunning:
		c.Reason = "session running"
	case session.State.IsTerminal():
		c.Reason = fmt.Sprintf("session in terminal state %s", session.State)
	case old:
		c.Reason = fmt.Sprintf("%s session exceeded %dh limit (%dh)", session.State, timeLimitHours, runtimeHours)
	default:
		c.Reason = fmt.Sprintf("session %s within %dh limit", session.State, timeLimitHours)
	}

	return c
}

// Partition splits classifications into the cycle's active set and the list
// of zombies to purge. Every serverID lands in exactly one of the two.
func Partition(classifications []models.Classification) (models.ActiveSet, []models.Classification) {
	active := models.NewActiveSet()
	var zombies []models.Classification
	for _, c := range classifications {
		if c.Disposition == models.DispositionActive {
			active[c.ServerID] = struct{}{}
		} else {
			zombies = append(zombies, c)
		}
	}
	return active, zombies
}
