package classify

import (
	"testing"

	"github.com/psantana5/compute-reaper/pkg/models"
)

const limit = 24

func job(serverID string) *models.ComputeJob {
	return &models.ComputeJob{
		Name:     models.JobNamePrefix + serverID,
		ServerID: serverID,
		Owner:    "tester",
	}
}

// TestDecisionTable exhaustively covers the age x state policy.
func TestDecisionTable(t *testing.T) {
	tests := []struct {
		name         string
		state        models.SessionState
		runtimeHours int
		want         models.Disposition
		wantReview   bool
	}{
		{"running young", models.StateRunning, 2, models.DispositionActive, false},
		{"running at limit", models.StateRunning, limit, models.DispositionActive, true},
		{"running old", models.StateRunning, 48, models.DispositionActive, true},
		{"pending young", models.StatePending, 2, models.DispositionActive, false},
		{"pending old", models.StatePending, 30, models.DispositionZombie, false},
		{"idle young", models.StateIdle, 2, models.DispositionActive, false},
		{"idle old", models.StateIdle, 30, models.DispositionZombie, false},
		{"canceled young", models.StateCanceled, 1, models.DispositionZombie, false},
		{"canceled old", models.StateCanceled, 99, models.DispositionZombie, false},
		{"error young", models.StateError, 1, models.DispositionZombie, false},
		{"error old", models.StateError, 99, models.DispositionZombie, false},
		{"failed young", models.StateFailed, 1, models.DispositionZombie, false},
		{"failed old", models.StateFailed, 99, models.DispositionZombie, false},
		{"warning young", models.StateWarning, 1, models.DispositionZombie, false},
		{"warning old", models.StateWarning, 99, models.DispositionZombie, false},
		{"completed young", models.StateCompleted, 1, models.DispositionZombie, false},
		{"completed old", models.StateCompleted, 99, models.DispositionZombie, false},
		{"unrecognized young", models.SessionState("suspended"), 1, models.DispositionZombie, false},
		{"unrecognized old", models.SessionState("suspended"), 99, models.DispositionZombie, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			session := &models.ComputeSession{ID: "s-1", State: tt.state}
			got := Classify(job("s"), session, tt.runtimeHours, limit)
			if got.Disposition != tt.want {
				t.Errorf("disposition = %s, want %s", got.Disposition, tt.want)
			}
			if got.NeedsReview != tt.wantReview {
				t.Errorf("needsReview = %v, want %v", got.NeedsReview, tt.wantReview)
			}
			if got.Reason == "" {
				t.Error("every classification must carry a reason")
			}
		})
	}
}

// TestOrphanAlwaysZombie verifies absence of a session is zombie at any age.
func TestOrphanAlwaysZombie(t *testing.T) {
	for _, hours := range []int{0, 1, limit - 1, limit, 100} {
		got := Classify(job("orphan"), nil, hours, limit)
		if got.Disposition != models.DispositionZombie {
			t.Errorf("orphan at %dh classified %s, want zombie", hours, got.Disposition)
		}
		if got.HasSession {
			t.Error("orphan classification must not claim a session")
		}
	}
}

func TestRunningPastLimitNeverZombie(t *testing.T) {
	session := &models.ComputeSession{ID: "s-1", State: models.StateRunning}
	got := Classify(job("s"), session, 1000, limit)
	if got.Disposition != models.DispositionActive {
		t.Fatalf("long-running session classified %s, must stay active", got.Disposition)
	}
	if !got.NeedsReview {
		t.Error("long-running session must be flagged for review")
	}
}

func TestPartition(t *testing.T) {
	classifications := []models.Classification{
		{ServerID: "a", Disposition: models.DispositionActive},
		{ServerID: "b", Disposition: models.DispositionZombie},
		{ServerID: "c", Disposition: models.DispositionZombie},
	}

	active, zombies := Partition(classifications)

	if !active.Contains("a") || active.Contains("b") || active.Contains("c") {
		t.Errorf("unexpected active set: %v", active.IDs())
	}
	if len(zombies) != 2 {
		t.Fatalf("expected 2 zombies, got %d", len(zombies))
	}
	// Every serverID ends the cycle in exactly one of the two sets.
	if len(active)+len(zombies) != len(classifications) {
		t.Error("partition lost or duplicated a serverID")
	}
}
