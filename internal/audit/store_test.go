package audit

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/psantana5/compute-reaper/internal/reaper"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(filepath.Join(t.TempDir(), "audit.db"))
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestRecordAndListCycles(t *testing.T) {
	store := newTestStore(t)

	now := time.Now()
	report := &reaper.CycleReport{
		ID:          "cycle-1",
		StartedAt:   now.Add(-time.Minute),
		FinishedAt:  now,
		DryRun:      false,
		Phase:       reaper.PhaseDone,
		JobsDeleted: 2,
		DirsRemoved: 2,
		Actions: []reaper.Action{
			{Kind: reaper.ActionDeleteJob, Target: "sas-compute-server-B", Reason: "idle past limit", Performed: true},
			{Kind: reaper.ActionRemoveDir, Target: "/vol/compute/batch/default/B", Reason: "not active", Performed: true},
		},
	}

	if err := store.RecordCycle(report); err != nil {
		t.Fatalf("RecordCycle failed: %v", err)
	}

	cycles, err := store.RecentCycles(10)
	if err != nil {
		t.Fatalf("RecentCycles failed: %v", err)
	}
	if len(cycles) != 1 {
		t.Fatalf("expected 1 cycle, got %d", len(cycles))
	}
	got := cycles[0]
	if got.ID != "cycle-1" || got.JobsDeleted != 2 || got.DirsRemoved != 2 || got.Phase != "done" {
		t.Errorf("unexpected cycle row: %+v", got)
	}
}

func TestRecentCyclesOrderAndLimit(t *testing.T) {
	store := newTestStore(t)

	base := time.Now()
	for i := 0; i < 3; i++ {
		report := &reaper.CycleReport{
			ID:         string(rune('a' + i)),
			StartedAt:  base.Add(time.Duration(i) * time.Hour),
			FinishedAt: base.Add(time.Duration(i)*time.Hour + time.Minute),
			Phase:      reaper.PhaseDone,
		}
		if err := store.RecordCycle(report); err != nil {
			t.Fatalf("RecordCycle failed: %v", err)
		}
	}

	cycles, err := store.RecentCycles(2)
	if err != nil {
		t.Fatalf("RecentCycles failed: %v", err)
	}
	if len(cycles) != 2 {
		t.Fatalf("expected 2 cycles, got %d", len(cycles))
	}
	if cycles[0].ID != "c" || cycles[1].ID != "b" {
		t.Errorf("expected newest first, got %s then %s", cycles[0].ID, cycles[1].ID)
	}
}
