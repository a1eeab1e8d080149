package models

import (
	"testing"
	"time"
)

func TestRuntimeHours(t *testing.T) {
	now := time.Date(2026, 8, 23, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		start   time.Time
		want    int
		wantErr bool
	}{
		{"three and a half hours floors to 3", now.Add(-3*time.Hour - 30*time.Minute), 3, false},
		{"just started", now.Add(-time.Minute), 0, false},
		{"zero start time", time.Time{}, 0, true},
		{"future start time", now.Add(time.Hour), 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			job := &ComputeJob{Name: "sas-compute-server-x", StartTime: tt.start}
			got, err := job.RuntimeHours(now)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %d", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("runtimeHours = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestActiveSet(t *testing.T) {
	s := NewActiveSet("b", "a")
	if !s.Contains("a") || !s.Contains("b") {
		t.Error("members missing from set")
	}
	if s.Contains("c") {
		t.Error("unexpected member c")
	}
	ids := s.IDs()
	if len(ids) != 2 || ids[0] != "a" || ids[1] != "b" {
		t.Errorf("IDs not sorted: %v", ids)
	}
}

func TestSessionStatePredicates(t *testing.T) {
	for _, state := range []SessionState{StateCanceled, StateError, StateFailed, StateWarning, StateCompleted} {
		if !state.IsTerminal() {
			t.Errorf("%s should be terminal", state)
		}
	}
	for _, state := range []SessionState{StateRunning, StatePending, StateIdle} {
		if state.IsTerminal() {
			t.Errorf("%s should not be terminal", state)
		}
	}
	if SessionState("suspended").IsRecognized() {
		t.Error("suspended must be unrecognized")
	}
	if !StateRunning.IsRecognized() {
		t.Error("running must be recognized")
	}
}
