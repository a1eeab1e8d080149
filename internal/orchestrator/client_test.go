package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/psantana5/compute-reaper/internal/auth"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, auth.StaticTokenSource("test-token"), nil)
}

func TestListJobs(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-token" {
			t.Errorf("unexpected auth header %q", got)
		}
		if got := r.URL.Query().Get("namePrefix"); got != "sas-compute-server-" {
			t.Errorf("unexpected namePrefix %q", got)
		}
		fmt.Fprint(w, `{"items":[
			{"name":"sas-compute-server-aaa"},
			{"name":"sas-compute-server-bbb"},
			{"name":"unrelated-job"}
		]}`)
	})

	names, err := client.ListJobs(context.Background(), "sas-compute-server-")
	if err != nil {
		t.Fatalf("ListJobs failed: %v", err)
	}
	if len(names) != 2 {
		t.Fatalf("expected 2 jobs after prefix filter, got %d: %v", len(names), names)
	}
}

func TestListJobsTransportErrorIsFatal(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream down", http.StatusBadGateway)
	})
	if _, err := client.ListJobs(context.Background(), "sas-compute-server-"); err == nil {
		t.Fatal("expected error on 502")
	}
}

func TestGetJobDerivesFields(t *testing.T) {
	start := time.Now().Add(-3 * time.Hour).UTC().Format(time.RFC3339)
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{
			"name":"sas-compute-server-aaa",
			"launchCommand":["/opt/sas/bin/compsrv_start.sh","-serverID","aaa","-context","ctx-1"],
			"labels":{"owner":"alice"},
			"startTime":%q
		}`, start)
	})

	job, err := client.GetJob(context.Background(), "sas-compute-server-aaa")
	if err != nil {
		t.Fatalf("GetJob failed: %v", err)
	}
	if job.ServerID != "aaa" {
		t.Errorf("serverID = %q", job.ServerID)
	}
	if job.ContextID != "ctx-1" {
		t.Errorf("contextID = %q", job.ContextID)
	}
	if job.Owner != "alice" {
		t.Errorf("owner = %q", job.Owner)
	}
	hours, err := job.RuntimeHours(time.Now())
	if err != nil {
		t.Fatalf("RuntimeHours failed: %v", err)
	}
	if hours != 3 {
		t.Errorf("runtimeHours = %d, want 3", hours)
	}
}

func TestGetJobMissingOwnerDefaultsUnknown(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{
			"name":"sas-compute-server-aaa",
			"launchCommand":["cmd","-serverID","aaa"],
			"startTime":%q
		}`, time.Now().UTC().Format(time.RFC3339))
	})

	job, err := client.GetJob(context.Background(), "sas-compute-server-aaa")
	if err != nil {
		t.Fatalf("GetJob failed: %v", err)
	}
	if job.Owner != "unknown" {
		t.Errorf("owner = %q, want unknown", job.Owner)
	}
}

func TestGetJobDerivationErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"missing serverID flag", `{"name":"j","launchCommand":["cmd"],"startTime":"2026-01-01T00:00:00Z"}`},
		{"missing start time", `{"name":"j","launchCommand":["cmd","-serverID","x"]}`},
		{"invalid start time", `{"name":"j","launchCommand":["cmd","-serverID","x"],"startTime":"yesterday"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, tt.body)
			})
			if _, err := client.GetJob(context.Background(), "j"); err == nil {
				t.Error("expected derivation error")
			}
		})
	}
}

func TestGetJobNotFound(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})
	_, err := client.GetJob(context.Background(), "gone")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteJobIdempotent(t *testing.T) {
	var deletes int
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete {
			t.Errorf("expected DELETE, got %s", r.Method)
		}
		deletes++
		if deletes > 1 {
			// Second delete: resource already gone.
			http.NotFound(w, r)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})

	if err := client.DeleteJob(context.Background(), "sas-compute-server-aaa"); err != nil {
		t.Fatalf("first delete failed: %v", err)
	}
	if err := client.DeleteJob(context.Background(), "sas-compute-server-aaa"); err != nil {
		t.Fatalf("repeat delete must succeed, got %v", err)
	}
}

func TestDeleteJobFailure(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "forbidden", http.StatusForbidden)
	})
	if err := client.DeleteJob(context.Background(), "j"); err == nil {
		t.Fatal("expected error on 403")
	}
}
