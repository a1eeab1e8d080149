package reaper

import (
	"context"
)

// ActionKind identifies a destructive operation performed (or suppressed) by
// the cycle.
type ActionKind string

const (
	ActionDeleteJob ActionKind = "delete_job"
	ActionRemoveDir ActionKind = "remove_dir"
)

// Action is one purge decision and its outcome. Actions are recorded in both
// live and dry-run mode so the two produce identical reports apart from the
// Performed flag.
type Action struct {
	Kind      ActionKind `json:"kind"`
	Target    string     `json:"target"`
	Reason    string     `json:"reason"`
	Performed bool       `json:"performed"`
	Error     string     `json:"error,omitempty"`
}

// Executor carries the capability to perform destructive operations.
// Classification and sweep logic call it unconditionally; whether a call
// actually deletes anything depends on which implementation was injected,
// keeping one code path for live and dry-run cycles.
type Executor interface {
	DeleteJob(ctx context.Context, name, reason string) error
	RemoveDirectory(path, reason string) error
	Actions() []Action
	DryRun() bool
}

// JobDeleter is the slice of the orchestration client the executor needs.
type JobDeleter interface {
	DeleteJob(ctx context.Context, name string) error
}

// DirRemover is the slice of the filesystem scanner the executor needs.
type DirRemover interface {
	Remove(path string) error
}

// liveExecutor performs deletions and records each outcome.
type liveExecutor struct {
	jobs    JobDeleter
	dirs    DirRemover
	actions []Action
}

// NewLiveExecutor returns an executor that really deletes.
func NewLiveExecutor(jobs JobDeleter, dirs DirRemover) Executor {
	return &liveExecutor{jobs: jobs, dirs: dirs}
}

func (e *liveExecutor) DeleteJob(ctx context.Context, name, reason string) error {
	err := e.jobs.DeleteJob(ctx, name)
	action := Action{Kind: ActionDeleteJob, Target: name, Reason: reason, Performed: err == nil}
	if err != nil {
		action.Error = err.Error()
	}
	e.actions = append(e.actions, action)
	return err
}

func (e *liveExecutor) RemoveDirectory(path, reason string) error {
	err := e.dirs.Remove(path)
	action := Action{Kind: ActionRemoveDir, Target: path, Reason: reason, Performed: err == nil}
	if err != nil {
		action.Error = err.Error()
	}
	e.actions = append(e.actions, action)
	return err
}

func (e *liveExecutor) Actions() []Action { return e.actions }
func (e *liveExecutor) DryRun() bool      { return false }

// dryRunExecutor records what a live cycle would have deleted and touches
// nothing.
type dryRunExecutor struct {
	actions []Action
}

// NewDryRunExecutor returns an executor that only records.
func NewDryRunExecutor() Executor {
	return &dryRunExecutor{}
}

func (e *dryRunExecutor) DeleteJob(ctx context.Context, name, reason string) error {
	e.actions = append(e.actions, Action{Kind: ActionDeleteJob, Target: name, Reason: reason})
	return nil
}

func (e *dryRunExecutor) RemoveDirectory(path, reason string) error {
	e.actions = append(e.actions, Action{Kind: ActionRemoveDir, Target: path, Reason: reason})
	return nil
}

func (e *dryRunExecutor) Actions() []Action { return e.actions }
func (e *dryRunExecutor) DryRun() bool      { return true }
