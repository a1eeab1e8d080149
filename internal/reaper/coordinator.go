// Package reaper drives one full purge cycle: enumerate compute-server jobs,
// correlate each with its session, classify, delete zombie jobs, and sweep
// orphaned working directories against the cycle's active set.
package reaper

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/psantana5/compute-reaper/internal/auth"
	"github.com/psantana5/compute-reaper/internal/classify"
	"github.com/psantana5/compute-reaper/internal/correlate"
	"github.com/psantana5/compute-reaper/internal/workdir"
	"github.com/psantana5/compute-reaper/pkg/logging"
	"github.com/psantana5/compute-reaper/pkg/models"
	"github.com/psantana5/compute-reaper/pkg/retry"
)

// JobClient is the orchestration API surface the coordinator consumes.
type JobClient interface {
	ListJobs(ctx context.Context, namePrefix string) ([]string, error)
	GetJob(ctx context.Context, name string) (*models.ComputeJob, error)
	DeleteJob(ctx context.Context, name string) error
}

// SessionClient is the compute-session API surface the coordinator consumes.
type SessionClient interface {
	ListSessions(ctx context.Context) ([]models.ComputeSession, error)
	GetContextName(ctx context.Context, contextID string) (string, error)
}

// VolumeScanner is the filesystem surface the coordinator consumes.
type VolumeScanner interface {
	ListServerDirs() ([]workdir.Dir, error)
	Remove(path string) error
}

// Recorder persists the outcome of a cycle, e.g. to the audit store.
type Recorder interface {
	RecordCycle(report *CycleReport) error
}

// Config is the decision surface of a cycle.
type Config struct {
	NamePrefix     string
	TimeLimitHours int
	DryRun         bool
	Retry          retry.Config
}

// SkippedItem is a job the cycle could not classify; it is reported and left
// for the next cycle rather than failing this one.
type SkippedItem struct {
	JobName string `json:"job_name"`
	Reason  string `json:"reason"`
}

// CycleReport aggregates everything one cycle observed and did.
type CycleReport struct {
	ID              string                  `json:"id"`
	StartedAt       time.Time               `json:"started_at"`
	FinishedAt      time.Time               `json:"finished_at"`
	DryRun          bool                    `json:"dry_run"`
	Phase           Phase                   `json:"phase"`
	Classifications []models.Classification `json:"classifications"`
	Active          models.ActiveSet        `json:"-"`
	ActiveIDs       []string                `json:"active_ids"`
	JobsDeleted     int                     `json:"jobs_deleted"`
	JobDeleteErrors int                     `json:"job_delete_errors"`
	DirsRemoved     int                     `json:"dirs_removed"`
	DirsRetained    int                     `json:"dirs_retained"`
	DirRemoveErrors int                     `json:"dir_remove_errors"`
	Skipped         []SkippedItem           `json:"skipped,omitempty"`
	Actions         []Action                `json:"actions,omitempty"`
}

// Coordinator runs purge cycles. One call to Run is one cycle; no state is
// carried between cycles.
type Coordinator struct {
	cfg      Config
	tokens   auth.TokenSource
	jobs     JobClient
	sessions SessionClient
	scanner  VolumeScanner
	recorder Recorder
	logger   *logging.Logger
	now      func() time.Time
}

// New creates a coordinator. recorder may be nil to disable the audit trail.
func New(cfg Config, tokens auth.TokenSource, jobs JobClient, sessions SessionClient, scanner VolumeScanner, recorder Recorder, logger *logging.Logger) *Coordinator {
	if cfg.NamePrefix == "" {
		cfg.NamePrefix = models.JobNamePrefix
	}
	if logger == nil {
		logger = logging.New("reaper", logging.INFO, false)
	}
	return &Coordinator{
		cfg:      cfg,
		tokens:   tokens,
		jobs:     jobs,
		sessions: sessions,
		scanner:  scanner,
		recorder: recorder,
		logger:   logger,
		now:      time.Now,
	}
}

func (c *Coordinator) advance(report *CycleReport, to Phase) error {
	if err := ValidateTransition(report.Phase, to); err != nil {
		return err
	}
	report.Phase = to
	c.logger.Debugf("cycle %s entered phase %s", report.ID, to)
	return nil
}

// fail marks the cycle failed, finalizes the report, and returns the error.
func (c *Coordinator) fail(report *CycleReport, err error) (*CycleReport, error) {
	report.Phase = PhaseFailed
	c.finish(report)
	c.logger.Errorf("cycle %s failed: %v", report.ID, err)
	return report, err
}

func (c *Coordinator) finish(report *CycleReport) {
	report.FinishedAt = c.now()
	report.ActiveIDs = report.Active.IDs()
	if c.recorder != nil {
		if err := c.recorder.RecordCycle(report); err != nil {
			c.logger.Warnf("failed to record cycle %s in audit store: %v", report.ID, err)
		}
	}
}

// Run executes one purge cycle. Fatal errors (credential exchange, job or
// session enumeration) return a non-nil error alongside the partial report;
// per-item failures are reported in the cycle report only.
func (c *Coordinator) Run(ctx context.Context) (*CycleReport, error) {
	report := &CycleReport{
		ID:        uuid.New().String(),
		StartedAt: c.now(),
		DryRun:    c.cfg.DryRun,
		Phase:     PhaseInit,
		Active:    models.NewActiveSet(),
	}

	mode := "live"
	if c.cfg.DryRun {
		mode = "dry-run"
	}
	c.logger.Infof("cycle %s starting (%s, prefix=%s, limit=%dh)", report.ID, mode, c.cfg.NamePrefix, c.cfg.TimeLimitHours)

	// Acquire the bearer credential before touching either API.
	err := retry.Do(ctx, c.cfg.Retry, func() error {
		_, err := c.tokens.Token(ctx)
		return err
	})
	if err != nil {
		return c.fail(report, fmt.Errorf("credential acquisition failed: %w", err))
	}
	if err := c.advance(report, PhaseAuthAcquired); err != nil {
		return c.fail(report, err)
	}

	// Enumerate jobs and sessions. Either failing after bounded retries is
	// fatal: nothing can be classified safely without the complete picture.
	var jobNames []string
	err = retry.Do(ctx, c.cfg.Retry, func() error {
		var listErr error
		jobNames, listErr = c.jobs.ListJobs(ctx, c.cfg.NamePrefix)
		return listErr
	})
	if err != nil {
		return c.fail(report, fmt.Errorf("job enumeration failed: %w", err))
	}
	if err := c.advance(report, PhaseJobsEnumerated); err != nil {
		return c.fail(report, err)
	}
	c.logger.Infof("cycle %s found %d compute-server jobs", report.ID, len(jobNames))

	var sessionList []models.ComputeSession
	err = retry.Do(ctx, c.cfg.Retry, func() error {
		var listErr error
		sessionList, listErr = c.sessions.ListSessions(ctx)
		return listErr
	})
	if err != nil {
		return c.fail(report, fmt.Errorf("session enumeration failed: %w", err))
	}
	c.logger.Infof("cycle %s found %d sessions", report.ID, len(sessionList))

	// Classify every job before any destructive work: the directory sweep
	// depends on the complete active set.
	now := c.now()
	contextNames := make(map[string]string)
	for _, name := range jobNames {
		job, err := c.jobs.GetJob(ctx, name)
		if err != nil {
			c.logger.Warnf("cycle %s skipping job %s: %v", report.ID, name, err)
			report.Skipped = append(report.Skipped, SkippedItem{JobName: name, Reason: err.Error()})
			continue
		}

		runtimeHours, err := job.RuntimeHours(now)
		if err != nil {
			c.logger.Warnf("cycle %s skipping job %s: %v", report.ID, name, err)
			report.Skipped = append(report.Skipped, SkippedItem{JobName: name, Reason: err.Error()})
			continue
		}

		job.ContextName = c.resolveContextName(ctx, contextNames, job.ContextID)

		session, extra := correlate.MatchSession(job, sessionList)
		if extra > 0 {
			c.logger.Warnf("cycle %s: serverID %s matches %d sessions, using first in listing order", report.ID, job.ServerID, extra+1)
		}

		classification := classify.Classify(job, session, runtimeHours, c.cfg.TimeLimitHours)
		report.Classifications = append(report.Classifications, classification)

		if classification.NeedsReview {
			c.logger.Warnf("cycle %s: job %s (owner=%s) %s", report.ID, job.Name, job.Owner, classification.Reason)
		} else {
			c.logger.Infof("cycle %s: job %s (owner=%s) -> %s: %s", report.ID, job.Name, job.Owner, classification.Disposition, classification.Reason)
		}
	}
	if err := c.advance(report, PhaseClassified); err != nil {
		return c.fail(report, err)
	}

	active, zombies := classify.Partition(report.Classifications)
	report.Active = active
	c.logger.Infof("cycle %s classified %d active, %d zombie, %d skipped", report.ID, len(active), len(zombies), len(report.Skipped))

	executor := c.newExecutor()

	// Purge zombie jobs. Delete failures are logged and left for the next
	// cycle; deletes are idempotent so re-attempting is safe.
	for _, zombie := range zombies {
		if err := executor.DeleteJob(ctx, zombie.JobName, zombie.Reason); err != nil {
			c.logger.Errorf("cycle %s failed to delete job %s: %v", report.ID, zombie.JobName, err)
			report.JobDeleteErrors++
			continue
		}
		report.JobsDeleted++
		c.logger.Infof("cycle %s %s job %s (%s)", report.ID, deleteVerb(executor), zombie.JobName, zombie.Reason)
	}
	if err := c.advance(report, PhaseJobsPurged); err != nil {
		return c.fail(report, err)
	}

	// Sweep working directories against the active set. Retention is
	// allowlist-based: anything whose serverID is not active this cycle goes.
	dirs, err := c.scanner.ListServerDirs()
	if err != nil {
		report.Actions = executor.Actions()
		return c.fail(report, fmt.Errorf("directory scan failed: %w", err))
	}
	for _, dir := range dirs {
		if active.Contains(dir.ServerID) {
			report.DirsRetained++
			c.logger.Debugf("cycle %s retaining directory %s (active)", report.ID, dir.Path)
			continue
		}
		reason := fmt.Sprintf("serverID %s not in active set", dir.ServerID)
		if err := executor.RemoveDirectory(dir.Path, reason); err != nil {
			c.logger.Errorf("cycle %s failed to remove directory %s: %v", report.ID, dir.Path, err)
			report.DirRemoveErrors++
			continue
		}
		report.DirsRemoved++
		c.logger.Infof("cycle %s %s directory %s (%s)", report.ID, removeVerb(executor), dir.Path, reason)
	}
	if err := c.advance(report, PhaseDirectoriesSwept); err != nil {
		return c.fail(report, err)
	}

	if err := c.advance(report, PhaseDone); err != nil {
		return c.fail(report, err)
	}
	report.Actions = executor.Actions()
	c.finish(report)

	c.logger.Infof("cycle %s done in %s: %d jobs deleted (%d errors), %d dirs removed (%d errors), %d retained",
		report.ID, report.FinishedAt.Sub(report.StartedAt).Round(time.Millisecond),
		report.JobsDeleted, report.JobDeleteErrors, report.DirsRemoved, report.DirRemoveErrors, report.DirsRetained)

	return report, nil
}

func (c *Coordinator) newExecutor() Executor {
	if c.cfg.DryRun {
		return NewDryRunExecutor()
	}
	return NewLiveExecutor(c.jobs, c.scanner)
}

// resolveContextName resolves the context id to its display name, caching per
// cycle. Reporting-only: any failure degrades to the raw id.
func (c *Coordinator) resolveContextName(ctx context.Context, cache map[string]string, contextID string) string {
	if contextID == "" {
		return ""
	}
	if name, ok := cache[contextID]; ok {
		return name
	}
	name, err := c.sessions.GetContextName(ctx, contextID)
	if err != nil {
		c.logger.Debugf("could not resolve context %s: %v", contextID, err)
		name = contextID
	}
	cache[contextID] = name
	return name
}

func deleteVerb(e Executor) string {
	if e.DryRun() {
		return "would delete"
	}
	return "deleted"
}

func removeVerb(e Executor) string {
	if e.DryRun() {
		return "would remove"
	}
	return "removed"
}
