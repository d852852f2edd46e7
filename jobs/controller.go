package jobs

import (
	"context"
	"os"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fooni/hy3d/hunyuan"
	"github.com/fooni/hy3d/internal/metrics"
	"github.com/fooni/hy3d/types"
)

// StatusFetcher is the query surface the controller needs. Credentials
// and region are bound by the caller.
type StatusFetcher interface {
	Query(ctx context.Context, jobID string) (*hunyuan.StatusPayload, error)
}

// StatusFetcherFunc adapts a function to StatusFetcher.
type StatusFetcherFunc func(ctx context.Context, jobID string) (*hunyuan.StatusPayload, error)

// Query implements StatusFetcher.
func (f StatusFetcherFunc) Query(ctx context.Context, jobID string) (*hunyuan.StatusPayload, error) {
	return f(ctx, jobID)
}

// GenericFailureMessage is recorded when the provider reports failure
// without an error message. Failure must never leave an empty error.
const GenericFailureMessage = "Generation failed. Review your prompt and output format."

const noResultMessage = "Job completed but no download URL was returned."

const internalFailureMessage = "Generation failed due to an internal error."

// ControllerDeps are the collaborators for one poll loop.
type ControllerDeps struct {
	Fetcher    StatusFetcher
	Board      *StatusBoard
	Downloader Downloader
	Importer   Importer
	Busy       *BusyCounter
	Metrics    *metrics.Collector
	Schedule   Schedule
	Logger     *zap.Logger
}

// Controller runs the polling state machine for a single job. Tick is
// the timer callback: it performs one status check and returns the next
// delay, or false to stop scheduling.
//
// Ticks for one controller are strictly sequential; the controller
// itself needs no locking. Shared state lives on the StatusBoard, whose
// methods enforce the supersession rule.
type Controller struct {
	jobID   string
	trackID string
	format  types.ResultFormat

	fetcher    StatusFetcher
	board      *StatusBoard
	downloader Downloader
	importer   Importer
	busy       *BusyCounter
	metrics    *metrics.Collector
	schedule   Schedule
	logger     *zap.Logger

	attempt int
	done    bool
	started time.Time
}

// NewController creates the poll loop for jobID and engages the busy
// counter. The counter is released exactly once, on whichever path ends
// the loop.
func NewController(jobID string, format types.ResultFormat, deps ControllerDeps) *Controller {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if deps.Schedule == nil {
		deps.Schedule = DefaultSchedule()
	}
	trackID := uuid.NewString()[:8]
	c := &Controller{
		jobID:      jobID,
		trackID:    trackID,
		format:     format,
		fetcher:    deps.Fetcher,
		board:      deps.Board,
		downloader: deps.Downloader,
		importer:   deps.Importer,
		busy:       deps.Busy,
		metrics:    deps.Metrics,
		schedule:   deps.Schedule,
		logger: logger.With(
			zap.String("component", "controller"),
			zap.String("job_id", jobID),
			zap.String("track_id", trackID)),
		started: time.Now(),
	}
	if c.busy != nil {
		c.busy.Engage()
	}
	return c
}

// InitialDelay is the wait between submission and the first status
// check.
func (c *Controller) InitialDelay() time.Duration {
	return c.schedule.Delay(0)
}

// Tick performs one poll step. The returned bool is false when the loop
// must stop; the duration is the delay before the next tick otherwise.
//
// A panicking collaborator must not crash the process or leave the job
// half-done: the recover below converts it into a terminal error and
// still releases the busy counter.
func (c *Controller) Tick(ctx context.Context) (next time.Duration, more bool) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("panic during poll tick",
				zap.Any("panic", r), zap.Stack("stack"))
			c.board.Fail(c.jobID, internalFailureMessage)
			c.metrics.JobFailed()
			c.finish()
			next, more = 0, false
		}
	}()

	// Supersession check: a newer submission owns the board now. Stop
	// without touching status or error fields of the newer job.
	if active := c.board.ActiveJobID(); active != c.jobID {
		c.logger.Info("job superseded, stopping poll loop", zap.String("active_job_id", active))
		c.finish()
		return 0, false
	}

	status, err := c.fetcher.Query(ctx, c.jobID)
	if err != nil {
		c.logger.Error("status query failed", zap.Error(err))
		c.board.Fail(c.jobID, err.Error())
		c.metrics.JobFailed()
		c.finish()
		return 0, false
	}

	display, bucket := Normalize(status.StatusValue())
	c.metrics.PollTick(string(bucket))
	if display == "" {
		display = StateUnknown
	}
	c.board.SetStatus(c.jobID, display)

	switch bucket {
	case BucketInProgress:
		c.attempt++
		return c.schedule.Delay(c.attempt), true

	case BucketFailure:
		message := status.ErrorMessage
		if message == "" {
			message = GenericFailureMessage
		}
		c.logger.Error("job failed", zap.String("error", message))
		c.board.Fail(c.jobID, message)
		c.metrics.JobFailed()
		c.finish()
		return 0, false
	}

	// Success: download and import.
	c.complete(ctx, status)
	c.finish()
	return 0, false
}

// Abandon releases the controller's resources without mutating the
// board, for callers whose scheduling context ends early.
func (c *Controller) Abandon() {
	c.finish()
}

func (c *Controller) complete(ctx context.Context, status *hunyuan.StatusPayload) {
	url := status.FirstResultURL()
	if url == "" {
		c.logger.Error("job completed without a result URL")
		c.board.Fail(c.jobID, noResultMessage)
		c.metrics.JobFailed()
		return
	}

	c.board.SetStatus(c.jobID, StateImporting)

	path, err := c.downloader.Fetch(ctx, url, c.format.Suffix())
	if err != nil {
		c.logger.Error("download failed", zap.Error(err))
		c.board.Fail(c.jobID, err.Error())
		c.metrics.JobFailed()
		return
	}
	defer func() {
		// Cleanup must not mask the triggering error: best effort only.
		if removeErr := os.Remove(path); removeErr != nil {
			c.logger.Warn("failed to remove temporary file",
				zap.String("path", path), zap.Error(removeErr))
		}
	}()
	if info, statErr := os.Stat(path); statErr == nil {
		c.metrics.DownloadBytes(info.Size())
	}

	if err := c.importer.Import(ctx, path, c.format); err != nil {
		c.logger.Error("import failed", zap.Error(err))
		c.board.Fail(c.jobID, err.Error())
		c.metrics.JobFailed()
		return
	}

	c.board.Complete(c.jobID)
	c.metrics.JobImported()
	c.logger.Info("job imported", zap.Duration("elapsed", time.Since(c.started)))
}

// finish releases the busy counter exactly once and records the job
// duration.
func (c *Controller) finish() {
	if c.done {
		return
	}
	c.done = true
	if c.busy != nil {
		c.busy.Release()
	}
	c.metrics.ObserveJobDuration(time.Since(c.started).Seconds())
}
