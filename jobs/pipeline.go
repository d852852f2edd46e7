package jobs

import (
	"context"

	"go.uber.org/zap"

	"github.com/fooni/hy3d/hunyuan"
	"github.com/fooni/hy3d/internal/metrics"
	"github.com/fooni/hy3d/payload"
	"github.com/fooni/hy3d/types"
)

// Pipeline composes payload building, credential resolution, submission
// and poll-loop creation. It is the composition root's handle for "the
// user pressed generate".
type Pipeline struct {
	client     *hunyuan.Client
	resolver   *hunyuan.Resolver
	board      *StatusBoard
	busy       *BusyCounter
	downloader Downloader
	importer   Importer
	metrics    *metrics.Collector
	schedule   Schedule
	region     string
	logger     *zap.Logger
}

// PipelineConfig wires a Pipeline.
type PipelineConfig struct {
	Client     *hunyuan.Client
	Resolver   *hunyuan.Resolver
	Board      *StatusBoard
	Busy       *BusyCounter
	Downloader Downloader
	Importer   Importer
	Metrics    *metrics.Collector
	Schedule   Schedule
	Region     string
	Logger     *zap.Logger
}

// NewPipeline creates a Pipeline.
func NewPipeline(cfg PipelineConfig) *Pipeline {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Board == nil {
		cfg.Board = NewStatusBoard()
	}
	if cfg.Schedule == nil {
		cfg.Schedule = DefaultSchedule()
	}
	return &Pipeline{
		client:     cfg.Client,
		resolver:   cfg.Resolver,
		board:      cfg.Board,
		busy:       cfg.Busy,
		downloader: cfg.Downloader,
		importer:   cfg.Importer,
		metrics:    cfg.Metrics,
		schedule:   cfg.Schedule,
		region:     cfg.Region,
		logger:     logger.With(zap.String("component", "pipeline")),
	}
}

// Board returns the shared status record.
func (p *Pipeline) Board() *StatusBoard { return p.board }

// Launch validates input, resolves credentials, submits the job and
// returns the poll-loop controller for it. Validation and credential
// errors are detected before any network call; every failure leaves the
// board in a terminal ERROR state with a non-empty message.
func (p *Pipeline) Launch(ctx context.Context, settings payload.Settings, creds hunyuan.CredentialInput) (*Controller, error) {
	req, err := payload.Build(settings)
	if err != nil {
		p.board.FailSubmission(err.Error())
		return nil, err
	}

	resolved, err := p.resolver.Resolve(creds)
	if err != nil {
		p.board.FailSubmission(err.Error())
		return nil, err
	}

	// A new submission resets status and error together so a stale
	// error never shows next to a fresh job.
	p.board.BeginSubmission(req.Summary())
	p.logger.Info("submitting job", zap.String("summary", req.Summary()))

	jobID, err := p.client.Submit(ctx, req, resolved, p.region)
	if err != nil {
		p.board.FailSubmission(err.Error())
		return nil, err
	}
	p.board.SetActiveJob(jobID, "")
	p.metrics.JobSubmitted()

	fetcher := StatusFetcherFunc(func(ctx context.Context, id string) (*hunyuan.StatusPayload, error) {
		return p.client.Query(ctx, id, resolved, p.region)
	})
	controller := NewController(jobID, settings.ResultFormat, ControllerDeps{
		Fetcher:    fetcher,
		Board:      p.board,
		Downloader: p.downloader,
		Importer:   p.importer,
		Busy:       p.busy,
		Metrics:    p.metrics,
		Schedule:   p.schedule,
		Logger:     p.logger,
	})
	return controller, nil
}

// Status performs a one-shot query of an arbitrary job id.
func (p *Pipeline) Status(ctx context.Context, jobID string, creds hunyuan.CredentialInput) (*hunyuan.StatusPayload, error) {
	if jobID == "" {
		return nil, types.NewError(types.ErrValidation, "job id is required")
	}
	resolved, err := p.resolver.Resolve(creds)
	if err != nil {
		return nil, err
	}
	return p.client.Query(ctx, jobID, resolved, p.region)
}
