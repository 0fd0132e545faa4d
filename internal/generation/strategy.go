package generation

import (
	"context"
	"io"

	"github.com/rs/zerolog"

	"vidabot/internal/domain"
	"vidabot/internal/domain/jsoncfg"
	"vidabot/internal/infra"
)

// PollingStrategy runs submit, poll and materialize against a long-running
// Provider bound to the request credentials. It backs the Primary path.
type PollingStrategy struct {
	kind         domain.StrategyKind
	model        string
	connector    Connector
	loop         *PollLoop
	materializer *Materializer
	logger       *infra.Logger
}

// PollingStrategyOptions configures a PollingStrategy. Kind defaults to
// Primary.
type PollingStrategyOptions struct {
	Kind         domain.StrategyKind
	Model        string
	Connector    Connector
	Loop         *PollLoop
	Materializer *Materializer
	Logger       *infra.Logger
}

func NewPollingStrategy(opts PollingStrategyOptions) *PollingStrategy {
	s := &PollingStrategy{
		kind:         opts.Kind,
		model:        opts.Model,
		connector:    opts.Connector,
		loop:         opts.Loop,
		materializer: opts.Materializer,
		logger:       opts.Logger,
	}
	if s.kind == "" {
		s.kind = domain.StrategyPrimary
	}
	if s.loop == nil {
		s.loop = NewPollLoop(PollLoopOptions{Logger: opts.Logger})
	}
	if s.materializer == nil {
		s.materializer = NewMaterializer(MaterializerOptions{})
	}
	if s.logger == nil {
		discard := zerolog.New(io.Discard)
		l := infra.Logger(discard)
		s.logger = &l
	}
	return s
}

func (s *PollingStrategy) Kind() domain.StrategyKind { return s.kind }

func (s *PollingStrategy) Model() string { return s.model }

func (s *PollingStrategy) Generate(ctx context.Context, req domain.GenerationRequest, sink ProgressSink) (*domain.Job, *domain.Result, error) {
	if sink == nil {
		sink = NopSink
	}
	cfg, err := req.VideoConfig()
	if err != nil {
		return nil, nil, err
	}

	provider := s.connector.Connect(req.Credentials)
	sink.Progress(ctx, "Submitting generation request...")
	handle, err := provider.Submit(ctx, req)
	if err != nil {
		return nil, nil, err
	}
	job := domain.NewJob(handle, s.loop.Config().MaxPolls)
	job.Strategy = s.kind
	s.logger.Info().Str("job_id", job.ID).Str("model", s.model).Msg("generation: job submitted")
	sink.Progress(ctx, "Video generation started, waiting for the provider...")

	s.loop.Run(ctx, job, provider, sink)
	if job.State != domain.JobCompleted {
		return job, nil, job.Err
	}

	sink.Progress(ctx, "Downloading generated video...")
	asset, err := s.materializer.Materialize(ctx, job.ResultAssetURI, req.Credentials)
	if err != nil {
		return job, nil, err
	}

	duration := cfg.DurationSeconds
	if duration <= 0 {
		duration = jsoncfg.DefaultDurationSeconds
	}
	return job, &domain.Result{
		JobID:           job.ID,
		Strategy:        s.kind,
		Model:           s.model,
		Asset:           asset,
		DurationSeconds: duration,
		SourceURI:       job.ResultAssetURI,
		PollCount:       job.PollCount,
	}, nil
}

var _ Strategy = (*PollingStrategy)(nil)
