package genai

import (
	"context"
	"fmt"

	"vidabot/internal/domain"
	"vidabot/internal/generation"
)

// StoryboardStrategy is the Secondary path: the content model writes a scene
// script and the scenes are rendered locally into an animated GIF.
type StoryboardStrategy struct {
	client *Client
}

func NewStoryboardStrategy(client *Client) *StoryboardStrategy {
	return &StoryboardStrategy{client: client}
}

func (s *StoryboardStrategy) Kind() domain.StrategyKind { return domain.StrategySecondary }

func (s *StoryboardStrategy) Model() string { return s.client.Model() }

func (s *StoryboardStrategy) Generate(ctx context.Context, req domain.GenerationRequest, sink generation.ProgressSink) (*domain.Job, *domain.Result, error) {
	if sink == nil {
		sink = generation.NopSink
	}
	cfg, err := req.VideoConfig()
	if err != nil {
		return nil, nil, err
	}
	seed := deterministicSeed(req.Prompt, cfg.AspectRatio, s.client.Model())
	job := domain.NewJob("storyboard/"+seed, 1)
	job.Strategy = domain.StrategySecondary
	if err := job.StartPolling(); err != nil {
		return job, nil, err
	}

	sink.Progress(ctx, "Writing storyboard script...")
	script, err := s.client.Storyboard(ctx, req.Credentials, req.Prompt, req.Reference)
	if err != nil {
		_ = job.Fail(err)
		return job, nil, err
	}

	sink.Progress(ctx, fmt.Sprintf("Rendering %d storyboard scene(s)...", len(script.Scenes)))
	data, err := renderStoryboard(script, seed, cfg.AspectRatio)
	if err != nil {
		rerr := domain.NewError(domain.KindUnknown, "render storyboard", err)
		_ = job.Fail(rerr)
		return job, nil, rerr
	}
	if err := job.Complete("storyboard://" + seed); err != nil {
		return job, nil, err
	}

	return job, &domain.Result{
		JobID:           job.ID,
		Strategy:        domain.StrategySecondary,
		Model:           s.client.Model(),
		Asset:           domain.NewMaterializedAsset(data, "image/gif"),
		DurationSeconds: script.Duration,
		SourceURI:       job.ResultAssetURI,
	}, nil
}

var _ generation.Strategy = (*StoryboardStrategy)(nil)
