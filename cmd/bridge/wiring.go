package main

import (
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"vidabot/internal/domain"
	"vidabot/internal/generation"
	"vidabot/internal/infra"
	"vidabot/internal/providers/genai"
	"vidabot/internal/providers/veo"
)

// generationStack is the provider side of the bridge.
type generationStack struct {
	video    *veo.Client
	content  *genai.Client
	workflow *generation.Workflow
}

// newGenerationStack wires submit/poll/download with the storyboard fallback.
// The bridge has no availability probe and no placeholder: a provider outage
// reaches the caller as a classified error, and only the caller may mock.
func newGenerationStack(cfg *infra.Config, ledger domain.GenerationRepository, logger *infra.Logger) generationStack {
	httpClient := &http.Client{Timeout: 60 * time.Second}
	videoClient := veo.NewClient(veo.Options{
		BaseURL:       cfg.GeminiBaseURL,
		Model:         cfg.VideoModel,
		HTTPClient:    httpClient,
		Logger:        logger,
		Limiter:       rate.NewLimiter(rate.Limit(cfg.SubmitPerSecond), 1),
		SubmitRetries: cfg.SubmitRetries,
	})
	contentClient := genai.NewClient(genai.Options{
		BaseURL:    cfg.GeminiBaseURL,
		Model:      cfg.ContentModel,
		HTTPClient: httpClient,
		Logger:     logger,
	})

	loop := generation.NewPollLoop(generation.PollLoopOptions{
		Config: generation.PollConfig{
			Interval:      cfg.PollInterval,
			MaxPolls:      cfg.MaxPolls,
			MaxPollErrors: cfg.MaxPollErrors,
		},
		Logger: logger,
	})
	primary := generation.NewPollingStrategy(generation.PollingStrategyOptions{
		Kind:      domain.StrategyPrimary,
		Model:     videoClient.Model(),
		Connector: videoClient,
		Loop:      loop,
		Materializer: generation.NewMaterializer(generation.MaterializerOptions{
			BaseURL:  videoClient.BaseURL(),
			MaxBytes: cfg.MaxAssetBytes,
		}),
		Logger: logger,
	})

	workflow := generation.NewWorkflow(generation.WorkflowOptions{
		Primary:           primary,
		Secondary:         genai.NewStoryboardStrategy(contentClient),
		Recorder:          ledger,
		MaxReferenceBytes: int(cfg.MaxReferenceImageBytes),
		Logger:            logger,
	})
	return generationStack{video: videoClient, content: contentClient, workflow: workflow}
}
