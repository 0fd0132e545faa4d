package main

import (
	"io"
	"net/http"
	"os"
	"time"

	"github.com/rs/zerolog"

	"vidabot/internal/adapter/repo"
	"vidabot/internal/bridge"
	"vidabot/internal/generation"
	"vidabot/internal/infra"
	"vidabot/internal/providers/genai"
	"vidabot/internal/providers/placeholder"
)

// clientSide holds the collaborators of the invoking workflow.
type clientSide struct {
	workflow *generation.Workflow
	ledger   *repo.GenerationRepositoryMemory
}

func newClientSide(cfg *infra.Config) *clientSide {
	logger := zerolog.New(io.Discard)
	if opts.Verbose {
		logger = infra.NewLogger("development").Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}

	bridgeClient := bridge.NewClient(bridge.Options{BaseURL: opts.BridgeURL, Logger: &logger})
	contentClient := genai.NewClient(genai.Options{
		BaseURL:    cfg.GeminiBaseURL,
		Model:      cfg.ContentModel,
		HTTPClient: &http.Client{Timeout: 60 * time.Second},
		Logger:     &logger,
	})
	ledger := repo.NewGenerationRepositoryMemory(0)

	workflow := generation.NewWorkflow(generation.WorkflowOptions{
		Probe:             bridgeClient.Probe(cfg.ProbeTimeout, cfg.ProbeCacheTTL),
		Primary:           bridgeClient.Strategy(cfg.VideoModel),
		Secondary:         genai.NewStoryboardStrategy(contentClient),
		Mock:              placeholder.NewStrategy(),
		Recorder:          ledger,
		MaxReferenceBytes: int(cfg.MaxReferenceImageBytes),
		Logger:            &logger,
	})
	return &clientSide{workflow: workflow, ledger: ledger}
}

// newBridgeOnly is used by commands that never fall back.
func newBridgeOnly() *bridge.Client {
	return bridge.NewClient(bridge.Options{BaseURL: opts.BridgeURL})
}
