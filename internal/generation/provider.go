// Package generation orchestrates long-running generation jobs: submission,
// fixed-interval polling, response normalization, asset download and the
// fallback between execution strategies.
package generation

import (
	"context"

	"vidabot/internal/domain"
)

// Provider is a long-running generation backend. Both methods return errors
// already classified into the domain taxonomy.
type Provider interface {
	// Submit starts a generation and returns the opaque operation handle.
	Submit(ctx context.Context, req domain.GenerationRequest) (string, error)
	// Poll fetches the raw operation status. It must not fail merely because the
	// operation is still running.
	Poll(ctx context.Context, handle string) ([]byte, error)
}

// Connector binds a Provider to the credentials of one request. Credentials
// are never retained beyond the returned Provider.
type Connector interface {
	Connect(credentials string) Provider
}

// ConnectorFunc adapts a function to Connector.
type ConnectorFunc func(credentials string) Provider

func (f ConnectorFunc) Connect(credentials string) Provider {
	return f(credentials)
}

// ProgressSink receives non-terminal progress messages.
type ProgressSink interface {
	Progress(ctx context.Context, message string)
}

// Strategy is one execution path for a generation request. The returned job
// is non-nil whenever a job was created, including on failure.
type Strategy interface {
	Kind() domain.StrategyKind
	Model() string
	Generate(ctx context.Context, req domain.GenerationRequest, sink ProgressSink) (*domain.Job, *domain.Result, error)
}

type nopSink struct{}

func (nopSink) Progress(context.Context, string) {}

// NopSink discards progress.
var NopSink ProgressSink = nopSink{}
