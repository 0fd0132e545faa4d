package domain

import (
	"context"
	"time"
)

// GenerationRepository persists the generation ledger.
type GenerationRepository interface {
	Record(ctx context.Context, rec GenerationRecord) error
	Summary(ctx context.Context, since time.Time) (*GenerationSummary, error)
}

// CredentialStore resolves the server-side default provider key.
type CredentialStore interface {
	GeminiAPIKey(ctx context.Context) (string, error)
}
