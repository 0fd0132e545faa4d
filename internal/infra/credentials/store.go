// Package credentials keeps the default provider API key used when a request
// arrives without its own key.
package credentials

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"vidabot/internal/infra"
	"vidabot/internal/sqlinline"
)

const (
	ProviderGemini = "gemini"
)

// ErrNoKey is returned by Resolve when no key is available from any source.
var ErrNoKey = errors.New("credentials: no api key available")

type Store struct {
	sql infra.SQLExecutor
}

func NewStore(sql infra.SQLExecutor) *Store {
	return &Store{sql: sql}
}

func (s *Store) GeminiAPIKey(ctx context.Context) (string, error) {
	return s.Token(ctx, ProviderGemini)
}

func (s *Store) Token(ctx context.Context, provider string) (string, error) {
	if s == nil || s.sql == nil {
		return "", nil
	}
	row := s.sql.QueryRow(ctx, sqlinline.QSelectProviderKey, provider)
	var token string
	if err := row.Scan(&token); err != nil {
		if infra.IsNoRows(err) {
			return "", nil
		}
		return "", err
	}
	return strings.TrimSpace(token), nil
}

func (s *Store) SetGeminiAPIKey(ctx context.Context, key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return errors.New("gemini api key is required")
	}
	return s.upsert(ctx, ProviderGemini, key, map[string]any{"source": "geminikey"})
}

func (s *Store) upsert(ctx context.Context, provider, token string, props map[string]any) error {
	if s == nil || s.sql == nil {
		return errors.New("credentials: no database configured")
	}
	payload := props
	if payload == nil {
		payload = map[string]any{}
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	_, err = s.sql.Exec(ctx, sqlinline.QUpsertProviderKey, provider, token, raw)
	return err
}

// Resolver picks the API key for one request: the caller's own key first,
// then the configured key, then the stored default.
type Resolver struct {
	Configured string
	Store      *Store
}

func (r Resolver) Resolve(ctx context.Context, requestKey string) (string, error) {
	if key := strings.TrimSpace(requestKey); key != "" {
		return key, nil
	}
	if key := strings.TrimSpace(r.Configured); key != "" {
		return key, nil
	}
	if r.Store != nil {
		key, err := r.Store.GeminiAPIKey(ctx)
		if err != nil {
			return "", err
		}
		if key != "" {
			return key, nil
		}
	}
	return "", ErrNoKey
}
