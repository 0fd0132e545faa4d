package repo

import (
	"context"
	"fmt"
	"sync"
	"time"

	"vidabot/internal/domain"
	"vidabot/internal/infra"
	"vidabot/internal/sqlinline"
)

// GenerationRepositoryPG implements domain.GenerationRepository using PostgreSQL.
type GenerationRepositoryPG struct {
	sql infra.SQLExecutor
}

// NewGenerationRepository constructs the repository.
func NewGenerationRepository(sql infra.SQLExecutor) *GenerationRepositoryPG {
	return &GenerationRepositoryPG{sql: sql}
}

// EnsureSchema creates the ledger and credential tables when missing.
func (r *GenerationRepositoryPG) EnsureSchema(ctx context.Context) error {
	for _, q := range []string{
		sqlinline.QEnsureGenerationsSchema,
		sqlinline.QEnsureGenerationsIndex,
		sqlinline.QEnsureProviderKeysSchema,
	} {
		if _, err := r.sql.Exec(ctx, q); err != nil {
			return fmt.Errorf("repo: ensure schema: %w", err)
		}
	}
	return nil
}

// Record upserts the ledger row for a terminal job.
func (r *GenerationRepositoryPG) Record(ctx context.Context, rec domain.GenerationRecord) error {
	createdAt := rec.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	_, err := r.sql.Exec(ctx, sqlinline.QInsertGeneration,
		rec.JobID,
		string(rec.Strategy),
		rec.Model,
		string(rec.State),
		string(rec.ErrorKind),
		rec.PollCount,
		rec.SizeBytes,
		rec.DurationMS,
		createdAt,
	)
	if err != nil {
		return fmt.Errorf("repo: record generation: %w", err)
	}
	return nil
}

// Summary aggregates ledger rows created at or after since.
func (r *GenerationRepositoryPG) Summary(ctx context.Context, since time.Time) (*domain.GenerationSummary, error) {
	rows, err := r.sql.Query(ctx, sqlinline.QGenerationSummary, since)
	if err != nil {
		return nil, fmt.Errorf("repo: generation summary: %w", err)
	}
	defer rows.Close()

	summary := newSummary(since)
	for rows.Next() {
		var strategy, state, errorKind string
		var count int
		if err := rows.Scan(&strategy, &state, &errorKind, &count); err != nil {
			return nil, fmt.Errorf("repo: scan summary: %w", err)
		}
		summary.add(domain.StrategyKind(strategy), domain.JobState(state), domain.ErrorKind(errorKind), count)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo: iterate summary: %w", err)
	}
	return summary.GenerationSummary, nil
}

// GenerationRepositoryMemory keeps the ledger in process. The bridge uses it
// when no database is configured.
type GenerationRepositoryMemory struct {
	mu      sync.Mutex
	records []domain.GenerationRecord
	limit   int
}

// NewGenerationRepositoryMemory keeps at most limit records, dropping the oldest.
func NewGenerationRepositoryMemory(limit int) *GenerationRepositoryMemory {
	if limit <= 0 {
		limit = 1000
	}
	return &GenerationRepositoryMemory{limit: limit}
}

func (m *GenerationRepositoryMemory) Record(ctx context.Context, rec domain.GenerationRecord) error {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, rec)
	if over := len(m.records) - m.limit; over > 0 {
		m.records = append(m.records[:0:0], m.records[over:]...)
	}
	return nil
}

func (m *GenerationRepositoryMemory) Summary(ctx context.Context, since time.Time) (*domain.GenerationSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	summary := newSummary(since)
	for _, rec := range m.records {
		if rec.CreatedAt.Before(since) {
			continue
		}
		summary.add(rec.Strategy, rec.State, rec.ErrorKind, 1)
	}
	return summary.GenerationSummary, nil
}

type summaryBuilder struct {
	*domain.GenerationSummary
}

func newSummary(since time.Time) summaryBuilder {
	return summaryBuilder{&domain.GenerationSummary{
		Since:      since,
		ByStrategy: map[domain.StrategyKind]int{},
		ByError:    map[domain.ErrorKind]int{},
	}}
}

func (s summaryBuilder) add(strategy domain.StrategyKind, state domain.JobState, kind domain.ErrorKind, count int) {
	s.Total += count
	s.ByStrategy[strategy] += count
	switch state {
	case domain.JobCompleted:
		s.Completed += count
	case domain.JobTimedOut:
		s.TimedOut += count
	case domain.JobCancelled:
		s.Cancelled += count
	default:
		s.Failed += count
	}
	if kind != "" {
		s.ByError[kind] += count
	}
}

var (
	_ domain.GenerationRepository = (*GenerationRepositoryPG)(nil)
	_ domain.GenerationRepository = (*GenerationRepositoryMemory)(nil)
)
