package generation

import (
	"context"
	"sync"
	"time"

	"vidabot/internal/domain"
)

type pollStep struct {
	raw string
	err error
}

type fakeProvider struct {
	mu        sync.Mutex
	handle    string
	submitErr error
	steps     []pollStep
	submits   int
	polls     int
	handles   []string
}

func (f *fakeProvider) Submit(ctx context.Context, req domain.GenerationRequest) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.submits++
	if f.submitErr != nil {
		return "", f.submitErr
	}
	if f.handle == "" {
		return "operations/test", nil
	}
	return f.handle, nil
}

func (f *fakeProvider) Connect(credentials string) Provider {
	return f
}

func (f *fakeProvider) Poll(ctx context.Context, handle string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handles = append(f.handles, handle)
	idx := f.polls
	f.polls++
	if len(f.steps) == 0 {
		return []byte(`{"name":"` + handle + `","done":false}`), nil
	}
	if idx >= len(f.steps) {
		idx = len(f.steps) - 1
	}
	step := f.steps[idx]
	if step.err != nil {
		return nil, step.err
	}
	return []byte(step.raw), nil
}

func (f *fakeProvider) pollCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.polls
}

type recordingSleep struct {
	mu    sync.Mutex
	calls []time.Duration
}

func (s *recordingSleep) Sleep(ctx context.Context, d time.Duration) error {
	s.mu.Lock()
	s.calls = append(s.calls, d)
	s.mu.Unlock()
	return ctx.Err()
}

type recordingSink struct {
	mu       sync.Mutex
	messages []string
}

func (s *recordingSink) Progress(ctx context.Context, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, message)
}

type staticStrategy struct {
	kind  domain.StrategyKind
	model string
	err   error
	calls int
	mu    sync.Mutex
}

func (s *staticStrategy) Kind() domain.StrategyKind { return s.kind }

func (s *staticStrategy) Model() string { return s.model }

func (s *staticStrategy) Generate(ctx context.Context, req domain.GenerationRequest, sink ProgressSink) (*domain.Job, *domain.Result, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	job := domain.NewJob("", 1)
	job.Strategy = s.kind
	_ = job.StartPolling()
	if s.err != nil {
		_ = job.Fail(s.err)
		return job, nil, s.err
	}
	sink.Progress(ctx, string(s.kind)+" working")
	_ = job.Complete(string(s.kind) + "://asset")
	return job, &domain.Result{
		JobID:    job.ID,
		Strategy: s.kind,
		Model:    s.model,
		Asset:    domain.NewMaterializedAsset([]byte(string(s.kind)), "video/mp4"),
	}, nil
}

func (s *staticStrategy) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type memoryRecorder struct {
	mu      sync.Mutex
	records []domain.GenerationRecord
}

func (m *memoryRecorder) Record(ctx context.Context, rec domain.GenerationRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, rec)
	return nil
}

func (m *memoryRecorder) Summary(ctx context.Context, since time.Time) (*domain.GenerationSummary, error) {
	return &domain.GenerationSummary{Since: since}, nil
}
