package generation

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vidabot/internal/domain"
)

func validRequest() domain.GenerationRequest {
	return domain.GenerationRequest{Prompt: "A cat in a garden", Credentials: "key-123"}
}

func TestPollingStrategyEndToEnd(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("key") != "key-123" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "video/mp4")
		_, _ = w.Write([]byte("video"))
	}))
	defer srv.Close()

	provider := &fakeProvider{steps: []pollStep{
		{raw: `{"done":false}`},
		{raw: `{"done":true,"response":{"generatedVideos":[{"video":{"uri":"` + srv.URL + `/v.mp4","mimeType":"video/mp4"}}]}}`},
	}}
	sink := &recordingSink{}
	s := NewPollingStrategy(PollingStrategyOptions{
		Model:        "veo-test",
		Connector:    provider,
		Loop:         NewPollLoop(PollLoopOptions{Config: PollConfig{Interval: time.Second, MaxPolls: 5}, Sleep: (&recordingSleep{}).Sleep}),
		Materializer: NewMaterializer(MaterializerOptions{HTTPClient: srv.Client()}),
	})

	job, res, err := s.Generate(context.Background(), validRequest(), sink)
	require.NoError(t, err)
	assert.Equal(t, domain.JobCompleted, job.State)
	assert.Equal(t, domain.StrategyPrimary, res.Strategy)
	assert.Equal(t, "veo-test", res.Model)
	assert.Equal(t, job.ID, res.JobID)
	assert.Equal(t, "video/mp4", res.Asset.MimeType)
	assert.Equal(t, 8, res.DurationSeconds)
	assert.Equal(t, 1, res.PollCount)
	assert.Contains(t, sink.messages, "Waiting for video generation... (attempt 1/5)")
}

func TestPollingStrategySubmitError(t *testing.T) {
	provider := &fakeProvider{submitErr: domain.Errorf(domain.KindRateLimit, "quota")}
	s := NewPollingStrategy(PollingStrategyOptions{Connector: provider})

	job, res, err := s.Generate(context.Background(), validRequest(), nil)
	assert.Nil(t, job)
	assert.Nil(t, res)
	assert.Equal(t, domain.KindRateLimit, domain.KindOf(err))
	assert.Equal(t, 0, provider.pollCount())
}

func TestPollingStrategyDownloadFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	provider := &fakeProvider{steps: []pollStep{
		{raw: `{"done":true,"response":{"generatedVideos":[{"video":{"uri":"` + srv.URL + `/gone"}}]}}`},
	}}
	s := NewPollingStrategy(PollingStrategyOptions{
		Connector:    provider,
		Materializer: NewMaterializer(MaterializerOptions{HTTPClient: srv.Client()}),
	})

	job, res, err := s.Generate(context.Background(), validRequest(), nil)
	assert.Equal(t, domain.JobCompleted, job.State)
	assert.Nil(t, res)
	assert.Equal(t, domain.KindDownload, domain.KindOf(err))
}

func runWorkflow(t *testing.T, w *Workflow, req domain.GenerationRequest) []domain.ProgressEvent {
	t.Helper()
	em := w.Start(context.Background(), req)
	var events []domain.ProgressEvent
	for ev := range em.Events() {
		events = append(events, ev)
	}
	require.NotEmpty(t, events)
	for _, ev := range events[:len(events)-1] {
		require.Equal(t, domain.EventProgress, ev.Kind, "only the last event may be terminal")
	}
	return events
}

func TestWorkflowFallsBackToSecondaryOnPermission(t *testing.T) {
	primary := &staticStrategy{kind: domain.StrategyPrimary, err: domain.ClassifyMessage("Access denied to this model")}
	secondary := &staticStrategy{kind: domain.StrategySecondary, model: "gemini-1.5-flash"}
	mock := &staticStrategy{kind: domain.StrategyMock}
	rec := &memoryRecorder{}
	w := NewWorkflow(WorkflowOptions{
		Probe:     ProbeFunc(func(context.Context) bool { return true }),
		Primary:   primary,
		Secondary: secondary,
		Mock:      mock,
		Recorder:  rec,
	})

	events := runWorkflow(t, w, validRequest())
	last := events[len(events)-1]
	require.Equal(t, domain.EventResult, last.Kind)
	assert.Equal(t, domain.StrategySecondary, last.Payload.Strategy)
	for _, ev := range events {
		assert.NotEqual(t, domain.EventError, ev.Kind)
	}
	assert.Equal(t, 1, primary.callCount())
	assert.Equal(t, 1, secondary.callCount())
	assert.Equal(t, 0, mock.callCount())

	require.Len(t, rec.records, 2)
	assert.Equal(t, domain.JobFailed, rec.records[0].State)
	assert.Equal(t, domain.KindPermission, rec.records[0].ErrorKind)
	assert.Equal(t, domain.JobCompleted, rec.records[1].State)
	assert.Equal(t, domain.StrategySecondary, rec.records[1].Strategy)
}

func TestWorkflowSecondaryFailureIsSurfaced(t *testing.T) {
	primary := &staticStrategy{kind: domain.StrategyPrimary, err: domain.Errorf(domain.KindPermission, "no access")}
	secondary := &staticStrategy{kind: domain.StrategySecondary, err: domain.Errorf(domain.KindPermission, "no access either")}
	w := NewWorkflow(WorkflowOptions{Primary: primary, Secondary: secondary})

	events := runWorkflow(t, w, validRequest())
	last := events[len(events)-1]
	require.Equal(t, domain.EventError, last.Kind)
	assert.Equal(t, domain.KindPermission, domain.KindOf(last.Err))
	assert.Equal(t, domain.StrategySecondary, last.Strategy)
	assert.Equal(t, 1, secondary.callCount())
}

func TestWorkflowPrimaryFailureNamesPrimary(t *testing.T) {
	primary := &staticStrategy{kind: domain.StrategyPrimary, err: domain.Errorf(domain.KindTransient, "unavailable")}
	w := NewWorkflow(WorkflowOptions{Primary: primary})

	events := runWorkflow(t, w, validRequest())
	last := events[len(events)-1]
	require.Equal(t, domain.EventError, last.Kind)
	assert.Equal(t, domain.StrategyPrimary, last.Strategy)
}

func TestWorkflowSkipsSecondaryWhenUpstreamFellBack(t *testing.T) {
	upstream := domain.NewError(domain.KindPermission, "storyboard denied", domain.ErrFallbackUsed)
	primary := &staticStrategy{kind: domain.StrategyPrimary, err: upstream}
	secondary := &staticStrategy{kind: domain.StrategySecondary}
	w := NewWorkflow(WorkflowOptions{Primary: primary, Secondary: secondary})

	_, err := w.Generate(context.Background(), validRequest())
	assert.Equal(t, domain.KindPermission, domain.KindOf(err))
	assert.Equal(t, 0, secondary.callCount())
}

func TestWorkflowUsesMockWhenPrimaryUnreachable(t *testing.T) {
	primary := &staticStrategy{kind: domain.StrategyPrimary}
	mock := &staticStrategy{kind: domain.StrategyMock, model: "placeholder"}
	w := NewWorkflow(WorkflowOptions{
		Probe:   ProbeFunc(func(context.Context) bool { return false }),
		Primary: primary,
		Mock:    mock,
	})

	res, err := w.Generate(context.Background(), validRequest())
	require.NoError(t, err)
	assert.Equal(t, domain.StrategyMock, res.Strategy)
	assert.Equal(t, 0, primary.callCount())
}

func TestWorkflowDoesNotFallBackOnAuth(t *testing.T) {
	primary := &staticStrategy{kind: domain.StrategyPrimary, err: domain.Errorf(domain.KindAuth, "API key not valid")}
	secondary := &staticStrategy{kind: domain.StrategySecondary}
	w := NewWorkflow(WorkflowOptions{Primary: primary, Secondary: secondary})

	_, err := w.Generate(context.Background(), validRequest())
	assert.Equal(t, domain.KindAuth, domain.KindOf(err))
	assert.Equal(t, 0, secondary.callCount())
}

func TestWorkflowRejectsInvalidRequest(t *testing.T) {
	primary := &staticStrategy{kind: domain.StrategyPrimary}
	w := NewWorkflow(WorkflowOptions{Primary: primary})

	events := runWorkflow(t, w, domain.GenerationRequest{Prompt: "x", Credentials: "k", Locale: "id"})
	require.Len(t, events, 1)
	assert.Equal(t, domain.EventError, events[0].Kind)
	assert.Equal(t, domain.UserMessage(domain.KindValidation, "id"), events[0].Message)
	assert.Equal(t, 0, primary.callCount())
}

func TestWorkflowMissingStrategy(t *testing.T) {
	w := NewWorkflow(WorkflowOptions{Probe: ProbeFunc(func(context.Context) bool { return false })})
	_, err := w.Generate(context.Background(), validRequest())
	assert.Equal(t, domain.KindUnknown, domain.KindOf(err))
}

func TestBatchKeepsOrderAndIsolatesFailures(t *testing.T) {
	primary := &staticStrategy{kind: domain.StrategyPrimary}
	w := NewWorkflow(WorkflowOptions{Primary: primary})
	reqs := []domain.GenerationRequest{validRequest(), {Prompt: "no", Credentials: "k"}, validRequest()}

	results, err := NewBatch(w, 2).Run(context.Background(), reqs, nil)
	require.NoError(t, err)
	require.Len(t, results, 3)
	for i, r := range results {
		assert.Equal(t, i, r.Index)
	}
	assert.NotNil(t, results[0].Result)
	assert.Equal(t, domain.KindValidation, domain.KindOf(results[1].Err))
	assert.NotNil(t, results[2].Result)
	assert.Equal(t, 2, primary.callCount())
}

func TestBatchCancelled(t *testing.T) {
	w := NewWorkflow(WorkflowOptions{Primary: &staticStrategy{kind: domain.StrategyPrimary}})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results, err := NewBatch(w, 0).Run(ctx, []domain.GenerationRequest{validRequest()}, nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, domain.KindCancelled, domain.KindOf(results[0].Err))
}
