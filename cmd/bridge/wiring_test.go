package main

import (
	"bufio"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"vidabot/internal/adapter/repo"
	"vidabot/internal/bridge"
	"vidabot/internal/domain"
	"vidabot/internal/http/handlers"
	httpapi "vidabot/internal/http/httpapi"
	"vidabot/internal/infra"
	"vidabot/internal/infra/credentials"
)

func testConfig(baseURL string) *infra.Config {
	return &infra.Config{
		GeminiBaseURL:          baseURL,
		VideoModel:             "veo-3.0-generate-preview",
		ContentModel:           "gemini-1.5-flash",
		PollInterval:           time.Millisecond,
		MaxPolls:               2,
		MaxPollErrors:          1,
		SubmitRetries:          -1,
		SubmitPerSecond:        1000,
		MaxReferenceImageBytes: 1 << 20,
		MaxAssetBytes:          1 << 20,
	}
}

func streamLines(t *testing.T, body string) []bridge.StreamEvent {
	t.Helper()
	var events []bridge.StreamEvent
	scanner := bufio.NewScanner(strings.NewReader(body))
	for scanner.Scan() {
		var ev bridge.StreamEvent
		if err := json.Unmarshal(scanner.Bytes(), &ev); err != nil {
			t.Fatalf("invalid stream line %q: %v", scanner.Text(), err)
		}
		events = append(events, ev)
	}
	return events
}

func TestBridgeSurfacesProviderOutage(t *testing.T) {
	var submits atomic.Int32
	provider := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, ":predictLongRunning") {
			submits.Add(1)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"error":{"code":503,"message":"The service is currently unavailable.","status":"UNAVAILABLE"}}`))
	}))
	defer provider.Close()

	logger := infra.NewLogger("test")
	ledger := repo.NewGenerationRepositoryMemory(0)
	stack := newGenerationStack(testConfig(provider.URL), ledger, &logger)
	app := handlers.NewApp(handlers.AppOptions{
		Generator:  stack.workflow,
		Keys:       credentials.Resolver{},
		Validator:  stack.content,
		Access:     stack.video,
		VideoModel: stack.video.Model(),
	})
	router := httpapi.NewRouter(app, httpapi.RouterOptions{Logger: logger, DefaultLocale: "en", RateLimitPerMin: 100})

	rec := httptest.NewRecorder()
	body := `{"apiKey":"key-1","prompt":"A cat in a garden"}`
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/generate-video", strings.NewReader(body)))

	if submits.Load() != 1 {
		t.Fatalf("provider submits = %d, want 1", submits.Load())
	}
	events := streamLines(t, rec.Body.String())
	if len(events) == 0 {
		t.Fatalf("empty stream, status %d", rec.Code)
	}
	last := events[len(events)-1]
	if last.Type != bridge.EventError || last.Code != string(domain.KindTransient) || last.Strategy != string(domain.StrategyPrimary) {
		t.Fatalf("last event = %+v, want transient error", last)
	}
	for _, ev := range events {
		if ev.Type == bridge.EventResult {
			t.Fatalf("outage produced a result: %+v", ev)
		}
	}
}
