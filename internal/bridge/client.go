package bridge

import (
	"bufio"
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"vidabot/internal/domain"
	"vidabot/internal/generation"
	"vidabot/internal/infra"
)

// DefaultBaseURL is where a locally started bridge listens.
const DefaultBaseURL = "http://localhost:3005"

// Options controls how the bridge client is configured.
type Options struct {
	BaseURL    string
	HTTPClient *http.Client
	Logger     *infra.Logger
}

// Client calls a bridge service. The stream has no overall timeout; jobs run
// for minutes and are bounded by the caller's context.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *infra.Logger
}

func NewClient(opts Options) *Client {
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{}
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	var logger *infra.Logger
	if opts.Logger != nil {
		logger = opts.Logger
	} else {
		discard := zerolog.New(io.Discard)
		l := infra.Logger(discard)
		logger = &l
	}
	return &Client{baseURL: baseURL, httpClient: client, logger: logger}
}

// HealthURL is the availability probe endpoint.
func (c *Client) HealthURL() string {
	return c.baseURL + "/health"
}

// Probe returns an availability probe for this bridge.
func (c *Client) Probe(timeout, cacheTTL time.Duration) *generation.HTTPProbe {
	return generation.NewHTTPProbe(generation.HTTPProbeOptions{
		URL:        c.HealthURL(),
		Timeout:    timeout,
		CacheTTL:   cacheTTL,
		HTTPClient: c.httpClient,
	})
}

// TestAPIKey asks the bridge to validate apiKey. A rejected key is reported
// as a classified error.
func (c *Client) TestAPIKey(ctx context.Context, apiKey string) (*KeyTestResponse, error) {
	return c.keyTest(ctx, "/test-api-key", apiKey)
}

// TestVideoAccess asks the bridge whether apiKey may use the video model. A
// valid key without access is not an error; HasVideoAccess reports it.
func (c *Client) TestVideoAccess(ctx context.Context, apiKey string) (*KeyTestResponse, error) {
	return c.keyTest(ctx, "/test-video-access", apiKey)
}

func (c *Client) keyTest(ctx context.Context, path, apiKey string) (*KeyTestResponse, error) {
	body, err := json.Marshal(KeyTestRequest{APIKey: apiKey})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, domain.NewError(domain.KindTransient, "call bridge", err)
	}
	defer resp.Body.Close()

	var out KeyTestResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&out); err != nil {
		return nil, domain.NewError(domain.KindTransient, "decode bridge response", err)
	}
	if !out.Success {
		return &out, KindFromWire(out.Code, resp.StatusCode, out.Error)
	}
	return &out, nil
}

// StreamStrategy runs a job on the bridge and consumes its NDJSON stream. It
// is the client-side Primary path.
type StreamStrategy struct {
	client *Client
	model  string
}

// Strategy returns the Primary strategy backed by this bridge. model is only
// reported until the bridge names its own.
func (c *Client) Strategy(model string) *StreamStrategy {
	return &StreamStrategy{client: c, model: model}
}

func (s *StreamStrategy) Kind() domain.StrategyKind { return domain.StrategyPrimary }

func (s *StreamStrategy) Model() string { return s.model }

func (s *StreamStrategy) Generate(ctx context.Context, req domain.GenerationRequest, sink generation.ProgressSink) (*domain.Job, *domain.Result, error) {
	if sink == nil {
		sink = generation.NopSink
	}
	payload := GenerateVideoRequest{
		APIKey: req.Credentials,
		Prompt: req.Prompt,
		Config: req.Options,
	}
	if req.Reference != nil {
		payload.ReferenceImage = req.Reference.DataURL()
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, nil, domain.NewError(domain.KindValidation, "encode request", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.client.baseURL+"/generate-video", bytes.NewReader(body))
	if err != nil {
		return nil, nil, domain.NewError(domain.KindValidation, "create request", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/x-ndjson")
	if req.Locale != "" {
		httpReq.Header.Set("X-Locale", req.Locale)
	}

	resp, err := s.client.httpClient.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return nil, nil, domain.NewError(domain.KindCancelled, "request abandoned", ctx.Err())
		}
		return nil, nil, domain.NewError(domain.KindTransient, "call bridge", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var e ErrorResponse
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
		if json.Unmarshal(data, &e) != nil || e.Error == "" {
			e.Error = strings.TrimSpace(string(data))
		}
		return nil, nil, KindFromWire(e.Code, resp.StatusCode, e.Error)
	}

	job := domain.NewJob("bridge:"+s.client.baseURL, 1)
	job.Strategy = domain.StrategyPrimary
	_ = job.StartPolling()

	res, err := s.consume(ctx, resp.Body, sink)
	if err != nil {
		if domain.KindOf(err) == domain.KindCancelled {
			_ = job.Cancel(err)
		} else {
			_ = job.Fail(err)
		}
		return job, nil, err
	}
	uri := res.SourceURI
	if uri == "" {
		uri = "bridge://" + res.JobID
	}
	_ = job.Complete(uri)
	if res.JobID == "" {
		res.JobID = job.ID
	}
	return job, res, nil
}

func (s *StreamStrategy) consume(ctx context.Context, body io.Reader, sink generation.ProgressSink) (*domain.Result, error) {
	reader := bufio.NewReader(body)
	for {
		line, readErr := reader.ReadBytes('\n')
		if trimmed := bytes.TrimSpace(line); len(trimmed) > 0 {
			var ev StreamEvent
			if err := json.Unmarshal(trimmed, &ev); err != nil {
				s.client.logger.Debug().Err(err).Msg("bridge: skipping malformed stream line")
			} else {
				switch ev.Type {
				case EventProgress:
					sink.Progress(ctx, ev.Message)
				case EventResult:
					return s.result(ev)
				case EventError:
					return nil, s.streamError(ev)
				}
			}
		}
		if readErr != nil {
			if ctx.Err() != nil {
				return nil, domain.NewError(domain.KindCancelled, "stream abandoned", ctx.Err())
			}
			if errors.Is(readErr, io.EOF) {
				return nil, domain.Errorf(domain.KindTransient, "stream ended without a result")
			}
			return nil, domain.NewError(domain.KindTransient, "read stream", readErr)
		}
	}
}

// streamError classifies a terminal error line. A failure of anything but the
// bridge's primary path means the bridge already fell back.
func (s *StreamStrategy) streamError(ev StreamEvent) error {
	err := KindFromWire(ev.Code, 0, ev.Error)
	if strategy := domain.StrategyKind(ev.Strategy); strategy != "" && strategy != domain.StrategyPrimary {
		err.Err = domain.ErrFallbackUsed
	}
	return err
}

func (s *StreamStrategy) result(ev StreamEvent) (*domain.Result, error) {
	data, err := base64.StdEncoding.DecodeString(ev.VideoData)
	if err != nil || len(data) == 0 {
		return nil, domain.NewError(domain.KindEmptyResult, "result carried no video data", err)
	}
	mime := ev.MimeType
	if mime == "" {
		mime = "video/mp4"
	}
	model := ev.Model
	if model == "" {
		model = s.model
	}
	strategy := domain.StrategyKind(ev.Strategy)
	if strategy == "" {
		strategy = domain.StrategyPrimary
	}
	return &domain.Result{
		JobID:           ev.JobID,
		Strategy:        strategy,
		Model:           model,
		Asset:           domain.NewMaterializedAsset(data, mime),
		DurationSeconds: ev.Duration,
		SourceURI:       ev.DownloadURL,
	}, nil
}

var _ generation.Strategy = (*StreamStrategy)(nil)
