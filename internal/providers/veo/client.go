package veo

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"vidabot/internal/domain"
	"vidabot/internal/generation"
	"vidabot/internal/infra"
)

const (
	DefaultBaseURL       = "https://generativelanguage.googleapis.com/v1beta"
	DefaultModel         = "veo-3.0-generate-preview"
	defaultSubmitRetries = 3
	defaultRetryInterval = 2 * time.Second
	retryMultiplier      = 1.5
	maxErrorBody         = 4096
)

// Options controls how the Veo client is configured.
type Options struct {
	BaseURL              string
	Model                string
	HTTPClient           *http.Client
	Logger               *infra.Logger
	Limiter              *rate.Limiter
	SubmitRetries        int
	RetryInitialInterval time.Duration
}

// Client talks to the long-running video generation endpoint. It holds no
// credentials; Connect binds one request's key.
type Client struct {
	baseURL       string
	model         string
	httpClient    *http.Client
	logger        *infra.Logger
	limiter       *rate.Limiter
	submitRetries int
	retryInterval time.Duration
}

// Session is a Client bound to one API key.
type Session struct {
	client *Client
	apiKey string
}

type instance struct {
	Prompt string      `json:"prompt"`
	Image  *inputImage `json:"image,omitempty"`
}

type inputImage struct {
	BytesBase64Encoded string `json:"bytesBase64Encoded"`
	MimeType           string `json:"mimeType"`
}

type parameters struct {
	AspectRatio      string `json:"aspectRatio,omitempty"`
	SampleCount      int    `json:"sampleCount,omitempty"`
	Resolution       string `json:"resolution,omitempty"`
	NegativePrompt   string `json:"negativePrompt,omitempty"`
	PersonGeneration string `json:"personGeneration,omitempty"`
	DurationSeconds  int    `json:"durationSeconds,omitempty"`
	Seed             *int64 `json:"seed,omitempty"`
}

type predictRequest struct {
	Instances  []instance `json:"instances"`
	Parameters parameters `json:"parameters"`
}

type operationHandle struct {
	Name string `json:"name"`
}

type apiErrorResponse struct {
	Error struct {
		Code    int    `json:"code,omitempty"`
		Message string `json:"message,omitempty"`
		Status  string `json:"status,omitempty"`
	} `json:"error"`
}

// NewClient constructs a Veo client with sane defaults. Callers may provide a
// nil HTTP client; one with a bounded timeout will be created.
func NewClient(opts Options) *Client {
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = DefaultModel
	}
	retries := opts.SubmitRetries
	if retries < 0 {
		retries = 0
	} else if retries == 0 {
		retries = defaultSubmitRetries
	}
	interval := opts.RetryInitialInterval
	if interval <= 0 {
		interval = defaultRetryInterval
	}

	var logger *infra.Logger
	if opts.Logger != nil {
		logger = opts.Logger
	} else {
		discard := zerolog.New(io.Discard)
		l := infra.Logger(discard)
		logger = &l
	}

	return &Client{
		baseURL:       baseURL,
		model:         model,
		httpClient:    client,
		logger:        logger,
		limiter:       opts.Limiter,
		submitRetries: retries,
		retryInterval: interval,
	}
}

// Model returns the configured video model identifier.
func (c *Client) Model() string {
	return c.model
}

// BaseURL returns the API root used for relative asset URIs.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// CheckAccess reports whether apiKey may use the video model by reading the
// model resource. A key without access yields a Permission error.
func (c *Client) CheckAccess(ctx context.Context, apiKey string) error {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return domain.Errorf(domain.KindValidation, "apiKey is required")
	}
	s := &Session{client: c, apiKey: apiKey}
	var model json.RawMessage
	return s.do(ctx, http.MethodGet, fmt.Sprintf("%s/models/%s", c.baseURL, url.PathEscape(c.model)), nil, &model)
}

// Connect binds apiKey for the lifetime of one job.
func (c *Client) Connect(apiKey string) generation.Provider {
	return &Session{client: c, apiKey: strings.TrimSpace(apiKey)}
}

// Submit starts a generation. Transient failures are retried with bounded
// exponential backoff; every other class is returned on first sight.
func (s *Session) Submit(ctx context.Context, req domain.GenerationRequest) (string, error) {
	cfg, err := req.VideoConfig()
	if err != nil {
		return "", err
	}
	inst := instance{Prompt: strings.TrimSpace(req.Prompt)}
	if req.Reference != nil {
		inst.Image = &inputImage{
			BytesBase64Encoded: base64.StdEncoding.EncodeToString(req.Reference.Data),
			MimeType:           req.Reference.MimeType,
		}
	}
	payload := predictRequest{
		Instances: []instance{inst},
		Parameters: parameters{
			AspectRatio:      cfg.AspectRatio,
			SampleCount:      cfg.SampleCount,
			Resolution:       cfg.Resolution,
			NegativePrompt:   cfg.NegativePrompt,
			PersonGeneration: cfg.PersonGeneration,
			DurationSeconds:  cfg.DurationSeconds,
			Seed:             cfg.Seed,
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", domain.NewError(domain.KindValidation, "encode request", err)
	}
	endpoint := fmt.Sprintf("%s/models/%s:predictLongRunning", s.client.baseURL, url.PathEscape(s.client.model))

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = s.client.retryInterval
	policy.Multiplier = retryMultiplier
	policy.RandomizationFactor = 0
	policy.MaxElapsedTime = 0

	attempt := 0
	var handle operationHandle
	op := func() error {
		attempt++
		if s.client.limiter != nil {
			if err := s.client.limiter.Wait(ctx); err != nil {
				return backoff.Permanent(domain.NewError(domain.KindCancelled, "submit abandoned", err))
			}
		}
		err := s.do(ctx, http.MethodPost, endpoint, body, &handle)
		if err == nil {
			return nil
		}
		if domain.KindOf(err).Retryable() {
			s.client.logger.Warn().Err(err).Int("attempt", attempt).Str("model", s.client.model).Msg("veo: submit failed; retrying")
			return err
		}
		return backoff.Permanent(err)
	}
	if err := backoff.Retry(op, backoff.WithContext(backoff.WithMaxRetries(policy, uint64(s.client.submitRetries)), ctx)); err != nil {
		return "", err
	}
	if strings.TrimSpace(handle.Name) == "" {
		return "", domain.Errorf(domain.KindTransient, "submit returned no operation name")
	}
	s.client.logger.Debug().Str("operation", handle.Name).Int("attempts", attempt).Msg("veo: operation started")
	return handle.Name, nil
}

// Poll fetches the operation resource. It is a plain GET and never mutates
// provider state.
func (s *Session) Poll(ctx context.Context, handle string) ([]byte, error) {
	if strings.TrimSpace(handle) == "" {
		return nil, domain.Errorf(domain.KindValidation, "empty operation handle")
	}
	endpoint := s.client.baseURL + "/" + strings.TrimLeft(handle, "/")
	var raw json.RawMessage
	if err := s.do(ctx, http.MethodGet, endpoint, nil, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

func (s *Session) do(ctx context.Context, method, endpoint string, body []byte, out any) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return domain.NewError(domain.KindValidation, "create request", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if s.apiKey != "" {
		req.Header.Set("x-goog-api-key", s.apiKey)
	}

	resp, err := s.client.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return domain.NewError(domain.KindCancelled, "request abandoned", ctx.Err())
		}
		return domain.NewError(domain.KindTransient, "invoke veo", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		var apiErr apiErrorResponse
		if err := json.Unmarshal(data, &apiErr); err == nil && apiErr.Error.Message != "" {
			return domain.ClassifyHTTP(resp.StatusCode, apiErr.Error.Status, apiErr.Error.Message)
		}
		return domain.ClassifyHTTP(resp.StatusCode, "", strings.TrimSpace(string(data)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return domain.Errorf(domain.KindTransient, "empty response body")
		}
		return domain.NewError(domain.KindTransient, "decode veo response", err)
	}
	return nil
}

var _ generation.Connector = (*Client)(nil)
var _ generation.Provider = (*Session)(nil)
