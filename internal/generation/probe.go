package generation

import (
	"context"
	"net/http"
	"time"

	"github.com/patrickmn/go-cache"
)

// Probe reports whether the primary execution path is reachable.
type Probe interface {
	Available(ctx context.Context) bool
}

// ProbeFunc adapts a function to Probe.
type ProbeFunc func(ctx context.Context) bool

func (f ProbeFunc) Available(ctx context.Context) bool {
	return f(ctx)
}

const (
	DefaultProbeTimeout  = 3 * time.Second
	DefaultProbeCacheTTL = 10 * time.Second
)

// HTTPProbe issues a bounded GET against a health endpoint and caches the
// answer briefly so bursts of jobs share one probe.
type HTTPProbe struct {
	url        string
	timeout    time.Duration
	httpClient *http.Client
	cache      *cache.Cache
}

// HTTPProbeOptions configures an HTTPProbe. A negative CacheTTL disables
// caching.
type HTTPProbeOptions struct {
	URL        string
	Timeout    time.Duration
	CacheTTL   time.Duration
	HTTPClient *http.Client
}

func NewHTTPProbe(opts HTTPProbeOptions) *HTTPProbe {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultProbeTimeout
	}
	ttl := opts.CacheTTL
	if ttl == 0 {
		ttl = DefaultProbeCacheTTL
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{}
	}
	p := &HTTPProbe{
		url:        opts.URL,
		timeout:    timeout,
		httpClient: client,
	}
	if ttl > 0 {
		p.cache = cache.New(ttl, 2*ttl)
	}
	return p
}

// Available is false on any transport error, timeout or non-2xx status.
// An answer obtained after the caller's ctx ended is not cached.
func (p *HTTPProbe) Available(ctx context.Context) bool {
	if p.cache != nil {
		if v, ok := p.cache.Get(p.url); ok {
			return v.(bool)
		}
	}
	ok := p.check(ctx)
	if p.cache != nil && ctx.Err() == nil {
		p.cache.SetDefault(p.url, ok)
	}
	return ok
}

func (p *HTTPProbe) check(ctx context.Context) bool {
	if p.url == "" {
		return false
	}
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url, nil)
	if err != nil {
		return false
	}
	resp, err := p.httpClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode >= 200 && resp.StatusCode <= 299
}
