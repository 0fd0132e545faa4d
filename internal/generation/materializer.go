package generation

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"vidabot/internal/domain"
)

// DefaultMaxAssetBytes caps downloaded assets.
const DefaultMaxAssetBytes int64 = 200 << 20

// Materializer fetches a finished asset. The download endpoint is
// authenticated separately with the key query parameter.
type Materializer struct {
	httpClient *http.Client
	baseURL    string
	maxBytes   int64
}

// MaterializerOptions configures a Materializer. BaseURL resolves relative
// asset URIs.
type MaterializerOptions struct {
	HTTPClient *http.Client
	BaseURL    string
	MaxBytes   int64
}

func NewMaterializer(opts MaterializerOptions) *Materializer {
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Minute}
	}
	maxBytes := opts.MaxBytes
	if maxBytes <= 0 {
		maxBytes = DefaultMaxAssetBytes
	}
	return &Materializer{
		httpClient: client,
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		maxBytes:   maxBytes,
	}
}

// Materialize downloads assetURI. It does not retry; any failure other than
// cancellation is a DownloadError.
func (m *Materializer) Materialize(ctx context.Context, assetURI, credentials string) (*domain.MaterializedAsset, error) {
	target, err := m.resolve(assetURI, credentials)
	if err != nil {
		return nil, domain.NewError(domain.KindDownload, "invalid asset uri", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, domain.NewError(domain.KindDownload, "create download request", err)
	}
	resp, err := m.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, domain.NewError(domain.KindCancelled, "download abandoned", ctx.Err())
		}
		return nil, domain.NewError(domain.KindDownload, "download asset", redactKey(err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		e := domain.Errorf(domain.KindDownload, "download status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
		e.Status = resp.StatusCode
		return nil, e
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, m.maxBytes+1))
	if err != nil {
		return nil, domain.NewError(domain.KindDownload, "read asset", err)
	}
	if int64(len(data)) > m.maxBytes {
		return nil, domain.Errorf(domain.KindDownload, "asset exceeds %d bytes", m.maxBytes)
	}
	if len(data) == 0 {
		return nil, domain.Errorf(domain.KindDownload, "asset is empty")
	}
	mime := resp.Header.Get("Content-Type")
	if mime == "" || strings.HasPrefix(mime, "application/octet-stream") {
		mime = "video/mp4"
	}
	return domain.NewMaterializedAsset(data, mime), nil
}

func (m *Materializer) resolve(uri, credentials string) (string, error) {
	uri = strings.TrimSpace(uri)
	if uri == "" {
		return "", errors.New("empty uri")
	}
	target := uri
	if !strings.HasPrefix(uri, "http://") && !strings.HasPrefix(uri, "https://") {
		if m.baseURL == "" {
			return "", fmt.Errorf("relative uri %q without base url", uri)
		}
		target = m.baseURL + "/" + strings.TrimLeft(uri, "/")
	}
	u, err := url.Parse(target)
	if err != nil {
		return "", err
	}
	if credentials != "" {
		q := u.Query()
		q.Set("key", credentials)
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

// redactKey drops the request URL from transport errors so the key never
// reaches logs.
func redactKey(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return fmt.Errorf("%s: %w", urlErr.Op, urlErr.Err)
	}
	return err
}
