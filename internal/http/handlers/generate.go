package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"vidabot/internal/bridge"
	"vidabot/internal/domain"
	"vidabot/internal/infra/credentials"
	"vidabot/internal/middleware"
)

const generateVideoSchema = `{
  "type": "object",
  "required": ["prompt"],
  "properties": {
    "apiKey": {"type": "string"},
    "prompt": {"type": "string", "minLength": 1},
    "config": {"type": "object"},
    "referenceImage": {"type": "string"}
  }
}`

var generateVideoSchemaLoader = gojsonschema.NewStringLoader(generateVideoSchema)

const defaultBodyLimit = 32 << 20

// GenerateVideo validates the request, then streams the job as NDJSON. Every
// stream ends with exactly one result or error line.
func (a *App) GenerateVideo(w http.ResponseWriter, r *http.Request) {
	req, err := a.decodeGenerateRequest(r)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	req.Locale = middleware.LocaleFromContext(r.Context())
	if err := req.Validate(a.maxReferenceBytes); err != nil {
		a.fail(w, r, err)
		return
	}

	flusher, _ := w.(http.Flusher)
	w.Header().Set("Content-Type", "application/x-ndjson")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	enc := json.NewEncoder(w)
	write := func(ev bridge.StreamEvent) {
		ev.Timestamp = float64(a.now().UnixMilli()) / 1000
		if err := enc.Encode(ev); err != nil {
			a.logger.Debug().Err(err).Msg("handlers: stream write failed")
			return
		}
		if flusher != nil {
			flusher.Flush()
		}
	}

	em := a.generator.Start(r.Context(), req)
	for ev := range em.Events() {
		switch ev.Kind {
		case domain.EventProgress:
			write(bridge.StreamEvent{Type: bridge.EventProgress, Message: ev.Message})
		case domain.EventResult:
			write(resultEvent(ev.Payload, req.Prompt))
		case domain.EventError:
			write(bridge.ErrorEvent(ev.Err, ev.Message, ev.Strategy))
		}
	}
}

func resultEvent(res *domain.Result, prompt string) bridge.StreamEvent {
	ev := bridge.StreamEvent{Type: bridge.EventResult, Success: true, Prompt: prompt}
	if res == nil {
		return ev
	}
	ev.JobID = res.JobID
	ev.Model = res.Model
	ev.Strategy = string(res.Strategy)
	ev.Duration = res.DurationSeconds
	ev.DownloadURL = stripKey(res.SourceURI)
	if res.Asset != nil {
		ev.VideoData = res.Asset.Base64()
		ev.MimeType = res.Asset.MimeType
		ev.SizeBytes = res.Asset.SizeBytes
	}
	return ev
}

// stripKey removes credentials from an asset URI before it leaves the bridge.
func stripKey(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return ""
	}
	q := u.Query()
	q.Del("key")
	u.RawQuery = q.Encode()
	return u.String()
}

func (a *App) bodyLimit() int64 {
	if a.maxReferenceBytes <= 0 {
		return defaultBodyLimit
	}
	return int64(a.maxReferenceBytes)*4/3 + 1<<20
}

func (a *App) decodeGenerateRequest(r *http.Request) (domain.GenerationRequest, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	var (
		payload bridge.GenerateVideoRequest
		ref     *domain.ReferenceAsset
		err     error
	)
	switch mediaType {
	case "multipart/form-data":
		payload, ref, err = a.decodeMultipart(r)
	default:
		payload, err = a.decodeJSON(r)
		if err == nil {
			ref, err = domain.ParseDataURL(payload.ReferenceImage)
		}
	}
	if err != nil {
		return domain.GenerationRequest{}, err
	}

	key, err := a.keys.Resolve(r.Context(), payload.APIKey)
	if err != nil && !errors.Is(err, credentials.ErrNoKey) {
		a.logger.Error().Err(err).Msg("handlers: resolve api key")
		return domain.GenerationRequest{}, domain.NewError(domain.KindUnknown, "resolve api key", err)
	}
	req := domain.NewGenerationRequest(payload.Prompt, key, payload.Config)
	req.Reference = ref
	return req, nil
}

func (a *App) decodeJSON(r *http.Request) (bridge.GenerateVideoRequest, error) {
	var payload bridge.GenerateVideoRequest
	body, err := io.ReadAll(io.LimitReader(r.Body, a.bodyLimit()+1))
	if err != nil {
		return payload, domain.NewError(domain.KindValidation, "read body", err)
	}
	if int64(len(body)) > a.bodyLimit() {
		return payload, domain.Errorf(domain.KindValidation, "request body too large")
	}
	result, err := gojsonschema.Validate(generateVideoSchemaLoader, gojsonschema.NewBytesLoader(body))
	if err != nil {
		return payload, domain.NewError(domain.KindValidation, "invalid JSON body", err)
	}
	if !result.Valid() {
		errs := make([]string, len(result.Errors()))
		for i, desc := range result.Errors() {
			errs[i] = desc.String()
		}
		return payload, domain.Errorf(domain.KindValidation, "invalid request: %s", strings.Join(errs, "; "))
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return payload, domain.NewError(domain.KindValidation, "invalid JSON body", err)
	}
	return payload, nil
}

func (a *App) decodeMultipart(r *http.Request) (bridge.GenerateVideoRequest, *domain.ReferenceAsset, error) {
	var payload bridge.GenerateVideoRequest
	r.Body = http.MaxBytesReader(nil, r.Body, a.bodyLimit())
	if err := r.ParseMultipartForm(8 << 20); err != nil {
		return payload, nil, domain.NewError(domain.KindValidation, "invalid multipart body", err)
	}
	payload.APIKey = r.FormValue("apiKey")
	payload.Prompt = r.FormValue("prompt")
	if raw := strings.TrimSpace(r.FormValue("config")); raw != "" {
		if err := json.Unmarshal([]byte(raw), &payload.Config); err != nil {
			return payload, nil, domain.NewError(domain.KindValidation, "config must be a JSON object", err)
		}
	}

	file, header, err := r.FormFile("referenceImage")
	if errors.Is(err, http.ErrMissingFile) {
		ref, err := domain.ParseDataURL(r.FormValue("referenceImage"))
		return payload, ref, err
	}
	if err != nil {
		return payload, nil, domain.NewError(domain.KindValidation, "read referenceImage", err)
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		return payload, nil, domain.NewError(domain.KindValidation, "read referenceImage", err)
	}
	mimeType := header.Header.Get("Content-Type")
	if !strings.HasPrefix(mimeType, "image/") {
		mimeType = domain.MimeTypeFromFilename(header.Filename)
	}
	return payload, &domain.ReferenceAsset{Data: data, MimeType: mimeType}, nil
}
