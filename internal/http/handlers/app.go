package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog"

	"vidabot/internal/bridge"
	"vidabot/internal/domain"
	"vidabot/internal/generation"
	"vidabot/internal/infra"
	"vidabot/internal/middleware"
)

// Generator starts one generation workflow and returns its event stream.
type Generator interface {
	Start(ctx context.Context, req domain.GenerationRequest) *generation.Emitter
}

// KeyResolver picks the provider key used for a request.
type KeyResolver interface {
	Resolve(ctx context.Context, requestKey string) (string, error)
}

// KeyValidator checks that a key is accepted by the content model.
type KeyValidator interface {
	ValidateKey(ctx context.Context, apiKey string) error
}

// AccessChecker checks that a key may use the video model.
type AccessChecker interface {
	CheckAccess(ctx context.Context, apiKey string) error
}

// AppOptions wires the bridge handlers. Ledger, Access and Logger are optional.
type AppOptions struct {
	Generator         Generator
	Keys              KeyResolver
	Validator         KeyValidator
	Access            AccessChecker
	Ledger            domain.GenerationRepository
	VideoModel        string
	MaxReferenceBytes int
	KeyCacheTTL       time.Duration
	Logger            *infra.Logger
}

type App struct {
	generator         Generator
	keys              KeyResolver
	validator         KeyValidator
	access            AccessChecker
	ledger            domain.GenerationRepository
	videoModel        string
	maxReferenceBytes int
	keyCache          *cache.Cache
	startedAt         time.Time
	logger            *infra.Logger
	now               func() time.Time
}

func NewApp(opts AppOptions) *App {
	ttl := opts.KeyCacheTTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	logger := opts.Logger
	if logger == nil {
		discard := zerolog.New(io.Discard)
		l := infra.Logger(discard)
		logger = &l
	}
	return &App{
		generator:         opts.Generator,
		keys:              opts.Keys,
		validator:         opts.Validator,
		access:            opts.Access,
		ledger:            opts.Ledger,
		videoModel:        opts.VideoModel,
		maxReferenceBytes: opts.MaxReferenceBytes,
		keyCache:          cache.New(ttl, 2*ttl),
		startedAt:         time.Now(),
		logger:            logger,
		now:               time.Now,
	}
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// fail answers a request that never reached the stream with the classified
// status and a localized message.
func (a *App) fail(w http.ResponseWriter, r *http.Request, err error) {
	kind := domain.KindOf(err)
	a.json(w, kind.HTTPStatus(), bridge.ErrorResponse{
		Success: false,
		Error:   domain.MessageFor(err, middleware.LocaleFromContext(r.Context())),
		Code:    string(kind),
	})
}

// MethodNotAllowed is installed on the router for every path.
func (a *App) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusMethodNotAllowed, bridge.ErrorResponse{Success: false, Error: "Method not allowed", Code: "method_not_allowed"})
}

// NotFound answers unknown paths.
func (a *App) NotFound(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusNotFound, bridge.ErrorResponse{Success: false, Error: "Not found", Code: "not_found"})
}
