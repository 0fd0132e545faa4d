package handlers

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"

	"vidabot/internal/bridge"
	"vidabot/internal/domain"
	"vidabot/internal/middleware"
)

const keyTestTimeout = 20 * time.Second

const videoAccessSuggestion = "Enable the video model for this project or use a key from a project with video access. Storyboard generation stays available."

// TestAPIKey validates a key against the content model. Definitive answers
// are cached per key hash.
func (a *App) TestAPIKey(w http.ResponseWriter, r *http.Request) {
	key, err := decodeKeyTest(r)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	err = a.cachedCheck(r.Context(), "text:"+key, func(ctx context.Context) error {
		return a.validator.ValidateKey(ctx, key)
	})
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, bridge.KeyTestResponse{Success: true, Message: "API key is valid"})
}

// TestVideoAccess reports whether a key may use the video model. A key that
// is valid but lacks access is a successful answer with hasVideoAccess=false.
func (a *App) TestVideoAccess(w http.ResponseWriter, r *http.Request) {
	key, err := decodeKeyTest(r)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	if a.access == nil {
		a.fail(w, r, domain.Errorf(domain.KindUnknown, "video access check not configured"))
		return
	}
	err = a.cachedCheck(r.Context(), "video:"+key, func(ctx context.Context) error {
		return a.access.CheckAccess(ctx, key)
	})
	hasAccess := err == nil
	switch {
	case err == nil:
		a.json(w, http.StatusOK, bridge.KeyTestResponse{Success: true, Message: "Video model is available for this key", HasVideoAccess: &hasAccess})
	case domain.KindOf(err) == domain.KindPermission:
		a.json(w, http.StatusOK, bridge.KeyTestResponse{
			Success:        true,
			Message:        domain.MessageFor(err, middleware.LocaleFromContext(r.Context())),
			Code:           string(domain.KindPermission),
			HasVideoAccess: &hasAccess,
			Suggestion:     videoAccessSuggestion,
		})
	default:
		a.fail(w, r, err)
	}
}

func decodeKeyTest(r *http.Request) (string, error) {
	var body bridge.KeyTestRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 64<<10)).Decode(&body); err != nil {
		return "", domain.NewError(domain.KindValidation, "invalid JSON body", err)
	}
	key := strings.TrimSpace(body.APIKey)
	if key == "" {
		return "", domain.Errorf(domain.KindValidation, "apiKey is required")
	}
	return key, nil
}

// cachedCheck runs check once per key and TTL. Only success and credential
// verdicts are cached; quota and transport failures are retried next time.
func (a *App) cachedCheck(ctx context.Context, key string, check func(context.Context) error) error {
	sum := sha256.Sum256([]byte(key))
	cacheKey := hex.EncodeToString(sum[:])
	if v, ok := a.keyCache.Get(cacheKey); ok {
		if err, isErr := v.(error); isErr {
			return err
		}
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, keyTestTimeout)
	defer cancel()
	err := check(ctx)
	switch domain.KindOf(err) {
	case "":
		a.keyCache.Set(cacheKey, true, cache.DefaultExpiration)
	case domain.KindAuth, domain.KindPermission:
		a.keyCache.Set(cacheKey, err, cache.DefaultExpiration)
	}
	return err
}
