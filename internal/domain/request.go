package domain

import (
	"encoding/base64"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"vidabot/internal/domain/jsoncfg"
)

// MinPromptLength is the shortest prompt accepted for generation.
const MinPromptLength = 3

// ReferenceAsset is an image used to condition generation.
type ReferenceAsset struct {
	Data     []byte
	MimeType string
}

// GenerationRequest is the immutable input of one generation workflow.
type GenerationRequest struct {
	Prompt      string
	Reference   *ReferenceAsset
	Credentials string
	Options     map[string]any
	Locale      string
}

// NewGenerationRequest parses a raw prompt (plain text or JSON object) and
// merges JSON prompt fields beneath explicitly supplied options.
func NewGenerationRequest(rawPrompt, credentials string, options map[string]any) GenerationRequest {
	text, extras := jsoncfg.ParsePrompt(rawPrompt)
	merged := make(map[string]any, len(extras)+len(options))
	for k, v := range extras {
		merged[k] = v
	}
	for k, v := range options {
		merged[k] = v
	}
	return GenerationRequest{
		Prompt:      text,
		Credentials: strings.TrimSpace(credentials),
		Options:     merged,
	}
}

// Validate rejects malformed requests with a ValidationError. maxReferenceBytes
// of zero disables the size check.
func (r GenerationRequest) Validate(maxReferenceBytes int) error {
	if len(strings.TrimSpace(r.Prompt)) < MinPromptLength {
		return Errorf(KindValidation, "prompt must be at least %d characters", MinPromptLength)
	}
	if r.Credentials == "" {
		return Errorf(KindValidation, "apiKey is required")
	}
	if strings.ContainsAny(r.Credentials, " \t\r\n") {
		return Errorf(KindValidation, "apiKey must not contain whitespace")
	}
	if r.Reference != nil {
		if len(r.Reference.Data) == 0 {
			return Errorf(KindValidation, "referenceImage is empty")
		}
		if maxReferenceBytes > 0 && len(r.Reference.Data) > maxReferenceBytes {
			return Errorf(KindValidation, "referenceImage exceeds %d bytes", maxReferenceBytes)
		}
		if !strings.HasPrefix(r.Reference.MimeType, "image/") {
			return Errorf(KindValidation, "referenceImage must be an image, got %q", r.Reference.MimeType)
		}
	}
	if _, err := r.VideoConfig(); err != nil {
		return err
	}
	return nil
}

// VideoConfig decodes, normalizes and validates the request options.
func (r GenerationRequest) VideoConfig() (jsoncfg.VideoConfig, error) {
	cfg, err := jsoncfg.DecodeVideoConfig(r.Options)
	if err != nil {
		return cfg, NewError(KindValidation, "invalid config", err)
	}
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return cfg, NewError(KindValidation, err.Error(), nil)
	}
	return cfg, nil
}

// ParseDataURL decodes a "data:<mime>;base64,<payload>" reference image. A
// bare base64 payload is accepted and its type sniffed.
func ParseDataURL(value string) (*ReferenceAsset, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	mime := ""
	payload := value
	if strings.HasPrefix(value, "data:") {
		header, data, ok := strings.Cut(value[len("data:"):], ",")
		if !ok {
			return nil, Errorf(KindValidation, "referenceImage data URL has no payload")
		}
		params := strings.Split(header, ";")
		mime = strings.TrimSpace(params[0])
		if len(params) < 2 || params[len(params)-1] != "base64" {
			return nil, Errorf(KindValidation, "referenceImage data URL must be base64 encoded")
		}
		payload = data
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, NewError(KindValidation, "referenceImage is not valid base64", err)
	}
	if mime == "" {
		mime = http.DetectContentType(data)
	}
	return &ReferenceAsset{Data: data, MimeType: mime}, nil
}

// MimeTypeFromFilename guesses an image type from a file extension.
func MimeTypeFromFilename(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".png":
		return "image/png"
	case ".webp":
		return "image/webp"
	case ".gif":
		return "image/gif"
	default:
		return "image/jpeg"
	}
}

// DataURL renders the reference asset in data URL form.
func (a ReferenceAsset) DataURL() string {
	return fmt.Sprintf("data:%s;base64,%s", a.MimeType, base64.StdEncoding.EncodeToString(a.Data))
}
