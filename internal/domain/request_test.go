package domain

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewGenerationRequestMergesJSONPrompt(t *testing.T) {
	req := NewGenerationRequest(`{"prompt":"A cat in a garden","aspectRatio":"9:16"}`, " key ", map[string]any{"sampleCount": 2})
	assert.Equal(t, "A cat in a garden", req.Prompt)
	assert.Equal(t, "key", req.Credentials)
	assert.Equal(t, "9:16", req.Options["aspectRatio"])
	assert.Equal(t, 2, req.Options["sampleCount"])
	require.NoError(t, req.Validate(0))
}

func TestGenerationRequestValidate(t *testing.T) {
	png := []byte("\x89PNG\r\n\x1a\n0000")
	tests := []struct {
		name string
		req  GenerationRequest
		max  int
		ok   bool
	}{
		{name: "valid", req: GenerationRequest{Prompt: "A cat in a garden", Credentials: "k"}, ok: true},
		{name: "short prompt", req: GenerationRequest{Prompt: "hi", Credentials: "k"}},
		{name: "missing key", req: GenerationRequest{Prompt: "A cat in a garden"}},
		{name: "key with spaces", req: GenerationRequest{Prompt: "A cat in a garden", Credentials: "a b"}},
		{name: "oversized reference", req: GenerationRequest{Prompt: "A cat in a garden", Credentials: "k", Reference: &ReferenceAsset{Data: png, MimeType: "image/png"}}, max: 4},
		{name: "reference fits", req: GenerationRequest{Prompt: "A cat in a garden", Credentials: "k", Reference: &ReferenceAsset{Data: png, MimeType: "image/png"}}, max: 1024, ok: true},
		{name: "non image reference", req: GenerationRequest{Prompt: "A cat in a garden", Credentials: "k", Reference: &ReferenceAsset{Data: png, MimeType: "text/plain"}}},
		{name: "bad option", req: GenerationRequest{Prompt: "A cat in a garden", Credentials: "k", Options: map[string]any{"aspectRatio": "1:1"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate(tt.max)
			if tt.ok {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, KindValidation, KindOf(err))
		})
	}
}

func TestParseDataURL(t *testing.T) {
	payload := base64.StdEncoding.EncodeToString([]byte("\x89PNG\r\n\x1a\nrest"))

	asset, err := ParseDataURL("data:image/webp;base64," + payload)
	require.NoError(t, err)
	assert.Equal(t, "image/webp", asset.MimeType)

	asset, err = ParseDataURL(payload)
	require.NoError(t, err)
	assert.Equal(t, "image/png", asset.MimeType)
	assert.Equal(t, "data:image/png;base64,"+payload, asset.DataURL())

	asset, err = ParseDataURL("")
	require.NoError(t, err)
	assert.Nil(t, asset)

	_, err = ParseDataURL("data:image/png," + payload)
	assert.Equal(t, KindValidation, KindOf(err))

	_, err = ParseDataURL("data:image/png;base64,***")
	assert.Equal(t, KindValidation, KindOf(err))
}

func TestMimeTypeFromFilename(t *testing.T) {
	assert.Equal(t, "image/png", MimeTypeFromFilename("a.PNG"))
	assert.Equal(t, "image/webp", MimeTypeFromFilename("a.webp"))
	assert.Equal(t, "image/jpeg", MimeTypeFromFilename("a.jpg"))
	assert.Equal(t, "image/jpeg", MimeTypeFromFilename("noext"))
}

func TestMaterializedAsset(t *testing.T) {
	asset := NewMaterializedAsset([]byte("abc"), "video/mp4; codecs=avc1")
	assert.Equal(t, "video/mp4", asset.MimeType)
	assert.EqualValues(t, 3, asset.SizeBytes)
	assert.Equal(t, ".mp4", asset.Extension())
	assert.Equal(t, "YWJj", asset.Base64())
}
