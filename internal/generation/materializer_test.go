package generation

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vidabot/internal/domain"
)

func TestMaterializeAttachesKey(t *testing.T) {
	var gotKey, gotAlt string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.URL.Query().Get("key")
		gotAlt = r.URL.Query().Get("alt")
		w.Header().Set("Content-Type", "video/mp4")
		_, _ = w.Write([]byte("mp4-bytes"))
	}))
	defer srv.Close()

	m := NewMaterializer(MaterializerOptions{HTTPClient: srv.Client()})
	asset, err := m.Materialize(context.Background(), srv.URL+"/files/abc:download?alt=media", "secret")
	require.NoError(t, err)
	assert.Equal(t, "secret", gotKey)
	assert.Equal(t, "media", gotAlt)
	assert.Equal(t, "video/mp4", asset.MimeType)
	assert.EqualValues(t, len("mp4-bytes"), asset.SizeBytes)
	assert.Equal(t, []byte("mp4-bytes"), asset.Bytes)
}

func TestMaterializeRelativeURI(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_, _ = w.Write([]byte("x"))
	}))
	defer srv.Close()

	m := NewMaterializer(MaterializerOptions{HTTPClient: srv.Client(), BaseURL: srv.URL + "/v1beta/"})
	asset, err := m.Materialize(context.Background(), "files/abc", "")
	require.NoError(t, err)
	assert.Equal(t, "/v1beta/files/abc", gotPath)
	assert.Equal(t, "video/mp4", asset.MimeType)
}

func TestMaterializeNon2xxIsDownloadError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusForbidden)
	}))
	defer srv.Close()

	m := NewMaterializer(MaterializerOptions{HTTPClient: srv.Client()})
	_, err := m.Materialize(context.Background(), srv.URL+"/v", "k")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrDownload)
	assert.NotContains(t, err.Error(), "k=")
}

func TestMaterializeSizeCap(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(make([]byte, 64))
	}))
	defer srv.Close()

	m := NewMaterializer(MaterializerOptions{HTTPClient: srv.Client(), MaxBytes: 16})
	_, err := m.Materialize(context.Background(), srv.URL, "")
	assert.Equal(t, domain.KindDownload, domain.KindOf(err))
}

func TestMaterializeTransportErrorHidesKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	m := NewMaterializer(MaterializerOptions{})
	_, err := m.Materialize(context.Background(), url+"/v", "supersecret")
	require.Error(t, err)
	assert.Equal(t, domain.KindDownload, domain.KindOf(err))
	assert.NotContains(t, err.Error(), "supersecret")
}

func TestMaterializeEmptyURI(t *testing.T) {
	_, err := NewMaterializer(MaterializerOptions{}).Materialize(context.Background(), "", "")
	assert.Equal(t, domain.KindDownload, domain.KindOf(err))
}
