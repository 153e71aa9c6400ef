package storage

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"activation/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeS3 answers HEAD requests for path-style keys under /videos/.
func fakeS3(t *testing.T, existing map[string]bool) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodHead {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		if existing[r.URL.Path] {
			w.Header().Set("Content-Type", "video/mp4")
			w.Header().Set("Content-Length", "0")
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	t.Cleanup(server.Close)
	return server
}

func newTestStorage(t *testing.T, endpoint string) *S3Storage {
	t.Helper()
	store, err := NewS3Storage(context.Background(), &config.StorageConfig{
		Bucket:          "videos",
		Region:          "us-east-1",
		AccessKeyID:     "AKIDEXAMPLE",
		SecretAccessKey: "wJalrXUtnFEMI/K7MDENG+bPxRfiCYEXAMPLEKEY",
		Endpoint:        endpoint,
		ForcePathStyle:  true,
	})
	require.NoError(t, err)
	require.True(t, store.Enabled())
	return store
}

func TestSignURLForExistingObject(t *testing.T) {
	server := fakeS3(t, map[string]bool{"/videos/leads/clip.mp4": true})
	store := newTestStorage(t, server.URL)

	signed, err := store.SignURL(context.Background(), "leads/clip.mp4", time.Hour, false)
	require.NoError(t, err)

	parsed, err := url.Parse(signed)
	require.NoError(t, err)
	assert.Equal(t, "/videos/leads/clip.mp4", parsed.Path)
	assert.Equal(t, "3600", parsed.Query().Get("X-Amz-Expires"))
	assert.Empty(t, parsed.Query().Get("response-content-disposition"))
}

func TestSignURLForDownload(t *testing.T) {
	server := fakeS3(t, map[string]bool{"/videos/leads/clip.mp4": true})
	store := newTestStorage(t, server.URL)

	signed, err := store.SignURL(context.Background(), "leads/clip.mp4", 5*time.Minute, true)
	require.NoError(t, err)

	parsed, err := url.Parse(signed)
	require.NoError(t, err)
	assert.Equal(t, "300", parsed.Query().Get("X-Amz-Expires"))
	assert.Equal(t, `attachment; filename="video.mp4"`, parsed.Query().Get("response-content-disposition"))
}

func TestSignURLMissingObject(t *testing.T) {
	server := fakeS3(t, nil)
	store := newTestStorage(t, server.URL)

	_, err := store.SignURL(context.Background(), "leads/missing.mp4", time.Hour, false)
	assert.ErrorIs(t, err, ErrObjectNotFound)
}

func TestDisabledWithoutCredentials(t *testing.T) {
	store, err := NewS3Storage(context.Background(), &config.StorageConfig{Bucket: "videos"})
	require.NoError(t, err)

	assert.False(t, store.Enabled())
	_, err = store.SignURL(context.Background(), "leads/clip.mp4", time.Hour, false)
	assert.ErrorIs(t, err, ErrNotConfigured)
}
