package recognition

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeClip(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "clip.m4a")
	require.NoError(t, os.WriteFile(path, []byte("aac bytes"), 0o644))
	return path
}

func TestRecognize(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "test-token", r.FormValue("api_token"))

		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()
		assert.Equal(t, "clip.m4a", header.Filename)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"status": "success",
			"result": {"artist": "Prince", "title": "Purple Rain", "album": "Purple Rain", "score": 92.5}
		}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-token")
	match, err := client.Recognize(context.Background(), writeClip(t))
	require.NoError(t, err)

	require.NotNil(t, match)
	assert.Equal(t, "Purple Rain", match.Title)
	assert.Equal(t, "Prince", match.Artist)
	assert.Equal(t, 92.5, match.Score)
}

func TestRecognizeNoMatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status": "success", "result": null}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-token")
	match, err := client.Recognize(context.Background(), writeClip(t))
	require.NoError(t, err)
	assert.Nil(t, match, "no match is a valid outcome, not an error")
}

func TestRecognizeProviderError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status": "error", "error": {"error_message": "api_token missing"}}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "")
	_, err := client.Recognize(context.Background(), writeClip(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "api_token missing")
}

func TestRecognizeHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-token")
	_, err := client.Recognize(context.Background(), writeClip(t))
	assert.Error(t, err)
}

func TestRecognizeMissingClip(t *testing.T) {
	client := NewClient("http://localhost:0", "test-token")
	_, err := client.Recognize(context.Background(), "/nonexistent/clip.m4a")
	assert.Error(t, err)
}
