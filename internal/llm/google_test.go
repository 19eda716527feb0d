package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joss/sessionlens/pkg/llm"
)

func TestGoogleComplete(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "gemini-1.5-flash:generateContent"))
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))

		var req googleRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Contents, 1)
		assert.Equal(t, "user", req.Contents[0].Role)
		assert.Equal(t, "Describe the session", req.Contents[0].Parts[0].Text)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"Set up a "},{"text":"MySQL extractor."}],"role":"model"},"finishReason":"STOP"}]}`))
	}))
	defer server.Close()

	provider := NewGoogleWithClient("test-key", server.URL, server.Client())
	got, err := provider.Complete(context.Background(), &llm.CompletionRequest{
		Model:  "gemini-1.5-flash",
		Prompt: "Describe the session",
	})
	require.NoError(t, err)
	assert.Equal(t, "Set up a MySQL extractor.", got)
}

func TestGoogleCompleteAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"message":"quota exceeded"}}`))
	}))
	defer server.Close()

	provider := NewGoogleWithClient("test-key", server.URL, server.Client())
	_, err := provider.Complete(context.Background(), &llm.CompletionRequest{Model: "gemini-1.5-flash", Prompt: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
	assert.Contains(t, err.Error(), "quota exceeded")
}

func TestGoogleCompleteNoCandidates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"candidates":[]}`))
	}))
	defer server.Close()

	provider := NewGoogleWithClient("test-key", server.URL, server.Client())
	_, err := provider.Complete(context.Background(), &llm.CompletionRequest{Model: "gemini-1.5-flash", Prompt: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no candidates")
}

func TestRegistry(t *testing.T) {
	reg := llm.NewRegistry()
	reg.Register(NewGoogle("k"))

	p, ok := reg.Get("google")
	require.True(t, ok)
	assert.Equal(t, "Google", p.Name())

	_, ok = reg.Get("missing")
	assert.False(t, ok)
	assert.Len(t, reg.List(), 1)
}
