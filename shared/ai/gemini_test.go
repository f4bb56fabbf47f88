package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

func TestGeminiGenerate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case strings.Contains(r.URL.Path, "missing-model"):
			w.WriteHeader(http.StatusNotFound)
			fmt.Fprint(w, `{"error":{"code":404,"message":"model not found","status":"NOT_FOUND"}}`)
		case strings.HasSuffix(r.URL.Path, ":generateContent"):
			fmt.Fprint(w, `{"candidates":[{"content":{"role":"model","parts":[{"text":" a summary "}]}}]}`)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c, err := newGeminiClient(context.Background(), &genai.ClientConfig{
		APIKey:      "test-key",
		Backend:     genai.BackendGeminiAPI,
		HTTPClient:  srv.Client(),
		HTTPOptions: genai.HTTPOptions{BaseURL: srv.URL + "/"},
	})
	require.NoError(t, err)

	text, err := c.Generate(context.Background(), "gemini-2.5-flash", "summarize this")
	require.NoError(t, err)
	assert.Equal(t, "a summary", text)

	_, err = c.Generate(context.Background(), "missing-model", "summarize this")
	assert.ErrorIs(t, err, ErrModelUnavailable)
}

func TestClassifyGeminiError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected error
	}{
		{"Network", errors.New("dial tcp: connection refused"), ErrModelUnavailable},
		{"Not found", genai.APIError{Code: http.StatusNotFound}, ErrModelUnavailable},
		{"Quota", genai.APIError{Code: http.StatusTooManyRequests}, ErrModelUnavailable},
		{"Bad request", genai.APIError{Code: http.StatusBadRequest}, ErrGenerationFailed},
		{"Internal", genai.APIError{Code: http.StatusInternalServerError}, ErrGenerationFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, classifyGeminiError(context.Background(), "m", tt.err), tt.expected)
		})
	}
}

func TestClassifyGeminiErrorCancelledCaller(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := classifyGeminiError(ctx, "m", errors.New("context canceled"))
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, ErrModelUnavailable)
	assert.NotErrorIs(t, err, ErrGenerationFailed)
}
