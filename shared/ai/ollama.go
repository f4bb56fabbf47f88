package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ollama/ollama/api"
)

// OllamaClient talks to a local Ollama server.
type OllamaClient struct {
	baseURL string
	client  *api.Client
}

func NewOllamaClient(baseURL string, timeout time.Duration) (*OllamaClient, error) {
	baseURL = strings.TrimRight(baseURL, "/")
	base, err := url.Parse(baseURL)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid Ollama URL %q", baseURL)
	}
	return &OllamaClient{
		baseURL: baseURL,
		client:  api.NewClient(base, &http.Client{Timeout: timeout}),
	}, nil
}

func (c *OllamaClient) Generate(ctx context.Context, model, prompt string) (string, error) {
	stream := false
	var out strings.Builder
	err := c.client.Generate(ctx, &api.GenerateRequest{
		Model:  model,
		Prompt: prompt,
		Stream: &stream,
	}, func(resp api.GenerateResponse) error {
		out.WriteString(resp.Response)
		return nil
	})
	if err != nil {
		return "", c.classify(ctx, err, ErrGenerationFailed)
	}

	text := strings.TrimSpace(out.String())
	if text == "" {
		return "", fmt.Errorf("%w: empty response from model %s", ErrGenerationFailed, model)
	}
	return text, nil
}

func (c *OllamaClient) ListModels(ctx context.Context) ([]string, error) {
	resp, err := c.client.List(ctx)
	if err != nil {
		return nil, c.classify(ctx, err, ErrModelUnavailable)
	}

	names := make([]string, 0, len(resp.Models))
	for _, m := range resp.Models {
		names = append(names, m.Name)
	}
	return names, nil
}

func (c *OllamaClient) CheckConnection(ctx context.Context) bool {
	return c.client.Heartbeat(ctx) == nil
}

// classify maps a client error onto the LLM sentinels. A 404 means the model
// is not pulled; other HTTP errors use onStatus. A cancelled or expired
// caller context is passed through unclassified.
func (c *OllamaClient) classify(ctx context.Context, err, onStatus error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("ollama request interrupted: %w", ctxErr)
	}

	if status, ok := asStatusError(err); ok {
		if status.StatusCode == http.StatusNotFound {
			return fmt.Errorf("%w: %s", ErrModelUnavailable, status.ErrorMessage)
		}
		return fmt.Errorf("%w: Ollama returned HTTP %d: %s", onStatus, status.StatusCode, status.ErrorMessage)
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return fmt.Errorf("%w: cannot reach Ollama at %s: %w", ErrModelUnavailable, c.baseURL, err)
	}
	return fmt.Errorf("%w: %w", ErrGenerationFailed, err)
}

func asStatusError(err error) (api.StatusError, bool) {
	var status api.StatusError
	if errors.As(err, &status) {
		return status, true
	}
	var statusPtr *api.StatusError
	if errors.As(err, &statusPtr) && statusPtr != nil {
		return *statusPtr, true
	}
	return api.StatusError{}, false
}
