package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/genai"
)

// GeminiClient runs generation on the Gemini API.
type GeminiClient struct {
	client *genai.Client
}

func NewGeminiClient(ctx context.Context, apiKey string) (*GeminiClient, error) {
	return newGeminiClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
}

func newGeminiClient(ctx context.Context, cfg *genai.ClientConfig) (*GeminiClient, error) {
	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return &GeminiClient{client: client}, nil
}

func (c *GeminiClient) Generate(ctx context.Context, model, prompt string) (string, error) {
	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{genai.NewPartFromText(prompt)}, genai.RoleUser),
	}

	result, err := c.client.Models.GenerateContent(ctx, model, contents, nil)
	if err != nil {
		return "", classifyGeminiError(ctx, model, err)
	}

	text := strings.TrimSpace(result.Text())
	if text == "" {
		return "", fmt.Errorf("%w: empty response from model %s (possibly filtered)", ErrGenerationFailed, model)
	}
	return text, nil
}

func (c *GeminiClient) ListModels(ctx context.Context) ([]string, error) {
	page, err := c.client.Models.List(ctx, &genai.ListModelsConfig{PageSize: 100})
	if err != nil {
		return nil, classifyGeminiError(ctx, "", err)
	}

	var names []string
	for {
		for _, m := range page.Items {
			names = append(names, strings.TrimPrefix(m.Name, "models/"))
		}
		page, err = page.Next(ctx)
		if errors.Is(err, genai.ErrPageDone) {
			return names, nil
		}
		if err != nil {
			return nil, classifyGeminiError(ctx, "", err)
		}
	}
}

func (c *GeminiClient) CheckConnection(ctx context.Context) bool {
	_, err := c.client.Models.List(ctx, &genai.ListModelsConfig{PageSize: 1})
	return err == nil
}

// classifyGeminiError maps API failures onto the model error kinds. Missing
// models, auth problems, quota and server outages count as unavailability.
// A cancelled or expired caller context is passed through unclassified.
func classifyGeminiError(ctx context.Context, model string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("gemini request interrupted: %w", ctxErr)
	}
	code := 0
	var apiErr genai.APIError
	var apiErrPtr *genai.APIError
	switch {
	case errors.As(err, &apiErr):
		code = apiErr.Code
	case errors.As(err, &apiErrPtr) && apiErrPtr != nil:
		code = apiErrPtr.Code
	default:
		return fmt.Errorf("%w: %w", ErrModelUnavailable, err)
	}

	switch code {
	case http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound,
		http.StatusTooManyRequests, http.StatusServiceUnavailable:
		return fmt.Errorf("%w: model %s: %w", ErrModelUnavailable, model, err)
	default:
		return fmt.Errorf("%w: model %s: %w", ErrGenerationFailed, model, err)
	}
}
