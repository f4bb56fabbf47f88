package ai

import (
	"context"
	"errors"
)

var (
	// ErrModelUnavailable means the backend could not be reached or does not
	// serve the requested model.
	ErrModelUnavailable = errors.New("language model unavailable")
	// ErrGenerationFailed means the backend was reached but produced no usable text.
	ErrGenerationFailed = errors.New("generation failed")
)

// LLM is the language-model capability the generation stages run on.
type LLM interface {
	Generate(ctx context.Context, model, prompt string) (string, error)
	ListModels(ctx context.Context) ([]string, error)
	CheckConnection(ctx context.Context) bool
}
