package ai

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"transcript-assistant/internal/models"
	"transcript-assistant/shared/logging"
)

// Generator runs the summarize, stylize and translate stages against one
// model. It holds no per-request state.
type Generator struct {
	llm            LLM
	model          string
	maxPromptChars int
	logger         zerolog.Logger
}

func NewGenerator(llm LLM, model string, maxPromptChars int) *Generator {
	return &Generator{
		llm:            llm,
		model:          model,
		maxPromptChars: maxPromptChars,
		logger:         logging.WithComponent("ai"),
	}
}

// Model is the model name every stage is sent to.
func (g *Generator) Model() string {
	return g.model
}

func (g *Generator) Summarize(ctx context.Context, transcript string, md *models.Metadata, platform models.Platform) (string, error) {
	return g.run(ctx, "summary", buildSummaryPrompt(transcript, md, platform, g.maxPromptChars))
}

// Stylize rewrites a summary as a script. Unknown styles use the default
// template.
func (g *Generator) Stylize(ctx context.Context, summary, style string, md *models.Metadata) (string, error) {
	if _, known := styleInstruction(style); !known {
		g.logger.Debug().Str("style", style).Msg("unknown style, using default template")
	}
	return g.run(ctx, "script", buildScriptPrompt(summary, style, md))
}

func (g *Generator) Translate(ctx context.Context, script, targetLanguage string) (string, error) {
	return g.run(ctx, "translation", buildTranslationPrompt(script, targetLanguage))
}

func (g *Generator) run(ctx context.Context, stage, prompt string) (string, error) {
	g.logger.Debug().Str("stage", stage).Str("model", g.model).Int("prompt_chars", len(prompt)).Msg("generating")

	text, err := g.llm.Generate(ctx, g.model, prompt)
	if err != nil {
		return "", fmt.Errorf("%s generation: %w", stage, err)
	}
	return text, nil
}
