// Package pipeline runs one media item through resolve, metadata,
// transcript, summary, script and optional translation, in that order.
package pipeline

import (
	"context"
	"math"
	"time"

	"github.com/rs/zerolog"

	"transcript-assistant/internal/models"
	"transcript-assistant/shared/ai"
	"transcript-assistant/shared/logging"
	"transcript-assistant/shared/source"
)

const (
	DefaultStyle          = ai.DefaultStyle
	DefaultTargetLanguage = "es"
)

// Resolver maps user input to a media reference.
type Resolver func(input string) (models.MediaReference, error)

// MetadataSource never fails; it returns a degraded record instead.
type MetadataSource interface {
	Extract(ctx context.Context, ref models.MediaReference) *models.Metadata
}

type TranscriptSource interface {
	Fetch(ctx context.Context, ref models.MediaReference) (string, error)
}

type ContentGenerator interface {
	Model() string
	Summarize(ctx context.Context, transcript string, md *models.Metadata, platform models.Platform) (string, error)
	Stylize(ctx context.Context, summary, style string, md *models.Metadata) (string, error)
	Translate(ctx context.Context, script, targetLanguage string) (string, error)
}

// Observer is told about the outcome of every run.
type Observer interface {
	RecordSuccess(mediaID string, duration time.Duration)
	RecordFailure(stage string, err error, duration time.Duration)
	RecordDegradedMetadata(source string)
}

// Options are the per-request knobs. Empty Style and TargetLanguage fall
// back to the orchestrator defaults.
type Options struct {
	Style          string
	Translate      bool
	TargetLanguage string
}

type Dependencies struct {
	Resolve     Resolver
	Metadata    MetadataSource
	Transcripts TranscriptSource
	Generator   ContentGenerator
	Observer    Observer
}

type Orchestrator struct {
	resolve     Resolver
	metadata    MetadataSource
	transcripts TranscriptSource
	generator   ContentGenerator
	observer    Observer
	defaults    Options
	now         func() time.Time
	logger      zerolog.Logger
}

// New builds an orchestrator. A nil Resolve uses source.Resolve and a nil
// Observer discards run outcomes.
func New(deps Dependencies, defaults Options) *Orchestrator {
	if deps.Resolve == nil {
		deps.Resolve = source.Resolve
	}
	if deps.Observer == nil {
		deps.Observer = nopObserver{}
	}
	if defaults.Style == "" {
		defaults.Style = DefaultStyle
	}
	if defaults.TargetLanguage == "" {
		defaults.TargetLanguage = DefaultTargetLanguage
	}
	return &Orchestrator{
		resolve:     deps.Resolve,
		metadata:    deps.Metadata,
		transcripts: deps.Transcripts,
		generator:   deps.Generator,
		observer:    deps.Observer,
		defaults:    defaults,
		now:         time.Now,
		logger:      logging.WithComponent("pipeline"),
	}
}

// Model is the language model the generation stages use.
func (o *Orchestrator) Model() string {
	return o.generator.Model()
}

// ProcessMedia runs the full pipeline for input. Any stage failure aborts the
// run with a *StageError; metadata problems only degrade the record.
func (o *Orchestrator) ProcessMedia(ctx context.Context, input string, opts Options) (*models.ProcessingResult, error) {
	start := o.now()
	if opts.Style == "" {
		opts.Style = o.defaults.Style
	}
	if opts.TargetLanguage == "" {
		opts.TargetLanguage = o.defaults.TargetLanguage
	}

	ref, err := o.resolve(input)
	if err != nil {
		return nil, o.fail(StageResolve, models.MediaReference{}, err, start)
	}
	log := o.logger.With().Str("media_id", ref.ID).Str("source", string(ref.Platform)).Logger()
	log.Info().Str("stage", string(StageResolve)).Msg("media source resolved")

	md := o.metadata.Extract(ctx, ref)
	if md == nil {
		md = models.DegradedMetadata(ref.ID, nil)
	}
	if md.Degraded() {
		log.Warn().Str("stage", "metadata").Str("error", md.Error).Msg("continuing with degraded metadata")
		o.observer.RecordDegradedMetadata(string(ref.Platform))
	} else {
		log.Info().Str("stage", "metadata").Str("title", md.Title).Msg("metadata extracted")
	}

	text, err := o.transcripts.Fetch(ctx, ref)
	if err != nil {
		return nil, o.fail(StageTranscript, ref, err, start)
	}
	log.Info().Str("stage", string(StageTranscript)).Int("chars", len(text)).Msg("transcript fetched")

	summary, err := o.generator.Summarize(ctx, text, md, ref.Platform)
	if err != nil {
		return nil, o.fail(StageSummary, ref, err, start)
	}
	log.Info().Str("stage", string(StageSummary)).Msg("summary generated")

	script, err := o.generator.Stylize(ctx, summary, opts.Style, md)
	if err != nil {
		return nil, o.fail(StageScript, ref, err, start)
	}
	log.Info().Str("stage", string(StageScript)).Str("style", opts.Style).Msg("script generated")

	var translation, targetLanguage *string
	if opts.Translate {
		translated, err := o.generator.Translate(ctx, script, opts.TargetLanguage)
		if err != nil {
			return nil, o.fail(StageTranslation, ref, err, start)
		}
		lang := opts.TargetLanguage
		translation, targetLanguage = &translated, &lang
		log.Info().Str("stage", string(StageTranslation)).Str("language", lang).Msg("translation generated")
	}

	elapsed := o.now().Sub(start)
	result := &models.ProcessingResult{
		MediaID:          ref.ID,
		MediaTitle:       md.Title,
		MediaDescription: md.Description,
		MediaDuration:    md.Duration,
		Source:           ref.Platform,
		Transcript:       models.TranscriptPreview(text),
		Summary:          summary,
		Script:           script,
		Translation:      translation,
		TargetLanguage:   targetLanguage,
		ProcessingTime:   roundSeconds(elapsed),
		StyleUsed:        opts.Style,
		ModelUsed:        o.generator.Model(),
	}

	o.observer.RecordSuccess(ref.ID, elapsed)
	return result, nil
}

// ExtractMetadata resolves input and returns its metadata without running
// the generation stages.
func (o *Orchestrator) ExtractMetadata(ctx context.Context, input string) (models.MediaReference, *models.Metadata, error) {
	ref, err := o.resolve(input)
	if err != nil {
		return models.MediaReference{}, nil, &StageError{Stage: StageResolve, Err: err}
	}
	md := o.metadata.Extract(ctx, ref)
	if md == nil {
		md = models.DegradedMetadata(ref.ID, nil)
	}
	return ref, md, nil
}

func (o *Orchestrator) fail(stage Stage, ref models.MediaReference, err error, start time.Time) error {
	elapsed := o.now().Sub(start)
	o.logger.Error().
		Str("stage", string(stage)).
		Str("media_id", ref.ID).
		Str("source", string(ref.Platform)).
		Str("error_kind", string(Kind(err))).
		Err(err).
		Msg("pipeline aborted")
	o.observer.RecordFailure(string(stage), err, elapsed)
	return &StageError{Stage: stage, Err: err}
}

// roundSeconds converts d to seconds rounded to two decimals, never negative.
func roundSeconds(d time.Duration) float64 {
	if d < 0 {
		return 0
	}
	return math.Round(d.Seconds()*100) / 100
}

type nopObserver struct{}

func (nopObserver) RecordSuccess(string, time.Duration)        {}
func (nopObserver) RecordFailure(string, error, time.Duration) {}
func (nopObserver) RecordDegradedMetadata(string)              {}
