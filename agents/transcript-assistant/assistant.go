package transcriptassistant

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"transcript-assistant/internal/models"
	"transcript-assistant/shared/ai"
	"transcript-assistant/shared/api"
	"transcript-assistant/shared/config"
	"transcript-assistant/shared/logging"
	"transcript-assistant/shared/metadata"
	"transcript-assistant/shared/monitoring"
	"transcript-assistant/shared/pipeline"
	"transcript-assistant/shared/scheduler"
	"transcript-assistant/shared/storage"
	"transcript-assistant/shared/transcript"
)

const (
	ServiceName = "transcript-assistant"
	Version     = "1.0.0"

	sourceHTTPTimeout = 30 * time.Second
	probeTimeout      = 10 * time.Second
)

// Assistant wires the pipeline, API server and background jobs from one
// configuration.
type Assistant struct {
	config       *config.Config
	llm          ai.LLM
	orchestrator *pipeline.Orchestrator
	monitor      *monitoring.Monitor
	store        *storage.ResultStore
	scheduler    *scheduler.Scheduler
	server       *api.Server
	probe        *scheduler.ModelProbeJob
	logger       zerolog.Logger
}

func New(cfg *config.Config) *Assistant {
	return &Assistant{
		config:  cfg,
		monitor: monitoring.NewMonitor(),
		logger:  logging.WithComponent("assistant"),
	}
}

func (a *Assistant) Name() string {
	return "Transcript Assistant"
}

// Initialize builds every component that is not already set.
func (a *Assistant) Initialize(ctx context.Context) error {
	a.logger.Info().Msgf("Initializing %s...", a.Name())

	if a.llm == nil {
		llm, err := newLLM(ctx, a.config.LLM)
		if err != nil {
			return fmt.Errorf("failed to create language model client: %w", err)
		}
		a.llm = llm
		a.logger.Info().Str("backend", a.config.LLM.Backend).Str("model", a.config.LLM.Model).Msg("language model client initialized")
	}

	if a.orchestrator == nil {
		client := &http.Client{Timeout: sourceHTTPTimeout}
		a.orchestrator = pipeline.New(pipeline.Dependencies{
			Metadata:    newMetadataProvider(ctx, a.config, client, a.logger),
			Transcripts: newTranscriptRegistry(a.config.YouTube, client),
			Generator:   ai.NewGenerator(a.llm, a.config.LLM.Model, a.config.Pipeline.MaxPromptChars),
			Observer:    a.monitor,
		}, pipeline.Options{
			Style:          a.config.Pipeline.DefaultStyle,
			TargetLanguage: a.config.Pipeline.DefaultLanguage,
		})
		a.logger.Info().Msg("pipeline initialized")
	}

	if a.store == nil {
		retention := time.Duration(a.config.Storage.RetentionDays) * 24 * time.Hour
		store, err := storage.NewResultStore(a.config.Storage.OutputDir, retention)
		if err != nil {
			return fmt.Errorf("failed to create result store: %w", err)
		}
		a.store = store
		count, _ := store.Count()
		a.logger.Info().Str("dir", store.Dir()).Int("results", count).Msg("result store initialized")
	}

	if a.scheduler == nil {
		a.probe = &scheduler.ModelProbeJob{Checker: a.llm, Recorder: a.monitor, Timeout: probeTimeout}
		s := scheduler.New()
		if err := s.Add(ctx, a.config.Schedule.Probe, a.probe); err != nil {
			return err
		}
		if err := s.Add(ctx, a.config.Schedule.Prune, &scheduler.RetentionJob{Store: a.store}); err != nil {
			return err
		}
		a.scheduler = s
	}

	if a.server == nil {
		a.server = api.NewServer(api.Config{
			Service:            ServiceName,
			Version:            Version,
			RateLimitPerMinute: a.config.Server.RateLimitPerMinute,
		}, api.Dependencies{
			Processor: a.orchestrator,
			Models:    a.llm,
			Monitor:   a.monitor,
			Store:     a.store,
		})
	}

	return nil
}

// Serve runs the API server and the background jobs until ctx is cancelled.
func (a *Assistant) Serve(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	_ = a.scheduler.RunOnce(ctx, a.probe)
	if connected, _ := a.monitor.ModelConnected(); !connected {
		a.logger.Warn().Str("backend", a.config.LLM.Backend).Msg("language model not reachable, requests will fail until it is")
	}

	schedulerDone := make(chan struct{})
	go func() {
		defer close(schedulerDone)
		_ = a.scheduler.Start(ctx)
	}()

	err := a.server.ListenAndServe(ctx, fmt.Sprintf(":%d", a.config.Server.Port))
	cancel()
	<-schedulerDone
	return err
}

// ProcessOnce runs the pipeline for a single input outside the API.
func (a *Assistant) ProcessOnce(ctx context.Context, input string, opts pipeline.Options) (*models.ProcessingResult, error) {
	return a.orchestrator.ProcessMedia(ctx, input, opts)
}

// Handler exposes the API router.
func (a *Assistant) Handler() http.Handler {
	return a.server.Router()
}

func newLLM(ctx context.Context, cfg config.LLMConfig) (ai.LLM, error) {
	switch cfg.Backend {
	case config.BackendOllama:
		return ai.NewOllamaClient(cfg.OllamaURL, time.Duration(cfg.TimeoutSeconds)*time.Second)
	case config.BackendGemini:
		return ai.NewGeminiClient(ctx, cfg.GeminiAPIKey)
	default:
		return nil, fmt.Errorf("unknown language model backend %q", cfg.Backend)
	}
}

// newMetadataProvider registers an extractor per platform. YouTube uses the
// Data API in full mode when credentials exist, otherwise the watch page.
func newMetadataProvider(ctx context.Context, cfg *config.Config, client *http.Client, logger zerolog.Logger) *metadata.Provider {
	p := metadata.NewProvider()
	p.Register(models.PlatformYouTube, metadata.NewPageExtractor(client))

	if cfg.Metadata.Mode == config.MetadataModeFull {
		opts, err := metadata.ClientOptions(ctx, cfg.YouTube)
		switch {
		case errors.Is(err, metadata.ErrNoCredentials):
			logger.Info().Msg("no YouTube Data API credentials, using basic metadata extraction")
		case err != nil:
			logger.Warn().Err(err).Msg("YouTube Data API unavailable, using basic metadata extraction")
		default:
			extractor, err := metadata.NewDataAPIExtractor(ctx, opts...)
			if err != nil {
				logger.Warn().Err(err).Msg("failed to create YouTube Data API client, using basic metadata extraction")
			} else {
				p.Register(models.PlatformYouTube, extractor)
			}
		}
	}

	p.Register(models.PlatformVimeo, metadata.NewVimeoExtractor(client))
	p.Register(models.PlatformAudioFile, metadata.AudioFileExtractor{})
	return p
}

// newTranscriptRegistry registers transcript fetchers. Only YouTube has one;
// other platforms fail with an unsupported-source error.
func newTranscriptRegistry(cfg config.YouTubeConfig, client *http.Client) *transcript.Registry {
	r := transcript.NewRegistry()
	r.Register(models.PlatformYouTube, transcript.NewYouTubeFetcher(transcript.NewWatchPageSource(client), cfg.Languages))
	return r
}
