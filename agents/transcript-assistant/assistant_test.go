package transcriptassistant

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"transcript-assistant/internal/models"
	"transcript-assistant/shared/config"
	"transcript-assistant/shared/pipeline"
)

func newOllama(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/api/tags":
			_ = json.NewEncoder(w).Encode(map[string]any{"models": []map[string]string{{"name": "mistral:7b-instruct-q4_K_M"}}})
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func testConfig(t *testing.T, ollamaURL string) *config.Config {
	t.Helper()
	t.Setenv("YOUTUBE_API_KEY", "")
	t.Setenv("GOOGLE_CLIENT_ID", "")
	t.Setenv("GOOGLE_CLIENT_SECRET", "")
	t.Setenv("OLLAMA_URL", "")
	t.Setenv("LLM_BACKEND", "")
	t.Setenv("DEFAULT_MODEL", "")
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("PORT", "")

	cfg, err := config.LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	cfg.LLM.OllamaURL = ollamaURL
	cfg.Storage.OutputDir = filepath.Join(t.TempDir(), "outputs")
	return cfg
}

func TestAssistantName(t *testing.T) {
	assert.Equal(t, "Transcript Assistant", New(&config.Config{}).Name())
}

func TestInitializeBuildsComponents(t *testing.T) {
	cfg := testConfig(t, newOllama(t).URL)
	a := New(cfg)

	require.NoError(t, a.Initialize(context.Background()))
	assert.NotNil(t, a.llm)
	assert.NotNil(t, a.orchestrator)
	assert.NotNil(t, a.store)
	assert.NotNil(t, a.scheduler)
	assert.NotNil(t, a.server)
	assert.Equal(t, cfg.LLM.Model, a.orchestrator.Model())
	assert.DirExists(t, cfg.Storage.OutputDir)

	rec := httptest.NewRecorder()
	a.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/models", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "mistral:7b-instruct-q4_K_M")

	rec = httptest.NewRecorder()
	a.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))
	assert.Contains(t, rec.Body.String(), ServiceName)
}

func TestInitializeRejectsInvalidSchedule(t *testing.T) {
	cfg := testConfig(t, newOllama(t).URL)
	cfg.Schedule.Probe = "every now and then"

	assert.Error(t, New(cfg).Initialize(context.Background()))
}

func TestProcessOnceErrors(t *testing.T) {
	cfg := testConfig(t, newOllama(t).URL)
	a := New(cfg)
	require.NoError(t, a.Initialize(context.Background()))

	_, err := a.ProcessOnce(context.Background(), "not a real input", pipeline.Options{})
	assert.Equal(t, pipeline.KindUnrecognizedSource, pipeline.Kind(err))

	audio := filepath.Join(t.TempDir(), "track.mp3")
	require.NoError(t, os.WriteFile(audio, []byte("ID3"), 0600))
	_, err = a.ProcessOnce(context.Background(), audio, pipeline.Options{})
	assert.Equal(t, pipeline.KindUnsupportedSource, pipeline.Kind(err))
	assert.Equal(t, pipeline.StageTranscript, pipeline.StageOf(err))
}

func TestNewLLM(t *testing.T) {
	llm, err := newLLM(context.Background(), config.LLMConfig{Backend: config.BackendOllama, OllamaURL: "http://localhost:11434", TimeoutSeconds: 5})
	require.NoError(t, err)
	assert.NotNil(t, llm)

	_, err = newLLM(context.Background(), config.LLMConfig{Backend: "openai"})
	assert.ErrorContains(t, err, "unknown language model backend")
}

func TestMetadataProviderFallsBackWithoutCredentials(t *testing.T) {
	cfg := testConfig(t, "")
	p := newMetadataProvider(context.Background(), cfg, http.DefaultClient, New(cfg).logger)

	audio := filepath.Join(t.TempDir(), "interview.wav")
	require.NoError(t, os.WriteFile(audio, []byte("RIFF"), 0600))
	md := p.Extract(context.Background(), models.MediaReference{Platform: models.PlatformAudioFile, ID: audio})
	assert.Equal(t, "interview", md.Title)
	assert.False(t, md.Degraded())
}
