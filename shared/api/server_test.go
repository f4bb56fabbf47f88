package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"transcript-assistant/internal/models"
	"transcript-assistant/shared/ai"
	"transcript-assistant/shared/monitoring"
	"transcript-assistant/shared/pipeline"
	"transcript-assistant/shared/source"
	"transcript-assistant/shared/transcript"
)

type fakeProcessor struct {
	result *models.ProcessingResult
	err    error
	opts   pipeline.Options
	input  string
	ctxErr error
	reqID  string
}

func (f *fakeProcessor) ProcessMedia(ctx context.Context, input string, opts pipeline.Options) (*models.ProcessingResult, error) {
	f.ctxErr = ctx.Err()
	f.reqID = middleware.GetReqID(ctx)
	f.input = input
	f.opts = opts
	return f.result, f.err
}

func (f *fakeProcessor) ExtractMetadata(ctx context.Context, input string) (models.MediaReference, *models.Metadata, error) {
	f.ctxErr = ctx.Err()
	ref, err := source.Resolve(input)
	if err != nil {
		return models.MediaReference{}, nil, &pipeline.StageError{Stage: pipeline.StageResolve, Err: err}
	}
	return ref, models.DegradedMetadata(ref.ID, errors.New("offline")), nil
}

func (f *fakeProcessor) Model() string { return "mistral:7b-instruct-q4_K_M" }

type fakeBackend struct {
	models    []string
	err       error
	connected bool
	deadline  time.Duration
}

func (f *fakeBackend) ListModels(ctx context.Context) ([]string, error) { return f.models, f.err }

func (f *fakeBackend) CheckConnection(ctx context.Context) bool {
	if d, ok := ctx.Deadline(); ok {
		f.deadline = time.Until(d)
	}
	return f.connected
}

type fakeSaver struct {
	saved map[string]any
	err   error
}

func (f *fakeSaver) Save(mediaID string, v any) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	if f.saved == nil {
		f.saved = make(map[string]any)
	}
	f.saved[mediaID] = v
	return "outputs/api_result_" + mediaID + ".json", nil
}

type testServer struct {
	processor *fakeProcessor
	backend   *fakeBackend
	saver     *fakeSaver
	handler   http.Handler
}

func newTestServer(t *testing.T, rateLimit int) *testServer {
	t.Helper()
	ts := &testServer{
		processor: &fakeProcessor{result: &models.ProcessingResult{
			MediaID:   "dQw4w9WgXcQ",
			Source:    models.PlatformYouTube,
			StyleUsed: "educational",
			ModelUsed: "mistral:7b-instruct-q4_K_M",
		}},
		backend: &fakeBackend{models: []string{"mistral:7b-instruct-q4_K_M", "llama3:8b"}, connected: true},
		saver:   &fakeSaver{},
	}
	srv := NewServer(Config{Service: "transcript-assistant", Version: "1.0.0", RateLimitPerMinute: rateLimit}, Dependencies{
		Processor: ts.processor,
		Models:    ts.backend,
		Monitor:   monitoring.NewMonitor(),
		Store:     ts.saver,
	})
	srv.now = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }
	ts.handler = srv.Router()
	return ts
}

func (ts *testServer) do(method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.RemoteAddr = "192.0.2.1:1234"
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestProcessSuccess(t *testing.T) {
	ts := newTestServer(t, 0)

	rec := ts.do(http.MethodPost, "/api/v1/process", `{"video_url":"https://youtu.be/dQw4w9WgXcQ","style":"casual","translate":true,"language":"fr"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode(t, rec)
	assert.Equal(t, "success", body["status"])
	assert.Equal(t, "1.0", body["api_version"])
	assert.Equal(t, "2024-05-01T12:00:00Z", body["timestamp"])
	assert.Len(t, body["request_id"], 36)
	assert.NotContains(t, body, "output_file")

	data := body["data"].(map[string]any)
	assert.Equal(t, "dQw4w9WgXcQ", data["media_id"])
	assert.Contains(t, data, "translation")
	assert.Nil(t, data["translation"])

	assert.Equal(t, "https://youtu.be/dQw4w9WgXcQ", ts.processor.input)
	assert.Equal(t, pipeline.Options{Style: "casual", Translate: true, TargetLanguage: "fr"}, ts.processor.opts)
	assert.Empty(t, ts.saver.saved)
}

func TestProcessSaveOutput(t *testing.T) {
	ts := newTestServer(t, 0)

	rec := ts.do(http.MethodPost, "/api/v1/process", `{"video_url":"dQw4w9WgXcQ","save_output":true}`)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode(t, rec)
	assert.Equal(t, "outputs/api_result_dQw4w9WgXcQ.json", body["output_file"])
	require.Contains(t, ts.saver.saved, "dQw4w9WgXcQ")
	saved := ts.saver.saved["dQw4w9WgXcQ"].(processResponse)
	assert.Equal(t, "success", saved.Status)

	ts.saver.err = errors.New("disk full")
	rec = ts.do(http.MethodPost, "/api/v1/process", `{"video_url":"dQw4w9WgXcQ","save_output":true}`)
	assert.Equal(t, http.StatusOK, rec.Code, "a failed save does not fail the request")
}

func TestProcessBadRequests(t *testing.T) {
	ts := newTestServer(t, 0)

	tests := []struct {
		name    string
		body    string
		message string
	}{
		{"empty body", "", "Missing video_url parameter"},
		{"missing field", `{"style":"casual"}`, "Missing video_url parameter"},
		{"blank field", `{"video_url":"   "}`, "Missing video_url parameter"},
		{"malformed", `{"video_url":`, "Invalid JSON body"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := ts.do(http.MethodPost, "/api/v1/process", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			body := decode(t, rec)
			assert.Equal(t, tt.message, body["error"])
			assert.Equal(t, "error", body["status"])
		})
	}
}

func TestProcessErrorKinds(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		kind   string
		stage  string
	}{
		{"unrecognized", &pipeline.StageError{Stage: pipeline.StageResolve, Err: source.ErrUnrecognizedSource}, http.StatusBadRequest, "UnrecognizedSource", "resolve"},
		{"unsupported", &pipeline.StageError{Stage: pipeline.StageTranscript, Err: transcript.ErrUnsupportedSource}, http.StatusBadRequest, "UnsupportedSource", "transcript"},
		{"transcript", &pipeline.StageError{Stage: pipeline.StageTranscript, Err: transcript.ErrTranscriptUnavailable}, http.StatusUnprocessableEntity, "TranscriptUnavailable", "transcript"},
		{"model", &pipeline.StageError{Stage: pipeline.StageSummary, Err: fmt.Errorf("summary generation: %w", ai.ErrModelUnavailable)}, http.StatusServiceUnavailable, "ModelUnavailable", "summary"},
		{"generation", &pipeline.StageError{Stage: pipeline.StageScript, Err: ai.ErrGenerationFailed}, http.StatusBadGateway, "GenerationFailed", "script"},
		{"internal", errors.New("boom"), http.StatusInternalServerError, "Internal", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t, 0)
			ts.processor.err = tt.err
			ts.processor.result = nil

			rec := ts.do(http.MethodPost, "/api/v1/process", `{"video_url":"dQw4w9WgXcQ"}`)
			assert.Equal(t, tt.status, rec.Code)
			body := decode(t, rec)
			assert.Equal(t, "error", body["status"])
			assert.Equal(t, tt.kind, body["error_kind"])
			assert.Equal(t, tt.err.Error(), body["error"])
			if tt.stage != "" {
				assert.Equal(t, tt.stage, body["stage"])
			} else {
				assert.NotContains(t, body, "stage")
			}
			assert.NotContains(t, body, "data")
		})
	}
}

func TestProcessRateLimit(t *testing.T) {
	ts := newTestServer(t, 2)

	for i := 0; i < 2; i++ {
		assert.Equal(t, http.StatusOK, ts.do(http.MethodPost, "/api/v1/process", `{"video_url":"dQw4w9WgXcQ"}`).Code)
	}
	rec := ts.do(http.MethodPost, "/api/v1/process", `{"video_url":"dQw4w9WgXcQ"}`)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))

	assert.Equal(t, http.StatusOK, ts.do(http.MethodGet, "/api/v1/health", "").Code, "only /process is limited")
}

func TestStatus(t *testing.T) {
	ts := newTestServer(t, 0)

	body := decode(t, ts.do(http.MethodGet, "/api/v1/status", ""))
	assert.Equal(t, "online", body["status"])
	assert.Equal(t, true, body["model_connected"])
	assert.Contains(t, body["endpoints"], "process")
	assert.Equal(t, "No runs yet", body["last_run"])

	ts.backend.connected = false
	body = decode(t, ts.do(http.MethodGet, "/api/v1/status", ""))
	assert.Equal(t, false, body["model_connected"])
}

func TestMetadata(t *testing.T) {
	ts := newTestServer(t, 0)

	rec := ts.do(http.MethodGet, "/api/v1/metadata/dQw4w9WgXcQ", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "success", body["status"])
	assert.Equal(t, "dQw4w9WgXcQ", body["video_id"])
	assert.Equal(t, "youtube", body["source"])
	md := body["metadata"].(map[string]any)
	assert.Equal(t, "Video dQw4w9WgXcQ", md["title"])
	assert.Equal(t, "offline", md["error"])

	rec = ts.do(http.MethodGet, "/api/v1/metadata/not-an-id", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "UnrecognizedSource", decode(t, rec)["error_kind"])
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t, 0)

	body := decode(t, ts.do(http.MethodGet, "/api/v1/health", ""))
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "transcript-assistant", body["service"])
	assert.Equal(t, "1.0.0", body["version"])
	assert.Equal(t, "2024-05-01T12:00:00Z", body["timestamp"])
}

func TestModels(t *testing.T) {
	ts := newTestServer(t, 0)

	rec := ts.do(http.MethodGet, "/api/v1/models", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "success", body["status"])
	assert.Equal(t, []any{"mistral:7b-instruct-q4_K_M", "llama3:8b"}, body["models"])
	assert.Equal(t, "mistral:7b-instruct-q4_K_M", body["default_model"])

	ts.backend.err = fmt.Errorf("%w: connection refused", ai.ErrModelUnavailable)
	rec = ts.do(http.MethodGet, "/api/v1/models", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	body = decode(t, rec)
	assert.Equal(t, "error", body["status"])
	assert.Equal(t, []any{}, body["models"])
}

func TestNotFoundAndMethods(t *testing.T) {
	ts := newTestServer(t, 0)

	rec := ts.do(http.MethodGet, "/api/v1/unknown", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Not found", decode(t, rec)["error"])

	rec = ts.do(http.MethodGet, "/api/v1/process", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	ts := newTestServer(t, 0)
	monitoring.RequestsTotal.WithLabelValues("success").Add(0)

	rec := ts.do(http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "transcript_assistant_requests_total")
}

func TestProcessSurvivesClientDisconnect(t *testing.T) {
	ts := newTestServer(t, 0)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/process", strings.NewReader(`{"video_url":"dQw4w9WgXcQ"}`)).WithContext(ctx)
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)

	assert.NoError(t, ts.processor.ctxErr, "pipeline context must not follow the client connection")
	assert.NotEmpty(t, ts.processor.reqID, "request values are kept")

	req = httptest.NewRequest(http.MethodGet, "/api/v1/metadata/dQw4w9WgXcQ", nil).WithContext(ctx)
	ts.handler.ServeHTTP(httptest.NewRecorder(), req)
	assert.NoError(t, ts.processor.ctxErr)
}

func TestProcessRateLimitIgnoresForwardedHeaders(t *testing.T) {
	ts := newTestServer(t, 2)

	var codes []int
	for i := 0; i < 4; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/process", strings.NewReader(`{"video_url":"dQw4w9WgXcQ"}`))
		req.RemoteAddr = "192.0.2.1:1234"
		req.Header.Set("X-Forwarded-For", fmt.Sprintf("198.51.100.%d", i))
		req.Header.Set("X-Real-IP", fmt.Sprintf("203.0.113.%d", i))
		rec := httptest.NewRecorder()
		ts.handler.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}
	assert.Equal(t, []int{200, 200, 429, 429}, codes)
}

func TestStatusProbeIsBounded(t *testing.T) {
	ts := newTestServer(t, 0)

	ts.do(http.MethodGet, "/api/v1/status", "")
	assert.Greater(t, ts.backend.deadline, time.Duration(0))
	assert.LessOrEqual(t, ts.backend.deadline, statusProbeTimeout)
}
