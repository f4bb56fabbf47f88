package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"transcript-assistant/internal/models"
	"transcript-assistant/shared/pipeline"
)

const (
	maxRequestBodyBytes = 1 << 20
	statusProbeTimeout  = 10 * time.Second
)

type processRequest struct {
	VideoURL   string `json:"video_url"`
	Style      string `json:"style"`
	Translate  bool   `json:"translate"`
	Language   string `json:"language"`
	SaveOutput bool   `json:"save_output"`
}

type processResponse struct {
	RequestID  string                   `json:"request_id"`
	Status     string                   `json:"status"`
	Timestamp  string                   `json:"timestamp"`
	Data       *models.ProcessingResult `json:"data"`
	APIVersion string                   `json:"api_version"`
	OutputFile string                   `json:"output_file,omitempty"`
}

type errorResponse struct {
	Error     string `json:"error"`
	ErrorKind string `json:"error_kind,omitempty"`
	Stage     string `json:"stage,omitempty"`
	Status    string `json:"status"`
	Timestamp string `json:"timestamp,omitempty"`
}

type metadataResponse struct {
	Status    string           `json:"status"`
	VideoID   string           `json:"video_id"`
	Source    models.Platform  `json:"source"`
	Metadata  *models.Metadata `json:"metadata"`
	Timestamp string           `json:"timestamp"`
}

type modelsResponse struct {
	Status       string   `json:"status"`
	Models       []string `json:"models"`
	DefaultModel string   `json:"default_model"`
	Error        string   `json:"error,omitempty"`
	Timestamp    string   `json:"timestamp"`
}

func (s *Server) handleProcess(w http.ResponseWriter, r *http.Request) {
	var req processRequest
	dec := json.NewDecoder(io.LimitReader(r.Body, maxRequestBodyBytes))
	if err := dec.Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid JSON body", Status: "error"})
		return
	}
	if strings.TrimSpace(req.VideoURL) == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Missing video_url parameter", Status: "error"})
		return
	}

	// A run finishes even if the client goes away.
	result, err := s.processor.ProcessMedia(context.WithoutCancel(r.Context()), req.VideoURL, pipeline.Options{
		Style:          req.Style,
		Translate:      req.Translate,
		TargetLanguage: req.Language,
	})
	if err != nil {
		s.writeProcessError(w, err)
		return
	}

	resp := processResponse{
		RequestID:  uuid.NewString(),
		Status:     "success",
		Timestamp:  s.timestamp(),
		Data:       result,
		APIVersion: APIVersion,
	}
	if req.SaveOutput && s.store != nil {
		path, err := s.store.Save(result.MediaID, resp)
		if err != nil {
			s.logger.Warn().Err(err).Str("media_id", result.MediaID).Msg("failed to save result")
		} else {
			resp.OutputFile = path
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) writeProcessError(w http.ResponseWriter, err error) {
	kind := pipeline.Kind(err)
	writeJSON(w, pipeline.HTTPStatus(kind), errorResponse{
		Error:     err.Error(),
		ErrorKind: string(kind),
		Stage:     string(pipeline.StageOf(err)),
		Status:    "error",
		Timestamp: s.timestamp(),
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), statusProbeTimeout)
	defer cancel()
	connected := s.models.CheckConnection(ctx)
	s.monitor.RecordModelCheck(connected)
	report := s.monitor.Status(&connected, endpoints())
	report.Timestamp = s.timestamp()
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleMetadata(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	ref, md, err := s.processor.ExtractMetadata(context.WithoutCancel(r.Context()), id)
	if err != nil {
		s.writeProcessError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, metadataResponse{
		Status:    "success",
		VideoID:   ref.ID,
		Source:    ref.Platform,
		Metadata:  md,
		Timestamp: s.timestamp(),
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	report := s.monitor.Health(s.cfg.Service, s.cfg.Version)
	report.Timestamp = s.timestamp()
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleModels(w http.ResponseWriter, r *http.Request) {
	names, err := s.models.ListModels(r.Context())
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to list models")
		writeJSON(w, http.StatusServiceUnavailable, modelsResponse{
			Status:       "error",
			Models:       []string{},
			DefaultModel: s.processor.Model(),
			Error:        err.Error(),
			Timestamp:    s.timestamp(),
		})
		return
	}
	if names == nil {
		names = []string{}
	}
	writeJSON(w, http.StatusOK, modelsResponse{
		Status:       "success",
		Models:       names,
		DefaultModel: s.processor.Model(),
		Timestamp:    s.timestamp(),
	})
}

// writeJSON writes a JSON response with the given status code
func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
