package pipeline

import (
	"errors"
	"fmt"
	"net/http"

	"transcript-assistant/shared/ai"
	"transcript-assistant/shared/source"
	"transcript-assistant/shared/transcript"
)

// Stage names a step of a pipeline run.
type Stage string

const (
	StageResolve     Stage = "resolve"
	StageTranscript  Stage = "transcript"
	StageSummary     Stage = "summary"
	StageScript      Stage = "script"
	StageTranslation Stage = "translation"
)

// StageError tags a failure with the stage that produced it.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s stage failed: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// ErrorKind is the caller-facing category of a failed run.
type ErrorKind string

const (
	KindUnrecognizedSource    ErrorKind = "UnrecognizedSource"
	KindUnsupportedSource     ErrorKind = "UnsupportedSource"
	KindTranscriptUnavailable ErrorKind = "TranscriptUnavailable"
	KindModelUnavailable      ErrorKind = "ModelUnavailable"
	KindGenerationFailed      ErrorKind = "GenerationFailed"
	KindInternal              ErrorKind = "Internal"
)

// Kind classifies err by the sentinel it wraps. Errors outside the taxonomy
// are KindInternal.
func Kind(err error) ErrorKind {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, source.ErrUnrecognizedSource):
		return KindUnrecognizedSource
	case errors.Is(err, transcript.ErrUnsupportedSource):
		return KindUnsupportedSource
	case errors.Is(err, transcript.ErrTranscriptUnavailable):
		return KindTranscriptUnavailable
	case errors.Is(err, ai.ErrModelUnavailable):
		return KindModelUnavailable
	case errors.Is(err, ai.ErrGenerationFailed):
		return KindGenerationFailed
	default:
		return KindInternal
	}
}

// StageOf returns the stage err was tagged with, or "" if it was not.
func StageOf(err error) Stage {
	var se *StageError
	if errors.As(err, &se) {
		return se.Stage
	}
	return ""
}

// HTTPStatus maps an error kind to the response status reported for it.
func HTTPStatus(kind ErrorKind) int {
	switch kind {
	case KindUnrecognizedSource, KindUnsupportedSource:
		return http.StatusBadRequest
	case KindTranscriptUnavailable:
		return http.StatusUnprocessableEntity
	case KindModelUnavailable:
		return http.StatusServiceUnavailable
	case KindGenerationFailed:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
