package transcript

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"transcript-assistant/internal/models"
	"transcript-assistant/shared/logging"
)

// Track is one caption track offered for a video.
type Track struct {
	BaseURL      string
	LanguageCode string
	Kind         string // "asr" = auto-generated
}

// Generated reports whether the track was produced by speech recognition.
func (t Track) Generated() bool {
	return t.Kind == "asr"
}

// CaptionSource lists and downloads YouTube caption tracks.
type CaptionSource interface {
	ListTracks(ctx context.Context, videoID string) ([]Track, error)
	FetchTrack(ctx context.Context, track Track) ([]models.Segment, error)
}

// YouTubeFetcher fetches the manually provided transcript of a video and
// falls back to the auto-generated English track when none exists.
type YouTubeFetcher struct {
	source    CaptionSource
	languages []string
	logger    zerolog.Logger
}

func NewYouTubeFetcher(source CaptionSource, languages []string) *YouTubeFetcher {
	if len(languages) == 0 {
		languages = []string{"en"}
	}
	return &YouTubeFetcher{
		source:    source,
		languages: languages,
		logger:    logging.WithComponent("transcript.youtube"),
	}
}

func (f *YouTubeFetcher) Fetch(ctx context.Context, videoID string) (string, error) {
	segments, err := f.FetchRaw(ctx, videoID)
	if err != nil {
		return "", err
	}

	text := JoinSegments(segments)
	if text == "" {
		return "", fmt.Errorf("%w: transcript for %s is empty", ErrTranscriptUnavailable, videoID)
	}
	return text, nil
}

// FetchRaw returns the time-ordered caption segments for videoID. The track
// list is read once: a manual track in a preferred language wins, otherwise
// the generated English track from the same list is used.
func (f *YouTubeFetcher) FetchRaw(ctx context.Context, videoID string) ([]models.Segment, error) {
	tracks, err := f.source.ListTracks(ctx, videoID)
	if err != nil {
		if !fallbackApplies(err) {
			return nil, fmt.Errorf("%w: could not fetch transcript: %w", ErrTranscriptUnavailable, err)
		}
		f.logger.Warn().Str("video_id", videoID).Err(err).Msg("caption list unavailable, retrying for generated captions")

		// The player response sometimes omits captions on first load.
		retried, retryErr := f.source.ListTracks(ctx, videoID)
		if retryErr != nil {
			return nil, fallbackFailed(err, retryErr)
		}
		segments, genErr := f.generatedTranscript(ctx, retried)
		if genErr != nil {
			return nil, fallbackFailed(err, genErr)
		}
		return segments, nil
	}

	if track, ok := f.manualTrack(tracks); ok {
		segments, err := f.source.FetchTrack(ctx, track)
		if err != nil {
			return nil, fmt.Errorf("%w: could not fetch transcript: %w", ErrTranscriptUnavailable, err)
		}
		return segments, nil
	}

	manualErr := fmt.Errorf("%w: no manual transcript in %s (available: %s)",
		ErrNoTranscriptFound, strings.Join(f.languages, ", "), describeTracks(tracks))
	f.logger.Debug().Str("video_id", videoID).Msg("no manual transcript, using generated captions")

	segments, genErr := f.generatedTranscript(ctx, tracks)
	if genErr != nil {
		return nil, fallbackFailed(manualErr, genErr)
	}
	return segments, nil
}

func (f *YouTubeFetcher) manualTrack(tracks []Track) (Track, bool) {
	for _, lang := range f.languages {
		for _, t := range tracks {
			if !t.Generated() && matchesLanguage(t.LanguageCode, lang) {
				return t, true
			}
		}
	}
	return Track{}, false
}

func (f *YouTubeFetcher) generatedTranscript(ctx context.Context, tracks []Track) ([]models.Segment, error) {
	for _, t := range tracks {
		if t.Generated() && matchesLanguage(t.LanguageCode, "en") {
			return f.source.FetchTrack(ctx, t)
		}
	}
	return nil, fmt.Errorf("%w: no generated English transcript", ErrNoTranscriptFound)
}

// fallbackApplies reports whether err allows the generated-caption fallback.
func fallbackApplies(err error) bool {
	return errors.Is(err, ErrTranscriptsDisabled) || errors.Is(err, ErrNoTranscriptFound)
}

func fallbackFailed(primary, fallback error) error {
	return fmt.Errorf("%w: could not fetch transcript: %w (generated captions: %v)", ErrTranscriptUnavailable, primary, fallback)
}

// matchesLanguage accepts an exact code or the same code with a region suffix.
func matchesLanguage(code, want string) bool {
	code = strings.ToLower(code)
	want = strings.ToLower(want)
	return code == want || strings.HasPrefix(code, want+"-")
}

func describeTracks(tracks []Track) string {
	if len(tracks) == 0 {
		return "none"
	}
	parts := make([]string, 0, len(tracks))
	for _, t := range tracks {
		if t.Generated() {
			parts = append(parts, t.LanguageCode+" (generated)")
		} else {
			parts = append(parts, t.LanguageCode)
		}
	}
	return strings.Join(parts, ", ")
}
