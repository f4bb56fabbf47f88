package transcript

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"transcript-assistant/internal/models"
)

var (
	ErrUnsupportedSource     = errors.New("unsupported media source")
	ErrTranscriptUnavailable = errors.New("transcript unavailable")

	// Conditions that trigger the generated-caption fallback.
	ErrTranscriptsDisabled = errors.New("transcripts are disabled for this video")
	ErrNoTranscriptFound   = errors.New("no transcript found")
)

// Fetcher retrieves the full transcript text for one platform.
type Fetcher interface {
	Fetch(ctx context.Context, id string) (string, error)
}

// Registry dispatches transcript requests to the fetcher registered for the
// reference's platform.
type Registry struct {
	fetchers map[models.Platform]Fetcher
}

func NewRegistry() *Registry {
	return &Registry{fetchers: make(map[models.Platform]Fetcher)}
}

// Register adds or replaces the fetcher for a platform. Registration happens
// during startup; the registry is read-only afterwards.
func (r *Registry) Register(platform models.Platform, f Fetcher) {
	r.fetchers[platform] = f
}

// Supports reports whether a fetcher is registered for platform.
func (r *Registry) Supports(platform models.Platform) bool {
	_, ok := r.fetchers[platform]
	return ok
}

func (r *Registry) Fetch(ctx context.Context, ref models.MediaReference) (string, error) {
	f, ok := r.fetchers[ref.Platform]
	if !ok {
		return "", fmt.Errorf("%w: no fetcher available for source %s", ErrUnsupportedSource, ref.Platform)
	}
	return f.Fetch(ctx, ref.ID)
}

// JoinSegments concatenates caption segments in order, separated by single
// spaces. Timing information is dropped.
func JoinSegments(segments []models.Segment) string {
	texts := make([]string, 0, len(segments))
	for _, seg := range segments {
		text := strings.Join(strings.Fields(seg.Text), " ")
		if text != "" {
			texts = append(texts, text)
		}
	}
	return strings.Join(texts, " ")
}
