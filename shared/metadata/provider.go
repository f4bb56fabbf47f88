// Package metadata enriches a MediaReference with descriptive attributes.
// Extraction never fails from the caller's point of view: any error turns
// into a degraded record.
package metadata

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"transcript-assistant/internal/models"
	"transcript-assistant/shared/logging"
)

var ErrNoExtractor = errors.New("no metadata extractor for source")

// Extractor retrieves metadata for one platform.
type Extractor interface {
	Extract(ctx context.Context, id string) (*models.Metadata, error)
}

type Provider struct {
	extractors map[models.Platform]Extractor
	logger     zerolog.Logger
}

func NewProvider() *Provider {
	return &Provider{
		extractors: make(map[models.Platform]Extractor),
		logger:     logging.WithComponent("metadata"),
	}
}

// Register adds or replaces the extractor for a platform. Not safe to call
// once the provider is serving requests.
func (p *Provider) Register(platform models.Platform, e Extractor) {
	p.extractors[platform] = e
}

// Extract returns metadata for ref. On any failure, including a panicking
// extractor, it returns the degraded record for ref.ID instead.
func (p *Provider) Extract(ctx context.Context, ref models.MediaReference) (md *models.Metadata) {
	defer func() {
		if r := recover(); r != nil {
			md = p.degrade(ref, fmt.Errorf("metadata extractor panicked: %v", r))
		}
	}()

	e, ok := p.extractors[ref.Platform]
	if !ok {
		return p.degrade(ref, fmt.Errorf("%w: %s", ErrNoExtractor, ref.Platform))
	}

	md, err := e.Extract(ctx, ref.ID)
	if err != nil {
		return p.degrade(ref, err)
	}
	if md == nil {
		return p.degrade(ref, errors.New("extractor returned no metadata"))
	}
	return md
}

func (p *Provider) degrade(ref models.MediaReference, err error) *models.Metadata {
	p.logger.Warn().
		Str("source", string(ref.Platform)).
		Str("media_id", ref.ID).
		Err(err).
		Msg("metadata extraction failed, using degraded record")
	return models.DegradedMetadata(ref.ID, err)
}

func watchURL(id string) string {
	return "https://www.youtube.com/watch?v=" + id
}

func truncateRunes(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max])
}
