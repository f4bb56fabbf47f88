package metadata

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"

	"transcript-assistant/internal/models"
)

// DataAPIExtractor is the full YouTube extractor backed by the YouTube Data
// API v3.
type DataAPIExtractor struct {
	service *youtube.Service
}

func NewDataAPIExtractor(ctx context.Context, opts ...option.ClientOption) (*DataAPIExtractor, error) {
	service, err := youtube.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create YouTube service: %w", err)
	}
	return &DataAPIExtractor{service: service}, nil
}

func (e *DataAPIExtractor) Extract(ctx context.Context, id string) (*models.Metadata, error) {
	resp, err := e.service.Videos.List([]string{"snippet", "contentDetails", "statistics"}).
		Id(id).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("failed to get video details for %s: %w", id, err)
	}
	if len(resp.Items) == 0 || resp.Items[0].Snippet == nil {
		return nil, fmt.Errorf("video %s not found", id)
	}

	item := resp.Items[0]
	snippet := item.Snippet

	description := truncateRunes(snippet.Description, models.MaxDescriptionLength)
	md := &models.Metadata{
		Title:       snippet.Title,
		Description: &description,
		Channel:     snippet.ChannelTitle,
		ChannelID:   snippet.ChannelId,
		Tags:        snippet.Tags,
		Thumbnail:   bestThumbnail(snippet.Thumbnails),
		WebpageURL:  watchURL(id),
		IsLive:      snippet.LiveBroadcastContent == "live",
	}
	if md.Title == "" {
		md.Title = "Unknown Title"
	}
	if md.Channel == "" {
		md.Channel = models.UnknownChannel
	}
	if len(md.Tags) > models.MaxTags {
		md.Tags = md.Tags[:models.MaxTags]
	}
	if publishedAt, err := time.Parse(time.RFC3339, snippet.PublishedAt); err == nil {
		md.UploadDate = publishedAt.Format("20060102")
	}

	if item.ContentDetails != nil {
		if seconds := parseDurationSeconds(item.ContentDetails.Duration); seconds > 0 {
			md.Duration = &seconds
		}
		if rating := item.ContentDetails.ContentRating; rating != nil && rating.YtRating == "ytAgeRestricted" {
			md.AgeLimit = 18
		}
	}

	if stats := item.Statistics; stats != nil {
		views := int64(stats.ViewCount)
		md.ViewCount = &views
		// Hidden like counts are omitted and decode as zero.
		if stats.LikeCount > 0 {
			likes := int64(stats.LikeCount)
			md.LikeCount = &likes
		}
	}

	if snippet.CategoryId != "" {
		md.Categories = e.categoryTitles(ctx, snippet.CategoryId)
	}

	return md, nil
}

// categoryTitles resolves a category id to its display name. A failed lookup
// only leaves the categories empty.
func (e *DataAPIExtractor) categoryTitles(ctx context.Context, categoryID string) []string {
	resp, err := e.service.VideoCategories.List([]string{"snippet"}).
		Id(categoryID).
		Context(ctx).
		Do()
	if err != nil {
		return nil
	}

	var titles []string
	for _, c := range resp.Items {
		if c.Snippet != nil && c.Snippet.Title != "" {
			titles = append(titles, c.Snippet.Title)
		}
	}
	return titles
}

func bestThumbnail(t *youtube.ThumbnailDetails) string {
	if t == nil {
		return ""
	}
	for _, thumb := range []*youtube.Thumbnail{t.Maxres, t.Standard, t.High, t.Medium, t.Default} {
		if thumb != nil && thumb.Url != "" {
			return thumb.Url
		}
	}
	return ""
}
