package models

import "fmt"

const (
	UnknownChannel = "Unknown Channel"

	MaxDescriptionLength = 500
	MaxTags              = 10
)

// Metadata describes a piece of media. A record with Error set is degraded:
// extraction failed and only placeholder values are present.
type Metadata struct {
	Title       string   `json:"title"`
	Description *string  `json:"description"`
	Duration    *int     `json:"duration"` // seconds
	Channel     string   `json:"channel"`
	ChannelID   string   `json:"channel_id,omitempty"`
	UploadDate  string   `json:"upload_date,omitempty"` // YYYYMMDD
	ViewCount   *int64   `json:"view_count,omitempty"`
	LikeCount   *int64   `json:"like_count,omitempty"`
	Categories  []string `json:"categories,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	Thumbnail   string   `json:"thumbnail,omitempty"`
	WebpageURL  string   `json:"webpage_url,omitempty"`
	IsLive      bool     `json:"is_live,omitempty"`
	AgeLimit    int      `json:"age_limit,omitempty"`
	Error       string   `json:"error,omitempty"`
}

// DegradedMetadata builds the placeholder record returned when extraction fails.
func DegradedMetadata(id string, cause error) *Metadata {
	reason := "metadata unavailable"
	if cause != nil {
		reason = cause.Error()
	}
	return &Metadata{
		Title:   fmt.Sprintf("Video %s", id),
		Channel: UnknownChannel,
		Error:   reason,
	}
}

// Degraded reports whether the record is a placeholder.
func (m *Metadata) Degraded() bool {
	return m.Error != ""
}
