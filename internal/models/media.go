package models

import "fmt"

// Platform identifies the hosting source of a piece of media.
type Platform string

const (
	PlatformYouTube   Platform = "youtube"
	PlatformVimeo     Platform = "vimeo"
	PlatformAudioFile Platform = "audio_file"
)

// MediaReference is a resolved (platform, identifier) pair.
type MediaReference struct {
	Platform Platform `json:"platform"`
	ID       string   `json:"id"`
}

func (r MediaReference) String() string {
	return fmt.Sprintf("%s:%s", r.Platform, r.ID)
}

// Segment is one caption line as returned by a transcript source.
type Segment struct {
	Text     string  `json:"text"`
	Start    float64 `json:"start,omitempty"`
	Duration float64 `json:"duration,omitempty"`
}
