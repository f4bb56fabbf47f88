package metadata

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"transcript-assistant/internal/models"
)

// VimeoExtractor reads public video metadata from the Vimeo oEmbed endpoint.
type VimeoExtractor struct {
	client   *http.Client
	endpoint string
}

type vimeoOEmbed struct {
	Title        string `json:"title"`
	AuthorName   string `json:"author_name"`
	AuthorURL    string `json:"author_url"`
	Description  string `json:"description"`
	Duration     int    `json:"duration"`
	ThumbnailURL string `json:"thumbnail_url"`
	UploadDate   string `json:"upload_date"` // "2006-01-02 15:04:05"
}

func NewVimeoExtractor(client *http.Client) *VimeoExtractor {
	if client == nil {
		client = http.DefaultClient
	}
	return &VimeoExtractor{client: client, endpoint: "https://vimeo.com/api/oembed.json"}
}

func (e *VimeoExtractor) Extract(ctx context.Context, id string) (*models.Metadata, error) {
	pageURL := "https://vimeo.com/" + id
	reqURL := e.endpoint + "?url=" + url.QueryEscape(pageURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("vimeo oembed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("vimeo oembed: HTTP %d for video %s", resp.StatusCode, id)
	}

	var oe vimeoOEmbed
	if err := json.NewDecoder(resp.Body).Decode(&oe); err != nil {
		return nil, fmt.Errorf("decode vimeo oembed: %w", err)
	}

	description := truncateRunes(oe.Description, models.MaxDescriptionLength)
	md := &models.Metadata{
		Title:       oe.Title,
		Description: &description,
		Channel:     oe.AuthorName,
		ChannelID:   oe.AuthorURL,
		Thumbnail:   oe.ThumbnailURL,
		WebpageURL:  pageURL,
	}
	if md.Title == "" {
		md.Title = fmt.Sprintf("Video %s", id)
	}
	if md.Channel == "" {
		md.Channel = models.UnknownChannel
	}
	if oe.Duration > 0 {
		d := oe.Duration
		md.Duration = &d
	}
	if uploaded, err := time.Parse("2006-01-02 15:04:05", oe.UploadDate); err == nil {
		md.UploadDate = uploaded.Format("20060102")
	}
	return md, nil
}
