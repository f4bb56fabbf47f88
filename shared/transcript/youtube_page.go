package transcript

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"errors"
	"fmt"
	"html"
	"io"
	"net/http"
	"regexp"
	"strings"

	"transcript-assistant/internal/models"
)

const (
	defaultWatchURL = "https://www.youtube.com/watch?v="

	// ytInitialPlayerResponseMarker precedes the player JSON embedded in the watch page.
	ytInitialPlayerResponseMarker = "ytInitialPlayerResponse = "

	userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"

	maxWatchPageBytes = 6 * 1024 * 1024
	maxTimedTextBytes = 2 * 1024 * 1024
)

var captionTagRE = regexp.MustCompile(`<[^>]*>`)

type playerResponse struct {
	Captions *struct {
		PlayerCaptionsTracklistRenderer struct {
			CaptionTracks []captionTrack `json:"captionTracks"`
		} `json:"playerCaptionsTracklistRenderer"`
	} `json:"captions"`
	PlayabilityStatus *struct {
		Status string `json:"status"`
		Reason string `json:"reason"`
	} `json:"playabilityStatus"`
}

type captionTrack struct {
	BaseURL      string `json:"baseUrl"`
	LanguageCode string `json:"languageCode"`
	Kind         string `json:"kind"`
}

type timedText struct {
	Lines []timedTextLine `xml:"text"`
}

type timedTextLine struct {
	Start    float64 `xml:"start,attr"`
	Duration float64 `xml:"dur,attr"`
	Text     string  `xml:",chardata"`
}

// WatchPageSource reads caption tracks from the player response embedded in
// the public watch page and downloads them as timedtext XML.
type WatchPageSource struct {
	client   *http.Client
	watchURL string
}

func NewWatchPageSource(client *http.Client) *WatchPageSource {
	if client == nil {
		client = http.DefaultClient
	}
	return &WatchPageSource{client: client, watchURL: defaultWatchURL}
}

func (s *WatchPageSource) ListTracks(ctx context.Context, videoID string) ([]Track, error) {
	body, err := s.get(ctx, s.watchURL+videoID, maxWatchPageBytes, "text/html,application/xhtml+xml")
	if err != nil {
		return nil, fmt.Errorf("watch page: %w", err)
	}

	idx := strings.Index(string(body), ytInitialPlayerResponseMarker)
	if idx < 0 {
		return nil, errors.New("ytInitialPlayerResponse not found in watch page")
	}
	raw := extractJSON(body[idx+len(ytInitialPlayerResponseMarker):])
	if raw == nil {
		return nil, errors.New("failed to extract ytInitialPlayerResponse JSON")
	}

	var player playerResponse
	if err := json.Unmarshal(raw, &player); err != nil {
		return nil, fmt.Errorf("decode ytInitialPlayerResponse: %w", err)
	}

	if player.PlayabilityStatus != nil && player.PlayabilityStatus.Status != "" && player.PlayabilityStatus.Status != "OK" {
		return nil, fmt.Errorf("video %s unplayable (%s): %s", videoID, player.PlayabilityStatus.Status, player.PlayabilityStatus.Reason)
	}
	if player.Captions == nil || len(player.Captions.PlayerCaptionsTracklistRenderer.CaptionTracks) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrTranscriptsDisabled, videoID)
	}

	var tracks []Track
	for _, ct := range player.Captions.PlayerCaptionsTracklistRenderer.CaptionTracks {
		if needsPoToken(ct.BaseURL) {
			continue
		}
		tracks = append(tracks, Track{
			BaseURL:      html.UnescapeString(ct.BaseURL),
			LanguageCode: ct.LanguageCode,
			Kind:         ct.Kind,
		})
	}
	if len(tracks) == 0 {
		return nil, fmt.Errorf("%w: all caption tracks for %s require a PoToken", ErrNoTranscriptFound, videoID)
	}
	return tracks, nil
}

func (s *WatchPageSource) FetchTrack(ctx context.Context, track Track) ([]models.Segment, error) {
	body, err := s.get(ctx, track.BaseURL, maxTimedTextBytes, "application/xml,text/xml")
	if err != nil {
		return nil, fmt.Errorf("fetch timedtext: %w", err)
	}

	var tt timedText
	if err := xml.Unmarshal(body, &tt); err != nil {
		return nil, fmt.Errorf("parse timedtext XML: %w", err)
	}

	segments := make([]models.Segment, 0, len(tt.Lines))
	for _, line := range tt.Lines {
		segments = append(segments, models.Segment{
			Text:     cleanCaption(line.Text),
			Start:    line.Start,
			Duration: line.Duration,
		})
	}
	return segments, nil
}

func (s *WatchPageSource) get(ctx context.Context, url string, limit int64, accept string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Accept", accept)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, snippet)
	}
	return io.ReadAll(io.LimitReader(resp.Body, limit))
}

// needsPoToken reports whether a caption URL can only be fetched by a browser.
func needsPoToken(baseURL string) bool {
	return strings.Contains(baseURL, "&exp=xpe")
}

// cleanCaption decodes the entities YouTube double-escapes in timedtext and
// drops inline formatting tags.
func cleanCaption(s string) string {
	s = html.UnescapeString(s)
	s = captionTagRE.ReplaceAllString(s, "")
	return strings.Join(strings.Fields(s), " ")
}

// extractJSON returns the first balanced JSON object in data, or nil.
func extractJSON(data []byte) []byte {
	start := -1
	depth := 0
	inString := false
	escaped := false

	for i, c := range data {
		if start < 0 {
			if c == '{' {
				start = i
				depth = 1
			}
			continue
		}
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return data[start : i+1]
			}
		}
	}
	return nil
}
