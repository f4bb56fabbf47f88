// Package source turns raw user input into a MediaReference without touching
// the network.
package source

import (
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"transcript-assistant/internal/models"
)

var ErrUnrecognizedSource = errors.New("unrecognized media source")

var (
	youtubePatterns = []*regexp.Regexp{
		regexp.MustCompile(`youtube\.com/watch\?(?:[^#\s]*&)?v=([\w-]{11})`),
		regexp.MustCompile(`youtu\.be/([\w-]{11})`),
		regexp.MustCompile(`youtube\.com/embed/([\w-]{11})`),
	}

	vimeoPatterns = []*regexp.Regexp{
		regexp.MustCompile(`vimeo\.com/(\d+)`),
		regexp.MustCompile(`player\.vimeo\.com/video/(\d+)`),
	}

	bareYouTubeID = regexp.MustCompile(`^[\w-]{11}$`)

	audioExtensions = map[string]bool{
		".mp3": true,
		".wav": true,
		".mp4": true,
		".m4a": true,
	}
)

// Resolve detects the platform of input and extracts its identifier. Patterns
// are tried in order and the first match wins: YouTube URLs, Vimeo URLs, a
// bare 11-character YouTube id, then local media files by extension.
func Resolve(input string) (models.MediaReference, error) {
	input = strings.TrimSpace(input)

	for _, re := range youtubePatterns {
		if m := re.FindStringSubmatch(input); m != nil {
			return models.MediaReference{Platform: models.PlatformYouTube, ID: m[1]}, nil
		}
	}

	for _, re := range vimeoPatterns {
		if m := re.FindStringSubmatch(input); m != nil {
			return models.MediaReference{Platform: models.PlatformVimeo, ID: m[1]}, nil
		}
	}

	if bareYouTubeID.MatchString(input) {
		return models.MediaReference{Platform: models.PlatformYouTube, ID: input}, nil
	}

	if audioExtensions[strings.ToLower(filepath.Ext(input))] {
		return models.MediaReference{Platform: models.PlatformAudioFile, ID: input}, nil
	}

	return models.MediaReference{}, fmt.Errorf("%w: could not detect media source from %q", ErrUnrecognizedSource, input)
}
