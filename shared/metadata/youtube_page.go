package metadata

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"transcript-assistant/internal/models"
)

var authorRE = regexp.MustCompile(`"author":"([^"]+)"`)

// PageExtractor is the fast YouTube extractor: it reads only the title and
// channel from the public watch page.
type PageExtractor struct {
	client  *http.Client
	baseURL string
}

func NewPageExtractor(client *http.Client) *PageExtractor {
	if client == nil {
		client = http.DefaultClient
	}
	return &PageExtractor{client: client, baseURL: "https://www.youtube.com/watch?v="}
}

func (e *PageExtractor) Extract(ctx context.Context, id string) (*models.Metadata, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.baseURL+id, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("watch page: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("watch page: HTTP %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 6*1024*1024))
	if err != nil {
		return nil, fmt.Errorf("read watch page: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse watch page: %w", err)
	}

	title := metaContent(doc, `meta[name="title"]`, `meta[property="og:title"]`)
	if title == "" {
		title = fmt.Sprintf("Video %s", id)
	}

	channel := metaContent(doc, `link[itemprop="name"]`)
	if channel == "" {
		if m := authorRE.FindSubmatch(body); m != nil {
			channel = string(m[1])
		}
	}
	if channel == "" {
		channel = models.UnknownChannel
	}

	return &models.Metadata{
		Title:      title,
		Channel:    channel,
		WebpageURL: watchURL(id),
	}, nil
}

// metaContent returns the first non-empty content attribute among selectors.
func metaContent(doc *goquery.Document, selectors ...string) string {
	for _, sel := range selectors {
		if v, ok := doc.Find(sel).First().Attr("content"); ok {
			if v = strings.TrimSpace(v); v != "" {
				return v
			}
		}
	}
	return ""
}
