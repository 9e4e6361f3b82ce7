// internal/commands/clip.go
package commands

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
)

const maxClipChars = 50000

// Clipper fetches a web page and converts it to markdown for storage as
// a note.
type Clipper struct {
	client *http.Client
}

// NewClipper creates a Clipper with a bounded request timeout.
func NewClipper() *Clipper {
	return &Clipper{
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

// Fetch downloads the page at rawURL and returns a note title and its
// content as markdown. The title comes from the first markdown heading,
// falling back to the URL host.
func (c *Clipper) Fetch(ctx context.Context, rawURL string) (title, content string, err error) {
	parsed, err := url.Parse(rawURL)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return "", "", fmt.Errorf("invalid url: %s", rawURL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", "Taskwing/1.0")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", "", fmt.Errorf("fetch URL: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", "", fmt.Errorf("HTTP error: status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", "", fmt.Errorf("read body: %w", err)
	}

	md, err := htmltomarkdown.ConvertString(string(body))
	if err != nil {
		return "", "", fmt.Errorf("convert to markdown: %w", err)
	}

	if len(md) > maxClipChars {
		md = md[:maxClipChars] + "\n\n[Content truncated]"
	}

	return clipTitle(md, parsed.Host), md, nil
}

func clipTitle(markdown, fallback string) string {
	for _, line := range strings.Split(markdown, "\n") {
		line = strings.TrimSpace(line)
		if after, ok := strings.CutPrefix(line, "#"); ok {
			if t := strings.TrimSpace(strings.TrimLeft(after, "#")); t != "" {
				return t
			}
		}
	}
	return fallback
}
