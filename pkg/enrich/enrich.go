// Package enrich pulls the main body text out of individual post pages so
// the classifier can see more than the title.
package enrich

import (
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/go-shiori/go-readability"
)

// DefaultExcerptBytes bounds how much body text travels into a prompt.
const DefaultExcerptBytes = 6000

// Fetcher retrieves one page's raw HTML. Satisfied by fetcher.Client.
type Fetcher interface {
	Fetch(rawURL string) (string, error)
}

type Enricher struct {
	fetcher Fetcher
	limit   int
	logger  *slog.Logger
}

func New(fetcher Fetcher, logger *slog.Logger) *Enricher {
	return &Enricher{fetcher: fetcher, limit: DefaultExcerptBytes, logger: logger}
}

// BodyExcerpt fetches the post page and distills its main text, truncated on
// a rune boundary. Failures are reported, not fatal; a post without a body is
// still classifiable by title.
func (e *Enricher) BodyExcerpt(link string) (string, error) {
	if link == "" {
		return "", fmt.Errorf("post has no link")
	}

	html, err := e.fetcher.Fetch(link)
	if err != nil {
		return "", fmt.Errorf("failed to fetch post page: %w", err)
	}

	parsedURL, err := url.Parse(link)
	if err != nil {
		return "", fmt.Errorf("failed to parse post link: %w", err)
	}

	parser := readability.NewParser()
	article, err := parser.Parse(strings.NewReader(html), parsedURL)
	if err != nil {
		return "", fmt.Errorf("failed to distill post page: %w", err)
	}

	text := strings.TrimSpace(article.TextContent)
	if text == "" {
		return "", fmt.Errorf("post page has no readable body")
	}

	excerpt := truncateRunes(text, e.limit)
	e.logger.Debug("distilled post body", "link", link, "bytes", len(excerpt))
	return excerpt, nil
}

// truncateRunes cuts text to at most limit bytes without splitting a rune.
func truncateRunes(text string, limit int) string {
	if len(text) <= limit {
		return text
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	return text[:cut]
}
