// Package extractor recovers structured posts from inconsistent listing
// markup. An ordered cascade of independent strategies scans the same page;
// the first strategy to claim a title wins, and a session-level seen-set
// keeps repeat extractions from double-counting posts.
package extractor

import (
	"log/slog"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/wyhuang/guba-signal/internal/common"
	"github.com/wyhuang/guba-signal/models"
)

// Extractor runs the strategy cascade for one crawl session. Not safe for
// concurrent use; one session owns one Extractor.
type Extractor struct {
	strategies []Strategy
	seen       map[string]struct{}
	logger     *slog.Logger
}

// New builds the cascade in priority order: most structurally specific first.
func New(baseURL, code string, logger *slog.Logger) *Extractor {
	s := site{baseURL: baseURL, code: code, now: time.Now}
	return &Extractor{
		strategies: []Strategy{
			articleListStrategy{s},
			articleNodeStrategy{s},
			linkPatternStrategy{s},
			titleBlockStrategy{s},
			titleClassStrategy{s},
			listItemStrategy{s},
		},
		seen:   make(map[string]struct{}),
		logger: logger,
	}
}

// ExtractPage runs the cascade over one page's markup and returns the
// deduplicated post set, in discovery order. Unparseable markup degrades to
// an empty result, never an error.
func (e *Extractor) ExtractPage(html string, page int) []models.Post {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		e.logger.Warn("unparseable markup, skipping page", "page", page, "error", err)
		return nil
	}

	var accepted []models.Post
	claimed := make(map[string]struct{})

	for _, strategy := range e.strategies {
		added := 0
		for _, candidate := range strategy.Extract(doc, page) {
			key := common.NormalizeTitle(candidate.Title)
			if key == "" {
				continue
			}
			if _, ok := claimed[key]; ok {
				continue
			}
			if _, ok := e.seen[key]; ok {
				continue
			}
			claimed[key] = struct{}{}
			accepted = append(accepted, candidate)
			added++
		}
		if added > 0 {
			e.logger.Debug("strategy contributed posts",
				"strategy", strategy.Name(), "page", page, "count", added)
		}
	}

	for key := range claimed {
		e.seen[key] = struct{}{}
	}

	e.logger.Info("page extracted", "page", page, "posts", len(accepted))
	return accepted
}

// SeenCount returns how many distinct titles the session has accepted.
func (e *Extractor) SeenCount() int {
	return len(e.seen)
}
