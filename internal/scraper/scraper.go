// Package scraper extracts a single post and its comment thread from a
// rendered page. The pipeline is linear: resolve the active post root,
// trigger the page's expansion affordances, then read author, content,
// timestamps and comments through ordered selector fallbacks.
package scraper

import (
	"context"
	"fmt"
	"strings"
	"time"

	"linkscrape/internal/debuglog"
	"linkscrape/internal/domtree"
	"linkscrape/internal/normalize"
	"linkscrape/internal/poll"
	"linkscrape/internal/types"
)

// Timing bounds the expansion waits. All waits are best-effort; extraction
// proceeds on timeout.
type Timing struct {
	SeeMoreWait  time.Duration // per see-more control, detach/flip poll
	ClickDelay   time.Duration // between serialized comment-expander clicks
	CommentWait  time.Duration // final wait for any comment node to render
	PollInterval time.Duration
	MaxRounds    int // comment-expansion rounds
}

// DefaultTiming mirrors the delays the page's own update cycle tolerates.
func DefaultTiming() Timing {
	return Timing{
		SeeMoreWait:  1200 * time.Millisecond,
		ClickDelay:   800 * time.Millisecond,
		CommentWait:  4 * time.Second,
		PollInterval: 50 * time.Millisecond,
		MaxRounds:    8,
	}
}

// Scraper runs the extraction pipeline against a domtree backend.
type Scraper struct {
	log    *debuglog.Logger
	clock  poll.Clock
	timing Timing
}

// New creates a Scraper.
func New(log *debuglog.Logger, clock poll.Clock, timing Timing) *Scraper {
	return &Scraper{log: log, clock: clock, timing: timing}
}

// Scrape extracts the post the user is viewing. Finding no post root is a
// normal outcome and yields an empty result; any panic during extraction is
// caught here and surfaced as the error, since missing or malformed DOM is
// expected territory and must not take the caller down.
func (s *Scraper) Scrape(ctx context.Context, doc domtree.Document) (result *types.ScrapeResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = fmt.Errorf("extraction failed: %v", r)
		}
	}()

	root := s.findActivePostRoot(doc)
	if root == nil {
		s.log.Printf("no post root detected near viewport")
		return &types.ScrapeResult{
			URL:       doc.URL(),
			ScrapedAt: s.clock.Now(),
			Comments:  []types.Comment{},
		}, nil
	}

	s.log.Printf("found post root %s", rootLabel(root))
	s.ensureExpanded(ctx, root)

	post := s.scrapeMainPost(root)
	comments := s.scrapeComments(root)

	return &types.ScrapeResult{
		URL:           doc.URL(),
		PostType:      detectPostType(root),
		ScrapedAt:     s.clock.Now(),
		TotalComments: len(comments),
		Post:          post,
		Comments:      comments,
		DebugHTML:     serializeForDebug(root),
	}, nil
}

// detectPostType classifies the post by its header attribution text.
func detectPostType(root domtree.Node) string {
	header := root.Query(headerTextSelector)
	if header == nil {
		return types.PostTypeOriginal
	}

	text := strings.ToLower(normalize.CleanText(header.Text()))
	if text == "" {
		return types.PostTypeOriginal
	}

	for _, kw := range repostKeywords {
		if strings.Contains(text, kw) {
			return types.PostTypeRepost
		}
	}
	return types.PostTypeOriginal
}

func rootLabel(root domtree.Node) string {
	if urn := root.Attr("data-urn"); urn != "" {
		return urn
	}
	if id := root.Attr("data-id"); id != "" {
		return id
	}
	return root.Tag()
}
