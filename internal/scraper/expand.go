package scraper

import (
	"context"
	"regexp"
	"strings"

	"linkscrape/internal/domtree"
	"linkscrape/internal/normalize"
	"linkscrape/internal/poll"
)

// ensureExpanded triggers the page's own expansion affordances before
// extraction: first truncated post bodies, then the comment thread. Both
// phases are best-effort and bounded; on timeout extraction proceeds with
// whatever DOM state exists.
func (s *Scraper) ensureExpanded(ctx context.Context, root domtree.Node) {
	s.expandPostContent(ctx, root)
	s.expandComments(ctx, root)
}

// expandPostContent clicks every unexpanded "see more" control and waits
// for the control to detach or flip aria-expanded.
func (s *Scraper) expandPostContent(ctx context.Context, root domtree.Node) {
	for _, btn := range root.QueryAll(seeMoreSelector) {
		if btn.Attr("aria-expanded") == "true" {
			continue
		}

		s.log.Printf("expanding post body via %q", expanderLabel(btn))
		if err := btn.Click(ctx); err != nil {
			s.log.Printf("see-more click failed: %v", err)
			continue
		}

		poll.WaitFor(ctx, s.clock, func() bool {
			return !btn.Connected() || btn.Attr("aria-expanded") == "true"
		}, s.timing.SeeMoreWait, s.timing.PollInterval)
	}
}

// expandComments runs bounded rounds of comment-thread expansion. Each
// round re-queries controls fresh from the root, because a click can
// re-render the thread and invalidate earlier elements; visited controls
// are tracked by node identity. Clicks are serialized with a fixed delay
// to avoid racing the page's own update cycle.
func (s *Scraper) expandComments(ctx context.Context, root domtree.Node) {
	seen := make(map[int64]bool)

	for round := 0; round < s.timing.MaxRounds; round++ {
		buttons := s.commentExpanders(root, seen)
		if len(buttons) == 0 {
			break
		}

		s.log.Printf("comment expanders found: %d (round %d)", len(buttons), round+1)
		for _, btn := range buttons {
			seen[btn.ID()] = true
			if btn.Attr("aria-expanded") == "true" {
				continue
			}

			s.log.Printf("clicking comment expander %q", expanderLabel(btn))
			if err := btn.Click(ctx); err != nil {
				s.log.Printf("comment expander click failed: %v", err)
			}
			if err := s.clock.Sleep(ctx, s.timing.ClickDelay); err != nil {
				return
			}
		}
	}

	loaded := poll.WaitFor(ctx, s.clock, func() bool {
		return len(root.QueryAll(commentNodeSelector)) > 0
	}, s.timing.CommentWait, s.timing.PollInterval)

	if !loaded {
		s.log.Printf("comments did not render in time after clicking expanders")
	}
}

// commentExpanders returns unvisited controls within root that classify as
// comment-expansion controls.
func (s *Scraper) commentExpanders(root domtree.Node, seen map[int64]bool) []domtree.Node {
	var out []domtree.Node
	for _, btn := range root.QueryAll(commentExpanderSelector) {
		if seen[btn.ID()] {
			continue
		}
		if !isCommentExpander(btn) {
			continue
		}
		out = append(out, btn)
	}
	return out
}

var moreRepliesExpr = regexp.MustCompile(`(?:see|view) (?:more|previous) replies`)

// isCommentExpander classifies a control: its accessible label or text must
// carry a comment-related keyword, and it must not be a reaction control, a
// bare reply action, or nested in a reaction icon.
func isCommentExpander(btn domtree.Node) bool {
	label := btn.Attr("aria-label")
	if label == "" {
		label = btn.Text()
	}
	text := strings.ToLower(normalize.CleanText(label))

	hasKeyword := strings.Contains(text, "comment") ||
		moreRepliesExpr.MatchString(text) ||
		strings.Contains(text, "load more replies")

	isReaction := strings.HasPrefix(text, "react") ||
		strings.HasPrefix(text, "unreact") ||
		strings.HasPrefix(text, "like to") ||
		strings.Contains(text, "react like")

	if !hasKeyword || isReaction {
		return false
	}

	isPlainReply := text == "reply" ||
		(strings.HasPrefix(text, "reply") &&
			!strings.Contains(text, "view") &&
			!strings.Contains(text, "see") &&
			!strings.Contains(text, "load"))
	if isPlainReply {
		return false
	}

	if btn.Closest(reactionAncestorSelector) != nil ||
		btn.Query(reactionIconSelector) != nil ||
		strings.Contains(text, "reaction") {
		return false
	}

	return true
}

func expanderLabel(btn domtree.Node) string {
	if label := btn.Attr("aria-label"); label != "" {
		return label
	}
	return normalize.CleanText(btn.Text())
}
