package scraper

import (
	"linkscrape/internal/domtree"
	"linkscrape/internal/normalize"
	"linkscrape/internal/types"
)

// queryFirst evaluates an ordered fallback list, first match wins.
func queryFirst(n domtree.Node, selectors []string) domtree.Node {
	for _, sel := range selectors {
		if found := n.Query(sel); found != nil {
			return found
		}
	}
	return nil
}

// findAuthorElement prefers named sub-elements of the actor container over
// document-wide fallbacks.
func findAuthorElement(root domtree.Node) domtree.Node {
	if container := queryFirst(root, actorContainerSelectors); container != nil {
		if el := queryFirst(container, actorWithinContainerSelectors); el != nil {
			return el
		}
	}
	return queryFirst(root, actorFallbackSelectors)
}

// findContentElement locates the post body, skipping any candidate inside a
// comment subtree so a comment's text is never mistaken for the post body.
func findContentElement(root domtree.Node) domtree.Node {
	for _, sel := range postContentSelectors {
		if el := root.Query(sel); el != nil && !insideComment(el) {
			return el
		}
	}
	if first := root.FirstElementChild(); first != nil && !insideComment(first) {
		return first
	}
	return root
}

func insideComment(n domtree.Node) bool {
	return n.Closest(commentNodeSelector) != nil
}

// collectCommentNodes gathers every comment-structural match within root
// and resolves each to its nearest enclosing top-level comment article, so
// nested matches de-duplicate to one node per logical comment. Order is
// first-encounter document order.
func collectCommentNodes(root domtree.Node) []domtree.Node {
	seen := make(map[int64]bool)
	var out []domtree.Node

	for _, node := range root.QueryAll(commentNodeSelector) {
		source := node
		if article := node.Closest(commentArticleSelector); article != nil {
			source = article
		}
		if seen[source.ID()] {
			continue
		}
		seen[source.ID()] = true
		out = append(out, source)
	}
	return out
}

// extractAuthorName resolves the display name within an author element,
// stripping accessibility-label artifacts.
func extractAuthorName(authorEl domtree.Node) string {
	if authorEl == nil {
		return ""
	}

	nameEl := authorEl
	if el := queryFirst(authorEl, authorNameSelectors); el != nil {
		nameEl = el
	}

	text := normalize.CleanText(nameEl.Text())
	if text == "" {
		text = normalize.CleanText(authorEl.Attr("aria-label"))
	}
	return normalize.CleanName(text)
}

// resolveProfileURL returns the profile reference of the element's own or
// nearest ancestor profile link, verbatim.
func resolveProfileURL(el domtree.Node) string {
	if el == nil {
		return ""
	}

	anchor := el
	if el.Tag() != "a" {
		anchor = el.Closest(profileLinkSelector)
		if anchor == nil {
			return ""
		}
	}

	if href := anchor.Attr("href"); href != "" {
		return href
	}
	if urn := anchor.Attr("data-entity-urn"); urn != "" {
		return urn
	}
	return anchor.Attr("data-entity-hovercard-id")
}

// extractCommentAuthor resolves a comment's author name and profile URL,
// falling back to the avatar alt text when no name text is found.
func extractCommentAuthor(node domtree.Node) (name, profile string) {
	authorEl := queryFirst(node, commentAuthorSelectors)

	nameEl := authorEl
	if authorEl != nil {
		if el := queryFirst(authorEl, commentNameSelectors); el != nil {
			nameEl = el
		}
	}

	if nameEl != nil {
		name = normalize.CleanText(nameEl.Text())
	}
	if name == "" && authorEl != nil {
		name = normalize.CleanText(authorEl.Attr("aria-label"))
	}
	name = normalize.CleanName(name)
	profile = resolveProfileURL(authorEl)

	if name == "" {
		if img := node.Query("img"); img != nil {
			name = normalize.CleanText(img.Attr("alt"))
		}
	}
	return name, profile
}

// extractTimestamp reads a timestamp from the first matching element: a
// machine-readable attribute first, then the visible text, and as a last
// resort the raw cleaned text so the field is not lost when only a
// human-relative string is present.
func (s *Scraper) extractTimestamp(node domtree.Node, selectors []string) string {
	timeEl := queryFirst(node, selectors)
	if timeEl == nil {
		return ""
	}

	now := s.clock.Now()

	var raw string
	for _, attr := range timestampAttrs {
		if v := timeEl.Attr(attr); v != "" {
			raw = v
			break
		}
	}

	if iso := normalize.Timestamp(raw, now); iso != "" {
		return iso
	}

	text := timeEl.Text()
	if iso := normalize.Timestamp(text, now); iso != "" {
		return iso
	}
	return normalize.CleanText(text)
}

// scrapeMainPost extracts the post record from the resolved root.
func (s *Scraper) scrapeMainPost(root domtree.Node) *types.Post {
	authorEl := findAuthorElement(root)
	contentEl := findContentElement(root)

	return &types.Post{
		Author:        nullable(extractAuthorName(authorEl)),
		AuthorProfile: nullable(resolveProfileURL(authorEl)),
		Text:          nullable(normalize.CleanText(contentEl.Text())),
		Timestamp:     nullable(s.extractTimestamp(root, postTimestampSelectors)),
	}
}

// scrapeComments extracts one record per logical comment in encounter
// order.
func (s *Scraper) scrapeComments(root domtree.Node) []types.Comment {
	nodes := collectCommentNodes(root)
	out := make([]types.Comment, 0, len(nodes))

	for _, node := range nodes {
		name, profile := extractCommentAuthor(node)

		textEl := queryFirst(node, commentTextSelectors)
		if textEl == nil {
			textEl = node
		}

		out = append(out, types.Comment{
			Author:        nullable(name),
			AuthorProfile: nullable(profile),
			Text:          nullable(normalize.CleanText(textEl.Text())),
			Timestamp:     nullable(s.extractTimestamp(node, commentTimestampSelectors)),
		})
	}

	if len(out) == 0 {
		s.log.Printf("no comments detected after expansion")
	} else {
		s.log.Printf("collected %d comments", len(out))
	}
	return out
}

// nullable maps "" to null for serialization.
func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
