package scraper

import (
	"math"

	"linkscrape/internal/domtree"
)

// minVisibleHeight filters out collapsed or placeholder post shells when
// ranking candidates geometrically.
const minVisibleHeight = 60

// findActivePostRoot selects the single post the user is viewing among the
// post-like elements on the page. Priority order: modal content, the
// element under the viewport center, a comment's owning post, geometric
// ranking of visible candidates, then first-in-document as a last resort.
// Resolution is deterministic for a fixed DOM and viewport.
func (s *Scraper) findActivePostRoot(doc domtree.Document) domtree.Node {
	if modal := doc.Query(modalSelector); modal != nil {
		if post := modal.Query(postRootSelector); post != nil {
			s.log.Printf("detected modal dialog post")
			return post
		}
	}

	vw, vh := doc.Viewport()
	centerX, centerY := vw/2, vh/2

	if center := doc.ElementFromPoint(centerX, centerY); center != nil {
		if post := center.Closest(postRootSelector); post != nil {
			s.log.Printf("post selected via element under viewport center")
			return post
		}
		if comment := center.Closest(commentNodeSelector); comment != nil {
			if owner := comment.Closest(postRootSelector); owner != nil {
				s.log.Printf("viewport center lies within a comment; resolved to owning post")
				return owner
			}
		}
	}

	candidates := doc.QueryAll(postRootSelector)
	if len(candidates) == 0 {
		return nil
	}

	var containing, best domtree.Node
	bestDistance := math.Inf(1)

	for _, c := range candidates {
		r, ok := c.Bounds()
		if !ok || r.Height < minVisibleHeight || r.Bottom() <= 0 || r.Top >= vh {
			continue
		}

		if containing == nil && r.Top <= centerY && r.Bottom() >= centerY {
			containing = c
		}

		if d := math.Abs(r.VCenter() - centerY); d < bestDistance {
			bestDistance = d
			best = c
		}
	}

	if containing != nil {
		s.log.Printf("viewport center lies within candidate")
		return containing
	}
	if best != nil {
		s.log.Printf("closest candidate distance %.0f", bestDistance)
		return best
	}

	if fallback := doc.ElementFromPoint(centerX, centerY); fallback != nil {
		if post := fallback.Closest(postRootSelector); post != nil {
			s.log.Printf("falling back to element under center")
			return post
		}
		if comment := fallback.Closest(commentNodeSelector); comment != nil {
			if owner := comment.Closest(postRootSelector); owner != nil {
				return owner
			}
		}
	}

	return candidates[0]
}
