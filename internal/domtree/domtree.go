// Package domtree defines the tree-query capability the extraction engine
// runs against. Two backends exist: cdpdom drives a live Chrome tab over the
// DevTools protocol, memdom works on parsed static HTML. Keeping the engine
// behind this interface makes resolver and locator logic deterministic under
// test and usable on saved snapshots.
package domtree

import "context"

// Rect is an element's bounding box in viewport coordinates.
type Rect struct {
	Top    float64
	Left   float64
	Width  float64
	Height float64
}

// Bottom returns the bottom edge of the box.
func (r Rect) Bottom() float64 { return r.Top + r.Height }

// VCenter returns the vertical center of the box.
func (r Rect) VCenter() float64 { return r.Top + r.Height/2 }

// Node is one element in the tree. Lookup methods return nil when nothing
// matches; attribute and text reads return "" when unavailable. Backends
// swallow transient protocol errors into these zero values because the live
// DOM mutates underneath us and missing data is an expected outcome.
type Node interface {
	// ID is a stable identity for the underlying element, usable for
	// de-duplication across repeated queries.
	ID() int64
	Tag() string
	Attr(name string) string
	Text() string
	Query(selector string) Node
	QueryAll(selector string) []Node
	// Closest walks from the node itself up through its ancestors and
	// returns the first that matches.
	Closest(selector string) Node
	Matches(selector string) bool
	FirstElementChild() Node
	ChildElementCount() int
	Bounds() (Rect, bool)
	// Connected reports whether the node is still attached to its document.
	Connected() bool
	Click(ctx context.Context) error
	OuterHTML() string
}

// Document is the page-level view: document-wide queries plus the geometry
// the post-root resolver needs.
type Document interface {
	URL() string
	Viewport() (width, height float64)
	Query(selector string) Node
	QueryAll(selector string) []Node
	ElementFromPoint(x, y float64) Node
}
