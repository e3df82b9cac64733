// Package memdom is a domtree backend over parsed static HTML. Geometry is
// supplied via data-box attributes or SetBounds, and click behavior via
// registered handlers, so expansion flows can be exercised without a
// browser.
package memdom

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"

	"linkscrape/internal/domtree"
)

var (
	selMu    sync.Mutex
	selCache = map[string]cascadia.Selector{}
)

// compile parses and caches a selector. Invalid selectors match nothing.
func compile(s string) cascadia.Selector {
	selMu.Lock()
	defer selMu.Unlock()
	if sel, ok := selCache[s]; ok {
		return sel
	}
	sel, err := cascadia.Compile(s)
	if err != nil {
		selCache[s] = nil
		return nil
	}
	selCache[s] = sel
	return sel
}

// Document is an in-memory page.
type Document struct {
	mu     sync.Mutex
	root   *html.Node
	url    string
	vpW    float64
	vpH    float64
	ids    map[*html.Node]int64
	nextID int64
	bounds map[*html.Node]domtree.Rect
	clicks map[*html.Node]func()
}

// Parse builds a Document from an HTML stream.
func Parse(r io.Reader) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return &Document{
		root:   root,
		vpW:    1920,
		vpH:    1080,
		ids:    make(map[*html.Node]int64),
		bounds: make(map[*html.Node]domtree.Rect),
		clicks: make(map[*html.Node]func()),
	}, nil
}

// ParseString builds a Document from an HTML string.
func ParseString(s string) (*Document, error) {
	return Parse(strings.NewReader(s))
}

// ParseFile builds a Document from a saved page snapshot.
func ParseFile(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Parse(f)
}

// SetURL sets the value returned by URL.
func (d *Document) SetURL(u string) { d.url = u }

// SetViewport sets the viewport dimensions.
func (d *Document) SetViewport(w, h float64) {
	d.vpW = w
	d.vpH = h
}

// SetBounds assigns a bounding box to a node, overriding any data-box
// attribute.
func (d *Document) SetBounds(n *Node, r domtree.Rect) {
	d.mu.Lock()
	d.bounds[n.n] = r
	d.mu.Unlock()
}

// OnClick registers a handler invoked when the node is clicked. Without a
// handler, clicks are inert.
func (d *Document) OnClick(n *Node, fn func()) {
	d.mu.Lock()
	d.clicks[n.n] = fn
	d.mu.Unlock()
}

func (d *Document) URL() string { return d.url }

func (d *Document) Viewport() (float64, float64) { return d.vpW, d.vpH }

func (d *Document) Query(selector string) domtree.Node {
	if found := queryAll(d.root, selector, 1); len(found) > 0 {
		return d.wrap(found[0])
	}
	return nil
}

func (d *Document) QueryAll(selector string) []domtree.Node {
	return d.wrapAll(queryAll(d.root, selector, 0))
}

// ElementFromPoint returns the deepest element whose box contains the
// point; ties resolve to the first in document order.
func (d *Document) ElementFromPoint(x, y float64) domtree.Node {
	var best *html.Node
	bestDepth := -1

	var walk func(n *html.Node, depth int)
	walk = func(n *html.Node, depth int) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.ElementNode {
				if r, ok := d.boundsOf(c); ok &&
					x >= r.Left && x < r.Left+r.Width &&
					y >= r.Top && y < r.Top+r.Height && depth > bestDepth {
					best = c
					bestDepth = depth
				}
				walk(c, depth+1)
			}
		}
	}
	walk(d.root, 0)

	if best == nil {
		return nil
	}
	return d.wrap(best)
}

func (d *Document) wrap(n *html.Node) *Node {
	return &Node{d: d, n: n}
}

func (d *Document) wrapAll(nodes []*html.Node) []domtree.Node {
	if len(nodes) == 0 {
		return nil
	}
	out := make([]domtree.Node, len(nodes))
	for i, n := range nodes {
		out[i] = d.wrap(n)
	}
	return out
}

func (d *Document) idOf(n *html.Node) int64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	if id, ok := d.ids[n]; ok {
		return id
	}
	d.nextID++
	d.ids[n] = d.nextID
	return d.nextID
}

func (d *Document) boundsOf(n *html.Node) (domtree.Rect, bool) {
	d.mu.Lock()
	r, ok := d.bounds[n]
	d.mu.Unlock()
	if ok {
		return r, true
	}
	return parseBoxAttr(n)
}

// parseBoxAttr reads a data-box="top,left,width,height" attribute.
func parseBoxAttr(n *html.Node) (domtree.Rect, bool) {
	for _, a := range n.Attr {
		if a.Key != "data-box" {
			continue
		}
		parts := strings.Split(a.Val, ",")
		if len(parts) != 4 {
			return domtree.Rect{}, false
		}
		vals := make([]float64, 4)
		for i, p := range parts {
			v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
			if err != nil {
				return domtree.Rect{}, false
			}
			vals[i] = v
		}
		return domtree.Rect{Top: vals[0], Left: vals[1], Width: vals[2], Height: vals[3]}, true
	}
	return domtree.Rect{}, false
}

// queryAll collects descendants of root matching selector in document
// order, excluding root itself. limit of 0 means unbounded.
func queryAll(root *html.Node, selector string, limit int) []*html.Node {
	sel := compile(selector)
	if sel == nil {
		return nil
	}

	var out []*html.Node
	var walk func(n *html.Node) bool
	walk = func(n *html.Node) bool {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.ElementNode && sel.Match(c) {
				out = append(out, c)
				if limit > 0 && len(out) >= limit {
					return true
				}
			}
			if walk(c) {
				return true
			}
		}
		return false
	}
	walk(root)
	return out
}

// Node is one element in a memdom Document.
type Node struct {
	d *Document
	n *html.Node
}

func (n *Node) ID() int64 { return n.d.idOf(n.n) }

func (n *Node) Tag() string { return n.n.Data }

func (n *Node) Attr(name string) string {
	for _, a := range n.n.Attr {
		if a.Key == name {
			return a.Val
		}
	}
	return ""
}

// Text returns the concatenated text content, skipping script and style.
func (n *Node) Text() string {
	var sb strings.Builder
	collectText(n.n, &sb)
	return sb.String()
}

func collectText(n *html.Node, sb *strings.Builder) {
	if n.Type == html.TextNode {
		sb.WriteString(n.Data)
		return
	}
	if n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style") {
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(c, sb)
	}
}

func (n *Node) Query(selector string) domtree.Node {
	if found := queryAll(n.n, selector, 1); len(found) > 0 {
		return n.d.wrap(found[0])
	}
	return nil
}

func (n *Node) QueryAll(selector string) []domtree.Node {
	return n.d.wrapAll(queryAll(n.n, selector, 0))
}

func (n *Node) Closest(selector string) domtree.Node {
	sel := compile(selector)
	if sel == nil {
		return nil
	}
	for p := n.n; p != nil; p = p.Parent {
		if p.Type == html.ElementNode && sel.Match(p) {
			return n.d.wrap(p)
		}
	}
	return nil
}

func (n *Node) Matches(selector string) bool {
	sel := compile(selector)
	return sel != nil && n.n.Type == html.ElementNode && sel.Match(n.n)
}

func (n *Node) FirstElementChild() domtree.Node {
	for c := n.n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			return n.d.wrap(c)
		}
	}
	return nil
}

func (n *Node) ChildElementCount() int {
	count := 0
	for c := n.n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			count++
		}
	}
	return count
}

func (n *Node) Bounds() (domtree.Rect, bool) {
	return n.d.boundsOf(n.n)
}

func (n *Node) Connected() bool {
	for p := n.n; p != nil; p = p.Parent {
		if p == n.d.root {
			return true
		}
	}
	return false
}

func (n *Node) Click(_ context.Context) error {
	n.d.mu.Lock()
	fn := n.d.clicks[n.n]
	n.d.mu.Unlock()
	if fn != nil {
		fn()
	}
	return nil
}

func (n *Node) OuterHTML() string {
	var buf bytes.Buffer
	if err := html.Render(&buf, n.n); err != nil {
		return ""
	}
	return buf.String()
}

// SetAttr sets or replaces an attribute, for simulating page mutations.
func (n *Node) SetAttr(name, value string) {
	for i := range n.n.Attr {
		if n.n.Attr[i].Key == name {
			n.n.Attr[i].Val = value
			return
		}
	}
	n.n.Attr = append(n.n.Attr, html.Attribute{Key: name, Val: value})
}

// AppendHTML parses fragment in the context of this node and appends the
// resulting children, for simulating content the page renders after a
// click.
func (n *Node) AppendHTML(fragment string) error {
	nodes, err := html.ParseFragment(strings.NewReader(fragment), n.n)
	if err != nil {
		return fmt.Errorf("parse fragment: %w", err)
	}
	for _, c := range nodes {
		n.n.AppendChild(c)
	}
	return nil
}

// Detach removes the node from its parent.
func (n *Node) Detach() {
	if n.n.Parent != nil {
		n.n.Parent.RemoveChild(n.n)
	}
}
