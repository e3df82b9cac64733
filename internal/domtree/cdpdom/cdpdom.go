// Package cdpdom is a domtree backend over a live Chrome tab, using the
// DevTools protocol via chromedp. Nodes are identified by backend node IDs,
// which stay stable while an element remains in the DOM; lookups that fail
// because the page re-rendered degrade to zero values rather than errors.
package cdpdom

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/dom"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"

	"linkscrape/internal/domtree"
)

// Document wraps a chromedp tab context.
type Document struct {
	ctx  context.Context
	logf func(format string, args ...any)
}

// Option configures a Document.
type Option func(*Document)

// WithLogf routes backend errors to a logger instead of dropping them.
func WithLogf(logf func(format string, args ...any)) Option {
	return func(d *Document) { d.logf = logf }
}

// NewDocument builds a Document over an existing chromedp context.
func NewDocument(ctx context.Context, opts ...Option) *Document {
	d := &Document{ctx: ctx, logf: func(string, ...any) {}}
	for _, o := range opts {
		o(d)
	}
	return d
}

func (d *Document) URL() string {
	var u string
	if err := chromedp.Run(d.ctx, chromedp.Location(&u)); err != nil {
		d.logf("cdpdom: location: %v", err)
		return ""
	}
	return u
}

func (d *Document) Viewport() (float64, float64) {
	var w, h float64
	err := chromedp.Run(d.ctx,
		chromedp.Evaluate(`window.innerWidth`, &w),
		chromedp.Evaluate(`window.innerHeight`, &h),
	)
	if err != nil {
		d.logf("cdpdom: viewport: %v", err)
		return 0, 0
	}
	return w, h
}

func (d *Document) Query(selector string) domtree.Node {
	nodes := d.queryAll(selector, 1)
	if len(nodes) == 0 {
		return nil
	}
	return nodes[0]
}

func (d *Document) QueryAll(selector string) []domtree.Node {
	return d.queryAll(selector, 0)
}

func (d *Document) queryAll(selector string, limit int) []domtree.Node {
	var out []domtree.Node
	err := chromedp.Run(d.ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		root, err := dom.GetDocument().Do(ctx)
		if err != nil {
			return err
		}
		ids, err := dom.QuerySelectorAll(root.NodeID, selector).Do(ctx)
		if err != nil {
			return err
		}
		for _, id := range ids {
			if limit > 0 && len(out) >= limit {
				break
			}
			if n := d.fromNodeID(ctx, id); n != nil {
				out = append(out, n)
			}
		}
		return nil
	}))
	if err != nil {
		d.logf("cdpdom: query %q: %v", selector, err)
		return nil
	}
	return out
}

// ElementFromPoint resolves the topmost element at viewport coordinates.
func (d *Document) ElementFromPoint(x, y float64) domtree.Node {
	var node domtree.Node
	err := chromedp.Run(d.ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		expr := fmt.Sprintf(`document.elementFromPoint(%g, %g)`, x, y)
		obj, exc, err := runtime.Evaluate(expr).Do(ctx)
		if err != nil {
			return err
		}
		if exc != nil {
			return fmt.Errorf("js exception: %s", exc.Text)
		}
		if res := d.fromRemoteObject(ctx, obj); res != nil {
			node = res
		}
		return nil
	}))
	if err != nil {
		d.logf("cdpdom: elementFromPoint: %v", err)
		return nil
	}
	return node
}

// fromNodeID resolves a frontend node ID to a Node keyed by its stable
// backend ID.
func (d *Document) fromNodeID(ctx context.Context, id cdp.NodeID) *Node {
	if id == 0 {
		return nil
	}
	desc, err := dom.DescribeNode().WithNodeID(id).Do(ctx)
	if err != nil || desc == nil {
		return nil
	}
	return &Node{d: d, backendID: desc.BackendNodeID}
}

// fromRemoteObject converts a JS element handle into a Node, or nil for
// null/undefined results.
func (d *Document) fromRemoteObject(ctx context.Context, obj *runtime.RemoteObject) *Node {
	if obj == nil || obj.ObjectID == "" || obj.Subtype == "null" {
		return nil
	}
	id, err := dom.RequestNode(obj.ObjectID).Do(ctx)
	if err != nil {
		return nil
	}
	return d.fromNodeID(ctx, id)
}

// Node is one element in a live tab.
type Node struct {
	d         *Document
	backendID cdp.BackendNodeID
}

func (n *Node) ID() int64 { return int64(n.backendID) }

func (n *Node) Tag() string {
	var tag string
	err := chromedp.Run(n.d.ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		desc, err := dom.DescribeNode().WithBackendNodeID(n.backendID).Do(ctx)
		if err != nil {
			return err
		}
		tag = strings.ToLower(desc.NodeName)
		return nil
	}))
	if err != nil {
		n.d.logf("cdpdom: tag: %v", err)
		return ""
	}
	return tag
}

func (n *Node) Attr(name string) string {
	var val string
	err := chromedp.Run(n.d.ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		desc, err := dom.DescribeNode().WithBackendNodeID(n.backendID).Do(ctx)
		if err != nil {
			return err
		}
		for i := 0; i+1 < len(desc.Attributes); i += 2 {
			if desc.Attributes[i] == name {
				val = desc.Attributes[i+1]
				return nil
			}
		}
		return nil
	}))
	if err != nil {
		n.d.logf("cdpdom: attr %s: %v", name, err)
		return ""
	}
	return val
}

func (n *Node) Text() string {
	var text string
	if err := n.callString(`function() { return this.innerText || this.textContent || "" }`, &text); err != nil {
		n.d.logf("cdpdom: text: %v", err)
		return ""
	}
	return text
}

func (n *Node) Query(selector string) domtree.Node {
	var node domtree.Node
	err := chromedp.Run(n.d.ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		id, err := n.nodeID(ctx)
		if err != nil {
			return err
		}
		found, err := dom.QuerySelector(id, selector).Do(ctx)
		if err != nil {
			return err
		}
		if res := n.d.fromNodeID(ctx, found); res != nil {
			node = res
		}
		return nil
	}))
	if err != nil {
		n.d.logf("cdpdom: node query %q: %v", selector, err)
		return nil
	}
	return node
}

func (n *Node) QueryAll(selector string) []domtree.Node {
	var out []domtree.Node
	err := chromedp.Run(n.d.ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		id, err := n.nodeID(ctx)
		if err != nil {
			return err
		}
		ids, err := dom.QuerySelectorAll(id, selector).Do(ctx)
		if err != nil {
			return err
		}
		for _, found := range ids {
			if res := n.d.fromNodeID(ctx, found); res != nil {
				out = append(out, res)
			}
		}
		return nil
	}))
	if err != nil {
		n.d.logf("cdpdom: node queryAll %q: %v", selector, err)
		return nil
	}
	return out
}

func (n *Node) Closest(selector string) domtree.Node {
	return n.callNode(fmt.Sprintf(`function() { return this.closest(%q) }`, selector))
}

func (n *Node) Matches(selector string) bool {
	var ok bool
	if err := n.callBool(fmt.Sprintf(`function() { return this.matches(%q) }`, selector), &ok); err != nil {
		n.d.logf("cdpdom: matches %q: %v", selector, err)
		return false
	}
	return ok
}

func (n *Node) FirstElementChild() domtree.Node {
	return n.callNode(`function() { return this.firstElementChild }`)
}

func (n *Node) ChildElementCount() int {
	var count float64
	if err := n.callJSON(`function() { return this.childElementCount }`, &count); err != nil {
		n.d.logf("cdpdom: childElementCount: %v", err)
		return 0
	}
	return int(count)
}

func (n *Node) Bounds() (domtree.Rect, bool) {
	var rect struct {
		Top    float64 `json:"top"`
		Left   float64 `json:"left"`
		Width  float64 `json:"width"`
		Height float64 `json:"height"`
	}
	decl := `function() {
		const r = this.getBoundingClientRect();
		return { top: r.top, left: r.left, width: r.width, height: r.height };
	}`
	if err := n.callJSON(decl, &rect); err != nil {
		n.d.logf("cdpdom: bounds: %v", err)
		return domtree.Rect{}, false
	}
	return domtree.Rect{Top: rect.Top, Left: rect.Left, Width: rect.Width, Height: rect.Height}, true
}

func (n *Node) Connected() bool {
	var ok bool
	if err := n.callBool(`function() { return this.isConnected }`, &ok); err != nil {
		return false
	}
	return ok
}

func (n *Node) Click(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}
	_, err := n.call(`function() { this.click() }`, true)
	return err
}

func (n *Node) OuterHTML() string {
	var out string
	err := chromedp.Run(n.d.ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		s, err := dom.GetOuterHTML().WithBackendNodeID(n.backendID).Do(ctx)
		if err != nil {
			return err
		}
		out = s
		return nil
	}))
	if err != nil {
		n.d.logf("cdpdom: outerHTML: %v", err)
		return ""
	}
	return out
}

// nodeID maps the stable backend ID back to a frontend node ID for DOM
// domain commands that require one.
func (n *Node) nodeID(ctx context.Context) (cdp.NodeID, error) {
	ids, err := dom.PushNodesByBackendIDsToFrontend([]cdp.BackendNodeID{n.backendID}).Do(ctx)
	if err != nil {
		return 0, err
	}
	if len(ids) == 0 || ids[0] == 0 {
		return 0, fmt.Errorf("node %d no longer in document", n.backendID)
	}
	return ids[0], nil
}

// call invokes a JS function with the element as `this`.
func (n *Node) call(decl string, byValue bool) (*runtime.RemoteObject, error) {
	var res *runtime.RemoteObject
	err := chromedp.Run(n.d.ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		obj, err := dom.ResolveNode().WithBackendNodeID(n.backendID).Do(ctx)
		if err != nil {
			return err
		}
		r, exc, err := runtime.CallFunctionOn(decl).
			WithObjectID(obj.ObjectID).
			WithReturnByValue(byValue).
			Do(ctx)
		if err != nil {
			return err
		}
		if exc != nil {
			return fmt.Errorf("js exception: %s", exc.Text)
		}
		res = r
		return nil
	}))
	return res, err
}

func (n *Node) callJSON(decl string, out any) error {
	res, err := n.call(decl, true)
	if err != nil {
		return err
	}
	if res == nil || res.Value == nil {
		return fmt.Errorf("no value")
	}
	return json.Unmarshal(res.Value, out)
}

func (n *Node) callString(decl string, out *string) error {
	return n.callJSON(decl, out)
}

func (n *Node) callBool(decl string, out *bool) error {
	return n.callJSON(decl, out)
}

// callNode invokes JS expected to return an element or null.
func (n *Node) callNode(decl string) domtree.Node {
	var node domtree.Node
	err := chromedp.Run(n.d.ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		obj, err := dom.ResolveNode().WithBackendNodeID(n.backendID).Do(ctx)
		if err != nil {
			return err
		}
		r, exc, err := runtime.CallFunctionOn(decl).
			WithObjectID(obj.ObjectID).
			Do(ctx)
		if err != nil {
			return err
		}
		if exc != nil {
			return fmt.Errorf("js exception: %s", exc.Text)
		}
		if res := n.d.fromRemoteObject(ctx, r); res != nil {
			node = res
		}
		return nil
	}))
	if err != nil {
		n.d.logf("cdpdom: callNode: %v", err)
		return nil
	}
	return node
}
