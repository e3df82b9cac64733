package scraper

import (
	"bytes"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"linkscrape/internal/domtree"
)

// maxDebugChildren caps the snapshot: subtrees wider than this are omitted
// from the result entirely.
const maxDebugChildren = 500

// serializeForDebug captures the post subtree's markup for debugging, with
// script and style content stripped.
func serializeForDebug(root domtree.Node) string {
	if root.ChildElementCount() > maxDebugChildren {
		return ""
	}

	raw := root.OuterHTML()
	if raw == "" {
		return ""
	}
	return stripScriptStyle(raw)
}

func stripScriptStyle(markup string) string {
	ctx := &html.Node{Type: html.ElementNode, Data: "div", DataAtom: atom.Div}
	nodes, err := html.ParseFragment(strings.NewReader(markup), ctx)
	if err != nil {
		return markup
	}

	var buf bytes.Buffer
	for _, n := range nodes {
		removeScriptStyle(n)
		if err := html.Render(&buf, n); err != nil {
			return markup
		}
	}
	return buf.String()
}

func removeScriptStyle(n *html.Node) {
	var doomed []*html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && (c.Data == "script" || c.Data == "style") {
			doomed = append(doomed, c)
			continue
		}
		removeScriptStyle(c)
	}
	for _, c := range doomed {
		n.RemoveChild(c)
	}
}
