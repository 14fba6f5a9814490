// Package flow implements HTML → flowable lowering (C3) and the flowable
// layout engine (C4): the wrap/split/draw contract over block, inline,
// flex, grid, table, positioned, and transformed content.
package flow

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/dociq/pagepdf/css"
)

// DOMNode wraps an *html.Node so the cascade (css.Element) can match
// selectors against it without the css package importing flow (§9 "no
// back-references" — containing-block context is parameter-passed, not
// held by pointer cycles between css and flow).
type DOMNode struct {
	N      *html.Node
	parent *DOMNode
	kids   []*DOMNode
}

// WrapDOM builds a tree of DOMNode wrappers mirroring the *html.Node tree,
// restricted to element and text nodes (comments/doctypes are dropped).
func WrapDOM(n *html.Node) *DOMNode {
	return wrapDOM(n, nil)
}

func wrapDOM(n *html.Node, parent *DOMNode) *DOMNode {
	w := &DOMNode{N: n, parent: parent}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode && c.Type != html.TextNode {
			continue
		}
		w.kids = append(w.kids, wrapDOM(c, w))
	}
	return w
}

func (d *DOMNode) TagName() string {
	if d.N.Type == html.ElementNode {
		return d.N.Data
	}
	return ""
}

func (d *DOMNode) ElementID() string {
	v, _ := d.Attr("id")
	return v
}

func (d *DOMNode) ClassList() []string {
	v, ok := d.Attr("class")
	if !ok {
		return nil
	}
	return strings.Fields(v)
}

func (d *DOMNode) Attr(name string) (string, bool) {
	for _, a := range d.N.Attr {
		if a.Key == name {
			return a.Val, true
		}
	}
	return "", false
}

func (d *DOMNode) Parent() css.Element {
	if d.parent == nil {
		return nil
	}
	return d.parent
}

func (d *DOMNode) PrevSiblingElement() css.Element {
	if d.parent == nil {
		return nil
	}
	var prev *DOMNode
	for _, sib := range d.parent.kids {
		if sib == d {
			break
		}
		if sib.N.Type == html.ElementNode {
			prev = sib
		}
	}
	if prev == nil {
		return nil
	}
	return prev
}

func (d *DOMNode) ChildIndex() int {
	if d.parent == nil {
		return 1
	}
	idx := 0
	for _, sib := range d.parent.kids {
		if sib.N.Type != html.ElementNode {
			continue
		}
		idx++
		if sib == d {
			return idx
		}
	}
	return idx
}

func (d *DOMNode) SiblingCount() int {
	if d.parent == nil {
		return 1
	}
	n := 0
	for _, sib := range d.parent.kids {
		if sib.N.Type == html.ElementNode {
			n++
		}
	}
	return n
}

func (d *DOMNode) IsRootElement() bool {
	return d.N.DataAtom == atom.Html || d.parent == nil
}

func (d *DOMNode) HasElementChildren() bool {
	for _, k := range d.kids {
		if k.N.Type == html.ElementNode {
			return true
		}
		if k.N.Type == html.TextNode && strings.TrimSpace(k.N.Data) != "" {
			return true
		}
	}
	return false
}

// TextContent returns direct text content (no descent into children),
// used for pseudo-content normalization (§4.2): grapheme clusters are
// retained verbatim and runs are never re-ordered.
func (d *DOMNode) TextContent() string {
	if d.N.Type == html.TextNode {
		return d.N.Data
	}
	var b strings.Builder
	for _, k := range d.kids {
		if k.N.Type == html.TextNode {
			b.WriteString(k.N.Data)
		}
	}
	return b.String()
}
