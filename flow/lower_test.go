package flow

import (
	"strings"
	"testing"

	"golang.org/x/net/html"

	"github.com/dociq/pagepdf/css"
	"github.com/dociq/pagepdf/diagnostics"
	"github.com/dociq/pagepdf/numeric"
)

func parseFragment(t *testing.T, src string) *DOMNode {
	t.Helper()
	doc, err := html.Parse(strings.NewReader(src))
	if err != nil {
		t.Fatalf("parsing fragment: %v", err)
	}
	var body *html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if body != nil {
			return
		}
		if n.Type == html.ElementNode && n.Data == "body" {
			body = n
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
			if body != nil {
				return
			}
		}
	}
	walk(doc)
	return WrapDOM(body)
}

func TestLowerProducesContainerForBlockDiv(t *testing.T) {
	dom := parseFragment(t, `<div><p>hello</p></div>`)
	report := &diagnostics.Report{}
	sheet := css.Parse(`div{display:block} p{display:block}`, "print", report)
	lw := NewLowerer(sheet, DefaultMetrics{}, report)

	// The wrapped root is <body>; lower its first element child.
	var target *DOMNode
	for _, k := range dom.kids {
		if k.N.Type == html.ElementNode {
			target = k
			break
		}
	}
	if target == nil {
		t.Fatalf("expected a div child under body")
	}

	page := numeric.Size{W: numeric.FromPoints(500), H: numeric.FromPoints(700)}
	f := lw.Lower(target, page)
	if f == nil {
		t.Fatalf("expected a non-nil flowable for a block div")
	}
	cont, ok := f.(*Container)
	if !ok {
		t.Fatalf("expected *Container for display:block, got %T", f)
	}
	if len(cont.Children) != 1 {
		t.Fatalf("expected one child (the <p>), got %d", len(cont.Children))
	}
}

func TestLowerSkipsDisplayNone(t *testing.T) {
	dom := parseFragment(t, `<div><span class="hidden">gone</span></div>`)
	report := &diagnostics.Report{}
	sheet := css.Parse(`div{display:block} .hidden{display:none}`, "print", report)
	lw := NewLowerer(sheet, DefaultMetrics{}, report)

	var target *DOMNode
	for _, k := range dom.kids {
		if k.N.Type == html.ElementNode {
			target = k
			break
		}
	}
	page := numeric.Size{W: numeric.FromPoints(500), H: numeric.FromPoints(700)}
	f := lw.Lower(target, page)
	cont := f.(*Container)
	if len(cont.Children) != 0 {
		t.Fatalf("expected display:none child to be dropped, got %d children", len(cont.Children))
	}
}
