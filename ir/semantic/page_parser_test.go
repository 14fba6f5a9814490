package semantic

import (
	"testing"

	"github.com/dociq/pagepdf/ir/raw"
)

func TestParsePagesInheritsMediaBox(t *testing.T) {
	// Root -> Pages (MediaBox inherited) -> [Page1 (no MediaBox), Page2 (overrides MediaBox)]
	page1 := &raw.DictObj{
		KV: map[string]raw.Object{
			"Type": raw.NameObj{Val: "Page"},
		},
	}
	page2 := &raw.DictObj{
		KV: map[string]raw.Object{
			"Type": raw.NameObj{Val: "Page"},
			"MediaBox": &raw.ArrayObj{
				Items: []raw.Object{
					raw.NumberObj{I: 0, IsInt: true},
					raw.NumberObj{I: 0, IsInt: true},
					raw.NumberObj{I: 200, IsInt: true},
					raw.NumberObj{I: 300, IsInt: true},
				},
			},
		},
	}

	pages := &raw.DictObj{
		KV: map[string]raw.Object{
			"Type": raw.NameObj{Val: "Pages"},
			"MediaBox": &raw.ArrayObj{
				Items: []raw.Object{
					raw.NumberObj{I: 0, IsInt: true},
					raw.NumberObj{I: 0, IsInt: true},
					raw.NumberObj{I: 612, IsInt: true},
					raw.NumberObj{I: 792, IsInt: true},
				},
			},
			"Kids":  &raw.ArrayObj{Items: []raw.Object{page1, page2}},
			"Count": raw.NumberObj{I: 2, IsInt: true},
		},
	}

	resolver := &mockResolver{}

	parsedPages, err := parsePages(pages, resolver, inheritedPageProps{})
	if err != nil {
		t.Fatalf("parsePages failed: %v", err)
	}
	if len(parsedPages) != 2 {
		t.Fatalf("expected 2 pages, got %d", len(parsedPages))
	}

	if got := parsedPages[0].MediaBox; got != (Rectangle{0, 0, 612, 792}) {
		t.Errorf("page 1 expected inherited MediaBox, got %+v", got)
	}
	if got := parsedPages[1].MediaBox; got != (Rectangle{0, 0, 200, 300}) {
		t.Errorf("page 2 expected overridden MediaBox, got %+v", got)
	}
}

type mockResolver struct{}

func (r *mockResolver) Resolve(ref raw.ObjectRef) (raw.Object, error) {
	return nil, nil
}
