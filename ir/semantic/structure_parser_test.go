package semantic

import (
	"testing"

	"github.com/dociq/pagepdf/ir/raw"
)

func TestParseStructureTree_Kids(t *testing.T) {
	// Root -> Elem1 (Div) -> Elem2 (P)
	elem2 := &raw.DictObj{
		KV: map[string]raw.Object{
			"Type": raw.NameObj{Val: "StructElem"},
			"S":    raw.NameObj{Val: "P"},
			"ID":   raw.StringObj{Bytes: []byte("id2")},
		},
	}

	elem1 := &raw.DictObj{
		KV: map[string]raw.Object{
			"Type": raw.NameObj{Val: "StructElem"},
			"S":    raw.NameObj{Val: "Div"},
			"ID":   raw.StringObj{Bytes: []byte("id1")},
			"K":    &raw.ArrayObj{Items: []raw.Object{elem2}},
		},
	}

	root := &raw.DictObj{
		KV: map[string]raw.Object{
			"Type": raw.NameObj{Val: "StructTreeRoot"},
			"K":    &raw.ArrayObj{Items: []raw.Object{elem1}},
		},
	}

	catalog := &raw.DictObj{
		KV: map[string]raw.Object{
			"StructTreeRoot": root,
		},
	}

	resolver := &mockResolver{}

	tree, err := parseStructureTree(catalog, resolver)
	if err != nil {
		t.Fatalf("parseStructureTree failed: %v", err)
	}
	if tree == nil {
		t.Fatal("expected structure tree")
	}
	if len(tree.K) != 1 {
		t.Fatalf("expected 1 root element, got %d", len(tree.K))
	}

	div := tree.K[0]
	if div.S != "Div" {
		t.Errorf("expected root element Div, got %s", div.S)
	}
	if len(div.K) != 1 || div.K[0].Element == nil {
		t.Fatalf("expected Div to have one child StructureElement")
	}
	if got := div.K[0].Element.S; got != "P" {
		t.Errorf("expected child P, got %s", got)
	}
}

func TestParseStructureTree_NoRoot(t *testing.T) {
	catalog := &raw.DictObj{KV: map[string]raw.Object{}}
	resolver := &mockResolver{}

	tree, err := parseStructureTree(catalog, resolver)
	if err != nil {
		t.Fatalf("parseStructureTree failed: %v", err)
	}
	if tree != nil {
		t.Fatalf("expected nil tree when catalog has no StructTreeRoot, got %+v", tree)
	}
}
