package notes

import (
	"testing"

	"github.com/dgallion1/doclabel/internal/classify"
	"github.com/dgallion1/doclabel/internal/doctree"
	"github.com/dgallion1/doclabel/internal/labels"
)

func TestCanonical(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"  a  b\n\tc ", "a b c"},
		{"café", "café"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := Canonical(tt.in); got != tt.want {
			t.Errorf("Canonical(%q): expected %q, got %q", tt.in, tt.want, got)
		}
	}
}

func TestSignature(t *testing.T) {
	if Signature("Same  text") != Signature("Same text") {
		t.Error("expected whitespace-insensitive signatures")
	}
	if Signature("one") == Signature("two") {
		t.Error("expected different signatures for different content")
	}
	if got := len(Signature("x")); got != 32 {
		t.Errorf("expected 128-bit hex signature (32 chars), got %d", got)
	}
}

func TestList_Dedup(t *testing.T) {
	l := NewList()
	n1, new1 := l.Add("Footnote A")
	n2, new2 := l.Add("Footnote B")
	n3, new3 := l.Add("  Footnote   A ")

	if n1 != 1 || n2 != 2 || n3 != 1 {
		t.Errorf("expected 1, 2, 1, got %d, %d, %d", n1, n2, n3)
	}
	if !new1 || !new2 || new3 {
		t.Errorf("expected new, new, reused; got %v, %v, %v", new1, new2, new3)
	}
	if got := len(l.Records()); got != 2 {
		t.Errorf("expected 2 records, got %d", got)
	}
}

func TestNumber(t *testing.T) {
	doc := &doctree.Document{Children: []*doctree.Node{
		{ID: "req", Title: "Requirements", Children: []*doctree.Node{
			{ID: "f1", Type: "footnote", Content: "A"},
			{ID: "c1", Type: "comment", Content: "Check this"},
			{ID: "f2", Type: "footnote", Content: "B"},
		}},
		{ID: "tests", Title: "Tests", Children: []*doctree.Node{
			{ID: "f3", Type: "footnote", Content: "A"},
			{ID: "c2", Type: "comment", Content: "A"},
		}},
	}}
	n := Number(classify.Classify(doc, labels.Default()))

	want := map[string]int{"f1": 1, "f2": 2, "f3": 1, "c1": 1, "c2": 2}
	got := n.Numbers()
	for id, num := range want {
		if got[id] != num {
			t.Errorf("%s: expected %d, got %d", id, num, got[id])
		}
	}
	if len(n.Footnotes) != 2 {
		t.Errorf("expected footnote list length 2, got %d", len(n.Footnotes))
	}
	if len(n.Comments) != 2 {
		t.Errorf("expected comment list length 2, got %d", len(n.Comments))
	}
	for _, r := range n.Refs {
		if r.NodeID == "f3" && r.Body != "A" {
			t.Errorf("expected shared body %q, got %q", "A", r.Body)
		}
	}
}

func TestNumber_FirstBodyKept(t *testing.T) {
	doc := &doctree.Document{Children: []*doctree.Node{
		{ID: "a", Type: "footnote", Content: "Note  text"},
		{ID: "b", Type: "footnote", Content: "Note text"},
	}}
	n := Number(classify.Classify(doc, labels.Default()))
	if n.Refs[1].Number != 1 || n.Refs[1].Body != "Note  text" {
		t.Errorf("expected second footnote to reuse the first body, got %+v", n.Refs[1])
	}
}
