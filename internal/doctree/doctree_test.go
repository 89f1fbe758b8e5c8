package doctree

import "testing"

func sampleDoc() *Document {
	scope := &Node{ID: "scope", Title: "Scope"}
	terms := (&Node{ID: "terms", Title: "Terms and definitions"}).Add(
		&Node{ID: "t1", Title: "widget"},
		&Node{ID: "t2", Title: "gadget"},
	)
	return &Document{Title: "Sample", Children: []*Node{scope, terms}}
}

func TestDocument_WalkOrder(t *testing.T) {
	doc := sampleDoc()
	var ids []string
	var depths []int
	doc.Walk(func(n *Node, depth int) bool {
		ids = append(ids, n.ID)
		depths = append(depths, depth)
		return true
	})

	want := []string{"scope", "terms", "t1", "t2"}
	if len(ids) != len(want) {
		t.Fatalf("expected %d nodes, got %d", len(want), len(ids))
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Errorf("node[%d]: expected %q, got %q", i, want[i], ids[i])
		}
	}
	if depths[2] != 2 {
		t.Errorf("expected depth 2 for t1, got %d", depths[2])
	}
}

func TestDocument_WalkSkipChildren(t *testing.T) {
	doc := sampleDoc()
	n := 0
	doc.Walk(func(node *Node, _ int) bool {
		n++
		return node.ID != "terms"
	})
	if n != 2 {
		t.Errorf("expected 2 visited nodes, got %d", n)
	}
}

func TestDocument_Link(t *testing.T) {
	doc := &Document{Children: []*Node{
		{ID: "a", Children: []*Node{{ID: "b", Children: []*Node{{ID: "c"}}}}},
	}}
	doc.Link()

	a := doc.Children[0]
	b := a.Children[0]
	c := b.Children[0]
	if a.Parent() != nil {
		t.Error("expected top-level node to have nil parent")
	}
	if b.Parent() != a {
		t.Error("expected b's parent to be a")
	}
	if c.Parent() != b {
		t.Error("expected c's parent to be b")
	}
}

func TestDocument_DeepTreeDoesNotRecurse(t *testing.T) {
	root := &Node{ID: "n0"}
	cur := root
	for i := 0; i < 10000; i++ {
		next := &Node{}
		cur.Children = []*Node{next}
		cur = next
	}
	doc := &Document{Children: []*Node{root}}
	doc.Link()
	if got := doc.Count(); got != 10001 {
		t.Errorf("expected 10001 nodes, got %d", got)
	}
	if cur.Parent() == nil {
		t.Error("expected deepest node to be linked")
	}
}

func TestDocument_FlattenText(t *testing.T) {
	doc := &Document{Children: []*Node{
		{Title: "Scope", Content: "This document specifies widgets."},
		{Math: "x^2"},
	}}
	want := "Scope\nThis document specifies widgets.\nx^2"
	if got := doc.FlattenText(); got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}
