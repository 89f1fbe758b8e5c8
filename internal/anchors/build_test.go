package anchors

import (
	"strings"
	"testing"

	"github.com/dgallion1/doclabel/internal/classify"
	"github.com/dgallion1/doclabel/internal/diag"
	"github.com/dgallion1/doclabel/internal/doctree"
	"github.com/dgallion1/doclabel/internal/labels"
	"github.com/dgallion1/doclabel/internal/numbering"
)

func build(t *testing.T, doc *doctree.Document, opts numbering.Options) *Table {
	t.Helper()
	tbl, err := Build(classify.Classify(doc, labels.Default()), opts, labels.Default())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return tbl
}

func lookup(t *testing.T, tbl *Table, id string) Entry {
	t.Helper()
	e, ok := tbl.Lookup(id)
	if !ok {
		t.Fatalf("no entry for %q", id)
	}
	return e
}

func checkValues(t *testing.T, tbl *Table, want map[string]string) {
	t.Helper()
	for id, v := range want {
		if got := lookup(t, tbl, id).Value; got != v {
			t.Errorf("%s: expected value %q, got %q", id, v, got)
		}
	}
}

func TestBuild_FixedSlotsWithSymbols(t *testing.T) {
	doc := &doctree.Document{Children: []*doctree.Node{
		{ID: "scope", Title: "Scope"},
		{ID: "norm", Title: "Normative references"},
		{ID: "terms", Title: "Terms and definitions"},
		{ID: "syms", Title: "Symbols and abbreviated terms"},
		{ID: "req", Title: "Requirements"},
	}}
	tbl := build(t, doc, numbering.Options{})
	checkValues(t, tbl, map[string]string{
		"scope": "1", "norm": "2", "terms": "3", "syms": "4", "req": "5",
	})
	if got := lookup(t, tbl, "req").Xref; got != "Clause 5" {
		t.Errorf("expected %q, got %q", "Clause 5", got)
	}
}

func TestBuild_FixedSlotsWithoutSymbols(t *testing.T) {
	doc := &doctree.Document{Children: []*doctree.Node{
		{ID: "scope", Title: "Scope"},
		{ID: "norm", Title: "Normative references"},
		{ID: "terms", Title: "Terms and definitions"},
		{ID: "req", Title: "Requirements"},
		{ID: "tests", Title: "Test methods"},
	}}
	tbl := build(t, doc, numbering.Options{})
	checkValues(t, tbl, map[string]string{"req": "4", "tests": "5"})
}

func TestBuild_SymbolsDecidedBeforeEarlierClauses(t *testing.T) {
	// The symbols section appears after a body clause; the body clause is
	// still numbered as if the symbols slot were taken.
	doc := &doctree.Document{Children: []*doctree.Node{
		{ID: "scope", Title: "Scope"},
		{ID: "req", Title: "Requirements"},
		{ID: "syms", Title: "Symbols"},
	}}
	tbl := build(t, doc, numbering.Options{})
	checkValues(t, tbl, map[string]string{"scope": "1", "req": "5", "syms": "4"})
}

func TestBuild_FrontMatterAndBibliography(t *testing.T) {
	doc := &doctree.Document{Children: []*doctree.Node{
		{ID: "fwd", Title: "Foreword", Children: []*doctree.Node{{ID: "fwd1", Title: "Patents"}}},
		{ID: "intro", Title: "Introduction", Children: []*doctree.Node{
			{ID: "i1", Title: "General"},
			{ID: "i2", Title: "Background"},
		}},
		{ID: "scope", Title: "Scope"},
		{ID: "bib", Title: "Bibliography"},
	}}
	tbl := build(t, doc, numbering.Options{})
	checkValues(t, tbl, map[string]string{
		"fwd": "", "fwd1": "", "intro": "", "i1": "0.1", "i2": "0.2", "bib": "",
	})
	if got := lookup(t, tbl, "fwd1").Xref; got != "Patents" {
		t.Errorf("expected unnumbered subclause to be referenced by title, got %q", got)
	}
	if got := lookup(t, tbl, "bib").Xref; got != "Bibliography" {
		t.Errorf("expected %q, got %q", "Bibliography", got)
	}
	if got := lookup(t, tbl, "i2").Xref; got != "Clause 0.2" {
		t.Errorf("expected %q, got %q", "Clause 0.2", got)
	}
}

func TestBuild_AnnexesAndFigures(t *testing.T) {
	doc := &doctree.Document{Children: []*doctree.Node{
		{ID: "scope", Title: "Scope", Children: []*doctree.Node{
			{ID: "fig1", Type: "figure"},
		}},
		{ID: "annexA", Title: "Examples", Obligation: "informative", Children: []*doctree.Node{
			{ID: "figA1", Type: "figure"},
		}},
		{ID: "annexB", Title: "Tests", Obligation: "normative", Children: []*doctree.Node{
			{ID: "figB1", Type: "figure"},
			{ID: "tabB1", Type: "table"},
			{ID: "b1", Title: "Setup", Children: []*doctree.Node{
				{ID: "figB2", Type: "figure"},
			}},
		}},
		{ID: "req", Title: "Requirements", Children: []*doctree.Node{
			{ID: "fig2", Type: "figure"},
		}},
	}}
	tbl := build(t, doc, numbering.Options{})
	checkValues(t, tbl, map[string]string{
		"annexA": "A", "annexB": "B", "b1": "B.1",
		"fig1": "1", "figA1": "A.1", "figB1": "B.1", "tabB1": "B.1", "figB2": "B.2", "fig2": "2",
	})

	a := lookup(t, tbl, "annexA")
	if a.Label != "Annex A (informative)" {
		t.Errorf("expected label %q, got %q", "Annex A (informative)", a.Label)
	}
	if a.Xref != "Annex A" {
		t.Errorf("expected xref %q, got %q", "Annex A", a.Xref)
	}
	if got := lookup(t, tbl, "figB1").Xref; got != "Figure B.1" {
		t.Errorf("expected %q, got %q", "Figure B.1", got)
	}
	if got := lookup(t, tbl, "b1").Xref; got != "Clause B.1" {
		t.Errorf("expected %q, got %q", "Clause B.1", got)
	}
}

func TestBuild_AnnexLettersPastZ(t *testing.T) {
	var children []*doctree.Node
	for i := 0; i < 28; i++ {
		children = append(children, &doctree.Node{Type: "annex"})
	}
	doc := &doctree.Document{Children: children}
	tbl := build(t, doc, numbering.Options{})
	entries := tbl.Entries()
	if entries[25].Value != "Z" || entries[26].Value != "AA" || entries[27].Value != "AB" {
		t.Errorf("expected Z, AA, AB, got %q, %q, %q", entries[25].Value, entries[26].Value, entries[27].Value)
	}
}

func TestBuild_HierarchicalBody(t *testing.T) {
	doc := &doctree.Document{Children: []*doctree.Node{
		{ID: "fwd", Title: "Foreword", Children: []*doctree.Node{{ID: "fwdfig", Type: "figure"}}},
		{ID: "scope", Title: "Scope", Children: []*doctree.Node{
			{ID: "f1", Type: "figure"},
			{ID: "sub", Title: "Detail", Children: []*doctree.Node{{ID: "f2", Type: "figure"}}},
			{ID: "eq", Type: "formula"},
		}},
		{ID: "req", Title: "Requirements", Children: []*doctree.Node{{ID: "f3", Type: "figure"}}},
	}}
	tbl := build(t, doc, numbering.Options{HierarchicalBody: true})
	checkValues(t, tbl, map[string]string{
		"fwdfig": "1", "f1": "1.1", "f2": "1.2", "eq": "(1.1)", "f3": "4.1",
	})
}

func TestBuild_Subfigures(t *testing.T) {
	doc := &doctree.Document{Children: []*doctree.Node{
		{ID: "req", Title: "Requirements", Children: []*doctree.Node{
			{ID: "f1", Type: "figure"},
			{ID: "f2", Type: "figure"},
			{ID: "f3", Type: "figure"},
			{ID: "f4", Type: "figure", Children: []*doctree.Node{
				{ID: "f4a", Type: "figure"},
				{ID: "f4b", Type: "figure"},
			}},
			{ID: "f5", Type: "figure", Children: []*doctree.Node{
				{ID: "f5a", Type: "figure"},
			}},
		}},
	}}
	tbl := build(t, doc, numbering.Options{})
	checkValues(t, tbl, map[string]string{
		"f4": "4", "f4a": "4-1", "f4b": "4-2", "f5": "5", "f5a": "5-1",
	})
	if got := lookup(t, tbl, "f4b").Xref; got != "Figure 4-2" {
		t.Errorf("expected %q, got %q", "Figure 4-2", got)
	}
}

func TestBuild_UnnumberedFloats(t *testing.T) {
	doc := &doctree.Document{Children: []*doctree.Node{
		{ID: "req", Title: "Requirements", Children: []*doctree.Node{
			{ID: "t1", Type: "table"},
			{ID: "tx", Type: "table", Unnumbered: true, Title: "Key"},
			{ID: "t2", Type: "table"},
		}},
	}}
	tbl := build(t, doc, numbering.Options{})
	checkValues(t, tbl, map[string]string{"t1": "1", "tx": "", "t2": "2"})
	if got := lookup(t, tbl, "tx").Xref; got != "Key" {
		t.Errorf("expected %q, got %q", "Key", got)
	}
}

func TestBuild_FormulaLabels(t *testing.T) {
	doc := &doctree.Document{Children: []*doctree.Node{
		{ID: "req", Title: "Requirements", Children: []*doctree.Node{{ID: "eq1", Type: "formula"}}},
	}}
	e := lookup(t, build(t, doc, numbering.Options{}), "eq1")
	if e.Value != "(1)" || e.Xref != "Formula (1)" {
		t.Errorf("expected (1) / Formula (1), got %q / %q", e.Value, e.Xref)
	}
}

func TestBuild_TermsShareCounter(t *testing.T) {
	doc := &doctree.Document{Children: []*doctree.Node{
		{ID: "terms", Title: "Terms and definitions", Children: []*doctree.Node{
			{ID: "gen", Type: "clause", Title: "General"},
			{ID: "t1", Title: "widget"},
			{ID: "t2", Title: "gadget"},
		}},
	}}
	tbl := build(t, doc, numbering.Options{})
	checkValues(t, tbl, map[string]string{"gen": "3.1", "t1": "3.2", "t2": "3.3"})
	if e := lookup(t, tbl, "t2"); e.Kind != doctree.KindTerm || e.Xref != "Clause 3.3" {
		t.Errorf("expected term with xref Clause 3.3, got %s %q", e.Kind, e.Xref)
	}
}

func TestBuild_LevelOverrides(t *testing.T) {
	doc := &doctree.Document{Children: []*doctree.Node{
		{ID: "scope", Title: "Scope"},
		{ID: "norm", Title: "Normative references"},
		{ID: "terms", Title: "Terms and definitions", Type: "clause", Children: []*doctree.Node{
			{ID: "a", Type: "clause", Children: []*doctree.Node{{ID: "a1", Type: "clause"}}},
			{ID: "b", Type: "clause", Level: 4},
			{ID: "c", Type: "clause", Level: 3},
			{ID: "d", Type: "clause"},
		}},
	}}
	tbl := build(t, doc, numbering.Options{})
	checkValues(t, tbl, map[string]string{
		"a": "3.1", "a1": "3.1.1", "b": "3.1.2", "c": "3.1.3", "d": "3.2",
	})
	if got := lookup(t, tbl, "b").Level; got != 3 {
		t.Errorf("expected canonical level 3 for flattened override, got %d", got)
	}
}

func TestBuild_TopLevelOverridesNest(t *testing.T) {
	doc := &doctree.Document{Children: []*doctree.Node{
		{ID: "scope", Title: "Scope"},
		{ID: "s1", Title: "Purpose", Level: 2},
		{ID: "s2", Title: "Audience", Level: 2},
		{ID: "norm", Title: "Normative references"},
	}}
	tbl := build(t, doc, numbering.Options{})
	checkValues(t, tbl, map[string]string{"scope": "1", "s1": "1.1", "s2": "1.2", "norm": "2"})
}

func TestBuild_BibliographicEntries(t *testing.T) {
	doc := &doctree.Document{Children: []*doctree.Node{
		{ID: "norm", Title: "Normative references", Children: []*doctree.Node{
			{ID: "iso712", Identifier: "ISO 712"},
		}},
		{ID: "bib", Title: "Bibliography", Children: []*doctree.Node{
			{ID: "r1", Identifier: "RFC 2119"},
			{ID: "r2", FixedLabel: "[A]"},
		}},
	}}
	tbl := build(t, doc, numbering.Options{})

	iso := lookup(t, tbl, "iso712")
	if iso.Xref != "ISO 712" || !iso.Bib.Normative || iso.Bib.Auto() {
		t.Errorf("unexpected normative entry: %+v %+v", iso, iso.Bib)
	}
	r1 := lookup(t, tbl, "r1")
	if r1.Bib.Scope != "bib" || !r1.Bib.Auto() {
		t.Errorf("expected auto entry scoped to bib, got %+v", r1.Bib)
	}
	if r2 := lookup(t, tbl, "r2"); r2.Bib.Auto() || r2.Xref != "[A]" {
		t.Errorf("expected fixed label [A], got %+v", r2)
	}

	scopes, entries := tbl.Bibliography()
	if len(scopes) != 2 || scopes[0] != "norm" || scopes[1] != "bib" {
		t.Errorf("unexpected scopes %v", scopes)
	}
	if len(entries["bib"]) != 2 {
		t.Errorf("expected 2 entries in bib scope, got %d", len(entries["bib"]))
	}
}

func TestBuild_DuplicateAnchorsBatched(t *testing.T) {
	doc := &doctree.Document{Children: []*doctree.Node{
		{ID: "x", Title: "Scope"},
		{ID: "req", Title: "Requirements", Children: []*doctree.Node{
			{ID: "x", Title: "Again"},
			{ID: "y", Type: "figure"},
		}},
		{ID: "y", Title: "Tests"},
		{ID: "x", Title: "Third"},
	}}
	_, err := Build(classify.Classify(doc, labels.Default()), numbering.Options{}, labels.Default())
	list, ok := diag.AsList(err)
	if !ok {
		t.Fatalf("expected diagnostic list, got %v", err)
	}
	dups := list.Filter(diag.CodeDuplicateAnchor)
	if len(dups) != 2 {
		t.Fatalf("expected one diagnostic per duplicated ID (2), got %d", len(dups))
	}
	if dups[0].NodeID != "x" || len(dups[0].Locations) != 3 {
		t.Errorf("expected x with 3 locations, got %s with %v", dups[0].NodeID, dups[0].Locations)
	}
	if !strings.Contains(dups[0].Locations[1], "Requirements > Again") {
		t.Errorf("expected breadcrumb location, got %q", dups[0].Locations[1])
	}
	if dups[1].NodeID != "y" {
		t.Errorf("expected second diagnostic for y, got %s", dups[1].NodeID)
	}
}

func TestBuild_NumericNormativeReference(t *testing.T) {
	doc := &doctree.Document{Children: []*doctree.Node{
		{ID: "norm", Title: "Normative references", Children: []*doctree.Node{
			{ID: "n1", FixedLabel: "[1]"},
			{ID: "n2", Type: "bibitem"},
			{ID: "ok", Identifier: "ISO 9000"},
		}},
		{ID: "bib", Title: "Bibliography", Children: []*doctree.Node{
			{ID: "fine", FixedLabel: "1"},
		}},
		{ID: "a", Title: "Scope"},
		{ID: "a", Title: "Duplicate"},
	}}
	_, err := Build(classify.Classify(doc, labels.Default()), numbering.Options{}, labels.Default())
	list, ok := diag.AsList(err)
	if !ok {
		t.Fatalf("expected diagnostic list, got %v", err)
	}
	numeric := list.Filter(diag.CodeNumericNormativeRef)
	if len(numeric) != 2 {
		t.Fatalf("expected 2 numeric-reference diagnostics, got %d: %v", len(numeric), list)
	}
	if numeric[0].NodeID != "n1" || numeric[1].NodeID != "n2" {
		t.Errorf("unexpected nodes %s, %s", numeric[0].NodeID, numeric[1].NodeID)
	}
	if len(list.Filter(diag.CodeDuplicateAnchor)) != 1 {
		t.Error("expected duplicate anchor to be reported alongside")
	}
}

func TestBuild_Deterministic(t *testing.T) {
	mk := func() *doctree.Document {
		return &doctree.Document{Children: []*doctree.Node{
			{Title: "Scope", Children: []*doctree.Node{{Type: "figure"}, {Title: "Sub"}}},
			{Title: "Annex", Type: "annex", Children: []*doctree.Node{{Type: "table"}}},
		}}
	}
	a := build(t, mk(), numbering.Options{}).Entries()
	b := build(t, mk(), numbering.Options{}).Entries()
	if len(a) != len(b) {
		t.Fatalf("entry counts differ: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i].ID != b[i].ID || a[i].Value != b[i].Value || a[i].Xref != b[i].Xref {
			t.Errorf("entry %d differs: %+v vs %+v", i, a[i], b[i])
		}
	}
}

func TestBuild_SymbolEntries(t *testing.T) {
	doc := &doctree.Document{Children: []*doctree.Node{
		{ID: "syms", Title: "Symbols", Children: []*doctree.Node{
			{ID: "s1", Title: "x_2"},
			{ID: "s2", Math: "<mi>y</mi>"},
		}},
	}}
	tbl := build(t, doc, numbering.Options{})
	if e := lookup(t, tbl, "s1"); e.Label != "x_2" || e.Value != "" || e.Level != 2 {
		t.Errorf("unexpected symbol entry %+v", e)
	}
	if e := lookup(t, tbl, "s2"); e.Xref != "<mi>y</mi>" {
		t.Errorf("expected math-only entry to use its expression, got %q", e.Xref)
	}
}
