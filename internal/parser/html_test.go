package parser

import (
	"strings"
	"testing"

	"github.com/dgallion1/doclabel/internal/doctree"
)

const sampleHTML = `<html><head><title>Sample Standard</title></head><body>
<nav><h2>Menu</h2></nav>
<h2 id="scope">Scope</h2>
<p>See <a href="#fig1">the figure</a> and <a href="#ref1" data-locality="clause=3" data-case="capital"></a>.<span class="footnote">Note body.</span></p>
<figure id="fig1"><img src="a.png"><figure id="fig1a"><figcaption>Part a</figcaption></figure><figcaption>Overview</figcaption></figure>
<table id="t1"><caption>Data</caption><tr><td>1</td><td>2</td></tr></table>
<div class="formula" id="eq1">E = mc^2</div>
<h2 class="symbols">Symbols</h2>
<dl class="symbols"><dt>x</dt><dd>length</dd><dt><math><mi>y</mi></math></dt><dd>height</dd></dl>
<h2 data-obligation="informative" data-type="annex" id="annex-a">Examples</h2>
<h3 data-unnumbered>Remarks</h3>
<h2>Bibliography</h2>
<ul><li class="bibitem" id="ref1" data-identifier="ISO 1" data-normative="true">Standard one</li>
<li>[[[ref2,(7)]]] Other work</li></ul>
</body></html>`

func TestHTMLParser_Structure(t *testing.T) {
	p := &HTMLParser{}
	tree, err := p.Parse(strings.NewReader(sampleHTML), "sample.html")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tree.Title != "Sample Standard" {
		t.Errorf("expected title %q, got %q", "Sample Standard", tree.Title)
	}
	if len(tree.Children) != 4 {
		t.Fatalf("expected 4 top-level sections, got %d", len(tree.Children))
	}

	scope := tree.Children[0]
	if scope.ID != "scope" {
		t.Errorf("expected id %q, got %q", "scope", scope.ID)
	}
	if len(scope.References) != 2 {
		t.Fatalf("expected 2 references, got %d", len(scope.References))
	}
	if ref := scope.References[0]; ref.Target != "fig1" || ref.Text != "the figure" {
		t.Errorf("unexpected first reference %+v", ref)
	}
	if ref := scope.References[1]; ref.Target != "ref1" || ref.Locality != "clause=3" || ref.Case != doctree.CaseCapital || ref.Text != "" {
		t.Errorf("unexpected second reference %+v", ref)
	}

	kinds := make([]string, len(scope.Children))
	for i, c := range scope.Children {
		kinds[i] = c.Type
	}
	want := []string{"footnote", "figure", "table", "formula"}
	if strings.Join(kinds, ",") != strings.Join(want, ",") {
		t.Fatalf("expected children %v, got %v", want, kinds)
	}

	fig := scope.Children[1]
	if fig.Title != "Overview" || fig.Content != "a.png" {
		t.Errorf("unexpected figure %+v", fig)
	}
	if len(fig.Children) != 1 || fig.Children[0].ID != "fig1a" || fig.Children[0].Title != "Part a" {
		t.Errorf("expected one subfigure, got %+v", fig.Children)
	}
	if tbl := scope.Children[2]; tbl.ID != "t1" || tbl.Title != "Data" || tbl.Content != "1\t2" {
		t.Errorf("unexpected table %+v", tbl)
	}
}

func TestHTMLParser_SymbolsAnnexAndBibliography(t *testing.T) {
	p := &HTMLParser{}
	tree, err := p.Parse(strings.NewReader(sampleHTML), "sample.html")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	syms := tree.Children[1]
	if syms.Type != "symbols" {
		t.Errorf("expected type hint %q, got %q", "symbols", syms.Type)
	}
	if len(syms.Children) != 2 {
		t.Fatalf("expected 2 symbols, got %d", len(syms.Children))
	}
	if s := syms.Children[0]; s.Title != "x" || s.Content != "length" {
		t.Errorf("unexpected symbol %+v", s)
	}
	if s := syms.Children[1]; s.Title != "" || !strings.Contains(s.Math, "<mi>y</mi>") {
		t.Errorf("expected math-only symbol, got %+v", s)
	}

	annex := tree.Children[2]
	if annex.Type != "annex" || annex.Obligation != "informative" || annex.ID != "annex-a" {
		t.Errorf("unexpected annex %+v", annex)
	}
	if len(annex.Children) != 1 || !annex.Children[0].Unnumbered {
		t.Errorf("expected one unnumbered subsection, got %+v", annex.Children)
	}

	bib := tree.Children[3]
	if len(bib.Children) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(bib.Children))
	}
	first := bib.Children[0]
	if first.ID != "ref1" || first.Identifier != "ISO 1" || !first.Normative {
		t.Errorf("unexpected first entry %+v", first)
	}
	if second := bib.Children[1]; second.ID != "ref2" || second.FixedLabel != "7" {
		t.Errorf("unexpected second entry %+v", second)
	}
}

func TestHTMLParser_NoTitleTag(t *testing.T) {
	input := `<body><h1>Guide</h1><p>Intro.</p><h2>Usage</h2><p>Run it.</p></body>`
	p := &HTMLParser{}
	tree, err := p.Parse(strings.NewReader(input), "guide.htm")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tree.Title != "Guide" {
		t.Errorf("expected promoted title %q, got %q", "Guide", tree.Title)
	}
	if len(tree.Children) != 2 || tree.Children[1].Title != "Usage" {
		t.Fatalf("expected preamble and Usage, got %+v", tree.Children)
	}
}
