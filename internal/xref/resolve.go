// Package xref resolves reference requests against an anchor table and
// renders their display text, numbering bibliographic citations by order of
// first appearance.
package xref

import (
	"strconv"
	"strings"

	"github.com/dgallion1/doclabel/internal/anchors"
	"github.com/dgallion1/doclabel/internal/diag"
	"github.com/dgallion1/doclabel/internal/doctree"
	"github.com/dgallion1/doclabel/internal/labels"
	"github.com/dgallion1/doclabel/internal/numbering"
)

// Request is one reference occurrence.
type Request struct {
	Target      string        `json:"target" yaml:"target"`
	Localities  LocalityStack `json:"localities,omitempty" yaml:"localities,omitempty"`
	RawLocality string        `json:"raw_locality,omitempty" yaml:"raw_locality,omitempty"` // parsed when Localities is empty
	Text        string        `json:"text,omitempty" yaml:"text,omitempty"`
	Case        doctree.Case  `json:"case,omitempty" yaml:"case,omitempty"`
	Droploc     bool          `json:"droploc,omitempty" yaml:"droploc,omitempty"`
	Source      string        `json:"source,omitempty" yaml:"source,omitempty"`
	Ordinal     int           `json:"ordinal" yaml:"ordinal"`
}

// Status describes how a reference was rendered.
type Status string

const (
	StatusResolved   Status = "resolved"
	StatusUnresolved Status = "unresolved"
	StatusDegraded   Status = "degraded" // resolved, but its locality text was malformed
)

// Resolved is the rendered form of a request.
type Resolved struct {
	Target     string        `json:"target" yaml:"target"`
	Source     string        `json:"source,omitempty" yaml:"source,omitempty"`
	Ordinal    int           `json:"ordinal" yaml:"ordinal"`
	Kind       doctree.Kind  `json:"kind,omitempty" yaml:"kind,omitempty"`
	Status     Status        `json:"status" yaml:"status"`
	Text       string        `json:"text" yaml:"text"`
	Localities LocalityStack `json:"localities,omitempty" yaml:"localities,omitempty"`
}

// Resolution is the output of ResolveAll.
type Resolution struct {
	References  []Resolved        `json:"references" yaml:"references"`
	Citations   map[string]string `json:"citations" yaml:"citations"` // bibliographic entry ID -> citation text
	Diagnostics diag.List         `json:"diagnostics,omitempty" yaml:"diagnostics,omitempty"`
}

// Resolver renders references against a finished anchor table.
type Resolver struct {
	table *anchors.Table
	vocab labels.Vocabulary
	notes map[string]int
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithNoteNumbers lets references to footnotes and comments render their
// assigned numbers.
func WithNoteNumbers(numbers map[string]int) Option {
	return func(r *Resolver) { r.notes = numbers }
}

// NewResolver returns a resolver over t.
func NewResolver(t *anchors.Table, vocab labels.Vocabulary, opts ...Option) *Resolver {
	r := &Resolver{table: t, vocab: vocab}
	for _, o := range opts {
		o(r)
	}
	return r
}

// ResolveAll renders every request. Citation numbers are fixed by a scan of
// all requests before any text is rendered. The result depends only on the
// table and reqs.
func (r *Resolver) ResolveAll(reqs []Request) Resolution {
	res := Resolution{
		References: make([]Resolved, 0, len(reqs)),
		Citations:  r.Citations(reqs),
	}
	var diags diag.Collector
	for _, req := range reqs {
		res.References = append(res.References, r.resolve(req, res.Citations, &diags))
	}
	res.Diagnostics = diags.List()
	return res
}

// Citations assigns citation text to every bibliographic entry. Per scope,
// auto-labeled entries are numbered densely by first citation in reqs,
// skipping numbers used as fixed labels in that scope; uncited ones follow
// in declaration order.
func (r *Resolver) Citations(reqs []Request) map[string]string {
	scopes, entries := r.table.Bibliography()
	counters := make(map[string]*numbering.Counter, len(scopes))
	for _, scope := range scopes {
		var reserved []int
		for _, e := range entries[scope] {
			if n, ok := numbering.IsNumericLabel(e.Bib.FixedLabel); ok {
				reserved = append(reserved, n)
			}
		}
		counters[scope] = numbering.NewCounter(reserved...)
	}

	out := make(map[string]string)
	assign := func(e anchors.Entry) {
		if _, done := out[e.ID]; done {
			return
		}
		if e.Bib.Auto() {
			out[e.ID] = numbering.Citation(counters[e.Bib.Scope].Next())
			return
		}
		out[e.ID] = e.Label
	}

	for _, req := range reqs {
		if e, ok := r.table.Lookup(req.Target); ok && e.Bib != nil {
			assign(e)
		}
	}
	for _, scope := range scopes {
		for _, e := range entries[scope] {
			assign(e)
		}
	}
	return out
}

func (r *Resolver) resolve(req Request, citations map[string]string, diags *diag.Collector) Resolved {
	out := Resolved{
		Target:  req.Target,
		Source:  req.Source,
		Ordinal: req.Ordinal,
		Status:  StatusResolved,
	}

	e, ok := r.table.Lookup(req.Target)
	if !ok {
		out.Status = StatusUnresolved
		out.Text = r.vocab.UnresolvedMarker(req.Target)
		diags.Addf(diag.CodeUnresolvedReference, req.Source, nil,
			"reference to %q has no target", req.Target)
		return out
	}
	out.Kind = e.Kind

	literal := req.Text
	locs := req.Localities
	if len(locs) == 0 && strings.TrimSpace(req.RawLocality) != "" {
		parsed, err := ParseLocalities(req.RawLocality)
		if err != nil {
			out.Status = StatusDegraded
			diags.Addf(diag.CodeMalformedLocality, req.Source, nil,
				"reference to %q: %v", req.Target, err)
			if literal == "" {
				literal = strings.TrimSpace(req.RawLocality)
			}
		} else {
			locs = parsed
		}
	}
	out.Localities = locs

	var text string
	switch {
	case e.Bib != nil:
		text = citations[e.ID]
		if literal != "" {
			text = join(r.vocab, text, literal)
		} else {
			text = join(r.vocab, text, locs.Render(r.vocab, req.Droploc))
		}
	case literal != "":
		text = literal
	default:
		text = join(r.vocab, r.base(e, req.Droploc), locs.Render(r.vocab, req.Droploc))
	}

	switch req.Case {
	case doctree.CaseCapital:
		text = labels.Capitalize(text)
	case doctree.CaseLowercase:
		text = labels.Lowercase(text)
	}
	out.Text = text
	return out
}

func (r *Resolver) base(e anchors.Entry, droploc bool) string {
	if e.Kind == doctree.KindFootnote || e.Kind == doctree.KindComment {
		n, ok := r.notes[e.ID]
		if !ok {
			return r.vocab.Locator(string(e.Kind))
		}
		if droploc {
			return strconv.Itoa(n)
		}
		return r.vocab.Locator(string(e.Kind)) + " " + strconv.Itoa(n)
	}
	if droploc && e.Value != "" {
		return e.Value
	}
	return e.Xref
}

func join(vocab labels.Vocabulary, base, suffix string) string {
	switch {
	case suffix == "":
		return base
	case base == "":
		return suffix
	}
	return base + vocab.Delimiter + suffix
}
