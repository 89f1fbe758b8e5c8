// Package anchors builds the anchor table: one entry per referencable node,
// carrying its display label, cross-reference text and bare value.
package anchors

import "github.com/dgallion1/doclabel/internal/doctree"

// Bib holds the attributes of a bibliographic entry.
type Bib struct {
	Scope      string `json:"scope" yaml:"scope"`
	Identifier string `json:"identifier,omitempty" yaml:"identifier,omitempty"`
	FixedLabel string `json:"fixed_label,omitempty" yaml:"fixed_label,omitempty"`
	Normative  bool   `json:"normative,omitempty" yaml:"normative,omitempty"`
}

// Auto reports whether the entry's citation number is assigned at
// resolution time.
func (b *Bib) Auto() bool {
	return b.FixedLabel == "" && !(b.Normative && b.Identifier != "")
}

// Entry is the anchor record of one node.
type Entry struct {
	ID     string       `json:"id" yaml:"id"`
	Kind   doctree.Kind `json:"kind" yaml:"kind"`
	Role   doctree.Role `json:"role,omitempty" yaml:"role,omitempty"`
	Label  string       `json:"label,omitempty" yaml:"label,omitempty"`
	Xref   string       `json:"xref,omitempty" yaml:"xref,omitempty"`
	Value  string       `json:"value,omitempty" yaml:"value,omitempty"`
	Level  int          `json:"level" yaml:"level"`
	Title  string       `json:"title,omitempty" yaml:"title,omitempty"`
	Bib    *Bib         `json:"bib,omitempty" yaml:"bib,omitempty"`
	System bool         `json:"system_id,omitempty" yaml:"system_id,omitempty"`
}

// Table is the immutable result of Build.
type Table struct {
	entries map[string]Entry
	order   []string
}

// Lookup returns the entry for id.
func (t *Table) Lookup(id string) (Entry, bool) {
	e, ok := t.entries[id]
	return e, ok
}

// Len returns the number of entries.
func (t *Table) Len() int {
	return len(t.order)
}

// Entries returns a copy of all entries in document order.
func (t *Table) Entries() []Entry {
	out := make([]Entry, 0, len(t.order))
	for _, id := range t.order {
		out = append(out, t.entries[id])
	}
	return out
}

// Bibliography returns the bibliographic entries grouped by scope, each group
// in declaration order, and the scopes in order of first declaration.
func (t *Table) Bibliography() (scopes []string, entries map[string][]Entry) {
	entries = make(map[string][]Entry)
	for _, id := range t.order {
		e := t.entries[id]
		if e.Bib == nil {
			continue
		}
		if _, ok := entries[e.Bib.Scope]; !ok {
			scopes = append(scopes, e.Bib.Scope)
		}
		entries[e.Bib.Scope] = append(entries[e.Bib.Scope], e)
	}
	return scopes, entries
}
