// Package notes numbers footnotes and reviewer comments in document order,
// giving content-identical notes the same number.
package notes

import (
	"encoding/hex"
	"strings"
	"unicode"

	"github.com/zeebo/xxh3"
	"golang.org/x/text/unicode/norm"

	"github.com/dgallion1/doclabel/internal/classify"
	"github.com/dgallion1/doclabel/internal/doctree"
)

// Record is one numbered note body.
type Record struct {
	Number    int    `json:"number" yaml:"number"`
	Signature string `json:"signature" yaml:"signature"`
	Body      string `json:"body" yaml:"body"`
}

// Ref links a note occurrence to its record.
type Ref struct {
	NodeID string       `json:"node_id" yaml:"node_id"`
	Kind   doctree.Kind `json:"kind" yaml:"kind"`
	Number int          `json:"number" yaml:"number"`
	Body   string       `json:"body" yaml:"body"`
}

// List numbers one kind of note.
type List struct {
	records []Record
	bySig   map[string][]int
	canon   []string
}

// NewList returns an empty list.
func NewList() *List {
	return &List{bySig: make(map[string][]int)}
}

// Add returns the number for content, reusing the number of an earlier
// identical note. isNew reports whether a record was appended.
func (l *List) Add(content string) (number int, isNew bool) {
	c := Canonical(content)
	sig := signature(c)
	for _, i := range l.bySig[sig] {
		if l.canon[i] == c {
			return l.records[i].Number, false
		}
	}
	n := len(l.records) + 1
	l.records = append(l.records, Record{Number: n, Signature: sig, Body: content})
	l.canon = append(l.canon, c)
	l.bySig[sig] = append(l.bySig[sig], len(l.records)-1)
	return n, true
}

// Records returns the numbered bodies in number order.
func (l *List) Records() []Record {
	return append([]Record(nil), l.records...)
}

// Notes is the numbering of a whole document.
type Notes struct {
	Footnotes []Record `json:"footnotes" yaml:"footnotes"`
	Comments  []Record `json:"comments" yaml:"comments"`
	Refs      []Ref    `json:"refs" yaml:"refs"`
}

// Numbers maps every note node ID to its number.
func (n Notes) Numbers() map[string]int {
	m := make(map[string]int, len(n.Refs))
	for _, r := range n.Refs {
		m[r.NodeID] = r.Number
	}
	return m
}

// Number walks o in document order and numbers footnotes and comments in
// two independent lists.
func Number(o *classify.Outline) Notes {
	footnotes, comments := NewList(), NewList()
	var refs []Ref
	for _, it := range o.All() {
		var l *List
		switch it.Kind {
		case doctree.KindFootnote:
			l = footnotes
		case doctree.KindComment:
			l = comments
		default:
			continue
		}
		num, _ := l.Add(it.Node.Content)
		refs = append(refs, Ref{
			NodeID: it.ID,
			Kind:   it.Kind,
			Number: num,
			Body:   l.records[num-1].Body,
		})
	}
	return Notes{
		Footnotes: footnotes.Records(),
		Comments:  comments.Records(),
		Refs:      refs,
	}
}

// Canonical normalizes content for comparison: Unicode NFC, whitespace runs
// collapsed to one space, trimmed.
func Canonical(content string) string {
	s := norm.NFC.String(content)
	var b strings.Builder
	b.Grow(len(s))
	space := false
	for _, r := range s {
		if unicode.IsSpace(r) {
			space = true
			continue
		}
		if space && b.Len() > 0 {
			b.WriteByte(' ')
		}
		space = false
		b.WriteRune(r)
	}
	return b.String()
}

// Signature returns the content signature used for deduplication.
func Signature(content string) string {
	return signature(Canonical(content))
}

func signature(canonical string) string {
	sum := xxh3.HashString128(canonical).Bytes()
	return hex.EncodeToString(sum[:])
}
