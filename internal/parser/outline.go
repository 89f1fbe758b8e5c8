package parser

import (
	"strings"

	"github.com/dgallion1/doclabel/internal/doctree"
)

// outline assembles a document from a flat stream of headings, blocks and
// text, nesting sections by heading level.
type outline struct {
	root  *doctree.Node
	stack []outlineEntry
	text  strings.Builder
}

type outlineEntry struct {
	node  *doctree.Node
	level int
}

func newOutline() *outline {
	root := &doctree.Node{}
	return &outline{root: root, stack: []outlineEntry{{node: root, level: 0}}}
}

func (o *outline) current() *doctree.Node {
	return o.stack[len(o.stack)-1].node
}

// heading opens a section at level, closing sections at the same or a
// deeper level.
func (o *outline) heading(level int, n *doctree.Node) {
	o.flush()
	for len(o.stack) > 1 && o.stack[len(o.stack)-1].level >= level {
		o.stack = o.stack[:len(o.stack)-1]
	}
	o.current().Children = append(o.current().Children, n)
	o.stack = append(o.stack, outlineEntry{node: n, level: level})
}

// block attaches a non-section node (figure, table, formula, entry) to the
// current section.
func (o *outline) block(n *doctree.Node) {
	o.flush()
	o.current().Children = append(o.current().Children, n)
}

// addText queues paragraph text for the current section.
func (o *outline) addText(t string) {
	t = strings.TrimSpace(t)
	if t == "" {
		return
	}
	if o.text.Len() > 0 {
		o.text.WriteString("\n\n")
	}
	o.text.WriteString(t)
}

// attach records references and notes found by a format's own markup (as
// opposed to inline text markup) on the current section.
func (o *outline) attach(refs []doctree.Reference, notes []*doctree.Node) {
	o.flush()
	cur := o.current()
	cur.References = append(cur.References, refs...)
	cur.Children = append(cur.Children, notes...)
}

func (o *outline) flush() {
	t := strings.TrimSpace(o.text.String())
	o.text.Reset()
	if t == "" {
		return
	}
	appendContent(o.current(), t)
}

// appendContent adds text to n and records the references and notes it
// contains.
func appendContent(n *doctree.Node, t string) {
	if n.Content != "" {
		n.Content += "\n\n" + t
	} else {
		n.Content = t
	}
	refs, notes := extractInline(t)
	n.References = append(n.References, refs...)
	n.Children = append(n.Children, notes...)
}

// document finishes the outline. Text before the first heading becomes an
// unnumbered preamble section.
func (o *outline) document(title string) *doctree.Document {
	o.flush()
	doc := &doctree.Document{Title: title}

	var sections, notes []*doctree.Node
	for _, c := range o.root.Children {
		if c.Type == "footnote" || c.Type == "comment" {
			notes = append(notes, c)
			continue
		}
		sections = append(sections, c)
	}
	if o.root.Content != "" || len(o.root.References) > 0 || len(notes) > 0 {
		pre := &doctree.Node{
			Content:    o.root.Content,
			References: o.root.References,
			Children:   notes,
		}
		if len(sections) > 0 {
			pre.Unnumbered = true
		}
		sections = append([]*doctree.Node{pre}, sections...)
	}
	doc.Children = sections
	doc.Link()
	return doc
}

// promoteTitle turns a lone top-level section into the document title when
// it wraps all other sections, as with a single "# Title" heading.
func promoteTitle(doc *doctree.Document) {
	if len(doc.Children) != 1 {
		return
	}
	top := doc.Children[0]
	if top.Title == "" || top.Type != "" || top.ID != "" || top.Obligation != "" {
		return
	}
	hasSection := false
	for _, c := range top.Children {
		if c.Type == "" {
			hasSection = true
			break
		}
	}
	if !hasSection {
		return
	}
	doc.Title = top.Title
	var children []*doctree.Node
	if top.Content != "" || len(top.References) > 0 {
		children = append(children, &doctree.Node{
			Content:    top.Content,
			References: top.References,
			Unnumbered: true,
		})
	}
	var notes []*doctree.Node
	for _, c := range top.Children {
		if c.Type == "footnote" || c.Type == "comment" {
			notes = append(notes, c)
			continue
		}
		children = append(children, c)
	}
	if len(notes) > 0 {
		if len(children) > 0 && children[0].Unnumbered && children[0].Title == "" {
			children[0].Children = append(children[0].Children, notes...)
		} else {
			children = append([]*doctree.Node{{Unnumbered: true, Children: notes}}, children...)
		}
	}
	doc.Children = children
	doc.Link()
}

// trimExt strips the given extensions from a filename to form a title.
func trimExt(filename string, exts ...string) string {
	for _, ext := range exts {
		if strings.HasSuffix(strings.ToLower(filename), ext) {
			return filename[:len(filename)-len(ext)]
		}
	}
	return filename
}
