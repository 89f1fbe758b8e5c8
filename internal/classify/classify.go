// Package classify assigns a structural kind and role to every node of a
// document tree. The result is an overlay; the input tree is never modified.
package classify

import (
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/dgallion1/doclabel/internal/doctree"
	"github.com/dgallion1/doclabel/internal/labels"
)

// Context is the section mode in effect while descending through a
// top-level section. It changes only at top level.
type Context string

const (
	ContextNone         Context = ""
	ContextScope        Context = "scope"
	ContextTerms        Context = "terms"
	ContextBibliography Context = "bibliography"
	ContextNormRefs     Context = "normative-references"
)

const systemIDPrefix = "_"

// systemIDSpace namespaces the name-based UUIDs given to nodes without an ID.
var systemIDSpace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/dgallion1/doclabel/node"))

// Item is the classified view of one node.
type Item struct {
	Node     *doctree.Node
	ID       string // author ID, or a system ID when the node has none
	Kind     doctree.Kind
	Role     doctree.Role
	Context  Context
	Parent   *Item
	Children []*Item
	Depth    int // 1 for top-level items
	Index    int // position in document order

	symbols bool // inside a symbols section
}

// SystemID reports whether the item's ID was generated.
func (it *Item) SystemID() bool {
	return it.Node.ID == ""
}

// TopLevel returns the top-level ancestor of it (possibly it).
func (it *Item) TopLevel() *Item {
	cur := it
	for cur.Parent != nil {
		cur = cur.Parent
	}
	return cur
}

// Breadcrumb returns the titles from the top-level ancestor down to it. Items
// without a title contribute their kind.
func (it *Item) Breadcrumb() []string {
	var parts []string
	for cur := it; cur != nil; cur = cur.Parent {
		name := strings.TrimSpace(cur.Node.Title)
		if name == "" {
			name = "(" + string(cur.Kind) + ")"
		}
		parts = append(parts, name)
	}
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	return parts
}

// Location formats the breadcrumb for diagnostics.
func (it *Item) Location() string {
	return strings.Join(it.Breadcrumb(), " > ")
}

// Outline is a classified document.
type Outline struct {
	Title string
	Items []*Item // top-level items

	all []*Item
}

// All returns every item in document order.
func (o *Outline) All() []*Item {
	return o.all
}

// Lookup returns the first item with the given ID.
func (o *Outline) Lookup(id string) (*Item, bool) {
	for _, it := range o.all {
		if it.ID == id {
			return it, true
		}
	}
	return nil, false
}

// Classify builds the outline for doc. It never fails: nodes that match no
// rule become clauses.
func Classify(doc *doctree.Document, vocab labels.Vocabulary) *Outline {
	o := &Outline{Title: doc.Title}

	type frame struct {
		node   *doctree.Node
		parent *Item
		depth  int
		path   string
	}
	stack := make([]frame, 0, len(doc.Children))
	for i := len(doc.Children) - 1; i >= 0; i-- {
		stack = append(stack, frame{node: doc.Children[i], depth: 1, path: strconv.Itoa(i)})
	}

	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		it := &Item{
			Node:   f.node,
			ID:     f.node.ID,
			Parent: f.parent,
			Depth:  f.depth,
			Index:  len(o.all),
		}
		if it.ID == "" {
			it.ID = systemIDPrefix + uuid.NewSHA1(systemIDSpace, []byte(f.path)).String()
		}
		it.Kind, it.Role = kindOf(f.node, f.parent, f.depth, vocab)
		it.Context = contextOf(it)
		it.symbols = it.Role == doctree.RoleSymbols || (f.parent != nil && f.parent.symbols)

		if f.parent == nil {
			o.Items = append(o.Items, it)
		} else {
			f.parent.Children = append(f.parent.Children, it)
		}
		o.all = append(o.all, it)

		for i := len(f.node.Children) - 1; i >= 0; i-- {
			stack = append(stack, frame{
				node:   f.node.Children[i],
				parent: it,
				depth:  f.depth + 1,
				path:   f.path + "." + strconv.Itoa(i),
			})
		}
	}
	return o
}

// contextOf sets the section mode at top level and inherits it below.
func contextOf(it *Item) Context {
	if it.Parent != nil {
		return it.Parent.Context
	}
	switch it.Role {
	case doctree.RoleScope:
		return ContextScope
	case doctree.RoleTerms:
		return ContextTerms
	case doctree.RoleBibliography:
		return ContextBibliography
	case doctree.RoleNormRefs:
		return ContextNormRefs
	}
	return ContextNone
}

// typeHints maps declared type hints to a kind and role.
var typeHints = map[string]struct {
	kind doctree.Kind
	role doctree.Role
}{
	"clause":               {doctree.KindClause, doctree.RoleNone},
	"section":              {doctree.KindClause, doctree.RoleNone},
	"subclause":            {doctree.KindClause, doctree.RoleNone},
	"annex":                {doctree.KindAnnex, doctree.RoleNone},
	"appendix":             {doctree.KindAnnex, doctree.RoleNone},
	"figure":               {doctree.KindFigure, doctree.RoleNone},
	"subfigure":            {doctree.KindFigure, doctree.RoleNone},
	"table":                {doctree.KindTable, doctree.RoleNone},
	"formula":              {doctree.KindFormula, doctree.RoleNone},
	"equation":             {doctree.KindFormula, doctree.RoleNone},
	"term":                 {doctree.KindTerm, doctree.RoleNone},
	"symbol":               {doctree.KindSymbol, doctree.RoleNone},
	"abbreviation":         {doctree.KindSymbol, doctree.RoleNone},
	"symbol-entry":         {doctree.KindSymbol, doctree.RoleNone},
	"bibitem":              {doctree.KindBibEntry, doctree.RoleNone},
	"reference":            {doctree.KindBibEntry, doctree.RoleNone},
	"bibliographic-entry":  {doctree.KindBibEntry, doctree.RoleNone},
	"footnote":             {doctree.KindFootnote, doctree.RoleNone},
	"comment":              {doctree.KindComment, doctree.RoleNone},
	"review":               {doctree.KindComment, doctree.RoleNone},
	"foreword":             {doctree.KindFrontMatter, doctree.RoleForeword},
	"preface":              {doctree.KindFrontMatter, doctree.RoleForeword},
	"abstract":             {doctree.KindFrontMatter, doctree.RoleForeword},
	"acknowledgements":     {doctree.KindFrontMatter, doctree.RoleForeword},
	"introduction":         {doctree.KindFrontMatter, doctree.RoleIntroduction},
	"scope":                {doctree.KindClause, doctree.RoleScope},
	"normative-references": {doctree.KindClause, doctree.RoleNormRefs},
	"terms":                {doctree.KindClause, doctree.RoleTerms},
	"definitions":          {doctree.KindClause, doctree.RoleTerms},
	"symbols":              {doctree.KindClause, doctree.RoleSymbols},
	"abbreviated-terms":    {doctree.KindClause, doctree.RoleSymbols},
	"bibliography":         {doctree.KindClause, doctree.RoleBibliography},
	"references":           {doctree.KindClause, doctree.RoleBibliography},
}

func kindOf(n *doctree.Node, parent *Item, depth int, vocab labels.Vocabulary) (doctree.Kind, doctree.Role) {
	hint := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(n.Type)), "_", "-")
	if h, ok := typeHints[hint]; ok {
		switch {
		case h.kind == doctree.KindAnnex && depth > 1:
			// Annex headings below the top level are ordinary subclauses.
			return doctree.KindClause, doctree.RoleNone
		case h.kind == doctree.KindClause && h.role == doctree.RoleNone && depth == 1:
			return sectionByTitle(n, vocab)
		case h.kind == doctree.KindFrontMatter && depth > 1:
			return doctree.KindClause, doctree.RoleNone
		}
		return h.kind, h.role
	}

	if depth == 1 {
		return topLevelByTitle(n, vocab)
	}

	if len(n.Children) > 0 {
		// Grouping sections such as "3.2 Symbols" inside a combined terms
		// clause keep their role but do not start a new context.
		if role, ok := vocab.SectionRole(n.Title); ok && (role == doctree.RoleSymbols || role == doctree.RoleTerms) {
			return doctree.KindClause, role
		}
	}

	switch {
	case parent.Kind == doctree.KindFigure:
		return doctree.KindFigure, doctree.RoleNone
	case parent.symbols && len(n.Children) == 0:
		return doctree.KindSymbol, doctree.RoleNone
	case parent.Context == ContextTerms:
		return doctree.KindTerm, doctree.RoleNone
	case (parent.Context == ContextBibliography || parent.Context == ContextNormRefs) &&
		(n.Identifier != "" || n.FixedLabel != ""):
		return doctree.KindBibEntry, doctree.RoleNone
	}
	return doctree.KindClause, doctree.RoleNone
}

func topLevelByTitle(n *doctree.Node, vocab labels.Vocabulary) (doctree.Kind, doctree.Role) {
	if n.Obligation != "" || vocab.IsAnnexTitle(n.Title) {
		return doctree.KindAnnex, doctree.RoleNone
	}
	return sectionByTitle(n, vocab)
}

func sectionByTitle(n *doctree.Node, vocab labels.Vocabulary) (doctree.Kind, doctree.Role) {
	role, ok := vocab.SectionRole(n.Title)
	if !ok {
		return doctree.KindClause, doctree.RoleNone
	}
	if role == doctree.RoleForeword || role == doctree.RoleIntroduction {
		return doctree.KindFrontMatter, role
	}
	return doctree.KindClause, role
}
