package doctree

import "strings"

// Kind is the structural kind assigned to a node by classification.
type Kind string

const (
	KindClause      Kind = "clause"
	KindAnnex       Kind = "annex"
	KindTerm        Kind = "term"
	KindSymbol      Kind = "symbol-entry"
	KindFigure      Kind = "figure"
	KindTable       Kind = "table"
	KindFormula     Kind = "formula"
	KindBibEntry    Kind = "bibliographic-entry"
	KindFootnote    Kind = "footnote"
	KindComment     Kind = "comment"
	KindFrontMatter Kind = "front-matter-section"
)

// Role refines a section with the part it plays in a standards document.
type Role string

const (
	RoleNone         Role = ""
	RoleScope        Role = "scope"
	RoleNormRefs     Role = "normative-references"
	RoleTerms        Role = "terms"
	RoleSymbols      Role = "symbols"
	RoleBibliography Role = "bibliography"
	RoleIntroduction Role = "introduction"
	RoleForeword     Role = "foreword" // any other preface section
)

// Case is a capitalisation request attached to a reference.
type Case string

const (
	CaseNone      Case = ""
	CaseCapital   Case = "capital"
	CaseLowercase Case = "lowercase"
)

// Obligation values carried by annexes.
const (
	ObligationNormative   = "normative"
	ObligationInformative = "informative"
)

// Reference is a reference request occurring in a node's own content.
type Reference struct {
	Target   string `json:"target" yaml:"target"`
	Locality string `json:"locality,omitempty" yaml:"locality,omitempty"` // raw qualifier text, e.g. "clause=3,example=9-11"
	Text     string `json:"text,omitempty" yaml:"text,omitempty"`         // literal display override
	Case     Case   `json:"case,omitempty" yaml:"case,omitempty"`
	Droploc  bool   `json:"droploc,omitempty" yaml:"droploc,omitempty"`
}

// Node is one structural element of a document. The engine treats Content as
// opaque; everything it needs is carried by the typed attributes.
type Node struct {
	ID         string `json:"id,omitempty" yaml:"id,omitempty"`
	Type       string `json:"type,omitempty" yaml:"type,omitempty"` // declared type hint
	Title      string `json:"title,omitempty" yaml:"title,omitempty"`
	Level      int    `json:"level,omitempty" yaml:"level,omitempty"` // explicit level override, 0 if none
	Obligation string `json:"obligation,omitempty" yaml:"obligation,omitempty"`
	Unnumbered bool   `json:"unnumbered,omitempty" yaml:"unnumbered,omitempty"`
	Content    string `json:"content,omitempty" yaml:"content,omitempty"`
	Math       string `json:"math,omitempty" yaml:"math,omitempty"` // symbol entries given only as an expression

	// Bibliographic attributes.
	Identifier string `json:"identifier,omitempty" yaml:"identifier,omitempty"`
	FixedLabel string `json:"fixed_label,omitempty" yaml:"fixed_label,omitempty"`
	Normative  bool   `json:"normative,omitempty" yaml:"normative,omitempty"`

	References []Reference `json:"references,omitempty" yaml:"references,omitempty"`
	Children   []*Node     `json:"children,omitempty" yaml:"children,omitempty"`

	parent *Node
}

// Parent returns the enclosing node, or nil for top-level nodes and for trees
// that have not been linked.
func (n *Node) Parent() *Node {
	return n.parent
}

// Add appends children and links them to n.
func (n *Node) Add(children ...*Node) *Node {
	for _, c := range children {
		c.parent = n
		n.Children = append(n.Children, c)
	}
	return n
}

// Document is the root of a structural tree.
type Document struct {
	Title    string  `json:"title,omitempty" yaml:"title,omitempty"`
	Children []*Node `json:"children" yaml:"children"`
}

// Link sets the parent back-references of every node. Top-level nodes get a
// nil parent.
func (d *Document) Link() {
	type frame struct {
		node   *Node
		parent *Node
	}
	stack := make([]frame, 0, len(d.Children))
	for i := len(d.Children) - 1; i >= 0; i-- {
		stack = append(stack, frame{node: d.Children[i]})
	}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		f.node.parent = f.parent
		for i := len(f.node.Children) - 1; i >= 0; i-- {
			stack = append(stack, frame{node: f.node.Children[i], parent: f.node})
		}
	}
}

// Walk visits every node in document order. depth is 1 for top-level nodes.
// Returning false from fn skips the node's children.
func (d *Document) Walk(fn func(n *Node, depth int) bool) {
	type frame struct {
		node  *Node
		depth int
	}
	stack := make([]frame, 0, len(d.Children))
	for i := len(d.Children) - 1; i >= 0; i-- {
		stack = append(stack, frame{node: d.Children[i], depth: 1})
	}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if !fn(f.node, f.depth) {
			continue
		}
		for i := len(f.node.Children) - 1; i >= 0; i-- {
			stack = append(stack, frame{node: f.node.Children[i], depth: f.depth + 1})
		}
	}
}

// Count returns the number of nodes in the tree.
func (d *Document) Count() int {
	n := 0
	d.Walk(func(*Node, int) bool {
		n++
		return true
	})
	return n
}

// FlattenText joins titles and content of the whole tree in document order.
// Used for content hashing.
func (d *Document) FlattenText() string {
	var sb strings.Builder
	d.Walk(func(n *Node, _ int) bool {
		for _, s := range []string{n.Title, n.Content, n.Math} {
			if s == "" {
				continue
			}
			if sb.Len() > 0 {
				sb.WriteString("\n")
			}
			sb.WriteString(s)
		}
		return true
	})
	return sb.String()
}
