package numbering

// Slot is a numbering position that can receive children.
type Slot struct {
	Value string // dotted value, empty when unnumbered
	Level int    // canonical level, 1 for top-level sections
	Annex bool   // inside an annex
	Top   *Slot  // top-level ancestor, nil for the root

	root bool
	kids int
}

// Root returns the document-level slot.
func Root() *Slot {
	return &Slot{root: true}
}

// TopLevel returns a top-level slot with a pre-assigned value.
func TopLevel(value string, annex bool) *Slot {
	s := &Slot{Value: value, Level: 1, Annex: annex}
	s.Top = s
	return s
}

// Child numbers the next child of s. Children of an unnumbered slot are
// unnumbered, and unnumbered children do not consume an ordinal.
func (s *Slot) Child(unnumbered bool) *Slot {
	c := &Slot{Level: s.Level + 1, Annex: s.Annex, Top: s.Top}
	if s.root {
		c.Top = c
	}
	if unnumbered || s.Value == "" {
		return c
	}
	s.kids++
	c.Value = Join(s.Value, s.kids)
	return c
}

// Nester places the children of one parent, honouring explicit level
// overrides with the heading-stack rule: a child asking for a deeper level
// than its position gives is attached under the nearest preceding sibling
// chain, and skipped depths collapse.
type Nester struct {
	stack []*Slot
}

// NewNester starts placing children under base.
func NewNester(base *Slot) *Nester {
	return &Nester{stack: []*Slot{base}}
}

// Place returns the slot for the next child. requested is the explicit level
// override, 0 for none. Overrides at or above the natural level are ignored.
func (n *Nester) Place(requested int, unnumbered bool) *Slot {
	natural := n.stack[0].Level + 1
	if requested < natural {
		requested = natural
	}
	for len(n.stack) > 1 && n.stack[len(n.stack)-1].Level >= requested {
		n.stack = n.stack[:len(n.stack)-1]
	}
	s := n.stack[len(n.stack)-1].Child(unnumbered)
	n.stack = append(n.stack, s)
	return s
}

// Push places a slot whose value was assigned elsewhere as the next child at
// its natural level.
func (n *Nester) Push(s *Slot) {
	n.stack = n.stack[:1]
	n.stack = append(n.stack, s)
}

// Open reports whether a child requesting the given level would be nested
// under an earlier sibling.
func (n *Nester) Open(requested int) bool {
	return requested > n.stack[0].Level+1 && len(n.stack) > 1
}
