package anchors

import (
	"strconv"
	"strings"

	"github.com/dgallion1/doclabel/internal/classify"
	"github.com/dgallion1/doclabel/internal/diag"
	"github.com/dgallion1/doclabel/internal/doctree"
	"github.com/dgallion1/doclabel/internal/labels"
	"github.com/dgallion1/doclabel/internal/numbering"
)

// Build numbers every item of o and returns the anchor table. Structural
// errors are collected over the whole outline; if any is found Build returns
// them as a diag.List and no table.
func Build(o *classify.Outline, opts numbering.Options, vocab labels.Vocabulary) (*Table, error) {
	b := &builder{
		opts:    opts,
		vocab:   vocab,
		slots:   make(map[*classify.Item]*numbering.Slot),
		nesters: make(map[*classify.Item]*numbering.Nester),
		top:     numbering.NewNester(numbering.Root()),
		topSlot: make(map[*classify.Item]*numbering.Slot),
		virtual: make(map[*classify.Item]bool),
		seq:     make(map[doctree.Kind]int),
		hier:    make(map[*numbering.Slot]map[doctree.Kind]int),
		subs:    make(map[*classify.Item]int),
		values:  make(map[*classify.Item]string),
		byID:    make(map[string][]*classify.Item),
		entries: make(map[string]Entry),
	}
	b.prescan(o.Items)
	for _, it := range o.All() {
		b.visit(it)
	}
	b.checkDuplicates()

	if err := b.diags.Err(); err != nil {
		return nil, err
	}
	return &Table{entries: b.entries, order: b.order}, nil
}

type builder struct {
	opts  numbering.Options
	vocab labels.Vocabulary
	diags diag.Collector

	slots   map[*classify.Item]*numbering.Slot
	nesters map[*classify.Item]*numbering.Nester
	top     *numbering.Nester
	topSlot map[*classify.Item]*numbering.Slot
	virtual map[*classify.Item]bool

	seq    map[doctree.Kind]int
	hier   map[*numbering.Slot]map[doctree.Kind]int
	subs   map[*classify.Item]int
	values map[*classify.Item]string

	byID    map[string][]*classify.Item
	idOrder []string
	entries map[string]Entry
	order   []string
}

func sectionKind(k doctree.Kind) bool {
	switch k {
	case doctree.KindClause, doctree.KindAnnex, doctree.KindTerm, doctree.KindFrontMatter:
		return true
	}
	return false
}

// prescan decides every top-level value before any entry is emitted, so
// optional sections shift later clauses consistently.
func (b *builder) prescan(items []*classify.Item) {
	sectionSeen := false
	for _, it := range items {
		if !sectionKind(it.Kind) {
			continue
		}
		nestable := it.Kind == doctree.KindClause || it.Kind == doctree.KindTerm
		if nestable && it.Node.Level > 1 && sectionSeen {
			b.virtual[it] = true
		}
		sectionSeen = true
	}

	hasSymbols := false
	for _, it := range items {
		if !b.virtual[it] && it.Kind == doctree.KindClause && it.Role == doctree.RoleSymbols && !it.Node.Unnumbered {
			hasSymbols = true
			break
		}
	}
	fixed := map[doctree.Role]string{
		doctree.RoleScope:    "1",
		doctree.RoleNormRefs: "2",
		doctree.RoleTerms:    "3",
	}
	next := 3
	if hasSymbols {
		fixed[doctree.RoleSymbols] = "4"
		next = 4
	}
	taken := make(map[doctree.Role]bool)
	annexes := 0

	for _, it := range items {
		if b.virtual[it] || !sectionKind(it.Kind) {
			continue
		}
		switch {
		case it.Node.Unnumbered:
			b.topSlot[it] = numbering.TopLevel("", it.Kind == doctree.KindAnnex)
		case it.Kind == doctree.KindFrontMatter:
			value := ""
			if it.Role == doctree.RoleIntroduction {
				value = "0"
			}
			b.topSlot[it] = numbering.TopLevel(value, false)
		case it.Kind == doctree.KindAnnex:
			annexes++
			b.topSlot[it] = numbering.TopLevel(numbering.AnnexLetter(annexes), true)
		case it.Role == doctree.RoleBibliography:
			b.topSlot[it] = numbering.TopLevel("", false)
		default:
			if v, ok := fixed[it.Role]; ok && !taken[it.Role] {
				taken[it.Role] = true
				b.topSlot[it] = numbering.TopLevel(v, false)
				continue
			}
			next++
			b.topSlot[it] = numbering.TopLevel(strconv.Itoa(next), false)
		}
	}
}

func (b *builder) visit(it *classify.Item) {
	if _, ok := b.byID[it.ID]; !ok {
		b.idOrder = append(b.idOrder, it.ID)
	}
	b.byID[it.ID] = append(b.byID[it.ID], it)

	var e Entry
	switch it.Kind {
	case doctree.KindClause, doctree.KindAnnex, doctree.KindTerm, doctree.KindFrontMatter:
		e = b.section(it)
	case doctree.KindFigure, doctree.KindTable, doctree.KindFormula:
		e = b.float(it)
	case doctree.KindBibEntry:
		e = b.bib(it)
	case doctree.KindSymbol:
		text := symbolText(it.Node)
		e = Entry{Label: text, Xref: text, Level: b.levelUnder(it)}
	default:
		e = Entry{Level: b.levelUnder(it)}
	}
	e.ID = it.ID
	e.Kind = it.Kind
	e.Role = it.Role
	e.Title = it.Node.Title
	e.System = it.SystemID()
	b.values[it] = e.Value

	if _, dup := b.entries[it.ID]; !dup {
		b.entries[it.ID] = e
		b.order = append(b.order, it.ID)
	}
}

func (b *builder) section(it *classify.Item) Entry {
	var slot *numbering.Slot
	switch {
	case it.Parent == nil && b.virtual[it]:
		slot = b.top.Place(it.Node.Level, it.Node.Unnumbered)
	case it.Parent == nil && b.topSlot[it] != nil:
		slot = b.topSlot[it]
		b.top.Push(slot)
	default:
		owner, base := b.container(it)
		if base == nil {
			slot = &numbering.Slot{Level: it.Depth}
			break
		}
		n := b.nesters[owner]
		if n == nil {
			n = numbering.NewNester(base)
			b.nesters[owner] = n
		}
		slot = n.Place(it.Node.Level, it.Node.Unnumbered)
	}
	b.slots[it] = slot

	e := Entry{Value: slot.Value, Level: slot.Level}
	title := strings.TrimSpace(it.Node.Title)

	switch {
	case it.Kind == doctree.KindFrontMatter:
		e.Value = ""
		e.Xref = orDefault(title, b.vocab.Locator(string(it.Role)))
	case slot.Value == "":
		e.Xref = orDefault(title, b.vocab.Locator(string(it.Kind)))
	case it.Kind == doctree.KindAnnex && it.Parent == nil:
		e.Xref = b.vocab.Locator("annex") + " " + slot.Value
		e.Label = e.Xref
		if it.Node.Obligation != "" {
			e.Label += " (" + b.vocab.Obligation(it.Node.Obligation) + ")"
		}
	default:
		loc := "clause"
		if it.Kind == doctree.KindTerm {
			loc = "term"
		}
		e.Label = slot.Value
		e.Xref = b.vocab.Locator(loc) + " " + slot.Value
	}
	return e
}

func (b *builder) float(it *classify.Item) Entry {
	value := ""
	switch {
	case it.Node.Unnumbered:
	case it.Kind == doctree.KindFigure && it.Parent != nil && it.Parent.Kind == doctree.KindFigure:
		if pv := b.values[it.Parent]; pv != "" {
			b.subs[it.Parent]++
			value = numbering.Sub(pv, b.subs[it.Parent])
		}
	default:
		_, base := b.container(it)
		var top *numbering.Slot
		if base != nil {
			top = base.Top
		}
		if top != nil && top.Value != "" && (top.Annex || b.opts.HierarchicalBody) {
			counts := b.hier[top]
			if counts == nil {
				counts = make(map[doctree.Kind]int)
				b.hier[top] = counts
			}
			counts[it.Kind]++
			value = numbering.Join(top.Value, counts[it.Kind])
		} else {
			b.seq[it.Kind]++
			value = strconv.Itoa(b.seq[it.Kind])
		}
	}

	loc := b.vocab.Locator(string(it.Kind))
	e := Entry{Level: b.levelUnder(it)}
	if value == "" {
		e.Xref = orDefault(strings.TrimSpace(it.Node.Title), loc)
		return e
	}
	if it.Kind == doctree.KindFormula {
		value = "(" + value + ")"
	}
	e.Value = value
	e.Label = loc + " " + value
	e.Xref = e.Label
	return e
}

func (b *builder) bib(it *classify.Item) Entry {
	n := it.Node
	scope := ""
	if it.Parent != nil {
		scope = it.Parent.ID
	}
	info := &Bib{
		Scope:      scope,
		Identifier: strings.TrimSpace(n.Identifier),
		FixedLabel: strings.TrimSpace(n.FixedLabel),
		Normative:  n.Normative || it.Context == classify.ContextNormRefs,
	}

	label := info.FixedLabel
	if label == "" && info.Normative {
		label = info.Identifier
	}
	if info.Normative {
		if label == "" {
			b.diags.Addf(diag.CodeNumericNormativeRef, it.ID, []string{it.Location()},
				"normative reference %q has no document identifier", it.ID)
		} else if _, numeric := numbering.IsNumericLabel(label); numeric {
			b.diags.Addf(diag.CodeNumericNormativeRef, it.ID, []string{it.Location()},
				"normative reference %q is labeled only by the number %q", it.ID, label)
		}
	}
	return Entry{
		Label: label,
		Value: label,
		Xref:  label,
		Level: b.levelUnder(it),
		Bib:   info,
	}
}

func (b *builder) checkDuplicates() {
	for _, id := range b.idOrder {
		items := b.byID[id]
		if len(items) < 2 {
			continue
		}
		locs := make([]string, 0, len(items))
		for _, it := range items {
			locs = append(locs, it.Location())
		}
		b.diags.Addf(diag.CodeDuplicateAnchor, id, locs,
			"identifier %q is used by %d nodes", id, len(items))
	}
}

// container returns the nearest ancestor that holds a numbering slot.
func (b *builder) container(it *classify.Item) (*classify.Item, *numbering.Slot) {
	for p := it.Parent; p != nil; p = p.Parent {
		if s, ok := b.slots[p]; ok {
			return p, s
		}
	}
	return nil, nil
}

func (b *builder) levelUnder(it *classify.Item) int {
	if _, s := b.container(it); s != nil {
		return s.Level + 1
	}
	return it.Depth
}

func symbolText(n *doctree.Node) string {
	for _, s := range []string{n.Title, n.Content, n.Math} {
		if s = strings.TrimSpace(s); s != "" {
			return s
		}
	}
	return ""
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
