// Package symbols orders the entries of symbols-and-abbreviated-terms
// lists: plain-text entries first in locale collation order, then entries
// given only as math.
package symbols

import (
	"sort"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/dgallion1/doclabel/internal/classify"
	"github.com/dgallion1/doclabel/internal/doctree"
)

// Entry is one symbol definition.
type Entry struct {
	ID    string `json:"id" yaml:"id"`
	Text  string `json:"text,omitempty" yaml:"text,omitempty"`
	Math  string `json:"math,omitempty" yaml:"math,omitempty"`
	Order int    `json:"order" yaml:"order"`
}

// MathOnly reports whether the entry has no plain-text rendering.
func (e Entry) MathOnly() bool {
	return strings.TrimSpace(e.Text) == "" && strings.TrimSpace(e.Math) != ""
}

// List is the sorted content of one symbols section.
type List struct {
	SectionID string  `json:"section_id" yaml:"section_id"`
	Entries   []Entry `json:"entries" yaml:"entries"`
}

// Collator sorts symbol entries for one locale. It is not safe for
// concurrent use.
type Collator struct {
	coll *collate.Collator
}

// NewCollator returns a case-insensitive collator for tag.
func NewCollator(tag language.Tag) *Collator {
	return &Collator{coll: collate.New(tag, collate.IgnoreCase)}
}

// Sort returns entries ordered for display. Ties keep their input order.
func (c *Collator) Sort(entries []Entry) []Entry {
	out := append([]Entry(nil), entries...)
	keys := make([]key, len(out))
	for i, e := range out {
		keys[i] = makeKey(e)
	}
	idx := make([]int, len(out))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return c.less(keys[idx[a]], keys[idx[b]])
	})
	sorted := make([]Entry, len(out))
	for i, j := range idx {
		sorted[i] = out[j]
	}
	return sorted
}

type key struct {
	math   bool
	base   string
	sub    int
	hasSub bool
	text   string // normalized math rendering
}

func makeKey(e Entry) key {
	if e.MathOnly() {
		return key{math: true, text: MathText(e.Math)}
	}
	base, sub, ok := SplitSubscript(strings.TrimSpace(e.Text))
	return key{base: base, sub: sub, hasSub: ok}
}

func (c *Collator) less(a, b key) bool {
	if a.math != b.math {
		return !a.math
	}
	if a.math {
		return a.text < b.text
	}
	if r := c.coll.CompareString(a.base, b.base); r != 0 {
		return r < 0
	}
	if a.hasSub != b.hasSub {
		return !a.hasSub
	}
	return a.sub < b.sub
}

var subscriptDigits = map[rune]rune{
	'₀': '0', '₁': '1', '₂': '2', '₃': '3', '₄': '4',
	'₅': '5', '₆': '6', '₇': '7', '₈': '8', '₉': '9',
}

// SplitSubscript separates a trailing numeric subscript from a symbol:
// "x_2", "x_{2}", "x₂" and "x2" all yield ("x", 2, true).
func SplitSubscript(s string) (base string, sub int, ok bool) {
	runes := []rune(s)
	end := len(runes)
	if end > 0 && runes[end-1] == '}' {
		if i := strings.LastIndex(s, "_{"); i > 0 {
			if n, err := strconv.Atoi(s[i+2 : len(s)-1]); err == nil {
				return s[:i], n, true
			}
		}
		return s, 0, false
	}

	i := end
	var digits []rune
	for i > 0 {
		r := runes[i-1]
		if d, isSub := subscriptDigits[r]; isSub {
			digits = append([]rune{d}, digits...)
		} else if r >= '0' && r <= '9' {
			digits = append([]rune{r}, digits...)
		} else {
			break
		}
		i--
	}
	if len(digits) == 0 || i == 0 {
		return s, 0, false
	}
	base = string(runes[:i])
	base = strings.TrimSuffix(base, "_")
	if base == "" || !unicode.IsLetter([]rune(base)[len([]rune(base))-1]) {
		return s, 0, false
	}
	n, err := strconv.Atoi(string(digits))
	if err != nil {
		return s, 0, false
	}
	return base, n, true
}

// Collate returns one sorted list per section that directly contains
// symbol entries, in document order of the sections.
func Collate(o *classify.Outline, tag language.Tag) []List {
	c := NewCollator(tag)
	var lists []List
	index := make(map[*classify.Item]int)
	var order []*classify.Item

	for _, it := range o.All() {
		if it.Kind != doctree.KindSymbol {
			continue
		}
		parent := it.Parent
		if _, ok := index[parent]; !ok {
			index[parent] = len(order)
			order = append(order, parent)
			id := ""
			if parent != nil {
				id = parent.ID
			}
			lists = append(lists, List{SectionID: id})
		}
		l := &lists[index[parent]]
		l.Entries = append(l.Entries, Entry{
			ID:    it.ID,
			Text:  entryText(it.Node),
			Math:  strings.TrimSpace(it.Node.Math),
			Order: it.Index,
		})
	}
	for i := range lists {
		lists[i].Entries = c.Sort(lists[i].Entries)
	}
	return lists
}

func entryText(n *doctree.Node) string {
	if t := strings.TrimSpace(n.Title); t != "" {
		return t
	}
	return strings.TrimSpace(n.Content)
}
