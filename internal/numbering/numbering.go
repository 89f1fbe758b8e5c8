// Package numbering holds the counters and label-value rules shared by the
// anchor table builder and the citation numberer.
package numbering

import (
	"strconv"
	"strings"
)

// Options tune label values.
type Options struct {
	// HierarchicalBody numbers figures, tables and formulas in the body
	// as <top clause>.<n> instead of sequentially.
	HierarchicalBody bool `json:"hierarchical_body" yaml:"hierarchical_body"`
}

// Counter hands out increasing integers, skipping reserved values.
type Counter struct {
	last int
	skip map[int]bool
}

// NewCounter returns a counter whose first Next is 1, never yielding any of
// the reserved values.
func NewCounter(reserved ...int) *Counter {
	c := &Counter{}
	for _, n := range reserved {
		if c.skip == nil {
			c.skip = make(map[int]bool, len(reserved))
		}
		c.skip[n] = true
	}
	return c
}

// Next returns the next unreserved value.
func (c *Counter) Next() int {
	c.last++
	for c.skip[c.last] {
		c.last++
	}
	return c.last
}

// AnnexLetter returns the designation of the n-th annex (1-based):
// A..Z, then AA, AB, ...
func AnnexLetter(n int) string {
	if n <= 0 {
		return ""
	}
	var b []byte
	for n > 0 {
		n--
		b = append(b, byte('A'+n%26))
		n /= 26
	}
	for i, j := 0, len(b)-1; i < j; i, j = i+1, j-1 {
		b[i], b[j] = b[j], b[i]
	}
	return string(b)
}

// Join appends an ordinal to a dotted prefix.
func Join(prefix string, n int) string {
	if prefix == "" {
		return strconv.Itoa(n)
	}
	return prefix + "." + strconv.Itoa(n)
}

// Sub returns the value of the n-th figure nested in a figure.
func Sub(parent string, n int) string {
	return parent + "-" + strconv.Itoa(n)
}

// IsNumericLabel reports whether label is a bare number, optionally in
// square brackets, and returns it.
func IsNumericLabel(label string) (int, bool) {
	s := strings.TrimSpace(label)
	if strings.HasPrefix(s, "[") && strings.HasSuffix(s, "]") {
		s = strings.TrimSpace(s[1 : len(s)-1])
	}
	if s == "" {
		return 0, false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}

// Citation formats an auto-assigned bibliographic number.
func Citation(n int) string {
	return "[" + strconv.Itoa(n) + "]"
}
