package symbols

import (
	"strings"

	"golang.org/x/net/html"
)

// MathText renders a math expression as comparable plain text. Markup such
// as MathML is reduced to its text content; stem:[...] wrappers are
// removed; whitespace runs collapse.
func MathText(src string) string {
	s := strings.TrimSpace(src)
	if inner, ok := strings.CutPrefix(s, "stem:["); ok {
		s = strings.TrimSuffix(inner, "]")
	}
	if strings.Contains(s, "<") {
		s = markupText(s)
	}
	return strings.Join(strings.Fields(s), " ")
}

func markupText(s string) string {
	z := html.NewTokenizer(strings.NewReader(s))
	var b strings.Builder
	for {
		switch z.Next() {
		case html.ErrorToken:
			return b.String()
		case html.TextToken:
			b.Write(z.Text())
		}
	}
}
