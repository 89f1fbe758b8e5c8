package parser

import (
	"regexp"
	"strings"

	"github.com/dgallion1/doclabel/internal/doctree"
	"github.com/dgallion1/doclabel/internal/labels"
)

var (
	// "3.2 Title" or "3.2. Title". The title must start with a letter so
	// that numbered list items and figures in running text are not taken
	// for headings.
	numberedHeadingRe = regexp.MustCompile(`^(\d{1,2}(?:\.\d{1,2})*)\.?\s+(\p{Lu}[^.]{0,150})$`)
	annexHeadingRe    = regexp.MustCompile(`^(?i:annex|appendix)\s+([A-Z]{1,2})\b\s*(.*)$`)
)

// plainHeading recognises a heading in formats that carry no structure, such
// as extracted PDF text: numbered clause headings, annex headings and the
// unnumbered front matter and bibliography titles.
func plainHeading(line string, vocab labels.Vocabulary) (int, *doctree.Node, bool) {
	line = strings.TrimSpace(line)
	if line == "" || strings.Contains(line, "\n") {
		return 0, nil, false
	}
	if m := annexHeadingRe.FindStringSubmatch(line); m != nil {
		n := headingNode(m[2])
		n.Type = "annex"
		n.Title = strings.TrimSpace(obligationRe.ReplaceAllString(n.Title, ""))
		if n.Title == "" {
			n.Title = "Annex " + m[1]
		}
		return 1, n, true
	}
	if m := numberedHeadingRe.FindStringSubmatch(line); m != nil {
		level := strings.Count(m[1], ".") + 1
		return level, headingNode(m[2]), true
	}
	if role, ok := vocab.SectionRole(line); ok {
		switch role {
		case doctree.RoleForeword, doctree.RoleIntroduction, doctree.RoleBibliography:
			return 1, headingNode(line), true
		}
	}
	return 0, nil, false
}

// buildPlain assembles an outline from paragraphs of plain text. Any line
// that looks like a heading opens a section; extracted PDF text often has no
// blank line after a heading.
func buildPlain(paragraphs []string, vocab labels.Vocabulary) *outline {
	o := newOutline()
	for _, para := range paragraphs {
		if bib, ok := bibItem(para); ok && !strings.Contains(para, "\n") {
			o.block(bib)
			continue
		}
		var text []string
		for _, line := range strings.Split(para, "\n") {
			if level, h, ok := plainHeading(line, vocab); ok {
				o.addText(strings.Join(text, "\n"))
				text = text[:0]
				o.heading(level, h)
				continue
			}
			text = append(text, line)
		}
		o.addText(strings.Join(text, "\n"))
	}
	return o
}
