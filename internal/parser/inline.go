package parser

import (
	"regexp"
	"strings"

	"github.com/dgallion1/doclabel/internal/doctree"
	"github.com/dgallion1/doclabel/internal/xref"
)

var (
	// <<[flags%]target[,qualifiers...][,literal]>>, footnote:[...], comment:[...]
	inlineRe = regexp.MustCompile(`<<([^<>]+)>>|\b(footnote|comment):\[([^\]]*)\]`)
	// [[id]] at the start or end of a title.
	leadingAnchorRe  = regexp.MustCompile(`^\s*\[\[([^\[\]\s,]+)\]\]\s*`)
	trailingAnchorRe = regexp.MustCompile(`\s*\[\[([^\[\]\s,]+)\]\]\s*$`)
	// [[[id,label]]] at the start of a bibliography item.
	bibItemRe    = regexp.MustCompile(`^\s*\[\[\[([^\[\],\s]+)(?:\s*,\s*([^\]]+))?\]\]\]\s*(.*)$`)
	obligationRe = regexp.MustCompile(`(?i)\((normative|informative)\)`)
)

// extractInline scans text for reference and note markup. The text itself
// is kept as-is; the references and note nodes found in it are returned in
// order of appearance.
func extractInline(text string) ([]doctree.Reference, []*doctree.Node) {
	var refs []doctree.Reference
	var notes []*doctree.Node
	for _, m := range inlineRe.FindAllStringSubmatch(text, -1) {
		if m[1] != "" {
			if ref, ok := parseXref(m[1]); ok {
				refs = append(refs, ref)
			}
			continue
		}
		body := strings.TrimSpace(m[3])
		if body == "" {
			continue
		}
		notes = append(notes, &doctree.Node{Type: m[2], Content: body})
	}
	return refs, notes
}

// parseXref parses the body of a <<...>> reference.
func parseXref(body string) (doctree.Reference, bool) {
	parts := strings.Split(body, ",")
	head := strings.Split(strings.TrimSpace(parts[0]), "%")

	var ref doctree.Reference
	ref.Target = strings.TrimSpace(head[len(head)-1])
	if ref.Target == "" {
		return ref, false
	}
	for _, flag := range head[:len(head)-1] {
		switch strings.ToLower(strings.TrimSpace(flag)) {
		case "capital":
			ref.Case = doctree.CaseCapital
		case "lowercase":
			ref.Case = doctree.CaseLowercase
		case "droploc":
			ref.Droploc = true
		}
	}

	var locs []string
	rest := parts[1:]
	for i, p := range rest {
		if !xref.IsLocalityKey(p) {
			ref.Text = strings.TrimSpace(strings.Join(rest[i:], ","))
			break
		}
		locs = append(locs, strings.TrimSpace(p))
	}
	ref.Locality = strings.Join(locs, ",")
	return ref, true
}

// splitAnchor removes a [[id]] marker from a heading or caption.
func splitAnchor(title string) (clean, id string) {
	if m := leadingAnchorRe.FindStringSubmatch(title); m != nil {
		return strings.TrimSpace(title[len(m[0]):]), m[1]
	}
	if m := trailingAnchorRe.FindStringSubmatchIndex(title); m != nil {
		return strings.TrimSpace(title[:m[0]]), title[m[2]:m[3]]
	}
	return strings.TrimSpace(title), ""
}

// headingNode builds a section node from heading text, honouring [[id]]
// markers and "(informative)"/"(normative)" annotations.
func headingNode(title string) *doctree.Node {
	clean, id := splitAnchor(title)
	n := &doctree.Node{ID: id, Title: clean}
	if m := obligationRe.FindStringSubmatch(clean); m != nil {
		n.Obligation = strings.ToLower(m[1])
	}
	return n
}

// bibItem recognises [[[id,label]]] entries. A label in parentheses is a
// fixed citation label; any other label is the document identifier.
func bibItem(text string) (*doctree.Node, bool) {
	m := bibItemRe.FindStringSubmatch(text)
	if m == nil {
		return nil, false
	}
	n := &doctree.Node{Type: "bibitem", ID: m[1], Title: strings.TrimSpace(m[3])}
	label := strings.TrimSpace(m[2])
	if inner, ok := strings.CutPrefix(label, "("); ok && strings.HasSuffix(inner, ")") {
		n.FixedLabel = strings.TrimSuffix(inner, ")")
	} else {
		n.Identifier = label
	}
	return n, true
}
