package parser

import (
	"bytes"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"

	"github.com/dgallion1/doclabel/internal/doctree"
	"github.com/dgallion1/doclabel/internal/labels"
)

var (
	// A paragraph holding only [[id]] and an optional caption anchors the
	// block that follows it.
	blockAnchorRe = regexp.MustCompile(`^\[\[([^\[\]\s,]+)\]\]\s*(.*)$`)
	imageRe       = regexp.MustCompile(`^(?:\[\[([^\[\]\s,]+)\]\]\s*)?!\[([^\]]*)\]\(([^)]*)\)$`)
	symbolItemRe  = regexp.MustCompile(`^(stem:\[[^\]]*\]|[^:\s][^:]*?)\s*:\s+(.*)$`)
)

// MarkdownParser handles Markdown files using goldmark. Headings become
// sections; {#id .type level=N} heading attributes and [[id]] markers set
// identifiers and type hints.
type MarkdownParser struct {
	Vocabulary labels.Vocabulary
}

type pendingAnchor struct {
	id, caption string
}

func (p *MarkdownParser) Parse(r io.Reader, filename string) (*doctree.Document, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	vocab := p.Vocabulary
	if vocab.Locators == nil {
		vocab = labels.Default()
	}

	md := goldmark.New(
		goldmark.WithExtensions(extension.Table),
		goldmark.WithParserOptions(parser.WithAttribute()),
	)
	root := md.Parser().Parse(text.NewReader(src))

	o := newOutline()
	var pending *pendingAnchor
	inSymbols := false

	for n := root.FirstChild(); n != nil; n = n.NextSibling() {
		anchor := pending
		pending = nil

		switch node := n.(type) {
		case *ast.Heading:
			h := headingNode(string(node.Text(src)))
			applyHeadingAttributes(node, h)
			o.heading(node.Level, h)
			role, _ := vocab.SectionRole(h.Title)
			inSymbols = role == doctree.RoleSymbols || h.Type == "symbols"

		case *ast.Paragraph:
			raw := blockText(n, src)
			if m := imageRe.FindStringSubmatch(raw); m != nil {
				fig := &doctree.Node{Type: "figure", ID: m[1], Title: m[2], Content: m[3]}
				if anchor != nil {
					fig.ID = firstNonEmpty(fig.ID, anchor.id)
					fig.Title = firstNonEmpty(anchor.caption, fig.Title)
				}
				o.block(fig)
				continue
			}
			if m := blockAnchorRe.FindStringSubmatch(raw); m != nil && !strings.Contains(m[2], "\n") {
				pending = &pendingAnchor{id: m[1], caption: strings.TrimSpace(m[2])}
				continue
			}
			o.addText(raw)

		case *east.Table:
			tbl := &doctree.Node{Type: "table", Content: inlineText(n, src)}
			if anchor != nil {
				tbl.ID, tbl.Title = anchor.id, anchor.caption
			}
			o.block(tbl)

		case *ast.FencedCodeBlock:
			code := blockText(n, src)
			switch strings.ToLower(string(node.Language(src))) {
			case "math", "stem", "latexmath", "asciimath":
				f := &doctree.Node{Type: "formula", Content: code}
				if anchor != nil {
					f.ID, f.Title = anchor.id, anchor.caption
				}
				o.block(f)
			default:
				o.addText(code)
			}

		case *ast.List:
			for item := n.FirstChild(); item != nil; item = item.NextSibling() {
				t := blockText(item, src)
				if bib, ok := bibItem(t); ok {
					o.block(bib)
					continue
				}
				if inSymbols {
					if sym, ok := symbolItem(t); ok {
						o.block(sym)
						continue
					}
				}
				o.addText(t)
			}

		default:
			o.addText(blockText(n, src))
		}
	}

	doc := o.document(trimExt(filename, ".md", ".markdown"))
	promoteTitle(doc)
	return doc, nil
}

// applyHeadingAttributes copies {#id .type key=value} attributes onto h.
func applyHeadingAttributes(node *ast.Heading, h *doctree.Node) {
	if id, ok := attrString(node, "id"); ok && id != "" {
		h.ID = id
	}
	if class, ok := attrString(node, "class"); ok {
		if fields := strings.Fields(class); len(fields) > 0 {
			h.Type = fields[0]
		}
	}
	if lvl, ok := attrString(node, "level"); ok {
		if n, err := strconv.Atoi(lvl); err == nil {
			h.Level = n
		}
	}
	if ob, ok := attrString(node, "obligation"); ok {
		h.Obligation = strings.ToLower(ob)
	}
	if u, ok := attrString(node, "unnumbered"); ok {
		h.Unnumbered = u == "" || u == "true"
	}
}

func attrString(n ast.Node, name string) (string, bool) {
	v, ok := n.AttributeString(name)
	if !ok {
		return "", false
	}
	switch t := v.(type) {
	case []byte:
		return string(t), true
	case string:
		return t, true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case bool:
		return strconv.FormatBool(t), true
	}
	return fmt.Sprint(v), true
}

func symbolItem(t string) (*doctree.Node, bool) {
	m := symbolItemRe.FindStringSubmatch(t)
	if m == nil {
		return nil, false
	}
	sym := &doctree.Node{Type: "symbol", Content: strings.TrimSpace(m[2])}
	if math, ok := strings.CutPrefix(m[1], "stem:["); ok {
		sym.Math = strings.TrimSuffix(math, "]")
	} else {
		sym.Title = strings.TrimSpace(m[1])
	}
	return sym, true
}

// blockText returns the raw source of a block, recursing into container
// blocks such as lists and block quotes.
func blockText(n ast.Node, src []byte) string {
	lines := n.Lines()
	if lines != nil && lines.Len() > 0 {
		var buf bytes.Buffer
		for i := 0; i < lines.Len(); i++ {
			line := lines.At(i)
			buf.Write(line.Value(src))
		}
		return strings.TrimSpace(buf.String())
	}
	var parts []string
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if t := blockText(c, src); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, "\n")
}

// inlineText gets the text content of inline nodes, e.g. table cells.
func inlineText(n ast.Node, src []byte) string {
	var buf bytes.Buffer
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		switch t := c.(type) {
		case *ast.Text:
			buf.Write(t.Value(src))
			if t.HardLineBreak() || t.SoftLineBreak() {
				buf.WriteByte('\n')
			}
		case *east.TableRow, *east.TableHeader:
			buf.WriteString(inlineText(c, src))
			buf.WriteByte('\n')
		case *east.TableCell:
			buf.WriteString(strings.TrimSpace(inlineText(c, src)))
			buf.WriteByte('\t')
		default:
			buf.WriteString(inlineText(c, src))
		}
	}
	return strings.TrimSpace(buf.String())
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
