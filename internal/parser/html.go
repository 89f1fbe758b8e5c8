package parser

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/net/html"

	"github.com/dgallion1/doclabel/internal/doctree"
)

// HTMLParser handles HTML files. Besides heading levels it understands the
// semantic markup of rendered standards: figure/figcaption, table/caption,
// div.formula, dl.symbols, li.bibitem, footnote and comment asides, and
// data-* attributes for typing and reference qualifiers.
type HTMLParser struct{}

func (p *HTMLParser) Parse(r io.Reader, filename string) (*doctree.Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	o := newOutline()
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if level := headingLevel(n.Data); level > 0 {
				h := headingNode(textContent(n))
				applyDataAttributes(n, h)
				o.heading(level, h)
				return
			}

			switch n.Data {
			case "script", "style", "nav", "footer", "header":
				return
			case "figure":
				o.block(figureNode(n))
				return
			case "table":
				o.block(tableNode(n))
				return
			case "dl":
				if hasClass(n, "symbols") {
					for _, sym := range symbolNodes(n) {
						o.block(sym)
					}
					return
				}
			case "div":
				if hasClass(n, "formula") {
					o.block(&doctree.Node{Type: "formula", ID: attr(n, "id"), Content: textContent(n)})
					return
				}
			case "aside":
				if note := noteNode(n); note != nil {
					o.attach(nil, []*doctree.Node{note})
					return
				}
			case "li":
				if bib := htmlBibItem(n); bib != nil {
					o.block(bib)
					return
				}
				fallthrough
			case "p", "td", "blockquote", "dd", "dt":
				t, refs, notes := paragraphContent(n)
				o.addText(t)
				if len(refs) > 0 || len(notes) > 0 {
					o.attach(refs, notes)
				}
				return
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	if body := findBody(root); body != nil {
		walk(body)
	} else {
		walk(root)
	}

	doc := o.document(trimExt(filename, ".html", ".htm"))
	if title := findTitle(root); title != "" {
		doc.Title = title
	} else {
		promoteTitle(doc)
	}
	return doc, nil
}

// applyDataAttributes copies id, class and data-* typing onto a node.
func applyDataAttributes(n *html.Node, node *doctree.Node) {
	if id := attr(n, "id"); id != "" {
		node.ID = id
	}
	if t := attr(n, "data-type"); t != "" {
		node.Type = t
	} else if fields := strings.Fields(attr(n, "class")); len(fields) > 0 {
		node.Type = fields[0]
	}
	if lvl, err := strconv.Atoi(attr(n, "data-level")); err == nil {
		node.Level = lvl
	}
	if ob := attr(n, "data-obligation"); ob != "" {
		node.Obligation = strings.ToLower(ob)
	}
	if hasAttr(n, "data-unnumbered") {
		node.Unnumbered = attr(n, "data-unnumbered") != "false"
	}
}

// figureNode converts a <figure>; figures nested inside it become its
// subfigures.
func figureNode(n *html.Node) *doctree.Node {
	fig := &doctree.Node{Type: "figure", ID: attr(n, "id")}
	var walk func(*html.Node)
	walk = func(c *html.Node) {
		for c := c.FirstChild; c != nil; c = c.NextSibling {
			if c.Type != html.ElementNode {
				continue
			}
			switch c.Data {
			case "figure":
				fig.Children = append(fig.Children, figureNode(c))
			case "figcaption":
				fig.Title = textContent(c)
			case "img":
				fig.Content = attr(c, "src")
			default:
				walk(c)
			}
		}
	}
	walk(n)
	return fig
}

func tableNode(n *html.Node) *doctree.Node {
	tbl := &doctree.Node{Type: "table", ID: attr(n, "id")}
	var rows []string
	var walk func(*html.Node)
	walk = func(c *html.Node) {
		for c := c.FirstChild; c != nil; c = c.NextSibling {
			if c.Type != html.ElementNode {
				continue
			}
			switch c.Data {
			case "caption":
				tbl.Title = textContent(c)
			case "tr":
				var cells []string
				for cell := c.FirstChild; cell != nil; cell = cell.NextSibling {
					if cell.Type == html.ElementNode && (cell.Data == "td" || cell.Data == "th") {
						cells = append(cells, textContent(cell))
					}
				}
				rows = append(rows, strings.Join(cells, "\t"))
			default:
				walk(c)
			}
		}
	}
	walk(n)
	tbl.Content = strings.Join(rows, "\n")
	return tbl
}

// symbolNodes reads dt/dd pairs. A dt holding only a math element is a
// math-only entry.
func symbolNodes(n *html.Node) []*doctree.Node {
	var out []*doctree.Node
	var cur *doctree.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode {
			continue
		}
		switch c.Data {
		case "dt":
			cur = &doctree.Node{Type: "symbol", ID: attr(c, "id")}
			if m := findElement(c, "math"); m != nil && strings.TrimSpace(textContent(c)) == strings.TrimSpace(textContent(m)) {
				cur.Math = renderNode(m)
			} else if hasClass(c, "stem") {
				cur.Math = textContent(c)
			} else {
				cur.Title = textContent(c)
			}
			out = append(out, cur)
		case "dd":
			if cur != nil {
				cur.Content = textContent(c)
			}
		}
	}
	return out
}

func noteNode(n *html.Node) *doctree.Node {
	for _, kind := range []string{"footnote", "comment"} {
		if hasClass(n, kind) {
			body := textContent(n)
			if body == "" {
				return nil
			}
			return &doctree.Node{Type: kind, ID: attr(n, "id"), Content: body}
		}
	}
	return nil
}

func htmlBibItem(n *html.Node) *doctree.Node {
	if hasClass(n, "bibitem") {
		return &doctree.Node{
			Type:       "bibitem",
			ID:         attr(n, "id"),
			Title:      textContent(n),
			Identifier: attr(n, "data-identifier"),
			FixedLabel: attr(n, "data-label"),
			Normative:  attr(n, "data-normative") == "true",
		}
	}
	if bib, ok := bibItem(textContent(n)); ok {
		return bib
	}
	return nil
}

// paragraphContent returns the text of a block together with the references
// made by <a href="#id"> links and the notes held in footnote spans.
func paragraphContent(n *html.Node) (string, []doctree.Reference, []*doctree.Node) {
	var buf strings.Builder
	var refs []doctree.Reference
	var notes []*doctree.Node
	var walk func(*html.Node)
	walk = func(c *html.Node) {
		switch {
		case c.Type == html.TextNode:
			buf.WriteString(c.Data)
			return
		case c.Type == html.ElementNode && (c.Data == "span" || c.Data == "aside"):
			if note := noteNode(c); note != nil {
				notes = append(notes, note)
				return
			}
		case c.Type == html.ElementNode && c.Data == "a":
			if target, ok := strings.CutPrefix(attr(c, "href"), "#"); ok && target != "" {
				text := textContent(c)
				buf.WriteString(text)
				refs = append(refs, doctree.Reference{
					Target:   target,
					Text:     text,
					Locality: attr(c, "data-locality"),
					Case:     doctree.Case(strings.ToLower(attr(c, "data-case"))),
					Droploc:  hasAttr(c, "data-droploc"),
				})
				return
			}
		}
		for cc := c.FirstChild; cc != nil; cc = cc.NextSibling {
			walk(cc)
		}
	}
	walk(n)
	return strings.TrimSpace(buf.String()), refs, notes
}

func headingLevel(tag string) int {
	switch tag {
	case "h1":
		return 1
	case "h2":
		return 2
	case "h3":
		return 3
	case "h4":
		return 4
	case "h5":
		return 5
	case "h6":
		return 6
	}
	return 0
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return strings.TrimSpace(a.Val)
		}
	}
	return ""
}

func hasAttr(n *html.Node, key string) bool {
	for _, a := range n.Attr {
		if a.Key == key {
			return true
		}
	}
	return false
}

func hasClass(n *html.Node, class string) bool {
	for _, c := range strings.Fields(attr(n, "class")) {
		if c == class {
			return true
		}
	}
	return false
}

func textContent(n *html.Node) string {
	var buf strings.Builder
	var extract func(*html.Node)
	extract = func(n *html.Node) {
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extract(c)
		}
	}
	extract(n)
	return strings.TrimSpace(buf.String())
}

func renderNode(n *html.Node) string {
	var buf strings.Builder
	if err := html.Render(&buf, n); err != nil {
		return textContent(n)
	}
	return buf.String()
}

func findElement(n *html.Node, tag string) *html.Node {
	if n.Type == html.ElementNode && n.Data == tag {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if e := findElement(c, tag); e != nil {
			return e
		}
	}
	return nil
}

func findTitle(n *html.Node) string {
	if t := findElement(n, "title"); t != nil {
		return textContent(t)
	}
	return ""
}

func findBody(n *html.Node) *html.Node {
	return findElement(n, "body")
}
