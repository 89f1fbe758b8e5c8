package parser

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/fumiama/go-docx"

	"github.com/dgallion1/doclabel/internal/doctree"
)

// DOCXParser handles .docx files. Heading styles give the outline; the
// ANNEX style used by standards templates opens an annex, and Caption
// paragraphs label the figure or table that follows.
type DOCXParser struct{}

func (p *DOCXParser) Parse(r io.Reader, filename string) (*doctree.Document, error) {
	// go-docx needs a ReadSeeker+size, so write to temp file.
	tmp, err := os.CreateTemp("", "doclabel-docx-*.docx")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	size, err := io.Copy(tmp, r)
	if err != nil {
		tmp.Close()
		return nil, fmt.Errorf("write temp file: %w", err)
	}
	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("seek temp file: %w", err)
	}

	doc, err := docx.Parse(tmp, size)
	tmp.Close()
	if err != nil {
		return nil, fmt.Errorf("parse docx: %w", err)
	}

	o := newOutline()
	for _, item := range doc.Document.Body.Items {
		switch it := item.(type) {
		case *docx.Paragraph:
			text := docxParagraphText(it)
			if text == "" {
				continue
			}
			style := docxStyle(it)
			switch {
			case strings.EqualFold(style, "ANNEX"):
				h := headingNode(text)
				h.Type = "annex"
				o.heading(1, h)
			case docxHeadingLevel(style) > 0:
				o.heading(docxHeadingLevel(style), headingNode(text))
			case strings.EqualFold(style, "Caption"), strings.HasPrefix(strings.ToLower(style), "figure"):
				clean, id := splitAnchor(text)
				o.block(&doctree.Node{Type: "figure", ID: id, Title: clean})
			case strings.HasPrefix(strings.ToLower(style), "table"):
				clean, id := splitAnchor(text)
				o.block(&doctree.Node{Type: "table", ID: id, Title: clean})
			default:
				if bib, ok := bibItem(text); ok {
					o.block(bib)
					continue
				}
				o.addText(text)
			}
		case *docx.Table:
			o.block(&doctree.Node{Type: "table", Content: docxTableText(it)})
		}
	}

	return o.document(trimExt(filename, ".docx")), nil
}

func docxStyle(para *docx.Paragraph) string {
	if para.Properties == nil || para.Properties.Style == nil {
		return ""
	}
	return para.Properties.Style.Val
}

// docxHeadingLevel maps "Heading1" and "heading 1" style names to a level.
func docxHeadingLevel(style string) int {
	s := strings.ToLower(strings.ReplaceAll(style, " ", ""))
	rest, ok := strings.CutPrefix(s, "heading")
	if !ok {
		return 0
	}
	level, err := strconv.Atoi(rest)
	if err != nil || level < 1 || level > 9 {
		return 0
	}
	return level
}

func docxParagraphText(para *docx.Paragraph) string {
	var buf strings.Builder
	for _, child := range para.Children {
		run, ok := child.(*docx.Run)
		if !ok {
			continue
		}
		for _, rc := range run.Children {
			if t, ok := rc.(*docx.Text); ok {
				buf.WriteString(t.Text)
			}
		}
	}
	return strings.TrimSpace(buf.String())
}

func docxTableText(tbl *docx.Table) string {
	var rows []string
	for _, row := range tbl.TableRows {
		var cells []string
		for _, cell := range row.TableCells {
			var parts []string
			for _, para := range cell.Paragraphs {
				if t := docxParagraphText(para); t != "" {
					parts = append(parts, t)
				}
			}
			cells = append(cells, strings.Join(parts, " "))
		}
		rows = append(rows, strings.Join(cells, "\t"))
	}
	return strings.Join(rows, "\n")
}
