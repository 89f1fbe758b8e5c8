package parser

import (
	"bufio"
	"io"
	"strings"

	"github.com/dgallion1/doclabel/internal/doctree"
	"github.com/dgallion1/doclabel/internal/labels"
)

// TextParser handles plain text files. Paragraphs are separated by blank
// lines; numbered headings such as "3.1 Terms" open sections.
type TextParser struct {
	Vocabulary labels.Vocabulary
}

func (p *TextParser) Parse(r io.Reader, filename string) (*doctree.Document, error) {
	paragraphs, err := splitParagraphs(r)
	if err != nil {
		return nil, err
	}
	vocab := p.Vocabulary
	if vocab.Locators == nil {
		vocab = labels.Default()
	}
	return buildPlain(paragraphs, vocab).document(trimExt(filename, ".txt")), nil
}

func splitParagraphs(r io.Reader) ([]string, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var paragraphs []string
	var current strings.Builder

	for scanner.Scan() {
		line := strings.TrimRight(strings.Trim(scanner.Text(), "\f"), " \t")
		if strings.TrimSpace(line) == "" {
			if current.Len() > 0 {
				paragraphs = append(paragraphs, current.String())
				current.Reset()
			}
		} else {
			if current.Len() > 0 {
				current.WriteString("\n")
			}
			current.WriteString(line)
		}
	}
	if current.Len() > 0 {
		paragraphs = append(paragraphs, current.String())
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return paragraphs, nil
}
