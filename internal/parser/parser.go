// Package parser reads source documents into the structural tree the
// labeling engine consumes. Parsers only recover structure (sections,
// floats, entries, references); content is carried through untouched.
package parser

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/dgallion1/doclabel/internal/doctree"
	"github.com/dgallion1/doclabel/internal/labels"
)

// Parser converts raw document bytes into a document tree.
type Parser interface {
	Parse(r io.Reader, filename string) (*doctree.Document, error)
}

// Options configure the parsers returned by ForFile.
type Options struct {
	// PDFFallbackPdftotext retries PDF extraction with the pdftotext binary.
	PDFFallbackPdftotext bool
	// Vocabulary is used to recognise section titles in formats without
	// explicit typing. Nil means the default vocabulary.
	Vocabulary *labels.Vocabulary
}

func (o Options) vocabulary() labels.Vocabulary {
	if o.Vocabulary != nil {
		return *o.Vocabulary
	}
	return labels.Default()
}

// SupportedExtensions lists file extensions this service can handle.
var SupportedExtensions = map[string]bool{
	".yaml":     true,
	".yml":      true,
	".json":     true,
	".md":       true,
	".markdown": true,
	".html":     true,
	".htm":      true,
	".docx":     true,
	".pdf":      true,
	".txt":      true,
}

// ForFile returns the appropriate parser for a filename.
func ForFile(filename string, opts Options) (Parser, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".yaml", ".yml":
		return &YAMLParser{}, nil
	case ".json":
		return &JSONParser{}, nil
	case ".md", ".markdown":
		return &MarkdownParser{Vocabulary: opts.vocabulary()}, nil
	case ".html", ".htm":
		return &HTMLParser{}, nil
	case ".docx":
		return &DOCXParser{}, nil
	case ".pdf":
		return &PDFParser{FallbackPdftotext: opts.PDFFallbackPdftotext, Vocabulary: opts.vocabulary()}, nil
	case ".txt":
		return &TextParser{Vocabulary: opts.vocabulary()}, nil
	default:
		return nil, fmt.Errorf("unsupported file extension: %s", ext)
	}
}

// IsSupportedExtension checks if a file extension is supported.
func IsSupportedExtension(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return SupportedExtensions[ext]
}
